package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidProgram is returned when generated text breaks the stage grammar.
var ErrInvalidProgram = errors.New("invalid rule program")

var (
	startRe = regexp.MustCompile(`(?m)^\s*@when_all\(\+m\.ready\)\s*$`)
	stageRe = regexp.MustCompile(`(?m)^\s*@when_all\(m\.stage == (\d+)\)\s*\n\s*def (\w+)\(`)
)

// Report summarises a structurally valid program.
type Report struct {
	Stages   int // rule stages, excluding start and done
	Terminal int // stage number of the done block
}

// Validate checks the stage grammar of a generated program: a start
// trigger, stage conditions numbered 0..n without gaps or repeats, stage
// blocks named stage_<idx>, and a final done block.
func Validate(text string) (Report, error) {
	start := startRe.FindStringIndex(text)
	if start == nil {
		return Report{}, fmt.Errorf("%w: missing start trigger", ErrInvalidProgram)
	}

	matches := stageRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return Report{}, fmt.Errorf("%w: no stage blocks", ErrInvalidProgram)
	}
	if matches[0][0] < start[0] {
		return Report{}, fmt.Errorf("%w: stage block before start trigger", ErrInvalidProgram)
	}

	last := len(matches) - 1
	for i, m := range matches {
		idx, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			return Report{}, fmt.Errorf("%w: stage number: %v", ErrInvalidProgram, err)
		}
		if idx != i {
			return Report{}, fmt.Errorf("%w: stage %d found where stage %d expected", ErrInvalidProgram, idx, i)
		}

		name := text[m[4]:m[5]]
		switch {
		case i == last && name != "done":
			return Report{}, fmt.Errorf("%w: last stage %d is %q, want done", ErrInvalidProgram, idx, name)
		case i < last && name != "stage_"+strconv.Itoa(idx):
			return Report{}, fmt.Errorf("%w: stage %d is named %q", ErrInvalidProgram, idx, name)
		}
	}

	if strings.Count(text, "def done(") != 1 {
		return Report{}, fmt.Errorf("%w: want exactly one done block", ErrInvalidProgram)
	}
	return Report{Stages: last, Terminal: last}, nil
}
