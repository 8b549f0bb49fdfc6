// Package rules renders waypoints into a staged durable_rules program.
package rules

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/gwillem/demo2rules/pkg/waypoint"
)

// TemplateVersion is bumped whenever the generated text changes shape.
const TemplateVersion = 1

// Ruleset is the name of the generated durable_rules ruleset.
const Ruleset = "so101"

const indent = "        "

var funcs = template.FuncMap{
	"pylist": PyList,
	"pybool": PyBool,
}

const headerText = `# Generated by demo2rules (template v{{.Version}}). Do not edit.
from durable.lang import *

with ruleset('{{.Ruleset}}'):

    @when_all(+m.ready)
    def start(c):
        c.post({'stage': 0})

`

const stageText = `    @when_all(m.stage == {{.Idx}})
    def stage_{{.Idx}}(c):
        arm.move_j({{pylist .Pose}})
        arm.grip(open={{pybool .Grip}})
        c.post({'stage': {{.NextIdx}}})

`

// RuleTemplate is the per-arm stage template. Optional blocks are complete
// indented lines, or empty strings when not applicable.
const RuleTemplate = `    @when_all(m.stage == {{.Idx}})
    def stage_{{.Idx}}(c):
        left_arm.move_j({{pylist .LeftJ}})
{{.RightMoveJ}}{{.LeftCartBlock}}{{.RightCartBlock}}{{.GripBlock}}        c.post({'stage': {{.NextIdx}}})

`

const doneText = `    @when_all(m.stage == {{.Idx}})
    def done(c):
        print('Finished demo!')
`

var (
	headerTmpl = template.Must(template.New("header").Parse(headerText))
	stageTmpl  = template.Must(template.New("stage").Funcs(funcs).Parse(stageText))
	ruleTmpl   = template.Must(template.New("rule").Funcs(funcs).Parse(RuleTemplate))
	doneTmpl   = template.Must(template.New("done").Parse(doneText))
)

type header struct {
	Version int
	Ruleset string
}

type stage struct {
	Idx     int
	NextIdx int
	Pose    []float64
	Grip    bool
}

type done struct {
	Idx int
}

// StageBlock fills RuleTemplate.
type StageBlock struct {
	Idx            int
	NextIdx        int
	LeftJ          []float64
	RightMoveJ     string
	LeftCartBlock  string
	RightCartBlock string
	GripBlock      string
}

// GenerateRules renders a start trigger, one stage per spec and a terminal
// done stage numbered len(specs).
func GenerateRules(specs []waypoint.Spec) (string, error) {
	var sb strings.Builder
	if err := headerTmpl.Execute(&sb, header{Version: TemplateVersion, Ruleset: Ruleset}); err != nil {
		return "", fmt.Errorf("render header: %w", err)
	}
	for idx, spec := range specs {
		s := stage{Idx: idx, NextIdx: idx + 1, Pose: spec.Pose, Grip: spec.Grip}
		if err := stageTmpl.Execute(&sb, s); err != nil {
			return "", fmt.Errorf("render stage %d: %w", idx, err)
		}
	}
	if err := doneTmpl.Execute(&sb, done{Idx: len(specs)}); err != nil {
		return "", fmt.Errorf("render done: %w", err)
	}
	return sb.String(), nil
}

// RenderStage renders one per-arm stage block.
func RenderStage(b StageBlock) (string, error) {
	var sb strings.Builder
	if err := ruleTmpl.Execute(&sb, b); err != nil {
		return "", fmt.Errorf("render stage %d: %w", b.Idx, err)
	}
	return sb.String(), nil
}

// NewStageBlock builds the per-arm block for stage idx. Blocks for a
// missing right arm or missing cartesian targets are left empty.
func NewStageBlock(idx int, spec waypoint.ArmsSpec) StageBlock {
	b := StageBlock{
		Idx:     idx,
		NextIdx: idx + 1,
		LeftJ:   spec.Left.Pose,
	}
	if spec.Right != nil {
		b.RightMoveJ = line("right_arm.move_j(%s)", PyList(spec.Right.Pose))
	}
	if spec.LeftCart != nil {
		b.LeftCartBlock = line("left_arm.move_l(%s)", PyList(spec.LeftCart))
	}
	if spec.RightCart != nil {
		b.RightCartBlock = line("right_arm.move_l(%s)", PyList(spec.RightCart))
	}
	b.GripBlock = line("left_arm.grip(open=%s)", PyBool(spec.Left.Grip))
	if spec.Right != nil {
		b.GripBlock += line("right_arm.grip(open=%s)", PyBool(spec.Right.Grip))
	}
	return b
}

// GenerateArmsRules renders a program for column-labelled, possibly
// two-armed recordings using RuleTemplate.
func GenerateArmsRules(specs []waypoint.ArmsSpec) (string, error) {
	var sb strings.Builder
	if err := headerTmpl.Execute(&sb, header{Version: TemplateVersion, Ruleset: Ruleset}); err != nil {
		return "", fmt.Errorf("render header: %w", err)
	}
	for idx, spec := range specs {
		block, err := RenderStage(NewStageBlock(idx, spec))
		if err != nil {
			return "", err
		}
		sb.WriteString(block)
	}
	if err := doneTmpl.Execute(&sb, done{Idx: len(specs)}); err != nil {
		return "", fmt.Errorf("render done: %w", err)
	}
	return sb.String(), nil
}

func line(format string, args ...any) string {
	return indent + fmt.Sprintf(format, args...) + "\n"
}

// PyList formats numbers as a Python list literal.
func PyList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// PyBool formats a Python boolean literal.
func PyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
