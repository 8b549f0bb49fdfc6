// Package dataset loads recorded demonstrations from disk.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gwillem/demo2rules/pkg/trajectory"
)

// ErrUnsupported is returned for dataset references this package cannot open.
var ErrUnsupported = errors.New("unsupported dataset")

// Source gives sequential indexed access to frames.
type Source interface {
	Len() int
	Frame(i int) (trajectory.Frame, error)
}

// Load reads every frame of a source into a Trajectory.
func Load(src Source) (trajectory.Trajectory, error) {
	frames := make([]trajectory.Frame, src.Len())
	for i := range frames {
		f, err := src.Frame(i)
		if err != nil {
			return trajectory.Trajectory{}, fmt.Errorf("frame %d: %w", i, err)
		}
		frames[i] = f
	}
	return trajectory.New(frames)
}

// Kind is the on-disk format of a dataset reference.
type Kind int

const (
	KindDir Kind = iota
	KindCSV
	KindSQLite
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindCSV:
		return "csv"
	case KindSQLite:
		return "sqlite"
	}
	return "unknown"
}

// Detect works out the format of a dataset path.
func Detect(path string) (Kind, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && strings.Count(path, "/") == 1 && !strings.HasPrefix(path, ".") {
			return 0, fmt.Errorf("%w: %q looks like a hub repo id; download it and export to JSONL first", ErrUnsupported, path)
		}
		return 0, fmt.Errorf("stat dataset: %w", err)
	}
	if info.IsDir() {
		return KindDir, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return KindCSV, nil
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupported, path)
}
