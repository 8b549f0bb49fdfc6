package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gwillem/demo2rules/pkg/trajectory"
)

const (
	infoPath       = "meta/info.json"
	episodePattern = "data/episode_%06d.jsonl"
)

// Feature describes one recorded feature in meta/info.json.
type Feature struct {
	DType string   `json:"dtype"`
	Shape []int    `json:"shape"`
	Names []string `json:"names,omitempty"`
}

// Info is the dataset metadata in meta/info.json.
type Info struct {
	FPS           int                `json:"fps"`
	TotalEpisodes int                `json:"total_episodes"`
	RobotType     string             `json:"robot_type,omitempty"`
	Features      map[string]Feature `json:"features"`
}

// ColumnLabels returns "<feature> | <name>" for every named feature
// element, features in sorted order.
func (i Info) ColumnLabels() []string {
	keys := make([]string, 0, len(i.Features))
	for k := range i.Features {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var labels []string
	for _, k := range keys {
		for _, name := range i.Features[k].Names {
			labels = append(labels, k+" | "+name)
		}
	}
	return labels
}

// Dir is a dataset directory: meta/info.json plus one JSONL file of frames
// per episode under data/.
type Dir struct {
	Path string
	Info Info
}

// OpenDir reads a dataset directory's metadata.
func OpenDir(path string) (*Dir, error) {
	data, err := os.ReadFile(filepath.Join(path, infoPath))
	if err != nil {
		return nil, fmt.Errorf("read dataset info: %w", err)
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse dataset info: %w", err)
	}
	return &Dir{Path: path, Info: info}, nil
}

// CreateDir creates a new dataset directory with the given metadata.
func CreateDir(path string, info Info) (*Dir, error) {
	if err := os.MkdirAll(filepath.Join(path, "meta"), 0755); err != nil {
		return nil, fmt.Errorf("create dataset: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(path, "data"), 0755); err != nil {
		return nil, fmt.Errorf("create dataset: %w", err)
	}
	d := &Dir{Path: path, Info: info}
	if err := d.saveInfo(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dir) saveInfo() error {
	data, err := json.MarshalIndent(d.Info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(d.Path, infoPath), data, 0644)
}

func (d *Dir) episodePath(idx int) string {
	return filepath.Join(d.Path, fmt.Sprintf(episodePattern, idx))
}

// Episode loads one episode's frames.
func (d *Dir) Episode(idx int) (*Episode, error) {
	data, err := os.ReadFile(d.episodePath(idx))
	if err != nil {
		return nil, fmt.Errorf("read episode %d: %w", idx, err)
	}

	var frames []trajectory.Frame
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		f, err := trajectory.DecodeFrame(raw)
		if err != nil {
			return nil, fmt.Errorf("episode %d line %d: %w", idx, line, err)
		}
		frames = append(frames, f)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan episode %d: %w", idx, err)
	}
	return &Episode{Index: idx, frames: frames}, nil
}

// WriteEpisode stores frames as episode idx and updates the episode count.
func (d *Dir) WriteEpisode(idx int, frames []trajectory.Frame) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, f := range frames {
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode frame: %w", err)
		}
	}
	if err := os.WriteFile(d.episodePath(idx), buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write episode %d: %w", idx, err)
	}
	if idx >= d.Info.TotalEpisodes {
		d.Info.TotalEpisodes = idx + 1
		return d.saveInfo()
	}
	return nil
}

// Episode is one loaded demonstration. It implements Source.
type Episode struct {
	Index  int
	frames []trajectory.Frame
}

// Len implements Source.
func (e *Episode) Len() int {
	return len(e.frames)
}

// Frame implements Source.
func (e *Episode) Frame(i int) (trajectory.Frame, error) {
	if i < 0 || i >= len(e.frames) {
		return trajectory.Frame{}, fmt.Errorf("frame %d out of range [0,%d)", i, len(e.frames))
	}
	return e.frames[i], nil
}
