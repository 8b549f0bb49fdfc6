// Package pipeline wires segmentation, waypoint extraction and rendering
// into one pure transform from a demonstration to a rule program.
package pipeline

import (
	"fmt"

	"github.com/gwillem/demo2rules/pkg/dataset"
	"github.com/gwillem/demo2rules/pkg/rules"
	"github.com/gwillem/demo2rules/pkg/segment"
	"github.com/gwillem/demo2rules/pkg/trajectory"
	"github.com/gwillem/demo2rules/pkg/waypoint"
)

// Config holds every input of a run besides the demonstration itself.
type Config struct {
	VelocityThreshold float64  `json:"velocity_threshold"`
	Window            int      `json:"window"`
	ColumnLabels      []string `json:"column_labels,omitempty"`
}

// DefaultConfig returns the standard segmentation parameters.
func DefaultConfig() Config {
	return Config{
		VelocityThreshold: segment.DefaultThreshold,
		Window:            segment.DefaultWindow,
	}
}

// Params returns the segmentation parameters.
func (c Config) Params() segment.Params {
	return segment.Params{Threshold: c.VelocityThreshold, Window: c.Window}
}

// Validate checks segmentation parameters and column labels.
func (c Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if len(c.ColumnLabels) > 0 {
		if _, err := waypoint.BuildExtractors(c.ColumnLabels); err != nil {
			return err
		}
	}
	return nil
}

// Program is the result of a run.
type Program struct {
	Segments []segment.Segment
	Specs    []waypoint.Spec     // frame-based runs
	Arms     []waypoint.ArmsSpec // column-labelled runs
	Text     string
}

// Rules is the number of rule stages in the program.
func (p *Program) Rules() int {
	return len(p.Segments)
}

// Run segments a frame-based trajectory and renders one stage per segment.
func Run(cfg Config, traj trajectory.Trajectory) (*Program, error) {
	if err := cfg.Params().Validate(); err != nil {
		return nil, err
	}
	segments := segment.DetectSegments(traj, cfg.VelocityThreshold, cfg.Window)
	specs := waypoint.SummariseAll(traj, segments)
	text, err := rules.GenerateRules(specs)
	if err != nil {
		return nil, err
	}
	return &Program{Segments: segments, Specs: specs, Text: text}, nil
}

// RunTable segments a flat, column-labelled recording and renders the
// per-arm program. Labels come from cfg.ColumnLabels, falling back to the
// table's own header.
func RunTable(cfg Config, table *dataset.Table) (*Program, error) {
	if err := cfg.Params().Validate(); err != nil {
		return nil, err
	}
	labels := cfg.ColumnLabels
	if len(labels) == 0 {
		labels = table.Labels
	}
	ex, err := waypoint.BuildExtractors(labels)
	if err != nil {
		return nil, fmt.Errorf("column labels: %w", err)
	}
	for i, row := range table.Rows {
		if err := ex.Check(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}

	positions, err := table.Columns(ex.PoseColumns())
	if err != nil {
		return nil, fmt.Errorf("pose columns: %w", err)
	}
	segments, err := segment.DetectSegmentsFromMatrix(table.Timestamps, positions, cfg.VelocityThreshold, cfg.Window)
	if err != nil {
		return nil, err
	}

	arms := make([]waypoint.ArmsSpec, 0, len(segments))
	for _, s := range segments {
		spec, err := ex.Summarise(table.Rows[s.End])
		if err != nil {
			return nil, err
		}
		arms = append(arms, spec)
	}
	text, err := rules.GenerateArmsRules(arms)
	if err != nil {
		return nil, err
	}
	return &Program{Segments: segments, Arms: arms, Text: text}, nil
}

// RunInput dispatches on the kind of loaded demonstration.
func RunInput(cfg Config, in *dataset.Input) (*Program, error) {
	if in.Table != nil {
		return RunTable(cfg, in.Table)
	}
	return Run(cfg, in.Trajectory)
}

// Emit runs the pipeline and hands the program to a sink.
func Emit(cfg Config, in *dataset.Input, sink rules.Sink) (*Program, error) {
	p, err := RunInput(cfg, in)
	if err != nil {
		return nil, err
	}
	if err := sink.Write(p.Text, p.Rules()); err != nil {
		return nil, err
	}
	return p, nil
}
