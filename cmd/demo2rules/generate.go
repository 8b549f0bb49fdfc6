package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/demo2rules/pkg/config"
	"github.com/gwillem/demo2rules/pkg/dataset"
	"github.com/gwillem/demo2rules/pkg/pipeline"
	"github.com/gwillem/demo2rules/pkg/rules"
	"github.com/gwillem/demo2rules/pkg/waypoint"
)

// demoOptions are shared by every command that loads a demonstration.
type demoOptions struct {
	Dataset   string   `long:"dataset" short:"d" required:"true" description:"Dataset directory, CSV file or SQLite store"`
	Episode   int      `long:"episode" short:"e" default:"0" description:"Episode index within a dataset directory"`
	Recording string   `long:"recording" description:"Recording id within a SQLite store (default: latest)"`
	VelThresh float64  `long:"vel-thresh" description:"Plateau speed threshold (default from config)"`
	Window    int      `long:"window" description:"Plateau smoothing window in frames (default from config)"`
	Columns   []string `long:"column" description:"Column label, repeat once per column (default: dataset header)"`
}

// settings merges the command-line overrides into the configured
// segmentation settings. A window of 0 or 1 smooths nothing, so 0 is
// treated as unset.
func (o demoOptions) settings(cfg *config.Config) pipeline.Config {
	s := cfg.Segmentation
	if o.VelThresh != 0 {
		s.VelocityThreshold = o.VelThresh
	}
	if o.Window != 0 {
		s.Window = o.Window
	}
	if len(o.Columns) > 0 {
		s.ColumnLabels = o.Columns
	}
	return s
}

func (o demoOptions) load(ctx context.Context) (*dataset.Input, error) {
	in, err := dataset.Open(ctx, o.Dataset, dataset.Selector{
		Episode:     o.Episode,
		RecordingID: o.Recording,
	})
	if errors.Is(err, dataset.ErrUnsupported) {
		return nil, fmt.Errorf("%w: export the demonstration to CSV or record one with 'demo2rules record'", err)
	}
	return in, err
}

type GenerateCommand struct {
	demoOptions
	Out   string `long:"out" short:"o" description:"Output file, - for stdout (default from config)"`
	Force bool   `long:"force" short:"f" description:"Overwrite the output file without asking"`
}

func (c *GenerateCommand) Execute(args []string) error {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	settings := c.settings(cfg)
	if err := settings.Validate(); err != nil {
		return err
	}

	out := c.Out
	if out == "" {
		out = cfg.Output
	}

	in, err := c.load(context.Background())
	if err != nil {
		return err
	}
	logger.Debug("loaded demonstration", "dataset", c.Dataset, "kind", in.Kind)

	if out == "-" {
		_, err := pipeline.Emit(settings, in, rules.WriterSink{W: os.Stdout})
		return err
	}

	if !c.Force && config.Exists(out) {
		ok, err := confirmOverwrite(out)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println(dimStyle.Render("Nothing written."))
			return nil
		}
	}

	p, err := pipeline.Emit(settings, in, rules.FileSink{Path: out, Logger: logger})
	if err != nil {
		return err
	}

	fmt.Println(renderProgram(p))
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Wrote %d rules to %s", p.Rules(), out)))
	return nil
}

func confirmOverwrite(path string) (bool, error) {
	if fi, err := os.Stdin.Stat(); err != nil || fi.Mode()&os.ModeCharDevice == 0 {
		return false, fmt.Errorf("%s exists (use --force to overwrite)", path)
	}
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s exists. Overwrite?", path)).
				Affirmative("Overwrite").
				Negative("Cancel").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}

// renderProgram tabulates the stages of a program.
func renderProgram(p *pipeline.Program) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Stage", "Start", "End", "Pose", "Grip").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for i, s := range p.Segments {
		var spec waypoint.Spec
		switch {
		case i < len(p.Specs):
			spec = p.Specs[i]
		case i < len(p.Arms):
			spec = p.Arms[i].Left
		}
		t.Row(strconv.Itoa(i), strconv.Itoa(s.Start), strconv.Itoa(s.End), rules.PyList(spec.Pose), rules.PyBool(spec.Grip))
	}
	return t.String()
}
