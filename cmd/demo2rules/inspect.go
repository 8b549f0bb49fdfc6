package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/demo2rules/pkg/dataset"
	"github.com/gwillem/demo2rules/pkg/pipeline"
	"github.com/gwillem/demo2rules/pkg/segment"
	"github.com/gwillem/demo2rules/pkg/waypoint"
)

type InspectCommand struct {
	demoOptions
	Plain bool `long:"plain" description:"Print a static report instead of the interactive view"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2
	borderSize   = 2
	minTableRows = 6
)

const (
	speedSeries     = "speed"
	thresholdSeries = "threshold"
	plateauSeries   = "plateau"
)

var seriesColors = map[string]string{
	speedSeries:     "51",  // cyan
	thresholdSeries: "196", // red
	plateauSeries:   "46",  // green
}

type inspectModel struct {
	title    string
	analysis segment.Analysis
	program  *pipeline.Program
	params   segment.Params
	chart    *streamlinechart.Model
	width    int
	height   int
	quitting bool
}

func newInspectModel(title string, a segment.Analysis, p *pipeline.Program, params segment.Params) inspectModel {
	m := inspectModel{
		title:    title,
		analysis: a,
		program:  p,
		params:   params,
	}
	m.plot(m.chartSize())
	return m
}

// yMax leaves headroom above the fastest sample and keeps the threshold
// visible on a still recording.
func yMax(speeds []float64, threshold float64) float64 {
	top := 2 * threshold
	for _, s := range speeds {
		if s > top {
			top = s
		}
	}
	return top * 1.1
}

// plot redraws the whole recording, downsampled to the chart width.
func (m *inspectModel) plot(w, h int) {
	chart := streamlinechart.New(w, h, streamlinechart.WithYRange(0, yMax(m.analysis.Speeds, m.params.Threshold)))
	for name, color := range seriesColors {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		chart.SetDataSetStyles(name, runes.ThinLineStyle, style)
	}
	m.chart = &chart

	n := len(m.analysis.Speeds)
	step := 1
	if n > w {
		step = (n + w - 1) / w
	}
	for i := 0; i < n; i += step {
		plateau := 0.0
		if m.analysis.Mask[i] {
			plateau = m.params.Threshold / 2
		}
		m.chart.PushDataSet(speedSeries, m.analysis.Speeds[i])
		m.chart.PushDataSet(thresholdSeries, m.params.Threshold)
		m.chart.PushDataSet(plateauSeries, plateau)
	}
	m.chart.DrawAll()
}

func (m *inspectModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	tableHeight := len(m.program.Segments) + 4
	if tableHeight < minTableRows {
		tableHeight = minTableRows
	}
	height = m.height - headerHeight - legendHeight - tableHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.plot(m.chartSize())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m inspectModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("demo2rules inspect"))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  %s  threshold=%g window=%d frames=%d edges=%v",
		m.title, m.params.Threshold, m.params.Window, len(m.analysis.Speeds), m.analysis.Edges)))
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")
	sb.WriteString(renderSeriesLegend())
	sb.WriteString("\n\n")

	if len(m.program.Segments) == 0 {
		sb.WriteString(warnStyle.Render("No stages: fewer than two plateau onsets."))
		sb.WriteString("\n")
	} else {
		sb.WriteString(renderProgram(m.program))
		sb.WriteString("\n")
	}
	sb.WriteString(dimStyle.Render("Press 'q' to quit"))
	sb.WriteString("\n")
	return sb.String()
}

func renderSeriesLegend() string {
	var items []string
	for _, name := range []string{speedSeries, thresholdSeries, plateauSeries} {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(seriesColors[name])).Bold(true)
		items = append(items, style.Render("━━")+" "+name)
	}
	return strings.Join(items, "  ")
}

// renderMask draws the plateau mask as one character per frame.
func renderMask(mask []bool) string {
	var sb strings.Builder
	for _, still := range mask {
		if still {
			sb.WriteByte('_')
		} else {
			sb.WriteByte('^')
		}
	}
	return sb.String()
}

func analyze(settings pipeline.Config, in *dataset.Input) (segment.Analysis, error) {
	if in.Table == nil {
		return segment.Analyze(in.Trajectory, settings.Params()), nil
	}
	labels := settings.ColumnLabels
	if len(labels) == 0 {
		labels = in.Table.Labels
	}
	ex, err := waypoint.BuildExtractors(labels)
	if err != nil {
		return segment.Analysis{}, err
	}
	positions, err := in.Table.Columns(ex.PoseColumns())
	if err != nil {
		return segment.Analysis{}, err
	}
	return segment.AnalyzeMatrix(in.Table.Timestamps, positions, settings.Params())
}

func (c *InspectCommand) Execute(args []string) error {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	settings := c.settings(cfg)
	if err := settings.Validate(); err != nil {
		return err
	}

	in, err := c.load(context.Background())
	if err != nil {
		return err
	}
	program, err := pipeline.RunInput(settings, in)
	if err != nil {
		return err
	}
	a, err := analyze(settings, in)
	if err != nil {
		return err
	}
	logger.Debug("analysed demonstration", "frames", len(a.Speeds), "edges", len(a.Edges), "stages", len(program.Segments))

	if c.Plain {
		fmt.Println(renderReport(a, program))
		return nil
	}

	m := newInspectModel(c.Dataset, a, program, settings.Params())
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("inspect view: %w", err)
	}
	return nil
}

// renderReport is the non-interactive form of the inspect view.
func renderReport(a segment.Analysis, p *pipeline.Program) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Frame", "Speed", "Plateau").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for i, s := range a.Speeds {
		t.Row(strconv.Itoa(i), strconv.FormatFloat(s, 'f', 4, 64), strconv.FormatBool(a.Mask[i]))
	}

	var sb strings.Builder
	sb.WriteString(t.String())
	sb.WriteString("\n")
	sb.WriteString("mask  " + renderMask(a.Mask) + "\n")
	sb.WriteString(fmt.Sprintf("edges %v\n", a.Edges))
	if len(p.Segments) == 0 {
		sb.WriteString(warnStyle.Render("No stages: fewer than two plateau onsets."))
	} else {
		sb.WriteString(renderProgram(p))
	}
	return sb.String()
}
