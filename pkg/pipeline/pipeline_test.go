package pipeline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/demo2rules/pkg/dataset"
	"github.com/gwillem/demo2rules/pkg/rules"
	"github.com/gwillem/demo2rules/pkg/segment"
	"github.com/gwillem/demo2rules/pkg/trajectory"
	"github.com/gwillem/demo2rules/pkg/waypoint"
)

// pickAndPlace is a position-only demo with three static phases.
func pickAndPlace(t *testing.T) trajectory.Trajectory {
	t.Helper()
	var frames []trajectory.Frame
	add := func(n int, q []float64, open bool) {
		for i := 0; i < n; i++ {
			frames = append(frames, trajectory.Frame{Q: append([]float64{}, q...), GripperOpen: trajectory.Open(open)})
		}
	}
	move := func(from, to []float64, steps int, open bool) {
		for s := 1; s <= steps; s++ {
			q := make([]float64, len(from))
			for j := range q {
				q[j] = from[j] + (to[j]-from[j])*float64(s)/float64(steps)
			}
			frames = append(frames, trajectory.Frame{Q: q, GripperOpen: trajectory.Open(open)})
		}
	}

	home := []float64{0, 0, 0}
	pick := []float64{1, 0.5, 0}
	place := []float64{-1, 0.5, 0.5}
	move(home, []float64{0.2, 0, 0}, 3, true)
	add(5, []float64{0.2, 0, 0}, true)
	move([]float64{0.2, 0, 0}, pick, 4, true)
	add(5, pick, false)
	move(pick, place, 4, false)
	add(5, place, true)

	traj, err := trajectory.New(frames)
	require.NoError(t, err)
	return traj
}

func TestRun_PickAndPlace(t *testing.T) {
	cfg := Config{VelocityThreshold: 0.05, Window: 3}

	p, err := Run(cfg, pickAndPlace(t))
	require.NoError(t, err)

	require.Len(t, p.Segments, 2)
	require.Len(t, p.Specs, 2)
	assert.Equal(t, 2, p.Rules())
	assert.Equal(t, []float64{1, 0.5, 0}, p.Specs[0].Pose)
	assert.False(t, p.Specs[0].Grip)
	assert.Equal(t, []float64{-1, 0.5, 0.5}, p.Specs[1].Pose)
	assert.True(t, p.Specs[1].Grip)

	report, err := rules.Validate(p.Text)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Stages)
}

func TestRun_NoMotionGivesStartAndDoneOnly(t *testing.T) {
	traj, err := trajectory.New([]trajectory.Frame{{Q: []float64{1}}, {Q: []float64{1}}, {Q: []float64{1}}})
	require.NoError(t, err)

	p, err := Run(DefaultConfig(), traj)
	require.NoError(t, err)
	assert.Empty(t, p.Segments)
	assert.Empty(t, p.Specs)
	assert.Contains(t, p.Text, "@when_all(+m.ready)")
	assert.Contains(t, p.Text, "def done(c)")
	assert.NotContains(t, p.Text, "def stage_")
}

func TestRun_InvalidParams(t *testing.T) {
	traj, err := trajectory.New([]trajectory.Frame{{}})
	require.NoError(t, err)

	_, err = Run(Config{VelocityThreshold: 0, Window: 3}, traj)
	assert.ErrorIs(t, err, segment.ErrInvalidParams)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.ColumnLabels = []string{"observation.state motor_0"}
	assert.ErrorIs(t, cfg.Validate(), waypoint.ErrMalformedLabel)
}

const bimanualCSV = `timestamp,observation.state | motor_0,observation.state | motor_0_secondary,gripper_open | action,gripper_open_secondary | action
0.0,0.0,0.0,1,1
0.5,0.5,0.0,1,1
1.0,0.5,0.0,0,1
1.5,0.5,0.0,0,1
2.0,0.5,0.0,0,1
2.5,1.0,0.3,0,0
`

func TestRunTable_Bimanual(t *testing.T) {
	table, err := dataset.ReadCSV(strings.NewReader(bimanualCSV))
	require.NoError(t, err)

	p, err := RunTable(Config{VelocityThreshold: 0.1, Window: 1}, table)
	require.NoError(t, err)

	assert.Equal(t, []segment.Segment{{Start: 2, End: 5}}, p.Segments)
	require.Len(t, p.Arms, 1)
	assert.Equal(t, waypoint.Spec{Pose: []float64{1.0}, Grip: false}, p.Arms[0].Left)
	require.NotNil(t, p.Arms[0].Right)
	assert.Equal(t, []float64{0.3}, p.Arms[0].Right.Pose)
	assert.Equal(t, map[string]bool{"left_grip": false, "right_grip": false}, p.Arms[0].Misc)

	assert.Contains(t, p.Text, "left_arm.move_j([1])")
	assert.Contains(t, p.Text, "right_arm.move_j([0.3])")
	_, err = rules.Validate(p.Text)
	require.NoError(t, err)
}

func TestRunTable_LabelErrorsAreSurfaced(t *testing.T) {
	table, err := dataset.ReadCSV(strings.NewReader("motor_0\n1\n2\n"))
	require.NoError(t, err)

	_, err = RunTable(DefaultConfig(), table)
	assert.ErrorIs(t, err, waypoint.ErrMalformedLabel)

	// configured labels override the header but must cover every value
	cfg := DefaultConfig()
	cfg.ColumnLabels = []string{"q | j0", "q | j1"}
	_, err = RunTable(cfg, table)
	assert.ErrorIs(t, err, waypoint.ErrShortRow)
}

func TestEmit(t *testing.T) {
	var buf bytes.Buffer
	in := &dataset.Input{Kind: dataset.KindDir, Trajectory: pickAndPlace(t)}

	p, err := Emit(Config{VelocityThreshold: 0.05, Window: 3}, in, rules.WriterSink{W: &buf})
	require.NoError(t, err)
	assert.Equal(t, p.Text, buf.String())
}
