package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gwillem/demo2rules/pkg/trajectory"
)

func sampleFrames() []trajectory.Frame {
	return []trajectory.Frame{
		{Q: []float64{0, 0}, Timestamp: 0},
		{Q: []float64{1, 0}, Timestamp: 0.5, GripperOpen: trajectory.Open(true)},
		{State: []float64{1, 0, 0, 0}, Timestamp: 1.0, GripperOpen: trajectory.Open(false)},
	}
}

func TestDir_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo")
	d, err := CreateDir(path, Info{
		FPS: 30,
		Features: map[string]Feature{
			"observation.state": {DType: "float32", Shape: []int{2}, Names: []string{"shoulder_pan.pos", "gripper.pos"}},
			"action":            {DType: "float32", Shape: []int{1}, Names: []string{"shoulder_pan.pos"}},
		},
	})
	if err != nil {
		t.Fatalf("CreateDir: %v", err)
	}
	if err := d.WriteEpisode(0, sampleFrames()); err != nil {
		t.Fatalf("WriteEpisode: %v", err)
	}

	reopened, err := OpenDir(path)
	if err != nil {
		t.Fatalf("OpenDir: %v", err)
	}
	if reopened.Info.TotalEpisodes != 1 {
		t.Errorf("TotalEpisodes = %d, want 1", reopened.Info.TotalEpisodes)
	}

	wantLabels := []string{
		"action | shoulder_pan.pos",
		"observation.state | shoulder_pan.pos",
		"observation.state | gripper.pos",
	}
	if diff := cmp.Diff(wantLabels, reopened.Info.ColumnLabels()); diff != "" {
		t.Errorf("ColumnLabels mismatch (-want +got):\n%s", diff)
	}

	ep, err := reopened.Episode(0)
	if err != nil {
		t.Fatalf("Episode: %v", err)
	}
	traj, err := Load(ep)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if traj.Len() != 3 {
		t.Fatalf("Len = %d, want 3", traj.Len())
	}
	if !traj.At(1).Grip() || traj.At(2).Grip() || traj.At(0).GripperOpen != nil {
		t.Errorf("gripper flags not preserved: %v %v %v", traj.At(0).GripperOpen, traj.At(1).GripperOpen, traj.At(2).GripperOpen)
	}
	if diff := cmp.Diff([]float64{1, 0, 0, 0}, traj.At(2).State); diff != "" {
		t.Errorf("State mismatch (-want +got):\n%s", diff)
	}

	if _, err := ep.Frame(3); err == nil {
		t.Error("Frame(3) should be out of range")
	}
}

func TestDir_BadEpisodeLine(t *testing.T) {
	path := t.TempDir()
	d, err := CreateDir(path, Info{FPS: 30})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(d.episodePath(0), []byte("{\"q\":[1]}\nnot json\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = d.Episode(0)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("Episode error = %v, want a line 2 decode error", err)
	}
}

func TestReadCSV(t *testing.T) {
	in := `timestamp,observation.state | motor_0,gripper_open | action
0.0,0.1,true
0.5,0.2,0
`
	table, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	if diff := cmp.Diff([]string{"observation.state | motor_0", "gripper_open | action"}, table.Labels); diff != "" {
		t.Errorf("Labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{0, 0.5}, table.Timestamps); diff != "" {
		t.Errorf("Timestamps mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]float64{{0.1, 1}, {0.2, 0}}, table.Rows); diff != "" {
		t.Errorf("Rows mismatch (-want +got):\n%s", diff)
	}

	m, err := table.Columns([]int{0})
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}
	if r, c := m.Dims(); r != 2 || c != 1 || m.At(1, 0) != 0.2 {
		t.Errorf("Columns matrix = %dx%d with At(1,0)=%v", r, c, m.At(1, 0))
	}
}

func TestReadCSV_WithoutTimestamps(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("q | j0\n1\n2\n3\n"))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if diff := cmp.Diff([]float64{0, 1, 2}, table.Timestamps); diff != "" {
		t.Errorf("Timestamps mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":      "",
		"no rows":    "q | j0\n",
		"bad number": "q | j0\nabc\n",
		"ragged":     "q | j0,q | j1\n1\n",
	}
	for name, in := range tests {
		if _, err := ReadCSV(strings.NewReader(in)); err == nil {
			t.Errorf("%s: ReadCSV should fail", name)
		}
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "demos.db")
	s, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if _, err := s.Latest(ctx); !errors.Is(err, ErrNoRecording) {
		t.Errorf("Latest on empty store = %v, want ErrNoRecording", err)
	}

	rec, err := s.CreateRecording(ctx, 30, "so101")
	if err != nil {
		t.Fatalf("CreateRecording: %v", err)
	}
	for i, f := range sampleFrames() {
		if err := s.AppendFrame(ctx, rec.ID, i, f); err != nil {
			t.Fatalf("AppendFrame: %v", err)
		}
	}

	latest, err := s.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.ID != rec.ID || latest.FPS != 30 || latest.RobotType != "so101" {
		t.Errorf("Latest = %+v, want %+v", latest, rec)
	}

	ep, err := s.Frames(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	traj, err := Load(ep)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := sampleFrames()
	for i := range want {
		got := traj.At(i)
		if diff := cmp.Diff(want[i].Q, got.Q); diff != "" {
			t.Errorf("frame %d Q mismatch (-want +got):\n%s", i, diff)
		}
		if diff := cmp.Diff(want[i].State, got.State); diff != "" {
			t.Errorf("frame %d State mismatch (-want +got):\n%s", i, diff)
		}
		if want[i].Grip() != got.Grip() || (want[i].GripperOpen == nil) != (got.GripperOpen == nil) {
			t.Errorf("frame %d gripper = %v, want %v", i, got.GripperOpen, want[i].GripperOpen)
		}
		if got.Timestamp != want[i].Timestamp {
			t.Errorf("frame %d timestamp = %v, want %v", i, got.Timestamp, want[i].Timestamp)
		}
	}

	if _, err := s.Frames(ctx, "missing"); !errors.Is(err, ErrNoRecording) {
		t.Errorf("Frames(missing) = %v, want ErrNoRecording", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "flat.csv")
	if err := os.WriteFile(csvPath, []byte("q | j0\n1\n2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	in, err := Open(ctx, csvPath, Selector{})
	if err != nil {
		t.Fatalf("Open(csv): %v", err)
	}
	if in.Kind != KindCSV || in.Table == nil || len(in.Table.Rows) != 2 {
		t.Errorf("Open(csv) = %+v", in)
	}

	dsPath := filepath.Join(dir, "ds")
	d, err := CreateDir(dsPath, Info{FPS: 30})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.WriteEpisode(0, sampleFrames()); err != nil {
		t.Fatal(err)
	}
	in, err = Open(ctx, dsPath, Selector{})
	if err != nil {
		t.Fatalf("Open(dir): %v", err)
	}
	if in.Kind != KindDir || in.Trajectory.Len() != 3 {
		t.Errorf("Open(dir) kind=%v len=%d", in.Kind, in.Trajectory.Len())
	}
	if _, err := Open(ctx, dsPath, Selector{Episode: 4}); err == nil {
		t.Error("Open(dir) with a missing episode should fail")
	}

	dbPath := filepath.Join(dir, "demos.sqlite")
	s, err := OpenStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := s.CreateRecording(ctx, 30, "so101")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AppendFrame(ctx, rec.ID, 0, trajectory.Frame{Q: []float64{1}}); err != nil {
		t.Fatal(err)
	}
	s.Close()
	in, err = Open(ctx, dbPath, Selector{})
	if err != nil {
		t.Fatalf("Open(sqlite): %v", err)
	}
	if in.Kind != KindSQLite || in.Trajectory.Len() != 1 {
		t.Errorf("Open(sqlite) kind=%v len=%d", in.Kind, in.Trajectory.Len())
	}

	if _, err := Open(ctx, "lerobot/svla_so101_pickplace", Selector{}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Open(hub id) = %v, want ErrUnsupported", err)
	}
	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(ctx, txt, Selector{}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Open(txt) = %v, want ErrUnsupported", err)
	}
}
