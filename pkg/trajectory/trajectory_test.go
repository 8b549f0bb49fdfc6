package trajectory

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustNew(t *testing.T, frames ...Frame) Trajectory {
	t.Helper()
	traj, err := New(frames)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return traj
}

func TestNew_Empty(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("New(nil) error = %v, want ErrEmpty", err)
	}
}

func TestTrajectory_Velocity(t *testing.T) {
	tests := []struct {
		name   string
		frames []Frame
		index  int
		want   []float64
		source VelocitySource
	}{
		{
			name:   "qdot wins over everything",
			frames: []Frame{{QDot: []float64{1, 2}, DQ: []float64{9}, Q: []float64{5, 5}}},
			want:   []float64{1, 2},
			source: SourceExplicit,
		},
		{
			name:   "dq alias",
			frames: []Frame{{DQ: []float64{0.5}}},
			want:   []float64{0.5},
			source: SourceExplicit,
		},
		{
			name:   "position difference",
			frames: []Frame{{Q: []float64{1, 1}}, {Q: []float64{1.5, 0}}},
			index:  1,
			want:   []float64{0.5, -1},
			source: SourcePositionDiff,
		},
		{
			name:   "frame zero falls through to zero vector",
			frames: []Frame{{Q: []float64{1, 2, 3}}},
			want:   []float64{0, 0, 0},
			source: SourceNone,
		},
		{
			name: "state difference uses the position half",
			frames: []Frame{
				{State: []float64{0, 0, 7, 7}},
				{State: []float64{1, 2, 100, 100}},
			},
			index:  1,
			want:   []float64{1, 2},
			source: SourceStateDiff,
		},
		{
			name:   "previous frame without q falls back to state",
			frames: []Frame{{State: []float64{0, 0}}, {Q: []float64{3}, State: []float64{2, 0}}},
			index:  1,
			want:   []float64{2},
			source: SourceStateDiff,
		},
		{
			name:   "state only at frame zero gives full-length zeros",
			frames: []Frame{{State: []float64{1, 2, 3, 4}}},
			want:   []float64{0, 0, 0, 0},
			source: SourceNone,
		},
		{
			name:   "nothing present gives length one",
			frames: []Frame{{}},
			want:   []float64{0},
			source: SourceNone,
		},
		{
			name:   "mismatched lengths truncate",
			frames: []Frame{{Q: []float64{1}}, {Q: []float64{2, 2}}},
			index:  1,
			want:   []float64{1},
			source: SourcePositionDiff,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			traj := mustNew(t, tt.frames...)
			got, source := traj.Velocity(tt.index)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Velocity(%d) mismatch (-want +got):\n%s", tt.index, diff)
			}
			if source != tt.source {
				t.Errorf("Velocity(%d) source = %s, want %s", tt.index, source, tt.source)
			}
		})
	}
}

func TestFrame_PoseAndGrip(t *testing.T) {
	tests := []struct {
		frame Frame
		pose  []float64
		grip  bool
	}{
		{Frame{Q: []float64{1, 2}, State: []float64{9, 9}}, []float64{1, 2}, false},
		{Frame{State: []float64{1, 2, 3, 4}, GripperOpen: Open(true)}, []float64{1, 2}, true},
		{Frame{GripperOpen: Open(false)}, []float64{}, false},
		{Frame{}, []float64{}, false},
	}

	for i, tt := range tests {
		if diff := cmp.Diff(tt.pose, tt.frame.Pose()); diff != "" {
			t.Errorf("case %d: Pose() mismatch (-want +got):\n%s", i, diff)
		}
		if got := tt.frame.Grip(); got != tt.grip {
			t.Errorf("case %d: Grip() = %v, want %v", i, got, tt.grip)
		}
	}
}

func TestDecodeFrame(t *testing.T) {
	f, err := DecodeFrame([]byte(`{"observation.state":[0.1,0.2,0,0],"gripper_open":1,"timestamp":0.5}`))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if diff := cmp.Diff([]float64{0.1, 0.2, 0, 0}, f.State); diff != "" {
		t.Errorf("State mismatch (-want +got):\n%s", diff)
	}
	if !f.Grip() {
		t.Error("numeric gripper_open 1 should decode as open")
	}
	if f.Timestamp != 0.5 {
		t.Errorf("Timestamp = %v, want 0.5", f.Timestamp)
	}

	f, err = DecodeFrame([]byte(`{"q":[1],"gripper_open":false}`))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if f.Grip() || f.GripperOpen == nil {
		t.Errorf("gripper_open false should decode as a present closed flag, got %v", f.GripperOpen)
	}

	if _, err := DecodeFrame([]byte(`{"gripper_open":"yes"}`)); err == nil {
		t.Error("DecodeFrame should reject a non-numeric gripper flag")
	}
}
