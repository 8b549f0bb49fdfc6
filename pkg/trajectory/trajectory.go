package trajectory

import "errors"

// ErrEmpty is returned when a trajectory has no frames.
var ErrEmpty = errors.New("trajectory has no frames")

// VelocitySource records which rule produced a frame's velocity.
type VelocitySource int

const (
	SourceNone VelocitySource = iota
	SourceExplicit
	SourcePositionDiff
	SourceStateDiff
)

func (s VelocitySource) String() string {
	switch s {
	case SourceExplicit:
		return "explicit"
	case SourcePositionDiff:
		return "position-diff"
	case SourceStateDiff:
		return "state-diff"
	default:
		return "none"
	}
}

// Trajectory is an ordered, immutable sequence of frames.
type Trajectory struct {
	frames []Frame
}

// New wraps frames into a Trajectory. The slice is copied.
func New(frames []Frame) (Trajectory, error) {
	if len(frames) == 0 {
		return Trajectory{}, ErrEmpty
	}
	return Trajectory{frames: append([]Frame(nil), frames...)}, nil
}

// Len returns the number of frames.
func (t Trajectory) Len() int {
	return len(t.frames)
}

// At returns frame i.
func (t Trajectory) At(i int) Frame {
	return t.frames[i]
}

// Velocity derives the velocity vector of frame i. Rules are tried in
// priority order: explicit qdot/dq, position difference, state difference
// over the position half, then a zero vector.
func (t Trajectory) Velocity(i int) ([]float64, VelocitySource) {
	cur := t.frames[i]
	if cur.QDot != nil {
		return append([]float64{}, cur.QDot...), SourceExplicit
	}
	if cur.DQ != nil {
		return append([]float64{}, cur.DQ...), SourceExplicit
	}

	if i > 0 {
		prev := t.frames[i-1]
		if cur.Q != nil && prev.Q != nil {
			return diff(cur.Q, prev.Q, len(cur.Q)), SourcePositionDiff
		}
		if cur.State != nil && prev.State != nil {
			return diff(cur.State, prev.State, len(cur.State)/2), SourceStateDiff
		}
	}

	n := 1
	switch {
	case cur.Q != nil:
		n = len(cur.Q)
	case cur.State != nil:
		n = len(cur.State)
	}
	return make([]float64, n), SourceNone
}

// diff returns cur[:n] - prev[:n], truncated to the shorter vector.
func diff(cur, prev []float64, n int) []float64 {
	n = min(n, len(prev))
	out := make([]float64, n)
	for j := range out {
		out[j] = cur[j] - prev[j]
	}
	return out
}
