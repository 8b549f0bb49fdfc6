// Package segment detects motion plateaus in a demonstration and turns
// their onsets into segment boundaries.
package segment

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/gwillem/demo2rules/pkg/trajectory"
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid segmentation parameters")

// Default parameters, tuned for SO-101 recordings at 30 fps.
const (
	DefaultThreshold = 0.03
	DefaultWindow    = 15
)

// Segment is the span between two consecutive plateau onsets.
type Segment struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s Segment) String() string {
	return fmt.Sprintf("(%d,%d)", s.Start, s.End)
}

// Params controls plateau detection.
type Params struct {
	Threshold float64 // speeds strictly below this count as static
	Window    int     // centered window width; half-width is Window/2
}

// Validate checks that the parameters can produce a meaningful mask.
func (p Params) Validate() error {
	if p.Threshold <= 0 {
		return fmt.Errorf("%w: threshold must be positive, got %v", ErrInvalidParams, p.Threshold)
	}
	if p.Window < 0 {
		return fmt.Errorf("%w: window must not be negative, got %d", ErrInvalidParams, p.Window)
	}
	return nil
}

// Speeds returns the Euclidean norm of every frame's velocity.
func Speeds(traj trajectory.Trajectory) []float64 {
	speeds := make([]float64, traj.Len())
	for i := range speeds {
		v, _ := traj.Velocity(i)
		speeds[i] = floats.Norm(v, 2)
	}
	return speeds
}

// PlateauMask marks every index whose clamped window [i-w/2, i+w/2] lies
// entirely below threshold.
func PlateauMask(speeds []float64, threshold float64, window int) []bool {
	n := len(speeds)
	half := window / 2
	mask := make([]bool, n)
	for i := range mask {
		lo := max(0, i-half)
		hi := min(n-1, i+half)
		static := true
		for j := lo; j <= hi; j++ {
			if !(speeds[j] < threshold) {
				static = false
				break
			}
		}
		mask[i] = static
	}
	return mask
}

// RisingEdges returns every index i+1 where mask goes from false to true.
func RisingEdges(mask []bool) []int {
	var edges []int
	for i := 0; i+1 < len(mask); i++ {
		if !mask[i] && mask[i+1] {
			edges = append(edges, i+1)
		}
	}
	return edges
}

// pairEdges pairs consecutive boundaries. Fewer than two yields no segments.
func pairEdges(edges []int) []Segment {
	segments := []Segment{}
	for i := 0; i+1 < len(edges); i++ {
		segments = append(segments, Segment{Start: edges[i], End: edges[i+1]})
	}
	return segments
}

// DetectSpeeds runs plateau detection over a precomputed speed series and
// pairs consecutive onsets into segments.
func DetectSpeeds(speeds []float64, threshold float64, window int) []Segment {
	return pairEdges(RisingEdges(PlateauMask(speeds, threshold, window)))
}

// DetectSegments segments a trajectory onset-to-onset: each segment runs
// from one plateau onset to the next. A single onset yields nothing.
func DetectSegments(traj trajectory.Trajectory, threshold float64, window int) []Segment {
	return DetectSpeeds(Speeds(traj), threshold, window)
}

// Analysis keeps the intermediate arrays of a detection run.
type Analysis struct {
	Speeds   []float64
	Mask     []bool
	Edges    []int
	Segments []Segment
}

// Analyze is DetectSegments that also returns the intermediate arrays.
func Analyze(traj trajectory.Trajectory, p Params) Analysis {
	speeds := Speeds(traj)
	mask := PlateauMask(speeds, p.Threshold, p.Window)
	edges := RisingEdges(mask)
	return Analysis{
		Speeds:   speeds,
		Mask:     mask,
		Edges:    edges,
		Segments: pairEdges(edges),
	}
}
