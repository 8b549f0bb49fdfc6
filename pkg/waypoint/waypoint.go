// Package waypoint summarises demonstration segments into arm waypoints.
package waypoint

import (
	"github.com/gwillem/demo2rules/pkg/segment"
	"github.com/gwillem/demo2rules/pkg/trajectory"
)

// Spec is the arm state at the end of a segment: the joint pose to move to
// and whether the gripper is open.
type Spec struct {
	Pose []float64 `json:"pose"`
	Grip bool      `json:"grip"`
}

// Summarise returns the waypoint for the segment [start, end]. Only the
// frame at end is used.
func Summarise(traj trajectory.Trajectory, start, end int) Spec {
	f := traj.At(end)
	return Spec{
		Pose: f.Pose(),
		Grip: f.Grip(),
	}
}

// SummariseAll summarises every segment in order.
func SummariseAll(traj trajectory.Trajectory, segments []segment.Segment) []Spec {
	specs := make([]Spec, 0, len(segments))
	for _, s := range segments {
		specs = append(specs, Summarise(traj, s.Start, s.End))
	}
	return specs
}
