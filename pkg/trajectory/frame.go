// Package trajectory holds the recorded demonstration data model.
package trajectory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Frame is one time-sample of a demonstration. Any subset of the vector
// fields may be present; absent fields are nil.
type Frame struct {
	QDot        []float64 `json:"qdot,omitempty"`
	DQ          []float64 `json:"dq,omitempty"`
	Q           []float64 `json:"q,omitempty"`
	State       []float64 `json:"observation.state,omitempty"`
	GripperOpen *Flag     `json:"gripper_open,omitempty"`
	Timestamp   float64   `json:"timestamp,omitempty"`
}

// Flag is a gripper flag that decodes from JSON booleans or numbers.
// Numbers other than zero mean open.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true":
		*f = true
		return nil
	case "false", "null":
		*f = false
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("parse gripper flag %s: %w", data, err)
	}
	*f = v != 0
	return nil
}

// Open returns a pointer to a Flag, for building frames in code.
func Open(open bool) *Flag {
	f := Flag(open)
	return &f
}

// HasVelocity reports whether the frame carries an explicit velocity.
func (f Frame) HasVelocity() bool {
	return f.QDot != nil || f.DQ != nil
}

// Pose returns the joint position vector: Q if present, else the position
// half of State, else an empty slice.
func (f Frame) Pose() []float64 {
	switch {
	case f.Q != nil:
		return append([]float64{}, f.Q...)
	case f.State != nil:
		return append([]float64{}, f.State[:len(f.State)/2]...)
	default:
		return []float64{}
	}
}

// Grip returns the gripper flag, false when absent.
func (f Frame) Grip() bool {
	return f.GripperOpen != nil && bool(*f.GripperOpen)
}

// DecodeFrame parses one JSON-encoded frame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}
