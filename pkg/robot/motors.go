// Package robot provides read access to SO-101 robot arms.
package robot

// MotorName identifies a motor in the arm.
type MotorName string

// Motor names for the SO-101 arm.
const (
	ShoulderPan  MotorName = "shoulder_pan"
	ShoulderLift MotorName = "shoulder_lift"
	ElbowFlex    MotorName = "elbow_flex"
	WristFlex    MotorName = "wrist_flex"
	WristRoll    MotorName = "wrist_roll"
	Gripper      MotorName = "gripper"
)

// RobotType is the dataset robot type of an SO-101 follower.
const RobotType = "so101_follower"

// AllMotors returns all motor names in order (matching servo IDs 1-6).
func AllMotors() []MotorName {
	return []MotorName{
		ShoulderPan,
		ShoulderLift,
		ElbowFlex,
		WristFlex,
		WristRoll,
		Gripper,
	}
}

// StateNames returns the per-element names of a recorded state vector,
// e.g. "shoulder_pan.pos".
func StateNames() []string {
	motors := AllMotors()
	names := make([]string, len(motors))
	for i, m := range motors {
		names[i] = string(m) + ".pos"
	}
	return names
}

// Pose orders a position map into a vector following AllMotors.
// Missing motors are reported as zero.
func Pose(positions map[MotorName]float64) []float64 {
	motors := AllMotors()
	pose := make([]float64, len(motors))
	for i, m := range motors {
		pose[i] = positions[m]
	}
	return pose
}
