package robot

import (
	"context"
	"fmt"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

// ArmConfig locates the arm a demonstration is recorded from.
type ArmConfig struct {
	Port            string `json:"port,omitempty"`
	CalibrationPath string `json:"calibration,omitempty"`
}

// Arm is a read-only connection to a robot arm.
type Arm struct {
	bus         *feetech.Bus
	group       *feetech.ServoGroup
	calibration Calibration
}

// NewArm opens the arm's serial bus.
func NewArm(port string, cal Calibration) (*Arm, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	group := feetech.NewServoGroupByIDs(bus, cal.MotorIDs()...)

	return &Arm{
		bus:         bus,
		group:       group,
		calibration: cal,
	}, nil
}

// OpenArm loads the calibration named in cfg and opens the arm.
func OpenArm(cfg ArmConfig) (*Arm, error) {
	cal, err := LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		return nil, err
	}
	return NewArm(cfg.Port, cal)
}

// Close closes the arm's bus connection.
func (a *Arm) Close() error {
	return a.bus.Close()
}

// Release disables torque on all servos so the arm can be moved by hand.
func (a *Arm) Release(ctx context.Context) error {
	return a.group.DisableAll(ctx)
}

// ReadPositions reads current positions from all motors.
// Returns normalized positions in the range [-100, 100].
func (a *Arm) ReadPositions(ctx context.Context) (map[MotorName]float64, error) {
	raw, err := a.group.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	return a.calibration.Normalize(raw), nil
}
