package robot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"
)

// FindArms returns the serial ports that answer with an SO-101 servo layout.
func FindArms(ctx context.Context) ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list ports: %w", err)
	}

	var found []string
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		if probe(ctx, port) {
			found = append(found, port)
		}
	}
	return found, nil
}

func probe(ctx context.Context, port string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return false
	}
	defer bus.Close()

	servos, err := bus.Scan(ctx, 1, 6)
	if err != nil {
		return false
	}
	ids := make([]int, len(servos))
	for i, s := range servos {
		ids[i] = s.ID
	}
	return IsSOArm(ids)
}

// IsSOArm reports whether the servo IDs are exactly 1 through 6.
func IsSOArm(ids []int) bool {
	if len(ids) != 6 {
		return false
	}

	seen := make(map[int]bool)
	for _, id := range ids {
		seen[id] = true
	}

	for i := 1; i <= 6; i++ {
		if !seen[i] {
			return false
		}
	}

	return true
}
