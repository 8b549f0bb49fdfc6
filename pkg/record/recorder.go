// Package record samples a hand-guided arm into a demonstration.
package record

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gwillem/demo2rules/pkg/robot"
	"github.com/gwillem/demo2rules/pkg/trajectory"
)

// ErrRunning is returned by Start when a recording is already in progress.
var ErrRunning = errors.New("already recording")

// PositionReader is the arm the demonstration is read from.
type PositionReader interface {
	Release(ctx context.Context) error
	ReadPositions(ctx context.Context) (map[robot.MotorName]float64, error)
}

// FrameSink receives recorded frames in order.
type FrameSink interface {
	WriteFrame(ctx context.Context, idx int, f trajectory.Frame) error
}

// State is published after every sample.
type State struct {
	Frame     int
	Positions map[robot.MotorName]float64
	Timestamp time.Time
	Error     error
}

// Config holds configuration for the recorder.
type Config struct {
	Hz            int
	GripThreshold float64 // normalized gripper position above which it counts as open
	MaxFrames     int     // 0 records until the context is cancelled
}

// Recorder manages the sampling loop.
type Recorder struct {
	arm    PositionReader
	sink   FrameSink
	cfg    Config
	logger *log.Logger

	mu      sync.Mutex
	running bool
	frames  int
	stateCh chan State
}

// New creates a recorder reading from arm and writing to sink.
func New(arm PositionReader, sink FrameSink, cfg Config, logger *log.Logger) *Recorder {
	if cfg.Hz <= 0 {
		cfg.Hz = 30
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Recorder{
		arm:     arm,
		sink:    sink,
		cfg:     cfg,
		logger:  logger,
		stateCh: make(chan State, 1),
	}
}

// States returns a channel that receives state updates.
func (r *Recorder) States() <-chan State {
	return r.stateCh
}

// Hz returns the sampling frequency.
func (r *Recorder) Hz() int {
	return r.cfg.Hz
}

// Frames returns the number of frames written so far.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Start releases the arm and samples it until ctx is done or MaxFrames
// frames have been written. Reaching MaxFrames returns nil.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrRunning
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	if err := r.arm.Release(ctx); err != nil {
		r.logger.Warn("failed to release arm", "err", err)
	} else {
		r.logger.Info("arm released, torque disabled")
	}

	r.logger.Info("recording started", "hz", r.cfg.Hz)

	ticker := time.NewTicker(time.Second / time.Duration(r.cfg.Hz))
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("recording stopped", "frames", r.Frames())
			return ctx.Err()
		case now := <-ticker.C:
			if err := r.step(ctx, now.Sub(start)); err != nil {
				return err
			}
			if r.cfg.MaxFrames > 0 && r.Frames() >= r.cfg.MaxFrames {
				r.logger.Info("recording complete", "frames", r.Frames())
				return nil
			}
		}
	}
}

// step samples the arm once. Read errors skip the sample; sink errors
// abort the recording.
func (r *Recorder) step(ctx context.Context, elapsed time.Duration) error {
	positions, err := r.arm.ReadPositions(ctx)
	if err != nil {
		r.logger.Warn("read error", "err", err)
		r.sendState(State{Frame: r.Frames(), Error: err, Timestamp: time.Now()})
		return nil
	}

	idx := r.Frames()
	f := r.toFrame(positions, elapsed)
	if err := r.sink.WriteFrame(ctx, idx, f); err != nil {
		return fmt.Errorf("write frame %d: %w", idx, err)
	}

	r.mu.Lock()
	r.frames++
	r.mu.Unlock()

	r.sendState(State{
		Frame:     idx,
		Positions: positions,
		Timestamp: time.Now(),
	})
	return nil
}

func (r *Recorder) toFrame(positions map[robot.MotorName]float64, elapsed time.Duration) trajectory.Frame {
	return trajectory.Frame{
		Q:           robot.Pose(positions),
		GripperOpen: trajectory.Open(positions[robot.Gripper] > r.cfg.GripThreshold),
		Timestamp:   elapsed.Seconds(),
	}
}

func (r *Recorder) sendState(s State) {
	select {
	case r.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-r.stateCh:
		default:
		}
		r.stateCh <- s
	}
}
