package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"

	"github.com/gwillem/demo2rules/pkg/dataset"
	"github.com/gwillem/demo2rules/pkg/record"
	"github.com/gwillem/demo2rules/pkg/robot"
)

type RecordCommand struct {
	Port        string        `long:"port" short:"p" description:"Serial port of the arm (default from config, else scan)"`
	Calibration string        `long:"calibration" description:"Calibration file of the arm (default from config)"`
	Hz          int           `long:"hz" description:"Sampling frequency (default from config)"`
	Frames      int           `long:"frames" description:"Stop after this many frames"`
	Duration    time.Duration `long:"duration" description:"Stop after this long, e.g. 30s"`
	Store       string        `long:"store" description:"SQLite store to append the recording to (default from config)"`
	Dataset     string        `long:"dataset" description:"Write an episode to this dataset directory instead of the store"`
	Episode     int           `long:"episode" default:"-1" description:"Episode index in --dataset (default: next free)"`
}

func (c *RecordCommand) Execute(args []string) error {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rc := cfg.Recorder
	if c.Port != "" {
		rc.Arm.Port = c.Port
	}
	if c.Calibration != "" {
		rc.Arm.CalibrationPath = c.Calibration
	}
	if c.Hz > 0 {
		rc.Hz = c.Hz
	}
	if c.Store != "" {
		rc.Store = c.Store
	}
	if rc.Arm.CalibrationPath == "" {
		return errors.New("no calibration file: pass --calibration or set recorder.arm.calibration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if c.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Duration)
		defer cancel()
	}

	if rc.Arm.Port == "" {
		port, err := choosePort(ctx)
		if err != nil {
			return err
		}
		rc.Arm.Port = port
	}

	arm, err := robot.OpenArm(rc.Arm)
	if err != nil {
		return fmt.Errorf("open arm on %s: %w", rc.Arm.Port, err)
	}
	defer arm.Close()

	recCfg := record.Config{Hz: rc.Hz, GripThreshold: rc.GripThreshold, MaxFrames: c.Frames}

	if c.Dataset != "" {
		return c.recordEpisode(ctx, arm, recCfg, logger)
	}

	store, err := dataset.OpenStore(rc.Store)
	if err != nil {
		return err
	}
	defer store.Close()
	rec, err := store.CreateRecording(ctx, recCfg.Hz, robot.RobotType)
	if err != nil {
		return err
	}
	logger.Info("recording", "store", rc.Store, "id", rec.ID, "port", rc.Arm.Port)

	r := record.New(arm, record.StoreSink{Store: store, RecordingID: rec.ID}, recCfg, logger)
	if err := finished(r.Start(ctx)); err != nil {
		return err
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Recorded %d frames as %s in %s", r.Frames(), rec.ID, rc.Store)))
	return nil
}

func (c *RecordCommand) recordEpisode(ctx context.Context, arm *robot.Arm, recCfg record.Config, logger *log.Logger) error {
	dir, err := dataset.OpenDir(c.Dataset)
	if errors.Is(err, os.ErrNotExist) {
		dir, err = dataset.CreateDir(c.Dataset, dataset.Info{
			FPS:       recCfg.Hz,
			RobotType: robot.RobotType,
			Features: map[string]dataset.Feature{
				"q":            {DType: "float32", Shape: []int{len(robot.AllMotors())}, Names: robot.StateNames()},
				"gripper_open": {DType: "bool", Shape: []int{1}, Names: []string{"open"}},
			},
		})
	}
	if err != nil {
		return err
	}

	episode := c.Episode
	if episode < 0 {
		episode = dir.Info.TotalEpisodes
	}
	logger.Info("recording", "dataset", c.Dataset, "episode", episode)

	sink := &record.EpisodeSink{Dir: dir, Episode: episode}
	r := record.New(arm, sink, recCfg, logger)
	// Flush on interrupt too: a hand-guided demonstration ends with ctrl+c.
	runErr := finished(r.Start(ctx))
	if err := sink.Flush(); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Recorded %d frames as episode %d of %s", r.Frames(), episode, c.Dataset)))
	return nil
}

// finished treats interrupts and timeouts as the normal end of a recording.
func finished(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// choosePort scans for arms and asks which one to use when several answer.
func choosePort(ctx context.Context) (string, error) {
	fmt.Println(dimStyle.Render("Scanning serial ports for SO-101 arms..."))
	ports, err := robot.FindArms(ctx)
	if err != nil {
		return "", err
	}
	switch len(ports) {
	case 0:
		return "", errors.New("no arm found: connect the arm or pass --port")
	case 1:
		fmt.Printf("  Found SO-101 arm on %s\n", ports[0])
		return ports[0], nil
	}

	var options []huh.Option[string]
	for _, p := range ports {
		options = append(options, huh.NewOption(p, p))
	}
	var port string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Several arms found. Record from which one?").
				Options(options...).
				Value(&port),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return port, nil
}
