package record

import (
	"context"

	"github.com/gwillem/demo2rules/pkg/dataset"
	"github.com/gwillem/demo2rules/pkg/trajectory"
)

// StoreSink appends frames to one recording in a SQLite store.
type StoreSink struct {
	Store       *dataset.Store
	RecordingID string
}

// WriteFrame implements FrameSink.
func (s StoreSink) WriteFrame(ctx context.Context, idx int, f trajectory.Frame) error {
	return s.Store.AppendFrame(ctx, s.RecordingID, idx, f)
}

// EpisodeSink buffers frames and writes them as one dataset episode on Flush.
type EpisodeSink struct {
	Dir     *dataset.Dir
	Episode int
	frames  []trajectory.Frame
}

// WriteFrame implements FrameSink.
func (s *EpisodeSink) WriteFrame(_ context.Context, _ int, f trajectory.Frame) error {
	s.frames = append(s.frames, f)
	return nil
}

// Flush writes the buffered frames. Empty episodes are not written.
func (s *EpisodeSink) Flush() error {
	if len(s.frames) == 0 {
		return nil
	}
	return s.Dir.WriteEpisode(s.Episode, s.frames)
}
