package dataset

import (
	"context"
	"fmt"

	"github.com/gwillem/demo2rules/pkg/trajectory"
)

// Input is a loaded demonstration. Frame-based sources fill Trajectory;
// flat column-labelled sources fill Table instead.
type Input struct {
	Kind       Kind
	Trajectory trajectory.Trajectory
	Table      *Table
	Labels     []string
}

// Selector picks one demonstration out of a multi-demonstration source.
type Selector struct {
	Episode     int    // dataset directories
	RecordingID string // SQLite stores; empty means latest
}

// Open loads a demonstration from a directory, CSV file or SQLite store.
func Open(ctx context.Context, path string, sel Selector) (*Input, error) {
	kind, err := Detect(path)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindCSV:
		t, err := OpenCSV(path)
		if err != nil {
			return nil, err
		}
		return &Input{Kind: kind, Table: t, Labels: t.Labels}, nil

	case KindSQLite:
		s, err := OpenStore(path)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		id := sel.RecordingID
		if id == "" {
			rec, err := s.Latest(ctx)
			if err != nil {
				return nil, err
			}
			id = rec.ID
		}
		ep, err := s.Frames(ctx, id)
		if err != nil {
			return nil, err
		}
		traj, err := Load(ep)
		if err != nil {
			return nil, err
		}
		return &Input{Kind: kind, Trajectory: traj}, nil

	default:
		d, err := OpenDir(path)
		if err != nil {
			return nil, err
		}
		if sel.Episode < 0 || (d.Info.TotalEpisodes > 0 && sel.Episode >= d.Info.TotalEpisodes) {
			return nil, fmt.Errorf("episode %d out of range [0,%d)", sel.Episode, d.Info.TotalEpisodes)
		}
		ep, err := d.Episode(sel.Episode)
		if err != nil {
			return nil, err
		}
		traj, err := Load(ep)
		if err != nil {
			return nil, err
		}
		return &Input{Kind: kind, Trajectory: traj, Labels: d.Info.ColumnLabels()}, nil
	}
}
