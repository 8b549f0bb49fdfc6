package dataset

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gwillem/demo2rules/pkg/trajectory"
)

// ErrNoRecording is returned when a recording id is unknown or the store is empty.
var ErrNoRecording = errors.New("no such recording")

const schema = `
CREATE TABLE IF NOT EXISTS recordings (
	recording_id  TEXT PRIMARY KEY,
	fps           INTEGER NOT NULL,
	robot_type    TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS frames (
	recording_id  TEXT NOT NULL,
	idx           INTEGER NOT NULL,
	timestamp     DOUBLE NOT NULL,
	q             BLOB,
	state         BLOB,
	gripper_open  INTEGER,
	PRIMARY KEY (recording_id, idx),
	FOREIGN KEY (recording_id) REFERENCES recordings(recording_id)
);
`

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store keeps recorded demonstrations in SQLite.
type Store struct {
	db *sql.DB
}

// Recording is one stored demonstration.
type Recording struct {
	ID        string
	FPS       int
	RobotType string
	CreatedAt time.Time
}

// OpenStore opens or creates a recording database.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRecording starts a new, empty recording.
func (s *Store) CreateRecording(ctx context.Context, fps int, robotType string) (Recording, error) {
	rec := Recording{
		ID:        uuid.NewString(),
		FPS:       fps,
		RobotType: robotType,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recordings (recording_id, fps, robot_type, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.FPS, rec.RobotType, rec.CreatedAt.Format(timeLayout))
	if err != nil {
		return Recording{}, fmt.Errorf("insert recording: %w", err)
	}
	return rec, nil
}

// AppendFrame stores frame idx of a recording.
func (s *Store) AppendFrame(ctx context.Context, recordingID string, idx int, f trajectory.Frame) error {
	var grip any
	if f.GripperOpen != nil {
		grip = bool(*f.GripperOpen)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO frames (recording_id, idx, timestamp, q, state, gripper_open) VALUES (?, ?, ?, ?, ?, ?)`,
		recordingID, idx, f.Timestamp, encodeVector(f.Q), encodeVector(f.State), grip)
	if err != nil {
		return fmt.Errorf("insert frame %d: %w", idx, err)
	}
	return nil
}

// Recordings lists recordings, newest first.
func (s *Store) Recordings(ctx context.Context) ([]Recording, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT recording_id, fps, robot_type, created_at FROM recordings ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query recordings: %w", err)
	}
	defer rows.Close()

	var out []Recording
	for rows.Next() {
		var rec Recording
		var created string
		if err := rows.Scan(&rec.ID, &rec.FPS, &rec.RobotType, &created); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Latest returns the most recent recording.
func (s *Store) Latest(ctx context.Context) (Recording, error) {
	recs, err := s.Recordings(ctx)
	if err != nil {
		return Recording{}, err
	}
	if len(recs) == 0 {
		return Recording{}, ErrNoRecording
	}
	return recs[0], nil
}

// Frames loads a recording as a Source.
func (s *Store) Frames(ctx context.Context, recordingID string) (*Episode, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT timestamp, q, state, gripper_open FROM frames WHERE recording_id = ? ORDER BY idx`,
		recordingID)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var frames []trajectory.Frame
	for rows.Next() {
		var f trajectory.Frame
		var q, state []byte
		var grip sql.NullBool
		if err := rows.Scan(&f.Timestamp, &q, &state, &grip); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		f.Q = decodeVector(q)
		f.State = decodeVector(state)
		if grip.Valid {
			f.GripperOpen = trajectory.Open(grip.Bool)
		}
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRecording, recordingID)
	}
	return &Episode{frames: frames}, nil
}

// encodeVector packs a vector as little-endian float64s; nil stays NULL.
func encodeVector(v []float64) any {
	if v == nil {
		return nil
	}
	buf := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float64 {
	if b == nil {
		return nil
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v
}
