package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/velotrack/internal/timeutil"
	"github.com/banshee-data/velotrack/internal/velo/l1hits"
	"github.com/banshee-data/velotrack/internal/velo/l3tracks"
	"github.com/banshee-data/velotrack/internal/velo/pipeline"
)

// ErrRunNotFound is returned when a run id has no stored run.
var ErrRunNotFound = errors.New("run not found")

// Run is the stored header of one reconstruction.
type Run struct {
	RunID        string
	EventName    string
	CreatedAt    time.Time
	SensorCount  int
	HitCount     int
	TrackCount   int
	StrongCount  int
	WeakCount    int
	WeakRejected int
	Elapsed      time.Duration
	ConfigJSON   string
	Summary      pipeline.Summary
}

// RunStore records reconstruction runs.
type RunStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewRunStore creates a RunStore over a migrated database, stamping runs
// with the system clock.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db.DB, clock: timeutil.RealClock{}}
}

// SetClock replaces the clock used to stamp new runs.
func (s *RunStore) SetClock(c timeutil.Clock) {
	s.clock = c
}

// InsertRun stores res with all its tracks in one transaction and
// returns the new run id.
func (s *RunStore) InsertRun(res *pipeline.Result, eventName string) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	cfgJSON, err := json.Marshal(res.Config)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	sumJSON, err := json.Marshal(res.Summary)
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}

	runID := uuid.NewString()
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO reco_runs (
			run_id, event_name, created_unix_nanos, sensor_count, hit_count,
			track_count, strong_count, weak_count, weak_rejected, elapsed_nanos,
			config_json, summary_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, eventName, s.clock.Now().UnixNano(), res.Store.NumSensors(), res.Store.NumHits(),
		len(res.Tracks), res.Summary.StrongTracks, res.Summary.WeakTracks, res.Arbitration.WeakRejected,
		res.Elapsed.Nanoseconds(), string(cfgJSON), string(sumJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	trackStmt, err := tx.Prepare(`INSERT INTO reco_tracks (run_id, track_index, kind, hit_count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare track insert: %w", err)
	}
	defer trackStmt.Close()
	hitStmt, err := tx.Prepare(`
		INSERT INTO reco_track_hits (run_id, track_index, position, hit_id, x, y, z)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare hit insert: %w", err)
	}
	defer hitStmt.Close()

	for i, t := range res.Tracks {
		if _, err := trackStmt.Exec(runID, i, string(t.Kind()), t.Len()); err != nil {
			return "", fmt.Errorf("insert track %d: %w", i, err)
		}
		for pos, h := range t.Hits {
			if _, err := hitStmt.Exec(runID, i, pos, h.ID, h.X, h.Y, h.Z); err != nil {
				return "", fmt.Errorf("insert hit %d of track %d: %w", h.ID, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

const runColumns = `run_id, event_name, created_unix_nanos, sensor_count, hit_count,
	track_count, strong_count, weak_count, weak_rejected, elapsed_nanos,
	config_json, summary_json`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r                    Run
		createdNs, elapsedNs int64
		summaryJSON          string
	)
	err := row.Scan(&r.RunID, &r.EventName, &createdNs, &r.SensorCount, &r.HitCount,
		&r.TrackCount, &r.StrongCount, &r.WeakCount, &r.WeakRejected, &elapsedNs,
		&r.ConfigJSON, &summaryJSON)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(0, createdNs)
	r.Elapsed = time.Duration(elapsedNs)
	if err := json.Unmarshal([]byte(summaryJSON), &r.Summary); err != nil {
		return nil, fmt.Errorf("run %s: decode summary: %w", r.RunID, err)
	}
	return &r, nil
}

// GetRun returns the header of runID.
func (s *RunStore) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM reco_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns up to limit runs, newest first. A limit of zero or
// less lists every run.
func (s *RunStore) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM reco_runs
		ORDER BY created_unix_nanos DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRunTracks rebuilds the tracks of runID in their stored order.
func (s *RunStore) GetRunTracks(runID string) ([]*l3tracks.Track, error) {
	if _, err := s.GetRun(runID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT t.track_index, h.hit_id, h.x, h.y, h.z
		FROM reco_tracks t
		JOIN reco_track_hits h ON h.run_id = t.run_id AND h.track_index = t.track_index
		WHERE t.run_id = ?
		ORDER BY t.track_index, h.position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*l3tracks.Track
	current := -1
	for rows.Next() {
		var (
			idx int
			h   l1hits.Hit
		)
		if err := rows.Scan(&idx, &h.ID, &h.X, &h.Y, &h.Z); err != nil {
			return nil, fmt.Errorf("scan track hit: %w", err)
		}
		if idx != current {
			tracks = append(tracks, &l3tracks.Track{})
			current = idx
		}
		tracks[len(tracks)-1].Add(h)
	}
	return tracks, rows.Err()
}

// DeleteRun removes runID with its tracks and hits.
func (s *RunStore) DeleteRun(runID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM reco_track_hits WHERE run_id = ?`,
		`DELETE FROM reco_tracks WHERE run_id = ?`,
	} {
		if _, err := tx.Exec(q, runID); err != nil {
			return fmt.Errorf("delete run children: %w", err)
		}
	}
	res, err := tx.Exec(`DELETE FROM reco_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return tx.Commit()
}
