package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/banshee-data/velotrack/internal/monitoring"
	"github.com/banshee-data/velotrack/internal/testutil"
	"github.com/banshee-data/velotrack/internal/timeutil"
	"github.com/banshee-data/velotrack/internal/velo/l4forward"
	"github.com/banshee-data/velotrack/internal/velo/pipeline"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	goleak.VerifyTestMain(m)
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func twoTrackResult(t *testing.T) *pipeline.Result {
	t.Helper()
	b := testutil.NewEventBuilder(testutil.UniformLayout(8, 10)...)
	b.AddLine(0, 0, 0.05, 0.02, b.AllSensors()...)
	b.AddLine(1, -1, -0.03, 0.04, b.AllSensors()...)
	res, err := pipeline.Reconstruct(b.Record(), l4forward.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, res.Tracks, 2)
	return res
}

func TestOpen_MigratesToLatest(t *testing.T) {
	db := openTestDB(t)

	v, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
	assert.False(t, dirty)

	// Re-running is a no-op.
	require.NoError(t, db.MigrateUp())

	require.NoError(t, db.MigrateDown())
	v, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	require.NoError(t, db.MigrateUp())
	v, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
}

func TestRunStore_RoundTrip(t *testing.T) {
	store := NewRunStore(openTestDB(t))
	res := twoTrackResult(t)

	runID, err := store.InsertRun(res, "two_lines")
	require.NoError(t, err)
	assert.Len(t, runID, 36)

	run, err := store.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, "two_lines", run.EventName)
	assert.Equal(t, 8, run.SensorCount)
	assert.Equal(t, 16, run.HitCount)
	assert.Equal(t, 2, run.TrackCount)
	assert.Equal(t, 2, run.StrongCount)
	assert.Equal(t, 0, run.WeakCount)
	assert.Equal(t, res.Elapsed, run.Elapsed)
	assert.Equal(t, res.Summary, run.Summary)
	assert.Contains(t, run.ConfigJSON, `"seed_sensor_gap":2`)

	tracks, err := store.GetRunTracks(runID)
	require.NoError(t, err)
	if diff := cmp.Diff(res.Tracks, tracks); diff != "" {
		t.Errorf("stored tracks mismatch (-want +got):\n%s", diff)
	}
}

func TestRunStore_ListRuns(t *testing.T) {
	store := NewRunStore(openTestDB(t))
	clock := timeutil.NewMockClock(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
	store.SetClock(clock)
	res := twoTrackResult(t)

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		id, err := store.InsertRun(res, name)
		require.NoError(t, err)
		ids = append(ids, id)
		clock.Advance(time.Minute)
	}

	all, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].EventName)
	assert.Equal(t, "a", all[2].EventName)
	assert.True(t, all[2].CreatedAt.Equal(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)))

	limited, err := store.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
	assert.Equal(t, ids[2], limited[0].RunID)
}

func TestRunStore_Delete(t *testing.T) {
	db := openTestDB(t)
	store := NewRunStore(db)
	res := twoTrackResult(t)

	keep, err := store.InsertRun(res, "keep")
	require.NoError(t, err)
	drop, err := store.InsertRun(res, "drop")
	require.NoError(t, err)

	require.NoError(t, store.DeleteRun(drop))
	_, err = store.GetRun(drop)
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, store.DeleteRun(drop), ErrRunNotFound)

	var hits int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM reco_track_hits`).Scan(&hits))
	assert.Equal(t, res.Summary.AssignedHits, hits, "only the kept run's hits remain")

	tracks, err := store.GetRunTracks(keep)
	require.NoError(t, err)
	assert.Len(t, tracks, 2)
}

func TestRunStore_CascadeOnRunDelete(t *testing.T) {
	db := openTestDB(t)
	store := NewRunStore(db)

	runID, err := store.InsertRun(twoTrackResult(t), "cascade")
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM reco_runs WHERE run_id = ?`, runID)
	require.NoError(t, err)

	var tracks, hits int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM reco_tracks`).Scan(&tracks))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM reco_track_hits`).Scan(&hits))
	assert.Zero(t, tracks)
	assert.Zero(t, hits)
}

func TestRunStore_NotFound(t *testing.T) {
	store := NewRunStore(openTestDB(t))

	_, err := store.GetRun("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = store.GetRunTracks("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunStore_InsertNil(t *testing.T) {
	store := NewRunStore(openTestDB(t))
	_, err := store.InsertRun(nil, "nil")
	assert.Error(t, err)
}
