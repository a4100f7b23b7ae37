package l4forward

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/velotrack/internal/testutil"
	"github.com/banshee-data/velotrack/internal/velo/event"
	"github.com/banshee-data/velotrack/internal/velo/l1hits"
	"github.com/banshee-data/velotrack/internal/velo/l3tracks"
)

// search runs one forward pass and returns the committed track ids.
func search(t *testing.T, cfg Config, rec *event.Record) ([][]int64, Stats) {
	t.Helper()
	store, err := l1hits.NewStore(rec)
	require.NoError(t, err)
	b, err := NewBuilder(cfg, store)
	require.NoError(t, err)

	arb := l3tracks.NewArbiter()
	st, err := b.Run(arb)
	require.NoError(t, err)

	res := arb.Result()
	require.NoError(t, l3tracks.CheckExclusive(res.Tracks))
	ids := make([][]int64, len(res.Tracks))
	for i, tr := range res.Tracks {
		ids[i] = tr.IDs()
	}
	return ids, st
}

// One straight line over six sensors plus a stray hit. The first seed
// pairs sensors 5 and 3, so the sensor-4 hit is never revisited once the
// rest of the line is claimed.
func TestRun_SingleLineWithNoise(t *testing.T) {
	t.Parallel()

	b := testutil.NewEventBuilder(0, 10, 20, 30, 40, 50)
	line := b.AddLine(0, 0, 0.05, 0.02, b.AllSensors()...)
	noise := b.AddHit(3, 5, -5)

	tracks, st := search(t, DefaultConfig(), b.Record())
	require.Len(t, tracks, 1)
	assert.Equal(t, []int64{line[0], line[2], line[3], line[4], line[5]}, tracks[0])
	assert.NotContains(t, tracks[0], noise)
	assert.NotContains(t, tracks[0], line[1])

	assert.Equal(t, 3, st.SensorPairs)
	assert.Equal(t, 1, st.Strong)
	assert.Equal(t, 0, st.Weak)
	assert.Equal(t, 2, st.ExtensionHits)
}

// A strong track ends the scan of its first hit: a second direction from
// the same hit must not be built on top of it.
func TestRun_StrongTrackEndsSeedScan(t *testing.T) {
	t.Parallel()

	b := testutil.NewEventBuilder(0, 10, 20, 30, 40, 50)
	a := b.AddLine(0, 0, 0.05, 0.02, 5, 3, 2, 1, 0)

	// Second line through the sensor-5 hit of the first.
	other := func(z float64) (float64, float64) { return 2.5 - 0.02*(z-50), 1.0 + 0.05*(z-50) }
	var ids []int64
	for _, s := range []int{3, 2, 1, 0} {
		x, y := other(float64(s) * 10)
		ids = append(ids, b.AddHit(s, x, y))
	}

	tracks, st := search(t, DefaultConfig(), b.Record())
	require.Len(t, tracks, 2)
	assert.Equal(t, a, tracks[0])
	// What is left of the second line is picked up from the 3/1 pair.
	assert.Equal(t, []int64{ids[0], ids[2], ids[3]}, tracks[1])
	assert.Equal(t, 1, st.Strong)
	assert.Equal(t, 1, st.Weak)
}

// Two sensor-5 hits share their only compatible sensor-3 hit. Once the
// first claims it in a strong track the second has nothing left to pair
// with, though its own continuation on sensors 2..0 is intact.
func TestRun_SecondSeedListRefreshedPerFirstHit(t *testing.T) {
	t.Parallel()

	b := testutil.NewEventBuilder(0, 10, 20, 30, 40, 50)
	a := b.AddLine(0, 0, 0, 0, 5, 3, 2, 1, 0)
	b.AddHit(5, 1, 0)
	// The line from the second sensor-5 hit through the shared hit.
	b.AddLine(-1.5, 0, 0.05, 0, 2, 1, 0)

	tracks, st := search(t, DefaultConfig(), b.Record())
	require.Len(t, tracks, 1)
	assert.Equal(t, a, tracks[0])
	assert.Equal(t, 1, st.PairsTested)
	assert.Equal(t, 1, st.Strong)
	assert.Zero(t, st.Weak)
}

// Two lines cross on sensor 2. The first strong track owns the crossing
// hit, so the second line's extension treats that sensor as a miss and
// carries on below it.
func TestRun_ExtensionSkipsClaimedCrossingHit(t *testing.T) {
	t.Parallel()

	b := testutil.NewEventBuilder(testutil.UniformLayout(8, 10)...)
	a := b.AddLine(0, 0, 0, 0, 7, 5, 4, 3, 2, 1, 0)
	crossing := a[4]
	other := b.AddLine(-1, 0, 0.05, 0, 7, 5, 4, 3, 1, 0)

	tracks, st := search(t, DefaultConfig(), b.Record())
	require.Len(t, tracks, 2)
	assert.Equal(t, a, tracks[0])
	assert.Equal(t, other, tracks[1])
	assert.NotContains(t, tracks[1], crossing)
	assert.Equal(t, 2, st.Strong)
}

func TestRun_SubmitErrorLoggedOnOps(t *testing.T) {
	var ops bytes.Buffer
	SetLogWriters(&ops, nil, nil)
	defer SetLogWriters(nil, nil, nil)

	b := testutil.NewEventBuilder(0, 10, 20, 30)
	b.AddLine(0, 0, 0.01, 0.01, b.AllSensors()...)
	store, err := l1hits.NewStore(b.Record())
	require.NoError(t, err)
	builder, err := NewBuilder(DefaultConfig(), store)
	require.NoError(t, err)

	arb := l3tracks.NewArbiter()
	arb.ResolveWeak()
	_, err = builder.Run(arb)
	require.ErrorIs(t, err, l3tracks.ErrResolved)
	assert.Contains(t, ops.String(), "[l4forward] ")
	assert.Contains(t, ops.String(), "search aborted at sensor pair 3/1")
}

func TestRun_FourSensorsSingleSeedPair(t *testing.T) {
	t.Parallel()

	b := testutil.NewEventBuilder(testutil.UniformLayout(4, 10)...)
	line := b.AddLine(0.1, -0.1, 0.01, 0.01, b.AllSensors()...)

	tracks, st := search(t, DefaultConfig(), b.Record())
	assert.Equal(t, 1, st.SensorPairs)
	// Extension ends at sensor 0; nothing wraps round to the far end.
	require.Len(t, tracks, 1)
	assert.Equal(t, []int64{line[0], line[2], line[3]}, tracks[0])
}

func TestRun_TooFewSensors(t *testing.T) {
	t.Parallel()

	b := testutil.NewEventBuilder(0, 10, 20)
	b.AddLine(0, 0, 0, 0, b.AllSensors()...)

	tracks, st := search(t, DefaultConfig(), b.Record())
	assert.Empty(t, tracks)
	assert.Zero(t, st.SensorPairs)
}

func TestRun_EmptyEvent(t *testing.T) {
	t.Parallel()

	b := testutil.NewEventBuilder(testutil.UniformLayout(10, 10)...)
	tracks, st := search(t, DefaultConfig(), b.Record())
	assert.Empty(t, tracks)
	assert.Equal(t, 7, st.SensorPairs)
	assert.Zero(t, st.PairsTested)
}

func TestRun_ThirdHitSearchDepth(t *testing.T) {
	t.Parallel()

	b := testutil.NewEventBuilder(testutil.UniformLayout(8, 10)...)
	line := b.AddLine(0, 0, 0.03, -0.02, 7, 5, 1, 0)
	rec := b.Record()

	cfg := DefaultConfig()
	tracks, st := search(t, cfg, rec)
	assert.Empty(t, tracks, "sensors 4..2 are empty, depth 3 stops short of sensor 1")
	assert.Equal(t, 1, st.ThirdHitMisses)

	cfg.ThirdHitSearchDepth = 4
	tracks, st = search(t, cfg, rec)
	require.Len(t, tracks, 1)
	assert.Equal(t, line, tracks[0])
	assert.Zero(t, st.ThirdHitMisses)
}

func TestRun_MaxMissedStations(t *testing.T) {
	t.Parallel()

	b := testutil.NewEventBuilder(testutil.UniformLayout(10, 10)...)
	line := b.AddLine(0, 0, -0.04, 0.01, 9, 7, 6, 2)
	rec := b.Record()

	cfg := DefaultConfig()
	tracks, _ := search(t, cfg, rec)
	require.Len(t, tracks, 1)
	assert.Equal(t, line[:3], tracks[0], "three empty sensors end the extension")

	cfg.MaxMissedStations = 4
	tracks, _ = search(t, cfg, rec)
	require.Len(t, tracks, 1)
	assert.Equal(t, line, tracks[0])
}

func TestRun_Deterministic(t *testing.T) {
	t.Parallel()

	b := testutil.NewEventBuilder(testutil.UniformLayout(12, 25)...)
	rng := rand.New(rand.NewPCG(42, 7))
	for range 5 {
		b.AddLine(rng.Float64()*4-2, rng.Float64()*4-2, rng.Float64()*0.2-0.1, rng.Float64()*0.2-0.1, b.AllSensors()...)
	}
	b.AddNoise(rng, 4, 5)
	rec := b.Record()

	first, st1 := search(t, DefaultConfig(), rec)
	second, st2 := search(t, DefaultConfig(), rec)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("track ids differ between runs (-first +second):\n%s", diff)
	}
	assert.Equal(t, st1, st2)
	assert.NotEmpty(t, first)
}

func TestNewBuilder_Errors(t *testing.T) {
	t.Parallel()

	store, err := l1hits.NewStore(testutil.NewEventBuilder(0, 1).Record())
	require.NoError(t, err)

	_, err = NewBuilder(DefaultConfig(), nil)
	assert.Error(t, err)

	bad := DefaultConfig()
	bad.SeedSensorGap = 0
	_, err = NewBuilder(bad, store)
	assert.ErrorContains(t, err, "seed sensor gap")
}

func TestStats_Outcomes(t *testing.T) {
	t.Parallel()

	st := Stats{ThirdHitMisses: 4, Weak: 2, Strong: 1}
	assert.Equal(t, map[SeedState]int{
		StateDiscarded:       4,
		StateCommittedWeak:   2,
		StateCommittedStrong: 1,
	}, st.Outcomes())
}
