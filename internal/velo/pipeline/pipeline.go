package pipeline

import (
	"fmt"
	"time"

	"github.com/banshee-data/velotrack/internal/velo/event"
	"github.com/banshee-data/velotrack/internal/velo/l1hits"
	"github.com/banshee-data/velotrack/internal/velo/l3tracks"
	"github.com/banshee-data/velotrack/internal/velo/l4forward"
)

// dumpSensors is how many sensors are described on the trace stream
// before the search starts.
const dumpSensors = 3

// Result is everything one reconstruction produced. It owns its tracks;
// nothing in it is shared with another run.
type Result struct {
	Config l4forward.Config
	Store  *l1hits.Store
	Tracks []*l3tracks.Track

	Search      l4forward.Stats
	Arbitration ArbitrationStats
	Summary     Summary
	Elapsed     time.Duration
}

// ArbitrationStats mirrors the counters of l3tracks.Result.
type ArbitrationStats struct {
	StrongCommitted int
	WeakQueued      int
	WeakCommitted   int
	WeakRejected    int
	UsedHits        int
}

// Reconstruct runs the full search over rec. Integrity problems in rec
// are returned before any search work is done.
func Reconstruct(rec *event.Record, cfg l4forward.Config) (*Result, error) {
	start := time.Now()

	store, err := l1hits.NewStore(rec)
	if err != nil {
		opsf("rejecting event: %v", err)
		return nil, err
	}
	for i := 0; i < min(dumpSensors, store.NumSensors()); i++ {
		tracef("%s", store.MustSensor(i))
	}

	builder, err := l4forward.NewBuilder(cfg, store)
	if err != nil {
		return nil, err
	}

	arb := l3tracks.NewArbiter()
	search, err := builder.Run(arb)
	if err != nil {
		return nil, fmt.Errorf("forward search: %w", err)
	}
	arbRes := arb.Result()

	res := &Result{
		Config: cfg,
		Store:  store,
		Tracks: arbRes.Tracks,
		Search: search,
		Arbitration: ArbitrationStats{
			StrongCommitted: arbRes.StrongCommitted,
			WeakQueued:      arbRes.WeakQueued,
			WeakCommitted:   arbRes.WeakCommitted,
			WeakRejected:    arbRes.WeakRejected,
			UsedHits:        arbRes.UsedHits,
		},
		Elapsed: time.Since(start),
	}
	res.Summary = Summarize(res.Tracks, store.NumHits())

	diagf("event: %d sensors, %d hits -> %d tracks (%d strong, %d weak) in %v",
		store.NumSensors(), store.NumHits(), len(res.Tracks),
		arbRes.StrongCommitted, arbRes.WeakCommitted, res.Elapsed)
	return res, nil
}

// CheckInvariants verifies the output guarantees of a reconstruction:
// hit exclusivity, minimum track length, and that 3-hit tracks only come
// from weak arbitration.
func CheckInvariants(res *Result) error {
	if err := l3tracks.CheckExclusive(res.Tracks); err != nil {
		return err
	}
	weak := 0
	for _, t := range res.Tracks {
		if t.Kind() == l3tracks.KindWeak {
			weak++
		}
	}
	if weak != res.Arbitration.WeakCommitted {
		return fmt.Errorf("%d three-hit tracks in output but %d committed by weak arbitration", weak, res.Arbitration.WeakCommitted)
	}
	return nil
}

// Unassigned returns the hits that ended up in no track, in storage order.
func (r *Result) Unassigned() []l1hits.Hit {
	used := make(map[int64]struct{}, r.Arbitration.UsedHits)
	for _, t := range r.Tracks {
		for _, h := range t.Hits {
			used[h.ID] = struct{}{}
		}
	}
	var out []l1hits.Hit
	for h := range r.Store.All() {
		if _, ok := used[h.ID]; !ok {
			out = append(out, h)
		}
	}
	return out
}
