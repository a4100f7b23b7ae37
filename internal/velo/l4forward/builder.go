package l4forward

import (
	"fmt"

	"github.com/banshee-data/velotrack/internal/velo/l1hits"
	"github.com/banshee-data/velotrack/internal/velo/l2predicates"
	"github.com/banshee-data/velotrack/internal/velo/l3tracks"
)

// SeedState is the stage a seed attempt is in, or the stage it ended in.
type SeedState string

const (
	StateSeekingSeed     SeedState = "seeking_seed"
	StateSeekingThirdHit SeedState = "seeking_third_hit"
	StateExtending       SeedState = "extending"
	StateCommittedWeak   SeedState = "committed_weak"
	StateCommittedStrong SeedState = "committed_strong"
	StateDiscarded       SeedState = "discarded"
)

// Arbiter is the part of l3tracks.Arbiter the search needs: a read of
// the used-hit set and a sink for finished candidates.
type Arbiter interface {
	IsUsed(id int64) bool
	Submit(t *l3tracks.Track) (l3tracks.Outcome, error)
}

// Stats counts what one forward pass did.
type Stats struct {
	SensorPairs    int // Sensor pairs scanned
	PairsTested    int // (H0, H1) combinations tested for compatibility
	Seeds          int // Compatible pairs
	ThirdHitMisses int // Seeds with no confirming hit
	ExtensionHits  int // Hits appended after the third
	Weak           int // Candidates queued as weak
	Strong         int // Candidates committed as strong
}

// Outcomes maps each terminal SeedState to how many seeds ended there.
func (s Stats) Outcomes() map[SeedState]int {
	return map[SeedState]int{
		StateDiscarded:       s.ThirdHitMisses,
		StateCommittedWeak:   s.Weak,
		StateCommittedStrong: s.Strong,
	}
}

// Builder runs the forward search over one event.
type Builder struct {
	cfg   Config
	store *l1hits.Store
}

// NewBuilder returns a Builder for store.
func NewBuilder(cfg Config, store *l1hits.Store) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid search config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("nil hit store")
	}
	return &Builder{cfg: cfg, store: store}, nil
}

// Run walks every sensor pair from the far end inward and submits each
// candidate to arb. Iteration order is fixed (sensor index descending,
// hits in storage order, H0 before H1) so the same event always yields
// the same submissions.
//
// The H0 list for a sensor pair is taken once before the pair is
// scanned; the H1 list is taken again for every H0 so it sees tracks
// committed earlier in the same pair.
func (b *Builder) Run(arb Arbiter) (Stats, error) {
	var st Stats
	gap := b.cfg.SeedSensorGap
	n := b.store.NumSensors()

	for floor := n - 2 - gap; floor >= 0; floor-- {
		s0 := b.store.MustSensor(floor + 1 + gap)
		s1 := b.store.MustSensor(floor + 1)
		st.SensorPairs++

		for _, h0 := range unused(s0, arb) {
			for _, h1 := range unused(s1, arb) {
				st.PairsTested++
				if !l2predicates.AreCompatible(h0, h1, b.cfg.Slopes) {
					continue
				}
				st.Seeds++

				track, sensorIdx, ok := b.confirm(h0, h1, floor, arb)
				if !ok {
					st.ThirdHitMisses++
					tracef("seed %d->%d: %s (no third hit)", h0.ID, h1.ID, StateDiscarded)
					continue
				}

				st.ExtensionHits += b.extend(track, sensorIdx, arb)

				outcome, err := arb.Submit(track)
				if err != nil {
					opsf("search aborted at sensor pair %d/%d: %v", s0.Index(), s1.Index(), err)
					return st, fmt.Errorf("submit track %v: %w", track.IDs(), err)
				}
				switch outcome {
				case l3tracks.OutcomeCommitted:
					st.Strong++
					tracef("seed %d->%d: %s with %d hits", h0.ID, h1.ID, StateCommittedStrong, track.Len())
				case l3tracks.OutcomeQueued:
					st.Weak++
					tracef("seed %d->%d: %s", h0.ID, h1.ID, StateCommittedWeak)
				}

				// A strong track ends the search for this H0.
				if outcome == l3tracks.OutcomeCommitted {
					break
				}
			}
		}
	}

	diagf("forward pass: %d sensor pairs, %d pairs tested, %d seeds, %d strong, %d weak, %d without third hit",
		st.SensorPairs, st.PairsTested, st.Seeds, st.Strong, st.Weak, st.ThirdHitMisses)
	return st, nil
}

// confirm searches the sensors from floor inward for the first hit that
// continues the seed line, nearest sensor first. It returns the new
// candidate and the sensor its third hit came from.
func (b *Builder) confirm(h0, h1 l1hits.Hit, floor int, arb Arbiter) (*l3tracks.Track, int, bool) {
	last := max(floor-b.cfg.ThirdHitSearchDepth+1, 0)
	for idx := floor; idx >= last; idx-- {
		for h2 := range b.store.MustSensor(idx).Hits() {
			if arb.IsUsed(h2.ID) {
				continue
			}
			if l2predicates.CheckTolerance(h0, h1, h2, b.cfg.Tolerance) {
				return l3tracks.NewTrack(h0, h1, h2), idx, true
			}
		}
	}
	return nil, -1, false
}

// extend grows track one sensor at a time inward of sensorIdx, refitting
// the local model from the last two hits at every step. Hits owned by a
// committed track are passed over, so a sensor holding only such hits
// counts as a miss. It stops after MaxMissedStations consecutive sensors
// without a matching hit or once sensor 0 has been scanned, and returns
// the number of hits appended.
func (b *Builder) extend(track *l3tracks.Track, sensorIdx int, arb Arbiter) int {
	added := 0
	missed := 0
	for idx := sensorIdx - 1; idx >= 0 && missed < b.cfg.MaxMissedStations; idx-- {
		missed++
		prev, last := track.Tail()
		for h := range b.store.MustSensor(idx).Hits() {
			if arb.IsUsed(h.ID) {
				continue
			}
			if l2predicates.CheckTolerance(prev, last, h, b.cfg.Tolerance) {
				track.Add(h)
				added++
				missed = 0
				break
			}
		}
	}
	return added
}

// unused snapshots the hits of sensor that no committed track owns yet.
func unused(sensor l1hits.Sensor, arb Arbiter) []l1hits.Hit {
	hits := make([]l1hits.Hit, 0, sensor.NumHits())
	for h := range sensor.Hits() {
		if !arb.IsUsed(h.ID) {
			hits = append(hits, h)
		}
	}
	return hits
}
