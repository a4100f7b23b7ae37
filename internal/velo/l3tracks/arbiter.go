package l3tracks

import (
	"errors"
	"fmt"
)

// ErrResolved is returned when a candidate is submitted after the weak
// tracks have already been arbitrated.
var ErrResolved = errors.New("arbiter already resolved")

// Outcome is what the Arbiter did with a submitted candidate.
type Outcome int

const (
	OutcomeDiscarded Outcome = iota // Too short to be a track
	OutcomeQueued                   // Weak, held until ResolveWeak
	OutcomeCommitted                // Strong, committed immediately
)

func (o Outcome) String() string {
	switch o {
	case OutcomeQueued:
		return "queued"
	case OutcomeCommitted:
		return "committed"
	default:
		return "discarded"
	}
}

// Arbiter is the per-event arbitration context. It owns the used-hit set
// and both track collections. Commits happen in submission order and the
// used-hit set only grows, so the outcome depends on the order in which
// the caller submits candidates.
type Arbiter struct {
	used     map[int64]struct{}
	tracks   []*Track
	weak     []*Track
	resolved bool

	strongCommitted int
	weakCommitted   int
	weakRejected    int
	incomplete      int
}

// NewArbiter returns an empty arbitration context for one event.
func NewArbiter() *Arbiter {
	return &Arbiter{used: make(map[int64]struct{})}
}

// IsUsed reports whether hit id already belongs to a committed track.
func (a *Arbiter) IsUsed(id int64) bool {
	_, ok := a.used[id]
	return ok
}

// UsedCount returns the size of the used-hit set.
func (a *Arbiter) UsedCount() int { return len(a.used) }

// Submit hands over a finished candidate. Strong tracks are committed
// on the spot, weak ones are queued and short ones dropped.
func (a *Arbiter) Submit(t *Track) (Outcome, error) {
	if a.resolved {
		opsf("candidate %v submitted after weak arbitration", t.IDs())
		return OutcomeDiscarded, ErrResolved
	}

	switch t.Kind() {
	case KindStrong:
		a.commit(t)
		a.strongCommitted++
		tracef("commit strong track %v (%d hits)", t.IDs(), t.Len())
		return OutcomeCommitted, nil
	case KindWeak:
		a.weak = append(a.weak, t)
		tracef("queue weak track %v", t.IDs())
		return OutcomeQueued, nil
	default:
		a.incomplete++
		return OutcomeDiscarded, nil
	}
}

// ResolveWeak arbitrates the queued weak tracks in the order they were
// queued: a weak track is committed only if none of its hits has been
// claimed yet. It may be called once; later calls are no-ops.
func (a *Arbiter) ResolveWeak() (committed, rejected int) {
	if a.resolved {
		return 0, 0
	}
	a.resolved = true

	for _, t := range a.weak {
		if a.anyUsed(t) {
			a.weakRejected++
			tracef("reject weak track %v: hit already claimed", t.IDs())
			continue
		}
		a.commit(t)
		a.weakCommitted++
	}
	diagf("weak arbitration: %d queued, %d committed, %d rejected", len(a.weak), a.weakCommitted, a.weakRejected)
	return a.weakCommitted, a.weakRejected
}

func (a *Arbiter) anyUsed(t *Track) bool {
	for _, h := range t.Hits {
		if a.IsUsed(h.ID) {
			return true
		}
	}
	return false
}

func (a *Arbiter) commit(t *Track) {
	a.tracks = append(a.tracks, t)
	for _, h := range t.Hits {
		a.used[h.ID] = struct{}{}
	}
}

// Result is the owned outcome of one event's arbitration.
type Result struct {
	Tracks []*Track

	StrongCommitted int
	WeakQueued      int
	WeakCommitted   int
	WeakRejected    int
	Incomplete      int
	UsedHits        int
}

// Result resolves any pending weak tracks and returns the committed
// tracks: strong ones in commit order followed by the surviving weak ones.
func (a *Arbiter) Result() *Result {
	a.ResolveWeak()
	return &Result{
		Tracks:          append([]*Track(nil), a.tracks...),
		StrongCommitted: a.strongCommitted,
		WeakQueued:      len(a.weak),
		WeakCommitted:   a.weakCommitted,
		WeakRejected:    a.weakRejected,
		Incomplete:      a.incomplete,
		UsedHits:        len(a.used),
	}
}

// CheckExclusive verifies that no hit id appears in two tracks and that
// every track has at least MinTrackHits hits.
func CheckExclusive(tracks []*Track) error {
	owner := make(map[int64]int)
	for i, t := range tracks {
		if t.Len() < MinTrackHits {
			return fmt.Errorf("track %d has %d hits, minimum is %d", i, t.Len(), MinTrackHits)
		}
		for _, h := range t.Hits {
			if j, ok := owner[h.ID]; ok {
				return fmt.Errorf("hit %d shared by tracks %d and %d", h.ID, j, i)
			}
			owner[h.ID] = i
		}
	}
	return nil
}
