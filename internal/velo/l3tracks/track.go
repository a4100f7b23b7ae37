package l3tracks

import (
	"fmt"
	"strings"

	"github.com/banshee-data/velotrack/internal/velo/l1hits"
)

// Kind classifies a finished track candidate.
type Kind string

const (
	KindIncomplete Kind = "incomplete" // Fewer than MinTrackHits, never stored
	KindWeak       Kind = "weak"       // Exactly MinTrackHits, awaits arbitration
	KindStrong     Kind = "strong"     // MinStrongHits or more, committed immediately
)

const (
	// MinTrackHits is the length of a freshly confirmed candidate.
	MinTrackHits = 3
	// MinStrongHits is the length from which a track is trusted without arbitration.
	MinStrongHits = 4
)

// Track is an ordered list of hits in traversal order (decreasing sensor
// index). Hits are only ever appended at the tail.
type Track struct {
	Hits []l1hits.Hit
}

// NewTrack starts a candidate from a seed pair and its confirming hit.
func NewTrack(h0, h1, h2 l1hits.Hit) *Track {
	hits := make([]l1hits.Hit, 3, 8)
	hits[0], hits[1], hits[2] = h0, h1, h2
	return &Track{Hits: hits}
}

// Add appends h at the tail.
func (t *Track) Add(h l1hits.Hit) {
	t.Hits = append(t.Hits, h)
}

// Len returns the number of hits.
func (t *Track) Len() int { return len(t.Hits) }

// Tail returns the last two hits, the local model used for extension.
func (t *Track) Tail() (prev, last l1hits.Hit) {
	n := len(t.Hits)
	return t.Hits[n-2], t.Hits[n-1]
}

// IDs returns the hit identifiers in track order.
func (t *Track) IDs() []int64 {
	ids := make([]int64, len(t.Hits))
	for i, h := range t.Hits {
		ids[i] = h.ID
	}
	return ids
}

// Kind classifies the track by its current length.
func (t *Track) Kind() Kind {
	switch n := len(t.Hits); {
	case n >= MinStrongHits:
		return KindStrong
	case n == MinTrackHits:
		return KindWeak
	default:
		return KindIncomplete
	}
}

// String formats the track as "Track hits #n: [#id {x, y, z}, ...]".
func (t *Track) String() string {
	parts := make([]string, len(t.Hits))
	for i, h := range t.Hits {
		parts[i] = h.String()
	}
	return fmt.Sprintf("Track hits #%d: [%s]", len(t.Hits), strings.Join(parts, ", "))
}
