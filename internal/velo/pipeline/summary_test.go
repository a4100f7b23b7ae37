package pipeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/velotrack/internal/velo/l1hits"
	"github.com/banshee-data/velotrack/internal/velo/l3tracks"
)

// straight builds a track of n hits along x = tx*z from z = 10*(n-1)
// down to 0.
func straight(firstID int64, n int, tx float64) *l3tracks.Track {
	hits := make([]l1hits.Hit, n)
	for i := range hits {
		z := float64(10 * (n - 1 - i))
		hits[i] = l1hits.Hit{ID: firstID + int64(i), X: tx * z, Y: -tx * z, Z: z}
	}
	tr := l3tracks.NewTrack(hits[0], hits[1], hits[2])
	for _, h := range hits[3:] {
		tr.Add(h)
	}
	return tr
}

func TestSummarize(t *testing.T) {
	tracks := []*l3tracks.Track{
		straight(0, 3, 0.1),
		straight(10, 4, -0.2),
		straight(20, 5, 0.3),
	}
	s := Summarize(tracks, 20)

	assert.Equal(t, 3, s.Tracks)
	assert.Equal(t, 2, s.StrongTracks)
	assert.Equal(t, 1, s.WeakTracks)
	assert.Equal(t, 12, s.AssignedHits)
	assert.InDelta(t, 0.6, s.AssignedFrac, 1e-12)
	assert.InDelta(t, 4.0, s.HitsPerTrackMean, 1e-12)
	assert.InDelta(t, 1.0, s.HitsPerTrackStdDev, 1e-12)
	assert.InDelta(t, 4.0, s.HitsPerTrackMedian, 1e-12)
	assert.Equal(t, 5, s.HitsPerTrackMax)
	assert.InDelta(t, 0.2, s.MeanAbsSlopeX, 1e-12)
	assert.InDelta(t, 0.2, s.MeanAbsSlopeY, 1e-12)
}

func TestSummarize_Edges(t *testing.T) {
	assert.Equal(t, Summary{TotalHits: 9}, Summarize(nil, 9))

	one := Summarize([]*l3tracks.Track{straight(0, 4, 0)}, 0)
	assert.Equal(t, 4.0, one.HitsPerTrackMean)
	assert.Zero(t, one.HitsPerTrackStdDev)
	assert.Zero(t, one.AssignedFrac)
	assert.False(t, math.IsNaN(one.MeanAbsSlopeX))
}
