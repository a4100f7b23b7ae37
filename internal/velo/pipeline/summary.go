package pipeline

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/velotrack/internal/velo/l3tracks"
)

// Summary aggregates per-track quantities over one event.
type Summary struct {
	Tracks       int     `json:"tracks"`
	StrongTracks int     `json:"strong_tracks"`
	WeakTracks   int     `json:"weak_tracks"`
	TotalHits    int     `json:"total_hits"`
	AssignedHits int     `json:"assigned_hits"`
	AssignedFrac float64 `json:"assigned_fraction"`

	HitsPerTrackMean   float64 `json:"hits_per_track_mean"`
	HitsPerTrackStdDev float64 `json:"hits_per_track_stddev"`
	HitsPerTrackMedian float64 `json:"hits_per_track_median"`
	HitsPerTrackMax    int     `json:"hits_per_track_max"`

	// Mean absolute direction of the chord from first to last hit.
	MeanAbsSlopeX float64 `json:"mean_abs_slope_x"`
	MeanAbsSlopeY float64 `json:"mean_abs_slope_y"`
}

// Summarize computes a Summary for tracks drawn from an event with
// totalHits hits. Statistics of an empty track list are zero.
func Summarize(tracks []*l3tracks.Track, totalHits int) Summary {
	s := Summary{Tracks: len(tracks), TotalHits: totalHits}
	if len(tracks) == 0 {
		return s
	}

	lengths := make([]float64, 0, len(tracks))
	slopesX := make([]float64, 0, len(tracks))
	slopesY := make([]float64, 0, len(tracks))
	for _, t := range tracks {
		n := t.Len()
		s.AssignedHits += n
		if n > s.HitsPerTrackMax {
			s.HitsPerTrackMax = n
		}
		switch t.Kind() {
		case l3tracks.KindStrong:
			s.StrongTracks++
		case l3tracks.KindWeak:
			s.WeakTracks++
		}
		lengths = append(lengths, float64(n))

		first, last := t.Hits[0], t.Hits[n-1]
		if dz := last.Z - first.Z; dz != 0 {
			slopesX = append(slopesX, math.Abs((last.X-first.X)/dz))
			slopesY = append(slopesY, math.Abs((last.Y-first.Y)/dz))
		}
	}

	if totalHits > 0 {
		s.AssignedFrac = float64(s.AssignedHits) / float64(totalHits)
	}

	s.HitsPerTrackMean, s.HitsPerTrackStdDev = stat.MeanStdDev(lengths, nil)
	if len(lengths) < 2 {
		s.HitsPerTrackStdDev = 0
	}
	sort.Float64s(lengths)
	s.HitsPerTrackMedian = stat.Quantile(0.5, stat.Empirical, lengths, nil)

	if len(slopesX) > 0 {
		s.MeanAbsSlopeX = stat.Mean(slopesX, nil)
		s.MeanAbsSlopeY = stat.Mean(slopesY, nil)
	}
	return s
}
