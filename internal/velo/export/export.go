// Package export writes reconstructed tracks for people and for other
// programs.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/velotrack/internal/velo/l3tracks"
	"github.com/banshee-data/velotrack/internal/velo/pipeline"
)

// WriteText prints one line per track, numbered from zero:
//
//	#0 Track hits #4: [#12 {0.1, 0.2, 300}, ...]
func WriteText(w io.Writer, tracks []*l3tracks.Track) error {
	for i, t := range tracks {
		if _, err := fmt.Fprintf(w, "#%d %s\n", i, t); err != nil {
			return err
		}
	}
	return nil
}

// HitJSON is one hit in the JSON output.
type HitJSON struct {
	ID int64   `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
}

// TrackJSON is one track in the JSON output.
type TrackJSON struct {
	Index int       `json:"index"`
	Kind  string    `json:"kind"`
	Hits  []HitJSON `json:"hits"`
}

// ResultJSON is the document written by WriteJSON.
type ResultJSON struct {
	Tracks     []TrackJSON      `json:"tracks"`
	Summary    pipeline.Summary `json:"summary"`
	Unassigned []int64          `json:"unassigned_hit_ids"`
	ElapsedMs  float64          `json:"elapsed_ms"`
}

// NewResultJSON converts a pipeline result to its JSON document.
func NewResultJSON(res *pipeline.Result) ResultJSON {
	doc := ResultJSON{
		Tracks:     make([]TrackJSON, 0, len(res.Tracks)),
		Summary:    res.Summary,
		Unassigned: []int64{},
		ElapsedMs:  float64(res.Elapsed.Microseconds()) / 1000,
	}
	for i, t := range res.Tracks {
		tj := TrackJSON{Index: i, Kind: string(t.Kind()), Hits: make([]HitJSON, len(t.Hits))}
		for j, h := range t.Hits {
			tj.Hits[j] = HitJSON{ID: h.ID, X: h.X, Y: h.Y, Z: h.Z}
		}
		doc.Tracks = append(doc.Tracks, tj)
	}
	for _, h := range res.Unassigned() {
		doc.Unassigned = append(doc.Unassigned, h.ID)
	}
	return doc
}

// WriteJSON writes res as an indented JSON document.
func WriteJSON(w io.Writer, res *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewResultJSON(res))
}
