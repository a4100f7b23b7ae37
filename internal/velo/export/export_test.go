package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/velotrack/internal/testutil"
	"github.com/banshee-data/velotrack/internal/velo/l1hits"
	"github.com/banshee-data/velotrack/internal/velo/l3tracks"
	"github.com/banshee-data/velotrack/internal/velo/l4forward"
	"github.com/banshee-data/velotrack/internal/velo/pipeline"
)

func TestWriteText(t *testing.T) {
	tracks := []*l3tracks.Track{
		l3tracks.NewTrack(
			l1hits.Hit{ID: 4, X: 1.5, Y: 0, Z: 30},
			l1hits.Hit{ID: 2, X: 0.5, Y: 0, Z: 10},
			l1hits.Hit{ID: 1, X: 0, Y: 0, Z: 0},
		),
	}
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, tracks))
	assert.Equal(t, "#0 Track hits #3: [#4 {1.5, 0, 30}, #2 {0.5, 0, 10}, #1 {0, 0, 0}]\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteText(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestWriteJSON(t *testing.T) {
	b := testutil.NewEventBuilder(0, 10, 20, 30, 40, 50)
	line := b.AddLine(0, 0, 0.05, 0.02, b.AllSensors()...)
	res, err := pipeline.Reconstruct(b.Record(), l4forward.DefaultConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, res))

	var doc ResultJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Tracks, 1)
	assert.Equal(t, "strong", doc.Tracks[0].Kind)
	assert.Equal(t, 0, doc.Tracks[0].Index)
	assert.Equal(t, line[0], doc.Tracks[0].Hits[0].ID)
	assert.Equal(t, 50.0, doc.Tracks[0].Hits[0].Z)
	assert.Equal(t, []int64{line[1]}, doc.Unassigned)
	assert.Equal(t, 6, doc.Summary.TotalHits)
}

func TestNewResultJSON_EmptyEvent(t *testing.T) {
	res, err := pipeline.Reconstruct(testutil.NewEventBuilder(0, 10, 20, 30).Record(), l4forward.DefaultConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, res))
	assert.Contains(t, buf.String(), `"tracks": []`)
	assert.Contains(t, buf.String(), `"unassigned_hit_ids": []`)
}
