// Package testutil provides shared test fixtures: synthetic events built
// from straight lines and noise over a chosen sensor layout.
package testutil

import (
	"math/rand/v2"
	"testing"

	"github.com/banshee-data/velotrack/internal/velo/event"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// UniformLayout returns n sensor positions starting at z=0, pitch apart.
func UniformLayout(n int, pitch float64) []float64 {
	zs := make([]float64, n)
	for i := range zs {
		zs[i] = float64(i) * pitch
	}
	return zs
}

type fixtureHit struct {
	id   int64
	x, y float64
}

// EventBuilder assembles an event sensor by sensor. Hit ids are handed
// out sequentially from 1 in the order hits are added.
type EventBuilder struct {
	z      []float64
	hits   [][]fixtureHit
	nextID int64
}

// NewEventBuilder creates a builder with one sensor per z position.
func NewEventBuilder(z ...float64) *EventBuilder {
	return &EventBuilder{
		z:      append([]float64(nil), z...),
		hits:   make([][]fixtureHit, len(z)),
		nextID: 1,
	}
}

// AddHit places a hit at (x, y) on sensor and returns its id.
func (b *EventBuilder) AddHit(sensor int, x, y float64) int64 {
	id := b.nextID
	b.nextID++
	b.hits[sensor] = append(b.hits[sensor], fixtureHit{id: id, x: x, y: y})
	return id
}

// AddLine places one hit on each listed sensor along x = x0 + tx*z,
// y = y0 + ty*z. Ids are returned in the order of sensors.
func (b *EventBuilder) AddLine(x0, y0, tx, ty float64, sensors ...int) []int64 {
	ids := make([]int64, len(sensors))
	for i, s := range sensors {
		z := b.z[s]
		ids[i] = b.AddHit(s, x0+tx*z, y0+ty*z)
	}
	return ids
}

// AddNoise scatters perSensor hits uniformly over [-halfWidth, halfWidth)
// on every sensor.
func (b *EventBuilder) AddNoise(rng *rand.Rand, perSensor int, halfWidth float64) []int64 {
	var ids []int64
	for s := range b.z {
		for range perSensor {
			x := (rng.Float64()*2 - 1) * halfWidth
			y := (rng.Float64()*2 - 1) * halfWidth
			ids = append(ids, b.AddHit(s, x, y))
		}
	}
	return ids
}

// AllSensors returns the sensor indices from the far end inward, the
// order the search traverses them.
func (b *EventBuilder) AllSensors() []int {
	out := make([]int, len(b.z))
	for i := range out {
		out[i] = len(b.z) - 1 - i
	}
	return out
}

// Record flattens the builder into an event record. Hits are stored
// grouped by sensor in the order they were added.
func (b *EventBuilder) Record() *event.Record {
	rec := &event.Record{
		SensorModuleZ:           append([]float64(nil), b.z...),
		SensorNumberOfHits:      make([]int, len(b.z)),
		SensorHitsStartingIndex: make([]int, len(b.z)),
	}
	for s, hits := range b.hits {
		rec.SensorHitsStartingIndex[s] = len(rec.HitID)
		rec.SensorNumberOfHits[s] = len(hits)
		for _, h := range hits {
			rec.HitID = append(rec.HitID, h.id)
			rec.HitX = append(rec.HitX, h.x)
			rec.HitY = append(rec.HitY, h.y)
			rec.HitZ = append(rec.HitZ, b.z[s])
		}
	}
	return rec
}
