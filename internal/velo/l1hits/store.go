package l1hits

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"strings"

	"github.com/banshee-data/velotrack/internal/velo/event"
)

var (
	// ErrOutOfRange is returned for sensor or hit indices outside the event.
	ErrOutOfRange = errors.New("index out of range")
	// ErrDataIntegrity is returned by NewStore for a malformed event record.
	ErrDataIntegrity = errors.New("event data integrity")
)

// Store owns every hit of one event in contiguous parallel arrays, plus
// the per-sensor metadata that slices them. It is immutable after
// NewStore returns and safe to share between readers.
type Store struct {
	sensorZ     []float64
	sensorCount []int
	sensorStart []int

	x, y, z []float64
	id      []int64
}

// NewStore validates rec and copies it into a Store. Any inconsistency
// between the arrays is reported as ErrDataIntegrity before a single hit
// is indexed, so the search never runs over a partially valid event.
func NewStore(rec *event.Record) (*Store, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil event record", ErrDataIntegrity)
	}

	n := len(rec.SensorModuleZ)
	if len(rec.SensorNumberOfHits) != n || len(rec.SensorHitsStartingIndex) != n {
		return nil, fmt.Errorf("%w: sensor arrays disagree: %d z positions, %d hit counts, %d starting indices",
			ErrDataIntegrity, n, len(rec.SensorNumberOfHits), len(rec.SensorHitsStartingIndex))
	}

	m := len(rec.HitID)
	if len(rec.HitX) != m || len(rec.HitY) != m || len(rec.HitZ) != m {
		return nil, fmt.Errorf("%w: hit arrays disagree: %d ids, %d x, %d y, %d z",
			ErrDataIntegrity, m, len(rec.HitX), len(rec.HitY), len(rec.HitZ))
	}

	for i := 0; i < n; i++ {
		if !isFinite(rec.SensorModuleZ[i]) {
			return nil, fmt.Errorf("%w: sensor %d has non-finite z %v", ErrDataIntegrity, i, rec.SensorModuleZ[i])
		}
		start, count := rec.SensorHitsStartingIndex[i], rec.SensorNumberOfHits[i]
		if count < 0 || start < 0 {
			return nil, fmt.Errorf("%w: sensor %d has negative range (start=%d, count=%d)", ErrDataIntegrity, i, start, count)
		}
		// Written as a subtraction so a huge count cannot overflow.
		if start > m || count > m-start {
			return nil, fmt.Errorf("%w: sensor %d range [%d, %d) exceeds %d hits", ErrDataIntegrity, i, start, start+count, m)
		}
	}

	seen := make(map[int64]int, m)
	for j := 0; j < m; j++ {
		if !isFinite(rec.HitX[j]) || !isFinite(rec.HitY[j]) || !isFinite(rec.HitZ[j]) {
			return nil, fmt.Errorf("%w: hit %d (id %d) has non-finite coordinates", ErrDataIntegrity, j, rec.HitID[j])
		}
		if prev, dup := seen[rec.HitID[j]]; dup {
			return nil, fmt.Errorf("%w: hit id %d repeated at positions %d and %d", ErrDataIntegrity, rec.HitID[j], prev, j)
		}
		seen[rec.HitID[j]] = j
	}

	return &Store{
		sensorZ:     append([]float64(nil), rec.SensorModuleZ...),
		sensorCount: append([]int(nil), rec.SensorNumberOfHits...),
		sensorStart: append([]int(nil), rec.SensorHitsStartingIndex...),
		x:           append([]float64(nil), rec.HitX...),
		y:           append([]float64(nil), rec.HitY...),
		z:           append([]float64(nil), rec.HitZ...),
		id:          append([]int64(nil), rec.HitID...),
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NumSensors returns the number of sensors in the event.
func (s *Store) NumSensors() int { return len(s.sensorZ) }

// NumHits returns the number of hits in the global arrays.
func (s *Store) NumHits() int { return len(s.id) }

// Sensor returns the view of sensor i.
func (s *Store) Sensor(i int) (Sensor, error) {
	if i < 0 || i >= len(s.sensorZ) {
		return Sensor{}, fmt.Errorf("sensor %d of %d: %w", i, len(s.sensorZ), ErrOutOfRange)
	}
	return Sensor{
		store: s,
		index: i,
		start: s.sensorStart[i],
		count: s.sensorCount[i],
	}, nil
}

// MustSensor is Sensor for indices already known to be valid, such as
// loop variables bounded by NumSensors. It panics otherwise.
func (s *Store) MustSensor(i int) Sensor {
	sensor, err := s.Sensor(i)
	if err != nil {
		panic(err)
	}
	return sensor
}

// All yields every hit of the event in storage order, including hits
// not addressed by any sensor range.
func (s *Store) All() iter.Seq[Hit] {
	return func(yield func(Hit) bool) {
		for j := range s.id {
			if !yield(s.hitAt(j)) {
				return
			}
		}
	}
}

func (s *Store) hitAt(j int) Hit {
	return Hit{ID: s.id[j], X: s.x[j], Y: s.y[j], Z: s.z[j]}
}

// Sensor is a read-only window over the hits recorded on one plane.
// The zero value is not usable; obtain one from Store.Sensor.
type Sensor struct {
	store *Store
	index int
	start int
	count int
}

// Index returns the sensor number.
func (v Sensor) Index() int { return v.index }

// Z returns the sensor position along the traversal axis.
func (v Sensor) Z() float64 { return v.store.sensorZ[v.index] }

// NumHits returns how many hits the sensor recorded.
func (v Sensor) NumHits() int { return v.count }

// Hits returns the sensor hits in storage order. Each call to the
// returned sequence starts again from the first hit.
func (v Sensor) Hits() iter.Seq[Hit] {
	return func(yield func(Hit) bool) {
		for j := v.start; j < v.start+v.count; j++ {
			if !yield(v.store.hitAt(j)) {
				return
			}
		}
	}
}

// Hit returns the i-th hit of the sensor.
func (v Sensor) Hit(i int) (Hit, error) {
	if i < 0 || i >= v.count {
		return Hit{}, fmt.Errorf("hit %d of sensor %d (%d hits): %w", i, v.index, v.count, ErrOutOfRange)
	}
	return v.store.hitAt(v.start + i), nil
}

// String describes the sensor the way the trace log dumps it.
func (v Sensor) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sensor %d:\n", v.index)
	fmt.Fprintf(&b, " At z: %s\n", formatCoord(v.Z()))
	fmt.Fprintf(&b, " Number of hits: %d\n", v.count)
	b.WriteString(" Hits (id {x, y, z}): [")
	first := true
	for h := range v.Hits() {
		if !first {
			b.WriteString(", ")
		}
		b.WriteString(h.String())
		first = false
	}
	b.WriteString("]")
	return b.String()
}
