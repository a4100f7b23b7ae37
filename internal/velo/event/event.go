package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// MaxFileSize caps how much we are willing to read for a single event.
const MaxFileSize = 64 * 1024 * 1024 // 64MB

// ErrInvalidFile is returned when an event file fails the pre-decode checks.
var ErrInvalidFile = errors.New("invalid event file")

// Record is one event as a set of aligned flat arrays. Hits are stored
// globally ordered by sensor; each sensor addresses its hits through
// SensorHitsStartingIndex and SensorNumberOfHits.
type Record struct {
	SensorModuleZ           []float64 `json:"sensor_module_z"`
	SensorNumberOfHits      []int     `json:"sensor_number_of_hits"`
	SensorHitsStartingIndex []int     `json:"sensor_hits_starting_index"`

	HitX  []float64 `json:"hit_x"`
	HitY  []float64 `json:"hit_y"`
	HitZ  []float64 `json:"hit_z"`
	HitID []int64   `json:"hit_id"`
}

// envelope matches files that nest the record under an "event" key.
type envelope struct {
	Event *Record `json:"event"`
}

// NumSensors returns the number of sensors described by the record.
func (r *Record) NumSensors() int { return len(r.SensorModuleZ) }

// NumHits returns the length of the global hit id array.
func (r *Record) NumHits() int { return len(r.HitID) }

// Decode parses an event record. Both a bare record and one wrapped as
// {"event": {...}} are accepted.
func Decode(data []byte) (*Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidFile)
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("failed to parse event JSON: %w", err)
	}
	if env.Event != nil {
		return env.Event, nil
	}

	rec := &Record{}
	if err := json.Unmarshal(trimmed, rec); err != nil {
		return nil, fmt.Errorf("failed to parse event JSON: %w", err)
	}
	return rec, nil
}

// Load reads and decodes the named event from fsys.
func Load(fsys fs.FS, name string) (*Record, error) {
	if ext := filepath.Ext(name); ext != ".json" {
		return nil, fmt.Errorf("%w: must have .json extension, got %q", ErrInvalidFile, ext)
	}

	info, err := fs.Stat(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to stat event file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidFile, name)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: too large: %d bytes (max %d)", ErrInvalidFile, info.Size(), MaxFileSize)
	}

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read event file: %w", err)
	}
	return Decode(data)
}

// LoadFile reads an event from a path on the local filesystem.
func LoadFile(path string) (*Record, error) {
	cleanPath := filepath.Clean(path)
	return Load(os.DirFS(filepath.Dir(cleanPath)), filepath.Base(cleanPath))
}

// Encode writes the record as indented JSON wrapped under "event", the
// layout LoadFile reads back.
func (r *Record) Encode() ([]byte, error) {
	return json.MarshalIndent(envelope{Event: r}, "", "  ")
}
