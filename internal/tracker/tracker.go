// Package tracker persists one record per wrapped invocation and serves
// the chronological scans the aggregation layer is built on.
package tracker

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNoData signals an empty store where callers need to distinguish
// "nothing recorded yet" from a real failure.
var ErrNoData = errors.New("no invocations recorded")

// Record is the accounting entry for one wrapped invocation.
type Record struct {
	ID           int64
	InvocationID string
	Timestamp    time.Time
	// Tool is the wrapped program ("git"); Command the full command line.
	Tool    string
	Command string
	// RawUnits estimates what the tool emitted, CompactUnits what was
	// actually printed.
	RawUnits     int
	CompactUnits int
	DurationMs   int64
	Success      bool
}

// SavedUnits reports the units compaction removed, floored at zero: an
// adapter that expands output never produces negative savings.
func (r Record) SavedUnits() int {
	if r.RawUnits <= r.CompactUnits {
		return 0
	}
	return r.RawUnits - r.CompactUnits
}

// Store is an append-only invocation log.
type Store interface {
	// Append persists one record, assigning ID and InvocationID if unset.
	Append(rec *Record) error
	// All returns every record in chronological order.
	All() ([]Record, error)
	// Range returns records with from <= Timestamp <= to, in
	// chronological order.
	Range(from, to time.Time) ([]Record, error)
	Close() error
}

// NewInvocationID returns a fresh identifier for a record.
func NewInvocationID() string {
	return uuid.NewString()
}

// Memory is an in-process Store used by tests and the dashboard preview
// mode.
type Memory struct {
	mu      sync.Mutex
	records []Record
	nextID  int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{nextID: 1}
}

// Append implements Store.
func (m *Memory) Append(rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.InvocationID == "" {
		rec.InvocationID = NewInvocationID()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	rec.ID = m.nextID
	m.nextID++
	m.records = append(m.records, *rec)
	return nil
}

// All implements Store.
func (m *Memory) All() ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Record, len(m.records))
	copy(out, m.records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Range implements Store. Both bounds are inclusive.
func (m *Memory) Range(from, to time.Time) ([]Record, error) {
	all, _ := m.All()
	var out []Record
	for _, r := range all {
		if r.Timestamp.Before(from) || r.Timestamp.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
