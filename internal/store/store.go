package store

import (
	"errors"
	"slices"
	"sync"

	"clinicdash/internal/fixture"
	appLog "clinicdash/internal/log"
	"clinicdash/internal/model"
)

var ErrNotFound = errors.New("store: not found")

// Store is the in-memory dataset behind every page. It holds the loaded
// fixture plus reserved blocks imported from external calendars, and
// satisfies calendar.Source.
//
// Readers get slices they must treat as read-only; writers replace whole
// slices under the lock and never mutate published ones.
type Store struct {
	mu   sync.RWMutex
	data *fixture.Data

	// External reserved blocks by source ID, in registration order.
	blockOrder []string
	blocks     map[string][]model.Appointment

	// merged caches fixture appointments followed by external blocks.
	merged []model.Appointment
}

func New(data *fixture.Data) *Store {
	if data == nil {
		data = &fixture.Data{}
	}
	s := &Store{
		data:   data,
		blocks: make(map[string][]model.Appointment),
	}
	s.rebuild()
	return s
}

// ReplaceFixture swaps the fixture dataset; external blocks are kept.
func (s *Store) ReplaceFixture(data *fixture.Data) {
	if data == nil {
		return
	}
	s.mu.Lock()
	s.data = data
	s.rebuild()
	s.mu.Unlock()
	appLog.Info("store fixture replaced", "appointments", len(data.Appointments), "patients", len(data.Patients))
}

// SetExternalBlocks replaces the reserved blocks imported from one source.
// Every block is forced to the reserved patient reference.
func (s *Store) SetExternalBlocks(sourceID string, blocks []model.Appointment) {
	cp := make([]model.Appointment, len(blocks))
	for i, b := range blocks {
		b.PatientID = model.ReservedPatientID
		b.Patient = nil
		b.Source = sourceID
		cp[i] = b
	}

	s.mu.Lock()
	if _, ok := s.blocks[sourceID]; !ok {
		s.blockOrder = append(s.blockOrder, sourceID)
	}
	s.blocks[sourceID] = cp
	s.rebuild()
	s.mu.Unlock()
	appLog.Debug("store external blocks replaced", "source", sourceID, "blocks", len(cp))
}

// RemoveExternalSource drops blocks from a source no longer configured.
func (s *Store) RemoveExternalSource(sourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blocks[sourceID]; !ok {
		return
	}
	delete(s.blocks, sourceID)
	s.blockOrder = slices.DeleteFunc(s.blockOrder, func(id string) bool { return id == sourceID })
	s.rebuild()
}

// ExternalSources lists registered external source IDs.
func (s *Store) ExternalSources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.blockOrder)
}

// rebuild recomputes merged; callers hold the write lock.
func (s *Store) rebuild() {
	n := len(s.data.Appointments)
	for _, b := range s.blocks {
		n += len(b)
	}
	merged := make([]model.Appointment, 0, n)
	merged = append(merged, s.data.Appointments...)
	for _, id := range s.blockOrder {
		merged = append(merged, s.blocks[id]...)
	}
	s.merged = merged
}

// Appointments returns fixture appointments followed by external blocks.
func (s *Store) Appointments() []model.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.merged
}

func (s *Store) Patients() []model.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Patients
}

func (s *Store) Notifications() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Notifications
}

// snapshot returns the current dataset for multi-collection queries.
func (s *Store) snapshot() *fixture.Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}
