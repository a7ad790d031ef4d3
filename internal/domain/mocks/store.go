package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/ersonp/jurisflow/internal/domain/entities"
)

// TimelineStore is an in-memory implementation of ports.TimelineStore.
type TimelineStore struct {
	mu      sync.Mutex
	Entries map[string]entities.TimelineEntry
	Records []entities.AuditRecord

	ListErr   error
	FindErr   error
	CreateErr error
	UpdateErr error
	AuditErr  error

	// Call tracking
	CreateCallCount int
	UpdateCallCount int
}

// NewTimelineStore creates an empty store seeded with entries.
func NewTimelineStore(seed ...entities.TimelineEntry) *TimelineStore {
	m := &TimelineStore{Entries: make(map[string]entities.TimelineEntry)}
	for _, e := range seed {
		m.Entries[e.ID] = e.Clone()
	}
	return m
}

// ListEntries returns the entries of a case in timeline order.
func (m *TimelineStore) ListEntries(_ context.Context, caseID string) ([]entities.TimelineEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	result := make([]entities.TimelineEntry, 0, len(m.Entries))
	for _, e := range m.Entries {
		if e.CaseID == caseID {
			result = append(result, e.Clone())
		}
	}
	entities.SortTimeline(result)
	return result, nil
}

// FindEntry returns an entry by ID, or nil.
func (m *TimelineStore) FindEntry(_ context.Context, id string) (*entities.TimelineEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	e, ok := m.Entries[id]
	if !ok {
		return nil, nil
	}
	clone := e.Clone()
	return &clone, nil
}

// CreateEntry stores a new entry and its audit record. AuditErr fails the
// whole write.
func (m *TimelineStore) CreateEntry(_ context.Context, entry *entities.TimelineEntry, audit *entities.AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCallCount++
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, exists := m.Entries[entry.ID]; exists {
		return fmt.Errorf("%w: entry %s already exists", entities.ErrPersistenceConflict, entry.ID)
	}
	if audit != nil && m.AuditErr != nil {
		return m.AuditErr
	}
	m.Entries[entry.ID] = entry.Clone()
	m.appendAudit(audit)
	return nil
}

// UpdateEntry replaces an entry when its version matches and stores its
// audit record.
func (m *TimelineStore) UpdateEntry(_ context.Context, entry *entities.TimelineEntry, audit *entities.AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCallCount++
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	stored, ok := m.Entries[entry.ID]
	if !ok {
		return fmt.Errorf("%w: %s", entities.ErrEntryNotFound, entry.ID)
	}
	if stored.Version != entry.Version {
		return fmt.Errorf("%w: entry %s is at version %d, not %d",
			entities.ErrPersistenceConflict, entry.ID, stored.Version, entry.Version)
	}
	if audit != nil && m.AuditErr != nil {
		return m.AuditErr
	}
	entry.Version++
	m.Entries[entry.ID] = entry.Clone()
	m.appendAudit(audit)
	return nil
}

// SaveAudit appends an audit record.
func (m *TimelineStore) SaveAudit(_ context.Context, record *entities.AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AuditErr != nil {
		return m.AuditErr
	}
	m.appendAudit(record)
	return nil
}

func (m *TimelineStore) appendAudit(record *entities.AuditRecord) {
	if record == nil {
		return
	}
	record.ID = int64(len(m.Records) + 1)
	m.Records = append(m.Records, *record)
}

// ListAudit returns the newest audit records of a case first.
func (m *TimelineStore) ListAudit(_ context.Context, caseID string, limit int) ([]entities.AuditRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AuditErr != nil {
		return nil, m.AuditErr
	}
	var result []entities.AuditRecord
	for i := len(m.Records) - 1; i >= 0 && len(result) < limit; i-- {
		if m.Records[i].CaseID == caseID {
			result = append(result, m.Records[i])
		}
	}
	return result, nil
}

// CaseEntries returns the stored entries of a case in timeline order.
func (m *TimelineStore) CaseEntries(caseID string) []entities.TimelineEntry {
	entries, _ := m.ListEntries(context.Background(), caseID)
	return entries
}

// AuditRecords returns a copy of all audit records.
func (m *TimelineStore) AuditRecords() []entities.AuditRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entities.AuditRecord, len(m.Records))
	copy(out, m.Records)
	return out
}
