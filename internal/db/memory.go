package db

import (
	"context"
	"slices"
	"sync"

	"seat-notifier/internal/models"
)

// MemoryStore keeps subscriptions in process memory. It is used when no
// database is configured and in tests.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[int][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[int][]string)}
}

func (m *MemoryStore) SelectAll(_ context.Context) ([]models.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.Subscription, 0, len(m.rows))
	for crn, emails := range m.rows {
		result = append(result, models.Subscription{CRN: crn, Emails: slices.Clone(emails)})
	}
	slices.SortFunc(result, func(a, b models.Subscription) int { return a.CRN - b.CRN })
	return result, nil
}

func (m *MemoryStore) UpsertAppendEmail(_ context.Context, crn int, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	emails := append(m.rows[crn], email)
	slices.Sort(emails)
	m.rows[crn] = slices.Compact(emails)
	return nil
}

func (m *MemoryStore) DeleteRow(_ context.Context, crn int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, crn)
	return nil
}

func (m *MemoryStore) RemoveEmailFromRow(_ context.Context, crn int, email string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	emails, ok := m.rows[crn]
	if !ok || !slices.Contains(emails, email) {
		return 0, nil
	}
	m.rows[crn] = slices.DeleteFunc(emails, func(e string) bool { return e == email })
	return 1, nil
}

func (m *MemoryStore) RemoveEmailFromAllRows(_ context.Context, email string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var affected int64
	for crn, emails := range m.rows {
		if !slices.Contains(emails, email) {
			continue
		}
		m.rows[crn] = slices.DeleteFunc(emails, func(e string) bool { return e == email })
		affected++
	}
	return affected, nil
}
