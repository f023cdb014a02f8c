package dashboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/diewo77/golf-referee/internal/models"
)

// MemoryRepository is an in-memory Repository. Assignments and availabilities
// are expected to carry their Tournament (and Club) already joined.
type MemoryRepository struct {
	mu             sync.RWMutex
	communications []models.Communication
	assignments    []models.Assignment
	availabilities []models.Availability
	calls          int
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// AddCommunications appends communications.
func (m *MemoryRepository) AddCommunications(c ...models.Communication) {
	m.mu.Lock()
	m.communications = append(m.communications, c...)
	m.mu.Unlock()
}

// AddAssignments appends assignments.
func (m *MemoryRepository) AddAssignments(a ...models.Assignment) {
	m.mu.Lock()
	m.assignments = append(m.assignments, a...)
	m.mu.Unlock()
}

// AddAvailabilities appends availabilities.
func (m *MemoryRepository) AddAvailabilities(a ...models.Availability) {
	m.mu.Lock()
	m.availabilities = append(m.availabilities, a...)
	m.mu.Unlock()
}

// Calls returns how many queries were issued.
func (m *MemoryRepository) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

func (m *MemoryRepository) touch() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

func (m *MemoryRepository) ListEligibleCommunications(_ context.Context, zoneID *uint, now time.Time, limit int) ([]models.Communication, error) {
	m.touch()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return SelectCommunications(m.communications, zoneID, now, limit), nil
}

func (m *MemoryRepository) CountAvailabilities(_ context.Context, userID uint) (int64, error) {
	m.touch()
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, a := range m.availabilities {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) CountAssignments(_ context.Context, userID uint) (int64, error) {
	m.touch()
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, a := range m.assignments {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) ListUpcomingAssignments(_ context.Context, userID uint, now time.Time, limit int) ([]models.Assignment, error) {
	m.touch()
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Assignment
	for _, a := range m.assignments {
		if a.UserID != userID || a.Tournament == nil {
			continue
		}
		if a.Tournament.StartDate.Before(now) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return truncate(out, limit), nil
}

func (m *MemoryRepository) ListRecentAvailabilities(_ context.Context, userID uint, limit int) ([]models.Availability, error) {
	m.touch()
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Availability
	for _, a := range m.availabilities {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return truncate(out, limit), nil
}

func truncate[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
