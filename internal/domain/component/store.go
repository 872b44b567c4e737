package component

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/visualjsx/studio/backend/internal/infrastructure/monitoring"
)

var (
	// ErrNotFound indicates an unknown component id.
	ErrNotFound = errors.New("component not found")
	// ErrBlankCode indicates an empty or whitespace-only source submission.
	ErrBlankCode = errors.New("code is required")
)

// Record is a persisted component source record.
type Record struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store keeps component records in memory behind a CRUD interface.
type Store struct {
	mu      sync.RWMutex
	records map[string]*Record
	metrics *monitoring.Metrics
	now     func() time.Time
}

// NewStore creates an empty component store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*Record),
		now:     time.Now,
	}
}

// WithMetrics attaches a metrics collector.
func (s *Store) WithMetrics(m *monitoring.Metrics) *Store {
	s.metrics = m
	return s
}

// Create stores a new record and returns it.
func (s *Store) Create(ctx context.Context, code string) (*Record, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrBlankCode
	}

	now := s.now()
	rec := &Record{
		ID:        uuid.NewString(),
		Code:      code,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.records[rec.ID] = rec
	total := len(s.records)
	s.mu.Unlock()

	s.recordSave(total)
	return rec.clone(), nil
}

// Get returns the record for id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return rec.clone(), nil
}

// Update replaces the code of an existing record and bumps UpdatedAt.
func (s *Store) Update(ctx context.Context, id, code string) (*Record, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrBlankCode
	}

	s.mu.Lock()
	rec, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	rec.Code = code
	rec.UpdatedAt = s.now()
	out := rec.clone()
	total := len(s.records)
	s.mu.Unlock()

	s.recordSave(total)
	return out, nil
}

// List returns all records ordered by UpdatedAt descending.
func (s *Store) List(ctx context.Context) []*Record {
	s.mu.RLock()
	out := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) recordSave(total int) {
	if s.metrics == nil {
		return
	}
	s.metrics.ComponentSaves.Inc()
	s.metrics.ComponentsTotal.Set(float64(total))
}

func (r *Record) clone() *Record {
	out := *r
	return &out
}
