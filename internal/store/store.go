// Package store keeps uploaded datasets in memory.
package store

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"sales-dashboard/internal/models"
)

const defaultMaxDatasets = 32

var ErrNotFound = errors.New("dataset not found")

// Dataset is an immutable set of rows plus its per-granularity dashboards.
type Dataset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Records   int       `json:"record_count"`

	rows []*models.SalesRecord

	mu         sync.Mutex
	dashboards map[models.Granularity]*models.Dashboard
}

func (d *Dataset) Rows() []*models.SalesRecord {
	return d.rows
}

// Dashboard returns the memoised dashboard for g, computing it once.
func (d *Dataset) Dashboard(g models.Granularity, compute func([]*models.SalesRecord, models.Granularity) *models.Dashboard) *models.Dashboard {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cached, ok := d.dashboards[g]; ok {
		return cached
	}
	dashboard := compute(d.rows, g)
	d.dashboards[g] = dashboard
	return dashboard
}

// Cached reports how many granularities have been computed.
func (d *Dataset) Cached() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dashboards)
}

type Store struct {
	mu          sync.RWMutex
	datasets    map[string]*Dataset
	order       []string
	maxDatasets int
}

func New(maxDatasets int) *Store {
	if maxDatasets <= 0 {
		maxDatasets = defaultMaxDatasets
	}
	return &Store{
		datasets:    make(map[string]*Dataset),
		maxDatasets: maxDatasets,
	}
}

// Put stores rows under a fresh ID, evicting the oldest dataset when full.
func (s *Store) Put(name string, rows []*models.SalesRecord) *Dataset {
	ds := &Dataset{
		ID:         uuid.NewString(),
		Name:       name,
		CreatedAt:  time.Now().UTC(),
		Records:    len(rows),
		rows:       rows,
		dashboards: make(map[models.Granularity]*models.Dashboard),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.order) >= s.maxDatasets {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.datasets, oldest)
	}

	s.datasets[ds.ID] = ds
	s.order = append(s.order, ds.ID)
	return ds
}

func (s *Store) Get(id string) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.datasets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ds, nil
}

// List returns datasets newest first.
func (s *Store) List() []*Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Dataset, 0, len(s.order))
	for _, id := range slices.Backward(s.order) {
		out = append(out, s.datasets[id])
	}
	return out
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[id]; !ok {
		return ErrNotFound
	}
	delete(s.datasets, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}
