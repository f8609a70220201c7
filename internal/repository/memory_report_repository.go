package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/roadwatch/internal/models"
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
)

// MemoryReportRepository — хранилище в памяти процесса.
// Используется при STORE_DRIVER=memory и в тестах.
type MemoryReportRepository struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]models.Report
}

func NewMemoryReportRepository() *MemoryReportRepository {
	return &MemoryReportRepository{reports: make(map[uuid.UUID]models.Report)}
}

// clone копирует срезы, чтобы вызывающий не мог изменить хранилище.
func clone(r models.Report) models.Report {
	r.Images = append([]string{}, r.Images...)
	if r.DateUpdated != nil {
		t := *r.DateUpdated
		r.DateUpdated = &t
	}
	return r
}

func (m *MemoryReportRepository) Create(_ context.Context, report *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[report.ID] = clone(*report)
	return nil
}

func (m *MemoryReportRepository) CreateMany(ctx context.Context, reports []models.Report) error {
	for i := range reports {
		if err := m.Create(ctx, &reports[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryReportRepository) List(_ context.Context) ([]models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Report, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, clone(r))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DateReported.Equal(out[j].DateReported) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].DateReported.After(out[j].DateReported)
	})
	return out, nil
}

func (m *MemoryReportRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reports[id]
	if !ok {
		return nil, apperror.ErrReportNotFound
	}
	out := clone(r)
	return &out, nil
}

func (m *MemoryReportRepository) IncrementUpvotes(_ context.Context, id uuid.UUID, at time.Time) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reports[id]
	if !ok {
		return nil, apperror.ErrReportNotFound
	}
	r.Upvotes++
	r.DateUpdated = &at
	m.reports[id] = r
	out := clone(r)
	return &out, nil
}

func (m *MemoryReportRepository) UpdateStatus(_ context.Context, id uuid.UUID, from, to models.Status, at time.Time) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reports[id]
	if !ok {
		return nil, apperror.ErrReportNotFound
	}
	if r.Status != from {
		return nil, apperror.ErrInvalidTransition
	}
	r.Status = to
	r.DateUpdated = &at
	m.reports[id] = r
	out := clone(r)
	return &out, nil
}

func (m *MemoryReportRepository) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reports), nil
}

func (m *MemoryReportRepository) Ping(context.Context) error { return nil }
