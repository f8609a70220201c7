package reportview

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/roadwatch/internal/models"
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
)

// LoadState — состояние загрузки списка.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateReady
	StateFailed
)

// Fetcher загружает все отчёты из внешнего хранилища.
type Fetcher interface {
	ListReports(ctx context.Context) ([]models.Report, error)
}

// Store — коллекция отчётов, которой владеет один экран.
type Store struct {
	reports []models.Report
	state   LoadState
	lastErr error
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{}
}

// Load загружает отчёты. При ошибке список пуст, состояние StateFailed,
// а ошибка оборачивается в FETCH_FAILURE. Повтор — по действию пользователя.
func (s *Store) Load(ctx context.Context, f Fetcher) error {
	s.state = StateLoading
	reports, err := f.ListReports(ctx)
	if err != nil {
		s.reports = nil
		s.state = StateFailed
		if !apperror.IsFetchFailure(err) {
			err = apperror.Wrap(err, apperror.ErrCodeFetchFailure, "failed to load reports")
		}
		s.lastErr = err
		return err
	}
	s.Replace(reports)
	return nil
}

// Replace подменяет коллекцию, например сгенерированными примерами.
func (s *Store) Replace(reports []models.Report) {
	s.reports = append([]models.Report(nil), reports...)
	s.state = StateReady
	s.lastErr = nil
}

// State возвращает состояние загрузки.
func (s *Store) State() LoadState { return s.state }

// Err возвращает ошибку последней загрузки.
func (s *Store) Err() error { return s.lastErr }

// Reports возвращает копию коллекции.
func (s *Store) Reports() []models.Report {
	return append([]models.Report(nil), s.reports...)
}

// View применяет фильтры к коллекции.
func (s *Store) View(q Query) Result {
	return View(s.reports, q)
}

// Find ищет отчёт по идентификатору.
func (s *Store) Find(id uuid.UUID) (models.Report, bool) {
	for _, r := range s.reports {
		if r.ID == id {
			return r, true
		}
	}
	return models.Report{}, false
}

// Upvote увеличивает счётчик ровно одного отчёта на 1.
func (s *Store) Upvote(id uuid.UUID) (models.Report, error) {
	for i := range s.reports {
		if s.reports[i].ID == id {
			s.reports[i].Upvotes++
			return s.reports[i], nil
		}
	}
	return models.Report{}, apperror.ErrReportNotFound
}

// Apply заменяет отчёт свежей версией с сервера (после upvote или смены статуса).
func (s *Store) Apply(r models.Report) {
	for i := range s.reports {
		if s.reports[i].ID == r.ID {
			s.reports[i] = r
			return
		}
	}
	s.reports = append(s.reports, r)
}

// Markers возвращает маркеры всех отчётов для карты.
func (s *Store) Markers() []models.Marker {
	markers := make([]models.Marker, 0, len(s.reports))
	for _, r := range s.reports {
		markers = append(markers, models.MarkerOf(r))
	}
	return markers
}
