package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ignatzorin/roadwatch/internal/logger"
	"github.com/ignatzorin/roadwatch/internal/reportview"
)

// SeedService заполняет пустое хранилище демонстрационными отчётами.
type SeedService struct {
	store ReportStore
	now   func() time.Time
}

func NewSeedService(store ReportStore) *SeedService {
	return &SeedService{store: store, now: time.Now}
}

// SeedIfEmpty добавляет n отчётов, только если хранилище пустое.
// Возвращает число добавленных отчётов.
func (s *SeedService) SeedIfEmpty(ctx context.Context, n int, seed int64) (int, error) {
	if n <= 0 {
		return 0, nil
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed service: не удалось посчитать отчёты: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	reports := reportview.SampleReports(n, seed, s.now().UTC())
	if err := s.store.CreateMany(ctx, reports); err != nil {
		return 0, fmt.Errorf("seed service: не удалось сохранить отчёты: %w", err)
	}

	logger.Log.WithField("count", len(reports)).Info("seed service: добавлены демонстрационные отчёты")
	return len(reports), nil
}
