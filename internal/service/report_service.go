package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/roadwatch/internal/logger"
	"github.com/ignatzorin/roadwatch/internal/models"
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
	"github.com/ignatzorin/roadwatch/internal/reportview"
	"github.com/ignatzorin/roadwatch/internal/validation"
	"github.com/ignatzorin/roadwatch/internal/ws"
)

// ReportStore описывает хранилище отчётов (PostgreSQL, MongoDB или память).
type ReportStore interface {
	Create(ctx context.Context, report *models.Report) error
	CreateMany(ctx context.Context, reports []models.Report) error
	List(ctx context.Context) ([]models.Report, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	IncrementUpvotes(ctx context.Context, id uuid.UUID, at time.Time) (*models.Report, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.Status, at time.Time) (*models.Report, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// EventPublisher рассылает события об отчётах подписчикам.
type EventPublisher interface {
	Publish(event string, data any) error
}

// CreateReportInput — данные новой заявки.
type CreateReportInput struct {
	Title       string
	Description string
	Severity    string
	Location    *models.Location
	Images      []string
	ReportedBy  string
}

// StatusChange — полезная нагрузка события смены статуса.
type StatusChange struct {
	Report models.Report `json:"report"`
	From   models.Status `json:"from"`
	To     models.Status `json:"to"`
}

// ReportService — бизнес-логика отчётов: создание, список, голоса, статусы.
type ReportService struct {
	store     ReportStore
	publisher EventPublisher
	cache     *CacheService
	cacheTTL  time.Duration
	maxImages int
	now       func() time.Time
}

// ReportServiceOption настраивает ReportService.
type ReportServiceOption func(*ReportService)

// WithPublisher подключает рассылку событий.
func WithPublisher(p EventPublisher) ReportServiceOption {
	return func(s *ReportService) { s.publisher = p }
}

// WithListCache кэширует полный список отчётов на ttl.
func WithListCache(c *CacheService, ttl time.Duration) ReportServiceOption {
	return func(s *ReportService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithMaxImages задаёт лимит фотографий в одном отчёте.
func WithMaxImages(n int) ReportServiceOption {
	return func(s *ReportService) { s.maxImages = n }
}

// WithNow подменяет часы.
func WithNow(now func() time.Time) ReportServiceOption {
	return func(s *ReportService) { s.now = now }
}

func NewReportService(store ReportStore, opts ...ReportServiceOption) *ReportService {
	s := &ReportService{
		store:     store,
		maxImages: models.MaxImages,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create проверяет заявку, присваивает id, статус reported и 0 голосов, затем сохраняет.
func (s *ReportService) Create(ctx context.Context, in CreateReportInput) (*models.Report, error) {
	severity := models.DefaultSeverity
	if strings.TrimSpace(in.Severity) != "" {
		sev, err := models.NewSeverity(strings.ToLower(strings.TrimSpace(in.Severity)))
		if err != nil {
			return nil, err
		}
		severity = sev
	}
	if in.Location == nil {
		return nil, apperror.ErrLocationRequired
	}
	if len(in.Images) > s.maxImages {
		return nil, apperror.Validation(apperror.Field("images", fmt.Sprintf("at most %d images are allowed", s.maxImages)))
	}

	reportedBy := strings.TrimSpace(in.ReportedBy)
	if reportedBy == "" {
		reportedBy = models.AnonymousReporter
	}
	images := in.Images
	if images == nil {
		images = []string{}
	}

	report := &models.Report{
		ID:           uuid.New(),
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Location:     *in.Location,
		Severity:     severity,
		Status:       models.StatusReported,
		Images:       images,
		ReportedBy:   reportedBy,
		Upvotes:      0,
		DateReported: s.now().UTC(),
	}
	if err := validation.ValidateReport(report); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("report service: не удалось сохранить отчёт: %w", err)
	}

	s.invalidate()
	s.publish(ws.EventReportCreated, report)
	logger.Log.WithFields(logrus.Fields{
		"report_id": report.ID,
		"severity":  report.Severity,
		"images":    len(report.Images),
	}).Info("report service: отчёт создан")

	return report, nil
}

// All возвращает все отчёты, новые первыми. Список кэшируется, если кэш подключён.
func (s *ReportService) All(ctx context.Context) ([]models.Report, error) {
	if s.cache == nil {
		return s.load(ctx)
	}

	v, err := s.cache.GetOrSet(ctx, ReportListCacheKey, s.cacheTTL, func() (interface{}, error) {
		return s.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return append([]models.Report(nil), v.([]models.Report)...), nil
}

func (s *ReportService) load(ctx context.Context) ([]models.Report, error) {
	reports, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("report service: не удалось получить отчёты: %w", err)
	}
	return reports, nil
}

// List применяет к списку поиск, фильтры и сортировку.
func (s *ReportService) List(ctx context.Context, q reportview.Query) ([]models.Report, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return reportview.View(all, q), nil
}

// Markers возвращает точки всех отчётов для карты.
func (s *ReportService) Markers(ctx context.Context) ([]models.Marker, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	markers := make([]models.Marker, 0, len(all))
	for _, r := range all {
		markers = append(markers, models.MarkerOf(r))
	}
	return markers, nil
}

func (s *ReportService) Get(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	return s.store.GetByID(ctx, id)
}

// Upvote увеличивает счётчик голосов ровно одного отчёта на 1.
func (s *ReportService) Upvote(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	report, err := s.store.IncrementUpvotes(ctx, id, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.invalidate()
	s.publish(ws.EventReportUpvoted, report)
	return report, nil
}

// UpdateStatus переводит отчёт в новый статус по правилам Status.CanTransitionTo.
func (s *ReportService) UpdateStatus(ctx context.Context, id uuid.UUID, status string, actor string) (*models.Report, error) {
	to, err := models.NewStatus(status)
	if err != nil {
		return nil, err
	}

	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := current.Status
	if !from.CanTransitionTo(to) {
		return nil, apperror.ErrInvalidTransition
	}

	updated, err := s.store.UpdateStatus(ctx, id, from, to, s.now().UTC())
	if err != nil {
		return nil, err
	}

	s.invalidate()
	s.publish(ws.EventReportStatusChanged, StatusChange{Report: *updated, From: from, To: to})
	logger.Log.WithFields(logrus.Fields{
		"report_id": id,
		"from":      from,
		"to":        to,
		"actor":     actor,
	}).Info("report service: статус изменён")

	return updated, nil
}

// Ping проверяет доступность хранилища.
func (s *ReportService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *ReportService) invalidate() {
	if s.cache != nil {
		s.cache.InvalidateByPrefix(ReportCachePrefix)
	}
}

func (s *ReportService) publish(event string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event, data); err != nil {
		logger.Log.WithError(err).WithField("event", event).Warn("report service: событие не отправлено")
	}
}
