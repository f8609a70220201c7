package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/roadwatch/internal/models"
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
	"github.com/ignatzorin/roadwatch/internal/repository/common"
)

const reportColumns = `id, title, description, lat, lng, address, severity, status, images, reported_by, upvotes, date_reported, date_updated`

// reportRow — плоское представление строки таблицы reports.
type reportRow struct {
	ID           uuid.UUID      `db:"id"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	Lat          float64        `db:"lat"`
	Lng          float64        `db:"lng"`
	Address      string         `db:"address"`
	Severity     string         `db:"severity"`
	Status       string         `db:"status"`
	Images       pq.StringArray `db:"images"`
	ReportedBy   string         `db:"reported_by"`
	Upvotes      int            `db:"upvotes"`
	DateReported time.Time      `db:"date_reported"`
	DateUpdated  sql.NullTime   `db:"date_updated"`
}

func (r reportRow) toDomain() models.Report {
	report := models.Report{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Location:     models.Location{Lat: r.Lat, Lng: r.Lng, Address: r.Address},
		Severity:     models.Severity(r.Severity),
		Status:       models.Status(r.Status),
		Images:       []string(r.Images),
		ReportedBy:   r.ReportedBy,
		Upvotes:      r.Upvotes,
		DateReported: r.DateReported.UTC(),
	}
	if report.Images == nil {
		report.Images = []string{}
	}
	if r.DateUpdated.Valid {
		t := r.DateUpdated.Time.UTC()
		report.DateUpdated = &t
	}
	return report
}

func rowValues(r *models.Report) []interface{} {
	images := r.Images
	if images == nil {
		images = []string{}
	}
	return []interface{}{
		r.ID, r.Title, r.Description,
		r.Location.Lat, r.Location.Lng, r.Location.Address,
		string(r.Severity), string(r.Status), pq.StringArray(images),
		r.ReportedBy, r.Upvotes, r.DateReported, r.DateUpdated,
	}
}

// ReportRepository хранит отчёты в PostgreSQL.
type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create вставляет отчёт. ID и дата должны быть заполнены сервисом.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, rowValues(report)...)
	if err != nil {
		return fmt.Errorf("report repository: create: %w", err)
	}
	return nil
}

// CreateMany вставляет отчёты батчами в одной транзакции.
func (r *ReportRepository) CreateMany(ctx context.Context, reports []models.Report) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		bi := common.NewBatchInserter(tx, `INSERT INTO reports (`+reportColumns+`)`, 13, 50)
		for i := range reports {
			if err := bi.Add(ctx, rowValues(&reports[i])...); err != nil {
				return fmt.Errorf("report repository: create many: %w", err)
			}
		}
		return bi.Flush(ctx)
	})
}

// List возвращает все отчёты, новые первыми.
func (r *ReportRepository) List(ctx context.Context) ([]models.Report, error) {
	var rows []reportRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+reportColumns+` FROM reports ORDER BY date_reported DESC`)
	if err != nil {
		return nil, fmt.Errorf("report repository: list: %w", err)
	}

	reports := make([]models.Report, 0, len(rows))
	for _, row := range rows {
		reports = append(reports, row.toDomain())
	}
	return reports, nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	row, err := common.GetByID[reportRow](ctx, r.db, "reports", id, apperror.ErrReportNotFound)
	if err != nil {
		return nil, err
	}
	report := row.toDomain()
	return &report, nil
}

// IncrementUpvotes увеличивает счётчик ровно на 1 одним UPDATE и выставляет date_updated.
func (r *ReportRepository) IncrementUpvotes(ctx context.Context, id uuid.UUID, at time.Time) (*models.Report, error) {
	var row reportRow
	err := r.db.GetContext(ctx, &row, `
		UPDATE reports SET upvotes = upvotes + 1, date_updated = $2
		WHERE id = $1
		RETURNING `+reportColumns, id, at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("report repository: upvote: %w", err)
	}
	report := row.toDomain()
	return &report, nil
}

// UpdateStatus меняет статус, только если текущий статус равен from.
// Если отчёт есть, но статус уже другой, возвращает ErrInvalidTransition.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.Status, at time.Time) (*models.Report, error) {
	var row reportRow
	err := r.db.GetContext(ctx, &row, `
		UPDATE reports SET status = $3, date_updated = $4
		WHERE id = $1 AND status = $2
		RETURNING `+reportColumns, id, string(from), string(to), at)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, apperror.ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("report repository: update status: %w", err)
	}
	report := row.toDomain()
	return &report, nil
}

func (r *ReportRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM reports`); err != nil {
		return 0, fmt.Errorf("report repository: count: %w", err)
	}
	return n, nil
}

func (r *ReportRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
