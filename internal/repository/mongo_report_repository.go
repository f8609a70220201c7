package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ignatzorin/roadwatch/internal/models"
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
)

// ReportsCollection — имя коллекции отчётов.
const ReportsCollection = "reports"

type reportDoc struct {
	ID           string     `bson:"_id"`
	Title        string     `bson:"title"`
	Description  string     `bson:"description"`
	Lat          float64    `bson:"lat"`
	Lng          float64    `bson:"lng"`
	Address      string     `bson:"address,omitempty"`
	Severity     string     `bson:"severity"`
	Status       string     `bson:"status"`
	Images       []string   `bson:"images"`
	ReportedBy   string     `bson:"reported_by"`
	Upvotes      int        `bson:"upvotes"`
	DateReported time.Time  `bson:"date_reported"`
	DateUpdated  *time.Time `bson:"date_updated,omitempty"`
}

func docOf(r *models.Report) reportDoc {
	images := r.Images
	if images == nil {
		images = []string{}
	}
	return reportDoc{
		ID:           r.ID.String(),
		Title:        r.Title,
		Description:  r.Description,
		Lat:          r.Location.Lat,
		Lng:          r.Location.Lng,
		Address:      r.Location.Address,
		Severity:     string(r.Severity),
		Status:       string(r.Status),
		Images:       images,
		ReportedBy:   r.ReportedBy,
		Upvotes:      r.Upvotes,
		DateReported: r.DateReported,
		DateUpdated:  r.DateUpdated,
	}
}

func (d reportDoc) toDomain() (models.Report, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Report{}, fmt.Errorf("mongo report repository: некорректный _id %q: %w", d.ID, err)
	}
	report := models.Report{
		ID:           id,
		Title:        d.Title,
		Description:  d.Description,
		Location:     models.Location{Lat: d.Lat, Lng: d.Lng, Address: d.Address},
		Severity:     models.Severity(d.Severity),
		Status:       models.Status(d.Status),
		Images:       d.Images,
		ReportedBy:   d.ReportedBy,
		Upvotes:      d.Upvotes,
		DateReported: d.DateReported.UTC(),
	}
	if report.Images == nil {
		report.Images = []string{}
	}
	if d.DateUpdated != nil {
		t := d.DateUpdated.UTC()
		report.DateUpdated = &t
	}
	return report, nil
}

// MongoReportRepository хранит отчёты документами в MongoDB.
type MongoReportRepository struct {
	col *mongo.Collection
}

func NewMongoReportRepository(db *mongo.Database) *MongoReportRepository {
	return &MongoReportRepository{col: db.Collection(ReportsCollection)}
}

func (r *MongoReportRepository) Create(ctx context.Context, report *models.Report) error {
	if _, err := r.col.InsertOne(ctx, docOf(report)); err != nil {
		return fmt.Errorf("mongo report repository: create: %w", err)
	}
	return nil
}

func (r *MongoReportRepository) CreateMany(ctx context.Context, reports []models.Report) error {
	if len(reports) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(reports))
	for i := range reports {
		docs = append(docs, docOf(&reports[i]))
	}
	if _, err := r.col.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("mongo report repository: create many: %w", err)
	}
	return nil
}

func (r *MongoReportRepository) List(ctx context.Context) ([]models.Report, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date_reported", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo report repository: list: %w", err)
	}
	defer cur.Close(ctx)

	var docs []reportDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo report repository: decode: %w", err)
	}

	reports := make([]models.Report, 0, len(docs))
	for _, d := range docs {
		report, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (r *MongoReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var d reportDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo report repository: get: %w", err)
	}
	report, err := d.toDomain()
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// IncrementUpvotes использует $inc, поэтому параллельные голоса не теряются.
func (r *MongoReportRepository) IncrementUpvotes(ctx context.Context, id uuid.UUID, at time.Time) (*models.Report, error) {
	return r.findAndUpdate(ctx, bson.M{"_id": id.String()}, upvoteUpdate(at))
}

func upvoteUpdate(at time.Time) bson.M {
	return bson.M{
		"$inc": bson.M{"upvotes": 1},
		"$set": bson.M{"date_updated": at},
	}
}

func (r *MongoReportRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.Status, at time.Time) (*models.Report, error) {
	report, err := r.findAndUpdate(ctx,
		bson.M{"_id": id.String(), "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "date_updated": at}},
	)
	if apperror.IsNotFound(err) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, apperror.ErrInvalidTransition
	}
	return report, err
}

func (r *MongoReportRepository) findAndUpdate(ctx context.Context, filter, update bson.M) (*models.Report, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var d reportDoc
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo report repository: update: %w", err)
	}
	report, err := d.toDomain()
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *MongoReportRepository) Count(ctx context.Context) (int, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("mongo report repository: count: %w", err)
	}
	return int(n), nil
}

func (r *MongoReportRepository) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}
