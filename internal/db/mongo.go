package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ignatzorin/roadwatch/internal/logger"
)

// NewMongo подключается к MongoDB, проверяет соединение и создаёт индексы коллекции отчётов.
func NewMongo(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	start := time.Now()

	dctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(dctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo: не удалось подключиться: %w", err)
	}
	if err := client.Ping(dctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo: ping: %w", err)
	}

	database := client.Database(dbName)
	if err := EnsureReportIndexes(ctx, database); err != nil {
		logger.Log.WithError(err).Warn("mongo: не все индексы созданы")
	}

	logger.Log.WithFields(map[string]interface{}{
		"uri":      redactURI(uri),
		"db":       dbName,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	}).Info("mongo: подключение установлено")

	return client, database, nil
}

// EnsureReportIndexes создаёт индексы по дате, статусу, серьёзности и координатам.
func EnsureReportIndexes(ctx context.Context, database *mongo.Database) error {
	ictx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	col := database.Collection("reports")
	indexes := []struct {
		name string
		keys bson.D
	}{
		{"date_reported", bson.D{{Key: "date_reported", Value: -1}}},
		{"status", bson.D{{Key: "status", Value: 1}}},
		{"severity", bson.D{{Key: "severity", Value: 1}}},
		{"lat,lng", bson.D{{Key: "lat", Value: 1}, {Key: "lng", Value: 1}}},
	}

	var errs []string
	for _, idx := range indexes {
		if _, err := col.Indexes().CreateOne(ictx, mongo.IndexModel{Keys: idx.keys}); err != nil {
			errs = append(errs, idx.name+": "+err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func redactURI(raw string) string {
	if raw == "" || !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("****", "****")
	return u.String()
}
