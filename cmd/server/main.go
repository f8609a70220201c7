package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/roadwatch/internal/config"
	"github.com/ignatzorin/roadwatch/internal/db"
	"github.com/ignatzorin/roadwatch/internal/goroutine"
	httpHandlers "github.com/ignatzorin/roadwatch/internal/http/handlers"
	httpRouter "github.com/ignatzorin/roadwatch/internal/http/router"
	"github.com/ignatzorin/roadwatch/internal/logger"
	"github.com/ignatzorin/roadwatch/internal/repository"
	"github.com/ignatzorin/roadwatch/internal/service"
	"github.com/ignatzorin/roadwatch/internal/ws"
)

// reportStore — хранилище вместе с Ping для /health.
type reportStore interface {
	service.ReportStore
	httpHandlers.Pinger
}

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.Env)
	log := logger.Component("main")

	store, closer, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("ошибка подключения к хранилищу %s: %v", cfg.StoreDriver, err)
	}
	defer safeClose(closer)

	if cfg.SeedSampleReports > 0 {
		n, err := service.NewSeedService(store).SeedIfEmpty(ctx, cfg.SeedSampleReports, time.Now().UnixNano())
		if err != nil {
			log.WithError(err).Warn("не удалось заполнить хранилище примерами")
		} else if n > 0 {
			log.WithField("count", n).Info("хранилище заполнено примерами отчётов")
		}
	}

	// Вебсокеты.
	hub := ws.NewHub()
	goroutine.SafeGoWithContext(ctx, "ws-hub", hub.Run)

	cache := service.NewCacheService(time.Minute)
	defer cache.Close()

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	if cfg.StaffPasswordHash == "" {
		log.Warn("STAFF_PASSWORD_HASH не задан, вход сотрудников отключён")
	}

	// Сервисы.
	reportService := service.NewReportService(store,
		service.WithPublisher(hub),
		service.WithListCache(cache, cfg.ListCacheTTL),
		service.WithMaxImages(cfg.MaxImages),
	)
	authService := service.NewAuthService(service.StaffCredentials{
		Username:     cfg.StaffUsername,
		PasswordHash: cfg.StaffPasswordHash,
	}, tokenManager)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Reports:  httpHandlers.NewReportHandler(reportService, cfg.MaxUploadSizeMB, cfg.MaxImages),
		Features: httpHandlers.NewFeatureHandler(service.NewFeatureService()),
		Staff:    httpHandlers.NewStaffHandler(authService),
		Health:   httpHandlers.NewHealthHandler(store, cfg.StoreDriver, hub),
		WS:       httpHandlers.NewWSHandler(hub, cfg.AllowedOrigins),
	}, tokenManager)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("ошибка остановки http сервера")
		}
	}()

	log.WithFields(logrus.Fields{
		"port":   cfg.HTTPPort,
		"store":  cfg.StoreDriver,
		"env":    cfg.Env,
		"images": cfg.MaxImages,
	}).Info("HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("сервер завершился с ошибкой: %v", err)
	}
}

// openStore выбирает реализацию хранилища по STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config) (reportStore, io.Closer, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		conn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(ctx, conn, cfg.MigrationsPath); err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		return repository.NewReportRepository(conn), conn, nil

	case config.StoreDriverMongo:
		client, database, err := db.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		if err := db.EnsureReportIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return repository.NewMongoReportRepository(database), mongoCloser{client: client}, nil

	default:
		return repository.NewMemoryReportRepository(), nil, nil
	}
}

type mongoCloser struct {
	client interface {
		Disconnect(ctx context.Context) error
	}
}

func (m mongoCloser) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// safeClose закрывает соединение с хранилищем.
func safeClose(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logger.Log.WithError(err).Error("main: ошибка закрытия хранилища")
	}
}
