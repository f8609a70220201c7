package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/roadwatch/internal/composer"
	"github.com/ignatzorin/roadwatch/internal/config"
	"github.com/ignatzorin/roadwatch/internal/http/handlers"
	"github.com/ignatzorin/roadwatch/internal/http/router"
	"github.com/ignatzorin/roadwatch/internal/intake"
	"github.com/ignatzorin/roadwatch/internal/models"
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
	"github.com/ignatzorin/roadwatch/internal/repository"
	"github.com/ignatzorin/roadwatch/internal/reportview"
	"github.com/ignatzorin/roadwatch/internal/service"
	"github.com/ignatzorin/roadwatch/internal/ws"
)

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{
		Env:             "test",
		RateLimitLimit:  1000,
		RateLimitPeriod: time.Minute,
		MaxUploadSizeMB: 1,
		MaxImages:       models.MaxImages,
	}

	repo := repository.NewMemoryReportRepository()
	hub := ws.NewHub()
	go hub.Run(ctx)

	tokens := service.NewTokenManager("client-test-secret", time.Hour)
	hash, err := service.HashPassword("secret")
	require.NoError(t, err)

	reports := service.NewReportService(repo, service.WithPublisher(hub))
	engine := router.SetupRouter(cfg, router.Handlers{
		Reports:  handlers.NewReportHandler(reports, cfg.MaxUploadSizeMB, cfg.MaxImages),
		Features: handlers.NewFeatureHandler(service.NewFeatureService()),
		Staff:    handlers.NewStaffHandler(service.NewAuthService(service.StaffCredentials{Username: "staff", PasswordHash: hash}, tokens)),
		Health:   handlers.NewHealthHandler(repo, config.StoreDriverMemory, hub),
		WS:       handlers.NewWSHandler(hub, nil),
	}, tokens)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

func sampleReport() *models.Report {
	return &models.Report{
		Title:       "Pothole on 5th",
		Description: "Wheel-sized hole",
		Severity:    models.SeverityMedium,
		Location:    models.Location{Lat: 40.71, Lng: -74.0, Address: "5th Ave"},
		Images:      []string{intake.EncodeDataURL("image/png", pngBytes)},
		ReportedBy:  models.AnonymousReporter,
	}
}

func TestClient_CreateAndFetch(t *testing.T) {
	srv := newAPI(t)
	c := New(srv.URL)
	ctx := context.Background()

	created, err := c.CreateReport(ctx, sampleReport())
	require.NoError(t, err)
	assert.Equal(t, models.StatusReported, created.Status)
	require.Len(t, created.Images, 1)
	assert.True(t, strings.HasPrefix(created.Images[0], "data:image/png;base64,"))

	list, err := c.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	got, err := c.GetReport(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "5th Ave", got.Location.Address)

	upvoted, err := c.Upvote(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, upvoted.Upvotes)

	markers, err := c.ListMarkers(ctx)
	require.NoError(t, err)
	require.Len(t, markers, 1)

	features, err := c.ListFeatures(ctx)
	require.NoError(t, err)
	assert.Len(t, features, 6)
}

func TestClient_ListReportsQuery(t *testing.T) {
	srv := newAPI(t)
	c := New(srv.URL)
	ctx := context.Background()

	low := sampleReport()
	low.Severity = models.SeverityLow
	_, err := c.CreateReport(ctx, low)
	require.NoError(t, err)
	_, err = c.CreateReport(ctx, sampleReport())
	require.NoError(t, err)

	q := reportview.DefaultQuery()
	q.Severity = string(models.SeverityLow)
	list, err := c.ListReportsQuery(ctx, q)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.SeverityLow, list[0].Severity)
}

func TestClient_CreateValidationError(t *testing.T) {
	srv := newAPI(t)
	c := New(srv.URL)

	r := sampleReport()
	r.Title = ""
	_, err := c.CreateReport(context.Background(), r)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, "title", apperror.FieldsOf(err)[0].Field)
}

func TestClient_GetNotFound(t *testing.T) {
	srv := newAPI(t)
	c := New(srv.URL)

	_, err := c.GetReport(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestClient_StaffUpdateStatus(t *testing.T) {
	srv := newAPI(t)
	c := New(srv.URL)
	ctx := context.Background()

	created, err := c.CreateReport(ctx, sampleReport())
	require.NoError(t, err)

	_, err = c.UpdateStatus(ctx, created.ID, models.StatusResolved)
	require.Error(t, err)

	_, err = c.Login(ctx, "staff", "secret")
	require.NoError(t, err)

	updated, err := c.UpdateStatus(ctx, created.ID, models.StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, updated.Status)

	_, err = c.UpdateStatus(ctx, created.ID, models.StatusInProgress)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestClient_ServerFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.ListReports(ctx)
	require.Error(t, err)
	assert.True(t, apperror.IsFetchFailure(err))

	_, err = c.CreateReport(ctx, sampleReport())
	require.Error(t, err)
	assert.True(t, apperror.IsSubmissionFailure(err))
}

func TestClient_CreateRejectsBrokenImage(t *testing.T) {
	c := New("http://127.0.0.1:1")

	r := sampleReport()
	r.Images = []string{"not a data url"}
	_, err := c.CreateReport(context.Background(), r)
	require.Error(t, err)
	assert.True(t, apperror.IsSubmissionFailure(err))
}

func TestClient_ComposerSubmit(t *testing.T) {
	srv := newAPI(t)
	c := New(srv.URL)
	ctx := context.Background()

	comp := composer.New(c)
	require.NoError(t, comp.SetLocation(models.Location{Lat: 51.5, Lng: -0.12}))
	require.NoError(t, comp.Next())
	require.NoError(t, comp.AddPhotos(ctx, []intake.File{{Name: "hole.png", MediaType: "image/png", Data: pngBytes}}))
	require.NoError(t, comp.Next())
	comp.SetTitle("Crater")
	comp.SetDescription("Bus-sized")

	report, err := comp.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Crater", report.Title)
	assert.Len(t, report.Images, 1)
	assert.Equal(t, composer.StepLocation, comp.Step())

	var store reportview.Store
	require.NoError(t, store.Load(ctx, c))
	assert.Len(t, store.Reports(), 1)
}
