package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/roadwatch/internal/config"
	"github.com/ignatzorin/roadwatch/internal/dto"
	"github.com/ignatzorin/roadwatch/internal/http/handlers"
	"github.com/ignatzorin/roadwatch/internal/models"
	"github.com/ignatzorin/roadwatch/internal/repository"
	"github.com/ignatzorin/roadwatch/internal/service"
	"github.com/ignatzorin/roadwatch/internal/ws"
)

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

type testServer struct {
	engine *gin.Engine
	repo   *repository.MemoryReportRepository
	tokens *service.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{
		Env:             "test",
		AllowedOrigins:  []string{"http://localhost:3000"},
		RateLimitLimit:  1000,
		RateLimitPeriod: time.Minute,
		MaxUploadSizeMB: 1,
		MaxImages:       models.MaxImages,
	}

	repo := repository.NewMemoryReportRepository()
	hub := ws.NewHub()
	go hub.Run(ctx)

	tokens := service.NewTokenManager("router-test-secret", time.Hour)
	hash, err := service.HashPassword("pw")
	require.NoError(t, err)

	reports := service.NewReportService(repo, service.WithPublisher(hub))
	auth := service.NewAuthService(service.StaffCredentials{Username: "staff", PasswordHash: hash}, tokens)

	engine := SetupRouter(cfg, Handlers{
		Reports:  handlers.NewReportHandler(reports, cfg.MaxUploadSizeMB, cfg.MaxImages),
		Features: handlers.NewFeatureHandler(service.NewFeatureService()),
		Staff:    handlers.NewStaffHandler(auth),
		Health:   handlers.NewHealthHandler(repo, config.StoreDriverMemory, hub),
		WS:       handlers.NewWSHandler(hub, cfg.AllowedOrigins),
	}, tokens)

	return &testServer{engine: engine, repo: repo, tokens: tokens}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func multipartReport(t *testing.T, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range files {
		part, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/reports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func validFields() map[string]string {
	return map[string]string{
		"title":       "Pothole on Main",
		"description": "Deep hole near the crosswalk",
		"severity":    "high",
		"location":    `{"lat":40.7128,"lng":-74.006,"address":"Main St"}`,
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) createReport(t *testing.T, title string) models.Report {
	t.Helper()
	fields := validFields()
	fields["title"] = title
	w := s.do(multipartReport(t, fields, nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Report](t, w)
}

func TestCreateReport_Multipart(t *testing.T) {
	s := newTestServer(t)

	w := s.do(multipartReport(t, validFields(), map[string][]byte{"hole.png": pngBytes}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	report := decode[models.Report](t, w)
	assert.NotEqual(t, uuid.Nil, report.ID)
	assert.Equal(t, models.StatusReported, report.Status)
	assert.Equal(t, 0, report.Upvotes)
	assert.Equal(t, models.SeverityHigh, report.Severity)
	assert.Equal(t, "Main St", report.Location.Address)
	require.Len(t, report.Images, 1)
	assert.True(t, strings.HasPrefix(report.Images[0], "data:image/png;base64,"))

	stored, err := s.repo.GetByID(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.Title, stored.Title)
}

func TestCreateReport_JSONMissingTitle(t *testing.T) {
	s := newTestServer(t)

	body := `{"description":"x","location":{"lat":1,"lng":2}}`
	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[dto.ErrorResponse](t, w)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	assert.NotEmpty(t, resp.Message)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "title", resp.Fields[0].Field)
}

func TestCreateReport_RejectsNonImage(t *testing.T) {
	s := newTestServer(t)

	w := s.do(multipartReport(t, validFields(), map[string][]byte{"notes.txt": []byte("plain text")}))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "images", decode[dto.ErrorResponse](t, w).Fields[0].Field)
}

func TestCreateReport_RejectsTooManyImages(t *testing.T) {
	s := newTestServer(t)

	files := map[string][]byte{"a.png": pngBytes, "b.png": pngBytes, "c.png": pngBytes, "d.png": pngBytes}
	w := s.do(multipartReport(t, validFields(), files))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateReport_MissingLocation(t *testing.T) {
	s := newTestServer(t)
	fields := validFields()
	delete(fields, "location")

	w := s.do(multipartReport(t, fields, nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "location", decode[dto.ErrorResponse](t, w).Fields[0].Field)
}

func TestCreateReport_LocationWithoutCoordinates(t *testing.T) {
	s := newTestServer(t)

	for _, raw := range []string{`{"address":"x"}`, `{"lat":40.7}`, `{"lng":-74}`} {
		fields := validFields()
		fields["location"] = raw
		w := s.do(multipartReport(t, fields, nil))
		require.Equal(t, http.StatusBadRequest, w.Code, raw)
		assert.Equal(t, "location", decode[dto.ErrorResponse](t, w).Fields[0].Field, raw)
	}

	body := `{"title":"t","description":"d","location":{"address":"x"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "location", decode[dto.ErrorResponse](t, w).Fields[0].Field)

	count, err := s.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCreateReport_ZeroCoordinatesAccepted(t *testing.T) {
	s := newTestServer(t)
	fields := validFields()
	fields["location"] = `{"lat":0,"lng":0}`

	w := s.do(multipartReport(t, fields, nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	report := decode[models.Report](t, w)
	assert.Equal(t, 0.0, report.Location.Lat)
	assert.Equal(t, 0.0, report.Location.Lng)
}

func TestListReports_SortAndFilter(t *testing.T) {
	s := newTestServer(t)
	a := s.createReport(t, "A pothole")
	b := s.createReport(t, "B crack")

	for i := 0; i < 2; i++ {
		w := s.do(httptest.NewRequest(http.MethodPost, "/api/reports/"+b.ID.String()+"/upvote", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/reports?sort=upvotes", nil))
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Report](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, 2, list[0].Upvotes)
	assert.Equal(t, a.ID, list[1].ID)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/reports?search=POTHOLE", nil))
	require.Equal(t, http.StatusOK, w.Code)
	list = decode[[]models.Report](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)
}

func TestListReports_EmptyIsArray(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/reports?status=resolved", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestListReports_InvalidQuery(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/reports?sort=random&severity=critical", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, decode[dto.ErrorResponse](t, w).Fields, 2)
}

func TestGetReport(t *testing.T) {
	s := newTestServer(t)
	created := s.createReport(t, "Pothole")

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/reports/"+created.ID.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decode[models.Report](t, w).ID)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/reports/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "report not found", decode[dto.ErrorResponse](t, w).Message)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/reports/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpvote_NotFound(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodPost, "/api/reports/"+uuid.NewString()+"/upvote", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func statusRequest(id uuid.UUID, status, token string) *http.Request {
	req := httptest.NewRequest(http.MethodPatch, "/api/reports/"+id.String()+"/status", strings.NewReader(`{"status":"`+status+`"}`))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestUpdateStatus_RequiresStaff(t *testing.T) {
	s := newTestServer(t)
	created := s.createReport(t, "Pothole")

	w := s.do(statusRequest(created.ID, "in-progress", ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	citizen, err := s.tokens.Issue("someone", "citizen")
	require.NoError(t, err)
	w = s.do(statusRequest(created.ID, "in-progress", citizen.Token))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateStatus_Transitions(t *testing.T) {
	s := newTestServer(t)
	created := s.createReport(t, "Pothole")

	login := httptest.NewRequest(http.MethodPost, "/api/staff/login", strings.NewReader(`{"username":"staff","password":"pw"}`))
	login.Header.Set("Content-Type", "application/json")
	w := s.do(login)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode[dto.LoginResponse](t, w).AccessToken

	w = s.do(statusRequest(created.ID, "in-progress", token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Report](t, w)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.NotNil(t, updated.DateUpdated)

	w = s.do(statusRequest(created.ID, "reported", token))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(statusRequest(created.ID, "resolved", token))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStaffLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/staff/login", strings.NewReader(`{"username":"staff","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFeaturesAndMarkers(t *testing.T) {
	s := newTestServer(t)
	created := s.createReport(t, "Pothole")

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/features", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Feature](t, w), 6)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/markers", nil))
	require.Equal(t, http.StatusOK, w.Code)
	markers := decode[[]models.Marker](t, w)
	require.Len(t, markers, 1)
	assert.Equal(t, created.ID.String(), markers[0].ID)
	assert.InDelta(t, 40.7128, markers[0].Lat, 1e-9)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[dto.HealthResponse](t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "memory", resp.Checks["store_driver"])
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/reports", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := s.do(req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/reports", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = s.do(req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
