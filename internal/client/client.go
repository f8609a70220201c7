package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/roadwatch/internal/dto"
	"github.com/ignatzorin/roadwatch/internal/intake"
	"github.com/ignatzorin/roadwatch/internal/models"
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
	"github.com/ignatzorin/roadwatch/internal/reportview"
)

// Client ходит в HTTP API RoadWatch.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет http.Client (например, в тестах).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken задаёт Bearer токен сотрудника.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New создаёт клиента для baseURL вида http://localhost:8080.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken заменяет токен после входа.
func (c *Client) SetToken(token string) {
	c.token = token
}

// CreateReport отправляет отчёт multipart формой. Картинки из data URL уходят файлами.
// Любая ошибка оборачивается в SUBMISSION_FAILURE.
func (c *Client) CreateReport(ctx context.Context, r *models.Report) (*models.Report, error) {
	body, contentType, err := encodeReportForm(r)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeSubmissionFailure, "failed to submit report")
	}

	var created models.Report
	if err := c.do(ctx, http.MethodPost, "/api/reports", contentType, body, &created); err != nil {
		return nil, asCode(err, apperror.ErrCodeSubmissionFailure, "failed to submit report")
	}
	return &created, nil
}

func encodeReportForm(r *models.Report) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	loc, err := json.Marshal(r.Location)
	if err != nil {
		return nil, "", err
	}
	fields := [][2]string{
		{"title", r.Title},
		{"description", r.Description},
		{"severity", string(r.Severity)},
		{"location", string(loc)},
		{"reportedBy", r.ReportedBy},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	for i, img := range r.Images {
		mediaType, data, err := intake.DecodeDataURL(img)
		if err != nil {
			return nil, "", fmt.Errorf("client: изображение %d: %w", i+1, err)
		}
		part, err := mw.CreateFormFile("images", fmt.Sprintf("image-%d%s", i+1, intake.ExtensionFor(mediaType)))
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// ListReports возвращает все отчёты, новые первыми.
func (c *Client) ListReports(ctx context.Context) ([]models.Report, error) {
	return c.ListReportsQuery(ctx, reportview.DefaultQuery())
}

// ListReportsQuery выполняет поиск, фильтрацию и сортировку на сервере.
func (c *Client) ListReportsQuery(ctx context.Context, q reportview.Query) ([]models.Report, error) {
	params := url.Values{}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Status != "" && q.Status != reportview.FilterAll {
		params.Set("status", q.Status)
	}
	if q.Severity != "" && q.Severity != reportview.FilterAll {
		params.Set("severity", q.Severity)
	}
	if q.Sort != "" {
		params.Set("sort", string(q.Sort))
	}

	path := "/api/reports"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var reports []models.Report
	if err := c.do(ctx, http.MethodGet, path, "", nil, &reports); err != nil {
		return nil, asCode(err, apperror.ErrCodeFetchFailure, "failed to load reports")
	}
	return reports, nil
}

// GetReport возвращает отчёт по id.
func (c *Client) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var r models.Report
	if err := c.do(ctx, http.MethodGet, "/api/reports/"+id.String(), "", nil, &r); err != nil {
		return nil, asCode(err, apperror.ErrCodeFetchFailure, "failed to load report")
	}
	return &r, nil
}

// Upvote увеличивает счётчик голосов и возвращает обновлённый отчёт.
func (c *Client) Upvote(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var r models.Report
	if err := c.do(ctx, http.MethodPost, "/api/reports/"+id.String()+"/upvote", "", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListFeatures возвращает статический список возможностей.
func (c *Client) ListFeatures(ctx context.Context) ([]models.Feature, error) {
	var features []models.Feature
	if err := c.do(ctx, http.MethodGet, "/api/features", "", nil, &features); err != nil {
		return nil, asCode(err, apperror.ErrCodeFetchFailure, "failed to load features")
	}
	return features, nil
}

// ListMarkers возвращает маркеры карты.
func (c *Client) ListMarkers(ctx context.Context) ([]models.Marker, error) {
	var markers []models.Marker
	if err := c.do(ctx, http.MethodGet, "/api/markers", "", nil, &markers); err != nil {
		return nil, asCode(err, apperror.ErrCodeFetchFailure, "failed to load markers")
	}
	return markers, nil
}

// Login получает токен сотрудника и запоминает его.
func (c *Client) Login(ctx context.Context, username, password string) (*dto.LoginResponse, error) {
	body, err := json.Marshal(dto.StaffLoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}

	var resp dto.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/staff/login", "application/json", bytes.NewReader(body), &resp); err != nil {
		return nil, err
	}
	c.token = resp.AccessToken
	return &resp, nil
}

// UpdateStatus меняет статус отчёта. Нужен токен сотрудника.
func (c *Client) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Report, error) {
	body, err := json.Marshal(dto.UpdateStatusRequest{Status: string(status)})
	if err != nil {
		return nil, err
	}

	var r models.Report
	if err := c.do(ctx, http.MethodPatch, "/api/reports/"+id.String()+"/status", "application/json", bytes.NewReader(body), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: не удалось разобрать ответ %s %s: %w", method, path, err)
	}
	return nil
}

// decodeError восстанавливает AppError из тела {message, code, fields}.
func decodeError(resp *http.Response) error {
	var body dto.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Message == "" {
		return fmt.Errorf("client: код ответа %d", resp.StatusCode)
	}

	code := apperror.ErrorCode(body.Code)
	if code == "" {
		code = apperror.ErrCodeInternal
	}
	return &apperror.AppError{
		Code:       code,
		Message:    body.Message,
		HTTPStatus: resp.StatusCode,
		Fields:     body.Fields,
	}
}

// asCode оставляет ошибки валидации и отсутствия как есть, остальные оборачивает в code.
func asCode(err error, code apperror.ErrorCode, message string) error {
	if apperror.IsValidation(err) || apperror.IsNotFound(err) {
		return err
	}
	return apperror.Wrap(err, code, message)
}
