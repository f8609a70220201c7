package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/roadwatch/internal/dto"
	"github.com/ignatzorin/roadwatch/internal/http/handlers/common"
	"github.com/ignatzorin/roadwatch/internal/models"
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
	"github.com/ignatzorin/roadwatch/internal/reportview"
	"github.com/ignatzorin/roadwatch/internal/service"
)

// ReportHandler обслуживает /api/reports и /api/markers.
type ReportHandler struct {
	service        *service.ReportService
	maxUploadBytes int64
	maxImages      int
}

func NewReportHandler(svc *service.ReportService, maxUploadMB int64, maxImages int) *ReportHandler {
	return &ReportHandler{
		service:        svc,
		maxUploadBytes: maxUploadMB << 20,
		maxImages:      maxImages,
	}
}

// Create обрабатывает POST /api/reports.
// Принимает multipart (поля title, description, severity, location как JSON, файлы images)
// или JSON с images в виде data URL.
func (h *ReportHandler) Create(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes*int64(h.maxImages+1))
	}

	var (
		in  service.CreateReportInput
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		in, err = h.fromMultipart(c)
	} else {
		in, err = h.fromJSON(c)
	}
	if err != nil {
		common.RespondError(c, err)
		return
	}

	report, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondCreated(c, report)
}

func (h *ReportHandler) fromMultipart(c *gin.Context) (service.CreateReportInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return service.CreateReportInput{}, apperror.Validation(apperror.Field("images", "request is too large"))
		}
		return service.CreateReportInput{}, apperror.Wrap(err, apperror.ErrCodeBadRequest, "invalid multipart form")
	}

	in := service.CreateReportInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Severity:    c.PostForm("severity"),
		ReportedBy:  c.PostForm("reportedBy"),
	}

	if raw := c.PostForm("location"); raw != "" {
		var loc dto.LocationRequest
		if err := json.Unmarshal([]byte(raw), &loc); err != nil {
			return in, apperror.Validation(apperror.Field("location", "location must be a JSON object with lat and lng"))
		}
		if in.Location, err = loc.ToModel(); err != nil {
			return in, err
		}
	}

	files := form.File["images"]
	if len(files) > h.maxImages {
		return in, apperror.Validation(apperror.Field("images", fmt.Sprintf("at most %d images are allowed", h.maxImages)))
	}
	for _, fh := range files {
		img, err := imageFromPart(fh, h.maxUploadBytes)
		if err != nil {
			return in, err
		}
		in.Images = append(in.Images, img)
	}
	return in, nil
}

func (h *ReportHandler) fromJSON(c *gin.Context) (service.CreateReportInput, error) {
	var req dto.CreateReportRequest
	err := common.BindJSON(c, &req)
	if err != nil {
		return service.CreateReportInput{}, err
	}

	in := service.CreateReportInput{
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
		ReportedBy:  req.ReportedBy,
	}
	if in.Location, err = req.Location.ToModel(); err != nil {
		return in, err
	}
	if len(req.Images) > h.maxImages {
		return in, apperror.Validation(apperror.Field("images", fmt.Sprintf("at most %d images are allowed", h.maxImages)))
	}
	for _, raw := range req.Images {
		img, err := imageFromDataURL(raw)
		if err != nil {
			return in, err
		}
		in.Images = append(in.Images, img)
	}
	return in, nil
}

// List обрабатывает GET /api/reports?search=&status=&severity=&sort=.
func (h *ReportHandler) List(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	reports, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}
	common.RespondJSON(c, http.StatusOK, reports)
}

func parseQuery(c *gin.Context) (reportview.Query, error) {
	q := reportview.DefaultQuery()
	q.Search = c.Query("search")

	var fields []apperror.FieldError
	if v := strings.TrimSpace(c.Query("status")); v != "" && v != reportview.FilterAll {
		if !models.Status(v).IsValid() {
			fields = append(fields, apperror.Field("status", "status must be one of all, reported, in-progress, resolved"))
		}
		q.Status = v
	}
	if v := strings.TrimSpace(c.Query("severity")); v != "" && v != reportview.FilterAll {
		if !models.Severity(v).IsValid() {
			fields = append(fields, apperror.Field("severity", "severity must be one of all, low, medium, high"))
		}
		q.Severity = v
	}
	sortKey, err := reportview.ParseSortKey(c.Query("sort"))
	if err != nil {
		fields = append(fields, apperror.Field("sort", "sort must be one of newest, oldest, upvotes, severity"))
	}
	q.Sort = sortKey

	if len(fields) > 0 {
		return q, apperror.Validation(fields...)
	}
	return q, nil
}

// Get обрабатывает GET /api/reports/:id.
func (h *ReportHandler) Get(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, err)
		return
	}

	report, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, report)
}

// Upvote обрабатывает POST /api/reports/:id/upvote.
func (h *ReportHandler) Upvote(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, err)
		return
	}

	report, err := h.service.Upvote(c.Request.Context(), id)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, report)
}

// UpdateStatus обрабатывает PATCH /api/reports/:id/status (только сотрудники).
func (h *ReportHandler) UpdateStatus(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var req dto.UpdateStatusRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	actor, err := common.CurrentSubject(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	report, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status, actor)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, report)
}

// Markers обрабатывает GET /api/markers.
func (h *ReportHandler) Markers(c *gin.Context) {
	markers, err := h.service.Markers(c.Request.Context())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, markers)
}
