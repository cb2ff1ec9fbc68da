package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sales-daily-api/internal/dto"
	"github.com/noah-isme/sales-daily-api/internal/models"
	appErrors "github.com/noah-isme/sales-daily-api/pkg/errors"
	"github.com/noah-isme/sales-daily-api/pkg/response"
)

type reportService interface {
	Create(ctx context.Context, actor models.Actor, req dto.CreateReportRequest) (*dto.ReportDetail, error)
	Get(ctx context.Context, actor models.Actor, id int64) (*dto.ReportDetail, error)
	List(ctx context.Context, actor models.Actor, query dto.ReportQuery) ([]models.DailyReport, *models.Pagination, error)
	PendingApprovals(ctx context.Context, actor models.Actor, page, pageSize int) ([]models.DailyReport, *models.Pagination, error)
	Update(ctx context.Context, actor models.Actor, id int64, req dto.UpdateReportRequest) (*dto.ReportDetail, error)
	Submit(ctx context.Context, actor models.Actor, id int64) (*dto.ReportDetail, error)
	Approve(ctx context.Context, actor models.Actor, id int64) (*dto.ReportDetail, error)
	Reject(ctx context.Context, actor models.Actor, id int64, req dto.RejectReportRequest) (*dto.ReportDetail, error)
	Delete(ctx context.Context, actor models.Actor, id int64) error
}

type commentService interface {
	Post(ctx context.Context, actor models.Actor, reportID int64, req dto.CreateCommentRequest) (*models.Comment, error)
}

type reportExporter interface {
	Export(ctx context.Context, actor models.Actor, query dto.ReportQuery, format dto.ExportFormat) (*dto.ExportResult, error)
}

// ReportHandler exposes daily report endpoints.
type ReportHandler struct {
	reports  reportService
	comments commentService
	exporter reportExporter
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService, comments commentService, exporter reportExporter) *ReportHandler {
	return &ReportHandler{reports: reports, comments: comments, exporter: exporter}
}

// List godoc
// @Summary List daily reports
// @Description Lists reports owned by the caller and, for managers, their direct subordinates
// @Tags Reports
// @Produce json
// @Param staffId query int false "Owner filter"
// @Param status query string false "Comma separated statuses"
// @Param dateFrom query string false "YYYY-MM-DD"
// @Param dateTo query string false "YYYY-MM-DD"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	query, err := reportQueryFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	reports, pagination, err := h.reports.List(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, pagination)
}

// Pending godoc
// @Summary Pending approvals
// @Description Submitted reports of the caller's direct subordinates
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/pending [get]
func (h *ReportHandler) Pending(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, pageSize := pageParams(c)
	reports, pagination, err := h.reports.PendingApprovals(c.Request.Context(), actor, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, pagination)
}

// Create godoc
// @Summary Create daily report
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.CreateReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid report payload"))
		return
	}

	report, err := h.reports.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Get godoc
// @Summary Get daily report
// @Description Report with visits (time ascending) and comments (newest first)
// @Tags Reports
// @Produce json
// @Param id path int true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	report, err := h.reports.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Update godoc
// @Summary Replace report content
// @Description Replaces problem, plan and visits of a draft or rejected report; submit=true also submits it
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path int true "Report ID"
// @Param payload body dto.UpdateReportRequest true "Report content"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id} [put]
func (h *ReportHandler) Update(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req dto.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid report payload"))
		return
	}

	report, err := h.reports.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Delete godoc
// @Summary Delete draft report
// @Tags Reports
// @Param id path int true "Report ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /reports/{id} [delete]
func (h *ReportHandler) Delete(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	if err := h.reports.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submit godoc
// @Summary Submit report
// @Tags Reports
// @Produce json
// @Param id path int true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /reports/{id}/submit [post]
func (h *ReportHandler) Submit(c *gin.Context) {
	h.transition(c, h.reports.Submit)
}

// Approve godoc
// @Summary Approve report
// @Tags Reports
// @Produce json
// @Param id path int true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id}/approve [post]
func (h *ReportHandler) Approve(c *gin.Context) {
	h.transition(c, h.reports.Approve)
}

// Reject godoc
// @Summary Reject report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path int true "Report ID"
// @Param payload body dto.RejectReportRequest false "Optional comment"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports/{id}/reject [post]
func (h *ReportHandler) Reject(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req dto.RejectReportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, bindError(err, "invalid rejection payload"))
		return
	}

	report, err := h.reports.Reject(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Comment godoc
// @Summary Comment on report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path int true "Report ID"
// @Param payload body dto.CreateCommentRequest true "Comment"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/{id}/comments [post]
func (h *ReportHandler) Comment(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid comment payload"))
		return
	}

	comment, err := h.comments.Post(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// Export godoc
// @Summary Export reports
// @Description Downloads the reports visible to the caller as CSV or PDF
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param dateFrom query string false "YYYY-MM-DD"
// @Param dateTo query string false "YYYY-MM-DD"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	query, err := reportQueryFrom(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := dto.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(dto.ExportFormatCSV))))

	result, err := h.exporter.Export(c.Request.Context(), actor, query, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}

func (h *ReportHandler) transition(c *gin.Context, apply func(ctx context.Context, actor models.Actor, id int64) (*dto.ReportDetail, error)) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	report, err := apply(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

func (h *ReportHandler) actorAndID(c *gin.Context) (models.Actor, int64, bool) {
	actor, err := actorFromContext(c)
	if err != nil {
		response.Error(c, err)
		return models.Actor{}, 0, false
	}
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return models.Actor{}, 0, false
	}
	return actor, id, true
}

func reportQueryFrom(c *gin.Context) (dto.ReportQuery, error) {
	var query dto.ReportQuery
	if raw := c.Query("staffId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return query, appErrors.Validation("invalid report query", map[string]string{"staffId": "must be a positive integer"})
		}
		query.StaffID = id
	}
	for _, raw := range c.QueryArray("status") {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				query.Status = append(query.Status, models.ReportStatus(strings.ToLower(part)))
			}
		}
	}
	query.DateFrom = c.Query("dateFrom")
	query.DateTo = c.Query("dateTo")
	query.Page, query.PageSize = pageParams(c)
	return query, nil
}
