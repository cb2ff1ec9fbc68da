package dto

import "github.com/noah-isme/sales-daily-api/internal/models"

// VisitInput is one customer visit inside a report payload.
type VisitInput struct {
	CustomerID int64  `json:"customerId" validate:"required,gt=0"`
	VisitTime  string `json:"visitTime" validate:"required,datetime=15:04"`
	Content    string `json:"content" validate:"required"`
}

// CreateReportRequest creates a report as draft or submits it directly.
type CreateReportRequest struct {
	ReportDate string       `json:"reportDate" validate:"required,datetime=2006-01-02"`
	Problem    string       `json:"problem"`
	Plan       string       `json:"plan"`
	Visits     []VisitInput `json:"visits" validate:"dive"`
	Submit     bool         `json:"submit"`
}

// UpdateReportRequest replaces the editable content of a report. Submit moves it to submitted in the same write.
type UpdateReportRequest struct {
	Problem string       `json:"problem"`
	Plan    string       `json:"plan"`
	Visits  []VisitInput `json:"visits" validate:"dive"`
	Submit  bool         `json:"submit"`
}

// RejectReportRequest carries the optional reviewer comment.
type RejectReportRequest struct {
	Comment string `json:"comment"`
}

// CreateCommentRequest posts a comment on a report.
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// ReportDetail is the full aggregate: report, visits by time ascending, comments newest first.
type ReportDetail struct {
	models.DailyReport
	Visits   []models.Visit   `json:"visits"`
	Comments []models.Comment `json:"comments"`
}

// ReportQuery mirrors supported listing filters.
type ReportQuery struct {
	StaffID  int64
	Status   []models.ReportStatus
	DateFrom string `validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `validate:"omitempty,datetime=2006-01-02"`
	Page     int
	PageSize int
}

// ExportFormat selects the export renderer.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult is a rendered export ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}
