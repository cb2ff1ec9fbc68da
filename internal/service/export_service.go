package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sales-daily-api/internal/dto"
	"github.com/noah-isme/sales-daily-api/internal/models"
	appErrors "github.com/noah-isme/sales-daily-api/pkg/errors"
	"github.com/noah-isme/sales-daily-api/pkg/export"
)

const (
	exportPageSize = 100
	exportMaxRows  = 5000
)

var exportHeaders = []string{"Date", "Staff", "Status", "Visits", "Problem", "Plan", "Submitted At", "Approved At"}

type visibleReportLister interface {
	List(ctx context.Context, actor models.Actor, query dto.ReportQuery) ([]models.DailyReport, *models.Pagination, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders the reports an actor can see as CSV or PDF.
type ExportService struct {
	reports visibleReportLister
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(reports visibleReportLister, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter().WithBOM()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{reports: reports, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Export renders every report matching query within the actor's visibility scope.
func (s *ExportService) Export(ctx context.Context, actor models.Actor, query dto.ReportQuery, format dto.ExportFormat) (*dto.ExportResult, error) {
	if format != dto.ExportFormatCSV && format != dto.ExportFormatPDF {
		return nil, appErrors.Validation("invalid export request", map[string]string{"format": "must be one of: csv pdf"})
	}

	reports, err := s.collect(ctx, actor, query)
	if err != nil {
		return nil, err
	}
	dataset := buildReportDataset(reports)

	stamp := s.now().UTC().Format("20060102-150405")
	result := &dto.ExportResult{Filename: fmt.Sprintf("daily-reports-%s.%s", stamp, format)}
	switch format {
	case dto.ExportFormatCSV:
		result.ContentType = "text/csv; charset=utf-8"
		result.Body, err = s.csv.Render(dataset)
	case dto.ExportFormatPDF:
		result.ContentType = "application/pdf"
		result.Body, err = s.pdf.Render(dataset, exportTitle(query))
	}
	if err != nil {
		s.logger.Error("failed to render export", zap.String("format", string(format)), zap.Int64("staff_id", actor.StaffID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to render export")
	}
	return result, nil
}

func (s *ExportService) collect(ctx context.Context, actor models.Actor, query dto.ReportQuery) ([]models.DailyReport, error) {
	query.Page = 1
	query.PageSize = exportPageSize
	var all []models.DailyReport
	for {
		page, pagination, err := s.reports.List(ctx, actor, query)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < exportPageSize || len(all) >= pagination.TotalCount {
			break
		}
		if len(all) >= exportMaxRows {
			return nil, appErrors.Validation("export too large", map[string]string{"dateFrom": fmt.Sprintf("narrow the range to at most %d reports", exportMaxRows)})
		}
		query.Page++
	}
	return all, nil
}

func buildReportDataset(reports []models.DailyReport) export.Dataset {
	rows := make([]map[string]string, 0, len(reports))
	for _, report := range reports {
		rows = append(rows, map[string]string{
			"Date":         report.ReportDate,
			"Staff":        report.OwnerName,
			"Status":       string(report.Status),
			"Visits":       strconv.Itoa(report.VisitCount),
			"Problem":      report.Problem,
			"Plan":         report.Plan,
			"Submitted At": formatTimestamp(report.SubmittedAt),
			"Approved At":  formatTimestamp(report.ApprovedAt),
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}

func exportTitle(query dto.ReportQuery) string {
	switch {
	case query.DateFrom != "" && query.DateTo != "":
		return fmt.Sprintf("Daily Reports %s to %s", query.DateFrom, query.DateTo)
	case query.DateFrom != "":
		return fmt.Sprintf("Daily Reports from %s", query.DateFrom)
	case query.DateTo != "":
		return fmt.Sprintf("Daily Reports until %s", query.DateTo)
	}
	return "Daily Reports"
}

func formatTimestamp(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.UTC().Format("2006-01-02 15:04")
}
