package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sales-daily-api/internal/dto"
	"github.com/noah-isme/sales-daily-api/internal/models"
	appErrors "github.com/noah-isme/sales-daily-api/pkg/errors"
)

type reportListerStub struct {
	reports []models.DailyReport
	total   int
	pages   []int
	err     error
}

func (s *reportListerStub) List(ctx context.Context, actor models.Actor, query dto.ReportQuery) ([]models.DailyReport, *models.Pagination, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	s.pages = append(s.pages, query.Page)
	total := s.total
	if total == 0 {
		total = len(s.reports)
	}
	start := (query.Page - 1) * query.PageSize
	if start >= total {
		return nil, &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: total}, nil
	}
	end := start + query.PageSize
	if end > total {
		end = total
	}
	page := make([]models.DailyReport, 0, end-start)
	for i := start; i < end; i++ {
		page = append(page, s.reports[i%len(s.reports)])
	}
	return page, &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: total}, nil
}

func sampleReports(n int) []models.DailyReport {
	submitted := time.Date(2024, 1, 10, 17, 30, 0, 0, time.UTC)
	reports := make([]models.DailyReport, 0, n)
	for i := 0; i < n; i++ {
		reports = append(reports, models.DailyReport{
			ID:          int64(i + 1),
			StaffID:     2,
			OwnerName:   "Budi",
			ReportDate:  fmt.Sprintf("2024-01-%02d", i%28+1),
			Problem:     "stock delay",
			Plan:        "call supplier",
			Status:      models.ReportStatusSubmitted,
			SubmittedAt: &submitted,
			VisitCount:  2,
		})
	}
	return reports
}

func TestExportServiceCSVWalksAllPages(t *testing.T) {
	lister := &reportListerStub{reports: sampleReports(150)}
	svc := NewExportService(lister, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC) }

	result, err := svc.Export(context.Background(), ownerTwo, dto.ReportQuery{}, dto.ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, lister.pages)
	assert.Equal(t, "daily-reports-20240201-080000.csv", result.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", result.ContentType)
	require.True(t, bytes.HasPrefix(result.Body, []byte("\xEF\xBB\xBF")))

	lines := strings.Split(strings.TrimSpace(string(result.Body[3:])), "\n")
	assert.Len(t, lines, 151)
	assert.Equal(t, "Date,Staff,Status,Visits,Problem,Plan,Submitted At,Approved At", lines[0])
	assert.Equal(t, "2024-01-01,Budi,submitted,2,stock delay,call supplier,2024-01-10 17:30,", lines[1])
}

func TestExportServicePDF(t *testing.T) {
	svc := NewExportService(&reportListerStub{reports: sampleReports(3)}, nil, nil, nil)

	result, err := svc.Export(context.Background(), managerOne, dto.ReportQuery{DateFrom: "2024-01-01", DateTo: "2024-01-31"}, dto.ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	assert.True(t, bytes.HasPrefix(result.Body, []byte("%PDF")))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(&reportListerStub{}, nil, nil, nil)
	_, err := svc.Export(context.Background(), ownerTwo, dto.ReportQuery{}, dto.ExportFormat("xlsx"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestExportServiceCapsRows(t *testing.T) {
	lister := &reportListerStub{reports: sampleReports(10), total: exportMaxRows + 1}
	svc := NewExportService(lister, nil, nil, nil)

	_, err := svc.Export(context.Background(), managerOne, dto.ReportQuery{}, dto.ExportFormatCSV)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Len(t, lister.pages, exportMaxRows/exportPageSize)
}

func TestExportServicePropagatesScopeErrors(t *testing.T) {
	svc := NewExportService(&reportListerStub{err: appErrors.Clone(appErrors.ErrForbidden, "nope")}, nil, nil, nil)
	_, err := svc.Export(context.Background(), managerOne, dto.ReportQuery{StaffID: 9}, dto.ExportFormatCSV)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestExportTitle(t *testing.T) {
	assert.Equal(t, "Daily Reports", exportTitle(dto.ReportQuery{}))
	assert.Equal(t, "Daily Reports from 2024-01-01", exportTitle(dto.ReportQuery{DateFrom: "2024-01-01"}))
	assert.Equal(t, "Daily Reports until 2024-01-31", exportTitle(dto.ReportQuery{DateTo: "2024-01-31"}))
}
