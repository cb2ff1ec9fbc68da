package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sales-daily-api/internal/dto"
	"github.com/noah-isme/sales-daily-api/internal/models"
	appErrors "github.com/noah-isme/sales-daily-api/pkg/errors"
)

type commentStore interface {
	FindByID(ctx context.Context, id int64) (*models.DailyReport, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
}

// CommentService appends comments to reports the actor can read.
type CommentService struct {
	repo      commentStore
	gate      *AccessGate
	maxLength int
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommentService constructs a CommentService.
func NewCommentService(repo commentStore, gate *AccessGate, maxLength int, validate *validator.Validate, logger *zap.Logger) *CommentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{repo: repo, gate: gate, maxLength: maxLength, validator: validate, logger: logger}
}

// Post appends a comment authored by the actor.
func (s *CommentService) Post(ctx context.Context, actor models.Actor, reportID int64, req dto.CreateCommentRequest) (*models.Comment, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid comment payload")
	}
	check := lengthCheck{}
	check.max("content", req.Content, s.maxLength)
	if err := check.err("invalid comment payload"); err != nil {
		return nil, err
	}

	report, err := s.repo.FindByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		s.logger.Error("failed to load report", zap.Int64("report_id", reportID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load report")
	}
	if err := s.gate.Authorize(actor, report, ActionComment); err != nil {
		return nil, err
	}

	comment := &models.Comment{DailyReportID: reportID, StaffID: actor.StaffID, Content: req.Content}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		s.logger.Error("failed to create comment", zap.Int64("report_id", reportID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create comment")
	}
	return comment, nil
}
