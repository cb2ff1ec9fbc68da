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

type customerStore interface {
	FindByID(ctx context.Context, id int64) (*models.Customer, error)
	List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, int, error)
	Create(ctx context.Context, customer *models.Customer) error
	Update(ctx context.Context, customer *models.Customer) error
}

// CustomerService manages the shared customer directory.
type CustomerService struct {
	repo      customerStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCustomerService constructs a CustomerService.
func NewCustomerService(repo customerStore, validate *validator.Validate, logger *zap.Logger) *CustomerService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerService{repo: repo, validator: validate, logger: logger}
}

// List returns customers matching the search term.
func (s *CustomerService) List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, *models.Pagination, error) {
	filter.Page, filter.PageSize = normalizePaging(filter.Page, filter.PageSize)
	filter.Search = strings.TrimSpace(filter.Search)
	customers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list customers")
	}
	return customers, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a customer by id.
func (s *CustomerService) Get(ctx context.Context, id int64) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "customer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load customer")
	}
	return customer, nil
}

// Create adds a customer.
func (s *CustomerService) Create(ctx context.Context, req dto.CustomerRequest) (*models.Customer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid customer payload")
	}
	customer := customerFromRequest(req)
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create customer")
	}
	return customer, nil
}

// Update replaces a customer's details.
func (s *CustomerService) Update(ctx context.Context, id int64, req dto.CustomerRequest) (*models.Customer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid customer payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	customer := customerFromRequest(req)
	customer.ID = id
	customer.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, customer); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "customer not found")
		}
		s.logger.Error("failed to update customer", zap.Int64("customer_id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update customer")
	}
	return customer, nil
}

func customerFromRequest(req dto.CustomerRequest) *models.Customer {
	return &models.Customer{
		Name:        strings.TrimSpace(req.Name),
		CompanyName: strings.TrimSpace(req.CompanyName),
		Phone:       strings.TrimSpace(req.Phone),
		Email:       strings.TrimSpace(req.Email),
		Address:     strings.TrimSpace(req.Address),
	}
}
