package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sales-daily-api/internal/dto"
	"github.com/noah-isme/sales-daily-api/internal/models"
	appErrors "github.com/noah-isme/sales-daily-api/pkg/errors"
)

type customerStoreStub struct {
	customers  map[int64]*models.Customer
	listFilter models.CustomerFilter
}

func (s *customerStoreStub) FindByID(ctx context.Context, id int64) (*models.Customer, error) {
	customer, ok := s.customers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *customer
	return &copy, nil
}

func (s *customerStoreStub) List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, int, error) {
	s.listFilter = filter
	result := make([]models.Customer, 0, len(s.customers))
	for _, customer := range s.customers {
		result = append(result, *customer)
	}
	return result, len(result), nil
}

func (s *customerStoreStub) Create(ctx context.Context, customer *models.Customer) error {
	customer.ID = int64(len(s.customers) + 1)
	copy := *customer
	s.customers[customer.ID] = &copy
	return nil
}

func (s *customerStoreStub) Update(ctx context.Context, customer *models.Customer) error {
	if _, ok := s.customers[customer.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *customer
	s.customers[customer.ID] = &copy
	return nil
}

func TestCustomerServiceLifecycle(t *testing.T) {
	store := &customerStoreStub{customers: make(map[int64]*models.Customer)}
	svc := NewCustomerService(store, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, dto.CustomerRequest{Name: " PT Maju ", CompanyName: "Maju Group", Email: "sales@maju.co.id"})
	require.NoError(t, err)
	assert.Equal(t, "PT Maju", created.Name)

	updated, err := svc.Update(ctx, created.ID, dto.CustomerRequest{Name: "PT Maju Jaya", Phone: "0812"})
	require.NoError(t, err)
	assert.Equal(t, "0812", updated.Phone)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "PT Maju Jaya", fetched.Name)

	customers, pagination, err := svc.List(ctx, models.CustomerFilter{Search: "  maju ", PageSize: 1000})
	require.NoError(t, err)
	assert.Len(t, customers, 1)
	assert.Equal(t, "maju", store.listFilter.Search)
	assert.Equal(t, 20, pagination.PageSize)

	_, err = svc.Get(ctx, 99)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = svc.Update(ctx, 99, dto.CustomerRequest{Name: "Ghost"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Create(ctx, dto.CustomerRequest{Email: "bad"})
	require.Error(t, err)
	details := appErrors.FromError(err).Details
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "email")
}
