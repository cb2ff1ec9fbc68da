package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sales-daily-api/internal/models"
)

const customerColumns = `id, name, company_name, phone, email, address, created_at, updated_at`

// CustomerRepository handles persistence for customer master records.
type CustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository constructs a CustomerRepository.
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// FindByID fetches a customer.
func (r *CustomerRepository) FindByID(ctx context.Context, id int64) (*models.Customer, error) {
	const query = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	var customer models.Customer
	if err := r.db.GetContext(ctx, &customer, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return &customer, nil
}

// List returns customers matching the filter together with the total count.
func (r *CustomerRepository) List(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, int, error) {
	var (
		args  []interface{}
		where string
	)
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		where = " WHERE LOWER(name) LIKE $1 OR LOWER(company_name) LIKE $1"
	}
	page, pageSize := normalisePage(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("SELECT %s FROM customers%s ORDER BY name ASC, id ASC LIMIT %d OFFSET %d", customerColumns, where, pageSize, (page-1)*pageSize)
	var customers []models.Customer
	if err := r.db.SelectContext(ctx, &customers, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM customers"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}
	return customers, total, nil
}

// CountExisting returns how many of the given ids exist. Duplicates in ids count once.
func (r *CustomerRepository) CountExisting(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM customers WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return count, nil
}

// Create inserts a new customer.
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	const query = `INSERT INTO customers (name, company_name, phone, email, address, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING id, created_at, updated_at`
	now := time.Now().UTC()
	row := r.db.QueryRowxContext(ctx, query, customer.Name, customer.CompanyName, customer.Phone, customer.Email, customer.Address, now)
	if err := row.Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt); err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

// Update modifies an existing customer.
func (r *CustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	customer.UpdatedAt = time.Now().UTC()
	const query = `UPDATE customers SET name = :name, company_name = :company_name, phone = :phone, email = :email, address = :address, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, customer)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check customer update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
