package models

import "time"

// Customer is a company or person visited by sales staff.
type Customer struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	CompanyName string    `db:"company_name" json:"companyName"`
	Phone       string    `db:"phone" json:"phone"`
	Email       string    `db:"email" json:"email"`
	Address     string    `db:"address" json:"address"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// CustomerFilter constrains customer listing.
type CustomerFilter struct {
	Search   string
	Page     int
	PageSize int
}
