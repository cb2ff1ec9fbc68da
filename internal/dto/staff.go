package dto

import "github.com/noah-isme/sales-daily-api/internal/models"

// CreateStaffRequest registers a new staff member.
type CreateStaffRequest struct {
	Name       string           `json:"name" validate:"required,max=100"`
	Email      string           `json:"email" validate:"required,email,max=255"`
	Password   string           `json:"password" validate:"required,min=8"`
	Department string           `json:"department" validate:"max=100"`
	Role       models.StaffRole `json:"role" validate:"required,oneof=staff manager"`
	ManagerID  *int64           `json:"managerId" validate:"omitempty,gt=0"`
}

// UpdateStaffRequest changes profile, role, or manager assignment.
type UpdateStaffRequest struct {
	Name       string           `json:"name" validate:"required,max=100"`
	Department string           `json:"department" validate:"max=100"`
	Role       models.StaffRole `json:"role" validate:"required,oneof=staff manager"`
	ManagerID  *int64           `json:"managerId" validate:"omitempty,gt=0"`
}
