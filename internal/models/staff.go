package models

import "time"

// StaffRole is the closed set of roles a staff member can hold.
type StaffRole string

const (
	RoleStaff   StaffRole = "staff"
	RoleManager StaffRole = "manager"
)

// Valid reports whether the role is one of the known roles.
func (r StaffRole) Valid() bool {
	switch r {
	case RoleStaff, RoleManager:
		return true
	}
	return false
}

// Staff is a member of the sales organisation. ManagerID references a staff row with role manager.
type Staff struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Department   string    `db:"department" json:"department"`
	Role         StaffRole `db:"role" json:"role"`
	ManagerID    *int64    `db:"manager_id" json:"managerId,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// IsManager reports whether the staff member holds the manager role.
func (s *Staff) IsManager() bool {
	return s != nil && s.Role == RoleManager
}

// StaffFilter captures filtering criteria for listing staff.
// IDs scopes the result; ScopeManagerID re-checks the hierarchy in SQL.
type StaffFilter struct {
	IDs            []int64
	ScopeManagerID int64
	Department     string
	Role           *StaffRole
	Search         string
	Page           int
	PageSize       int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Actor is the already-authenticated identity performing an operation.
type Actor struct {
	StaffID int64
	Role    StaffRole
}

// IsManager reports whether the actor holds the manager role.
func (a Actor) IsManager() bool {
	return a.Role == RoleManager
}
