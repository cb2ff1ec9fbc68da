package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a staff member.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and staff info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	Staff       StaffInfo `json:"staff"`
}

// StaffInfo is the public identity returned after login.
type StaffInfo struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	Role       StaffRole `json:"role"`
	ManagerID  *int64    `json:"managerId,omitempty"`
}

// ChangePasswordRequest payload for changing a password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,nefield=OldPassword"`
}

// JWTClaims represents the JWT payload.
type JWTClaims struct {
	StaffID int64     `json:"sid"`
	Role    StaffRole `json:"role"`
	Email   string    `json:"email"`
	Name    string    `json:"name"`
	jwt.RegisteredClaims
}

// Actor converts token claims into the identity passed to services.
func (c *JWTClaims) Actor() Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{StaffID: c.StaffID, Role: c.Role}
}
