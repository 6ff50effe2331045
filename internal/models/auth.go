package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating an admin.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and admin info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	Admin       AdminInfo `json:"admin"`
	IssuedAt    time.Time `json:"issued_at"`
}

// AdminInfo describes the authenticated admin in responses.
type AdminInfo struct {
	ID       int64     `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     AdminRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens. Email doubles as
// the owner-scoping key threaded through every store query.
type JWTClaims struct {
	AdminID int64     `json:"admin_id"`
	Email   string    `json:"email"`
	Role    AdminRole `json:"role"`
	jwt.RegisteredClaims
}
