package types

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Claims represents the custom claims included in the JWT access token.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"eml"`
	Role   string `json:"rol"`
	Plan   string `json:"pln,omitempty"`
	jwt.RegisteredClaims
}

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"mName" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SocialLoginRequest is the body of POST /social, sent after a client-side provider sign in.
type SocialLoginRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
}

// AuthResponse is returned by every successful sign in path.
type AuthResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *UserProfile `json:"userData"`
	Token   string       `json:"token"`
}

// Actor is the authenticated caller of an operation on user owned data.
type Actor struct {
	UserID uuid.UUID
	Admin  bool
}

// CanAccess reports whether the actor may read or write data owned by owner.
func (a Actor) CanAccess(owner uuid.UUID) bool {
	return a.Admin || a.UserID == owner
}
