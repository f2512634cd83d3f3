package types

import (
	"time"

	"github.com/google/uuid"
)

// Plan tags stored in users.type. Custom plan keys are allowed as well.
const (
	PlanFree    = "free"
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"
	PlanForever = "forever"
	PlanAdmin   = "admin"
)

type UserProfile struct {
	ID           uuid.UUID `json:"_id"`
	Email        string    `json:"email"`
	Name         string    `json:"mName"`
	PasswordHash string    `json:"-"` // Exclude from JSON responses
	Type         string    `json:"type"`
	CreatedAt    time.Time `json:"date"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PlanOrFree returns the user's plan tag, defaulting to free when unset.
func (u *UserProfile) PlanOrFree() string {
	if u == nil || u.Type == "" {
		return PlanFree
	}
	return u.Type
}

type Admin struct {
	Email string `json:"email"`
	Name  string `json:"mName"`
	Role  string `json:"type"` // "main" or "no"
}

const (
	AdminRoleMain = "main"
	AdminRoleSub  = "no"
)

type Contact struct {
	ID        uuid.UUID `json:"_id"`
	Name      string    `json:"fname" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	Phone     string    `json:"phone"`
	Message   string    `json:"msg" validate:"required"`
	CreatedAt time.Time `json:"date"`
}

// DashboardStats aggregates the admin dashboard counters.
type DashboardStats struct {
	Users        int64   `json:"users"`
	Courses      int64   `json:"courses"`
	PaidUsers    int64   `json:"paid"`
	VideoCourses int64   `json:"videoType"`
	TextCourses  int64   `json:"textType"`
	Revenue      float64 `json:"sum"`
	Admins       []Admin `json:"admins,omitempty"`
}

// EmailRequest is the body of the admin add/remove endpoints.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}
