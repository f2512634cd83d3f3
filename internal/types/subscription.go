package types

import (
	"time"

	"github.com/google/uuid"
)

// Payment methods recorded on subscriptions.
const (
	MethodStripe       = "stripe"
	MethodPaypal       = "paypal"
	MethodPaystack     = "paystack"
	MethodFlutterwave  = "flutterwave"
	MethodRazorpay     = "razorpay"
	MethodBankTransfer = "banktransfer"
	MethodAdminChange  = "admin-change"
)

type Subscription struct {
	ID             uuid.UUID  `json:"_id"`
	UserID         uuid.UUID  `json:"user"`
	SubscriptionID string     `json:"subscription"`
	SubscriberID   string     `json:"subscriberId"`
	Plan           string     `json:"plan"`
	Method         string     `json:"method"`
	Active         bool       `json:"active"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	CreatedAt      time.Time  `json:"date"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Expired reports whether the subscription ran past its expiry at the given instant.
func (s *Subscription) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !s.ExpiresAt.After(now)
}

// ActivateParams describes the new active subscription a transition creates.
type ActivateParams struct {
	UserID         uuid.UUID
	SubscriptionID string
	SubscriberID   string
	Plan           string
	Method         string
	ExpiresAt      *time.Time
}

// CheckoutRequest is the body sent once a payment provider confirmed a purchase.
type CheckoutRequest struct {
	UserID         uuid.UUID `json:"user" validate:"required"`
	SubscriptionID string    `json:"subscription" validate:"required"`
	SubscriberID   string    `json:"subscriberId"`
	Plan           string    `json:"plan" validate:"required"`
	Method         string    `json:"method" validate:"required"`
}

type CancelRequest struct {
	UserID uuid.UUID `json:"id" validate:"required"`
}

type UpdateUserPlanRequest struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
	Plan   string    `json:"plan" validate:"required"`
}

type ExtendSubscriptionRequest struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
	Days   int       `json:"days" validate:"required,gt=0"`
}

// BankTransfer statuses.
const (
	TransferPending  = "pending"
	TransferApproved = "approved"
	TransferRejected = "rejected"
)

type BankTransfer struct {
	ID          uuid.UUID  `json:"_id"`
	UserID      uuid.UUID  `json:"user"`
	Plan        string     `json:"plan"`
	Amount      float64    `json:"amount"`
	ReceiptPath string     `json:"receipt"`
	FullName    string     `json:"fullName"`
	Email       string     `json:"email"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	Country     string     `json:"country"`
	PostalCode  string     `json:"postalCode"`
	Status      string     `json:"status"`
	SubRowID    *uuid.UUID `json:"-"`
	CreatedAt   time.Time  `json:"date"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type UpdateTransferStatusRequest struct {
	ID     uuid.UUID `json:"id" validate:"required"`
	Status string    `json:"status" validate:"required,oneof=pending approved rejected"`
}

type TransferIDRequest struct {
	ID uuid.UUID `json:"id" validate:"required"`
}

// UserIDRequest is the body of admin actions that target one user.
type UserIDRequest struct {
	UserID uuid.UUID `json:"userId" validate:"required"`
}
