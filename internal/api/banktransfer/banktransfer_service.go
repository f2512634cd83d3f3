package banktransfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ai-course-generator/app/observability/metrics"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

// Activations derives the subscription a transfer activates.
type Activations interface {
	ActivationFor(ctx context.Context, userID uuid.UUID, plan, method, externalID string) (types.ActivateParams, error)
}

// Receipts persists uploaded receipt files.
type Receipts interface {
	Save(userID uuid.UUID, filename string, src io.Reader) (string, error)
	Remove(rel string) error
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Submit(ctx context.Context, actor types.Actor, t types.BankTransfer, filename string, receipt io.Reader) (*types.BankTransfer, error)
	List(ctx context.Context, status string) ([]types.BankTransfer, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*types.BankTransfer, error)
}

type ServiceImpl struct {
	logger      *slog.Logger
	repo        Repository
	activations Activations
	receipts    Receipts
}

func NewServiceImpl(repo Repository, activations Activations, receipts Receipts, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:      logger,
		repo:        repo,
		activations: activations,
		receipts:    receipts,
	}
}

// Submit stores the receipt and records a pending transfer for review.
func (s *ServiceImpl) Submit(ctx context.Context, actor types.Actor, t types.BankTransfer, filename string, receipt io.Reader) (*types.BankTransfer, error) {
	ctx, span := otel.Tracer("BankTransferService").Start(ctx, "Submit", trace.WithAttributes(
		attribute.String("user.id", actor.UserID.String()),
		attribute.String("plan", t.Plan),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Submit"), slog.String("userID", actor.UserID.String()))

	if t.UserID == uuid.Nil {
		t.UserID = actor.UserID
	}
	if !actor.CanAccess(t.UserID) {
		return nil, fmt.Errorf("cannot submit a transfer for another user: %w", types.ErrForbidden)
	}
	// reject unknown plans before anything is written
	if _, err := s.activations.ActivationFor(ctx, t.UserID, t.Plan, types.MethodBankTransfer, ""); err != nil {
		return nil, err
	}

	path, err := s.receipts.Save(t.UserID, filename, receipt)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	t.ReceiptPath = path
	created, err := s.repo.Create(ctx, t)
	if err != nil {
		if rerr := s.receipts.Remove(path); rerr != nil {
			l.WarnContext(ctx, "Failed to remove orphaned receipt", slog.String("path", path), slog.Any("error", rerr))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, err
	}
	l.InfoContext(ctx, "Bank transfer submitted", slog.String("transferID", created.ID.String()))
	return created, nil
}

func (s *ServiceImpl) List(ctx context.Context, status string) ([]types.BankTransfer, error) {
	return s.repo.List(ctx, status)
}

// UpdateStatus is the admin review transition. Approval activates the plan
// and moving an approved transfer elsewhere revokes it.
func (s *ServiceImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*types.BankTransfer, error) {
	ctx, span := otel.Tracer("BankTransferService").Start(ctx, "UpdateStatus", trace.WithAttributes(
		attribute.String("transfer.id", id.String()),
		attribute.String("status", status),
	))
	defer span.End()

	switch status {
	case types.TransferPending, types.TransferApproved, types.TransferRejected:
	default:
		return nil, fmt.Errorf("unknown transfer status %q: %w", status, types.ErrValidation)
	}

	transfer, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var activation types.ActivateParams
	if status == types.TransferApproved {
		activation, err = s.activations.ActivationFor(ctx, transfer.UserID, transfer.Plan, types.MethodBankTransfer, "bank-"+id.String())
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.SetStatus(ctx, id, status, activation)
	metrics.RecordSubscriptionTransition(ctx, "banktransfer-"+status, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "status update failed")
		return nil, err
	}
	s.logger.InfoContext(ctx, "Bank transfer status updated",
		slog.String("transferID", id.String()),
		slog.String("from", transfer.Status),
		slog.String("to", updated.Status))
	return updated, nil
}
