package banktransfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/ai-course-generator/app/db"
	"github.com/FACorreiaa/ai-course-generator/app/observability/metrics"
	"github.com/FACorreiaa/ai-course-generator/internal/api/subscription"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	Create(ctx context.Context, t types.BankTransfer) (*types.BankTransfer, error)
	Get(ctx context.Context, id uuid.UUID) (*types.BankTransfer, error)
	List(ctx context.Context, status string) ([]types.BankTransfer, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string, activation types.ActivateParams) (*types.BankTransfer, error)
}

type RepositoryImpl struct {
	pgpool database.Querier
	logger *slog.Logger
}

func NewRepository(pgpool database.Querier, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		pgpool: pgpool,
		logger: logger,
	}
}

const transferColumns = `id, user_id, plan, amount, receipt_path, full_name, email, address, city, country, postal_code, status, sub_row_id, created_at, updated_at`

func scanTransfer(row pgx.Row) (*types.BankTransfer, error) {
	var t types.BankTransfer
	if err := row.Scan(&t.ID, &t.UserID, &t.Plan, &t.Amount, &t.ReceiptPath, &t.FullName, &t.Email,
		&t.Address, &t.City, &t.Country, &t.PostalCode, &t.Status, &t.SubRowID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, t types.BankTransfer) (*types.BankTransfer, error) {
	ctx, span := otel.Tracer("BankTransferRepository").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("user.id", t.UserID.String()),
	))
	defer span.End()

	created, err := scanTransfer(r.pgpool.QueryRow(ctx, `
		INSERT INTO bank_transfers (user_id, plan, amount, receipt_path, full_name, email, address, city, country, postal_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+transferColumns,
		t.UserID, t.Plan, t.Amount, t.ReceiptPath, t.FullName, t.Email, t.Address, t.City, t.Country, t.PostalCode))
	if err != nil {
		span.RecordError(err)
		metrics.RecordDBError(ctx, "bank_transfers")
		return nil, fmt.Errorf("error inserting bank transfer: %w", err)
	}
	span.SetStatus(codes.Ok, "Transfer recorded")
	return created, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id uuid.UUID) (*types.BankTransfer, error) {
	t, err := scanTransfer(r.pgpool.QueryRow(ctx, `SELECT `+transferColumns+` FROM bank_transfers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("bank transfer not found: %w", types.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching bank transfer: %w", err)
	}
	return t, nil
}

// List returns transfers newest first. An empty status lists all of them.
func (r *RepositoryImpl) List(ctx context.Context, status string) ([]types.BankTransfer, error) {
	ctx, span := otel.Tracer("BankTransferRepository").Start(ctx, "List", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("status", status),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
		SELECT `+transferColumns+` FROM bank_transfers
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC`, status)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error listing bank transfers: %w", err)
	}
	defer rows.Close()

	transfers := []types.BankTransfer{}
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning bank transfer: %w", err)
		}
		transfers = append(transfers, *t)
	}
	return transfers, rows.Err()
}

// SetStatus moves a transfer to status and applies the plan side effect in the
// same transaction: entering approved activates the plan, leaving approved
// revokes the subscription it created. Setting the current status is a no-op.
func (r *RepositoryImpl) SetStatus(ctx context.Context, id uuid.UUID, status string, activation types.ActivateParams) (*types.BankTransfer, error) {
	ctx, span := otel.Tracer("BankTransferRepository").Start(ctx, "SetStatus", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("transfer.id", id.String()),
		attribute.String("status", status),
	))
	defer span.End()

	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanTransfer(tx.QueryRow(ctx, `SELECT `+transferColumns+` FROM bank_transfers WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("bank transfer not found: %w", types.ErrNotFound)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("error locking bank transfer: %w", err)
	}
	if current.Status == status {
		return current, nil
	}

	subRowID := current.SubRowID
	if current.Status == types.TransferApproved && subRowID != nil {
		if err := subscription.RevokeTx(ctx, tx, *subRowID); err != nil {
			span.RecordError(err)
			return nil, err
		}
		subRowID = nil
	}
	if status == types.TransferApproved {
		sub, err := subscription.ActivateTx(ctx, tx, activation)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		subRowID = &sub.ID
	}

	updated, err := scanTransfer(tx.QueryRow(ctx, `
		UPDATE bank_transfers SET status = $2, sub_row_id = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+transferColumns, id, status, subRowID))
	if err != nil {
		span.RecordError(err)
		metrics.RecordDBError(ctx, "bank_transfers")
		return nil, fmt.Errorf("error updating bank transfer: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to commit bank transfer: %w", err)
	}
	span.SetStatus(codes.Ok, "Transfer status updated")
	return updated, nil
}
