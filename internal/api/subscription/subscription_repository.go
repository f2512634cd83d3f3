package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/ai-course-generator/app/db"
	"github.com/FACorreiaa/ai-course-generator/app/observability/metrics"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository runs every plan transition as a single transaction so a user
// never ends up with two active subscriptions or a stale users.type.
type Repository interface {
	Activate(ctx context.Context, p types.ActivateParams) (*types.Subscription, error)
	Cancel(ctx context.Context, userID uuid.UUID) (int64, error)
	Extend(ctx context.Context, userID uuid.UUID, days int) (*types.Subscription, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	History(ctx context.Context, userID uuid.UUID) ([]types.Subscription, error)
	Active(ctx context.Context, userID uuid.UUID) (*types.Subscription, error)
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

const subscriptionColumns = `id, user_id, subscription_id, subscriber_id, plan, method, active, expires_at, created_at, updated_at`

func scanSubscription(row pgx.Row) (*types.Subscription, error) {
	var s types.Subscription
	if err := row.Scan(&s.ID, &s.UserID, &s.SubscriptionID, &s.SubscriberID, &s.Plan, &s.Method,
		&s.Active, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// ActivateTx deactivates the user's current subscription, inserts the new
// active row and moves users.type to the new plan inside tx.
func ActivateTx(ctx context.Context, tx pgx.Tx, p types.ActivateParams) (*types.Subscription, error) {
	if _, err := tx.Exec(ctx, `
		UPDATE subscriptions SET active = false, updated_at = now()
		WHERE user_id = $1 AND active`, p.UserID); err != nil {
		return nil, fmt.Errorf("error deactivating subscriptions: %w", err)
	}

	sub, err := scanSubscription(tx.QueryRow(ctx, `
		INSERT INTO subscriptions (user_id, subscription_id, subscriber_id, plan, method, active, expires_at)
		VALUES ($1, $2, $3, $4, $5, true, $6)
		RETURNING `+subscriptionColumns,
		p.UserID, p.SubscriptionID, p.SubscriberID, p.Plan, p.Method, p.ExpiresAt))
	if err != nil {
		return nil, fmt.Errorf("error inserting subscription: %w", err)
	}

	if err := setUserPlan(ctx, tx, p.UserID, p.Plan); err != nil {
		return nil, err
	}
	return sub, nil
}

// CancelTx deactivates every active subscription of the user and resets the plan to free.
func CancelTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE subscriptions SET active = false, updated_at = now()
		WHERE user_id = $1 AND active`, userID)
	if err != nil {
		return 0, fmt.Errorf("error deactivating subscriptions: %w", err)
	}
	if err := setUserPlan(ctx, tx, userID, types.PlanFree); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RevokeTx deletes one subscription row. When it was the active one the user
// drops back to free.
func RevokeTx(ctx context.Context, tx pgx.Tx, subRowID uuid.UUID) error {
	var (
		userID uuid.UUID
		active bool
	)
	err := tx.QueryRow(ctx, `DELETE FROM subscriptions WHERE id = $1 RETURNING user_id, active`, subRowID).Scan(&userID, &active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error deleting subscription: %w", err)
	}
	if !active {
		return nil
	}
	return setUserPlan(ctx, tx, userID, types.PlanFree)
}

func setUserPlan(ctx context.Context, tx pgx.Tx, userID uuid.UUID, plan string) error {
	tag, err := tx.Exec(ctx, `UPDATE users SET type = $2, updated_at = now() WHERE id = $1`, userID, plan)
	if err != nil {
		return fmt.Errorf("error updating user plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %w", types.ErrNotFound)
	}
	return nil
}

func (r *RepositoryImpl) Activate(ctx context.Context, p types.ActivateParams) (*types.Subscription, error) {
	ctx, span := otel.Tracer("SubscriptionRepository").Start(ctx, "Activate", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("user.id", p.UserID.String()),
		attribute.String("plan", p.Plan),
		attribute.String("method", p.Method),
	))
	defer span.End()

	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sub, err := ActivateTx(ctx, tx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "activate failed")
		metrics.RecordDBError(ctx, "subscriptions")
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to commit subscription: %w", err)
	}
	span.SetStatus(codes.Ok, "Subscription activated")
	return sub, nil
}

func (r *RepositoryImpl) Cancel(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx, span := otel.Tracer("SubscriptionRepository").Start(ctx, "Cancel", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := CancelTx(ctx, tx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancel failed")
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to commit cancellation: %w", err)
	}
	span.SetAttributes(attribute.Int64("deactivated", n))
	span.SetStatus(codes.Ok, "Subscription cancelled")
	return n, nil
}

// Extend pushes the active subscription's expiry out by days. A subscription
// without expiry stays open ended.
func (r *RepositoryImpl) Extend(ctx context.Context, userID uuid.UUID, days int) (*types.Subscription, error) {
	ctx, span := otel.Tracer("SubscriptionRepository").Start(ctx, "Extend", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("user.id", userID.String()),
		attribute.Int("days", days),
	))
	defer span.End()

	sub, err := scanSubscription(r.pgpool.QueryRow(ctx, `
		UPDATE subscriptions SET expires_at = expires_at + make_interval(days => $2), updated_at = now()
		WHERE user_id = $1 AND active
		RETURNING `+subscriptionColumns, userID, days))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "no active subscription")
			return nil, fmt.Errorf("user has no active subscription: %w", types.ErrNotFound)
		}
		span.RecordError(err)
		metrics.RecordDBError(ctx, "subscriptions")
		return nil, fmt.Errorf("error extending subscription: %w", err)
	}
	span.SetStatus(codes.Ok, "Subscription extended")
	return sub, nil
}

// ExpireDue deactivates subscriptions past their expiry and resets their users to free.
func (r *RepositoryImpl) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	ctx, span := otel.Tracer("SubscriptionRepository").Start(ctx, "ExpireDue", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `
		WITH expired AS (
			UPDATE subscriptions SET active = false, updated_at = now()
			WHERE active AND expires_at IS NOT NULL AND expires_at < $1
			RETURNING user_id
		)
		UPDATE users SET type = 'free', updated_at = now()
		FROM expired WHERE users.id = expired.user_id`, now)
	if err != nil {
		span.RecordError(err)
		metrics.RecordDBError(ctx, "subscriptions")
		return 0, fmt.Errorf("error expiring subscriptions: %w", err)
	}
	span.SetAttributes(attribute.Int64("expired", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}

func (r *RepositoryImpl) History(ctx context.Context, userID uuid.UUID) ([]types.Subscription, error) {
	ctx, span := otel.Tracer("SubscriptionRepository").Start(ctx, "History", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error listing subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []types.Subscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning subscription: %w", err)
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

func (r *RepositoryImpl) Active(ctx context.Context, userID uuid.UUID) (*types.Subscription, error) {
	sub, err := scanSubscription(r.pgpool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE user_id = $1 AND active`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user has no active subscription: %w", types.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching active subscription: %w", err)
	}
	return sub, nil
}
