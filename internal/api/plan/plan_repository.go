package plan

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
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	ListPlanSettings(ctx context.Context) ([]types.PlanSettings, error)
	GetPlanSettings(ctx context.Context, planType string) (*types.PlanSettings, error)
	UpsertPlanSettings(ctx context.Context, settings types.PlanSettings) (*types.PlanSettings, error)
	SeedPlanSettings(ctx context.Context, defaults []types.PlanSettings) error
	GetUserPlanType(ctx context.Context, userID uuid.UUID) (string, error)
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

const planColumns = `plan_type, name, price, billing_period, features, max_topics, max_subtopics,
	course_types, languages, unlimited_courses, ai_teacher_chat, video_courses, theory_courses,
	image_courses, created_at, updated_at`

func scanPlan(row pgx.Row) (*types.PlanSettings, error) {
	var p types.PlanSettings
	err := row.Scan(
		&p.PlanType, &p.Name, &p.Price, &p.BillingPeriod, &p.Features,
		&p.Limits.MaxTopics, &p.Limits.MaxSubtopics, &p.Limits.CourseTypes, &p.Limits.Languages,
		&p.Limits.UnlimitedCourses, &p.Limits.AITeacherChat, &p.Limits.VideoCourses,
		&p.Limits.TheoryCourses, &p.Limits.ImageCourses, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RepositoryImpl) ListPlanSettings(ctx context.Context) ([]types.PlanSettings, error) {
	ctx, span := otel.Tracer("PlanRepository").Start(ctx, "ListPlanSettings", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "plan_settings"),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `SELECT `+planColumns+` FROM plan_settings ORDER BY price, plan_type`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("error querying plan settings: %w", err)
	}
	defer rows.Close()

	var plans []types.PlanSettings
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error scanning plan settings: %w", err)
		}
		plans = append(plans, *p)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating plan settings: %w", err)
	}
	span.SetAttributes(attribute.Int("plans.count", len(plans)))
	span.SetStatus(codes.Ok, "Plan settings listed")
	return plans, nil
}

func (r *RepositoryImpl) GetPlanSettings(ctx context.Context, planType string) (*types.PlanSettings, error) {
	ctx, span := otel.Tracer("PlanRepository").Start(ctx, "GetPlanSettings", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("plan.type", planType),
	))
	defer span.End()

	p, err := scanPlan(r.pgpool.QueryRow(ctx, `SELECT `+planColumns+` FROM plan_settings WHERE plan_type = $1`, planType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "plan not found")
			return nil, fmt.Errorf("plan %q not found: %w", planType, types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("error fetching plan settings: %w", err)
	}
	span.SetStatus(codes.Ok, "Plan settings found")
	return p, nil
}

func (r *RepositoryImpl) UpsertPlanSettings(ctx context.Context, s types.PlanSettings) (*types.PlanSettings, error) {
	ctx, span := otel.Tracer("PlanRepository").Start(ctx, "UpsertPlanSettings", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPSERT"),
		attribute.String("plan.type", s.PlanType),
	))
	defer span.End()

	query := `
		INSERT INTO plan_settings (plan_type, name, price, billing_period, features, max_topics, max_subtopics,
			course_types, languages, unlimited_courses, ai_teacher_chat, video_courses, theory_courses, image_courses)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (plan_type) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			billing_period = EXCLUDED.billing_period,
			features = EXCLUDED.features,
			max_topics = EXCLUDED.max_topics,
			max_subtopics = EXCLUDED.max_subtopics,
			course_types = EXCLUDED.course_types,
			languages = EXCLUDED.languages,
			unlimited_courses = EXCLUDED.unlimited_courses,
			ai_teacher_chat = EXCLUDED.ai_teacher_chat,
			video_courses = EXCLUDED.video_courses,
			theory_courses = EXCLUDED.theory_courses,
			image_courses = EXCLUDED.image_courses,
			updated_at = now()
		RETURNING ` + planColumns

	p, err := scanPlan(r.pgpool.QueryRow(ctx, query, upsertArgs(s)...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		r.logger.ErrorContext(ctx, "Failed to upsert plan settings", slog.String("planType", s.PlanType), slog.Any("error", err))
		return nil, fmt.Errorf("error upserting plan settings: %w", err)
	}
	span.SetStatus(codes.Ok, "Plan settings saved")
	return p, nil
}

// SeedPlanSettings inserts the defaults without touching rows that already exist.
func (r *RepositoryImpl) SeedPlanSettings(ctx context.Context, defaults []types.PlanSettings) error {
	ctx, span := otel.Tracer("PlanRepository").Start(ctx, "SeedPlanSettings", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
	))
	defer span.End()

	batch := &pgx.Batch{}
	for _, s := range defaults {
		batch.Queue(`
			INSERT INTO plan_settings (plan_type, name, price, billing_period, features, max_topics, max_subtopics,
				course_types, languages, unlimited_courses, ai_teacher_chat, video_courses, theory_courses, image_courses)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (plan_type) DO NOTHING`, upsertArgs(s)...)
	}

	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "seed failed")
		return fmt.Errorf("error seeding plan settings: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to commit plan seed: %w", err)
	}
	span.SetStatus(codes.Ok, "Plan settings seeded")
	return nil
}

func (r *RepositoryImpl) GetUserPlanType(ctx context.Context, userID uuid.UUID) (string, error) {
	var planType string
	err := r.pgpool.QueryRow(ctx, `SELECT type FROM users WHERE id = $1`, userID).Scan(&planType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("user not found: %w", types.ErrNotFound)
		}
		return "", fmt.Errorf("error fetching user plan: %w", err)
	}
	return planType, nil
}

func upsertArgs(s types.PlanSettings) []any {
	return []any{
		s.PlanType, s.Name, s.Price, s.BillingPeriod, nonNil(s.Features),
		s.Limits.MaxTopics, s.Limits.MaxSubtopics, nonNil(s.Limits.CourseTypes), nonNil(s.Limits.Languages),
		s.Limits.UnlimitedCourses, s.Limits.AITeacherChat, s.Limits.VideoCourses,
		s.Limits.TheoryCourses, s.Limits.ImageCourses,
	}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
