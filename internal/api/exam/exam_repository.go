package exam

import (
	"context"
	"encoding/json"
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
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	SaveQuestions(ctx context.Context, courseID uuid.UUID, questions []types.ExamQuestion) error
	GetExam(ctx context.Context, courseID uuid.UUID) (*types.Exam, error)
	SaveResult(ctx context.Context, courseID uuid.UUID, marks int, passed bool) (*types.Exam, error)
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

// SaveQuestions stores a freshly generated quiz. An earlier pass is kept so
// regenerating questions never lowers course progress.
func (r *RepositoryImpl) SaveQuestions(ctx context.Context, courseID uuid.UUID, questions []types.ExamQuestion) error {
	ctx, span := otel.Tracer("ExamRepository").Start(ctx, "SaveQuestions", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPSERT"),
		attribute.String("course.id", courseID.String()),
		attribute.Int("questions", len(questions)),
	))
	defer span.End()

	raw, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("failed to encode exam: %w", err)
	}
	if _, err := r.pgpool.Exec(ctx, `
		INSERT INTO exams (course_id, questions) VALUES ($1, $2)
		ON CONFLICT (course_id) DO UPDATE SET questions = EXCLUDED.questions, updated_at = now()`,
		courseID, raw); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		metrics.RecordDBError(ctx, "exams")
		return fmt.Errorf("error saving exam: %w", err)
	}
	span.SetStatus(codes.Ok, "Exam saved")
	return nil
}

func (r *RepositoryImpl) GetExam(ctx context.Context, courseID uuid.UUID) (*types.Exam, error) {
	ctx, span := otel.Tracer("ExamRepository").Start(ctx, "GetExam", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("course.id", courseID.String()),
	))
	defer span.End()

	return scanExam(r.pgpool.QueryRow(ctx, `
		SELECT course_id, questions, marks, passed FROM exams WHERE course_id = $1`, courseID))
}

// SaveResult records the latest marks. passed only ever moves from false to true.
func (r *RepositoryImpl) SaveResult(ctx context.Context, courseID uuid.UUID, marks int, passed bool) (*types.Exam, error) {
	ctx, span := otel.Tracer("ExamRepository").Start(ctx, "SaveResult", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("course.id", courseID.String()),
		attribute.Int("marks", marks),
	))
	defer span.End()

	exam, err := scanExam(r.pgpool.QueryRow(ctx, `
		UPDATE exams SET marks = $2, passed = passed OR $3, updated_at = now()
		WHERE course_id = $1
		RETURNING course_id, questions, marks, passed`, courseID, marks, passed))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "Result saved")
	return exam, nil
}

func scanExam(row pgx.Row) (*types.Exam, error) {
	var (
		e   types.Exam
		raw []byte
	)
	if err := row.Scan(&e.CourseID, &raw, &e.Marks, &e.Passed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no exam for this course: %w", types.ErrNotFound)
		}
		return nil, fmt.Errorf("error fetching exam: %w", err)
	}
	if err := json.Unmarshal(raw, &e.Questions); err != nil {
		return nil, fmt.Errorf("stored exam of course %s: %w", e.CourseID, err)
	}
	return &e, nil
}
