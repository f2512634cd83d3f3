package course

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
	CreateCourse(ctx context.Context, course *types.Course, lang string) (*types.Course, error)
	GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
	ListCoursesByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]types.Course, error)
	CountCoursesByUser(ctx context.Context, userID uuid.UUID) (int, error)
	UpdateContent(ctx context.Context, courseID uuid.UUID, content types.CourseContent, expectedVersion int) (int, error)
	MarkCompleted(ctx context.Context, courseID uuid.UUID) error
	DeleteCourse(ctx context.Context, courseID uuid.UUID) error
	GetLanguage(ctx context.Context, courseID uuid.UUID) (string, error)
	UpsertLanguage(ctx context.Context, courseID uuid.UUID, lang string) error
	ExamPassed(ctx context.Context, courseID uuid.UUID) (bool, error)
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

const courseColumns = `id, user_id, content, type, main_topic, photo, completed, version, created_at, updated_at`

func scanCourse(row pgx.Row) (*types.Course, error) {
	var (
		c   types.Course
		raw []byte
	)
	if err := row.Scan(&c.ID, &c.UserID, &raw, &c.Type, &c.MainTopic, &c.Photo, &c.Completed, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	content, err := types.ParseCourseContent(raw, c.MainTopic)
	if err != nil {
		return nil, fmt.Errorf("stored content of course %s: %w", c.ID, err)
	}
	c.Content = content
	return &c, nil
}

// CreateCourse inserts the course and its language row in one transaction.
func (r *RepositoryImpl) CreateCourse(ctx context.Context, course *types.Course, lang string) (*types.Course, error) {
	ctx, span := otel.Tracer("CourseRepository").Start(ctx, "CreateCourse", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "courses"),
		attribute.String("user.id", course.UserID.String()),
	))
	defer span.End()

	content, err := json.Marshal(course.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to encode course content: %w", err)
	}

	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created, err := scanCourse(tx.QueryRow(ctx, `
		INSERT INTO courses (user_id, content, type, main_topic, photo)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+courseColumns,
		course.UserID, content, course.Type, course.MainTopic, course.Photo))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		metrics.RecordDBError(ctx, "courses")
		return nil, fmt.Errorf("error inserting course: %w", err)
	}

	if lang != "" {
		if _, err := tx.Exec(ctx, `
			INSERT INTO course_languages (course_id, lang) VALUES ($1, $2)
			ON CONFLICT (course_id) DO UPDATE SET lang = EXCLUDED.lang`, created.ID, lang); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error inserting course language: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to commit course: %w", err)
	}
	span.SetAttributes(attribute.String("course.id", created.ID.String()))
	span.SetStatus(codes.Ok, "Course created")
	return created, nil
}

func (r *RepositoryImpl) GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	ctx, span := otel.Tracer("CourseRepository").Start(ctx, "GetCourse", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("course.id", courseID.String()),
	))
	defer span.End()

	c, err := scanCourse(r.pgpool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, courseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "course not found")
			return nil, fmt.Errorf("course not found: %w", types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		metrics.RecordDBError(ctx, "courses")
		return nil, fmt.Errorf("error fetching course: %w", err)
	}
	span.SetStatus(codes.Ok, "Course found")
	return c, nil
}

func (r *RepositoryImpl) ListCoursesByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]types.Course, error) {
	ctx, span := otel.Tracer("CourseRepository").Start(ctx, "ListCoursesByUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("user.id", userID.String()),
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
		SELECT `+courseColumns+` FROM courses
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		span.RecordError(err)
		metrics.RecordDBError(ctx, "courses")
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	defer rows.Close()

	courses := []types.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("error scanning course: %w", err)
		}
		courses = append(courses, *c)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}
	span.SetStatus(codes.Ok, "Courses listed")
	return courses, nil
}

func (r *RepositoryImpl) CountCoursesByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := r.pgpool.QueryRow(ctx, `SELECT count(*) FROM courses WHERE user_id = $1`, userID).Scan(&n); err != nil {
		metrics.RecordDBError(ctx, "courses")
		return 0, fmt.Errorf("error counting courses: %w", err)
	}
	return n, nil
}

// UpdateContent overwrites the tree only when the stored version still equals
// expectedVersion and returns the new version. A stale version is ErrConflict.
func (r *RepositoryImpl) UpdateContent(ctx context.Context, courseID uuid.UUID, content types.CourseContent, expectedVersion int) (int, error) {
	ctx, span := otel.Tracer("CourseRepository").Start(ctx, "UpdateContent", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("course.id", courseID.String()),
		attribute.Int("course.version", expectedVersion),
	))
	defer span.End()

	raw, err := json.Marshal(content)
	if err != nil {
		return 0, fmt.Errorf("failed to encode course content: %w", err)
	}

	var newVersion int
	err = r.pgpool.QueryRow(ctx, `
		UPDATE courses SET content = $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $3
		RETURNING version`, courseID, raw, expectedVersion).Scan(&newVersion)
	if err == nil {
		span.SetStatus(codes.Ok, "Content updated")
		return newVersion, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		metrics.RecordDBError(ctx, "courses")
		return 0, fmt.Errorf("error updating course content: %w", err)
	}

	// no row matched: either the course is gone or the version moved on
	var exists bool
	if err := r.pgpool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, courseID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("error checking course: %w", err)
	}
	if !exists {
		span.SetStatus(codes.Error, "course not found")
		return 0, fmt.Errorf("course not found: %w", types.ErrNotFound)
	}
	span.SetStatus(codes.Error, "version conflict")
	metrics.RecordContentConflict(ctx)
	return 0, fmt.Errorf("course was modified concurrently, reload and retry: %w", types.ErrConflict)
}

// MarkCompleted sets the terminal flag. It never clears it.
func (r *RepositoryImpl) MarkCompleted(ctx context.Context, courseID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `UPDATE courses SET completed = true, updated_at = now() WHERE id = $1`, courseID)
	if err != nil {
		metrics.RecordDBError(ctx, "courses")
		return fmt.Errorf("error completing course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("course not found: %w", types.ErrNotFound)
	}
	return nil
}

// DeleteCourse removes the course; notes, exam and language rows cascade.
func (r *RepositoryImpl) DeleteCourse(ctx context.Context, courseID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, courseID)
	if err != nil {
		metrics.RecordDBError(ctx, "courses")
		return fmt.Errorf("error deleting course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("course not found: %w", types.ErrNotFound)
	}
	return nil
}

func (r *RepositoryImpl) GetLanguage(ctx context.Context, courseID uuid.UUID) (string, error) {
	var lang string
	err := r.pgpool.QueryRow(ctx, `SELECT lang FROM course_languages WHERE course_id = $1`, courseID).Scan(&lang)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("language not set: %w", types.ErrNotFound)
		}
		return "", fmt.Errorf("error fetching course language: %w", err)
	}
	return lang, nil
}

func (r *RepositoryImpl) UpsertLanguage(ctx context.Context, courseID uuid.UUID, lang string) error {
	_, err := r.pgpool.Exec(ctx, `
		INSERT INTO course_languages (course_id, lang) VALUES ($1, $2)
		ON CONFLICT (course_id) DO UPDATE SET lang = EXCLUDED.lang`, courseID, lang)
	if err != nil {
		return fmt.Errorf("error saving course language: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) ExamPassed(ctx context.Context, courseID uuid.UUID) (bool, error) {
	var passed bool
	err := r.pgpool.QueryRow(ctx, `SELECT passed FROM exams WHERE course_id = $1`, courseID).Scan(&passed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("error fetching exam result: %w", err)
	}
	return passed, nil
}
