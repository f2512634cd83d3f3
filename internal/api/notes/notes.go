package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/ai-course-generator/app/db"
	"github.com/FACorreiaa/ai-course-generator/app/observability/metrics"
	"github.com/FACorreiaa/ai-course-generator/internal/api"
	"github.com/FACorreiaa/ai-course-generator/internal/api/auth"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	GetNotes(ctx context.Context, courseID uuid.UUID) (string, error)
	SaveNotes(ctx context.Context, courseID uuid.UUID, notes string) error
}

type RepositoryImpl struct {
	pgpool database.Querier
	logger *slog.Logger
}

func NewRepository(pgpool database.Querier, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{pgpool: pgpool, logger: logger}
}

// GetNotes returns an empty string when the course has no notes yet.
func (r *RepositoryImpl) GetNotes(ctx context.Context, courseID uuid.UUID) (string, error) {
	ctx, span := otel.Tracer("NotesRepository").Start(ctx, "GetNotes", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("course.id", courseID.String()),
	))
	defer span.End()

	var notes string
	err := r.pgpool.QueryRow(ctx, `SELECT notes FROM notes WHERE course_id = $1`, courseID).Scan(&notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		span.RecordError(err)
		metrics.RecordDBError(ctx, "notes")
		return "", fmt.Errorf("error fetching notes: %w", err)
	}
	return notes, nil
}

func (r *RepositoryImpl) SaveNotes(ctx context.Context, courseID uuid.UUID, notes string) error {
	ctx, span := otel.Tracer("NotesRepository").Start(ctx, "SaveNotes", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPSERT"),
		attribute.String("course.id", courseID.String()),
	))
	defer span.End()

	if _, err := r.pgpool.Exec(ctx, `
		INSERT INTO notes (course_id, notes) VALUES ($1, $2)
		ON CONFLICT (course_id) DO UPDATE SET notes = EXCLUDED.notes, updated_at = now()`,
		courseID, notes); err != nil {
		span.RecordError(err)
		metrics.RecordDBError(ctx, "notes")
		return fmt.Errorf("error saving notes: %w", err)
	}
	return nil
}

// CourseReader resolves the owner of a course.
type CourseReader interface {
	GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
}

type HandlerImpl struct {
	logger  *slog.Logger
	repo    Repository
	courses CourseReader
}

func NewHandlerImpl(repo Repository, courses CourseReader, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{logger: logger, repo: repo, courses: courses}
}

func (h *HandlerImpl) authorize(r *http.Request, courseID uuid.UUID) error {
	actor, err := auth.ActorFromContext(r.Context())
	if err != nil {
		return err
	}
	course, err := h.courses.GetCourse(r.Context(), courseID)
	if err != nil {
		return err
	}
	if !actor.CanAccess(course.UserID) {
		return fmt.Errorf("course belongs to another user: %w", types.ErrForbidden)
	}
	return nil
}

func (h *HandlerImpl) GetNotes(w http.ResponseWriter, r *http.Request) {
	var req types.Notes
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := h.authorize(r, req.CourseID); err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	notes, err := h.repo.GetNotes(r.Context(), req.CourseID)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"success": true, "message": notes})
}

func (h *HandlerImpl) SaveNotes(w http.ResponseWriter, r *http.Request) {
	var req types.Notes
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := h.authorize(r, req.CourseID); err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	if err := h.repo.SaveNotes(r.Context(), req.CourseID, req.Notes); err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Notes updated successfully"})
}
