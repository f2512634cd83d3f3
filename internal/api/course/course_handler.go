package course

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ai-course-generator/internal/api"
	"github.com/FACorreiaa/ai-course-generator/internal/api/auth"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
	}
}

func courseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		raw = r.URL.Query().Get(name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid course id %q: %w", raw, types.ErrValidation)
	}
	return id, nil
}

// CreateCourse godoc
// @Summary      Create a course
// @Description  Validates the tree against the plan, generates the first lesson and stores the course.
// @Tags         Courses
// @Accept       json
// @Produce      json
// @Param        body body types.CreateCourseRequest true "Course"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} types.Response
// @Failure      403 {object} types.Response "Plan limit"
// @Router       /api/course [post]
func (h *HandlerImpl) CreateCourse(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CourseHandler").Start(r.Context(), "CreateCourse", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/course"),
	))
	defer span.End()

	actor, err := auth.ActorFromContext(ctx)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	var req types.CreateCourseRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	course, err := h.service.CreateCourse(ctx, actor, req)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Course created successfully",
		"courseId": course.ID,
		"course":   course,
	})
}

func (h *HandlerImpl) ShareCourse(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CourseHandler").Start(r.Context(), "ShareCourse")
	defer span.End()

	actor, err := auth.ActorFromContext(ctx)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	var req types.ShareCourseRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	course, err := h.service.ShareCourse(ctx, actor, req)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Course created successfully",
		"courseId": course.ID,
	})
}

// ListCourses godoc
// @Summary      List a user's courses
// @Tags         Courses
// @Param        userId query string true "User id"
// @Param        page query int false "Page, starting at 1"
// @Success      200 {array} types.Course
// @Router       /api/courses [get]
func (h *HandlerImpl) ListCourses(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CourseHandler").Start(r.Context(), "ListCourses")
	defer span.End()

	actor, err := auth.ActorFromContext(ctx)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	userID := actor.UserID
	if raw := r.URL.Query().Get("userId"); raw != "" {
		if userID, err = uuid.Parse(raw); err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid userId")
			return
		}
	}
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil || page < 1 {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid page")
			return
		}
	}
	span.SetAttributes(attribute.Int("page", page))

	courses, err := h.service.ListCourses(ctx, actor, userID, page)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	if courses == nil {
		courses = []types.Course{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, courses)
}

func (h *HandlerImpl) GetCourse(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CourseHandler").Start(r.Context(), "GetCourse")
	defer span.End()

	actor, err := auth.ActorFromContext(ctx)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	id, err := courseIDParam(r, "courseID")
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	course, err := h.service.GetCourse(ctx, actor, id)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"success": true, "course": course})
}

// GetShareable is public; the course id is the share secret.
func (h *HandlerImpl) GetShareable(w http.ResponseWriter, r *http.Request) {
	id, err := courseIDParam(r, "id")
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	course, err := h.service.GetShareable(r.Context(), id)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, []types.Course{*course})
}

// UpdateContent godoc
// @Summary      Replace a course tree
// @Tags         Courses
// @Param        body body types.UpdateCourseRequest true "Tree and the version it was based on"
// @Success      200 {object} map[string]interface{}
// @Failure      409 {object} types.Response "Version mismatch"
// @Router       /api/update [post]
func (h *HandlerImpl) UpdateContent(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CourseHandler").Start(r.Context(), "UpdateContent")
	defer span.End()

	actor, err := auth.ActorFromContext(ctx)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	var req types.UpdateCourseRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	course, err := h.service.UpdateContent(ctx, actor, req)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Course Updated",
		"version": course.Version,
	})
}

// GenerateSubtopic godoc
// @Summary      Generate one lesson
// @Description  Idempotent. Returns the stored lesson when it was already generated.
// @Tags         Courses
// @Param        courseID path string true "Course id"
// @Param        body body types.SubtopicRef true "Subtopic address"
// @Success      200 {object} types.GenerateSubtopicResponse
// @Failure      409 {object} types.Response "Generation still running elsewhere"
// @Router       /api/course/{courseID}/subtopic [post]
func (h *HandlerImpl) GenerateSubtopic(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CourseHandler").Start(r.Context(), "GenerateSubtopic", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/course/{courseID}/subtopic"),
	))
	defer span.End()

	actor, err := auth.ActorFromContext(ctx)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	id, err := courseIDParam(r, "courseID")
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	var ref types.SubtopicRef
	if !api.DecodeAndValidate(w, r, &ref) {
		return
	}
	resp, err := h.service.GenerateSubtopic(ctx, actor, id, ref)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

func (h *HandlerImpl) MarkDone(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("CourseHandler").Start(r.Context(), "MarkDone")
	defer span.End()

	actor, err := auth.ActorFromContext(ctx)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	id, err := courseIDParam(r, "courseID")
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	var req types.MarkDoneRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	progress, err := h.service.MarkDone(ctx, actor, id, req)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"success": true, "progress": progress})
}

func (h *HandlerImpl) Progress(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.ActorFromContext(r.Context())
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	id, err := courseIDParam(r, "courseID")
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	progress, err := h.service.Progress(r.Context(), actor, id)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"success":    true,
		"done":       progress.Done,
		"total":      progress.Total,
		"percentage": progress.Percentage,
		"complete":   progress.Complete,
	})
}

func (h *HandlerImpl) Finish(w http.ResponseWriter, r *http.Request) {
	h.withCourseID(w, r, "Finish", func(actor types.Actor, id uuid.UUID) (string, error) {
		return "Course completed", h.service.Finish(r.Context(), actor, id)
	})
}

func (h *HandlerImpl) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	h.withCourseID(w, r, "DeleteCourse", func(actor types.Actor, id uuid.UUID) (string, error) {
		return "Course deleted successfully", h.service.DeleteCourse(r.Context(), actor, id)
	})
}

// withCourseID handles the {courseId} bodied endpoints that answer with a plain message.
func (h *HandlerImpl) withCourseID(w http.ResponseWriter, r *http.Request, op string, fn func(types.Actor, uuid.UUID) (string, error)) {
	_, span := otel.Tracer("CourseHandler").Start(r.Context(), op)
	defer span.End()

	actor, err := auth.ActorFromContext(r.Context())
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	var req types.CourseIDRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	msg, err := fn(actor, req.CourseID)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: msg})
}

func (h *HandlerImpl) GetLanguage(w http.ResponseWriter, r *http.Request) {
	id, err := courseIDParam(r, "course")
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	lang, err := h.service.GetLanguage(r.Context(), id)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"success": true, "lang": lang})
}

func (h *HandlerImpl) SetLanguage(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.ActorFromContext(r.Context())
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	var req types.Language
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := h.service.SetLanguage(r.Context(), actor, req); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Course not found")
			return
		}
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Language updated"})
}
