package exam

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
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

// Generate godoc
// @Summary      Generate the course quiz
// @Tags         Exams
// @Param        body body types.ExamRequest true "Course and topics"
// @Success      200 {object} map[string]interface{}
// @Router       /api/aiexam [post]
func (h *HandlerImpl) Generate(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ExamHandler").Start(r.Context(), "Generate", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/aiexam"),
	))
	defer span.End()

	actor, err := auth.ActorFromContext(ctx)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	var req types.ExamRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	questions, err := h.service.Generate(ctx, actor, req)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"success": true, "message": questions})
}

func (h *HandlerImpl) UpdateResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ExamHandler").Start(r.Context(), "UpdateResult")
	defer span.End()

	actor, err := auth.ActorFromContext(ctx)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	var req types.ExamResultRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	exam, err := h.service.SubmitResult(ctx, actor, req)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"passed":  exam.Passed,
		"marks":   exam.Marks,
	})
}

func (h *HandlerImpl) GetResult(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.ActorFromContext(r.Context())
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	var req types.CourseIDRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	exam, err := h.service.Result(r.Context(), actor, req.CourseID)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": exam.Passed,
		"marks":   exam.Marks,
	})
}
