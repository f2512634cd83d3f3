package generation

import (
	"log/slog"
	"net/http"
	"strings"

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

// Skeleton godoc
// @Summary      Generate the topic tree of a new course
// @Tags         Generation
// @Accept       json
// @Produce      json
// @Param        body body types.SkeletonRequest true "Course request"
// @Success      200 {object} types.SkeletonResponse
// @Failure      403 {object} types.Response "Outside plan limits"
// @Router       /api/prompt [post]
func (h *HandlerImpl) Skeleton(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("GenerationHandler").Start(r.Context(), "Skeleton", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/prompt"),
	))
	defer span.End()

	userID, err := auth.UserUUIDFromContext(ctx)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	var req types.SkeletonRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	req.UserID = userID

	resp, err := h.service.GenerateSkeleton(ctx, req)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

func (h *HandlerImpl) Generate(w http.ResponseWriter, r *http.Request) {
	var req types.PromptRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	text, err := h.service.GenerateText(r.Context(), req.Prompt)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"success": true, "text": text})
}

func (h *HandlerImpl) Image(w http.ResponseWriter, r *http.Request) {
	var req types.PromptRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	link, err := h.service.FindImage(r.Context(), req.Prompt)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"success": true, "url": link})
}

func (h *HandlerImpl) Video(w http.ResponseWriter, r *http.Request) {
	var req types.PromptRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	id, err := h.service.FindVideo(r.Context(), req.Prompt)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"success": true, "url": id})
}

func (h *HandlerImpl) Transcript(w http.ResponseWriter, r *http.Request) {
	var req types.PromptRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	lines, err := h.service.GetTranscript(r.Context(), strings.TrimSpace(req.Prompt))
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"success": true, "url": lines})
}

// Chat godoc
// @Summary      Ask the AI teacher
// @Tags         Generation
// @Param        body body types.ChatRequest true "Question and history"
// @Success      200 {object} map[string]interface{}
// @Failure      403 {object} types.Response "Chat not in plan"
// @Router       /api/chat [post]
func (h *HandlerImpl) Chat(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("GenerationHandler").Start(r.Context(), "Chat")
	defer span.End()

	userID, err := auth.UserUUIDFromContext(ctx)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	var req types.ChatRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	answer, err := h.service.Chat(ctx, userID, req)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"success": true, "text": answer})
}
