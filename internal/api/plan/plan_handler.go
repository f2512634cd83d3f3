package plan

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
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

// ListPlanSettings godoc
// @Summary      List plan settings
// @Tags         Plans
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Router       /api/plan-settings [get]
func (h *HandlerImpl) ListPlanSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlanHandler").Start(r.Context(), "ListPlanSettings", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/plan-settings"),
	))
	defer span.End()

	plans, err := h.service.ListPlanSettings(ctx)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"plans":   plans,
	})
}

// UpsertPlanSettings godoc
// @Summary      Create or update one plan
// @Tags         Plans
// @Accept       json
// @Param        body body types.PlanSettings true "Plan"
// @Success      200 {object} map[string]interface{}
// @Router       /api/plan-settings [post]
func (h *HandlerImpl) UpsertPlanSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlanHandler").Start(r.Context(), "UpsertPlanSettings")
	defer span.End()

	var req types.PlanSettings
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	saved, err := h.service.UpsertPlanSettings(ctx, req)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Plan settings saved",
		"plan":    saved,
	})
}

// UserPlanLimits godoc
// @Summary      Resolve the plan limits of a user
// @Description  userId defaults to the caller; other users require the admin role. Malformed or unknown ids get the free tier.
// @Tags         Plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body types.UserPlanLimitsRequest true "User"
// @Success      200 {object} types.UserPlanLimitsResponse
// @Failure      403 {object} types.Response
// @Router       /api/user-plan-limits [post]
func (h *HandlerImpl) UserPlanLimits(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlanHandler").Start(r.Context(), "UserPlanLimits")
	defer span.End()

	actor, err := auth.ActorFromContext(ctx)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	var req types.UserPlanLimitsRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}

	userID := actor.UserID
	if req.UserID != "" {
		parsed, err := uuid.Parse(req.UserID)
		if err != nil {
			h.logger.InfoContext(ctx, "Plan limits requested for malformed user id", slog.String("userId", req.UserID))
			api.WriteJSONResponse(w, r, http.StatusOK, types.UserPlanLimitsResponse{Success: true, Limits: types.FreePlanLimits()})
			return
		}
		userID = parsed
	}
	if userID != actor.UserID && !actor.Admin {
		api.ServiceError(w, r, h.logger, fmt.Errorf("cannot read another user's plan limits: %w", types.ErrForbidden))
		return
	}

	limits := h.service.ResolvePlanLimits(ctx, userID)
	api.WriteJSONResponse(w, r, http.StatusOK, types.UserPlanLimitsResponse{Success: true, Limits: limits})
}
