package subscription

import (
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

// Checkout godoc
// @Summary      Record a confirmed purchase
// @Tags         Subscriptions
// @Param        body body types.CheckoutRequest true "Purchase"
// @Success      200 {object} map[string]interface{}
// @Router       /api/subscriptions [post]
func (h *HandlerImpl) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SubscriptionHandler").Start(r.Context(), "Checkout", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/subscriptions"),
	))
	defer span.End()

	actor, err := auth.ActorFromContext(ctx)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	var req types.CheckoutRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	sub, err := h.service.Checkout(ctx, actor, req)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"success": true, "subscription": sub})
}

func (h *HandlerImpl) targetUser(r *http.Request) (types.Actor, uuid.UUID, error) {
	actor, err := auth.ActorFromContext(r.Context())
	if err != nil {
		return types.Actor{}, uuid.Nil, err
	}
	raw := r.URL.Query().Get("userId")
	if raw == "" {
		return actor, actor.UserID, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return actor, uuid.Nil, err
	}
	return actor, id, nil
}

func (h *HandlerImpl) History(w http.ResponseWriter, r *http.Request) {
	actor, userID, err := h.targetUser(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid userId")
		return
	}
	subs, err := h.service.History(r.Context(), actor, userID)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, subs)
}

func (h *HandlerImpl) Active(w http.ResponseWriter, r *http.Request) {
	actor, userID, err := h.targetUser(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid userId")
		return
	}
	sub, err := h.service.Active(r.Context(), actor, userID)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"success": true, "subscription": sub})
}

// Cancel returns the handler of one provider's cancel route. Every provider
// runs the same transition.
func (h *HandlerImpl) Cancel(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := otel.Tracer("SubscriptionHandler").Start(r.Context(), "Cancel", trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.HTTPRouteKey.String("/api/"+method+"cancel"),
		))
		defer span.End()

		actor, err := auth.ActorFromContext(ctx)
		if err != nil {
			api.ServiceError(w, r, h.logger, err)
			return
		}
		var req types.CancelRequest
		if !api.DecodeAndValidate(w, r, &req) {
			return
		}
		if err := h.service.Cancel(ctx, actor, req.UserID, method); err != nil {
			span.RecordError(err)
			api.ServiceError(w, r, h.logger, err)
			return
		}
		api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Subscription cancelled"})
	}
}

// UpdateUserPlan godoc
// @Summary      Admin: move a user to a plan
// @Tags         Admin
// @Param        body body types.UpdateUserPlanRequest true "User and plan"
// @Success      200 {object} map[string]interface{}
// @Router       /api/update-user-plan [post]
func (h *HandlerImpl) UpdateUserPlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SubscriptionHandler").Start(r.Context(), "UpdateUserPlan")
	defer span.End()

	var req types.UpdateUserPlanRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	sub, err := h.service.ChangePlan(ctx, req)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"success":      true,
		"message":      "User plan updated",
		"subscription": sub,
	})
}

func (h *HandlerImpl) CancelUserSubscription(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.ActorFromContext(r.Context())
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	var req types.UserIDRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := h.service.Cancel(r.Context(), actor, req.UserID, types.MethodAdminChange); err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Subscription cancelled"})
}

func (h *HandlerImpl) ExtendUserSubscription(w http.ResponseWriter, r *http.Request) {
	var req types.ExtendSubscriptionRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	sub, err := h.service.Extend(r.Context(), req)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"success":      true,
		"message":      "Subscription extended",
		"subscription": sub,
	})
}
