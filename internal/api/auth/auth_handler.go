package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/markbates/goth/gothic"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ai-course-generator/internal/api"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

type HandlerImpl struct {
	logger  *slog.Logger
	service AuthService
}

func NewHandlerImpl(service AuthService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
	}
}

// Signup godoc
// @Summary      Register a new account
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body types.SignupRequest true "Signup payload"
// @Success      200 {object} types.AuthResponse
// @Failure      409 {object} types.Response "Email already registered"
// @Router       /api/signup [post]
func (h *HandlerImpl) Signup(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Signup", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/signup"),
	))
	defer span.End()

	var req types.SignupRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	resp, err := h.service.Signup(ctx, req)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// Login godoc
// @Summary      Sign in with email and password
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body types.LoginRequest true "Credentials"
// @Success      200 {object} types.AuthResponse
// @Failure      401 {object} types.Response
// @Router       /api/login [post]
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Login", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/login"),
	))
	defer span.End()

	var req types.LoginRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	resp, err := h.service.Login(ctx, req)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// Social godoc
// @Summary      Sign in with an identity already verified by the client
// @Tags         Auth
// @Param        body body types.SocialLoginRequest true "Identity"
// @Success      200 {object} types.AuthResponse
// @Router       /api/social [post]
func (h *HandlerImpl) Social(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Social")
	defer span.End()

	var req types.SocialLoginRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	resp, err := h.service.SocialLogin(ctx, req)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// BeginOAuth redirects to the provider named in the {provider} URL parameter.
func (h *HandlerImpl) BeginOAuth(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "Starting OAuth flow", slog.String("provider", chi.URLParam(r, "provider")))
	gothic.BeginAuthHandler(w, r)
}

// CompleteOAuth finishes the provider round trip and signs the user in.
func (h *HandlerImpl) CompleteOAuth(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "CompleteOAuth", trace.WithAttributes(
		attribute.String("oauth.provider", chi.URLParam(r, "provider")),
	))
	defer span.End()

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		span.RecordError(err)
		h.logger.WarnContext(ctx, "OAuth completion failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusUnauthorized, "OAuth sign in failed")
		return
	}

	name := gothUser.Name
	if name == "" {
		name = gothUser.NickName
	}
	req := types.SocialLoginRequest{Email: gothUser.Email, Name: name}
	if err := api.ValidateStruct(&req); err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}

	resp, err := h.service.SocialLogin(ctx, req)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}
