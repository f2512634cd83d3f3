package admin

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

// Dashboard godoc
// @Summary      Admin dashboard counters
// @Tags         Admin
// @Success      200 {object} types.DashboardStats
// @Router       /api/admin/dashboard [get]
func (h *HandlerImpl) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AdminHandler").Start(r.Context(), "Dashboard", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/admin/dashboard"),
	))
	defer span.End()

	stats, err := h.service.Dashboard(ctx)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, stats)
}

func (h *HandlerImpl) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, users)
}

func (h *HandlerImpl) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.ListCourses(r.Context())
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, courses)
}

func (h *HandlerImpl) DeleteUser(w http.ResponseWriter, r *http.Request) {
	var req types.UserIDRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := h.service.DeleteUser(r.Context(), req.UserID); err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "User deleted"})
}

func (h *HandlerImpl) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.service.ListAdmins(r.Context())
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, admins)
}

func (h *HandlerImpl) AddAdmin(w http.ResponseWriter, r *http.Request) {
	var req types.EmailRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	caller, _ := auth.GetUserEmailFromContext(r.Context())
	admin, err := h.service.AddAdmin(r.Context(), caller, req.Email)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"success": true, "admin": admin})
}

func (h *HandlerImpl) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
	var req types.EmailRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	caller, _ := auth.GetUserEmailFromContext(r.Context())
	if err := h.service.RemoveAdmin(r.Context(), caller, req.Email); err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Admin removed"})
}

// Contact godoc
// @Summary      Submit the public contact form
// @Tags         Contact
// @Param        body body types.Contact true "Message"
// @Success      200 {object} types.Response
// @Router       /api/contact [post]
func (h *HandlerImpl) Contact(w http.ResponseWriter, r *http.Request) {
	var req types.Contact
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	if _, err := h.service.SubmitContact(r.Context(), req); err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Submitted"})
}

func (h *HandlerImpl) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.service.ListContacts(r.Context())
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, contacts)
}
