package banktransfer

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ai-course-generator/internal/api"
	"github.com/FACorreiaa/ai-course-generator/internal/api/auth"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

const maxReceiptSize = 10 << 20

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

// Submit godoc
// @Summary      Submit a bank transfer receipt
// @Tags         Subscriptions
// @Accept       multipart/form-data
// @Param        receipt formData file true "Receipt image or pdf"
// @Param        plan formData string true "Requested plan"
// @Success      200 {object} map[string]interface{}
// @Router       /api/banktransfer [post]
func (h *HandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("BankTransferHandler").Start(r.Context(), "Submit", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/banktransfer"),
	))
	defer span.End()

	actor, err := auth.ActorFromContext(ctx)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptSize+1<<20)
	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.ErrorResponse(w, r, http.StatusBadRequest, fmt.Sprintf("Receipt too large, the limit is %dMB", maxReceiptSize>>20))
			return
		}
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("receipt")
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Receipt file is required")
		return
	}
	defer file.Close()

	amount, _ := strconv.ParseFloat(r.FormValue("amount"), 64)
	transfer := types.BankTransfer{
		Plan:       r.FormValue("plan"),
		Amount:     amount,
		FullName:   r.FormValue("fullName"),
		Email:      r.FormValue("email"),
		Address:    r.FormValue("address"),
		City:       r.FormValue("city"),
		Country:    r.FormValue("country"),
		PostalCode: r.FormValue("postalCode"),
	}
	if transfer.Plan == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Plan is required")
		return
	}

	created, err := h.service.Submit(ctx, actor, transfer, header.Filename, file)
	if err != nil {
		span.RecordError(err)
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Bank transfer submitted for review",
		"transfer": created,
	})
}

func (h *HandlerImpl) ListPending(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, types.TransferPending)
}

func (h *HandlerImpl) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "")
}

func (h *HandlerImpl) list(w http.ResponseWriter, r *http.Request, status string) {
	transfers, err := h.service.List(r.Context(), status)
	if err != nil {
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"success": true, "transfers": transfers})
}

func (h *HandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	var req types.TransferIDRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	h.updateStatus(w, r, req.ID.String(), func() (*types.BankTransfer, error) {
		return h.service.UpdateStatus(r.Context(), req.ID, types.TransferApproved)
	})
}

func (h *HandlerImpl) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateTransferStatusRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	h.updateStatus(w, r, req.ID.String(), func() (*types.BankTransfer, error) {
		return h.service.UpdateStatus(r.Context(), req.ID, req.Status)
	})
}

func (h *HandlerImpl) updateStatus(w http.ResponseWriter, r *http.Request, id string, fn func() (*types.BankTransfer, error)) {
	transfer, err := fn()
	if err != nil {
		h.logger.WarnContext(r.Context(), "Bank transfer review failed", slog.String("transferID", id), slog.Any("error", err))
		api.ServiceError(w, r, h.logger, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Bank transfer " + transfer.Status,
		"transfer": transfer,
	})
}
