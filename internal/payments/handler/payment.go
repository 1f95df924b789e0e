package handler

import (
	"encoding/json"
	"net/http"

	"travelapi/internal/payments/service"
	apperrors "travelapi/pkg/errors"
	httputil "travelapi/pkg/http"
	"travelapi/pkg/logger"
	"travelapi/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type PaymentHandler struct {
	service      service.PaymentService
	webhookGuard func(httprouter.Handle) httprouter.Handle
	log          *logger.Logger
}

func NewPaymentHandler(
	service service.PaymentService,
	webhookGuard func(httprouter.Handle) httprouter.Handle,
	log *logger.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		service:      service,
		webhookGuard: webhookGuard,
		log:          log,
	}
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	resp, err := h.service.Initiate(r.Context(), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write success response", "handler", "Create", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.PaymentWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid request body")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Webhook", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := h.service.HandleWebhook(r.Context(), &req); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Webhook", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, map[string]string{"status": "ok"}); err != nil {
		h.log.Error("failed to write success response", "handler", "Webhook", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/payments", h.Create)
	router.POST("/api/v1/payments/webhook", h.webhookGuard(h.Webhook))
}
