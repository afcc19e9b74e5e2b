package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/apps-eduard/exits-loan-management-sub001/internal/domain"
	"github.com/apps-eduard/exits-loan-management-sub001/internal/service"
	"github.com/apps-eduard/exits-loan-management-sub001/pkg/response"
)

type PaymentHandler struct {
	service   *service.PaymentService
	validator *validator.Validate
}

func NewPaymentHandler(service *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service:   service,
		validator: validator.New(),
	}
}

// MakePayment handles POST /api/v1/loans/{loanId}/payments
func (h *PaymentHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	var request domain.MakePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	receipt, installments, err := h.service.MakePayment(r.Context(), loanID, &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, &domain.MakePaymentResponse{Receipt: receipt, Installments: installments})
}

// VoidPayment handles POST /api/v1/receipts/{receiptNo}/void
func (h *PaymentHandler) VoidPayment(w http.ResponseWriter, r *http.Request) {
	receiptNo := mux.Vars(r)["receiptNo"]

	result, err := h.service.VoidPayment(r.Context(), receiptNo)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, result)
}
