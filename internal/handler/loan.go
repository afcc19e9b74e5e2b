package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/apps-eduard/exits-loan-management-sub001/internal/domain"
	"github.com/apps-eduard/exits-loan-management-sub001/internal/service"
	customError "github.com/apps-eduard/exits-loan-management-sub001/pkg/errors"
	"github.com/apps-eduard/exits-loan-management-sub001/pkg/response"
)

type LoanHandler struct {
	service   *service.LoanService
	validator *validator.Validate
}

func NewLoanHandler(service *service.LoanService) *LoanHandler {
	return &LoanHandler{
		service:   service,
		validator: validator.New(),
	}
}

// DisburseLoan handles POST /api/v1/loans
func (h *LoanHandler) DisburseLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.DisburseLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	loan, schedule, err := h.service.DisburseLoan(r.Context(), &request)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Created(w, &domain.DisburseLoanResponse{Loan: loan, Schedule: schedule})
}

// GetSchedule handles GET /api/v1/loans/{loanId}/schedule
func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	schedule, err := h.service.GetSchedule(r.Context(), loanID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, &domain.ScheduleResponse{LoanID: loanID, Schedule: schedule})
}

// GetSummary handles GET /api/v1/loans/{loanId}/summary
func (h *LoanHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	loanID := mux.Vars(r)["loanId"]

	summary, err := h.service.GetSummary(r.Context(), loanID)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	response.Success(w, summary)
}

// writeBusinessError maps domain error codes to HTTP statuses.
func writeBusinessError(w http.ResponseWriter, err error) {
	var bizErr *customError.BusinessError
	if !errors.As(err, &bizErr) {
		response.InternalServerError(w, "Internal server error", err)
		return
	}

	status := http.StatusInternalServerError
	switch bizErr.Code {
	case customError.ErrCodeLoanNotFound, customError.ErrCodeReceiptNotFound:
		status = http.StatusNotFound
	case customError.ErrCodeLoanAlreadyExists,
		customError.ErrCodeConcurrentModification,
		customError.ErrCodeReceiptAlreadyVoided,
		customError.ErrCodeReceiptNotLatest:
		status = http.StatusConflict
	case customError.ErrCodeInvalidTerms,
		customError.ErrCodeInvalidPaymentAmount:
		status = http.StatusBadRequest
	case customError.ErrCodeNoPendingInstallments:
		status = http.StatusUnprocessableEntity
	}

	response.BusinessError(w, status, bizErr.Code, bizErr.Message, bizErr.Err)
}
