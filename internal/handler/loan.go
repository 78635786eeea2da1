package handler

import (
	"encoding/json"
	"net/http"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/DataGeek404/micro-finance-app-sub000/internal/domain"
	"github.com/DataGeek404/micro-finance-app-sub000/internal/service"
	"github.com/DataGeek404/micro-finance-app-sub000/pkg/amortization"
	"github.com/DataGeek404/micro-finance-app-sub000/pkg/response"
)

type LoanHandler struct {
	loans     *service.LoanService
	payments  *service.PaymentService
	validator *validator.Validate
}

func NewLoanHandler(loans *service.LoanService, payments *service.PaymentService) *LoanHandler {
	return &LoanHandler{
		loans:     loans,
		payments:  payments,
		validator: newValidator(),
	}
}

// newValidator registers decimal.Decimal so numeric tags like gt=0 apply to
// monetary fields.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	loan, err := h.loans.CreateLoan(r.Context(), &request)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, domain.LoanResponse{Loan: loan})
}

func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanID(w, r)
	if !ok {
		return
	}

	loan, err := h.loans.GetLoan(r.Context(), loanID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, domain.LoanResponse{Loan: loan})
}

func (h *LoanHandler) ApproveLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanID(w, r)
	if !ok {
		return
	}

	var request domain.ApproveLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	loan, err := h.loans.Approve(r.Context(), loanID, request.ApprovedBy)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, domain.LoanResponse{Loan: loan})
}

func (h *LoanHandler) ActivateLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanID(w, r)
	if !ok {
		return
	}

	loan, repayments, err := h.loans.Activate(r.Context(), loanID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, domain.ActivateLoanResponse{Loan: loan, Schedule: repayments})
}

func (h *LoanHandler) RejectLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanID(w, r)
	if !ok {
		return
	}

	loan, err := h.loans.Reject(r.Context(), loanID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, domain.LoanResponse{Loan: loan})
}

func (h *LoanHandler) DefaultLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanID(w, r)
	if !ok {
		return
	}

	loan, err := h.loans.MarkDefaulted(r.Context(), loanID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, domain.LoanResponse{Loan: loan})
}

func (h *LoanHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanID(w, r)
	if !ok {
		return
	}

	var request domain.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	result, err := h.payments.RecordPayment(r.Context(), loanID, request.Amount, request.Method)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *LoanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, ok := h.loanID(w, r)
	if !ok {
		return
	}

	repayments, err := h.loans.GetSchedule(r.Context(), loanID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, domain.ScheduleResponse{LoanID: loanID, Schedule: repayments})
}

func (h *LoanHandler) ComputeAmortization(w http.ResponseWriter, r *http.Request) {
	var request domain.AmortizationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	rows, err := amortization.Compute(request.Principal, request.AnnualRatePercent, request.TermMonths, amortization.Method(request.Method))
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, domain.AmortizationResponse{Method: request.Method, Schedule: rows})
}

func (h *LoanHandler) loanID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "invalid loan id", err)
		return uuid.Nil, false
	}
	return id, true
}
