package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/segyhp/pawn-ledger/internal/domain"
	"github.com/segyhp/pawn-ledger/internal/service"
	customError "github.com/segyhp/pawn-ledger/pkg/errors"
	"github.com/segyhp/pawn-ledger/pkg/response"
)

type LedgerHandler struct {
	service *service.LedgerService
	logger  *slog.Logger
}

func NewLedgerHandler(service *service.LedgerService, logger *slog.Logger) *LedgerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerHandler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the ledger API under router
func (h *LedgerHandler) Register(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(response.JSONMiddleware)

	api.HandleFunc("/loans", h.CreateLoan).Methods("POST")
	api.HandleFunc("/loans/{loanId}", h.GetLoan).Methods("GET")
	api.HandleFunc("/loans/{loanId}", h.UpdateLoan).Methods("PUT")
	api.HandleFunc("/loans/{loanId}/status", h.OverrideLoanStatus).Methods("PUT")
	api.HandleFunc("/periods/{periodId}/status", h.SetPeriodStatus).Methods("PUT")
	api.HandleFunc("/allocations/{allocationId}/paid", h.SetAllocationPaid).Methods("PUT")
	api.HandleFunc("/investors/{investorId}/ledger", h.InvestorLedger).Methods("GET")
	api.HandleFunc("/investors/{investorId}/ledger/verify", h.VerifyInvestorLedger).Methods("GET")
	api.HandleFunc("/investors/{investorId}/reconcile", h.Reconcile).Methods("POST")
	api.HandleFunc("/entries", h.CreateEntry).Methods("POST")
	api.HandleFunc("/entries/{entryId}", h.UpdateEntry).Methods("PUT")
	api.HandleFunc("/entries/{entryId}", h.DeleteEntry).Methods("DELETE")
	api.HandleFunc("/owners/{ownerId}/sweep", h.Sweep).Methods("POST")
}

func (h *LedgerHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	result, err := h.service.CreateLoan(r.Context(), &request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, result)
}

func (h *LedgerHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	loan, allocations, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, domain.LoanDetail{Loan: loan, Allocations: allocations})
}

func (h *LedgerHandler) UpdateLoan(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	var request domain.UpdateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	request.LoanID = loanID

	result, err := h.service.UpdateLoan(r.Context(), &request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, result)
}

func (h *LedgerHandler) OverrideLoanStatus(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r, "loanId")
	if !ok {
		return
	}

	var request domain.StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	loan, err := h.service.OverrideLoanStatus(r.Context(), loanID, domain.LoanStatus(request.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, loan)
}

func (h *LedgerHandler) SetPeriodStatus(w http.ResponseWriter, r *http.Request) {
	periodID, ok := pathID(w, r, "periodId")
	if !ok {
		return
	}

	var request domain.StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	loan, err := h.service.SetPeriodStatus(r.Context(), periodID, domain.PeriodStatus(request.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, loan)
}

func (h *LedgerHandler) SetAllocationPaid(w http.ResponseWriter, r *http.Request) {
	allocationID, ok := pathID(w, r, "allocationId")
	if !ok {
		return
	}

	var request domain.PaidRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	loan, err := h.service.SetAllocationPaid(r.Context(), allocationID, request.Paid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, loan)
}

func (h *LedgerHandler) InvestorLedger(w http.ResponseWriter, r *http.Request) {
	investorID, ok := pathID(w, r, "investorId")
	if !ok {
		return
	}

	entries, err := h.service.InvestorLedger(r.Context(), investorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []*domain.LedgerEntry{}
	}
	response.Success(w, entries)
}

func (h *LedgerHandler) VerifyInvestorLedger(w http.ResponseWriter, r *http.Request) {
	investorID, ok := pathID(w, r, "investorId")
	if !ok {
		return
	}

	if err := h.service.VerifyInvestorLedger(r.Context(), investorID); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, map[string]string{"investor_id": investorID.String(), "status": "consistent"})
}

func (h *LedgerHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	investorID, ok := pathID(w, r, "investorId")
	if !ok {
		return
	}

	// the body is optional; without one every balance is eligible for rewrite
	var request domain.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	updated, err := h.service.ReconcileBalances(r.Context(), []uuid.UUID{investorID}, request.From)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, map[string]int{"balances_updated": updated})
}

func (h *LedgerHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var request domain.EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	result, err := h.service.CreateEntry(r.Context(), &request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, result)
}

func (h *LedgerHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathID(w, r, "entryId")
	if !ok {
		return
	}

	var request domain.EntryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	result, err := h.service.UpdateEntry(r.Context(), entryID, &request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, result)
}

func (h *LedgerHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathID(w, r, "entryId")
	if !ok {
		return
	}

	result, err := h.service.DeleteEntry(r.Context(), entryID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, result)
}

func (h *LedgerHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := pathID(w, r, "ownerId")
	if !ok {
		return
	}

	report, err := h.service.SweepOverdue(r.Context(), ownerID, h.service.Now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Success(w, report)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps business error codes onto HTTP statuses
func (h *LedgerHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var be *customError.BusinessError
	if !errors.As(err, &be) {
		h.logger.ErrorContext(r.Context(), "unhandled error", slog.String("error", err.Error()))
		response.InternalServerError(w, "Internal server error", nil)
		return
	}

	status := http.StatusInternalServerError
	switch be.Code {
	case customError.ErrCodeValidation:
		status = http.StatusBadRequest
	case customError.ErrCodeLoanNotFound,
		customError.ErrCodeAllocationNotFound,
		customError.ErrCodePeriodNotFound,
		customError.ErrCodeEntryNotFound:
		status = http.StatusNotFound
	case customError.ErrCodeEntryImmutable, customError.ErrCodeConsistency:
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("code", be.Code),
			slog.String("error", err.Error()),
		)
		response.ErrorWithCode(w, status, be.Code, be.Message, nil)
		return
	}
	response.ErrorWithCode(w, status, be.Code, be.Message, be.Err)
}
