package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hossamsharif/shopledger/backend/src/models"
	"github.com/hossamsharif/shopledger/backend/src/services"
)

type TransactionHandler struct {
	transactionService services.TransactionService
}

func NewTransactionHandler(transactionService services.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

func (h *TransactionHandler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var input models.CreateTransactionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	txn, err := h.transactionService.CreateTransaction(shopID, input)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, txn)
}

func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	transactionID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid transaction id", http.StatusBadRequest)
		return
	}
	txn, err := h.transactionService.GetTransaction(shopID, transactionID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, txn)
}

func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	filter, err := parseTransactionFilter(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	txns, err := h.transactionService.ListTransactions(shopID, filter)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, txns)
}

func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	transactionID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid transaction id", http.StatusBadRequest)
		return
	}
	if err := h.transactionService.DeleteTransaction(shopID, transactionID); err != nil {
		sendDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseTransactionFilter(r *http.Request) (models.TransactionFilter, error) {
	var filter models.TransactionFilter
	q := r.URL.Query()
	if raw := q.Get("financial_year_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, errInvalidQueryParam("financial_year_id")
		}
		filter.FinancialYearID = &id
	}
	if raw := q.Get("account_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, errInvalidQueryParam("account_id")
		}
		filter.AccountID = &id
	}
	if raw := q.Get("transaction_type"); raw != "" {
		filter.TransactionType = &raw
	}
	if raw := q.Get("date_from"); raw != "" {
		filter.DateFrom = &raw
	}
	if raw := q.Get("date_to"); raw != "" {
		filter.DateTo = &raw
	}
	filter.Offset = queryInt(r, "offset", 0)
	filter.Limit = queryInt(r, "limit", 0)
	return filter, nil
}
