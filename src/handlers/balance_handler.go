package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/hossamsharif/shopledger/backend/src/models"
	"github.com/hossamsharif/shopledger/backend/src/services"
)

type BalanceHandler struct {
	balanceService services.BalanceService
}

func NewBalanceHandler(balanceService services.BalanceService) *BalanceHandler {
	return &BalanceHandler{balanceService: balanceService}
}

func (h *BalanceHandler) HandleCreateCashAccount(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var input models.CreateCashAccountInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	account, err := h.balanceService.CreateCashAccount(shopID, input)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, account)
}

func (h *BalanceHandler) HandleCreateBankAccount(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var input models.CreateBankAccountInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	account, err := h.balanceService.CreateBankAccount(shopID, input)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, account)
}

func (h *BalanceHandler) HandleListCashAccounts(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	accounts, err := h.balanceService.ListCashAccounts(shopID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, accounts)
}

func (h *BalanceHandler) HandleListBankAccounts(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	accounts, err := h.balanceService.ListBankAccounts(shopID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, accounts)
}

type updateBalanceRequest struct {
	AccountKind models.BalanceAccountKind `json:"account_kind"`
	NewBalance  float64                   `json:"new_balance"`
	Reason      string                    `json:"reason"`
}

func (h *BalanceHandler) HandleUpdateBalance(w http.ResponseWriter, r *http.Request) {
	shopID, userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	accountID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	var req updateBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	history, err := h.balanceService.UpdateBalance(shopID, req.AccountKind, accountID, req.NewBalance, req.Reason, userID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, history)
}

type setDefaultRequest struct {
	AccountKind models.BalanceAccountKind `json:"account_kind"`
}

func (h *BalanceHandler) HandleSetDefault(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	accountID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	var req setDefaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.balanceService.SetDefaultAccount(shopID, req.AccountKind, accountID); err != nil {
		sendDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BalanceHandler) HandleListBalanceHistory(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	filter := models.BalanceHistoryFilter{
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 50),
	}
	q := r.URL.Query()
	if kind := q.Get("account_kind"); kind != "" {
		k := models.BalanceAccountKind(kind)
		filter.AccountKind = &k
	}
	if raw := q.Get("account_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.AccountID = &id
		}
	}
	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.From = &t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.To = &t
		}
	}

	history, err := h.balanceService.ListBalanceHistory(shopID, filter)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, history)
}
