package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hossamsharif/shopledger/backend/src/models"
	"github.com/hossamsharif/shopledger/backend/src/services"
)

type AccountHandler struct {
	accountService services.AccountService
}

func NewAccountHandler(accountService services.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

func (h *AccountHandler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var input models.CreateAccountInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	account, err := h.accountService.CreateAccount(shopID, input)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	accountID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	account, err := h.accountService.GetAccount(shopID, accountID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	accounts, err := h.accountService.ListAccounts(shopID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) HandleAccountTree(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	forest, err := h.accountService.AccountTree(shopID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, forest)
}

func (h *AccountHandler) HandleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	accountID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	var input models.UpdateAccountInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	account, err := h.accountService.UpdateAccount(shopID, accountID, input)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	accountID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	if err := h.accountService.DeleteAccount(shopID, accountID); err != nil {
		sendDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) HandleValidateHierarchy(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	valid, err := h.accountService.ValidateHierarchyConsistency(shopID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]bool{"consistent": valid})
}
