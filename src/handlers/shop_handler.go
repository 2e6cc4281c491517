package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hossamsharif/shopledger/backend/src/logger"
	"github.com/hossamsharif/shopledger/backend/src/models"
	"github.com/hossamsharif/shopledger/backend/src/services"
)

type ShopHandler struct {
	shopService    services.ShopService
	accountService services.AccountService
}

func NewShopHandler(shopService services.ShopService, accountService services.AccountService) *ShopHandler {
	return &ShopHandler{
		shopService:    shopService,
		accountService: accountService,
	}
}

// HandleCreateShop registers a shop and provisions its default chart of
// accounts. Provisioning is an explicit setup step here, never a hidden
// side effect of a later read.
func (h *ShopHandler) HandleCreateShop(w http.ResponseWriter, r *http.Request) {
	var input models.CreateShopInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	shop, err := h.shopService.CreateShop(input)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	accounts, err := h.accountService.ProvisionDefaultAccounts(shop.ID, shop.ShopCode)
	if err != nil {
		logger.FromContext(r.Context()).Error("Default account provisioning failed for new shop",
			"shopID", shop.ID, "error", err)
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, map[string]any{
		"shop":     shop,
		"accounts": accounts,
	})
}

func (h *ShopHandler) HandleGetShop(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	shop, err := h.shopService.GetShop(shopID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, shop)
}
