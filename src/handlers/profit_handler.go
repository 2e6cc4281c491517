package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hossamsharif/shopledger/backend/src/services"
)

type ProfitHandler struct {
	profitService services.ProfitService
}

func NewProfitHandler(profitService services.ProfitService) *ProfitHandler {
	return &ProfitHandler{profitService: profitService}
}

func (h *ProfitHandler) HandleYearProfit(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	yearID, err := urlParamInt64(r, "yearID")
	if err != nil {
		sendJSONError(w, "Invalid year id", http.StatusBadRequest)
		return
	}
	result, err := h.profitService.CalculateYearProfit(shopID, yearID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

func (h *ProfitHandler) HandleShopProfits(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	summary, err := h.profitService.CalculateShopProfits(shopID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, summary)
}

func (h *ProfitHandler) HandleCompareProfits(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	currentID, err := urlParamInt64(r, "currentYearID")
	if err != nil {
		sendJSONError(w, "Invalid current year id", http.StatusBadRequest)
		return
	}
	previousID, err := urlParamInt64(r, "previousYearID")
	if err != nil {
		sendJSONError(w, "Invalid previous year id", http.StatusBadRequest)
		return
	}
	comparison, err := h.profitService.CompareProfits(shopID, currentID, previousID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, comparison)
}

type validateClosureRequest struct {
	ProposedClosingStock float64 `json:"proposed_closing_stock"`
}

func (h *ProfitHandler) HandleValidateClosure(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	yearID, err := urlParamInt64(r, "yearID")
	if err != nil {
		sendJSONError(w, "Invalid year id", http.StatusBadRequest)
		return
	}
	var req validateClosureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	result, err := h.profitService.ValidateYearClosure(shopID, yearID, req.ProposedClosingStock)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, result)
}

func (h *ProfitHandler) HandleProfitTrends(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	yearCount := queryInt(r, "years", 3)
	trends, err := h.profitService.GetProfitTrends(shopID, yearCount)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, trends)
}
