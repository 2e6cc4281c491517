package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hossamsharif/shopledger/backend/src/models"
	"github.com/hossamsharif/shopledger/backend/src/services"
)

type FinancialYearHandler struct {
	yearService services.FinancialYearService
}

func NewFinancialYearHandler(yearService services.FinancialYearService) *FinancialYearHandler {
	return &FinancialYearHandler{yearService: yearService}
}

func (h *FinancialYearHandler) HandleCreateYear(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var input models.CreateFinancialYearInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	year, err := h.yearService.CreateFinancialYear(shopID, input)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, year)
}

func (h *FinancialYearHandler) HandleListYears(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	years, err := h.yearService.ListFinancialYears(shopID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, years)
}

func (h *FinancialYearHandler) HandleGetYear(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	yearID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid year id", http.StatusBadRequest)
		return
	}
	year, err := h.yearService.GetFinancialYear(shopID, yearID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, year)
}

func (h *FinancialYearHandler) HandleUpdateYear(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	yearID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid year id", http.StatusBadRequest)
		return
	}
	var input models.UpdateFinancialYearInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	year, err := h.yearService.UpdateFinancialYear(shopID, yearID, input)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, year)
}

func (h *FinancialYearHandler) HandleSetCurrentYear(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	yearID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid year id", http.StatusBadRequest)
		return
	}
	if err := h.yearService.SetCurrentYear(shopID, yearID); err != nil {
		sendDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type stockValueRequest struct {
	Value float64 `json:"value"`
}

func (h *FinancialYearHandler) HandleUpdateOpeningStock(w http.ResponseWriter, r *http.Request) {
	shopID, userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	yearID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid year id", http.StatusBadRequest)
		return
	}
	var req stockValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.yearService.UpdateOpeningStockValue(shopID, yearID, req.Value, userID); err != nil {
		sendDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FinancialYearHandler) HandleUpdateClosingStock(w http.ResponseWriter, r *http.Request) {
	shopID, userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	yearID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid year id", http.StatusBadRequest)
		return
	}
	var req stockValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.yearService.UpdateClosingStockValue(shopID, yearID, req.Value, userID); err != nil {
		sendDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FinancialYearHandler) HandleBulkUpdateStockValues(w http.ResponseWriter, r *http.Request) {
	shopID, userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var updates []models.StockValueUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.yearService.BulkUpdateStockValues(shopID, updates, userID); err != nil {
		sendDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type closeYearRequest struct {
	ClosingStockValue float64 `json:"closing_stock_value"`
}

func (h *FinancialYearHandler) HandleCloseYear(w http.ResponseWriter, r *http.Request) {
	shopID, userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	yearID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid year id", http.StatusBadRequest)
		return
	}
	var req closeYearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.yearService.CloseFinancialYear(shopID, yearID, req.ClosingStockValue, userID); err != nil {
		sendDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FinancialYearHandler) HandleDeleteYear(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	yearID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid year id", http.StatusBadRequest)
		return
	}
	if err := h.yearService.DeleteFinancialYear(shopID, yearID); err != nil {
		sendDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FinancialYearHandler) HandleListStockValueHistory(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	yearID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid year id", http.StatusBadRequest)
		return
	}
	history, err := h.yearService.ListStockValueHistory(shopID, yearID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, history)
}
