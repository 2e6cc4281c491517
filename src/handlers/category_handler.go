package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hossamsharif/shopledger/backend/src/models"
	"github.com/hossamsharif/shopledger/backend/src/services"
)

type CategoryHandler struct {
	categoryService services.CategoryService
}

func NewCategoryHandler(categoryService services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

func (h *CategoryHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var input models.CreateCategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	category, err := h.categoryService.CreateCategory(shopID, input)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	categories, err := h.categoryService.ListCategories(shopID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) HandleCategoryTree(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	forest, err := h.categoryService.CategoryTree(shopID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, forest)
}

func (h *CategoryHandler) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	categoryID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid category id", http.StatusBadRequest)
		return
	}
	var input models.UpdateCategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	category, err := h.categoryService.UpdateCategory(shopID, categoryID, input)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	categoryID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid category id", http.StatusBadRequest)
		return
	}
	if err := h.categoryService.DeleteCategory(shopID, categoryID); err != nil {
		sendDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignAccountRequest struct {
	AccountID int64 `json:"account_id"`
}

func (h *CategoryHandler) HandleAssignAccount(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	categoryID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid category id", http.StatusBadRequest)
		return
	}
	var req assignAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	assignment, err := h.categoryService.AssignAccount(shopID, categoryID, req.AccountID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, assignment)
}

func (h *CategoryHandler) HandleUnassignAccount(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	categoryID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid category id", http.StatusBadRequest)
		return
	}
	accountID, err := urlParamInt64(r, "accountID")
	if err != nil {
		sendJSONError(w, "Invalid account id", http.StatusBadRequest)
		return
	}
	if err := h.categoryService.UnassignAccount(shopID, categoryID, accountID); err != nil {
		sendDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CategoryHandler) HandleListAssignments(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	categoryID, err := urlParamInt64(r, "id")
	if err != nil {
		sendJSONError(w, "Invalid category id", http.StatusBadRequest)
		return
	}
	assignments, err := h.categoryService.ListAssignments(shopID, categoryID)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, assignments)
}

func (h *CategoryHandler) HandleBulkImport(w http.ResponseWriter, r *http.Request) {
	shopID, _, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var inputs []models.CreateCategoryInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	summary, err := h.categoryService.BulkImportCategories(shopID, inputs)
	if err != nil {
		sendDomainError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, summary)
}
