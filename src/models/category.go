package models

import "time"

// ExpenseCategory mirrors Account for tree purposes: same three-level
// hierarchy and bilingual naming, but no type or balance of its own.
type ExpenseCategory struct {
	ID               int64     `json:"id"`
	ShopID           int64     `json:"shop_id"`
	Code             string    `json:"code"`
	NameAr           string    `json:"name_ar"`
	NameEn           string    `json:"name_en"`
	Level            int       `json:"level"`
	ParentID         *int64    `json:"parent_id,omitempty"`
	IsSystemCategory bool      `json:"is_system_category"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (c ExpenseCategory) NodeID() int64        { return c.ID }
func (c ExpenseCategory) NodeParentID() *int64 { return c.ParentID }
func (c ExpenseCategory) NodeLevel() int       { return c.Level }
func (c ExpenseCategory) NodeCode() string     { return c.Code }
func (c ExpenseCategory) NodeIsSystem() bool   { return c.IsSystemCategory }

// CategoryAssignment links an expense category to an expense account.
// A pair is unique per shop.
type CategoryAssignment struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"category_id"`
	AccountID  int64     `json:"account_id"`
	ShopID     int64     `json:"shop_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateCategoryInput struct {
	Code             string `json:"code"`
	NameAr           string `json:"name_ar"`
	NameEn           string `json:"name_en"`
	ParentID         *int64 `json:"parent_id,omitempty"`
	IsSystemCategory bool   `json:"is_system_category"`
}

type UpdateCategoryInput struct {
	NameAr   *string `json:"name_ar,omitempty"`
	NameEn   *string `json:"name_en,omitempty"`
	ParentID *int64  `json:"parent_id,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// BulkImportItemResult reports the outcome of one row of a bulk category import.
type BulkImportItemResult struct {
	Code    string `json:"code"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	ID      int64  `json:"id,omitempty"`
}

// BulkImportSummary aggregates per-item results of a bulk import.
type BulkImportSummary struct {
	Total     int                    `json:"total"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Items     []BulkImportItemResult `json:"items"`
}
