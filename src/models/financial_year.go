package models

import "time"

// FinancialYear is one accounting period of a shop. Dates are calendar
// dates in YYYY-MM-DD form; periods of the same shop never overlap.
type FinancialYear struct {
	ID                int64     `json:"id"`
	ShopID            int64     `json:"shop_id"`
	Name              string    `json:"name"`
	StartDate         string    `json:"start_date"`
	EndDate           string    `json:"end_date"`
	OpeningStockValue float64   `json:"opening_stock_value"`
	ClosingStockValue *float64  `json:"closing_stock_value,omitempty"`
	IsCurrent         bool      `json:"is_current"`
	IsClosed          bool      `json:"is_closed"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// StockValueField names the financial-year field a stock audit row refers to.
type StockValueField string

const (
	StockFieldOpening StockValueField = "openingStockValue"
	StockFieldClosing StockValueField = "closingStockValue"
)

// StockValueHistory is one append-only audit row written alongside every
// stock-value mutation, in the same transaction.
type StockValueHistory struct {
	ID              int64           `json:"id"`
	FinancialYearID int64           `json:"financial_year_id"`
	FieldChanged    StockValueField `json:"field_changed"`
	OldValue        float64         `json:"old_value"`
	NewValue        float64         `json:"new_value"`
	ChangedBy       int64           `json:"changed_by"`
	ChangedAt       time.Time       `json:"changed_at"`
}

type CreateFinancialYearInput struct {
	Name              string  `json:"name"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	OpeningStockValue float64 `json:"opening_stock_value"`
}

type UpdateFinancialYearInput struct {
	Name      *string `json:"name,omitempty"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
}

// StockValueUpdate is one item of a bulk stock-value update batch.
type StockValueUpdate struct {
	FinancialYearID int64           `json:"financial_year_id"`
	Field           StockValueField `json:"field"`
	NewValue        float64         `json:"new_value"`
}
