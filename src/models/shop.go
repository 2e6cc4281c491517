package models

import "time"

// Shop is the tenant boundary. Every other entity carries a shop ID and
// all uniqueness constraints are scoped to it.
type Shop struct {
	ID        int64     `json:"id"`
	ShopCode  string    `json:"shop_code"`
	NameAr    string    `json:"name_ar"`
	NameEn    string    `json:"name_en"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateShopInput carries the fields for registering a new shop.
type CreateShopInput struct {
	ShopCode string `json:"shop_code"`
	NameAr   string `json:"name_ar"`
	NameEn   string `json:"name_en"`
}

// ProfitResult is the computed profit picture of one financial year.
type ProfitResult struct {
	FinancialYearID   int64    `json:"financial_year_id"`
	YearName          string   `json:"year_name"`
	Revenue           float64  `json:"revenue"`
	Expenses          float64  `json:"expenses"`
	GrossProfit       float64  `json:"gross_profit"`
	OpeningStockValue float64  `json:"opening_stock_value"`
	ClosingStockValue *float64 `json:"closing_stock_value,omitempty"`
	StockAdjustment   float64  `json:"stock_adjustment"`
	NetProfit         float64  `json:"net_profit"`
	IsClosed          bool     `json:"is_closed"`
}

// ShopProfitSummary aggregates profit results across all of a shop's years.
type ShopProfitSummary struct {
	ShopID               int64          `json:"shop_id"`
	Years                []ProfitResult `json:"years"`
	TotalRevenue         float64        `json:"total_revenue"`
	TotalExpenses        float64        `json:"total_expenses"`
	TotalNetProfit       float64        `json:"total_net_profit"`
	TotalStockAdjustment float64        `json:"total_stock_adjustment"`
	SkippedYearIDs       []int64        `json:"skipped_year_ids,omitempty"`
}

// ProfitComparison holds the deltas and growth rates between two years.
type ProfitComparison struct {
	Current              ProfitResult `json:"current"`
	Previous             ProfitResult `json:"previous"`
	RevenueDelta         float64      `json:"revenue_delta"`
	ExpenseDelta         float64      `json:"expense_delta"`
	GrossProfitDelta     float64      `json:"gross_profit_delta"`
	NetProfitDelta       float64      `json:"net_profit_delta"`
	StockAdjustmentDelta float64      `json:"stock_adjustment_delta"`
	RevenueGrowth        float64      `json:"revenue_growth"`
	NetProfitGrowth      float64      `json:"net_profit_growth"`
}

// ClosureValidation is the advisory result of checking a proposed year closure.
type ClosureValidation struct {
	FinancialYearID    int64    `json:"financial_year_id"`
	ProposedClosing    float64  `json:"proposed_closing_stock_value"`
	GrossProfit        float64  `json:"gross_profit"`
	StockAdjustment    float64  `json:"stock_adjustment"`
	ProjectedNetProfit float64  `json:"projected_net_profit"`
	Warnings           []string `json:"warnings"`
	IsValid            bool     `json:"is_valid"`
}

// ProfitTrendPoint is one closed year inside a trend report.
type ProfitTrendPoint struct {
	ProfitResult
	ProfitMargin float64 `json:"profit_margin"`
}

// ProfitTrends is a multi-year trend report over closed years only.
type ProfitTrends struct {
	ShopID           int64              `json:"shop_id"`
	Points           []ProfitTrendPoint `json:"points"`
	AverageRevenue   float64            `json:"average_revenue"`
	AverageNetProfit float64            `json:"average_net_profit"`
	AverageMargin    float64            `json:"average_margin"`
}
