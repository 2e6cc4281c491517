package services

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hossamsharif/shopledger/backend/src/database"
	"github.com/hossamsharif/shopledger/backend/src/logger"
	"github.com/hossamsharif/shopledger/backend/src/models"
	"github.com/patrickmn/go-cache"
)

const (
	ckYearProfit  = "profit_shop_%d_year_%d"
	ckShopProfits = "profit_shop_%d_all"
	ckProfitTrend = "profit_shop_%d_trends_%d"
)

type profitServiceImpl struct {
	reportCache *cache.Cache
}

func NewProfitService(reportCache *cache.Cache) ProfitService {
	return &profitServiceImpl{reportCache: reportCache}
}

// InvalidateShopCache drops every cached profit aggregate of the shop. Called
// after any posting or year mutation that changes the figures.
func (s *profitServiceImpl) InvalidateShopCache(shopID int64) {
	prefix := fmt.Sprintf("profit_shop_%d_", shopID)
	for key := range s.reportCache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.reportCache.Delete(key)
		}
	}
	logger.L.Debug("Profit cache invalidated", "shopID", shopID)
}

// yearAggregates sums the ledger per spec: revenue over postings crediting a
// REVENUE account, expenses over postings debiting an EXPENSE account.
func (s *profitServiceImpl) yearAggregates(shopID, yearID int64) (revenue, expenses float64, err error) {
	err = database.DB.QueryRow(`
		SELECT COALESCE(SUM(t.amount), 0)
		FROM transactions t
		JOIN accounts a ON a.id = t.credit_account_id
		WHERE t.shop_id = ? AND t.financial_year_id = ? AND a.account_type = ?`,
		shopID, yearID, models.AccountTypeRevenue).Scan(&revenue)
	if err != nil {
		return 0, 0, fmt.Errorf("summing revenue for year %d: %w", yearID, err)
	}
	err = database.DB.QueryRow(`
		SELECT COALESCE(SUM(t.amount), 0)
		FROM transactions t
		JOIN accounts a ON a.id = t.debit_account_id
		WHERE t.shop_id = ? AND t.financial_year_id = ? AND a.account_type = ?`,
		shopID, yearID, models.AccountTypeExpense).Scan(&expenses)
	if err != nil {
		return 0, 0, fmt.Errorf("summing expenses for year %d: %w", yearID, err)
	}
	return revenue, expenses, nil
}

func (s *profitServiceImpl) loadYear(shopID, yearID int64) (*models.FinancialYear, error) {
	row := database.DB.QueryRow(`SELECT `+yearColumns+` FROM financial_years WHERE id = ? AND shop_id = ?`, yearID, shopID)
	year, err := scanFinancialYear(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("financial year %d: %w", yearID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying financial year %d: %w", yearID, err)
	}
	return year, nil
}

func (s *profitServiceImpl) CalculateYearProfit(shopID, yearID int64) (*models.ProfitResult, error) {
	cacheKey := fmt.Sprintf(ckYearProfit, shopID, yearID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.ProfitResult), nil
	}

	year, err := s.loadYear(shopID, yearID)
	if err != nil {
		return nil, err
	}
	revenue, expenses, err := s.yearAggregates(shopID, yearID)
	if err != nil {
		return nil, err
	}

	grossProfit := revenue - expenses
	stockAdjustment := 0.0
	if year.ClosingStockValue != nil {
		stockAdjustment = *year.ClosingStockValue - year.OpeningStockValue
	}

	result := &models.ProfitResult{
		FinancialYearID:   year.ID,
		YearName:          year.Name,
		Revenue:           revenue,
		Expenses:          expenses,
		GrossProfit:       grossProfit,
		OpeningStockValue: year.OpeningStockValue,
		ClosingStockValue: year.ClosingStockValue,
		StockAdjustment:   stockAdjustment,
		NetProfit:         grossProfit + stockAdjustment,
		IsClosed:          year.IsClosed,
	}
	s.reportCache.Set(cacheKey, result, cache.DefaultExpiration)
	return result, nil
}

// CalculateShopProfits computes every year of the shop oldest-first, skipping
// and logging any year whose computation fails rather than aborting the batch.
func (s *profitServiceImpl) CalculateShopProfits(shopID int64) (*models.ShopProfitSummary, error) {
	cacheKey := fmt.Sprintf(ckShopProfits, shopID)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.ShopProfitSummary), nil
	}

	rows, err := database.DB.Query(
		`SELECT id FROM financial_years WHERE shop_id = ? ORDER BY created_at, id`, shopID)
	if err != nil {
		return nil, fmt.Errorf("querying years for shop %d: %w", shopID, err)
	}
	defer rows.Close()

	var yearIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning year id: %w", err)
		}
		yearIDs = append(yearIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating year ids: %w", err)
	}

	summary := &models.ShopProfitSummary{ShopID: shopID, Years: []models.ProfitResult{}}
	for _, yearID := range yearIDs {
		result, err := s.CalculateYearProfit(shopID, yearID)
		if err != nil {
			logger.L.Warn("Skipping year in shop profit summary", "shopID", shopID, "yearID", yearID, "error", err)
			summary.SkippedYearIDs = append(summary.SkippedYearIDs, yearID)
			continue
		}
		summary.Years = append(summary.Years, *result)
		summary.TotalRevenue += result.Revenue
		summary.TotalExpenses += result.Expenses
		summary.TotalNetProfit += result.NetProfit
		summary.TotalStockAdjustment += result.StockAdjustment
	}

	s.reportCache.Set(cacheKey, summary, cache.DefaultExpiration)
	return summary, nil
}

// growthRate is Δ/previous*100, defined as 0 when the denominator is 0.
func growthRate(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

func (s *profitServiceImpl) CompareProfits(shopID, currentYearID, previousYearID int64) (*models.ProfitComparison, error) {
	current, err := s.CalculateYearProfit(shopID, currentYearID)
	if err != nil {
		return nil, err
	}
	previous, err := s.CalculateYearProfit(shopID, previousYearID)
	if err != nil {
		return nil, err
	}

	return &models.ProfitComparison{
		Current:              *current,
		Previous:             *previous,
		RevenueDelta:         current.Revenue - previous.Revenue,
		ExpenseDelta:         current.Expenses - previous.Expenses,
		GrossProfitDelta:     current.GrossProfit - previous.GrossProfit,
		NetProfitDelta:       current.NetProfit - previous.NetProfit,
		StockAdjustmentDelta: current.StockAdjustment - previous.StockAdjustment,
		RevenueGrowth:        growthRate(current.Revenue, previous.Revenue),
		NetProfitGrowth:      growthRate(current.NetProfit, previous.NetProfit),
	}, nil
}

// ValidateYearClosure produces advisory warnings for a proposed closing stock
// value. The caller decides whether to proceed; nothing here blocks a close.
func (s *profitServiceImpl) ValidateYearClosure(shopID, yearID int64, proposedClosingStock float64) (*models.ClosureValidation, error) {
	year, err := s.loadYear(shopID, yearID)
	if err != nil {
		return nil, err
	}
	revenue, expenses, err := s.yearAggregates(shopID, yearID)
	if err != nil {
		return nil, err
	}

	grossProfit := revenue - expenses
	stockAdjustment := proposedClosingStock - year.OpeningStockValue
	projectedNetProfit := grossProfit + stockAdjustment

	var warnings []string
	if proposedClosingStock < 0 {
		warnings = append(warnings, "proposed closing stock value is negative")
	}
	if math.Abs(stockAdjustment) > 0.5*revenue {
		warnings = append(warnings, fmt.Sprintf(
			"stock adjustment %.2f is unusually large relative to revenue %.2f", stockAdjustment, revenue))
	}
	if projectedNetProfit < 0 && grossProfit > 0 {
		warnings = append(warnings, "closing stock value turns a profitable year into a net loss")
	}

	return &models.ClosureValidation{
		FinancialYearID:    yearID,
		ProposedClosing:    proposedClosingStock,
		GrossProfit:        grossProfit,
		StockAdjustment:    stockAdjustment,
		ProjectedNetProfit: projectedNetProfit,
		Warnings:           warnings,
		IsValid:            len(warnings) == 0,
	}, nil
}

// GetProfitTrends reports the most recent yearCount closed years, oldest to
// newest. Open years are excluded because their figures are not final.
func (s *profitServiceImpl) GetProfitTrends(shopID int64, yearCount int) (*models.ProfitTrends, error) {
	if yearCount <= 0 {
		return nil, fmt.Errorf("year count must be positive: %w", ErrInvalid)
	}
	cacheKey := fmt.Sprintf(ckProfitTrend, shopID, yearCount)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.ProfitTrends), nil
	}

	rows, err := database.DB.Query(`
		SELECT id, start_date FROM financial_years
		WHERE shop_id = ? AND is_closed = 1
		ORDER BY start_date DESC LIMIT ?`, shopID, yearCount)
	if err != nil {
		return nil, fmt.Errorf("querying closed years for shop %d: %w", shopID, err)
	}
	defer rows.Close()

	type yearRef struct {
		id        int64
		startDate string
	}
	var refs []yearRef
	for rows.Next() {
		var r yearRef
		if err := rows.Scan(&r.id, &r.startDate); err != nil {
			return nil, fmt.Errorf("scanning closed year: %w", err)
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating closed years: %w", err)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].startDate < refs[j].startDate })

	trends := &models.ProfitTrends{ShopID: shopID, Points: []models.ProfitTrendPoint{}}
	for _, ref := range refs {
		result, err := s.CalculateYearProfit(shopID, ref.id)
		if err != nil {
			return nil, err
		}
		margin := 0.0
		if result.Revenue != 0 {
			margin = result.NetProfit / result.Revenue * 100
		}
		trends.Points = append(trends.Points, models.ProfitTrendPoint{ProfitResult: *result, ProfitMargin: margin})
	}

	if n := len(trends.Points); n > 0 {
		var sumRevenue, sumNet, sumMargin float64
		for _, p := range trends.Points {
			sumRevenue += p.Revenue
			sumNet += p.NetProfit
			sumMargin += p.ProfitMargin
		}
		trends.AverageRevenue = sumRevenue / float64(n)
		trends.AverageNetProfit = sumNet / float64(n)
		trends.AverageMargin = sumMargin / float64(n)
	}

	s.reportCache.Set(cacheKey, trends, cache.DefaultExpiration)
	return trends, nil
}
