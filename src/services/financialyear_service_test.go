package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hossamsharif/shopledger/backend/src/database"
	"github.com/hossamsharif/shopledger/backend/src/models"
)

func newYearService() FinancialYearService {
	return NewFinancialYearService(NewProfitService(newTestCache()))
}

func TestCreateFinancialYear_FirstBecomesCurrent(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := newYearService()

	first, err := svc.CreateFinancialYear(shopID, models.CreateFinancialYearInput{
		Name: "FY2024", StartDate: "2024-01-01", EndDate: "2024-12-31", OpeningStockValue: 1000,
	})
	require.NoError(t, err)
	assert.True(t, first.IsCurrent)
	assert.Nil(t, first.ClosingStockValue)

	second, err := svc.CreateFinancialYear(shopID, models.CreateFinancialYearInput{
		Name: "FY2025", StartDate: "2025-01-01", EndDate: "2025-12-31",
	})
	require.NoError(t, err)
	assert.False(t, second.IsCurrent)
}

func TestCreateFinancialYear_OverlapRejected(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := newYearService()

	_, err := svc.CreateFinancialYear(shopID, models.CreateFinancialYearInput{
		Name: "FY2024", StartDate: "2024-01-01", EndDate: "2024-12-31",
	})
	require.NoError(t, err)

	// Sharing even a single day counts as overlap.
	_, err = svc.CreateFinancialYear(shopID, models.CreateFinancialYearInput{
		Name: "FY2025", StartDate: "2024-12-31", EndDate: "2025-12-30",
	})
	assert.ErrorIs(t, err, ErrConflict)

	// An adjacent range starting the next day is fine.
	_, err = svc.CreateFinancialYear(shopID, models.CreateFinancialYearInput{
		Name: "FY2025", StartDate: "2025-01-01", EndDate: "2025-12-31",
	})
	assert.NoError(t, err)
}

func TestCreateFinancialYear_Validation(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := newYearService()

	_, err := svc.CreateFinancialYear(shopID, models.CreateFinancialYearInput{
		Name: "Backwards", StartDate: "2024-12-31", EndDate: "2024-01-01",
	})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.CreateFinancialYear(shopID, models.CreateFinancialYearInput{
		Name: "Bad date", StartDate: "not-a-date", EndDate: "2024-12-31",
	})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.CreateFinancialYear(shopID, models.CreateFinancialYearInput{
		Name: "Negative stock", StartDate: "2024-01-01", EndDate: "2024-12-31", OpeningStockValue: -5,
	})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSetCurrentYear_ExactlyOneCurrent(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := newYearService()

	y1ID := createTestYear(t, shopID, testYear{name: "FY2024", startDate: "2024-01-01", endDate: "2024-12-31", isCurrent: true})
	y2ID := createTestYear(t, shopID, testYear{name: "FY2025", startDate: "2025-01-01", endDate: "2025-12-31"})

	require.NoError(t, svc.SetCurrentYear(shopID, y2ID))

	y1, err := svc.GetFinancialYear(shopID, y1ID)
	require.NoError(t, err)
	assert.False(t, y1.IsCurrent)
	y2, err := svc.GetFinancialYear(shopID, y2ID)
	require.NoError(t, err)
	assert.True(t, y2.IsCurrent)
}

func TestSetCurrentYear_ClosedRejected(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := newYearService()

	closedID := createTestYear(t, shopID, testYear{name: "FY2023", startDate: "2023-01-01", endDate: "2023-12-31", isClosed: true})
	assert.ErrorIs(t, svc.SetCurrentYear(shopID, closedID), ErrForbidden)
}

func TestUpdateFinancialYear_ClosedImmutable(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := newYearService()

	closedID := createTestYear(t, shopID, testYear{name: "FY2023", startDate: "2023-01-01", endDate: "2023-12-31", isClosed: true})
	newName := "Renamed"
	_, err := svc.UpdateFinancialYear(shopID, closedID, models.UpdateFinancialYearInput{Name: &newName})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateOpeningStockValue_WritesAuditRow(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := newYearService()

	yearID := createTestYear(t, shopID, testYear{name: "FY2025", startDate: "2025-01-01", endDate: "2025-12-31", openingStock: 1000, isCurrent: true})

	require.NoError(t, svc.UpdateOpeningStockValue(shopID, yearID, 1500, 7))

	year, err := svc.GetFinancialYear(shopID, yearID)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, year.OpeningStockValue)

	history, err := svc.ListStockValueHistory(shopID, yearID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StockFieldOpening, history[0].FieldChanged)
	assert.Equal(t, 1000.0, history[0].OldValue)
	assert.Equal(t, 1500.0, history[0].NewValue)
	assert.Equal(t, int64(7), history[0].ChangedBy)
}

func TestUpdateStockValue_Rejections(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := newYearService()

	openID := createTestYear(t, shopID, testYear{name: "FY2025", startDate: "2025-01-01", endDate: "2025-12-31", isCurrent: true})
	closedID := createTestYear(t, shopID, testYear{name: "FY2023", startDate: "2023-01-01", endDate: "2023-12-31", isClosed: true})

	assert.ErrorIs(t, svc.UpdateOpeningStockValue(shopID, openID, -1, 7), ErrInvalid)
	assert.ErrorIs(t, svc.UpdateClosingStockValue(shopID, closedID, 500, 7), ErrForbidden)
	assert.ErrorIs(t, svc.UpdateOpeningStockValue(shopID, 999, 500, 7), ErrNotFound)
}

func TestUpdateStockValue_RefreshesProfitFigures(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	profit := NewProfitService(newTestCache())
	svc := NewFinancialYearService(profit)

	closing := 12000.0
	yearID := createTestYear(t, shopID, testYear{
		name: "FY2025", startDate: "2025-01-01", endDate: "2025-12-31",
		openingStock: 10000, closingStock: &closing, isCurrent: true,
	})

	before, err := profit.CalculateYearProfit(shopID, yearID)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, before.StockAdjustment)

	require.NoError(t, svc.UpdateOpeningStockValue(shopID, yearID, 5000, 7))

	after, err := profit.CalculateYearProfit(shopID, yearID)
	require.NoError(t, err)
	assert.Equal(t, 7000.0, after.StockAdjustment)
	assert.Equal(t, 7000.0, after.NetProfit)
}

func TestBulkUpdateStockValues_RefreshesProfitFigures(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	profit := NewProfitService(newTestCache())
	svc := NewFinancialYearService(profit)

	closing := 12000.0
	yearID := createTestYear(t, shopID, testYear{
		name: "FY2025", startDate: "2025-01-01", endDate: "2025-12-31",
		openingStock: 10000, closingStock: &closing, isCurrent: true,
	})

	before, err := profit.CalculateYearProfit(shopID, yearID)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, before.StockAdjustment)

	require.NoError(t, svc.BulkUpdateStockValues(shopID, []models.StockValueUpdate{
		{FinancialYearID: yearID, Field: models.StockFieldClosing, NewValue: 15000},
	}, 7))

	after, err := profit.CalculateYearProfit(shopID, yearID)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, after.StockAdjustment)
}

func TestBulkUpdateStockValues_AllOrNothing(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := newYearService()

	openID := createTestYear(t, shopID, testYear{name: "FY2025", startDate: "2025-01-01", endDate: "2025-12-31", openingStock: 100, isCurrent: true})
	closedID := createTestYear(t, shopID, testYear{name: "FY2023", startDate: "2023-01-01", endDate: "2023-12-31", isClosed: true})

	err := svc.BulkUpdateStockValues(shopID, []models.StockValueUpdate{
		{FinancialYearID: openID, Field: models.StockFieldOpening, NewValue: 200},
		{FinancialYearID: closedID, Field: models.StockFieldOpening, NewValue: 300},
	}, 7)
	assert.ErrorIs(t, err, ErrForbidden)

	// The open year must be untouched: validation precedes every write.
	year, err := svc.GetFinancialYear(shopID, openID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, year.OpeningStockValue)
	history, err := svc.ListStockValueHistory(shopID, openID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestBulkUpdateStockValues_AppliesBatch(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := newYearService()

	y1ID := createTestYear(t, shopID, testYear{name: "FY2024", startDate: "2024-01-01", endDate: "2024-12-31", openingStock: 100, isCurrent: true})
	y2ID := createTestYear(t, shopID, testYear{name: "FY2025", startDate: "2025-01-01", endDate: "2025-12-31", openingStock: 50})

	err := svc.BulkUpdateStockValues(shopID, []models.StockValueUpdate{
		{FinancialYearID: y1ID, Field: models.StockFieldClosing, NewValue: 400},
		{FinancialYearID: y2ID, Field: models.StockFieldOpening, NewValue: 400},
	}, 7)
	require.NoError(t, err)

	y1, err := svc.GetFinancialYear(shopID, y1ID)
	require.NoError(t, err)
	require.NotNil(t, y1.ClosingStockValue)
	assert.Equal(t, 400.0, *y1.ClosingStockValue)
	y2, err := svc.GetFinancialYear(shopID, y2ID)
	require.NoError(t, err)
	assert.Equal(t, 400.0, y2.OpeningStockValue)
}

func TestCloseFinancialYear(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := newYearService()

	currentID := createTestYear(t, shopID, testYear{name: "FY2025", startDate: "2025-01-01", endDate: "2025-12-31", isCurrent: true})
	staleID := createTestYear(t, shopID, testYear{name: "FY2024", startDate: "2024-01-01", endDate: "2024-12-31", openingStock: 800})

	// The current year cannot be closed.
	assert.ErrorIs(t, svc.CloseFinancialYear(shopID, currentID, 900, 7), ErrForbidden)

	require.NoError(t, svc.CloseFinancialYear(shopID, staleID, 900, 7))
	closed, err := svc.GetFinancialYear(shopID, staleID)
	require.NoError(t, err)
	assert.True(t, closed.IsClosed)
	require.NotNil(t, closed.ClosingStockValue)
	assert.Equal(t, 900.0, *closed.ClosingStockValue)

	history, err := svc.ListStockValueHistory(shopID, staleID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StockFieldClosing, history[0].FieldChanged)

	// Closing twice is a conflict, not a silent no-op.
	assert.ErrorIs(t, svc.CloseFinancialYear(shopID, staleID, 950, 7), ErrConflict)
}

func TestCloseFinancialYear_NegativeClosingRejected(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := newYearService()

	createTestYear(t, shopID, testYear{name: "FY2025", startDate: "2025-01-01", endDate: "2025-12-31", isCurrent: true})
	yearID := createTestYear(t, shopID, testYear{name: "FY2024", startDate: "2024-01-01", endDate: "2024-12-31"})

	assert.ErrorIs(t, svc.CloseFinancialYear(shopID, yearID, -100, 7), ErrInvalid)

	year, err := svc.GetFinancialYear(shopID, yearID)
	require.NoError(t, err)
	assert.False(t, year.IsClosed)
	assert.Nil(t, year.ClosingStockValue)
	history, err := svc.ListStockValueHistory(shopID, yearID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestDeleteFinancialYear_DropsCachedProfit(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	profit := NewProfitService(newTestCache())
	svc := NewFinancialYearService(profit)

	createTestYear(t, shopID, testYear{name: "FY2025", startDate: "2025-01-01", endDate: "2025-12-31", isCurrent: true})
	yearID := createTestYear(t, shopID, testYear{name: "FY2024", startDate: "2024-01-01", endDate: "2024-12-31", openingStock: 100})

	_, err := profit.CalculateYearProfit(shopID, yearID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFinancialYear(shopID, yearID))

	_, err = profit.CalculateYearProfit(shopID, yearID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteFinancialYear_Rules(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := newYearService()

	currentID := createTestYear(t, shopID, testYear{name: "FY2025", startDate: "2025-01-01", endDate: "2025-12-31", isCurrent: true})
	closedID := createTestYear(t, shopID, testYear{name: "FY2023", startDate: "2023-01-01", endDate: "2023-12-31", isClosed: true})
	assert.ErrorIs(t, svc.DeleteFinancialYear(shopID, currentID), ErrForbidden)
	assert.ErrorIs(t, svc.DeleteFinancialYear(shopID, closedID), ErrForbidden)

	postedID := createTestYear(t, shopID, testYear{name: "FY2024", startDate: "2024-01-01", endDate: "2024-12-31"})
	debit := createTestAccount(t, shopID, "EXP", models.AccountTypeExpense, 1, nil)
	credit := createTestAccount(t, shopID, "AST", models.AccountTypeAsset, 1, nil)
	insertTestTransaction(t, shopID, postedID, debit, credit, 50, "2024-06-01")
	assert.ErrorIs(t, svc.DeleteFinancialYear(shopID, postedID), ErrForbidden)

	emptyID := createTestYear(t, shopID, testYear{name: "FY2022", startDate: "2022-01-01", endDate: "2022-12-31", openingStock: 10})
	require.NoError(t, svc.UpdateOpeningStockValue(shopID, emptyID, 20, 7))
	require.NoError(t, svc.DeleteFinancialYear(shopID, emptyID))
	_, err := svc.GetFinancialYear(shopID, emptyID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The audit trail of the deleted year goes with it.
	var count int
	require.NoError(t, database.DB.QueryRow(
		`SELECT COUNT(*) FROM stock_value_history WHERE financial_year_id = ?`, emptyID).Scan(&count))
	assert.Zero(t, count)
}

func TestValidateTransactionYear(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := newYearService()

	openID := createTestYear(t, shopID, testYear{name: "FY2025", startDate: "2025-01-01", endDate: "2025-12-31", isCurrent: true})
	closedID := createTestYear(t, shopID, testYear{name: "FY2023", startDate: "2023-01-01", endDate: "2023-12-31", isClosed: true})

	assert.NoError(t, svc.ValidateTransactionYear(shopID, openID))
	assert.ErrorIs(t, svc.ValidateTransactionYear(shopID, closedID), ErrForbidden)
	assert.ErrorIs(t, svc.ValidateTransactionYear(shopID, 999), ErrNotFound)
}
