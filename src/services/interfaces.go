package services

import (
	"github.com/hossamsharif/shopledger/backend/src/hierarchy"
	"github.com/hossamsharif/shopledger/backend/src/models"
)

// ShopService maintains the tenant registry.
type ShopService interface {
	CreateShop(input models.CreateShopInput) (*models.Shop, error)
	GetShop(shopID int64) (*models.Shop, error)
}

// AccountService owns the chart of accounts of each shop.
type AccountService interface {
	CreateAccount(shopID int64, input models.CreateAccountInput) (*models.Account, error)
	UpdateAccount(shopID, accountID int64, input models.UpdateAccountInput) (*models.Account, error)
	DeleteAccount(shopID, accountID int64) error
	GetAccount(shopID, accountID int64) (*models.Account, error)
	ListAccounts(shopID int64) ([]models.Account, error)
	AccountTree(shopID int64) (hierarchy.Forest[models.Account], error)
	ProvisionDefaultAccounts(shopID int64, shopCode string) ([]models.Account, error)
	ValidateHierarchyConsistency(shopID int64) (bool, error)
}

// CategoryService owns expense categories and their account assignments.
type CategoryService interface {
	CreateCategory(shopID int64, input models.CreateCategoryInput) (*models.ExpenseCategory, error)
	UpdateCategory(shopID, categoryID int64, input models.UpdateCategoryInput) (*models.ExpenseCategory, error)
	DeleteCategory(shopID, categoryID int64) error
	GetCategory(shopID, categoryID int64) (*models.ExpenseCategory, error)
	ListCategories(shopID int64) ([]models.ExpenseCategory, error)
	CategoryTree(shopID int64) (hierarchy.Forest[models.ExpenseCategory], error)
	AssignAccount(shopID, categoryID, accountID int64) (*models.CategoryAssignment, error)
	UnassignAccount(shopID, categoryID, accountID int64) error
	ListAssignments(shopID, categoryID int64) ([]models.CategoryAssignment, error)
	BulkImportCategories(shopID int64, inputs []models.CreateCategoryInput) (*models.BulkImportSummary, error)
}

// BalanceService maintains cash/bank balances and their audit trail.
type BalanceService interface {
	CreateCashAccount(shopID int64, input models.CreateCashAccountInput) (*models.CashAccount, error)
	CreateBankAccount(shopID int64, input models.CreateBankAccountInput) (*models.BankAccount, error)
	ListCashAccounts(shopID int64) ([]models.CashAccount, error)
	ListBankAccounts(shopID int64) ([]models.BankAccount, error)
	UpdateBalance(shopID int64, kind models.BalanceAccountKind, accountID int64, newBalance float64, reason string, userID int64) (*models.BalanceHistory, error)
	SetDefaultAccount(shopID int64, kind models.BalanceAccountKind, accountID int64) error
	ListBalanceHistory(shopID int64, filter models.BalanceHistoryFilter) ([]models.BalanceHistory, error)
}

// FinancialYearService governs the per-shop financial-year state machine.
type FinancialYearService interface {
	CreateFinancialYear(shopID int64, input models.CreateFinancialYearInput) (*models.FinancialYear, error)
	UpdateFinancialYear(shopID, yearID int64, input models.UpdateFinancialYearInput) (*models.FinancialYear, error)
	SetCurrentYear(shopID, yearID int64) error
	UpdateOpeningStockValue(shopID, yearID int64, value float64, userID int64) error
	UpdateClosingStockValue(shopID, yearID int64, value float64, userID int64) error
	BulkUpdateStockValues(shopID int64, updates []models.StockValueUpdate, userID int64) error
	CloseFinancialYear(shopID, yearID int64, closingStockValue float64, userID int64) error
	DeleteFinancialYear(shopID, yearID int64) error
	ValidateTransactionYear(shopID, yearID int64) error
	GetFinancialYear(shopID, yearID int64) (*models.FinancialYear, error)
	ListFinancialYears(shopID int64) ([]models.FinancialYear, error)
	ListStockValueHistory(shopID, yearID int64) ([]models.StockValueHistory, error)
}

// TransactionService records and queries double-entry postings.
type TransactionService interface {
	CreateTransaction(shopID int64, input models.CreateTransactionInput) (*models.Transaction, error)
	DeleteTransaction(shopID, transactionID int64) error
	GetTransaction(shopID, transactionID int64) (*models.Transaction, error)
	ListTransactions(shopID int64, filter models.TransactionFilter) ([]models.Transaction, error)
}

// ProfitService is a read-only aggregation layer over postings and years.
type ProfitService interface {
	CalculateYearProfit(shopID, yearID int64) (*models.ProfitResult, error)
	CalculateShopProfits(shopID int64) (*models.ShopProfitSummary, error)
	CompareProfits(shopID, currentYearID, previousYearID int64) (*models.ProfitComparison, error)
	ValidateYearClosure(shopID, yearID int64, proposedClosingStock float64) (*models.ClosureValidation, error)
	GetProfitTrends(shopID int64, yearCount int) (*models.ProfitTrends, error)
	InvalidateShopCache(shopID int64)
}
