package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hossamsharif/shopledger/backend/src/database"
	"github.com/hossamsharif/shopledger/backend/src/logger"
	"github.com/hossamsharif/shopledger/backend/src/models"
)

const transactionColumns = `id, reference, shop_id, financial_year_id, transaction_type, amount,
	debit_account_id, credit_account_id, debit_user_id, credit_user_id,
	transaction_date, amount_paid, change, description, created_at`

type transactionServiceImpl struct {
	years  FinancialYearService
	profit ProfitService
	now    func() time.Time
}

func NewTransactionService(years FinancialYearService, profit ProfitService) TransactionService {
	return &transactionServiceImpl{
		years:  years,
		profit: profit,
		now:    time.Now,
	}
}

func scanTransaction(row interface{ Scan(...any) error }) (*models.Transaction, error) {
	var t models.Transaction
	var debitUserID, creditUserID sql.NullInt64
	var amountPaid, change sql.NullFloat64
	var description sql.NullString
	err := row.Scan(&t.ID, &t.Reference, &t.ShopID, &t.FinancialYearID, &t.TransactionType, &t.Amount,
		&t.DebitAccountID, &t.CreditAccountID, &debitUserID, &creditUserID,
		&t.TransactionDate, &amountPaid, &change, &description, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if debitUserID.Valid {
		t.DebitUserID = &debitUserID.Int64
	}
	if creditUserID.Valid {
		t.CreditUserID = &creditUserID.Int64
	}
	if amountPaid.Valid {
		t.AmountPaid = &amountPaid.Float64
	}
	if change.Valid {
		t.Change = &change.Float64
	}
	if description.Valid {
		t.Description = &description.String
	}
	return &t, nil
}

func (s *transactionServiceImpl) GetTransaction(shopID, transactionID int64) (*models.Transaction, error) {
	row := database.DB.QueryRow(`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND shop_id = ?`, transactionID, shopID)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %d: %w", transactionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying transaction %d: %w", transactionID, err)
	}
	return t, nil
}

// CreateTransaction validates and records one double-entry posting. The
// posting is either fully present or fully absent; no partial write survives
// a failure.
func (s *transactionServiceImpl) CreateTransaction(shopID int64, input models.CreateTransactionInput) (*models.Transaction, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", ErrInvalid)
	}
	if input.DebitAccountID == input.CreditAccountID {
		return nil, fmt.Errorf("debit and credit accounts must differ: %w", ErrInvalid)
	}
	if input.TransactionType == "" {
		return nil, fmt.Errorf("transaction type is required: %w", ErrInvalid)
	}

	// The referenced year must exist and be open at posting time.
	if err := s.years.ValidateTransactionYear(shopID, input.FinancialYearID); err != nil {
		return nil, err
	}

	for _, accountID := range []int64{input.DebitAccountID, input.CreditAccountID} {
		var count int
		err := database.DB.QueryRow(
			`SELECT COUNT(*) FROM accounts WHERE id = ? AND shop_id = ?`, accountID, shopID).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("checking account %d: %w", accountID, err)
		}
		if count == 0 {
			return nil, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
		}
	}

	transactionDate := input.TransactionDate
	if transactionDate == "" {
		transactionDate = s.now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, transactionDate); err != nil {
		return nil, fmt.Errorf("transaction date %q is not a valid date: %w", transactionDate, ErrInvalid)
	}

	reference := uuid.New().String()
	now := s.now()
	res, err := database.DB.Exec(`
		INSERT INTO transactions (reference, shop_id, financial_year_id, transaction_type, amount,
			debit_account_id, credit_account_id, debit_user_id, credit_user_id,
			transaction_date, amount_paid, change, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reference, shopID, input.FinancialYearID, input.TransactionType, input.Amount,
		input.DebitAccountID, input.CreditAccountID, input.DebitUserID, input.CreditUserID,
		transactionDate, input.AmountPaid, input.Change, input.Description, now)
	if err != nil {
		return nil, fmt.Errorf("inserting transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new transaction id: %w", err)
	}

	s.profit.InvalidateShopCache(shopID)
	logger.L.Info("Transaction recorded", "shopID", shopID, "transactionID", id, "reference", reference,
		"amount", input.Amount, "debitAccountID", input.DebitAccountID, "creditAccountID", input.CreditAccountID)
	return s.GetTransaction(shopID, id)
}

// DeleteTransaction removes one posting. Postings of closed years are part
// of a finalized period and stay immutable.
func (s *transactionServiceImpl) DeleteTransaction(shopID, transactionID int64) error {
	t, err := s.GetTransaction(shopID, transactionID)
	if err != nil {
		return err
	}
	if err := s.years.ValidateTransactionYear(shopID, t.FinancialYearID); err != nil {
		return err
	}
	if _, err := database.DB.Exec(`DELETE FROM transactions WHERE id = ? AND shop_id = ?`, transactionID, shopID); err != nil {
		return fmt.Errorf("deleting transaction %d: %w", transactionID, err)
	}
	s.profit.InvalidateShopCache(shopID)
	logger.L.Info("Transaction deleted", "shopID", shopID, "transactionID", transactionID, "reference", t.Reference)
	return nil
}

func (s *transactionServiceImpl) ListTransactions(shopID int64, filter models.TransactionFilter) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE shop_id = ?`
	args := []any{shopID}

	if filter.FinancialYearID != nil {
		query += ` AND financial_year_id = ?`
		args = append(args, *filter.FinancialYearID)
	}
	if filter.AccountID != nil {
		query += ` AND (debit_account_id = ? OR credit_account_id = ?)`
		args = append(args, *filter.AccountID, *filter.AccountID)
	}
	if filter.TransactionType != nil {
		query += ` AND transaction_type = ?`
		args = append(args, *filter.TransactionType)
	}
	if filter.DateFrom != nil {
		query += ` AND transaction_date >= ?`
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query += ` AND transaction_date <= ?`
		args = append(args, *filter.DateTo)
	}

	query += ` ORDER BY transaction_date DESC, id DESC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := database.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	return transactions, nil
}
