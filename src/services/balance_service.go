package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hossamsharif/shopledger/backend/src/database"
	"github.com/hossamsharif/shopledger/backend/src/logger"
	"github.com/hossamsharif/shopledger/backend/src/models"
	"github.com/hossamsharif/shopledger/backend/src/security/validation"
)

type balanceServiceImpl struct {
	now func() time.Time
}

func NewBalanceService() BalanceService {
	return &balanceServiceImpl{now: time.Now}
}

func balanceTable(kind models.BalanceAccountKind) (string, error) {
	switch kind {
	case models.BalanceAccountCash:
		return "cash_accounts", nil
	case models.BalanceAccountBank:
		return "bank_accounts", nil
	}
	return "", fmt.Errorf("unknown balance account kind %q: %w", kind, ErrInvalid)
}

func (s *balanceServiceImpl) CreateCashAccount(shopID int64, input models.CreateCashAccountInput) (*models.CashAccount, error) {
	nameAr := validation.CleanText(input.NameAr)
	nameEn := validation.CleanText(input.NameEn)
	if nameAr == "" || nameEn == "" {
		return nil, fmt.Errorf("both names are required: %w", ErrInvalid)
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning cash account transaction: %w", err)
	}
	defer tx.Rollback()

	if input.IsDefault {
		if _, err := tx.Exec(`UPDATE cash_accounts SET is_default = 0 WHERE shop_id = ?`, shopID); err != nil {
			return nil, fmt.Errorf("clearing default cash accounts: %w", err)
		}
	}
	now := s.now()
	res, err := tx.Exec(`
		INSERT INTO cash_accounts (shop_id, name_ar, name_en, opening_balance, current_balance,
			is_active, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?)`,
		shopID, nameAr, nameEn, input.OpeningBalance, input.OpeningBalance, input.IsDefault, now, now)
	if err != nil {
		return nil, fmt.Errorf("inserting cash account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new cash account id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing cash account: %w", err)
	}
	logger.L.Info("Cash account created", "shopID", shopID, "cashAccountID", id, "isDefault", input.IsDefault)

	return s.getCashAccount(shopID, id)
}

func (s *balanceServiceImpl) getCashAccount(shopID, id int64) (*models.CashAccount, error) {
	var a models.CashAccount
	err := database.DB.QueryRow(`
		SELECT id, shop_id, name_ar, name_en, opening_balance, current_balance, is_active, is_default, created_at, updated_at
		FROM cash_accounts WHERE id = ? AND shop_id = ?`, id, shopID).
		Scan(&a.ID, &a.ShopID, &a.NameAr, &a.NameEn, &a.OpeningBalance, &a.CurrentBalance,
			&a.IsActive, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cash account %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying cash account %d: %w", id, err)
	}
	return &a, nil
}

func (s *balanceServiceImpl) CreateBankAccount(shopID int64, input models.CreateBankAccountInput) (*models.BankAccount, error) {
	nameAr := validation.CleanText(input.NameAr)
	nameEn := validation.CleanText(input.NameEn)
	accountNumber := validation.CleanText(input.AccountNumber)
	bankName := validation.CleanText(input.BankName)
	if nameAr == "" || nameEn == "" || accountNumber == "" || bankName == "" {
		return nil, fmt.Errorf("names, account number and bank name are required: %w", ErrInvalid)
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning bank account transaction: %w", err)
	}
	defer tx.Rollback()

	if input.IsDefault {
		if _, err := tx.Exec(`UPDATE bank_accounts SET is_default = 0 WHERE shop_id = ?`, shopID); err != nil {
			return nil, fmt.Errorf("clearing default bank accounts: %w", err)
		}
	}
	now := s.now()
	res, err := tx.Exec(`
		INSERT INTO bank_accounts (shop_id, name_ar, name_en, account_number, bank_name, iban,
			opening_balance, current_balance, is_active, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?)`,
		shopID, nameAr, nameEn, accountNumber, bankName, input.IBAN,
		input.OpeningBalance, input.OpeningBalance, input.IsDefault, now, now)
	if err != nil {
		return nil, fmt.Errorf("inserting bank account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new bank account id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing bank account: %w", err)
	}
	logger.L.Info("Bank account created", "shopID", shopID, "bankAccountID", id, "isDefault", input.IsDefault)

	return s.getBankAccount(shopID, id)
}

func (s *balanceServiceImpl) getBankAccount(shopID, id int64) (*models.BankAccount, error) {
	var a models.BankAccount
	var iban sql.NullString
	err := database.DB.QueryRow(`
		SELECT id, shop_id, name_ar, name_en, account_number, bank_name, iban,
			opening_balance, current_balance, is_active, is_default, created_at, updated_at
		FROM bank_accounts WHERE id = ? AND shop_id = ?`, id, shopID).
		Scan(&a.ID, &a.ShopID, &a.NameAr, &a.NameEn, &a.AccountNumber, &a.BankName, &iban,
			&a.OpeningBalance, &a.CurrentBalance, &a.IsActive, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("bank account %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying bank account %d: %w", id, err)
	}
	if iban.Valid {
		a.IBAN = &iban.String
	}
	return &a, nil
}

func (s *balanceServiceImpl) ListCashAccounts(shopID int64) ([]models.CashAccount, error) {
	rows, err := database.DB.Query(`
		SELECT id, shop_id, name_ar, name_en, opening_balance, current_balance, is_active, is_default, created_at, updated_at
		FROM cash_accounts WHERE shop_id = ? ORDER BY is_default DESC, id`, shopID)
	if err != nil {
		return nil, fmt.Errorf("querying cash accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.CashAccount
	for rows.Next() {
		var a models.CashAccount
		if err := rows.Scan(&a.ID, &a.ShopID, &a.NameAr, &a.NameEn, &a.OpeningBalance, &a.CurrentBalance,
			&a.IsActive, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning cash account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cash accounts: %w", err)
	}
	if accounts == nil {
		accounts = []models.CashAccount{}
	}
	return accounts, nil
}

func (s *balanceServiceImpl) ListBankAccounts(shopID int64) ([]models.BankAccount, error) {
	rows, err := database.DB.Query(`
		SELECT id, shop_id, name_ar, name_en, account_number, bank_name, iban,
			opening_balance, current_balance, is_active, is_default, created_at, updated_at
		FROM bank_accounts WHERE shop_id = ? ORDER BY is_default DESC, id`, shopID)
	if err != nil {
		return nil, fmt.Errorf("querying bank accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.BankAccount
	for rows.Next() {
		var a models.BankAccount
		var iban sql.NullString
		if err := rows.Scan(&a.ID, &a.ShopID, &a.NameAr, &a.NameEn, &a.AccountNumber, &a.BankName, &iban,
			&a.OpeningBalance, &a.CurrentBalance, &a.IsActive, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning bank account: %w", err)
		}
		if iban.Valid {
			a.IBAN = &iban.String
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bank accounts: %w", err)
	}
	if accounts == nil {
		accounts = []models.BankAccount{}
	}
	return accounts, nil
}

// UpdateBalance sets the account's current balance and appends the matching
// audit row in the same transaction. An observer never sees a balance change
// without its history row.
func (s *balanceServiceImpl) UpdateBalance(shopID int64, kind models.BalanceAccountKind, accountID int64, newBalance float64, reason string, userID int64) (*models.BalanceHistory, error) {
	table, err := balanceTable(kind)
	if err != nil {
		return nil, err
	}
	reason = validation.CleanText(reason)
	if reason == "" {
		return nil, fmt.Errorf("change reason is required: %w", ErrInvalid)
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning balance update transaction: %w", err)
	}
	defer tx.Rollback()

	var previousBalance float64
	err = tx.QueryRow(
		`SELECT current_balance FROM `+table+` WHERE id = ? AND shop_id = ?`, accountID, shopID).
		Scan(&previousBalance)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s account %d: %w", kind, accountID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading current balance of %s account %d: %w", kind, accountID, err)
	}

	now := s.now()
	if _, err := tx.Exec(
		`UPDATE `+table+` SET current_balance = ?, updated_at = ? WHERE id = ? AND shop_id = ?`,
		newBalance, now, accountID, shopID); err != nil {
		return nil, fmt.Errorf("updating balance of %s account %d: %w", kind, accountID, err)
	}

	changeAmount := newBalance - previousBalance
	res, err := tx.Exec(`
		INSERT INTO balance_history (account_kind, account_id, previous_balance, new_balance,
			change_amount, change_reason, user_id, shop_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		kind, accountID, previousBalance, newBalance, changeAmount, reason, userID, shopID, now)
	if err != nil {
		return nil, fmt.Errorf("appending balance history: %w", err)
	}
	historyID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new balance history id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing balance update: %w", err)
	}

	logger.L.Info("Balance updated", "shopID", shopID, "kind", kind, "accountID", accountID,
		"previousBalance", previousBalance, "newBalance", newBalance, "changeAmount", changeAmount)
	return &models.BalanceHistory{
		ID:              historyID,
		AccountKind:     kind,
		AccountID:       accountID,
		PreviousBalance: previousBalance,
		NewBalance:      newBalance,
		ChangeAmount:    changeAmount,
		ChangeReason:    reason,
		UserID:          userID,
		ShopID:          shopID,
		CreatedAt:       now,
	}, nil
}

// SetDefaultAccount clears the default flag on every other account of the
// kind and sets it on the target, inside one transaction so there is no
// window with zero or two defaults.
func (s *balanceServiceImpl) SetDefaultAccount(shopID int64, kind models.BalanceAccountKind, accountID int64) error {
	table, err := balanceTable(kind)
	if err != nil {
		return err
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("beginning set-default transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE id = ? AND shop_id = ?`, accountID, shopID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking %s account %d: %w", kind, accountID, err)
	}
	if exists == 0 {
		return fmt.Errorf("%s account %d: %w", kind, accountID, ErrNotFound)
	}

	if _, err := tx.Exec(`UPDATE `+table+` SET is_default = 0 WHERE shop_id = ? AND id != ?`, shopID, accountID); err != nil {
		return fmt.Errorf("clearing default %s accounts: %w", kind, err)
	}
	if _, err := tx.Exec(`UPDATE `+table+` SET is_default = 1, updated_at = ? WHERE id = ? AND shop_id = ?`, s.now(), accountID, shopID); err != nil {
		return fmt.Errorf("setting default %s account %d: %w", kind, accountID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing set-default: %w", err)
	}
	logger.L.Info("Default account set", "shopID", shopID, "kind", kind, "accountID", accountID)
	return nil
}

func (s *balanceServiceImpl) ListBalanceHistory(shopID int64, filter models.BalanceHistoryFilter) ([]models.BalanceHistory, error) {
	query := `
		SELECT id, account_kind, account_id, previous_balance, new_balance,
			change_amount, change_reason, user_id, shop_id, created_at
		FROM balance_history WHERE shop_id = ?`
	args := []any{shopID}

	if filter.AccountKind != nil {
		query += ` AND account_kind = ?`
		args = append(args, *filter.AccountKind)
	}
	if filter.AccountID != nil {
		query += ` AND account_id = ?`
		args = append(args, *filter.AccountID)
	}
	if filter.From != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		query += ` AND created_at <= ?`
		args = append(args, *filter.To)
	}

	query += ` ORDER BY created_at DESC, id DESC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := database.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying balance history: %w", err)
	}
	defer rows.Close()

	var history []models.BalanceHistory
	for rows.Next() {
		var h models.BalanceHistory
		if err := rows.Scan(&h.ID, &h.AccountKind, &h.AccountID, &h.PreviousBalance, &h.NewBalance,
			&h.ChangeAmount, &h.ChangeReason, &h.UserID, &h.ShopID, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning balance history row: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating balance history: %w", err)
	}
	if history == nil {
		history = []models.BalanceHistory{}
	}
	return history, nil
}
