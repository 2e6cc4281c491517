package models

import "time"

// Transaction is one double-entry ledger posting: an amount moved from a
// credit account to a debit account within a financial year. Postings are
// immutable once written, except for explicit deletion.
type Transaction struct {
	ID              int64     `json:"id"`
	Reference       string    `json:"reference"`
	ShopID          int64     `json:"shop_id"`
	FinancialYearID int64     `json:"financial_year_id"`
	TransactionType string    `json:"transaction_type"`
	Amount          float64   `json:"amount"`
	DebitAccountID  int64     `json:"debit_account_id"`
	CreditAccountID int64     `json:"credit_account_id"`
	DebitUserID     *int64    `json:"debit_user_id,omitempty"`
	CreditUserID    *int64    `json:"credit_user_id,omitempty"`
	TransactionDate string    `json:"transaction_date"`
	AmountPaid      *float64  `json:"amount_paid,omitempty"`
	Change          *float64  `json:"change,omitempty"`
	Description     *string   `json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type CreateTransactionInput struct {
	FinancialYearID int64    `json:"financial_year_id"`
	TransactionType string   `json:"transaction_type"`
	Amount          float64  `json:"amount"`
	DebitAccountID  int64    `json:"debit_account_id"`
	CreditAccountID int64    `json:"credit_account_id"`
	DebitUserID     *int64   `json:"debit_user_id,omitempty"`
	CreditUserID    *int64   `json:"credit_user_id,omitempty"`
	TransactionDate string   `json:"transaction_date,omitempty"`
	AmountPaid      *float64 `json:"amount_paid,omitempty"`
	Change          *float64 `json:"change,omitempty"`
	Description     *string  `json:"description,omitempty"`
}

// TransactionFilter narrows a posting listing. Nil fields are ignored and
// each set field is translated independently to a storage predicate.
type TransactionFilter struct {
	FinancialYearID *int64  `json:"financial_year_id,omitempty"`
	AccountID       *int64  `json:"account_id,omitempty"`
	TransactionType *string `json:"transaction_type,omitempty"`
	DateFrom        *string `json:"date_from,omitempty"`
	DateTo          *string `json:"date_to,omitempty"`
	Offset          int     `json:"offset"`
	Limit           int     `json:"limit"`
}
