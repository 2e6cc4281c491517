package models

import "time"

// BalanceAccountKind distinguishes the two tracked balance account families.
type BalanceAccountKind string

const (
	BalanceAccountCash BalanceAccountKind = "CASH"
	BalanceAccountBank BalanceAccountKind = "BANK"
)

// CashAccount is a physical cash drawer/till tracked per shop.
type CashAccount struct {
	ID             int64     `json:"id"`
	ShopID         int64     `json:"shop_id"`
	NameAr         string    `json:"name_ar"`
	NameEn         string    `json:"name_en"`
	OpeningBalance float64   `json:"opening_balance"`
	CurrentBalance float64   `json:"current_balance"`
	IsActive       bool      `json:"is_active"`
	IsDefault      bool      `json:"is_default"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BankAccount adds bank identification details on top of the cash fields.
type BankAccount struct {
	ID             int64     `json:"id"`
	ShopID         int64     `json:"shop_id"`
	NameAr         string    `json:"name_ar"`
	NameEn         string    `json:"name_en"`
	AccountNumber  string    `json:"account_number"`
	BankName       string    `json:"bank_name"`
	IBAN           *string   `json:"iban,omitempty"`
	OpeningBalance float64   `json:"opening_balance"`
	CurrentBalance float64   `json:"current_balance"`
	IsActive       bool      `json:"is_active"`
	IsDefault      bool      `json:"is_default"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BalanceHistory is one append-only row of the balance audit trail.
// Rows are immutable once written.
type BalanceHistory struct {
	ID              int64              `json:"id"`
	AccountKind     BalanceAccountKind `json:"account_kind"`
	AccountID       int64              `json:"account_id"`
	PreviousBalance float64            `json:"previous_balance"`
	NewBalance      float64            `json:"new_balance"`
	ChangeAmount    float64            `json:"change_amount"`
	ChangeReason    string             `json:"change_reason"`
	UserID          int64              `json:"user_id"`
	ShopID          int64              `json:"shop_id"`
	CreatedAt       time.Time          `json:"created_at"`
}

type CreateCashAccountInput struct {
	NameAr         string  `json:"name_ar"`
	NameEn         string  `json:"name_en"`
	OpeningBalance float64 `json:"opening_balance"`
	IsDefault      bool    `json:"is_default"`
}

type CreateBankAccountInput struct {
	NameAr         string  `json:"name_ar"`
	NameEn         string  `json:"name_en"`
	AccountNumber  string  `json:"account_number"`
	BankName       string  `json:"bank_name"`
	IBAN           *string `json:"iban,omitempty"`
	OpeningBalance float64 `json:"opening_balance"`
	IsDefault      bool    `json:"is_default"`
}

// BalanceHistoryFilter narrows a history listing. Nil fields are ignored.
type BalanceHistoryFilter struct {
	AccountKind *BalanceAccountKind `json:"account_kind,omitempty"`
	AccountID   *int64              `json:"account_id,omitempty"`
	From        *time.Time          `json:"from,omitempty"`
	To          *time.Time          `json:"to,omitempty"`
	Offset      int                 `json:"offset"`
	Limit       int                 `json:"limit"`
}
