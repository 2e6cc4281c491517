package models

import "time"

// AccountType classifies an account within the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// ValidAccountType reports whether t is one of the five known account types.
func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// Account is one node of a shop's chart of accounts. Accounts form a
// three-level hierarchy; a root account has no parent and level 1.
type Account struct {
	ID              int64       `json:"id"`
	ShopID          int64       `json:"shop_id"`
	Code            string      `json:"code"`
	NameAr          string      `json:"name_ar"`
	NameEn          string      `json:"name_en"`
	AccountType     AccountType `json:"account_type"`
	Level           int         `json:"level"`
	ParentID        *int64      `json:"parent_id,omitempty"`
	IsSystemAccount bool        `json:"is_system_account"`
	IsActive        bool        `json:"is_active"`
	Balance         float64     `json:"balance"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// NodeID, NodeParentID, NodeLevel, NodeCode and NodeIsSystem satisfy
// hierarchy.Node so accounts can be arranged into a forest.
func (a Account) NodeID() int64        { return a.ID }
func (a Account) NodeParentID() *int64 { return a.ParentID }
func (a Account) NodeLevel() int       { return a.Level }
func (a Account) NodeCode() string     { return a.Code }
func (a Account) NodeIsSystem() bool   { return a.IsSystemAccount }

// CreateAccountInput carries the caller-supplied fields for a new account.
// Structural validation (UUID shape, number signs) happens upstream; the
// service performs domain validation only.
type CreateAccountInput struct {
	Code            string      `json:"code"`
	NameAr          string      `json:"name_ar"`
	NameEn          string      `json:"name_en"`
	AccountType     AccountType `json:"account_type"`
	ParentID        *int64      `json:"parent_id,omitempty"`
	IsSystemAccount bool        `json:"is_system_account"`
}

// UpdateAccountInput patches an existing account. Nil fields are left untouched.
type UpdateAccountInput struct {
	NameAr   *string `json:"name_ar,omitempty"`
	NameEn   *string `json:"name_en,omitempty"`
	ParentID *int64  `json:"parent_id,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}
