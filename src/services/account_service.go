package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hossamsharif/shopledger/backend/src/database"
	"github.com/hossamsharif/shopledger/backend/src/hierarchy"
	"github.com/hossamsharif/shopledger/backend/src/logger"
	"github.com/hossamsharif/shopledger/backend/src/models"
	"github.com/hossamsharif/shopledger/backend/src/security/validation"
)

const accountColumns = `id, shop_id, code, name_ar, name_en, account_type, level, parent_id,
	is_system_account, is_active, balance, created_at, updated_at`

// defaultAccountSpec describes one provisioned account. Codes and names are
// derived deterministically from the shop code so every shop starts with the
// same recognizable chart.
type defaultAccountSpec struct {
	codePrefix  string
	nameAr      string
	nameEn      string
	accountType models.AccountType
	parentIdx   int // index into the level-1 set, -1 for roots
}

var defaultLevel1Accounts = []defaultAccountSpec{
	{codePrefix: "REV", nameAr: "الإيرادات", nameEn: "Revenue", accountType: models.AccountTypeRevenue, parentIdx: -1},
	{codePrefix: "EXP", nameAr: "المصروفات", nameEn: "Expenses", accountType: models.AccountTypeExpense, parentIdx: -1},
	{codePrefix: "AST", nameAr: "الأصول", nameEn: "Assets", accountType: models.AccountTypeAsset, parentIdx: -1},
	{codePrefix: "LIA", nameAr: "الالتزامات", nameEn: "Liabilities", accountType: models.AccountTypeLiability, parentIdx: -1},
	{codePrefix: "EQT", nameAr: "حقوق الملكية", nameEn: "Equity", accountType: models.AccountTypeEquity, parentIdx: -1},
}

var defaultLevel2Accounts = []defaultAccountSpec{
	{codePrefix: "REV-DSALES", nameAr: "مبيعات مباشرة", nameEn: "Direct Sales", accountType: models.AccountTypeRevenue, parentIdx: 0},
	{codePrefix: "EXP-DPURCH", nameAr: "مشتريات مباشرة", nameEn: "Direct Purchases", accountType: models.AccountTypeExpense, parentIdx: 1},
	{codePrefix: "AST-CASH", nameAr: "النقدية", nameEn: "Cash", accountType: models.AccountTypeAsset, parentIdx: 2},
	{codePrefix: "LIA-PAYABLE", nameAr: "حسابات دائنة", nameEn: "Payables", accountType: models.AccountTypeLiability, parentIdx: 3},
}

type accountServiceImpl struct {
	maxDepth int
	now      func() time.Time
}

func NewAccountService(maxDepth int) AccountService {
	return &accountServiceImpl{
		maxDepth: maxDepth,
		now:      time.Now,
	}
}

func scanAccount(row interface{ Scan(...any) error }) (*models.Account, error) {
	var a models.Account
	var parentID sql.NullInt64
	err := row.Scan(&a.ID, &a.ShopID, &a.Code, &a.NameAr, &a.NameEn, &a.AccountType, &a.Level,
		&parentID, &a.IsSystemAccount, &a.IsActive, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		a.ParentID = &parentID.Int64
	}
	return &a, nil
}

func (s *accountServiceImpl) GetAccount(shopID, accountID int64) (*models.Account, error) {
	row := database.DB.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND shop_id = ?`, accountID, shopID)
	account, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying account %d: %w", accountID, err)
	}
	return account, nil
}

func (s *accountServiceImpl) ListAccounts(shopID int64) ([]models.Account, error) {
	rows, err := database.DB.Query(`SELECT `+accountColumns+` FROM accounts WHERE shop_id = ? ORDER BY level, code`, shopID)
	if err != nil {
		return nil, fmt.Errorf("querying accounts for shop %d: %w", shopID, err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

func (s *accountServiceImpl) AccountTree(shopID int64) (hierarchy.Forest[models.Account], error) {
	accounts, err := s.ListAccounts(shopID)
	if err != nil {
		return hierarchy.Forest[models.Account]{}, err
	}
	forest := hierarchy.BuildForest(accounts)
	if len(forest.OrphanIDs) > 0 {
		logger.L.Warn("Orphaned accounts detected while building tree", "shopID", shopID, "orphanIDs", forest.OrphanIDs)
	}
	return forest, nil
}

// checkAccountUniqueness verifies code and bilingual name-pair uniqueness
// within the shop before any write begins. excludeID skips the account being
// updated.
func (s *accountServiceImpl) checkAccountUniqueness(shopID int64, code, nameAr, nameEn string, excludeID int64) error {
	var count int
	err := database.DB.QueryRow(
		`SELECT COUNT(*) FROM accounts WHERE shop_id = ? AND code = ? AND id != ?`,
		shopID, code, excludeID).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking code uniqueness: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("account code %q already exists in shop: %w", code, ErrConflict)
	}
	err = database.DB.QueryRow(
		`SELECT COUNT(*) FROM accounts WHERE shop_id = ? AND name_ar = ? AND name_en = ? AND id != ?`,
		shopID, nameAr, nameEn, excludeID).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking name uniqueness: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("account name pair already exists in shop: %w", ErrConflict)
	}
	return nil
}

func (s *accountServiceImpl) CreateAccount(shopID int64, input models.CreateAccountInput) (*models.Account, error) {
	code := validation.CleanText(input.Code)
	nameAr := validation.CleanText(input.NameAr)
	nameEn := validation.CleanText(input.NameEn)
	if code == "" || nameAr == "" || nameEn == "" {
		return nil, fmt.Errorf("code and both names are required: %w", ErrInvalid)
	}
	if !models.ValidAccountType(input.AccountType) {
		return nil, fmt.Errorf("unknown account type %q: %w", input.AccountType, ErrInvalid)
	}

	if err := s.checkAccountUniqueness(shopID, code, nameAr, nameEn, 0); err != nil {
		return nil, err
	}

	level := 1
	if input.ParentID != nil {
		parent, err := s.GetAccount(shopID, *input.ParentID)
		if err != nil {
			return nil, err
		}
		level = hierarchy.ChildLevel(parent)
		if level > s.maxDepth {
			return nil, fmt.Errorf("account level %d exceeds maximum depth %d: %w", level, s.maxDepth, ErrDepthExceeded)
		}
		// System-generated accounts keep the parent's type; user accounts may
		// diverge by convention only, so this is not enforced for them.
		if input.IsSystemAccount && parent.AccountType != input.AccountType {
			return nil, fmt.Errorf("system account type must match parent type: %w", ErrInvalid)
		}
	}

	now := s.now()
	res, err := database.DB.Exec(`
		INSERT INTO accounts (shop_id, code, name_ar, name_en, account_type, level, parent_id,
			is_system_account, is_active, balance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, 0, ?, ?)`,
		shopID, code, nameAr, nameEn, input.AccountType, level, input.ParentID,
		input.IsSystemAccount, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("duplicate account code or name: %w", ErrConflict)
		}
		return nil, fmt.Errorf("inserting account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new account id: %w", err)
	}
	logger.L.Info("Account created", "shopID", shopID, "accountID", id, "code", code, "level", level)
	return s.GetAccount(shopID, id)
}

func (s *accountServiceImpl) UpdateAccount(shopID, accountID int64, input models.UpdateAccountInput) (*models.Account, error) {
	account, err := s.GetAccount(shopID, accountID)
	if err != nil {
		return nil, err
	}

	nameAr := account.NameAr
	nameEn := account.NameEn
	if input.NameAr != nil {
		nameAr = validation.CleanText(*input.NameAr)
	}
	if input.NameEn != nil {
		nameEn = validation.CleanText(*input.NameEn)
	}
	if nameAr == "" || nameEn == "" {
		return nil, fmt.Errorf("account names cannot be empty: %w", ErrInvalid)
	}
	if nameAr != account.NameAr || nameEn != account.NameEn {
		if err := s.checkAccountUniqueness(shopID, account.Code, nameAr, nameEn, accountID); err != nil {
			return nil, err
		}
	}

	isActive := account.IsActive
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	// A reparent recomputes the level of the whole subtree, so the walk and
	// depth check happen before anything is written.
	reparent := input.ParentID != nil && (account.ParentID == nil || *account.ParentID != *input.ParentID)
	if !reparent {
		_, err = database.DB.Exec(`
			UPDATE accounts SET name_ar = ?, name_en = ?, is_active = ?, updated_at = ?
			WHERE id = ? AND shop_id = ?`,
			nameAr, nameEn, isActive, s.now(), accountID, shopID)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("duplicate account name: %w", ErrConflict)
			}
			return nil, fmt.Errorf("updating account %d: %w", accountID, err)
		}
		return s.GetAccount(shopID, accountID)
	}

	all, err := s.ListAccounts(shopID)
	if err != nil {
		return nil, err
	}
	if hierarchy.WouldCreateCycle(all, accountID, *input.ParentID) {
		return nil, fmt.Errorf("account %d cannot become a child of %d: %w", accountID, *input.ParentID, ErrCircularReference)
	}
	parent, err := s.GetAccount(shopID, *input.ParentID)
	if err != nil {
		return nil, err
	}
	newLevel := hierarchy.ChildLevel(parent)
	levelDelta := newLevel - account.Level

	subtreeIDs := hierarchy.CollectSubtree(all, accountID)
	for _, id := range subtreeIDs {
		for _, a := range all {
			if a.ID == id && a.Level+levelDelta > s.maxDepth {
				return nil, fmt.Errorf("reparenting would push account %d past depth %d: %w", id, s.maxDepth, ErrDepthExceeded)
			}
		}
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning account update transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE accounts SET name_ar = ?, name_en = ?, is_active = ?, parent_id = ?, level = ?, updated_at = ?
		WHERE id = ? AND shop_id = ?`,
		nameAr, nameEn, isActive, *input.ParentID, newLevel, s.now(), accountID, shopID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("duplicate account name: %w", ErrConflict)
		}
		return nil, fmt.Errorf("updating account %d: %w", accountID, err)
	}
	if levelDelta != 0 {
		for _, id := range subtreeIDs {
			if id == accountID {
				continue
			}
			if _, err := tx.Exec(`UPDATE accounts SET level = level + ?, updated_at = ? WHERE id = ?`, levelDelta, s.now(), id); err != nil {
				return nil, fmt.Errorf("releveling account %d: %w", id, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing account update: %w", err)
	}
	logger.L.Info("Account reparented", "shopID", shopID, "accountID", accountID, "newParentID", *input.ParentID, "newLevel", newLevel)
	return s.GetAccount(shopID, accountID)
}

func (s *accountServiceImpl) DeleteAccount(shopID, accountID int64) error {
	account, err := s.GetAccount(shopID, accountID)
	if err != nil {
		return err
	}
	if account.IsSystemAccount {
		return fmt.Errorf("system account %d cannot be deleted: %w", accountID, ErrForbidden)
	}

	var childCount int
	if err := database.DB.QueryRow(`SELECT COUNT(*) FROM accounts WHERE parent_id = ?`, accountID).Scan(&childCount); err != nil {
		return fmt.Errorf("counting children of account %d: %w", accountID, err)
	}
	if childCount > 0 {
		return fmt.Errorf("account %d has %d child accounts: %w", accountID, childCount, ErrForbidden)
	}

	var postingCount int
	err = database.DB.QueryRow(
		`SELECT COUNT(*) FROM transactions WHERE debit_account_id = ? OR credit_account_id = ?`,
		accountID, accountID).Scan(&postingCount)
	if err != nil {
		return fmt.Errorf("counting postings of account %d: %w", accountID, err)
	}
	if postingCount > 0 {
		// Financial data is never cascaded; soft-delete is the only removal.
		return fmt.Errorf("account %d has %d postings, deactivate it instead: %w", accountID, postingCount, ErrForbidden)
	}

	if _, err := database.DB.Exec(`DELETE FROM accounts WHERE id = ? AND shop_id = ?`, accountID, shopID); err != nil {
		return fmt.Errorf("deleting account %d: %w", accountID, err)
	}
	logger.L.Info("Account deleted", "shopID", shopID, "accountID", accountID, "code", account.Code)
	return nil
}

// ProvisionDefaultAccounts creates the fixed default chart for a new shop:
// five level-1 roots, then four level-2 children referencing them, all in one
// transaction so either the full set exists or none of it does.
func (s *accountServiceImpl) ProvisionDefaultAccounts(shopID int64, shopCode string) ([]models.Account, error) {
	shopCode = validation.CleanText(shopCode)
	if shopCode == "" {
		return nil, fmt.Errorf("shop code is required: %w", ErrInvalid)
	}

	var existing int
	err := database.DB.QueryRow(
		`SELECT COUNT(*) FROM accounts WHERE shop_id = ? AND is_system_account = 1`, shopID).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("checking existing default accounts: %w", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("shop %d already has default accounts: %w", shopID, ErrConflict)
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning provisioning transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	stmt, err := tx.Prepare(`
		INSERT INTO accounts (shop_id, code, name_ar, name_en, account_type, level, parent_id,
			is_system_account, is_active, balance, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, 1, 0, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing provisioning statement: %w", err)
	}
	defer stmt.Close()

	// First pass: level-1 roots.
	rootIDs := make([]int64, len(defaultLevel1Accounts))
	for i, spec := range defaultLevel1Accounts {
		code := fmt.Sprintf("%s-%s", spec.codePrefix, shopCode)
		res, err := stmt.Exec(shopID, code, spec.nameAr, spec.nameEn, spec.accountType, 1, nil, now, now)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("default account %s already exists: %w", code, ErrConflict)
			}
			return nil, fmt.Errorf("inserting default account %s: %w", code, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("reading id of default account %s: %w", code, err)
		}
		rootIDs[i] = id
	}

	// Second pass: level-2 children referencing the just-created roots.
	for _, spec := range defaultLevel2Accounts {
		code := fmt.Sprintf("%s-%s", spec.codePrefix, shopCode)
		parentID := rootIDs[spec.parentIdx]
		if _, err := stmt.Exec(shopID, code, spec.nameAr, spec.nameEn, spec.accountType, 2, parentID, now, now); err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("default account %s already exists: %w", code, ErrConflict)
			}
			return nil, fmt.Errorf("inserting default account %s: %w", code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing default accounts: %w", err)
	}
	logger.L.Info("Default accounts provisioned", "shopID", shopID, "shopCode", shopCode)

	accounts, err := s.ListAccounts(shopID)
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// ValidateHierarchyConsistency checks every level-2+ account against its
// parent: the parent must exist, sit exactly one level above, and share the
// account type. Used as a background integrity check, not a write gate.
func (s *accountServiceImpl) ValidateHierarchyConsistency(shopID int64) (bool, error) {
	accounts, err := s.ListAccounts(shopID)
	if err != nil {
		return false, err
	}
	byID := make(map[int64]models.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	for _, a := range accounts {
		if a.Level == 1 {
			if a.ParentID != nil {
				logger.L.Warn("Level-1 account has a parent", "shopID", shopID, "accountID", a.ID)
				return false, nil
			}
			continue
		}
		if a.ParentID == nil {
			logger.L.Warn("Non-root account has no parent", "shopID", shopID, "accountID", a.ID, "level", a.Level)
			return false, nil
		}
		parent, ok := byID[*a.ParentID]
		if !ok {
			logger.L.Warn("Account parent missing", "shopID", shopID, "accountID", a.ID, "parentID", *a.ParentID)
			return false, nil
		}
		if parent.Level != a.Level-1 {
			logger.L.Warn("Account level inconsistent with parent", "shopID", shopID, "accountID", a.ID,
				"level", a.Level, "parentLevel", parent.Level)
			return false, nil
		}
		if parent.AccountType != a.AccountType {
			logger.L.Warn("Account type differs from parent", "shopID", shopID, "accountID", a.ID,
				"type", a.AccountType, "parentType", parent.AccountType)
			return false, nil
		}
	}
	return true, nil
}
