package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hossamsharif/shopledger/backend/src/database"
	"github.com/hossamsharif/shopledger/backend/src/hierarchy"
	"github.com/hossamsharif/shopledger/backend/src/logger"
	"github.com/hossamsharif/shopledger/backend/src/models"
	"github.com/hossamsharif/shopledger/backend/src/security/validation"
)

const categoryColumns = `id, shop_id, code, name_ar, name_en, level, parent_id,
	is_system_category, is_active, created_at, updated_at`

type categoryServiceImpl struct {
	maxDepth int
	now      func() time.Time
}

func NewCategoryService(maxDepth int) CategoryService {
	return &categoryServiceImpl{
		maxDepth: maxDepth,
		now:      time.Now,
	}
}

func scanCategory(row interface{ Scan(...any) error }) (*models.ExpenseCategory, error) {
	var c models.ExpenseCategory
	var parentID sql.NullInt64
	err := row.Scan(&c.ID, &c.ShopID, &c.Code, &c.NameAr, &c.NameEn, &c.Level,
		&parentID, &c.IsSystemCategory, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		c.ParentID = &parentID.Int64
	}
	return &c, nil
}

func (s *categoryServiceImpl) GetCategory(shopID, categoryID int64) (*models.ExpenseCategory, error) {
	row := database.DB.QueryRow(`SELECT `+categoryColumns+` FROM expense_categories WHERE id = ? AND shop_id = ?`, categoryID, shopID)
	category, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category %d: %w", categoryID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying category %d: %w", categoryID, err)
	}
	return category, nil
}

func (s *categoryServiceImpl) ListCategories(shopID int64) ([]models.ExpenseCategory, error) {
	rows, err := database.DB.Query(`SELECT `+categoryColumns+` FROM expense_categories WHERE shop_id = ? ORDER BY level, code`, shopID)
	if err != nil {
		return nil, fmt.Errorf("querying categories for shop %d: %w", shopID, err)
	}
	defer rows.Close()

	var categories []models.ExpenseCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	if categories == nil {
		categories = []models.ExpenseCategory{}
	}
	return categories, nil
}

func (s *categoryServiceImpl) CategoryTree(shopID int64) (hierarchy.Forest[models.ExpenseCategory], error) {
	categories, err := s.ListCategories(shopID)
	if err != nil {
		return hierarchy.Forest[models.ExpenseCategory]{}, err
	}
	forest := hierarchy.BuildForest(categories)
	if len(forest.OrphanIDs) > 0 {
		logger.L.Warn("Orphaned categories detected while building tree", "shopID", shopID, "orphanIDs", forest.OrphanIDs)
	}
	return forest, nil
}

func (s *categoryServiceImpl) checkCategoryUniqueness(shopID int64, code, nameAr, nameEn string, excludeID int64) error {
	var count int
	err := database.DB.QueryRow(
		`SELECT COUNT(*) FROM expense_categories WHERE shop_id = ? AND code = ? AND id != ?`,
		shopID, code, excludeID).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking category code uniqueness: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("category code %q already exists in shop: %w", code, ErrConflict)
	}
	err = database.DB.QueryRow(
		`SELECT COUNT(*) FROM expense_categories WHERE shop_id = ? AND name_ar = ? AND name_en = ? AND id != ?`,
		shopID, nameAr, nameEn, excludeID).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking category name uniqueness: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("category name pair already exists in shop: %w", ErrConflict)
	}
	return nil
}

func (s *categoryServiceImpl) CreateCategory(shopID int64, input models.CreateCategoryInput) (*models.ExpenseCategory, error) {
	code := validation.CleanText(input.Code)
	nameAr := validation.CleanText(input.NameAr)
	nameEn := validation.CleanText(input.NameEn)
	if code == "" || nameAr == "" || nameEn == "" {
		return nil, fmt.Errorf("code and both names are required: %w", ErrInvalid)
	}

	if err := s.checkCategoryUniqueness(shopID, code, nameAr, nameEn, 0); err != nil {
		return nil, err
	}

	level := 1
	if input.ParentID != nil {
		parent, err := s.GetCategory(shopID, *input.ParentID)
		if err != nil {
			return nil, err
		}
		level = hierarchy.ChildLevel(parent)
		if level > s.maxDepth {
			return nil, fmt.Errorf("category level %d exceeds maximum depth %d: %w", level, s.maxDepth, ErrDepthExceeded)
		}
	}

	now := s.now()
	res, err := database.DB.Exec(`
		INSERT INTO expense_categories (shop_id, code, name_ar, name_en, level, parent_id,
			is_system_category, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		shopID, code, nameAr, nameEn, level, input.ParentID, input.IsSystemCategory, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("duplicate category code or name: %w", ErrConflict)
		}
		return nil, fmt.Errorf("inserting category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new category id: %w", err)
	}
	logger.L.Info("Expense category created", "shopID", shopID, "categoryID", id, "code", code, "level", level)
	return s.GetCategory(shopID, id)
}

func (s *categoryServiceImpl) UpdateCategory(shopID, categoryID int64, input models.UpdateCategoryInput) (*models.ExpenseCategory, error) {
	category, err := s.GetCategory(shopID, categoryID)
	if err != nil {
		return nil, err
	}

	if input.IsActive != nil && !*input.IsActive && category.IsSystemCategory {
		return nil, fmt.Errorf("system category %d cannot be deactivated: %w", categoryID, ErrForbidden)
	}

	nameAr := category.NameAr
	nameEn := category.NameEn
	if input.NameAr != nil {
		nameAr = validation.CleanText(*input.NameAr)
	}
	if input.NameEn != nil {
		nameEn = validation.CleanText(*input.NameEn)
	}
	if nameAr == "" || nameEn == "" {
		return nil, fmt.Errorf("category names cannot be empty: %w", ErrInvalid)
	}
	if nameAr != category.NameAr || nameEn != category.NameEn {
		if err := s.checkCategoryUniqueness(shopID, category.Code, nameAr, nameEn, categoryID); err != nil {
			return nil, err
		}
	}

	isActive := category.IsActive
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	// A reparent recomputes the level of the whole subtree, so the walk and
	// depth check happen before anything is written.
	reparent := input.ParentID != nil && (category.ParentID == nil || *category.ParentID != *input.ParentID)
	if !reparent {
		_, err = database.DB.Exec(`
			UPDATE expense_categories SET name_ar = ?, name_en = ?, is_active = ?, updated_at = ?
			WHERE id = ? AND shop_id = ?`,
			nameAr, nameEn, isActive, s.now(), categoryID, shopID)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("duplicate category name: %w", ErrConflict)
			}
			return nil, fmt.Errorf("updating category %d: %w", categoryID, err)
		}
		return s.GetCategory(shopID, categoryID)
	}

	all, err := s.ListCategories(shopID)
	if err != nil {
		return nil, err
	}
	if hierarchy.WouldCreateCycle(all, categoryID, *input.ParentID) {
		return nil, fmt.Errorf("category %d cannot become a child of %d: %w", categoryID, *input.ParentID, ErrCircularReference)
	}
	parent, err := s.GetCategory(shopID, *input.ParentID)
	if err != nil {
		return nil, err
	}
	newLevel := hierarchy.ChildLevel(parent)
	levelDelta := newLevel - category.Level

	subtreeIDs := hierarchy.CollectSubtree(all, categoryID)
	for _, id := range subtreeIDs {
		for _, c := range all {
			if c.ID == id && c.Level+levelDelta > s.maxDepth {
				return nil, fmt.Errorf("reparenting would push category %d past depth %d: %w", id, s.maxDepth, ErrDepthExceeded)
			}
		}
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning category update transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE expense_categories SET name_ar = ?, name_en = ?, is_active = ?, parent_id = ?, level = ?, updated_at = ?
		WHERE id = ? AND shop_id = ?`,
		nameAr, nameEn, isActive, *input.ParentID, newLevel, s.now(), categoryID, shopID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("duplicate category name: %w", ErrConflict)
		}
		return nil, fmt.Errorf("updating category %d: %w", categoryID, err)
	}
	if levelDelta != 0 {
		for _, id := range subtreeIDs {
			if id == categoryID {
				continue
			}
			if _, err := tx.Exec(`UPDATE expense_categories SET level = level + ?, updated_at = ? WHERE id = ?`, levelDelta, s.now(), id); err != nil {
				return nil, fmt.Errorf("releveling category %d: %w", id, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing category update: %w", err)
	}
	logger.L.Info("Category reparented", "shopID", shopID, "categoryID", categoryID, "newParentID", *input.ParentID, "newLevel", newLevel)
	return s.GetCategory(shopID, categoryID)
}

func (s *categoryServiceImpl) DeleteCategory(shopID, categoryID int64) error {
	category, err := s.GetCategory(shopID, categoryID)
	if err != nil {
		return err
	}
	if category.IsSystemCategory {
		return fmt.Errorf("system category %d cannot be deleted: %w", categoryID, ErrForbidden)
	}

	var childCount int
	if err := database.DB.QueryRow(`SELECT COUNT(*) FROM expense_categories WHERE parent_id = ?`, categoryID).Scan(&childCount); err != nil {
		return fmt.Errorf("counting children of category %d: %w", categoryID, err)
	}
	if childCount > 0 {
		return fmt.Errorf("category %d has %d child categories: %w", categoryID, childCount, ErrForbidden)
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("beginning category delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM category_account_assignments WHERE category_id = ? AND shop_id = ?`, categoryID, shopID); err != nil {
		return fmt.Errorf("deleting assignments of category %d: %w", categoryID, err)
	}
	if _, err := tx.Exec(`DELETE FROM expense_categories WHERE id = ? AND shop_id = ?`, categoryID, shopID); err != nil {
		return fmt.Errorf("deleting category %d: %w", categoryID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing category delete: %w", err)
	}
	logger.L.Info("Expense category deleted", "shopID", shopID, "categoryID", categoryID, "code", category.Code)
	return nil
}

func (s *categoryServiceImpl) AssignAccount(shopID, categoryID, accountID int64) (*models.CategoryAssignment, error) {
	if _, err := s.GetCategory(shopID, categoryID); err != nil {
		return nil, err
	}

	var accountType models.AccountType
	err := database.DB.QueryRow(
		`SELECT account_type FROM accounts WHERE id = ? AND shop_id = ?`, accountID, shopID).Scan(&accountType)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying account %d: %w", accountID, err)
	}
	if accountType != models.AccountTypeExpense {
		return nil, fmt.Errorf("account %d is %s, only expense accounts can be categorized: %w", accountID, accountType, ErrInvalid)
	}

	now := s.now()
	res, err := database.DB.Exec(`
		INSERT INTO category_account_assignments (category_id, account_id, shop_id, created_at)
		VALUES (?, ?, ?, ?)`,
		categoryID, accountID, shopID, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("account %d already assigned to category %d: %w", accountID, categoryID, ErrConflict)
		}
		return nil, fmt.Errorf("inserting assignment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new assignment id: %w", err)
	}
	return &models.CategoryAssignment{
		ID:         id,
		CategoryID: categoryID,
		AccountID:  accountID,
		ShopID:     shopID,
		CreatedAt:  now,
	}, nil
}

func (s *categoryServiceImpl) UnassignAccount(shopID, categoryID, accountID int64) error {
	res, err := database.DB.Exec(
		`DELETE FROM category_account_assignments WHERE category_id = ? AND account_id = ? AND shop_id = ?`,
		categoryID, accountID, shopID)
	if err != nil {
		return fmt.Errorf("deleting assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading assignment delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("assignment of account %d to category %d: %w", accountID, categoryID, ErrNotFound)
	}
	return nil
}

func (s *categoryServiceImpl) ListAssignments(shopID, categoryID int64) ([]models.CategoryAssignment, error) {
	rows, err := database.DB.Query(`
		SELECT id, category_id, account_id, shop_id, created_at
		FROM category_account_assignments
		WHERE shop_id = ? AND category_id = ?
		ORDER BY id`, shopID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("querying assignments: %w", err)
	}
	defer rows.Close()

	var assignments []models.CategoryAssignment
	for rows.Next() {
		var a models.CategoryAssignment
		if err := rows.Scan(&a.ID, &a.CategoryID, &a.AccountID, &a.ShopID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assignments: %w", err)
	}
	if assignments == nil {
		assignments = []models.CategoryAssignment{}
	}
	return assignments, nil
}

// BulkImportCategories creates each input independently, collecting a
// per-item result list instead of aborting on the first failure.
func (s *categoryServiceImpl) BulkImportCategories(shopID int64, inputs []models.CreateCategoryInput) (*models.BulkImportSummary, error) {
	summary := &models.BulkImportSummary{
		Total: len(inputs),
		Items: make([]models.BulkImportItemResult, 0, len(inputs)),
	}
	for _, input := range inputs {
		item := models.BulkImportItemResult{Code: input.Code}
		category, err := s.CreateCategory(shopID, input)
		if err != nil {
			if !errors.Is(err, ErrConflict) && !errors.Is(err, ErrNotFound) &&
				!errors.Is(err, ErrInvalid) && !errors.Is(err, ErrDepthExceeded) {
				// Storage-level failure, not a per-row domain rejection.
				return nil, err
			}
			item.Error = err.Error()
			summary.Failed++
		} else {
			item.Success = true
			item.ID = category.ID
			summary.Succeeded++
		}
		summary.Items = append(summary.Items, item)
	}
	logger.L.Info("Bulk category import finished", "shopID", shopID,
		"total", summary.Total, "succeeded", summary.Succeeded, "failed", summary.Failed)
	return summary, nil
}
