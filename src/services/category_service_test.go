package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hossamsharif/shopledger/backend/src/models"
)

func TestCreateCategory_HierarchyRules(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := NewCategoryService(3)

	root, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "OPEX", NameAr: "تشغيلية", NameEn: "Operating",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, root.Level)

	child, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "OPEX-UTIL", NameAr: "مرافق", NameEn: "Utilities", ParentID: &root.ID,
	})
	require.NoError(t, err)
	leaf, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "OPEX-UTIL-EL", NameAr: "كهرباء", NameEn: "Electricity", ParentID: &child.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, leaf.Level)

	_, err = svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "DEEP", NameAr: "عميق", NameEn: "Deep", ParentID: &leaf.ID,
	})
	assert.ErrorIs(t, err, ErrDepthExceeded)

	_, err = svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "OPEX", NameAr: "مكرر", NameEn: "Duplicate",
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateCategory_SystemDeactivationForbidden(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := NewCategoryService(3)

	category, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "SYS", NameAr: "نظامية", NameEn: "System", IsSystemCategory: true,
	})
	require.NoError(t, err)

	inactive := false
	_, err = svc.UpdateCategory(shopID, category.ID, models.UpdateCategoryInput{IsActive: &inactive})
	assert.ErrorIs(t, err, ErrForbidden)

	// Renaming a system category is still allowed.
	newName := "Core"
	updated, err := svc.UpdateCategory(shopID, category.ID, models.UpdateCategoryInput{NameEn: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Core", updated.NameEn)
}

func TestUpdateCategory_ReparentRelevelsSubtree(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := NewCategoryService(3)

	a, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "A", NameAr: "أ", NameEn: "A",
	})
	require.NoError(t, err)
	b, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "B", NameAr: "ب", NameEn: "B",
	})
	require.NoError(t, err)
	b2, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "B-2", NameAr: "ب٢", NameEn: "B child", ParentID: &b.ID,
	})
	require.NoError(t, err)

	moved, err := svc.UpdateCategory(shopID, b.ID, models.UpdateCategoryInput{ParentID: &a.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, moved.Level)

	// The descendant follows parent level plus one.
	child, err := svc.GetCategory(shopID, b2.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, child.Level)
}

func TestUpdateCategory_ReparentPastDepthRejected(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := NewCategoryService(3)

	a, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "A", NameAr: "أ", NameEn: "A",
	})
	require.NoError(t, err)
	b, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "B", NameAr: "ب", NameEn: "B",
	})
	require.NoError(t, err)
	b2, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "B-2", NameAr: "ب٢", NameEn: "B child", ParentID: &b.ID,
	})
	require.NoError(t, err)
	b3, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "B-3", NameAr: "ب٣", NameEn: "B grandchild", ParentID: &b2.ID,
	})
	require.NoError(t, err)

	// The grandchild would land at level 4, past the cap.
	_, err = svc.UpdateCategory(shopID, b.ID, models.UpdateCategoryInput{ParentID: &a.ID})
	assert.ErrorIs(t, err, ErrDepthExceeded)

	// Nothing moved.
	for id, level := range map[int64]int{b.ID: 1, b2.ID: 2, b3.ID: 3} {
		c, err := svc.GetCategory(shopID, id)
		require.NoError(t, err)
		assert.Equal(t, level, c.Level)
	}
	unchanged, err := svc.GetCategory(shopID, b.ID)
	require.NoError(t, err)
	assert.Nil(t, unchanged.ParentID)
}

func TestUpdateCategory_ReparentCycleRejected(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := NewCategoryService(3)

	parent, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "P", NameAr: "أب", NameEn: "Parent",
	})
	require.NoError(t, err)
	child, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "P-C", NameAr: "ابن", NameEn: "Child", ParentID: &parent.ID,
	})
	require.NoError(t, err)

	_, err = svc.UpdateCategory(shopID, parent.ID, models.UpdateCategoryInput{ParentID: &child.ID})
	assert.ErrorIs(t, err, ErrCircularReference)
}

func TestAssignAccount_ExpenseOnly(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := NewCategoryService(3)

	category, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "OPEX", NameAr: "تشغيلية", NameEn: "Operating",
	})
	require.NoError(t, err)

	expenseID := createTestAccount(t, shopID, "EXP", models.AccountTypeExpense, 1, nil)
	assetID := createTestAccount(t, shopID, "AST", models.AccountTypeAsset, 1, nil)

	assignment, err := svc.AssignAccount(shopID, category.ID, expenseID)
	require.NoError(t, err)
	assert.Equal(t, expenseID, assignment.AccountID)

	_, err = svc.AssignAccount(shopID, category.ID, assetID)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.AssignAccount(shopID, category.ID, expenseID)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.AssignAccount(shopID, category.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnassignAccount(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := NewCategoryService(3)

	category, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "OPEX", NameAr: "تشغيلية", NameEn: "Operating",
	})
	require.NoError(t, err)
	expenseID := createTestAccount(t, shopID, "EXP", models.AccountTypeExpense, 1, nil)

	_, err = svc.AssignAccount(shopID, category.ID, expenseID)
	require.NoError(t, err)

	require.NoError(t, svc.UnassignAccount(shopID, category.ID, expenseID))
	assert.ErrorIs(t, svc.UnassignAccount(shopID, category.ID, expenseID), ErrNotFound)

	assignments, err := svc.ListAssignments(shopID, category.ID)
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestDeleteCategory_RemovesAssignments(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := NewCategoryService(3)

	category, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "OPEX", NameAr: "تشغيلية", NameEn: "Operating",
	})
	require.NoError(t, err)
	expenseID := createTestAccount(t, shopID, "EXP", models.AccountTypeExpense, 1, nil)
	_, err = svc.AssignAccount(shopID, category.ID, expenseID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCategory(shopID, category.ID))
	_, err = svc.GetCategory(shopID, category.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assignments, err := svc.ListAssignments(shopID, category.ID)
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestDeleteCategory_Refusals(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := NewCategoryService(3)

	system, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "SYS", NameAr: "نظامية", NameEn: "System", IsSystemCategory: true,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteCategory(shopID, system.ID), ErrForbidden)

	parent, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "P", NameAr: "أب", NameEn: "Parent",
	})
	require.NoError(t, err)
	_, err = svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "P-C", NameAr: "ابن", NameEn: "Child", ParentID: &parent.ID,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, svc.DeleteCategory(shopID, parent.ID), ErrForbidden)
}

func TestBulkImportCategories_PerItemResults(t *testing.T) {
	setupTestDB(t)
	shopID := createTestShop(t, "S1")
	svc := NewCategoryService(3)

	_, err := svc.CreateCategory(shopID, models.CreateCategoryInput{
		Code: "TAKEN", NameAr: "محجوز", NameEn: "Taken",
	})
	require.NoError(t, err)

	summary, err := svc.BulkImportCategories(shopID, []models.CreateCategoryInput{
		{Code: "NEW1", NameAr: "جديد١", NameEn: "New 1"},
		{Code: "TAKEN", NameAr: "مكرر", NameEn: "Duplicate"},
		{Code: "NEW2", NameAr: "جديد٢", NameEn: "New 2"},
		{Code: "", NameAr: "بلا رمز", NameEn: "No code"},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	require.Len(t, summary.Items, 4)
	assert.True(t, summary.Items[0].Success)
	assert.False(t, summary.Items[1].Success)
	assert.NotEmpty(t, summary.Items[1].Error)
	assert.True(t, summary.Items[2].Success)
	assert.False(t, summary.Items[3].Success)

	categories, err := svc.ListCategories(shopID)
	require.NoError(t, err)
	assert.Len(t, categories, 3)
}
