package services

import (
	"testing"

	"myfund/internal/models"
	"myfund/internal/pagination"
	"myfund/internal/testutil"
)

func TestCreateCategory(t *testing.T) {
	t.Run("with_subcategories", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		category, err := svc.CreateCategory(user.ID, "Food", []string{"Groceries", "Restaurants"})
		testutil.AssertNoError(t, err)

		if category.ID == 0 {
			t.Fatal("expected non-zero category ID")
		}
		if len(category.SubCategories) != 2 {
			t.Fatalf("expected 2 subcategories, got %d", len(category.SubCategories))
		}
		for _, sub := range category.SubCategories {
			if sub.CategoryID != category.ID {
				t.Errorf("subcategory %d not linked to category", sub.ID)
			}
		}
	})

	t.Run("duplicate_name_same_owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(user.ID, "Food", nil)
		testutil.AssertNoError(t, err)

		_, err = svc.CreateCategory(user.ID, "Food", nil)
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY_NAME")
	})

	t.Run("same_name_different_owners", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(user1.ID, "Food", nil)
		testutil.AssertNoError(t, err)

		_, err = svc.CreateCategory(user2.ID, "Food", nil)
		testutil.AssertNoError(t, err)
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(user.ID, "", nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserCategories(t *testing.T) {
	t.Run("scoped_to_owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)

		testutil.CreateTestCategory(t, db, user1.ID, 2)
		testutil.CreateTestCategory(t, db, user2.ID, 0)

		page := pagination.PageRequest{Page: 1, PageSize: 20}
		result, err := svc.GetUserCategories(user1.ID, page)
		testutil.AssertNoError(t, err)

		if result.TotalItems != 1 {
			t.Fatalf("expected 1 category, got %d", result.TotalItems)
		}
		if len(result.Data[0].SubCategories) != 2 {
			t.Errorf("expected subcategories preloaded, got %d", len(result.Data[0].SubCategories))
		}
	})
}

func TestUpdateCategory(t *testing.T) {
	t.Run("rename_and_merge_subcategories", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		category, err := svc.CreateCategory(user.ID, "Food", []string{"Groceries"})
		testutil.AssertNoError(t, err)

		updated, err := svc.UpdateCategory(user.ID, category.ID, "Eating", []string{"Groceries", "Restaurants"})
		testutil.AssertNoError(t, err)

		if updated.Name != "Eating" {
			t.Errorf("expected renamed category, got %s", updated.Name)
		}
		if len(updated.SubCategories) != 2 {
			t.Fatalf("expected existing subcategory kept and one added, got %d", len(updated.SubCategories))
		}
	})

	t.Run("rename_to_taken_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(user.ID, "Food", nil)
		testutil.AssertNoError(t, err)
		category, err := svc.CreateCategory(user.ID, "Travel", nil)
		testutil.AssertNoError(t, err)

		_, err = svc.UpdateCategory(user.ID, category.ID, "Food", nil)
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY_NAME")
	})
}

func TestDeleteCategory(t *testing.T) {
	t.Run("clears_transaction_links_and_keeps_amounts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		catSvc := NewCategoryService(db)
		budgetSvc := NewBudgetService(db, catSvc)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)

		category, err := catSvc.CreateCategory(user.ID, "Food", []string{"Groceries"})
		testutil.AssertNoError(t, err)

		expense, err := budgetSvc.CreateExpense(user.ID, budget.ID, TransactionFields{
			Name:          "Weekly shop",
			Amount:        amount("42"),
			CategoryID:    &category.ID,
			SubCategoryID: &category.SubCategories[0].ID,
		})
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, catSvc.DeleteCategory(user.ID, category.ID))

		var reloaded models.Expense
		if err := db.First(&reloaded, expense.ID).Error; err != nil {
			t.Fatalf("failed to reload expense: %v", err)
		}
		if reloaded.CategoryID != nil || reloaded.SubCategoryID != nil {
			t.Error("expected category links to be cleared")
		}
		testutil.AssertDecimalEqual(t, amount("42"), reloaded.Amount)

		got, err := budgetSvc.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, amount("42"), got.TotalExpense)

		_, err = catSvc.GetCategoryByID(user.ID, category.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")

		var subCount int64
		if err := db.Model(&models.SubCategory{}).Where("category_id = ?", category.ID).Count(&subCount).Error; err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if subCount != 0 {
			t.Errorf("expected subcategories deleted, found %d", subCount)
		}
	})

	t.Run("cross_owner_delete_fails", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, owner.ID, 0)

		err := svc.DeleteCategory(other.ID, category.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestDeleteSubCategory(t *testing.T) {
	t.Run("clears_subcategory_link_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		catSvc := NewCategoryService(db)
		budgetSvc := NewBudgetService(db, catSvc)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)

		category, err := catSvc.CreateCategory(user.ID, "Food", []string{"Groceries"})
		testutil.AssertNoError(t, err)
		subID := category.SubCategories[0].ID

		expense, err := budgetSvc.CreateExpense(user.ID, budget.ID, TransactionFields{
			Name:          "Weekly shop",
			Amount:        amount("42"),
			CategoryID:    &category.ID,
			SubCategoryID: &subID,
		})
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, catSvc.DeleteSubCategory(user.ID, category.ID, subID))

		var reloaded models.Expense
		if err := db.First(&reloaded, expense.ID).Error; err != nil {
			t.Fatalf("failed to reload expense: %v", err)
		}
		if reloaded.SubCategoryID != nil {
			t.Error("expected subcategory link cleared")
		}
		if reloaded.CategoryID == nil {
			t.Error("expected category link kept")
		}
	})

	t.Run("unknown_subcategory", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.ID, 0)

		err := svc.DeleteSubCategory(user.ID, category.ID, 9999)
		testutil.AssertAppError(t, err, "SUBCATEGORY_NOT_FOUND")
	})
}

func TestValidateCategoryLink(t *testing.T) {
	t.Run("both_absent_is_valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		testutil.AssertNoError(t, svc.ValidateCategoryLink(user.ID, nil, nil))
	})

	t.Run("exactly_one_present_is_invalid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.ID, 1)

		err := svc.ValidateCategoryLink(user.ID, &category.ID, nil)
		testutil.AssertAppError(t, err, "INVALID_CATEGORY_LINK")

		err = svc.ValidateCategoryLink(user.ID, nil, &category.SubCategories[0].ID)
		testutil.AssertAppError(t, err, "INVALID_CATEGORY_LINK")
	})

	t.Run("foreign_category_is_invalid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, owner.ID, 1)

		err := svc.ValidateCategoryLink(other.ID, &category.ID, &category.SubCategories[0].ID)
		testutil.AssertAppError(t, err, "INVALID_CATEGORY_LINK")
	})

	t.Run("unknown_ids_are_invalid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		err := svc.ValidateCategoryLink(user.ID, uintPtr(9999), uintPtr(9999))
		testutil.AssertAppError(t, err, "INVALID_CATEGORY_LINK")
	})
}
