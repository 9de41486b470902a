package services

import (
	"testing"

	"myfund/internal/models"
	"myfund/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	t.Run("provisions_default_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgetSvc := NewBudgetService(db, NewCategoryService(db))
		svc := NewUserService(db, budgetSvc)

		user, err := svc.CreateUser("new@test.com", "password123")
		testutil.AssertNoError(t, err)

		if user.ID == 0 {
			t.Fatal("expected non-zero user ID")
		}
		if user.Password == "password123" {
			t.Error("expected password to be hashed")
		}

		var budgets []models.Budget
		if err := db.Where("user_id = ?", user.ID).Find(&budgets).Error; err != nil {
			t.Fatalf("failed to load budgets: %v", err)
		}
		if len(budgets) != 1 {
			t.Fatalf("expected one default budget, got %d", len(budgets))
		}
		if budgets[0].Name != DefaultBudgetName {
			t.Errorf("expected default budget name, got %s", budgets[0].Name)
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgetSvc := NewBudgetService(db, NewCategoryService(db))
		svc := NewUserService(db, budgetSvc)

		_, err := svc.CreateUser("dup@test.com", "password123")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser("dup@test.com", "password123")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})
}

func TestAttemptLogin(t *testing.T) {
	t.Run("valid_credentials", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgetSvc := NewBudgetService(db, NewCategoryService(db))
		svc := NewUserService(db, budgetSvc)

		created, err := svc.CreateUser("login@test.com", "password123")
		testutil.AssertNoError(t, err)

		user, err := svc.AttemptLogin("login@test.com", "password123")
		testutil.AssertNoError(t, err)
		if user.ID != created.ID {
			t.Errorf("expected user %d, got %d", created.ID, user.ID)
		}
		if user.LastLoginAt == nil {
			t.Error("expected login time to be recorded")
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgetSvc := NewBudgetService(db, NewCategoryService(db))
		svc := NewUserService(db, budgetSvc)

		_, err := svc.CreateUser("login2@test.com", "password123")
		testutil.AssertNoError(t, err)

		_, err = svc.AttemptLogin("login2@test.com", "wrong")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgetSvc := NewBudgetService(db, NewCategoryService(db))
		svc := NewUserService(db, budgetSvc)

		_, err := svc.AttemptLogin("nobody@test.com", "password123")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})
}
