package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"myfund/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestBudget creates an empty budget with a unique name.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID uint) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:       userID,
		Name:         fmt.Sprintf("Test Budget %d", nextID()),
		Balance:      decimal.Zero,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestCategory creates a category with the given number of
// subcategories.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID uint, subCategories int) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
	}
	for i := 0; i < subCategories; i++ {
		category.SubCategories = append(category.SubCategories, models.SubCategory{
			Name: fmt.Sprintf("Test Subcategory %d", nextID()),
		})
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestExpense creates an expense with the given amount.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID, budgetID uint, amount decimal.Decimal) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:     userID,
		BudgetID:   budgetID,
		Name:       fmt.Sprintf("Test Expense %d", nextID()),
		Amount:     amount,
		OccurredAt: time.Now(),
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestIncome creates an income with the given amount.
func CreateTestIncome(t *testing.T, db *gorm.DB, userID, budgetID uint, amount decimal.Decimal) *models.Income {
	t.Helper()

	income := &models.Income{
		UserID:     userID,
		BudgetID:   budgetID,
		Name:       fmt.Sprintf("Test Income %d", nextID()),
		Amount:     amount,
		OccurredAt: time.Now(),
	}
	if err := db.Create(income).Error; err != nil {
		t.Fatalf("failed to create test income: %v", err)
	}
	return income
}
