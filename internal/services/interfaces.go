package services

import (
	"io"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"myfund/internal/bankcsv"
	"myfund/internal/models"
	"myfund/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
}

// TransactionFields carries the caller-supplied fields of an expense or
// income. A zero OccurredAt means "now"; statement imports set it to the
// statement row's date instead.
type TransactionFields struct {
	Name          string
	Amount        decimal.Decimal
	CategoryID    *uint
	SubCategoryID *uint
	OccurredAt    time.Time
}

// BudgetServicer defines the contract for the ledger engine: budget
// lifecycle, transaction mutations with aggregate maintenance, and the
// computed aggregates exposed to callers.
type BudgetServicer interface {
	CreateBudget(userID uint, name string) (*models.Budget, error)
	CreateDefaultBudget(tx *gorm.DB, userID uint) error
	GetUserBudgets(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID uint) (*models.Budget, error)
	DeleteBudget(userID, budgetID uint) error

	CreateExpense(userID, budgetID uint, fields TransactionFields) (*models.Expense, error)
	CreateIncome(userID, budgetID uint, fields TransactionFields) (*models.Income, error)
	UpdateExpense(userID, expenseID uint, fields TransactionFields) (*models.Expense, error)
	UpdateIncome(userID, incomeID uint, fields TransactionFields) (*models.Income, error)
	DeleteExpense(userID, expenseID uint) error
	DeleteIncome(userID, incomeID uint) error
	GetBudgetExpenses(userID, budgetID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	GetBudgetIncomes(userID, budgetID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Income], error)

	GetTotalExpensesByCategory(userID, budgetID, categoryID uint) (*models.FinancialAggregate, error)
	GetTotalExpensesBySubCategory(userID, budgetID, subCategoryID uint) (*models.FinancialAggregate, error)
	GetTotalIncomesByCategory(userID, budgetID, categoryID uint) (*models.FinancialAggregate, error)
	GetTotalIncomesBySubCategory(userID, budgetID, subCategoryID uint) (*models.FinancialAggregate, error)
	CalculateExpensesSummary(userID, budgetID uint) (*models.ExpensesSummary, error)
}

// CategoryServicer defines the contract for category-related business logic,
// including the category/subcategory link validation the ledger engine
// relies on.
type CategoryServicer interface {
	CreateCategory(userID uint, name string, subCategoryNames []string) (*models.Category, error)
	GetUserCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID uint) (*models.Category, error)
	UpdateCategory(userID, categoryID uint, name string, subCategoryNames []string) (*models.Category, error)
	DeleteCategory(userID, categoryID uint) error
	DeleteSubCategory(userID, categoryID, subCategoryID uint) error
	ValidateCategoryLink(userID uint, categoryID, subCategoryID *uint) error
}

// ImportResult summarizes one statement import.
type ImportResult struct {
	Incomes  int `json:"incomes"`
	Expenses int `json:"expenses"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// StatementServicer defines the contract for the bank statement import
// pipeline.
type StatementServicer interface {
	Import(userID, budgetID uint, bank bankcsv.Bank, statement io.Reader) (*ImportResult, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
