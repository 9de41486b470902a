package services

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"myfund/internal/models"
	"myfund/internal/testutil"
)

const milleniumHeader = "No,Date,Account,Type,Ref,Details,Description,Debit,Credit"

// milleniumLine builds one millenium statement line. Debit carries expenses
// as negative amounts, credit carries incomes. Amounts use a decimal dot:
// the row delimiter is a comma, so a decimal comma would split the amount
// across two fields.
func milleniumLine(date, name, debit, credit string) string {
	return strings.Join([]string{"1", date, "PL61109010140000071219812874", "TRANSFER", "", "", name, debit, credit}, ",")
}

func TestImport(t *testing.T) {
	t.Run("millenium_statement", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgetSvc := NewBudgetService(db, NewCategoryService(db))
		svc := NewStatementService(budgetSvc)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)

		statement := strings.Join([]string{
			milleniumHeader,
			milleniumLine("2024-03-01", "GROCERY STORE", "-9.07", ""),
			milleniumLine("2024-03-05", "SALARY MARCH", "", "1000.00"),
			milleniumLine("2024-03-06", "CARD AUTH HOLD", "", ""),
		}, "\n")

		result, err := svc.Import(user.ID, budget.ID, "millenium", strings.NewReader(statement))
		testutil.AssertNoError(t, err)

		if result.Expenses != 1 || result.Incomes != 1 {
			t.Errorf("expected 1 expense and 1 income, got %d/%d", result.Expenses, result.Incomes)
		}
		if result.Skipped != 1 {
			t.Errorf("expected 1 skipped row, got %d", result.Skipped)
		}

		got, err := budgetSvc.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, amount("1000"), got.TotalIncome)
		testutil.AssertDecimalEqual(t, amount("9.07"), got.TotalExpense)
		testutil.AssertDecimalEqual(t, amount("990.93"), got.Balance)

		var expense models.Expense
		if err := db.Where("budget_id = ?", budget.ID).First(&expense).Error; err != nil {
			t.Fatalf("failed to load imported expense: %v", err)
		}
		if expense.Name != "GROCERY STORE" {
			t.Errorf("expected imported name, got %q", expense.Name)
		}
		if expense.CategoryID != nil || expense.SubCategoryID != nil {
			t.Error("imported transactions must carry no category links")
		}
		want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		if !expense.OccurredAt.Equal(want) {
			t.Errorf("expected statement date %s, got %s", want, expense.OccurredAt)
		}
	})

	t.Run("santander_statement", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgetSvc := NewBudgetService(db, NewCategoryService(db))
		svc := NewStatementService(budgetSvc)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)

		row := make([]string, 12)
		row[2] = "15-02-2024"
		row[4] = "PHARMACY"
		row[11] = "-23,50"

		statement := "header line\n" + strings.Join(row, ";")

		result, err := svc.Import(user.ID, budget.ID, "santander", strings.NewReader(statement))
		testutil.AssertNoError(t, err)

		if result.Expenses != 1 {
			t.Fatalf("expected 1 expense, got %d", result.Expenses)
		}

		got, err := budgetSvc.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, amount("23.50"), got.TotalExpense)
	})

	t.Run("malformed_amount_imports_as_zero", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgetSvc := NewBudgetService(db, NewCategoryService(db))
		svc := NewStatementService(budgetSvc)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)

		statement := milleniumHeader + "\n" + milleniumLine("2024-03-01", "GLITCHED ROW", "garbage", "")

		result, err := svc.Import(user.ID, budget.ID, "millenium", strings.NewReader(statement))
		testutil.AssertNoError(t, err)

		if result.Expenses != 1 {
			t.Fatalf("expected row to import, got %d expenses (%d failed)", result.Expenses, result.Failed)
		}

		got, err := budgetSvc.GetBudgetByID(user.ID, budget.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, decimal.Zero, got.TotalExpense)
	})

	t.Run("bad_date_counts_as_failed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgetSvc := NewBudgetService(db, NewCategoryService(db))
		svc := NewStatementService(budgetSvc)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)

		statement := strings.Join([]string{
			milleniumHeader,
			milleniumLine("not-a-date", "BROKEN ROW", "-5.00", ""),
			milleniumLine("2024-03-02", "GOOD ROW", "-7.00", ""),
		}, "\n")

		result, err := svc.Import(user.ID, budget.ID, "millenium", strings.NewReader(statement))
		testutil.AssertNoError(t, err)

		if result.Failed != 1 {
			t.Errorf("expected 1 failed row, got %d", result.Failed)
		}
		if result.Expenses != 1 {
			t.Errorf("expected the remaining row to import, got %d", result.Expenses)
		}
	})

	t.Run("empty_file", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgetSvc := NewBudgetService(db, NewCategoryService(db))
		svc := NewStatementService(budgetSvc)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)

		_, err := svc.Import(user.ID, budget.ID, "millenium", strings.NewReader(""))
		testutil.AssertAppError(t, err, "EMPTY_STATEMENT_FILE")
	})

	t.Run("header_only_imports_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgetSvc := NewBudgetService(db, NewCategoryService(db))
		svc := NewStatementService(budgetSvc)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)

		result, err := svc.Import(user.ID, budget.ID, "millenium", strings.NewReader(milleniumHeader))
		testutil.AssertNoError(t, err)
		if result.Expenses != 0 || result.Incomes != 0 {
			t.Errorf("expected nothing imported, got %d/%d", result.Expenses, result.Incomes)
		}
	})

	t.Run("unsupported_bank", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgetSvc := NewBudgetService(db, NewCategoryService(db))
		svc := NewStatementService(budgetSvc)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)

		_, err := svc.Import(user.ID, budget.ID, "monopoly", strings.NewReader("header\ndata"))
		testutil.AssertAppError(t, err, "UNSUPPORTED_BANK")
	})

	t.Run("cross_owner_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		budgetSvc := NewBudgetService(db, NewCategoryService(db))
		svc := NewStatementService(budgetSvc)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, owner.ID)

		_, err := svc.Import(other.ID, budget.ID, "millenium", strings.NewReader(milleniumHeader))
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}
