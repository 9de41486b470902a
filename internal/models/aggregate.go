package models

import "github.com/shopspring/decimal"

// AggregateKind identifies which transaction set and grouping a
// FinancialAggregate was computed over.
type AggregateKind string

const (
	ExpensesByCategory    AggregateKind = "expenses_by_category"
	ExpensesBySubCategory AggregateKind = "expenses_by_subcategory"
	IncomesByCategory     AggregateKind = "incomes_by_category"
	IncomesBySubCategory  AggregateKind = "incomes_by_subcategory"
)

// FinancialAggregate is a computed, non-persisted sum of transactions
// matching a category or subcategory filter within one budget.
type FinancialAggregate struct {
	Value         decimal.Decimal `json:"value"`
	CategoryID    *uint           `json:"category_id,omitempty"`
	SubCategoryID *uint           `json:"subcategory_id,omitempty"`
	BudgetID      uint            `json:"budget_id"`
	UserID        uint            `json:"user_id"`
	Kind          AggregateKind   `json:"kind"`
}

// ExpensesSummary is a percentage-weighted breakdown of a budget's expenses
// by category, with a per-subcategory breakdown nested in each entry.
// Uncategorized expenses form their own group with a nil CategoryID.
type ExpensesSummary struct {
	Categories []CategoryExpenses `json:"expenses_summary"`
}

// CategoryExpenses holds one category's share of a budget's expenses.
// PercentageOfTotal is a fraction in [0, 1]; it is zero when the budget has
// no expenses at all.
type CategoryExpenses struct {
	CategoryID        *uint                 `json:"category_id"`
	TotalExpenses     decimal.Decimal       `json:"total_expenses"`
	PercentageOfTotal decimal.Decimal       `json:"percentage_of_total"`
	SubCategories     []SubCategoryExpenses `json:"subcategories"`
}

// SubCategoryExpenses holds one subcategory's expense total within a
// category group.
type SubCategoryExpenses struct {
	SubCategoryID *uint           `json:"subcategory_id"`
	ExpenseAmount decimal.Decimal `json:"expense_amount"`
}
