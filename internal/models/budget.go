package models

import "github.com/shopspring/decimal"

// Budget is a named container of expense and income transactions with
// maintained aggregate totals. The invariant
//
//	Balance == TotalIncome - TotalExpense
//
// holds after every committed mutation; totals are re-derived from the
// transaction rows rather than incremented.
type Budget struct {
	Base
	UserID       uint            `gorm:"not null;index" json:"user_id"`
	Name         string          `gorm:"not null" json:"name"`
	Balance      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"balance"`
	TotalIncome  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_income"`
	TotalExpense decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_expense"`

	// Relationships
	Expenses []Expense `gorm:"foreignKey:BudgetID" json:"expenses,omitempty"`
	Incomes  []Income  `gorm:"foreignKey:BudgetID" json:"incomes,omitempty"`
}
