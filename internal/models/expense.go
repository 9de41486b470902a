package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a dated outgoing transaction linked to a budget and optionally
// to a category/subcategory pair. CategoryID and SubCategoryID are either
// both nil or both set and mutually consistent.
type Expense struct {
	Base
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	BudgetID      uint            `gorm:"not null;index" json:"budget_id"`
	Name          string          `gorm:"serializer:protected;not null" json:"name"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	CategoryID    *uint           `gorm:"index" json:"category_id,omitempty"`
	SubCategoryID *uint           `gorm:"index" json:"subcategory_id,omitempty"`
	OccurredAt    time.Time       `gorm:"not null" json:"occurred_at"`
}

// Income is a dated incoming transaction with the same category linkage
// rules as Expense.
type Income struct {
	Base
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	BudgetID      uint            `gorm:"not null;index" json:"budget_id"`
	Name          string          `gorm:"serializer:protected;not null" json:"name"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	CategoryID    *uint           `gorm:"index" json:"category_id,omitempty"`
	SubCategoryID *uint           `gorm:"index" json:"subcategory_id,omitempty"`
	OccurredAt    time.Time       `gorm:"not null" json:"occurred_at"`
}
