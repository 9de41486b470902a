package services

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "myfund/internal/errors"
	"myfund/internal/logger"
	"myfund/internal/models"
	"myfund/internal/pagination"
)

// DefaultBudgetName is the name of the budget created for every new user.
const DefaultBudgetName = "Default Budget"

type budgetService struct {
	db         *gorm.DB
	categories CategoryServicer
}

// NewBudgetService creates a new budget service instance.
func NewBudgetService(db *gorm.DB, categories CategoryServicer) BudgetServicer {
	return &budgetService{db: db, categories: categories}
}

// CreateBudget creates a budget for the user. Budget names are unique per
// owner; two users may both have a budget called "Groceries".
func (s *budgetService) CreateBudget(userID uint, name string) (*models.Budget, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Budget name is required")
	}

	var count int64
	if err := s.db.Model(&models.Budget{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateBudgetName
	}

	budget := &models.Budget{
		UserID:       userID,
		Name:         name,
		Balance:      decimal.Zero,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("budget created",
		"budget_id", budget.ID,
		"user_id", userID,
	)
	return budget, nil
}

// CreateDefaultBudget creates the user's initial budget inside the caller's
// transaction. Used during registration.
func (s *budgetService) CreateDefaultBudget(tx *gorm.DB, userID uint) error {
	budget := &models.Budget{
		UserID:       userID,
		Name:         DefaultBudgetName,
		Balance:      decimal.Zero,
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	if err := tx.Create(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetUserBudgets returns the user's budgets, paginated.
func (s *budgetService) GetUserBudgets(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	query := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := query.Scopes(pagination.Paginate(page)).
		Order("id ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(budgets, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetBudgetByID returns a budget owned by the user.
func (s *budgetService) GetBudgetByID(userID, budgetID uint) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// DeleteBudget removes a budget together with all of its transactions.
func (s *budgetService) DeleteBudget(userID, budgetID uint) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("budget_id = ?", budget.ID).Delete(&models.Expense{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("budget_id = ?", budget.ID).Delete(&models.Income{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Get().Infow("budget deleted",
		"budget_id", budgetID,
		"user_id", userID,
	)
	return nil
}

// CreateExpense records an expense against a budget and refreshes the
// budget's totals in the same transaction.
func (s *budgetService) CreateExpense(userID, budgetID uint, fields TransactionFields) (*models.Expense, error) {
	if err := s.validateTransaction(userID, fields); err != nil {
		return nil, err
	}

	expense := &models.Expense{
		UserID:        userID,
		BudgetID:      budgetID,
		Name:          fields.Name,
		Amount:        fields.Amount,
		CategoryID:    fields.CategoryID,
		SubCategoryID: fields.SubCategoryID,
		OccurredAt:    occurredAtOrNow(fields.OccurredAt),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		budget, err := s.lockBudget(tx, userID, budgetID)
		if err != nil {
			return err
		}
		if err := tx.Create(expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.recalcTotals(tx, budget)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// CreateIncome records an income against a budget and refreshes the budget's
// totals in the same transaction.
func (s *budgetService) CreateIncome(userID, budgetID uint, fields TransactionFields) (*models.Income, error) {
	if err := s.validateTransaction(userID, fields); err != nil {
		return nil, err
	}

	income := &models.Income{
		UserID:        userID,
		BudgetID:      budgetID,
		Name:          fields.Name,
		Amount:        fields.Amount,
		CategoryID:    fields.CategoryID,
		SubCategoryID: fields.SubCategoryID,
		OccurredAt:    occurredAtOrNow(fields.OccurredAt),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		budget, err := s.lockBudget(tx, userID, budgetID)
		if err != nil {
			return err
		}
		if err := tx.Create(income).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.recalcTotals(tx, budget)
	})
	if err != nil {
		return nil, err
	}
	return income, nil
}

// UpdateExpense replaces the mutable fields of an expense and refreshes the
// budget's totals, so an amount change is reflected immediately.
func (s *budgetService) UpdateExpense(userID, expenseID uint, fields TransactionFields) (*models.Expense, error) {
	if err := s.validateTransaction(userID, fields); err != nil {
		return nil, err
	}

	var expense models.Expense
	if err := s.db.Where("id = ? AND user_id = ?", expenseID, userID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	expense.Name = fields.Name
	expense.Amount = fields.Amount
	expense.CategoryID = fields.CategoryID
	expense.SubCategoryID = fields.SubCategoryID
	expense.OccurredAt = occurredAtOrNow(fields.OccurredAt)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		budget, err := s.lockBudget(tx, userID, expense.BudgetID)
		if err != nil {
			return err
		}
		if err := tx.Save(&expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.recalcTotals(tx, budget)
	})
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

// UpdateIncome replaces the mutable fields of an income and refreshes the
// budget's totals.
func (s *budgetService) UpdateIncome(userID, incomeID uint, fields TransactionFields) (*models.Income, error) {
	if err := s.validateTransaction(userID, fields); err != nil {
		return nil, err
	}

	var income models.Income
	if err := s.db.Where("id = ? AND user_id = ?", incomeID, userID).First(&income).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrIncomeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	income.Name = fields.Name
	income.Amount = fields.Amount
	income.CategoryID = fields.CategoryID
	income.SubCategoryID = fields.SubCategoryID
	income.OccurredAt = occurredAtOrNow(fields.OccurredAt)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		budget, err := s.lockBudget(tx, userID, income.BudgetID)
		if err != nil {
			return err
		}
		if err := tx.Save(&income).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.recalcTotals(tx, budget)
	})
	if err != nil {
		return nil, err
	}
	return &income, nil
}

// DeleteExpense removes an expense and refreshes the budget's totals.
func (s *budgetService) DeleteExpense(userID, expenseID uint) error {
	var expense models.Expense
	if err := s.db.Where("id = ? AND user_id = ?", expenseID, userID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrExpenseNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		budget, err := s.lockBudget(tx, userID, expense.BudgetID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.recalcTotals(tx, budget)
	})
}

// DeleteIncome removes an income and refreshes the budget's totals.
func (s *budgetService) DeleteIncome(userID, incomeID uint) error {
	var income models.Income
	if err := s.db.Where("id = ? AND user_id = ?", incomeID, userID).First(&income).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrIncomeNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		budget, err := s.lockBudget(tx, userID, income.BudgetID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&income).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.recalcTotals(tx, budget)
	})
}

// GetBudgetExpenses returns a budget's expenses, newest first, paginated.
func (s *budgetService) GetBudgetExpenses(userID, budgetID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	if _, err := s.GetBudgetByID(userID, budgetID); err != nil {
		return nil, err
	}
	page.Defaults()

	query := s.db.Model(&models.Expense{}).Where("budget_id = ? AND user_id = ?", budgetID, userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := query.Scopes(pagination.Paginate(page)).
		Order("occurred_at DESC, id DESC").
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(expenses, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetBudgetIncomes returns a budget's incomes, newest first, paginated.
func (s *budgetService) GetBudgetIncomes(userID, budgetID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Income], error) {
	if _, err := s.GetBudgetByID(userID, budgetID); err != nil {
		return nil, err
	}
	page.Defaults()

	query := s.db.Model(&models.Income{}).Where("budget_id = ? AND user_id = ?", budgetID, userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var incomes []models.Income
	if err := query.Scopes(pagination.Paginate(page)).
		Order("occurred_at DESC, id DESC").
		Find(&incomes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(incomes, page.Page, page.PageSize, total)
	return &resp, nil
}

// GetTotalExpensesByCategory sums a budget's expenses linked to the category.
// A category with no expenses yields a zero-valued aggregate, not an error.
func (s *budgetService) GetTotalExpensesByCategory(userID, budgetID, categoryID uint) (*models.FinancialAggregate, error) {
	if _, err := s.GetBudgetByID(userID, budgetID); err != nil {
		return nil, err
	}

	total, err := s.sumExpenses(s.db.Where("budget_id = ? AND user_id = ? AND category_id = ?", budgetID, userID, categoryID))
	if err != nil {
		return nil, err
	}
	return &models.FinancialAggregate{
		Value:      total,
		CategoryID: &categoryID,
		BudgetID:   budgetID,
		UserID:     userID,
		Kind:       models.ExpensesByCategory,
	}, nil
}

// GetTotalExpensesBySubCategory sums a budget's expenses linked to the
// subcategory.
func (s *budgetService) GetTotalExpensesBySubCategory(userID, budgetID, subCategoryID uint) (*models.FinancialAggregate, error) {
	if _, err := s.GetBudgetByID(userID, budgetID); err != nil {
		return nil, err
	}

	total, err := s.sumExpenses(s.db.Where("budget_id = ? AND user_id = ? AND sub_category_id = ?", budgetID, userID, subCategoryID))
	if err != nil {
		return nil, err
	}
	return &models.FinancialAggregate{
		Value:         total,
		SubCategoryID: &subCategoryID,
		BudgetID:      budgetID,
		UserID:        userID,
		Kind:          models.ExpensesBySubCategory,
	}, nil
}

// GetTotalIncomesByCategory sums a budget's incomes linked to the category.
func (s *budgetService) GetTotalIncomesByCategory(userID, budgetID, categoryID uint) (*models.FinancialAggregate, error) {
	if _, err := s.GetBudgetByID(userID, budgetID); err != nil {
		return nil, err
	}

	total, err := s.sumIncomes(s.db.Where("budget_id = ? AND user_id = ? AND category_id = ?", budgetID, userID, categoryID))
	if err != nil {
		return nil, err
	}
	return &models.FinancialAggregate{
		Value:      total,
		CategoryID: &categoryID,
		BudgetID:   budgetID,
		UserID:     userID,
		Kind:       models.IncomesByCategory,
	}, nil
}

// GetTotalIncomesBySubCategory sums a budget's incomes linked to the
// subcategory.
func (s *budgetService) GetTotalIncomesBySubCategory(userID, budgetID, subCategoryID uint) (*models.FinancialAggregate, error) {
	if _, err := s.GetBudgetByID(userID, budgetID); err != nil {
		return nil, err
	}

	total, err := s.sumIncomes(s.db.Where("budget_id = ? AND user_id = ? AND sub_category_id = ?", budgetID, userID, subCategoryID))
	if err != nil {
		return nil, err
	}
	return &models.FinancialAggregate{
		Value:         total,
		SubCategoryID: &subCategoryID,
		BudgetID:      budgetID,
		UserID:        userID,
		Kind:          models.IncomesBySubCategory,
	}, nil
}

// CalculateExpensesSummary breaks a budget's expenses down per category and
// per subcategory within each category, with each category's share of the
// overall spend as a fraction in [0, 1]. Uncategorized expenses form their
// own group, sorted last.
func (s *budgetService) CalculateExpensesSummary(userID, budgetID uint) (*models.ExpensesSummary, error) {
	if _, err := s.GetBudgetByID(userID, budgetID); err != nil {
		return nil, err
	}

	var expenses []models.Expense
	if err := s.db.Where("budget_id = ? AND user_id = ?", budgetID, userID).Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &models.ExpensesSummary{Categories: []models.CategoryExpenses{}}
	if len(expenses) == 0 {
		return summary, nil
	}

	type group struct {
		categoryID *uint
		total      decimal.Decimal
		subTotals  map[uint]decimal.Decimal
		noSubTotal decimal.Decimal
		hasNoSub   bool
	}

	grandTotal := decimal.Zero
	groups := map[uint]*group{}
	var noCategory *group

	for i := range expenses {
		e := &expenses[i]
		grandTotal = grandTotal.Add(e.Amount)

		var g *group
		if e.CategoryID == nil {
			if noCategory == nil {
				noCategory = &group{total: decimal.Zero, subTotals: map[uint]decimal.Decimal{}}
			}
			g = noCategory
		} else {
			g = groups[*e.CategoryID]
			if g == nil {
				id := *e.CategoryID
				g = &group{categoryID: &id, total: decimal.Zero, subTotals: map[uint]decimal.Decimal{}}
				groups[id] = g
			}
		}

		g.total = g.total.Add(e.Amount)
		if e.SubCategoryID == nil {
			g.hasNoSub = true
			g.noSubTotal = g.noSubTotal.Add(e.Amount)
		} else {
			g.subTotals[*e.SubCategoryID] = g.subTotals[*e.SubCategoryID].Add(e.Amount)
		}
	}

	ordered := make([]*group, 0, len(groups)+1)
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool { return *ordered[i].categoryID < *ordered[j].categoryID })
	if noCategory != nil {
		ordered = append(ordered, noCategory)
	}

	for _, g := range ordered {
		share := decimal.Zero
		if !grandTotal.IsZero() {
			share = g.total.Div(grandTotal).Round(4)
		}

		entry := models.CategoryExpenses{
			CategoryID:        g.categoryID,
			TotalExpenses:     g.total,
			PercentageOfTotal: share,
			SubCategories:     []models.SubCategoryExpenses{},
		}

		subIDs := make([]uint, 0, len(g.subTotals))
		for id := range g.subTotals {
			subIDs = append(subIDs, id)
		}
		sort.Slice(subIDs, func(i, j int) bool { return subIDs[i] < subIDs[j] })
		for _, id := range subIDs {
			subID := id
			entry.SubCategories = append(entry.SubCategories, models.SubCategoryExpenses{
				SubCategoryID: &subID,
				ExpenseAmount: g.subTotals[id],
			})
		}
		if g.hasNoSub {
			entry.SubCategories = append(entry.SubCategories, models.SubCategoryExpenses{
				ExpenseAmount: g.noSubTotal,
			})
		}

		summary.Categories = append(summary.Categories, entry)
	}

	return summary, nil
}

// validateTransaction checks the caller-supplied fields shared by expense and
// income mutations.
func (s *budgetService) validateTransaction(userID uint, fields TransactionFields) error {
	if fields.Name == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Transaction name is required")
	}
	if fields.Amount.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Amount must not be negative")
	}
	return s.categories.ValidateCategoryLink(userID, fields.CategoryID, fields.SubCategoryID)
}

// lockBudget loads the budget row for a mutation. On Postgres the row is
// locked FOR UPDATE so concurrent mutations of the same budget serialize;
// SQLite has a single writer and rejects the locking clause.
func (s *budgetService) lockBudget(tx *gorm.DB, userID, budgetID uint) (*models.Budget, error) {
	query := tx
	if tx.Dialector.Name() == "postgres" {
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var budget models.Budget
	if err := query.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// recalcTotals re-derives the budget's totals from its transaction rows and
// writes them back. Re-summing instead of incrementing keeps the totals
// correct even if an earlier write left them stale.
func (s *budgetService) recalcTotals(tx *gorm.DB, budget *models.Budget) error {
	totalExpense, err := s.sumExpenses(tx.Where("budget_id = ?", budget.ID))
	if err != nil {
		return err
	}
	totalIncome, err := s.sumIncomes(tx.Where("budget_id = ?", budget.ID))
	if err != nil {
		return err
	}

	return tx.Model(budget).Updates(map[string]interface{}{
		"total_income":  totalIncome,
		"total_expense": totalExpense,
		"balance":       totalIncome.Sub(totalExpense),
	}).Error
}

// sumExpenses adds up the amounts of all expenses matched by the query.
// Summation happens in Go with decimals so no precision is lost to the
// driver's float conversion.
func (s *budgetService) sumExpenses(query *gorm.DB) (decimal.Decimal, error) {
	var expenses []models.Expense
	if err := query.Find(&expenses).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	total := decimal.Zero
	for i := range expenses {
		total = total.Add(expenses[i].Amount)
	}
	return total, nil
}

// sumIncomes adds up the amounts of all incomes matched by the query.
func (s *budgetService) sumIncomes(query *gorm.DB) (decimal.Decimal, error) {
	var incomes []models.Income
	if err := query.Find(&incomes).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	total := decimal.Zero
	for i := range incomes {
		total = total.Add(incomes[i].Amount)
	}
	return total, nil
}

func occurredAtOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
