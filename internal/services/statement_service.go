package services

import (
	"bufio"
	"io"
	"strings"

	"myfund/internal/bankcsv"
	apperrors "myfund/internal/errors"
	"myfund/internal/logger"
)

type statementService struct {
	budgets BudgetServicer
}

// NewStatementService creates a new statement import service instance.
func NewStatementService(budgets BudgetServicer) StatementServicer {
	return &statementService{budgets: budgets}
}

// Import reads a bank statement line by line and records each recognized row
// as an expense or income in the budget. The first line is the statement
// header and is discarded. Imported transactions carry no category links.
//
// The import is best-effort per row: a malformed line is logged and counted
// as failed, and the remaining lines still go through. Rows the layout
// classifies as neither income nor expense are skipped silently.
func (s *statementService) Import(userID, budgetID uint, bank bankcsv.Bank, statement io.Reader) (*ImportResult, error) {
	parser, ok := bankcsv.Lookup(bank)
	if !ok {
		return nil, apperrors.ErrUnsupportedBank
	}

	if _, err := s.budgets.GetBudgetByID(userID, budgetID); err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(statement)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err)
		}
		return nil, apperrors.ErrEmptyStatementFile
	}

	result := &ImportResult{}
	lineNo := 1
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			result.Skipped++
			continue
		}

		fields := strings.Split(line, parser.Delimiter())
		switch parser.Classify(fields) {
		case bankcsv.RowExpense:
			row, err := parser.ToExpense(fields)
			if err != nil {
				s.reportFailure(result, bank, lineNo, err)
				continue
			}
			if _, err := s.budgets.CreateExpense(userID, budgetID, TransactionFields{
				Name:       row.Name,
				Amount:     row.Amount,
				OccurredAt: row.OccurredAt,
			}); err != nil {
				s.reportFailure(result, bank, lineNo, err)
				continue
			}
			result.Expenses++

		case bankcsv.RowIncome:
			row, err := parser.ToIncome(fields)
			if err != nil {
				s.reportFailure(result, bank, lineNo, err)
				continue
			}
			if _, err := s.budgets.CreateIncome(userID, budgetID, TransactionFields{
				Name:       row.Name,
				Amount:     row.Amount,
				OccurredAt: row.OccurredAt,
			}); err != nil {
				s.reportFailure(result, bank, lineNo, err)
				continue
			}
			result.Incomes++

		default:
			result.Skipped++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow("statement imported",
		"bank", bank,
		"budget_id", budgetID,
		"user_id", userID,
		"expenses", result.Expenses,
		"incomes", result.Incomes,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

func (s *statementService) reportFailure(result *ImportResult, bank bankcsv.Bank, lineNo int, err error) {
	result.Failed++
	logger.Get().Warnw("statement line not imported",
		"bank", bank,
		"line", lineNo,
		"error", err,
	)
}
