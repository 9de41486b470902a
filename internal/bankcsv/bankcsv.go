// Package bankcsv converts raw rows from bank-issued CSV statements into
// canonical ledger transactions. Every supported bank ships its statements
// in a different layout, so each bank gets a table-driven Parser holding its
// delimiter, column map, and date format. Parsers are registered at package
// level and resolved by bank identifier.
package bankcsv

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"myfund/internal/logger"
)

// Bank identifies a supported statement format.
type Bank string

// RowKind classifies a single statement row.
type RowKind int

const (
	// RowSkip marks rows that are neither income nor expense, e.g. card
	// authorization holds where both amount columns are blank.
	RowSkip RowKind = iota
	RowExpense
	RowIncome
)

// Transaction is the canonical form of one recognized statement row.
// Owner and budget are attached by the import pipeline, not here.
type Transaction struct {
	Kind       RowKind
	Name       string
	Amount     decimal.Decimal
	OccurredAt time.Time
}

// Parser converts rows of one bank's statement layout. A row carries its
// amount in exactly one of two mutually exclusive columns: the expense
// column or the income column.
type Parser struct {
	delimiter  string
	dateLayout string
	dateCol    int
	nameCol    int
	expenseCol int
	incomeCol  int
}

// Delimiter returns the field delimiter of this bank's statements.
func (p *Parser) Delimiter() string { return p.delimiter }

// Classify decides whether a split row is an income, an expense, or neither.
// Rows with both amount columns blank or both populated are skipped.
func (p *Parser) Classify(fields []string) RowKind {
	if len(fields) <= p.expenseCol || len(fields) <= p.incomeCol {
		return RowSkip
	}

	hasExpense := strings.TrimSpace(fields[p.expenseCol]) != ""
	hasIncome := strings.TrimSpace(fields[p.incomeCol]) != ""

	switch {
	case hasExpense && !hasIncome:
		return RowExpense
	case hasIncome && !hasExpense:
		return RowIncome
	default:
		return RowSkip
	}
}

// ToExpense builds an expense transaction from a row previously classified
// as RowExpense. The amount is stored as its absolute value; the statement
// convention of negative outgoing amounts is not carried into the ledger.
func (p *Parser) ToExpense(fields []string) (Transaction, error) {
	occurredAt, err := p.parseDate(fields)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		Kind:       RowExpense,
		Name:       strings.TrimSpace(fields[p.nameCol]),
		Amount:     parseAmount(fields[p.expenseCol]).Abs(),
		OccurredAt: occurredAt,
	}, nil
}

// ToIncome builds an income transaction from a row previously classified as
// RowIncome.
func (p *Parser) ToIncome(fields []string) (Transaction, error) {
	occurredAt, err := p.parseDate(fields)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		Kind:       RowIncome,
		Name:       strings.TrimSpace(fields[p.nameCol]),
		Amount:     parseAmount(fields[p.incomeCol]),
		OccurredAt: occurredAt,
	}, nil
}

func (p *Parser) parseDate(fields []string) (time.Time, error) {
	if len(fields) <= p.dateCol || len(fields) <= p.nameCol {
		return time.Time{}, fmt.Errorf("row has too few columns: %d", len(fields))
	}
	occurredAt, err := time.Parse(p.dateLayout, strings.TrimSpace(fields[p.dateCol]))
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable transaction date: %w", err)
	}
	return occurredAt, nil
}

// parseAmount normalizes a statement amount to a decimal. Statements use a
// decimal comma, and some banks prepend stray punctuation (currency marks,
// quoting artifacts) that must be stripped. A malformed amount degrades to
// zero with a logged warning so one bad cell does not abort the import.
func parseAmount(raw string) decimal.Decimal {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '-' && r != '+'
	})

	amount, err := decimal.NewFromString(s)
	if err != nil {
		logger.Get().Warnw("malformed statement amount, substituting zero",
			"raw", raw,
		)
		return decimal.Zero
	}
	return amount
}
