package bankcsv

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// milleniumRow builds a millenium-layout row with the given date, name, and
// amount columns.
func milleniumRow(date, name, expense, income string) []string {
	fields := make([]string, 9)
	fields[1] = date
	fields[6] = name
	fields[7] = expense
	fields[8] = income
	return fields
}

// santanderRow builds a santander-layout row.
func santanderRow(date, name, income, expense string) []string {
	fields := make([]string, 12)
	fields[2] = date
	fields[4] = name
	fields[10] = income
	fields[11] = expense
	return fields
}

func TestLookup(t *testing.T) {
	t.Run("known_banks", func(t *testing.T) {
		for _, bank := range []Bank{BankMillenium, BankSantander} {
			if _, ok := Lookup(bank); !ok {
				t.Errorf("expected parser for %s", bank)
			}
			if !IsSupported(bank) {
				t.Errorf("expected %s to be supported", bank)
			}
		}
	})

	t.Run("unknown_bank", func(t *testing.T) {
		if _, ok := Lookup("monopoly"); ok {
			t.Error("expected no parser for unknown bank")
		}
		if IsSupported("monopoly") {
			t.Error("expected unknown bank to be unsupported")
		}
	})
}

func TestClassify(t *testing.T) {
	parser, _ := Lookup(BankMillenium)

	t.Run("expense_only", func(t *testing.T) {
		kind := parser.Classify(milleniumRow("2024-03-01", "GROCERY STORE", "-9,07", ""))
		if kind != RowExpense {
			t.Errorf("expected RowExpense, got %v", kind)
		}
	})

	t.Run("income_only", func(t *testing.T) {
		kind := parser.Classify(milleniumRow("2024-03-01", "SALARY", "", "1000,00"))
		if kind != RowIncome {
			t.Errorf("expected RowIncome, got %v", kind)
		}
	})

	t.Run("both_blank", func(t *testing.T) {
		kind := parser.Classify(milleniumRow("2024-03-01", "AUTH HOLD", "", ""))
		if kind != RowSkip {
			t.Errorf("expected RowSkip, got %v", kind)
		}
	})

	t.Run("both_populated", func(t *testing.T) {
		kind := parser.Classify(milleniumRow("2024-03-01", "WEIRD ROW", "-1,00", "1,00"))
		if kind != RowSkip {
			t.Errorf("expected RowSkip, got %v", kind)
		}
	})

	t.Run("too_few_columns", func(t *testing.T) {
		kind := parser.Classify([]string{"a", "b"})
		if kind != RowSkip {
			t.Errorf("expected RowSkip, got %v", kind)
		}
	})
}

func TestToExpense(t *testing.T) {
	t.Run("millenium_negative_amount_stored_absolute", func(t *testing.T) {
		parser, _ := Lookup(BankMillenium)

		tx, err := parser.ToExpense(milleniumRow("2024-03-01", "GROCERY STORE", "-9,07", ""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !tx.Amount.Equal(decimal.RequireFromString("9.07")) {
			t.Errorf("expected amount 9.07, got %s", tx.Amount)
		}
		if tx.Name != "GROCERY STORE" {
			t.Errorf("expected name GROCERY STORE, got %q", tx.Name)
		}
		want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		if !tx.OccurredAt.Equal(want) {
			t.Errorf("expected date %s, got %s", want, tx.OccurredAt)
		}
	})

	t.Run("santander_day_first_date", func(t *testing.T) {
		parser, _ := Lookup(BankSantander)

		tx, err := parser.ToExpense(santanderRow("15-02-2024", "PHARMACY", "", "-23,50"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !tx.Amount.Equal(decimal.RequireFromString("23.5")) {
			t.Errorf("expected amount 23.5, got %s", tx.Amount)
		}
		want := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
		if !tx.OccurredAt.Equal(want) {
			t.Errorf("expected date %s, got %s", want, tx.OccurredAt)
		}
	})

	t.Run("unparseable_date", func(t *testing.T) {
		parser, _ := Lookup(BankMillenium)

		_, err := parser.ToExpense(milleniumRow("not-a-date", "GROCERY STORE", "-9,07", ""))
		if err == nil {
			t.Fatal("expected error for unparseable date")
		}
		if !strings.Contains(err.Error(), "date") {
			t.Errorf("expected date error, got: %v", err)
		}
	})
}

func TestToIncome(t *testing.T) {
	t.Run("millenium_salary", func(t *testing.T) {
		parser, _ := Lookup(BankMillenium)

		tx, err := parser.ToIncome(milleniumRow("2024-03-05", "SALARY MARCH", "", "1000,00"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !tx.Amount.Equal(decimal.RequireFromString("1000")) {
			t.Errorf("expected amount 1000, got %s", tx.Amount)
		}
		if tx.Kind != RowIncome {
			t.Errorf("expected RowIncome, got %v", tx.Kind)
		}
	})
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"decimal_comma", "12,34", "12.34"},
		{"negative", "-9,07", "-9.07"},
		{"leading_currency_mark", "€12,34", "12.34"},
		{"leading_quote_artifact", `"'-5,00`, "-5"},
		{"surrounding_whitespace", "  7,50 ", "7.5"},
		{"plain_integer", "1000", "1000"},
		{"malformed_degrades_to_zero", "n/a", "0"},
		{"empty_degrades_to_zero", "", "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseAmount(tc.raw)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Errorf("parseAmount(%q) = %s, want %s", tc.raw, got, tc.want)
			}
		})
	}
}
