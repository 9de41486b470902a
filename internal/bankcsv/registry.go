package bankcsv

// Supported banks.
const (
	BankMillenium Bank = "millenium"
	BankSantander Bank = "santander"
)

// parsers maps each supported bank to its statement layout.
//
// Millenium exports comma-delimited rows with ISO dates; the expense and
// income amounts sit in adjacent columns. Santander uses semicolons,
// day-first dates, and carries the amounts further right in the row.
var parsers = map[Bank]*Parser{
	BankMillenium: {
		delimiter:  ",",
		dateLayout: "2006-01-02",
		dateCol:    1,
		nameCol:    6,
		expenseCol: 7,
		incomeCol:  8,
	},
	BankSantander: {
		delimiter:  ";",
		dateLayout: "02-01-2006",
		dateCol:    2,
		nameCol:    4,
		incomeCol:  10,
		expenseCol: 11,
	},
}

// Lookup resolves the parser for a bank identifier.
func Lookup(bank Bank) (*Parser, bool) {
	p, ok := parsers[bank]
	return p, ok
}

// IsSupported reports whether a bank identifier has a registered parser.
func IsSupported(bank Bank) bool {
	_, ok := parsers[bank]
	return ok
}
