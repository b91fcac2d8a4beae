package cgd

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

// layout is one flavour of CGD export, recognised by its header names.
type layout struct {
	name   string
	date   string
	desc   string
	method transaction.PaymentMethod
	amount movement
}

func (l layout) required() []string {
	return append([]string{l.date, l.desc}, l.amount.columns()...)
}

// movement reads the money that moved on a row. ok is false for rows that
// carry no movement, such as balances and page footers.
type movement interface {
	columns() []string
	read(r record) (amount decimal.Decimal, typ transaction.Type, ok bool)
}

// signedColumn is a single column where debits are negative.
type signedColumn string

func (c signedColumn) columns() []string { return []string{string(c)} }

func (c signedColumn) read(r record) (decimal.Decimal, transaction.Type, bool) {
	d, ok := amountOf(r.get(string(c)))
	if !ok {
		return decimal.Zero, "", false
	}

	if d.IsNegative() {
		return d.Neg(), transaction.TypeExpense, true
	}

	return d, transaction.TypeIncome, true
}

// debitCredit splits the movement over two unsigned columns. A debit wins
// when a malformed row fills both.
type debitCredit struct {
	debit, credit string
}

func (c debitCredit) columns() []string { return []string{c.debit, c.credit} }

func (c debitCredit) read(r record) (decimal.Decimal, transaction.Type, bool) {
	if d, ok := amountOf(r.get(c.debit)); ok {
		return d.Abs(), transaction.TypeExpense, true
	}

	if d, ok := amountOf(r.get(c.credit)); ok {
		return d.Abs(), transaction.TypeIncome, true
	}

	return decimal.Zero, "", false
}

// Card exports go first: "Data" alone would otherwise match nothing more
// specific, and the account layouts never carry a Débito column.
var layouts = []layout{
	{
		name:   "cartão",
		date:   "Data",
		desc:   "Descrição",
		method: transaction.PaymentDebitCard,
		amount: debitCredit{debit: "Débito", credit: "Crédito"},
	},
	{
		name:   "extrato",
		date:   "Data mov.",
		desc:   "Descrição",
		method: transaction.PaymentBankTransfer,
		amount: signedColumn("Movimento"),
	},
	{
		name:   "conta",
		date:   "Data mov.",
		desc:   "Descrição",
		method: transaction.PaymentBankTransfer,
		amount: signedColumn("Montante"),
	},
}
