package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/MrJamesThe3rd/ledgerly/internal/invoice"
	"github.com/MrJamesThe3rd/ledgerly/internal/rowcodec"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

var transactionColumns = []string{
	"Date", "Type", "Amount", "Category", "Description", "Payment Method",
	"Client", "Tags", "Notes", "Created By", "Created At",
}

var invoiceColumns = []string{
	"Invoice Number", "Client", "Issue Date", "Due Date", "Status", "Subtotal",
	"Tax Rate", "Tax", "Total", "Paid Amount", "Balance Due", "Line Items",
	"Created By", "Created At",
}

func TransactionsFilename(now time.Time) string {
	return fmt.Sprintf("transactions_%s.csv", now.UTC().Format(time.DateOnly))
}

func InvoicesFilename(now time.Time) string {
	return fmt.Sprintf("invoices_%s.csv", now.UTC().Format(time.DateOnly))
}

// WriteTransactions writes one CSV row per transaction. names resolves client
// ids to display names; unknown ids give an empty cell.
func WriteTransactions(w io.Writer, txs []*transaction.Transaction, names map[string]string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(transactionColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, tx := range txs {
		row := []string{
			rowcodec.Date(tx.Date),
			capitalize(string(tx.Type)),
			tx.Amount.StringFixed(2),
			tx.Category,
			tx.Description,
			string(tx.PaymentMethod),
			names[tx.ClientID],
			strings.Join(tx.Tags, ", "),
			tx.Notes,
			tx.CreatedBy,
			rowcodec.Time(tx.CreatedAt),
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing transaction %s: %w", tx.ID, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

func WriteInvoices(w io.Writer, invs []*invoice.Invoice, names map[string]string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(invoiceColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, inv := range invs {
		row := []string{
			inv.Number,
			names[inv.ClientID],
			rowcodec.Date(inv.IssueDate),
			rowcodec.Date(inv.DueDate),
			capitalize(string(inv.Status)),
			inv.Subtotal.StringFixed(2),
			inv.TaxRate.StringFixed(2) + "%",
			inv.Tax.StringFixed(2),
			inv.Total.StringFixed(2),
			inv.PaidAmount.StringFixed(2),
			inv.BalanceDue.StringFixed(2),
			strconv.Itoa(len(inv.Items)),
			inv.CreatedBy,
			rowcodec.Time(inv.CreatedAt),
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing invoice %s: %w", inv.ID, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}
