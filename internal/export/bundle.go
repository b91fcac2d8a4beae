package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/daterange"
	"github.com/MrJamesThe3rd/ledgerly/internal/invoice"
	"github.com/MrJamesThe3rd/ledgerly/internal/rowcodec"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

const (
	bundleTransactions = "transactions.csv"
	bundleInvoices     = "invoices.csv"
	bundleSummary      = "summary.txt"
)

func BundleFilename(now time.Time) string {
	return fmt.Sprintf("export_%s.zip", now.UTC().Format("20060102"))
}

// Bundle is one period's worth of data packed for an accountant.
type Bundle struct {
	Range        daterange.Range
	Transactions []*transaction.Transaction
	Invoices     []*invoice.Invoice
	ClientNames  map[string]string
}

// WriteBundle zips both CSV exports and a plain-text summary into w.
func WriteBundle(w io.Writer, b Bundle) error {
	zw := zip.NewWriter(w)

	var buf bytes.Buffer

	if err := WriteTransactions(&buf, b.Transactions, b.ClientNames); err != nil {
		return err
	}

	if err := addFile(zw, bundleTransactions, buf.Bytes()); err != nil {
		return err
	}

	buf.Reset()

	if err := WriteInvoices(&buf, b.Invoices, b.ClientNames); err != nil {
		return err
	}

	if err := addFile(zw, bundleInvoices, buf.Bytes()); err != nil {
		return err
	}

	if err := addFile(zw, bundleSummary, []byte(Summary(b))); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing zip: %w", err)
	}

	return nil
}

func addFile(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	return nil
}

// Summary renders the period totals followed by one line per transaction.
func Summary(b Bundle) string {
	var sb strings.Builder

	stats := transaction.Summarize(b.Transactions)

	outstanding := decimal.Zero
	for _, inv := range b.Invoices {
		if inv.Status != invoice.StatusCancelled {
			outstanding = outstanding.Add(inv.BalanceDue)
		}
	}

	fmt.Fprintf(&sb, "Period: %s\n", periodLabel(b.Range))
	fmt.Fprintf(&sb, "Income: %s\n", stats.TotalIncome.StringFixed(2))
	fmt.Fprintf(&sb, "Expenses: %s\n", stats.TotalExpenses.StringFixed(2))
	fmt.Fprintf(&sb, "Net: %s\n", stats.NetBalance.StringFixed(2))
	fmt.Fprintf(&sb, "Invoices: %d, outstanding %s\n", len(b.Invoices), outstanding.StringFixed(2))

	if len(b.Transactions) > 0 {
		sb.WriteString("\n")
	}

	for _, tx := range b.Transactions {
		sign := "-"
		if tx.Type == transaction.TypeIncome {
			sign = "+"
		}

		fmt.Fprintf(&sb, "* %s | %s | %s%s | %s\n",
			rowcodec.Date(tx.Date), tx.Description, sign, tx.Amount.StringFixed(2), categoryOr(tx.Category))
	}

	return sb.String()
}

func periodLabel(r daterange.Range) string {
	switch {
	case r.IsZero():
		return "all time"
	case r.End.IsZero():
		return "since " + rowcodec.Date(r.Start)
	case r.Start.IsZero():
		return "until " + rowcodec.Date(r.End)
	}

	return rowcodec.Date(r.Start) + " to " + rowcodec.Date(r.End)
}

func categoryOr(c string) string {
	if c == "" {
		return "Uncategorized"
	}

	return c
}
