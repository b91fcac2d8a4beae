package export

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/invoice"
)

// Business is the issuer block printed at the top of every invoice.
type Business struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

const defaultBusinessName = "Your Business"

var (
	muted = &props.Color{Red: 100, Green: 100, Blue: 100}
	brand = &props.Color{Red: 30, Green: 58, Blue: 138}
	alert = &props.Color{Red: 239, Green: 68, Blue: 68}

	statusColors = map[invoice.Status]*props.Color{
		invoice.StatusDraft:     {Red: 156, Green: 163, Blue: 175},
		invoice.StatusSent:      {Red: 59, Green: 130, Blue: 246},
		invoice.StatusPaid:      {Red: 34, Green: 197, Blue: 94},
		invoice.StatusOverdue:   {Red: 239, Green: 68, Blue: 68},
		invoice.StatusCancelled: {Red: 107, Green: 114, Blue: 128},
	}
)

func PDFFilename(inv *invoice.Invoice) string {
	return fmt.Sprintf("invoice_%s.pdf", inv.Number)
}

// InvoicePDF renders inv as a printable document. c may be nil when the
// client no longer exists; the bill-to block is then left empty. Rows that do
// not fit flow onto new pages, each footed with its page number.
func InvoicePDF(inv *invoice.Invoice, c *client.Client, biz Business) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.Bottom,
			Size:    8,
			Color:   muted,
		}).
		Build()

	m := maroto.New(cfg)

	name := biz.Name
	if name == "" {
		name = defaultBusinessName
	}

	m.AddRow(12,
		text.NewCol(8, name, props.Text{Size: 20, Style: fontstyle.Bold, Color: brand}),
		text.NewCol(4, "INVOICE", props.Text{Size: 24, Style: fontstyle.Bold, Align: align.Right}),
	)

	status := string(inv.Status)
	badge := statusColors[inv.Status]
	if badge == nil {
		badge = muted
	}

	m.AddRow(24,
		col.New(8).Add(
			text.New(biz.Email, props.Text{Size: 10, Color: muted}),
			text.New(biz.Phone, props.Text{Size: 10, Color: muted, Top: 6}),
			text.New(biz.Address, props.Text{Size: 10, Color: muted, Top: 12}),
		),
		col.New(4).Add(
			text.New("Invoice #: "+inv.Number, props.Text{Size: 10, Color: muted, Align: align.Right}),
			text.New("Issue Date: "+inv.IssueDate.Format("Jan 02, 2006"), props.Text{Size: 10, Color: muted, Align: align.Right, Top: 6}),
			text.New("Due Date: "+inv.DueDate.Format("Jan 02, 2006"), props.Text{Size: 10, Color: muted, Align: align.Right, Top: 12}),
			text.New(capitalize(status), props.Text{Size: 9, Style: fontstyle.Bold, Color: badge, Align: align.Right, Top: 18}),
		),
	)

	m.AddRow(8, text.NewCol(12, "Bill To:", props.Text{Size: 12, Style: fontstyle.Bold, Top: 2}))

	for _, l := range billTo(c) {
		m.AddRow(6, text.NewCol(12, l, props.Text{Size: 10, Color: muted}))
	}

	m.AddRow(8)

	header := props.Text{Size: 9, Style: fontstyle.Bold, Top: 2}
	headerRight := props.Text{Size: 9, Style: fontstyle.Bold, Top: 2, Align: align.Right}

	m.AddRow(10,
		text.NewCol(6, "Description", header),
		text.NewCol(2, "Quantity", headerRight),
		text.NewCol(2, "Rate", headerRight),
		text.NewCol(2, "Amount", headerRight),
	).WithStyle(&props.Cell{BackgroundColor: &props.Color{Red: 243, Green: 244, Blue: 246}})

	cell := props.Text{Size: 9, Top: 2}
	cellRight := props.Text{Size: 9, Top: 2, Align: align.Right}

	for _, it := range inv.Items {
		m.AddRow(8,
			text.NewCol(6, it.Description, cell),
			text.NewCol(2, it.Quantity.String(), cellRight),
			text.NewCol(2, money(it.UnitPrice), cellRight),
			text.NewCol(2, money(it.Amount), cellRight),
		)
	}

	m.AddRow(6)
	m.AddRow(8, totalsRow("Subtotal:", money(inv.Subtotal), props.Text{Size: 10})...)
	m.AddRow(8, totalsRow(fmt.Sprintf("Tax (%s%%):", inv.TaxRate.String()), money(inv.Tax), props.Text{Size: 10})...)
	m.AddRow(2, col.New(7), line.NewCol(5))
	m.AddRow(10, totalsRow("Total:", money(inv.Total), props.Text{Size: 12, Style: fontstyle.Bold})...)
	m.AddRow(8, totalsRow("Paid:", money(inv.PaidAmount), props.Text{Size: 10})...)
	m.AddRow(8, totalsRow("Balance Due:", money(inv.BalanceDue), props.Text{Size: 10, Style: fontstyle.Bold, Color: alert})...)

	if notes := strings.TrimSpace(inv.Notes); notes != "" {
		m.AddRow(12, text.NewCol(12, "Notes:", props.Text{Size: 10, Style: fontstyle.Bold, Top: 6}))
		m.AddAutoRow(text.NewCol(12, notes, props.Text{Size: 9, Color: muted}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generating invoice pdf: %w", err)
	}

	return doc.GetBytes(), nil
}

func billTo(c *client.Client) []string {
	if c == nil {
		return nil
	}

	lines := []string{c.Name}

	for _, s := range []string{c.Email, c.Phone} {
		if s != "" {
			lines = append(lines, s)
		}
	}

	if c.Address == "" {
		return lines
	}

	lines = append(lines, c.Address)

	var locality []string
	for _, s := range []string{c.City, c.State, c.ZipCode} {
		if s != "" {
			locality = append(locality, s)
		}
	}

	if len(locality) > 0 {
		lines = append(lines, strings.Join(locality, ", "))
	}

	if c.Country != "" {
		lines = append(lines, c.Country)
	}

	return lines
}

func totalsRow(label, value string, style props.Text) []core.Col {
	right := style
	right.Align = align.Right

	return []core.Col{
		col.New(7),
		text.NewCol(3, label, style),
		text.NewCol(2, value, right),
	}
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
