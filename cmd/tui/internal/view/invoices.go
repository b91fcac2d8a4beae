package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	"github.com/MrJamesThe3rd/ledgerly/internal/identity"
	"github.com/MrJamesThe3rd/ledgerly/internal/invoice"
)

type invoiceState int

const (
	invoiceStateList invoiceState = iota
	invoiceStatePayment
	invoiceStateConfirmCancel
)

// invoiceItem wraps an invoice to implement list.Item.
type invoiceItem struct {
	inv        *invoice.Invoice
	clientName string
}

func (i invoiceItem) Title() string {
	status := lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("[%s]", i.inv.Status))
	if i.inv.Status == invoice.StatusOverdue {
		status = errorStyle(fmt.Sprintf("[%s]", i.inv.Status))
	}

	return fmt.Sprintf("%s  %s  %s  %s", i.inv.Number, FormatDate(i.inv.DueDate), FormatAmount(i.inv.BalanceDue), status)
}

func (i invoiceItem) Description() string {
	name := i.clientName
	if name == "" {
		name = "Unknown client"
	}

	return fmt.Sprintf("%s  |  total %s, paid %s", name, FormatAmount(i.inv.Total), FormatAmount(i.inv.PaidAmount))
}

func (i invoiceItem) FilterValue() string {
	return i.inv.Number + " " + i.clientName
}

// InvoiceModel is the queue of invoices still awaiting money. Payments and
// cancellations go through the invoice service so status derivation and
// events stay consistent with the API.
type InvoiceModel struct {
	CommonModel
	invoiceService *invoice.Service
	clientService  *client.Service
	clock          clock.Clock
	actor          identity.Identity

	state       invoiceState
	list        list.Model
	amountInput textinput.Model
	selected    *invoice.Invoice

	loading bool
	status  string
}

func NewInvoiceModel(invSvc *invoice.Service, clientSvc *client.Service, clk clock.Clock, actor identity.Identity) InvoiceModel {
	l := list.New([]list.Item{}, invoiceItemDelegate{}, 80, 20)
	l.Title = "Unpaid Invoices"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	ti := textinput.New()
	ti.Placeholder = "0.00"
	ti.Width = 16
	ti.Prompt = "Amount: "

	return InvoiceModel{
		invoiceService: invSvc,
		clientService:  clientSvc,
		clock:          clk,
		actor:          actor,
		list:           l,
		amountInput:    ti,
		loading:        true,
	}
}

func (m InvoiceModel) Title() string { return "Unpaid Invoices" }

func (m InvoiceModel) ShortHelp() string {
	switch m.state {
	case invoiceStatePayment:
		return "Enter: record payment | Esc: cancel"
	case invoiceStateConfirmCancel:
		return "y: cancel invoice | n: keep"
	}

	return "Esc: back | p: record payment | s: mark sent | c: cancel invoice | r: refresh | /: filter"
}

func (m InvoiceModel) Init() tea.Cmd {
	return m.loadUnpaidCmd()
}

func (m InvoiceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadUnpaidMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		items := make([]list.Item, len(msg.invoices))
		for i, inv := range msg.invoices {
			items[i] = invoiceItem{inv: inv, clientName: msg.names[inv.ClientID]}
		}

		m.list.SetItems(items)

		if len(items) == 0 {
			m.status = "No unpaid invoices."
		}

		return m, nil

	case invoiceActionMsg:
		m.state = invoiceStateList
		m.selected = nil

		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
			return m, nil
		}

		m.status = msg.done

		return m, m.loadUnpaidCmd()

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil
	}

	switch m.state {
	case invoiceStatePayment:
		return m.updatePayment(msg)
	case invoiceStateConfirmCancel:
		return m.updateConfirmCancel(msg)
	}

	return m.updateList(msg)
}

func (m InvoiceModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok && m.list.FilterState() != list.Filtering {
		selected, hasSelection := m.list.SelectedItem().(invoiceItem)

		switch keyMsg.String() {
		case "esc":
			if m.list.FilterState() == list.FilterApplied {
				break // let the list clear the filter
			}

			return m, Back
		case "r":
			m.loading = true
			return m, m.loadUnpaidCmd()
		case "p":
			if !hasSelection {
				return m, nil
			}

			m.selected = selected.inv
			m.state = invoiceStatePayment
			m.amountInput.SetValue(selected.inv.BalanceDue.StringFixed(2))
			m.amountInput.CursorEnd()
			m.amountInput.Focus()

			return m, textinput.Blink
		case "s":
			if !hasSelection {
				return m, nil
			}

			return m, m.markSentCmd(selected.inv)
		case "c":
			if !hasSelection {
				return m, nil
			}

			m.selected = selected.inv
			m.state = invoiceStateConfirmCancel

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m InvoiceModel) updatePayment(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			m.state = invoiceStateList
			m.selected = nil
			m.amountInput.Blur()

			return m, nil
		case tea.KeyEnter:
			amount, err := decimal.NewFromString(strings.TrimSpace(m.amountInput.Value()))
			if err != nil || !amount.IsPositive() {
				m.status = "Enter a positive amount."
				return m, nil
			}

			m.amountInput.Blur()

			return m, m.recordPaymentCmd(m.selected, amount)
		}
	}

	var cmd tea.Cmd
	m.amountInput, cmd = m.amountInput.Update(msg)

	return m, cmd
}

func (m InvoiceModel) updateConfirmCancel(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y":
		return m, m.cancelCmd(m.selected)
	case "n", "N", "esc":
		m.state = invoiceStateList
		m.selected = nil
	}

	return m, nil
}

func (m InvoiceModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading unpaid invoices...")
	}

	statusLine := ""
	if m.status != "" {
		statusLine = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n"
	}

	switch m.state {
	case invoiceStatePayment:
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf(
			"%sRecord payment for %s\nBalance due: %s\n\n%s\n\n(Enter to save, Esc to cancel)",
			statusLine, m.selected.Number, FormatAmount(m.selected.BalanceDue), m.amountInput.View(),
		))
	case invoiceStateConfirmCancel:
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf(
			"Cancel invoice %s for %s? (y/n)", m.selected.Number, FormatAmount(m.selected.Total),
		))
	}

	return lipgloss.NewStyle().Padding(1).Render(statusLine + m.list.View())
}

// Messages

type loadUnpaidMsg struct {
	invoices []*invoice.Invoice
	names    map[string]string
	err      error
}

type invoiceActionMsg struct {
	done string
	err  error
}

func (m InvoiceModel) loadUnpaidCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		all, err := m.invoiceService.List(ctx, invoice.Filter{})
		if err != nil {
			return loadUnpaidMsg{err: err}
		}

		clients, err := m.clientService.List(ctx)
		if err != nil {
			return loadUnpaidMsg{err: err}
		}

		unpaid := make([]*invoice.Invoice, 0, len(all))
		for _, inv := range all {
			if inv.Status != invoice.StatusPaid && inv.Status != invoice.StatusCancelled {
				unpaid = append(unpaid, inv)
			}
		}

		return loadUnpaidMsg{invoices: unpaid, names: client.Names(clients)}
	}
}

func (m InvoiceModel) recordPaymentCmd(inv *invoice.Invoice, amount decimal.Decimal) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		updated, err := m.invoiceService.RecordPayment(ctx, m.actor, inv.ID, amount, m.clock.Now())
		if err != nil {
			return invoiceActionMsg{err: err}
		}

		return invoiceActionMsg{done: fmt.Sprintf("Recorded %s on %s (%s).", FormatAmount(amount), updated.Number, updated.Status)}
	}
}

func (m InvoiceModel) markSentCmd(inv *invoice.Invoice) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		if _, err := m.invoiceService.MarkSent(ctx, m.actor, inv.ID, m.clock.Now()); err != nil {
			return invoiceActionMsg{err: err}
		}

		return invoiceActionMsg{done: fmt.Sprintf("Marked %s as sent.", inv.Number)}
	}
}

func (m InvoiceModel) cancelCmd(inv *invoice.Invoice) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		params := invoice.UpdateParams{Status: new(invoice.StatusCancelled)}
		if _, err := m.invoiceService.Update(ctx, m.actor, inv.ID, params); err != nil {
			return invoiceActionMsg{err: err}
		}

		return invoiceActionMsg{done: fmt.Sprintf("Cancelled %s.", inv.Number)}
	}
}

// invoiceItemDelegate renders items in the list.
type invoiceItemDelegate struct{}

func (d invoiceItemDelegate) Height() int                             { return 2 }
func (d invoiceItemDelegate) Spacing() int                            { return 0 }
func (d invoiceItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d invoiceItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(invoiceItem)
	if !ok {
		return
	}

	title := i.Title()
	if index == m.Index() {
		title = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("> " + title)
	}

	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintf(w, "    %s\n", lipgloss.NewStyle().Faint(true).Render(i.Description()))
}
