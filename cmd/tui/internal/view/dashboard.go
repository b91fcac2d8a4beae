package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerly/internal/analytics"
)

const dashboardCategories = 5

var panelStyle = lipgloss.NewStyle().
	Padding(0, 1).
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240"))

type DashboardModel struct {
	CommonModel
	analyticsService *analytics.Service

	spinner   spinner.Model
	loading   bool
	dashboard *analytics.Dashboard
	err       error
}

func NewDashboardModel(svc *analytics.Service) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return DashboardModel{
		analyticsService: svc,
		spinner:          s,
		loading:          true,
	}
}

func (m DashboardModel) Title() string     { return "Dashboard" }
func (m DashboardModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardMsg:
		m.loading = false
		m.dashboard = msg.dashboard
		m.err = msg.err

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.loadCmd())
		}
	}

	if !m.loading {
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m DashboardModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render(m.spinner.View() + " Crunching numbers...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)) + "\n\n(Esc to back)")
	}

	d := m.dashboard

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(summaryView(d.Summary)),
		panelStyle.Render(monthlyView(d.Monthly)),
	)

	bottom := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(categoriesView(d.Categories)),
		panelStyle.Render(upcomingView(d.Upcoming)),
	)

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left, top, bottom))
}

func summaryView(s analytics.Summary) string {
	net := FormatAmount(s.NetBalance)
	if s.NetBalance.IsNegative() {
		net = errorStyle(net)
	} else {
		net = activeStyle(net)
	}

	return fmt.Sprintf(
		"Summary\n\nIncome:       %12s\nExpenses:     %12s\nNet:          %12s\n\nTransactions: %12d\nClients:      %12d\nInvoices:     %12d\nOverdue:      %12d",
		FormatAmount(s.TotalIncome),
		FormatAmount(s.TotalExpenses),
		net,
		s.TransactionCount,
		s.ClientCount,
		s.InvoiceCount,
		s.OverdueInvoices,
	)
}

func monthlyView(months []analytics.Month) string {
	var b strings.Builder

	b.WriteString("Last 6 Months\n\n")
	fmt.Fprintf(&b, "%-8s %12s %12s %12s\n", "", "Income", "Expenses", "Net")

	for _, mo := range months {
		fmt.Fprintf(&b, "%-8s %12s %12s %12s\n", mo.Label, FormatAmount(mo.Income), FormatAmount(mo.Expenses), FormatAmount(mo.Net))
	}

	return strings.TrimRight(b.String(), "\n")
}

func categoriesView(cats []analytics.Category) string {
	var b strings.Builder

	b.WriteString("Top Categories\n\n")

	if len(cats) == 0 {
		b.WriteString("No transactions yet.")
	}

	for i, c := range cats {
		if i == dashboardCategories {
			break
		}

		fmt.Fprintf(&b, "%-22s %-8s %12s %6s%%\n", c.Name, c.Type, FormatAmount(c.Amount), c.Percentage.StringFixed(1))
	}

	return strings.TrimRight(b.String(), "\n")
}

func upcomingView(invs []analytics.UpcomingInvoice) string {
	var b strings.Builder

	b.WriteString("Upcoming Invoices\n\n")

	if len(invs) == 0 {
		b.WriteString("Nothing due.")
	}

	for _, inv := range invs {
		fmt.Fprintf(&b, "%-14s %-18s %10s  %s\n", inv.Number, inv.ClientName, FormatDate(inv.DueDate), FormatAmount(inv.Total))
	}

	return strings.TrimRight(b.String(), "\n")
}

type dashboardMsg struct {
	dashboard *analytics.Dashboard
	err       error
}

func (m DashboardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		d, err := m.analyticsService.Dashboard(ctx)

		return dashboardMsg{dashboard: d, err: err}
	}
}
