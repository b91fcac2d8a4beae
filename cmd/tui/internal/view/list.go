package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerly/internal/categorize"
	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	"github.com/MrJamesThe3rd/ledgerly/internal/daterange"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

type listState int

const (
	listStateBrowse listState = iota
	listStateEdit
)

var (
	listTypeFilters = []transaction.Type{"", transaction.TypeIncome, transaction.TypeExpense}
	listDateFilters = []daterange.Preset{daterange.AllTime, daterange.ThisMonth, daterange.LastMonth, daterange.ThisYear}
)

type ListModel struct {
	CommonModel
	txService *transaction.Service
	clock     clock.Clock

	state listState
	table table.Model
	txs   []*transaction.Transaction
	form  *huh.Form

	typeFilterIdx int
	dateFilterIdx int

	filter  transaction.Filter
	loading bool
	err     error
	status  string
}

func NewListModel(txSvc *transaction.Service, clk clock.Clock) ListModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Type", Width: 8},
		{Title: "Amount", Width: 12},
		{Title: "Category", Width: 20},
		{Title: "Description", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ListModel{
		txService: txSvc,
		clock:     clk,
		table:     t,
		loading:   true,
	}
}

func (m ListModel) Title() string { return "Transactions List" }
func (m ListModel) ShortHelp() string {
	if m.state == listStateEdit {
		return "Navigate form | Esc: cancel"
	}
	return "Esc: back | e: edit | t: type filter | d: date filter | r: refresh"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadTxsCmd()
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.txs = msg.txs
		m.refreshTable()
		return m, nil

	case listSaveMsg:
		m.status = "Saved."
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		}
		m.state = listStateBrowse
		m.form = nil
		m.table.Focus()
		return m, m.loadTxsCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case listStateBrowse:
		return m.updateBrowse(msg)
	case listStateEdit:
		return m.updateEdit(msg)
	}

	return m, nil
}

func (m ListModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadTxsCmd()
		case "e":
			return m.enterEditMode()
		case "t":
			m.typeFilterIdx = (m.typeFilterIdx + 1) % len(listTypeFilters)
			m.applyFilter()
			return m, m.loadTxsCmd()
		case "d":
			m.dateFilterIdx = (m.dateFilterIdx + 1) % len(listDateFilters)
			m.applyFilter()
			return m, m.loadTxsCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ListModel) enterEditMode() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return m, nil
	}

	tx := m.txs[idx]
	desc, category, notes := tx.Description, tx.Category, tx.Notes

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("description").
				Title("Description").
				Value(&desc).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("description cannot be empty")
					}
					return nil
				}),

			huh.NewSelect[string]().
				Key("category").
				Title("Category").
				Options(categoryOptions(tx.Type, tx.Category)...).
				Value(&category),

			huh.NewText().
				Key("notes").
				Title("Notes").
				Value(&notes),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = listStateEdit
	m.table.Blur()
	return m, m.form.Init()
}

// categoryOptions lists the defaults for t, keeping current selectable even
// when it is a custom category.
func categoryOptions(t transaction.Type, current string) []huh.Option[string] {
	names := categorize.Defaults(t)
	if current != "" && !containsFold(names, current) {
		names = append([]string{current}, names...)
	}

	return huh.NewOptions(names...)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}

	return false
}

func (m ListModel) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = listStateBrowse
			m.form = nil
			m.table.Focus()
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	typeLabel := "All"
	if t := listTypeFilters[m.typeFilterIdx]; t != "" {
		typeLabel = string(t)
	}

	header := fmt.Sprintf(
		"Filter: [t] Type: %s | [d] Date: %s | %d transactions",
		activeStyle(typeLabel),
		activeStyle(listDateFilters[m.dateFilterIdx].Label()),
		len(m.txs),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == listStateEdit && m.form != nil {
		idx := m.table.Cursor()
		rawDesc := ""
		if idx >= 0 && idx < len(m.txs) {
			rawDesc = m.txs[idx].RawDescription
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(
				fmt.Sprintf("Edit Transaction\n\nOriginal: %s\n\n%s", rawDesc, m.form.View()),
			)

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *ListModel) applyFilter() {
	m.filter.Type = listTypeFilters[m.typeFilterIdx]
	m.filter.StartDate = nil
	m.filter.EndDate = nil

	preset := listDateFilters[m.dateFilterIdx]
	if preset == daterange.AllTime {
		return
	}

	r, err := daterange.Resolve(preset, m.clock.Now())
	if err != nil {
		return
	}

	m.filter.StartDate = &r.Start
	m.filter.EndDate = &r.End
}

func (m *ListModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.txs))
	for _, tx := range m.txs {
		rows = append(rows, table.Row{
			FormatDate(tx.Date),
			string(tx.Type),
			FormatAmount(tx.Amount),
			tx.Category,
			tx.Description,
		})
	}
	m.table.SetRows(rows)
}

// Messages

type loadListMsg struct {
	txs []*transaction.Transaction
	err error
}

func (m ListModel) loadTxsCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		txs, err := m.txService.List(ctx, filter)
		return loadListMsg{txs: txs, err: err}
	}
}

type listSaveMsg struct {
	err error
}

func (m ListModel) saveCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.txs) {
		return nil
	}

	id := m.txs[idx].ID
	params := transaction.UpdateParams{
		Description: new(strings.TrimSpace(m.form.GetString("description"))),
		Category:    new(m.form.GetString("category")),
		Notes:       new(m.form.GetString("notes")),
	}

	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		_, err := m.txService.Update(ctx, id, params)
		return listSaveMsg{err: err}
	}
}
