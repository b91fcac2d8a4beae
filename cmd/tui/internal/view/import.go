package view

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerly/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/identity"
	"github.com/MrJamesThe3rd/ledgerly/internal/importer"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

const importTimeout = 2 * time.Minute

type importStep int

const (
	stepBank importStep = iota
	stepFile
	stepParsing
	stepPreview
	stepSaving
	stepConflicts
	stepDone
)

// ImportModel walks a statement from file to ledger: pick the bank and file,
// review the parsed rows with their suggested category and counterparty, then
// settle duplicates before anything is written.
type ImportModel struct {
	CommonModel
	txService     *transaction.Service
	importService *importer.Service
	clientService *client.Service
	actor         identity.Identity

	step     importStep
	picker   filepicker.Model
	bank     importer.Bank
	bankIdx  int
	fileName string

	rows    []transaction.CreateParams
	skip    map[int]bool
	clients map[string]string
	preview table.Model

	fresh     []transaction.CreateParams
	conflicts []transaction.Conflict
	keep      map[int]bool
	dupes     table.Model

	status string
	err    error
}

func NewImportModel(txSvc *transaction.Service, impSvc *importer.Service, clientSvc *client.Service, actor identity.Identity) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".CSV"}
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		txService:     txSvc,
		importService: impSvc,
		clientService: clientSvc,
		actor:         actor,
		picker:        fp,
		skip:          make(map[int]bool),
		keep:          make(map[int]bool),
	}
}

func (m ImportModel) Title() string { return "Import Statement" }

func (m ImportModel) ShortHelp() string {
	switch m.step {
	case stepPreview:
		return "x: skip row | Enter: import | Esc: start over"
	case stepConflicts:
		return "Space: keep duplicate | a: all | n: none | Enter: save | Esc: start over"
	case stepDone:
		return "Esc: import another"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return nil
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height

		switch m.step {
		case stepPreview:
			m.preview.SetHeight(m.tableHeight())
		case stepConflicts:
			m.dupes.SetHeight(m.tableHeight())
		}

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.back()
		}

		switch m.step {
		case stepBank:
			return m.updateBank(msg)
		case stepPreview:
			return m.updatePreview(msg)
		case stepConflicts:
			return m.updateConflicts(msg)
		}

	case parsedMsg:
		if msg.err != nil {
			return m.fail(msg.err), nil
		}

		if len(msg.rows) == 0 {
			m.step = stepDone
			m.status = fmt.Sprintf("%s holds no movements.", m.fileName)

			return m, nil
		}

		m.rows = msg.rows
		m.clients = msg.clients
		m.skip = make(map[int]bool)
		m.preview = newImportTable(previewColumns, m.previewRows(), m.tableHeight())
		m.step = stepPreview

		return m, nil

	case batchMsg:
		if msg.err != nil {
			return m.fail(msg.err), nil
		}

		if len(msg.result.Conflicts) == 0 {
			return m.done(len(msg.result.Imported)), nil
		}

		m.fresh = msg.result.New
		m.conflicts = msg.result.Conflicts
		m.keep = make(map[int]bool)
		m.dupes = newImportTable(conflictColumns, m.conflictRows(), m.tableHeight())
		m.step = stepConflicts

		return m, nil

	case savedMsg:
		if msg.err != nil {
			return m.fail(msg.err), nil
		}

		return m.done(msg.count), nil
	}

	if m.step != stepFile {
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.fileName = path
		m.step = stepParsing
		m.status = fmt.Sprintf("Reading %s...", path)

		return m, m.parseCmd(path)
	}

	return m, cmd
}

func (m ImportModel) back() (tea.Model, tea.Cmd) {
	switch m.step {
	case stepBank:
		return m, Back
	case stepParsing, stepSaving:
		return m, nil
	case stepFile:
		m.step = stepBank
		return m, nil
	}

	m.step = stepBank
	m.rows, m.fresh, m.conflicts = nil, nil, nil
	m.status, m.err = "", nil

	return m, nil
}

func (m ImportModel) fail(err error) ImportModel {
	m.step = stepDone
	m.err = err
	m.status = fmt.Sprintf("Error: %v", err)

	return m
}

func (m ImportModel) done(n int) ImportModel {
	m.step = stepDone
	m.status = fmt.Sprintf("Imported %d transactions from %s.", n, m.bank.Label())

	return m
}

func (m ImportModel) updateBank(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.bankIdx = max(m.bankIdx-1, 0)
	case "down", "j":
		m.bankIdx = min(m.bankIdx+1, len(importer.Banks)-1)
	case "enter":
		m.bank = importer.Banks[m.bankIdx]
		m.step = stepFile

		return m, m.picker.Init()
	}

	return m, nil
}

func (m ImportModel) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "x":
		i := m.preview.Cursor()
		m.skip[i] = !m.skip[i]
		m.preview.SetRows(m.previewRows())

		return m, nil
	case "enter":
		kept := m.kept()
		if len(kept) == 0 {
			m.status = "Every row is skipped."
			return m, nil
		}

		m.step = stepSaving
		m.status = fmt.Sprintf("Importing %d rows...", len(kept))

		return m, m.batchCmd(kept)
	}

	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)

	return m, cmd
}

func (m ImportModel) updateConflicts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		i := m.dupes.Cursor()
		m.keep[i] = !m.keep[i]
	case "a", "n":
		for i := range m.conflicts {
			m.keep[i] = msg.String() == "a"
		}
	case "enter":
		m.step = stepSaving
		return m, m.saveCmd()
	default:
		var cmd tea.Cmd
		m.dupes, cmd = m.dupes.Update(msg)

		return m, cmd
	}

	m.dupes.SetRows(m.conflictRows())

	return m, nil
}

func (m ImportModel) kept() []transaction.CreateParams {
	out := make([]transaction.CreateParams, 0, len(m.rows))

	for i, p := range m.rows {
		if !m.skip[i] {
			out = append(out, p)
		}
	}

	return out
}

var previewColumns = []table.Column{
	{Title: " ", Width: 2},
	{Title: "Date", Width: 12},
	{Title: "Type", Width: 8},
	{Title: "Amount", Width: 12},
	{Title: "Category", Width: 20},
	{Title: "Client", Width: 18},
	{Title: "Description", Width: 36},
}

var conflictColumns = []table.Column{
	{Title: "Keep", Width: 5},
	{Title: "Date", Width: 12},
	{Title: "Amount", Width: 12},
	{Title: "Incoming", Width: 32},
	{Title: "Already stored as", Width: 36},
}

func (m ImportModel) tableHeight() int {
	if h := m.Height - 12; h > 5 {
		return h
	}

	return 15
}

func newImportTable(cols []table.Column, rows []table.Row, height int) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
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

	return t
}

func (m ImportModel) previewRows() []table.Row {
	rows := make([]table.Row, 0, len(m.rows))

	for i, p := range m.rows {
		mark := "✓"
		if m.skip[i] {
			mark = "-"
		}

		rows = append(rows, table.Row{
			mark,
			FormatDate(p.Date),
			string(p.Type),
			FormatAmount(p.Amount),
			p.Category,
			m.clients[p.ClientID],
			p.Description,
		})
	}

	return rows
}

func (m ImportModel) conflictRows() []table.Row {
	rows := make([]table.Row, 0, len(m.conflicts))

	for i, c := range m.conflicts {
		mark := "[ ]"
		if m.keep[i] {
			mark = "[x]"
		}

		existing := c.Existing.Description
		if c.Existing.Category != "" {
			existing = fmt.Sprintf("%s [%s]", existing, c.Existing.Category)
		}

		rows = append(rows, table.Row{
			mark,
			FormatDate(c.Incoming.Date),
			FormatAmount(c.Incoming.Amount),
			c.Incoming.Description,
			existing,
		})
	}

	return rows
}

func (m ImportModel) View() string {
	pad := lipgloss.NewStyle().Padding(1, 2)

	switch m.step {
	case stepBank:
		return pad.Render(m.viewBanks())
	case stepFile:
		return pad.Render(fmt.Sprintf("Statement from %s:\n\n%s", m.bank.Label(), m.picker.View()))
	case stepParsing, stepSaving:
		return pad.Render(m.status)
	case stepPreview:
		return pad.Render(m.viewPreview())
	case stepConflicts:
		return pad.Render(fmt.Sprintf("%d rows match stored transactions. %d new rows will be saved.\n\n%s",
			len(m.conflicts), len(m.fresh), m.dupes.View()))
	case stepDone:
		if m.err != nil {
			return pad.Render(errorStyle(m.status))
		}

		return pad.Render(lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Render(m.status))
	}

	return ""
}

func (m ImportModel) viewBanks() string {
	var b strings.Builder

	b.WriteString("Bank:\n\n")

	for i, bank := range importer.Banks {
		if i == m.bankIdx {
			b.WriteString(activeStyle("> " + bank.Label()))
		} else {
			b.WriteString("  " + bank.Label())
		}

		b.WriteString("\n")
	}

	return b.String()
}

func (m ImportModel) viewPreview() string {
	s := importer.Summarize(m.kept())

	header := fmt.Sprintf("%s  %s to %s\nIn %s  Out %s  Net %s  |  %d/%d categorized  %d matched to a client",
		m.bank.Label(),
		FormatDate(s.First), FormatDate(s.Last),
		FormatAmount(s.Income), FormatAmount(s.Expenses), FormatAmount(s.Net()),
		s.Categorized, s.Rows, s.Matched,
	)

	out := header + "\n\n" + m.preview.View()
	if m.status != "" {
		out += "\n" + activeStyle(m.status)
	}

	return out
}

type parsedMsg struct {
	rows    []transaction.CreateParams
	clients map[string]string
	err     error
}

type batchMsg struct {
	result *transaction.ImportResult
	err    error
}

type savedMsg struct {
	count int
	err   error
}

func (m ImportModel) parseCmd(path string) tea.Cmd {
	bank := m.bank

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return parsedMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		rows, err := m.importService.Parse(ctx, bank, f)
		if err != nil {
			return parsedMsg{err: err}
		}

		var names map[string]string
		if m.clientService != nil {
			list, err := m.clientService.List(ctx)
			if err != nil {
				return parsedMsg{err: err}
			}

			names = client.Names(list)
		}

		return parsedMsg{rows: rows, clients: names}
	}
}

func (m ImportModel) batchCmd(rows []transaction.CreateParams) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := m.txService.ImportBatch(ctx, m.actor, rows)

		return batchMsg{result: result, err: err}
	}
}

// saveCmd stores the non-duplicate rows plus the duplicates marked to keep.
func (m ImportModel) saveCmd() tea.Cmd {
	rows := append([]transaction.CreateParams(nil), m.fresh...)
	for i, c := range m.conflicts {
		if m.keep[i] {
			rows = append(rows, c.Incoming)
		}
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		txs, err := m.txService.CreateBatch(ctx, m.actor, rows)

		return savedMsg{count: len(txs), err: err}
	}
}
