package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/ledgerly/internal/categorize"
	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	"github.com/MrJamesThe3rd/ledgerly/internal/daterange"
	"github.com/MrJamesThe3rd/ledgerly/internal/identity"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

type ReviewState int

const (
	StateSelectTimeframe ReviewState = iota
	StateReviewing
)

// ReviewModel walks uncategorized transactions one at a time, proposing a
// category from the learned rules. Confirming a category teaches a rule for
// the raw bank description.
type ReviewModel struct {
	CommonModel
	txService       *transaction.Service
	categoryService *categorize.Service
	actor           identity.Identity

	state           ReviewState
	timeframePicker TimeframePicker
	filter          transaction.Filter

	queue     []*transaction.Transaction
	currentTx *transaction.Transaction
	suggested string

	categoryInput textinput.Model

	status     string
	loading    bool
	totalCount int
}

func NewReviewModel(txSvc *transaction.Service, catSvc *categorize.Service, clk clock.Clock, actor identity.Identity) ReviewModel {
	ti := textinput.New()
	ti.Placeholder = "Category"
	ti.Width = 40
	ti.ShowSuggestions = true
	ti.SetSuggestions(categorize.Defaults(""))

	return ReviewModel{
		txService:       txSvc,
		categoryService: catSvc,
		actor:           actor,
		timeframePicker: NewTimeframePicker(clk, daterange.ThisWeek),
		categoryInput:   ti,
		state:           StateSelectTimeframe,
	}
}

func (m ReviewModel) Title() string { return "Review Categories" }

func (m ReviewModel) ShortHelp() string {
	if m.state == StateReviewing {
		return "Enter: save & next | Tab: accept suggestion | ctrl+s: skip | Esc: back"
	}

	return "Esc: back | Enter: select"
}

func (m ReviewModel) Init() tea.Cmd {
	return nil
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.filter = transaction.Filter{Uncategorized: true}
		m.filter.StartDate, m.filter.EndDate = msg.Bounds()
		m.state = StateReviewing
		m.loading = true

		return m, m.loadUncategorizedCmd()

	case loadUncategorizedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading transactions: %v", msg.err)
			return m, nil
		}

		m.queue = msg.txs
		m.totalCount = len(m.queue)

		if len(m.queue) == 0 {
			m.status = "No uncategorized transactions found."
			return m, nil
		}

		cmd := m.nextTxCmd()

		return m, cmd

	case suggestionMsg:
		m.suggested = msg.category
		m.categoryInput.SetValue(msg.category)
		m.categoryInput.CursorEnd()

		return m, textinput.Blink

	case saveResultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
			return m, nil
		}

		cmd := m.nextTxCmd()

		return m, cmd
	}

	if m.state == StateSelectTimeframe {
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
			return m, Back
		}

		var cmd tea.Cmd
		m.timeframePicker, cmd = m.timeframePicker.Update(msg)

		return m, cmd
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.loading {
			return m, nil
		}

		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "ctrl+s":
			if m.currentTx != nil {
				cmd := m.nextTxCmd()
				return m, cmd
			}
		case "enter":
			if m.currentTx != nil {
				return m, m.saveAndNextCmd(strings.TrimSpace(m.categoryInput.Value()))
			}
		}
	}

	var cmd tea.Cmd
	m.categoryInput, cmd = m.categoryInput.Update(msg)

	return m, cmd
}

func (m ReviewModel) View() string {
	if m.state == StateSelectTimeframe {
		return lipgloss.NewStyle().Padding(1).Render(m.timeframePicker.View())
	}

	var content string

	switch {
	case m.loading:
		content = "Loading uncategorized transactions..."
	case m.currentTx != nil:
		info := fmt.Sprintf(
			"Date: %s\nType: %s\nAmount: %s\nDescription: %s\nRaw: %s\n",
			FormatDate(m.currentTx.Date),
			m.currentTx.Type,
			FormatAmount(m.currentTx.Amount),
			m.currentTx.Description,
			m.currentTx.RawDescription,
		)

		hint := "No rule matches this description."
		if m.suggested != "" {
			hint = "Suggested by rule: " + activeStyle(m.suggested)
		}

		content = fmt.Sprintf("%s\n\n%s\n%s\n\nCategory:\n%s", m.status, info, hint, m.categoryInput.View())
	default:
		content = m.status + "\n\n(Esc to back)"
	}

	return lipgloss.NewStyle().Padding(2).Render(content)
}

// nextTxCmd pops the queue and looks up a suggestion for the new head.
func (m *ReviewModel) nextTxCmd() tea.Cmd {
	if len(m.queue) == 0 {
		m.currentTx = nil
		m.status = "All done! Nothing left to categorize."
		m.categoryInput.Blur()
		m.categoryInput.SetValue("")

		return nil
	}

	m.currentTx = m.queue[0]
	m.queue = m.queue[1:]
	m.suggested = ""
	m.status = fmt.Sprintf("Reviewing %d/%d", m.totalCount-len(m.queue), m.totalCount)
	m.categoryInput.SetValue("")
	m.categoryInput.Focus()

	if m.currentTx.RawDescription == "" {
		return textinput.Blink
	}

	raw := m.currentTx.RawDescription
	svc := m.categoryService

	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		cat, _ := svc.Suggest(ctx, raw)

		return suggestionMsg{category: cat}
	}
}

type loadUncategorizedMsg struct {
	txs []*transaction.Transaction
	err error
}

type suggestionMsg struct {
	category string
}

type saveResultMsg struct {
	err error
}

func (m ReviewModel) loadUncategorizedCmd() tea.Cmd {
	filter := m.filter

	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		txs, err := m.txService.List(ctx, filter)

		return loadUncategorizedMsg{txs: txs, err: err}
	}
}

func (m ReviewModel) saveAndNextCmd(category string) tea.Cmd {
	if category == "" {
		return func() tea.Msg {
			return saveResultMsg{err: fmt.Errorf("category cannot be empty")}
		}
	}

	tx := m.currentTx
	learn := tx.RawDescription != "" && !strings.EqualFold(category, m.suggested)

	return func() tea.Msg {
		ctx, cancel := OpCtx()
		defer cancel()

		if learn {
			if _, err := m.categoryService.Learn(ctx, m.actor, tx.RawDescription, category); err != nil {
				return saveResultMsg{err: err}
			}
		}

		_, err := m.txService.Update(ctx, tx.ID, transaction.UpdateParams{Category: new(category)})

		return saveResultMsg{err: err}
	}
}
