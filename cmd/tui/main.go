package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ledgerly/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/ledgerly/internal/app"
	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	"github.com/MrJamesThe3rd/ledgerly/internal/config"
	"github.com/MrJamesThe3rd/ledgerly/internal/identity"
	"github.com/MrJamesThe3rd/ledgerly/internal/logging"
)

type model struct {
	app   *app.App
	actor identity.Identity

	currentView View
	active      view.View
	size        tea.WindowSizeMsg
}

type View int

const (
	ViewMenu      View = 0
	ViewDashboard View = 1
	ViewImport    View = 2
	ViewReview    View = 3
	ViewList      View = 4
	ViewInvoice   View = 5
	ViewExport    View = 6
)

func initialModel(a *app.App, actor identity.Identity) model {
	return model{
		app:         a,
		actor:       actor,
		currentView: ViewMenu,
	}
}

// open builds a fresh screen so every visit reloads its data.
func (m model) open(v View) view.View {
	switch v {
	case ViewDashboard:
		return view.NewDashboardModel(m.app.Analytics)
	case ViewImport:
		return view.NewImportModel(m.app.Transactions, m.app.Import, m.app.Clients, m.actor)
	case ViewReview:
		return view.NewReviewModel(m.app.Transactions, m.app.Categories, m.app.Clock, m.actor)
	case ViewList:
		return view.NewListModel(m.app.Transactions, m.app.Clock)
	case ViewInvoice:
		return view.NewInvoiceModel(m.app.Invoices, m.app.Clients, m.app.Clock, m.actor)
	case ViewExport:
		return view.NewExportModel(m.app.Export, m.app.Clock)
	}

	return nil
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.size = msg
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1", "2", "3", "4", "5", "6":
				m.currentView = View(msg.String()[0] - '0')
				m.active = m.open(m.currentView)

				return m, tea.Batch(m.active.Init(), m.resize())
			}

			return m, nil
		}

		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		m.active = nil

		return m, nil
	}

	if m.active == nil {
		return m, nil
	}

	next, cmd := m.active.Update(msg)
	if v, ok := next.(view.View); ok {
		m.active = v
	}

	return m, cmd
}

// resize replays the last window size so a newly opened screen lays itself out.
func (m model) resize() tea.Cmd {
	if m.size.Width == 0 {
		return nil
	}

	size := m.size

	return func() tea.Msg { return size }
}

func (m model) View() string {
	if m.currentView == ViewMenu || m.active == nil {
		return lipgloss.NewStyle().Padding(2).Render(
			"Ledgerly\n\n" +
				"1. Dashboard\n" +
				"2. Import Bank Statement\n" +
				"3. Review Categories\n" +
				"4. List Transactions\n" +
				"5. Unpaid Invoices\n" +
				"6. Export\n\n" +
				"q. Quit",
		)
	}

	help := lipgloss.NewStyle().Faint(true).Render(m.active.Title() + "  |  " + m.active.ShortHelp())

	return m.active.View() + "\n" + lipgloss.NewStyle().PaddingLeft(1).Render(help)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to stderr at warn and above.
	logger, zl, err := logging.New("warn", "console")
	if err != nil {
		slog.Error("failed to build logger", "error", err)
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()

	slog.SetDefault(logger)

	a, err := app.New(context.Background(), cfg, clock.Real{}, nil)
	if err != nil {
		slog.Error("failed to initialise services", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	actor := identity.Identity{Email: cfg.TUI.Operator, Name: "TUI"}

	p := tea.NewProgram(initialModel(a, actor), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
