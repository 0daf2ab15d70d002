// Package home lists support orders by status and opens the detail screen.
package home

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Additional-Code/repairdesk/internal/dto"
	"github.com/Additional-Code/repairdesk/internal/entity"
	"github.com/Additional-Code/repairdesk/internal/tui/detail"
	"github.com/Additional-Code/repairdesk/internal/tui/dialog"
	"github.com/Additional-Code/repairdesk/internal/tui/theme"
)

// AlertListFailed is shown when the list cannot be fetched.
var AlertListFailed = dialog.Alert{Title: "Solicitações", Message: "Não foi possível carregar as solicitações."}

// Remote lists orders from the document store.
type Remote interface {
	ListDocuments(ctx context.Context, collection, status string) ([]dto.OrderDocument, error)
}

// Navigator opens the detail screen for an order.
type Navigator interface {
	Open(id string) tea.Cmd
}

// Options tune a Model.
type Options struct {
	Context  context.Context
	Location *time.Location
	Timeout  time.Duration
	Logger   *zap.Logger
}

var instances atomic.Uint64

// Model is the bubbletea model of the order list.
type Model struct {
	instance uint64
	remote   Remote
	nav      Navigator
	opts     Options

	filter  entity.OrderStatus
	orders  []detail.Order
	cursor  int
	loading bool
	failed  bool
	alert   *dialog.Alert
	spinner spinner.Model
}

type (
	listedMsg struct {
		instance uint64
		filter   entity.OrderStatus
		docs     []dto.OrderDocument
	}
	listFailedMsg struct {
		instance uint64
		filter   entity.OrderStatus
		err      error
	}
)

// New builds the list filtered on open orders.
func New(remote Remote, nav Navigator, opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		instance: instances.Add(1),
		remote:   remote,
		nav:      nav,
		opts:     opts,
		filter:   entity.StatusOpen,
		loading:  true,
		spinner:  sp,
	}
}

// Filter returns the status currently listed.
func (m Model) Filter() entity.OrderStatus { return m.filter }

// Orders returns the rows on screen.
func (m Model) Orders() []detail.Order { return m.orders }

// Cursor returns the selected row index.
func (m Model) Cursor() int { return m.cursor }

// Loading reports whether a fetch is in flight.
func (m Model) Loading() bool { return m.loading }

// Alert returns the dialog currently shown, if any.
func (m Model) Alert() *dialog.Alert { return m.alert }

// Init starts the first fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

// Resume is called when the user comes back from another screen. The notice, if any,
// is shown and the list is refreshed.
func (m Model) Resume(notice *dialog.Alert) (Model, tea.Cmd) {
	m.alert = notice
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, m.fetch())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.update(msg)
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case listedMsg:
		if msg.instance != m.instance || msg.filter != m.filter {
			return m, nil
		}
		m.loading, m.failed = false, false
		m.orders = make([]detail.Order, 0, len(msg.docs))
		for _, doc := range msg.docs {
			m.orders = append(m.orders, detail.FromDocument(doc, m.opts.Location))
		}
		if m.cursor >= len(m.orders) {
			m.cursor = max(len(m.orders)-1, 0)
		}
		return m, nil

	case listFailedMsg:
		if msg.instance != m.instance || msg.filter != m.filter {
			return m, nil
		}
		m.opts.Logger.Error("list orders failed", zap.String("status", string(msg.filter)), zap.Error(msg.err))
		m.loading, m.failed = false, true
		m.orders = nil
		m.cursor = 0
		if m.alert == nil {
			alert := AlertListFailed
			m.alert = &alert
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.alert != nil {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc, tea.KeySpace:
			m.alert = nil
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "tab":
		if m.filter == entity.StatusOpen {
			m.filter = entity.StatusClosed
		} else {
			m.filter = entity.StatusOpen
		}
		m.cursor = 0
		m.orders = nil
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetch())
	case "r":
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetch())
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.orders)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(m.orders) {
			return m, m.nav.Open(m.orders[m.cursor].ID)
		}
	}
	return m, nil
}

func (m Model) fetch() tea.Cmd {
	remote, instance, filter, opts := m.remote, m.instance, m.filter, m.opts
	return func() tea.Msg {
		ctx, cancel := withTimeout(opts)
		defer cancel()

		docs, err := remote.ListDocuments(ctx, dto.Collection, string(filter))
		if err != nil {
			return listFailedMsg{instance: instance, filter: filter, err: err}
		}
		return listedMsg{instance: instance, filter: filter, docs: docs}
	}
}

func withTimeout(opts Options) (context.Context, context.CancelFunc) {
	if opts.Timeout <= 0 {
		return context.WithCancel(opts.Context)
	}
	return context.WithTimeout(opts.Context, opts.Timeout)
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.Header.Render("Solicitações"))
	b.WriteString("\n\n")
	b.WriteString(m.tabs())
	b.WriteString("\n\n")

	switch {
	case m.loading && len(m.orders) == 0:
		b.WriteString(m.spinner.View() + " Carregando...")
	case m.failed:
		b.WriteString(theme.Error.Render("Não foi possível carregar as solicitações."))
	case len(m.orders) == 0:
		b.WriteString(theme.Help.Render("Nenhuma solicitação."))
	default:
		for i, o := range m.orders {
			b.WriteString(m.row(i, o))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(theme.Help.Render("↑/↓: mover • enter: abrir • tab: filtro • r: atualizar • q: sair"))

	if m.alert != nil {
		b.WriteString("\n\n")
		b.WriteString(m.alert.Render())
	}
	return b.String()
}

func (m Model) tabs() string {
	open, closed := theme.Help, theme.Help
	if m.filter == entity.StatusOpen {
		open = theme.Open
	} else {
		closed = theme.Closed
	}
	return open.Render("EM ANDAMENTO") + "   " + closed.Render("FINALIZADAS")
}

func (m Model) row(i int, o detail.Order) string {
	pointer := "  "
	if i == m.cursor {
		pointer = "> "
	}
	line := fmt.Sprintf("Patrimônio %s  %s", o.Patrimony, o.When)
	if i == m.cursor {
		return pointer + theme.CardBody.Bold(true).Render(line)
	}
	return pointer + theme.Help.Render(line)
}
