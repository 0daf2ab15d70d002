// Package detail is the order detail screen: it shows one support order and lets the
// user close it with a solution.
package detail

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Additional-Code/repairdesk/internal/dto"
	"github.com/Additional-Code/repairdesk/internal/entity"
	"github.com/Additional-Code/repairdesk/internal/tui/dialog"
	"github.com/Additional-Code/repairdesk/pkg/errorbank"
)

const alertTitle = "Solicitação"

// Alerts shown by the screen.
var (
	AlertMissingSolution = dialog.Alert{Title: alertTitle, Message: "Informar a solução para encerrar a solicitação."}
	AlertClosed          = dialog.Alert{Title: alertTitle, Message: "Solicitação encerrada com sucesso."}
	AlertCloseFailed     = dialog.Alert{Title: alertTitle, Message: "Não foi possível encerrar a solicitação."}
	AlertLoadFailed      = dialog.Alert{Title: alertTitle, Message: "Não foi possível carregar a solicitação."}
	AlertNotFound        = dialog.Alert{Title: alertTitle, Message: "Solicitação não encontrada."}
)

// State is where the screen is in its lifecycle.
type State int

const (
	StateLoading State = iota
	StateLoaded
	StateSubmitting
	StateLoadFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateSubmitting:
		return "submitting"
	case StateLoadFailed:
		return "load_failed"
	default:
		return "unknown"
	}
}

// Remote is the document store the screen reads from and writes to.
type Remote interface {
	GetDocument(ctx context.Context, collection, id string) (*dto.OrderDocument, error)
	UpdateDocument(ctx context.Context, collection, id string, fields dto.OrderUpdate) error
}

// Navigator leaves the screen. The notice, if any, is shown by whatever screen comes next.
type Navigator interface {
	Back(notice *dialog.Alert) tea.Cmd
}

// Options tune a Model.
type Options struct {
	Context  context.Context
	Location *time.Location
	Timeout  time.Duration
	Logger   *zap.Logger
	Now      func() time.Time
}

var instances atomic.Uint64

// Model is the bubbletea model of the detail screen.
type Model struct {
	id       string
	instance uint64
	remote   Remote
	nav      Navigator
	opts     Options

	state    State
	order    Order
	solution textarea.Model
	spinner  spinner.Model
	alert    *dialog.Alert
	width    int
}

type (
	loadedMsg struct {
		instance uint64
		doc      dto.OrderDocument
	}
	loadFailedMsg struct {
		instance uint64
		err      error
	}
	closedMsg struct {
		instance uint64
		solution string
	}
	closeFailedMsg struct {
		instance uint64
		err      error
	}
)

// New builds the screen for order id. Call Init to start loading.
func New(id string, remote Remote, nav Navigator, opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ta := textarea.New()
	ta.Placeholder = "Descrição da solução"
	ta.ShowLineNumbers = false
	ta.SetHeight(4)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		id:       id,
		instance: instances.Add(1),
		remote:   remote,
		nav:      nav,
		opts:     opts,
		state:    StateLoading,
		solution: ta,
		spinner:  sp,
	}
}

// ID returns the order id the screen shows.
func (m Model) ID() string { return m.id }

// State returns the current lifecycle state.
func (m Model) State() State { return m.state }

// Order returns the local copy of the order; zero until loaded.
func (m Model) Order() Order { return m.order }

// Alert returns the dialog currently shown, if any.
func (m Model) Alert() *dialog.Alert { return m.alert }

// SetSolution replaces the pending solution text.
func (m *Model) SetSolution(text string) { m.solution.SetValue(text) }

// Init starts the load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.update(msg)
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 8 {
			m.solution.SetWidth(msg.Width - 8)
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != StateLoading && m.state != StateSubmitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		if msg.instance != m.instance || m.state != StateLoading {
			return m, nil
		}
		m.order = FromDocument(msg.doc, m.opts.Location)
		m.state = StateLoaded
		if !m.order.IsClosed() {
			return m, m.solution.Focus()
		}
		return m, nil

	case loadFailedMsg:
		if msg.instance != m.instance || m.state != StateLoading {
			return m, nil
		}
		m.opts.Logger.Error("load order failed", zap.String("id", m.id), zap.Error(msg.err))
		m.state = StateLoadFailed
		alert := AlertLoadFailed
		if errorbank.Is(msg.err, errorbank.KindNotFound) {
			alert = AlertNotFound
		}
		m.alert = &alert
		return m, nil

	case closedMsg:
		if msg.instance != m.instance || m.state != StateSubmitting {
			return m, nil
		}
		m.state = StateLoaded
		m.order.Status = entity.StatusClosed
		m.order.Solution = msg.solution
		m.order.Closed = FormatTimestamp(m.opts.Now(), m.opts.Location)
		m.solution.Blur()
		alert := AlertClosed
		m.alert = &alert
		return m, m.nav.Back(&alert)

	case closeFailedMsg:
		if msg.instance != m.instance || m.state != StateSubmitting {
			return m, nil
		}
		m.opts.Logger.Error("close order failed", zap.String("id", m.id), zap.Error(msg.err))
		m.state = StateLoaded
		alert := AlertCloseFailed
		m.alert = &alert
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.state == StateLoaded && !m.order.IsClosed() && m.alert == nil {
		var cmd tea.Cmd
		m.solution, cmd = m.solution.Update(msg)
		return m, cmd
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

	switch m.state {
	case StateSubmitting:
		return m, nil
	case StateLoading:
		if msg.Type == tea.KeyEsc {
			return m, m.nav.Back(nil)
		}
		return m, nil
	case StateLoadFailed:
		switch {
		case msg.Type == tea.KeyEsc:
			return m, m.nav.Back(nil)
		case msg.String() == "r":
			m.state = StateLoading
			return m, tea.Batch(m.spinner.Tick, m.load())
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		return m, m.nav.Back(nil)
	case tea.KeyCtrlS:
		return m.Submit()
	}

	if m.order.IsClosed() {
		return m, nil
	}
	var cmd tea.Cmd
	m.solution, cmd = m.solution.Update(msg)
	return m, cmd
}

// Submit closes the order with the pending solution. Empty text raises the validation
// dialog without touching the remote. While a close is in flight further submits are ignored.
func (m Model) Submit() (Model, tea.Cmd) {
	if m.state != StateLoaded || m.order.IsClosed() {
		return m, nil
	}

	text := m.solution.Value()
	if strings.TrimSpace(text) == "" {
		alert := AlertMissingSolution
		m.alert = &alert
		return m, nil
	}

	m.state = StateSubmitting
	return m, tea.Batch(m.spinner.Tick, m.close(text))
}

func (m Model) load() tea.Cmd {
	remote, id, instance, opts := m.remote, m.id, m.instance, m.opts
	return func() tea.Msg {
		ctx, cancel := withTimeout(opts)
		defer cancel()

		doc, err := remote.GetDocument(ctx, dto.Collection, id)
		if err != nil {
			return loadFailedMsg{instance: instance, err: err}
		}
		if doc == nil {
			return loadFailedMsg{instance: instance, err: errorbank.NotFound("order not found")}
		}
		return loadedMsg{instance: instance, doc: *doc}
	}
}

func (m Model) close(solution string) tea.Cmd {
	remote, id, instance, opts := m.remote, m.id, m.instance, m.opts
	return func() tea.Msg {
		ctx, cancel := withTimeout(opts)
		defer cancel()

		err := remote.UpdateDocument(ctx, dto.Collection, id, dto.OrderUpdate{
			Status:   string(entity.StatusClosed),
			Solution: solution,
			ClosedAt: dto.ServerTimestamp,
		})
		if err != nil {
			return closeFailedMsg{instance: instance, err: err}
		}
		return closedMsg{instance: instance, solution: solution}
	}
}

func withTimeout(opts Options) (context.Context, context.CancelFunc) {
	if opts.Timeout <= 0 {
		return context.WithCancel(opts.Context)
	}
	return context.WithTimeout(opts.Context, opts.Timeout)
}
