// Package tui is the terminal front end of the order service. Router switches between the
// order list and the detail screen.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Additional-Code/repairdesk/internal/tui/detail"
	"github.com/Additional-Code/repairdesk/internal/tui/dialog"
	"github.com/Additional-Code/repairdesk/internal/tui/home"
)

// Remote is everything the screens need from the order store.
type Remote interface {
	home.Remote
	detail.Remote
}

// Options shared by every screen.
type Options = detail.Options

type (
	backMsg struct{ notice *dialog.Alert }
	openMsg struct{ id string }
)

type navigator struct{}

func (navigator) Back(notice *dialog.Alert) tea.Cmd {
	return func() tea.Msg { return backMsg{notice: notice} }
}

func (navigator) Open(id string) tea.Cmd {
	return func() tea.Msg { return openMsg{id: id} }
}

// Router is the root bubbletea model. With a home screen, leaving the detail screen
// returns to the list; without one, it ends the program.
type Router struct {
	remote Remote
	opts   Options

	home   *home.Model
	detail *detail.Model
	size   *tea.WindowSizeMsg
	notice *dialog.Alert
}

// NewBrowser starts on the order list.
func NewBrowser(remote Remote, opts Options) Router {
	h := home.New(remote, navigator{}, home.Options{
		Context:  opts.Context,
		Location: opts.Location,
		Timeout:  opts.Timeout,
		Logger:   opts.Logger,
	})
	return Router{remote: remote, opts: opts, home: &h}
}

// NewDetail starts directly on the detail screen of order id.
func NewDetail(remote Remote, id string, opts Options) Router {
	d := detail.New(id, remote, navigator{}, opts)
	return Router{remote: remote, opts: opts, detail: &d}
}

// Notice returns the last notice handed back by a screen that ended the program.
func (r Router) Notice() *dialog.Alert { return r.notice }

// Init implements tea.Model.
func (r Router) Init() tea.Cmd {
	if r.detail != nil {
		return r.detail.Init()
	}
	return r.home.Init()
}

// Update implements tea.Model.
func (r Router) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.size = &msg
		var cmds []tea.Cmd
		if r.home != nil {
			next, cmd := r.home.Update(msg)
			h := next.(home.Model)
			r.home = &h
			cmds = append(cmds, cmd)
		}
		if r.detail != nil {
			next, cmd := r.detail.Update(msg)
			d := next.(detail.Model)
			r.detail = &d
			cmds = append(cmds, cmd)
		}
		return r, tea.Batch(cmds...)

	case openMsg:
		d := detail.New(msg.id, r.remote, navigator{}, r.opts)
		if r.size != nil {
			next, _ := d.Update(*r.size)
			d = next.(detail.Model)
		}
		r.detail = &d
		return r, d.Init()

	case backMsg:
		if r.detail == nil {
			return r, nil
		}
		r.detail = nil
		if r.home == nil {
			r.notice = msg.notice
			return r, tea.Quit
		}
		h, cmd := r.home.Resume(msg.notice)
		r.home = &h
		return r, cmd
	}

	if r.detail != nil {
		next, cmd := r.detail.Update(msg)
		d := next.(detail.Model)
		r.detail = &d
		return r, cmd
	}
	next, cmd := r.home.Update(msg)
	h := next.(home.Model)
	r.home = &h
	return r, cmd
}

// View implements tea.Model.
func (r Router) View() string {
	if r.detail != nil {
		return r.detail.View()
	}
	return r.home.View()
}

// Active reports which screen has focus: "detail" or "home".
func (r Router) Active() string {
	if r.detail != nil {
		return "detail"
	}
	return "home"
}
