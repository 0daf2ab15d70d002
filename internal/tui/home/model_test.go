package home

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/repairdesk/internal/dto"
	"github.com/Additional-Code/repairdesk/internal/entity"
	"github.com/Additional-Code/repairdesk/internal/tui/dialog"
)

type fakeRemote struct {
	docs     []dto.OrderDocument
	err      error
	statuses []string
}

func (f *fakeRemote) ListDocuments(_ context.Context, _ string, status string) ([]dto.OrderDocument, error) {
	f.statuses = append(f.statuses, status)
	if f.err != nil {
		return nil, f.err
	}
	var out []dto.OrderDocument
	for _, d := range f.docs {
		if d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeNav struct{ opened []string }

func (n *fakeNav) Open(id string) tea.Cmd {
	n.opened = append(n.opened, id)
	return nil
}

func drain(m Model, cmd tea.Cmd) Model {
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = drain(m, c)
		}
	case spinner.TickMsg, nil:
	default:
		m, _ = m.update(msg)
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sample() *fakeRemote {
	at := time.Date(2022, 5, 3, 12, 0, 0, 0, time.UTC)
	return &fakeRemote{docs: []dto.OrderDocument{
		{ID: "a", Patrimony: "1", Status: "open", CreatedAt: at},
		{ID: "b", Patrimony: "2", Status: "open", CreatedAt: at},
		{ID: "c", Patrimony: "3", Status: "closed", CreatedAt: at},
	}}
}

func TestListsOpenOrdersFirst(t *testing.T) {
	remote := sample()
	m := New(remote, &fakeNav{}, Options{Location: time.UTC})
	m = drain(m, m.Init())

	assert.False(t, m.Loading())
	assert.Equal(t, entity.StatusOpen, m.Filter())
	require.Len(t, m.Orders(), 2)
	assert.Contains(t, m.View(), "Patrimônio 1")
	assert.Equal(t, []string{"open"}, remote.statuses)
}

func TestTabSwitchesFilter(t *testing.T) {
	remote := sample()
	m := New(remote, &fakeNav{}, Options{})
	m = drain(m, m.Init())

	m, cmd := m.update(key("tab"))
	m = drain(m, cmd)
	assert.Equal(t, entity.StatusClosed, m.Filter())
	require.Len(t, m.Orders(), 1)
	assert.Equal(t, "c", m.Orders()[0].ID)
}

func TestEnterOpensSelectedOrder(t *testing.T) {
	nav := &fakeNav{}
	m := New(sample(), nav, Options{})
	m = drain(m, m.Init())

	m, _ = m.update(key("down"))
	assert.Equal(t, 1, m.Cursor())
	m, _ = m.update(key("down"))
	assert.Equal(t, 1, m.Cursor())

	_, _ = m.update(key("enter"))
	assert.Equal(t, []string{"b"}, nav.opened)
}

func TestListFailureShowsAlert(t *testing.T) {
	remote := &fakeRemote{err: errors.New("boom")}
	m := New(remote, &fakeNav{}, Options{})
	m = drain(m, m.Init())

	require.NotNil(t, m.Alert())
	assert.Equal(t, AlertListFailed, *m.Alert())

	m, _ = m.update(key("enter"))
	assert.Nil(t, m.Alert())
}

func TestResumeShowsNoticeAndRefreshes(t *testing.T) {
	remote := sample()
	m := New(remote, &fakeNav{}, Options{})
	m = drain(m, m.Init())

	notice := dialog.Alert{Title: "Solicitação", Message: "Solicitação encerrada com sucesso."}
	m, cmd := m.Resume(&notice)
	assert.True(t, m.Loading())
	m = drain(m, cmd)

	assert.False(t, m.Loading())
	assert.Equal(t, &notice, m.Alert())
	assert.Len(t, remote.statuses, 2)
}

func TestQuit(t *testing.T) {
	m := New(sample(), &fakeNav{}, Options{})
	m = drain(m, m.Init())

	_, cmd := m.update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
