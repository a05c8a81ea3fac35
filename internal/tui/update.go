package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/julianstephens/habitgrid/internal/auth"
	"github.com/julianstephens/habitgrid/internal/constants"
	"github.com/julianstephens/habitgrid/internal/models"
	habsync "github.com/julianstephens/habitgrid/internal/sync"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if m.state == stateDashboard {
			m.refreshBoard()
		}
		return m, nil

	case syncStatusMsg:
		m.syncStatus = habsync.Status(msg)
		if m.state == stateDashboard {
			// A pull may have changed the board
			m.refreshBoard()
		}
		return m, waitForStatus(m.statusCh)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) && m.state != statePinEntry {
			m.quitting = true
			if m.scheduler != nil {
				m.scheduler.Stop()
			}
			return m, tea.Quit
		}

		switch m.state {
		case statePickProfile:
			return m.updatePickProfile(msg)
		case statePinEntry:
			return m.updatePinEntry(msg)
		case stateDashboard:
			return m.updateDashboard(msg)
		}
	}

	if m.state == statePinEntry && m.pinForm != nil {
		form, cmd := m.pinForm.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.pinForm = f
		}
		return m.checkPinForm(cmd)
	}

	return m, nil
}

func (m Model) updatePickProfile(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.users)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if len(m.users) == 0 {
			return m, nil
		}
		user := m.users[m.cursor]
		if user.PinHash != "" {
			m.pinValue = ""
			m.pinError = ""
			m.active = &user
			m.pinForm = newPinForm(&m.pinValue, user.Name)
			m.state = statePinEntry
			return m, m.pinForm.Init()
		}
		m.active = &user
		m.state = stateDashboard
		m.refreshBoard()
	}
	return m, nil
}

func newPinForm(value *string, name string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("PIN for " + name).
				EchoMode(huh.EchoModePassword).
				Value(value),
		),
	)
}

func (m Model) updatePinEntry(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.state = statePickProfile
		m.active = nil
		m.pinForm = nil
		return m, nil
	}

	form, cmd := m.pinForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.pinForm = f
	}
	return m.checkPinForm(cmd)
}

func (m Model) checkPinForm(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if m.pinForm == nil || m.pinForm.State != huh.StateCompleted {
		return m, cmd
	}

	if !auth.VerifyPin(m.pinValue, m.active.PinHash) {
		m.pinError = "Incorrect PIN"
		m.pinValue = ""
		m.pinForm = newPinForm(&m.pinValue, m.active.Name)
		return m, m.pinForm.Init()
	}

	m.pinForm = nil
	m.pinError = ""
	m.state = stateDashboard
	m.refreshBoard()
	return m, nil
}

func (m Model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.state = statePickProfile
		m.active = nil
		m.tiles = nil
		m.skipArmed = false
		users, err := m.store.Users()
		if err == nil {
			m.users = users
			if m.cursor >= len(users) {
				m.cursor = 0
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Sync):
		go m.engine.Sync(context.Background())
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.refreshBoard()
		return m, nil

	case key.Matches(msg, m.keys.Skip):
		m.skipArmed = true
		return m, nil
	}

	// Number keys mark the corresponding tile
	if n := digitKey(msg.String()); n > 0 && n <= len(m.tiles) {
		status := models.StatusCompleted
		if m.skipArmed {
			status = models.StatusSkipped
		}
		m.skipArmed = false
		m.markTile(n-1, status)
		return m, nil
	}
	m.skipArmed = false
	return m, nil
}

func digitKey(s string) int {
	if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		return int(s[0] - '0')
	}
	return 0
}

func (m *Model) markTile(idx int, status models.LogStatus) {
	tile := m.tiles[idx]
	log := models.HabitLog{
		ID:        uuid.New().String(),
		GoalID:    tile.GoalID,
		Date:      time.Now().Format(constants.DateFormat),
		Status:    status,
		CreatedAt: time.Now(),
	}
	if err := m.store.SaveLog(log); err != nil {
		m.errMsg = err.Error()
		return
	}
	if m.scheduler != nil {
		m.scheduler.ScheduleAfterWrite()
	}
	m.refreshBoard()
}
