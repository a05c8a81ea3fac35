// Package tui is the interactive dashboard. Goals still open today are
// packed into a mosaic of tiles; marking one removes it from the board and
// queues a sync.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitgrid/internal/analytics"
	"github.com/julianstephens/habitgrid/internal/constants"
	"github.com/julianstephens/habitgrid/internal/frequency"
	"github.com/julianstephens/habitgrid/internal/layout"
	"github.com/julianstephens/habitgrid/internal/models"
	"github.com/julianstephens/habitgrid/internal/storage"
	habsync "github.com/julianstephens/habitgrid/internal/sync"
)

// Terminal cells are roughly twice as tall as wide; the layout engine works
// in these virtual pixels so its minimum tile height maps to sensible rows.
const (
	cellPxW = 8
	cellPxH = 16
)

type sessionState int

const (
	statePickProfile sessionState = iota
	statePinEntry
	stateDashboard
)

type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Back    key.Binding
	Sync    key.Binding
	Refresh key.Binding
	Skip    key.Binding
	Quit    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "profiles")),
		Sync:    key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sync now")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Skip:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s+1..9", "skip tile")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Skip, k.Sync, k.Back, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back},
		{k.Sync, k.Refresh, k.Skip, k.Quit},
	}
}

type syncStatusMsg habsync.Status

type Model struct {
	store     *storage.Store
	analytics *analytics.Engine
	engine    *habsync.Engine
	scheduler *habsync.Scheduler

	state  sessionState
	keys   KeyMap
	help   help.Model
	width  int
	height int

	users    []models.User
	cursor   int
	active   *models.User
	pinForm  *huh.Form
	pinValue string
	pinError string

	tiles    []layout.Tile
	rates    map[string]float64
	overflow int
	streak   analytics.StreakInfo

	syncStatus habsync.Status
	statusCh   chan habsync.Status

	skipArmed bool
	errMsg    string
	quitting  bool
}

func NewModel(store *storage.Store, eng *analytics.Engine, syncEng *habsync.Engine, sched *habsync.Scheduler) Model {
	users, _ := store.Users()

	m := Model{
		store:      store,
		analytics:  eng,
		engine:     syncEng,
		scheduler:  sched,
		state:      statePickProfile,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		users:      users,
		syncStatus: syncEng.Status(),
		statusCh:   make(chan habsync.Status, 8),
	}

	syncEng.Subscribe(func(s habsync.Status) {
		select {
		case m.statusCh <- s:
		default:
		}
	})

	return m
}

func (m Model) Init() tea.Cmd {
	// First sync is deferred so the board renders before any network work
	if m.scheduler != nil {
		m.scheduler.ScheduleInitial()
	}
	return waitForStatus(m.statusCh)
}

func waitForStatus(ch chan habsync.Status) tea.Cmd {
	return func() tea.Msg {
		return syncStatusMsg(<-ch)
	}
}

// refreshBoard reloads the active profile's goals and recomputes the tile
// mosaic for the current viewport.
func (m *Model) refreshBoard() {
	if m.active == nil {
		return
	}

	goals, err := m.store.GoalsByUser(m.active.ID)
	if err != nil {
		m.errMsg = err.Error()
		return
	}

	now := time.Now()
	today := frequency.DateOnly(now)
	date := now.Format(constants.DateFormat)

	var input []layout.GoalTile
	rates := make(map[string]float64)
	for _, g := range goals {
		if !frequency.IsScheduled(g, today) {
			continue
		}
		rate, err := m.analytics.CompletionRate(g, 30)
		if err != nil {
			m.errMsg = err.Error()
			return
		}
		rates[g.ID] = rate
		_, logErr := m.store.LogForDate(g.ID, date)
		input = append(input, layout.GoalTile{
			Goal:           g,
			CompletionRate: rate,
			HasTodayLog:    logErr == nil,
		})
	}

	pxW := m.boardCols() * cellPxW
	pxH := m.boardRows() * cellPxH
	result := layout.Compute(input, pxW, pxH)
	m.tiles = result.Tiles
	m.rates = rates
	m.overflow = result.Overflow

	streak, err := m.analytics.Streak(m.active.ID)
	if err == nil {
		m.streak = streak
	}
}

func (m *Model) boardCols() int {
	if m.width < 20 {
		return 20
	}
	return m.width
}

func (m *Model) boardRows() int {
	// Status line and help line sit below the board
	rows := m.height - 2
	if rows < 6 {
		return 6
	}
	return rows
}
