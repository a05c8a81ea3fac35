// Package sync pushes dirty local rows to the shared remote database and
// pulls newer rows back, reconciling with last-writer-wins. A device that
// never configures a remote keeps working; the engine just reports
// StatusNotConfigured.
package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/julianstephens/habitgrid/internal/constants"
	"github.com/julianstephens/habitgrid/internal/logger"
	"github.com/julianstephens/habitgrid/internal/models"
	"github.com/julianstephens/habitgrid/internal/remote"
)

// Status describes the engine's last known state.
type Status string

const (
	StatusIdle          Status = "idle"
	StatusSyncing       Status = "syncing"
	StatusSuccess       Status = "success"
	StatusError         Status = "error"
	StatusOffline       Status = "offline"
	StatusNotConfigured Status = "not_configured"
)

// LocalStore is the slice of the storage layer the engine needs.
type LocalStore interface {
	DirtyUsers() ([]models.User, error)
	DirtyGoals() ([]models.Goal, error)
	DirtyLogs() ([]models.HabitLog, error)
	ClearUserDirty(ids []string) error
	ClearGoalDirty(ids []string) error
	ClearLogDirty(ids []string) error

	UpsertUserFromRemote(u models.User) error
	UpsertGoalFromRemote(g models.Goal) error
	UpsertLogFromRemote(l models.HabitLog) error

	LastSyncAt() (time.Time, error)
	SetLastSyncAt(t time.Time) error
	PurgeSynced() error
}

// Listener receives status transitions. Calls arrive on the syncing
// goroutine and must not block.
type Listener func(Status)

// Engine coordinates push and pull against the remote. At most one sync runs
// at a time; requests arriving mid-sync are dropped rather than queued, since
// the running pass already covers their changes.
type Engine struct {
	local  LocalStore
	remote remote.Store

	mu        stdsync.Mutex
	syncing   bool
	status    Status
	lastError error
	listeners []Listener
}

// New builds an engine. A nil remote means sync is not configured.
func New(local LocalStore, rem remote.Store) *Engine {
	status := StatusIdle
	if rem == nil {
		status = StatusNotConfigured
	}
	return &Engine{
		local:  local,
		remote: rem,
		status: status,
	}
}

// Status returns the engine's current state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// LastError returns the error behind the most recent StatusError, if any.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastError
}

// Subscribe registers a status listener.
func (e *Engine) Subscribe(fn Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

func (e *Engine) setStatus(s Status, err error) {
	e.mu.Lock()
	e.status = s
	e.lastError = err
	listeners := make([]Listener, len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}

// Sync runs one full push/pull pass. Returns the resulting status; a pass
// skipped because one is already running reports the in-flight status.
func (e *Engine) Sync(ctx context.Context) Status {
	e.mu.Lock()
	if e.syncing {
		status := e.status
		e.mu.Unlock()
		return status
	}
	if e.remote == nil {
		e.mu.Unlock()
		e.setStatus(StatusNotConfigured, nil)
		return StatusNotConfigured
	}
	e.syncing = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.syncing = false
		e.mu.Unlock()
	}()

	if err := e.remote.Ping(ctx); err != nil {
		logger.Debug("Remote unreachable, staying offline", "error", err)
		e.setStatus(StatusOffline, nil)
		return StatusOffline
	}

	e.setStatus(StatusSyncing, nil)

	if err := e.performSync(); err != nil {
		logger.Error("Sync failed", "error", err)
		e.setStatus(StatusError, err)
		return StatusError
	}

	e.setStatus(StatusSuccess, nil)
	return StatusSuccess
}

// performSync pushes parents before children so the remote never sees a goal
// without its user, then pulls everything newer than the local high-water
// mark.
func (e *Engine) performSync() error {
	syncStart := time.Now().UTC()

	if err := e.pushUsers(); err != nil {
		return err
	}
	if err := e.pushGoals(); err != nil {
		return err
	}
	if err := e.pushLogs(); err != nil {
		return err
	}

	if err := e.pull(); err != nil {
		return err
	}

	if err := e.local.SetLastSyncAt(syncStart); err != nil {
		return err
	}

	// Tombstones acknowledged by the remote can finally be dropped
	return e.local.PurgeSynced()
}

func (e *Engine) pushUsers() error {
	users, err := e.local.DirtyUsers()
	if err != nil {
		return err
	}
	for start := 0; start < len(users); start += constants.PushBatchSize {
		end := min(start+constants.PushBatchSize, len(users))
		batch := users[start:end]
		if err := e.remote.UpsertUsers(batch); err != nil {
			return err
		}
		ids := make([]string, len(batch))
		for i, u := range batch {
			ids[i] = u.ID
		}
		if err := e.local.ClearUserDirty(ids); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) pushGoals() error {
	goals, err := e.local.DirtyGoals()
	if err != nil {
		return err
	}
	for start := 0; start < len(goals); start += constants.PushBatchSize {
		end := min(start+constants.PushBatchSize, len(goals))
		batch := goals[start:end]
		if err := e.remote.UpsertGoals(batch); err != nil {
			return err
		}
		ids := make([]string, len(batch))
		for i, g := range batch {
			ids[i] = g.ID
		}
		if err := e.local.ClearGoalDirty(ids); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) pushLogs() error {
	logs, err := e.local.DirtyLogs()
	if err != nil {
		return err
	}
	for start := 0; start < len(logs); start += constants.PushBatchSize {
		end := min(start+constants.PushBatchSize, len(logs))
		batch := logs[start:end]
		if err := e.remote.UpsertLogs(batch); err != nil {
			return err
		}
		ids := make([]string, len(batch))
		for i, l := range batch {
			ids[i] = l.ID
		}
		if err := e.local.ClearLogDirty(ids); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) pull() error {
	since, err := e.local.LastSyncAt()
	if err != nil {
		return err
	}

	users, err := e.remote.UsersSince(since, constants.PullPageLimit)
	if err != nil {
		return err
	}
	for _, u := range users {
		if err := e.local.UpsertUserFromRemote(u); err != nil {
			return err
		}
	}

	goals, err := e.remote.GoalsSince(since, constants.PullPageLimit)
	if err != nil {
		return err
	}
	for _, g := range goals {
		if err := e.local.UpsertGoalFromRemote(g); err != nil {
			return err
		}
	}

	logs, err := e.remote.LogsSince(since, constants.PullPageLimit)
	if err != nil {
		return err
	}
	for _, l := range logs {
		if err := e.local.UpsertLogFromRemote(l); err != nil {
			return err
		}
	}

	return nil
}
