package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/julianstephens/habitgrid/internal/models"
)

type fakeLocal struct {
	dirtyUsers []models.User
	dirtyGoals []models.Goal
	dirtyLogs  []models.HabitLog

	clearedUsers []string
	clearedGoals []string
	clearedLogs  []string

	pulledUsers []models.User
	pulledGoals []models.Goal
	pulledLogs  []models.HabitLog

	lastSync time.Time
	purged   bool
}

func (f *fakeLocal) DirtyUsers() ([]models.User, error)    { return f.dirtyUsers, nil }
func (f *fakeLocal) DirtyGoals() ([]models.Goal, error)    { return f.dirtyGoals, nil }
func (f *fakeLocal) DirtyLogs() ([]models.HabitLog, error) { return f.dirtyLogs, nil }

func (f *fakeLocal) ClearUserDirty(ids []string) error {
	f.clearedUsers = append(f.clearedUsers, ids...)
	return nil
}
func (f *fakeLocal) ClearGoalDirty(ids []string) error {
	f.clearedGoals = append(f.clearedGoals, ids...)
	return nil
}
func (f *fakeLocal) ClearLogDirty(ids []string) error {
	f.clearedLogs = append(f.clearedLogs, ids...)
	return nil
}

func (f *fakeLocal) UpsertUserFromRemote(u models.User) error {
	f.pulledUsers = append(f.pulledUsers, u)
	return nil
}
func (f *fakeLocal) UpsertGoalFromRemote(g models.Goal) error {
	f.pulledGoals = append(f.pulledGoals, g)
	return nil
}
func (f *fakeLocal) UpsertLogFromRemote(l models.HabitLog) error {
	f.pulledLogs = append(f.pulledLogs, l)
	return nil
}

func (f *fakeLocal) LastSyncAt() (time.Time, error)  { return f.lastSync, nil }
func (f *fakeLocal) SetLastSyncAt(t time.Time) error { f.lastSync = t; return nil }
func (f *fakeLocal) PurgeSynced() error              { f.purged = true; return nil }

type fakeRemote struct {
	pingErr error
	pushErr error

	pushedUsers []models.User
	pushedGoals []models.Goal
	pushedLogs  []models.HabitLog

	serveUsers []models.User
	serveGoals []models.Goal
	serveLogs  []models.HabitLog

	pushBatches int
}

func (f *fakeRemote) Init() error                    { return nil }
func (f *fakeRemote) Ping(ctx context.Context) error { return f.pingErr }
func (f *fakeRemote) Close() error                   { return nil }

func (f *fakeRemote) UpsertUsers(users []models.User) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushBatches++
	f.pushedUsers = append(f.pushedUsers, users...)
	return nil
}
func (f *fakeRemote) UpsertGoals(goals []models.Goal) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushedGoals = append(f.pushedGoals, goals...)
	return nil
}
func (f *fakeRemote) UpsertLogs(logs []models.HabitLog) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushedLogs = append(f.pushedLogs, logs...)
	return nil
}

func (f *fakeRemote) UsersSince(since time.Time, limit int) ([]models.User, error) {
	return f.serveUsers, nil
}
func (f *fakeRemote) GoalsSince(since time.Time, limit int) ([]models.Goal, error) {
	return f.serveGoals, nil
}
func (f *fakeRemote) LogsSince(since time.Time, limit int) ([]models.HabitLog, error) {
	return f.serveLogs, nil
}

func TestSyncNotConfigured(t *testing.T) {
	eng := New(&fakeLocal{}, nil)

	if got := eng.Status(); got != StatusNotConfigured {
		t.Errorf("initial status = %s, want not_configured", got)
	}
	if got := eng.Sync(context.Background()); got != StatusNotConfigured {
		t.Errorf("sync without remote = %s, want not_configured", got)
	}
}

func TestSyncOfflineWhenPingFails(t *testing.T) {
	local := &fakeLocal{dirtyUsers: []models.User{{ID: "u1"}}}
	rem := &fakeRemote{pingErr: errors.New("no route to host")}
	eng := New(local, rem)

	if got := eng.Sync(context.Background()); got != StatusOffline {
		t.Errorf("status = %s, want offline", got)
	}
	if len(rem.pushedUsers) != 0 {
		t.Error("nothing should be pushed while offline")
	}
	if len(local.clearedUsers) != 0 {
		t.Error("dirty flags must survive an offline attempt")
	}
}

func TestSyncPushClearsDirtyFlags(t *testing.T) {
	local := &fakeLocal{
		dirtyUsers: []models.User{{ID: "u1"}},
		dirtyGoals: []models.Goal{{ID: "g1"}, {ID: "g2"}},
		dirtyLogs:  []models.HabitLog{{ID: "l1"}},
	}
	rem := &fakeRemote{}
	eng := New(local, rem)

	if got := eng.Sync(context.Background()); got != StatusSuccess {
		t.Fatalf("status = %s, want success (err: %v)", got, eng.LastError())
	}

	if len(rem.pushedUsers) != 1 || len(rem.pushedGoals) != 2 || len(rem.pushedLogs) != 1 {
		t.Errorf("push counts = %d/%d/%d, want 1/2/1",
			len(rem.pushedUsers), len(rem.pushedGoals), len(rem.pushedLogs))
	}
	if len(local.clearedUsers) != 1 || len(local.clearedGoals) != 2 || len(local.clearedLogs) != 1 {
		t.Errorf("cleared counts = %d/%d/%d, want 1/2/1",
			len(local.clearedUsers), len(local.clearedGoals), len(local.clearedLogs))
	}
	if !local.purged {
		t.Error("successful sync should purge acknowledged tombstones")
	}
	if local.lastSync.IsZero() {
		t.Error("successful sync should advance the high-water mark")
	}
}

func TestSyncPushBatches(t *testing.T) {
	users := make([]models.User, 120)
	for i := range users {
		users[i] = models.User{ID: string(rune('a' + i%26))}
	}
	local := &fakeLocal{dirtyUsers: users}
	rem := &fakeRemote{}
	eng := New(local, rem)

	if got := eng.Sync(context.Background()); got != StatusSuccess {
		t.Fatalf("status = %s", got)
	}
	// 120 rows at 50 per batch
	if rem.pushBatches != 3 {
		t.Errorf("batches = %d, want 3", rem.pushBatches)
	}
	if len(rem.pushedUsers) != 120 {
		t.Errorf("pushed = %d, want 120", len(rem.pushedUsers))
	}
}

func TestSyncPullAppliesRemoteRows(t *testing.T) {
	local := &fakeLocal{}
	rem := &fakeRemote{
		serveUsers: []models.User{{ID: "u1"}},
		serveGoals: []models.Goal{{ID: "g1"}},
		serveLogs:  []models.HabitLog{{ID: "l1"}, {ID: "l2"}},
	}
	eng := New(local, rem)

	if got := eng.Sync(context.Background()); got != StatusSuccess {
		t.Fatalf("status = %s", got)
	}
	if len(local.pulledUsers) != 1 || len(local.pulledGoals) != 1 || len(local.pulledLogs) != 2 {
		t.Errorf("pulled counts = %d/%d/%d, want 1/1/2",
			len(local.pulledUsers), len(local.pulledGoals), len(local.pulledLogs))
	}
}

func TestSyncErrorPreservesDirtyState(t *testing.T) {
	local := &fakeLocal{dirtyUsers: []models.User{{ID: "u1"}}}
	rem := &fakeRemote{pushErr: errors.New("constraint violation")}
	eng := New(local, rem)

	if got := eng.Sync(context.Background()); got != StatusError {
		t.Fatalf("status = %s, want error", got)
	}
	if eng.LastError() == nil {
		t.Error("LastError should carry the failure")
	}
	if len(local.clearedUsers) != 0 {
		t.Error("dirty flags must survive a failed push")
	}
	if local.purged {
		t.Error("failed sync must not purge tombstones")
	}
	if !local.lastSync.IsZero() {
		t.Error("failed sync must not advance the high-water mark")
	}
}

func TestSyncStatusTransitions(t *testing.T) {
	local := &fakeLocal{}
	eng := New(local, &fakeRemote{})

	var mu stdsync.Mutex
	var seen []Status
	eng.Subscribe(func(s Status) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	eng.Sync(context.Background())

	mu.Lock()
	defer mu.Unlock()
	want := []Status{StatusSyncing, StatusSuccess}
	if len(seen) != len(want) {
		t.Fatalf("transitions = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestSchedulerDebounce(t *testing.T) {
	// Many rapid writes should collapse into a single sync.
	local := &fakeLocal{dirtyUsers: []models.User{{ID: "u1"}}}
	rem := &fakeRemote{}
	eng := New(local, rem)
	sched := NewScheduler(eng)
	defer sched.Stop()

	var mu stdsync.Mutex
	syncs := 0
	eng.Subscribe(func(s Status) {
		if s == StatusSuccess {
			mu.Lock()
			syncs++
			mu.Unlock()
		}
	})

	for i := 0; i < 10; i++ {
		sched.ScheduleAfterWrite()
	}

	deadline := time.After(5 * time.Second)
	for {
		mu.Lock()
		n := syncs
		mu.Unlock()
		if n >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("debounced sync never fired")
		case <-time.After(50 * time.Millisecond):
		}
	}

	// Allow any stragglers, then confirm no extra runs happened.
	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if syncs != 1 {
		t.Errorf("syncs = %d, want exactly 1", syncs)
	}
}

func TestSchedulerStopCancelsPending(t *testing.T) {
	local := &fakeLocal{}
	eng := New(local, &fakeRemote{})
	sched := NewScheduler(eng)

	fired := make(chan struct{}, 1)
	eng.Subscribe(func(s Status) {
		if s == StatusSyncing {
			fired <- struct{}{}
		}
	})

	sched.ScheduleAfterWrite()
	sched.Stop()
	sched.ScheduleAfterWrite() // no-op after Stop

	select {
	case <-fired:
		t.Error("stopped scheduler should not trigger a sync")
	case <-time.After(4 * time.Second):
	}
}
