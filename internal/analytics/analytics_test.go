package analytics

import (
	"testing"
	"time"

	"github.com/julianstephens/habitgrid/internal/models"
)

// fakeStore serves canned data keyed by goal id and date.
type fakeStore struct {
	users     []models.User
	goals     map[string][]models.Goal // userID -> goals
	completed map[string]map[string]bool // goalID -> date -> completed
}

func (f *fakeStore) Users() ([]models.User, error) { return f.users, nil }

func (f *fakeStore) GoalsByUser(userID string) ([]models.Goal, error) {
	return f.goals[userID], nil
}

func (f *fakeStore) CompletedCount(goalID, startDate, endDate string) (int, error) {
	count := 0
	for date, done := range f.completed[goalID] {
		if done && date >= startDate && date <= endDate {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) StatusCounts(goalID, startDate, endDate string) (int, int, int, error) {
	completed, _ := f.CompletedCount(goalID, startDate, endDate)
	return completed, 0, 0, nil
}

func (f *fakeStore) CompletedOnDate(goalIDs []string, date string) (int, error) {
	count := 0
	for _, id := range goalIDs {
		if f.completed[id][date] {
			count++
		}
	}
	return count, nil
}

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func dailyGoal(id, userID string, createdDaysAgo int) models.Goal {
	return models.Goal{
		ID:        id,
		UserID:    userID,
		Title:     "goal " + id,
		Kind:      models.GoalCheckbox,
		Frequency: models.Frequency{Type: models.FrequencyDaily},
		CreatedAt: testNow.AddDate(0, 0, -createdDaysAgo),
	}
}

func markCompleted(store *fakeStore, goalID string, daysAgo ...int) {
	if store.completed == nil {
		store.completed = map[string]map[string]bool{}
	}
	if store.completed[goalID] == nil {
		store.completed[goalID] = map[string]bool{}
	}
	for _, d := range daysAgo {
		date := testNow.AddDate(0, 0, -d).Format("2006-01-02")
		store.completed[goalID][date] = true
	}
}

func TestCompletionRateNothingScheduled(t *testing.T) {
	store := &fakeStore{}
	eng := NewAt(store, fixedNow)

	// Weekly goal with an empty day set never schedules; an empty window
	// counts as fully met.
	goal := dailyGoal("g1", "u1", 60)
	goal.Frequency = models.Frequency{Type: models.FrequencyWeekly}

	rate, err := eng.CompletionRate(goal, 30)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 1.0 {
		t.Errorf("rate with nothing scheduled = %v, want 1.0", rate)
	}
}

func TestCompletionRateDaily(t *testing.T) {
	store := &fakeStore{}
	goal := dailyGoal("g1", "u1", 60)
	// 15 of 31 scheduled days completed (window is inclusive of both ends).
	days := make([]int, 15)
	for i := range days {
		days[i] = i
	}
	markCompleted(store, "g1", days...)

	eng := NewAt(store, fixedNow)
	rate, err := eng.CompletionRate(goal, 30)
	if err != nil {
		t.Fatal(err)
	}
	want := 15.0 / 31.0
	if rate != want {
		t.Errorf("rate = %v, want %v", rate, want)
	}
}

func TestCompletionRateClampedToCreation(t *testing.T) {
	store := &fakeStore{}
	// Created 5 days ago: window is 6 scheduled days, all completed.
	goal := dailyGoal("g1", "u1", 5)
	markCompleted(store, "g1", 0, 1, 2, 3, 4, 5)

	eng := NewAt(store, fixedNow)
	rate, err := eng.CompletionRate(goal, 30)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 1.0 {
		t.Errorf("rate = %v, want 1.0 (window clamped to creation)", rate)
	}
}

func TestStreakNoGoals(t *testing.T) {
	store := &fakeStore{goals: map[string][]models.Goal{}}
	eng := NewAt(store, fixedNow)

	streak, err := eng.Streak("u1")
	if err != nil {
		t.Fatal(err)
	}
	if streak.Current != 0 || streak.Longest != 0 {
		t.Errorf("streak without goals = %+v, want zeros", streak)
	}
}

func TestStreakCurrentAndLongest(t *testing.T) {
	store := &fakeStore{}
	goal := dailyGoal("g1", "u1", 40)
	store.goals = map[string][]models.Goal{"u1": {goal}}

	// 10-day current run ending yesterday, then a miss at day 11, then an
	// older 12-day run.
	for d := 1; d <= 10; d++ {
		markCompleted(store, "g1", d)
	}
	for d := 12; d <= 23; d++ {
		markCompleted(store, "g1", d)
	}

	eng := NewAt(store, fixedNow)
	streak, err := eng.Streak("u1")
	if err != nil {
		t.Fatal(err)
	}
	if streak.Current != 10 {
		t.Errorf("current = %d, want 10", streak.Current)
	}
	if streak.Longest != 12 {
		t.Errorf("longest = %d, want 12", streak.Longest)
	}
}

func TestStreakSkipsUnscheduledDays(t *testing.T) {
	store := &fakeStore{}
	// Mondays only (weekday 1). Completing two consecutive Mondays gives a
	// 2-day streak even though 6 calendar days sit between them.
	goal := dailyGoal("g1", "u1", 40)
	goal.Frequency = models.Frequency{Type: models.FrequencyWeekly, Days: []int{1}}
	store.goals = map[string][]models.Goal{"u1": {goal}}

	// 2026-03-15 is a Sunday; the two Mondays before are Mar 9 and Mar 2.
	markCompleted(store, "g1", 6, 13)

	eng := NewAt(store, fixedNow)
	streak, err := eng.Streak("u1")
	if err != nil {
		t.Fatal(err)
	}
	if streak.Current != 2 {
		t.Errorf("current = %d, want 2", streak.Current)
	}
}

func TestStreakBrokenByMiss(t *testing.T) {
	store := &fakeStore{}
	goal := dailyGoal("g1", "u1", 40)
	store.goals = map[string][]models.Goal{"u1": {goal}}

	// Yesterday missed; days 2-4 completed. Current freezes at 0.
	markCompleted(store, "g1", 2, 3, 4)

	eng := NewAt(store, fixedNow)
	streak, err := eng.Streak("u1")
	if err != nil {
		t.Fatal(err)
	}
	if streak.Current != 0 {
		t.Errorf("current = %d, want 0 (yesterday missed)", streak.Current)
	}
	if streak.Longest != 3 {
		t.Errorf("longest = %d, want 3", streak.Longest)
	}
}

func TestStreakRequiresAllScheduledGoals(t *testing.T) {
	store := &fakeStore{}
	g1 := dailyGoal("g1", "u1", 40)
	g2 := dailyGoal("g2", "u1", 40)
	store.goals = map[string][]models.Goal{"u1": {g1, g2}}

	// Both done yesterday, only one done the day before.
	markCompleted(store, "g1", 1, 2)
	markCompleted(store, "g2", 1)

	eng := NewAt(store, fixedNow)
	streak, err := eng.Streak("u1")
	if err != nil {
		t.Fatal(err)
	}
	if streak.Current != 1 {
		t.Errorf("current = %d, want 1", streak.Current)
	}
}

func TestPersonalEmpty(t *testing.T) {
	store := &fakeStore{goals: map[string][]models.Goal{}}
	eng := NewAt(store, fixedNow)

	report, err := eng.Personal("u1")
	if err != nil {
		t.Fatal(err)
	}
	if report.OverallRate7d != 0 || report.OverallRate30d != 0 {
		t.Errorf("empty report has nonzero rates: %+v", report)
	}
	if len(report.Goals) != 0 {
		t.Errorf("expected no goal entries, got %d", len(report.Goals))
	}
}

func TestPersonalAggregates(t *testing.T) {
	store := &fakeStore{}
	goal := dailyGoal("g1", "u1", 60)
	store.goals = map[string][]models.Goal{"u1": {goal}}
	markCompleted(store, "g1", 0, 1, 2, 3, 4, 5, 6, 7)

	eng := NewAt(store, fixedNow)
	report, err := eng.Personal("u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Goals) != 1 {
		t.Fatalf("expected 1 goal entry, got %d", len(report.Goals))
	}
	// 8 of 8 scheduled days in the 7-day window (inclusive).
	if report.OverallRate7d != 1.0 {
		t.Errorf("overall 7d = %v, want 1.0", report.OverallRate7d)
	}
	if report.TotalCompleted != 8 {
		t.Errorf("total completed = %d, want 8", report.TotalCompleted)
	}
	if report.Goals[0].ScheduledCount != 31 {
		t.Errorf("scheduled count = %d, want 31", report.Goals[0].ScheduledCount)
	}
}

func TestLeaderboardRanksAndTies(t *testing.T) {
	store := &fakeStore{
		users: []models.User{
			{ID: "u1", Name: "Ada"},
			{ID: "u2", Name: "Ben"},
			{ID: "u3", Name: "Cleo"},
			{ID: "u4", Name: "Dee"},
		},
		goals: map[string][]models.Goal{
			"u1": {dailyGoal("g1", "u1", 60)},
			"u2": {dailyGoal("g2", "u2", 60)},
			"u3": {dailyGoal("g3", "u3", 60)},
		},
	}
	// u1 and u2 tie on a perfect score, u3 trails, u4 has no goals.
	for d := 0; d <= 31; d++ {
		markCompleted(store, "g1", d)
		markCompleted(store, "g2", d)
	}
	markCompleted(store, "g3", 0, 1, 2)

	eng := NewAt(store, fixedNow)
	entries, err := eng.Leaderboard()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	if entries[0].Rank != 1 || entries[1].Rank != 1 {
		t.Errorf("tied leaders should share rank 1, got %d and %d",
			entries[0].Rank, entries[1].Rank)
	}
	// Rank after a tie is positional, not compressed.
	if entries[2].Rank != 3 {
		t.Errorf("entry after tie pair should rank 3, got %d", entries[2].Rank)
	}
	if entries[3].User.ID != "u4" || entries[3].Score != 0 {
		t.Errorf("goalless user should trail with score 0, got %+v", entries[3])
	}
	if entries[3].Rank != 4 {
		t.Errorf("last entry rank = %d, want 4", entries[3].Rank)
	}
}
