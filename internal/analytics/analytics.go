// Package analytics derives completion rates, streaks, and the household
// leaderboard from logged habit data.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/julianstephens/habitgrid/internal/constants"
	"github.com/julianstephens/habitgrid/internal/frequency"
	"github.com/julianstephens/habitgrid/internal/models"
)

// Store is the slice of the storage layer analytics reads from.
type Store interface {
	Users() ([]models.User, error)
	GoalsByUser(userID string) ([]models.Goal, error)
	CompletedCount(goalID, startDate, endDate string) (int, error)
	StatusCounts(goalID, startDate, endDate string) (completed, skipped, failed int, err error)
	CompletedOnDate(goalIDs []string, date string) (int, error)
}

// StreakInfo reports a user's consecutive-day completion runs.
type StreakInfo struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// GoalAnalytics is the per-goal breakdown inside a personal report.
type GoalAnalytics struct {
	Goal              models.Goal `json:"goal"`
	CompletionRate7d  float64     `json:"completionRate7d"`
	CompletionRate30d float64     `json:"completionRate30d"`
	CompletedCount    int         `json:"completedCount"`
	SkippedCount      int         `json:"skippedCount"`
	FailedCount       int         `json:"failedCount"`
	ScheduledCount    int         `json:"scheduledCount"`
}

// PersonalAnalytics aggregates one user's goals over the trailing windows.
type PersonalAnalytics struct {
	OverallRate7d  float64         `json:"overallRate7d"`
	OverallRate30d float64         `json:"overallRate30d"`
	Streak         StreakInfo      `json:"streak"`
	Goals          []GoalAnalytics `json:"goals"`
	TotalCompleted int             `json:"totalCompleted"`
	TotalSkipped   int             `json:"totalSkipped"`
	TotalFailed    int             `json:"totalFailed"`
}

// LeaderboardEntry ranks one user by mean 30-day completion rate.
type LeaderboardEntry struct {
	User      models.User `json:"user"`
	Score     float64     `json:"score"`
	GoalCount int         `json:"goalCount"`
	Rank      int         `json:"rank"`
}

// Engine computes analytics against a store. The clock is injectable so tests
// can pin "today".
type Engine struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// NewAt builds an engine with a fixed clock.
func NewAt(store Store, now func() time.Time) *Engine {
	return &Engine{store: store, now: now}
}

// CompletionRate returns completed/scheduled for the trailing window of the
// given length, clamped to the goal's creation date. A window with nothing
// scheduled counts as fully met.
func (e *Engine) CompletionRate(goal models.Goal, days int) (float64, error) {
	end := frequency.DateOnly(e.now())
	start := frequency.DateOnly(e.now().AddDate(0, 0, -days))
	if created := frequency.DateOnly(goal.CreatedAt); created.After(start) {
		start = created
	}

	scheduled := frequency.CountScheduledInRange(goal, start, end)
	if scheduled == 0 {
		return 1, nil
	}

	completed, err := e.store.CompletedCount(goal.ID,
		start.Format(constants.DateFormat), end.Format(constants.DateFormat))
	if err != nil {
		return 0, err
	}
	return float64(completed) / float64(scheduled), nil
}

// Personal builds the full analytics report for one user.
func (e *Engine) Personal(userID string) (*PersonalAnalytics, error) {
	goals, err := e.store.GoalsByUser(userID)
	if err != nil {
		return nil, err
	}

	today := frequency.DateOnly(e.now())
	windowStart := frequency.DateOnly(e.now().AddDate(0, 0, -30))

	report := &PersonalAnalytics{Goals: make([]GoalAnalytics, 0, len(goals))}
	var sum7, sum30 float64

	for _, goal := range goals {
		rate7, err := e.CompletionRate(goal, 7)
		if err != nil {
			return nil, err
		}
		rate30, err := e.CompletionRate(goal, 30)
		if err != nil {
			return nil, err
		}

		start := windowStart
		if created := frequency.DateOnly(goal.CreatedAt); created.After(start) {
			start = created
		}
		scheduled := frequency.CountScheduledInRange(goal, start, today)

		completed, skipped, failed, err := e.store.StatusCounts(goal.ID,
			start.Format(constants.DateFormat), today.Format(constants.DateFormat))
		if err != nil {
			return nil, err
		}

		report.TotalCompleted += completed
		report.TotalSkipped += skipped
		report.TotalFailed += failed
		sum7 += rate7
		sum30 += rate30

		report.Goals = append(report.Goals, GoalAnalytics{
			Goal:              goal,
			CompletionRate7d:  rate7,
			CompletionRate30d: rate30,
			CompletedCount:    completed,
			SkippedCount:      skipped,
			FailedCount:       failed,
			ScheduledCount:    scheduled,
		})
	}

	if len(goals) > 0 {
		report.OverallRate7d = sum7 / float64(len(goals))
		report.OverallRate30d = sum30 / float64(len(goals))
	}

	streak, err := e.Streak(userID)
	if err != nil {
		return nil, err
	}
	report.Streak = streak
	return report, nil
}

// Streak scans backward from yesterday over the past year. A day counts
// toward the streak when every goal scheduled that day has a completed log;
// days with nothing scheduled are skipped rather than broken on.
func (e *Engine) Streak(userID string) (StreakInfo, error) {
	goals, err := e.store.GoalsByUser(userID)
	if err != nil {
		return StreakInfo{}, err
	}
	if len(goals) == 0 {
		return StreakInfo{}, nil
	}

	var info StreakInfo
	broken := false
	running := 0

	for d := 1; d <= constants.StreakScanDays; d++ {
		date := frequency.DateOnly(e.now().AddDate(0, 0, -d))

		var scheduled []string
		for _, goal := range goals {
			if frequency.DateOnly(goal.CreatedAt).After(date) {
				continue
			}
			if frequency.IsScheduled(goal, date) {
				scheduled = append(scheduled, goal.ID)
			}
		}
		if len(scheduled) == 0 {
			continue
		}

		completed, err := e.store.CompletedOnDate(scheduled, date.Format(constants.DateFormat))
		if err != nil {
			return StreakInfo{}, err
		}

		if completed >= len(scheduled) {
			running++
			if !broken {
				info.Current = running
			}
			if running > info.Longest {
				info.Longest = running
			}
		} else {
			broken = true
			running = 0
		}
	}

	return info, nil
}

// Leaderboard scores every profile by the mean 30-day completion rate across
// their goals and ranks them descending. Scores within a small epsilon share
// the predecessor's rank; users without goals score zero.
func (e *Engine) Leaderboard() ([]LeaderboardEntry, error) {
	users, err := e.store.Users()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for _, user := range users {
		goals, err := e.store.GoalsByUser(user.ID)
		if err != nil {
			return nil, err
		}
		if len(goals) == 0 {
			entries = append(entries, LeaderboardEntry{User: user})
			continue
		}

		var total float64
		for _, goal := range goals {
			rate, err := e.CompletionRate(goal, 30)
			if err != nil {
				return nil, err
			}
			total += rate
		}
		entries = append(entries, LeaderboardEntry{
			User:      user,
			Score:     total / float64(len(goals)),
			GoalCount: len(goals),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		if i > 0 && math.Abs(entries[i].Score-entries[i-1].Score) < constants.LeaderboardTieEpsilon {
			entries[i].Rank = entries[i-1].Rank
		} else {
			entries[i].Rank = i + 1
		}
	}
	return entries, nil
}
