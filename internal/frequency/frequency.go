// Package frequency decides when a goal is due. All functions are pure
// calendar arithmetic over whole days; no timezone conversion happens here.
package frequency

import (
	"encoding/json"
	"math"
	"time"

	"github.com/julianstephens/habitgrid/internal/models"
)

// IsScheduled reports whether the goal is due on the given date. Only the
// date's calendar day matters; any time-of-day component is dropped.
func IsScheduled(goal models.Goal, date time.Time) bool {
	day := DateOnly(date)

	switch goal.Frequency.Type {
	case models.FrequencyDaily:
		return true
	case models.FrequencyWeekly:
		wd := int(day.Weekday())
		for _, d := range goal.Frequency.Days {
			if d == wd {
				return true
			}
		}
		return false
	case models.FrequencyMonthly:
		// A month shorter than the configured day never matches; the goal
		// silently skips that month. Intentional, matches the shipped behavior.
		return day.Day() == goal.Frequency.DayOfMonth
	case models.FrequencyCustom:
		anchor := DateOnly(goal.CreatedAt)
		// Whole-day difference with explicit rounding to avoid DST drift.
		days := int(math.Round(day.Sub(anchor).Hours() / 24))
		if goal.Frequency.IntervalDays < 1 {
			return false
		}
		return days >= 0 && days%goal.Frequency.IntervalDays == 0
	default:
		return true
	}
}

// CountScheduledInRange counts scheduled days in [start, end], inclusive.
// Returns 0 when start is after end.
func CountScheduledInRange(goal models.Goal, start, end time.Time) int {
	count := 0
	for d := DateOnly(start); !d.After(DateOnly(end)); d = d.AddDate(0, 0, 1) {
		if IsScheduled(goal, d) {
			count++
		}
	}
	return count
}

// DateOnly truncates a timestamp to its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weeklyPayload et al. are the JSON column shapes for frequency_data.
type weeklyPayload struct {
	Days []int `json:"days"`
}

type monthlyPayload struct {
	DayOfMonth int `json:"day_of_month"`
}

type customPayload struct {
	IntervalDays int `json:"interval_days"`
}

// Serialize flattens a frequency into the (frequency_type, frequency_data)
// column pair. Daily frequencies carry no payload.
func Serialize(f models.Frequency) (freqType string, data string, err error) {
	switch f.Type {
	case models.FrequencyWeekly:
		b, err := json.Marshal(weeklyPayload{Days: f.Days})
		if err != nil {
			return "", "", err
		}
		return string(models.FrequencyWeekly), string(b), nil
	case models.FrequencyMonthly:
		b, err := json.Marshal(monthlyPayload{DayOfMonth: f.DayOfMonth})
		if err != nil {
			return "", "", err
		}
		return string(models.FrequencyMonthly), string(b), nil
	case models.FrequencyCustom:
		b, err := json.Marshal(customPayload{IntervalDays: f.IntervalDays})
		if err != nil {
			return "", "", err
		}
		return string(models.FrequencyCustom), string(b), nil
	default:
		return string(models.FrequencyDaily), "", nil
	}
}

// Parse rebuilds a frequency from its stored columns. Unknown types and
// corrupt payloads fall back to daily rather than failing: a goal with
// mangled scheduling data should still show up every day, not vanish.
func Parse(freqType, data string) models.Frequency {
	switch models.FrequencyType(freqType) {
	case models.FrequencyWeekly:
		var p weeklyPayload
		if data == "" || json.Unmarshal([]byte(data), &p) != nil {
			return models.Frequency{Type: models.FrequencyDaily}
		}
		return models.Frequency{Type: models.FrequencyWeekly, Days: p.Days}
	case models.FrequencyMonthly:
		var p monthlyPayload
		if data == "" || json.Unmarshal([]byte(data), &p) != nil {
			return models.Frequency{Type: models.FrequencyDaily}
		}
		return models.Frequency{Type: models.FrequencyMonthly, DayOfMonth: p.DayOfMonth}
	case models.FrequencyCustom:
		var p customPayload
		if data == "" || json.Unmarshal([]byte(data), &p) != nil {
			return models.Frequency{Type: models.FrequencyDaily}
		}
		return models.Frequency{Type: models.FrequencyCustom, IntervalDays: p.IntervalDays}
	default:
		return models.Frequency{Type: models.FrequencyDaily}
	}
}
