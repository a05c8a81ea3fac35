package frequency

import (
	"reflect"
	"testing"
	"time"

	"github.com/julianstephens/habitgrid/internal/constants"
	"github.com/julianstephens/habitgrid/internal/models"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return d
}

func TestIsScheduled_Daily(t *testing.T) {
	goal := models.Goal{Frequency: models.Frequency{Type: models.FrequencyDaily}}

	for _, s := range []string{"2026-01-01", "2028-02-29", "2026-12-31"} {
		if !IsScheduled(goal, mustDate(t, s)) {
			t.Errorf("daily goal should be scheduled on %s", s)
		}
	}
}

func TestIsScheduled_Weekly(t *testing.T) {
	// Monday and Wednesday
	goal := models.Goal{Frequency: models.Frequency{Type: models.FrequencyWeekly, Days: []int{1, 3}}}

	// 2026-01-05 is a Monday.
	if !IsScheduled(goal, mustDate(t, "2026-01-05")) {
		t.Error("expected scheduled on Monday")
	}
	if !IsScheduled(goal, mustDate(t, "2026-01-07")) {
		t.Error("expected scheduled on Wednesday")
	}
	if IsScheduled(goal, mustDate(t, "2026-01-06")) {
		t.Error("expected not scheduled on Tuesday")
	}
	if IsScheduled(goal, mustDate(t, "2026-01-11")) {
		t.Error("expected not scheduled on Sunday")
	}
}

func TestIsScheduled_WeeklyEmptyDays(t *testing.T) {
	goal := models.Goal{Frequency: models.Frequency{Type: models.FrequencyWeekly}}
	if IsScheduled(goal, mustDate(t, "2026-01-05")) {
		t.Error("weekly goal with no days should never be scheduled")
	}
}

func TestIsScheduled_Monthly(t *testing.T) {
	goal := models.Goal{Frequency: models.Frequency{Type: models.FrequencyMonthly, DayOfMonth: 15}}

	if !IsScheduled(goal, mustDate(t, "2026-01-15")) {
		t.Error("expected scheduled on the 15th")
	}
	if IsScheduled(goal, mustDate(t, "2026-01-14")) {
		t.Error("expected not scheduled on the 14th")
	}
	if !IsScheduled(goal, mustDate(t, "2026-02-15")) {
		t.Error("expected scheduled on Feb 15th")
	}
}

func TestIsScheduled_MonthlyShortMonth(t *testing.T) {
	// Day 31 never matches a 30-day month; the goal skips that month.
	goal := models.Goal{Frequency: models.Frequency{Type: models.FrequencyMonthly, DayOfMonth: 31}}

	if CountScheduledInRange(goal, mustDate(t, "2026-04-01"), mustDate(t, "2026-04-30")) != 0 {
		t.Error("day-31 goal should never be scheduled in April")
	}
	if CountScheduledInRange(goal, mustDate(t, "2026-03-01"), mustDate(t, "2026-03-31")) != 1 {
		t.Error("day-31 goal should be scheduled once in March")
	}
}

func TestIsScheduled_Custom(t *testing.T) {
	goal := models.Goal{
		CreatedAt: mustDate(t, "2026-01-10"),
		Frequency: models.Frequency{Type: models.FrequencyCustom, IntervalDays: 3},
	}

	scheduled := []string{"2026-01-10", "2026-01-13", "2026-01-16", "2026-01-19"}
	for _, s := range scheduled {
		if !IsScheduled(goal, mustDate(t, s)) {
			t.Errorf("expected scheduled on %s", s)
		}
	}
	notScheduled := []string{"2026-01-11", "2026-01-12", "2026-01-14", "2026-01-15"}
	for _, s := range notScheduled {
		if IsScheduled(goal, mustDate(t, s)) {
			t.Errorf("expected not scheduled on %s", s)
		}
	}

	// Before the creation date nothing is due.
	if IsScheduled(goal, mustDate(t, "2026-01-07")) {
		t.Error("expected not scheduled before creation date")
	}
}

func TestIsScheduled_CustomCreatedMidday(t *testing.T) {
	// The creation timestamp's time of day must not shift the anchor date.
	created, _ := time.Parse(time.RFC3339, "2026-01-10T23:45:00Z")
	goal := models.Goal{
		CreatedAt: created,
		Frequency: models.Frequency{Type: models.FrequencyCustom, IntervalDays: 2},
	}

	if !IsScheduled(goal, mustDate(t, "2026-01-10")) {
		t.Error("expected scheduled on the creation date itself")
	}
	if !IsScheduled(goal, mustDate(t, "2026-01-12")) {
		t.Error("expected scheduled two days after creation")
	}
	if IsScheduled(goal, mustDate(t, "2026-01-11")) {
		t.Error("expected not scheduled one day after creation")
	}
}

func TestCountScheduledInRange_WeeklyFullWeeks(t *testing.T) {
	goal := models.Goal{Frequency: models.Frequency{Type: models.FrequencyWeekly, Days: []int{1, 3}}}

	// Any 14-day window covering two full weeks hits both days twice,
	// regardless of which weekday it starts on.
	for offset := 0; offset < 7; offset++ {
		start := mustDate(t, "2026-01-04").AddDate(0, 0, offset)
		end := start.AddDate(0, 0, 13)
		if got := CountScheduledInRange(goal, start, end); got != 4 {
			t.Errorf("offset %d: got %d scheduled days, want 4", offset, got)
		}
	}
}

func TestCountScheduledInRange_ReversedRange(t *testing.T) {
	goal := models.Goal{Frequency: models.Frequency{Type: models.FrequencyDaily}}
	if got := CountScheduledInRange(goal, mustDate(t, "2026-01-10"), mustDate(t, "2026-01-05")); got != 0 {
		t.Errorf("got %d, want 0 for start > end", got)
	}
}

func TestCountScheduledInRange_DailyInclusive(t *testing.T) {
	goal := models.Goal{Frequency: models.Frequency{Type: models.FrequencyDaily}}
	if got := CountScheduledInRange(goal, mustDate(t, "2026-01-01"), mustDate(t, "2026-01-07")); got != 7 {
		t.Errorf("got %d, want 7 (inclusive scan)", got)
	}
}

func TestSerializeParse_RoundTrip(t *testing.T) {
	cases := []models.Frequency{
		{Type: models.FrequencyDaily},
		{Type: models.FrequencyWeekly, Days: []int{1, 3, 5}},
		{Type: models.FrequencyMonthly, DayOfMonth: 28},
		{Type: models.FrequencyCustom, IntervalDays: 4},
	}

	for _, f := range cases {
		freqType, data, err := Serialize(f)
		if err != nil {
			t.Fatalf("serialize %v: %v", f, err)
		}
		got := Parse(freqType, data)
		if !reflect.DeepEqual(got, f) {
			t.Errorf("round trip %v: got %v", f, got)
		}
	}
}

func TestParse_CorruptDataFallsBackToDaily(t *testing.T) {
	cases := []struct {
		freqType string
		data     string
	}{
		{"weekly", "not json"},
		{"weekly", ""},
		{"monthly", "{"},
		{"custom", ""},
		{"lunar", `{"phase":"full"}`},
		{"", ""},
	}

	for _, c := range cases {
		got := Parse(c.freqType, c.data)
		if got.Type != models.FrequencyDaily {
			t.Errorf("Parse(%q, %q) = %v, want daily fallback", c.freqType, c.data, got)
		}
	}
}
