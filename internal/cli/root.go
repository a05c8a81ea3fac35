package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/habitgrid/internal/analytics"
	"github.com/julianstephens/habitgrid/internal/config"
	"github.com/julianstephens/habitgrid/internal/models"
	"github.com/julianstephens/habitgrid/internal/storage"
	habsync "github.com/julianstephens/habitgrid/internal/sync"
)

type Context struct {
	Store     *storage.Store
	Config    *config.Config
	Analytics *analytics.Engine
	Engine    *habsync.Engine
	Scheduler *habsync.Scheduler
}

// NotifyWrite tells the sync scheduler a local mutation happened.
func (c *Context) NotifyWrite() {
	if c.Scheduler != nil {
		c.Scheduler.ScheduleAfterWrite()
	}
}

// ResolveUser looks a profile up by name first, then by id.
func (c *Context) ResolveUser(nameOrID string) (models.User, error) {
	users, err := c.Store.Users()
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Name, nameOrID) {
			return u, nil
		}
	}
	for _, u := range users {
		if u.ID == nameOrID {
			return u, nil
		}
	}
	return models.User{}, fmt.Errorf("no profile named %q", nameOrID)
}

// ResolveGoal looks a goal up by title first, then by id, within one profile.
func (c *Context) ResolveGoal(userID, titleOrID string) (models.Goal, error) {
	goals, err := c.Store.GoalsByUser(userID)
	if err != nil {
		return models.Goal{}, err
	}
	for _, g := range goals {
		if strings.EqualFold(g.Title, titleOrID) {
			return g, nil
		}
	}
	for _, g := range goals {
		if g.ID == titleOrID {
			return g, nil
		}
	}
	return models.Goal{}, fmt.Errorf("no goal named %q", titleOrID)
}

// ParseWeekdays parses a comma-separated list of weekdays into 0=Sunday
// through 6=Saturday.
func ParseWeekdays(s string) ([]int, error) {
	dayMap := map[string]int{
		"sun": 0, "sunday": 0,
		"mon": 1, "monday": 1,
		"tue": 2, "tuesday": 2,
		"wed": 3, "wednesday": 3,
		"thu": 4, "thursday": 4,
		"fri": 5, "friday": 5,
		"sat": 6, "saturday": 6,
	}

	var days []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if d, ok := dayMap[part]; ok {
			days = append(days, d)
			continue
		}
		num, err := strconv.Atoi(part)
		if err != nil || num < 0 || num > 6 {
			return nil, fmt.Errorf("invalid weekday: %s", part)
		}
		days = append(days, num)
	}
	return days, nil
}

// FormatFrequency renders a schedule as a human-readable string.
func FormatFrequency(f models.Frequency) string {
	switch f.Type {
	case models.FrequencyDaily:
		return "daily"
	case models.FrequencyWeekly:
		if len(f.Days) > 0 {
			names := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
			var days []string
			for _, d := range f.Days {
				if d >= 0 && d < 7 {
					days = append(days, names[d])
				}
			}
			return "weekly on " + strings.Join(days, ",")
		}
		return "weekly"
	case models.FrequencyMonthly:
		return fmt.Sprintf("monthly on day %d", f.DayOfMonth)
	case models.FrequencyCustom:
		return fmt.Sprintf("every %d days", f.IntervalDays)
	default:
		return "unknown"
	}
}
