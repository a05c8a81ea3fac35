package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitgrid/internal/frequency"
	"github.com/julianstephens/habitgrid/internal/models"
)

type GoalCmd struct {
	Add    GoalAddCmd    `cmd:"" help:"Add a new goal."`
	List   GoalListCmd   `cmd:"" help:"List a profile's goals."`
	Delete GoalDeleteCmd `cmd:"" help:"Delete a goal and its logs."`
}

type GoalAddCmd struct {
	User  string `arg:"" help:"Profile name."`
	Title string `arg:"" help:"Goal title."`

	Color  string  `help:"Tile color (hex)." default:"#4A90D9"`
	Kind   string  `help:"Goal kind: checkbox or number." enum:"checkbox,number" default:"checkbox"`
	Target float64 `help:"Target value for number goals." default:"0"`
	Unit   string  `help:"Unit label for number goals." default:""`

	Frequency  string `help:"Schedule: daily, weekly, monthly, or custom." enum:"daily,weekly,monthly,custom" default:"daily"`
	Days       string `help:"Weekdays for weekly goals (e.g. mon,wed,fri)." default:""`
	DayOfMonth int    `help:"Day of month for monthly goals." default:"1"`
	Interval   int    `help:"Interval in days for custom goals." default:"2"`
}

func (c *GoalAddCmd) Run(ctx *Context) error {
	user, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}

	freq := models.Frequency{Type: models.FrequencyType(c.Frequency)}
	switch freq.Type {
	case models.FrequencyWeekly:
		if c.Days == "" {
			return fmt.Errorf("weekly goals need --days")
		}
		days, err := ParseWeekdays(c.Days)
		if err != nil {
			return err
		}
		freq.Days = days
	case models.FrequencyMonthly:
		if c.DayOfMonth < 1 || c.DayOfMonth > 31 {
			return fmt.Errorf("day of month must be 1-31")
		}
		freq.DayOfMonth = c.DayOfMonth
	case models.FrequencyCustom:
		if c.Interval < 1 {
			return fmt.Errorf("interval must be at least 1 day")
		}
		freq.IntervalDays = c.Interval
	}

	goal := models.Goal{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Title:     c.Title,
		Color:     c.Color,
		Kind:      models.GoalKind(c.Kind),
		Unit:      c.Unit,
		Frequency: freq,
		CreatedAt: time.Now(),
	}
	if goal.Kind == models.GoalNumber && c.Target > 0 {
		goal.TargetValue = &c.Target
	}

	if err := ctx.Store.SaveGoal(goal); err != nil {
		return err
	}
	ctx.NotifyWrite()

	fmt.Printf("Added goal %q for %s (%s)\n", c.Title, user.Name, FormatFrequency(freq))
	return nil
}

type GoalListCmd struct {
	User string `arg:"" help:"Profile name."`
}

func (c *GoalListCmd) Run(ctx *Context) error {
	user, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}

	goals, err := ctx.Store.GoalsByUser(user.ID)
	if err != nil {
		return err
	}
	if len(goals) == 0 {
		fmt.Println("No goals found.")
		return nil
	}

	today := frequency.DateOnly(time.Now())
	for _, g := range goals {
		marker := " "
		if frequency.IsScheduled(g, today) {
			marker = "*"
		}
		fmt.Printf("%s %-24s %s\n", marker, g.Title, FormatFrequency(g.Frequency))
	}
	fmt.Println("\n* scheduled today")
	return nil
}

type GoalDeleteCmd struct {
	User  string `arg:"" help:"Profile name."`
	Title string `arg:"" help:"Goal title."`
}

func (c *GoalDeleteCmd) Run(ctx *Context) error {
	user, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	goal, err := ctx.ResolveGoal(user.ID, c.Title)
	if err != nil {
		return err
	}

	if err := ctx.Store.DeleteGoal(goal.ID); err != nil {
		return err
	}
	ctx.NotifyWrite()

	fmt.Printf("Deleted goal: %s\n", goal.Title)
	return nil
}
