package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitgrid/internal/constants"
	"github.com/julianstephens/habitgrid/internal/frequency"
	"github.com/julianstephens/habitgrid/internal/models"
	"github.com/julianstephens/habitgrid/internal/storage"
)

type LogCmd struct {
	Mark  LogMarkCmd  `cmd:"" help:"Record a goal's outcome for a day."`
	Today LogTodayCmd `cmd:"" help:"Show today's scheduled goals and their status."`
}

type LogMarkCmd struct {
	User string `arg:"" help:"Profile name."`
	Goal string `arg:"" help:"Goal title."`

	Status string  `help:"Outcome: completed, skipped, or failed." enum:"completed,skipped,failed" default:"completed"`
	Date   string  `help:"Date in YYYY-MM-DD format (default: today)." default:""`
	Value  float64 `help:"Measured value for number goals." default:"0"`
}

func (c *LogMarkCmd) Run(ctx *Context) error {
	user, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	goal, err := ctx.ResolveGoal(user.ID, c.Goal)
	if err != nil {
		return err
	}

	date := c.Date
	if date == "" {
		date = time.Now().Format(constants.DateFormat)
	} else if _, err := time.Parse(constants.DateFormat, date); err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}

	log := models.HabitLog{
		ID:        uuid.New().String(),
		GoalID:    goal.ID,
		Date:      date,
		Status:    models.LogStatus(c.Status),
		CreatedAt: time.Now(),
	}
	if goal.Kind == models.GoalNumber && c.Value > 0 {
		log.Value = &c.Value
	}

	if err := ctx.Store.SaveLog(log); err != nil {
		return err
	}
	ctx.NotifyWrite()

	fmt.Printf("Marked %q %s for %s\n", goal.Title, c.Status, date)
	return nil
}

type LogTodayCmd struct {
	User string `arg:"" help:"Profile name."`
}

func (c *LogTodayCmd) Run(ctx *Context) error {
	user, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}
	goals, err := ctx.Store.GoalsByUser(user.ID)
	if err != nil {
		return err
	}

	now := time.Now()
	today := frequency.DateOnly(now)
	date := now.Format(constants.DateFormat)

	shown := 0
	for _, g := range goals {
		if !frequency.IsScheduled(g, today) {
			continue
		}
		shown++

		log, err := ctx.Store.LogForDate(g.ID, date)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			fmt.Printf("[ ] %s\n", g.Title)
		case err != nil:
			return err
		case log.Status == models.StatusCompleted:
			fmt.Printf("[x] %s\n", g.Title)
		case log.Status == models.StatusSkipped:
			fmt.Printf("[-] %s (skipped)\n", g.Title)
		default:
			fmt.Printf("[!] %s (failed)\n", g.Title)
		}
	}

	if shown == 0 {
		fmt.Println("Nothing scheduled today.")
	}
	return nil
}
