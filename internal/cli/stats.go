package cli

import (
	"fmt"
)

type StatsCmd struct {
	User string `arg:"" help:"Profile name."`
}

func (c *StatsCmd) Run(ctx *Context) error {
	user, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}

	report, err := ctx.Analytics.Personal(user.ID)
	if err != nil {
		return err
	}

	fmt.Printf("Stats for %s\n\n", user.Name)
	fmt.Printf("  7-day completion:  %5.1f%%\n", report.OverallRate7d*100)
	fmt.Printf("  30-day completion: %5.1f%%\n", report.OverallRate30d*100)
	fmt.Printf("  Streak:            %d days (longest %d)\n", report.Streak.Current, report.Streak.Longest)
	fmt.Printf("  Logged:            %d completed, %d skipped, %d failed\n\n",
		report.TotalCompleted, report.TotalSkipped, report.TotalFailed)

	for _, g := range report.Goals {
		fmt.Printf("  %-24s %5.1f%% (7d)  %5.1f%% (30d)  %d/%d days\n",
			g.Goal.Title, g.CompletionRate7d*100, g.CompletionRate30d*100,
			g.CompletedCount, g.ScheduledCount)
	}
	return nil
}

type StreakCmd struct {
	User string `arg:"" help:"Profile name."`
}

func (c *StreakCmd) Run(ctx *Context) error {
	user, err := ctx.ResolveUser(c.User)
	if err != nil {
		return err
	}

	streak, err := ctx.Analytics.Streak(user.ID)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d-day streak (longest %d)\n", user.Name, streak.Current, streak.Longest)
	return nil
}

type LeaderboardCmd struct{}

func (c *LeaderboardCmd) Run(ctx *Context) error {
	entries, err := ctx.Analytics.Leaderboard()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No profiles found.")
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%2d. %-16s %5.1f%%  (%d goals)\n",
			e.Rank, e.User.Name, e.Score*100, e.GoalCount)
	}
	return nil
}
