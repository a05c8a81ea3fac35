package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitgrid/internal/analytics"
	"github.com/julianstephens/habitgrid/internal/cli"
	"github.com/julianstephens/habitgrid/internal/cli/system"
	"github.com/julianstephens/habitgrid/internal/config"
	"github.com/julianstephens/habitgrid/internal/logger"
	"github.com/julianstephens/habitgrid/internal/remote"
	"github.com/julianstephens/habitgrid/internal/storage"
	habsync "github.com/julianstephens/habitgrid/internal/sync"
)

var CLI struct {
	Version kong.VersionFlag

	Init      system.InitCmd    `cmd:"" help:"Initialize habitgrid storage."`
	Migrate   system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor    system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Dashboard system.TuiCmd     `cmd:"" help:"Launch the interactive dashboard." default:"1"`

	User        cli.UserCmd        `cmd:"" help:"Manage profiles."`
	Goal        cli.GoalCmd        `cmd:"" help:"Manage goals."`
	Log         cli.LogCmd         `cmd:"" help:"Record habit outcomes."`
	Stats       cli.StatsCmd       `cmd:"" help:"Show a profile's analytics."`
	Streak      cli.StreakCmd      `cmd:"" help:"Show a profile's streak."`
	Leaderboard cli.LeaderboardCmd `cmd:"" help:"Rank profiles by 30-day completion."`
	Sync        cli.SyncCmd        `cmd:"" help:"Sync with the remote database."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("habitgrid"),
		kong.Description("Multi-profile habit tracker with a tiled dashboard and offline-first sync"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": "v0.1.0"},
	)

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: cfg.DataDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	store := storage.NewStore(cfg.DatabasePath())

	// A missing or unreachable remote never blocks local commands; the sync
	// engine reports not_configured or offline instead.
	var rem remote.Store
	if dsn, err := cfg.ResolveRemoteDSN(); err != nil {
		logger.Warn("could not resolve remote connection string", "error", err)
	} else if dsn != "" {
		pg := remote.NewPostgres(dsn)
		if err := pg.Init(); err != nil {
			logger.Warn("remote database unavailable", "error", err)
		} else {
			rem = pg
		}
	}

	engine := habsync.New(store, rem)
	scheduler := habsync.NewScheduler(engine)
	defer scheduler.Stop()

	appCtx := &cli.Context{
		Store:     store,
		Config:    cfg,
		Analytics: analytics.New(store),
		Engine:    engine,
		Scheduler: scheduler,
	}

	if ctx.Selected() != nil && ctx.Selected().Name != "init" {
		if err := store.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
