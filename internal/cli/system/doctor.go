package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/habitgrid/internal/cli"
	"github.com/julianstephens/habitgrid/internal/constants"
	"github.com/julianstephens/habitgrid/internal/keyring"
	"github.com/julianstephens/habitgrid/internal/remote"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false

	// Check 1: local database reachable
	dbReachable := true
	if err := checkDatabase(ctx); err != nil {
		fmt.Printf("❌ Local database: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		fmt.Printf("✓ Local database: OK\n")
	}

	// Check 2: pending sync backlog (warning only)
	if dbReachable {
		if n, err := pendingChanges(ctx); err != nil {
			fmt.Printf("❌ Sync backlog: FAIL\n")
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		} else if n > 0 {
			fmt.Printf("⚠ Sync backlog: %d unpushed change(s)\n", n)
		} else {
			fmt.Printf("✓ Sync backlog: none\n")
		}
	} else {
		fmt.Printf("⊘ Sync backlog: SKIPPED (database not reachable)\n")
	}

	// Check 3: OS keyring
	if keyring.IsAvailable() {
		fmt.Printf("✓ OS keyring: OK\n")
	} else {
		fmt.Printf("⚠ OS keyring: unavailable (sync config falls back to HABITGRID_REMOTE_DSN)\n")
	}

	// Check 4: remote reachable, when configured
	if err := checkRemote(ctx); err != nil {
		fmt.Printf("⚠ Remote database: %v\n", err)
	} else {
		fmt.Printf("✓ Remote database: OK\n")
	}

	// Check 5: duplicate instances sharing the SQLite file
	if n, err := countRunningInstances(); err != nil {
		fmt.Printf("⚠ Process check: could not enumerate processes (%v)\n", err)
	} else if n > 1 {
		fmt.Printf("⚠ Process check: %d habitgrid processes running; concurrent writes to the same database can conflict\n", n)
	} else {
		fmt.Printf("✓ Process check: OK\n")
	}

	// Check 6: clock sanity
	if err := checkClock(); err != nil {
		fmt.Printf("❌ Clock/timezone: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Clock/timezone: OK\n")
	}

	fmt.Println()
	if hasError {
		return fmt.Errorf("diagnostics found problems")
	}
	fmt.Println("All checks passed.")
	return nil
}

func checkDatabase(ctx *cli.Context) error {
	if _, err := os.Stat(ctx.Store.Path()); err != nil {
		return fmt.Errorf("database file missing: %w", err)
	}
	_, err := ctx.Store.Users()
	return err
}

func pendingChanges(ctx *cli.Context) (int, error) {
	users, err := ctx.Store.DirtyUsers()
	if err != nil {
		return 0, err
	}
	goals, err := ctx.Store.DirtyGoals()
	if err != nil {
		return 0, err
	}
	logs, err := ctx.Store.DirtyLogs()
	if err != nil {
		return 0, err
	}
	return len(users) + len(goals) + len(logs), nil
}

func checkRemote(ctx *cli.Context) error {
	connStr, err := ctx.Config.ResolveRemoteDSN()
	if err != nil {
		return fmt.Errorf("could not resolve connection string: %v", err)
	}
	if connStr == "" {
		return fmt.Errorf("not configured")
	}

	store := remote.NewPostgres(connStr)
	if err := store.Init(); err != nil {
		return fmt.Errorf("unreachable: %v", err)
	}
	defer store.Close()
	return store.Ping(context.Background())
}

func countRunningInstances() (int, error) {
	procs, err := ps.Processes()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, p := range procs {
		name := p.Executable()
		name = strings.TrimSuffix(name, filepath.Ext(name))
		if name == constants.AppName {
			count++
		}
	}
	return count, nil
}

func checkClock() error {
	now := time.Now()
	if now.Year() < 2020 {
		return fmt.Errorf("system clock reads %v; sync timestamps would be wrong", now)
	}
	return nil
}
