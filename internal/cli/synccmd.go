package cli

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitgrid/internal/keyring"
	"github.com/julianstephens/habitgrid/internal/remote"
	habsync "github.com/julianstephens/habitgrid/internal/sync"
)

type SyncCmd struct {
	Now    SyncNowCmd    `cmd:"" help:"Run a sync pass immediately." default:"1"`
	Status SyncStatusCmd `cmd:"" help:"Show sync state."`
	Config SyncConfigCmd `cmd:"" help:"Manage the remote connection."`
}

type SyncNowCmd struct{}

func (c *SyncNowCmd) Run(ctx *Context) error {
	status := ctx.Engine.Sync(context.Background())
	switch status {
	case habsync.StatusSuccess:
		fmt.Println("Sync complete.")
	case habsync.StatusNotConfigured:
		fmt.Println("Sync is not configured. Run 'habitgrid sync config set' first.")
	case habsync.StatusOffline:
		fmt.Println("Remote unreachable; changes stay queued locally.")
	case habsync.StatusError:
		return fmt.Errorf("sync failed: %w", ctx.Engine.LastError())
	default:
		fmt.Printf("Sync state: %s\n", status)
	}
	return nil
}

type SyncStatusCmd struct{}

func (c *SyncStatusCmd) Run(ctx *Context) error {
	fmt.Printf("State: %s\n", ctx.Engine.Status())
	if err := ctx.Engine.LastError(); err != nil {
		fmt.Printf("Last error: %v\n", err)
	}

	last, err := ctx.Store.LastSyncAt()
	if err != nil {
		return err
	}
	if last.IsZero() {
		fmt.Println("Last sync: never")
	} else {
		fmt.Printf("Last sync: %s\n", last.Local().Format("2006-01-02 15:04:05"))
	}

	users, err := ctx.Store.DirtyUsers()
	if err != nil {
		return err
	}
	goals, err := ctx.Store.DirtyGoals()
	if err != nil {
		return err
	}
	logs, err := ctx.Store.DirtyLogs()
	if err != nil {
		return err
	}
	fmt.Printf("Pending: %d profiles, %d goals, %d logs\n", len(users), len(goals), len(logs))
	return nil
}

type SyncConfigCmd struct {
	Set   SyncConfigSetCmd   `cmd:"" help:"Store the remote connection string in the OS keyring."`
	Show  SyncConfigShowCmd  `cmd:"" help:"Show whether a remote is configured."`
	Clear SyncConfigClearCmd `cmd:"" help:"Remove the stored connection string."`
}

type SyncConfigSetCmd struct {
	ConnStr string `arg:"" help:"PostgreSQL connection string (URI or DSN)."`
}

func (c *SyncConfigSetCmd) Run(ctx *Context) error {
	if err := remote.ValidateConnString(c.ConnStr); err != nil {
		return err
	}

	// Prove the remote works before persisting anything
	store := remote.NewPostgres(c.ConnStr)
	if err := store.Init(); err != nil {
		return fmt.Errorf("could not reach remote: %w", err)
	}
	defer store.Close()

	if err := keyring.SetConnectionString(c.ConnStr); err != nil {
		return err
	}

	fmt.Println("Remote configured. Restart habitgrid to start syncing.")
	return nil
}

type SyncConfigShowCmd struct{}

func (c *SyncConfigShowCmd) Run(ctx *Context) error {
	// The connection string itself stays in the keyring
	if _, err := keyring.GetConnectionString(); err != nil {
		fmt.Println("No remote configured.")
		return nil
	}
	fmt.Println("Remote configured (connection string held in OS keyring).")
	return nil
}

type SyncConfigClearCmd struct{}

func (c *SyncConfigClearCmd) Run(ctx *Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		return err
	}
	fmt.Println("Remote configuration removed.")
	return nil
}
