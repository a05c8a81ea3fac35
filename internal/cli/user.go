package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/julianstephens/habitgrid/internal/auth"
	"github.com/julianstephens/habitgrid/internal/models"
)

type UserCmd struct {
	Add    UserAddCmd    `cmd:"" help:"Add a new profile."`
	List   UserListCmd   `cmd:"" help:"List profiles."`
	Delete UserDeleteCmd `cmd:"" help:"Delete a profile and its goals."`
	Verify UserVerifyCmd `cmd:"" help:"Check a profile's PIN."`
}

type UserAddCmd struct {
	Name  string `arg:"" help:"Profile name."`
	Photo string `help:"Avatar image path or emoji." default:""`
	Pin   bool   `help:"Protect the profile with a PIN."`
}

func (c *UserAddCmd) Run(ctx *Context) error {
	users, err := ctx.Store.Users()
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Name == c.Name {
			return fmt.Errorf("profile %q already exists", c.Name)
		}
	}

	user := models.User{
		ID:        uuid.New().String(),
		Name:      c.Name,
		Photo:     c.Photo,
		CreatedAt: time.Now(),
	}

	if c.Pin {
		pin, err := promptPin("Choose a PIN for " + c.Name)
		if err != nil {
			return err
		}
		user.PinHash = auth.HashPin(pin)
	}

	if err := ctx.Store.SaveUser(user); err != nil {
		return err
	}
	ctx.NotifyWrite()

	fmt.Printf("Added profile: %s\n", c.Name)
	return nil
}

type UserListCmd struct{}

func (c *UserListCmd) Run(ctx *Context) error {
	users, err := ctx.Store.Users()
	if err != nil {
		return err
	}

	if len(users) == 0 {
		fmt.Println("No profiles found.")
		return nil
	}

	for _, u := range users {
		locked := ""
		if u.PinHash != "" {
			locked = " [PIN]"
		}
		goals, err := ctx.Store.GoalsByUser(u.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%s%s (%d goals)\n", u.Name, locked, len(goals))
	}
	return nil
}

type UserDeleteCmd struct {
	Name string `arg:"" help:"Profile name."`
}

func (c *UserDeleteCmd) Run(ctx *Context) error {
	user, err := ctx.ResolveUser(c.Name)
	if err != nil {
		return err
	}

	if user.PinHash != "" {
		pin, err := promptPin("Enter PIN for " + user.Name)
		if err != nil {
			return err
		}
		if !auth.VerifyPin(pin, user.PinHash) {
			return fmt.Errorf("incorrect PIN")
		}
	}

	if err := ctx.Store.DeleteUser(user.ID); err != nil {
		return err
	}
	ctx.NotifyWrite()

	fmt.Printf("Deleted profile: %s\n", user.Name)
	return nil
}

type UserVerifyCmd struct {
	Name string `arg:"" help:"Profile name."`
}

func (c *UserVerifyCmd) Run(ctx *Context) error {
	user, err := ctx.ResolveUser(c.Name)
	if err != nil {
		return err
	}
	if user.PinHash == "" {
		fmt.Printf("%s has no PIN set.\n", user.Name)
		return nil
	}

	pin, err := promptPin("Enter PIN for " + user.Name)
	if err != nil {
		return err
	}
	if !auth.VerifyPin(pin, user.PinHash) {
		return fmt.Errorf("incorrect PIN")
	}

	fmt.Println("PIN OK.")
	return nil
}

func promptPin(title string) (string, error) {
	var pin string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if len(s) < 4 {
						return fmt.Errorf("PIN must be at least 4 digits")
					}
					return nil
				}).
				Value(&pin),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return pin, nil
}
