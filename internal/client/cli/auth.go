package cli

import (
	"context"
	"fmt"

	"github.com/seqassist/seqassist/internal/client/models"
	"github.com/seqassist/seqassist/internal/shared"
)

// Login prompts for email and password and starts a session.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(password)

	user, err := a.authService.Login(ctx, models.LoginRequest{
		Email:    email,
		Password: string(password),
	})
	if err != nil {
		return fmt.Errorf("login unsuccessful: %w", err)
	}

	a.userName = user.Username
	fmt.Fprintf(a.out, "Logged in as %s\n", user.Username)
	return nil
}

// Register prompts for account details and creates the account. The backend
// logs the new user straight in.
func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Choose a username", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(password)

	user, err := a.authService.Register(ctx, models.RegisterRequest{
		Username: username,
		Email:    email,
		Password: string(password),
	})
	if err != nil {
		return fmt.Errorf("registration unsuccessful: %w", err)
	}

	a.userName = user.Username
	fmt.Fprintf(a.out, "Welcome, %s\n", user.Username)
	return nil
}

// Logout clears the local session.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// WhoAmI prints the cached profile of the signed-in user.
func (a *App) WhoAmI(ctx context.Context) error {
	user, err := a.authService.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s>", user.Username, user.Email)
	if user.SubscriptionTier != "" {
		fmt.Fprintf(a.out, " [%s]", user.SubscriptionTier)
	}
	fmt.Fprintln(a.out)
	return nil
}
