// ABOUTME: Authentication CLI commands
// ABOUTME: Login, register, confirm, logout and whoami through the session store
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/ancora/app"
	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/session"
)

// LoginCommand signs in with an email and a prompted password.
func LoginCommand(a *app.App, args []string) error {
	fs := newFlagSet("auth login")
	email := fs.String("email", "", "Email address (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	password, err := newPrompter().secret("Password")
	if err != nil {
		return err
	}

	if err := a.Session.SignIn(context.Background(), *email, password); err != nil {
		return fmt.Errorf("sign in failed: %w", err)
	}

	user := a.Session.Snapshot().User
	if user == nil {
		printf("✓ Signed in as %s (profile not found)\n", *email)
		return nil
	}
	printf("✓ Signed in as %s\n", user.DisplayName())
	return nil
}

// RegisterCommand creates an account. The password is prompted twice.
func RegisterCommand(a *app.App, args []string) error {
	fs := newFlagSet("auth register")
	email := fs.String("email", "", "Email address (required)")
	name := fs.String("name", "", "Full name (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p := newPrompter()
	password, err := p.secret("Password")
	if err != nil {
		return err
	}
	confirm, err := p.secret("Confirm password")
	if err != nil {
		return err
	}

	if err := models.ValidateRegistration(*email, password, confirm, *name); err != nil {
		return err
	}

	outcome, err := a.Session.SignUp(context.Background(), *email, password, *name)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	switch outcome {
	case session.SignUpPendingConfirmation:
		printf("✓ Account created. Check %s to confirm it, then run 'ancora auth login'.\n", *email)
	default:
		printf("✓ Account created and signed in as %s\n", *name)
	}
	return nil
}

// ConfirmCommand marks a pending account as confirmed. Only the local
// backend has no mail flow, so the operator confirms from here.
func ConfirmCommand(a *app.App, args []string) error {
	fs := newFlagSet("auth confirm")
	email := fs.String("email", "", "Email address to confirm")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" && fs.NArg() > 0 {
		*email = fs.Arg(0)
	}
	if *email == "" {
		return fmt.Errorf("usage: ancora auth confirm <email>")
	}
	if a.Local == nil {
		return fmt.Errorf("auth confirm is only available with the local backend")
	}

	if err := a.Local.ConfirmEmail(context.Background(), *email); err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	printf("✓ Confirmed %s. Run 'ancora auth login' to sign in.\n", *email)
	return nil
}

// LogoutCommand ends the session. The local user is cleared even when the
// backend call fails.
func LogoutCommand(a *app.App, args []string) error {
	fs := newFlagSet("auth logout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a.Session.SignOut(context.Background())
	printf("✓ Signed out\n")
	return nil
}

// WhoamiCommand prints the signed-in profile.
func WhoamiCommand(a *app.App, args []string) error {
	fs := newFlagSet("auth whoami")
	syncKV := fs.Bool("sync", false, "Sync the stored session with the charm server first")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *syncKV {
		n, err := a.SyncState()
		if err != nil {
			return err
		}
		if a.Config.CharmHost != "" {
			printf("✓ Synced %d keys with %s\n", n, a.Config.CharmHost)
		} else {
			printf("No charm host configured; %d keys stored locally\n", n)
		}
	}

	user, err := requireUser(a)
	if errors.Is(err, ErrNotSignedIn) {
		printf("Not signed in\n")
		return nil
	}

	printf("%s <%s>\n", user.DisplayName(), user.Email)
	printf("  Role: %s\n", models.OptionLabel(models.Roles, user.Role))
	printf("  ID:   %s\n", user.ID)
	return nil
}
