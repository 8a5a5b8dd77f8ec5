package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/homes/internal/client/models"
	"github.com/dmitrijs2005/homes/internal/client/services"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getMultiline = GetMultiline

// Register prompts for name, email and password (twice), creates the
// account and signs in with it.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	confirm, err := getPassword("Confirm password", a.out)
	if err != nil {
		return err
	}

	res := a.sessions.RegisterAndLogin(ctx, models.Registration{
		Name:            name,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
	})
	return a.authOutcome(ctx, res)
}

// Login prompts for credentials and signs in. A failed attempt leaves any
// existing session untouched.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	return a.authOutcome(ctx, a.sessions.Login(ctx, email, password))
}

func (a *App) authOutcome(ctx context.Context, res services.AuthResult) error {
	if !res.Success {
		printlnFn("Error:", res.Message)
		a.log.Debug(ctx, "auth failed", "kind", res.Kind)
		if res.Err != nil {
			return res.Err
		}
		return errors.New(res.Message)
	}
	if u := res.Session.User; u != nil {
		printlnFn(fmt.Sprintf("Signed in as %s (%s)", u.Email, u.Role))
	}
	return nil
}

// Logout signs out. The session is dropped even if the local database
// could not be cleared.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		printlnFn("Not signed in")
		return nil
	}
	if err := a.sessions.Logout(ctx); err != nil {
		printlnFn("Signed out, but the saved session could not be removed:", err)
		return err
	}
	printlnFn("Signed out")
	return nil
}

// WhoAmI prints the current identity.
func (a *App) WhoAmI(_ context.Context) error {
	s := a.sessions.Session()
	if !s.IsAuthenticated() {
		printlnFn("Anonymous")
		return nil
	}
	printlnFn(fmt.Sprintf("%s <%s> role=%s id=%d", s.User.Name, s.User.Email, s.User.Role, s.User.ID))
	return nil
}
