package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/homes/internal/client/client"
	"github.com/dmitrijs2005/homes/internal/client/services"
)

// errorMessage turns a service error into a line for the user.
func errorMessage(err error) string {
	var verr *services.ValidationError
	var rerr *client.ResponseError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, services.ErrNotAuthenticated):
		return "Please log in first"
	case errors.Is(err, services.ErrForbidden):
		return "Admin access required"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "Request cancelled"
	case errors.As(err, &rerr) && rerr.Status < 500:
		return client.Detail(err)
	case errors.Is(err, client.ErrUnavailable):
		return "Unable to reach the server. Please try again later."
	default:
		return err.Error()
	}
}

// report prints err for the user and returns it unchanged.
func (a *App) report(err error) error {
	printlnFn("Error:", errorMessage(err))
	return err
}
