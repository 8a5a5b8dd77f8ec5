package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/homes/internal/client/models"
)

// Inquire collects contact details and a message and sends them, either
// about the property given as argument or as a general inquiry. Signed-in
// users get their name and email prefilled.
func (a *App) Inquire(ctx context.Context, args []string) error {
	var in models.Inquiry
	if len(args) > 0 {
		id, err := parseID(args, "inquire [property-id]")
		if err != nil {
			return a.report(err)
		}
		in.PropertyID = &id
	}

	if s := a.sessions.Session(); s.IsAuthenticated() {
		in.Name, in.Email = s.User.Name, s.User.Email
	}

	var err error
	if in.Name == "" {
		if in.Name, err = getSimpleText(a.reader, "Your name", a.out); err != nil {
			return err
		}
	}
	if in.Email == "" {
		if in.Email, err = getSimpleText(a.reader, "Your email", a.out); err != nil {
			return err
		}
	}
	if in.Phone, err = getSimpleText(a.reader, "Phone (optional)", a.out); err != nil {
		return err
	}
	if in.Message, err = getMultiline(a.reader, "Message", a.out); err != nil {
		return err
	}

	conf, err := a.catalog.SubmitInquiry(ctx, in)
	if err != nil {
		return a.report(err)
	}
	printlnFn(fmt.Sprintf("Thank you! Inquiry #%d received.", conf.ID))
	return nil
}
