package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/homes/internal/client/models"
)

// form reads optional property fields. Empty answers leave the field nil
// so updates only send what was typed. The first parse error sticks.
type form struct {
	a   *App
	err error
}

func (f *form) text(prompt string) *string {
	if f.err != nil {
		return nil
	}
	s, err := getSimpleText(f.a.reader, prompt, f.a.out)
	if err != nil {
		f.err = err
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}

func (f *form) number(prompt string) *float64 {
	s := f.text(prompt)
	if s == nil {
		return nil
	}
	v, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		f.err = fmt.Errorf("%s: %q is not a number", prompt, *s)
		return nil
	}
	return &v
}

func (f *form) count(prompt string) *int {
	s := f.text(prompt)
	if s == nil {
		return nil
	}
	v, err := strconv.Atoi(*s)
	if err != nil {
		f.err = fmt.Errorf("%s: %q is not a whole number", prompt, *s)
		return nil
	}
	return &v
}

func (f *form) yesNo(prompt string) *bool {
	s := f.text(prompt + " (y/n)")
	if s == nil {
		return nil
	}
	switch strings.ToLower(*s) {
	case "y", "yes":
		v := true
		return &v
	case "n", "no":
		v := false
		return &v
	}
	f.err = fmt.Errorf("%s: answer y or n", prompt)
	return nil
}

func (f *form) propertyType(prompt string) *models.PropertyType {
	s := f.text(prompt + " (BUY/SELL/RENT)")
	if s == nil {
		return nil
	}
	t, err := models.ParsePropertyType(*s)
	if err != nil {
		f.err = err
		return nil
	}
	return &t
}

func (f *form) status(prompt string) *models.PropertyStatus {
	s := f.text(prompt + " (AVAILABLE/SOLD/RENTED/PENDING)")
	if s == nil {
		return nil
	}
	st := models.PropertyStatus(strings.ToUpper(*s))
	if !st.Valid() {
		f.err = fmt.Errorf("unknown status %q", *s)
		return nil
	}
	return &st
}

func (a *App) readPropertyInput(hint string) (models.PropertyInput, error) {
	printlnFn(hint)
	f := &form{a: a}
	in := models.PropertyInput{
		Title:        f.text("Title"),
		Description:  f.text("Description"),
		PropertyType: f.propertyType("Type"),
		Status:       f.status("Status"),
		Price:        f.number("Price"),
		Address:      f.text("Address"),
		City:         f.text("City"),
		State:        f.text("State"),
		ZipCode:      f.text("Zip code"),
		Bedrooms:     f.count("Bedrooms"),
		Bathrooms:    f.count("Bathrooms"),
		Area:         f.number("Area (sq ft)"),
		Parking:      f.yesNo("Parking"),
		Furnished:    f.yesNo("Furnished"),
		IsFeatured:   f.yesNo("Featured"),
	}
	in.IsSpecialOffer = f.yesNo("Special offer")
	if in.IsSpecialOffer != nil && *in.IsSpecialOffer {
		in.OfferText = f.text("Offer text")
	}
	return in, f.err
}

// CreateProperty prompts for a new listing and creates it.
func (a *App) CreateProperty(ctx context.Context) error {
	in, err := a.readPropertyInput("New property (title, type, price and city are required)")
	if err != nil {
		return a.report(err)
	}
	p, err := a.catalog.CreateProperty(ctx, in)
	if err != nil {
		return a.report(err)
	}
	printlnFn(fmt.Sprintf("Created property #%d (%s)", p.ID, p.Slug))
	return nil
}

// UpdateProperty prompts for changed fields of an existing listing.
func (a *App) UpdateProperty(ctx context.Context, args []string) error {
	id, err := parseID(args, "update <id>")
	if err != nil {
		return a.report(err)
	}
	in, err := a.readPropertyInput("Leave a field empty to keep its value")
	if err != nil {
		return a.report(err)
	}
	p, err := a.catalog.UpdateProperty(ctx, id, in)
	if err != nil {
		return a.report(err)
	}
	printlnFn(fmt.Sprintf("Updated property #%d", p.ID))
	return nil
}

// DeleteProperty removes a listing after confirmation.
func (a *App) DeleteProperty(ctx context.Context, args []string) error {
	id, err := parseID(args, "delete <id>")
	if err != nil {
		return a.report(err)
	}
	answer, err := getSimpleText(a.reader, fmt.Sprintf("Delete property #%d? (y/n)", id), a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		printlnFn("Cancelled")
		return nil
	}
	if err := a.catalog.DeleteProperty(ctx, id); err != nil {
		return a.report(err)
	}
	printlnFn(fmt.Sprintf("Deleted property #%d", id))
	return nil
}

// ListInquiries prints a page of received inquiries.
func (a *App) ListInquiries(ctx context.Context, args []string) error {
	skip, limit := 0, 50
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return a.report(fmt.Errorf("invalid skip %q", args[0]))
		}
		skip = n
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return a.report(fmt.Errorf("invalid limit %q", args[1]))
		}
		limit = n
	}

	res, err := a.catalog.Inquiries(ctx, skip, limit)
	if !usable(res, err) {
		return a.report(err)
	}
	renderStaleNotice(a.out, res)
	renderInquiries(a.out, res.Data)
	return nil
}

// MarkInquiryRead flags one inquiry as read.
func (a *App) MarkInquiryRead(ctx context.Context, args []string) error {
	id, err := parseID(args, "read <id>")
	if err != nil {
		return a.report(err)
	}
	if err := a.catalog.MarkInquiryRead(ctx, id); err != nil {
		return a.report(err)
	}
	printlnFn(fmt.Sprintf("Inquiry #%d marked as read", id))
	return nil
}
