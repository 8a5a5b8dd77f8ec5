package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/dmitrijs2005/homes/internal/client/cache"
	"github.com/dmitrijs2005/homes/internal/client/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	offerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

func formatPrice(p float64) string {
	return "₹" + humanize.Commaf(p)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func renderProperties(w io.Writer, items []models.Property) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No properties found")
		return
	}
	t := newTable("ID", "Title", "Type", "Status", "Price", "Beds", "City")
	for _, p := range items {
		title := p.Title
		if p.IsFeatured {
			title += " *"
		}
		t.Row(
			strconv.FormatInt(p.ID, 10),
			title,
			string(p.PropertyType),
			string(p.Status),
			formatPrice(p.Price),
			strconv.Itoa(p.Bedrooms),
			p.City,
		)
	}
	fmt.Fprintln(w, t.Render())
}

func renderProperty(w io.Writer, p models.Property) {
	fmt.Fprintln(w, titleStyle.Render(p.Title))
	fmt.Fprintf(w, "%s · %s · %s\n", p.PropertyType, p.Status, formatPrice(p.Price))
	if loc := p.Location(); loc != "" {
		fmt.Fprintln(w, loc)
	}
	fmt.Fprintf(w, "%d bed · %d bath · %s sq ft", p.Bedrooms, p.Bathrooms, humanize.Commaf(p.Area))
	var extras []string
	if p.Parking {
		extras = append(extras, "parking")
	}
	if p.Furnished {
		extras = append(extras, "furnished")
	}
	if len(extras) > 0 {
		fmt.Fprintf(w, " · %s", strings.Join(extras, ", "))
	}
	fmt.Fprintln(w)
	if p.IsSpecialOffer && p.OfferText != nil {
		fmt.Fprintln(w, offerStyle.Render("Offer: "+*p.OfferText))
	}
	if p.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, p.Description)
	}
	images := p.SortedImages()
	if len(images) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Images (%d):\n", len(images))
		for _, img := range images {
			line := "  " + img.URL
			if img.Caption != nil && *img.Caption != "" {
				line += " (" + *img.Caption + ")"
			}
			fmt.Fprintln(w, line)
		}
	}
	if p.GmapURL != nil && *p.GmapURL != "" {
		fmt.Fprintln(w, "Map: "+*p.GmapURL)
	}
	if p.DirectionsURL != nil && *p.DirectionsURL != "" {
		fmt.Fprintln(w, "Directions: "+*p.DirectionsURL)
	}
	fmt.Fprintf(w, "slug: %s · id: %d\n", p.Slug, p.ID)
}

func renderInquiries(w io.Writer, items []models.InquiryRecord) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No inquiries")
		return
	}
	t := newTable("ID", "", "Name", "Email", "Property", "Received")
	for _, in := range items {
		mark := "new"
		if in.IsRead {
			mark = ""
		}
		prop := "-"
		if in.PropertyID != nil {
			prop = strconv.FormatInt(*in.PropertyID, 10)
		}
		t.Row(
			strconv.FormatInt(in.ID, 10),
			mark,
			in.Name,
			in.Email,
			prop,
			humanize.Time(in.CreatedAt),
		)
	}
	fmt.Fprintln(w, t.Render())
}

// renderStaleNotice tells the user the shown data may be outdated.
func renderStaleNotice[T any](w io.Writer, r cache.Result[T]) {
	if !r.Stale() {
		return
	}
	msg := "Showing cached data"
	if !r.FetchedAt.IsZero() {
		msg += " from " + humanize.Time(r.FetchedAt)
	}
	if r.Err != nil {
		msg += ": " + errorMessage(r.Err)
	}
	fmt.Fprintln(w, warnStyle.Render(msg))
}
