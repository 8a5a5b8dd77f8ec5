package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// PropertyType classifies a listing.
type PropertyType string

const (
	PropertyTypeBuy  PropertyType = "BUY"
	PropertyTypeSell PropertyType = "SELL"
	PropertyTypeRent PropertyType = "RENT"
)

// ParsePropertyType accepts the enum value in any letter case.
func ParsePropertyType(s string) (PropertyType, error) {
	t := PropertyType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown property type %q", s)
	}
	return t, nil
}

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyTypeBuy, PropertyTypeSell, PropertyTypeRent:
		return true
	}
	return false
}

// PropertyStatus is the availability of a listing.
type PropertyStatus string

const (
	StatusAvailable PropertyStatus = "AVAILABLE"
	StatusSold      PropertyStatus = "SOLD"
	StatusRented    PropertyStatus = "RENTED"
	StatusPending   PropertyStatus = "PENDING"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusSold, StatusRented, StatusPending:
		return true
	}
	return false
}

// PropertyImage is one photo of a listing. Order defines display sequence.
type PropertyImage struct {
	ID         int64      `json:"id"`
	URL        string     `json:"url"`
	PublicID   *string    `json:"public_id,omitempty"`
	Caption    *string    `json:"caption,omitempty"`
	Order      int        `json:"order"`
	UploadedAt *time.Time `json:"uploaded_at,omitempty"`
}

// Property is a listing as served by the catalog. The client never
// mutates a fetched Property; the slug is a stable alias for the ID.
type Property struct {
	ID             int64           `json:"id"`
	Slug           string          `json:"slug"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	PropertyType   PropertyType    `json:"property_type"`
	Status         PropertyStatus  `json:"status"`
	Price          float64         `json:"price"`
	Address        *string         `json:"address,omitempty"`
	City           string          `json:"city"`
	State          string          `json:"state"`
	ZipCode        *string         `json:"zip_code,omitempty"`
	Latitude       *float64        `json:"latitude,omitempty"`
	Longitude      *float64        `json:"longitude,omitempty"`
	Bedrooms       int             `json:"bedrooms"`
	Bathrooms      int             `json:"bathrooms"`
	Area           float64         `json:"area"`
	Parking        bool            `json:"parking"`
	Furnished      bool            `json:"furnished"`
	IsFeatured     bool            `json:"is_featured"`
	IsSpecialOffer bool            `json:"is_special_offer"`
	OfferText      *string         `json:"offer_text,omitempty"`
	Thumbnail      *string         `json:"thumbnail,omitempty"`
	GmapURL        *string         `json:"gmap_url,omitempty"`
	DirectionsURL  *string         `json:"directions_url,omitempty"`
	Images         []PropertyImage `json:"images"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
}

// SortedImages returns a copy of the images in display order. Images with
// equal Order keep the sequence the server sent them in.
func (p Property) SortedImages() []PropertyImage {
	out := slices.Clone(p.Images)
	slices.SortStableFunc(out, func(a, b PropertyImage) int {
		return a.Order - b.Order
	})
	return out
}

// Location renders "address, city, state zip" skipping absent parts.
func (p Property) Location() string {
	parts := make([]string, 0, 3)
	if p.Address != nil && *p.Address != "" {
		parts = append(parts, *p.Address)
	}
	if p.City != "" {
		parts = append(parts, p.City)
	}
	state := p.State
	if p.ZipCode != nil && *p.ZipCode != "" {
		state = strings.TrimSpace(state + " " + *p.ZipCode)
	}
	if state != "" {
		parts = append(parts, state)
	}
	return strings.Join(parts, ", ")
}

// PropertyInput is the admin payload for creating or updating a listing.
// Nil fields are left unchanged on update.
type PropertyInput struct {
	Title          *string         `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description    *string         `json:"description,omitempty"`
	Price          *float64        `json:"price,omitempty" validate:"omitempty,gt=0"`
	PropertyType   *PropertyType   `json:"property_type,omitempty" validate:"omitempty,oneof=BUY SELL RENT"`
	Status         *PropertyStatus `json:"status,omitempty" validate:"omitempty,oneof=AVAILABLE SOLD RENTED PENDING"`
	Address        *string         `json:"address,omitempty"`
	City           *string         `json:"city,omitempty"`
	State          *string         `json:"state,omitempty"`
	ZipCode        *string         `json:"zip_code,omitempty"`
	Bedrooms       *int            `json:"bedrooms,omitempty" validate:"omitempty,gte=1"`
	Bathrooms      *int            `json:"bathrooms,omitempty" validate:"omitempty,gte=1"`
	Area           *float64        `json:"area,omitempty" validate:"omitempty,gt=0"`
	Parking        *bool           `json:"parking,omitempty"`
	Furnished      *bool           `json:"furnished,omitempty"`
	IsFeatured     *bool           `json:"is_featured,omitempty"`
	IsSpecialOffer *bool           `json:"is_special_offer,omitempty"`
	OfferText      *string         `json:"offer_text,omitempty"`
}
