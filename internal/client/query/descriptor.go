// Package query builds catalog queries. A Descriptor is the validated,
// order-independent set of filters for one properties listing; its Key is
// the canonical cache key and its Values the request query string.
package query

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/homes/internal/client/models"
)

// Prefix is the leading segment of every catalog cache key. Invalidating
// it marks every cached listing and property stale.
const Prefix = "properties"

const (
	MaxLimit = 100

	paramPropertyType = "property_type"
	paramMinPrice     = "min_price"
	paramMaxPrice     = "max_price"
	paramMinBedrooms  = "min_bedrooms"
	paramCity         = "city"
	paramSearch       = "search"
	paramIsFeatured   = "is_featured"
	paramSkip         = "skip"
	paramLimit        = "limit"
)

// ErrInvalidFilter wraps every construction-time validation failure.
var ErrInvalidFilter = errors.New("invalid filter")

// Descriptor holds only the filters that were set. The zero value is the
// unfiltered catalog.
type Descriptor struct {
	propertyType *models.PropertyType
	minPrice     *float64
	maxPrice     *float64
	minBedrooms  *int
	city         *string
	search       *string
	isFeatured   *bool
	skip         *int
	limit        *int
}

// Option sets one recognized filter.
type Option func(*Descriptor)

func WithPropertyType(t models.PropertyType) Option {
	return func(d *Descriptor) {
		if t != "" {
			d.propertyType = &t
		}
	}
}

func WithMinPrice(v float64) Option { return func(d *Descriptor) { d.minPrice = &v } }

func WithMaxPrice(v float64) Option { return func(d *Descriptor) { d.maxPrice = &v } }

func WithMinBedrooms(n int) Option { return func(d *Descriptor) { d.minBedrooms = &n } }

// WithCity sets a city filter; blank strings leave it unset.
func WithCity(city string) Option {
	return func(d *Descriptor) {
		if c := strings.TrimSpace(city); c != "" {
			d.city = &c
		}
	}
}

// WithSearch sets a free-text filter; blank strings leave it unset.
func WithSearch(text string) Option {
	return func(d *Descriptor) {
		if s := strings.TrimSpace(text); s != "" {
			d.search = &s
		}
	}
}

func WithFeatured(featured bool) Option { return func(d *Descriptor) { d.isFeatured = &featured } }

func WithSkip(n int) Option { return func(d *Descriptor) { d.skip = &n } }

func WithLimit(n int) Option { return func(d *Descriptor) { d.limit = &n } }

// New applies opts in order and validates the result.
func New(opts ...Option) (Descriptor, error) {
	var d Descriptor
	for _, opt := range opts {
		opt(&d)
	}
	if err := d.validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// MustNew is New for literals known to be valid. It panics otherwise.
func MustNew(opts ...Option) Descriptor {
	d, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return d
}

func validPrice(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (d Descriptor) validate() error {
	if d.propertyType != nil && !d.propertyType.Valid() {
		return fmt.Errorf("%w: property_type %q", ErrInvalidFilter, *d.propertyType)
	}
	if d.minPrice != nil && !validPrice(*d.minPrice) {
		return fmt.Errorf("%w: min_price must be a non-negative number", ErrInvalidFilter)
	}
	if d.maxPrice != nil && !validPrice(*d.maxPrice) {
		return fmt.Errorf("%w: max_price must be a non-negative number", ErrInvalidFilter)
	}
	if d.minPrice != nil && d.maxPrice != nil && *d.minPrice > *d.maxPrice {
		return fmt.Errorf("%w: min_price exceeds max_price", ErrInvalidFilter)
	}
	if d.minBedrooms != nil && *d.minBedrooms < 0 {
		return fmt.Errorf("%w: min_bedrooms must be non-negative", ErrInvalidFilter)
	}
	if d.skip != nil && *d.skip < 0 {
		return fmt.Errorf("%w: skip must be non-negative", ErrInvalidFilter)
	}
	if d.limit != nil && (*d.limit < 1 || *d.limit > MaxLimit) {
		return fmt.Errorf("%w: limit must be within 1..%d", ErrInvalidFilter, MaxLimit)
	}
	return nil
}

// PropertyType returns the type filter and whether it is set.
func (d Descriptor) PropertyType() (models.PropertyType, bool) {
	if d.propertyType == nil {
		return "", false
	}
	return *d.propertyType, true
}

// Values renders the set filters as URL query parameters.
func (d Descriptor) Values() url.Values {
	v := url.Values{}
	if d.propertyType != nil {
		v.Set(paramPropertyType, string(*d.propertyType))
	}
	if d.minPrice != nil {
		v.Set(paramMinPrice, formatFloat(*d.minPrice))
	}
	if d.maxPrice != nil {
		v.Set(paramMaxPrice, formatFloat(*d.maxPrice))
	}
	if d.minBedrooms != nil {
		v.Set(paramMinBedrooms, strconv.Itoa(*d.minBedrooms))
	}
	if d.city != nil {
		v.Set(paramCity, *d.city)
	}
	if d.search != nil {
		v.Set(paramSearch, *d.search)
	}
	if d.isFeatured != nil {
		v.Set(paramIsFeatured, strconv.FormatBool(*d.isFeatured))
	}
	if d.skip != nil {
		v.Set(paramSkip, strconv.Itoa(*d.skip))
	}
	if d.limit != nil {
		v.Set(paramLimit, strconv.Itoa(*d.limit))
	}
	return v
}

// Key is the canonical cache key: the prefix followed by the set filters
// sorted by name. Two descriptors with the same effective filters share a
// key regardless of the order their options were applied in.
func (d Descriptor) Key() string {
	encoded := d.Values().Encode()
	if encoded == "" {
		return Prefix + "?"
	}
	return Prefix + "?" + encoded
}

func (d Descriptor) String() string { return d.Key() }

// FromValues parses a query string back into a validated Descriptor.
// Unknown parameters are rejected.
func FromValues(v url.Values) (Descriptor, error) {
	var opts []Option
	for name := range v {
		raw := v.Get(name)
		switch name {
		case paramPropertyType:
			t, err := models.ParsePropertyType(raw)
			if err != nil {
				return Descriptor{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
			}
			opts = append(opts, WithPropertyType(t))
		case paramMinPrice, paramMaxPrice:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return Descriptor{}, fmt.Errorf("%w: %s=%q", ErrInvalidFilter, name, raw)
			}
			if name == paramMinPrice {
				opts = append(opts, WithMinPrice(f))
			} else {
				opts = append(opts, WithMaxPrice(f))
			}
		case paramMinBedrooms, paramSkip, paramLimit:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return Descriptor{}, fmt.Errorf("%w: %s=%q", ErrInvalidFilter, name, raw)
			}
			switch name {
			case paramMinBedrooms:
				opts = append(opts, WithMinBedrooms(n))
			case paramSkip:
				opts = append(opts, WithSkip(n))
			default:
				opts = append(opts, WithLimit(n))
			}
		case paramCity:
			opts = append(opts, WithCity(raw))
		case paramSearch:
			opts = append(opts, WithSearch(raw))
		case paramIsFeatured:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return Descriptor{}, fmt.Errorf("%w: %s=%q", ErrInvalidFilter, name, raw)
			}
			opts = append(opts, WithFeatured(b))
		default:
			return Descriptor{}, fmt.Errorf("%w: unknown parameter %q", ErrInvalidFilter, name)
		}
	}
	return New(opts...)
}

// Match reports whether p satisfies every set filter. Pagination is not
// considered. City and search compare case-insensitively by substring,
// search looking at title and description.
func (d Descriptor) Match(p models.Property) bool {
	if d.propertyType != nil && p.PropertyType != *d.propertyType {
		return false
	}
	if d.minPrice != nil && p.Price < *d.minPrice {
		return false
	}
	if d.maxPrice != nil && p.Price > *d.maxPrice {
		return false
	}
	if d.minBedrooms != nil && p.Bedrooms < *d.minBedrooms {
		return false
	}
	if d.city != nil && !containsFold(p.City, *d.city) {
		return false
	}
	if d.isFeatured != nil && p.IsFeatured != *d.isFeatured {
		return false
	}
	if d.search != nil && !containsFold(p.Title, *d.search) && !containsFold(p.Description, *d.search) {
		return false
	}
	return true
}

// Page applies skip and limit to an already filtered slice. The default
// limit is 20.
func (d Descriptor) Page(items []models.Property) []models.Property {
	skip, limit := 0, 20
	if d.skip != nil {
		skip = *d.skip
	}
	if d.limit != nil {
		limit = *d.limit
	}
	if skip >= len(items) {
		return []models.Property{}
	}
	end := min(skip+limit, len(items))
	return items[skip:end]
}

// PropertyKey is the cache key of a single property fetched by ID.
func PropertyKey(id int64) string {
	return Prefix + "/" + strconv.FormatInt(id, 10)
}

// SlugKey is the cache key of a single property fetched by slug.
func SlugKey(slug string) string {
	return Prefix + "/slug/" + url.PathEscape(slug)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
