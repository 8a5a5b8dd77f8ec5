package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/homes/internal/client/cache"
	"github.com/dmitrijs2005/homes/internal/client/client"
	"github.com/dmitrijs2005/homes/internal/client/models"
	"github.com/dmitrijs2005/homes/internal/client/query"
	"github.com/dmitrijs2005/homes/internal/client/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    query.Descriptor
		refresh bool
		wantErr bool
	}{
		{name: "empty", want: query.MustNew()},
		{
			name: "aliases",
			args: []string{"type=rent", "city=Tirupur", "beds=2"},
			want: query.MustNew(
				query.WithPropertyType(models.PropertyTypeRent),
				query.WithCity("Tirupur"),
				query.WithMinBedrooms(2),
			),
		},
		{
			name: "multi-word search",
			args: []string{"search=sea", "view", "limit=5"},
			want: query.MustNew(query.WithSearch("sea view"), query.WithLimit(5)),
		},
		{
			name:    "refresh flag",
			args:    []string{"refresh", "featured=true"},
			want:    query.MustNew(query.WithFeatured(true)),
			refresh: true,
		},
		{name: "bare word first", args: []string{"villa"}, wantErr: true},
		{name: "unknown filter", args: []string{"colour=red"}, wantErr: true},
		{name: "bad number", args: []string{"min=cheap"}, wantErr: true},
		{name: "bad type", args: []string{"type=LEASE"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, refresh, err := parseFilters(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Key(), d.Key())
			assert.Equal(t, tt.refresh, refresh)
		})
	}
}

func TestBrowse(t *testing.T) {
	listing := []models.Property{
		{ID: 1, Title: "Garden Villa", PropertyType: models.PropertyTypeRent, Status: models.StatusAvailable, Price: 25000, City: "Tirupur", Bedrooms: 3, IsFeatured: true},
		{ID: 2, Title: "City Flat", PropertyType: models.PropertyTypeRent, Status: models.StatusRented, Price: 18000, City: "Tirupur", Bedrooms: 2},
	}

	t.Run("renders fresh listing", func(t *testing.T) {
		ta := newTestApp(t)
		ta.catalog.listRes = cache.Result[[]models.Property]{Data: listing, Status: cache.StatusFresh, FetchedAt: time.Now()}

		require.NoError(t, ta.Browse(context.Background(), []string{"type=RENT", "city=Tirupur"}))

		assert.Equal(t, []string{"properties"}, ta.catalog.calls)
		assert.Equal(t, query.MustNew(query.WithPropertyType(models.PropertyTypeRent), query.WithCity("Tirupur")).Key(), ta.catalog.descriptor.Key())
		out := ta.out.String()
		assert.Contains(t, out, "Garden Villa *")
		assert.Contains(t, out, "City Flat")
		assert.Contains(t, out, "₹25,000")
		assert.NotContains(t, out, "cached data")
	})

	t.Run("refresh goes through Refresh", func(t *testing.T) {
		ta := newTestApp(t)
		ta.catalog.listRes = cache.Result[[]models.Property]{Status: cache.StatusFresh, FetchedAt: time.Now()}

		require.NoError(t, ta.Browse(context.Background(), []string{"refresh"}))
		assert.Equal(t, []string{"refresh"}, ta.catalog.calls)
		assert.Contains(t, ta.out.String(), "No properties found")
	})

	t.Run("failed refetch shows prior data with notice", func(t *testing.T) {
		ta := newTestApp(t)
		cause := &client.TransportError{Op: "list properties", Err: errors.New("connection refused")}
		ta.catalog.listRes = cache.Result[[]models.Property]{
			Data:      listing[:1],
			Status:    cache.StatusError,
			Err:       cause,
			FetchedAt: time.Now().Add(-time.Hour),
		}
		ta.catalog.listErr = cause

		require.NoError(t, ta.Browse(context.Background(), nil))
		out := ta.out.String()
		assert.Contains(t, out, "Showing cached data")
		assert.Contains(t, out, "Unable to reach the server")
		assert.Contains(t, out, "Garden Villa")
	})

	t.Run("failure without data reports error", func(t *testing.T) {
		ta := newTestApp(t)
		cause := &client.ResponseError{Op: "list properties", Status: 503, Detail: "maintenance"}
		ta.catalog.listRes = cache.Result[[]models.Property]{Status: cache.StatusError, Err: cause}
		ta.catalog.listErr = cause

		err := ta.Browse(context.Background(), nil)
		require.ErrorIs(t, err, client.ErrUnavailable)
		assert.Contains(t, ta.printedText(), "Error: Unable to reach the server")
		assert.Empty(t, ta.out.String())
	})

	t.Run("invalid filter never reaches catalog", func(t *testing.T) {
		ta := newTestApp(t)
		require.Error(t, ta.Browse(context.Background(), []string{"min=-5"}))
		assert.Empty(t, ta.catalog.calls)
	})
}

func TestShow(t *testing.T) {
	caption := "Front"
	p := models.Property{
		ID: 5, Slug: "garden-villa", Title: "Garden Villa", City: "Tirupur", State: "TN",
		PropertyType: models.PropertyTypeRent, Status: models.StatusAvailable, Price: 1250000,
		Images: []models.PropertyImage{
			{ID: 2, URL: "https://img/2.jpg", Order: 2},
			{ID: 1, URL: "https://img/1.jpg", Order: 1, Caption: &caption},
		},
	}

	t.Run("by id", func(t *testing.T) {
		ta := newTestApp(t)
		ta.catalog.propertyRes = cache.Result[models.Property]{Data: p, Status: cache.StatusFresh, FetchedAt: time.Now()}

		require.NoError(t, ta.Show(context.Background(), []string{"5"}))
		assert.Equal(t, []string{"property"}, ta.catalog.calls)
		assert.Equal(t, int64(5), ta.catalog.lookupID)

		out := ta.out.String()
		assert.Contains(t, out, "Garden Villa")
		assert.Contains(t, out, "₹1,250,000")
		assert.Contains(t, out, "Tirupur, TN")
		assert.Less(t, strings.Index(out, "1.jpg (Front)"), strings.Index(out, "2.jpg"))
		assert.NotContains(t, out, "Map:")
	})

	t.Run("map links", func(t *testing.T) {
		withMap := p
		gmap, directions := "https://maps.example/garden-villa", "https://maps.example/dir/garden-villa"
		withMap.GmapURL, withMap.DirectionsURL = &gmap, &directions

		ta := newTestApp(t)
		ta.catalog.propertyRes = cache.Result[models.Property]{Data: withMap, Status: cache.StatusFresh, FetchedAt: time.Now()}

		require.NoError(t, ta.Show(context.Background(), []string{"5"}))
		out := ta.out.String()
		assert.Contains(t, out, "Map: "+gmap)
		assert.Contains(t, out, "Directions: "+directions)
	})

	t.Run("by slug", func(t *testing.T) {
		ta := newTestApp(t)
		ta.catalog.propertyRes = cache.Result[models.Property]{Data: p, Status: cache.StatusFresh, FetchedAt: time.Now()}

		require.NoError(t, ta.Show(context.Background(), []string{"garden-villa"}))
		assert.Equal(t, []string{"slug"}, ta.catalog.calls)
		assert.Equal(t, "garden-villa", ta.catalog.lookupSlug)
	})

	t.Run("not found", func(t *testing.T) {
		ta := newTestApp(t)
		ta.catalog.propertyErr = &client.ResponseError{Op: "get property", Status: 404, Detail: "Property not found"}
		ta.catalog.propertyRes = cache.Result[models.Property]{Status: cache.StatusError, Err: ta.catalog.propertyErr}

		require.ErrorIs(t, ta.Show(context.Background(), []string{"99"}), client.ErrNotFound)
		assert.Contains(t, ta.printedText(), "Error: Property not found")
	})

	t.Run("validation", func(t *testing.T) {
		ta := newTestApp(t)
		verr := &services.ValidationError{Fields: map[string]string{"id": "id must be a positive number"}}
		ta.catalog.propertyErr = verr

		require.Error(t, ta.Show(context.Background(), []string{"0"}))
	})

	t.Run("usage", func(t *testing.T) {
		ta := newTestApp(t)
		require.NoError(t, ta.Show(context.Background(), nil))
		assert.Equal(t, []string{"Usage: show <id|slug>"}, *ta.printed)
	})
}
