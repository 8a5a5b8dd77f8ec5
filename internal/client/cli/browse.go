package cli

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/homes/internal/client/cache"
	"github.com/dmitrijs2005/homes/internal/client/models"
	"github.com/dmitrijs2005/homes/internal/client/query"
)

// filterAliases maps short argument names to query parameters.
var filterAliases = map[string]string{
	"type":     "property_type",
	"min":      "min_price",
	"max":      "max_price",
	"beds":     "min_bedrooms",
	"featured": "is_featured",
	"q":        "search",
}

// parseFilters turns "name=value" arguments into a Descriptor. A bare word
// following a filter is appended to its value, so "search=sea view" works
// without quoting. The word "refresh" requests a refetch.
func parseFilters(args []string) (query.Descriptor, bool, error) {
	v := url.Values{}
	refresh := false
	last := ""
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			if arg == "refresh" {
				refresh = true
				continue
			}
			if last == "" {
				return query.Descriptor{}, false, fmt.Errorf("expected name=value, got %q", arg)
			}
			v.Set(last, v.Get(last)+" "+arg)
			continue
		}
		name = strings.ToLower(name)
		if alias, ok := filterAliases[name]; ok {
			name = alias
		}
		v.Set(name, value)
		last = name
	}
	d, err := query.FromValues(v)
	return d, refresh, err
}

// Browse lists properties matching the filter arguments.
func (a *App) Browse(ctx context.Context, args []string) error {
	d, refresh, err := parseFilters(args)
	if err != nil {
		return a.report(err)
	}

	load := a.catalog.Properties
	if refresh {
		load = a.catalog.Refresh
	}
	res, err := load(ctx, d)
	if !usable(res, err) {
		return a.report(err)
	}
	renderStaleNotice(a.out, res)
	renderProperties(a.out, res.Data)
	return nil
}

// Show prints one property looked up by numeric id or by slug.
func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: show <id|slug>")
		return nil
	}

	var (
		res cache.Result[models.Property]
		err error
	)
	if id, perr := strconv.ParseInt(args[0], 10, 64); perr == nil {
		res, err = a.catalog.Property(ctx, id)
	} else {
		res, err = a.catalog.PropertyBySlug(ctx, args[0])
	}
	if !usable(res, err) {
		return a.report(err)
	}
	renderStaleNotice(a.out, res)
	renderProperty(a.out, res.Data)
	return nil
}

// usable reports whether r can be shown despite err: a failed refetch
// still carries the last good data.
func usable[T any](r cache.Result[T], err error) bool {
	return err == nil || !r.FetchedAt.IsZero()
}
