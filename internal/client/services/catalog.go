package services

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/homes/internal/client/cache"
	"github.com/dmitrijs2005/homes/internal/client/client"
	"github.com/dmitrijs2005/homes/internal/client/models"
	"github.com/dmitrijs2005/homes/internal/client/query"
	"github.com/dmitrijs2005/homes/internal/logging"
)

const inquiriesPrefix = "inquiries"

// CatalogService serves catalog reads through the query cache and runs
// inquiries and admin mutations against the API.
type CatalogService struct {
	client client.Client
	cache  *cache.Engine
	gate   *Gate
	log    logging.Logger
	stop   func()
}

// NewCatalogService wires the service. Cached admin data is dropped as
// soon as the session loses the ADMIN role.
func NewCatalogService(c client.Client, e *cache.Engine, g *Gate, log logging.Logger) *CatalogService {
	if log == nil {
		log = logging.Nop()
	}
	s := &CatalogService{client: c, cache: e, gate: g, log: log.With("component", "catalog")}
	s.stop = g.Watch(models.RoleAdmin, func(allowed bool) {
		if !allowed {
			e.EvictPrefix(inquiriesPrefix)
		}
	})
	return s
}

// Close detaches the service from session changes.
func (s *CatalogService) Close() {
	s.stop()
}

// Properties returns the listings matching d.
func (s *CatalogService) Properties(ctx context.Context, d query.Descriptor) (cache.Result[[]models.Property], error) {
	return cache.Query(ctx, s.cache, d.Key(), func(ctx context.Context) ([]models.Property, error) {
		return s.client.FetchProperties(ctx, d)
	})
}

// Refresh refetches the listings matching d even when they are fresh.
func (s *CatalogService) Refresh(ctx context.Context, d query.Descriptor) (cache.Result[[]models.Property], error) {
	return cache.Refresh(ctx, s.cache, d.Key(), func(ctx context.Context) ([]models.Property, error) {
		return s.client.FetchProperties(ctx, d)
	})
}

func (s *CatalogService) Property(ctx context.Context, id int64) (cache.Result[models.Property], error) {
	if id <= 0 {
		verr := newValidationError()
		verr.add("id", "id must be a positive number")
		return cache.Result[models.Property]{}, verr
	}
	return cache.Query(ctx, s.cache, query.PropertyKey(id), func(ctx context.Context) (models.Property, error) {
		return s.client.FetchProperty(ctx, id)
	})
}

func (s *CatalogService) PropertyBySlug(ctx context.Context, slug string) (cache.Result[models.Property], error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		verr := newValidationError()
		verr.add("slug", "slug is required")
		return cache.Result[models.Property]{}, verr
	}
	return cache.Query(ctx, s.cache, query.SlugKey(slug), func(ctx context.Context) (models.Property, error) {
		return s.client.FetchPropertyBySlug(ctx, slug)
	})
}

// SubmitInquiry validates and sends an inquiry. Inquiries are never cached.
func (s *CatalogService) SubmitInquiry(ctx context.Context, in models.Inquiry) (models.InquiryConfirmation, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Message = strings.TrimSpace(in.Message)
	if err := validateStruct(in); err != nil {
		return models.InquiryConfirmation{}, err
	}

	conf, err := s.client.SubmitInquiry(ctx, in)
	if err != nil {
		s.log.Warn(ctx, "submit inquiry", "error", err)
		return models.InquiryConfirmation{}, err
	}
	s.log.Info(ctx, "inquiry submitted", "inquiry_id", conf.ID)
	return conf, nil
}

// CreateProperty adds a listing. Cached listings turn stale.
func (s *CatalogService) CreateProperty(ctx context.Context, in models.PropertyInput) (models.Property, error) {
	if err := s.gate.Require(models.RoleAdmin); err != nil {
		return models.Property{}, err
	}
	if err := validateCreate(in); err != nil {
		return models.Property{}, err
	}

	p, err := s.client.CreateProperty(ctx, in)
	if err != nil {
		return models.Property{}, err
	}
	s.cache.InvalidatePrefix(query.Prefix)
	s.log.Info(ctx, "property created", "property_id", p.ID)
	return p, nil
}

func (s *CatalogService) UpdateProperty(ctx context.Context, id int64, in models.PropertyInput) (models.Property, error) {
	if err := s.gate.Require(models.RoleAdmin); err != nil {
		return models.Property{}, err
	}
	if err := validateStruct(in); err != nil {
		return models.Property{}, err
	}

	p, err := s.client.UpdateProperty(ctx, id, in)
	if err != nil {
		return models.Property{}, err
	}
	s.cache.InvalidatePrefix(query.Prefix)
	s.log.Info(ctx, "property updated", "property_id", id)
	return p, nil
}

func (s *CatalogService) DeleteProperty(ctx context.Context, id int64) error {
	if err := s.gate.Require(models.RoleAdmin); err != nil {
		return err
	}
	if err := s.client.DeleteProperty(ctx, id); err != nil {
		return err
	}
	s.cache.Evict(query.PropertyKey(id))
	s.cache.InvalidatePrefix(query.Prefix)
	s.log.Info(ctx, "property deleted", "property_id", id)
	return nil
}

// Inquiries lists stored inquiries for the admin area.
func (s *CatalogService) Inquiries(ctx context.Context, skip, limit int) (cache.Result[[]models.InquiryRecord], error) {
	if err := s.gate.Require(models.RoleAdmin); err != nil {
		return cache.Result[[]models.InquiryRecord]{}, err
	}
	v := url.Values{}
	v.Set("skip", strconv.Itoa(skip))
	v.Set("limit", strconv.Itoa(limit))
	key := inquiriesPrefix + "?" + v.Encode()

	return cache.Query(ctx, s.cache, key, func(ctx context.Context) ([]models.InquiryRecord, error) {
		return s.client.ListInquiries(ctx, skip, limit)
	})
}

func (s *CatalogService) MarkInquiryRead(ctx context.Context, id int64) error {
	if err := s.gate.Require(models.RoleAdmin); err != nil {
		return err
	}
	if err := s.client.MarkInquiryRead(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidatePrefix(inquiriesPrefix)
	return nil
}

func validateCreate(in models.PropertyInput) error {
	verr := newValidationError()
	if in.Title == nil {
		verr.add("title", "title is required")
	}
	if in.Price == nil {
		verr.add("price", "price is required")
	}
	if in.PropertyType == nil {
		verr.add("property_type", "property type is required")
	}
	if in.City == nil {
		verr.add("city", "city is required")
	}
	if err := validateStruct(in); err != nil {
		var fe *ValidationError
		if errors.As(err, &fe) {
			for _, f := range fe.order {
				verr.add(f, fe.Fields[f])
			}
		} else {
			return err
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
