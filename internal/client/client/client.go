package client

import (
	"context"

	"github.com/dmitrijs2005/homes/internal/client/models"
	"github.com/dmitrijs2005/homes/internal/client/query"
)

// Catalog is the read side of the API plus inquiry submission.
type Catalog interface {
	FetchProperties(ctx context.Context, d query.Descriptor) ([]models.Property, error)
	FetchProperty(ctx context.Context, id int64) (models.Property, error)
	FetchPropertyBySlug(ctx context.Context, slug string) (models.Property, error)
	SubmitInquiry(ctx context.Context, inquiry models.Inquiry) (models.InquiryConfirmation, error)
}

// Auth is the authentication boundary used by the session store.
type Auth interface {
	Login(ctx context.Context, email, password string) (models.LoginResponse, error)
	Register(ctx context.Context, r models.Registration) error
	CurrentUser(ctx context.Context, token string) (models.User, error)
}

// Admin holds the bearer-authenticated management calls.
type Admin interface {
	CreateProperty(ctx context.Context, in models.PropertyInput) (models.Property, error)
	UpdateProperty(ctx context.Context, id int64, in models.PropertyInput) (models.Property, error)
	DeleteProperty(ctx context.Context, id int64) error
	ListInquiries(ctx context.Context, skip, limit int) ([]models.InquiryRecord, error)
	MarkInquiryRead(ctx context.Context, id int64) error
}

// Client is the full API surface.
type Client interface {
	Catalog
	Auth
	Admin
}

// TokenSource supplies the bearer token for authenticated calls. An empty
// token means the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}
