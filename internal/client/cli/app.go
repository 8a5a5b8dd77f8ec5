package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/homes/internal/client/cache"
	"github.com/dmitrijs2005/homes/internal/client/models"
	"github.com/dmitrijs2005/homes/internal/client/query"
	"github.com/dmitrijs2005/homes/internal/client/services"
	"github.com/dmitrijs2005/homes/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// Sessions is the part of the session store the CLI drives.
type Sessions interface {
	Session() models.Session
	Subscribe(fn func(models.Session)) (unsubscribe func())
	Login(ctx context.Context, email, password string) services.AuthResult
	RegisterAndLogin(ctx context.Context, r models.Registration) services.AuthResult
	Logout(ctx context.Context) error
}

// Catalog is the part of the catalog service the CLI drives.
type Catalog interface {
	Properties(ctx context.Context, d query.Descriptor) (cache.Result[[]models.Property], error)
	Refresh(ctx context.Context, d query.Descriptor) (cache.Result[[]models.Property], error)
	Property(ctx context.Context, id int64) (cache.Result[models.Property], error)
	PropertyBySlug(ctx context.Context, slug string) (cache.Result[models.Property], error)
	SubmitInquiry(ctx context.Context, in models.Inquiry) (models.InquiryConfirmation, error)
	CreateProperty(ctx context.Context, in models.PropertyInput) (models.Property, error)
	UpdateProperty(ctx context.Context, id int64, in models.PropertyInput) (models.Property, error)
	DeleteProperty(ctx context.Context, id int64) error
	Inquiries(ctx context.Context, skip, limit int) (cache.Result[[]models.InquiryRecord], error)
	MarkInquiryRead(ctx context.Context, id int64) error
}

// Access answers authorization questions for the current session.
type Access interface {
	IsAuthenticated() bool
	CanAccess(required models.Role) bool
}

type App struct {
	sessions Sessions
	catalog  Catalog
	access   Access
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer
	stats    prometheus.Gatherer
}

func NewApp(s Sessions, c Catalog, a Access, log logging.Logger) *App {
	if log == nil {
		log = logging.Nop()
	}
	return &App{
		sessions: s,
		catalog:  c,
		access:   a,
		log:      log.With("component", "cli"),
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
}

// Run prints the greeting and blocks in the REPL until the user exits or
// stdin is closed.
func (a *App) Run(ctx context.Context) {
	stop := a.watchSession()
	defer stop()

	fmt.Fprintln(a.out, "Welcome to Homes CLI (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) isLoggedIn() bool { return a.access.IsAuthenticated() }

func (a *App) isAdmin() bool { return a.access.CanAccess(models.RoleAdmin) }

// status renders the prompt suffix: the signed-in email and role.
func (a *App) status() string {
	s := a.sessions.Session()
	if !s.IsAuthenticated() {
		return ""
	}
	return fmt.Sprintf("(%s %s)", s.User.Email, s.User.Role)
}

// watchSession reports session transitions that happen outside a command,
// such as a restore that finished in the background.
func (a *App) watchSession() func() {
	last := a.sessions.Session().State
	return a.sessions.Subscribe(func(s models.Session) {
		if s.State == last {
			return
		}
		last = s.State
		a.log.Debug(context.Background(), "session state changed", "state", s.State)
	})
}
