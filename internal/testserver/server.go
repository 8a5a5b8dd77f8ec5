package testserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/homes/internal/client/models"
)

const APIPrefix = "/api/v1"

// Route names used by Calls, Fail and OnRequest.
const (
	RouteListProperties   = "GET /properties"
	RouteGetProperty      = "GET /properties/{id}"
	RouteGetBySlug        = "GET /properties/slug/{slug}"
	RouteCreateProperty   = "POST /properties"
	RouteUpdateProperty   = "PUT /properties/{id}"
	RouteDeleteProperty   = "DELETE /properties/{id}"
	RouteSubmitInquiry    = "POST /inquiries"
	RouteListInquiries    = "GET /inquiries"
	RouteMarkInquiryRead  = "PATCH /inquiries/{id}/read"
	RouteLogin            = "POST /auth/login"
	RouteRegister         = "POST /auth/register"
	RouteMe               = "GET /auth/me"
)

const (
	defaultTokenLifetime   = time.Hour
	detailInvalidLogin     = "Invalid credentials"
	detailNotAuthenticated = "Not authenticated"
)

var signingKey = []byte("testserver-secret")

type account struct {
	user     models.User
	password string
}

type failure struct {
	status int
	detail string
}

// Server is a running fake API. Close it when done.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	properties    []models.Property
	inquiries     []models.InquiryRecord
	accounts      map[string]account
	calls         map[string]int
	failures      map[string][]failure
	hooks         map[string]func(*http.Request)
	lastHeaders   map[string]http.Header
	omitLoginUser bool
	tokenLifetime time.Duration
	nextID        int64
	now           func() time.Time
}

// New starts a server with an empty catalog and no accounts.
func New() *Server {
	s := &Server{
		accounts:      make(map[string]account),
		calls:         make(map[string]int),
		failures:      make(map[string][]failure),
		hooks:         make(map[string]func(*http.Request)),
		lastHeaders:   make(map[string]http.Header),
		tokenLifetime: defaultTokenLifetime,
		nextID:        1000,
		now:           time.Now,
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// BaseURL is the API root to hand to the client.
func (s *Server) BaseURL() string { return s.URL + APIPrefix }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route(APIPrefix, func(r chi.Router) {
		s.handle(r, RouteListProperties, s.listProperties)
		s.handle(r, RouteGetBySlug, s.getPropertyBySlug)
		s.handle(r, RouteGetProperty, s.getProperty)
		s.handle(r, RouteCreateProperty, s.admin(s.createProperty))
		s.handle(r, RouteUpdateProperty, s.admin(s.updateProperty))
		s.handle(r, RouteDeleteProperty, s.admin(s.deleteProperty))
		s.handle(r, RouteSubmitInquiry, s.submitInquiry)
		s.handle(r, RouteListInquiries, s.admin(s.listInquiries))
		s.handle(r, RouteMarkInquiryRead, s.admin(s.markInquiryRead))
		s.handle(r, RouteLogin, s.login)
		s.handle(r, RouteRegister, s.register)
		s.handle(r, RouteMe, s.me)
	})
	return r
}

// handle registers h under route and wraps it with call counting, request
// hooks and injected failures.
func (s *Server) handle(r chi.Router, route string, h http.HandlerFunc) {
	method, pattern, _ := strings.Cut(route, " ")
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.calls[route]++
		s.lastHeaders[route] = req.Header.Clone()
		hook := s.hooks[route]
		var f *failure
		if q := s.failures[route]; len(q) > 0 {
			f = &q[0]
			s.failures[route] = q[1:]
		}
		s.mu.Unlock()

		if hook != nil {
			hook(req)
		}
		if f != nil {
			writeDetail(w, f.status, f.detail)
			return
		}
		h(w, req)
	}))
}

// Calls returns how many requests route has received.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// LastHeaders returns the headers of the latest request to route.
func (s *Server) LastHeaders(route string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeaders[route].Clone()
}

// Fail makes the next n requests to route answer status with detail.
func (s *Server) Fail(route string, n int, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for range n {
		s.failures[route] = append(s.failures[route], failure{status: status, detail: detail})
	}
}

// OnRequest installs fn to run before every request to route is served.
// A hook that blocks holds the response back.
func (s *Server) OnRequest(route string, fn func(*http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		delete(s.hooks, route)
		return
	}
	s.hooks[route] = fn
}

// OmitLoginUser makes login responses carry only the token, forcing the
// client to resolve the user through /auth/me.
func (s *Server) OmitLoginUser(omit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitLoginUser = omit
}

// SetTokenLifetime changes the exp of newly issued tokens. A negative
// value issues already-expired tokens.
func (s *Server) SetTokenLifetime(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenLifetime = d
}

// AddProperty seeds a listing. A zero ID or empty slug is filled in.
func (s *Server) AddProperty(p models.Property) models.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.allocID()
	}
	if p.Slug == "" {
		p.Slug = slugify(p.Title, p.ID)
	}
	if p.Status == "" {
		p.Status = models.StatusAvailable
	}
	if p.Images == nil {
		p.Images = []models.PropertyImage{}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	s.properties = append(s.properties, p)
	return p
}

// AddUser seeds an account. A zero ID is filled in.
func (s *Server) AddUser(u models.User, password string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.allocID()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	s.accounts[strings.ToLower(u.Email)] = account{user: u, password: password}
	return u
}

// IssueToken signs a token for the account registered under email.
func (s *Server) IssueToken(email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return "", fmt.Errorf("no account %q", email)
	}
	return s.sign(acc.user)
}

// Inquiries returns the stored inquiries.
func (s *Server) Inquiries() []models.InquiryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.InquiryRecord, len(s.inquiries))
	copy(out, s.inquiries)
	return out
}

func (s *Server) allocID() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) sign(u models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(u.ID, 10),
		"role": string(u.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenLifetime).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
}

// authenticate resolves the bearer token of r to an account.
func (s *Server) authenticate(r *http.Request) (models.User, bool) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return models.User{}, false
	}
	tok, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return models.User{}, false
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil {
		return models.User{}, false
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return models.User{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.user.ID == id {
			return acc.user, true
		}
	}
	return models.User{}, false
}

func (s *Server) admin(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.authenticate(r)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, detailNotAuthenticated)
			return
		}
		if !u.Role.Satisfies(models.RoleAdmin) {
			writeDetail(w, http.StatusForbidden, "Not enough permissions")
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeValidation(w http.ResponseWriter, msgs ...string) {
	issues := make([]map[string]string, 0, len(msgs))
	for _, m := range msgs {
		issues = append(issues, map[string]string{"msg": m})
	}
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": issues})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func slugify(title string, id int64) string {
	var b strings.Builder
	dash := false
	for _, c := range strings.ToLower(title) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return fmt.Sprintf("%s-%d", strings.TrimSuffix(b.String(), "-"), id)
}
