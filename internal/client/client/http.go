package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/homes/internal/buildinfo"
	"github.com/dmitrijs2005/homes/internal/client/models"
	"github.com/dmitrijs2005/homes/internal/client/query"
	"github.com/dmitrijs2005/homes/internal/common"
	"github.com/dmitrijs2005/homes/internal/logging"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// HTTPClient implements Client over the REST API.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	limiter *rate.Limiter
	log     logging.Logger
	timeout time.Duration

	mu     sync.RWMutex
	tokens TokenSource
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client. A nil client is
// ignored. WithTimeout still applies regardless of option order.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit caps outbound requests per second. A non-positive rps
// disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *HTTPClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *HTTPClient) { c.tokens = ts }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// NewHTTPClient builds a client rooted at baseURL, e.g.
// "http://127.0.0.1:8000/api/v1".
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	c := &HTTPClient{
		baseURL: u,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// SetTokenSource attaches the bearer token provider after construction;
// the session store is built on top of the client and plugs itself in.
func (c *HTTPClient) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

func (c *HTTPClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func (c *HTTPClient) FetchProperties(ctx context.Context, d query.Descriptor) ([]models.Property, error) {
	var out []models.Property
	if err := c.do(ctx, request{op: "fetch properties", method: http.MethodGet, path: "/properties", query: d.Values()}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Property{}
	}
	return out, nil
}

func (c *HTTPClient) FetchProperty(ctx context.Context, id int64) (models.Property, error) {
	var out models.Property
	err := c.do(ctx, request{op: "fetch property", method: http.MethodGet, path: "/properties/" + strconv.FormatInt(id, 10)}, &out)
	return out, err
}

func (c *HTTPClient) FetchPropertyBySlug(ctx context.Context, slug string) (models.Property, error) {
	var out models.Property
	err := c.do(ctx, request{op: "fetch property by slug", method: http.MethodGet, path: "/properties/slug/" + url.PathEscape(slug)}, &out)
	return out, err
}

func (c *HTTPClient) SubmitInquiry(ctx context.Context, inquiry models.Inquiry) (models.InquiryConfirmation, error) {
	var out models.InquiryConfirmation
	err := c.do(ctx, request{op: "submit inquiry", method: http.MethodPost, path: "/inquiries", json: inquiry}, &out)
	return out, err
}

// Login posts the OAuth2 password form. A success body without an access
// token is reported as a ResponseError.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (models.LoginResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var out models.LoginResponse
	if err := c.do(ctx, request{op: "login", method: http.MethodPost, path: "/auth/login", form: form, anonymous: true}, &out); err != nil {
		return models.LoginResponse{}, err
	}
	if out.AccessToken == "" {
		return models.LoginResponse{}, &ResponseError{Op: "login", Status: http.StatusOK, Detail: "response carries no access token"}
	}
	return out, nil
}

func (c *HTTPClient) Register(ctx context.Context, r models.Registration) error {
	body := map[string]string{"name": r.Name, "email": r.Email, "password": r.Password}
	return c.do(ctx, request{op: "register", method: http.MethodPost, path: "/auth/register", json: body, anonymous: true}, nil)
}

// CurrentUser resolves the identity behind token, which need not be the
// token currently held by the TokenSource.
func (c *HTTPClient) CurrentUser(ctx context.Context, token string) (models.User, error) {
	var out models.User
	err := c.do(ctx, request{op: "current user", method: http.MethodGet, path: "/auth/me", bearer: token}, &out)
	return out, err
}

func (c *HTTPClient) CreateProperty(ctx context.Context, in models.PropertyInput) (models.Property, error) {
	var out models.Property
	err := c.do(ctx, request{op: "create property", method: http.MethodPost, path: "/properties", json: in}, &out)
	return out, err
}

func (c *HTTPClient) UpdateProperty(ctx context.Context, id int64, in models.PropertyInput) (models.Property, error) {
	var out models.Property
	err := c.do(ctx, request{op: "update property", method: http.MethodPut, path: "/properties/" + strconv.FormatInt(id, 10), json: in}, &out)
	return out, err
}

func (c *HTTPClient) DeleteProperty(ctx context.Context, id int64) error {
	return c.do(ctx, request{op: "delete property", method: http.MethodDelete, path: "/properties/" + strconv.FormatInt(id, 10)}, nil)
}

func (c *HTTPClient) ListInquiries(ctx context.Context, skip, limit int) ([]models.InquiryRecord, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))

	var out []models.InquiryRecord
	if err := c.do(ctx, request{op: "list inquiries", method: http.MethodGet, path: "/inquiries", query: q}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.InquiryRecord{}
	}
	return out, nil
}

func (c *HTTPClient) MarkInquiryRead(ctx context.Context, id int64) error {
	return c.do(ctx, request{op: "mark inquiry read", method: http.MethodPatch, path: "/inquiries/" + strconv.FormatInt(id, 10) + "/read"}, nil)
}

type request struct {
	op        string
	method    string
	path      string
	query     url.Values
	json      any
	form      url.Values
	bearer    string
	anonymous bool
}

func (c *HTTPClient) do(ctx context.Context, r request, out any) error {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &TransportError{Op: r.op, Err: err}
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn(ctx, "request failed", "op", r.op, "method", r.method, "path", r.path, "error", err)
		return &TransportError{Op: r.op, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug(ctx, "request done",
		"op", r.op,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", req.Header.Get(common.RequestIDHeader),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &ResponseError{Op: r.op, Status: resp.StatusCode, Detail: parseDetail(body, resp.Status)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	// A failed read is a transport failure (timeouts included); only a body
	// that arrived whole and does not decode is the server's fault.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Warn(ctx, "reading response failed", "op", r.op, "error", err)
		return &TransportError{Op: r.op, Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ResponseError{Op: r.op, Status: resp.StatusCode, Detail: fmt.Sprintf("malformed response body: %v", err)}
	}
	return nil
}

func (c *HTTPClient) newRequest(ctx context.Context, r request) (*http.Request, error) {
	u := *c.baseURL
	u.Path = u.Path + r.path
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case r.form != nil:
		body = strings.NewReader(r.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.json != nil:
		b, err := json.Marshal(r.json)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", r.op, err)
		}
		body = bytes.NewReader(b)
		contentType = common.ContentTypeJSON
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", r.op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", common.ContentTypeJSON)
	req.Header.Set("User-Agent", "homes-client/"+buildinfo.Version)
	req.Header.Set(common.RequestIDHeader, uuid.NewString())

	token := r.bearer
	if token == "" && !r.anonymous {
		token = c.token()
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}
	return req, nil
}

// parseDetail extracts the "detail" member of an error body. It may be a
// plain string or a list of validation issues carrying "msg".
func parseDetail(body []byte, fallback string) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return fallback
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil && s != "" {
		return s
	}

	var issues []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &issues); err == nil {
		msgs := make([]string, 0, len(issues))
		for _, i := range issues {
			if i.Msg != "" {
				msgs = append(msgs, i.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return fallback
}
