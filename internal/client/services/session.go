package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/homes/internal/client/client"
	"github.com/dmitrijs2005/homes/internal/client/models"
	"github.com/dmitrijs2005/homes/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/homes/internal/common"
	"github.com/dmitrijs2005/homes/internal/dbx"
	"github.com/dmitrijs2005/homes/internal/logging"
)

// FailureKind classifies a failed credential action.
type FailureKind int

const (
	FailureNone FailureKind = iota
	// FailureValidation: input rejected locally, nothing was sent.
	FailureValidation
	// FailureInvalidCredentials: the server refused the login (4xx).
	FailureInvalidCredentials
	// FailureRejected: the server refused a registration (4xx).
	FailureRejected
	// FailureUnavailable: the server could not be reached or failed (5xx).
	FailureUnavailable
	// FailureStorage: the session could not be persisted locally.
	FailureStorage
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureValidation:
		return "validation"
	case FailureInvalidCredentials:
		return "invalid_credentials"
	case FailureRejected:
		return "rejected"
	case FailureUnavailable:
		return "unavailable"
	case FailureStorage:
		return "storage"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

const (
	msgUnreachable     = "Unable to reach the server. Please try again later."
	msgServerFailure   = "The server is temporarily unavailable. Please try again later."
	msgStorageFailure  = "Could not save the session on this device."
	msgIncompleteUser  = "The server returned an incomplete account record."
	msgRegisteredNoLog = "Registration succeeded but login failed"
)

// AuthResult is the outcome of a credential action. Message is suitable
// for display; Err keeps the underlying cause.
type AuthResult struct {
	Success bool
	Kind    FailureKind
	Message string
	Err     error
	Session models.Session
}

func success(s models.Session) AuthResult {
	return AuthResult{Success: true, Session: s}
}

func failure(kind FailureKind, msg string, err error) AuthResult {
	return AuthResult{Kind: kind, Message: msg, Err: err}
}

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionStore owns the authentication session and its persisted copy.
// It is safe for concurrent use; credential actions are serialized.
type SessionStore struct {
	db     *sql.DB
	client client.Auth
	log    logging.Logger
	now    func() time.Time

	// op serializes Restore, Login and Logout so persisted and in-memory
	// state change together.
	op sync.Mutex

	mu      sync.RWMutex
	session models.Session
	subs    map[uint64]*sessionSubscriber
	nextSub uint64
}

func NewSessionStore(db *sql.DB, c client.Auth, log logging.Logger) *SessionStore {
	if log == nil {
		log = logging.Nop()
	}
	return &SessionStore{
		db:      db,
		client:  c,
		log:     log.With("component", "session"),
		now:     time.Now,
		session: models.Session{State: models.StateUninitialized},
		subs:    make(map[uint64]*sessionSubscriber),
	}
}

// Session returns a snapshot of the current session.
func (s *SessionStore) Session() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *SessionStore) State() models.SessionState { return s.Session().State }

// Token returns the bearer token of an authenticated session, or "".
func (s *SessionStore) Token() string {
	sess := s.Session()
	if !sess.IsAuthenticated() {
		return ""
	}
	return sess.Token
}

// AuthHeaders returns the headers for an outbound API call.
func (s *SessionStore) AuthHeaders() http.Header {
	h := http.Header{}
	h.Set("Content-Type", common.ContentTypeJSON)
	if tok := s.Token(); tok != "" {
		h.Set(common.AuthorizationHeader, common.BearerPrefix+tok)
	}
	return h
}

type sessionSubscriber struct {
	fn     func(models.Session)
	active atomic.Bool
}

// Subscribe registers fn to be called with the new session after every
// state transition. Callbacks run synchronously on the goroutine that
// caused the transition, outside the store's lock. fn is not called once
// unsubscribe has returned.
func (s *SessionStore) Subscribe(fn func(models.Session)) (unsubscribe func()) {
	sub := &sessionSubscriber{fn: fn}
	sub.active.Store(true)

	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = sub
	s.mu.Unlock()

	return func() {
		sub.active.Store(false)
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *SessionStore) set(next models.Session) {
	s.mu.Lock()
	s.session = next
	ids := slices.Sorted(maps.Keys(s.subs))
	subs := make([]*sessionSubscriber, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, s.subs[id])
	}
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.active.Load() {
			sub.fn(next)
		}
	}
}

func anonymous() models.Session {
	return models.Session{State: models.StateAnonymous}
}

// Restore loads the persisted session. Missing, unparseable or expired
// data leaves the store ANONYMOUS with storage cleared. Storage failures
// are logged and also yield ANONYMOUS.
func (s *SessionStore) Restore(ctx context.Context) models.SessionState {
	s.op.Lock()
	defer s.op.Unlock()

	s.set(models.Session{State: models.StateRestoring})

	sess, err := s.load(ctx)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			s.log.Warn(ctx, "discarding persisted session", "error", err)
		} else {
			s.log.Error(ctx, "restore session", "error", err)
		}
		if err := s.clear(ctx); err != nil {
			s.log.Error(ctx, "clear persisted session", "error", err)
		}
		s.set(anonymous())
		return models.StateAnonymous
	}

	s.set(sess)
	s.log.Info(ctx, "session restored", "state", sess.State)
	return sess.State
}

var errIncomplete = errors.New("incomplete session")

func (s *SessionStore) load(ctx context.Context) (models.Session, error) {
	repo := metadata.NewSQLiteRepository(s.db)

	token, err := repo.Get(ctx, common.TokenKey)
	if err != nil {
		return models.Session{}, err
	}
	rawUser, err := repo.Get(ctx, common.UserKey)
	if err != nil {
		return models.Session{}, err
	}

	switch {
	case token == nil && rawUser == nil:
		return anonymous(), nil
	case len(token) == 0:
		return models.Session{}, &ParseError{Key: common.TokenKey, Err: errIncomplete}
	case rawUser == nil:
		return models.Session{}, &ParseError{Key: common.UserKey, Err: errIncomplete}
	}

	var u models.User
	if err := json.Unmarshal(rawUser, &u); err != nil {
		return models.Session{}, &ParseError{Key: common.UserKey, Err: err}
	}
	if !u.Valid() {
		return models.Session{}, &ParseError{Key: common.UserKey, Err: errIncomplete}
	}
	if tokenExpired(string(token), s.now()) {
		return models.Session{}, &ParseError{Key: common.TokenKey, Err: jwt.ErrTokenExpired}
	}

	return models.Session{State: models.StateAuthenticated, User: &u, Token: string(token)}, nil
}

// tokenExpired reports whether a JWT-shaped token carries an exp claim in
// the past. The signature is not checked; opaque tokens never expire here.
func tokenExpired(token string, now time.Time) bool {
	if strings.Count(token, ".") != 2 {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

// Login authenticates and persists the session. On failure nothing is
// written and the session is left unchanged.
func (s *SessionStore) Login(ctx context.Context, email, password string) AuthResult {
	email = strings.TrimSpace(email)
	if err := validateStruct(loginForm{Email: email, Password: password}); err != nil {
		return failure(FailureValidation, err.Error(), err)
	}

	s.op.Lock()
	defer s.op.Unlock()

	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.log.Info(ctx, "login failed", "email", email, "error", err)
		return classify(err, FailureInvalidCredentials)
	}

	user := resp.User
	if user == nil {
		u, err := s.client.CurrentUser(ctx, resp.AccessToken)
		if err != nil {
			s.log.Warn(ctx, "resolve current user", "error", err)
			return classify(err, FailureInvalidCredentials)
		}
		user = &u
	}
	if !user.Valid() {
		return failure(FailureUnavailable, msgIncompleteUser, errIncomplete)
	}

	if err := s.persist(ctx, resp.AccessToken, *user); err != nil {
		s.log.Error(ctx, "persist session", "error", err)
		return failure(FailureStorage, msgStorageFailure, err)
	}

	sess := models.Session{State: models.StateAuthenticated, User: user, Token: resp.AccessToken}
	s.set(sess)
	s.log.Info(ctx, "logged in", "user_id", user.ID, "role", user.Role)
	return success(sess)
}

// Register creates an account. It does not sign in.
func (s *SessionStore) Register(ctx context.Context, r models.Registration) AuthResult {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	if err := validateStruct(r); err != nil {
		return failure(FailureValidation, err.Error(), err)
	}

	if err := s.client.Register(ctx, r); err != nil {
		s.log.Info(ctx, "registration failed", "email", r.Email, "error", err)
		return classify(err, FailureRejected)
	}
	s.log.Info(ctx, "registered", "email", r.Email)
	return AuthResult{Success: true, Session: s.Session()}
}

// RegisterAndLogin registers and then logs in with the same credentials.
// A login failure after a successful registration keeps its kind but
// reports the partial success in Message.
func (s *SessionStore) RegisterAndLogin(ctx context.Context, r models.Registration) AuthResult {
	res := s.Register(ctx, r)
	if !res.Success {
		return res
	}
	res = s.Login(ctx, r.Email, r.Password)
	if !res.Success {
		res.Message = msgRegisteredNoLog + ": " + res.Message
	}
	return res
}

// Logout clears the persisted session and switches to ANONYMOUS. The
// in-memory session is cleared even when storage fails; the storage error
// is returned.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	err := s.clear(ctx)
	if err != nil {
		s.log.Error(ctx, "clear persisted session", "error", err)
	}
	s.set(anonymous())
	s.log.Info(ctx, "logged out")
	return err
}

func (s *SessionStore) persist(ctx context.Context, token string, u models.User) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, common.TokenKey, []byte(token)); err != nil {
			return err
		}
		return metadata.SetJSON(ctx, repo, common.UserKey, u)
	})
}

func (s *SessionStore) clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, common.TokenKey); err != nil {
			return err
		}
		return repo.Delete(ctx, common.UserKey)
	})
}

// classify maps a client error to an AuthResult. rejected is the kind used
// for 4xx answers.
func classify(err error, rejected FailureKind) AuthResult {
	var re *client.ResponseError
	if !errors.As(err, &re) {
		return failure(FailureUnavailable, msgUnreachable, err)
	}
	if re.Status >= 400 && re.Status < 500 {
		return failure(rejected, client.Detail(err), err)
	}
	return failure(FailureUnavailable, msgServerFailure, err)
}
