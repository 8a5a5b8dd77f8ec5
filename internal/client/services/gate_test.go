package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/homes/internal/client/models"
)

type fakeSessions struct {
	mu   sync.Mutex
	sess models.Session
	subs []func(models.Session)
}

func (f *fakeSessions) Session() models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sess
}

func (f *fakeSessions) Subscribe(fn func(models.Session)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.subs)
	f.subs = append(f.subs, fn)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.subs[i] = nil
	}
}

func (f *fakeSessions) set(s models.Session) {
	f.mu.Lock()
	f.sess = s
	subs := append([]func(models.Session){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		if fn != nil {
			fn(s)
		}
	}
}

func signedIn(role models.Role) models.Session {
	return models.Session{
		State: models.StateAuthenticated,
		User:  &models.User{ID: 1, Email: "a@b.co", Name: "A", Role: role},
		Token: "tok",
	}
}

func TestGate_CanAccess(t *testing.T) {
	tests := []struct {
		name     string
		session  models.Session
		required models.Role
		want     bool
	}{
		{"anonymous, auth only", models.Session{State: models.StateAnonymous}, "", false},
		{"uninitialized", models.Session{State: models.StateUninitialized}, models.RoleUser, false},
		{"user, auth only", signedIn(models.RoleUser), "", true},
		{"user, user area", signedIn(models.RoleUser), models.RoleUser, true},
		{"user, admin area", signedIn(models.RoleUser), models.RoleAdmin, false},
		{"admin, admin area", signedIn(models.RoleAdmin), models.RoleAdmin, true},
		{"admin, user area", signedIn(models.RoleAdmin), models.RoleUser, true},
		{"unknown role, its own area", signedIn("AGENT"), "AGENT", true},
		{"unknown role, user area", signedIn("AGENT"), models.RoleUser, false},
		{"admin, unknown area", signedIn(models.RoleAdmin), "AGENT", false},
		{"authenticated state without token", models.Session{State: models.StateAuthenticated, User: &models.User{Role: models.RoleAdmin}}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(&fakeSessions{sess: tt.session})
			assert.Equal(t, tt.want, g.CanAccess(tt.required))
		})
	}
}

func TestGate_Require(t *testing.T) {
	src := &fakeSessions{sess: models.Session{State: models.StateAnonymous}}
	g := NewGate(src)

	assert.ErrorIs(t, g.Require(models.RoleAdmin), ErrNotAuthenticated)
	assert.False(t, g.IsAuthenticated())

	src.set(signedIn(models.RoleUser))
	assert.ErrorIs(t, g.Require(models.RoleAdmin), ErrForbidden)
	assert.NoError(t, g.Require(models.RoleUser))
	assert.True(t, g.IsAuthenticated())
}

func TestGate_WatchReevaluatesOnEveryTransition(t *testing.T) {
	src := &fakeSessions{sess: models.Session{State: models.StateAnonymous}}
	g := NewGate(src)

	var seen []bool
	stop := g.Watch(models.RoleAdmin, func(allowed bool) { seen = append(seen, allowed) })

	src.set(signedIn(models.RoleAdmin))
	src.set(models.Session{State: models.StateAnonymous})
	stop()
	src.set(signedIn(models.RoleAdmin))

	assert.Equal(t, []bool{false, true, false}, seen)
}
