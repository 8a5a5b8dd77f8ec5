package services

import "github.com/dmitrijs2005/homes/internal/client/models"

// SessionSource is the part of SessionStore the gate reads.
type SessionSource interface {
	Session() models.Session
	Subscribe(fn func(models.Session)) (unsubscribe func())
}

// Gate answers access questions from the current session. It holds no
// state of its own.
type Gate struct {
	sessions SessionSource
}

func NewGate(sessions SessionSource) *Gate {
	return &Gate{sessions: sessions}
}

func (g *Gate) IsAuthenticated() bool {
	return g.sessions.Session().IsAuthenticated()
}

// CanAccess reports whether the session may enter an area requiring role.
// An empty role only requires authentication.
func (g *Gate) CanAccess(required models.Role) bool {
	return canAccess(g.sessions.Session(), required)
}

// Require is CanAccess as an error: ErrNotAuthenticated or ErrForbidden.
func (g *Gate) Require(required models.Role) error {
	sess := g.sessions.Session()
	if !sess.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if !canAccess(sess, required) {
		return ErrForbidden
	}
	return nil
}

// Watch calls fn with the current decision for required and again after
// every session transition.
func (g *Gate) Watch(required models.Role, fn func(allowed bool)) (stop func()) {
	stop = g.sessions.Subscribe(func(s models.Session) {
		fn(canAccess(s, required))
	})
	fn(g.CanAccess(required))
	return stop
}

func canAccess(s models.Session, required models.Role) bool {
	return s.IsAuthenticated() && s.User.Role.Satisfies(required)
}
