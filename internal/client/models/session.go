package models

// SessionState is a step of the session lifecycle.
type SessionState string

const (
	StateUninitialized SessionState = "UNINITIALIZED"
	StateRestoring     SessionState = "RESTORING"
	StateAuthenticated SessionState = "AUTHENTICATED"
	StateAnonymous     SessionState = "ANONYMOUS"
)

// Session is a snapshot of the signed-in state.
type Session struct {
	State SessionState
	User  *User
	Token string
}

// IsAuthenticated is true only when the state is AUTHENTICATED and both
// the user record and the token are present.
func (s Session) IsAuthenticated() bool {
	return s.State == StateAuthenticated && s.User != nil && s.Token != ""
}
