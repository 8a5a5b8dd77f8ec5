package models

import "strings"

// Role is a server-assigned authorization level. The set is open: roles
// other than the known ones are carried through unchanged.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

var roleRank = map[Role]int{
	RoleUser:  1,
	RoleAdmin: 2,
}

// Satisfies reports whether r grants at least the required role. Known
// roles are ordered USER < ADMIN; an unknown role only satisfies itself.
func (r Role) Satisfies(required Role) bool {
	if required == "" {
		return true
	}
	have, okHave := roleRank[r.normalized()]
	want, okWant := roleRank[required.normalized()]
	if okHave && okWant {
		return have >= want
	}
	return r.normalized() == required.normalized()
}

func (r Role) normalized() Role {
	return Role(strings.ToUpper(strings.TrimSpace(string(r))))
}

// User is the server-issued identity of a signed-in account.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// Valid reports whether the record carries the fields a session needs.
func (u User) Valid() bool {
	return u.ID > 0 && u.Email != "" && u.Role != ""
}

// Registration is the new-account form.
type Registration struct {
	Name            string `json:"name" validate:"required,min=2,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"-" label:"confirm_password" validate:"required,eqfield=Password"`
}

// LoginResponse is the body of a successful /auth/login call. User is
// present when the server returns the authoritative identity inline.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user,omitempty"`
}
