// Package session holds the client's belief about who is logged in, the
// single network probe that refreshes that belief, and the route guard that
// gates navigation on it.
package session

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Role is the closed set of roles the portal API hands out.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole accepts only the exact role strings the portal API sends.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

func (r Role) String() string {
	return string(r)
}

// User is the account record returned by the portal API.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// UnmarshalJSON accepts numeric and string ids; the API is not consistent.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    json.RawMessage `json:"id"`
		Name  string          `json:"name"`
		Email string          `json:"email"`
		Role  string          `json:"role"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}

	u.ID = id
	u.Name = raw.Name
	u.Email = raw.Email
	u.Role = Role(raw.Role)
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10), nil
		}
		return n.String(), nil
	}

	return "", fmt.Errorf("unsupported id value: %s", string(raw))
}

// Session is a snapshot of the authentication state.
//
// Authenticated == false always comes with a nil User, and Authenticated ==
// true always comes with a User whose Role is valid. Only NewSession and
// Anonymous build sessions, so the pair cannot drift apart.
type Session struct {
	Authenticated bool
	User          *User
}

// Anonymous is the unauthenticated session.
func Anonymous() Session {
	return Session{}
}

// NewSession returns an authenticated session for u. A user without a known
// role cannot be authenticated.
func NewSession(u User) (Session, error) {
	role, ok := ParseRole(string(u.Role))
	if !ok {
		return Anonymous(), fmt.Errorf("invalid role %q", u.Role)
	}
	u.Role = role
	return Session{Authenticated: true, User: &u}, nil
}

// Role returns the session's role, or "" when unauthenticated.
func (s Session) Role() Role {
	if !s.Authenticated || s.User == nil {
		return ""
	}
	return s.User.Role
}

// clone copies the user so snapshots handed out never alias store state.
func (s Session) clone() Session {
	if s.User == nil {
		return Session{Authenticated: s.Authenticated}
	}
	u := *s.User
	return Session{Authenticated: s.Authenticated, User: &u}
}

// Overlay lays the fields present in raw (a JSON user object) over u. Fields
// raw leaves out keep their current values, so a login screen can start
// from what the user typed and let the server's answer win.
func (u User) Overlay(raw json.RawMessage) (User, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return u, nil
	}

	var partial struct {
		ID    json.RawMessage `json:"id"`
		Name  *string         `json:"name"`
		Email *string         `json:"email"`
		Role  *string         `json:"role"`
	}
	if err := json.Unmarshal(raw, &partial); err != nil {
		return u, fmt.Errorf("failed to decode user: %w", err)
	}

	if len(partial.ID) > 0 {
		id, err := decodeID(partial.ID)
		if err != nil {
			return u, err
		}
		u.ID = id
	}
	if partial.Name != nil {
		u.Name = *partial.Name
	}
	if partial.Email != nil {
		u.Email = *partial.Email
	}
	if partial.Role != nil {
		u.Role = Role(*partial.Role)
	}
	return u, nil
}
