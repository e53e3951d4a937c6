package auth

// SessionData represents the authenticated session context for a request
type SessionData struct {
	SessionID string `json:"-"`
	UserID    string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// IsAdmin reports whether the session belongs to an admin
func (s *SessionData) IsAdmin() bool {
	return s.Role == "admin"
}
