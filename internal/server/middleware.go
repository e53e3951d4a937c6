package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skillportal/skillportal/internal/auth"
	"github.com/skillportal/skillportal/internal/models"
)

// SessionCookieName is the HTTP-only cookie carrying the session token
const SessionCookieName = "portal_session"

var (
	ErrNoSession       = errors.New("no session")
	ErrNotAdmin        = errors.New("not admin")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionInactive = errors.New("session expired or revoked")
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	event := log.Warn()
	if statusCode >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Str("path", c.Request.URL.Path).Msg(message)
	c.JSON(statusCode, gin.H{"message": message})
	c.Abort()
}

// SessionMiddleware resolves the session cookie, when present, into
// request session data. A missing or dead session leaves the request
// anonymous; RequireSession decides whether that is acceptable.
func SessionMiddleware(db *gorm.DB, log zerolog.Logger, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		sessionData, err := resolveSession(db, token, now())
		if err != nil {
			log.Debug().Err(err).Msg("Ignoring session cookie")
			c.Next()
			return
		}

		setSession(c, sessionData)
		c.Next()
	}
}

func resolveSession(db *gorm.DB, token string, now time.Time) (*auth.SessionData, error) {
	claims, err := auth.ValidateTokenAt(token, now)
	if err != nil {
		return nil, err
	}

	var row models.Session
	if err := db.Preload("User").Where("id = ?", claims.SessionID()).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !row.Active(now) {
		return nil, ErrSessionInactive
	}
	if row.User == nil || row.UserID != claims.UserID {
		return nil, ErrUserNotFound
	}

	// The role is read from the account, not the token, so a role change
	// applies to sessions that already exist.
	return &auth.SessionData{
		SessionID: row.ID,
		UserID:    row.User.ID,
		Name:      row.User.Name,
		Email:     row.User.Email,
		Role:      row.User.Role,
	}, nil
}

// RequireSession rejects anonymous requests
func RequireSession(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := GetSessionData(c); !exists {
			respondWithError(c, log, http.StatusUnauthorized, ErrNoSession, "Not logged in")
			return
		}
		c.Next()
	}
}

// AdminOnlyMiddleware ensures the authenticated user is an admin
func AdminOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, ErrNoSession, "Not logged in")
			return
		}

		if !sessionData.IsAdmin() {
			respondWithError(c, log, http.StatusForbidden, ErrNotAdmin, "Admin access required")
			return
		}

		c.Next()
	}
}
