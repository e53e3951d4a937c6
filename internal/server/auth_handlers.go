package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/skillportal/skillportal/internal/auth"
	"github.com/skillportal/skillportal/internal/models"
)

// RegisterRequest represents a self-registration request
type RegisterRequest struct {
	Name     string `json:"name" validate:"notblank,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func newUserDetail(u *models.User) *UserDetail {
	return &UserDetail{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// LoginResponse represents a login response. The token itself travels in
// the session cookie.
type LoginResponse struct {
	User    *UserDetail `json:"user"`
	Message string      `json:"message"`
}

// SessionResponse is the session introspection answer; User is null when
// the caller is not logged in
type SessionResponse struct {
	User *UserDetail `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// bind decodes the JSON body and validates it, answering 400 on failure
func (s *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondWithError(c, s.logger, http.StatusBadRequest, err, "Invalid request body")
		return false
	}
	if err := s.validator.Struct(req); err != nil {
		respondWithError(c, s.logger, http.StatusBadRequest, err, validationMessage(err))
		return false
	}
	return true
}

// createAccount stores a new user, answering ErrEmailTaken for a duplicate email
func (s *Server) createAccount(name, email, password, role string) (*models.User, error) {
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         role,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// register handles POST /api/{user|admin}/auth/register. Admin
// registration is open only while no admin exists, unless
// ALLOW_ADMIN_REGISTRATION is set.
func (s *Server) register(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if !s.bind(c, &req) {
			return
		}

		if role == models.RoleAdmin && !s.config.Server.AllowAdminRegistration {
			var admins int64
			if err := s.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
				respondWithError(c, s.logger, http.StatusInternalServerError, err, "Internal server error")
				return
			}
			if admins > 0 {
				respondWithError(c, s.logger, http.StatusForbidden, ErrNotAdmin, "Admin registration is closed")
				return
			}
		}

		user, err := s.createAccount(req.Name, req.Email, req.Password, role)
		if err != nil {
			if errors.Is(err, ErrEmailTaken) {
				respondWithError(c, s.logger, http.StatusConflict, err, "Email already registered")
				return
			}
			respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to create user")
			return
		}

		s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Str("role", role).Msg("User registered")

		c.JSON(http.StatusCreated, gin.H{
			"message": "Registration successful",
			"user":    newUserDetail(user),
		})
	}
}

// login handles POST /api/{user|admin}/auth/login. The admin endpoint
// rejects accounts without the admin role.
func (s *Server) login(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if !s.bind(c, &req) {
			return
		}

		var user models.User
		if err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.metrics.observeLogin(role, "invalid")
				respondWithError(c, s.logger, http.StatusUnauthorized, ErrUserNotFound, "Invalid email or password")
				return
			}
			respondWithError(c, s.logger, http.StatusInternalServerError, err, "Internal server error")
			return
		}

		if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
			s.metrics.observeLogin(role, "invalid")
			respondWithError(c, s.logger, http.StatusUnauthorized, err, "Invalid email or password")
			return
		}

		if role == models.RoleAdmin && !user.IsAdmin() {
			s.metrics.observeLogin(role, "forbidden")
			respondWithError(c, s.logger, http.StatusForbidden, ErrNotAdmin, "Admin access required")
			return
		}

		now := s.now()
		session := &models.Session{
			UserID:    user.ID,
			ExpiresAt: now.Add(s.config.Session.TTL),
			UserAgent: c.Request.UserAgent(),
			ClientIP:  c.ClientIP(),
		}
		if err := s.db.Create(session).Error; err != nil {
			respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to create session")
			return
		}

		token, err := auth.GenerateToken(session.ID, user.ID, user.Role, now, session.ExpiresAt)
		if err != nil {
			respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to generate token")
			return
		}

		s.setSessionCookie(c, token, int(s.config.Session.TTL.Seconds()))
		s.metrics.observeLogin(role, "success")

		s.logger.Info().Str("user_id", user.ID).Str("session_id", session.ID).Msg("User logged in")

		c.JSON(http.StatusOK, LoginResponse{
			User:    newUserDetail(&user),
			Message: "Login successful",
		})
	}
}

// getSession handles GET /api/user/auth/session
func (s *Server) getSession(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusOK, SessionResponse{})
		return
	}

	c.JSON(http.StatusOK, SessionResponse{User: &UserDetail{
		ID:    sessionData.UserID,
		Name:  sessionData.Name,
		Email: sessionData.Email,
		Role:  sessionData.Role,
	}})
}

// logout handles POST /api/user/auth/logout. It always succeeds; the
// session row, when there is one, is revoked.
func (s *Server) logout(c *gin.Context) {
	if sessionData, exists := GetSessionData(c); exists {
		now := s.now()
		err := s.db.Model(&models.Session{}).
			Where("id = ? AND revoked_at IS NULL", sessionData.SessionID).
			Update("revoked_at", &now).Error
		if err != nil {
			respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to end session")
			return
		}
		s.logger.Info().Str("user_id", sessionData.UserID).Str("session_id", sessionData.SessionID).Msg("User logged out")
	}

	s.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, value, maxAge, "/", "", s.config.Session.CookieSecure, true)
}
