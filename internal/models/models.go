package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// Roles a portal account can have
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Settings is the singleton row holding server-generated secrets
type Settings struct {
	BaseModel
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"` // Auto-generated on first start (64 hex chars)
}

// User represents a portal account
type User struct {
	BaseModel
	Email        string    `json:"email" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Name         string    `json:"name"`
	Role         string    `json:"role" gorm:"not null;default:user;index"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsAdmin reports whether the account has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Skill is a quiz topic
type Skill struct {
	BaseModel
	Name string `json:"name" gorm:"unique;not null"`
}

// Question is a multiple choice question of one skill
type Question struct {
	BaseModel
	SkillID       string   `json:"skill_id" gorm:"not null;index"`
	Question      string   `json:"question" gorm:"type:text;not null"`
	Options       []string `json:"options" gorm:"serializer:json;not null"`
	CorrectAnswer string   `json:"correct_answer" gorm:"not null"`

	Skill *Skill `json:"-" gorm:"foreignKey:SkillID;constraint:OnDelete:CASCADE"`
}

// Attempt is one quiz run. It is opened when the questions are handed out
// and closed (EndedAt set) on submission.
type Attempt struct {
	BaseModel
	UserID    string     `json:"user_id" gorm:"not null;index"`
	SkillID   string     `json:"skill_id" gorm:"not null;index"`
	Score     int        `json:"score" gorm:"not null;default:0"`
	Total     int        `json:"total" gorm:"not null;default:0"`
	StartedAt time.Time  `json:"started_at" gorm:"not null"`
	EndedAt   *time.Time `json:"ended_at" gorm:"index"`

	User    *User           `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Skill   *Skill          `json:"-" gorm:"foreignKey:SkillID;constraint:OnDelete:CASCADE"`
	Answers []AttemptAnswer `json:"answers,omitempty" gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE"`
}

// AttemptAnswer is one graded answer of an attempt
type AttemptAnswer struct {
	BaseModel
	AttemptID      string `json:"attempt_id" gorm:"not null;index"`
	QuestionID     string `json:"question_id" gorm:"not null"`
	SelectedAnswer string `json:"selected_answer"`
	Correct        bool   `json:"correct" gorm:"not null;default:false"`
}

// Session is the server-side half of a login. The session cookie's JWT
// names it by ID (jti); revoking or expiring the row ends the login.
type Session struct {
	BaseModel
	UserID    string     `json:"user_id" gorm:"not null;index"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null;index"`
	RevokedAt *time.Time `json:"revoked_at"`
	UserAgent string     `json:"user_agent"`
	ClientIP  string     `json:"client_ip"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Active reports whether the session can still authenticate requests at now
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&Settings{}, &User{}, &Skill{}, &Question{}, &Attempt{}, &AttemptAnswer{}, &Session{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
