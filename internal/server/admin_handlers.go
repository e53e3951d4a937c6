package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/skillportal/skillportal/internal/models"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// PageQuery is the page/limit pair of list endpoints
type PageQuery struct {
	Page  int `form:"page" json:"page" validate:"omitempty,min=1"`
	Limit int `form:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
}

func (p PageQuery) offset() int {
	return (p.Page - 1) * p.Limit
}

// pagination reads page and limit, answering 400 when they are invalid
func (s *Server) pagination(c *gin.Context) (PageQuery, bool) {
	var q PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, s.logger, http.StatusBadRequest, err, "page and limit must be numbers")
		return q, false
	}
	if err := s.validator.Struct(q); err != nil {
		respondWithError(c, s.logger, http.StatusBadRequest, err, validationMessage(err))
		return q, false
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = defaultPageLimit
	}
	return q, true
}

// CreateUserRequest represents a request to create a new user
type CreateUserRequest struct {
	Name     string `json:"name" validate:"notblank,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// UpdateUserRequest represents a request to edit a user
type UpdateUserRequest struct {
	Name  string `json:"name" validate:"notblank,max=100"`
	Email string `json:"email" validate:"required,email,max=254"`
	Role  string `json:"role" validate:"required,oneof=user admin"`
}

// SkillRequest represents a create or rename skill request
type SkillRequest struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

// QuestionRequest represents a create or edit question request
type QuestionRequest struct {
	SkillID       string   `json:"skill_id" validate:"required"`
	Question      string   `json:"question" validate:"notblank"`
	Options       []string `json:"options" validate:"min=2,max=6,dive,notblank"`
	CorrectAnswer string   `json:"correct_answer" validate:"notblank"`
}

func (s *Server) listUsers(c *gin.Context) {
	page, ok := s.pagination(c)
	if !ok {
		return
	}

	var total int64
	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to list users")
		return
	}

	var users []models.User
	if err := s.db.Order("created_at DESC, id DESC").Offset(page.offset()).Limit(page.Limit).Find(&users).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to list users")
		return
	}

	details := make([]*UserDetail, len(users))
	for i := range users {
		details[i] = newUserDetail(&users[i])
	}

	c.JSON(http.StatusOK, gin.H{"users": details, "page": page.Page, "limit": page.Limit, "total": total})
}

func (s *Server) createUser(c *gin.Context) {
	var req CreateUserRequest
	if !s.bind(c, &req) {
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}

	user, err := s.createAccount(req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			respondWithError(c, s.logger, http.StatusConflict, err, "Email already registered")
			return
		}
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to create user")
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Str("created_by", sessionData.UserID).
		Msg("User created")

	c.JSON(http.StatusCreated, gin.H{"user": newUserDetail(user)})
}

func (s *Server) updateUser(c *gin.Context) {
	var req UpdateUserRequest
	if !s.bind(c, &req) {
		return
	}

	userID := c.Param("id")
	sessionData, _ := GetSessionData(c)
	if userID == sessionData.UserID && req.Role != models.RoleAdmin {
		respondWithError(c, s.logger, http.StatusBadRequest, ErrNotAdmin, "You cannot remove your own admin role")
		return
	}

	var user models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := models.FindByID(tx, userID, &user); err != nil {
			return err
		}

		email := normalizeEmail(req.Email)
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}

		user.Name = strings.TrimSpace(req.Name)
		user.Email = email
		user.Role = req.Role
		return tx.Save(&user).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			respondWithError(c, s.logger, http.StatusNotFound, err, "User not found")
		case errors.Is(err, ErrEmailTaken):
			respondWithError(c, s.logger, http.StatusConflict, err, "Email already registered")
		default:
			respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to update user")
		}
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("updated_by", sessionData.UserID).Msg("User updated")
	c.JSON(http.StatusOK, gin.H{"user": newUserDetail(&user)})
}

func (s *Server) deleteUser(c *gin.Context) {
	userID := c.Param("id")

	sessionData, _ := GetSessionData(c)

	// Prevent deleting self
	if userID == sessionData.UserID {
		respondWithError(c, s.logger, http.StatusBadRequest, ErrNotAdmin, "You cannot delete your own account")
		return
	}

	var user models.User
	if err := models.FindByID(s.db, userID, &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondWithError(c, s.logger, http.StatusNotFound, err, "User not found")
			return
		}
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Internal server error")
		return
	}

	if err := s.db.Delete(&user).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to delete user")
		return
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("deleted_by", sessionData.UserID).
		Msg("User deleted")

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

func (s *Server) listSkills(c *gin.Context) {
	page, ok := s.pagination(c)
	if !ok {
		return
	}

	var total int64
	if err := s.db.Model(&models.Skill{}).Count(&total).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to list skills")
		return
	}

	var skills []models.Skill
	if err := s.db.Order("name ASC").Offset(page.offset()).Limit(page.Limit).Find(&skills).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to list skills")
		return
	}

	c.JSON(http.StatusOK, gin.H{"skills": skills, "page": page.Page, "limit": page.Limit, "total": total})
}

// saveSkill creates a skill or renames skill when it is not nil
func (s *Server) saveSkill(c *gin.Context, skill *models.Skill) bool {
	var req SkillRequest
	if !s.bind(c, &req) {
		return false
	}
	name := strings.TrimSpace(req.Name)

	var count int64
	if err := s.db.Model(&models.Skill{}).Where("LOWER(name) = LOWER(?) AND id <> ?", name, skill.ID).Count(&count).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to save skill")
		return false
	}
	if count > 0 {
		respondWithError(c, s.logger, http.StatusConflict, errors.New("duplicate skill"), "Skill already exists")
		return false
	}

	skill.Name = name
	if err := s.db.Save(skill).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to save skill")
		return false
	}
	return true
}

func (s *Server) createSkill(c *gin.Context) {
	var skill models.Skill
	if !s.saveSkill(c, &skill) {
		return
	}
	s.logger.Info().Str("skill_id", skill.ID).Str("name", skill.Name).Msg("Skill created")
	c.JSON(http.StatusCreated, gin.H{"skill": skill})
}

func (s *Server) updateSkill(c *gin.Context) {
	var skill models.Skill
	if err := models.FindByID(s.db, c.Param("id"), &skill); err != nil {
		s.respondNotFound(c, err, "Skill not found")
		return
	}
	if !s.saveSkill(c, &skill) {
		return
	}
	s.logger.Info().Str("skill_id", skill.ID).Str("name", skill.Name).Msg("Skill renamed")
	c.JSON(http.StatusOK, gin.H{"skill": skill})
}

func (s *Server) deleteSkill(c *gin.Context) {
	var skill models.Skill
	if err := models.FindByID(s.db, c.Param("id"), &skill); err != nil {
		s.respondNotFound(c, err, "Skill not found")
		return
	}

	// Questions and attempts go with the skill (ON DELETE CASCADE)
	if err := s.db.Delete(&skill).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to delete skill")
		return
	}

	s.logger.Info().Str("skill_id", skill.ID).Msg("Skill deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Skill deleted"})
}

func (s *Server) listQuestions(c *gin.Context) {
	page, ok := s.pagination(c)
	if !ok {
		return
	}

	query := s.db.Model(&models.Question{})
	if skillID := c.Query("skill_id"); skillID != "" {
		query = query.Where("skill_id = ?", skillID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to list questions")
		return
	}

	var questions []models.Question
	if err := query.Order("created_at ASC, id ASC").Offset(page.offset()).Limit(page.Limit).Find(&questions).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to list questions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": questions, "page": page.Page, "limit": page.Limit, "total": total})
}

// saveQuestion validates the body and stores it into question
func (s *Server) saveQuestion(c *gin.Context, question *models.Question) bool {
	var req QuestionRequest
	if !s.bind(c, &req) {
		return false
	}

	var skill models.Skill
	if err := models.FindByID(s.db, req.SkillID, &skill); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondWithError(c, s.logger, http.StatusBadRequest, err, "Skill not found")
			return false
		}
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to save question")
		return false
	}

	options := make([]string, len(req.Options))
	for i, opt := range req.Options {
		options[i] = strings.TrimSpace(opt)
	}

	question.SkillID = skill.ID
	question.Question = strings.TrimSpace(req.Question)
	question.Options = options
	question.CorrectAnswer = strings.TrimSpace(req.CorrectAnswer)

	if err := s.db.Save(question).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to save question")
		return false
	}
	return true
}

func (s *Server) createQuestion(c *gin.Context) {
	var question models.Question
	if !s.saveQuestion(c, &question) {
		return
	}
	s.logger.Info().Str("question_id", question.ID).Str("skill_id", question.SkillID).Msg("Question created")
	c.JSON(http.StatusCreated, gin.H{"question": question})
}

func (s *Server) updateQuestion(c *gin.Context) {
	var question models.Question
	if err := models.FindByID(s.db, c.Param("id"), &question); err != nil {
		s.respondNotFound(c, err, "Question not found")
		return
	}
	if !s.saveQuestion(c, &question) {
		return
	}
	s.logger.Info().Str("question_id", question.ID).Msg("Question updated")
	c.JSON(http.StatusOK, gin.H{"question": question})
}

func (s *Server) deleteQuestion(c *gin.Context) {
	var question models.Question
	if err := models.FindByID(s.db, c.Param("id"), &question); err != nil {
		s.respondNotFound(c, err, "Question not found")
		return
	}

	if err := s.db.Delete(&question).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to delete question")
		return
	}

	s.logger.Info().Str("question_id", question.ID).Msg("Question deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Question deleted"})
}

// respondNotFound maps a lookup error to 404, or 500 for anything else
func (s *Server) respondNotFound(c *gin.Context, err error, message string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondWithError(c, s.logger, http.StatusNotFound, err, message)
		return
	}
	respondWithError(c, s.logger, http.StatusInternalServerError, err, "Internal server error")
}
