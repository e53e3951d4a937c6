package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/skillportal/skillportal/internal/models"
)

// QuizQuestion is a question without its answer
type QuizQuestion struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// SubmittedAnswer is one answer of a quiz submission
type SubmittedAnswer struct {
	QuestionID     string `json:"question_id" validate:"required"`
	SelectedAnswer string `json:"selected_answer"`
}

// SubmitQuizRequest is the quiz submission body
type SubmitQuizRequest struct {
	SkillID string            `json:"skill_id" validate:"required"`
	Answers []SubmittedAnswer `json:"answers" validate:"dive"`
}

// HistoryEntry is one completed attempt on the user dashboard
type HistoryEntry struct {
	Skill     string     `json:"skill"`
	Score     int        `json:"score"`
	Total     int        `json:"total"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

// dashboardSkills handles GET /api/user/dashboard/skills
func (s *Server) dashboardSkills(c *gin.Context) {
	var skills []models.Skill
	if err := s.db.Order("name ASC").Find(&skills).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to load skills")
		return
	}
	c.JSON(http.StatusOK, gin.H{"skills": skills})
}

// dashboardHistory handles GET /api/user/dashboard/history
func (s *Server) dashboardHistory(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	history := make([]HistoryEntry, 0)
	err := s.db.Table("attempts").
		Select("skills.name AS skill, attempts.score, attempts.total, attempts.started_at, attempts.ended_at").
		Joins("JOIN skills ON skills.id = attempts.skill_id").
		Where("attempts.user_id = ? AND attempts.ended_at IS NOT NULL", sessionData.UserID).
		Order("attempts.ended_at DESC").
		Scan(&history).Error
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to load history")
		return
	}

	c.JSON(http.StatusOK, gin.H{"attempts": history})
}

// quizQuestions handles GET /api/user/quiz/questions?skill_id=. Handing out
// the questions opens an attempt that the submission later completes.
func (s *Server) quizQuestions(c *gin.Context) {
	skillID := strings.TrimSpace(c.Query("skill_id"))
	if skillID == "" {
		respondWithError(c, s.logger, http.StatusBadRequest, errors.New("missing skill_id"), "skill_id is required")
		return
	}

	var skill models.Skill
	if err := models.FindByID(s.db, skillID, &skill); err != nil {
		s.respondNotFound(c, err, "Skill not found")
		return
	}

	var questions []models.Question
	if err := s.db.Where("skill_id = ?", skill.ID).Order("created_at ASC, id ASC").Find(&questions).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to load questions")
		return
	}

	out := make([]QuizQuestion, len(questions))
	for i, q := range questions {
		out[i] = QuizQuestion{ID: q.ID, Question: q.Question, Options: q.Options}
	}

	if len(questions) > 0 {
		sessionData, _ := GetSessionData(c)
		attempt := &models.Attempt{
			UserID:    sessionData.UserID,
			SkillID:   skill.ID,
			Total:     len(questions),
			StartedAt: s.now(),
		}
		if err := s.db.Create(attempt).Error; err != nil {
			respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to start quiz")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"questions": out})
}

// submitQuiz handles POST /api/user/quiz/submit. Every question of the
// skill counts toward the total; unanswered or unknown questions score
// nothing.
func (s *Server) submitQuiz(c *gin.Context) {
	var req SubmitQuizRequest
	if !s.bind(c, &req) {
		return
	}
	sessionData, _ := GetSessionData(c)

	var skill models.Skill
	if err := models.FindByID(s.db, req.SkillID, &skill); err != nil {
		s.respondNotFound(c, err, "Skill not found")
		return
	}

	var questions []models.Question
	if err := s.db.Where("skill_id = ?", skill.ID).Find(&questions).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to load questions")
		return
	}
	if len(questions) == 0 {
		respondWithError(c, s.logger, http.StatusBadRequest, errors.New("no questions"), "No questions available for this skill")
		return
	}

	answers, score := grade(questions, req.Answers)
	now := s.now()

	var attempt models.Attempt
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND skill_id = ? AND ended_at IS NULL", sessionData.UserID, skill.ID).
			Order("started_at DESC").
			First(&attempt).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			attempt = models.Attempt{UserID: sessionData.UserID, SkillID: skill.ID, StartedAt: now}
		} else if err != nil {
			return err
		}

		attempt.Score = score
		attempt.Total = len(questions)
		attempt.EndedAt = &now
		if err := tx.Save(&attempt).Error; err != nil {
			return err
		}

		for i := range answers {
			answers[i].AttemptID = attempt.ID
		}
		return tx.Create(&answers).Error
	})
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to submit quiz")
		return
	}

	s.logger.Info().
		Str("user_id", sessionData.UserID).
		Str("skill_id", skill.ID).
		Str("attempt_id", attempt.ID).
		Int("score", score).
		Int("total", len(questions)).
		Msg("Quiz submitted")

	c.JSON(http.StatusOK, gin.H{"score": score, "total": len(questions)})
}

// grade scores one answer per question of the skill. When a question is
// answered twice the last answer counts.
func grade(questions []models.Question, submitted []SubmittedAnswer) ([]models.AttemptAnswer, int) {
	selected := make(map[string]string, len(submitted))
	for _, a := range submitted {
		selected[a.QuestionID] = a.SelectedAnswer
	}

	answers := make([]models.AttemptAnswer, 0, len(questions))
	score := 0
	for _, q := range questions {
		choice, answered := selected[q.ID]
		correct := answered && strings.TrimSpace(choice) == q.CorrectAnswer
		if correct {
			score++
		}
		answers = append(answers, models.AttemptAnswer{
			QuestionID:     q.ID,
			SelectedAnswer: choice,
			Correct:        correct,
		})
	}
	return answers, score
}
