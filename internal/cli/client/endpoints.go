package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/skillportal/skillportal/internal/session"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse keeps the server's user object raw so the caller can lay
// it over what it already knows (session.User.Overlay).
type LoginResponse struct {
	User    json.RawMessage `json:"user"`
	Message string          `json:"message,omitempty"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func authPath(role session.Role, action string) string {
	if role == session.RoleAdmin {
		return "/api/admin/auth/" + action
	}
	return "/api/user/auth/" + action
}

// Login posts credentials to the user or admin login endpoint. The server
// answers with a session cookie that lands in the jar.
func (c *Client) Login(ctx context.Context, role session.Role, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, authPath(role, "login"), LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return &resp, nil
}

// Register creates an account through the user or admin endpoint
func (c *Client) Register(ctx context.Context, role session.Role, req RegisterRequest) error {
	if err := c.do(ctx, http.MethodPost, authPath(role, "register"), req, nil); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return nil
}

// Logout ends the server-side session. Callers treat it as best effort.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/user/auth/logout", nil, nil)
}

// ListAccounts returns one page of users
func (c *Client) ListAccounts(ctx context.Context, page, limit int) ([]Account, error) {
	var resp struct {
		Users []Account `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, withQuery("/api/admin/users", pageQuery(page, limit)), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return resp.Users, nil
}

// CreateAccount adds a user
func (c *Client) CreateAccount(ctx context.Context, acct NewAccount) error {
	if err := c.do(ctx, http.MethodPost, "/api/admin/users", acct, nil); err != nil {
		return fmt.Errorf("failed to add user: %w", err)
	}
	return nil
}

// UpdateAccount edits a user's name, email and role
func (c *Client) UpdateAccount(ctx context.Context, id string, upd AccountUpdate) error {
	if err := c.do(ctx, http.MethodPut, "/api/admin/users/"+url.PathEscape(id), upd, nil); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// DeleteAccount removes a user
func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/admin/users/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// ListSkills returns one page of skills
func (c *Client) ListSkills(ctx context.Context, page, limit int) ([]Skill, error) {
	var resp struct {
		Skills []Skill `json:"skills"`
	}
	if err := c.do(ctx, http.MethodGet, withQuery("/api/admin/skills", pageQuery(page, limit)), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	return resp.Skills, nil
}

// CreateSkill adds a skill
func (c *Client) CreateSkill(ctx context.Context, name string) error {
	if err := c.do(ctx, http.MethodPost, "/api/admin/skills", map[string]string{"name": name}, nil); err != nil {
		return fmt.Errorf("failed to add skill: %w", err)
	}
	return nil
}

// RenameSkill changes a skill's name
func (c *Client) RenameSkill(ctx context.Context, id, name string) error {
	if err := c.do(ctx, http.MethodPut, "/api/admin/skills/"+url.PathEscape(id), map[string]string{"name": name}, nil); err != nil {
		return fmt.Errorf("failed to update skill: %w", err)
	}
	return nil
}

// DeleteSkill removes a skill
func (c *Client) DeleteSkill(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/admin/skills/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete skill: %w", err)
	}
	return nil
}

// ListQuestions returns one page of questions, optionally for one skill
func (c *Client) ListQuestions(ctx context.Context, page, limit int, skillID string) ([]Question, error) {
	q := pageQuery(page, limit)
	if skillID != "" {
		q.Set("skill_id", skillID)
	}

	var resp struct {
		Questions []Question `json:"questions"`
	}
	if err := c.do(ctx, http.MethodGet, withQuery("/api/admin/questions", q), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return resp.Questions, nil
}

// CreateQuestion adds a question
func (c *Client) CreateQuestion(ctx context.Context, in QuestionInput) error {
	if err := c.do(ctx, http.MethodPost, "/api/admin/questions", in, nil); err != nil {
		return fmt.Errorf("failed to add question: %w", err)
	}
	return nil
}

// UpdateQuestion replaces a question
func (c *Client) UpdateQuestion(ctx context.Context, id string, in QuestionInput) error {
	if err := c.do(ctx, http.MethodPut, "/api/admin/questions/"+url.PathEscape(id), in, nil); err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	return nil
}

// DeleteQuestion removes a question
func (c *Client) DeleteQuestion(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/admin/questions/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}

// QuizQuestions returns the questions of one skill's quiz
func (c *Client) QuizQuestions(ctx context.Context, skillID string) ([]QuizQuestion, error) {
	q := url.Values{}
	q.Set("skill_id", skillID)

	var resp struct {
		Questions []QuizQuestion `json:"questions"`
	}
	if err := c.do(ctx, http.MethodGet, withQuery("/api/user/quiz/questions", q), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	return resp.Questions, nil
}

// SubmitQuiz sends the answers and returns the score
func (c *Client) SubmitQuiz(ctx context.Context, skillID string, answers []Answer) (*SubmitResult, error) {
	if answers == nil {
		answers = []Answer{}
	}

	var resp SubmitResult
	if err := c.do(ctx, http.MethodPost, "/api/user/quiz/submit", SubmitRequest{SkillID: skillID, Answers: answers}, &resp); err != nil {
		return nil, fmt.Errorf("failed to submit quiz: %w", err)
	}
	return &resp, nil
}

// DashboardSkills returns the skills a user may take a quiz on
func (c *Client) DashboardSkills(ctx context.Context) ([]Skill, error) {
	var resp struct {
		Skills []Skill `json:"skills"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/dashboard/skills", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to load skills: %w", err)
	}
	return resp.Skills, nil
}

// DashboardHistory returns the user's past attempts
func (c *Client) DashboardHistory(ctx context.Context) ([]Attempt, error) {
	var resp struct {
		Attempts []Attempt `json:"attempts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/user/dashboard/history", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return resp.Attempts, nil
}

// UserPerformance returns every attempt, or one user's when userID is set
func (c *Client) UserPerformance(ctx context.Context, userID string) ([]PerformanceRow, error) {
	q := url.Values{}
	if userID != "" {
		q.Set("user_id", userID)
	}

	var resp struct {
		Attempts []PerformanceRow `json:"attempts"`
	}
	if err := c.do(ctx, http.MethodGet, withQuery("/api/admin/reports/user-performance", q), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to load user performance: %w", err)
	}
	return resp.Attempts, nil
}

// SkillGaps returns the average score per skill
func (c *Client) SkillGaps(ctx context.Context) ([]SkillGap, error) {
	var resp struct {
		Skills []SkillGap `json:"skills"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/admin/reports/skill-gap", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to load skill gap: %w", err)
	}
	return resp.Skills, nil
}

// TimeBased returns the average score per week or month
func (c *Client) TimeBased(ctx context.Context, period Period) ([]PeriodScore, error) {
	q := url.Values{}
	q.Set("period", string(period))

	var resp struct {
		Periods []PeriodScore `json:"periods"`
	}
	if err := c.do(ctx, http.MethodGet, withQuery("/api/admin/reports/time-based", q), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to load time-based report: %w", err)
	}
	return resp.Periods, nil
}
