package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is a resource identifier. The API sends numbers for some resources and
// strings for others; both decode to the same text.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unsupported id value: %s", string(data))
	}
	if i, err := n.Int64(); err == nil {
		*id = ID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Options decodes question options sent either as a JSON array or as a
// JSON-encoded array inside a string.
type Options []string

func (o *Options) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*o = list
		return nil
	}

	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return fmt.Errorf("unsupported options value: %s", string(data))
	}
	if strings.TrimSpace(encoded) == "" {
		*o = nil
		return nil
	}
	if err := json.Unmarshal([]byte(encoded), &list); err != nil {
		return fmt.Errorf("failed to decode options: %w", err)
	}
	*o = list
	return nil
}

// Timestamp keeps the API's timestamp text and formats it for tables.
type Timestamp string

// Short renders "2025-08-01T10:30:00Z" as "2025-08-01 10:30".
func (t Timestamp) Short() string {
	s := string(t)
	if len(s) > 16 {
		s = s[:16]
	}
	return strings.Replace(s, "T", " ", 1)
}

// Time parses the timestamp, returning the zero time if it is not RFC 3339.
func (t Timestamp) Time() time.Time {
	parsed, err := time.Parse(time.RFC3339, string(t))
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// Account is a user as the admin endpoints return it
type Account struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// NewAccount is the admin "add user" form
type NewAccount struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AccountUpdate is the admin "edit user" form
type AccountUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Skill is a quiz topic
type Skill struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Question is a question as the admin endpoints return it
type Question struct {
	ID            ID      `json:"id"`
	SkillID       ID      `json:"skill_id"`
	Question      string  `json:"question"`
	Options       Options `json:"options"`
	CorrectAnswer string  `json:"correct_answer"`
}

// QuestionInput is the admin add/edit question form
type QuestionInput struct {
	SkillID       string   `json:"skill_id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// QuizQuestion is a question as a quiz taker sees it (no answer)
type QuizQuestion struct {
	ID       ID      `json:"id"`
	Question string  `json:"question"`
	Options  Options `json:"options"`
}

// Answer is one selected option
type Answer struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
}

// SubmitRequest is the quiz submission body
type SubmitRequest struct {
	SkillID string   `json:"skill_id"`
	Answers []Answer `json:"answers"`
}

// SubmitResult is the graded quiz
type SubmitResult struct {
	Score int `json:"score"`
	Total int `json:"total,omitempty"`
}

// Attempt is one row of the user's quiz history
type Attempt struct {
	Skill     string    `json:"skill"`
	Score     int       `json:"score"`
	StartedAt Timestamp `json:"started_at"`
	EndedAt   Timestamp `json:"ended_at"`
}

// PerformanceRow is one row of the user performance report
type PerformanceRow struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Skill     string    `json:"skill"`
	Score     int       `json:"score"`
	StartedAt Timestamp `json:"started_at"`
	EndedAt   Timestamp `json:"ended_at"`
}

// SkillGap is the average score for one skill
type SkillGap struct {
	Skill    string  `json:"skill"`
	AvgScore float64 `json:"avg_score"`
}

// PeriodScore is the average score for one week or month
type PeriodScore struct {
	Period   string  `json:"period"`
	AvgScore float64 `json:"avg_score"`
}

// Period selects the time-based report bucket
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod accepts week or month
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(s)) {
	case PeriodWeek:
		return PeriodWeek, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("invalid period '%s', must be one of: week, month", s)
	}
}
