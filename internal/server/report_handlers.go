package server

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Report periods
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// PerformanceRow is one completed attempt in the user performance report
type PerformanceRow struct {
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Skill     string     `json:"skill"`
	Score     int        `json:"score"`
	Total     int        `json:"total"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

// SkillGapRow is the average score of one skill
type SkillGapRow struct {
	Skill    string  `json:"skill"`
	AvgScore float64 `json:"avg_score"`
	Attempts int     `json:"attempts"`
}

// PeriodRow is the average score of one week or month
type PeriodRow struct {
	Period   string  `json:"period"`
	AvgScore float64 `json:"avg_score"`
	Attempts int     `json:"attempts"`
}

// userPerformance handles GET /api/admin/reports/user-performance[?user_id=]
func (s *Server) userPerformance(c *gin.Context) {
	query := s.db.Table("attempts").
		Select("users.id AS user_id, users.name, users.email, skills.name AS skill, " +
			"attempts.score, attempts.total, attempts.started_at, attempts.ended_at").
		Joins("JOIN users ON users.id = attempts.user_id").
		Joins("JOIN skills ON skills.id = attempts.skill_id").
		Where("attempts.ended_at IS NOT NULL")
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("attempts.user_id = ?", userID)
	}

	rows := make([]PerformanceRow, 0)
	if err := query.Order("attempts.ended_at DESC").Scan(&rows).Error; err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to load user performance")
		return
	}

	c.JSON(http.StatusOK, gin.H{"attempts": rows})
}

// skillGap handles GET /api/admin/reports/skill-gap
func (s *Server) skillGap(c *gin.Context) {
	rows := make([]SkillGapRow, 0)
	err := s.db.Table("attempts").
		Select("skills.name AS skill, AVG(attempts.score) AS avg_score, COUNT(attempts.id) AS attempts").
		Joins("JOIN skills ON skills.id = attempts.skill_id").
		Where("attempts.ended_at IS NOT NULL").
		Group("skills.id, skills.name").
		Order("avg_score DESC, skills.name ASC").
		Scan(&rows).Error
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to load skill gap")
		return
	}

	for i := range rows {
		rows[i].AvgScore = round2(rows[i].AvgScore)
	}

	c.JSON(http.StatusOK, gin.H{"skills": rows})
}

// timeBased handles GET /api/admin/reports/time-based?period=week|month
func (s *Server) timeBased(c *gin.Context) {
	period := strings.ToLower(c.DefaultQuery("period", PeriodWeek))
	if period != PeriodWeek && period != PeriodMonth {
		respondWithError(c, s.logger, http.StatusBadRequest, errors.New("invalid period"), "period must be one of: week, month")
		return
	}

	var scored []scoredAttempt
	err := s.db.Table("attempts").
		Select("ended_at, score").
		Where("ended_at IS NOT NULL").
		Scan(&scored).Error
	if err != nil {
		respondWithError(c, s.logger, http.StatusInternalServerError, err, "Failed to load time-based report")
		return
	}

	c.JSON(http.StatusOK, gin.H{"periods": bucketByPeriod(scored, period)})
}

type scoredAttempt struct {
	EndedAt time.Time
	Score   int
}

// periodKey labels t as an ISO week ("2025-W31") or a month ("2025-08")
func periodKey(t time.Time, period string) string {
	t = t.UTC()
	if period == PeriodMonth {
		return t.Format("2006-01")
	}
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// bucketByPeriod averages scores per period, oldest period first
func bucketByPeriod(attempts []scoredAttempt, period string) []PeriodRow {
	type acc struct {
		sum   int
		count int
	}
	buckets := make(map[string]*acc)
	for _, a := range attempts {
		key := periodKey(a.EndedAt, period)
		b, ok := buckets[key]
		if !ok {
			b = &acc{}
			buckets[key] = b
		}
		b.sum += a.Score
		b.count++
	}

	rows := make([]PeriodRow, 0, len(buckets))
	for key, b := range buckets {
		rows = append(rows, PeriodRow{
			Period:   key,
			AvgScore: round2(float64(b.sum) / float64(b.count)),
			Attempts: b.count,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Period < rows[j].Period })
	return rows
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
