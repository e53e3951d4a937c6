package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skillportal/skillportal/internal/models"
)

// DefaultStaleAttemptAge is how long a quiz may stay open before the sweeper
// discards it as abandoned
const DefaultStaleAttemptAge = 24 * time.Hour

// SweepResult counts what one sweep removed
type SweepResult struct {
	Sessions int64
	Attempts int64
}

// SessionSweeper periodically deletes expired or revoked login sessions and
// quiz attempts that were opened but never submitted
type SessionSweeper struct {
	db              *gorm.DB
	logger          zerolog.Logger
	cron            *cron.Cron
	staleAttemptAge time.Duration
	now             func() time.Time
	removed         *prometheus.CounterVec
}

// SweeperOption configures a SessionSweeper
type SweeperOption func(*SessionSweeper)

// WithStaleAttemptAge overrides DefaultStaleAttemptAge
func WithStaleAttemptAge(d time.Duration) SweeperOption {
	return func(s *SessionSweeper) {
		s.staleAttemptAge = d
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) SweeperOption {
	return func(s *SessionSweeper) {
		s.now = now
	}
}

// WithRegisterer exports the removal counter on reg
func WithRegisterer(reg prometheus.Registerer) SweeperOption {
	return func(s *SessionSweeper) {
		s.removed = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "sweeper",
			Name:      "removed_total",
			Help:      "Rows removed by the session sweeper by kind.",
		}, []string{"kind"})
		reg.MustRegister(s.removed)
	}
}

// NewSessionSweeper parses schedule (standard 5-field cron or a descriptor
// such as "@every 15m") and prepares the job. Start runs it.
func NewSessionSweeper(db *gorm.DB, logger zerolog.Logger, schedule string, opts ...SweeperOption) (*SessionSweeper, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	s := &SessionSweeper{
		db:              db,
		logger:          logger,
		staleAttemptAge: DefaultStaleAttemptAge,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.cron = cron.New(cron.WithParser(parser))
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("failed to schedule sweeper: %w", err)
	}
	return s, nil
}

// Start runs one sweep immediately and then follows the schedule
func (s *SessionSweeper) Start() {
	s.run()
	s.cron.Start()
}

// Stop stops the schedule and waits for a running sweep to finish
func (s *SessionSweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("Timed out waiting for session sweep to finish")
	}
}

func (s *SessionSweeper) run() {
	result, err := s.Sweep()
	if err != nil {
		s.logger.Error().Err(err).Msg("Session sweep failed")
		return
	}
	if result.Sessions > 0 || result.Attempts > 0 {
		s.logger.Info().
			Int64("sessions", result.Sessions).
			Int64("attempts", result.Attempts).
			Msg("Session sweep removed stale rows")
		return
	}
	s.logger.Debug().Msg("Session sweep found nothing to remove")
}

// Sweep removes stale rows once
func (s *SessionSweeper) Sweep() (SweepResult, error) {
	now := s.now()
	var result SweepResult

	sessions := s.db.Where("expires_at <= ? OR revoked_at IS NOT NULL", now).Delete(&models.Session{})
	if sessions.Error != nil {
		return result, fmt.Errorf("failed to delete stale sessions: %w", sessions.Error)
	}
	result.Sessions = sessions.RowsAffected

	attempts := s.db.Where("ended_at IS NULL AND started_at <= ?", now.Add(-s.staleAttemptAge)).Delete(&models.Attempt{})
	if attempts.Error != nil {
		return result, fmt.Errorf("failed to delete abandoned attempts: %w", attempts.Error)
	}
	result.Attempts = attempts.RowsAffected

	if s.removed != nil {
		s.removed.WithLabelValues("session").Add(float64(result.Sessions))
		s.removed.WithLabelValues("attempt").Add(float64(result.Attempts))
	}
	return result, nil
}
