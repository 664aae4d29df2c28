package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/stickyboard/internal/dashboard"
	"github.com/sakif/stickyboard/internal/notefmt"
)

// DashboardService computes board statistics over every note and user.
type DashboardService struct {
	notes  *NoteService
	users  *AuthService
	logger *slog.Logger
	now    func() time.Time
}

// NewDashboardService creates a DashboardService using the wall clock.
func NewDashboardService(notes *NoteService, users *AuthService, logger *slog.Logger) *DashboardService {
	return &DashboardService{notes: notes, users: users, logger: logger, now: time.Now}
}

// Stats recomputes the statistics from scratch. Notes whose stored fields
// fail to decode are counted with their fallback values.
func (s *DashboardService) Stats(ctx context.Context) (dashboard.Stats, error) {
	notes, err := s.notes.ListAll(ctx)
	if err != nil {
		return dashboard.Stats{}, fmt.Errorf("service/dashboard: %w", err)
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return dashboard.Stats{}, fmt.Errorf("service/dashboard: %w", err)
	}

	parsed, perrs := notefmt.ParseAll(notes)
	for _, perr := range perrs {
		s.logger.Debug("recovered malformed note field", slog.String("error", perr.Error()))
	}
	return dashboard.Aggregate(parsed, users, s.now()), nil
}
