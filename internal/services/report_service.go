package services

import (
	"context"
	"time"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/repository"
)

const (
	DefaultReportDays = 30
	maxReportDays     = 365
	topUsersLimit     = 5
)

type ReportService struct {
	reports *repository.ReportRepository
	now     func() time.Time
}

func NewReportService(reports *repository.ReportRepository) *ReportService {
	return &ReportService{reports: reports, now: time.Now}
}

// Usage reports sign-ups, logging and plan creation over the last days
// days, plus the five most active loggers in that window.
func (s *ReportService) Usage(ctx context.Context, days int) (*models.UsageReport, error) {
	if days < 1 || days > maxReportDays {
		return nil, ErrInvalidInput
	}

	end := calendarDay(s.now())
	start := end.AddDate(0, 0, -days)
	report := &models.UsageReport{
		ReportPeriodDays: days,
		StartDate:        start,
		EndDate:          end,
	}
	if err := s.reports.Usage(ctx, start, report); err != nil {
		return nil, err
	}

	topUsers, err := s.reports.TopWorkoutUsers(ctx, start, topUsersLimit)
	if err != nil {
		return nil, err
	}
	report.TopUsers = topUsers
	return report, nil
}
