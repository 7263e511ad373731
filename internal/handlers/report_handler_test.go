package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/services"
)

type stubReportService struct {
	days int
	err  error
}

func (s *stubReportService) Usage(_ context.Context, days int) (*models.UsageReport, error) {
	s.days = days
	if s.err != nil {
		return nil, s.err
	}
	return &models.UsageReport{ReportPeriodDays: days, TopUsers: []models.TopUser{}}, nil
}

func TestUsageReportDays(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		err      error
		status   int
		wantDays int
	}{
		{name: "default window", target: "/reports/usage", status: http.StatusOK, wantDays: services.DefaultReportDays},
		{name: "explicit window", target: "/reports/usage?days=7", status: http.StatusOK, wantDays: 7},
		{name: "not a number", target: "/reports/usage?days=week", status: http.StatusBadRequest},
		{name: "out of range", target: "/reports/usage?days=0", err: services.ErrInvalidInput, status: http.StatusBadRequest, wantDays: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &stubReportService{err: tt.err}
			app := newActorApp("1", models.RoleAdmin)
			app.Get("/reports/usage", NewReportHandler(service).Usage)

			resp := doRequest(t, app, http.MethodGet, tt.target, "")
			expectStatus(t, resp, tt.status)
			if tt.status == http.StatusOK && service.days != tt.wantDays {
				t.Fatalf("expected %d days, got %d", tt.wantDays, service.days)
			}
		})
	}
}
