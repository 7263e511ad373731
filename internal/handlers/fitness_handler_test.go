package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/services"
)

type stubFitnessService struct {
	err          error
	called       bool
	lastUserID   int64
	lastLogID    int64
	workoutInput services.WorkoutLogInput
	dietInput    services.DietLogInput
	dates        services.DateRange
}

func (s *stubFitnessService) record(userID int64) {
	s.called = true
	s.lastUserID = userID
}

func (s *stubFitnessService) LogWorkout(_ context.Context, userID int64, input services.WorkoutLogInput) (*models.WorkoutLog, error) {
	s.record(userID)
	s.workoutInput = input
	return &models.WorkoutLog{ID: 1, UserID: userID}, s.err
}

func (s *stubFitnessService) ListWorkoutLogs(_ context.Context, userID int64, dates services.DateRange) ([]models.WorkoutLog, error) {
	s.record(userID)
	s.dates = dates
	return []models.WorkoutLog{}, s.err
}

func (s *stubFitnessService) GetWorkoutLog(_ context.Context, userID int64, logID int64) (*models.WorkoutLog, error) {
	s.record(userID)
	s.lastLogID = logID
	return &models.WorkoutLog{ID: logID}, s.err
}

func (s *stubFitnessService) UpdateWorkoutLog(_ context.Context, userID int64, logID int64, input services.WorkoutLogInput) (*models.WorkoutLog, error) {
	s.record(userID)
	s.lastLogID = logID
	s.workoutInput = input
	return &models.WorkoutLog{ID: logID}, s.err
}

func (s *stubFitnessService) DeleteWorkoutLog(_ context.Context, userID int64, logID int64) error {
	s.record(userID)
	s.lastLogID = logID
	return s.err
}

func (s *stubFitnessService) LogMeal(_ context.Context, userID int64, input services.DietLogInput) (*models.DietLog, error) {
	s.record(userID)
	s.dietInput = input
	return &models.DietLog{ID: 1}, s.err
}

func (s *stubFitnessService) ListDietLogs(_ context.Context, userID int64, dates services.DateRange) ([]models.DietLog, error) {
	s.record(userID)
	s.dates = dates
	return []models.DietLog{}, s.err
}

func (s *stubFitnessService) GetDietLog(_ context.Context, userID int64, logID int64) (*models.DietLog, error) {
	s.record(userID)
	s.lastLogID = logID
	return &models.DietLog{ID: logID}, s.err
}

func (s *stubFitnessService) UpdateDietLog(_ context.Context, userID int64, logID int64, input services.DietLogInput) (*models.DietLog, error) {
	s.record(userID)
	s.lastLogID = logID
	s.dietInput = input
	return &models.DietLog{ID: logID}, s.err
}

func (s *stubFitnessService) DeleteDietLog(_ context.Context, userID int64, logID int64) error {
	s.record(userID)
	s.lastLogID = logID
	return s.err
}

func (s *stubFitnessService) Progress(_ context.Context, userID int64) (*models.Progress, error) {
	s.record(userID)
	return &models.Progress{ClientID: userID, ActivePlans: &models.ActivePlanCounts{}}, s.err
}

func (s *stubFitnessService) ListClients(context.Context) ([]models.User, error) {
	s.called = true
	return []models.User{{ID: 3, Role: models.RoleClient}}, s.err
}

func (s *stubFitnessService) GetClient(_ context.Context, clientID int64) (*models.User, error) {
	s.record(clientID)
	return &models.User{ID: clientID}, s.err
}

func (s *stubFitnessService) ClientWorkoutLogs(_ context.Context, clientID int64, dates services.DateRange) ([]models.WorkoutLog, error) {
	s.record(clientID)
	s.dates = dates
	return []models.WorkoutLog{}, s.err
}

func (s *stubFitnessService) ClientDietLogs(_ context.Context, clientID int64, dates services.DateRange) ([]models.DietLog, error) {
	s.record(clientID)
	s.dates = dates
	return []models.DietLog{}, s.err
}

func (s *stubFitnessService) ClientProgress(_ context.Context, clientID int64) (*models.Progress, error) {
	s.record(clientID)
	return &models.Progress{ClientID: clientID}, s.err
}

func TestCreateWorkoutLogParsesDate(t *testing.T) {
	service := &stubFitnessService{}
	app := newActorApp("42", models.RoleClient)
	app.Post("/workout-logs", NewFitnessHandler(service).CreateWorkoutLog)

	resp := doRequest(t, app, http.MethodPost, "/workout-logs", `{"workout_date":"2026-05-01","exercise_name":"Squat","sets":5,"weight":100.5}`)
	expectStatus(t, resp, http.StatusCreated)

	want := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	input := service.workoutInput
	if service.lastUserID != 42 || input.WorkoutDate == nil || !input.WorkoutDate.Equal(want) {
		t.Fatalf("unexpected forwarding %d %+v", service.lastUserID, input)
	}
	if input.ExerciseName == nil || *input.ExerciseName != "Squat" || input.Sets == nil || *input.Sets != 5 {
		t.Fatalf("unexpected input %+v", input)
	}
}

func TestCreateLogValidation(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
	}{
		{name: "missing date", target: "/workout-logs", body: `{"exercise_name":"Squat"}`},
		{name: "timestamp instead of date", target: "/workout-logs", body: `{"workout_date":"2026-05-01T10:00:00Z","exercise_name":"Squat"}`},
		{name: "negative sets", target: "/workout-logs", body: `{"workout_date":"2026-05-01","exercise_name":"Squat","sets":-1}`},
		{name: "unknown meal type", target: "/diet-logs", body: `{"meal_date":"2026-05-01","meal_type":"brunch","food_name":"Eggs"}`},
		{name: "missing food", target: "/diet-logs", body: `{"meal_date":"2026-05-01","meal_type":"lunch"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &stubFitnessService{}
			handler := NewFitnessHandler(service)
			app := newActorApp("42", models.RoleClient)
			app.Post("/workout-logs", handler.CreateWorkoutLog)
			app.Post("/diet-logs", handler.CreateDietLog)

			resp := doRequest(t, app, http.MethodPost, tt.target, tt.body)
			expectStatus(t, resp, http.StatusBadRequest)
			if service.called {
				t.Fatal("service must not be called")
			}
		})
	}
}

func TestListLogsForwardsDateRange(t *testing.T) {
	service := &stubFitnessService{}
	app := newActorApp("42", models.RoleClient)
	app.Get("/diet-logs", NewFitnessHandler(service).ListDietLogs)

	resp := doRequest(t, app, http.MethodGet, "/diet-logs?start_date=2026-04-01&end_date=2026-04-30", "")
	expectStatus(t, resp, http.StatusOK)
	if service.dates.From == nil || service.dates.To == nil || service.dates.To.Day() != 30 {
		t.Fatalf("unexpected range %+v", service.dates)
	}

	service = &stubFitnessService{}
	app = newActorApp("42", models.RoleClient)
	app.Get("/diet-logs", NewFitnessHandler(service).ListDietLogs)
	resp = doRequest(t, app, http.MethodGet, "/diet-logs?start_date=April", "")
	expectStatus(t, resp, http.StatusBadRequest)
	if service.called {
		t.Fatal("service must not be called for a bad date")
	}
}

func TestFitnessErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{name: "foreign log", err: services.ErrLogNotFound, status: http.StatusNotFound, msg: "Log entry not found"},
		{name: "reversed range", err: services.ErrInvalidInput, status: http.StatusBadRequest, msg: "Invalid request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &stubFitnessService{err: tt.err}
			app := newActorApp("42", models.RoleClient)
			app.Put("/workout-logs/:id", NewFitnessHandler(service).UpdateWorkoutLog)

			resp := doRequest(t, app, http.MethodPut, "/workout-logs/9", `{"reps":8}`)
			expectStatus(t, resp, tt.status)

			var body struct {
				Error string `json:"error"`
			}
			decodeBody(t, resp, &body)
			if body.Error != tt.msg {
				t.Fatalf("expected %q, got %q", tt.msg, body.Error)
			}
		})
	}
}

func TestDeleteLogReturnsNoContent(t *testing.T) {
	service := &stubFitnessService{}
	app := newActorApp("42", models.RoleClient)
	app.Delete("/workout-logs/:id", NewFitnessHandler(service).DeleteWorkoutLog)

	resp := doRequest(t, app, http.MethodDelete, "/workout-logs/9", "")
	expectStatus(t, resp, http.StatusNoContent)
	if service.lastLogID != 9 || service.lastUserID != 42 {
		t.Fatalf("unexpected delete %d by %d", service.lastLogID, service.lastUserID)
	}
}

func TestCoachClientViews(t *testing.T) {
	service := &stubFitnessService{}
	handler := NewFitnessHandler(service)
	app := newActorApp("8", models.RoleCoach)
	app.Get("/clients/:id/progress", handler.ClientProgress)
	app.Get("/clients/:id/workout-logs", handler.ClientWorkoutLogs)

	resp := doRequest(t, app, http.MethodGet, "/clients/3/progress", "")
	expectStatus(t, resp, http.StatusOK)
	var progress models.Progress
	decodeBody(t, resp, &progress)
	if progress.ClientID != 3 || service.lastUserID != 3 {
		t.Fatalf("unexpected progress %+v", progress)
	}

	service.err = services.ErrClientNotFound
	resp = doRequest(t, app, http.MethodGet, "/clients/12/workout-logs", "")
	expectStatus(t, resp, http.StatusNotFound)

	resp = doRequest(t, app, http.MethodGet, "/clients/abc/progress", "")
	expectStatus(t, resp, http.StatusBadRequest)
}
