package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

func newIntegrationFitnessServices(pool *pgxpool.Pool) (*FitnessService, *PlanService, *ReportService) {
	workoutPlans := repository.NewWorkoutPlanRepository(pool)
	dietPlans := repository.NewDietPlanRepository(pool)
	users := repository.NewUserRepository(pool)
	fitness := NewFitnessService(
		repository.NewWorkoutLogRepository(pool),
		repository.NewDietLogRepository(pool),
		workoutPlans,
		dietPlans,
		users,
	)
	return fitness, NewPlanService(workoutPlans, dietPlans, users), NewReportService(repository.NewReportRepository(pool))
}

func TestFitnessServiceLogsAreScopedToOwner(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	fitness, _, _ := newIntegrationFitnessServices(pool)

	ownerID := createTestAccount(t, ctx, pool, models.RoleClient, 0)
	otherID := createTestAccount(t, ctx, pool, models.RoleClient, 0)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, ownerID, otherID) })

	today := calendarDay(time.Now())
	lastWeek := today.AddDate(0, 0, -7)
	squat, bench := "Squat", "Bench press"
	sets := 5

	recent, err := fitness.LogWorkout(ctx, ownerID, WorkoutLogInput{WorkoutDate: &today, ExerciseName: &squat, Sets: &sets})
	if err != nil {
		t.Fatalf("LogWorkout: %v", err)
	}
	if _, err := fitness.LogWorkout(ctx, ownerID, WorkoutLogInput{WorkoutDate: &lastWeek, ExerciseName: &bench}); err != nil {
		t.Fatalf("LogWorkout: %v", err)
	}

	logs, err := fitness.ListWorkoutLogs(ctx, ownerID, DateRange{})
	if err != nil {
		t.Fatalf("ListWorkoutLogs: %v", err)
	}
	if len(logs) != 2 || logs[0].ID != recent.ID {
		t.Fatalf("expected newest-first logs, got %+v", logs)
	}

	yesterday := today.AddDate(0, 0, -1)
	logs, err = fitness.ListWorkoutLogs(ctx, ownerID, DateRange{From: &yesterday})
	if err != nil {
		t.Fatalf("ListWorkoutLogs with range: %v", err)
	}
	if len(logs) != 1 || logs[0].ExerciseName != squat {
		t.Fatalf("expected only today's log, got %+v", logs)
	}

	if _, err := fitness.GetWorkoutLog(ctx, otherID, recent.ID); !errors.Is(err, ErrLogNotFound) {
		t.Fatalf("expected ErrLogNotFound for another client's log, got %v", err)
	}
	if _, err := fitness.UpdateWorkoutLog(ctx, otherID, recent.ID, WorkoutLogInput{Sets: &sets}); !errors.Is(err, ErrLogNotFound) {
		t.Fatalf("expected ErrLogNotFound on foreign update, got %v", err)
	}
	if err := fitness.DeleteWorkoutLog(ctx, otherID, recent.ID); !errors.Is(err, ErrLogNotFound) {
		t.Fatalf("expected ErrLogNotFound on foreign delete, got %v", err)
	}

	reps := 8
	updated, err := fitness.UpdateWorkoutLog(ctx, ownerID, recent.ID, WorkoutLogInput{Reps: &reps})
	if err != nil {
		t.Fatalf("UpdateWorkoutLog: %v", err)
	}
	if updated.Reps == nil || *updated.Reps != reps || updated.Sets == nil || *updated.Sets != sets {
		t.Fatalf("partial update lost fields: %+v", updated)
	}

	if err := fitness.DeleteWorkoutLog(ctx, ownerID, recent.ID); err != nil {
		t.Fatalf("DeleteWorkoutLog: %v", err)
	}
	if _, err := fitness.GetWorkoutLog(ctx, ownerID, recent.ID); !errors.Is(err, ErrLogNotFound) {
		t.Fatalf("expected deleted log to be gone, got %v", err)
	}
}

func TestPlanServiceCoachOwnershipAndClientVisibility(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	_, plans, _ := newIntegrationFitnessServices(pool)

	coachID := createTestAccount(t, ctx, pool, models.RoleCoach, 2)
	otherCoachID := createTestAccount(t, ctx, pool, models.RoleCoach, 2)
	clientID := createTestAccount(t, ctx, pool, models.RoleClient, 0)
	otherClientID := createTestAccount(t, ctx, pool, models.RoleClient, 0)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, coachID, otherCoachID, clientID, otherClientID) })

	name := "Strength block"
	start := calendarDay(time.Now())
	input := WorkoutPlanInput{
		Name:           &name,
		StartDate:      &start,
		WorkoutDetails: json.RawMessage(`{"monday":["squat"]}`),
	}

	if _, err := plans.CreateWorkoutPlan(ctx, coachID, otherCoachID, input); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound for a coach target, got %v", err)
	}

	plan, err := plans.CreateWorkoutPlan(ctx, coachID, clientID, input)
	if err != nil {
		t.Fatalf("CreateWorkoutPlan: %v", err)
	}
	if plan.Status != models.PlanActive || plan.CoachID == nil || *plan.CoachID != coachID {
		t.Fatalf("unexpected plan %+v", plan)
	}

	paused := models.PlanPaused
	if _, err := plans.UpdateWorkoutPlan(ctx, otherCoachID, plan.ID, WorkoutPlanInput{Status: &paused}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another coach, got %v", err)
	}
	updated, err := plans.UpdateWorkoutPlan(ctx, coachID, plan.ID, WorkoutPlanInput{Status: &paused})
	if err != nil {
		t.Fatalf("UpdateWorkoutPlan: %v", err)
	}
	if updated.Status != models.PlanPaused || updated.Name != name {
		t.Fatalf("unexpected update %+v", updated)
	}

	if _, err := plans.MyWorkoutPlan(ctx, clientID, plan.ID); err != nil {
		t.Fatalf("client must see own plan: %v", err)
	}
	if _, err := plans.MyWorkoutPlan(ctx, otherClientID, plan.ID); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound for another client, got %v", err)
	}

	listed, err := plans.ListWorkoutPlans(ctx, otherCoachID, 0)
	if err != nil {
		t.Fatalf("ListWorkoutPlans: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("another coach must not list this plan, got %+v", listed)
	}

	if err := plans.DeleteWorkoutPlan(ctx, coachID, plan.ID); err != nil {
		t.Fatalf("DeleteWorkoutPlan: %v", err)
	}
	if _, err := plans.MyWorkoutPlan(ctx, clientID, plan.ID); !errors.Is(err, ErrPlanNotFound) {
		t.Fatalf("expected deleted plan to be gone, got %v", err)
	}
}

func TestFitnessServiceProgressAndUsageReport(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	fitness, plans, reports := newIntegrationFitnessServices(pool)

	coachID := createTestAccount(t, ctx, pool, models.RoleCoach, 2)
	clientID := createTestAccount(t, ctx, pool, models.RoleClient, 0)
	t.Cleanup(func() { cleanupTestUsers(t, ctx, pool, coachID, clientID) })

	today := calendarDay(time.Now())
	longAgo := today.AddDate(0, 0, -45)
	squat, oats, breakfast := "Squat", "Oats", models.MealBreakfast
	for _, date := range []time.Time{today, today, longAgo} {
		if _, err := fitness.LogWorkout(ctx, clientID, WorkoutLogInput{WorkoutDate: &date, ExerciseName: &squat}); err != nil {
			t.Fatalf("LogWorkout: %v", err)
		}
	}
	if _, err := fitness.LogMeal(ctx, clientID, DietLogInput{MealDate: &today, MealType: &breakfast, FoodName: &oats}); err != nil {
		t.Fatalf("LogMeal: %v", err)
	}
	name := "Lean bulk"
	if _, err := plans.CreateDietPlan(ctx, coachID, clientID, DietPlanInput{Name: &name, StartDate: &today}); err != nil {
		t.Fatalf("CreateDietPlan: %v", err)
	}

	progress, err := fitness.Progress(ctx, clientID)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if progress.Last30Days.WorkoutSessions != 2 || progress.Last30Days.DietLogs != 1 {
		t.Fatalf("unexpected recent activity %+v", progress.Last30Days)
	}
	if progress.ActivePlans == nil || progress.ActivePlans.DietPlans != 1 || progress.ActivePlans.WorkoutPlans != 0 {
		t.Fatalf("unexpected active plans %+v", progress.ActivePlans)
	}

	coachView, err := fitness.ClientProgress(ctx, clientID)
	if err != nil {
		t.Fatalf("ClientProgress: %v", err)
	}
	if coachView.ActivePlans != nil || coachView.Last30Days != progress.Last30Days {
		t.Fatalf("unexpected coach view %+v", coachView)
	}
	if _, err := fitness.ClientProgress(ctx, coachID); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound for a coach id, got %v", err)
	}

	report, err := reports.Usage(ctx, 30)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if report.WorkoutsLogged < 2 || report.DietLogs < 1 || report.DietPlans < 1 || report.NewUsers < 2 {
		t.Fatalf("report misses this test's activity: %+v", report)
	}
	if len(report.TopUsers) > topUsersLimit {
		t.Fatalf("expected at most %d top users, got %d", topUsersLimit, len(report.TopUsers))
	}
	if _, err := reports.Usage(ctx, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero days, got %v", err)
	}
}
