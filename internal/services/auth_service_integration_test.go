package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/repository"
	"github.com/Rafi653/vibe-project/pkg/utils"
)

func TestAuthServiceSignupLoginAndDisable(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)

	userRepo := repository.NewUserRepository(pool)
	auth := NewAuthService(pool, userRepo, "secret", time.Hour, 4)
	users := NewUserService(
		pool,
		userRepo,
		repository.NewBookingRepository(pool),
		repository.NewMessageRepository(pool),
		repository.NewFeedbackRepository(pool),
		repository.NewReportRepository(pool),
		4,
	)

	email := fmt.Sprintf("Vibe-Auth-%d@Example.com", time.Now().UnixNano())
	signedUp, err := auth.Signup(ctx, SignupInput{
		Email:    email,
		Password: "longenough",
		FullName: "Casey Coach",
		Role:     models.RoleCoach,
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	adminID := createTestAccount(t, ctx, pool, models.RoleAdmin, 0)
	t.Cleanup(func() {
		cleanupTestUsers(t, context.Background(), pool, signedUp.User.ID, adminID)
	})

	claims, err := utils.ValidateToken(signedUp.Token, "secret")
	if err != nil || claims.Role != models.RoleCoach {
		t.Fatalf("unexpected token claims %+v: %v", claims, err)
	}

	profile, err := repository.NewCoachProfileRepository(pool).GetByUserID(ctx, signedUp.User.ID)
	if err != nil {
		t.Fatalf("coach profile should exist: %v", err)
	}
	if profile.AvailableSlots != 4 || profile.TotalSlots != 4 {
		t.Fatalf("unexpected slots %d/%d", profile.AvailableSlots, profile.TotalSlots)
	}

	if _, err := auth.Signup(ctx, SignupInput{Email: email, Password: "longenough", FullName: "Dup", Role: models.RoleClient}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := auth.Login(ctx, email, "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := auth.Login(ctx, email, "longenough"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := users.DisableUser(ctx, adminID, adminID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("admins must not disable themselves, got %v", err)
	}
	if _, err := users.DisableUser(ctx, adminID, signedUp.User.ID); err != nil {
		t.Fatalf("DisableUser: %v", err)
	}
	if _, err := auth.Login(ctx, email, "longenough"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}
