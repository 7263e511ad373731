package services

import (
	"context"
	"errors"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/repository"
	"github.com/Rafi653/vibe-project/pkg/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const minPasswordLength = 8

type AuthService struct {
	db           *pgxpool.Pool
	userRepo     *repository.UserRepository
	jwtSecret    string
	tokenTTL     time.Duration
	defaultSlots int
}

func NewAuthService(
	db *pgxpool.Pool,
	userRepo *repository.UserRepository,
	jwtSecret string,
	tokenTTL time.Duration,
	defaultSlots int,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = utils.DefaultTokenTTL
	}
	return &AuthService{
		db:           db,
		userRepo:     userRepo,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
		defaultSlots: defaultSlots,
	}
}

type SignupInput struct {
	Email    string
	Password string
	FullName string
	Role     string
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// NormalizeEmail lowercases a parsed address and rejects anything that is
// not a bare mailbox.
func NormalizeEmail(raw string) (string, error) {
	parsed, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrInvalidInput
	}
	return strings.ToLower(parsed.Address), nil
}

// Signup creates a client or coach account. Coaches get a profile with the
// default number of bookable slots in the same transaction.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	email, err := NormalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" || len(input.Password) < minPasswordLength {
		return nil, ErrInvalidInput
	}
	if input.Role != models.RoleClient && input.Role != models.RoleCoach {
		return nil, ErrInvalidInput
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hashed,
		FullName:     fullName,
		Role:         input.Role,
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := repository.NewUserRepository(tx).CreateUser(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	if user.Role == models.RoleCoach {
		if err := repository.NewCoachProfileRepository(tx).Create(ctx, user.ID, s.defaultSlots); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (*AuthResult, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := utils.GenerateTokenWithTTL(strconv.FormatInt(user.ID, 10), user.Role, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}
