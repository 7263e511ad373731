package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Rafi653/vibe-project/internal/models"
	"github.com/Rafi653/vibe-project/internal/services"
	"github.com/Rafi653/vibe-project/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

const (
	LocalUserID = "user_id"
	LocalRole   = "role"
)

// UserLookup loads the account a token was issued for.
type UserLookup interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

// AuthRequired accepts a valid bearer token whose account still exists and
// is active. The role placed in locals is the stored one, so role changes
// and disabling take effect before the token expires.
func AuthRequired(secret string, users UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		tokenString, ok := BearerToken(authHeader)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		user, err := ActiveUser(c.Context(), users, claims)
		if err != nil {
			return RejectUser(c, err)
		}

		SetIdentity(c, user)
		return c.Next()
	}
}

// OptionalAuth sets the caller's identity when a valid bearer token for an
// active account is present and lets the request through either way.
func OptionalAuth(secret string, users UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := BearerToken(c.Get("Authorization"))
		if !ok {
			return c.Next()
		}
		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			return c.Next()
		}
		if user, err := ActiveUser(c.Context(), users, claims); err == nil {
			SetIdentity(c, user)
		}
		return c.Next()
	}
}

// ActiveUser resolves the subject of claims. It returns
// services.ErrUserNotFound for unknown subjects and
// services.ErrAccountDisabled for inactive accounts.
func ActiveUser(ctx context.Context, users UserLookup, claims *utils.Claims) (*models.User, error) {
	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil || userID <= 0 {
		return nil, services.ErrUserNotFound
	}
	user, err := users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, services.ErrAccountDisabled
	}
	return user, nil
}

// RejectUser writes the response for an ActiveUser error.
func RejectUser(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	case errors.Is(err, services.ErrAccountDisabled):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Account is disabled"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to verify user"})
	}
}

func SetIdentity(c *fiber.Ctx, user *models.User) {
	c.Locals(LocalUserID, strconv.FormatInt(user.ID, 10))
	c.Locals(LocalRole, user.Role)
}

// RequireRoles must run after AuthRequired.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(LocalRole).(string)
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}
}

func BearerToken(header string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(header), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
