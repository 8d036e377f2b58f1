package auth

import (
	"fmt"
	"strings"

	"pos-backend/internal/config"
	"pos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const (
	CtxUserKey    = "principal"
	CtxOutletsKey = "outlet_scope"
)

// Middleware resolves the bearer token into a principal and attaches
// the principal's outlet scope: owners see every outlet, manager and
// staff see the single outlet they are linked to. Downstream handlers
// read both from locals instead of re-resolving.
func Middleware(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization header is missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization header must be 'Bearer <token>'")
		}

		token, err := jwt.ParseWithClaims(parts[1], &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token claims")
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "account no longer exists")
		}

		outlets, err := resolveOutletScope(db, &user)
		if err != nil {
			return err
		}

		c.Locals(CtxUserKey, user)
		c.Locals(CtxOutletsKey, outlets)

		return c.Next()
	}
}

func resolveOutletScope(db *gorm.DB, user *models.User) ([]models.Outlet, error) {
	switch user.Role {
	case models.RoleOwner:
		var outlets []models.Outlet
		if err := db.Find(&outlets).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load outlets")
		}
		return outlets, nil

	case models.RoleManager, models.RoleStaff:
		var link models.UserOutlet
		if err := db.Where("user_id = ?", user.ID).First(&link).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusNotFound, "user is not linked to any outlet")
		}
		var outlet models.Outlet
		if err := db.First(&outlet, link.OutletID).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusNotFound, "outlet not found")
		}
		return []models.Outlet{outlet}, nil

	default:
		return nil, fiber.NewError(fiber.StatusForbidden, "unknown role")
	}
}

// Principal returns the authenticated user stored by Middleware.
func Principal(c *fiber.Ctx) (models.User, error) {
	user, ok := c.Locals(CtxUserKey).(models.User)
	if !ok {
		return models.User{}, fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	return user, nil
}

// OutletScope returns the outlets the principal may act on.
func OutletScope(c *fiber.Ctx) []models.Outlet {
	outlets, _ := c.Locals(CtxOutletsKey).([]models.Outlet)
	return outlets
}

// PrimaryOutlet returns the single outlet of a manager/staff
// principal.
func PrimaryOutlet(c *fiber.Ctx) (models.Outlet, error) {
	outlets := OutletScope(c)
	if len(outlets) == 0 {
		return models.Outlet{}, fiber.NewError(fiber.StatusNotFound, "no outlet in scope")
	}
	return outlets[0], nil
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := Principal(c)
		if err != nil {
			return err
		}
		for _, r := range allowedRoles {
			if r == user.Role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "insufficient role for this operation")
	}
}

// RequireOpenOutlet rejects manager/staff requests when their outlet
// is inactive. Owners pass; their scope spans outlets in any state.
func RequireOpenOutlet() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := Principal(c)
		if err != nil {
			return err
		}
		if user.Role == models.RoleOwner {
			return c.Next()
		}
		outlet, err := PrimaryOutlet(c)
		if err != nil {
			return err
		}
		if outlet.Status == models.OutletInactive {
			return fiber.NewError(fiber.StatusBadRequest, "outlet is closed")
		}
		return c.Next()
	}
}
