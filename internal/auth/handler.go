package auth

import (
	"strings"

	"pos-backend/internal/config"
	"pos-backend/internal/models"
	"pos-backend/internal/web"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type SignupRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupHandler registers a staff account. Manager accounts are
// created by an owner through the user module instead.
func SignupHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SignupRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if body.Email == "" || body.Password == "" || body.Fullname == "" {
			return fiber.NewError(fiber.StatusBadRequest, "fullname, email and password are required")
		}
		if len(body.Password) < 8 {
			return fiber.NewError(fiber.StatusBadRequest, "password must be at least 8 characters")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
		}

		user := models.User{
			Fullname:     body.Fullname,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.RoleStaff,
			Address:      body.Address,
			Phone:        body.Phone,
		}

		if err := db.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "email is already registered")
		}

		return web.Success(c, fiber.StatusCreated, user)
	}
}

func SigninHandler(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SigninRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := db.Where("email = ?", body.Email).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong email or password")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong email or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to issue token")
		}

		return web.Success(c, fiber.StatusOK, fiber.Map{
			"token": token,
			"user":  user,
		})
	}
}
