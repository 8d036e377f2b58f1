package user

import (
	"strings"

	"pos-backend/internal/models"
	"pos-backend/internal/saga"
	"pos-backend/internal/web"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateManagerRequest struct {
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	PhotoURL string `json:"photo_url"`
	OutletID uint   `json:"outlet_id"`
}

type UpdateManagerRequest struct {
	Fullname *string `json:"fullname"`
	Address  *string `json:"address"`
	Phone    *string `json:"phone"`
	PhotoURL *string `json:"photo_url"`
}

type AddUserToOutletRequest struct {
	OutletID uint `json:"outlet_id"`
}

func ListManagersHandler(db *gorm.DB) fiber.Handler {
	return listByRoleHandler(db, models.RoleManager)
}

func ListStaffsHandler(db *gorm.DB) fiber.Handler {
	return listByRoleHandler(db, models.RoleStaff)
}

func listByRoleHandler(db *gorm.DB, role models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := db.Where("role = ?", role).Order("id").Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load users")
		}
		return web.Success(c, fiber.StatusOK, users)
	}
}

// CreateManagerHandler creates the account row, then links it to its
// outlet, as a saga: if the link fails the account row is deleted
// again instead of leaving a manager nobody can sign in as.
func CreateManagerHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateManagerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if body.Email == "" || body.Password == "" || body.Fullname == "" {
			return fiber.NewError(fiber.StatusBadRequest, "fullname, email and password are required")
		}
		if body.OutletID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "outlet_id is required")
		}

		var outlet models.Outlet
		if err := db.First(&outlet, body.OutletID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "outlet not found")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
		}

		manager := models.User{
			Fullname:     body.Fullname,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         models.RoleManager,
			Address:      body.Address,
			Phone:        body.Phone,
			PhotoURL:     body.PhotoURL,
		}
		var link models.UserOutlet

		err = saga.New(
			saga.Step{
				Name: "create account",
				Run: func() error {
					return db.Create(&manager).Error
				},
				Compensate: func() error {
					return db.Delete(&models.User{}, manager.ID).Error
				},
			},
			saga.Step{
				Name: "link outlet",
				Run: func() error {
					link = models.UserOutlet{UserID: manager.ID, OutletID: outlet.ID}
					return db.Create(&link).Error
				},
				Compensate: func() error {
					return db.Delete(&models.UserOutlet{}, link.ID).Error
				},
			},
		).Execute()
		if err != nil {
			return fiber.NewError(fiber.StatusConflict, "failed to create manager: "+err.Error())
		}

		return web.Success(c, fiber.StatusCreated, manager)
	}
}

func UpdateManagerHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
		}

		var body UpdateManagerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		var manager models.User
		if err := db.Where("id = ? AND role = ?", id, models.RoleManager).First(&manager).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "manager not found")
		}

		if body.Fullname != nil {
			manager.Fullname = *body.Fullname
		}
		if body.Address != nil {
			manager.Address = *body.Address
		}
		if body.Phone != nil {
			manager.Phone = *body.Phone
		}
		if body.PhotoURL != nil {
			manager.PhotoURL = *body.PhotoURL
		}

		if err := db.Save(&manager).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to update manager")
		}

		return web.Success(c, fiber.StatusOK, manager)
	}
}

// DeleteManagerHandler removes the outlet link first, then the account
// row. A dangling link would block re-linking the outlet later.
func DeleteManagerHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
		}

		var manager models.User
		if err := db.Where("id = ? AND role = ?", id, models.RoleManager).First(&manager).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "manager not found")
		}

		if err := db.Where("user_id = ?", manager.ID).Delete(&models.UserOutlet{}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to unlink outlet")
		}
		if err := db.Delete(&manager).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to delete manager")
		}

		return web.Success(c, fiber.StatusOK, fiber.Map{"deleted": manager.ID})
	}
}

// AddUserToOutletHandler links an existing manager/staff account to an
// outlet. Each account may only be linked once.
func AddUserToOutletHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
		}

		var body AddUserToOutletRequest
		if err := c.BodyParser(&body); err != nil || body.OutletID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "outlet_id is required")
		}

		var target models.User
		if err := db.First(&target, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		if target.Role == models.RoleOwner {
			return fiber.NewError(fiber.StatusBadRequest, "owners are scoped to all outlets")
		}

		var outlet models.Outlet
		if err := db.First(&outlet, body.OutletID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "outlet not found")
		}

		var existing int64
		db.Model(&models.UserOutlet{}).Where("user_id = ?", target.ID).Count(&existing)
		if existing > 0 {
			return fiber.NewError(fiber.StatusConflict, "user is already linked to an outlet")
		}

		link := models.UserOutlet{UserID: target.ID, OutletID: outlet.ID}
		if err := db.Create(&link).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to link user to outlet")
		}

		return web.Success(c, fiber.StatusCreated, link)
	}
}
