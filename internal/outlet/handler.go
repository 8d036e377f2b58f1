package outlet

import (
	"pos-backend/internal/models"
	"pos-backend/internal/web"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateOutletRequest struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	OpenAt   string `json:"open_at"`
	ClosedAt string `json:"closed_at"`
}

type UpdateOutletRequest struct {
	Name     *string              `json:"name"`
	Address  *string              `json:"address"`
	Status   *models.OutletStatus `json:"status"`
	OpenAt   *string              `json:"open_at"`
	ClosedAt *string              `json:"closed_at"`
}

func CreateOutletHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOutletRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		outlet := models.Outlet{
			Name:     body.Name,
			Address:  body.Address,
			Status:   models.OutletActive,
			OpenAt:   body.OpenAt,
			ClosedAt: body.ClosedAt,
		}
		if err := db.Create(&outlet).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "outlet name is already used")
		}

		return web.Success(c, fiber.StatusCreated, outlet)
	}
}

func ListOutletsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var outlets []models.Outlet
		if err := db.Order("id").Find(&outlets).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load outlets")
		}
		return web.Success(c, fiber.StatusOK, outlets)
	}
}

func GetOutletHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid outlet id")
		}

		var outlet models.Outlet
		if err := db.First(&outlet, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "outlet not found")
		}
		return web.Success(c, fiber.StatusOK, outlet)
	}
}

func UpdateOutletHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid outlet id")
		}

		var body UpdateOutletRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		var outlet models.Outlet
		if err := db.First(&outlet, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "outlet not found")
		}

		if body.Name != nil {
			outlet.Name = *body.Name
		}
		if body.Address != nil {
			outlet.Address = *body.Address
		}
		if body.Status != nil {
			if *body.Status != models.OutletActive && *body.Status != models.OutletInactive {
				return fiber.NewError(fiber.StatusBadRequest, "status must be active or inactive")
			}
			outlet.Status = *body.Status
		}
		if body.OpenAt != nil {
			outlet.OpenAt = *body.OpenAt
		}
		if body.ClosedAt != nil {
			outlet.ClosedAt = *body.ClosedAt
		}

		if err := db.Save(&outlet).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to update outlet")
		}

		return web.Success(c, fiber.StatusOK, outlet)
	}
}
