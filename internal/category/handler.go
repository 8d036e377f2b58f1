package category

import (
	"pos-backend/internal/models"
	"pos-backend/internal/web"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CategoryRequest struct {
	Name     string `json:"name"`
	OutletID uint   `json:"outlet_id"`
}

func CreateCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		category := models.Category{Name: body.Name, OutletID: body.OutletID}
		if err := db.Create(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to create category")
		}
		return web.Success(c, fiber.StatusCreated, category)
	}
}

func ListCategoriesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categories []models.Category
		q := db.Order("id")
		if outletID := c.QueryInt("outlet_id"); outletID > 0 {
			q = q.Where("outlet_id = ?", outletID)
		}
		if err := q.Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load categories")
		}
		return web.Success(c, fiber.StatusOK, categories)
	}
}

func UpdateCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid category id")
		}

		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		var category models.Category
		if err := db.First(&category, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}

		category.Name = body.Name
		if body.OutletID != 0 {
			category.OutletID = body.OutletID
		}
		if err := db.Save(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to update category")
		}
		return web.Success(c, fiber.StatusOK, category)
	}
}

func DeleteCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid category id")
		}

		res := db.Delete(&models.Category{}, id)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to delete category")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return web.Success(c, fiber.StatusOK, fiber.Map{"deleted": id})
	}
}
