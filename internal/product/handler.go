package product

import (
	"log"

	"pos-backend/internal/models"
	"pos-backend/internal/web"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateProductRequest struct {
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	CategoryID uint   `json:"category_id"`
	OutletID   uint   `json:"outlet_id"`
	Picture    string `json:"picture"`
}

type UpdateProductRequest struct {
	Name       *string `json:"name"`
	Price      *int64  `json:"price"`
	CategoryID *uint   `json:"category_id"`
	Status     *string `json:"status"`
	Picture    *string `json:"picture"`
}

func CreateProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}
		if body.Price <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "price must be a positive amount in the minor unit")
		}

		var categoryName string
		if body.CategoryID != 0 {
			var category models.Category
			if err := db.First(&category, body.CategoryID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "category not found")
			}
			categoryName = category.Name
		}

		product := models.Product{
			Name:       body.Name,
			Price:      body.Price,
			CategoryID: body.CategoryID,
			Category:   categoryName,
			OutletID:   body.OutletID,
			Status:     "active",
			Picture:    body.Picture,
		}
		if err := db.Create(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to create product")
		}
		return web.Success(c, fiber.StatusCreated, product)
	}
}

func ListProductsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		q := db.Order("id")
		if outletID := c.QueryInt("outlet_id"); outletID > 0 {
			q = q.Where("outlet_id = ?", outletID)
		}
		if categoryID := c.QueryInt("category_id"); categoryID > 0 {
			q = q.Where("category_id = ?", categoryID)
		}
		if err := q.Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load products")
		}
		return web.Success(c, fiber.StatusOK, products)
	}
}

func GetProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}

		var product models.Product
		if err := db.First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return web.Success(c, fiber.StatusOK, product)
	}
}

func UpdateProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		var product models.Product
		if err := db.First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}

		if body.Name != nil {
			product.Name = *body.Name
		}
		if body.Price != nil {
			if *body.Price <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "price must be a positive amount in the minor unit")
			}
			product.Price = *body.Price
		}
		if body.CategoryID != nil {
			var category models.Category
			if err := db.First(&category, *body.CategoryID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "category not found")
			}
			product.CategoryID = category.ID
			product.Category = category.Name
		}
		if body.Status != nil {
			product.Status = *body.Status
		}
		if body.Picture != nil {
			product.Picture = *body.Picture
		}

		if err := db.Save(&product).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to update product")
		}
		return web.Success(c, fiber.StatusOK, product)
	}
}

// DeleteProductHandler removes the product and, best effort, any open
// cart lines still pointing at it. Historical transactions keep their
// snapshots untouched.
func DeleteProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}

		res := db.Delete(&models.Product{}, id)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to delete product")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}

		if err := db.Where("product_id = ?", id).Delete(&models.Cart{}).Error; err != nil {
			log.Printf("product %d deleted but stale cart cleanup failed: %v", id, err)
		}

		return web.Success(c, fiber.StatusOK, fiber.Map{"deleted": id})
	}
}
