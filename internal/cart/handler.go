package cart

import (
	"errors"

	"pos-backend/internal/auth"
	"pos-backend/internal/models"
	"pos-backend/internal/web"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type AddToCartRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
	// Only owners supply these; manager/staff lines always land in
	// their own (staff, outlet) pair.
	StaffID  uint `json:"staff_id"`
	OutletID uint `json:"outlet_id"`
}

type UpdateCartRequest struct {
	Quantity *int  `json:"quantity"`
	StaffID  *uint `json:"staff_id"`
	OutletID *uint `json:"outlet_id"`
}

type LineWithProduct struct {
	models.Cart
	Product models.Product `json:"product"`
}

// AddToCartHandler merges into the existing (product, staff, outlet)
// line when one exists, otherwise inserts a new one. Two rows for the
// same triple never appear.
func AddToCartHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.Principal(c)
		if err != nil {
			return err
		}

		var body AddToCartRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.ProductID == 0 || body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product_id and a positive quantity are required")
		}

		staffID, outletID, err := resolveLineScope(c, db, user, body)
		if err != nil {
			return err
		}

		var outlet models.Outlet
		if err := db.First(&outlet, outletID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "outlet not found")
		}
		if outlet.Status == models.OutletInactive {
			return fiber.NewError(fiber.StatusBadRequest, "outlet is closed")
		}

		var product models.Product
		if err := db.First(&product, body.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}

		var line models.Cart
		err = db.Where("product_id = ? AND staff_id = ? AND outlet_id = ?",
			body.ProductID, staffID, outletID).First(&line).Error
		switch {
		case err == nil:
			line.Quantity += body.Quantity
			if err := db.Save(&line).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to update cart")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			line = models.Cart{
				ProductID: body.ProductID,
				StaffID:   staffID,
				OutletID:  outletID,
				Quantity:  body.Quantity,
			}
			if err := db.Create(&line).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to create cart line")
			}
		default:
			return fiber.NewError(fiber.StatusInternalServerError, "failed to look up cart")
		}

		return web.Success(c, fiber.StatusCreated, line)
	}
}

// resolveLineScope decides which (staff, outlet) pair a mutation acts
// on. Owners must name both explicitly and the pair must be linked;
// manager/staff always act as themselves at their own outlet.
func resolveLineScope(c *fiber.Ctx, db *gorm.DB, user models.User, body AddToCartRequest) (uint, uint, error) {
	switch user.Role {
	case models.RoleOwner:
		if body.StaffID == 0 || body.OutletID == 0 {
			return 0, 0, fiber.NewError(fiber.StatusBadRequest, "staff_id and outlet_id are required for owners")
		}
		var link models.UserOutlet
		err := db.Where("user_id = ? AND outlet_id = ?", body.StaffID, body.OutletID).First(&link).Error
		if err != nil {
			return 0, 0, fiber.NewError(fiber.StatusBadRequest, "staff is not linked to this outlet")
		}
		return body.StaffID, body.OutletID, nil

	case models.RoleManager, models.RoleStaff:
		outlet, err := auth.PrimaryOutlet(c)
		if err != nil {
			return 0, 0, err
		}
		return user.ID, outlet.ID, nil

	default:
		return 0, 0, fiber.NewError(fiber.StatusForbidden, "unknown role")
	}
}

// ReduceQuantityHandler decrements the line by exactly one and deletes
// it once the quantity reaches zero.
func ReduceQuantityHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.Principal(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid cart id")
		}

		var line models.Cart
		if err := db.First(&line, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "cart line not found")
		}
		if err := validateLineAccess(c, user, line); err != nil {
			return err
		}

		if line.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "cart quantity cannot go below zero")
		}

		if line.Quantity == 1 {
			if err := db.Delete(&line).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to delete cart line")
			}
			return web.Success(c, fiber.StatusOK, []models.Cart{})
		}

		line.Quantity--
		if err := db.Save(&line).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to update cart")
		}
		return web.Success(c, fiber.StatusOK, line)
	}
}

// ListCartsHandler returns the principal's lines (every line for an
// owner) enriched with their products. Lines are independent, so the
// product lookups run concurrently.
func ListCartsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.Principal(c)
		if err != nil {
			return err
		}

		var lines []models.Cart
		q := db.Order("id")
		if user.Role != models.RoleOwner {
			q = q.Where("staff_id = ?", user.ID)
		}
		if err := q.Find(&lines).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load carts")
		}

		enriched, err := enrichWithProducts(db, lines)
		if err != nil {
			return err
		}
		return web.Success(c, fiber.StatusOK, enriched)
	}
}

// ListOwnCartHandler mirrors the dedicated "my cart" listing; owners
// have no cart of their own and are rejected.
func ListOwnCartHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.Principal(c)
		if err != nil {
			return err
		}
		if user.Role == models.RoleOwner {
			return fiber.NewError(fiber.StatusBadRequest, "owners do not have a cart of their own")
		}

		var lines []models.Cart
		if err := db.Where("staff_id = ?", user.ID).Order("id").Find(&lines).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load carts")
		}

		enriched, err := enrichWithProducts(db, lines)
		if err != nil {
			return err
		}
		return web.Success(c, fiber.StatusOK, enriched)
	}
}

func GetCartHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid cart id")
		}

		var line models.Cart
		if err := db.First(&line, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "cart line not found")
		}

		var product models.Product
		if err := db.First(&product, line.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}

		return web.Success(c, fiber.StatusOK, LineWithProduct{Cart: line, Product: product})
	}
}

func UpdateCartHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.Principal(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid cart id")
		}

		var body UpdateCartRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		var line models.Cart
		if err := db.First(&line, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "cart line not found")
		}
		if err := validateLineAccess(c, user, line); err != nil {
			return err
		}

		if body.Quantity != nil {
			if *body.Quantity <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
			}
			line.Quantity = *body.Quantity
		}
		// Staff stay pinned to their own outlet; only owners may move
		// a line to another staff member.
		if body.OutletID != nil && user.Role != models.RoleStaff {
			line.OutletID = *body.OutletID
		}
		if body.StaffID != nil && user.Role == models.RoleOwner {
			line.StaffID = *body.StaffID
		}

		if err := db.Save(&line).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to update cart")
		}
		return web.Success(c, fiber.StatusOK, line)
	}
}

func RemoveCartHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.Principal(c)
		if err != nil {
			return err
		}

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid cart id")
		}

		var line models.Cart
		if err := db.First(&line, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "cart line not found")
		}
		if err := validateLineAccess(c, user, line); err != nil {
			return err
		}

		if err := db.Delete(&line).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to delete cart line")
		}
		return web.Success(c, fiber.StatusOK, fiber.Map{"deleted": line.ID})
	}
}

// RemoveByUserHandler drops every open line of the principal.
func RemoveByUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.Principal(c)
		if err != nil {
			return err
		}

		if err := db.Where("staff_id = ?", user.ID).Delete(&models.Cart{}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to delete cart lines")
		}
		return web.Success(c, fiber.StatusOK, fiber.Map{"staff_id": user.ID})
	}
}

// RemoveByProductHandler drops all lines referencing one product.
func RemoveByProductHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
		}

		var product models.Product
		if err := db.First(&product, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}

		if err := db.Where("product_id = ?", product.ID).Delete(&models.Cart{}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to delete cart lines")
		}
		return web.Success(c, fiber.StatusOK, fiber.Map{"product_id": product.ID})
	}
}

// validateLineAccess enforces role scoping on a single line: managers
// may only touch lines at their outlet, staff only their own lines.
func validateLineAccess(c *fiber.Ctx, user models.User, line models.Cart) error {
	switch user.Role {
	case models.RoleOwner:
		return nil
	case models.RoleManager:
		outlet, err := auth.PrimaryOutlet(c)
		if err != nil {
			return err
		}
		if line.OutletID != outlet.ID {
			return fiber.NewError(fiber.StatusForbidden, "cart line belongs to another outlet")
		}
		return nil
	case models.RoleStaff:
		if line.StaffID != user.ID {
			return fiber.NewError(fiber.StatusForbidden, "cart line belongs to another staff")
		}
		return nil
	default:
		return fiber.NewError(fiber.StatusForbidden, "unknown role")
	}
}

func enrichWithProducts(db *gorm.DB, lines []models.Cart) ([]LineWithProduct, error) {
	enriched := make([]LineWithProduct, len(lines))

	var g errgroup.Group
	for i, line := range lines {
		g.Go(func() error {
			var product models.Product
			if err := db.First(&product, line.ProductID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "product not found for cart line")
			}
			enriched[i] = LineWithProduct{Cart: line, Product: product}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return enriched, nil
}
