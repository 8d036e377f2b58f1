package transaction

import (
	"pos-backend/internal/auth"
	"pos-backend/internal/models"
	"pos-backend/internal/web"
	"pos-backend/internal/xendit"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UpdateTransactionRequest struct {
	NameConsumer *string `json:"name_consumer"`
	Notes        *string `json:"notes"`
}

// ListTransactionsHandler returns transactions newest first, scoped by
// role: staff see their own, managers their outlet's, owners all.
func ListTransactionsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.Principal(c)
		if err != nil {
			return err
		}

		q := db.Preload("Details").Order("id DESC")
		switch user.Role {
		case models.RoleStaff:
			q = q.Where("staff_id = ?", user.ID)
		case models.RoleManager:
			outlet, err := auth.PrimaryOutlet(c)
			if err != nil {
				return err
			}
			q = q.Where("outlet_id = ?", outlet.ID)
		case models.RoleOwner:
			// unscoped
		}

		var transactions []models.Transaction
		if err := q.Find(&transactions).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load transactions")
		}
		return web.Success(c, fiber.StatusOK, transactions)
	}
}

func GetTransactionHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid transaction id")
		}

		var trx models.Transaction
		if err := db.Preload("Details").First(&trx, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "transaction not found")
		}
		return web.Success(c, fiber.StatusOK, trx)
	}
}

// UpdateTransactionHandler only touches descriptive fields. Amounts
// and the terminal status never move through this endpoint.
func UpdateTransactionHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid transaction id")
		}

		var body UpdateTransactionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		var trx models.Transaction
		if err := db.First(&trx, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "transaction not found")
		}

		if body.NameConsumer != nil {
			trx.NameConsumer = *body.NameConsumer
		}
		if body.Notes != nil {
			trx.Notes = *body.Notes
		}

		if err := db.Save(&trx).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to update transaction")
		}
		return web.Success(c, fiber.StatusOK, trx)
	}
}

func GetQRCodeHandler(gateway Gateway) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return fiber.NewError(fiber.StatusBadRequest, "qr code id is required")
		}

		qr, err := gateway.GetQRCode(c.Context(), id)
		if err != nil {
			return upstreamToFiber(err)
		}
		return web.Success(c, fiber.StatusOK, qr)
	}
}

// GetPaymentRequestHandler reads a payment request by its provider id.
func GetPaymentRequestHandler(gateway Gateway) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return fiber.NewError(fiber.StatusBadRequest, "payment request id is required")
		}

		qr, err := gateway.GetQRCode(c.Context(), id)
		if err != nil {
			return upstreamToFiber(err)
		}
		return web.Success(c, fiber.StatusOK, qr)
	}
}

// SimulatePaymentHandler triggers a sandbox payment. The QR is fetched
// first and must report status SUCCEEDED before the simulation runs.
func SimulatePaymentHandler(gateway Gateway) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return fiber.NewError(fiber.StatusBadRequest, "qr code id is required")
		}

		qr, err := gateway.GetQRCode(c.Context(), id)
		if err != nil {
			return upstreamToFiber(err)
		}
		if qr.Status != xendit.QRStatusSucceeded {
			return fiber.NewError(fiber.StatusBadRequest, "qr code is not active")
		}

		result, err := gateway.SimulatePayment(c.Context(), id)
		if err != nil {
			return upstreamToFiber(err)
		}
		return web.Success(c, fiber.StatusOK, result)
	}
}
