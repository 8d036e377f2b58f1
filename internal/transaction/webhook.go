package transaction

import (
	"fmt"
	"log"
	"time"

	"pos-backend/internal/audit"
	"pos-backend/internal/config"
	"pos-backend/internal/models"
	"pos-backend/internal/web"
	"pos-backend/internal/xendit"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CallbackHandler reconciles an asynchronous payment notification
// against its pending transaction. The status=pending predicate on the
// update makes the transition effective at most once: a duplicate
// delivery matches no row and is answered with 404 instead of being
// applied again.
func CallbackHandler(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.XenditCallbackToken != "" &&
			c.Get("x-callback-token") != cfg.XenditCallbackToken {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid callback token")
		}

		var payload xendit.WebhookPayload
		if err := c.BodyParser(&payload); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid callback payload")
		}
		if payload.Data.ID == "" || payload.Data.Status == "" {
			return fiber.NewError(fiber.StatusBadRequest, "invalid callback payload")
		}

		referenceID := payload.Data.ReferenceID

		status := models.TransactionFailed
		updates := map[string]interface{}{
			"updated_at": time.Now(),
		}
		if payload.Data.Status == xendit.QRStatusSucceeded {
			status = models.TransactionCompleted
			updates["status"] = models.TransactionCompleted
			updates["amount_paid"] = payload.Data.PaymentDetail.Amount
			updates["notes"] = fmt.Sprintf("Paid via QRIS at %s. Receipt ID: %s",
				time.Now().Format(time.RFC3339), payload.Data.PaymentDetail.ReceiptID)
		} else {
			updates["status"] = models.TransactionFailed
			updates["notes"] = fmt.Sprintf("QRIS payment %s at %s",
				payload.Data.Status, time.Now().Format(time.RFC3339))
		}

		res := db.Model(&models.Transaction{}).
			Where("invoice_number = ? AND status = ?", referenceID, models.TransactionPending).
			Updates(updates)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to update transaction")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no pending transaction for this reference")
		}

		var trx models.Transaction
		if err := db.Where("invoice_number = ?", referenceID).First(&trx).Error; err == nil {
			if err := audit.WriteLog(db, audit.LogOptions{
				OutletID:    &trx.OutletID,
				UserID:      trx.StaffID,
				EntityType:  "transaction",
				EntityID:    trx.ID,
				Action:      models.AuditActionSettlement,
				Description: fmt.Sprintf("webhook settled %s as %s", referenceID, status),
			}); err != nil {
				log.Printf("callback: audit write failed for %s: %v", referenceID, err)
			}
		}

		return web.Success(c, fiber.StatusOK, fiber.Map{
			"invoice_number": referenceID,
			"status":         status,
		})
	}
}
