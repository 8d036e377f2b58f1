package audit

import (
	"pos-backend/internal/models"
	"pos-backend/internal/web"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func ListAuditLogsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		var logs []models.AuditLog
		q := db.Order("id DESC").Limit(limit)
		if entity := c.Query("entity_type"); entity != "" {
			q = q.Where("entity_type = ?", entity)
		}
		if err := q.Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load audit logs")
		}

		return web.Success(c, fiber.StatusOK, logs)
	}
}
