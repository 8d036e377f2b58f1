package dashboard

import (
	"time"

	"pos-backend/internal/auth"
	"pos-backend/internal/models"
	"pos-backend/internal/web"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type DailySales struct {
	Date       string `json:"date"`
	Count      int    `json:"count"`
	Gross      int64  `json:"gross"`
	CashTotal  int64  `json:"cash_total"`
	QRISTotal  int64  `json:"qris_total"`
}

type SalesSummaryResponse struct {
	OutletID uint         `json:"outlet_id"`
	Year     int          `json:"year"`
	Month    int          `json:"month"`
	Days     []DailySales `json:"days"`
	Total    int64        `json:"total"`
}

// SalesSummaryHandler aggregates completed transactions of the scoped
// outlet into per-day totals for one month. Owners pass outlet_id as a
// query parameter; manager/staff are pinned to their own outlet.
func SalesSummaryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.Principal(c)
		if err != nil {
			return err
		}

		now := time.Now()
		year := c.QueryInt("year", now.Year())
		month := c.QueryInt("month", int(now.Month()))
		if month < 1 || month > 12 {
			return fiber.NewError(fiber.StatusBadRequest, "month must be 1-12")
		}

		var outletID uint
		if user.Role == models.RoleOwner {
			id := c.QueryInt("outlet_id")
			if id <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "outlet_id is required for owners")
			}
			outletID = uint(id)
		} else {
			outlet, err := auth.PrimaryOutlet(c)
			if err != nil {
				return err
			}
			outletID = outlet.ID
		}

		from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, now.Location())
		to := from.AddDate(0, 1, 0)

		var transactions []models.Transaction
		err = db.Where("outlet_id = ? AND status = ? AND transaction_date >= ? AND transaction_date < ?",
			outletID, models.TransactionCompleted, from, to).
			Order("transaction_date").
			Find(&transactions).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load transactions")
		}

		byDay := map[string]*DailySales{}
		var order []string
		var total int64
		for _, trx := range transactions {
			day := trx.TransactionDate.Format("2006-01-02")
			entry, ok := byDay[day]
			if !ok {
				entry = &DailySales{Date: day}
				byDay[day] = entry
				order = append(order, day)
			}
			entry.Count++
			entry.Gross += trx.TotalAmount
			switch trx.PaymentMethod {
			case models.PaymentCash:
				entry.CashTotal += trx.TotalAmount
			case models.PaymentQRIS:
				entry.QRISTotal += trx.TotalAmount
			}
			total += trx.TotalAmount
		}

		days := make([]DailySales, 0, len(order))
		for _, day := range order {
			days = append(days, *byDay[day])
		}

		return web.Success(c, fiber.StatusOK, SalesSummaryResponse{
			OutletID: outletID,
			Year:     year,
			Month:    month,
			Days:     days,
			Total:    total,
		})
	}
}
