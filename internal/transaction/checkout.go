package transaction

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/models"
	"pos-backend/internal/web"
	"pos-backend/internal/xendit"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gateway is the payment-provider surface checkout depends on;
// *xendit.Client implements it.
type Gateway interface {
	CreateQRCode(ctx context.Context, amount int64, referenceID string, items []xendit.CartItem) (*xendit.QRCode, error)
	GetQRCode(ctx context.Context, id string) (*xendit.QRCode, error)
	SimulatePayment(ctx context.Context, id string) (map[string]interface{}, error)
}

type CheckoutRequest struct {
	NameConsumer  string               `json:"name_consumer"`
	AmountPaid    int64                `json:"amount_paid"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
}

type CheckoutResponse struct {
	TransactionID uint                     `json:"transaction_id"`
	InvoiceNumber string                   `json:"invoice_number"`
	TotalAmount   int64                    `json:"total_amount"`
	Status        models.TransactionStatus `json:"status"`
	QRPayment     *xendit.QRCode           `json:"qr_payment,omitempty"`
}

// CheckoutHandler turns the staff's open cart into an immutable
// transaction. The total is always recomputed from cart lines and
// product prices; client-supplied totals are never trusted. Cash
// settles immediately, QRIS creates a gateway payment request and
// leaves the transaction pending for the webhook to settle.
func CheckoutHandler(db *gorm.DB, gateway Gateway) fiber.Handler {
	return func(c *fiber.Ctx) error {
		staff, err := auth.Principal(c)
		if err != nil {
			return err
		}
		outlet, err := auth.PrimaryOutlet(c)
		if err != nil {
			return err
		}

		var body CheckoutRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if !body.PaymentMethod.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "payment_method must be cash or qris")
		}

		lines, err := loadCartWithProducts(db, staff.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "cart is empty")
		}

		var total int64
		for _, line := range lines {
			total += line.Product.Price * int64(line.Quantity)
		}

		// Cash must cover the total up front; QRIS sufficiency is
		// settled asynchronously by the provider callback.
		var change int64
		if body.PaymentMethod == models.PaymentCash {
			if body.AmountPaid < total {
				return fiber.NewError(fiber.StatusBadRequest, "insufficient payment")
			}
			change = body.AmountPaid - total
		}

		invoiceNumber, err := uniqueInvoiceNumber(db)
		if err != nil {
			return err
		}

		var qrPayment *xendit.QRCode
		var provider *string
		status := models.TransactionCompleted

		if body.PaymentMethod == models.PaymentQRIS {
			items := make([]xendit.CartItem, 0, len(lines))
			for _, line := range lines {
				items = append(items, xendit.CartItem{
					Name:     line.Product.Name,
					Category: line.Product.Category,
					Quantity: line.Quantity,
					Price:    line.Product.Price,
				})
			}

			qrPayment, err = gateway.CreateQRCode(c.Context(), total, invoiceNumber, items)
			if err != nil {
				return upstreamToFiber(err)
			}

			status = models.TransactionPending
			p := "QRIS"
			provider = &p
		}

		trx := models.Transaction{
			InvoiceNumber:   invoiceNumber,
			StaffID:         staff.ID,
			OutletID:        outlet.ID,
			NameConsumer:    body.NameConsumer,
			TotalAmount:     total,
			AmountPaid:      body.AmountPaid,
			Change:          change,
			PaymentMethod:   body.PaymentMethod,
			Status:          status,
			Provider:        provider,
			TransactionDate: time.Now(),
		}

		details := make([]models.DetailTransaction, 0, len(lines))
		for _, line := range lines {
			details = append(details, models.DetailTransaction{
				ProductID:      line.ProductID,
				ProductName:    line.Product.Name,
				ProductPrice:   line.Product.Price,
				ProductPicture: line.Product.Picture,
				Quantity:       line.Quantity,
				Subtotal:       line.Product.Price * int64(line.Quantity),
			})
		}

		// One transaction boundary for the header and every snapshot
		// row; a header without details (or the reverse) cannot be
		// observed. If this fails after a QR was issued, that QR is
		// orphaned at the provider and only logged.
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&trx).Error; err != nil {
				return err
			}
			for i := range details {
				details[i].TransactionID = trx.ID
			}
			return tx.Create(&details).Error
		})
		if err != nil {
			if qrPayment != nil {
				log.Printf("checkout: db write failed after QR %s was issued for %s: %v",
					qrPayment.ID, invoiceNumber, err)
			}
			if isInvoiceConflict(db, invoiceNumber, trx.ID) {
				return fiber.NewError(fiber.StatusConflict, "invoice number collision, retry checkout")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to persist transaction")
		}

		// The cart is intentionally left in place after checkout.
		if err := audit.WriteLog(db, audit.LogOptions{
			OutletID:    &outlet.ID,
			UserID:      staff.ID,
			UserName:    staff.Fullname,
			EntityType:  "transaction",
			EntityID:    trx.ID,
			Action:      models.AuditActionCheckout,
			Description: fmt.Sprintf("%s checkout %s for %d", body.PaymentMethod, invoiceNumber, total),
		}); err != nil {
			log.Printf("checkout: audit write failed for %s: %v", invoiceNumber, err)
		}

		return web.Success(c, fiber.StatusCreated, CheckoutResponse{
			TransactionID: trx.ID,
			InvoiceNumber: trx.InvoiceNumber,
			TotalAmount:   trx.TotalAmount,
			Status:        trx.Status,
			QRPayment:     qrPayment,
		})
	}
}

type cartLine struct {
	models.Cart
	Product models.Product
}

func loadCartWithProducts(db *gorm.DB, staffID uint) ([]cartLine, error) {
	var carts []models.Cart
	if err := db.Where("staff_id = ?", staffID).Order("id").Find(&carts).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load cart")
	}

	lines := make([]cartLine, 0, len(carts))
	for _, cart := range carts {
		var product models.Product
		if err := db.First(&product, cart.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fiber.NewError(fiber.StatusNotFound, "product not found for cart line")
			}
			return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load product")
		}
		lines = append(lines, cartLine{Cart: cart, Product: product})
	}
	return lines, nil
}

// uniqueInvoiceNumber generates INV-<unix-ms>-<rand> and verifies it is
// unused before the gateway sees it as a reference id. A collision is
// retried once with a uuid-derived suffix; the unique index still
// backs the race window at write time.
func uniqueInvoiceNumber(db *gorm.DB) (string, error) {
	invoice := fmt.Sprintf("INV-%d-%d", time.Now().UnixMilli(), rand.Intn(1000))

	for attempt := 0; attempt < 2; attempt++ {
		var count int64
		if err := db.Model(&models.Transaction{}).
			Where("invoice_number = ?", invoice).Count(&count).Error; err != nil {
			return "", fiber.NewError(fiber.StatusInternalServerError, "failed to check invoice number")
		}
		if count == 0 {
			return invoice, nil
		}
		invoice = fmt.Sprintf("INV-%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	}

	return "", fiber.NewError(fiber.StatusConflict, "could not allocate a unique invoice number")
}

func isInvoiceConflict(db *gorm.DB, invoiceNumber string, createdID uint) bool {
	var existing models.Transaction
	err := db.Where("invoice_number = ?", invoiceNumber).First(&existing).Error
	return err == nil && existing.ID != createdID
}

// upstreamToFiber re-emits a provider error with the provider's own
// status code and body; transport failures become plain 500s.
func upstreamToFiber(err error) error {
	var upstream *xendit.UpstreamError
	if errors.As(err, &upstream) {
		return fiber.NewError(upstream.StatusCode, upstream.Body)
	}
	return fiber.NewError(fiber.StatusInternalServerError, "payment gateway unavailable")
}
