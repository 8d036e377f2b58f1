package transaction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"pos-backend/internal/auth"
	"pos-backend/internal/database"
	"pos-backend/internal/models"
	"pos-backend/internal/web"
	"pos-backend/internal/xendit"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeGateway struct {
	createErr   error
	getQR       *xendit.QRCode
	getErr      error
	simulateErr error

	lastAmount int64
	lastRef    string
	lastItems  []xendit.CartItem
	simulated  []string
}

func (f *fakeGateway) CreateQRCode(_ context.Context, amount int64, referenceID string, items []xendit.CartItem) (*xendit.QRCode, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.lastAmount = amount
	f.lastRef = referenceID
	f.lastItems = items
	return &xendit.QRCode{
		ID:          "qr_test_1",
		ReferenceID: referenceID,
		Status:      xendit.QRStatusActive,
		Amount:      amount,
		QRString:    "00020101021226",
	}, nil
}

func (f *fakeGateway) GetQRCode(_ context.Context, id string) (*xendit.QRCode, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	qr := *f.getQR
	qr.ID = id
	return &qr, nil
}

func (f *fakeGateway) SimulatePayment(_ context.Context, id string) (map[string]interface{}, error) {
	if f.simulateErr != nil {
		return nil, f.simulateErr
	}
	f.simulated = append(f.simulated, id)
	return map[string]interface{}{"status": "COMPLETED"}, nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func withPrincipal(user models.User, outlets ...models.Outlet) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserKey, user)
		c.Locals(auth.CtxOutletsKey, outlets)
		return c.Next()
	}
}

type checkoutFixture struct {
	db     *gorm.DB
	app    *fiber.App
	gw     *fakeGateway
	staff  models.User
	outlet models.Outlet
}

func newCheckoutFixture(t *testing.T, outletStatus models.OutletStatus) *checkoutFixture {
	t.Helper()
	db := openTestDB(t)

	outlet := models.Outlet{Name: t.Name() + "-outlet", Status: outletStatus}
	if err := db.Create(&outlet).Error; err != nil {
		t.Fatalf("seed outlet: %v", err)
	}
	staff := models.User{Fullname: "Kasir", Email: t.Name() + "@example.com", PasswordHash: "x", Role: models.RoleStaff}
	if err := db.Create(&staff).Error; err != nil {
		t.Fatalf("seed staff: %v", err)
	}
	if err := db.Create(&models.UserOutlet{UserID: staff.ID, OutletID: outlet.ID}).Error; err != nil {
		t.Fatalf("seed link: %v", err)
	}

	gw := &fakeGateway{}
	app := fiber.New(fiber.Config{ErrorHandler: web.ErrorHandler})
	app.Post("/transaction",
		withPrincipal(staff, outlet),
		auth.RequireOpenOutlet(),
		CheckoutHandler(db, gw))

	return &checkoutFixture{db: db, app: app, gw: gw, staff: staff, outlet: outlet}
}

func (f *checkoutFixture) addCartLine(t *testing.T, name string, price int64, qty int) models.Product {
	t.Helper()
	product := models.Product{Name: name, Price: price, OutletID: f.outlet.ID, Category: "food", Status: "active"}
	if err := f.db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	line := models.Cart{ProductID: product.ID, StaffID: f.staff.ID, OutletID: f.outlet.ID, Quantity: qty}
	if err := f.db.Create(&line).Error; err != nil {
		t.Fatalf("seed cart line: %v", err)
	}
	return product
}

func (f *checkoutFixture) checkout(t *testing.T, body CheckoutRequest) (*http.Response, CheckoutResponse) {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/transaction", &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.app.Test(req)
	if err != nil {
		t.Fatalf("checkout request: %v", err)
	}

	var envelope struct {
		Data CheckoutResponse `json:"data"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&envelope)
	return resp, envelope.Data
}

func TestCashCheckout(t *testing.T) {
	f := newCheckoutFixture(t, models.OutletActive)
	f.addCartLine(t, "kopi susu", 15000, 2)
	f.addCartLine(t, "es teh", 5000, 1)

	resp, result := f.checkout(t, CheckoutRequest{
		NameConsumer:  "Budi",
		AmountPaid:    40000,
		PaymentMethod: models.PaymentCash,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status %d", resp.StatusCode)
	}

	if result.TotalAmount != 35000 {
		t.Fatalf("want total 35000, got %d", result.TotalAmount)
	}
	if result.Status != models.TransactionCompleted {
		t.Fatalf("cash checkout must complete immediately, got %s", result.Status)
	}
	if result.QRPayment != nil {
		t.Fatal("cash checkout must not carry a QR payment")
	}

	var trx models.Transaction
	if err := f.db.Preload("Details").First(&trx, result.TransactionID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if trx.Change != 5000 {
		t.Fatalf("want change 5000, got %d", trx.Change)
	}
	if len(trx.Details) != 2 {
		t.Fatalf("want 2 detail rows, got %d", len(trx.Details))
	}
	var detailSum int64
	for _, d := range trx.Details {
		if d.Subtotal != d.ProductPrice*int64(d.Quantity) {
			t.Fatalf("detail subtotal %d != %d*%d", d.Subtotal, d.ProductPrice, d.Quantity)
		}
		detailSum += d.Subtotal
	}
	if detailSum != trx.TotalAmount {
		t.Fatalf("details sum to %d, total is %d", detailSum, trx.TotalAmount)
	}
	if f.gw.lastRef != "" {
		t.Fatal("cash checkout must not reach the payment gateway")
	}
}

func TestCashCheckoutInsufficientPayment(t *testing.T) {
	f := newCheckoutFixture(t, models.OutletActive)
	f.addCartLine(t, "nasi goreng", 20000, 1)

	resp, _ := f.checkout(t, CheckoutRequest{
		AmountPaid:    15000,
		PaymentMethod: models.PaymentCash,
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("want 400, got %d", resp.StatusCode)
	}

	var count int64
	f.db.Model(&models.Transaction{}).Count(&count)
	if count != 0 {
		t.Fatal("no transaction may be written for an insufficient cash payment")
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t, models.OutletActive)

	resp, _ := f.checkout(t, CheckoutRequest{
		AmountPaid:    10000,
		PaymentMethod: models.PaymentCash,
	})
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("want 404 for empty cart, got %d", resp.StatusCode)
	}
}

func TestCheckoutClosedOutlet(t *testing.T) {
	f := newCheckoutFixture(t, models.OutletInactive)
	f.addCartLine(t, "kopi", 10000, 1)

	resp, _ := f.checkout(t, CheckoutRequest{
		AmountPaid:    10000,
		PaymentMethod: models.PaymentCash,
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("want 400 for closed outlet, got %d", resp.StatusCode)
	}
}

func TestQRISCheckout(t *testing.T) {
	f := newCheckoutFixture(t, models.OutletActive)
	f.addCartLine(t, "kopi susu", 15000, 2)
	f.addCartLine(t, "es teh", 5000, 1)

	// amount_paid is deliberately short of the total: QRIS ignores it.
	resp, result := f.checkout(t, CheckoutRequest{
		NameConsumer:  "Sari",
		AmountPaid:    0,
		PaymentMethod: models.PaymentQRIS,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status %d", resp.StatusCode)
	}

	if result.Status != models.TransactionPending {
		t.Fatalf("qris checkout must stay pending, got %s", result.Status)
	}
	if result.QRPayment == nil {
		t.Fatal("qris checkout must return the QR payment descriptor")
	}
	if result.QRPayment.ReferenceID != result.InvoiceNumber {
		t.Fatalf("qr reference %q != invoice %q", result.QRPayment.ReferenceID, result.InvoiceNumber)
	}
	if f.gw.lastAmount != 35000 {
		t.Fatalf("gateway must be charged the recomputed total, got %d", f.gw.lastAmount)
	}
	if len(f.gw.lastItems) != 2 {
		t.Fatalf("want 2 receipt items at the gateway, got %d", len(f.gw.lastItems))
	}

	var trx models.Transaction
	if err := f.db.First(&trx, result.TransactionID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if trx.Provider == nil || *trx.Provider != "QRIS" {
		t.Fatalf("want provider QRIS, got %v", trx.Provider)
	}
}

func TestQRISCheckoutGatewayFailure(t *testing.T) {
	f := newCheckoutFixture(t, models.OutletActive)
	f.addCartLine(t, "kopi", 10000, 1)
	f.gw.createErr = &xendit.UpstreamError{StatusCode: http.StatusBadGateway, Body: `{"message":"upstream down"}`}

	resp, _ := f.checkout(t, CheckoutRequest{PaymentMethod: models.PaymentQRIS})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("provider status must pass through, got %d", resp.StatusCode)
	}

	var count int64
	f.db.Model(&models.Transaction{}).Count(&count)
	if count != 0 {
		t.Fatal("no transaction may be written when the gateway call fails")
	}
}

func TestCheckoutKeepsCart(t *testing.T) {
	f := newCheckoutFixture(t, models.OutletActive)
	f.addCartLine(t, "kopi", 10000, 1)

	resp, _ := f.checkout(t, CheckoutRequest{
		AmountPaid:    10000,
		PaymentMethod: models.PaymentCash,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status %d", resp.StatusCode)
	}

	var count int64
	f.db.Model(&models.Cart{}).Where("staff_id = ?", f.staff.ID).Count(&count)
	if count != 1 {
		t.Fatalf("checkout must leave the cart in place, %d lines remain", count)
	}
}

func TestDetailSnapshotSurvivesProductEdit(t *testing.T) {
	f := newCheckoutFixture(t, models.OutletActive)
	product := f.addCartLine(t, "kopi susu", 15000, 1)

	resp, result := f.checkout(t, CheckoutRequest{
		AmountPaid:    15000,
		PaymentMethod: models.PaymentCash,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status %d", resp.StatusCode)
	}

	product.Price = 99999
	product.Name = "kopi susu premium"
	if err := f.db.Save(&product).Error; err != nil {
		t.Fatalf("edit product: %v", err)
	}

	var detail models.DetailTransaction
	if err := f.db.Where("transaction_id = ?", result.TransactionID).First(&detail).Error; err != nil {
		t.Fatalf("load detail: %v", err)
	}
	if detail.ProductPrice != 15000 || detail.ProductName != "kopi susu" {
		t.Fatalf("snapshot changed after product edit: %+v", detail)
	}
}

func TestSimulatePaymentGating(t *testing.T) {
	gw := &fakeGateway{getQR: &xendit.QRCode{Status: xendit.QRStatusActive}}
	app := fiber.New(fiber.Config{ErrorHandler: web.ErrorHandler})
	app.Post("/transaction/qr-code/simulate-payment/:id", SimulatePaymentHandler(gw))

	req := httptest.NewRequest(http.MethodPost, "/transaction/qr-code/simulate-payment/qr_1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("ACTIVE qr must be rejected (source gating), got %d", resp.StatusCode)
	}
	if len(gw.simulated) != 0 {
		t.Fatal("simulation must not run for a rejected qr")
	}

	gw.getQR.Status = xendit.QRStatusSucceeded
	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/transaction/qr-code/simulate-payment/qr_1", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("SUCCEEDED qr must be allowed, got %d", resp.StatusCode)
	}
	if len(gw.simulated) != 1 {
		t.Fatalf("want one simulation call, got %d", len(gw.simulated))
	}
}
