package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"pos-backend/internal/config"
	"pos-backend/internal/database"
	"pos-backend/internal/models"
	"pos-backend/internal/web"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "0123456789abcdef0123456789abcdef"

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

// newScopeApp mounts Middleware in front of a probe that echoes the
// resolved principal and outlet scope.
func newScopeApp(db *gorm.DB) *fiber.App {
	cfg := &config.Config{JWTSecret: testSecret}
	app := fiber.New(fiber.Config{ErrorHandler: web.ErrorHandler})
	app.Get("/whoami", Middleware(db, cfg), func(c *fiber.Ctx) error {
		user, err := Principal(c)
		if err != nil {
			return err
		}
		return web.Success(c, fiber.StatusOK, fiber.Map{
			"user_id": user.ID,
			"role":    user.Role,
			"outlets": OutletScope(c),
		})
	})
	return app
}

func seedUser(t *testing.T, db *gorm.DB, role models.UserRole) models.User {
	t.Helper()
	user := models.User{
		Fullname:     string(role) + " user",
		Email:        fmt.Sprintf("%s-%s@example.com", t.Name(), role),
		PasswordHash: "x",
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedOutlet(t *testing.T, db *gorm.DB, name string) models.Outlet {
	t.Helper()
	outlet := models.Outlet{Name: name, Status: models.OutletActive}
	if err := db.Create(&outlet).Error; err != nil {
		t.Fatalf("seed outlet: %v", err)
	}
	return outlet
}

func whoami(t *testing.T, app *fiber.App, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return resp
}

func decodeScope(t *testing.T, resp *http.Response) (uint, []models.Outlet) {
	t.Helper()
	var envelope struct {
		Data struct {
			UserID  uint            `json:"user_id"`
			Outlets []models.Outlet `json:"outlets"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return envelope.Data.UserID, envelope.Data.Outlets
}

func TestMiddlewareOwnerScope(t *testing.T) {
	db := openTestDB(t)
	app := newScopeApp(db)

	seedOutlet(t, db, "pusat")
	seedOutlet(t, db, "cabang")
	owner := seedUser(t, db, models.RoleOwner)

	token, err := GenerateToken(testSecret, &owner)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	resp := whoami(t, app, token)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	userID, outlets := decodeScope(t, resp)
	if userID != owner.ID {
		t.Fatalf("principal %d, want %d", userID, owner.ID)
	}
	if len(outlets) != 2 {
		t.Fatalf("owner scope must span every outlet, got %d", len(outlets))
	}
}

func TestMiddlewareStaffScope(t *testing.T) {
	db := openTestDB(t)
	app := newScopeApp(db)

	seedOutlet(t, db, "pusat")
	mine := seedOutlet(t, db, "cabang")
	staff := seedUser(t, db, models.RoleStaff)
	if err := db.Create(&models.UserOutlet{UserID: staff.ID, OutletID: mine.ID}).Error; err != nil {
		t.Fatalf("seed link: %v", err)
	}

	token, err := GenerateToken(testSecret, &staff)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	resp := whoami(t, app, token)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	_, outlets := decodeScope(t, resp)
	if len(outlets) != 1 || outlets[0].ID != mine.ID {
		t.Fatalf("staff scope must be the linked outlet only, got %+v", outlets)
	}
}

func TestMiddlewareUnlinkedStaff(t *testing.T) {
	db := openTestDB(t)
	app := newScopeApp(db)
	staff := seedUser(t, db, models.RoleStaff)

	token, err := GenerateToken(testSecret, &staff)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	if resp := whoami(t, app, token); resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("unlinked staff: want 404, got %d", resp.StatusCode)
	}
}

func TestMiddlewareRejectsBadTokens(t *testing.T) {
	db := openTestDB(t)
	app := newScopeApp(db)

	if resp := whoami(t, app, ""); resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("missing header: want 401, got %d", resp.StatusCode)
	}
	if resp := whoami(t, app, "not-a-jwt"); resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("garbage token: want 401, got %d", resp.StatusCode)
	}

	wrongKey := seedUser(t, db, models.RoleOwner)
	forged, err := GenerateToken("another-secret-another-secret-32", &wrongKey)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if resp := whoami(t, app, forged); resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("wrong signing key: want 401, got %d", resp.StatusCode)
	}
}

func TestMiddlewareDeletedAccount(t *testing.T) {
	db := openTestDB(t)
	app := newScopeApp(db)

	user := seedUser(t, db, models.RoleOwner)
	token, err := GenerateToken(testSecret, &user)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if err := db.Delete(&models.User{}, user.ID).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}

	if resp := whoami(t, app, token); resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("deleted account: want 401, got %d", resp.StatusCode)
	}
}

func TestRequireRole(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: web.ErrorHandler})
	app.Get("/owner-only",
		func(c *fiber.Ctx) error {
			c.Locals(CtxUserKey, models.User{ID: 1, Role: models.RoleStaff})
			return c.Next()
		},
		RequireRole(models.RoleOwner),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/owner-only", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("want 403, got %d", resp.StatusCode)
	}
}

func TestRequireOpenOutlet(t *testing.T) {
	inject := func(user models.User, outlets ...models.Outlet) fiber.Handler {
		return func(c *fiber.Ctx) error {
			c.Locals(CtxUserKey, user)
			c.Locals(CtxOutletsKey, outlets)
			return c.Next()
		}
	}
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

	closed := models.Outlet{ID: 1, Name: "tutup", Status: models.OutletInactive}

	app := fiber.New(fiber.Config{ErrorHandler: web.ErrorHandler})
	app.Get("/staff", inject(models.User{ID: 1, Role: models.RoleStaff}, closed), RequireOpenOutlet(), ok)
	app.Get("/owner", inject(models.User{ID: 2, Role: models.RoleOwner}, closed), RequireOpenOutlet(), ok)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/staff", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("staff at closed outlet: want 400, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/owner", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("owner must pass regardless of outlet state, got %d", resp.StatusCode)
	}
}
