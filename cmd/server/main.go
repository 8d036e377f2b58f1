package main

import (
	"log"
	"strings"

	"pos-backend/internal/audit"
	"pos-backend/internal/auth"
	"pos-backend/internal/cart"
	"pos-backend/internal/category"
	"pos-backend/internal/config"
	"pos-backend/internal/dashboard"
	"pos-backend/internal/database"
	"pos-backend/internal/models"
	"pos-backend/internal/outlet"
	"pos-backend/internal/product"
	"pos-backend/internal/transaction"
	"pos-backend/internal/user"
	"pos-backend/internal/web"
	"pos-backend/internal/xendit"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	gateway := xendit.NewClient(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: web.ErrorHandler,
	})

	app.Use(logger.New())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Callback-Token",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))

	// Public
	app.Post("/auth/signup", auth.SignupHandler(db))
	app.Post("/auth/signin", auth.SigninHandler(db, cfg))

	// The payment provider posts settlement callbacks here; it cannot
	// carry a bearer token.
	app.Post("/transaction/callback", transaction.CallbackHandler(db, cfg))

	authed := app.Group("", auth.Middleware(db, cfg))

	// Accounts (owner only)
	users := authed.Group("/users", auth.RequireRole(models.RoleOwner))
	users.Get("/managers", user.ListManagersHandler(db))
	users.Post("/managers", user.CreateManagerHandler(db))
	users.Patch("/managers/:id", user.UpdateManagerHandler(db))
	users.Delete("/managers/:id", user.DeleteManagerHandler(db))
	users.Get("/staffs", user.ListStaffsHandler(db))
	users.Post("/:id/outlets", user.AddUserToOutletHandler(db))

	// Outlets (owner only)
	outlets := authed.Group("/outlets", auth.RequireRole(models.RoleOwner))
	outlets.Post("/", outlet.CreateOutletHandler(db))
	outlets.Get("/", outlet.ListOutletsHandler(db))
	outlets.Get("/:id", outlet.GetOutletHandler(db))
	outlets.Patch("/:id", outlet.UpdateOutletHandler(db))

	// Categories
	categories := authed.Group("/categories")
	categories.Get("/", category.ListCategoriesHandler(db))
	categories.Post("/", auth.RequireRole(models.RoleOwner, models.RoleManager), category.CreateCategoryHandler(db))
	categories.Patch("/:id", auth.RequireRole(models.RoleOwner, models.RoleManager), category.UpdateCategoryHandler(db))
	categories.Delete("/:id", auth.RequireRole(models.RoleOwner, models.RoleManager), category.DeleteCategoryHandler(db))

	// Products
	products := authed.Group("/products")
	products.Get("/", product.ListProductsHandler(db))
	products.Get("/:id", product.GetProductHandler(db))
	products.Post("/", auth.RequireRole(models.RoleOwner, models.RoleManager), product.CreateProductHandler(db))
	products.Patch("/:id", auth.RequireRole(models.RoleOwner, models.RoleManager), product.UpdateProductHandler(db))
	products.Delete("/:id", auth.RequireRole(models.RoleOwner, models.RoleManager), product.DeleteProductHandler(db))

	// Carts
	carts := authed.Group("/carts")
	carts.Get("/users", cart.ListOwnCartHandler(db))
	carts.Delete("/users", cart.RemoveByUserHandler(db))
	carts.Post("/", auth.RequireOpenOutlet(), cart.AddToCartHandler(db))
	carts.Post("/reduce/:id", cart.ReduceQuantityHandler(db))
	carts.Get("/", cart.ListCartsHandler(db))
	carts.Get("/:id", cart.GetCartHandler(db))
	carts.Patch("/:id", cart.UpdateCartHandler(db))
	carts.Delete("/product/:id", cart.RemoveByProductHandler(db))
	carts.Delete("/:id", cart.RemoveCartHandler(db))

	// Transactions
	transactions := authed.Group("/transaction")
	transactions.Post("/",
		auth.RequireRole(models.RoleManager, models.RoleStaff),
		auth.RequireOpenOutlet(),
		transaction.CheckoutHandler(db, gateway))
	transactions.Get("/", auth.RequireRole(models.RoleManager, models.RoleStaff, models.RoleOwner), transaction.ListTransactionsHandler(db))
	transactions.Get("/qr-code/:id", transaction.GetQRCodeHandler(gateway))
	transactions.Post("/qr-code/simulate-payment/:id", transaction.SimulatePaymentHandler(gateway))
	transactions.Get("/payment-request/:id", transaction.GetPaymentRequestHandler(gateway))
	transactions.Get("/:id", auth.RequireRole(models.RoleManager, models.RoleStaff), transaction.GetTransactionHandler(db))
	transactions.Patch("/:id", auth.RequireRole(models.RoleManager, models.RoleStaff), transaction.UpdateTransactionHandler(db))

	// Dashboard
	authed.Get("/dashboard/sales", dashboard.SalesSummaryHandler(db))

	// Audit logs (owner only)
	authed.Get("/audit-logs", auth.RequireRole(models.RoleOwner), audit.ListAuditLogsHandler(db))

	log.Println("server listening on port", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
