package main

import (
	"log"
	"strings"

	"packhouse-backend/internal/audit"
	"packhouse-backend/internal/auth"
	"packhouse-backend/internal/catalog"
	"packhouse-backend/internal/config"
	"packhouse-backend/internal/database"
	"packhouse-backend/internal/intake"
	"packhouse-backend/internal/ledger"
	"packhouse-backend/internal/models"
	"packhouse-backend/internal/stage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin routes
	adminRoutes := protected.Group("")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	// Operator accounts
	adminRoutes.Post("/auth/operators", auth.CreateOperatorHandler())

	// Work-stage configuration
	adminRoutes.Post("/work-stages", stage.CreateWorkStageHandler())
	adminRoutes.Put("/work-stages/:id", stage.UpdateWorkStageHandler())
	adminRoutes.Delete("/work-stages/:id", stage.DeleteWorkStageHandler())

	// Master data
	adminRoutes.Post("/customers", catalog.CreateCustomerHandler())
	adminRoutes.Put("/customers/:id", catalog.UpdateCustomerHandler())
	adminRoutes.Delete("/customers/:id", catalog.DeleteCustomerHandler())
	adminRoutes.Post("/product-specs", catalog.CreateProductSpecHandler())
	adminRoutes.Put("/product-specs/:id", catalog.UpdateProductSpecHandler())
	adminRoutes.Delete("/product-specs/:id", catalog.DeleteProductSpecHandler())
	adminRoutes.Post("/contracts", catalog.CreateContractHandler())
	adminRoutes.Put("/contracts/:id", catalog.UpdateContractHandler())
	adminRoutes.Delete("/contracts/:id", catalog.DeleteContractHandler())

	// Shared (auth required) routes

	// Work-stage lookups
	protected.Get("/work-stages", stage.ListWorkStagesHandler())
	protected.Get("/work-stages/eligible", stage.EligibleStagesHandler())

	// Master data lookups
	protected.Get("/customers", catalog.ListCustomersHandler())
	protected.Get("/product-specs", catalog.ListProductSpecsHandler())
	protected.Get("/contracts", catalog.ListContractsHandler())

	// Finished goods
	protected.Post("/finished-goods", catalog.CreateFinishedGoodHandler())
	protected.Get("/finished-goods", catalog.ListFinishedGoodsHandler())
	protected.Delete("/finished-goods/:id", catalog.DeleteFinishedGoodHandler())

	// Packaging intake
	protected.Post("/intakes", intake.CreateIntakeHandler())
	protected.Get("/intakes", intake.ListIntakesHandler())
	protected.Get("/intakes/:id", intake.GetIntakeHandler())
	protected.Put("/intakes/:id", intake.UpdateIntakeHandler())
	protected.Delete("/intakes/:id", intake.DeleteIntakeHandler())

	// Allocation to work teams
	protected.Post("/intakes/:id/allocations/validate", intake.ValidateAllocationsHandler())
	protected.Post("/intakes/:id/allocations", intake.CommitAllocationsHandler())
	protected.Get("/intakes/:id/allocations", intake.ListIntakeAllocationsHandler())
	protected.Get("/intakes/:id/status", intake.IntakeStatusHandler())

	// Productivity ledger
	protected.Get("/ledger-entries", ledger.ListLedgerEntriesHandler())
	protected.Get("/ledger-entries/summary/monthly", ledger.MonthlyProductivityHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	log.Println("Server listening on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
