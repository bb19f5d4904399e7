package api

import (
	"fiscal-sentinel/internal/api/handlers"
	"fiscal-sentinel/pkg/auth"
	"fiscal-sentinel/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func SetupRouter(
	authHandler *handlers.AuthHandler,
	analyzeHandler *handlers.AnalyzeHandler,
	txHandler *handlers.TransactionHandler,
	jwtManager *auth.JWTManager,
	maxBodyBytes int,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: maxBodyBytes,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"message": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Fiscal Sentinel API up and running"})
	})

	// Auth routes (public)
	app.Post("/register", authHandler.Register)
	app.Post("/login", authHandler.Login)
	app.Post("/refresh", authHandler.RefreshToken)

	// Protected routes
	protected := app.Group("", middleware.AuthMiddleware(jwtManager, appLogger))

	protected.Post("/analyze", analyzeHandler.Analyze)

	transactions := protected.Group("/transactions")
	transactions.Get("", txHandler.List)
	transactions.Post("/preview", txHandler.Preview)
	transactions.Post("/confirm", txHandler.Confirm)
	transactions.Post("/upload", txHandler.Upload)

	return app
}
