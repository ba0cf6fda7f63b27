package main

import (
	"log"
	"time"

	"github.com/AleDet01/smartdeck-sub000/cache"
	config "github.com/AleDet01/smartdeck-sub000/configs"
	"github.com/AleDet01/smartdeck-sub000/database"
	"github.com/AleDet01/smartdeck-sub000/handlers"
	"github.com/AleDet01/smartdeck-sub000/jobs"
	"github.com/AleDet01/smartdeck-sub000/notifications"
	"github.com/AleDet01/smartdeck-sub000/routes"
	"github.com/AleDet01/smartdeck-sub000/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/robfig/cron/v3"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()
	notifications.InitEmailService()

	statsCache := cache.New(60 * time.Second)
	handlers.InitStats(services.NewStatsService(database.DB), statsCache)

	c := cron.New()
	c.AddFunc("*/10 * * * *", jobs.PruneStatsCache(statsCache))
	c.AddFunc("0 8 * * 1", jobs.SendWeeklyDigests)
	go c.Start()
	log.Println("✅ Cron jobs scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "SmartDeck",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to SmartDeck API",
		})
	})

	routes.AuthRoutes(app)
	routes.ProfileRoutes(app)
	routes.FlashcardRoutes(app)
	routes.TestRoutes(app)
	routes.StatsRoutes(app)
	routes.UploadRoutes(app)
	routes.AdminRoutes(app)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	port := config.ConfigOr("PORT", "8080")
	log.Printf("✅ Server is running on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
