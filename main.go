package main

import (
	"log"
	"time"

	"pulse/config"
	feedbackController "pulse/controllers/feedback"
	"pulse/database"
	"pulse/notifier"
	"pulse/repository"
	feedbackRoutes "pulse/routers/feedbackRoutes"
	"pulse/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()

	db, err := database.Connect(config.AppConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	feedbackRepo := repository.NewFeedbackRepo(db)
	discord := notifier.NewDiscord(
		config.AppConfig.DiscordWebhookURL,
		time.Duration(config.AppConfig.NotifyTimeoutSec)*time.Second,
	)
	controller := feedbackController.New(feedbackRepo, discord)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "pulse"})
	})

	feedbackRoutes.SetupFeedbackRoutes(app, controller)

	utils.InitializeDigestScheduler(config.AppConfig.DigestCron, feedbackRepo, discord)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
