package main

import (
	"log"

	"github.com/learnsphere/learnsphere-api/config"
	"github.com/learnsphere/learnsphere-api/database"
	authRoutes "github.com/learnsphere/learnsphere-api/routers/authRoutes"
	courseRoutes "github.com/learnsphere/learnsphere-api/routers/courseRoutes"
	userRoutes "github.com/learnsphere/learnsphere-api/routers/userRoutes"
	"github.com/learnsphere/learnsphere-api/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()
	utils.InitializeStreakScheduler()

	app := fiber.New(fiber.Config{
		AppName: config.AppConfig.AppName,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	authRoutes.SetupAuthRoutes(app)
	courseRoutes.SetupCourseRoutes(app)
	courseRoutes.SetupInstructorRoutes(app)
	courseRoutes.SetupAdminRoutes(app)
	userRoutes.SetupUserRoutes(app)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
