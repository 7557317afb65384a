package authRoutes

import (
	authControllers "github.com/learnsphere/learnsphere-api/controllers/auth"
	"github.com/learnsphere/learnsphere-api/middleware"
	authValidators "github.com/learnsphere/learnsphere-api/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App) {
	authGroup := app.Group("/auth")

	authGroup.Post("/signup", authValidators.Signup(), authControllers.Signup)
	authGroup.Post("/login", authValidators.Login(), authControllers.Login)
	authGroup.Get("/me", middleware.JWTMiddleware, authControllers.Me)
	authGroup.Post("/logout", middleware.JWTMiddleware, authControllers.Logout)
}
