package userRoutes

import (
	controllers "github.com/learnsphere/learnsphere-api/controllers/course"
	"github.com/learnsphere/learnsphere-api/middleware"
	validators "github.com/learnsphere/learnsphere-api/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupUserRoutes sets up the learner dashboard surface
func SetupUserRoutes(app *fiber.App) {
	group := app.Group("/user", middleware.JWTMiddleware)

	group.Get("/enrollments", controllers.GetUserEnrollmentsList)
	group.Get("/achievements", controllers.GetUserAchievements)

	group.Get("/badges/new", controllers.GetNewBadges)
	group.Put("/badges/:badge_id/viewed", validators.BadgeID(), controllers.MarkBadgeViewed)

	group.Get("/certificates", controllers.GetUserCertificates)
	group.Get("/certificates/:certificate_id", validators.CertificateID(), controllers.GetCertificate)
	group.Put("/certificates/:certificate_id/download", validators.CertificateID(), controllers.MarkCertificateDownloaded)

	group.Get("/messages", controllers.GetMessages)
}
