package courseRoutes

import (
	controllers "github.com/learnsphere/learnsphere-api/controllers/course"
	"github.com/learnsphere/learnsphere-api/middleware"
	validators "github.com/learnsphere/learnsphere-api/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes sets up the platform administration surface
func SetupAdminRoutes(app *fiber.App) {
	group := app.Group("/admin", middleware.JWTMiddleware, middleware.RequireRole("ADMIN"))

	group.Get("/dashboard", controllers.AdminDashboardStats)

	group.Get("/users", validators.CourseList(), controllers.AdminListUsers)
	group.Get("/user/:user_id/enrollments", validators.TargetUserID(), controllers.AdminGetUserEnrollments)

	group.Get("/instructors", controllers.AdminListInstructors)
	group.Patch("/instructor/:user_id/approve", validators.TargetUserID(), controllers.AdminApproveInstructor)

	group.Patch("/course/:id/toggle", validators.CourseID(), controllers.AdminToggleCourse)
	group.Delete("/course/:id", validators.CourseID(), controllers.AdminDeleteCourse)

	group.Post("/message", validators.SendMessage(), controllers.AdminSendMessage)
}
