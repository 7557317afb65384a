package courseRoutes

import (
	controllers "github.com/learnsphere/learnsphere-api/controllers/course"
	"github.com/learnsphere/learnsphere-api/middleware"
	validators "github.com/learnsphere/learnsphere-api/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupInstructorRoutes sets up the course management surface
func SetupInstructorRoutes(app *fiber.App) {
	group := app.Group("/instructor", middleware.JWTMiddleware, middleware.RequireRole("INSTRUCTOR", "ADMIN"))

	group.Get("/courses", controllers.GetInstructorCourses)
	group.Post("/course", validators.CreateCourse(), controllers.CreateCourse)
	group.Put("/course/:id", validators.CourseID(), validators.CreateCourse(), controllers.UpdateCourse)
	group.Patch("/course/:id/publish", validators.CourseID(), controllers.PublishCourse)
	group.Get("/course/:id/enrollments", validators.CourseID(), controllers.GetCourseEnrollments)

	group.Post("/course/:id/lesson", validators.CourseID(), validators.CreateLesson(), controllers.CreateLesson)
	group.Put("/lesson/:lesson_id", validators.LessonID(), validators.CreateLesson(), controllers.UpdateLesson)
	group.Delete("/lesson/:lesson_id", validators.LessonID(), controllers.DeleteLesson)

	group.Post("/quiz", validators.CreateQuiz(), controllers.CreateQuiz)
	group.Put("/quiz/:quiz_id", validators.QuizID(), validators.CreateQuiz(), controllers.UpdateQuiz)

	group.Post("/message", validators.SendMessage(), controllers.InstructorSendMessage)
	group.Get("/messages", controllers.GetMessages)
}
