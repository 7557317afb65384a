package courseRoutes

import (
	controllers "github.com/learnsphere/learnsphere-api/controllers/course"
	"github.com/learnsphere/learnsphere-api/middleware"
	validators "github.com/learnsphere/learnsphere-api/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all learner-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	// Catalog
	courseGroup.Get("/list", middleware.JWTMiddleware, validators.CourseList(), controllers.GetAllCourses)
	courseGroup.Get("/:id", middleware.JWTMiddleware, validators.CourseID(), controllers.GetCourseDetails)

	// Enrollment
	courseGroup.Post("/:id/enroll", middleware.JWTMiddleware, validators.CourseID(), controllers.EnrollInCourse)

	// Lesson progress
	courseGroup.Post("/lesson/:lesson_id/start", middleware.JWTMiddleware, validators.LessonID(), controllers.StartLesson)
	courseGroup.Post("/lesson/:lesson_id/complete", middleware.JWTMiddleware, validators.LessonID(), controllers.CompleteLesson)
	courseGroup.Put("/lesson/:lesson_id/position", middleware.JWTMiddleware, validators.LessonID(), validators.SavePosition(), controllers.SaveLessonPosition)
	courseGroup.Get("/:id/progress", middleware.JWTMiddleware, validators.CourseID(), controllers.GetCourseProgress)

	// Quizzes
	courseGroup.Get("/quiz/:quiz_id", middleware.JWTMiddleware, validators.QuizID(), controllers.GetQuiz)
	courseGroup.Post("/quiz/:quiz_id/submit", middleware.JWTMiddleware, validators.QuizID(), validators.SubmitQuiz(), controllers.SubmitQuiz)
	courseGroup.Get("/quiz/:quiz_id/attempts", middleware.JWTMiddleware, validators.QuizID(), controllers.ListQuizAttempts)

	// Reviews
	courseGroup.Get("/:id/reviews", middleware.JWTMiddleware, validators.CourseID(), controllers.GetCourseReviews)
	courseGroup.Post("/:id/reviews", middleware.JWTMiddleware, validators.CourseID(), validators.AddReview(), controllers.AddCourseReview)
	courseGroup.Delete("/:id/reviews", middleware.JWTMiddleware, validators.CourseID(), controllers.DeleteCourseReview)
}
