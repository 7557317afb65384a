package controllers

import (
	"errors"

	"github.com/learnsphere/learnsphere-api/database"
	"github.com/learnsphere/learnsphere-api/middleware"
	"github.com/learnsphere/learnsphere-api/models"
	courseModels "github.com/learnsphere/learnsphere-api/models/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// visibleCourse resolves a course for the viewer: learners only see
// published courses, instructors additionally see their own drafts, admins
// see everything.
func visibleCourse(user models.User, courseID uint) (*courseModels.Course, bool) {
	var course courseModels.Course
	err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error
	if err != nil {
		return nil, false
	}

	if course.IsPublished {
		return &course, true
	}
	if user.Role == "ADMIN" {
		return &course, true
	}
	if user.Role == "INSTRUCTOR" && course.InstructorID == user.ID {
		return &course, true
	}
	return nil, false
}

// GetAllCourses lists published courses with search, category and access
// filters plus pagination
func GetAllCourses(c *fiber.Ctx) error {
	page := c.Locals("validatedPage").(int)
	limit := c.Locals("validatedLimit").(int)
	search := c.Locals("validatedSearch").(string)
	category := c.Locals("validatedCategory").(string)
	access := c.Locals("validatedAccess").(string)

	query := database.Database.Db.Model(&courseModels.Course{}).
		Where("is_published = ? AND is_deleted = ?", true, false)

	if search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR tags LIKE ? OR category LIKE ?", like, like, like)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if access != "" {
		query = query.Where("access = ?", access)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	var courses []courseModels.Course
	offset := (page - 1) * limit
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses": courses,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// LessonSummary is a catalog view of a lesson with its gating quiz, if any
type LessonSummary struct {
	courseModels.Lesson
	QuizID uint `json:"quiz_id,omitempty"`
}

// GetCourseDetails returns a course with its ordered lessons and the
// viewer's enrollment when one exists
func GetCourseDetails(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)

	course, ok := visibleCourse(user, uint(courseID))
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var lessons []courseModels.Lesson
	if err := database.Database.Db.
		Where("course_id = ? AND is_deleted = ?", course.ID, false).
		Order("position asc, id asc").
		Find(&lessons).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course lessons!", nil)
	}

	var quizzes []courseModels.Quiz
	if err := database.Database.Db.
		Select("id", "lesson_id").
		Where("course_id = ? AND is_deleted = ?", course.ID, false).
		Find(&quizzes).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course lessons!", nil)
	}
	quizByLesson := make(map[uint]uint, len(quizzes))
	for _, quiz := range quizzes {
		quizByLesson[quiz.LessonID] = quiz.ID
	}

	summaries := make([]LessonSummary, 0, len(lessons))
	for _, lesson := range lessons {
		summaries = append(summaries, LessonSummary{
			Lesson: lesson,
			QuizID: quizByLesson[lesson.ID],
		})
	}

	data := fiber.Map{
		"course":  course,
		"lessons": summaries,
	}

	var enrollment courseModels.Enrollment
	err := database.Database.Db.
		Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, course.ID, false).
		First(&enrollment).Error
	if err == nil {
		data["enrollment"] = enrollment
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course details!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course details fetched successfully!", data)
}
