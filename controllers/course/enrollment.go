package controllers

import (
	"errors"
	"strings"

	"github.com/learnsphere/learnsphere-api/database"
	"github.com/learnsphere/learnsphere-api/middleware"
	"github.com/learnsphere/learnsphere-api/models"
	courseModels "github.com/learnsphere/learnsphere-api/models/course"
	"github.com/learnsphere/learnsphere-api/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	errInvitationOnly = errors.New("course is invitation only")
	errPaymentFailed  = errors.New("payment was not confirmed")
)

// enrollUser creates an enrollment, charging first when the course is paid.
// Re-enrolling returns the existing row untouched.
func enrollUser(db *gorm.DB, user models.User, course courseModels.Course) (*courseModels.Enrollment, bool, error) {
	var existing courseModels.Enrollment
	err := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", user.ID, course.ID, false).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if course.Access == "INVITATION" {
		return nil, false, errInvitationOnly
	}

	var paymentRef string
	isPaid := false
	if course.Access == "PAID" && course.Price > 0 {
		payment, err := utils.ChargeCourse(user.ID, user.Email, course.ID, course.Price)
		if err != nil {
			return nil, false, errPaymentFailed
		}
		paymentRef = payment.Reference
		isPaid = true
	}

	var totalLessons int64
	if err := db.Model(&courseModels.Lesson{}).
		Where("course_id = ? AND is_deleted = ?", course.ID, false).
		Count(&totalLessons).Error; err != nil {
		return nil, false, err
	}

	enrollment := courseModels.Enrollment{
		UserID:       user.ID,
		CourseID:     course.ID,
		Status:       "NOT_STARTED",
		TotalLessons: int(totalLessons),
		IsPaid:       isPaid,
		PaymentRef:   paymentRef,
	}
	if err := db.Create(&enrollment).Error; err != nil {
		// Two concurrent enrolls: the unique index keeps one row, both callers
		// succeed with it
		if strings.Contains(strings.ToLower(err.Error()), "duplicate") ||
			strings.Contains(strings.ToLower(err.Error()), "unique") {
			if refetchErr := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", user.ID, course.ID, false).First(&existing).Error; refetchErr == nil {
				return &existing, false, nil
			}
		}
		return nil, false, err
	}

	return &enrollment, true, nil
}

// EnrollInCourse enrolls the caller in a published course
func EnrollInCourse(c *fiber.Ctx) error {
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

	enrollment, created, err := enrollUser(database.Database.Db, user, *course)
	if errors.Is(err, errInvitationOnly) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "This course is invitation only!", nil)
	}
	if errors.Is(err, errPaymentFailed) {
		return middleware.JsonResponse(c, fiber.StatusPaymentRequired, false, "Payment failed. Please try again!", nil)
	}
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course!", nil)
	}

	message := "Already enrolled in this course!"
	if created {
		message = "Enrolled successfully!"
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, message, fiber.Map{
		"enrollment": enrollment,
		"course": fiber.Map{
			"id":     course.ID,
			"title":  course.Title,
			"access": course.Access,
		},
	})
}

// EnrollmentWithCourse pairs an enrollment row with its course summary for
// the dashboard list
type EnrollmentWithCourse struct {
	Enrollment courseModels.Enrollment `json:"enrollment"`
	Course     fiber.Map               `json:"course"`
}

// GetUserEnrollmentsList returns the caller's enrollments with course summaries
func GetUserEnrollmentsList(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var enrollments []courseModels.Enrollment
	if err := database.Database.Db.
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("updated_at desc").
		Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	courseIDs := make([]uint, 0, len(enrollments))
	for _, enrollment := range enrollments {
		courseIDs = append(courseIDs, enrollment.CourseID)
	}

	courseByID := make(map[uint]courseModels.Course, len(courseIDs))
	if len(courseIDs) > 0 {
		var courses []courseModels.Course
		if err := database.Database.Db.Where("id IN ?", courseIDs).Find(&courses).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
		}
		for _, course := range courses {
			courseByID[course.ID] = course
		}
	}

	list := make([]EnrollmentWithCourse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		course := courseByID[enrollment.CourseID]
		list = append(list, EnrollmentWithCourse{
			Enrollment: enrollment,
			Course: fiber.Map{
				"id":            course.ID,
				"title":         course.Title,
				"category":      course.Category,
				"thumbnail_url": course.ThumbnailURL,
				"duration":      course.Duration,
				"instructor_id": course.InstructorID,
			},
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"enrollments": list,
		"total":       len(list),
	})
}
