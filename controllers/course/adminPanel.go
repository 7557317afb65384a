package controllers

import (
	"github.com/learnsphere/learnsphere-api/database"
	"github.com/learnsphere/learnsphere-api/middleware"
	"github.com/learnsphere/learnsphere-api/models"
	courseModels "github.com/learnsphere/learnsphere-api/models/course"
	"github.com/learnsphere/learnsphere-api/utils"
	courseValidator "github.com/learnsphere/learnsphere-api/validators/course"

	"github.com/gofiber/fiber/v2"
)

// AdminListUsers pages through all users with their enrollment counts
func AdminListUsers(c *fiber.Ctx) error {
	page := c.Locals("validatedPage").(int)
	limit := c.Locals("validatedLimit").(int)
	search := c.Locals("validatedSearch").(string)

	query := database.Database.Db.Model(&models.User{}).Where("is_deleted = ?", false)
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch users!", nil)
	}

	var users []models.User
	offset := (page - 1) * limit
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch users!", nil)
	}

	type UserWithStats struct {
		models.User
		EnrollmentCount int64 `json:"enrollment_count"`
	}
	list := make([]UserWithStats, 0, len(users))
	for _, user := range users {
		var count int64
		database.Database.Db.Model(&courseModels.Enrollment{}).
			Where("user_id = ? AND is_deleted = ?", user.ID, false).
			Count(&count)
		list = append(list, UserWithStats{User: user, EnrollmentCount: count})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Users fetched successfully!", fiber.Map{
		"users": list,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// AdminGetUserEnrollments shows one user's enrollments and points summary
func AdminGetUserEnrollments(c *fiber.Ctx) error {
	targetID := c.Locals("targetUserID").(int)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", targetID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	var enrollments []courseModels.Enrollment
	if err := database.Database.Db.
		Where("user_id = ? AND is_deleted = ?", targetID, false).
		Order("updated_at desc").
		Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	var points courseModels.UserPoints
	database.Database.Db.Where("user_id = ?", targetID).First(&points)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User enrollments fetched successfully!", fiber.Map{
		"user":        user,
		"enrollments": enrollments,
		"points":      points,
	})
}

// AdminListInstructors lists instructor accounts, pending approval first
func AdminListInstructors(c *fiber.Ctx) error {
	var instructors []models.User
	if err := database.Database.Db.
		Where("role = ? AND is_deleted = ?", "INSTRUCTOR", false).
		Order("is_approved asc, created_at desc").
		Find(&instructors).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch instructors!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Instructors fetched successfully!", fiber.Map{
		"instructors": instructors,
		"total":       len(instructors),
	})
}

// AdminApproveInstructor flips an instructor account to approved
func AdminApproveInstructor(c *fiber.Ctx) error {
	targetID := c.Locals("targetUserID").(int)

	var user models.User
	if err := database.Database.Db.Where("id = ? AND role = ? AND is_deleted = ?", targetID, "INSTRUCTOR", false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Instructor not found!", nil)
	}

	if user.IsApproved {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Instructor already approved!", user)
	}

	user.IsApproved = true
	if err := database.Database.Db.Save(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to approve instructor!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Instructor approved successfully!", user)
}

// AdminToggleCourse publishes or unpublishes any course
func AdminToggleCourse(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	course.IsPublished = !course.IsPublished
	if err := database.Database.Db.Save(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}

	message := "Course unpublished!"
	if course.IsPublished {
		message = "Course published!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, course)
}

// AdminDeleteCourse soft-deletes a course and unpublishes it
func AdminDeleteCourse(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	course.IsDeleted = true
	course.IsPublished = false
	if err := database.Database.Db.Save(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}

// AdminDashboardStats returns the platform-wide counters the admin
// dashboard renders
func AdminDashboardStats(c *fiber.Ctx) error {
	db := database.Database.Db

	var totalUsers, totalLearners, totalInstructors int64
	db.Model(&models.User{}).Where("is_deleted = ?", false).Count(&totalUsers)
	db.Model(&models.User{}).Where("role = ? AND is_deleted = ?", "LEARNER", false).Count(&totalLearners)
	db.Model(&models.User{}).Where("role = ? AND is_deleted = ?", "INSTRUCTOR", false).Count(&totalInstructors)

	var totalCourses, publishedCourses int64
	db.Model(&courseModels.Course{}).Where("is_deleted = ?", false).Count(&totalCourses)
	db.Model(&courseModels.Course{}).Where("is_published = ? AND is_deleted = ?", true, false).Count(&publishedCourses)

	var totalEnrollments, completedEnrollments int64
	db.Model(&courseModels.Enrollment{}).Where("is_deleted = ?", false).Count(&totalEnrollments)
	db.Model(&courseModels.Enrollment{}).Where("status = ? AND is_deleted = ?", "COMPLETED", false).Count(&completedEnrollments)

	var certificatesIssued, badgesAwarded, quizAttempts int64
	db.Model(&courseModels.Certificate{}).Where("is_deleted = ?", false).Count(&certificatesIssued)
	db.Model(&courseModels.UserBadge{}).Count(&badgesAwarded)
	db.Model(&courseModels.QuizAttempt{}).Where("is_deleted = ?", false).Count(&quizAttempts)

	completionRate := utils.RoundPercent(int(completedEnrollments), int(totalEnrollments))

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard stats fetched successfully!", fiber.Map{
		"total_users":           totalUsers,
		"total_learners":        totalLearners,
		"total_instructors":     totalInstructors,
		"total_courses":         totalCourses,
		"published_courses":     publishedCourses,
		"total_enrollments":     totalEnrollments,
		"completed_enrollments": completedEnrollments,
		"completion_rate":       completionRate,
		"certificates_issued":   certificatesIssued,
		"badges_awarded":        badgesAwarded,
		"quiz_attempts":         quizAttempts,
	})
}

// AdminSendMessage sends a platform message to any user
func AdminSendMessage(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	reqData, ok := c.Locals("validatedMessage").(*courseValidator.MessageRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var recipient models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", reqData.RecipientID, false).First(&recipient).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Recipient not found!", nil)
	}

	message := models.Message{
		SenderID:    userID,
		RecipientID: recipient.ID,
		Subject:     reqData.Subject,
		Body:        reqData.Body,
	}
	if err := database.Database.Db.Create(&message).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to send message!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Message sent successfully!", message)
}
