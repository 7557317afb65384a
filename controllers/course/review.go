package controllers

import (
	"errors"

	"github.com/learnsphere/learnsphere-api/database"
	"github.com/learnsphere/learnsphere-api/middleware"
	"github.com/learnsphere/learnsphere-api/models"
	courseModels "github.com/learnsphere/learnsphere-api/models/course"
	courseValidator "github.com/learnsphere/learnsphere-api/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// recalculateCourseRating recomputes the cached average from live reviews
func recalculateCourseRating(db *gorm.DB, courseID uint) error {
	type aggregate struct {
		Avg   float64
		Count int64
	}
	var agg aggregate
	if err := db.Model(&courseModels.Review{}).
		Select("COALESCE(AVG(rating), 0) as avg, COUNT(*) as count").
		Where("course_id = ? AND is_deleted = ?", courseID, false).
		Scan(&agg).Error; err != nil {
		return err
	}

	return db.Model(&courseModels.Course{}).
		Where("id = ?", courseID).
		Updates(map[string]interface{}{
			"rating":       agg.Avg,
			"rating_count": agg.Count,
		}).Error
}

// GetCourseReviews lists live reviews for a course, newest first
func GetCourseReviews(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)

	if _, ok := visibleCourse(user, uint(courseID)); !ok {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var reviews []courseModels.Review
	if err := database.Database.Db.
		Where("course_id = ? AND is_deleted = ?", courseID, false).
		Order("created_at desc").
		Find(&reviews).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch reviews!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Reviews fetched successfully!", fiber.Map{
		"reviews": reviews,
		"total":   len(reviews),
	})
}

// AddCourseReview creates or updates the caller's review. One review per
// user per course; a soft-deleted review is revived in place.
func AddCourseReview(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)

	if _, ok := visibleCourse(user, uint(courseID)); !ok {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Only enrolled users can review a course!", nil)
	}

	reqData, ok := c.Locals("validatedReview").(*courseValidator.ReviewRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	var review courseModels.Review
	err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&review).Error
	switch {
	case err == nil:
		review.Rating = reqData.Rating
		review.Comment = reqData.Comment
		review.IsDeleted = false
		if err := db.Save(&review).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save review!", nil)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		review = courseModels.Review{
			UserID:   userID,
			CourseID: uint(courseID),
			Rating:   reqData.Rating,
			Comment:  reqData.Comment,
		}
		if err := db.Create(&review).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save review!", nil)
		}
	default:
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save review!", nil)
	}

	if err := recalculateCourseRating(db, uint(courseID)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save review!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Review saved successfully!", review)
}

// DeleteCourseReview soft-deletes the caller's review and refreshes the average
func DeleteCourseReview(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)

	db := database.Database.Db
	var review courseModels.Review
	if err := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&review).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Review not found!", nil)
	}

	review.IsDeleted = true
	if err := db.Save(&review).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete review!", nil)
	}

	if err := recalculateCourseRating(db, uint(courseID)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete review!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Review deleted successfully!", nil)
}
