package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/learnsphere/learnsphere-api/database"
	"github.com/learnsphere/learnsphere-api/middleware"
	"github.com/learnsphere/learnsphere-api/models"
	courseModels "github.com/learnsphere/learnsphere-api/models/course"
	"github.com/learnsphere/learnsphere-api/utils"
	courseValidator "github.com/learnsphere/learnsphere-api/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errNotEnrolled maps to a 403: a learner touched a lesson of a course they
// never enrolled in. Instructors previewing their own course and admins are
// exempt (no enrollment side effects fire for them).
var errNotEnrolled = errors.New("user not enrolled in this course")

// completionResult is everything CompleteLesson needs to report back
type completionResult struct {
	Progress         *courseModels.LessonProgress
	Percentage       int
	AlreadyCompleted bool
	CourseCompleted  bool
	Certificate      *courseModels.Certificate
	NewBadges        []courseModels.Badge
	PointsEarned     int
}

// isRetryableConflict reports whether a transaction failed on a concurrency
// conflict worth one transparent retry: two requests racing on the same
// enrollment, progress row or badge award.
func isRetryableConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}

// startLesson creates a STARTED progress row if none exists. A row in any
// state makes this a no-op, never an error.
func startLesson(db *gorm.DB, user models.User, lesson courseModels.Lesson) (*courseModels.LessonProgress, error) {
	if user.Role == "LEARNER" {
		var enrollment courseModels.Enrollment
		if err := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", user.ID, lesson.CourseID, false).First(&enrollment).Error; err != nil {
			return nil, errNotEnrolled
		}
	}

	var progress courseModels.LessonProgress
	err := db.Where("user_id = ? AND lesson_id = ? AND is_deleted = ?", user.ID, lesson.ID, false).First(&progress).Error
	if err == nil {
		return &progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	progress = courseModels.LessonProgress{
		UserID:   user.ID,
		LessonID: lesson.ID,
		CourseID: lesson.CourseID,
		Status:   "STARTED",
	}
	if err := db.Create(&progress).Error; err != nil {
		if isRetryableConflict(err) {
			// lost a create race; the existing row wins
			if ferr := db.Where("user_id = ? AND lesson_id = ?", user.ID, lesson.ID).First(&progress).Error; ferr == nil {
				return &progress, nil
			}
		}
		return nil, err
	}
	return &progress, nil
}

// completeLessonTx is the core of the progress tracker. It runs inside a
// transaction holding a row lock on the enrollment, so the percentage
// recompute and the completion side effects (certificate, points, badges)
// cannot interleave with a concurrent completion of the same course.
func completeLessonTx(tx *gorm.DB, user models.User, lesson courseModels.Lesson) (*completionResult, error) {
	res := &completionResult{}
	now := time.Now()

	var enrollment courseModels.Enrollment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND course_id = ? AND is_deleted = ?", user.ID, lesson.CourseID, false).
		First(&enrollment).Error
	enrolled := err == nil
	if !enrolled {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if user.Role == "LEARNER" {
			return nil, errNotEnrolled
		}
	}

	var progress courseModels.LessonProgress
	err = tx.Where("user_id = ? AND lesson_id = ? AND is_deleted = ?", user.ID, lesson.ID, false).First(&progress).Error
	switch {
	case err == nil && progress.Status == "COMPLETED":
		// Idempotent no-op: return current state, no points, no recompute
		res.Progress = &progress
		res.AlreadyCompleted = true
		if enrolled {
			res.Percentage = enrollment.Progress
			res.CourseCompleted = enrollment.Status == "COMPLETED"
		}
		return res, nil
	case err == nil:
		progress.Status = "COMPLETED"
		progress.CompletedAt = &now
		if err := tx.Save(&progress).Error; err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		progress = courseModels.LessonProgress{
			UserID:      user.ID,
			LessonID:    lesson.ID,
			CourseID:    lesson.CourseID,
			Status:      "COMPLETED",
			CompletedAt: &now,
		}
		if err := tx.Create(&progress).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	res.Progress = &progress

	if !enrolled {
		// instructor/admin preview: the row exists, nothing else fires
		return res, nil
	}

	if _, err := addPoints(tx, user.ID, lessonPoints, fmt.Sprintf("Completed lesson: %s", lesson.Title), counterLessons); err != nil {
		return nil, err
	}
	res.PointsEarned = lessonPoints

	var totalLessons, completedLessons int64
	if err := tx.Model(&courseModels.Lesson{}).
		Where("course_id = ? AND is_deleted = ?", lesson.CourseID, false).
		Count(&totalLessons).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&courseModels.LessonProgress{}).
		Where("user_id = ? AND course_id = ? AND status = ? AND is_deleted = ?", user.ID, lesson.CourseID, "COMPLETED", false).
		Count(&completedLessons).Error; err != nil {
		return nil, err
	}

	percentage := utils.RoundPercent(int(completedLessons), int(totalLessons))
	wasCompleted := enrollment.Status == "COMPLETED"

	enrollment.Progress = percentage
	enrollment.CompletedLessons = int(completedLessons)
	enrollment.TotalLessons = int(totalLessons)
	if percentage >= 100 {
		enrollment.Status = "COMPLETED"
		if !wasCompleted {
			enrollment.CompletedAt = &now
		}
	} else if percentage > 0 {
		enrollment.Status = "IN_PROGRESS"
	}
	if err := tx.Save(&enrollment).Error; err != nil {
		return nil, err
	}
	res.Percentage = percentage

	if percentage >= 100 && !wasCompleted {
		res.CourseCompleted = true

		certificate, issued, err := issueCertificateIfAbsent(tx, user.ID, lesson.CourseID)
		if err != nil {
			return nil, err
		}
		res.Certificate = certificate

		// The completion bonus rides the certificate issue: a course that
		// regressed after new lessons were added and reached 100% again
		// already has one, so nothing is paid twice
		if issued {
			if _, err := addPoints(tx, user.ID, coursePoints, "Completed course", counterCourses); err != nil {
				return nil, err
			}
		}
	}

	newBadges, err := evaluateBadges(tx, user.ID)
	if err != nil {
		return nil, err
	}
	res.NewBadges = newBadges

	return res, nil
}

// completeLesson wraps completeLessonTx in a transaction and retries once on
// a concurrency conflict before surfacing the error.
func completeLesson(db *gorm.DB, user models.User, lesson courseModels.Lesson) (*completionResult, error) {
	var res *completionResult
	run := func() error {
		return db.Transaction(func(tx *gorm.DB) error {
			r, err := completeLessonTx(tx, user, lesson)
			if err != nil {
				return err
			}
			res = r
			return nil
		})
	}

	err := run()
	if err != nil && isRetryableConflict(err) {
		err = run()
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// StartLesson marks a lesson as started for the current user
func StartLesson(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	lessonID := c.Locals("lessonID").(int)

	var lesson courseModels.Lesson
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", lessonID, false).First(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	if _, ok := visibleCourse(user, lesson.CourseID); !ok {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or not published!", nil)
	}

	progress, err := startLesson(database.Database.Db, user, lesson)
	if errors.Is(err, errNotEnrolled) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
	}
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to start lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson started!", progress)
}

// CompleteLesson marks a lesson completed and applies all completion side effects
func CompleteLesson(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	lessonID := c.Locals("lessonID").(int)

	var lesson courseModels.Lesson
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", lessonID, false).First(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	course, ok := visibleCourse(user, lesson.CourseID)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or not published!", nil)
	}

	result, err := completeLesson(database.Database.Db, user, lesson)
	if errors.Is(err, errNotEnrolled) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
	}
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to complete lesson!", nil)
	}

	// Certificate email fires after the transaction committed
	if result.CourseCompleted && result.Certificate != nil && !result.AlreadyCompleted {
		go utils.SendCertificateEmail(user.Email, user.Name, course.Title, result.Certificate.CertificateNumber)
	}

	data := fiber.Map{
		"progress":              result.Progress,
		"enrollment_percentage": result.Percentage,
		"course_completed":      result.CourseCompleted,
		"points_earned":         result.PointsEarned,
	}
	if result.Certificate != nil {
		data["certificate"] = result.Certificate
	}
	if len(result.NewBadges) > 0 {
		data["new_badges"] = result.NewBadges
	}

	message := "Lesson marked as completed!"
	if result.AlreadyCompleted {
		message = "Lesson already completed!"
	} else if result.CourseCompleted {
		message = "Congratulations! You've completed the course and earned a certificate!"
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, message, data)
}

// SaveLessonPosition stores the playback/scroll bookmark for a started lesson
func SaveLessonPosition(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	lessonID := c.Locals("lessonID").(int)

	reqData, ok := c.Locals("validatedPosition").(*courseValidator.PositionRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var progress courseModels.LessonProgress
	if err := database.Database.Db.Where("user_id = ? AND lesson_id = ? AND is_deleted = ?", userID, lessonID, false).First(&progress).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Start the lesson before saving a position!", nil)
	}

	progress.LastPosition = reqData.Position
	if err := database.Database.Db.Save(&progress).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save position!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Position saved!", progress)
}

// GetCourseProgress returns completed lesson ids and the percentage; read-only
func GetCourseProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
	}

	var completed []courseModels.LessonProgress
	database.Database.Db.Where("user_id = ? AND course_id = ? AND status = ? AND is_deleted = ?", userID, courseID, "COMPLETED", false).Find(&completed)

	completedIDs := make([]uint, len(completed))
	for i, p := range completed {
		completedIDs[i] = p.LessonID
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", fiber.Map{
		"enrollment":           enrollment,
		"completed_lesson_ids": completedIDs,
		"percentage":           enrollment.Progress,
	})
}
