package controllers

import (
	"database/sql"
	"errors"
	"time"

	"github.com/learnsphere/learnsphere-api/database"
	"github.com/learnsphere/learnsphere-api/middleware"
	courseModels "github.com/learnsphere/learnsphere-api/models/course"
	"github.com/learnsphere/learnsphere-api/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Point values for the fixed-reward events
const (
	lessonPoints = 10
	coursePoints = 100
)

// UserPoints counter selectors for addPoints
const (
	counterNone    = ""
	counterLessons = "lessons"
	counterQuizzes = "quizzes"
	counterCourses = "courses"
)

// addPoints appends a ledger entry and updates the per-user aggregate under a
// row lock. Totals only grow; the counter selects which badge-rule counter to
// bump alongside the points.
func addPoints(tx *gorm.DB, userID uint, points int, reason string, counter string) (*courseModels.UserPoints, error) {
	entry := courseModels.PointsEntry{UserID: userID, Points: points, Reason: reason}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}

	var aggregate courseModels.UserPoints
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&aggregate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		aggregate = courseModels.UserPoints{UserID: userID}
		if err := tx.Create(&aggregate).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	aggregate.TotalPoints += points
	switch counter {
	case counterLessons:
		aggregate.LessonsCompleted++
	case counterQuizzes:
		aggregate.QuizzesPassed++
	case counterCourses:
		aggregate.CoursesCompleted++
	}
	aggregate.BadgeLevel = utils.BadgeLevel(aggregate.TotalPoints)

	if err := tx.Save(&aggregate).Error; err != nil {
		return nil, err
	}
	return &aggregate, nil
}

// evaluateBadges checks every badge rule against the user's counters and
// awards what is newly satisfied. The unique (user, badge) index is the real
// guarantee against double awards; a conflicting insert aborts the enclosing
// transaction and the retry sees the existing row.
func evaluateBadges(tx *gorm.DB, userID uint) ([]courseModels.Badge, error) {
	var aggregate courseModels.UserPoints
	if err := tx.Where("user_id = ?", userID).First(&aggregate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var badges []courseModels.Badge
	if err := tx.Where("is_deleted = ?", false).Find(&badges).Error; err != nil {
		return nil, err
	}

	var earned []courseModels.Badge
	for _, badge := range badges {
		var met bool
		switch badge.Rule {
		case courseModels.RuleLessonsCompleted:
			met = aggregate.LessonsCompleted >= badge.Threshold
		case courseModels.RuleQuizzesPassed:
			met = aggregate.QuizzesPassed >= badge.Threshold
		case courseModels.RuleCoursesCompleted:
			met = aggregate.CoursesCompleted >= badge.Threshold
		}
		if !met {
			continue
		}

		var existing courseModels.UserBadge
		err := tx.Where("user_id = ? AND badge_id = ?", userID, badge.ID).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		award := courseModels.UserBadge{UserID: userID, BadgeID: badge.ID, EarnedAt: time.Now()}
		if err := tx.Create(&award).Error; err != nil {
			return nil, err
		}
		earned = append(earned, badge)
	}
	return earned, nil
}

// issueCertificateIfAbsent returns the existing certificate unchanged or
// creates one, never both. The bool reports whether a new one was issued.
func issueCertificateIfAbsent(tx *gorm.DB, userID, courseID uint) (*courseModels.Certificate, bool, error) {
	var existing courseModels.Certificate
	err := tx.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	grade, err := computeGrade(tx, userID, courseID)
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	certificate := courseModels.Certificate{
		UserID:            userID,
		CourseID:          courseID,
		CertificateNumber: utils.CertificateNumber(userID, courseID),
		Grade:             grade,
		IssuedAt:          now,
		CompletionDate:    now,
	}
	if err := tx.Create(&certificate).Error; err != nil {
		return nil, false, err
	}
	return &certificate, true, nil
}

// computeGrade averages the user's best score on each quiz of the course.
// A course without quizzes grades flat A.
func computeGrade(tx *gorm.DB, userID, courseID uint) (string, error) {
	var quizIDs []uint
	if err := tx.Model(&courseModels.Quiz{}).
		Where("course_id = ? AND is_deleted = ?", courseID, false).
		Pluck("id", &quizIDs).Error; err != nil {
		return "", err
	}
	if len(quizIDs) == 0 {
		return "A", nil
	}

	sum := 0.0
	graded := 0
	for _, quizID := range quizIDs {
		var best sql.NullFloat64
		if err := tx.Model(&courseModels.QuizAttempt{}).
			Where("user_id = ? AND quiz_id = ? AND is_deleted = ?", userID, quizID, false).
			Select("MAX(score)").
			Scan(&best).Error; err != nil {
			return "", err
		}
		if best.Valid {
			sum += best.Float64
			graded++
		}
	}
	if graded == 0 {
		return "A", nil
	}
	return utils.GradeFromAverage(sum / float64(graded)), nil
}

// GetUserAchievements returns badges, certificates, points and streak
func GetUserAchievements(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db

	type BadgeWithAward struct {
		courseModels.Badge
		EarnedAt time.Time `json:"earned_at"`
		IsNew    bool      `json:"is_new"`
	}

	var awards []courseModels.UserBadge
	db.Where("user_id = ?", userID).Order("earned_at desc").Find(&awards)

	badges := make([]BadgeWithAward, 0, len(awards))
	for _, award := range awards {
		var badge courseModels.Badge
		if err := db.Where("id = ?", award.BadgeID).First(&badge).Error; err != nil {
			continue
		}
		badges = append(badges, BadgeWithAward{Badge: badge, EarnedAt: award.EarnedAt, IsNew: award.IsNew})
	}

	var certificates []courseModels.Certificate
	db.Where("user_id = ? AND is_deleted = ?", userID, false).Order("issued_at desc").Find(&certificates)

	var aggregate courseModels.UserPoints
	if err := db.Where("user_id = ?", userID).First(&aggregate).Error; err != nil {
		aggregate = courseModels.UserPoints{UserID: userID, BadgeLevel: "Newbie"}
	}

	var completions []time.Time
	db.Model(&courseModels.LessonProgress{}).
		Where("user_id = ? AND status = ? AND completed_at IS NOT NULL", userID, "COMPLETED").
		Pluck("completed_at", &completions)
	currentStreak, longestStreak := utils.ComputeStreak(completions, time.Now())

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Achievements fetched successfully!", fiber.Map{
		"badges":       badges,
		"certificates": certificates,
		"points": fiber.Map{
			"total_points":      aggregate.TotalPoints,
			"badge_level":       aggregate.BadgeLevel,
			"lessons_completed": aggregate.LessonsCompleted,
			"quizzes_passed":    aggregate.QuizzesPassed,
			"courses_completed": aggregate.CoursesCompleted,
		},
		"streak": fiber.Map{
			"current_streak": currentStreak,
			"longest_streak": longestStreak,
		},
	})
}

// GetNewBadges returns badges earned but not yet viewed
func GetNewBadges(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var awards []courseModels.UserBadge
	if err := database.Database.Db.Where("user_id = ? AND is_new = ?", userID, true).Find(&awards).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch badges!", nil)
	}

	type BadgeWithAward struct {
		courseModels.Badge
		EarnedAt time.Time `json:"earned_at"`
	}

	result := make([]BadgeWithAward, 0, len(awards))
	for _, award := range awards {
		var badge courseModels.Badge
		if err := database.Database.Db.Where("id = ?", award.BadgeID).First(&badge).Error; err != nil {
			continue
		}
		result = append(result, BadgeWithAward{Badge: badge, EarnedAt: award.EarnedAt})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "New badges fetched successfully!", fiber.Map{
		"badges": result,
	})
}

// MarkBadgeViewed clears the is_new flag on one earned badge
func MarkBadgeViewed(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	badgeID := c.Locals("badgeID").(int)

	var award courseModels.UserBadge
	if err := database.Database.Db.Where("user_id = ? AND badge_id = ?", userID, badgeID).First(&award).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Badge not found!", nil)
	}

	award.IsNew = false
	if err := database.Database.Db.Save(&award).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update badge!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Badge marked as viewed!", award)
}

// GetUserCertificates lists the caller's certificates with course names
func GetUserCertificates(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	type CertificateWithCourse struct {
		courseModels.Certificate
		CourseName string `json:"course_name"`
	}

	var certificates []courseModels.Certificate
	if err := database.Database.Db.Where("user_id = ? AND is_deleted = ?", userID, false).Order("issued_at desc").Find(&certificates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	result := make([]CertificateWithCourse, len(certificates))
	for i, certificate := range certificates {
		var course courseModels.Course
		database.Database.Db.Where("id = ?", certificate.CourseID).First(&course)
		result[i] = CertificateWithCourse{Certificate: certificate, CourseName: course.Title}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", fiber.Map{
		"certificates": result,
		"total":        len(result),
	})
}

// GetCertificate returns one of the caller's certificates and marks it seen
func GetCertificate(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	certificateID := c.Locals("certificateID").(int)

	var certificate courseModels.Certificate
	if err := database.Database.Db.Where("id = ? AND user_id = ? AND is_deleted = ?", certificateID, userID, false).First(&certificate).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	if !certificate.IsSeen {
		certificate.IsSeen = true
		if err := database.Database.Db.Save(&certificate).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update certificate!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate fetched successfully!", certificate)
}

// MarkCertificateDownloaded flags a certificate as downloaded
func MarkCertificateDownloaded(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	certificateID := c.Locals("certificateID").(int)

	var certificate courseModels.Certificate
	if err := database.Database.Db.Where("id = ? AND user_id = ? AND is_deleted = ?", certificateID, userID, false).First(&certificate).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	certificate.IsDownloaded = true
	if err := database.Database.Db.Save(&certificate).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update certificate!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate marked as downloaded!", certificate)
}
