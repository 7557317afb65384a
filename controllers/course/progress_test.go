package controllers

import (
	"sync"
	"testing"

	"github.com/learnsphere/learnsphere-api/config"
	"github.com/learnsphere/learnsphere-api/database"
	"github.com/learnsphere/learnsphere-api/models"
	courseModels "github.com/learnsphere/learnsphere-api/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	config.AppConfig = &config.Config{
		JWTKey:    "test-secret",
		SaltRound: 4,
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// An in-memory sqlite exists per connection; a second pooled connection
	// would see an empty schema
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.RunMigrations(db))

	database.Database = database.DbInstance{Db: db}
	return db
}

func createLearner(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{Name: "Test Learner", Email: email, Role: "LEARNER", IsApproved: true}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createPublishedCourse(t *testing.T, db *gorm.DB, lessonCount int) (courseModels.Course, []courseModels.Lesson) {
	t.Helper()
	course := courseModels.Course{
		Title:       "Go Fundamentals",
		Description: "Learn the basics",
		Category:    "Programming",
		Access:      "FREE",
		IsPublished: true,
	}
	require.NoError(t, db.Create(&course).Error)

	lessons := make([]courseModels.Lesson, lessonCount)
	for i := 0; i < lessonCount; i++ {
		lessons[i] = courseModels.Lesson{
			CourseID: course.ID,
			Title:    "Lesson",
			Type:     "VIDEO",
			Position: i + 1,
		}
		require.NoError(t, db.Create(&lessons[i]).Error)
	}
	return course, lessons
}

func enroll(t *testing.T, db *gorm.DB, user models.User, course courseModels.Course) courseModels.Enrollment {
	t.Helper()
	enrollment, created, err := enrollUser(db, user, course)
	require.NoError(t, err)
	require.True(t, created)
	return *enrollment
}

func TestCompleteLessonProgression(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "progress@example.com")
	course, lessons := createPublishedCourse(t, db, 3)
	enroll(t, db, user, course)

	res, err := completeLesson(db, user, lessons[0])
	require.NoError(t, err)
	assert.Equal(t, 33, res.Percentage)
	assert.False(t, res.CourseCompleted)
	assert.Equal(t, lessonPoints, res.PointsEarned)

	var enrollment courseModels.Enrollment
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&enrollment).Error)
	assert.Equal(t, "IN_PROGRESS", enrollment.Status)
	assert.Equal(t, 1, enrollment.CompletedLessons)

	res, err = completeLesson(db, user, lessons[1])
	require.NoError(t, err)
	assert.Equal(t, 67, res.Percentage)
	assert.False(t, res.CourseCompleted)

	res, err = completeLesson(db, user, lessons[2])
	require.NoError(t, err)
	assert.Equal(t, 100, res.Percentage)
	assert.True(t, res.CourseCompleted)
	require.NotNil(t, res.Certificate)
	assert.NotEmpty(t, res.Certificate.CertificateNumber)

	require.NoError(t, db.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&enrollment).Error)
	assert.Equal(t, "COMPLETED", enrollment.Status)
	require.NotNil(t, enrollment.CompletedAt)
}

func TestCompleteLessonIdempotent(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "idempotent@example.com")
	course, lessons := createPublishedCourse(t, db, 2)
	enroll(t, db, user, course)

	first, err := completeLesson(db, user, lessons[0])
	require.NoError(t, err)
	assert.False(t, first.AlreadyCompleted)

	var before courseModels.UserPoints
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&before).Error)

	again, err := completeLesson(db, user, lessons[0])
	require.NoError(t, err)
	assert.True(t, again.AlreadyCompleted)
	assert.Equal(t, first.Percentage, again.Percentage)
	assert.Zero(t, again.PointsEarned)

	var after courseModels.UserPoints
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&after).Error)
	assert.Equal(t, before.TotalPoints, after.TotalPoints)
	assert.Equal(t, before.LessonsCompleted, after.LessonsCompleted)
}

func TestCompleteCourseExactlyOneCertificate(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "certificate@example.com")
	course, lessons := createPublishedCourse(t, db, 1)
	enroll(t, db, user, course)

	_, err := completeLesson(db, user, lessons[0])
	require.NoError(t, err)
	_, err = completeLesson(db, user, lessons[0])
	require.NoError(t, err)

	var certificates int64
	db.Model(&courseModels.Certificate{}).
		Where("user_id = ? AND course_id = ?", user.ID, course.ID).
		Count(&certificates)
	assert.Equal(t, int64(1), certificates)

	// Course completion awards both First Steps and Course Completer
	var completerBadge courseModels.Badge
	require.NoError(t, db.Where("name = ?", "Course Completer").First(&completerBadge).Error)
	var awards int64
	db.Model(&courseModels.UserBadge{}).
		Where("user_id = ? AND badge_id = ?", user.ID, completerBadge.ID).
		Count(&awards)
	assert.Equal(t, int64(1), awards)
}

func TestCourseRegressionDoesNotRepayCompletionBonus(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "regression@example.com")
	course, lessons := createPublishedCourse(t, db, 1)
	enroll(t, db, user, course)

	res, err := completeLesson(db, user, lessons[0])
	require.NoError(t, err)
	require.True(t, res.CourseCompleted)

	var points courseModels.UserPoints
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&points).Error)
	assert.Equal(t, 1, points.CoursesCompleted)
	assert.Equal(t, lessonPoints+coursePoints, points.TotalPoints)

	// New lessons drop the enrollment back below 100%
	extra := make([]courseModels.Lesson, 2)
	for i := range extra {
		extra[i] = courseModels.Lesson{CourseID: course.ID, Title: "Added later", Type: "VIDEO", Position: i + 2}
		require.NoError(t, db.Create(&extra[i]).Error)
	}

	res, err = completeLesson(db, user, extra[0])
	require.NoError(t, err)
	assert.Equal(t, 67, res.Percentage)

	var enrollment courseModels.Enrollment
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&enrollment).Error)
	assert.Equal(t, "IN_PROGRESS", enrollment.Status)

	// Re-reaching 100% pays the new lessons but never the course bonus again
	res, err = completeLesson(db, user, extra[1])
	require.NoError(t, err)
	assert.Equal(t, 100, res.Percentage)

	require.NoError(t, db.Where("user_id = ?", user.ID).First(&points).Error)
	assert.Equal(t, 1, points.CoursesCompleted)
	assert.Equal(t, 3*lessonPoints+coursePoints, points.TotalPoints)

	var certificates int64
	db.Model(&courseModels.Certificate{}).
		Where("user_id = ? AND course_id = ?", user.ID, course.ID).
		Count(&certificates)
	assert.Equal(t, int64(1), certificates)
}

func TestConcurrentDoubleCompleteLastLesson(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "concurrent@example.com")
	course, lessons := createPublishedCourse(t, db, 1)
	enroll(t, db, user, course)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = completeLesson(db, user, lessons[0])
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	require.GreaterOrEqual(t, succeeded, 1)

	var certificates int64
	db.Model(&courseModels.Certificate{}).
		Where("user_id = ? AND course_id = ?", user.ID, course.ID).
		Count(&certificates)
	assert.Equal(t, int64(1), certificates)

	var completerBadge courseModels.Badge
	require.NoError(t, db.Where("name = ?", "Course Completer").First(&completerBadge).Error)
	var awards int64
	db.Model(&courseModels.UserBadge{}).
		Where("user_id = ? AND badge_id = ?", user.ID, completerBadge.ID).
		Count(&awards)
	assert.Equal(t, int64(1), awards)

	var points courseModels.UserPoints
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&points).Error)
	assert.Equal(t, lessonPoints+coursePoints, points.TotalPoints)
	assert.Equal(t, 1, points.CoursesCompleted)
	assert.Equal(t, 1, points.LessonsCompleted)
}

func TestCompleteLessonRequiresEnrollment(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "unenrolled@example.com")
	_, lessons := createPublishedCourse(t, db, 2)

	_, err := completeLesson(db, user, lessons[0])
	assert.ErrorIs(t, err, errNotEnrolled)

	_, err = startLesson(db, user, lessons[0])
	assert.ErrorIs(t, err, errNotEnrolled)
}

func TestInstructorPreviewHasNoSideEffects(t *testing.T) {
	db := setupTestDB(t)
	instructor := models.User{Name: "Instructor", Email: "teach@example.com", Role: "INSTRUCTOR", IsApproved: true}
	require.NoError(t, db.Create(&instructor).Error)
	_, lessons := createPublishedCourse(t, db, 2)

	res, err := completeLesson(db, instructor, lessons[0])
	require.NoError(t, err)
	require.NotNil(t, res.Progress)
	assert.Equal(t, "COMPLETED", res.Progress.Status)
	assert.Zero(t, res.PointsEarned)
	assert.Nil(t, res.Certificate)

	var points int64
	db.Model(&courseModels.PointsEntry{}).Where("user_id = ?", instructor.ID).Count(&points)
	assert.Zero(t, points)
}

func TestStartLessonIsNoOpOnExistingProgress(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "start@example.com")
	course, lessons := createPublishedCourse(t, db, 2)
	enroll(t, db, user, course)

	first, err := startLesson(db, user, lessons[0])
	require.NoError(t, err)
	assert.Equal(t, "STARTED", first.Status)

	_, err = completeLesson(db, user, lessons[0])
	require.NoError(t, err)

	// Starting again never downgrades a completed lesson
	again, err := startLesson(db, user, lessons[0])
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", again.Status)
	assert.Equal(t, first.ID, again.ID)
}

func TestEnrollUserIdempotentAndInvitationGate(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "enroll@example.com")
	course, _ := createPublishedCourse(t, db, 3)

	first, created, err := enrollUser(db, user, course)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 3, first.TotalLessons)
	assert.Equal(t, "NOT_STARTED", first.Status)

	second, created, err := enrollUser(db, user, course)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	invite := courseModels.Course{Title: "Private", Description: "Invite only", Category: "Ops", Access: "INVITATION", IsPublished: true}
	require.NoError(t, db.Create(&invite).Error)
	_, _, err = enrollUser(db, user, invite)
	assert.ErrorIs(t, err, errInvitationOnly)
}
