package controllers

import (
	"testing"

	courseModels "github.com/learnsphere/learnsphere-api/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPointsLedgerAndAggregate(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "points@example.com")

	aggregate, err := addPoints(db, user.ID, 30, "First reward", counterLessons)
	require.NoError(t, err)
	assert.Equal(t, 30, aggregate.TotalPoints)
	assert.Equal(t, 1, aggregate.LessonsCompleted)
	assert.Equal(t, "Newbie", aggregate.BadgeLevel)

	aggregate, err = addPoints(db, user.ID, 80, "Second reward", counterQuizzes)
	require.NoError(t, err)
	assert.Equal(t, 110, aggregate.TotalPoints)
	assert.Equal(t, 1, aggregate.QuizzesPassed)
	assert.Equal(t, "Achiever", aggregate.BadgeLevel)

	var entries []courseModels.PointsEntry
	require.NoError(t, db.Where("user_id = ?", user.ID).Order("id asc").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.Equal(t, "First reward", entries[0].Reason)
	assert.Equal(t, 80, entries[1].Points)
}

func TestEvaluateBadgesIdempotent(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "badges@example.com")

	_, err := addPoints(db, user.ID, lessonPoints, "Lesson", counterLessons)
	require.NoError(t, err)

	first, err := evaluateBadges(db, user.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "First Steps", first[0].Name)

	// Re-running against unchanged counters awards nothing new
	second, err := evaluateBadges(db, user.ID)
	require.NoError(t, err)
	assert.Empty(t, second)

	var awards int64
	db.Model(&courseModels.UserBadge{}).Where("user_id = ?", user.ID).Count(&awards)
	assert.Equal(t, int64(1), awards)
}

func TestEvaluateBadgesThresholds(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "thresholds@example.com")

	for i := 0; i < 5; i++ {
		_, err := addPoints(db, user.ID, lessonPoints, "Lesson", counterLessons)
		require.NoError(t, err)
	}

	earned, err := evaluateBadges(db, user.ID)
	require.NoError(t, err)

	names := make([]string, len(earned))
	for i, badge := range earned {
		names[i] = badge.Name
	}
	assert.ElementsMatch(t, []string{"First Steps", "Quick Learner"}, names)
}

func TestIssueCertificateIfAbsent(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "issue@example.com")
	course, _ := createPublishedCourse(t, db, 1)

	certificate, issued, err := issueCertificateIfAbsent(db, user.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, issued)
	assert.Equal(t, "A", certificate.Grade)
	assert.NotEmpty(t, certificate.CertificateNumber)

	again, issued, err := issueCertificateIfAbsent(db, user.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, issued)
	assert.Equal(t, certificate.ID, again.ID)
}

func TestComputeGradeUsesBestAttemptPerQuiz(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "grade@example.com")
	course, lessons := createPublishedCourse(t, db, 2)
	enroll(t, db, user, course)

	first := createQuiz(t, db, course.ID, lessons[0].ID, 4, 60)
	second := createQuiz(t, db, course.ID, lessons[1].ID, 4, 60)

	// Quiz one: a weak attempt then a perfect retake
	_, err := submitQuiz(db, user, first, answerSheet(4, 1))
	require.NoError(t, err)
	_, err = submitQuiz(db, user, first, answerSheet(4, 4))
	require.NoError(t, err)

	// Quiz two: 3 of 4 correct
	_, err = submitQuiz(db, user, second, answerSheet(4, 3))
	require.NoError(t, err)

	// Best scores 100 and 75 average to 87.5, a B
	grade, err := computeGrade(db, user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", grade)
}

func TestComputeGradeWithoutAttempts(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "nograde@example.com")
	course, lessons := createPublishedCourse(t, db, 1)
	createQuiz(t, db, course.ID, lessons[0].ID, 2, 60)

	grade, err := computeGrade(db, user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", grade)
}
