package controllers

import (
	"encoding/json"
	"testing"

	courseModels "github.com/learnsphere/learnsphere-api/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createQuiz(t *testing.T, db *gorm.DB, courseID, lessonID uint, questionCount, passingScore int) courseModels.Quiz {
	t.Helper()

	questions := make([]courseModels.QuizQuestion, questionCount)
	for i := range questions {
		questions[i] = courseModels.QuizQuestion{
			Prompt:        "Pick the first option",
			Options:       []string{"right", "wrong", "also wrong"},
			CorrectOption: 0,
		}
	}
	questionsJSON, err := json.Marshal(questions)
	require.NoError(t, err)

	quiz := courseModels.Quiz{
		CourseID:     courseID,
		LessonID:     lessonID,
		Title:        "Checkpoint",
		Questions:    questionsJSON,
		PassingScore: passingScore,
	}
	require.NoError(t, db.Create(&quiz).Error)
	return quiz
}

// answers builds a sheet with the first n correct and the rest wrong
func answerSheet(total, correct int) []int {
	sheet := make([]int, total)
	for i := correct; i < total; i++ {
		sheet[i] = 1
	}
	return sheet
}

func TestSubmitQuizAllCorrect(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "quiz@example.com")
	course, lessons := createPublishedCourse(t, db, 2)
	enroll(t, db, user, course)
	quiz := createQuiz(t, db, course.ID, lessons[0].ID, 4, 60)

	res, err := submitQuiz(db, user, quiz, answerSheet(4, 4))
	require.NoError(t, err)

	assert.Equal(t, 100, res.Attempt.Score)
	assert.True(t, res.Attempt.Passed)
	assert.Equal(t, 4, res.Attempt.CorrectCount)
	assert.Equal(t, 1, res.Attempt.AttemptNumber)
	assert.Equal(t, 100, res.Attempt.PointsEarned)

	// Passing the quiz completes the lesson it gates
	require.NotNil(t, res.Completion)
	assert.Equal(t, 50, res.Completion.Percentage)

	var aggregate courseModels.UserPoints
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&aggregate).Error)
	assert.Equal(t, 1, aggregate.QuizzesPassed)
	assert.Equal(t, 1, aggregate.LessonsCompleted)
	assert.Equal(t, 100+lessonPoints, aggregate.TotalPoints)
}

func TestSubmitQuizPassingBoundary(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "boundary@example.com")
	course, lessons := createPublishedCourse(t, db, 1)
	enroll(t, db, user, course)
	quiz := createQuiz(t, db, course.ID, lessons[0].ID, 5, 60)

	// 3 of 5 correct rounds to exactly the passing score
	res, err := submitQuiz(db, user, quiz, answerSheet(5, 3))
	require.NoError(t, err)
	assert.Equal(t, 60, res.Attempt.Score)
	assert.True(t, res.Attempt.Passed)

	below, err := submitQuiz(db, user, quiz, answerSheet(5, 2))
	require.NoError(t, err)
	assert.Equal(t, 40, below.Attempt.Score)
	assert.False(t, below.Attempt.Passed)
	assert.Equal(t, 2, below.Attempt.AttemptNumber)
}

func TestSubmitQuizFailureStillEarnsPoints(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "fail@example.com")
	course, lessons := createPublishedCourse(t, db, 1)
	enroll(t, db, user, course)
	quiz := createQuiz(t, db, course.ID, lessons[0].ID, 4, 75)

	res, err := submitQuiz(db, user, quiz, answerSheet(4, 1))
	require.NoError(t, err)
	assert.False(t, res.Attempt.Passed)
	assert.Equal(t, 100, res.Attempt.PointsEarned)
	assert.Nil(t, res.Completion)

	// A failed attempt never bumps the quizzes-passed counter
	var aggregate courseModels.UserPoints
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&aggregate).Error)
	assert.Zero(t, aggregate.QuizzesPassed)
	assert.Equal(t, 100, aggregate.TotalPoints)
}

func TestRewardScheduleClampsToLastEntry(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "schedule@example.com")
	course, lessons := createPublishedCourse(t, db, 1)
	enroll(t, db, user, course)
	quiz := createQuiz(t, db, course.ID, lessons[0].ID, 2, 60)

	expected := []int{100, 75, 50, 25, 25, 25}
	for attempt, points := range expected {
		res, err := submitQuiz(db, user, quiz, answerSheet(2, 0))
		require.NoError(t, err)
		assert.Equal(t, attempt+1, res.Attempt.AttemptNumber)
		assert.Equal(t, points, res.Attempt.PointsEarned)
	}
}

func TestCustomAttemptRewards(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "custom@example.com")
	course, lessons := createPublishedCourse(t, db, 1)
	enroll(t, db, user, course)

	quiz := createQuiz(t, db, course.ID, lessons[0].ID, 2, 60)
	rewards, err := json.Marshal([]int{50, 10})
	require.NoError(t, err)
	quiz.AttemptRewards = rewards
	require.NoError(t, db.Save(&quiz).Error)

	first, err := submitQuiz(db, user, quiz, answerSheet(2, 0))
	require.NoError(t, err)
	assert.Equal(t, 50, first.Attempt.PointsEarned)

	second, err := submitQuiz(db, user, quiz, answerSheet(2, 0))
	require.NoError(t, err)
	assert.Equal(t, 10, second.Attempt.PointsEarned)

	third, err := submitQuiz(db, user, quiz, answerSheet(2, 0))
	require.NoError(t, err)
	assert.Equal(t, 10, third.Attempt.PointsEarned)
}

func TestSubmitQuizFiveQuestionsFourCorrect(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "eighty@example.com")
	course, lessons := createPublishedCourse(t, db, 2)
	enroll(t, db, user, course)
	quiz := createQuiz(t, db, course.ID, lessons[0].ID, 5, 60)

	res, err := submitQuiz(db, user, quiz, answerSheet(5, 4))
	require.NoError(t, err)
	assert.Equal(t, 80, res.Attempt.Score)
	assert.True(t, res.Attempt.Passed)
	assert.Equal(t, 1, res.Attempt.AttemptNumber)
	assert.Equal(t, 100, res.Attempt.PointsEarned)

	// A retake pays the second schedule entry
	retake, err := submitQuiz(db, user, quiz, answerSheet(5, 5))
	require.NoError(t, err)
	assert.Equal(t, 2, retake.Attempt.AttemptNumber)
	assert.Equal(t, 75, retake.Attempt.PointsEarned)
}

func TestSubmitQuizValidationSentinels(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "sentinel@example.com")
	course, lessons := createPublishedCourse(t, db, 1)
	enroll(t, db, user, course)

	quiz := createQuiz(t, db, course.ID, lessons[0].ID, 3, 60)
	_, err := submitQuiz(db, user, quiz, answerSheet(2, 2))
	assert.ErrorIs(t, err, errAnswersMismatch)

	empty := courseModels.Quiz{CourseID: course.ID, LessonID: lessons[0].ID, Title: "Empty", PassingScore: 60}
	require.NoError(t, db.Create(&empty).Error)
	_, err = submitQuiz(db, user, empty, []int{0})
	assert.ErrorIs(t, err, errNoQuestions)
}

func TestQuizPassCompletesCourse(t *testing.T) {
	db := setupTestDB(t)
	user := createLearner(t, db, "finisher@example.com")
	course, lessons := createPublishedCourse(t, db, 1)
	enroll(t, db, user, course)
	quiz := createQuiz(t, db, course.ID, lessons[0].ID, 2, 60)

	res, err := submitQuiz(db, user, quiz, answerSheet(2, 2))
	require.NoError(t, err)

	require.NotNil(t, res.Completion)
	assert.True(t, res.Completion.CourseCompleted)
	require.NotNil(t, res.Completion.Certificate)

	// Best score was 100, so the certificate grades A
	assert.Equal(t, "A", res.Completion.Certificate.Grade)
}
