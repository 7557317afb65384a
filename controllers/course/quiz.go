package controllers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/learnsphere/learnsphere-api/database"
	"github.com/learnsphere/learnsphere-api/middleware"
	"github.com/learnsphere/learnsphere-api/models"
	courseModels "github.com/learnsphere/learnsphere-api/models/course"
	"github.com/learnsphere/learnsphere-api/utils"
	courseValidator "github.com/learnsphere/learnsphere-api/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var (
	errNoQuestions     = errors.New("quiz has no questions")
	errAnswersMismatch = errors.New("answers do not match question count")
)

// defaultAttemptRewards is the schedule used when a quiz doesn't carry its
// own: front-loaded, flat from the fourth attempt on.
var defaultAttemptRewards = []int{100, 75, 50, 25}

// quizResult is the outcome of one scored submission
type quizResult struct {
	Attempt    *courseModels.QuizAttempt
	NewBadges  []courseModels.Badge
	Completion *completionResult // set when a passed quiz completed its lesson
}

// scoreQuiz validates the answer sheet against the question set and computes
// the rounded percentage score. One answer per question, -1 = unanswered.
func scoreQuiz(quiz courseModels.Quiz, answers []int) (correctCount, totalQuestions, score int, err error) {
	var questions []courseModels.QuizQuestion
	if len(quiz.Questions) > 0 {
		if err := json.Unmarshal(quiz.Questions, &questions); err != nil {
			return 0, 0, 0, err
		}
	}
	if len(questions) == 0 {
		return 0, 0, 0, errNoQuestions
	}
	if len(answers) != len(questions) {
		return 0, 0, 0, errAnswersMismatch
	}

	for i, question := range questions {
		if answers[i] == question.CorrectOption {
			correctCount++
		}
	}
	totalQuestions = len(questions)
	score = utils.RoundPercent(correctCount, totalQuestions)
	return correctCount, totalQuestions, score, nil
}

// rewardForAttempt looks up the points for attempt n, clamped to the last
// schedule entry, so attempt 5 against a 4-entry schedule pays entry 4.
func rewardForAttempt(quiz courseModels.Quiz, attemptNumber int) int {
	schedule := defaultAttemptRewards
	if len(quiz.AttemptRewards) > 0 {
		var custom []int
		if err := json.Unmarshal(quiz.AttemptRewards, &custom); err == nil && len(custom) > 0 {
			schedule = custom
		}
	}
	index := attemptNumber
	if index > len(schedule) {
		index = len(schedule)
	}
	if index < 1 {
		index = 1
	}
	return schedule[index-1]
}

// submitQuizTx scores and persists one attempt. Runs inside a transaction;
// the unique (user, quiz, attempt_number) index turns a duplicate-submit race
// into a conflict the wrapper retries with the next attempt number.
func submitQuizTx(tx *gorm.DB, user models.User, quiz courseModels.Quiz, answers []int) (*quizResult, error) {
	correctCount, totalQuestions, score, err := scoreQuiz(quiz, answers)
	if err != nil {
		return nil, err
	}

	var priorAttempts int64
	if err := tx.Model(&courseModels.QuizAttempt{}).
		Where("user_id = ? AND quiz_id = ? AND is_deleted = ?", user.ID, quiz.ID, false).
		Count(&priorAttempts).Error; err != nil {
		return nil, err
	}
	attemptNumber := int(priorAttempts) + 1

	passed := score >= quiz.PassingScore
	pointsEarned := rewardForAttempt(quiz, attemptNumber)

	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}

	attempt := courseModels.QuizAttempt{
		UserID:         user.ID,
		QuizID:         quiz.ID,
		AttemptNumber:  attemptNumber,
		CourseID:       quiz.CourseID,
		Answers:        answersJSON,
		Score:          score,
		CorrectCount:   correctCount,
		TotalQuestions: totalQuestions,
		Passed:         passed,
		PointsEarned:   pointsEarned,
	}
	if err := tx.Create(&attempt).Error; err != nil {
		return nil, err
	}

	counter := counterNone
	if passed {
		counter = counterQuizzes
	}
	if _, err := addPoints(tx, user.ID, pointsEarned, fmt.Sprintf("Quiz attempt %d: %s", attemptNumber, quiz.Title), counter); err != nil {
		return nil, err
	}

	result := &quizResult{Attempt: &attempt}

	newBadges, err := evaluateBadges(tx, user.ID)
	if err != nil {
		return nil, err
	}
	result.NewBadges = newBadges

	// A passed quiz completes the lesson it gates
	if passed && quiz.LessonID != 0 {
		var lesson courseModels.Lesson
		err := tx.Where("id = ? AND is_deleted = ?", quiz.LessonID, false).First(&lesson).Error
		if err == nil {
			completion, err := completeLessonTx(tx, user, lesson)
			if err != nil && !errors.Is(err, errNotEnrolled) {
				return nil, err
			}
			if err == nil {
				result.Completion = completion
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return result, nil
}

// submitQuiz wraps submitQuizTx with the single concurrency retry
func submitQuiz(db *gorm.DB, user models.User, quiz courseModels.Quiz, answers []int) (*quizResult, error) {
	var res *quizResult
	run := func() error {
		return db.Transaction(func(tx *gorm.DB) error {
			r, err := submitQuizTx(tx, user, quiz, answers)
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

// GetQuiz returns a quiz with the correct-option markers stripped
func GetQuiz(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	quizID := c.Locals("quizID").(int)

	var quiz courseModels.Quiz
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", quizID, false).First(&quiz).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	if _, ok := visibleCourse(user, quiz.CourseID); !ok {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	if user.Role == "LEARNER" {
		var enrollment courseModels.Enrollment
		if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, quiz.CourseID, false).First(&enrollment).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
		}
	}

	// Strip answers before handing questions to the client
	type SanitizedQuestion struct {
		Prompt  string   `json:"prompt"`
		Options []string `json:"options"`
	}
	var questions []courseModels.QuizQuestion
	if len(quiz.Questions) > 0 {
		if err := json.Unmarshal(quiz.Questions, &questions); err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to load quiz questions!", nil)
		}
	}
	sanitized := make([]SanitizedQuestion, len(questions))
	for i, question := range questions {
		sanitized[i] = SanitizedQuestion{Prompt: question.Prompt, Options: question.Options}
	}

	var attemptCount int64
	database.Database.Db.Model(&courseModels.QuizAttempt{}).
		Where("user_id = ? AND quiz_id = ? AND is_deleted = ?", userID, quizID, false).
		Count(&attemptCount)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz fetched successfully!", fiber.Map{
		"id":            quiz.ID,
		"lesson_id":     quiz.LessonID,
		"course_id":     quiz.CourseID,
		"title":         quiz.Title,
		"description":   quiz.Description,
		"questions":     sanitized,
		"passing_score": quiz.PassingScore,
		"time_limit":    quiz.TimeLimit,
		"max_attempts":  quiz.MaxAttempts,
		"attempt_count": attemptCount,
	})
}

// SubmitQuiz scores a submission and applies the attempt reward schedule
func SubmitQuiz(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	quizID := c.Locals("quizID").(int)

	var quiz courseModels.Quiz
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", quizID, false).First(&quiz).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	if _, ok := visibleCourse(user, quiz.CourseID); !ok {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	if user.Role == "LEARNER" {
		var enrollment courseModels.Enrollment
		if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, quiz.CourseID, false).First(&enrollment).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "User not enrolled in this course!", nil)
		}
	}

	reqData, ok := c.Locals("validatedQuizSubmission").(*courseValidator.SubmitQuizRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, err := submitQuiz(database.Database.Db, user, quiz, reqData.Answers)
	if errors.Is(err, errNoQuestions) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Quiz has no questions to submit!", nil)
	}
	if errors.Is(err, errAnswersMismatch) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Answers do not match the number of questions!", nil)
	}
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit quiz!", nil)
	}

	attempt := result.Attempt
	data := fiber.Map{
		"score":           attempt.Score,
		"passed":          attempt.Passed,
		"correct_count":   attempt.CorrectCount,
		"total_questions": attempt.TotalQuestions,
		"attempt_number":  attempt.AttemptNumber,
		"points_earned":   attempt.PointsEarned,
	}
	newBadges := result.NewBadges
	if result.Completion != nil {
		data["lesson_completed"] = true
		data["enrollment_percentage"] = result.Completion.Percentage
		data["course_completed"] = result.Completion.CourseCompleted
		if result.Completion.Certificate != nil {
			data["certificate"] = result.Completion.Certificate
		}
		newBadges = append(newBadges, result.Completion.NewBadges...)
	}
	if len(newBadges) > 0 {
		data["new_badges"] = newBadges
	}

	message := "Quiz submitted!"
	if attempt.Passed {
		message = "Quiz passed!"
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, message, data)
}

// ListQuizAttempts returns the caller's attempts, newest first
func ListQuizAttempts(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	quizID := c.Locals("quizID").(int)

	var attempts []courseModels.QuizAttempt
	if err := database.Database.Db.
		Where("user_id = ? AND quiz_id = ? AND is_deleted = ?", userID, quizID, false).
		Order("attempt_number desc").
		Find(&attempts).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch attempts!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempts fetched successfully!", fiber.Map{
		"attempts": attempts,
		"total":    len(attempts),
	})
}
