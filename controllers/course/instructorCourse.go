package controllers

import (
	"encoding/json"
	"errors"

	"github.com/learnsphere/learnsphere-api/database"
	"github.com/learnsphere/learnsphere-api/middleware"
	"github.com/learnsphere/learnsphere-api/models"
	courseModels "github.com/learnsphere/learnsphere-api/models/course"
	courseValidator "github.com/learnsphere/learnsphere-api/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// instructorContext loads the caller and rejects unapproved instructors.
// Admins pass through without the approval gate. On failure the response is
// already written and the handler must return nil.
func instructorContext(c *fiber.Ctx) (*models.User, bool) {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		return nil, false
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
		return nil, false
	}

	if user.Role == "INSTRUCTOR" && !user.IsApproved {
		middleware.JsonResponse(c, fiber.StatusForbidden, false, "Instructor account pending approval!", nil)
		return nil, false
	}

	return &user, true
}

// ownedCourse loads a course the caller may manage. Admins manage any course.
// Writes the failure response itself, like instructorContext.
func ownedCourse(c *fiber.Ctx, user *models.User, courseID uint) (*courseModels.Course, bool) {
	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		return nil, false
	}

	if user.Role != "ADMIN" && course.InstructorID != user.ID {
		middleware.JsonResponse(c, fiber.StatusForbidden, false, "You do not own this course!", nil)
		return nil, false
	}

	return &course, true
}

// CreateCourse creates an unpublished course owned by the caller
func CreateCourse(c *fiber.Ctx) error {
	user, ok := instructorContext(c)
	if !ok {
		return nil
	}

	reqData, ok := c.Locals("validatedCourse").(*courseValidator.CourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	course := courseModels.Course{
		Title:        reqData.Title,
		Description:  reqData.Description,
		Category:     reqData.Category,
		Tags:         reqData.Tags,
		InstructorID: user.ID,
		Access:       reqData.Access,
		Price:        reqData.Price,
		Duration:     reqData.Duration,
		ThumbnailURL: reqData.ThumbnailURL,
		IsPublished:  false,
	}
	if err := database.Database.Db.Create(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

// UpdateCourse edits an owned course
func UpdateCourse(c *fiber.Ctx) error {
	user, ok := instructorContext(c)
	if !ok {
		return nil
	}

	courseID := c.Locals("courseID").(int)
	course, ok := ownedCourse(c, user, uint(courseID))
	if !ok {
		return nil
	}

	reqData, ok := c.Locals("validatedCourse").(*courseValidator.CourseRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	course.Title = reqData.Title
	course.Description = reqData.Description
	course.Category = reqData.Category
	course.Tags = reqData.Tags
	course.Access = reqData.Access
	course.Price = reqData.Price
	course.Duration = reqData.Duration
	course.ThumbnailURL = reqData.ThumbnailURL
	if err := database.Database.Db.Save(course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", course)
}

// PublishCourse toggles a course's published state. Publishing requires at
// least one lesson.
func PublishCourse(c *fiber.Ctx) error {
	user, ok := instructorContext(c)
	if !ok {
		return nil
	}

	courseID := c.Locals("courseID").(int)
	course, ok := ownedCourse(c, user, uint(courseID))
	if !ok {
		return nil
	}

	if !course.IsPublished {
		var lessonCount int64
		database.Database.Db.Model(&courseModels.Lesson{}).
			Where("course_id = ? AND is_deleted = ?", course.ID, false).
			Count(&lessonCount)
		if lessonCount == 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Add at least one lesson before publishing!", nil)
		}
	}

	course.IsPublished = !course.IsPublished
	if err := database.Database.Db.Save(course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}

	message := "Course unpublished!"
	if course.IsPublished {
		message = "Course published!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, course)
}

// GetInstructorCourses lists the caller's courses with enrollment counts
func GetInstructorCourses(c *fiber.Ctx) error {
	user, ok := instructorContext(c)
	if !ok {
		return nil
	}

	query := database.Database.Db.Where("is_deleted = ?", false)
	if user.Role != "ADMIN" {
		query = query.Where("instructor_id = ?", user.ID)
	}

	var courses []courseModels.Course
	if err := query.Order("created_at desc").Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	type CourseWithStats struct {
		courseModels.Course
		EnrollmentCount int64 `json:"enrollment_count"`
	}
	list := make([]CourseWithStats, 0, len(courses))
	for _, course := range courses {
		var count int64
		database.Database.Db.Model(&courseModels.Enrollment{}).
			Where("course_id = ? AND is_deleted = ?", course.ID, false).
			Count(&count)
		list = append(list, CourseWithStats{Course: course, EnrollmentCount: count})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses": list,
		"total":   len(list),
	})
}

// GetCourseEnrollments lists who is enrolled in an owned course and how far
// they have gotten
func GetCourseEnrollments(c *fiber.Ctx) error {
	user, ok := instructorContext(c)
	if !ok {
		return nil
	}

	courseID := c.Locals("courseID").(int)
	course, ok := ownedCourse(c, user, uint(courseID))
	if !ok {
		return nil
	}

	var enrollments []courseModels.Enrollment
	if err := database.Database.Db.
		Where("course_id = ? AND is_deleted = ?", course.ID, false).
		Order("created_at desc").
		Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	userIDs := make([]uint, 0, len(enrollments))
	for _, enrollment := range enrollments {
		userIDs = append(userIDs, enrollment.UserID)
	}
	userByID := make(map[uint]models.User, len(userIDs))
	if len(userIDs) > 0 {
		var users []models.User
		database.Database.Db.Where("id IN ?", userIDs).Find(&users)
		for _, u := range users {
			userByID[u.ID] = u
		}
	}

	type EnrollmentWithLearner struct {
		courseModels.Enrollment
		LearnerName  string `json:"learner_name"`
		LearnerEmail string `json:"learner_email"`
	}
	list := make([]EnrollmentWithLearner, 0, len(enrollments))
	for _, enrollment := range enrollments {
		learner := userByID[enrollment.UserID]
		list = append(list, EnrollmentWithLearner{
			Enrollment:   enrollment,
			LearnerName:  learner.Name,
			LearnerEmail: learner.Email,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"enrollments": list,
		"total":       len(list),
	})
}

// CreateLesson adds a lesson to an owned course
func CreateLesson(c *fiber.Ctx) error {
	user, ok := instructorContext(c)
	if !ok {
		return nil
	}

	courseID := c.Locals("courseID").(int)
	course, ok := ownedCourse(c, user, uint(courseID))
	if !ok {
		return nil
	}

	reqData, ok := c.Locals("validatedLesson").(*courseValidator.LessonRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	position := reqData.Position
	if position == 0 {
		// append at the end when no position given
		var maxPosition int64
		database.Database.Db.Model(&courseModels.Lesson{}).
			Where("course_id = ? AND is_deleted = ?", course.ID, false).
			Count(&maxPosition)
		position = int(maxPosition) + 1
	}

	lesson := courseModels.Lesson{
		CourseID: course.ID,
		Title:    reqData.Title,
		Type:     reqData.Type,
		Content:  reqData.Content,
		MediaURL: reqData.MediaURL,
		Position: position,
		Duration: reqData.Duration,
	}
	if err := database.Database.Db.Create(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create lesson!", nil)
	}

	// Keep enrollment denominators in sync with the catalog
	if err := syncEnrollmentTotals(database.Database.Db, course.ID); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson created successfully!", lesson)
}

// UpdateLesson edits a lesson of an owned course
func UpdateLesson(c *fiber.Ctx) error {
	user, ok := instructorContext(c)
	if !ok {
		return nil
	}

	lessonID := c.Locals("lessonID").(int)

	var lesson courseModels.Lesson
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", lessonID, false).First(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	if _, ok := ownedCourse(c, user, lesson.CourseID); !ok {
		return nil
	}

	reqData, ok := c.Locals("validatedLesson").(*courseValidator.LessonRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	lesson.Title = reqData.Title
	lesson.Type = reqData.Type
	lesson.Content = reqData.Content
	lesson.MediaURL = reqData.MediaURL
	if reqData.Position > 0 {
		lesson.Position = reqData.Position
	}
	lesson.Duration = reqData.Duration
	if err := database.Database.Db.Save(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson updated successfully!", lesson)
}

// DeleteLesson soft-deletes a lesson and refreshes enrollment denominators
func DeleteLesson(c *fiber.Ctx) error {
	user, ok := instructorContext(c)
	if !ok {
		return nil
	}

	lessonID := c.Locals("lessonID").(int)

	var lesson courseModels.Lesson
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", lessonID, false).First(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	if _, ok := ownedCourse(c, user, lesson.CourseID); !ok {
		return nil
	}

	lesson.IsDeleted = true
	if err := database.Database.Db.Save(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete lesson!", nil)
	}

	if err := syncEnrollmentTotals(database.Database.Db, lesson.CourseID); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson deleted successfully!", nil)
}

// syncEnrollmentTotals updates TotalLessons on every enrollment of a course
// after the lesson set changed. Percentages refresh on the next completion.
func syncEnrollmentTotals(db *gorm.DB, courseID uint) error {
	var totalLessons int64
	if err := db.Model(&courseModels.Lesson{}).
		Where("course_id = ? AND is_deleted = ?", courseID, false).
		Count(&totalLessons).Error; err != nil {
		return err
	}

	return db.Model(&courseModels.Enrollment{}).
		Where("course_id = ? AND is_deleted = ?", courseID, false).
		Update("total_lessons", int(totalLessons)).Error
}

// CreateQuiz attaches a quiz to a lesson of an owned course
func CreateQuiz(c *fiber.Ctx) error {
	user, ok := instructorContext(c)
	if !ok {
		return nil
	}

	reqData, ok := c.Locals("validatedQuiz").(*courseValidator.QuizRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var lesson courseModels.Lesson
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", reqData.LessonID, false).First(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	if _, ok := ownedCourse(c, user, lesson.CourseID); !ok {
		return nil
	}

	var existing courseModels.Quiz
	err := database.Database.Db.Where("lesson_id = ? AND is_deleted = ?", lesson.ID, false).First(&existing).Error
	if err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Lesson already has a quiz!", nil)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create quiz!", nil)
	}

	questionsJSON, err := json.Marshal(reqData.Questions)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quiz questions!", nil)
	}

	quiz := courseModels.Quiz{
		CourseID:     lesson.CourseID,
		LessonID:     lesson.ID,
		Title:        reqData.Title,
		Description:  reqData.Description,
		Questions:    questionsJSON,
		PassingScore: reqData.PassingScore,
		TimeLimit:    reqData.TimeLimit,
		MaxAttempts:  reqData.MaxAttempts,
	}
	if quiz.PassingScore == 0 {
		quiz.PassingScore = 60
	}
	if len(reqData.AttemptRewards) > 0 {
		rewardsJSON, err := json.Marshal(reqData.AttemptRewards)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid attempt rewards!", nil)
		}
		quiz.AttemptRewards = rewardsJSON
	}

	if err := database.Database.Db.Create(&quiz).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create quiz!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Quiz created successfully!", quiz)
}

// UpdateQuiz edits a quiz on an owned course
func UpdateQuiz(c *fiber.Ctx) error {
	user, ok := instructorContext(c)
	if !ok {
		return nil
	}

	quizID := c.Locals("quizID").(int)

	var quiz courseModels.Quiz
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", quizID, false).First(&quiz).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	if _, ok := ownedCourse(c, user, quiz.CourseID); !ok {
		return nil
	}

	reqData, ok := c.Locals("validatedQuiz").(*courseValidator.QuizRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	questionsJSON, err := json.Marshal(reqData.Questions)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quiz questions!", nil)
	}

	quiz.Title = reqData.Title
	quiz.Description = reqData.Description
	quiz.Questions = questionsJSON
	if reqData.PassingScore > 0 {
		quiz.PassingScore = reqData.PassingScore
	}
	quiz.TimeLimit = reqData.TimeLimit
	if reqData.MaxAttempts > 0 {
		quiz.MaxAttempts = reqData.MaxAttempts
	}
	if len(reqData.AttemptRewards) > 0 {
		rewardsJSON, err := json.Marshal(reqData.AttemptRewards)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid attempt rewards!", nil)
		}
		quiz.AttemptRewards = rewardsJSON
	}

	if err := database.Database.Db.Save(&quiz).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update quiz!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Quiz updated successfully!", quiz)
}

// InstructorSendMessage sends a message to an enrolled learner
func InstructorSendMessage(c *fiber.Ctx) error {
	user, ok := instructorContext(c)
	if !ok {
		return nil
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
		SenderID:    user.ID,
		RecipientID: recipient.ID,
		Subject:     reqData.Subject,
		Body:        reqData.Body,
	}
	if err := database.Database.Db.Create(&message).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to send message!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Message sent successfully!", message)
}

// GetMessages lists messages addressed to the caller, unread first
func GetMessages(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var messages []models.Message
	if err := database.Database.Db.
		Where("recipient_id = ? AND is_deleted = ?", userID, false).
		Order("is_read asc, created_at desc").
		Find(&messages).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch messages!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Messages fetched successfully!", fiber.Map{
		"messages": messages,
		"total":    len(messages),
	})
}
