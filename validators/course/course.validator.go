package courseValidator

import (
	"strconv"
	"strings"

	"github.com/learnsphere/learnsphere-api/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	courseModels "github.com/learnsphere/learnsphere-api/models/course"
)

var validate = validator.New()

// CourseRequest is the instructor create/update course body
type CourseRequest struct {
	Title        string  `json:"title" validate:"required,min=3"`
	Description  string  `json:"description" validate:"required,min=5"`
	Category     string  `json:"category" validate:"required"`
	Tags         string  `json:"tags"`
	Access       string  `json:"access" validate:"required,oneof=FREE PAID INVITATION"`
	Price        float64 `json:"price" validate:"gte=0"`
	Duration     int64   `json:"duration" validate:"gte=0"`
	ThumbnailURL string  `json:"thumbnail_url"`
}

// LessonRequest is the instructor create/update lesson body
type LessonRequest struct {
	Title    string `json:"title" validate:"required,min=3"`
	Type     string `json:"type" validate:"required,oneof=VIDEO DOCUMENT IMAGE QUIZ"`
	Content  string `json:"content"`
	MediaURL string `json:"media_url"`
	Position int    `json:"position" validate:"gte=0"`
	Duration int    `json:"duration" validate:"gte=0"`
}

// QuizRequest is the instructor create/update quiz body
type QuizRequest struct {
	LessonID       uint                        `json:"lesson_id" validate:"required"`
	Title          string                      `json:"title" validate:"required,min=3"`
	Description    string                      `json:"description"`
	Questions      []courseModels.QuizQuestion `json:"questions" validate:"required,min=1,dive"`
	PassingScore   int                         `json:"passing_score" validate:"gte=0,lte=100"`
	TimeLimit      int                         `json:"time_limit" validate:"gte=0"`
	MaxAttempts    int                         `json:"max_attempts" validate:"gte=0"`
	AttemptRewards []int                       `json:"attempt_rewards" validate:"omitempty,min=1,dive,gte=0"`
}

// SubmitQuizRequest carries one answer index per question, -1 = unanswered
type SubmitQuizRequest struct {
	Answers []int `json:"answers" validate:"required,min=1"`
}

// PositionRequest is the lesson bookmark body
type PositionRequest struct {
	Position int `json:"position" validate:"gte=0"`
}

// ReviewRequest is the add/update review body
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// MessageRequest is the instructor/admin direct message body
type MessageRequest struct {
	RecipientID uint   `json:"recipient_id" validate:"required"`
	Subject     string `json:"subject" validate:"required,min=2"`
	Body        string `json:"body" validate:"required,min=2"`
}

// validationErrors flattens validator.ValidationErrors into the response map
func validationErrors(err error) map[string]string {
	errors := make(map[string]string)
	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrors {
			errors[strings.ToLower(fe.Field())] = "Invalid value for " + strings.ToLower(fe.Field()) + "!"
		}
	} else {
		errors["body"] = "Invalid request body!"
	}
	return errors
}

// idParam parses a positive integer route param into Locals under key
func idParam(param, key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params(param))
		if err != nil || id <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid "+param+"!", nil)
		}
		c.Locals(key, id)
		return c.Next()
	}
}

func CourseID() fiber.Handler      { return idParam("id", "courseID") }
func LessonID() fiber.Handler      { return idParam("lesson_id", "lessonID") }
func QuizID() fiber.Handler        { return idParam("quiz_id", "quizID") }
func BadgeID() fiber.Handler       { return idParam("badge_id", "badgeID") }
func CertificateID() fiber.Handler { return idParam("certificate_id", "certificateID") }
func TargetUserID() fiber.Handler  { return idParam("user_id", "targetUserID") }

// CourseList validates catalog pagination and filters from the query string
func CourseList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := c.QueryInt("page", 1)
		limit := c.QueryInt("limit", 10)

		errors := make(map[string]string)
		if page < 1 {
			errors["page"] = "Page must be 1 or greater!"
		}
		if limit < 1 || limit > 100 {
			errors["limit"] = "Limit must be between 1 and 100!"
		}

		access := strings.ToUpper(strings.TrimSpace(c.Query("access")))
		if access != "" && access != "FREE" && access != "PAID" && access != "INVITATION" {
			errors["access"] = "Access must be FREE, PAID or INVITATION!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedPage", page)
		c.Locals("validatedLimit", limit)
		c.Locals("validatedSearch", strings.TrimSpace(c.Query("search")))
		c.Locals("validatedCategory", strings.TrimSpace(c.Query("category")))
		c.Locals("validatedAccess", access)
		return c.Next()
	}
}

// CreateCourse validates the course body for create and update
func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CourseRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

// CreateLesson validates the lesson body for create and update
func CreateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(LessonRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("validatedLesson", reqData)
		return c.Next()
	}
}

// CreateQuiz validates the quiz body for create and update, including that
// every correct option actually indexes into its options list
func CreateQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(QuizRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		errors := make(map[string]string)
		for i, question := range reqData.Questions {
			if strings.TrimSpace(question.Prompt) == "" {
				errors["questions"] = "Question prompts cannot be empty!"
				break
			}
			if len(question.Options) < 2 {
				errors["questions"] = "Each question needs at least two options!"
				break
			}
			if question.CorrectOption < 0 || question.CorrectOption >= len(question.Options) {
				errors["questions"] = "Correct option out of range for question " + strconv.Itoa(i+1) + "!"
				break
			}
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedQuiz", reqData)
		return c.Next()
	}
}

// SubmitQuiz validates the answer sheet body
func SubmitQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SubmitQuizRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("validatedQuizSubmission", reqData)
		return c.Next()
	}
}

// SavePosition validates the lesson bookmark body
func SavePosition() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(PositionRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("validatedPosition", reqData)
		return c.Next()
	}
}

// AddReview validates the review body
func AddReview() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ReviewRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("validatedReview", reqData)
		return c.Next()
	}
}

// SendMessage validates the direct message body
func SendMessage() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(MessageRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("validatedMessage", reqData)
		return c.Next()
	}
}
