package authValidator

import (
	"strings"

	"github.com/learnsphere/learnsphere-api/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// SignupRequest is the registration body. Role defaults to LEARNER when empty.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=LEARNER INSTRUCTOR"`
	Bio      string `json:"bio" validate:"max=1000"`
}

// LoginRequest is the login body
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Signup validator middleware
func Signup() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SignupRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		reqData.Name = strings.TrimSpace(reqData.Name)
		reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))
		reqData.Role = strings.ToUpper(strings.TrimSpace(reqData.Role))
		if reqData.Role == "" {
			reqData.Role = "LEARNER"
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			if fieldErrors, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range fieldErrors {
					switch fe.Field() {
					case "Name":
						errors["name"] = "Name must be at least 2 characters long!"
					case "Email":
						errors["email"] = "Invalid email!"
					case "Password":
						errors["password"] = "Password must be at least 8 characters long!"
					case "Role":
						errors["role"] = "Role must be LEARNER or INSTRUCTOR!"
					default:
						errors[strings.ToLower(fe.Field())] = "Invalid value!"
					}
				}
			} else {
				errors["body"] = "Invalid request body!"
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedUser", reqData)
		return c.Next()
	}
}

// Login validator middleware
func Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(LoginRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			if fieldErrors, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range fieldErrors {
					switch fe.Field() {
					case "Email":
						errors["email"] = "Invalid email!"
					case "Password":
						errors["password"] = "Password must be at least 8 characters long!"
					}
				}
			} else {
				errors["body"] = "Invalid request body!"
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedUser", reqData)
		return c.Next()
	}
}
