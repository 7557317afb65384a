package authController

import (
	"log"
	"time"

	"github.com/learnsphere/learnsphere-api/config"
	"github.com/learnsphere/learnsphere-api/database"
	"github.com/learnsphere/learnsphere-api/middleware"
	"github.com/learnsphere/learnsphere-api/models"
	courseModels "github.com/learnsphere/learnsphere-api/models/course"
	"github.com/learnsphere/learnsphere-api/utils"
	authValidator "github.com/learnsphere/learnsphere-api/validators/auth"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// Signup registers a learner or an instructor. Instructor accounts start
// unapproved and cannot publish courses until an admin approves them.
func Signup(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*authValidator.SignupRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	// Check if email already exists
	if err := db.Where("email = ?", reqData.Email).First(&models.User{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}

	// Hash Password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	newUser := models.User{
		Name:       reqData.Name,
		Email:      reqData.Email,
		Password:   string(hashedPassword),
		Role:       reqData.Role,
		Bio:        reqData.Bio,
		IsApproved: reqData.Role == "LEARNER",
	}

	if err := db.Create(&newUser).Error; err != nil {
		log.Printf("Error saving user to database: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to Signup user!", nil)
	}

	// Every account gets a points row so leaderboards never miss users
	points := courseModels.UserPoints{UserID: newUser.ID, BadgeLevel: "Newbie"}
	if err := db.Create(&points).Error; err != nil {
		log.Printf("Error creating points row: %v", err)
	}

	go utils.SendWelcomeEmail(newUser.Email, newUser.Name)

	token, err := middleware.GenerateJWT(newUser.ID, newUser.Name, newUser.Role, newUser.Email)
	if err != nil {
		log.Printf("Error generating JWT: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token!", nil)
	}

	newUser.Password = ""

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully.", fiber.Map{
		"user":  newUser,
		"token": token,
	})
}

// Login checks credentials and returns a fresh token
func Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedUser").(*authValidator.LoginRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("email = ? AND is_deleted = ?", reqData.Email, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid email or password!", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid email or password!", nil)
	}

	now := time.Now()
	user.LastLogin = &now
	if err := db.Save(&user).Error; err != nil {
		log.Printf("Error updating last login: %v", err)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	if err != nil {
		log.Printf("Error generating JWT: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token!", nil)
	}

	user.Password = ""

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"user":  user,
		"token": token,
	})
}

// Me returns the authenticated user's profile
func Me(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	user.Password = ""

	var points courseModels.UserPoints
	database.Database.Db.Where("user_id = ?", userID).First(&points)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Profile fetched successfully!", fiber.Map{
		"user":   user,
		"points": points,
	})
}

// Logout is a stateless acknowledgement; tokens simply expire
func Logout(c *fiber.Ctx) error {
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Logged out successfully!", nil)
}
