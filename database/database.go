package database

import (
	"fmt"
	"log"
	"os"

	"github.com/learnsphere/learnsphere-api/config"
	"github.com/learnsphere/learnsphere-api/models"
	courseModels "github.com/learnsphere/learnsphere-api/models/course"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DbInstance struct holds the database connection instance
type DbInstance struct {
	Db *gorm.DB
}

// Database is the global database instance
var Database DbInstance

// ConnectDb establishes a connection using the configured dialect
func ConnectDb() {
	cfg := config.AppConfig

	var dialector gorm.Dialector
	switch cfg.DBDialect {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(cfg.DBName)
	default:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
		os.Exit(2)
	}

	// Set up connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	sqlDB.SetMaxOpenConns(10)   // Maximum open connections
	sqlDB.SetMaxIdleConns(5)    // Maximum idle connections
	sqlDB.SetConnMaxLifetime(0) // No timeout

	// Run database migrations
	if err := RunMigrations(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// Save database instance globally
	Database = DbInstance{Db: db}
}

// RunMigrations performs database migrations and seeds the badge catalog
func RunMigrations(db *gorm.DB) error {
	log.Println("Running Migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Message{},
		&courseModels.Course{},
		&courseModels.Lesson{},
		&courseModels.LessonProgress{},
		&courseModels.Enrollment{},
		&courseModels.Quiz{},
		&courseModels.QuizAttempt{},
		&courseModels.Certificate{},
		&courseModels.Badge{},
		&courseModels.UserBadge{},
		&courseModels.PointsEntry{},
		&courseModels.UserPoints{},
		&courseModels.Review{},
	)
	if err != nil {
		return err
	}

	if err := SeedBadges(db); err != nil {
		return err
	}

	log.Println("Migrations completed successfully.")
	return nil
}

// SeedBadges inserts the default badge catalog if it is empty
func SeedBadges(db *gorm.DB) error {
	var count int64
	if err := db.Model(&courseModels.Badge{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	badges := []courseModels.Badge{
		{Name: "First Steps", Description: "Complete your first lesson", Icon: "🌱", Color: "#4CAF50", Rule: courseModels.RuleLessonsCompleted, Threshold: 1},
		{Name: "Quick Learner", Description: "Complete 5 lessons", Icon: "⚡", Color: "#FF9800", Rule: courseModels.RuleLessonsCompleted, Threshold: 5},
		{Name: "Dedicated Student", Description: "Complete 10 lessons", Icon: "📚", Color: "#2196F3", Rule: courseModels.RuleLessonsCompleted, Threshold: 10},
		{Name: "Quiz Master", Description: "Pass 5 quizzes", Icon: "🎯", Color: "#9C27B0", Rule: courseModels.RuleQuizzesPassed, Threshold: 5},
		{Name: "Course Completer", Description: "Complete your first course", Icon: "🏆", Color: "#FFD700", Rule: courseModels.RuleCoursesCompleted, Threshold: 1},
		{Name: "Knowledge Seeker", Description: "Complete 3 courses", Icon: "🎓", Color: "#00BCD4", Rule: courseModels.RuleCoursesCompleted, Threshold: 3},
		{Name: "Expert Learner", Description: "Complete 5 courses", Icon: "👑", Color: "#E91E63", Rule: courseModels.RuleCoursesCompleted, Threshold: 5},
		{Name: "Master Scholar", Description: "Complete 10 courses", Icon: "💎", Color: "#3F51B5", Rule: courseModels.RuleCoursesCompleted, Threshold: 10},
	}

	return db.Create(&badges).Error
}
