package utils

import (
	"log"
	"time"

	"github.com/learnsphere/learnsphere-api/config"
	"github.com/learnsphere/learnsphere-api/database"
	"github.com/learnsphere/learnsphere-api/models"
	courseModels "github.com/learnsphere/learnsphere-api/models/course"

	"github.com/robfig/cron/v3"
)

// InitializeStreakScheduler sets up the daily streak-reminder job
func InitializeStreakScheduler() {
	log.Println("[STREAK-SCHEDULER] Initializing streak scheduler...")

	c := cron.New()

	_, err := c.AddFunc(config.AppConfig.StreakReminderCron, func() {
		log.Println("[STREAK-SCHEDULER] Running daily streak check...")
		ProcessStreakReminders()
	})
	if err != nil {
		log.Printf("[STREAK-SCHEDULER] Invalid cron expression: %v", err)
		return
	}

	c.Start()
	log.Printf("[STREAK-SCHEDULER] Streak scheduler started (%s)", config.AppConfig.StreakReminderCron)
}

// ProcessStreakReminders emails learners whose streak lapses today: they
// completed a lesson yesterday but none yet today.
func ProcessStreakReminders() {
	db := database.Database.Db
	now := time.Now()

	yesterdayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
	todayStart := yesterdayStart.AddDate(0, 0, 1)

	var userIDs []uint
	if err := db.Model(&courseModels.LessonProgress{}).
		Where("status = ? AND completed_at >= ? AND completed_at < ?", "COMPLETED", yesterdayStart, todayStart).
		Distinct().
		Pluck("user_id", &userIDs).Error; err != nil {
		log.Printf("[STREAK-SCHEDULER] Error fetching recent completions: %v", err)
		return
	}

	log.Printf("[STREAK-SCHEDULER] Found %d learners active yesterday", len(userIDs))

	for _, userID := range userIDs {
		// Skip anyone already active today
		var todayCount int64
		db.Model(&courseModels.LessonProgress{}).
			Where("user_id = ? AND status = ? AND completed_at >= ?", userID, "COMPLETED", todayStart).
			Count(&todayCount)
		if todayCount > 0 {
			continue
		}

		var user models.User
		if err := db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
			log.Printf("[STREAK-SCHEDULER] Error fetching user %d: %v", userID, err)
			continue
		}

		var completions []time.Time
		db.Model(&courseModels.LessonProgress{}).
			Where("user_id = ? AND status = ? AND completed_at IS NOT NULL", userID, "COMPLETED").
			Pluck("completed_at", &completions)

		current, _ := ComputeStreak(completions, now)
		if current > 0 {
			SendStreakReminderEmail(user.Email, user.Name, current)
		}
	}
}
