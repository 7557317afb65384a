package course

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuizQuestion is one entry of the Questions JSON column
type QuizQuestion struct {
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"` // index into Options
}

// Quiz belongs to a lesson. Questions and the attempt reward schedule are
// stored as JSON the same way the course builder submits them.
type Quiz struct {
	gorm.Model
	CourseID       uint           `json:"course_id" gorm:"index;not null"`
	LessonID       uint           `json:"lesson_id" gorm:"index;not null"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Questions      datatypes.JSON `json:"questions"`                          // []QuizQuestion
	PassingScore   int            `json:"passing_score" gorm:"default:60"`   // percentage, inclusive boundary
	TimeLimit      int            `json:"time_limit" gorm:"default:0"`       // minutes, 0 = untimed
	MaxAttempts    int            `json:"max_attempts" gorm:"default:3"`     // informational, not enforced
	AttemptRewards datatypes.JSON `json:"attempt_rewards"`                   // []int, points per attempt number
	IsDeleted      bool           `json:"-" gorm:"default:false"`
}

// QuizAttempt records one scored submission
type QuizAttempt struct {
	gorm.Model
	UserID         uint           `json:"user_id" gorm:"uniqueIndex:idx_attempt_user_quiz_number;not null"`
	QuizID         uint           `json:"quiz_id" gorm:"uniqueIndex:idx_attempt_user_quiz_number;not null"`
	AttemptNumber  int            `json:"attempt_number" gorm:"uniqueIndex:idx_attempt_user_quiz_number;default:1"`
	CourseID       uint           `json:"course_id" gorm:"index;not null"`
	Answers        datatypes.JSON `json:"answers"` // []int, selected option per question
	Score          int            `json:"score"`
	CorrectCount   int            `json:"correct_count"`
	TotalQuestions int            `json:"total_questions"`
	Passed         bool           `json:"passed" gorm:"default:false"`
	PointsEarned   int            `json:"points_earned" gorm:"default:0"`
	IsDeleted      bool           `json:"-" gorm:"default:false"`
}
