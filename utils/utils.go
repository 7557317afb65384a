package utils

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// RoundPercent converts part/total into a 0-100 percentage, rounded half-up.
// Used for both course completion and quiz scores so every call site agrees.
func RoundPercent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// CertificateNumber builds the stable certificate identifier, e.g. LS-2026-000042-0007.
// Uniqueness is backed by the unique column plus the one-per-(user,course) index.
func CertificateNumber(userID, courseID uint) string {
	return fmt.Sprintf("LS-%d-%06d-%04d", time.Now().Year(), userID, courseID)
}

// GradeFromAverage maps the mean best quiz score of a course to a letter grade
func GradeFromAverage(avg float64) string {
	switch {
	case avg >= 90:
		return "A"
	case avg >= 80:
		return "B"
	case avg >= 70:
		return "C"
	case avg >= 60:
		return "D"
	default:
		return "P"
	}
}

// BadgeLevel maps a points total to a level name
func BadgeLevel(points int) string {
	switch {
	case points >= 2000:
		return "Legend"
	case points >= 1000:
		return "Master"
	case points >= 500:
		return "Expert"
	case points >= 200:
		return "Specialist"
	case points >= 100:
		return "Achiever"
	case points >= 50:
		return "Explorer"
	default:
		return "Newbie"
	}
}

// ComputeStreak derives the current and longest learning streaks from lesson
// completion timestamps. A single missed day does not break a streak; two
// consecutive missed days reset it.
func ComputeStreak(completions []time.Time, now time.Time) (current int, longest int) {
	if len(completions) == 0 {
		return 0, 0
	}

	daySet := make(map[string]bool)
	for _, t := range completions {
		daySet[t.Format("2006-01-02")] = true
	}

	days := make([]string, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Strings(days)

	// Current streak: walk backwards from today, allowing one missed day
	cursor := now
	misses := 0
	for {
		if daySet[cursor.Format("2006-01-02")] {
			current++
			misses = 0
		} else {
			misses++
			if misses > 1 {
				break
			}
		}
		cursor = cursor.AddDate(0, 0, -1)
	}

	// Longest streak: consecutive active days, gap of one day tolerated
	longest = 1
	run := 1
	layout := "2006-01-02"
	for i := 1; i < len(days); i++ {
		prev, _ := time.Parse(layout, days[i-1])
		cur, _ := time.Parse(layout, days[i])
		gap := int(cur.Sub(prev).Hours() / 24)
		if gap <= 2 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return current, longest
}
