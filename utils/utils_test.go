package utils

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoundPercent(t *testing.T) {
	assert.Equal(t, 33, RoundPercent(1, 3))
	assert.Equal(t, 67, RoundPercent(2, 3))
	assert.Equal(t, 100, RoundPercent(3, 3))
	assert.Equal(t, 50, RoundPercent(1, 2))
	assert.Equal(t, 17, RoundPercent(1, 6))
	assert.Equal(t, 0, RoundPercent(0, 5))
	assert.Equal(t, 0, RoundPercent(3, 0))
	assert.Equal(t, 13, RoundPercent(1, 8)) // 12.5 rounds up
}

func TestCertificateNumber(t *testing.T) {
	expected := fmt.Sprintf("LS-%d-000042-0007", time.Now().Year())
	assert.Equal(t, expected, CertificateNumber(42, 7))
}

func TestGradeFromAverage(t *testing.T) {
	assert.Equal(t, "A", GradeFromAverage(95))
	assert.Equal(t, "A", GradeFromAverage(90))
	assert.Equal(t, "B", GradeFromAverage(89.9))
	assert.Equal(t, "B", GradeFromAverage(80))
	assert.Equal(t, "C", GradeFromAverage(75))
	assert.Equal(t, "D", GradeFromAverage(60))
	assert.Equal(t, "P", GradeFromAverage(59.9))
	assert.Equal(t, "P", GradeFromAverage(0))
}

func TestBadgeLevel(t *testing.T) {
	assert.Equal(t, "Newbie", BadgeLevel(0))
	assert.Equal(t, "Newbie", BadgeLevel(49))
	assert.Equal(t, "Explorer", BadgeLevel(50))
	assert.Equal(t, "Achiever", BadgeLevel(100))
	assert.Equal(t, "Specialist", BadgeLevel(200))
	assert.Equal(t, "Expert", BadgeLevel(500))
	assert.Equal(t, "Master", BadgeLevel(1000))
	assert.Equal(t, "Legend", BadgeLevel(2500))
}

func TestComputeStreak(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time { return now.AddDate(0, 0, -offset) }

	t.Run("empty", func(t *testing.T) {
		current, longest := ComputeStreak(nil, now)
		assert.Zero(t, current)
		assert.Zero(t, longest)
	})

	t.Run("consecutive days", func(t *testing.T) {
		current, longest := ComputeStreak([]time.Time{day(0), day(1), day(2)}, now)
		assert.Equal(t, 3, current)
		assert.Equal(t, 3, longest)
	})

	t.Run("one missed day is forgiven", func(t *testing.T) {
		current, longest := ComputeStreak([]time.Time{day(0), day(2), day(3)}, now)
		assert.Equal(t, 3, current)
		assert.Equal(t, 3, longest)
	})

	t.Run("two missed days break the streak", func(t *testing.T) {
		current, _ := ComputeStreak([]time.Time{day(0), day(4), day(5)}, now)
		assert.Equal(t, 1, current)
	})

	t.Run("stale activity has no current streak", func(t *testing.T) {
		current, longest := ComputeStreak([]time.Time{day(5), day(6), day(7)}, now)
		assert.Zero(t, current)
		assert.Equal(t, 3, longest)
	})

	t.Run("multiple completions per day count once", func(t *testing.T) {
		current, longest := ComputeStreak([]time.Time{day(0), day(0), day(1)}, now)
		assert.Equal(t, 2, current)
		assert.Equal(t, 2, longest)
	})
}
