package habit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// 2026-08-17 is a Monday; 2026-08-23 the following Sunday.

func daySet(days ...string) map[string]bool {
	set := make(map[string]bool, len(days))
	for _, d := range days {
		set[d] = true
	}
	return set
}

func TestCalculateStreakDailyChain(t *testing.T) {
	h := &Habit{Frequency: FrequencyDaily}

	// Three consecutive days ending today; the day before the chain is missed.
	completed := daySet("2026-08-19", "2026-08-21", "2026-08-22", "2026-08-23")
	assert.Equal(t, 3, CalculateStreak(h, completed, "2026-08-23"))
}

func TestCalculateStreakAnchorsOnYesterday(t *testing.T) {
	h := &Habit{Frequency: FrequencyDaily}

	// Today not yet completed: yesterday still carries the streak.
	completed := daySet("2026-08-21", "2026-08-22")
	assert.Equal(t, 2, CalculateStreak(h, completed, "2026-08-23"))
}

func TestCalculateStreakBrokenByGap(t *testing.T) {
	h := &Habit{Frequency: FrequencyDaily}

	// Last completion two days ago: no valid anchor.
	completed := daySet("2026-08-19", "2026-08-20", "2026-08-21")
	assert.Equal(t, 0, CalculateStreak(h, completed, "2026-08-23"))
}

func TestCalculateStreakSkipsNonDueDays(t *testing.T) {
	h := &Habit{Frequency: FrequencyCustom, CustomDays: []byte(`["monday","wednesday"]`)}

	// Monday and Wednesday completed; Thursday (not due) is the reference day.
	completed := daySet("2026-08-17", "2026-08-19")
	assert.Equal(t, 2, CalculateStreak(h, completed, "2026-08-20"))
}

func TestCalculateStreakOffScheduleCompletion(t *testing.T) {
	h := &Habit{Frequency: FrequencyCustom, CustomDays: []byte(`["monday","wednesday"]`)}

	// A completion on a non-due Tuesday anchors but extends nothing.
	completed := daySet("2026-08-18")
	assert.Equal(t, 0, CalculateStreak(h, completed, "2026-08-18"))
}

func TestCalculateStreakMissedDueDayBreaks(t *testing.T) {
	h := &Habit{Frequency: FrequencyCustom, CustomDays: []byte(`["monday","wednesday","friday"]`)}

	// Friday completed, Wednesday missed, Monday completed: streak stops at 1.
	completed := daySet("2026-08-17", "2026-08-21")
	assert.Equal(t, 1, CalculateStreak(h, completed, "2026-08-21"))
}

func TestCalculateStreakWeeklyBehavesLikeDaily(t *testing.T) {
	h := &Habit{Frequency: FrequencyWeekly}

	completed := daySet("2026-08-22", "2026-08-23")
	assert.Equal(t, 2, CalculateStreak(h, completed, "2026-08-23"))
}

func TestCalculateStreakDegradesOnBadInput(t *testing.T) {
	h := &Habit{Frequency: FrequencyDaily}

	assert.Equal(t, 0, CalculateStreak(h, nil, "2026-08-23"))
	assert.Equal(t, 0, CalculateStreak(h, daySet("2026-08-23"), "not-a-day"))
	assert.Equal(t, 0, CalculateStreak(h, daySet("garbage"), "2026-08-23"))
}

func TestCalculateStreakIgnoresMalformedHistoryDays(t *testing.T) {
	h := &Habit{Frequency: FrequencyDaily}

	completed := daySet("garbage", "2026-08-22", "2026-08-23")
	assert.Equal(t, 2, CalculateStreak(h, completed, "2026-08-23"))
}
