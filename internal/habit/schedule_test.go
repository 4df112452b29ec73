package habit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDueOnDailyAndWeekly(t *testing.T) {
	daily := &Habit{Frequency: FrequencyDaily}
	weekly := &Habit{Frequency: FrequencyWeekly}

	for day := "2026-08-17"; day <= "2026-08-23"; day = AddDays(day, 1) {
		assert.True(t, daily.IsDueOn(day), day)
		assert.True(t, weekly.IsDueOn(day), day)
	}
}

func TestIsDueOnCustom(t *testing.T) {
	h := &Habit{Frequency: FrequencyCustom, CustomDays: []byte(`["monday","friday"]`)}

	assert.True(t, h.IsDueOn("2026-08-17"))  // monday
	assert.False(t, h.IsDueOn("2026-08-18")) // tuesday
	assert.True(t, h.IsDueOn("2026-08-21"))  // friday
	assert.False(t, h.IsDueOn("2026-08-23")) // sunday
}

func TestIsDueOnUnknownFrequency(t *testing.T) {
	h := &Habit{Frequency: "fortnightly"}
	assert.False(t, h.IsDueOn("2026-08-17"))
}

func TestExpectedPerWeek(t *testing.T) {
	assert.Equal(t, 7, (&Habit{Frequency: FrequencyDaily}).ExpectedPerWeek())
	assert.Equal(t, 1, (&Habit{Frequency: FrequencyWeekly}).ExpectedPerWeek())
	assert.Equal(t, 3, (&Habit{Frequency: FrequencyCustom, TimesPerWeek: 3}).ExpectedPerWeek())
	assert.Equal(t, 0, (&Habit{Frequency: ""}).ExpectedPerWeek())
}

func TestAddDays(t *testing.T) {
	assert.Equal(t, "2026-08-24", AddDays("2026-08-23", 1))
	assert.Equal(t, "2026-08-16", AddDays("2026-08-23", -7))
	assert.Equal(t, "2026-09-01", AddDays("2026-08-31", 1))
	assert.Equal(t, "2026-03-01", AddDays("2026-02-28", 1))
	assert.Equal(t, "bogus", AddDays("bogus", 1))
}

func TestWeekdayName(t *testing.T) {
	assert.Equal(t, "monday", WeekdayName("2026-08-17"))
	assert.Equal(t, "sunday", WeekdayName("2026-08-23"))
	assert.Equal(t, "", WeekdayName("nope"))
}
