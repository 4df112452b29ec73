package habit

// Weekdays are the canonical lowercase day names accepted in custom schedules.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func isValidWeekday(name string) bool {
	for _, d := range Weekdays {
		if d == name {
			return true
		}
	}
	return false
}

// IsDueOn is the single due-day predicate shared by the streak calculator and
// the calendar aggregator.
//
// Daily and weekly habits are due every day: a weekly habit may be completed
// on any day of the week, with the one-row-per-day ledger rule still applying.
// Custom habits are due only on their configured weekdays.
func (h *Habit) IsDueOn(day string) bool {
	switch h.Frequency {
	case FrequencyDaily, FrequencyWeekly:
		return true
	case FrequencyCustom:
		weekday := WeekdayName(day)
		for _, d := range h.DayNames() {
			if d == weekday {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// ExpectedPerWeek is the schedule's weekly completion expectation, used by the
// statistics aggregator.
func (h *Habit) ExpectedPerWeek() int {
	switch h.Frequency {
	case FrequencyDaily:
		return 7
	case FrequencyWeekly:
		return 1
	case FrequencyCustom:
		return h.TimesPerWeek
	default:
		return 0
	}
}
