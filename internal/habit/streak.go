package habit

// CalculateStreak derives the current streak from the set of completed days.
//
// The anchor is today if completed, else yesterday if completed; anything
// older zeroes the streak regardless of schedule. From the anchor the walk
// moves backward one calendar day at a time: non-due days are skipped without
// consuming a completion, a completed due day extends the streak, and the
// first due day without a completion ends it.
//
// The function never fails; empty or malformed input degrades to 0.
func CalculateStreak(h *Habit, completed map[string]bool, today string) int {
	if len(completed) == 0 {
		return 0
	}
	if _, err := ParseDay(today); err != nil {
		return 0
	}

	anchor := today
	if !completed[anchor] {
		anchor = AddDays(today, -1)
		if !completed[anchor] {
			return 0
		}
	}

	// Oldest valid day bounds the walk.
	oldest := ""
	for day := range completed {
		if _, err := ParseDay(day); err != nil {
			continue
		}
		if oldest == "" || day < oldest {
			oldest = day
		}
	}
	if oldest == "" {
		return 0
	}

	streak := 0
	for day := anchor; day >= oldest; day = AddDays(day, -1) {
		if !h.IsDueOn(day) {
			continue
		}
		if !completed[day] {
			break
		}
		streak++
	}
	return streak
}
