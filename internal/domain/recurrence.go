package domain

import "time"

// NextOccurrence computes the next due date of a recurring obligation
// strictly after ref. Dates are compared at day granularity in UTC.
//
// If ref is before start, the first occurrence is start itself. When end is
// set and the computed occurrence would land after it, the obligation is
// terminated and ok is false. Month-based frequencies advance by calendar
// months from start, preserving start's day-of-month and clamping to the
// last day of shorter months (Jan 31 + 1 month is Feb 28 or 29).
func NextOccurrence(start time.Time, freq Frequency, end *time.Time, ref time.Time) (next time.Time, ok bool, err error) {
	if !ValidFrequency(freq) {
		return time.Time{}, false, ErrInvalidFrequency
	}
	start = truncateDay(start)
	ref = truncateDay(ref)
	if end != nil {
		e := truncateDay(*end)
		if e.Before(start) {
			return time.Time{}, false, ErrInvalidDateRange
		}
		end = &e
	}

	candidate := start
	for n := 1; !candidate.After(ref); n++ {
		candidate = addPeriods(start, freq, n)
	}

	if end != nil && candidate.After(*end) {
		return time.Time{}, false, nil
	}
	return candidate, true, nil
}

// OccurrencesBetween lists every occurrence in (after, through], honoring
// the obligation's end date. Used for upcoming-payment projections.
func OccurrencesBetween(start time.Time, freq Frequency, end *time.Time, after, through time.Time) ([]time.Time, error) {
	var out []time.Time
	ref := after
	for {
		next, ok, err := NextOccurrence(start, freq, end, ref)
		if err != nil {
			return nil, err
		}
		if !ok || next.After(truncateDay(through)) {
			return out, nil
		}
		out = append(out, next)
		ref = next
	}
}

// addPeriods returns start advanced by n periods. Periods are always counted
// from start, not from the previous occurrence, so month-end clamping never
// compounds: Jan 31 + 2 months is Mar 31, not Mar 28.
func addPeriods(start time.Time, freq Frequency, n int) time.Time {
	switch freq {
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7*n)
	case FrequencyBiweekly:
		return start.AddDate(0, 0, 14*n)
	case FrequencyMonthly:
		return addMonthsClamped(start, n)
	case FrequencyQuarterly:
		return addMonthsClamped(start, 3*n)
	case FrequencyYearly:
		return addMonthsClamped(start, 12*n)
	}
	return start
}

// addMonthsClamped advances by calendar months, clamping the day-of-month to
// the target month's last day. time.AddDate normalizes overflow (Jan 31 + 1
// month becomes Mar 3), which is exactly what callers must not see.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	targetMonth := time.Month(int(month) + months)

	// Day 0 of the following month is the last day of the target month.
	lastDay := time.Date(year, targetMonth+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, targetMonth, day, 0, 0, 0, 0, time.UTC)
}

func truncateDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
