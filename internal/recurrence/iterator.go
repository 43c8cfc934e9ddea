package recurrence

import "time"

// Iterator walks a rule's occurrence dates in ascending order. It is
// purely computed from the rule: two iterators over the same rule yield
// the same sequence, which is what makes cursor replay deterministic.
type Iterator struct {
	rule    Rule
	step    int // period index from the start date
	slot    int // weekday slot within the current week (Weekly only)
	emitted int
	done    bool
}

// Iterate returns a fresh iterator positioned before the first occurrence.
func (r Rule) Iterate() *Iterator {
	if r.Interval < 1 {
		r.Interval = 1
	}
	return &Iterator{rule: r}
}

// Next returns the next occurrence date, or ok=false once the rule is
// exhausted. An exhausted iterator stays exhausted.
func (it *Iterator) Next() (time.Time, bool) {
	if it.done {
		return time.Time{}, false
	}
	for {
		candidate, ok := it.advance()
		if !ok {
			it.done = true
			return time.Time{}, false
		}
		if candidate.Before(it.rule.StartDate) {
			continue // weekly: masked days earlier in the start week
		}
		if it.rule.End == EndUntil && candidate.After(it.rule.EndDate) {
			it.done = true
			return time.Time{}, false
		}
		if it.rule.End == EndCount && it.emitted >= it.rule.Count {
			it.done = true
			return time.Time{}, false
		}
		it.emitted++
		return candidate, true
	}
}

// NextAfter discards occurrences on or before cursor and returns the
// first one strictly after it. Discarded occurrences still count toward
// a FOR(n) bound, so resuming mid-sequence never extends the rule.
func (it *Iterator) NextAfter(cursor time.Time) (time.Time, bool) {
	for {
		d, ok := it.Next()
		if !ok {
			return time.Time{}, false
		}
		if d.After(cursor) {
			return d, true
		}
	}
}

func (it *Iterator) advance() (time.Time, bool) {
	r := it.rule
	switch r.Frequency {
	case Daily:
		d := r.StartDate.AddDate(0, 0, it.step*r.Interval)
		it.step++
		return d, true
	case Weekly:
		return it.advanceWeekly(), true
	case Monthly:
		d := monthlyOccurrence(r.StartDate, it.step*r.Interval, r.SameDayOfMonth)
		it.step++
		return d, true
	case Yearly:
		d := yearlyOccurrence(r.StartDate, it.step*r.Interval)
		it.step++
		return d, true
	}
	return time.Time{}, false
}

func (it *Iterator) advanceWeekly() time.Time {
	base := startOfWeek(it.rule.StartDate)
	for {
		if it.slot > 6 {
			it.slot = 0
			it.step++
		}
		week := base.AddDate(0, 0, it.step*it.rule.Interval*7)
		for ; it.slot <= 6; it.slot++ {
			if it.rule.Weekdays[it.slot] {
				d := week.AddDate(0, 0, it.slot)
				it.slot++
				return d
			}
		}
	}
}

// startOfWeek returns the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// monthlyOccurrence computes the occurrence `months` months after the
// anchor. With sameDay the anchor's day-of-month is kept, clamped to the
// last day of shorter months; otherwise the anchor's nth-weekday-of-month
// is kept, clamped to the last matching weekday when the month has no nth.
func monthlyOccurrence(anchor time.Time, months int, sameDay bool) time.Time {
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
	first = first.AddDate(0, months, 0)
	if sameDay {
		day := anchor.Day()
		if last := daysIn(first.Year(), first.Month()); day > last {
			day = last
		}
		return first.AddDate(0, 0, day-1)
	}
	ordinal := (anchor.Day() - 1) / 7
	shift := (int(anchor.Weekday()) - int(first.Weekday()) + 7) % 7
	day := 1 + shift + ordinal*7
	for day > daysIn(first.Year(), first.Month()) {
		day -= 7
	}
	return first.AddDate(0, 0, day-1)
}

// yearlyOccurrence keeps the anchor's month and day, clamping Feb 29 to
// Feb 28 in non-leap years.
func yearlyOccurrence(anchor time.Time, years int) time.Time {
	y := anchor.Year() + years
	day := anchor.Day()
	if last := daysIn(y, anchor.Month()); day > last {
		day = last
	}
	return time.Date(y, anchor.Month(), day, 0, 0, 0, 0, anchor.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
