package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrRuleParse marks malformed rule text. Callers are expected to freeze
// the owning template rather than retry; the text will never get better.
var ErrRuleParse = errors.New("recurrence: malformed rule")

// Frequency is the repeat unit of a rule.
type Frequency int

const (
	Daily Frequency = iota
	Weekly
	Monthly
	Yearly
)

// EndMode says how a rule terminates.
type EndMode int

const (
	EndForever EndMode = iota
	EndUntil
	EndCount
)

// Rule describes a repeating schedule. Weekdays is Monday-first and only
// meaningful for Weekly; SameDayOfMonth only for Monthly.
type Rule struct {
	StartDate      time.Time
	Frequency      Frequency
	Interval       int
	Weekdays       [7]bool
	SameDayOfMonth bool
	End            EndMode
	EndDate        time.Time
	Count          int
}

// Validate reports whether the rule can produce a sequence at all.
func (r Rule) Validate() error {
	if r.StartDate.IsZero() {
		return fmt.Errorf("%w: missing start date", ErrRuleParse)
	}
	if r.Frequency < Daily || r.Frequency > Yearly {
		return fmt.Errorf("%w: unknown frequency %d", ErrRuleParse, r.Frequency)
	}
	if r.Frequency == Weekly && !anyWeekday(r.Weekdays) {
		return fmt.Errorf("%w: weekly rule with empty weekday mask", ErrRuleParse)
	}
	if r.End == EndCount && r.Count < 1 {
		return fmt.Errorf("%w: non-positive occurrence count", ErrRuleParse)
	}
	if r.End == EndUntil && r.EndDate.IsZero() {
		return fmt.Errorf("%w: until rule with no end date", ErrRuleParse)
	}
	return nil
}

func anyWeekday(mask [7]bool) bool {
	for _, set := range mask {
		if set {
			return true
		}
	}
	return false
}

// Encode renders the rule in the positional text form templates store:
// type;interval;monthRule;weekdays;endType;count;startDate;endDate.
func (r Rule) Encode() string {
	var days strings.Builder
	for _, set := range r.Weekdays {
		if set {
			days.WriteByte('1')
		} else {
			days.WriteByte('0')
		}
	}
	monthRule := 0
	if r.SameDayOfMonth {
		monthRule = 1
	}
	end := ""
	if r.End == EndUntil {
		end = r.EndDate.Format(time.DateOnly)
	}
	return fmt.Sprintf("%d;%d;%d;%s;%d;%d;%s;%s",
		r.Frequency, r.Interval, monthRule, days.String(),
		r.End, r.Count, r.StartDate.Format(time.DateOnly), end)
}

// Parse decodes the positional text form produced by Encode. The legacy
// schema used the same layout, which is why templates keep storing it.
func Parse(text string) (Rule, error) {
	fields := strings.Split(strings.TrimSpace(text), ";")
	if len(fields) < 7 {
		return Rule{}, fmt.Errorf("%w: expected at least 7 fields, got %d", ErrRuleParse, len(fields))
	}
	var r Rule

	freq, err := strconv.Atoi(fields[0])
	if err != nil {
		return Rule{}, fmt.Errorf("%w: frequency %q", ErrRuleParse, fields[0])
	}
	r.Frequency = Frequency(freq)

	r.Interval, err = strconv.Atoi(fields[1])
	if err != nil {
		return Rule{}, fmt.Errorf("%w: interval %q", ErrRuleParse, fields[1])
	}
	if r.Interval < 1 {
		r.Interval = 1
	}

	monthRule, err := strconv.Atoi(fields[2])
	if err != nil {
		return Rule{}, fmt.Errorf("%w: month rule %q", ErrRuleParse, fields[2])
	}
	r.SameDayOfMonth = monthRule != 0

	if fields[3] != "" {
		if len(fields[3]) != 7 {
			return Rule{}, fmt.Errorf("%w: weekday mask %q", ErrRuleParse, fields[3])
		}
		for i, c := range fields[3] {
			switch c {
			case '0':
			case '1':
				r.Weekdays[i] = true
			default:
				return Rule{}, fmt.Errorf("%w: weekday mask %q", ErrRuleParse, fields[3])
			}
		}
	}

	end, err := strconv.Atoi(fields[4])
	if err != nil || end < int(EndForever) || end > int(EndCount) {
		return Rule{}, fmt.Errorf("%w: end mode %q", ErrRuleParse, fields[4])
	}
	r.End = EndMode(end)

	r.Count, err = strconv.Atoi(fields[5])
	if err != nil {
		return Rule{}, fmt.Errorf("%w: count %q", ErrRuleParse, fields[5])
	}

	r.StartDate, err = parseDate(fields[6])
	if err != nil {
		return Rule{}, fmt.Errorf("%w: start date %q", ErrRuleParse, fields[6])
	}

	if r.End == EndUntil {
		if len(fields) < 8 || fields[7] == "" {
			return Rule{}, fmt.Errorf("%w: until rule with no end date", ErrRuleParse)
		}
		r.EndDate, err = parseDate(fields[7])
		if err != nil {
			return Rule{}, fmt.Errorf("%w: end date %q", ErrRuleParse, fields[7])
		}
	}

	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), time.UTC)
}
