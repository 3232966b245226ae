package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
)

// Weekday is the English name of a day of the week, eg: "Monday".
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

var weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// suggestion threshold for misspelled day names
const minDayNameRatio = 0.6

var (
	ErrInvalidWeekday = errors.New("invalid weekday")
	ErrNotSchoolDay   = errors.New("not a school day")
	ErrInvalidPeriod  = errors.New("invalid period")
	ErrInvalidSlot    = errors.New("invalid slot")
)

// Calendar is the school week: its teaching days and the number of periods per day.
// Periods are 1-based.
type Calendar struct {
	Weekdays      []Weekday
	PeriodsPerDay int
}

// NewCalendar builds the calendar from the school config.
func NewCalendar(conf SchoolConfig) (Calendar, error) {
	if conf.PeriodsPerDay < 1 {
		return Calendar{}, errors.Wrapf(ErrInvalidPeriod, "periods per day must be positive, got %d", conf.PeriodsPerDay)
	}
	cal := Calendar{PeriodsPerDay: conf.PeriodsPerDay}
	seen := make(map[Weekday]bool, len(conf.Weekdays))
	for _, name := range conf.Weekdays {
		day, err := ParseWeekday(name)
		if err != nil {
			return Calendar{}, err
		}
		if !seen[day] {
			seen[day] = true
			cal.Weekdays = append(cal.Weekdays, day)
		}
	}
	if len(cal.Weekdays) == 0 {
		return Calendar{}, errors.Wrap(ErrInvalidWeekday, "no school days configured")
	}
	sort.Slice(cal.Weekdays, func(i, j int) bool {
		return weekdayIndex(cal.Weekdays[i]) < weekdayIndex(cal.Weekdays[j])
	})
	return cal, nil
}

// ParseWeekday matches `s` case-insensitively against the days of the week.
// The error suggests the closest day name when `s` looks like a typo.
func ParseWeekday(s string) (Weekday, error) {
	s = CleanString(s, true)
	for _, day := range weekdays {
		if strings.ToLower(string(day)) == s {
			return day, nil
		}
	}
	if suggestion := closestWeekday(s); suggestion != "" {
		return "", errors.Wrapf(ErrInvalidWeekday, "%q, did you mean %q?", s, suggestion)
	}
	return "", errors.Wrapf(ErrInvalidWeekday, "%q", s)
}

func closestWeekday(s string) Weekday {
	var (
		best      Weekday
		bestRatio float64
	)
	for _, day := range weekdays {
		name := strings.ToLower(string(day))
		ratio := difflib.NewMatcher(strings.Split(s, ""), strings.Split(name, "")).Ratio()
		if ratio > bestRatio {
			best, bestRatio = day, ratio
		}
	}
	if bestRatio < minDayNameRatio {
		return ""
	}
	return best
}

func weekdayIndex(day Weekday) int {
	for i, d := range weekdays {
		if d == day {
			return i
		}
	}
	return len(weekdays)
}

// HasWeekday reports whether `day` is a school day.
func (cal Calendar) HasWeekday(day Weekday) bool {
	for _, d := range cal.Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// ParseSchoolDay parses `s` and checks it is a school day.
func (cal Calendar) ParseSchoolDay(s string) (Weekday, error) {
	day, err := ParseWeekday(s)
	if err != nil {
		return "", err
	}
	if !cal.HasWeekday(day) {
		return "", errors.Wrapf(ErrNotSchoolDay, "%s", day)
	}
	return day, nil
}

// CheckPeriod checks `period` is within the school day.
func (cal Calendar) CheckPeriod(period int) error {
	if period < 1 || period > cal.PeriodsPerDay {
		return errors.Wrapf(ErrInvalidPeriod, "%d is not between 1 and %d", period, cal.PeriodsPerDay)
	}
	return nil
}

// CheckSlot validates a (day, period) pair and returns a *ValidationError naming the bad fields.
func (cal Calendar) CheckSlot(day Weekday, period int) error {
	var flds []FieldError
	if !cal.HasWeekday(day) {
		msg := fmt.Sprintf("%q is not a school day", day)
		if _, err := ParseWeekday(string(day)); err != nil {
			msg = err.Error()
		}
		flds = append(flds, FieldError{Field: "day", Error: msg})
	}
	if err := cal.CheckPeriod(period); err != nil {
		flds = append(flds, FieldError{Field: "period", Error: err.Error()})
	}
	if len(flds) > 0 {
		return NewValidationError(ErrInvalidSlot, flds...)
	}
	return nil
}

// Less orders slots by school day, then by period.
func (cal Calendar) Less(day1 Weekday, period1 int, day2 Weekday, period2 int) bool {
	if i, j := weekdayIndex(day1), weekdayIndex(day2); i != j {
		return i < j
	}
	return period1 < period2
}
