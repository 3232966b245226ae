package timetable

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// Slot is one period of a class's school day.
// It holds both a teacher and a subject, or neither.
type Slot struct {
	Period    int    `json:"period"`
	TeacherID string `json:"teacher_id,omitempty"`
	Subject   string `json:"subject,omitempty"`
}

func (s Slot) IsAssigned() bool {
	return s.TeacherID != ""
}

// Timetable is the weekly schedule of a class.
type Timetable struct {
	ClassID  string                  `json:"class_id"`
	Schedule map[core.Weekday][]Slot `json:"schedule"`
}

// New returns the empty timetable of a class: every school day holds PeriodsPerDay free slots.
func New(classID string, cal core.Calendar) Timetable {
	tt := Timetable{ClassID: classID, Schedule: make(map[core.Weekday][]Slot, len(cal.Weekdays))}
	for _, day := range cal.Weekdays {
		slots := make([]Slot, cal.PeriodsPerDay)
		for i := range slots {
			slots[i].Period = i + 1
		}
		tt.Schedule[day] = slots
	}
	return tt
}

// Assemble builds a timetable from its stored entries.
func Assemble(classID string, entries []Entry) Timetable {
	tt := Timetable{ClassID: classID, Schedule: make(map[core.Weekday][]Slot)}
	for _, e := range entries {
		tt.Schedule[e.Day] = append(tt.Schedule[e.Day], e.Slot())
	}
	for _, slots := range tt.Schedule {
		sort.Slice(slots, func(i, j int) bool { return slots[i].Period < slots[j].Period })
	}
	return tt
}

// Slot returns the slot at (day, period).
func (tt Timetable) Slot(day core.Weekday, period int) (Slot, bool) {
	for _, s := range tt.Schedule[day] {
		if s.Period == period {
			return s, true
		}
	}
	return Slot{}, false
}

// Entries flattens the timetable, one entry per slot.
func (tt Timetable) Entries() []Entry {
	var entries []Entry
	for day, slots := range tt.Schedule {
		for _, s := range slots {
			entries = append(entries, Entry{
				ClassID:   tt.ClassID,
				Day:       day,
				Period:    s.Period,
				TeacherID: s.TeacherID,
				Subject:   s.Subject,
			})
		}
	}
	return entries
}

// Entry is a slot located in the school week of a class.
// An Entry with a teacher is a booking of that teacher.
type Entry struct {
	ClassID   string       `json:"class_id"`
	Day       core.Weekday `json:"day"`
	Period    int          `json:"period"`
	TeacherID string       `json:"teacher_id,omitempty"`
	Subject   string       `json:"subject,omitempty"`
}

func (e Entry) Slot() Slot {
	return Slot{Period: e.Period, TeacherID: e.TeacherID, Subject: e.Subject}
}

// SortEntries orders entries by school day, period, then class.
func SortEntries(entries []Entry, cal core.Calendar) {
	sort.Slice(entries, func(i, j int) bool {
		ei, ej := entries[i], entries[j]
		if ei.Day == ej.Day && ei.Period == ej.Period {
			return ei.ClassID < ej.ClassID
		}
		return cal.Less(ei.Day, ei.Period, ej.Day, ej.Period)
	})
}

// ConflictError reports the booking that keeps a teacher from being assigned.
type ConflictError struct {
	Booking Entry
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: class %s, %s period %d", ErrTeacherAssigned, e.Booking.ClassID, e.Booking.Day, e.Booking.Period)
}

func (e *ConflictError) Unwrap() error {
	return ErrTeacherAssigned
}

// AssignSlot contains information needed to put a teacher in a class slot.
type AssignSlot struct {
	TeacherID string       `json:"teacher_id" validate:"required"`
	Day       core.Weekday `json:"day" validate:"required"`
	Period    int          `json:"period" validate:"required"`
	Subject   string       `json:"subject" validate:"required,notblank,max=100"`
}

func (as *AssignSlot) Validate(validate *validator.Validate, cal core.Calendar) error {
	as.TeacherID = core.CleanString(as.TeacherID)
	as.Subject = core.CleanString(as.Subject)

	if err := validate.Struct(as); err != nil {
		return err
	}
	day, err := parseSlot(string(as.Day), as.Period, cal)
	if err != nil {
		return err
	}
	as.Day = day
	return nil
}

// SlotRef locates a slot in a class timetable.
type SlotRef struct {
	Day    string `json:"day" query:"day" validate:"required"`
	Period int    `json:"period" query:"period" validate:"required"`
}

func (ref *SlotRef) Validate(validate *validator.Validate, cal core.Calendar) (core.Weekday, error) {
	if err := validate.Struct(ref); err != nil {
		return "", err
	}
	return parseSlot(ref.Day, ref.Period, cal)
}

func parseSlot(name string, period int, cal core.Calendar) (core.Weekday, error) {
	var flds []core.FieldError
	day, err := cal.ParseSchoolDay(name)
	if err != nil {
		flds = append(flds, core.FieldError{Field: "day", Error: err.Error()})
	}
	if err := cal.CheckPeriod(period); err != nil {
		flds = append(flds, core.FieldError{Field: "period", Error: err.Error()})
	}
	if len(flds) > 0 {
		return "", core.NewValidationError(core.ErrInvalidSlot, flds...)
	}
	return day, nil
}
