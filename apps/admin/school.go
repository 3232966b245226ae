package main

import (
	"context"
	"fmt"

	"github.com/trezcool/shule/core/class"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/timetable"
)

// addTeacher registers a teacher; `availability` uses the "Monday:1,2;Tuesday:3" notation.
func (cli *commandLine) addTeacher(name, email, availability string) error {
	ctx := context.Background()
	av, err := teacher.ParseAvailability(availability, cli.cal)
	if err != nil {
		return err
	}

	nt := teacher.NewTeacher{Name: name, Email: email, Availability: av}
	if err = nt.Validate(ctx, cli.validate, cli.teachers); err != nil {
		return err
	}
	tchr, err := cli.teachers.Create(ctx, nt)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "teacher %s created: %s\n", tchr.Name, tchr.ID)
	return nil
}

func (cli *commandLine) createClass(name string) error {
	ctx := context.Background()
	nc := class.NewClass{Name: name}
	if err := nc.Validate(ctx, cli.validate, cli.classes); err != nil {
		return err
	}
	cls, err := cli.classes.Create(ctx, nc)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "class %s created: %s\n", cls.Name, cls.ID)
	return nil
}

func (cli *commandLine) assign(classID string, as timetable.AssignSlot) error {
	if err := as.Validate(cli.validate, cli.cal); err != nil {
		return err
	}
	if _, err := cli.timetables.AssignTeacher(context.Background(), classID, as); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s period %d: %s\n", as.Day, as.Period, as.Subject)
	return nil
}

func (cli *commandLine) printTimetable(classID string) error {
	tt, err := cli.timetables.GetTimetable(context.Background(), classID)
	if err != nil {
		return err
	}
	for _, day := range cli.cal.Weekdays {
		fmt.Fprintln(cli.out, day)
		for _, slot := range tt.Schedule[day] {
			if slot.IsAssigned() {
				fmt.Fprintf(cli.out, "  %d. %s (%s)\n", slot.Period, slot.Subject, slot.TeacherID)
			} else {
				fmt.Fprintf(cli.out, "  %d. -\n", slot.Period)
			}
		}
	}
	return nil
}
