package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/class"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/timetable"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db         *sql.DB // nil unless the engine is postgres
	cal        core.Calendar
	validate   *validator.Validate
	teachers   *teacher.Service
	classes    *class.Service
	timetables *timetable.Manager
	out        io.Writer
}

func newTranslator() ut.Translator {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	return translator
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run goose migrations, eg: up, down, status, create NAME sql")
	fmt.Fprintln(cli.out, "  addteacher -name NAME [-email EMAIL] [-availability \"Monday:1,2;Tuesday:3\"] - register a teacher")
	fmt.Fprintln(cli.out, "  createclass -name NAME - register a class and its empty timetable")
	fmt.Fprintln(cli.out, "  assign -class ID -teacher ID -day DAY -period N -subject SUBJECT - put a teacher in a class slot")
	fmt.Fprintln(cli.out, "  timetable -class ID - print a class timetable")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addTeacherCmd := flag.NewFlagSet("addteacher", flag.ContinueOnError)
	addTeacherName := addTeacherCmd.String("name", "", "The teacher's full name.")
	addTeacherEmail := addTeacherCmd.String("email", "", "The teacher's email (optional).")
	addTeacherAvailability := addTeacherCmd.String("availability", "", "Teaching hours, eg: \"Monday:1,2,3;Tuesday:4\".")

	createClassCmd := flag.NewFlagSet("createclass", flag.ContinueOnError)
	createClassName := createClassCmd.String("name", "", "The class name, eg: 7A.")

	assignCmd := flag.NewFlagSet("assign", flag.ContinueOnError)
	assignClass := assignCmd.String("class", "", "The class ID.")
	assignTeacher := assignCmd.String("teacher", "", "The teacher ID.")
	assignDay := assignCmd.String("day", "", "The school day, eg: Monday.")
	assignPeriod := assignCmd.Int("period", 0, "The period of the day, starting at 1.")
	assignSubject := assignCmd.String("subject", "", "The subject taught.")

	timetableCmd := flag.NewFlagSet("timetable", flag.ContinueOnError)
	timetableClass := timetableCmd.String("class", "", "The class ID.")

	for _, fs := range []*flag.FlagSet{addTeacherCmd, createClassCmd, assignCmd, timetableCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "addteacher":
		if err := addTeacherCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addTeacherName == "" {
			addTeacherCmd.Usage()
			return errHelp
		}
		return cli.addTeacher(*addTeacherName, *addTeacherEmail, *addTeacherAvailability)

	case "createclass":
		if err := createClassCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createClassName == "" {
			createClassCmd.Usage()
			return errHelp
		}
		return cli.createClass(*createClassName)

	case "assign":
		if err := assignCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *assignClass == "" || *assignTeacher == "" || *assignDay == "" {
			assignCmd.Usage()
			return errHelp
		}
		return cli.assign(*assignClass, timetable.AssignSlot{
			TeacherID: *assignTeacher,
			Day:       core.Weekday(*assignDay),
			Period:    *assignPeriod,
			Subject:   *assignSubject,
		})

	case "timetable":
		if err := timetableCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *timetableClass == "" {
			timetableCmd.Usage()
			return errHelp
		}
		return cli.printTimetable(*timetableClass)

	default:
		cli.printUsage()
		return errHelp
	}
}
