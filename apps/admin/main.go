package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/class"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/timetable"
	logsvc "github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage"
	"github.com/trezcool/shule/storage/database"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up DB
	if e := conf.Database.Engine; e == storage.EnginePostgres || e == "" {
		errAndDie(database.CreateIfNotExist(conf))
	}
	store, err := storage.Open(context.Background(), conf)
	errAndDie(err)

	cal, err := core.NewCalendar(conf.School)
	errAndDie(err)

	// set up services
	mgr := timetable.NewManager(
		store.Transactor, store.Timetables, store.Teachers,
		nil, /* cache */
		cal,
		logsvc.NewRollbarLogger(logger, conf),
	)

	// start CLI
	cli := commandLine{
		db:         store.SQL,
		cal:        cal,
		validate:   validator.New(),
		teachers:   teacher.NewService(store.Transactor, store.Teachers, store.Timetables, cal),
		classes:    class.NewService(store.Transactor, store.Classes, mgr),
		timetables: mgr,
		out:        os.Stdout,
	}
	core.InitValidators(cli.validate, newTranslator())

	err = cli.run(os.Args)
	_ = store.Close()
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
