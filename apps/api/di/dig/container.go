package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/class"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/timetable"
	logsvc "github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage"
	"github.com/trezcool/shule/storage/database"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// CacheCloser releases the timetable cache connection.
	CacheCloser func() error
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newStore(conf *core.Config, loggerParam DBLoggerParam) *storage.Store {
	setUp := func() (*storage.Store, error) {
		if e := conf.Database.Engine; e == storage.EnginePostgres || e == "" {
			if err := database.CreateIfNotExist(conf); err != nil {
				return nil, err
			}
		}

		store, err := storage.Open(context.Background(), conf)
		if err != nil {
			return nil, err
		}

		if store.SQL != nil {
			if err = database.Migrate(store.SQL, "up"); err != nil {
				_ = store.Close()
				return nil, err
			}
		}
		return store, nil
	}

	store, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	loggerParam.Logger.Info(fmt.Sprintf("database engine: %s", conf.Database.Engine))
	return store
}

func newCalendar(conf *core.Config, logger core.Logger) core.Calendar {
	cal, err := core.NewCalendar(conf.School)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up school calendar: %v", err), err)
	}
	return cal
}

func newCache(conf *core.Config, logger core.Logger) (timetable.Cache, CacheCloser) {
	cache, closeFn, err := storage.OpenCache(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up cache: %v", err), err)
	}
	return cache, closeFn
}

func newRegistry() (prometheus.Registerer, prometheus.Gatherer) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, reg
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

func newManager(store *storage.Store, cache timetable.Cache, cal core.Calendar, logger core.Logger) *timetable.Manager {
	return timetable.NewManager(store.Transactor, store.Timetables, store.Teachers, cache, cal, logger)
}

func newTeacherService(store *storage.Store, cal core.Calendar) *teacher.Service {
	return teacher.NewService(store.Transactor, store.Teachers, store.Timetables, cal)
}

func newClassService(store *storage.Store, mgr *timetable.Manager) *class.Service {
	return class.NewService(store.Transactor, store.Classes, mgr)
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	reg prometheus.Registerer,
	validate *validator.Validate,
	translator ut.Translator,
	mgr *timetable.Manager,
	teachers *teacher.Service,
	classes *class.Service,
) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Registerer: reg,
		Validate:   validate,
		Translator: translator,
		Timetables: mgr,
		Teachers:   teachers,
		Classes:    classes,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStore))
	must(c.Provide(newCalendar))
	must(c.Provide(newCache))
	must(c.Provide(newRegistry))
	must(c.Provide(newTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newManager))
	must(c.Provide(newTeacherService))
	must(c.Provide(newClassService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
