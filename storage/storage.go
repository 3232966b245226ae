package storage

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/class"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/timetable"
	rediscache "github.com/trezcool/shule/storage/cache/redis"
	"github.com/trezcool/shule/storage/database"
	inmemdb "github.com/trezcool/shule/storage/database/inmem"
	mongorepos "github.com/trezcool/shule/storage/database/mongo"
	sqlxrepos "github.com/trezcool/shule/storage/database/sqlx"
)

// database engines
const (
	EnginePostgres = "postgres"
	EngineMongoDB  = "mongodb"
	EngineMemory   = "memory"
)

// Store bundles the repositories of the configured database engine.
type Store struct {
	Transactor core.Transactor
	Teachers   teacher.Repository
	Classes    class.Repository
	Timetables timetable.Repository

	// SQL is the postgres handle used for migrations, nil on other engines.
	SQL *sql.DB

	close func() error
}

// Open connects to the database engine named by `conf.Database.Engine`.
func Open(ctx context.Context, conf *core.Config) (*Store, error) {
	switch conf.Database.Engine {
	case EnginePostgres, "":
		sqlDB, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		db := sqlx.NewDb(sqlDB, "postgres")
		return &Store{
			Transactor: sqlxrepos.NewTransactor(db),
			Teachers:   sqlxrepos.NewTeacherRepository(db),
			Classes:    sqlxrepos.NewClassRepository(db),
			Timetables: sqlxrepos.NewTimetableRepository(db),
			SQL:        sqlDB,
			close:      db.Close,
		}, nil

	case EngineMongoDB:
		client, db, err := mongorepos.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err = mongorepos.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &Store{
			Transactor: mongorepos.NewTransactor(client),
			Teachers:   mongorepos.NewTeacherRepository(db),
			Classes:    mongorepos.NewClassRepository(db),
			Timetables: mongorepos.NewTimetableRepository(db),
			close:      func() error { return client.Disconnect(context.Background()) },
		}, nil

	case EngineMemory:
		db := inmemdb.Open()
		return &Store{
			Transactor: db,
			Teachers:   inmemdb.NewTeacherRepository(db),
			Classes:    inmemdb.NewClassRepository(db),
			Timetables: inmemdb.NewTimetableRepository(db),
			close:      func() error { return nil },
		}, nil
	}
	return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
}

func (s *Store) Close() error {
	return s.close()
}

// OpenCache returns the redis timetable cache, or a no-op cache when redis is not configured.
func OpenCache(ctx context.Context, conf *core.Config) (timetable.Cache, func() error, error) {
	if conf.Redis.Addr == "" {
		return timetable.NopCache(), func() error { return nil }, nil
	}
	client, err := rediscache.Open(ctx, conf.Redis)
	if err != nil {
		return nil, nil, err
	}
	return rediscache.NewTimetableCache(client, conf.Redis.TTL), client.Close, nil
}
