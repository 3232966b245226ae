package main

import (
	"errors"

	"github.com/trezcool/shule/storage/database"
)

var (
	migrateFunc = database.Migrate // mockable

	errNoSQL = errors.New("migrations need the postgres engine")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoSQL
	}
	return migrateFunc(cli.db, args[0], args[1:]...)
}
