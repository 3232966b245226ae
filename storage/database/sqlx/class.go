package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/class"
)

type classRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

func (row classRow) class() class.Class {
	return class.Class{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt.UTC()}
}

type classRepository struct {
	db *sqlx.DB
}

var _ class.Repository = (*classRepository)(nil)

func NewClassRepository(db *sqlx.DB) class.Repository {
	return &classRepository{db: db}
}

func (repo *classRepository) CheckNameUniqueness(ctx context.Context, name string) error {
	var found bool
	q := "SELECT EXISTS(SELECT 1 FROM classes WHERE LOWER(name) = LOWER($1))"
	if err := sqlx.GetContext(ctx, executor(ctx, repo.db), &found, q, name); err != nil {
		return errors.Wrap(err, "checking class name")
	}
	if found {
		return class.ErrNameExists
	}
	return nil
}

func (repo *classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	row := classRow{ID: cls.ID, Name: cls.Name, CreatedAt: cls.CreatedAt}
	q := "INSERT INTO classes (id, name, created_at) VALUES (:id, :name, :created_at)"
	if _, err := sqlx.NamedExecContext(ctx, executor(ctx, repo.db), q, row); err != nil {
		if uniqueViolated(err, "classes_name_key") {
			return class.Class{}, class.ErrNameExists
		}
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	return row.class(), nil
}

func (repo *classRepository) GetClass(ctx context.Context, id string) (class.Class, error) {
	if !isUUID(id) {
		return class.Class{}, class.ErrNotFound
	}
	var row classRow
	q := "SELECT id, name, created_at FROM classes WHERE id = $1"
	if err := sqlx.GetContext(ctx, executor(ctx, repo.db), &row, q, id); err != nil {
		return class.Class{}, trapNoRowsErr(err, class.ErrNotFound)
	}
	return row.class(), nil
}

func (repo *classRepository) QueryClasses(ctx context.Context, filter class.QueryFilter, ordering ...core.DBOrdering) ([]class.Class, error) {
	q := "SELECT id, name, created_at FROM classes"
	var args []interface{}
	if filter.Search != "" {
		q += " WHERE name ILIKE $1"
		args = append(args, "%"+filter.Search+"%")
	}
	q += " ORDER BY " + orderBy(ordering, core.DBOrdering{Field: "name", Ascending: true}, "name", "created_at")

	var rows []classRow
	if err := sqlx.SelectContext(ctx, executor(ctx, repo.db), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	classes := make([]class.Class, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, row.class())
	}
	return classes, nil
}

func (repo *classRepository) DeleteClass(ctx context.Context, id string) error {
	if !isUUID(id) {
		return class.ErrNotFound
	}
	res, err := executor(ctx, repo.db).ExecContext(ctx, "DELETE FROM classes WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return checkRowsAffected(res, class.ErrNotFound)
}
