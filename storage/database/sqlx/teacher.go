package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/teacher"
)

const teacherColumns = "id, name, email, availability, created_at, updated_at"

type teacherRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Email        null.String    `db:"email"`
	Availability types.JSONText `db:"availability"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func newTeacherRow(tchr teacher.Teacher) (teacherRow, error) {
	av := tchr.Availability
	if av == nil {
		av = make(teacher.Availability)
	}
	raw, err := json.Marshal(av)
	if err != nil {
		return teacherRow{}, errors.Wrap(err, "encoding availability")
	}
	return teacherRow{
		ID:           tchr.ID,
		Name:         tchr.Name,
		Email:        null.NewString(tchr.Email, tchr.Email != ""),
		Availability: types.JSONText(raw),
		CreatedAt:    tchr.CreatedAt,
		UpdatedAt:    tchr.UpdatedAt,
	}, nil
}

func (row teacherRow) teacher() (teacher.Teacher, error) {
	av := make(teacher.Availability)
	if err := row.Availability.Unmarshal(&av); err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "decoding availability")
	}
	return teacher.Teacher{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email.String,
		Availability: av,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}, nil
}

type teacherRepository struct {
	db *sqlx.DB
}

var _ teacher.Repository = (*teacherRepository)(nil)

func NewTeacherRepository(db *sqlx.DB) teacher.Repository {
	return &teacherRepository{db: db}
}

func (repo *teacherRepository) CheckEmailUniqueness(ctx context.Context, email, excludeID string) error {
	var found bool
	q := "SELECT EXISTS(SELECT 1 FROM teachers WHERE email = $1 AND ($2 = '' OR id::text <> $2))"
	if err := sqlx.GetContext(ctx, executor(ctx, repo.db), &found, q, email, excludeID); err != nil {
		return errors.Wrap(err, "checking email")
	}
	if found {
		return teacher.ErrEmailExists
	}
	return nil
}

func (repo *teacherRepository) CreateTeacher(ctx context.Context, tchr teacher.Teacher) (teacher.Teacher, error) {
	row, err := newTeacherRow(tchr)
	if err != nil {
		return teacher.Teacher{}, err
	}
	q := "INSERT INTO teachers (" + teacherColumns + ") " +
		"VALUES (:id, :name, :email, :availability, :created_at, :updated_at)"
	if _, err = sqlx.NamedExecContext(ctx, executor(ctx, repo.db), q, row); err != nil {
		if uniqueViolated(err, "teachers_email_key") {
			return teacher.Teacher{}, teacher.ErrEmailExists
		}
		return teacher.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return row.teacher()
}

func (repo *teacherRepository) GetTeacher(ctx context.Context, id string) (teacher.Teacher, error) {
	return repo.getTeacher(ctx, id, "")
}

func (repo *teacherRepository) GetTeacherForUpdate(ctx context.Context, id string) (teacher.Teacher, error) {
	return repo.getTeacher(ctx, id, " FOR UPDATE")
}

func (repo *teacherRepository) getTeacher(ctx context.Context, id, lock string) (teacher.Teacher, error) {
	if !isUUID(id) {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	var row teacherRow
	q := "SELECT " + teacherColumns + " FROM teachers WHERE id = $1" + lock
	if err := sqlx.GetContext(ctx, executor(ctx, repo.db), &row, q, id); err != nil {
		return teacher.Teacher{}, trapNoRowsErr(err, teacher.ErrNotFound)
	}
	return row.teacher()
}

func (repo *teacherRepository) QueryTeachers(ctx context.Context, filter teacher.QueryFilter, ordering ...core.DBOrdering) ([]teacher.Teacher, error) {
	q := "SELECT " + teacherColumns + " FROM teachers"
	var args []interface{}
	if filter.Search != "" {
		q += " WHERE name ILIKE $1 OR email ILIKE $1"
		args = append(args, "%"+filter.Search+"%")
	}
	q += " ORDER BY " + orderBy(ordering, core.DBOrdering{Field: "name", Ascending: true}, "name", "email", "created_at")

	var rows []teacherRow
	if err := sqlx.SelectContext(ctx, executor(ctx, repo.db), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]teacher.Teacher, 0, len(rows))
	for _, row := range rows {
		tchr, err := row.teacher()
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, tchr)
	}
	return teachers, nil
}

func (repo *teacherRepository) UpdateTeacher(ctx context.Context, tchr teacher.Teacher) (teacher.Teacher, error) {
	row, err := newTeacherRow(tchr)
	if err != nil {
		return teacher.Teacher{}, err
	}
	q := "UPDATE teachers SET name = :name, email = :email, availability = :availability, updated_at = :updated_at " +
		"WHERE id = :id"
	res, err := sqlx.NamedExecContext(ctx, executor(ctx, repo.db), q, row)
	if err != nil {
		if uniqueViolated(err, "teachers_email_key") {
			return teacher.Teacher{}, teacher.ErrEmailExists
		}
		return teacher.Teacher{}, errors.Wrap(err, "updating teacher")
	}
	if err := checkRowsAffected(res, teacher.ErrNotFound); err != nil {
		return teacher.Teacher{}, err
	}
	return repo.GetTeacher(ctx, tchr.ID)
}

func (repo *teacherRepository) DeleteTeacher(ctx context.Context, id string) error {
	if !isUUID(id) {
		return teacher.ErrNotFound
	}
	res, err := executor(ctx, repo.db).ExecContext(ctx, "DELETE FROM teachers WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return checkRowsAffected(res, teacher.ErrNotFound)
}
