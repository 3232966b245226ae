package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/timetable"
)

const (
	slotColumns     = "class_id, day, period, teacher_id, subject"
	slotTeacherUniq = "slots_teacher_day_period_key"
)

type slotRow struct {
	ClassID   string      `db:"class_id"`
	Day       string      `db:"day"`
	Period    int         `db:"period"`
	TeacherID null.String `db:"teacher_id"`
	Subject   null.String `db:"subject"`
}

func newSlotRow(e timetable.Entry) slotRow {
	return slotRow{
		ClassID:   e.ClassID,
		Day:       string(e.Day),
		Period:    e.Period,
		TeacherID: null.NewString(e.TeacherID, e.TeacherID != ""),
		Subject:   null.NewString(e.Subject, e.TeacherID != ""),
	}
}

func (row slotRow) entry() timetable.Entry {
	return timetable.Entry{
		ClassID:   row.ClassID,
		Day:       core.Weekday(row.Day),
		Period:    row.Period,
		TeacherID: row.TeacherID.String,
		Subject:   row.Subject.String,
	}
}

func entries(rows []slotRow) []timetable.Entry {
	ee := make([]timetable.Entry, 0, len(rows))
	for _, row := range rows {
		ee = append(ee, row.entry())
	}
	return ee
}

type timetableRepository struct {
	db *sqlx.DB
}

var _ timetable.Repository = (*timetableRepository)(nil)

func NewTimetableRepository(db *sqlx.DB) timetable.Repository {
	return &timetableRepository{db: db}
}

func (repo *timetableRepository) CreateTimetable(ctx context.Context, tt timetable.Timetable) error {
	ee := tt.Entries()
	if len(ee) == 0 {
		return nil
	}
	rows := make([]slotRow, 0, len(ee))
	for _, e := range ee {
		rows = append(rows, newSlotRow(e))
	}
	q := "INSERT INTO slots (" + slotColumns + ") VALUES (:class_id, :day, :period, :teacher_id, :subject)"
	if _, err := sqlx.NamedExecContext(ctx, executor(ctx, repo.db), q, rows); err != nil {
		return errors.Wrap(err, "inserting slots")
	}
	return nil
}

func (repo *timetableRepository) GetByClassID(ctx context.Context, classID string) (timetable.Timetable, error) {
	if !isUUID(classID) {
		return timetable.Timetable{}, timetable.ErrNotFound
	}
	exec := executor(ctx, repo.db)

	var found bool
	if err := sqlx.GetContext(ctx, exec, &found, "SELECT EXISTS(SELECT 1 FROM classes WHERE id = $1)", classID); err != nil {
		return timetable.Timetable{}, errors.Wrap(err, "checking class")
	}
	if !found {
		return timetable.Timetable{}, timetable.ErrNotFound
	}

	var rows []slotRow
	q := "SELECT " + slotColumns + " FROM slots WHERE class_id = $1"
	if err := sqlx.SelectContext(ctx, exec, &rows, q, classID); err != nil {
		return timetable.Timetable{}, errors.Wrap(err, "querying slots")
	}
	return timetable.Assemble(classID, entries(rows)), nil
}

func (repo *timetableRepository) FindConflict(ctx context.Context, teacherID string, day core.Weekday, period int) (*timetable.Entry, error) {
	if !isUUID(teacherID) {
		return nil, nil
	}
	var row slotRow
	q := "SELECT " + slotColumns + " FROM slots WHERE teacher_id = $1 AND day = $2 AND period = $3 LIMIT 1"
	err := sqlx.GetContext(ctx, executor(ctx, repo.db), &row, q, teacherID, string(day), period)
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, errors.Wrap(err, "finding booking")
	}
	booking := row.entry()
	return &booking, nil
}

// AssignSlot upserts the slot. The partial unique index on (teacher_id, day, period) rejects
// the write when the teacher is booked elsewhere at the same time.
func (repo *timetableRepository) AssignSlot(ctx context.Context, e timetable.Entry) error {
	q := "INSERT INTO slots (" + slotColumns + ") VALUES (:class_id, :day, :period, :teacher_id, :subject) " +
		"ON CONFLICT (class_id, day, period) DO UPDATE SET teacher_id = EXCLUDED.teacher_id, subject = EXCLUDED.subject"
	if _, err := sqlx.NamedExecContext(ctx, executor(ctx, repo.db), q, newSlotRow(e)); err != nil {
		if uniqueViolated(err, slotTeacherUniq) {
			return &timetable.ConflictError{Booking: timetable.Entry{
				Day:       e.Day,
				Period:    e.Period,
				TeacherID: e.TeacherID,
			}}
		}
		return errors.Wrap(err, "assigning slot")
	}
	return nil
}

func (repo *timetableRepository) ClearSlot(ctx context.Context, classID string, day core.Weekday, period int) error {
	if !isUUID(classID) {
		return timetable.ErrSlotNotAssigned
	}
	q := `UPDATE slots SET teacher_id = NULL, subject = NULL
		WHERE class_id = $1 AND day = $2 AND period = $3 AND teacher_id IS NOT NULL`
	res, err := executor(ctx, repo.db).ExecContext(ctx, q, classID, string(day), period)
	if err != nil {
		return errors.Wrap(err, "clearing slot")
	}
	return checkRowsAffected(res, timetable.ErrSlotNotAssigned)
}

func (repo *timetableRepository) DeleteTimetable(ctx context.Context, classID string) error {
	if !isUUID(classID) {
		return nil
	}
	if _, err := executor(ctx, repo.db).ExecContext(ctx, "DELETE FROM slots WHERE class_id = $1", classID); err != nil {
		return errors.Wrap(err, "deleting slots")
	}
	return nil
}

func (repo *timetableRepository) QueryBookings(ctx context.Context, teacherID string) ([]timetable.Entry, error) {
	if !isUUID(teacherID) {
		return []timetable.Entry{}, nil
	}
	var rows []slotRow
	q := "SELECT " + slotColumns + " FROM slots WHERE teacher_id = $1"
	if err := sqlx.SelectContext(ctx, executor(ctx, repo.db), &rows, q, teacherID); err != nil {
		return nil, errors.Wrap(err, "querying bookings")
	}
	return entries(rows), nil
}

func (repo *timetableRepository) CountBookings(ctx context.Context, teacherID string) (int, error) {
	if !isUUID(teacherID) {
		return 0, nil
	}
	var n int
	if err := sqlx.GetContext(ctx, executor(ctx, repo.db), &n, "SELECT COUNT(*) FROM slots WHERE teacher_id = $1", teacherID); err != nil {
		return 0, errors.Wrap(err, "counting bookings")
	}
	return n, nil
}
