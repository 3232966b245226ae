package sqlxrepos

import (
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/teacher"
)

func TestUniqueViolated(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: slotTeacherUniq}

	assert.True(t, uniqueViolated(pqErr, slotTeacherUniq))
	assert.True(t, uniqueViolated(errors.Wrap(pqErr, "assigning slot"), slotTeacherUniq))
	assert.False(t, uniqueViolated(pqErr, "teachers_email_key"))
	assert.False(t, uniqueViolated(&pq.Error{Code: "23503", Constraint: slotTeacherUniq}, slotTeacherUniq))
	assert.False(t, uniqueViolated(errors.New("boom"), slotTeacherUniq))
}

func TestTrapNoRowsErr(t *testing.T) {
	assert.Equal(t, teacher.ErrNotFound, trapNoRowsErr(sql.ErrNoRows, teacher.ErrNotFound))
	err := errors.New("boom")
	assert.Equal(t, err, trapNoRowsErr(err, teacher.ErrNotFound))
}

type fakeResult struct {
	n   int64
	err error
}

func (fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.n, r.err }

func TestCheckRowsAffected(t *testing.T) {
	errDriver := errors.New("driver does not count rows")

	tests := []struct {
		name    string
		res     sql.Result
		wantErr error
	}{
		{"one row", fakeResult{n: 1}, nil},
		{"no row", fakeResult{}, teacher.ErrNotFound},
		{"count failed", fakeResult{err: errDriver}, errDriver},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := checkRowsAffected(tc.res, teacher.ErrNotFound)
			assert.Equal(t, tc.wantErr, errors.Cause(err))
		})
	}

	err := checkRowsAffected(fakeResult{err: errDriver}, teacher.ErrNotFound)
	assert.NotEqual(t, teacher.ErrNotFound, err)
	assert.Contains(t, err.Error(), "counting affected rows")
}

func TestOrderBy(t *testing.T) {
	def := core.DBOrdering{Field: "name", Ascending: true}

	assert.Equal(t, "name ASC", orderBy(nil, def, "name", "email"))
	assert.Equal(t, "email DESC", orderBy([]core.DBOrdering{{Field: "email"}}, def, "name", "email"))
	assert.Equal(t, "name ASC", orderBy([]core.DBOrdering{{Field: "1; DROP TABLE teachers"}}, def, "name", "email"))
}
