package sqlxrepos

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

const uniqueViolation = "23505"

// uniqueViolated reports whether `err` is a violation of the `constraint` unique index.
func uniqueViolated(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation && pqErr.Constraint == constraint
	}
	return false
}

// trapNoRowsErr replaces sql.ErrNoRows with `notFound`.
func trapNoRowsErr(err, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}

// checkRowsAffected returns `notFound` when `res` touched no row.
func checkRowsAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// orderBy renders the ORDER BY clause, falling back to `def` when the field is not in `allowed`.
func orderBy(ordering []core.DBOrdering, def core.DBOrdering, allowed ...string) string {
	if len(ordering) == 0 {
		return def.String()
	}
	for _, fld := range allowed {
		if ordering[0].Field == fld {
			return ordering[0].String()
		}
	}
	return def.String()
}
