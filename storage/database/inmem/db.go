package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/class"
	"github.com/trezcool/shule/core/teacher"
	"github.com/trezcool/shule/core/timetable"
)

type (
	// DB is a process-local store. Every repository call holds the store lock,
	// so does a whole transaction: writers are serialized.
	DB struct {
		mu      sync.Mutex
		teacher map[string]teacher.Teacher
		class   map[string]class.Class
		slot    map[slotKey]timetable.Entry
	}

	slotKey struct {
		classID string
		day     core.Weekday
		period  int
	}

	snapshot struct {
		teacher map[string]teacher.Teacher
		class   map[string]class.Class
		slot    map[slotKey]timetable.Entry
	}

	txKey struct{}
)

var _ core.Transactor = (*DB)(nil)

func Open() *DB {
	return &DB{
		teacher: make(map[string]teacher.Teacher),
		class:   make(map[string]class.Class),
		slot:    make(map[slotKey]timetable.Entry),
	}
}

func (db *DB) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*DB)
	return owner == db
}

// lock takes the store lock unless `ctx` carries a transaction of this store, which already holds it.
func (db *DB) lock(ctx context.Context) func() {
	if db.inTx(ctx) {
		return func() {}
	}
	db.mu.Lock()
	return db.mu.Unlock
}

func (db *DB) snapshot() snapshot {
	snap := snapshot{
		teacher: make(map[string]teacher.Teacher, len(db.teacher)),
		class:   make(map[string]class.Class, len(db.class)),
		slot:    make(map[slotKey]timetable.Entry, len(db.slot)),
	}
	for k, v := range db.teacher {
		v.Availability = v.Availability.Copy()
		snap.teacher[k] = v
	}
	for k, v := range db.class {
		snap.class[k] = v
	}
	for k, v := range db.slot {
		snap.slot[k] = v
	}
	return snap
}

func (db *DB) restore(snap snapshot) {
	db.teacher = snap.teacher
	db.class = snap.class
	db.slot = snap.slot
}

// WithinTx runs fn with the store locked, restoring the previous state if fn fails or panics.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if db.inTx(ctx) {
		return fn(ctx)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	snap := db.snapshot()
	defer func() {
		if p := recover(); p != nil {
			db.restore(snap)
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, db)); err != nil {
		db.restore(snap)
	}
	return err
}
