package timetable

import "context"

// Cache keeps assembled timetables for reads.
//
// Every class has a version that Delete bumps. A reader takes the Version before loading the
// timetable from the store and hands it to Set, which stores nothing once the version moved:
// a timetable loaded before a committed mutation never outlives that mutation's Delete.
type Cache interface {
	// Get returns false on a miss.
	Get(ctx context.Context, classID string) (Timetable, bool, error)
	Version(ctx context.Context, classID string) (int64, error)
	// Set stores `tt` unless the version of the class is no longer `version`.
	Set(ctx context.Context, tt Timetable, version int64) error
	// Delete drops the entry and bumps the version.
	Delete(ctx context.Context, classID string) error
}

type nopCache struct{}

// NopCache is the Cache used when caching is disabled.
func NopCache() Cache { return nopCache{} }

func (nopCache) Get(context.Context, string) (Timetable, bool, error) { return Timetable{}, false, nil }
func (nopCache) Version(context.Context, string) (int64, error)      { return 0, nil }
func (nopCache) Set(context.Context, Timetable, int64) error          { return nil }
func (nopCache) Delete(context.Context, string) error                 { return nil }
