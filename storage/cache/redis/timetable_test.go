package rediscache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/timetable"
)

func TestTimetableCache(t *testing.T) {
	addr := os.Getenv("SHULE_REDIS_TESTS_ADDR")
	if addr == "" {
		t.Skip("set SHULE_REDIS_TESTS_ADDR to run against redis")
	}
	ctx := context.Background()
	client, err := Open(ctx, core.RedisConfig{Addr: addr})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = client.Close() }()

	cache := NewTimetableCache(client, time.Minute)
	cal := core.Calendar{Weekdays: []core.Weekday{core.Monday, core.Tuesday}, PeriodsPerDay: 2}
	tt := timetable.New(uuid.NewString(), cal)
	tt.Schedule[core.Tuesday][1] = timetable.Slot{Period: 2, TeacherID: "t1", Subject: "Maths"}

	_, ok, err := cache.Get(ctx, tt.ClassID)
	assert.NoError(t, err)
	assert.False(t, ok)

	ver, err := cache.Version(ctx, tt.ClassID)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), ver)

	assert.NoError(t, cache.Set(ctx, tt, ver))
	got, ok, err := cache.Get(ctx, tt.ClassID)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, tt, got)

	assert.NoError(t, cache.Delete(ctx, tt.ClassID))
	_, ok, err = cache.Get(ctx, tt.ClassID)
	assert.NoError(t, err)
	assert.False(t, ok)

	// a timetable read before the Delete is not cached
	assert.NoError(t, cache.Set(ctx, tt, ver))
	_, ok, err = cache.Get(ctx, tt.ClassID)
	assert.NoError(t, err)
	assert.False(t, ok)

	ver, err = cache.Version(ctx, tt.ClassID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), ver)
	assert.NoError(t, cache.Set(ctx, tt, ver))
	_, ok, err = cache.Get(ctx, tt.ClassID)
	assert.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, client.Del(ctx, key(tt.ClassID), versionKey(tt.ClassID)).Err())
}
