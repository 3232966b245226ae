package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/timetable"
)

const keyPrefix = "shule:timetable:"

// Open connects to the redis server of `conf.Redis`.
func Open(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

// TimetableCache stores assembled timetables as JSON, one key per class.
// The version of a class lives in a separate key that never expires.
type TimetableCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ timetable.Cache = (*TimetableCache)(nil)

func NewTimetableCache(client *redis.Client, ttl time.Duration) *TimetableCache {
	return &TimetableCache{client: client, ttl: ttl}
}

func key(classID string) string {
	return keyPrefix + classID
}

func versionKey(classID string) string {
	return keyPrefix + classID + ":v"
}

func (c *TimetableCache) Get(ctx context.Context, classID string) (timetable.Timetable, bool, error) {
	data, err := c.client.Get(ctx, key(classID)).Bytes()
	if err == redis.Nil {
		return timetable.Timetable{}, false, nil
	}
	if err != nil {
		return timetable.Timetable{}, false, errors.Wrap(err, "reading timetable")
	}

	var tt timetable.Timetable
	if err = json.Unmarshal(data, &tt); err != nil {
		return timetable.Timetable{}, false, errors.Wrap(err, "decoding timetable")
	}
	return tt, true, nil
}

func (c *TimetableCache) Version(ctx context.Context, classID string) (int64, error) {
	return version(ctx, c.client, classID)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func version(ctx context.Context, cmd getter, classID string) (int64, error) {
	v, err := cmd.Get(ctx, versionKey(classID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, errors.Wrap(err, "reading timetable version")
}

// Set watches the version key: a Delete landing between the check and the write aborts it.
func (c *TimetableCache) Set(ctx context.Context, tt timetable.Timetable, ver int64) error {
	data, err := json.Marshal(tt)
	if err != nil {
		return errors.Wrap(err, "encoding timetable")
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := version(ctx, tx, tt.ClassID)
		if err != nil || cur != ver {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(tt.ClassID), data, c.ttl)
			return nil
		})
		return err
	}, versionKey(tt.ClassID))
	if err == redis.TxFailedErr {
		return nil
	}
	return errors.Wrap(err, "writing timetable")
}

func (c *TimetableCache) Delete(ctx context.Context, classID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(classID))
		pipe.Del(ctx, key(classID))
		return nil
	})
	return errors.Wrap(err, "deleting timetable")
}
