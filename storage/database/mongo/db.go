package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/shule/core"
)

const (
	teacherCollection = "teachers"
	classCollection   = "classes"
	slotCollection    = "slots"
)

// Open connects to the server of `conf.Database.MongoURI` and returns the app database.
// Transactions need a replica set.
func Open(ctx context.Context, conf *core.Config) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Database.MongoURI))
	if err != nil {
		return nil, nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, errors.Wrap(err, "pinging mongodb")
	}
	return client, client.Database(conf.Database.Name), nil
}

// EnsureIndexes creates the unique indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	assigned := bson.M{"teacher_id": bson.M{"$type": "string"}}
	hasEmail := bson.M{"email": bson.M{"$type": "string"}}

	indexes := map[string][]mongo.IndexModel{
		teacherCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("teachers_email_key").SetUnique(true).SetPartialFilterExpression(hasEmail),
			},
		},
		classCollection: {
			{
				Keys: bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetName("classes_name_key").SetUnique(true).
					SetCollation(&options.Collation{Locale: "en", Strength: 2}),
			},
		},
		slotCollection: {
			{
				Keys:    bson.D{{Key: "class_id", Value: 1}, {Key: "day", Value: 1}, {Key: "period", Value: 1}},
				Options: options.Index().SetName("slots_pkey").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "teacher_id", Value: 1}, {Key: "day", Value: 1}, {Key: "period", Value: 1}},
				Options: options.Index().SetName("slots_teacher_day_period_key").SetUnique(true).SetPartialFilterExpression(assigned),
			},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

// Transactor runs functions in mongo session transactions.
type Transactor struct {
	client *mongo.Client
}

var _ core.Transactor = (*Transactor)(nil)

func NewTransactor(client *mongo.Client) *Transactor {
	return &Transactor{client: client}
}

func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	sess, err := t.client.StartSession()
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
