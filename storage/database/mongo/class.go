package mongorepos

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/class"
)

// case-insensitive comparison, matches the classes_name_key index
var nameCollation = &options.Collation{Locale: "en", Strength: 2}

type classDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	CreatedAt time.Time `bson:"created_at"`
}

func (doc classDoc) class() class.Class {
	return class.Class{ID: doc.ID, Name: doc.Name, CreatedAt: doc.CreatedAt.UTC()}
}

type classRepository struct {
	coll *mongo.Collection
}

var _ class.Repository = (*classRepository)(nil)

func NewClassRepository(db *mongo.Database) class.Repository {
	return &classRepository{coll: db.Collection(classCollection)}
}

func (repo *classRepository) CheckNameUniqueness(ctx context.Context, name string) error {
	n, err := repo.coll.CountDocuments(ctx, bson.M{"name": name}, options.Count().SetLimit(1).SetCollation(nameCollation))
	if err != nil {
		return errors.Wrap(err, "checking class name")
	}
	if n > 0 {
		return class.ErrNameExists
	}
	return nil
}

func (repo *classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	doc := classDoc{ID: cls.ID, Name: cls.Name, CreatedAt: cls.CreatedAt}
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return class.Class{}, class.ErrNameExists
		}
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	return doc.class(), nil
}

func (repo *classRepository) GetClass(ctx context.Context, id string) (class.Class, error) {
	var doc classDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return class.Class{}, class.ErrNotFound
		}
		return class.Class{}, errors.Wrap(err, "finding class")
	}
	return doc.class(), nil
}

func (repo *classRepository) QueryClasses(ctx context.Context, filter class.QueryFilter, ordering ...core.DBOrdering) ([]class.Class, error) {
	query := bson.M{}
	if filter.Search != "" {
		query["name"] = bson.M{"$regex": regexp.QuoteMeta(filter.Search), "$options": "i"}
	}
	opts := options.Find().SetSort(sortBy(ordering, core.DBOrdering{Field: "name", Ascending: true}, "name", "created_at"))

	cur, err := repo.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	var docs []classDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding classes")
	}
	classes := make([]class.Class, 0, len(docs))
	for _, doc := range docs {
		classes = append(classes, doc.class())
	}
	return classes, nil
}

func (repo *classRepository) DeleteClass(ctx context.Context, id string) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "deleting class")
	}
	if res.DeletedCount == 0 {
		return class.ErrNotFound
	}
	return nil
}
