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
	"github.com/trezcool/shule/core/teacher"
)

type teacherDoc struct {
	ID           string           `bson:"_id"`
	Name         string           `bson:"name"`
	Email        string           `bson:"email,omitempty"`
	Availability map[string][]int `bson:"availability"`
	CreatedAt    time.Time        `bson:"created_at"`
	UpdatedAt    time.Time        `bson:"updated_at"`
}

func newTeacherDoc(tchr teacher.Teacher) teacherDoc {
	av := make(map[string][]int, len(tchr.Availability))
	for day, periods := range tchr.Availability {
		av[string(day)] = periods
	}
	return teacherDoc{
		ID:           tchr.ID,
		Name:         tchr.Name,
		Email:        tchr.Email,
		Availability: av,
		CreatedAt:    tchr.CreatedAt,
		UpdatedAt:    tchr.UpdatedAt,
	}
}

func (doc teacherDoc) teacher() teacher.Teacher {
	av := make(teacher.Availability, len(doc.Availability))
	for day, periods := range doc.Availability {
		av[core.Weekday(day)] = periods
	}
	return teacher.Teacher{
		ID:           doc.ID,
		Name:         doc.Name,
		Email:        doc.Email,
		Availability: av,
		CreatedAt:    doc.CreatedAt.UTC(),
		UpdatedAt:    doc.UpdatedAt.UTC(),
	}
}

type teacherRepository struct {
	coll *mongo.Collection
}

var _ teacher.Repository = (*teacherRepository)(nil)

func NewTeacherRepository(db *mongo.Database) teacher.Repository {
	return &teacherRepository{coll: db.Collection(teacherCollection)}
}

func (repo *teacherRepository) CheckEmailUniqueness(ctx context.Context, email, excludeID string) error {
	filter := bson.M{"email": email}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	n, err := repo.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return errors.Wrap(err, "checking email")
	}
	if n > 0 {
		return teacher.ErrEmailExists
	}
	return nil
}

func (repo *teacherRepository) CreateTeacher(ctx context.Context, tchr teacher.Teacher) (teacher.Teacher, error) {
	doc := newTeacherDoc(tchr)
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return teacher.Teacher{}, teacher.ErrEmailExists
		}
		return teacher.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return doc.teacher(), nil
}

func (repo *teacherRepository) GetTeacher(ctx context.Context, id string) (teacher.Teacher, error) {
	var doc teacherDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return teacher.Teacher{}, teacher.ErrNotFound
		}
		return teacher.Teacher{}, errors.Wrap(err, "finding teacher")
	}
	return doc.teacher(), nil
}

// GetTeacherForUpdate bumps the teacher's revision so that concurrent transactions writing
// the same teacher conflict with this one.
func (repo *teacherRepository) GetTeacherForUpdate(ctx context.Context, id string) (teacher.Teacher, error) {
	var doc teacherDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := repo.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"revision": 1}}, opts).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return teacher.Teacher{}, teacher.ErrNotFound
		}
		return teacher.Teacher{}, errors.Wrap(err, "locking teacher")
	}
	return doc.teacher(), nil
}

func (repo *teacherRepository) QueryTeachers(ctx context.Context, filter teacher.QueryFilter, ordering ...core.DBOrdering) ([]teacher.Teacher, error) {
	query := bson.M{}
	if filter.Search != "" {
		pattern := regexp.QuoteMeta(filter.Search)
		query["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"email": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	opts := options.Find().SetSort(sortBy(ordering, core.DBOrdering{Field: "name", Ascending: true}, "name", "email", "created_at"))

	cur, err := repo.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	var docs []teacherDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding teachers")
	}
	teachers := make([]teacher.Teacher, 0, len(docs))
	for _, doc := range docs {
		teachers = append(teachers, doc.teacher())
	}
	return teachers, nil
}

func (repo *teacherRepository) UpdateTeacher(ctx context.Context, tchr teacher.Teacher) (teacher.Teacher, error) {
	doc := newTeacherDoc(tchr)
	update := bson.M{"$set": bson.M{
		"name":         doc.Name,
		"availability": doc.Availability,
		"updated_at":   doc.UpdatedAt,
	}}
	if doc.Email != "" {
		update["$set"].(bson.M)["email"] = doc.Email
	} else {
		update["$unset"] = bson.M{"email": ""}
	}

	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": tchr.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return teacher.Teacher{}, teacher.ErrEmailExists
		}
		return teacher.Teacher{}, errors.Wrap(err, "updating teacher")
	}
	if res.MatchedCount == 0 {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return repo.GetTeacher(ctx, tchr.ID)
}

func (repo *teacherRepository) DeleteTeacher(ctx context.Context, id string) error {
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	if res.DeletedCount == 0 {
		return teacher.ErrNotFound
	}
	return nil
}

// sortBy renders the sort document, falling back to `def` when the field is not in `allowed`.
func sortBy(ordering []core.DBOrdering, def core.DBOrdering, allowed ...string) bson.D {
	ord := def
	if len(ordering) > 0 {
		for _, fld := range allowed {
			if ordering[0].Field == fld {
				ord = ordering[0]
			}
		}
	}
	direction := -1
	if ord.Ascending {
		direction = 1
	}
	return bson.D{{Key: ord.Field, Value: direction}}
}
