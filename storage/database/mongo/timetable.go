package mongorepos

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/timetable"
)

// slotDoc is one slot of a class timetable; teacher_id & subject are absent on free slots.
type slotDoc struct {
	ID        string `bson:"_id"`
	ClassID   string `bson:"class_id"`
	Day       string `bson:"day"`
	Period    int    `bson:"period"`
	TeacherID string `bson:"teacher_id,omitempty"`
	Subject   string `bson:"subject,omitempty"`
}

func slotID(classID string, day core.Weekday, period int) string {
	return fmt.Sprintf("%s:%s:%d", classID, day, period)
}

func newSlotDoc(e timetable.Entry) slotDoc {
	return slotDoc{
		ID:        slotID(e.ClassID, e.Day, e.Period),
		ClassID:   e.ClassID,
		Day:       string(e.Day),
		Period:    e.Period,
		TeacherID: e.TeacherID,
		Subject:   e.Subject,
	}
}

func (doc slotDoc) entry() timetable.Entry {
	return timetable.Entry{
		ClassID:   doc.ClassID,
		Day:       core.Weekday(doc.Day),
		Period:    doc.Period,
		TeacherID: doc.TeacherID,
		Subject:   doc.Subject,
	}
}

type timetableRepository struct {
	classes *mongo.Collection
	slots   *mongo.Collection
}

var _ timetable.Repository = (*timetableRepository)(nil)

func NewTimetableRepository(db *mongo.Database) timetable.Repository {
	return &timetableRepository{
		classes: db.Collection(classCollection),
		slots:   db.Collection(slotCollection),
	}
}

func (repo *timetableRepository) findSlots(ctx context.Context, filter bson.M) ([]timetable.Entry, error) {
	cur, err := repo.slots.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying slots")
	}
	var docs []slotDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding slots")
	}
	entries := make([]timetable.Entry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, doc.entry())
	}
	return entries, nil
}

func (repo *timetableRepository) CreateTimetable(ctx context.Context, tt timetable.Timetable) error {
	entries := tt.Entries()
	if len(entries) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, newSlotDoc(e))
	}
	if _, err := repo.slots.InsertMany(ctx, docs); err != nil {
		return errors.Wrap(err, "inserting slots")
	}
	return nil
}

func (repo *timetableRepository) GetByClassID(ctx context.Context, classID string) (timetable.Timetable, error) {
	n, err := repo.classes.CountDocuments(ctx, bson.M{"_id": classID}, options.Count().SetLimit(1))
	if err != nil {
		return timetable.Timetable{}, errors.Wrap(err, "checking class")
	}
	if n == 0 {
		return timetable.Timetable{}, timetable.ErrNotFound
	}
	entries, err := repo.findSlots(ctx, bson.M{"class_id": classID})
	if err != nil {
		return timetable.Timetable{}, err
	}
	return timetable.Assemble(classID, entries), nil
}

func (repo *timetableRepository) FindConflict(ctx context.Context, teacherID string, day core.Weekday, period int) (*timetable.Entry, error) {
	var doc slotDoc
	err := repo.slots.FindOne(ctx, bson.M{"teacher_id": teacherID, "day": string(day), "period": period}).Decode(&doc)
	switch {
	case err == mongo.ErrNoDocuments:
		return nil, nil
	case err != nil:
		return nil, errors.Wrap(err, "finding booking")
	}
	booking := doc.entry()
	return &booking, nil
}

// AssignSlot upserts the slot document. The partial unique index on (teacher_id, day, period)
// rejects the write when the teacher is booked elsewhere at the same time.
func (repo *timetableRepository) AssignSlot(ctx context.Context, e timetable.Entry) error {
	doc := newSlotDoc(e)
	update := bson.M{"$set": bson.M{
		"class_id":   doc.ClassID,
		"day":        doc.Day,
		"period":     doc.Period,
		"teacher_id": doc.TeacherID,
		"subject":    doc.Subject,
	}}
	_, err := repo.slots.UpdateOne(ctx, bson.M{"_id": doc.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
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
	update := bson.M{"$unset": bson.M{"teacher_id": "", "subject": ""}}
	filter := bson.M{"_id": slotID(classID, day, period), "teacher_id": bson.M{"$type": "string"}}
	res, err := repo.slots.UpdateOne(ctx, filter, update)
	if err != nil {
		return errors.Wrap(err, "clearing slot")
	}
	if res.MatchedCount == 0 {
		return timetable.ErrSlotNotAssigned
	}
	return nil
}

func (repo *timetableRepository) DeleteTimetable(ctx context.Context, classID string) error {
	if _, err := repo.slots.DeleteMany(ctx, bson.M{"class_id": classID}); err != nil {
		return errors.Wrap(err, "deleting slots")
	}
	return nil
}

func (repo *timetableRepository) QueryBookings(ctx context.Context, teacherID string) ([]timetable.Entry, error) {
	return repo.findSlots(ctx, bson.M{"teacher_id": teacherID})
}

func (repo *timetableRepository) CountBookings(ctx context.Context, teacherID string) (int, error) {
	n, err := repo.slots.CountDocuments(ctx, bson.M{"teacher_id": teacherID})
	if err != nil {
		return 0, errors.Wrap(err, "counting bookings")
	}
	return int(n), nil
}
