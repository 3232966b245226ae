package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/teacher"
)

type teacherRepository struct {
	db *DB
}

var _ teacher.Repository = (*teacherRepository)(nil)

func NewTeacherRepository(db *DB) teacher.Repository {
	return &teacherRepository{db: db}
}

func (repo *teacherRepository) CheckEmailUniqueness(ctx context.Context, email, excludeID string) error {
	defer repo.db.lock(ctx)()

	for _, tchr := range repo.db.teacher {
		if tchr.ID != excludeID && strings.EqualFold(tchr.Email, email) {
			return teacher.ErrEmailExists
		}
	}
	return nil
}

func (repo *teacherRepository) CreateTeacher(ctx context.Context, tchr teacher.Teacher) (teacher.Teacher, error) {
	defer repo.db.lock(ctx)()

	tchr.Availability = tchr.Availability.Copy()
	repo.db.teacher[tchr.ID] = tchr
	return copyTeacher(tchr), nil
}

func (repo *teacherRepository) GetTeacher(ctx context.Context, id string) (teacher.Teacher, error) {
	defer repo.db.lock(ctx)()

	if tchr, ok := repo.db.teacher[id]; ok {
		return copyTeacher(tchr), nil
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

// GetTeacherForUpdate relies on the store lock held by the transaction.
func (repo *teacherRepository) GetTeacherForUpdate(ctx context.Context, id string) (teacher.Teacher, error) {
	return repo.GetTeacher(ctx, id)
}

func (repo *teacherRepository) QueryTeachers(ctx context.Context, filter teacher.QueryFilter, ordering ...core.DBOrdering) ([]teacher.Teacher, error) {
	defer repo.db.lock(ctx)()

	search := strings.ToLower(filter.Search)
	teachers := make([]teacher.Teacher, 0, len(repo.db.teacher))
	for _, tchr := range repo.db.teacher {
		if search != "" &&
			!strings.Contains(strings.ToLower(tchr.Name), search) &&
			!strings.Contains(strings.ToLower(tchr.Email), search) {
			continue
		}
		teachers = append(teachers, copyTeacher(tchr))
	}

	ord := core.DBOrdering{Field: "name", Ascending: true}
	if len(ordering) > 0 {
		ord = ordering[0]
	}
	sort.SliceStable(teachers, func(i, j int) bool {
		a, b := teachers[i], teachers[j]
		if !ord.Ascending {
			a, b = b, a
		}
		switch ord.Field {
		case "email":
			return a.Email < b.Email
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.Name < b.Name
		}
	})
	return teachers, nil
}

func (repo *teacherRepository) UpdateTeacher(ctx context.Context, tchr teacher.Teacher) (teacher.Teacher, error) {
	defer repo.db.lock(ctx)()

	if _, ok := repo.db.teacher[tchr.ID]; !ok {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	tchr.Availability = tchr.Availability.Copy()
	repo.db.teacher[tchr.ID] = tchr
	return copyTeacher(tchr), nil
}

func (repo *teacherRepository) DeleteTeacher(ctx context.Context, id string) error {
	defer repo.db.lock(ctx)()

	if _, ok := repo.db.teacher[id]; !ok {
		return teacher.ErrNotFound
	}
	delete(repo.db.teacher, id)
	return nil
}

func copyTeacher(tchr teacher.Teacher) teacher.Teacher {
	tchr.Availability = tchr.Availability.Copy()
	return tchr
}
