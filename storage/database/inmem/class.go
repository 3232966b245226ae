package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/class"
)

type classRepository struct {
	db *DB
}

var _ class.Repository = (*classRepository)(nil)

func NewClassRepository(db *DB) class.Repository {
	return &classRepository{db: db}
}

func (repo *classRepository) CheckNameUniqueness(ctx context.Context, name string) error {
	defer repo.db.lock(ctx)()

	for _, cls := range repo.db.class {
		if strings.EqualFold(cls.Name, name) {
			return class.ErrNameExists
		}
	}
	return nil
}

func (repo *classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	defer repo.db.lock(ctx)()

	repo.db.class[cls.ID] = cls
	return cls, nil
}

func (repo *classRepository) GetClass(ctx context.Context, id string) (class.Class, error) {
	defer repo.db.lock(ctx)()

	if cls, ok := repo.db.class[id]; ok {
		return cls, nil
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *classRepository) QueryClasses(ctx context.Context, filter class.QueryFilter, ordering ...core.DBOrdering) ([]class.Class, error) {
	defer repo.db.lock(ctx)()

	search := strings.ToLower(filter.Search)
	classes := make([]class.Class, 0, len(repo.db.class))
	for _, cls := range repo.db.class {
		if search == "" || strings.Contains(strings.ToLower(cls.Name), search) {
			classes = append(classes, cls)
		}
	}

	ord := core.DBOrdering{Field: "name", Ascending: true}
	if len(ordering) > 0 {
		ord = ordering[0]
	}
	sort.SliceStable(classes, func(i, j int) bool {
		a, b := classes[i], classes[j]
		if !ord.Ascending {
			a, b = b, a
		}
		if ord.Field == "created_at" {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Name < b.Name
	})
	return classes, nil
}

func (repo *classRepository) DeleteClass(ctx context.Context, id string) error {
	defer repo.db.lock(ctx)()

	if _, ok := repo.db.class[id]; !ok {
		return class.ErrNotFound
	}
	delete(repo.db.class, id)
	return nil
}
