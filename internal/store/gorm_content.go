package store

import (
	"context"

	"adspace/internal/domain"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormRepository[T any, PT domain.Entity[T]] struct {
	db *gorm.DB
}

func (r *gormRepository[T, PT]) Create(ctx context.Context, item PT) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return errors.Wrapf(err, "failed to create %T", item)
	}
	return nil
}

func (r *gormRepository[T, PT]) Get(ctx context.Context, id string) (PT, error) {
	var item T
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %T", item)
	}
	return PT(&item), nil
}

func (r *gormRepository[T, PT]) List(ctx context.Context) ([]T, error) {
	var items []T
	err := r.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list content")
	}
	return items, nil
}

func (r *gormRepository[T, PT]) Replace(ctx context.Context, item PT) error {
	item.Touch(r.db.NowFunc())
	res := r.db.WithContext(ctx).Model(item).Select("*").Where("id = ?", item.Key()).Updates(item)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "failed to update %T", item)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepository[T, PT]) Delete(ctx context.Context, id string) error {
	var zero T
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&zero)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "failed to delete %T", zero)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRepository[T, PT]) ExistsBy(ctx context.Context, field, value, excludeID string) (bool, error) {
	var (
		zero T
		n    int64
	)
	q := r.db.WithContext(ctx).Model(&zero).Where(clause.Eq{Column: clause.Column{Name: field}, Value: value})
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, errors.Wrap(err, "failed to check uniqueness")
	}
	return n > 0, nil
}
