package store

import (
	"context"
	"strings"

	"adspace/internal/domain"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
)

type gormUsers struct {
	db *gorm.DB
}

func (s *gormUsers) Create(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(u.Email)
	taken, err := s.emailTaken(ctx, u.Email, "")
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicate
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return errors.Wrap(err, "failed to create user")
	}
	return nil
}

func (s *gormUsers) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *gormUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.first(ctx, "email = ?", strings.ToLower(email))
}

func (s *gormUsers) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	return users, nil
}

func (s *gormUsers) Save(ctx context.Context, u *domain.User) error {
	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		return errors.Wrap(err, "failed to update user")
	}
	return nil
}

func (s *gormUsers) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to delete user")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormUsers) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count users")
	}
	return n, nil
}

func (s *gormUsers) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := s.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}
	return &u, nil
}

func (s *gormUsers) emailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	var n int64
	q := s.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, errors.Wrap(err, "failed to check email")
	}
	return n > 0, nil
}
