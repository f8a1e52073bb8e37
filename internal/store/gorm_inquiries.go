package store

import (
	"context"

	"adspace/internal/domain"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
)

type gormInquiries struct {
	db *gorm.DB
}

func notesInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

func (s *gormInquiries) Create(ctx context.Context, inq *domain.Inquiry) error {
	if err := s.db.WithContext(ctx).Omit("Notes").Create(inq).Error; err != nil {
		return errors.Wrap(err, "failed to create inquiry")
	}
	if inq.Notes == nil {
		inq.Notes = []domain.Note{}
	}
	return nil
}

func (s *gormInquiries) List(ctx context.Context) ([]domain.Inquiry, error) {
	var items []domain.Inquiry
	err := s.db.WithContext(ctx).
		Preload("Notes", notesInOrder).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list inquiries")
	}
	for i := range items {
		if items[i].Notes == nil {
			items[i].Notes = []domain.Note{}
		}
	}
	return items, nil
}

func (s *gormInquiries) Get(ctx context.Context, id string) (*domain.Inquiry, error) {
	return loadInquiry(s.db.WithContext(ctx), id)
}

func (s *gormInquiries) SetStatus(ctx context.Context, id string, status domain.InquiryStatus) (*domain.Inquiry, error) {
	var out *domain.Inquiry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, id); err != nil {
			return err
		}
		if err := tx.Model(&domain.Inquiry{}).Where("id = ?", id).Update("status", status).Error; err != nil {
			return errors.Wrap(err, "failed to update inquiry status")
		}
		var err error
		out, err = loadInquiry(tx, id)
		return err
	})
	return out, err
}

func (s *gormInquiries) MarkViewed(ctx context.Context, id string) (*domain.Inquiry, bool, error) {
	var (
		out     *domain.Inquiry
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Inquiry{}).
			Where("id = ? AND status = ?", id, domain.StatusUnread).
			Update("status", domain.StatusRead)
		if res.Error != nil {
			return errors.Wrap(res.Error, "failed to mark inquiry viewed")
		}
		changed = res.RowsAffected > 0
		var err error
		out, err = loadInquiry(tx, id)
		return err
	})
	return out, changed, err
}

func (s *gormInquiries) AppendNote(ctx context.Context, id, content string) (*domain.Inquiry, error) {
	var out *domain.Inquiry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, id); err != nil {
			return err
		}
		now := tx.NowFunc()
		note := domain.Note{InquiryID: id, Content: content, CreatedAt: now}
		if err := tx.Create(&note).Error; err != nil {
			return errors.Wrap(err, "failed to append note")
		}
		if err := tx.Model(&domain.Inquiry{}).Where("id = ?", id).Update("updated_at", now).Error; err != nil {
			return errors.Wrap(err, "failed to touch inquiry")
		}
		var err error
		out, err = loadInquiry(tx, id)
		return err
	})
	return out, err
}

func (s *gormInquiries) MarkForwarded(ctx context.Context, id string) (*domain.Inquiry, error) {
	var out *domain.Inquiry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, id); err != nil {
			return err
		}
		if err := tx.Model(&domain.Inquiry{}).Where("id = ?", id).Update("is_forwarded", true).Error; err != nil {
			return errors.Wrap(err, "failed to mark inquiry forwarded")
		}
		var err error
		out, err = loadInquiry(tx, id)
		return err
	})
	return out, err
}

func exists(tx *gorm.DB, id string) error {
	var n int64
	if err := tx.Model(&domain.Inquiry{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return errors.Wrap(err, "failed to look up inquiry")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func loadInquiry(db *gorm.DB, id string) (*domain.Inquiry, error) {
	var inq domain.Inquiry
	err := db.Preload("Notes", notesInOrder).Where("id = ?", id).First(&inq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load inquiry")
	}
	if inq.Notes == nil {
		inq.Notes = []domain.Note{}
	}
	return &inq, nil
}
