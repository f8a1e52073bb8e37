package services

import (
	"context"
	"slices"

	"adspace/internal/domain"
	"adspace/internal/store"
	apperrors "adspace/pkg/errors"

	"go.uber.org/zap"
)

// MediaRemover deletes stored media objects by ref.
type MediaRemover interface {
	Remove(ctx context.Context, ref string) error
}

// ContentService manages one kind of site content (blogs, jobs or reels).
type ContentService[T any, PT domain.Entity[T]] struct {
	kind   string
	repo   store.Repository[T, PT]
	media  MediaRemover
	unique func(PT) (field, value string)
	log    *zap.Logger
}

// NewContentService creates a content service. kind names the records in
// messages and logs.
func NewContentService[T any, PT domain.Entity[T]](kind string, repo store.Repository[T, PT], media MediaRemover, log *zap.Logger) *ContentService[T, PT] {
	return &ContentService[T, PT]{kind: kind, repo: repo, media: media, log: log.Named(kind)}
}

// NewBlogService creates the blog service. Slugs are derived from the title
// when absent and must be unique.
func NewBlogService(repo store.Repository[domain.Blog, *domain.Blog], media MediaRemover, log *zap.Logger) *ContentService[domain.Blog, *domain.Blog] {
	svc := NewContentService("blog", repo, media, log)
	svc.unique = func(b *domain.Blog) (string, string) {
		if b.Slug == "" {
			b.Slug = domain.Slugify(b.Title)
		} else {
			b.Slug = domain.Slugify(b.Slug)
		}
		return "slug", b.Slug
	}
	return svc
}

// List returns every record, newest first.
func (s *ContentService[T, PT]) List(ctx context.Context) ([]T, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("list failed: database error", zap.Error(err))
		return nil, storeError(err, s.kind, "fetch "+s.kind+"s")
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Get returns one record.
func (s *ContentService[T, PT]) Get(ctx context.Context, id string) (PT, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, s.kind, "fetch "+s.kind)
	}
	return item, nil
}

// Create validates and stores a new record.
func (s *ContentService[T, PT]) Create(ctx context.Context, item PT) (PT, error) {
	// Identity and timestamps are always server assigned.
	item.Inherit(new(T))
	trimAll(item)
	if err := s.check(ctx, item, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, item); err != nil {
		s.log.Error("create failed: database error", zap.Error(err))
		return nil, storeError(err, s.kind, "create "+s.kind)
	}
	s.log.Info("create successful", zap.String("id", item.Key()), zap.String("title", item.Headline()))
	return item, nil
}

// Update replaces the record with id. Media no longer referenced after the
// change is deleted.
func (s *ContentService[T, PT]) Update(ctx context.Context, id string, item PT) (PT, error) {
	prev, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, s.kind, "fetch "+s.kind)
	}
	trimAll(item)
	item.Inherit((*T)(prev))
	if err := s.check(ctx, item, id); err != nil {
		return nil, err
	}
	if err := s.repo.Replace(ctx, item); err != nil {
		s.log.Error("update failed: database error", zap.String("id", id), zap.Error(err))
		return nil, storeError(err, s.kind, "update "+s.kind)
	}

	kept := item.MediaRefs()
	for _, ref := range prev.MediaRefs() {
		if !slices.Contains(kept, ref) {
			s.removeMedia(ctx, id, ref)
		}
	}
	s.log.Info("update successful", zap.String("id", id))
	return item, nil
}

// Delete removes the record and, best effort, the media it owns.
func (s *ContentService[T, PT]) Delete(ctx context.Context, id string) error {
	prev, err := s.repo.Get(ctx, id)
	if err != nil {
		return storeError(err, s.kind, "fetch "+s.kind)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, s.kind, "delete "+s.kind)
	}
	for _, ref := range prev.MediaRefs() {
		s.removeMedia(ctx, id, ref)
	}
	s.log.Info("delete successful", zap.String("id", id))
	return nil
}

func (s *ContentService[T, PT]) check(ctx context.Context, item PT, excludeID string) error {
	if err := validateStruct(item); err != nil {
		return err
	}
	if s.unique == nil {
		return nil
	}
	field, value := s.unique(item)
	if value == "" {
		return apperrors.Validation(field + " is required")
	}
	taken, err := s.repo.ExistsBy(ctx, field, value, excludeID)
	if err != nil {
		return storeError(err, s.kind, "check "+field)
	}
	if taken {
		return apperrors.Conflict(s.kind + " with this " + field + " already exists")
	}
	return nil
}

func (s *ContentService[T, PT]) removeMedia(ctx context.Context, id, ref string) {
	if s.media == nil {
		return
	}
	if err := s.media.Remove(ctx, ref); err != nil {
		s.log.Warn("failed to delete media", zap.String("id", id), zap.String("ref", ref), zap.Error(err))
	}
}
