package services

import (
	"context"
	"sync"
	"testing"

	"adspace/internal/domain"
	apperrors "adspace/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRemover struct {
	mu      sync.Mutex
	removed []string
}

func (f *fakeRemover) Remove(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, ref)
	return nil
}

func TestBlogSlugDerivedAndUnique(t *testing.T) {
	st := newTestStore(t)
	svc := NewBlogService(st.Blogs, &fakeRemover{}, zap.NewNop())
	ctx := context.Background()

	blog, err := svc.Create(ctx, &domain.Blog{Title: "  Digital Hoardings in 2026 ", Content: "..."})
	require.NoError(t, err)
	assert.Equal(t, "digital-hoardings-in-2026", blog.Slug)
	assert.Equal(t, "Digital Hoardings in 2026", blog.Title)

	_, err = svc.Create(ctx, &domain.Blog{Title: "Digital hoardings in 2026!", Content: "again"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConflict, apperrors.CodeOf(err))

	_, err = svc.Create(ctx, &domain.Blog{Title: "!!!", Content: "x"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestBlogCreateIgnoresClientIdentity(t *testing.T) {
	st := newTestStore(t)
	svc := NewBlogService(st.Blogs, nil, zap.NewNop())

	blog, err := svc.Create(context.Background(), &domain.Blog{ID: "chosen-by-client", Title: "Hello", Content: "..."})
	require.NoError(t, err)
	assert.NotEqual(t, "chosen-by-client", blog.ID)
}

func TestBlogUpdateKeepsIdentityAndDropsOldImage(t *testing.T) {
	st := newTestStore(t)
	media := &fakeRemover{}
	svc := NewBlogService(st.Blogs, media, zap.NewNop())
	ctx := context.Background()

	blog, err := svc.Create(ctx, &domain.Blog{Title: "Launch", Content: "v1", ImageRef: "old.jpg"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, blog.ID, &domain.Blog{Title: "Launch", Content: "v2", ImageRef: "new.jpg", Published: true})
	require.NoError(t, err)
	assert.Equal(t, blog.ID, updated.ID)
	assert.Equal(t, blog.Slug, updated.Slug)
	assert.True(t, blog.CreatedAt.Equal(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(blog.UpdatedAt))
	assert.Equal(t, []string{"old.jpg"}, media.removed)

	got, err := svc.Get(ctx, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Content)
	assert.True(t, got.Published)
}

func TestBlogUpdateSlugConflict(t *testing.T) {
	st := newTestStore(t)
	svc := NewBlogService(st.Blogs, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, &domain.Blog{Title: "First", Content: "a"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, &domain.Blog{Title: "Second", Content: "b"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, second.ID, &domain.Blog{Title: "Second", Slug: "first", Content: "b"})
	assert.Equal(t, apperrors.ErrCodeConflict, apperrors.CodeOf(err))

	// Keeping its own slug is not a conflict.
	_, err = svc.Update(ctx, second.ID, &domain.Blog{Title: "Second, revised", Content: "b"})
	assert.NoError(t, err)
}

func TestDeleteRemovesOwnedMedia(t *testing.T) {
	st := newTestStore(t)
	media := &fakeRemover{}
	svc := NewContentService("reel", st.Reels, media, zap.NewNop())
	ctx := context.Background()

	reel, err := svc.Create(ctx, &domain.Reel{
		Title:        "Times Square",
		VideoURL:     "https://cdn.example.com/reel.mp4",
		ThumbnailURL: "https://cdn.example.com/thumb.jpg",
		ThumbnailRef: "thumb.jpg",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, reel.ID))
	assert.Equal(t, []string{"thumb.jpg"}, media.removed)

	_, err = svc.Get(ctx, reel.ID)
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsNotFound(svc.Delete(ctx, reel.ID)))
}

func TestJobValidation(t *testing.T) {
	st := newTestStore(t)
	svc := NewContentService("job", st.Jobs, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, &domain.Job{Title: "Sales Lead", Description: "Own the west region"})
	require.Error(t, err)
	assert.Contains(t, apperrors.MessageOf(err), "location is required")

	_, err = svc.Create(ctx, &domain.Job{Title: "Sales Lead", Location: "Mumbai", Description: "x", EmploymentType: "gig"})
	assert.True(t, apperrors.IsValidation(err))

	job, err := svc.Create(ctx, &domain.Job{
		Title:          "Sales Lead",
		Location:       "Mumbai",
		Description:    "Own the west region",
		EmploymentType: "full-time",
		Requirements:   []string{"5 years in OOH sales"},
		IsActive:       true,
	})
	require.NoError(t, err)

	jobs, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, job.ID, jobs[0].ID)
	assert.Equal(t, []string{"5 years in OOH sales"}, []string(jobs[0].Requirements))
}
