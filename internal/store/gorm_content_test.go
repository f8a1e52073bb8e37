package store_test

import (
	"context"
	"testing"

	"adspace/internal/domain"
	"adspace/internal/store"
	"adspace/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlogRepositoryLifecycle(t *testing.T) {
	s := storetest.New(t, newClock())
	ctx := context.Background()

	blog := &domain.Blog{Title: "Why Billboards Still Work", Content: "..."}
	require.NoError(t, s.Blogs.Create(ctx, blog))
	assert.Equal(t, "why-billboards-still-work", blog.Slug)

	taken, err := s.Blogs.ExistsBy(ctx, "slug", blog.Slug, "")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = s.Blogs.ExistsBy(ctx, "slug", blog.Slug, blog.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	prev, err := s.Blogs.Get(ctx, blog.ID)
	require.NoError(t, err)

	update := &domain.Blog{Title: "Billboards in 2026", Content: "updated", Published: true}
	update.Inherit(prev)
	require.NoError(t, s.Blogs.Replace(ctx, update))

	got, err := s.Blogs.Get(ctx, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, "Billboards in 2026", got.Title)
	assert.Equal(t, "why-billboards-still-work", got.Slug)
	assert.True(t, got.Published)
	assert.True(t, got.CreatedAt.Equal(prev.CreatedAt))

	require.NoError(t, s.Blogs.Delete(ctx, blog.ID))
	_, err = s.Blogs.Get(ctx, blog.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Blogs.Delete(ctx, blog.ID), store.ErrNotFound)
}

func TestJobRequirementsRoundTrip(t *testing.T) {
	s := storetest.New(t, newClock())
	ctx := context.Background()

	job := &domain.Job{
		Title:       "Site Surveyor",
		Location:    "Nagpur",
		Description: "Survey hoarding sites",
		Requirements: []string{"Two-wheeler licence", "Marathi"},
	}
	require.NoError(t, s.Jobs.Create(ctx, job))
	require.NoError(t, s.Jobs.Create(ctx, &domain.Job{Title: "Designer", Location: "Pune", Description: "Layouts"}))

	jobs, err := s.Jobs.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Designer", jobs[0].Title)
	assert.Equal(t, []string{"Two-wheeler licence", "Marathi"}, []string(jobs[1].Requirements))
}

func TestReplaceUnknownContent(t *testing.T) {
	s := storetest.New(t, nil)

	reel := &domain.Reel{ID: "missing", Title: "x", VideoURL: "https://example.com/v.mp4"}
	assert.ErrorIs(t, s.Reels.Replace(context.Background(), reel), store.ErrNotFound)
}
