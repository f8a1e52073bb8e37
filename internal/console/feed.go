package console

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"adspace/internal/domain"

	"github.com/cockroachdb/errors"
)

// HistoryLimit caps the opened-notification history.
const HistoryLimit = 15

// Kind is the type of record a notification points at.
type Kind string

const (
	KindInquiry Kind = "inquiry"
	KindJob     Kind = "job"
	KindBlog    Kind = "blog"
)

// Notification announces a record created after the watermark.
type Notification struct {
	Kind      Kind      `json:"kind"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

func (n Notification) key() string { return string(n.Kind) + ":" + n.ID }

// FeedState is what survives between console sessions.
type FeedState struct {
	Watermark time.Time      `json:"watermark"`
	History   []Notification `json:"history"`
}

// WatermarkStore persists the feed state. Load reports false when nothing
// was saved yet.
type WatermarkStore interface {
	LoadFeed(ctx context.Context) (FeedState, bool, error)
	SaveFeed(ctx context.Context, st FeedState) error
}

// Feed derives notifications for records newer than the watermark. Loading
// the same records again yields the same notifications until Open moves
// them to the history and advances the watermark.
type Feed struct {
	mu     sync.Mutex
	store  WatermarkStore
	state  FeedState
	active map[Kind][]Notification
}

// NewFeed loads the saved state. On first use the watermark is the start of
// the day containing now.
func NewFeed(ctx context.Context, store WatermarkStore, now time.Time) (*Feed, error) {
	st, ok, err := store.LoadFeed(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load notification state")
	}
	if !ok {
		y, m, d := now.Date()
		st = FeedState{Watermark: time.Date(y, m, d, 0, 0, 0, 0, now.Location())}
		if err := store.SaveFeed(ctx, st); err != nil {
			return nil, errors.Wrap(err, "failed to save notification state")
		}
	}
	return &Feed{store: store, state: st, active: map[Kind][]Notification{}}, nil
}

// Load replaces the active notifications of kind with the items created
// after the watermark.
func (f *Feed) Load(kind Kind, items []Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seen := map[string]bool{}
	var fresh []Notification
	for _, n := range items {
		n.Kind = kind
		if !n.CreatedAt.After(f.state.Watermark) || seen[n.key()] {
			continue
		}
		seen[n.key()] = true
		fresh = append(fresh, n)
	}
	f.active[kind] = fresh
}

// LoadInquiries is Load for inquiries.
func (f *Feed) LoadInquiries(items []domain.Inquiry) {
	ns := make([]Notification, len(items))
	for i, inq := range items {
		ns[i] = Notification{ID: inq.ID, Title: inq.FullName() + ": " + inq.Topic, CreatedAt: inq.CreatedAt}
	}
	f.Load(KindInquiry, ns)
}

// LoadJobs is Load for jobs.
func (f *Feed) LoadJobs(items []domain.Job) {
	ns := make([]Notification, len(items))
	for i, j := range items {
		ns[i] = Notification{ID: j.ID, Title: j.Title, CreatedAt: j.CreatedAt}
	}
	f.Load(KindJob, ns)
}

// LoadBlogs is Load for blogs.
func (f *Feed) LoadBlogs(items []domain.Blog) {
	ns := make([]Notification, len(items))
	for i, b := range items {
		ns[i] = Notification{ID: b.ID, Title: b.Title, CreatedAt: b.CreatedAt}
	}
	f.Load(KindBlog, ns)
}

// Active returns the unopened notifications, newest first.
func (f *Feed) Active() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activeLocked()
}

func (f *Feed) activeLocked() []Notification {
	var out []Notification
	for _, ns := range f.active {
		out = append(out, ns...)
	}
	slices.SortStableFunc(out, newestNotification)
	return out
}

// Badge is the number of unopened notifications.
func (f *Feed) Badge() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, ns := range f.active {
		n += len(ns)
	}
	return n
}

// History returns the opened notifications, newest first.
func (f *Feed) History() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.state.History)
}

// Watermark returns the time after which records count as new.
func (f *Feed) Watermark() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Watermark
}

// Open moves the active notifications into the history, clears the badge
// and advances the watermark to now. It returns the notifications opened.
func (f *Feed) Open(ctx context.Context, now time.Time) ([]Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	opened := f.activeLocked()
	history := append(slices.Clone(opened), f.state.History...)
	seen := map[string]bool{}
	history = slices.DeleteFunc(history, func(n Notification) bool {
		if seen[n.key()] {
			return true
		}
		seen[n.key()] = true
		return false
	})
	if len(history) > HistoryLimit {
		history = history[:HistoryLimit]
	}

	next := FeedState{Watermark: now, History: history}
	if err := f.store.SaveFeed(ctx, next); err != nil {
		return nil, errors.Wrap(err, "failed to save notification state")
	}
	f.state = next
	f.active = map[Kind][]Notification{}
	return opened, nil
}

func newestNotification(a, b Notification) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.key(), b.key())
}
