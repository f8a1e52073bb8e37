package services

import (
	"context"
	"testing"

	"adspace/internal/config"
	"adspace/internal/domain"
	"adspace/internal/mail"
	"adspace/internal/templates"
	apperrors "adspace/pkg/errors"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSubmitStoresUnreadInquiry(t *testing.T) {
	svc, notifier, _ := newContactService(t)
	ctx := context.Background()

	inq, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, inq.ID)
	assert.Equal(t, domain.StatusUnread, inq.Status)
	assert.False(t, inq.IsForwarded)
	assert.Empty(t, inq.Notes)
	assert.Equal(t, "asha@example.com", inq.Email)
	assert.Equal(t, []string{inq.ID}, notifier.queued())

	stored, err := svc.Get(ctx, inq.ID)
	require.NoError(t, err)
	assert.Equal(t, "Need 10 billboards for March", stored.Message)
}

func TestSubmitRejectsMissingFields(t *testing.T) {
	cases := map[string]func(r *InquiryRequest){
		"missing city":     func(r *InquiryRequest) { r.City = "" },
		"blank first name": func(r *InquiryRequest) { r.FirstName = "   " },
		"missing message":  func(r *InquiryRequest) { r.Message = "" },
		"malformed email":  func(r *InquiryRequest) { r.Email = "not-an-email" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			svc, notifier, _ := newContactService(t)
			ctx := context.Background()

			req := validRequest()
			mutate(req)
			_, err := svc.Submit(ctx, req)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))

			items, err := svc.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, items)
			assert.Empty(t, notifier.queued())
		})
	}
}

func TestSubmitNamesMissingField(t *testing.T) {
	svc, _, _ := newContactService(t)

	req := validRequest()
	req.City = ""
	_, err := svc.Submit(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, apperrors.MessageOf(err), "city is required")
}

func TestSubmitSucceedsWhenQueueIsFull(t *testing.T) {
	svc, notifier, _ := newContactService(t)
	notifier.full = true

	inq, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, inq.ID)
}

func TestListNewestFirst(t *testing.T) {
	svc, _, _ := newContactService(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"A", "B", "C"} {
		req := validRequest()
		req.FirstName = name
		inq, err := svc.Submit(ctx, req)
		require.NoError(t, err)
		ids = append(ids, inq.ID)
	}

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, ids[2], items[0].ID)
	assert.Equal(t, ids[0], items[2].ID)
	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].CreatedAt.After(items[i-1].CreatedAt))
	}
}

func TestViewMarksReadOnce(t *testing.T) {
	svc, _, _ := newContactService(t)
	ctx := context.Background()

	inq, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)

	viewed, err := svc.View(ctx, inq.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, viewed.Status)

	again, err := svc.View(ctx, inq.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, again.Status)
	assert.Equal(t, viewed.UpdatedAt, again.UpdatedAt)
}

func TestUnknownInquiry(t *testing.T) {
	svc, _, _ := newContactService(t)
	ctx := context.Background()
	const id = "00000000-0000-0000-0000-000000000000"

	_, err := svc.Get(ctx, id)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = svc.View(ctx, id)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = svc.UpdateStatus(ctx, id, "read")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = svc.AddNote(ctx, id, "call back")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = svc.Forward(ctx, id, "ops@example.com")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateStatus(t *testing.T) {
	svc, _, _ := newContactService(t)
	ctx := context.Background()

	inq, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, inq.ID, "archived")
	assert.True(t, apperrors.IsValidation(err))

	read, err := svc.UpdateStatus(ctx, inq.ID, "read")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, read.Status)

	again, err := svc.UpdateStatus(ctx, inq.ID, "read")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, again.Status)

	unread, err := svc.UpdateStatus(ctx, inq.ID, "UNREAD")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnread, unread.Status)
}

func TestAddNote(t *testing.T) {
	svc, _, _ := newContactService(t)
	ctx := context.Background()

	inq, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.AddNote(ctx, inq.ID, "   ")
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.AddNote(ctx, inq.ID, "  first  ")
	require.NoError(t, err)
	updated, err := svc.AddNote(ctx, inq.ID, "second")
	require.NoError(t, err)

	require.Len(t, updated.Notes, 2)
	assert.Equal(t, "first", updated.Notes[0].Content)
	assert.Equal(t, "second", updated.Notes[1].Content)
	assert.False(t, updated.Notes[0].CreatedAt.Before(inq.CreatedAt))
	assert.False(t, updated.Notes[1].CreatedAt.Before(updated.Notes[0].CreatedAt))
}

func TestForwardRejectsBadEmail(t *testing.T) {
	svc, _, mailer := newContactService(t)
	ctx := context.Background()

	inq, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)

	for _, to := range []string{"", "nobody", "a@"} {
		_, err = svc.Forward(ctx, inq.ID, to)
		assert.True(t, apperrors.IsValidation(err), to)
	}
	assert.Empty(t, mailer.sent)

	stored, err := svc.Get(ctx, inq.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsForwarded)
}

func TestForwardFailureLeavesFlag(t *testing.T) {
	svc, _, mailer := newContactService(t)
	ctx := context.Background()
	mailer.err = errors.New("smtp: 451 try later")

	inq, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.Forward(ctx, inq.ID, "sales@example.com")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDispatch, apperrors.CodeOf(err))

	stored, err := svc.Get(ctx, inq.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsForwarded)
}

func TestForwardWithEmailDisabledLeavesFlag(t *testing.T) {
	tmpl, err := templates.New("Adspace")
	require.NoError(t, err)
	mailer := mail.NewEmailService(&config.EmailConfig{Enabled: false}, zap.NewNop())
	svc := NewContactService(newTestStore(t).Inquiries, &fakeNotifier{}, mailer, tmpl, zap.NewNop())
	ctx := context.Background()

	inq, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.Forward(ctx, inq.ID, "sales@example.com")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDispatch, apperrors.CodeOf(err))

	stored, err := svc.Get(ctx, inq.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsForwarded)
}

func TestForwardUnknownInquiryWithEmailDisabled(t *testing.T) {
	svc, _, mailer := newContactService(t)
	mailer.disabled = true

	_, err := svc.Forward(context.Background(), "missing", "sales@example.com")
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, mailer.sent)
}

func TestForwardSendsNotesAndFlags(t *testing.T) {
	svc, _, mailer := newContactService(t)
	ctx := context.Background()

	inq, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)
	_, err = svc.AddNote(ctx, inq.ID, "budget confirmed")
	require.NoError(t, err)

	fwd, err := svc.Forward(ctx, inq.ID, " sales@example.com ")
	require.NoError(t, err)
	assert.True(t, fwd.IsForwarded)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "sales@example.com", mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].text, "budget confirmed")
	assert.Contains(t, mailer.sent[0].text, "Need 10 billboards for March")

	// Forwarding again is allowed and the flag stays set.
	again, err := svc.Forward(ctx, inq.ID, "sales@example.com")
	require.NoError(t, err)
	assert.True(t, again.IsForwarded)
	assert.Len(t, mailer.sent, 2)
}

// A visitor submits, an admin opens, annotates and forwards the inquiry.
func TestInquiryLifecycle(t *testing.T) {
	svc, notifier, mailer := newContactService(t)
	ctx := context.Background()

	inq, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)
	assert.Len(t, notifier.queued(), 1)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.StatusUnread, items[0].Status)

	inq, err = svc.View(ctx, inq.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, inq.Status)

	inq, err = svc.AddNote(ctx, inq.ID, "Called back, sending quote")
	require.NoError(t, err)
	assert.Len(t, inq.Notes, 1)

	inq, err = svc.Forward(ctx, inq.ID, "sales@adspace.local")
	require.NoError(t, err)
	assert.True(t, inq.IsForwarded)
	assert.Equal(t, domain.StatusRead, inq.Status)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].html, "Called back, sending quote")
}
