package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"adspace/internal/domain"
	"adspace/internal/store"
	"adspace/internal/store/storetest"
	"adspace/internal/templates"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	mu   sync.Mutex
	ids  []string
	full bool
}

func (f *fakeNotifier) Enqueue(inq *domain.Inquiry) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return false
	}
	f.ids = append(f.ids, inq.ID)
	return true
}

func (f *fakeNotifier) queued() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

type sentMail struct {
	to, subject, html, text string
}

type fakeMail struct {
	mu       sync.Mutex
	sent     []sentMail
	err      error
	disabled bool
}

func (f *fakeMail) SendHTMLEmail(_ context.Context, to, subject, html, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, html: html, text: text})
	return nil
}

func (f *fakeMail) IsEnabled() bool { return !f.disabled }

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return storetest.New(t, storetest.NewClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), time.Second))
}

func newContactService(t *testing.T) (*ContactService, *fakeNotifier, *fakeMail) {
	t.Helper()
	tmpl, err := templates.New("Adspace")
	require.NoError(t, err)
	n := &fakeNotifier{}
	m := &fakeMail{}
	return NewContactService(newTestStore(t).Inquiries, n, m, tmpl, zap.NewNop()), n, m
}

func validRequest() *InquiryRequest {
	return &InquiryRequest{
		AdvertisingState:  "Karnataka",
		AdvertisingMarket: "Bengaluru",
		Topic:             "Campaign",
		Media:             "Billboards",
		FirstName:         "Asha",
		LastName:          "Rao",
		Phone:             "9876543210",
		Email:             "Asha@Example.com",
		City:              "Bengaluru",
		Message:           "Need 10 billboards for March",
	}
}
