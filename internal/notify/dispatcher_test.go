package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"adspace/internal/domain"
	"adspace/internal/messaging"
	"adspace/internal/templates"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMail struct {
	mu       sync.Mutex
	to       []string
	err      error
	panic    bool
	disabled bool
}

func (f *fakeMail) SendHTMLEmail(_ context.Context, to, subject, html, text string) error {
	if f.panic {
		panic("smtp exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.to = append(f.to, to)
	return f.err
}

func (f *fakeMail) IsEnabled() bool { return !f.disabled }

type fakeSender struct {
	ready atomic.Bool
	mu    sync.Mutex
	sent  map[string]string
}

func newFakeSender(ready bool) *fakeSender {
	s := &fakeSender{sent: map[string]string{}}
	s.ready.Store(ready)
	return s
}

func (f *fakeSender) Name() string { return "fake" }

func (f *fakeSender) Ready(context.Context) (bool, error) { return f.ready.Load(), nil }

func (f *fakeSender) Send(_ context.Context, identity, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[identity] = text
	return nil
}

func (f *fakeSender) sentTo(identity string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	text, ok := f.sent[identity]
	return text, ok
}

func testConfig() Config {
	return Config{
		AdminEmail:        "ops@adspace.local",
		AdminPhone:        "9000000000",
		CountryCode:       "91",
		ReadyTimeout:      40 * time.Millisecond,
		ReadyPollInterval: 10 * time.Millisecond,
		SendTimeout:       time.Second,
		QueueSize:         4,
		Workers:           2,
	}
}

func newDispatcher(t *testing.T, cfg Config, m *fakeMail, s messaging.Sender, opts ...Option) *Dispatcher {
	t.Helper()
	tmpl, err := templates.New("Adspace")
	require.NoError(t, err)
	return New(cfg, m, s, tmpl, zap.NewNop(), opts...)
}

func testInquiry(phone string) *domain.Inquiry {
	inq := &domain.Inquiry{
		AdvertisingState:  "Y",
		AdvertisingMarket: "Z",
		Topic:             "Sales",
		Media:             "Billboards",
		FirstName:         "A",
		LastName:          "B",
		Phone:             phone,
		Email:             "a@b.com",
		City:              "X",
		Message:           "Hi",
	}
	inq.Init(time.Now().UTC())
	return inq
}

func TestDispatchAllChannels(t *testing.T) {
	m := &fakeMail{}
	s := newFakeSender(true)
	d := newDispatcher(t, testConfig(), m, s)

	report := d.Dispatch(context.Background(), testInquiry("9876543210"))

	for _, ch := range []string{ChannelEmail, ChannelWhatsAppAdmin, ChannelWhatsAppSubmitter} {
		res, ok := report.Result(ch)
		require.True(t, ok, ch)
		assert.Equal(t, Sent, res.Outcome, ch)
	}
	assert.Equal(t, []string{"ops@adspace.local"}, m.to)

	ack, ok := s.sentTo("919876543210")
	require.True(t, ok)
	assert.Contains(t, ack, "Hi A")
	_, ok = s.sentTo("919000000000")
	assert.True(t, ok)
}

func TestDispatchChannelNeverReady(t *testing.T) {
	m := &fakeMail{}
	d := newDispatcher(t, testConfig(), m, newFakeSender(false))

	start := time.Now()
	report := d.Dispatch(context.Background(), testInquiry("9876543210"))
	assert.Less(t, time.Since(start), time.Second)

	res, _ := report.Result(ChannelEmail)
	assert.Equal(t, Sent, res.Outcome)

	for _, ch := range []string{ChannelWhatsAppAdmin, ChannelWhatsAppSubmitter} {
		res, _ := report.Result(ch)
		assert.Equal(t, Failed, res.Outcome, ch)
		assert.True(t, errors.Is(res.Err, messaging.ErrChannelNotReady), ch)
	}
}

func TestDispatchSkipsInvalidSubmitterPhone(t *testing.T) {
	s := newFakeSender(true)
	d := newDispatcher(t, testConfig(), &fakeMail{}, s)

	report := d.Dispatch(context.Background(), testInquiry("12345678"))

	res, _ := report.Result(ChannelWhatsAppSubmitter)
	assert.Equal(t, Skipped, res.Outcome)
	assert.True(t, errors.Is(res.Err, messaging.ErrInvalidPhone))

	res, _ = report.Result(ChannelWhatsAppAdmin)
	assert.Equal(t, Sent, res.Outcome)
}

func TestDispatchIsolatesEmailFailure(t *testing.T) {
	cases := map[string]*fakeMail{
		"error": {err: errors.New("smtp down")},
		"panic": {panic: true},
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			s := newFakeSender(true)
			d := newDispatcher(t, testConfig(), m, s)

			report := d.Dispatch(context.Background(), testInquiry("9876543210"))

			res, _ := report.Result(ChannelEmail)
			assert.Equal(t, Failed, res.Outcome)
			assert.Error(t, res.Err)

			res, _ = report.Result(ChannelWhatsAppSubmitter)
			assert.Equal(t, Sent, res.Outcome)
		})
	}
}

func TestDispatchSkipsUnconfiguredAdminChannels(t *testing.T) {
	cfg := testConfig()
	cfg.AdminEmail = ""
	cfg.AdminPhone = ""
	m := &fakeMail{}
	d := newDispatcher(t, cfg, m, newFakeSender(true))

	report := d.Dispatch(context.Background(), testInquiry("9876543210"))

	res, _ := report.Result(ChannelEmail)
	assert.Equal(t, Skipped, res.Outcome)
	res, _ = report.Result(ChannelWhatsAppAdmin)
	assert.Equal(t, Skipped, res.Outcome)
	assert.Empty(t, m.to)
}

func TestDispatchSkipsDisabledEmail(t *testing.T) {
	m := &fakeMail{disabled: true}
	d := newDispatcher(t, testConfig(), m, newFakeSender(true))

	report := d.Dispatch(context.Background(), testInquiry("9876543210"))

	res, _ := report.Result(ChannelEmail)
	assert.Equal(t, Skipped, res.Outcome)
	assert.Error(t, res.Err)
	assert.Empty(t, m.to)

	res, _ = report.Result(ChannelWhatsAppAdmin)
	assert.Equal(t, Sent, res.Outcome)
}

func TestEnqueueAndDrainOnClose(t *testing.T) {
	var (
		mu      sync.Mutex
		reports []Report
	)
	d := newDispatcher(t, testConfig(), &fakeMail{}, newFakeSender(true), WithReportHook(func(r Report) {
		mu.Lock()
		defer mu.Unlock()
		reports = append(reports, r)
	}))
	d.Start()

	for i := 0; i < 3; i++ {
		assert.True(t, d.Enqueue(testInquiry("9876543210")))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, reports, 3)

	assert.False(t, d.Enqueue(testInquiry("9876543210")))
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	cfg := testConfig()
	cfg.QueueSize = 1
	d := newDispatcher(t, cfg, &fakeMail{}, newFakeSender(true))

	assert.True(t, d.Enqueue(testInquiry("9876543210")))
	assert.False(t, d.Enqueue(testInquiry("9876543210")))

	require.NoError(t, d.Close(context.Background()))
}

func TestCloseInterruptsReadinessWait(t *testing.T) {
	cfg := testConfig()
	cfg.ReadyTimeout = time.Minute
	cfg.ReadyPollInterval = 10 * time.Millisecond
	d := newDispatcher(t, cfg, &fakeMail{}, newFakeSender(false))
	d.Start()
	require.True(t, d.Enqueue(testInquiry("9876543210")))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := d.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}
