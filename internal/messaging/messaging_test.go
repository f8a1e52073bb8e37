package messaging

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"adspace/internal/config"
	apperrors "adspace/pkg/errors"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"9876543210", "919876543210", true},
		{"919876543210", "919876543210", true},
		{"+91 98765-43210", "919876543210", true},
		{"(987) 654 3210", "919876543210", true},
		{"12345678", "", false},
		{"449876543210", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, err := NormalizePhone(c.in, "91")
		if !c.ok {
			assert.ErrorIs(t, err, ErrInvalidPhone, c.in)
			continue
		}
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestNormalizePhoneSameIdentity(t *testing.T) {
	a, err := NormalizePhone("9876543210", "91")
	require.NoError(t, err)
	b, err := NormalizePhone("919876543210", "91")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

type flakySender struct {
	readyAfter int32
	polls      atomic.Int32
}

func (f *flakySender) Name() string { return "flaky" }

func (f *flakySender) Ready(context.Context) (bool, error) {
	return f.polls.Add(1) > f.readyAfter, nil
}

func (f *flakySender) Send(context.Context, string, string) error { return nil }

func TestWaitReadyPollsUntilReady(t *testing.T) {
	s := &flakySender{readyAfter: 3}

	err := WaitReady(context.Background(), s, time.Second, 5*time.Millisecond)
	require.NoError(t, err)
	assert.EqualValues(t, 4, s.polls.Load())
}

func TestWaitReadyTimesOut(t *testing.T) {
	s := &flakySender{readyAfter: 1 << 30}

	start := time.Now()
	err := WaitReady(context.Background(), s, 50*time.Millisecond, 10*time.Millisecond)
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrChannelNotReady))
	assert.Equal(t, apperrors.ErrCodeChannelNotReady, apperrors.CodeOf(err))
	assert.LessOrEqual(t, s.polls.Load(), int32(6))
	assert.GreaterOrEqual(t, s.polls.Load(), int32(2))
	assert.Less(t, time.Since(start), time.Second)
}

// slowSender takes delay to answer every readiness check.
type slowSender struct {
	delay time.Duration
	polls atomic.Int32
}

func (s *slowSender) Name() string { return "slow" }

func (s *slowSender) Ready(ctx context.Context) (bool, error) {
	s.polls.Add(1)
	select {
	case <-time.After(s.delay):
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (s *slowSender) Send(context.Context, string, string) error { return nil }

func TestWaitReadyCountsTimeSpentInReady(t *testing.T) {
	s := &slowSender{delay: 100 * time.Millisecond}

	start := time.Now()
	err := WaitReady(context.Background(), s, 200*time.Millisecond, 20*time.Millisecond)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrChannelNotReady))
	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.LessOrEqual(t, s.polls.Load(), int32(3))
}

func TestWaitReadyHonoursCancellation(t *testing.T) {
	s := &flakySender{readyAfter: 1 << 30}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitReady(ctx, s, time.Minute, time.Second)
	assert.True(t, errors.Is(err, ErrChannelNotReady))
}

func TestNewSelectsProvider(t *testing.T) {
	log := zap.NewNop()

	s, err := New(&config.MessagingConfig{Provider: "console"}, log)
	require.NoError(t, err)
	assert.Equal(t, "console", s.Name())

	s, err = New(&config.MessagingConfig{Provider: "Twilio"}, log)
	require.NoError(t, err)
	assert.Equal(t, "twilio", s.Name())

	s, err = New(&config.MessagingConfig{Provider: "gateway"}, log)
	require.NoError(t, err)
	assert.Equal(t, "gateway", s.Name())

	_, err = New(&config.MessagingConfig{Provider: "pigeon"}, log)
	assert.Error(t, err)
}

func TestStatusOfSessionlessChannel(t *testing.T) {
	st := StatusOf(context.Background(), NewConsole(zap.NewNop()))
	assert.Equal(t, Status{Provider: "console", Ready: true}, st)

	st = StatusOf(context.Background(), NewTwilio(&config.MessagingConfig{}, zap.NewNop()))
	assert.False(t, st.Ready)
	assert.NotEmpty(t, st.Detail)
}
