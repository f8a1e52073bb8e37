// Package messaging sends WhatsApp text messages through a pluggable channel.
package messaging

import (
	"context"
	"net/http"
	"strings"
	"time"

	"adspace/internal/config"
	"adspace/internal/metrics"
	apperrors "adspace/pkg/errors"

	"github.com/avast/retry-go/v4"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Sender is a messaging channel. Identities are digit-only international
// phone numbers as returned by NormalizePhone.
type Sender interface {
	Name() string
	Ready(ctx context.Context) (bool, error)
	Send(ctx context.Context, identity, text string) error
}

// Status is the channel state shown in the admin console.
type Status struct {
	Provider string `json:"provider"`
	Ready    bool   `json:"ready"`
	QR       string `json:"qr,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// StatusReporter is implemented by channels with an out-of-band session.
type StatusReporter interface {
	Status(ctx context.Context) (Status, error)
}

var (
	// ErrChannelNotReady is returned when the channel did not become ready in time.
	ErrChannelNotReady = apperrors.New(apperrors.ErrCodeChannelNotReady, "messaging channel not ready")

	// ErrInvalidPhone is returned for numbers that cannot be normalised.
	ErrInvalidPhone = errors.New("invalid phone number")

	errNotReadyYet = errors.New("channel not ready yet")
)

// New builds the configured channel.
func New(cfg *config.MessagingConfig, log *zap.Logger, opts ...Option) (Sender, error) {
	log = log.Named("messaging")
	switch strings.ToLower(cfg.Provider) {
	case "gateway":
		return NewGateway(cfg, log, opts...), nil
	case "twilio":
		return NewTwilio(cfg, log, opts...), nil
	case "console", "dev", "development", "":
		return NewConsole(log), nil
	default:
		return nil, errors.Newf("unsupported messaging provider: %s", cfg.Provider)
	}
}

// NormalizePhone reduces raw to its digits. Ten digits are taken as a
// domestic number and prefixed with countryCode; countryCode followed by ten
// digits is kept as is. Anything else is rejected.
func NormalizePhone(raw, countryCode string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	switch {
	case len(digits) == 10:
		return countryCode + digits, nil
	case len(digits) == len(countryCode)+10 && strings.HasPrefix(digits, countryCode):
		return digits, nil
	}
	return "", errors.Wrapf(ErrInvalidPhone, "%d digits", len(digits))
}

// WaitReady polls s every interval until it reports ready or timeout has
// elapsed, then fails with ErrChannelNotReady. The timeout covers the time
// spent inside Ready as well as the pauses between polls.
func WaitReady(ctx context.Context, s Sender, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	attempts := uint(timeout/interval) + 1
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := retry.Do(
		func() error {
			ok, err := s.Ready(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return errNotReadyYet
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	metrics.RecordMessagingReadyWait(time.Since(start), err == nil)
	if err != nil {
		return errors.WithSecondaryError(
			errors.Wrapf(ErrChannelNotReady, "%s not ready after %s", s.Name(), time.Since(start).Round(time.Millisecond)),
			err,
		)
	}
	return nil
}

// StatusOf reports the state of s, including the pairing QR where available.
func StatusOf(ctx context.Context, s Sender) Status {
	if r, ok := s.(StatusReporter); ok {
		st, err := r.Status(ctx)
		if err != nil {
			return Status{Provider: s.Name(), Detail: err.Error()}
		}
		return st
	}
	ready, err := s.Ready(ctx)
	st := Status{Provider: s.Name(), Ready: ready}
	if err != nil {
		st.Detail = err.Error()
	}
	return st
}

// Option customises the HTTP based channels.
type Option func(*httpChannel)

// WithBaseURL points the channel at another API host.
func WithBaseURL(u string) Option {
	return func(c *httpChannel) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *httpChannel) { c.client = client }
}

type httpChannel struct {
	baseURL string
	client  *http.Client
}

func newHTTPChannel(baseURL string, timeout time.Duration, opts []Option) httpChannel {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := httpChannel{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
