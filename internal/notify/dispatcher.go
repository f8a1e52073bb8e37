// Package notify fans a new inquiry out to the admin and the submitter.
//
// Delivery is best effort. Each channel attempt has its own deadline and
// error boundary, results are logged and counted, and nothing is reported
// back to the submitter.
package notify

import (
	"context"
	"sync"
	"time"

	"adspace/internal/config"
	"adspace/internal/domain"
	"adspace/internal/mail"
	"adspace/internal/messaging"
	"adspace/internal/metrics"
	"adspace/internal/templates"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Channel names used in logs and metrics.
const (
	ChannelEmail             = "email"
	ChannelWhatsAppAdmin     = "whatsapp_admin"
	ChannelWhatsAppSubmitter = "whatsapp_submitter"
)

// Outcome of a single channel attempt.
type Outcome string

const (
	Sent    Outcome = "sent"
	Failed  Outcome = "failed"
	Skipped Outcome = "skipped"
)

// Result is the outcome of one channel attempt. Err carries the failure or
// the reason for skipping.
type Result struct {
	Channel string
	Outcome Outcome
	Err     error
}

// Report collects the results of one inquiry's fan-out.
type Report struct {
	InquiryID string
	Results   []Result
}

// Result returns the result for channel.
func (r Report) Result(channel string) (Result, bool) {
	for _, res := range r.Results {
		if res.Channel == channel {
			return res, true
		}
	}
	return Result{}, false
}

// Config holds the dispatcher settings.
type Config struct {
	AdminEmail        string
	AdminPhone        string
	CountryCode       string
	ReadyTimeout      time.Duration
	ReadyPollInterval time.Duration
	SendTimeout       time.Duration
	QueueSize         int
	Workers           int
}

// ConfigFrom assembles Config from the application configuration.
func ConfigFrom(n *config.NotifyConfig, m *config.MessagingConfig) Config {
	return Config{
		AdminEmail:        n.AdminEmail,
		AdminPhone:        n.AdminPhone,
		CountryCode:       n.CountryCode,
		ReadyTimeout:      n.ReadyTimeout,
		ReadyPollInterval: n.ReadyPollInterval,
		SendTimeout:       m.SendTimeout,
		QueueSize:         n.QueueSize,
		Workers:           n.Workers,
	}
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithReportHook is called with every finished fan-out.
func WithReportHook(fn func(Report)) Option {
	return func(d *Dispatcher) { d.onReport = fn }
}

// Dispatcher runs the new-inquiry fan-out on a fixed pool of workers fed by
// a bounded queue.
type Dispatcher struct {
	cfg      Config
	mail     mail.Sender
	sender   messaging.Sender
	tmpl     *templates.Service
	log      *zap.Logger
	onReport func(Report)

	queue  chan domain.Inquiry
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	started bool
	closed  bool
}

// New creates a dispatcher. Call Start to launch the workers.
func New(cfg Config, mailer mail.Sender, sender messaging.Sender, tmpl *templates.Service, log *zap.Logger, opts ...Option) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		cfg:    cfg,
		mail:   mailer,
		sender: sender,
		tmpl:   tmpl,
		log:    log.Named("notify"),
		queue:  make(chan domain.Inquiry, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the workers. It is a no-op when already started.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	d.log.Info("dispatcher started", zap.Int("workers", d.cfg.Workers), zap.Int("queue_size", d.cfg.QueueSize))
}

// Enqueue schedules the fan-out for inq without blocking. It reports false
// when the inquiry was dropped because the queue is full or closed.
func (d *Dispatcher) Enqueue(inq *domain.Inquiry) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("dispatcher closed, notification dropped", zap.String("inquiry_id", inq.ID))
		metrics.RecordNotificationDropped()
		return false
	}
	select {
	case d.queue <- *inq:
		metrics.SetNotificationQueueDepth(len(d.queue))
		return true
	default:
		d.log.Warn("notification queue full, notification dropped", zap.String("inquiry_id", inq.ID))
		metrics.RecordNotificationDropped()
		return false
	}
}

// Close stops accepting work and waits for queued inquiries to be
// dispatched. When ctx expires first, in-flight attempts are cancelled.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		d.cancel()
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		d.log.Info("dispatcher drained")
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		d.log.Warn("dispatcher drain interrupted", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

func (d *Dispatcher) worker(n int) {
	defer d.wg.Done()
	for inq := range d.queue {
		metrics.SetNotificationQueueDepth(len(d.queue))
		d.Dispatch(d.ctx, &inq)
	}
	d.log.Debug("worker stopped", zap.Int("worker", n))
}

// Dispatch runs the three channel attempts for inq concurrently and waits
// for all of them.
func (d *Dispatcher) Dispatch(ctx context.Context, inq *domain.Inquiry) Report {
	ready := sync.OnceValue(func() error {
		return messaging.WaitReady(ctx, d.sender, d.cfg.ReadyTimeout, d.cfg.ReadyPollInterval)
	})

	attempts := []struct {
		channel string
		run     func(context.Context, *domain.Inquiry, func() error) (Outcome, error)
	}{
		{ChannelEmail, d.emailAdmin},
		{ChannelWhatsAppAdmin, d.whatsAppAdmin},
		{ChannelWhatsAppSubmitter, d.whatsAppSubmitter},
	}

	report := Report{InquiryID: inq.ID, Results: make([]Result, len(attempts))}
	var wg sync.WaitGroup
	for i, a := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.Results[i] = d.attempt(ctx, a.channel, inq, ready, a.run)
		}()
	}
	wg.Wait()

	if d.onReport != nil {
		d.onReport(report)
	}
	return report
}

func (d *Dispatcher) attempt(
	ctx context.Context,
	channel string,
	inq *domain.Inquiry,
	ready func() error,
	run func(context.Context, *domain.Inquiry, func() error) (Outcome, error),
) (res Result) {
	res.Channel = channel
	defer func() {
		if r := recover(); r != nil {
			res.Outcome = Failed
			res.Err = errors.Newf("panic: %v", r)
		}
		d.record(inq.ID, res)
	}()
	res.Outcome, res.Err = run(ctx, inq, ready)
	return res
}

func (d *Dispatcher) record(inquiryID string, res Result) {
	fields := []zap.Field{zap.String("inquiry_id", inquiryID), zap.String("channel", res.Channel)}
	switch res.Outcome {
	case Sent:
		d.log.Info("notification sent", fields...)
	case Skipped:
		d.log.Warn("notification skipped", append(fields, zap.Error(res.Err))...)
	default:
		d.log.Error("notification failed", append(fields, zap.Error(res.Err))...)
	}
	metrics.RecordNotification(res.Channel, string(res.Outcome))
}
