package services

import (
	"context"
	"strings"
	"time"

	"adspace/internal/domain"
	"adspace/internal/mail"
	"adspace/internal/metrics"
	"adspace/internal/store"
	"adspace/internal/templates"
	apperrors "adspace/pkg/errors"

	"go.uber.org/zap"
)

const forwardTimeout = 30 * time.Second

// Notifier accepts new inquiries for background notification.
type Notifier interface {
	Enqueue(inq *domain.Inquiry) bool
}

// InquiryRequest is the public contact form.
type InquiryRequest struct {
	AdvertisingState  string `json:"advertisingState" validate:"required,max=120"`
	AdvertisingMarket string `json:"advertisingMarket" validate:"required,max=120"`
	Topic             string `json:"topic" validate:"required,max=200"`
	Media             string `json:"media" validate:"required,max=120"`
	FirstName         string `json:"firstName" validate:"required,max=100"`
	LastName          string `json:"lastName" validate:"required,max=100"`
	Phone             string `json:"phone" validate:"required,max=32"`
	Email             string `json:"email" validate:"required,email,max=254"`
	City              string `json:"city" validate:"required,max=120"`
	Message           string `json:"message" validate:"required,max=5000"`
}

// ContactService manages contact inquiries
type ContactService struct {
	store    store.InquiryStore
	notifier Notifier
	mail     mail.Sender
	tmpl     *templates.Service
	log      *zap.Logger
}

// NewContactService creates a new contact service
func NewContactService(st store.InquiryStore, notifier Notifier, mailer mail.Sender, tmpl *templates.Service, log *zap.Logger) *ContactService {
	return &ContactService{
		store:    st,
		notifier: notifier,
		mail:     mailer,
		tmpl:     tmpl,
		log:      log.Named("contact"),
	}
}

// Submit stores a new inquiry and hands it to the notifier without waiting
// for delivery.
func (s *ContactService) Submit(ctx context.Context, req *InquiryRequest) (*domain.Inquiry, error) {
	trimAll(req)
	if err := validateStruct(req); err != nil {
		s.log.Info("submit failed: validation error", zap.Error(err))
		return nil, err
	}

	inq := &domain.Inquiry{
		AdvertisingState:  req.AdvertisingState,
		AdvertisingMarket: req.AdvertisingMarket,
		Topic:             req.Topic,
		Media:             req.Media,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Phone:             req.Phone,
		Email:             strings.ToLower(req.Email),
		City:              req.City,
		Message:           req.Message,
	}
	if err := s.store.Create(ctx, inq); err != nil {
		s.log.Error("submit failed: database error", zap.Error(err))
		return nil, storeError(err, "inquiry", "save inquiry")
	}

	s.log.Info("submit successful", zap.String("id", inq.ID), zap.String("topic", inq.Topic))
	metrics.RecordInquirySubmission()

	if !s.notifier.Enqueue(inq) {
		s.log.Warn("notifications not queued", zap.String("id", inq.ID))
	}
	return inq, nil
}

// List returns every inquiry, newest first.
func (s *ContactService) List(ctx context.Context) ([]domain.Inquiry, error) {
	items, err := s.store.List(ctx)
	if err != nil {
		s.log.Error("list failed: database error", zap.Error(err))
		return nil, storeError(err, "inquiry", "fetch inquiries")
	}
	s.log.Debug("list successful", zap.Int("count", len(items)))
	return items, nil
}

// Get returns one inquiry without changing it.
func (s *ContactService) Get(ctx context.Context, id string) (*domain.Inquiry, error) {
	inq, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, "inquiry", "fetch inquiry")
	}
	return inq, nil
}

// View is the admin opening an inquiry. An unread inquiry becomes read; a
// read one is returned unchanged.
func (s *ContactService) View(ctx context.Context, id string) (*domain.Inquiry, error) {
	inq, changed, err := s.store.MarkViewed(ctx, id)
	if err != nil {
		return nil, storeError(err, "inquiry", "open inquiry")
	}
	if changed {
		s.log.Info("inquiry marked read", zap.String("id", id))
	}
	return inq, nil
}

// UpdateStatus sets the visibility status. Setting the current status again
// is allowed.
func (s *ContactService) UpdateStatus(ctx context.Context, id, status string) (*domain.Inquiry, error) {
	st, ok := domain.ParseInquiryStatus(status)
	if !ok {
		return nil, apperrors.Validation("status must be one of: unread read")
	}
	inq, err := s.store.SetStatus(ctx, id, st)
	if err != nil {
		return nil, storeError(err, "inquiry", "update inquiry status")
	}
	s.log.Info("status updated", zap.String("id", id), zap.String("status", string(st)))
	return inq, nil
}

// AddNote appends an admin note.
func (s *ContactService) AddNote(ctx context.Context, id, content string) (*domain.Inquiry, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.Validation("content is required")
	}
	inq, err := s.store.AppendNote(ctx, id, content)
	if err != nil {
		return nil, storeError(err, "inquiry", "add note")
	}
	s.log.Info("note added", zap.String("id", id), zap.Int("notes", len(inq.Notes)))
	return inq, nil
}

// Forward emails the full inquiry, notes included, to forwardingEmail. The
// inquiry is flagged as forwarded only once the email was accepted.
func (s *ContactService) Forward(ctx context.Context, id, forwardingEmail string) (*domain.Inquiry, error) {
	to := strings.TrimSpace(forwardingEmail)
	if err := validateVar("forwardingEmail", to, "required,email"); err != nil {
		return nil, err
	}

	inq, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, "inquiry", "fetch inquiry")
	}

	s.log.Info("forward request", zap.String("id", id))
	if !s.mail.IsEnabled() {
		s.log.Warn("forward failed: email disabled", zap.String("id", id))
		metrics.RecordInquiryForward(false)
		return nil, apperrors.Dispatch("email channel disabled", nil)
	}
	subject, html, text, err := s.tmpl.Email(templates.InquiryForward, inq)
	if err != nil {
		s.log.Error("forward failed: template error", zap.String("id", id), zap.Error(err))
		return nil, apperrors.Internal("failed to render forward email", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, forwardTimeout)
	defer cancel()
	if err := s.mail.SendHTMLEmail(sendCtx, to, subject, html, text); err != nil {
		s.log.Error("forward failed: email error", zap.String("id", id), zap.Error(err))
		metrics.RecordInquiryForward(false)
		return nil, apperrors.Dispatch("failed to forward inquiry", err)
	}

	inq, err = s.store.MarkForwarded(ctx, id)
	if err != nil {
		s.log.Error("forward sent but flag not saved", zap.String("id", id), zap.Error(err))
		return nil, storeError(err, "inquiry", "mark inquiry forwarded")
	}
	metrics.RecordInquiryForward(true)
	s.log.Info("forward successful", zap.String("id", id))
	return inq, nil
}
