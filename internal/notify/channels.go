package notify

import (
	"context"

	"adspace/internal/domain"
	"adspace/internal/messaging"
	"adspace/internal/templates"

	"github.com/cockroachdb/errors"
)

var (
	errNoAdminEmail = errors.New("admin email not configured")
	errNoAdminPhone = errors.New("admin phone not configured")
	errMailDisabled = errors.New("email channel disabled")
)

func (d *Dispatcher) emailAdmin(ctx context.Context, inq *domain.Inquiry, _ func() error) (Outcome, error) {
	if d.cfg.AdminEmail == "" {
		return Skipped, errNoAdminEmail
	}
	if !d.mail.IsEnabled() {
		return Skipped, errMailDisabled
	}
	subject, html, text, err := d.tmpl.Email(templates.InquiryAdmin, inq)
	if err != nil {
		return Failed, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()
	if err := d.mail.SendHTMLEmail(ctx, d.cfg.AdminEmail, subject, html, text); err != nil {
		return Failed, err
	}
	return Sent, nil
}

func (d *Dispatcher) whatsAppAdmin(ctx context.Context, inq *domain.Inquiry, ready func() error) (Outcome, error) {
	if d.cfg.AdminPhone == "" {
		return Skipped, errNoAdminPhone
	}
	identity, err := messaging.NormalizePhone(d.cfg.AdminPhone, d.cfg.CountryCode)
	if err != nil {
		return Skipped, errors.Wrap(err, "admin phone")
	}
	text, err := d.tmpl.WhatsApp(templates.InquiryAdmin, inq)
	if err != nil {
		return Failed, err
	}
	return d.sendWhatsApp(ctx, identity, text, ready)
}

func (d *Dispatcher) whatsAppSubmitter(ctx context.Context, inq *domain.Inquiry, ready func() error) (Outcome, error) {
	identity, err := messaging.NormalizePhone(inq.Phone, d.cfg.CountryCode)
	if err != nil {
		return Skipped, errors.Wrap(err, "submitter phone")
	}
	text, err := d.tmpl.WhatsApp(templates.InquiryAck, inq)
	if err != nil {
		return Failed, err
	}
	return d.sendWhatsApp(ctx, identity, text, ready)
}

func (d *Dispatcher) sendWhatsApp(ctx context.Context, identity, text string, ready func() error) (Outcome, error) {
	if err := ready(); err != nil {
		return Failed, err
	}
	ctx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()
	if err := d.sender.Send(ctx, identity, text); err != nil {
		return Failed, err
	}
	return Sent, nil
}
