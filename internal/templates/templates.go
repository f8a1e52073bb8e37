// Package templates renders the outbound email and WhatsApp messages.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	htmltmpl "html/template"
	"strings"
	texttmpl "text/template"
	"time"

	"adspace/internal/domain"
)

//go:embed email whatsapp
var files embed.FS

// Message names.
const (
	InquiryAdmin   = "inquiry_admin"
	InquiryForward = "inquiry_forward"
	InquiryAck     = "inquiry_ack"
)

var funcs = map[string]any{
	"stamp": func(t time.Time) string { return t.Format("January 2, 2006 at 3:04 PM") },
}

// Service renders named templates for a channel. Email is rendered as an HTML
// document wrapped in email/base.html plus a plain text fallback.
type Service struct {
	html *htmltmpl.Template
	text *texttmpl.Template
	site string
}

// InquiryData is the view passed to every inquiry template.
type InquiryData struct {
	Site    string
	Inquiry *domain.Inquiry
}

// New parses the embedded templates. site is the sender's display name.
func New(site string) (*Service, error) {
	html, err := htmltmpl.New("email").Funcs(funcs).ParseFS(files, "email/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	text, err := texttmpl.New("text").Funcs(funcs).ParseFS(files, "email/*.txt", "whatsapp/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text templates: %w", err)
	}
	return &Service{html: html, text: text, site: site}, nil
}

// Email renders the subject, HTML body and text body of an email.
func (s *Service) Email(name string, inq *domain.Inquiry) (subject, html, text string, err error) {
	data := InquiryData{Site: s.site, Inquiry: inq}

	if subject, err = s.execText(name+"_subject.txt", data); err != nil {
		return "", "", "", err
	}
	subject = strings.TrimSpace(subject)

	// base.html renders "content"; bind it to the requested body on a clone.
	tmpl, err := s.html.Clone()
	if err != nil {
		return "", "", "", fmt.Errorf("clone email templates: %w", err)
	}
	if _, err = tmpl.New("content").Parse(fmt.Sprintf(`{{template %q .}}`, name+".html")); err != nil {
		return "", "", "", fmt.Errorf("bind email template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err = tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		return "", "", "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	html = buf.String()

	if text, err = s.execText(name+".txt", data); err != nil {
		return "", "", "", err
	}
	return subject, html, text, nil
}

// WhatsApp renders a WhatsApp text message.
func (s *Service) WhatsApp(name string, inq *domain.Inquiry) (string, error) {
	out, err := s.execText("wa_"+name+".txt", InquiryData{Site: s.site, Inquiry: inq})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (s *Service) execText(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.text.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
