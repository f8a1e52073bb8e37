package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"adspace/internal/config"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Twilio sends WhatsApp messages through Twilio's Messages API
type Twilio struct {
	httpChannel
	sid  string
	auth string
	from string
	log  *zap.Logger
}

// NewTwilio creates a Twilio channel
func NewTwilio(cfg *config.MessagingConfig, log *zap.Logger, opts ...Option) *Twilio {
	return &Twilio{
		httpChannel: newHTTPChannel("https://api.twilio.com", cfg.SendTimeout, opts),
		sid:         cfg.TwilioSID,
		auth:        cfg.TwilioAuth,
		from:        cfg.TwilioFrom,
		log:         log.Named("twilio"),
	}
}

func (t *Twilio) Name() string { return "twilio" }

// Ready is true once credentials are configured; Twilio has no session.
func (t *Twilio) Ready(context.Context) (bool, error) {
	if t.sid == "" || t.auth == "" || t.from == "" {
		return false, errors.New("Twilio not properly configured")
	}
	return true, nil
}

// Send sends text to identity over WhatsApp
func (t *Twilio) Send(ctx context.Context, identity, text string) error {
	if ok, err := t.Ready(ctx); !ok {
		return err
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseURL, t.sid)
	form := url.Values{}
	form.Set("From", whatsappAddress(t.from))
	form.Set("To", whatsappAddress(identity))
	form.Set("Body", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.SetBasicAuth(t.sid, t.auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send WhatsApp request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errorResp)
		return errors.Newf("Twilio API error (status %d): %d %s", resp.StatusCode, errorResp.Code, errorResp.Message)
	}
	return nil
}

func whatsappAddress(number string) string {
	number = strings.TrimPrefix(number, "whatsapp:")
	if !strings.HasPrefix(number, "+") {
		number = "+" + number
	}
	return "whatsapp:" + number
}
