package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"adspace/internal/config"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Gateway sends through a WhatsApp Web session hosted by an HTTP gateway.
// The session must be paired by scanning the QR code the gateway exposes.
type Gateway struct {
	httpChannel
	token  string
	sender string
	log    *zap.Logger
}

// NewGateway creates a gateway channel
func NewGateway(cfg *config.MessagingConfig, log *zap.Logger, opts ...Option) *Gateway {
	return &Gateway{
		httpChannel: newHTTPChannel(cfg.GatewayURL, cfg.SendTimeout, opts),
		token:       cfg.GatewayToken,
		sender:      cfg.GatewaySender,
		log:         log.Named("gateway"),
	}
}

func (g *Gateway) Name() string { return "gateway" }

type sessionStatus struct {
	Status string `json:"status"`
	QR     string `json:"qr"`
}

// Status queries the session endpoint.
func (g *Gateway) Status(ctx context.Context) (Status, error) {
	st := Status{Provider: g.Name()}
	if g.baseURL == "" {
		return st, errors.New("gateway URL not configured")
	}

	u := fmt.Sprintf("%s/api/qr/rest/session_status?token=%s", g.baseURL, url.QueryEscape(g.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return st, errors.Wrap(err, "failed to create status request")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return st, errors.Wrap(err, "gateway status request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return st, errors.Newf("gateway status error (status %d): %s", resp.StatusCode, string(body))
	}

	var s sessionStatus
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return st, errors.Wrap(err, "failed to decode gateway status")
	}

	switch strings.ToLower(s.Status) {
	case "connected", "ready", "authenticated":
		st.Ready = true
	default:
		st.QR = s.QR
		st.Detail = s.Status
	}
	return st, nil
}

// Ready reports whether the session is paired.
func (g *Gateway) Ready(ctx context.Context) (bool, error) {
	st, err := g.Status(ctx)
	return st.Ready, err
}

// Send posts a text message to identity.
func (g *Gateway) Send(ctx context.Context, identity, text string) error {
	if g.baseURL == "" || g.token == "" {
		return errors.New("gateway not properly configured")
	}
	start := time.Now()

	payload := map[string]any{
		"messageType": "text",
		"requestType": "POST",
		"token":       g.token,
		"from":        g.sender,
		"to":          identity,
		"text":        text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal gateway payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/qr/rest/send_message", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create gateway request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "gateway HTTP error")
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		g.log.Warn("send failed",
			zap.Int("status", resp.StatusCode), zap.Duration("duration", time.Since(start)), zap.ByteString("response", respBody))
		return errors.Newf("gateway send failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	g.log.Debug("message sent", zap.Duration("duration", time.Since(start)))
	return nil
}
