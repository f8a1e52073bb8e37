package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"adspace/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGateway(t *testing.T, h http.Handler) *Gateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := &config.MessagingConfig{
		GatewayURL:    srv.URL,
		GatewayToken:  "tok",
		GatewaySender: "919000000000",
		SendTimeout:   time.Second,
	}
	return NewGateway(cfg, zap.NewNop())
}

func TestGatewaySend(t *testing.T) {
	var got map[string]any
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/qr/rest/send_message", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, g.Send(context.Background(), "919876543210", "hello"))
	assert.Equal(t, "tok", got["token"])
	assert.Equal(t, "919000000000", got["from"])
	assert.Equal(t, "919876543210", got["to"])
	assert.Equal(t, "hello", got["text"])
}

func TestGatewaySendFailure(t *testing.T) {
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session closed", http.StatusBadGateway)
	}))

	err := g.Send(context.Background(), "919876543210", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestGatewayStatusExposesQR(t *testing.T) {
	var paired atomic.Bool
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/qr/rest/session_status", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		if paired.Load() {
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "CONNECTED"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "QR", "qr": "2@abc"})
	}))

	st, err := g.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Ready)
	assert.Equal(t, "2@abc", st.QR)

	paired.Store(true)
	ready, err := g.Ready(context.Background())
	require.NoError(t, err)
	assert.True(t, ready)
}

func TestGatewayWaitReadyAfterPairing(t *testing.T) {
	var polls atomic.Int32
	g := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := "QR"
		if polls.Add(1) >= 3 {
			status = "ready"
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
	}))

	require.NoError(t, WaitReady(context.Background(), g, time.Second, 5*time.Millisecond))
	assert.EqualValues(t, 3, polls.Load())
}
