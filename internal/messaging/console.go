package messaging

import (
	"context"

	"go.uber.org/zap"
)

// Console logs messages instead of sending them (development)
type Console struct {
	log *zap.Logger
}

func NewConsole(log *zap.Logger) *Console {
	return &Console{log: log.Named("console")}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Ready(context.Context) (bool, error) { return true, nil }

func (c *Console) Send(_ context.Context, identity, text string) error {
	c.log.Info("whatsapp message would be sent", zap.String("to", identity), zap.String("text", text))
	return nil
}
