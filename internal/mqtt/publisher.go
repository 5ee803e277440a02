package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/syarafat/Proyek-Analisis-Data/internal/config"
)

// Publisher sends one-off reload requests, for tools that change the dataset behind
// a running server.
type Publisher struct {
	client mqtt.Client
	topic  string
	logger *slog.Logger
}

func NewPublisher(cfg config.Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID + "-ctl")
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetAutoReconnect(false)

	return &Publisher{client: mqtt.NewClient(opts), topic: cfg.MQTTReloadTopic, logger: logger}
}

// PublishReload connects, publishes req with QoS 1 and disconnects.
func (p *Publisher) PublishReload(ctx context.Context, req ReloadRequest) error {
	data, err := encodeReloadRequest(req, time.Now())
	if err != nil {
		return err
	}

	if err := waitToken(ctx, p.client.Connect()); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	defer p.client.Disconnect(250)

	if err := waitToken(ctx, p.client.Publish(p.topic, 1, false, data)); err != nil {
		return fmt.Errorf("publish reload to %s: %w", p.topic, err)
	}
	p.logger.Debug("published reload request", "topic", p.topic, "reason", req.Reason)
	return nil
}

func encodeReloadRequest(req ReloadRequest, now time.Time) ([]byte, error) {
	if len(req.Reason) > maxReasonLen {
		return nil, fmt.Errorf("reason longer than %d bytes", maxReasonLen)
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = now.UTC()
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal reload request: %w", err)
	}
	return data, nil
}

func waitToken(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
