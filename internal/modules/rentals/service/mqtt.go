package service

import (
	"context"

	"github.com/syarafat/Proyek-Analisis-Data/internal/mqtt"
)

// registerMQTTHandler reloads the dataset for every reload request on the topic.
func registerMQTTHandler(subscriber mqtt.ReloadSubscriber, s *Service) {
	subscriber.SetMessageHandler(func(req mqtt.ReloadRequest) error {
		reason := "mqtt"
		if req.Reason != "" {
			reason = "mqtt:" + req.Reason
		}
		s.logger.Debug("processing reload request", "reason", reason, "requested_at", req.RequestedAt)
		return s.reload(context.Background(), reason)
	})
}
