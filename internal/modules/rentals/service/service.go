// Package service wires the dataset reload triggers: file changes, a cron schedule
// and MQTT reload messages. Every trigger ends in the same Reload call on the handle.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/types"
	"github.com/syarafat/Proyek-Analisis-Data/internal/mqtt"
)

const (
	reloadTimeout = time.Minute
	watchDebounce = 500 * time.Millisecond
)

// Reloader is implemented by *dataset.Handle.
type Reloader interface {
	Reload(ctx context.Context, reason string) (*types.Table, error)
}

type Service struct {
	reloader Reloader
	logger   *slog.Logger
	debounce time.Duration
}

func NewService(reloader Reloader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reloader: reloader, logger: logger, debounce: watchDebounce}
}

// Register attaches the reload handler to the MQTT subscriber. Call before Connect.
func (s *Service) Register(subscriber mqtt.ReloadSubscriber) {
	registerMQTTHandler(subscriber, s)
}

func (s *Service) reload(ctx context.Context, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, reloadTimeout)
	defer cancel()

	t, err := s.reloader.Reload(ctx, reason)
	if err != nil {
		s.logger.Error("dataset reload failed", "reason", reason, "error", err)
		return err
	}
	s.logger.Info("dataset reloaded", "reason", reason, "rows", t.Len())
	return nil
}
