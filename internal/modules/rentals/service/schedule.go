package service

import (
	"context"
	"fmt"

	"github.com/robfig/cron"
)

// Schedule reloads the dataset on the cron spec until the returned stop func is called.
func (s *Service) Schedule(spec string) (stop func(), err error) {
	c := cron.New()
	err = c.AddFunc(spec, func() {
		_ = s.reload(context.Background(), "schedule")
	})
	if err != nil {
		return nil, fmt.Errorf("reload schedule %q: %w", spec, err)
	}
	c.Start()
	s.logger.Info("dataset reload scheduled", "schedule", spec)
	return c.Stop, nil
}
