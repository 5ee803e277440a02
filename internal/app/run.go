package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/syarafat/Proyek-Analisis-Data/internal/config"
	"github.com/syarafat/Proyek-Analisis-Data/internal/db"
	"github.com/syarafat/Proyek-Analisis-Data/internal/httpapi"
	"github.com/syarafat/Proyek-Analisis-Data/internal/live"
	"github.com/syarafat/Proyek-Analisis-Data/internal/metrics"
	"github.com/syarafat/Proyek-Analisis-Data/internal/migrate"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals"
	"github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/service"
	rentalsviews "github.com/syarafat/Proyek-Analisis-Data/internal/modules/rentals/views"
	"github.com/syarafat/Proyek-Analisis-Data/internal/mqtt"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"datasetSource", cfg.DatasetSource,
		"datasetPath", cfg.DatasetPath,
		"strictCodes", cfg.StrictCodes,
		"watchDataset", cfg.WatchDataset,
		"reloadSchedule", cfg.ReloadSchedule,
		"dbDriver", cfg.Driver,
		"sqlitePath", cfg.SQLitePath,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttReloadTopic", cfg.MQTTReloadTopic,
	)

	var dbConn *sql.DB
	if cfg.DatasetSource == config.SourceSQL {
		var err error
		dbConn, err = db.Open(cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(dbConn); closeErr != nil {
				logger.Error("db close", "error", closeErr)
			}
		}()
		if _, err := migrate.Run(dbConn, cfg.Driver, logger); err != nil {
			return err
		}
		logger.Info("database connection successful", "driver", cfg.Driver)
	}

	if err := rentalsviews.LoadTemplates(); err != nil {
		return err
	}

	m := metrics.New()
	handle, err := rentals.NewHandle(cfg, dbConn, logger)
	if err != nil {
		return err
	}
	handle.OnLoad(m.ObserveLoad)

	// Subscribe before the first load so the startup version is counted too.
	metricChanges, stopMetricChanges := handle.Subscribe(8)
	defer stopMetricChanges()
	go m.Track(ctx, metricChanges)

	if _, err := handle.Get(ctx); err != nil {
		return fmt.Errorf("initial dataset load: %w", err)
	}

	hub := live.NewHub(logger, cfg.CORSAllowedOrigins)
	hubChanges, stopHubChanges := handle.Subscribe(8)
	defer stopHubChanges()
	go hub.Run(ctx, hubChanges)

	health := httpapi.Health{Dataset: handle}
	if dbConn != nil {
		health.DB = dbConn
	}

	svc := service.NewService(handle, logger)

	var mqttSubscriber *mqtt.Subscriber
	if cfg.MQTTEnabled() {
		mqttSubscriber = mqtt.NewSubscriber(cfg, logger)
		// Attach the handler before Connect; the broker may deliver right after CONNACK.
		svc.Register(mqttSubscriber)
		health.MQTT = mqttSubscriber

		// Short timeout so a missing broker does not block startup.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err := mqttSubscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	}

	if cfg.WatchDataset && cfg.DatasetSource == config.SourceCSV {
		go func() {
			if err := svc.WatchFile(ctx, cfg.DatasetPath); err != nil {
				logger.Warn("dataset watcher stopped", "error", err)
			}
		}()
	}

	if cfg.ReloadSchedule != "" {
		stopSchedule, err := svc.Schedule(cfg.ReloadSchedule)
		if err != nil {
			return err
		}
		defer stopSchedule()
	}

	mux := httpapi.NewMux(health, m, hub)
	rentals.RegisterFeature(mux, handle, logger)
	srv := httpapi.NewServer(cfg, mux, logger, m)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if mqttSubscriber != nil {
		logger.Info("mqtt disconnecting")
		mqttSubscriber.Disconnect()
	}

	logger.Info("http shutting down")
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
