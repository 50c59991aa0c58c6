package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// deps is everything a command needs to run sessions.
type deps struct {
	cfg        *config.Config
	log        *logrus.Logger
	store      *store.Store
	controller *app.Controller
}

func (d *deps) Close() {
	d.controller.StopAll()
	if err := d.store.Close(); err != nil {
		d.log.WithError(err).Warn("Failed to close store")
	}
}

// setup loads configuration and builds the controller with its journal,
// executor and camera sources.
func setup(cmd *cobra.Command) (*deps, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Config{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return nil, err
	}

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if n, err := st.Sessions().CloseDangling(time.Now()); err != nil {
		log.WithError(err).Warn("Failed to close abandoned sessions")
	} else if n > 0 {
		log.WithField("count", n).Info("Closed sessions left open by a previous run")
	}

	executor, err := newExecutor(cfg, log)
	if err != nil {
		st.Close()
		return nil, err
	}

	ctrl := app.NewController(app.ControllerConfig{
		ConfirmThreshold: cfg.ConfirmThreshold,
		Cooldown:         cfg.Cooldown,
		HandLimit:        cfg.HandLimit,
		Sources:          newSourceFactory(cfg),
		Executor:         executor,
		Journal:          app.NewJournal(st, log),
		Logger:           log,
	})

	log.WithFields(logrus.Fields{
		"confirm_threshold": cfg.ConfirmThreshold,
		"cooldown":          cfg.Cooldown,
		"journal":           st.Path(),
		"dry_run":           cfg.Executor.DryRun,
	}).Debug("Configuration loaded")

	return &deps{cfg: cfg, log: log, store: st, controller: ctrl}, nil
}

// newExecutor returns the keyboard plugin dispatcher, or a logging executor
// for dry runs.
func newExecutor(cfg *config.Config, log logrus.FieldLogger) (app.Executor, error) {
	if cfg.Executor.DryRun {
		return app.NewLogExecutor(log), nil
	}

	manager := plugin.NewManager(cfg.Executor.PluginDir, plugin.KeystrokeAction)
	if err := manager.Discover(); err != nil {
		return nil, fmt.Errorf("discover plugins in %s: %w", cfg.Executor.PluginDir, err)
	}
	for name, reason := range manager.Skipped() {
		log.WithField("plugin", name).WithError(reason).Warn("Skipping plugin")
	}

	p, err := manager.Require(cfg.Executor.Plugin, plugin.KeystrokeAction)
	if err != nil {
		return nil, fmt.Errorf("%w (plugin dir %s; use --dry-run to run without it)", err, manager.PluginDir())
	}

	log.WithFields(logrus.Fields{
		"plugin":  p.Manifest.Name,
		"version": p.Manifest.Version,
	}).Info("Using plugin")

	return plugin.NewKeyDispatcher(plugin.NewExecutor(cfg.Executor.TimeoutMs), p), nil
}

// newSourceFactory opens the configured camera with a MediaPipe detector,
// and the cascade face detector when one is configured.
func newSourceFactory(cfg *config.Config) app.SourceFactory {
	return func(mode gesture.Mode) (app.Source, error) {
		mp, err := detector.NewMediaPipeDetector(detector.Config{
			MaxHands:        cfg.HandLimit,
			MinConfidence:   cfg.Detector.MinDetectionConfidence,
			MinTrackingConf: cfg.Detector.MinTrackingConfidence,
			FaceConfidence:  cfg.Detector.FaceConfidence,
			ScriptPath:      cfg.Detector.Script,
		})
		if err != nil {
			return nil, err
		}

		var d detector.Detector = mp
		if cfg.Detector.FaceCascade != "" {
			face, err := detector.NewCascadeFaceDetector(cfg.Detector.FaceCascade)
			if err != nil {
				mp.Close()
				return nil, err
			}
			d = detector.WithFaceDetector(mp, face)
		}

		camera := capture.NewCamera(capture.Config{
			DeviceID: cfg.Camera.Device,
			Width:    cfg.Camera.Width,
			Height:   cfg.Camera.Height,
			FPS:      cfg.Camera.FPS,
			Mirror:   cfg.Camera.Mirror,
		})

		return app.NewCameraSource(camera, d), nil
	}
}
