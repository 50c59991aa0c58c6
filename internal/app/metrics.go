package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mudra_frames_total",
		Help: "Frames processed by controller sessions",
	}, []string{"mode"})

	metricConfirmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mudra_gestures_confirmed_total",
		Help: "Gestures confirmed by the debouncer",
	}, []string{"mode", "gesture"})

	metricDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mudra_dispatches_total",
		Help: "Actions successfully sent to the executor",
	}, []string{"mode", "source"})

	metricDispatchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mudra_dispatch_failures_total",
		Help: "Actions the executor failed to perform",
	}, []string{"mode", "source"})

	metricCooldownRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mudra_cooldown_rejections_total",
		Help: "Confirmed gestures dropped by the cooldown gate",
	}, []string{"mode"})

	metricAutoPauses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mudra_auto_pauses_total",
		Help: "Pauses triggered by the viewer leaving the frame",
	}, []string{"mode"})

	metricActiveSessions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mudra_active_sessions",
		Help: "Controller sessions currently running",
	}, []string{"mode"})

	metricFrameSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mudra_frame_seconds",
		Help:    "Time to acquire and process one frame",
		Buckets: prometheus.ExponentialBuckets(0.005, 1.6, 10),
	})
)
