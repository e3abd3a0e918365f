package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters exposed on /metrics alongside the default Go collectors.
var (
	SessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_sessions_opened_total",
		Help: "Number of attendance sessions opened.",
	})

	CheckInsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_checkins_recorded_total",
		Help: "Number of attendance records stored.",
	})

	CheckInsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_checkins_rejected_total",
		Help: "Number of check-in submissions rejected, by reason.",
	}, []string{"reason"})
)
