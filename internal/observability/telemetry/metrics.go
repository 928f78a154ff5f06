package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Business metrics
	ActiveChargingSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evcharge_active_charging_sessions",
		Help: "Number of charging sessions started and not yet stopped by this process",
	})

	EnergyDeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evcharge_energy_delivered_kwh_total",
		Help: "Total energy billed on completed sessions in kWh",
	})

	SessionsStartedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evcharge_sessions_started_total",
		Help: "Charging sessions started, by origin",
	}, []string{"origin"})

	SessionStartRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evcharge_session_start_rejected_total",
		Help: "Session start attempts rejected, by reason",
	}, []string{"reason"})

	ReservationsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evcharge_reservations_created_total",
		Help: "Reservations created",
	})

	ReservationsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evcharge_reservations_expired_total",
		Help: "Reservations moved to Expired by the scheduler or by validation",
	})

	PointsAlmostDoneTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evcharge_points_almost_done_total",
		Help: "Charging points flagged AlmostDone",
	})

	// Scheduler metrics
	SchedulerTaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evcharge_scheduler_task_duration_seconds",
		Help:    "Duration of scheduler task runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	SchedulerTaskErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evcharge_scheduler_task_errors_total",
		Help: "Scheduler task runs that failed or panicked",
	}, []string{"task"})

	// Infrastructure metrics
	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evcharge_events_published_total",
		Help: "Lifecycle events handed to the message broker",
	}, []string{"event", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evcharge_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
