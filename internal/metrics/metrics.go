// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the bot's collectors. A nil *Metrics is valid and records
// nothing, so components can run without instrumentation in tests.
//
// Metrics:
//   - reminders_scheduled_keys - reminders currently held by the scheduler
//   - reminders_fired_total - scheduled callbacks invoked
//   - reminders_callback_errors_total - callbacks that failed or panicked
//   - reminders_scheduler_faults_total - tick iterations aborted by a fault
//   - reminders_delivery_failures_total{kind} - failed deliveries by kind
//   - reminders_commands_total{command} - inbound commands handled
type Metrics struct {
	ScheduledKeys    prometheus.Gauge
	Fired            prometheus.Counter
	CallbackErrors   prometheus.Counter
	SchedulerFaults  prometheus.Counter
	DeliveryFailures *prometheus.CounterVec
	Commands         *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ScheduledKeys: f.NewGauge(prometheus.GaugeOpts{
			Name: "reminders_scheduled_keys",
			Help: "Number of (chat, time) reminders currently scheduled",
		}),
		Fired: f.NewCounter(prometheus.CounterOpts{
			Name: "reminders_fired_total",
			Help: "Total number of scheduled reminder callbacks invoked",
		}),
		CallbackErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "reminders_callback_errors_total",
			Help: "Total number of reminder callbacks that returned an error or panicked",
		}),
		SchedulerFaults: f.NewCounter(prometheus.CounterOpts{
			Name: "reminders_scheduler_faults_total",
			Help: "Total number of scheduler tick iterations aborted by an unexpected fault",
		}),
		DeliveryFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reminders_delivery_failures_total",
				Help: "Total number of failed reminder deliveries",
			},
			[]string{"kind"}, // "recipient_unavailable", "transient", "unknown"
		),
		Commands: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reminders_commands_total",
				Help: "Total number of chat commands handled",
			},
			[]string{"command"},
		),
	}
}

func (m *Metrics) SetScheduledKeys(n int) {
	if m == nil {
		return
	}
	m.ScheduledKeys.Set(float64(n))
}

func (m *Metrics) IncFired() {
	if m == nil {
		return
	}
	m.Fired.Inc()
}

func (m *Metrics) IncCallbackErrors() {
	if m == nil {
		return
	}
	m.CallbackErrors.Inc()
}

func (m *Metrics) IncSchedulerFaults() {
	if m == nil {
		return
	}
	m.SchedulerFaults.Inc()
}

func (m *Metrics) IncDeliveryFailure(kind string) {
	if m == nil {
		return
	}
	m.DeliveryFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncCommand(command string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(command).Inc()
}
