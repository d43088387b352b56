// Package metrics exposes Prometheus metrics derived from the event stream.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plantline/plantline/internal/core/domain"
	"github.com/plantline/plantline/internal/core/ports"
)

// Recorder observes published events and maintains the Prometheus registry.
// It implements ports.EventSink so it plugs into the same fan-out as every
// other sink and never fails a publish.
type Recorder struct {
	registry *prometheus.Registry

	eventsTotal     *prometheus.CounterVec
	taskTransitions *prometheus.CounterVec
	projectProgress *prometheus.GaugeVec
	projectProduced *prometheus.GaugeVec
	alertsRaised    prometheus.Counter
	tasksGenerated  prometheus.Counter
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantline",
			Name:      "events_total",
			Help:      "Events published, by topic.",
		}, []string{"topic"}),
		taskTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantline",
			Name:      "task_transitions_total",
			Help:      "Task state transitions, by resulting status.",
		}, []string{"status"}),
		projectProgress: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "plantline",
			Name:      "project_progress_percent",
			Help:      "Current project progress percentage.",
		}, []string{"project"}),
		projectProduced: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "plantline",
			Name:      "project_produced_quantity",
			Help:      "Units produced per project.",
		}, []string{"project"}),
		alertsRaised: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plantline",
			Name:      "alerts_raised_total",
			Help:      "Alerts raised.",
		}),
		tasksGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plantline",
			Name:      "task_expansions_total",
			Help:      "Task expansion batches generated.",
		}),
	}

	registry.MustRegister(
		r.eventsTotal,
		r.taskTransitions,
		r.projectProgress,
		r.projectProduced,
		r.alertsRaised,
		r.tasksGenerated,
	)
	return r
}

// Publish records the event. It never returns an error.
func (r *Recorder) Publish(_ context.Context, topic string, payload interface{}) error {
	r.eventsTotal.WithLabelValues(topic).Inc()

	switch topic {
	case ports.TopicTaskStatusChanged:
		if task, ok := payload.(*domain.Task); ok {
			r.taskTransitions.WithLabelValues(string(task.Status)).Inc()
		}
	case ports.TopicProjectUpdated:
		if project, ok := payload.(*domain.Project); ok {
			id := project.ID.String()
			r.projectProgress.WithLabelValues(id).Set(project.Progress)
			r.projectProduced.WithLabelValues(id).Set(float64(project.ProducedQuantity))
		}
	case ports.TopicAlertRaised:
		r.alertsRaised.Inc()
	case ports.TopicTasksGenerated:
		r.tasksGenerated.Inc()
	}
	return nil
}

// Handler returns the HTTP handler serving the registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

var _ ports.EventSink = (*Recorder)(nil)
