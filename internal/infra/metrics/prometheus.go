package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videointel_runs_processed_total",
		Help: "Total number of pipeline runs processed, by status",
	}, []string{"status"})

	TasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videointel_tasks_total",
		Help: "Total number of finished tasks, by component and status",
	}, []string{"component", "status"})

	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "videointel_task_duration_seconds",
		Help:    "Duration of a single task execution",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600, 7200},
	}, []string{"component"})

	AnnotationWaitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "videointel_annotation_wait_seconds",
		Help:    "Time spent waiting for the annotation backend",
		Buckets: []float64{5, 30, 60, 120, 300, 600, 1800, 3600, 7200},
	}, []string{"feature"})

	RowsLoadedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videointel_rows_loaded_total",
		Help: "Total number of rows appended to the warehouse, by table",
	}, []string{"table"})

	ActiveTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "videointel_active_tasks",
		Help: "Number of tasks currently executing",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videointel_retry_total",
		Help: "Total number of run redeliveries",
	}, []string{"attempt"})
)
