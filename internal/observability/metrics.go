package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "airq"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// normalizer, trainer and predictor.
type Metrics struct {
	RowsRead        prometheus.Counter
	RowsDropped     *prometheus.CounterVec // labels: reason={missing_field,bad_date}
	RecordsWritten  *prometheus.CounterVec // labels: sink={csv,kafka}
	UnscaledCities  prometheus.Counter
	PipelineRunning prometheus.Gauge
	RunDuration     prometheus.Histogram

	// Model metrics.
	ModelR2   *prometheus.GaugeVec // labels: model={aqi_model,health_model}
	ModelRMSE *prometheus.GaugeVec // labels: model={aqi_model,health_model}

	// Serving metrics.
	Predictions      prometheus.Counter
	PredictionErrors prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Total raw observation rows read.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Raw rows dropped during normalization by reason.",
		}, []string{"reason"}),
		RecordsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Clean records written by sink.",
		}, []string{"sink"}),
		UnscaledCities: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unscaled_cities_total",
			Help:      "Cities normalized without a configured scale factor.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a normalization run is active.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_run_duration_seconds",
			Help:      "Duration of a complete normalization run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ModelR2: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_r2",
			Help:      "Held-out R² of the most recently trained or loaded model.",
		}, []string{"model"}),
		ModelRMSE: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_rmse",
			Help:      "Held-out RMSE of the most recently trained or loaded model.",
		}, []string{"model"}),
		Predictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total feature vectors scored.",
		}),
		PredictionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_errors_total",
			Help:      "Total rejected prediction requests.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RowsRead,
		m.RowsDropped,
		m.RecordsWritten,
		m.UnscaledCities,
		m.PipelineRunning,
		m.RunDuration,
		m.ModelR2,
		m.ModelRMSE,
		m.Predictions,
		m.PredictionErrors,
	}
}

// ObserveModel records held-out metrics for a named model.
func (m *Metrics) ObserveModel(name string, r2, rmse float64) {
	m.ModelR2.WithLabelValues(name).Set(r2)
	m.ModelRMSE.WithLabelValues(name).Set(rmse)
}
