package serving

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PredictionsTotal counts scored rows.
	// Labels:
	//   - outcome: "success", "error"
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appraiser_predictions_total",
			Help: "Total number of rows scored",
		},
		[]string{"outcome"},
	)

	// PredictionDuration measures one Predict call, single row or batch.
	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "appraiser_prediction_duration_seconds",
			Help:    "Duration of prediction calls in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
	)

	// ReloadsTotal counts artifact loads.
	// Labels:
	//   - outcome: "success", "failure"
	ReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appraiser_artifact_reloads_total",
			Help: "Total number of artifact load attempts",
		},
		[]string{"outcome"},
	)

	// ArtifactLoadedTimestamp is the Unix time the serving artifact was trained.
	ArtifactLoadedTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "appraiser_artifact_created_timestamp_seconds",
			Help: "Training time of the artifact currently served",
		},
	)
)
