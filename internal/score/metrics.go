package score

import (
	"github.com/prometheus/client_golang/prometheus"

	"sharetier/internal/types"
)

// Metrics exports per-share, per-feature score gauges so an operator can
// chart weighted-feature drift across ticks, grounded on
// rockstar-0000-aistore's stats package idiom of registering named gauges
// up front and setting them per evaluation.
type Metrics struct {
	feature *prometheus.GaugeVec
	score   *prometheus.GaugeVec
}

// NewMetrics registers the tiering score gauges against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		feature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sharetier",
			Name:      "scan_score_feature",
			Help:      "Weighted contribution of each scoring feature, by share.",
		}, []string{"share", "feature"}),
		score: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sharetier",
			Name:      "scan_score",
			Help:      "Total scan score, by share.",
		}, []string{"share"}),
	}
	reg.MustRegister(m.feature, m.score)
	return m
}

// Observe records one share's evaluated FeatureVector.
func (m *Metrics) Observe(share string, fv types.FeatureVector) {
	for name, w := range fv.Weighted {
		m.feature.WithLabelValues(share, name).Set(w)
	}
	m.score.WithLabelValues(share).Set(fv.Score)
}
