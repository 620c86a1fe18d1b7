package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the certificate module.
type Metrics struct {
	CertificatesIssued *prometheus.CounterVec
	Verifications      *prometheus.CounterVec
	Revocations        prometheus.Counter
	RegistrySize       prometheus.Gauge
}

// New creates and registers the certificate metrics.
func New() *Metrics {
	return &Metrics{
		CertificatesIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sigil_certificates_issued_total",
			Help: "Total number of certificates issued, by kind",
		}, []string{"kind"}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sigil_verifications_total",
			Help: "Total number of verification calls, by outcome",
		}, []string{"outcome"}),
		Revocations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sigil_revocations_total",
			Help: "Total number of certificates revoked",
		}),
		RegistrySize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sigil_registry_certificates",
			Help: "Number of certificates currently in the registry",
		}),
	}
}
