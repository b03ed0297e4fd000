package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"bloodledger/internal/donation/models"
)

// Metrics provides observability for the donation registry.
// Counters track transitions; gauges mirror the committed aggregate.
type Metrics struct {
	Registered        *prometheus.CounterVec
	Contaminated      prometheus.Counter
	Delivered         prometheus.Counter
	Aborted           *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	Stats             *prometheus.GaugeVec
}

// New registers the registry metrics on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodledger_donations_registered_total",
			Help: "Donations registered, by blood type",
		}, []string{"blood_type"}),
		Contaminated: f.NewCounter(prometheus.CounterOpts{
			Name: "bloodledger_donations_contaminated_total",
			Help: "Donations marked contaminated after leaving the safe range",
		}),
		Delivered: f.NewCounter(prometheus.CounterOpts{
			Name: "bloodledger_donations_delivered_total",
			Help: "Donations transferred to a recipient",
		}),
		Aborted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodledger_calls_aborted_total",
			Help: "Registry calls aborted, by operation and error code",
		}, []string{"operation", "code"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bloodledger_operation_duration_seconds",
			Help:    "Duration of registry operations including the ledger transaction",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		Stats: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bloodledger_donations",
			Help: "Committed donation aggregate, by bucket",
		}, []string{"bucket"}),
	}
}

func (m *Metrics) IncRegistered(bloodType models.BloodType) {
	m.Registered.WithLabelValues(bloodType.Label()).Inc()
}

func (m *Metrics) IncContaminated() {
	m.Contaminated.Inc()
}

func (m *Metrics) IncDelivered() {
	m.Delivered.Inc()
}

func (m *Metrics) IncAborted(operation, code string) {
	m.Aborted.WithLabelValues(operation, code).Inc()
}

// ObserveOperation records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// SetStats mirrors a committed aggregate into the gauges.
func (m *Metrics) SetStats(s models.DonationStats) {
	m.Stats.WithLabelValues("total").Set(float64(s.Total))
	m.Stats.WithLabelValues("active").Set(float64(s.Active))
	m.Stats.WithLabelValues("delivered").Set(float64(s.Delivered))
	m.Stats.WithLabelValues("contaminated").Set(float64(s.Contaminated))
}
