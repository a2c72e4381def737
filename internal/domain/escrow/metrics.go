package escrow

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus instruments. A nil *Metrics is a
// no-op.
type Metrics struct {
	operations  *prometheus.CounterVec
	distributed *prometheus.CounterVec
	custody     prometheus.Gauge
}

// NewMetrics registers the engine instruments with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "escrow_operations_total",
			Help: "Escrow operations by operation and result",
		}, []string{"operation", "result"}),
		distributed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "escrow_distributed_total",
			Help: "Value paid out on distribution by recipient role",
		}, []string{"recipient"}),
		custody: factory.NewGauge(prometheus.GaugeOpts{
			Name: "escrow_custody_balance",
			Help: "Value currently held in custody",
		}),
	}
}

func (m *Metrics) observe(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
		var e *Error
		if errors.As(err, &e) {
			result = e.Name
		}
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) distribute(p Payout) {
	if m == nil {
		return
	}
	m.distributed.WithLabelValues(string(RoleTalent)).Add(float64(p.Talent))
	m.distributed.WithLabelValues(string(RoleScout)).Add(float64(p.Scout))
	m.distributed.WithLabelValues("platform").Add(float64(p.Platform))
}

func (m *Metrics) setCustody(balance uint64) {
	if m == nil {
		return
	}
	m.custody.Set(float64(balance))
}
