package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tansive/rostersync/internal/rostersync/domain"
)

// Metrics exposes dispatch counts and collection sizes.
type Metrics struct {
	dispatched     *prometheus.CounterVec
	collectionSize *prometheus.GaugeVec
}

// NewMetrics creates the store collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rostersync",
			Subsystem: "store",
			Name:      "dispatched_actions_total",
			Help:      "Number of actions dispatched to the store, by action type.",
		}, []string{"type"}),
		collectionSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rostersync",
			Subsystem: "store",
			Name:      "collection_size",
			Help:      "Number of entities held per collection after the last dispatch.",
		}, []string{"collection"}),
	}
	if reg != nil {
		reg.MustRegister(m.dispatched, m.collectionSize)
	}
	return m
}

func (m *Metrics) observe(a Action, s State) {
	if m == nil {
		return
	}
	m.dispatched.WithLabelValues(a.Type()).Inc()
	m.collectionSize.WithLabelValues(string(domain.KindTenant)).Set(float64(len(s.TenantData.TenantList)))
	m.collectionSize.WithLabelValues(string(domain.KindSkill)).Set(float64(len(s.SkillList.List)))
	m.collectionSize.WithLabelValues(string(domain.KindContract)).Set(float64(len(s.ContractList.List)))
	m.collectionSize.WithLabelValues(string(domain.KindSpot)).Set(float64(len(s.SpotList.List)))
	m.collectionSize.WithLabelValues(string(domain.KindEmployee)).Set(float64(len(s.EmployeeList.List)))
}
