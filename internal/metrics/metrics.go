// Package metrics exposes Prometheus collectors for the combat engines.
//
// All recording methods are nil-safe so engines built without metrics
// (tests, tools) can call them unconditionally.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ComboBuckets cover chain lengths seen in practice (1..10+).
var ComboBuckets = []float64{1, 2, 3, 4, 5, 7, 10}

// Combat collects battle and ability counters.
type Combat struct {
	MovesTriggered  *prometheus.CounterVec
	CriticalHits    prometheus.Counter
	LifeStolen      prometheus.Counter
	TargetsDefeated prometheus.Counter
	BattlesStarted  prometheus.Counter
	ActiveBattles   prometheus.Gauge
	ComboLength     prometheus.Histogram
	Rejections      *prometheus.CounterVec

	AbilitiesUsed   *prometheus.CounterVec
	ElementalCombos prometheus.Counter
}

// New registers combat collectors under namespace on registerer.
func New(namespace string, registerer prometheus.Registerer) *Combat {
	factory := promauto.With(registerer)

	return &Combat{
		MovesTriggered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "combat",
				Name:      "moves_triggered_total",
				Help:      "Total number of resolved combat moves by move name",
			},
			[]string{"move"},
		),
		CriticalHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "combat",
			Name:      "critical_hits_total",
			Help:      "Total number of critical hits",
		}),
		LifeStolen: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "combat",
			Name:      "life_stolen_total",
			Help:      "Total health restored to attackers through life steal",
		}),
		TargetsDefeated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "combat",
			Name:      "targets_defeated_total",
			Help:      "Total number of battles ended by target defeat",
		}),
		BattlesStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "combat",
			Name:      "battles_started_total",
			Help:      "Total number of battles started",
		}),
		ActiveBattles: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "combat",
			Name:      "active_battles",
			Help:      "Number of currently active battles",
		}),
		ComboLength: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "combat",
			Name:      "combo_length",
			Help:      "Combo chain length at the time a move resolves",
			Buckets:   ComboBuckets,
		}),
		Rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "combat",
				Name:      "rejections_total",
				Help:      "Rejected engine calls by operation and reason",
			},
			[]string{"operation", "reason"},
		),
		AbilitiesUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ability",
				Name:      "used_total",
				Help:      "Total number of abilities used by element",
			},
			[]string{"element"},
		),
		ElementalCombos: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ability",
			Name:      "elemental_combos_total",
			Help:      "Total number of completed elemental combos",
		}),
	}
}

// MoveResolved records a successful triggerMove.
func (m *Combat) MoveResolved(move string, crit bool, lifeStolen int32, combo int32, defeated bool) {
	if m == nil {
		return
	}
	m.MovesTriggered.WithLabelValues(move).Inc()
	if crit {
		m.CriticalHits.Inc()
	}
	if lifeStolen > 0 {
		m.LifeStolen.Add(float64(lifeStolen))
	}
	m.ComboLength.Observe(float64(combo))
	if defeated {
		m.TargetsDefeated.Inc()
		m.ActiveBattles.Dec()
	}
}

// BattleStarted records a new battle.
func (m *Combat) BattleStarted() {
	if m == nil {
		return
	}
	m.BattlesStarted.Inc()
	m.ActiveBattles.Inc()
}

// BattleEnded records an explicit battle end.
func (m *Combat) BattleEnded() {
	if m == nil {
		return
	}
	m.ActiveBattles.Dec()
}

// Rejected records a failed engine call.
func (m *Combat) Rejected(operation, reason string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(operation, reason).Inc()
}

// AbilityUsed records a resolved useAbility call.
func (m *Combat) AbilityUsed(element string, combo bool) {
	if m == nil {
		return
	}
	m.AbilitiesUsed.WithLabelValues(element).Inc()
	if combo {
		m.ElementalCombos.Inc()
	}
}
