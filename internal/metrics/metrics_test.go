package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCombat_MoveResolved(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.BattleStarted()
	m.MoveResolved("Slash", true, 4, 2, false)
	m.MoveResolved("Slash", false, 0, 1, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MovesTriggered.WithLabelValues("Slash")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CriticalHits))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.LifeStolen))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TargetsDefeated))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveBattles))
}

func TestCombat_NilSafe(t *testing.T) {
	var m *Combat
	assert.NotPanics(t, func() {
		m.BattleStarted()
		m.BattleEnded()
		m.MoveResolved("x", true, 1, 1, true)
		m.Rejected("trigger_move", "cooldown")
		m.AbilityUsed("fire", true)
	})
}

func TestCombat_Rejected(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.Rejected("trigger_move", "move_on_cooldown")
	m.Rejected("trigger_move", "move_on_cooldown")
	m.AbilityUsed("fire", true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Rejections.WithLabelValues("trigger_move", "move_on_cooldown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AbilitiesUsed.WithLabelValues("fire")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ElementalCombos))
}
