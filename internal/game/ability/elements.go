package ability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/combatcore/internal/model"
)

// Effectiveness percentages.
const (
	Strong  int32 = 150
	Normal  int32 = 100
	Weak    int32 = 50
	maxRate int32 = 1000
)

// EffectivenessTable maps (attacking element, defending element) to a
// percent multiplier. Every ordered pair has an entry.
type EffectivenessTable [model.ElementCount][model.ElementCount]int32

// DefaultEffectiveness seeds the table:
//
//	Fire > Earth > Air > Water > Fire  (150 forward, 50 reverse)
//	Light <-> Dark                     (150 both ways)
//	everything else                    (100)
func DefaultEffectiveness() EffectivenessTable {
	var t EffectivenessTable
	for a := range t {
		for d := range t[a] {
			t[a][d] = Normal
		}
	}

	cycle := []model.Element{model.ElementFire, model.ElementEarth, model.ElementAir, model.ElementWater}
	for i, att := range cycle {
		def := cycle[(i+1)%len(cycle)]
		t[att][def] = Strong
		t[def][att] = Weak
	}

	t[model.ElementLight][model.ElementDark] = Strong
	t[model.ElementDark][model.ElementLight] = Strong
	return t
}

// EffectivenessOverride is an admin-set table entry.
type EffectivenessOverride struct {
	Attacker model.Element
	Defender model.Element
	Percent  int32
}

// Effectiveness returns the multiplier of attacker against defender in percent.
func (m *Manager) Effectiveness(attacker, defender model.Element) int32 {
	if !attacker.Valid() || !defender.Valid() {
		return Normal
	}
	m.defsMu.RLock()
	defer m.defsMu.RUnlock()
	return m.table[attacker][defender]
}

// EffectivenessTable returns a copy of the current table.
func (m *Manager) EffectivenessTable() EffectivenessTable {
	m.defsMu.RLock()
	defer m.defsMu.RUnlock()
	return m.table
}

// SetEffectiveness overrides one table entry. Percent must be in [0, 1000].
func (m *Manager) SetEffectiveness(ctx context.Context, caller model.Caller, attacker, defender model.Element, percent int32) error {
	if err := m.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if !attacker.Valid() || !defender.Valid() {
		return fmt.Errorf("%w: %s vs %s", ErrUnknownElement, attacker, defender)
	}
	if percent < 0 || percent > maxRate {
		return fmt.Errorf("%w: effectiveness %d outside [0, %d]", ErrInvalidParameters, percent, maxRate)
	}

	o := EffectivenessOverride{Attacker: attacker, Defender: defender, Percent: percent}
	if m.store != nil {
		if err := m.store.SaveEffectiveness(ctx, o); err != nil {
			return fmt.Errorf("saving effectiveness %s vs %s: %w", attacker, defender, err)
		}
	}

	m.defsMu.Lock()
	m.table[attacker][defender] = percent
	m.defsMu.Unlock()

	slog.Info("effectiveness overridden",
		"attacker", attacker,
		"defender", defender,
		"percent", percent)
	return nil
}

// scaledByElement reports whether an ability type's power depends on the
// target element.
func scaledByElement(t model.AbilityType) bool {
	switch t {
	case model.AbilityHeal, model.AbilityShield:
		return false
	default:
		return true
	}
}
