package ability

import (
	"cmp"
	"slices"
	"time"

	"github.com/udisondev/combatcore/internal/model"
)

// Ability returns an ability definition by id.
func (m *Manager) Ability(id model.AbilityID) (model.Ability, bool) {
	m.defsMu.RLock()
	defer m.defsMu.RUnlock()
	ab, ok := m.abilities[id]
	if !ok {
		return model.Ability{}, false
	}
	return *ab, true
}

// Abilities lists ability definitions ordered by id.
func (m *Manager) Abilities() []model.Ability {
	m.defsMu.RLock()
	out := make([]model.Ability, 0, len(m.abilities))
	for _, ab := range m.abilities {
		out = append(out, *ab)
	}
	m.defsMu.RUnlock()

	slices.SortFunc(out, func(a, b model.Ability) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// ComboBonuses lists elemental combos ordered by id.
func (m *Manager) ComboBonuses() []model.ComboBonus {
	m.defsMu.RLock()
	out := make([]model.ComboBonus, 0, len(m.combos))
	for _, cb := range m.combos {
		out = append(out, *cb)
	}
	m.defsMu.RUnlock()

	slices.SortFunc(out, func(a, b model.ComboBonus) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// ActiveStatusEffects returns the unexpired statuses on id, oldest first.
func (m *Manager) ActiveStatusEffects(id model.CharacterID) []model.StatusEffect {
	u := m.lookup(id)
	if u == nil {
		return nil
	}
	now := m.clock.Now()

	u.mu.Lock()
	defer u.mu.Unlock()
	var out []model.StatusEffect
	for _, s := range u.statuses {
		if s.ActiveAt(now) {
			out = append(out, s)
		}
	}
	return out
}

// PowerModifier returns the percent modifier id's active buffs and debuffs
// apply to outgoing power.
func (m *Manager) PowerModifier(id model.CharacterID) int32 {
	u := m.lookup(id)
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.modifier(m.clock.Now())
}

// CooldownRemaining returns how long until user may cast ability again.
func (m *Manager) CooldownRemaining(user model.CharacterID, id model.AbilityID) (time.Duration, error) {
	ab, ok := m.Ability(id)
	if !ok {
		return 0, ErrAbilityNotFound
	}
	u := m.lookup(user)
	if u == nil {
		return 0, nil
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	last, used := u.cooldowns[id]
	if !used {
		return 0, nil
	}
	return max(ab.Cooldown-m.clock.Now().Sub(last), 0), nil
}

// CompactExpired prunes expired statuses from every list and returns how
// many were removed.
func (m *Manager) CompactExpired() int {
	m.unitsMu.RLock()
	units := make([]*unit, 0, len(m.units))
	for _, u := range m.units {
		units = append(units, u)
	}
	m.unitsMu.RUnlock()

	now := m.clock.Now()
	var n int
	for _, u := range units {
		u.mu.Lock()
		n += u.prune(now)
		u.mu.Unlock()
	}
	return n
}
