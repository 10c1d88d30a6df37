package combat

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/combatcore/internal/model"
)

// BattleState returns the character's battle record. ok is false when the
// character never started a battle.
func (m *Manager) BattleState(id model.CharacterID) (state model.BattleState, ok bool) {
	f := m.lookup(id)
	if f == nil {
		return model.BattleState{}, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.battle.BattleID == uuid.Nil {
		return model.BattleState{}, false
	}
	return f.battle, true
}

// CooldownRemaining returns how long until the character may use the move again.
func (m *Manager) CooldownRemaining(id model.CharacterID, move model.MoveID) (time.Duration, error) {
	mv, ok := m.Move(move)
	if !ok {
		return 0, ErrMoveNotFound
	}
	f := m.lookup(id)
	if f == nil {
		return 0, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remaining(&mv, m.clock.Now()), nil
}

// ActiveEffects lists the character's unexpired move effects ordered by kind.
func (m *Manager) ActiveEffects(id model.CharacterID) []model.EffectState {
	f := m.lookup(id)
	if f == nil {
		return nil
	}
	now := m.clock.Now()

	f.mu.Lock()
	out := make([]model.EffectState, 0, len(f.effects))
	for _, e := range f.effects {
		if e.ActiveAt(now) {
			out = append(out, e)
		}
	}
	f.mu.Unlock()

	slices.SortFunc(out, func(a, b model.EffectState) int { return cmp.Compare(a.Effect, b.Effect) })
	return out
}

// Modifiers returns the character's crit chance and life steal.
func (m *Manager) Modifiers(id model.CharacterID) CharacterModifiers {
	mods := CharacterModifiers{CharacterID: id}
	f := m.lookup(id)
	if f == nil {
		return mods
	}
	f.mu.Lock()
	mods.CritChance, mods.LifeSteal = f.critChance, f.lifeSteal
	f.mu.Unlock()
	return mods
}

// Move returns a move definition by id.
func (m *Manager) Move(id model.MoveID) (model.CombatMove, bool) {
	m.defsMu.RLock()
	defer m.defsMu.RUnlock()
	mv, ok := m.moves[id]
	if !ok {
		return model.CombatMove{}, false
	}
	return *mv, true
}

// Moves lists all move definitions ordered by id.
func (m *Manager) Moves() []model.CombatMove {
	m.defsMu.RLock()
	out := make([]model.CombatMove, 0, len(m.moves))
	for _, mv := range m.moves {
		out = append(out, *mv)
	}
	m.defsMu.RUnlock()

	slices.SortFunc(out, func(a, b model.CombatMove) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// ComboPaths lists all combo edges ordered by (From, To).
func (m *Manager) ComboPaths() []model.ComboPath {
	m.defsMu.RLock()
	var out []model.ComboPath
	for from, next := range m.comboPaths {
		for to := range next {
			out = append(out, model.ComboPath{From: from, To: to})
		}
	}
	m.defsMu.RUnlock()

	slices.SortFunc(out, func(a, b model.ComboPath) int {
		return cmp.Or(cmp.Compare(a.From, b.From), cmp.Compare(a.To, b.To))
	})
	return out
}

// CompactExpired drops expired effect states from memory and returns how
// many were removed. Expiry is already honored lazily; this only frees space.
func (m *Manager) CompactExpired() int {
	m.arenaMu.RLock()
	fighters := make([]*fighter, 0, len(m.fighters))
	for _, f := range m.fighters {
		fighters = append(fighters, f)
	}
	m.arenaMu.RUnlock()

	now := m.clock.Now()
	var n int
	for _, f := range fighters {
		f.mu.Lock()
		n += f.compact(now)
		f.mu.Unlock()
	}
	return n
}
