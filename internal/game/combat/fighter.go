package combat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/combatcore/internal/model"
)

// fighter holds one character's mutable combat state.
type fighter struct {
	mu sync.Mutex

	battle      model.BattleState
	cooldowns   map[model.MoveID]time.Time // last use per move
	lastMove    model.MoveID
	hasLastMove bool
	effects     map[model.SpecialEffect]model.EffectState

	critChance int32
	lifeSteal  int32
}

func newFighter() *fighter {
	return &fighter{
		cooldowns: make(map[model.MoveID]time.Time),
		effects:   make(map[model.SpecialEffect]model.EffectState),
	}
}

// fighter returns the state for id, creating it on first use.
func (m *Manager) fighter(id model.CharacterID) *fighter {
	m.arenaMu.RLock()
	f, ok := m.fighters[id]
	m.arenaMu.RUnlock()
	if ok {
		return f
	}

	m.arenaMu.Lock()
	defer m.arenaMu.Unlock()
	if f, ok = m.fighters[id]; ok {
		return f
	}
	f = newFighter()
	m.fighters[id] = f
	return f
}

// lookup returns the state for id or nil.
func (m *Manager) lookup(id model.CharacterID) *fighter {
	m.arenaMu.RLock()
	defer m.arenaMu.RUnlock()
	return m.fighters[id]
}

// startBattle resets the battle record and drops move effects left over
// from the previous battle. Cooldowns survive. Caller holds f.mu.
func (f *fighter) startBattle(target model.TargetID, health int32, now time.Time) model.BattleState {
	f.battle = model.BattleState{
		BattleID:        uuid.New(),
		Target:          target,
		RemainingHealth: health,
		StartedAt:       now,
		ComboCount:      0,
		Active:          true,
	}
	f.hasLastMove = false
	f.lastMove = 0
	clear(f.effects)
	return f.battle
}

// endBattle deactivates the battle and resets the combo. Caller holds f.mu.
func (f *fighter) endBattle() {
	f.battle.Active = false
	f.battle.ComboCount = 1
	if f.battle.RemainingHealth < 0 {
		f.battle.RemainingHealth = 0
	}
}

// amplify applies running effects to outgoing damage:
// ARMOR_BREAK adds magnitude percent, DOT adds magnitude flat.
// STUN and WEAKEN are tracked only.
func (f *fighter) amplify(damage int32, now time.Time) int32 {
	if e, ok := f.effects[model.EffectArmorBreak]; ok && e.ActiveAt(now) && e.Magnitude > 0 {
		damage = clampInt32(int64(damage) + int64(percentOf(damage, e.Magnitude)))
	}
	if e, ok := f.effects[model.EffectDamageOverTime]; ok && e.ActiveAt(now) && e.Magnitude > 0 {
		damage = clampInt32(int64(damage) + int64(e.Magnitude))
	}
	return damage
}

// compact drops expired effects. Caller holds f.mu.
func (f *fighter) compact(now time.Time) int {
	var n int
	for kind, e := range f.effects {
		if !e.ActiveAt(now) {
			delete(f.effects, kind)
			n++
		}
	}
	return n
}
