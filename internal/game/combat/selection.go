package combat

import (
	"time"

	"github.com/udisondev/combatcore/internal/model"
)

// selectMove picks the move for (action, value).
//
// Candidates are active moves listing action with MinValue <= value.
// Among candidates off cooldown the highest BaseDamage wins, ties go to
// the lowest id. When every candidate is cooling down the call fails
// with ErrMoveOnCooldown. Caller holds f.mu.
func (m *Manager) selectMove(f *fighter, action model.ActionType, value int64, now time.Time) (model.CombatMove, error) {
	m.defsMu.RLock()
	defer m.defsMu.RUnlock()

	var (
		best       *model.CombatMove
		candidates int
	)
	for _, mv := range m.moves {
		if !mv.TriggeredBy(action, value) {
			continue
		}
		candidates++
		if !f.available(mv, now) {
			continue
		}
		if best == nil ||
			mv.BaseDamage > best.BaseDamage ||
			(mv.BaseDamage == best.BaseDamage && mv.ID < best.ID) {
			best = mv
		}
	}

	switch {
	case candidates == 0:
		return model.CombatMove{}, ErrNoEligibleMoves
	case best == nil:
		return model.CombatMove{}, ErrMoveOnCooldown
	}
	return *best, nil
}

// available reports whether mv is off cooldown: now - lastUse >= Cooldown.
func (f *fighter) available(mv *model.CombatMove, now time.Time) bool {
	last, used := f.cooldowns[mv.ID]
	if !used {
		return true
	}
	return now.Sub(last) >= mv.Cooldown
}

// remaining returns the cooldown left for mv, zero when available.
func (f *fighter) remaining(mv *model.CombatMove, now time.Time) time.Duration {
	last, used := f.cooldowns[mv.ID]
	if !used {
		return 0
	}
	return max(mv.Cooldown-now.Sub(last), 0)
}

// continuesCombo reports whether a combo path from -> to exists.
func (m *Manager) continuesCombo(from, to model.MoveID) bool {
	m.defsMu.RLock()
	defer m.defsMu.RUnlock()
	_, ok := m.comboPaths[from][to]
	return ok
}
