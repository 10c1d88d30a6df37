package combat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/udisondev/combatcore/internal/model"
)

// MoveSpec describes a move to create.
type MoveSpec struct {
	Name            string
	BaseDamage      int32
	ScalingFactor   int32
	Cooldown        time.Duration
	Triggers        []model.ActionType
	MinValue        int64
	Effect          model.SpecialEffect
	EffectMagnitude int32
	CritBonus       int32
}

func (s MoveSpec) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrNameRequired
	}
	if len(s.Triggers) == 0 {
		return ErrTriggersRequired
	}
	for _, t := range s.Triggers {
		if strings.TrimSpace(string(t)) == "" {
			return fmt.Errorf("%w: empty trigger", ErrTriggersRequired)
		}
	}
	if s.BaseDamage < 0 || s.ScalingFactor < 0 || s.Cooldown < 0 || s.MinValue < 0 ||
		s.EffectMagnitude < 0 || s.CritBonus < 0 {
		return fmt.Errorf("%w: negative move field", ErrInvalidParameters)
	}
	if !s.Effect.Valid() {
		return fmt.Errorf("%w: effect %s", ErrInvalidParameters, s.Effect)
	}
	return nil
}

// requireAdmin fails with ErrNotAuthorized unless caller holds the admin role.
func (m *Manager) requireAdmin(ctx context.Context, caller model.Caller) error {
	ok, err := m.callers.IsAdmin(ctx, caller)
	if err != nil {
		return fmt.Errorf("checking admin: %w", err)
	}
	if !ok {
		return ErrNotAuthorized
	}
	return nil
}

// CreateMove registers a new active move and returns it with its assigned id.
func (m *Manager) CreateMove(ctx context.Context, caller model.Caller, spec MoveSpec) (model.CombatMove, error) {
	if err := m.requireAdmin(ctx, caller); err != nil {
		return model.CombatMove{}, err
	}
	if err := spec.validate(); err != nil {
		return model.CombatMove{}, err
	}

	move := model.CombatMove{
		ID:              model.MoveID(m.nextMoveID.Add(1)),
		Name:            strings.TrimSpace(spec.Name),
		BaseDamage:      spec.BaseDamage,
		ScalingFactor:   spec.ScalingFactor,
		Cooldown:        spec.Cooldown,
		Triggers:        append([]model.ActionType(nil), spec.Triggers...),
		MinValue:        spec.MinValue,
		Effect:          spec.Effect,
		EffectMagnitude: spec.EffectMagnitude,
		CritBonus:       spec.CritBonus,
		Active:          true,
	}

	if m.store != nil {
		if err := m.store.SaveMove(ctx, move); err != nil {
			return model.CombatMove{}, fmt.Errorf("saving move %q: %w", move.Name, err)
		}
	}

	m.defsMu.Lock()
	m.moves[move.ID] = &move
	m.defsMu.Unlock()

	slog.Info("move created",
		"id", move.ID,
		"name", move.Name,
		"base_damage", move.BaseDamage,
		"cooldown", move.Cooldown,
		"triggers", move.Triggers)
	return move, nil
}

// SetMoveActive enables or disables a move. Inactive moves are never selected.
func (m *Manager) SetMoveActive(ctx context.Context, caller model.Caller, id model.MoveID, active bool) error {
	if err := m.requireAdmin(ctx, caller); err != nil {
		return err
	}

	m.defsMu.RLock()
	cur, ok := m.moves[id]
	m.defsMu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrMoveNotFound, id)
	}

	updated := *cur
	updated.Active = active
	if m.store != nil {
		if err := m.store.SaveMove(ctx, updated); err != nil {
			return fmt.Errorf("saving move %d: %w", id, err)
		}
	}

	// Definitions are never mutated in place; readers may hold the old pointer.
	m.defsMu.Lock()
	m.moves[id] = &updated
	m.defsMu.Unlock()

	slog.Info("move activity changed", "id", id, "active", active)
	return nil
}

// CreateComboPath registers that move `to` continues a combo begun by `from`.
func (m *Manager) CreateComboPath(ctx context.Context, caller model.Caller, from, to model.MoveID) error {
	if err := m.requireAdmin(ctx, caller); err != nil {
		return err
	}

	m.defsMu.RLock()
	_, okFrom := m.moves[from]
	_, okTo := m.moves[to]
	m.defsMu.RUnlock()
	if !okFrom || !okTo {
		return fmt.Errorf("%w: %d -> %d", ErrInvalidMoves, from, to)
	}

	path := model.ComboPath{From: from, To: to}
	if m.store != nil {
		if err := m.store.SaveComboPath(ctx, path); err != nil {
			return fmt.Errorf("saving combo path %d -> %d: %w", from, to, err)
		}
	}

	m.defsMu.Lock()
	m.addComboPath(path)
	m.defsMu.Unlock()

	slog.Info("combo path created", "from", from, "to", to)
	return nil
}

// addComboPath inserts path. Caller holds defsMu for writing.
func (m *Manager) addComboPath(path model.ComboPath) {
	next, ok := m.comboPaths[path.From]
	if !ok {
		next = make(map[model.MoveID]struct{})
		m.comboPaths[path.From] = next
	}
	next[path.To] = struct{}{}
}

// SetCriticalChance sets the character's base crit chance in percent [0, MaxCritChance].
func (m *Manager) SetCriticalChance(ctx context.Context, caller model.Caller, id model.CharacterID, chance int32) error {
	if err := m.requireAdmin(ctx, caller); err != nil {
		return err
	}
	switch {
	case chance < 0:
		return fmt.Errorf("%w: negative crit chance %d", ErrInvalidParameters, chance)
	case chance > m.cfg.MaxCritChance:
		return fmt.Errorf("%w: %d > %d", ErrChanceTooHigh, chance, m.cfg.MaxCritChance)
	}

	return m.updateModifiers(ctx, id, func(mods *CharacterModifiers) { mods.CritChance = chance })
}

// SetLifeSteal sets the character's life-steal percentage [0, MaxLifeSteal].
func (m *Manager) SetLifeSteal(ctx context.Context, caller model.Caller, id model.CharacterID, amount int32) error {
	if err := m.requireAdmin(ctx, caller); err != nil {
		return err
	}
	switch {
	case amount < 0:
		return fmt.Errorf("%w: negative life steal %d", ErrInvalidParameters, amount)
	case amount > m.cfg.MaxLifeSteal:
		return fmt.Errorf("%w: %d > %d", ErrAmountTooHigh, amount, m.cfg.MaxLifeSteal)
	}

	return m.updateModifiers(ctx, id, func(mods *CharacterModifiers) { mods.LifeSteal = amount })
}

// updateModifiers applies fn to the character's modifiers, persists them and
// commits under the fighter lock.
func (m *Manager) updateModifiers(ctx context.Context, id model.CharacterID, fn func(*CharacterModifiers)) error {
	f := m.fighter(id)
	f.mu.Lock()
	defer f.mu.Unlock()

	mods := CharacterModifiers{CharacterID: id, CritChance: f.critChance, LifeSteal: f.lifeSteal}
	fn(&mods)

	if m.store != nil {
		if err := m.store.SaveCharacterModifiers(ctx, mods); err != nil {
			return fmt.Errorf("saving modifiers of character %d: %w", id, err)
		}
	}

	f.critChance = mods.CritChance
	f.lifeSteal = mods.LifeSteal
	slog.Info("character modifiers changed",
		"character", id,
		"crit_chance", mods.CritChance,
		"life_steal", mods.LifeSteal)
	return nil
}

// SetAuthorizedCaller adds or removes target from the caller allowlist.
func (m *Manager) SetAuthorizedCaller(ctx context.Context, caller, target model.Caller, allowed bool) error {
	if err := m.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if strings.TrimSpace(string(target)) == "" {
		return fmt.Errorf("%w: empty caller", ErrInvalidParameters)
	}
	if err := m.callers.SetAuthorized(ctx, target, allowed); err != nil {
		return fmt.Errorf("updating caller %q: %w", target, err)
	}
	slog.Info("authorized caller changed", "caller", target, "allowed", allowed)
	return nil
}

// Restore loads persisted definitions at startup, bypassing admin checks
// and write-through. Must be called before serving.
func (m *Manager) Restore(moves []model.CombatMove, paths []model.ComboPath, mods []CharacterModifiers) {
	m.defsMu.Lock()
	var maxID model.MoveID
	for _, mv := range moves {
		m.moves[mv.ID] = &mv
		maxID = max(maxID, mv.ID)
	}
	for _, p := range paths {
		m.addComboPath(p)
	}
	m.defsMu.Unlock()

	if uint32(maxID) > m.nextMoveID.Load() {
		m.nextMoveID.Store(uint32(maxID))
	}

	for _, md := range mods {
		f := m.fighter(md.CharacterID)
		f.mu.Lock()
		f.critChance = min(max(md.CritChance, 0), m.cfg.MaxCritChance)
		f.lifeSteal = min(max(md.LifeSteal, 0), m.cfg.MaxLifeSteal)
		f.mu.Unlock()
	}

	slog.Info("combat definitions restored",
		"moves", len(moves),
		"combo_paths", len(paths),
		"modifiers", len(mods))
}
