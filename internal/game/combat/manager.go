package combat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/combatcore/internal/config"
	"github.com/udisondev/combatcore/internal/gametime"
	"github.com/udisondev/combatcore/internal/metrics"
	"github.com/udisondev/combatcore/internal/model"
	"github.com/udisondev/combatcore/internal/notify"
	"github.com/udisondev/combatcore/internal/provider"
)

// CallerRegistry is the subset of authz.Registry the battle engine needs.
type CallerRegistry interface {
	IsAuthorized(ctx context.Context, caller model.Caller) (bool, error)
	SetAuthorized(ctx context.Context, caller model.Caller, allowed bool) error
	IsAdmin(ctx context.Context, caller model.Caller) (bool, error)
}

// StatusModifier reports the percent power modifier a character currently
// carries from ability status effects (buffs positive, debuffs negative).
type StatusModifier interface {
	PowerModifier(id model.CharacterID) int32
}

// CharacterModifiers are the admin-set per-character crit and life-steal rates.
type CharacterModifiers struct {
	CharacterID model.CharacterID
	CritChance  int32
	LifeSteal   int32
}

// DefinitionStore persists admin definitions. Optional.
type DefinitionStore interface {
	SaveMove(ctx context.Context, move model.CombatMove) error
	SaveComboPath(ctx context.Context, path model.ComboPath) error
	SaveCharacterModifiers(ctx context.Context, mods CharacterModifiers) error
}

// Manager is the move trigger and battle engine. It owns move definitions,
// combo paths, and per-character battle state, cooldowns, combo counters and
// effect states.
//
// Definitions are read-mostly behind defsMu. Each character's mutable state
// lives in its own fighter guarded by fighter.mu, so calls for different
// characters never contend.
type Manager struct {
	cfg   config.Combat
	calc  Calculator
	clock gametime.Clock
	rng   RandomSource

	characters provider.Characters
	equipment  provider.Equipment
	callers    CallerRegistry

	statusMod StatusModifier
	store     DefinitionStore
	sink      notify.Sink
	metrics   *metrics.Combat

	defsMu     sync.RWMutex
	moves      map[model.MoveID]*model.CombatMove
	comboPaths map[model.MoveID]map[model.MoveID]struct{}
	nextMoveID atomic.Uint32

	arenaMu  sync.RWMutex
	fighters map[model.CharacterID]*fighter
}

// NewManager creates a battle engine.
func NewManager(
	cfg config.Combat,
	clock gametime.Clock,
	rng RandomSource,
	characters provider.Characters,
	equipment provider.Equipment,
	callers CallerRegistry,
) *Manager {
	if clock == nil {
		clock = gametime.System{}
	}
	if rng == nil {
		rng = DefaultRandom{}
	}
	return &Manager{
		cfg:        cfg,
		calc:       NewCalculator(cfg),
		clock:      clock,
		rng:        rng,
		characters: characters,
		equipment:  equipment,
		callers:    callers,
		moves:      make(map[model.MoveID]*model.CombatMove),
		comboPaths: make(map[model.MoveID]map[model.MoveID]struct{}),
		fighters:   make(map[model.CharacterID]*fighter),
	}
}

// SetStatusModifier wires the ability engine's status-effect modifiers into
// move damage.
func (m *Manager) SetStatusModifier(sm StatusModifier) {
	m.statusMod = sm
}

// SetStore sets the write-through definition store.
func (m *Manager) SetStore(store DefinitionStore) {
	m.store = store
}

// SetNotifier sets the outcome notification sink.
func (m *Manager) SetNotifier(sink notify.Sink) {
	m.sink = sink
}

// SetMetrics sets Prometheus collectors.
func (m *Manager) SetMetrics(mc *metrics.Combat) {
	m.metrics = mc
}

// Outcome is the result of a successful TriggerMove.
type Outcome struct {
	CharacterID     model.CharacterID
	BattleID        string
	MoveID          model.MoveID
	MoveName        string
	Damage          int32
	Critical        bool
	LifeSteal       int32
	ComboCount      int32
	Effect          model.SpecialEffect
	EffectApplied   bool
	RemainingHealth int32
	BattleEnded     bool
}

// StartBattle opens a battle between character id and target.
// The caller must own the character or be on the authorized-caller allowlist.
func (m *Manager) StartBattle(ctx context.Context, caller model.Caller, id model.CharacterID, target model.TargetID, targetHealth int32) (model.BattleState, error) {
	if targetHealth <= 0 {
		return model.BattleState{}, fmt.Errorf("%w: target health must be positive, got %d", ErrInvalidParameters, targetHealth)
	}
	if err := m.checkActor(ctx, caller, id); err != nil {
		m.metrics.Rejected("start_battle", reason(err))
		return model.BattleState{}, err
	}

	f := m.fighter(id)
	f.mu.Lock()
	if f.battle.Active {
		f.mu.Unlock()
		m.metrics.Rejected("start_battle", reason(ErrBattleInProgress))
		return model.BattleState{}, ErrBattleInProgress
	}
	state := f.startBattle(target, targetHealth, m.clock.Now())
	f.mu.Unlock()

	m.metrics.BattleStarted()
	slog.Info("battle started",
		"character", id,
		"target", target,
		"health", targetHealth,
		"battle", state.BattleID)

	notify.PublishAll(ctx, m.sink, []notify.Event{{
		Kind:        notify.KindBattleStarted,
		CharacterID: id,
		TargetID:    target,
		BattleID:    state.BattleID.String(),
		Amount:      int64(targetHealth),
		At:          state.StartedAt,
	}})

	return state, nil
}

// EndBattle deactivates the character's battle without a defeat.
func (m *Manager) EndBattle(ctx context.Context, caller model.Caller, id model.CharacterID) error {
	if err := m.checkActor(ctx, caller, id); err != nil {
		return err
	}

	f := m.lookup(id)
	if f == nil {
		return ErrNoActiveBattle
	}
	f.mu.Lock()
	if !f.battle.Active {
		f.mu.Unlock()
		return ErrNoActiveBattle
	}
	state := f.battle
	f.endBattle()
	f.mu.Unlock()

	m.metrics.BattleEnded()
	slog.Info("battle ended", "character", id, "target", state.Target, "battle", state.BattleID)

	notify.PublishAll(ctx, m.sink, []notify.Event{{
		Kind:        notify.KindBattleEnded,
		CharacterID: id,
		TargetID:    state.Target,
		BattleID:    state.BattleID.String(),
		Amount:      int64(state.RemainingHealth),
		At:          m.clock.Now(),
	}})
	return nil
}

// TriggerMove resolves an external action for character id into a move.
//
// Workflow:
//  1. Require an active battle and an authorized caller
//  2. Select the eligible move (see selectMove)
//  3. Base damage from the calculator, scaled by the move
//  4. Combo, critical and life-steal resolution
//  5. Apply the move's special effect
//  6. Subtract damage from the target, end the battle at zero
//  7. Record cooldown and last move
//
// Per-character state is mutated only after every fallible step succeeded,
// so a failed call leaves it untouched.
func (m *Manager) TriggerMove(ctx context.Context, caller model.Caller, id model.CharacterID, action model.ActionType, value int64) (Outcome, error) {
	var (
		out    Outcome
		events []notify.Event
		err    error
	)
	// Only StartBattle and the admin setters create fighters.
	if f := m.lookup(id); f == nil {
		err = ErrNoActiveBattle
	} else {
		f.mu.Lock()
		out, events, err = m.resolve(ctx, f, caller, id, action, value)
		f.mu.Unlock()
	}

	if err != nil {
		m.metrics.Rejected("trigger_move", reason(err))
		slog.Debug("trigger move rejected",
			"character", id,
			"action", action,
			"value", value,
			"error", err)
		return Outcome{}, err
	}

	m.metrics.MoveResolved(out.MoveName, out.Critical, out.LifeSteal, out.ComboCount, out.BattleEnded)
	slog.Debug("move triggered",
		"character", id,
		"move", out.MoveName,
		"damage", out.Damage,
		"crit", out.Critical,
		"combo", out.ComboCount,
		"remaining", out.RemainingHealth)
	if out.BattleEnded {
		slog.Info("target defeated", "character", id, "battle", out.BattleID)
	}

	notify.PublishAll(ctx, m.sink, events)
	return out, nil
}

// resolve runs TriggerMove with f.mu held.
func (m *Manager) resolve(ctx context.Context, f *fighter, caller model.Caller, id model.CharacterID, action model.ActionType, value int64) (Outcome, []notify.Event, error) {
	if !f.battle.Active {
		return Outcome{}, nil, ErrNoActiveBattle
	}
	ok, err := m.callers.IsAuthorized(ctx, caller)
	if err != nil {
		return Outcome{}, nil, fmt.Errorf("checking caller: %w", err)
	}
	if !ok {
		return Outcome{}, nil, ErrNotAuthorized
	}

	now := m.clock.Now()

	move, err := m.selectMove(f, action, value, now)
	if err != nil {
		return Outcome{}, nil, err
	}

	base, err := m.baseDamage(ctx, id)
	if err != nil {
		return Outcome{}, nil, err
	}

	damage := clampInt32(int64(move.BaseDamage) + int64(base)*int64(move.ScalingFactor)/int64(m.cfg.ScalingDenominator))

	if m.statusMod != nil {
		if pct := m.statusMod.PowerModifier(id); pct != 0 {
			damage = percentOf(damage, max(100+pct, 0))
		}
	}
	damage = f.amplify(damage, now)

	// Combo
	combo := int32(1)
	if f.hasLastMove && m.continuesCombo(f.lastMove, move.ID) {
		combo = max(f.battle.ComboCount, 1) + 1
		bonus := clampInt32(int64(damage) * int64(combo) * int64(m.cfg.ComboBonusPercent) / 100)
		damage = clampInt32(int64(damage) + int64(bonus))
	}

	// Critical hit. The roll is drawn on every call so replays with a seeded
	// source stay aligned regardless of chance.
	chance := min(max(f.critChance+move.CritBonus, 0), m.cfg.MaxCritChance)
	crit := m.rng.IntN(100) < int(chance)
	if crit {
		damage = percentOf(damage, m.cfg.CriticalMultiplier)
	}

	lifeSteal := percentOf(damage, min(max(f.lifeSteal, 0), m.cfg.MaxLifeSteal))

	var effect model.EffectState
	if move.Effect != model.EffectNone {
		effect = model.EffectState{
			Effect:    move.Effect,
			Magnitude: move.EffectMagnitude,
			ExpiresAt: now.Add(m.cfg.EffectDurations.For(move.Effect)),
		}
	}

	remaining := f.battle.RemainingHealth - damage
	ended := remaining <= 0
	if ended {
		remaining = 0
	}

	// Commit.
	battle := f.battle
	f.cooldowns[move.ID] = now
	f.lastMove = move.ID
	f.hasLastMove = true
	if effect.Effect != model.EffectNone {
		f.effects[effect.Effect] = effect
	}
	if ended {
		f.battle.RemainingHealth = 0
		f.endBattle()
	} else {
		f.battle.RemainingHealth = remaining
		f.battle.ComboCount = combo
	}

	out := Outcome{
		CharacterID:     id,
		BattleID:        battle.BattleID.String(),
		MoveID:          move.ID,
		MoveName:        move.Name,
		Damage:          damage,
		Critical:        crit,
		LifeSteal:       lifeSteal,
		ComboCount:      combo,
		Effect:          move.Effect,
		EffectApplied:   effect.Effect != model.EffectNone,
		RemainingHealth: remaining,
		BattleEnded:     ended,
	}

	return out, outcomeEvents(out, battle.Target, effect, now), nil
}

// baseDamage runs the calculator with the character's stats and weapon.
func (m *Manager) baseDamage(ctx context.Context, id model.CharacterID) (int32, error) {
	stats, err := m.characters.Stats(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("loading stats of character %d: %w", id, err)
	}

	var weapon *model.WeaponStats
	if m.equipment != nil {
		weaponID, ok, err := m.equipment.EquippedWeapon(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("loading weapon of character %d: %w", id, err)
		}
		if ok {
			ws, err := m.equipment.WeaponStats(ctx, weaponID)
			if err != nil {
				return 0, fmt.Errorf("loading weapon %d stats: %w", weaponID, err)
			}
			weapon = &ws
		}
	}

	return m.calc.Calculate(stats, stats.Alignment, weapon)
}

// checkActor allows the character owner or an allowlisted caller.
func (m *Manager) checkActor(ctx context.Context, caller model.Caller, id model.CharacterID) error {
	owner, err := m.characters.IsOwner(ctx, id, caller)
	if err != nil {
		return fmt.Errorf("checking owner of character %d: %w", id, err)
	}
	if owner {
		return nil
	}
	ok, err := m.callers.IsAuthorized(ctx, caller)
	if err != nil {
		return fmt.Errorf("checking caller: %w", err)
	}
	if !ok {
		return ErrNotAuthorized
	}
	return nil
}

func outcomeEvents(out Outcome, target model.TargetID, effect model.EffectState, now time.Time) []notify.Event {
	ev := func(kind notify.Kind, amount int64, detail string) notify.Event {
		return notify.Event{
			Kind:        kind,
			CharacterID: out.CharacterID,
			TargetID:    target,
			BattleID:    out.BattleID,
			MoveID:      out.MoveID,
			Detail:      detail,
			Amount:      amount,
			At:          now,
		}
	}

	events := []notify.Event{ev(notify.KindMoveTriggered, int64(out.Damage), out.MoveName)}
	if out.Critical {
		events = append(events, ev(notify.KindCriticalHit, int64(out.Damage), out.MoveName))
	}
	if out.ComboCount > 1 {
		events = append(events, ev(notify.KindCombo, int64(out.ComboCount), out.MoveName))
	}
	if out.LifeSteal > 0 {
		events = append(events, ev(notify.KindLifeSteal, int64(out.LifeSteal), out.MoveName))
	}
	if out.EffectApplied {
		events = append(events, ev(notify.KindEffectApplied, int64(effect.Magnitude), effect.Effect.String()))
	}
	if out.BattleEnded {
		events = append(events, ev(notify.KindTargetDefeated, int64(out.Damage), out.MoveName))
	}
	return events
}
