// Package ability implements the ability and elemental engine: ability
// definitions, the elemental effectiveness table, per-target status effect
// lists and elemental combo tracking.
package ability

import (
	"context"
	"fmt"
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

// CallerRegistry is the subset of authz.Registry the ability engine needs.
type CallerRegistry interface {
	IsAuthorized(ctx context.Context, caller model.Caller) (bool, error)
	IsAdmin(ctx context.Context, caller model.Caller) (bool, error)
}

// DefinitionStore persists admin definitions. Optional.
type DefinitionStore interface {
	SaveAbility(ctx context.Context, a model.Ability) error
	SaveComboBonus(ctx context.Context, c model.ComboBonus) error
	SaveEffectiveness(ctx context.Context, o EffectivenessOverride) error
}

// Manager is the ability and elemental engine.
//
// Definitions (abilities, combo bonuses, effectiveness) are read-mostly
// behind defsMu. Per-character cooldowns, status lists and combo tracking
// live in units, each with its own lock.
type Manager struct {
	cfg   config.Abilities
	clock gametime.Clock

	characters provider.Characters
	elements   provider.Elements
	callers    CallerRegistry

	store   DefinitionStore
	sink    notify.Sink
	metrics *metrics.Combat

	defsMu      sync.RWMutex
	abilities   map[model.AbilityID]*model.Ability
	combos      map[model.ComboBonusID]*model.ComboBonus
	table       EffectivenessTable
	nextAbility atomic.Uint32
	nextCombo   atomic.Uint32

	unitsMu sync.RWMutex
	units   map[model.CharacterID]*unit
}

// NewManager creates an ability engine with the default effectiveness table.
func NewManager(
	cfg config.Abilities,
	clock gametime.Clock,
	characters provider.Characters,
	elements provider.Elements,
	callers CallerRegistry,
) *Manager {
	if clock == nil {
		clock = gametime.System{}
	}
	return &Manager{
		cfg:        cfg,
		clock:      clock,
		characters: characters,
		elements:   elements,
		callers:    callers,
		abilities:  make(map[model.AbilityID]*model.Ability),
		combos:     make(map[model.ComboBonusID]*model.ComboBonus),
		table:      DefaultEffectiveness(),
		units:      make(map[model.CharacterID]*unit),
	}
}

// SetStore sets the write-through definition store.
func (m *Manager) SetStore(store DefinitionStore) {
	m.store = store
}

// SetNotifier sets the notification sink.
func (m *Manager) SetNotifier(sink notify.Sink) {
	m.sink = sink
}

// SetMetrics sets Prometheus collectors.
func (m *Manager) SetMetrics(mc *metrics.Combat) {
	m.metrics = mc
}

// unit holds one character's ability state.
type unit struct {
	mu sync.Mutex

	cooldowns map[model.AbilityID]time.Time // last use per ability
	statuses  []model.StatusEffect          // oldest first
	chain     comboChain
}

func newUnit() *unit {
	return &unit{cooldowns: make(map[model.AbilityID]time.Time)}
}

func (m *Manager) unit(id model.CharacterID) *unit {
	m.unitsMu.RLock()
	u, ok := m.units[id]
	m.unitsMu.RUnlock()
	if ok {
		return u
	}

	m.unitsMu.Lock()
	defer m.unitsMu.Unlock()
	if u, ok = m.units[id]; ok {
		return u
	}
	u = newUnit()
	m.units[id] = u
	return u
}

func (m *Manager) lookup(id model.CharacterID) *unit {
	m.unitsMu.RLock()
	defer m.unitsMu.RUnlock()
	return m.units[id]
}

// lockPair locks the user and target units in id order and returns the
// matching unlock. user and target may be the same character.
func (m *Manager) lockPair(user, target model.CharacterID) (*unit, *unit, func()) {
	uu := m.unit(user)
	if user == target {
		uu.mu.Lock()
		return uu, uu, uu.mu.Unlock
	}

	tu := m.unit(target)
	first, second := uu, tu
	if target < user {
		first, second = tu, uu
	}
	first.mu.Lock()
	second.mu.Lock()
	return uu, tu, func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}

// prune drops expired statuses in place. Caller holds u.mu.
func (u *unit) prune(now time.Time) int {
	kept := u.statuses[:0]
	for _, s := range u.statuses {
		if s.ActiveAt(now) {
			kept = append(kept, s)
		}
	}
	n := len(u.statuses) - len(kept)
	clear(u.statuses[len(kept):])
	u.statuses = kept
	return n
}

// modifier sums active buff powers minus active debuff powers as a percent.
// Caller holds u.mu.
func (u *unit) modifier(now time.Time) int32 {
	var pct int64
	for _, s := range u.statuses {
		if !s.ActiveAt(now) {
			continue
		}
		switch s.Kind {
		case model.AbilityBuff:
			pct += int64(s.Power)
		case model.AbilityDebuff:
			pct -= int64(s.Power)
		}
	}
	return int32(max(min(pct, 10_000), -100))
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

// requireCharacter fails with provider.ErrCharacterNotFound for unknown ids,
// so units are only created for real characters.
func (m *Manager) requireCharacter(ctx context.Context, id model.CharacterID) error {
	if _, err := m.characters.Stats(ctx, id); err != nil {
		return fmt.Errorf("loading character %d: %w", id, err)
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
