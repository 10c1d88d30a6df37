package ability

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/udisondev/combatcore/internal/model"
)

// AbilitySpec describes an ability to create.
type AbilitySpec struct {
	Name              string
	Type              model.AbilityType
	Element           model.Element
	BasePower         int32
	Duration          time.Duration
	Cooldown          time.Duration
	AreaOfEffect      bool
	ChargeRequirement int32
	Requirements      []string
}

func (s AbilitySpec) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrNameRequired
	}
	if !s.Type.Valid() {
		return fmt.Errorf("%w: ability type %s", ErrInvalidParameters, s.Type)
	}
	if !s.Element.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownElement, s.Element)
	}
	if s.BasePower < 0 || s.Duration < 0 || s.Cooldown < 0 || s.ChargeRequirement < 0 {
		return fmt.Errorf("%w: negative ability field", ErrInvalidParameters)
	}
	return nil
}

// ComboSpec describes an elemental combo to create.
type ComboSpec struct {
	Name       string
	Elements   []model.Element
	Window     time.Duration
	Multiplier int32 // percent
}

func (s ComboSpec) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrNameRequired
	}
	if len(s.Elements) < 2 {
		return ErrComboTooShort
	}
	for _, e := range s.Elements {
		if !e.Valid() {
			return fmt.Errorf("%w: %s", ErrUnknownElement, e)
		}
	}
	if s.Window <= 0 {
		return fmt.Errorf("%w: combo window must be positive", ErrInvalidParameters)
	}
	if s.Multiplier <= 0 {
		return fmt.Errorf("%w: combo multiplier must be positive", ErrInvalidParameters)
	}
	return nil
}

// CreateAbility registers a new active ability.
func (m *Manager) CreateAbility(ctx context.Context, caller model.Caller, spec AbilitySpec) (model.Ability, error) {
	if err := m.requireAdmin(ctx, caller); err != nil {
		return model.Ability{}, err
	}
	return m.createAbility(ctx, spec)
}

func (m *Manager) createAbility(ctx context.Context, spec AbilitySpec) (model.Ability, error) {
	if err := spec.validate(); err != nil {
		return model.Ability{}, err
	}

	ab := model.Ability{
		ID:                model.AbilityID(m.nextAbility.Add(1)),
		Name:              strings.TrimSpace(spec.Name),
		Type:              spec.Type,
		Element:           spec.Element,
		BasePower:         spec.BasePower,
		Duration:          spec.Duration,
		Cooldown:          spec.Cooldown,
		AreaOfEffect:      spec.AreaOfEffect,
		ChargeRequirement: spec.ChargeRequirement,
		Requirements:      slices.Clone(spec.Requirements),
		Active:            true,
	}

	if m.store != nil {
		if err := m.store.SaveAbility(ctx, ab); err != nil {
			return model.Ability{}, fmt.Errorf("saving ability %q: %w", ab.Name, err)
		}
	}

	m.defsMu.Lock()
	m.abilities[ab.ID] = &ab
	m.defsMu.Unlock()

	slog.Info("ability created",
		"id", ab.ID,
		"name", ab.Name,
		"type", ab.Type,
		"element", ab.Element,
		"power", ab.BasePower)
	return ab, nil
}

// SetAbilityActive enables or disables an ability.
func (m *Manager) SetAbilityActive(ctx context.Context, caller model.Caller, id model.AbilityID, active bool) error {
	if err := m.requireAdmin(ctx, caller); err != nil {
		return err
	}

	cur, ok := m.Ability(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrAbilityNotFound, id)
	}
	cur.Active = active

	if m.store != nil {
		if err := m.store.SaveAbility(ctx, cur); err != nil {
			return fmt.Errorf("saving ability %d: %w", id, err)
		}
	}

	m.defsMu.Lock()
	m.abilities[id] = &cur
	m.defsMu.Unlock()

	slog.Info("ability activity changed", "id", id, "active", active)
	return nil
}

// CreateComboBonus registers an elemental combo.
func (m *Manager) CreateComboBonus(ctx context.Context, caller model.Caller, spec ComboSpec) (model.ComboBonus, error) {
	if err := m.requireAdmin(ctx, caller); err != nil {
		return model.ComboBonus{}, err
	}
	return m.createComboBonus(ctx, spec)
}

func (m *Manager) createComboBonus(ctx context.Context, spec ComboSpec) (model.ComboBonus, error) {
	if err := spec.validate(); err != nil {
		return model.ComboBonus{}, err
	}

	cb := model.ComboBonus{
		ID:         model.ComboBonusID(m.nextCombo.Add(1)),
		Name:       strings.TrimSpace(spec.Name),
		Elements:   slices.Clone(spec.Elements),
		Window:     spec.Window,
		Multiplier: spec.Multiplier,
	}

	if m.store != nil {
		if err := m.store.SaveComboBonus(ctx, cb); err != nil {
			return model.ComboBonus{}, fmt.Errorf("saving combo %q: %w", cb.Name, err)
		}
	}

	m.defsMu.Lock()
	m.combos[cb.ID] = &cb
	m.defsMu.Unlock()

	slog.Info("elemental combo created",
		"id", cb.ID,
		"name", cb.Name,
		"elements", cb.Elements,
		"window", cb.Window,
		"multiplier", cb.Multiplier)
	return cb, nil
}

// Restore loads persisted definitions at startup, bypassing admin checks
// and write-through.
func (m *Manager) Restore(abilities []model.Ability, combos []model.ComboBonus, overrides []EffectivenessOverride) {
	m.defsMu.Lock()
	var maxAbility model.AbilityID
	for _, ab := range abilities {
		m.abilities[ab.ID] = &ab
		maxAbility = max(maxAbility, ab.ID)
	}
	var maxCombo model.ComboBonusID
	for _, cb := range combos {
		m.combos[cb.ID] = &cb
		maxCombo = max(maxCombo, cb.ID)
	}
	for _, o := range overrides {
		if o.Attacker.Valid() && o.Defender.Valid() {
			m.table[o.Attacker][o.Defender] = o.Percent
		}
	}
	m.defsMu.Unlock()

	if uint32(maxAbility) > m.nextAbility.Load() {
		m.nextAbility.Store(uint32(maxAbility))
	}
	if uint32(maxCombo) > m.nextCombo.Load() {
		m.nextCombo.Store(uint32(maxCombo))
	}

	slog.Info("ability definitions restored",
		"abilities", len(abilities),
		"combos", len(combos),
		"overrides", len(overrides))
}
