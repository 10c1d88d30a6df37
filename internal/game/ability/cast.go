package ability

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/udisondev/combatcore/internal/model"
	"github.com/udisondev/combatcore/internal/notify"
)

// Result is the outcome of a successful UseAbility.
type Result struct {
	AbilityID     model.AbilityID
	User          model.CharacterID
	Target        model.CharacterID
	Element       model.Element
	Effectiveness int32 // percent applied for the target element
	Modifier      int32 // percent from the user's buffs and debuffs
	Power         int32
	StatusApplied bool
	Combo         *model.ComboBonus
}

// UseAbility casts ability from user onto target and returns the final effect power.
//
// Workflow:
//  1. Caller must own user or be allowlisted
//  2. Ability must exist, be active and be off cooldown for user
//     and both characters must be known to the provider
//  3. Power = BasePower x effectiveness(ability element, target element)
//  4. Adjusted by the user's active buffs and debuffs (expired ones pruned)
//  5. A status is appended to the target when the ability has a duration
//  6. Elemental combo tracking; a completed combo multiplies the result
//
// State is committed only after every check passed.
func (m *Manager) UseAbility(ctx context.Context, caller model.Caller, id model.AbilityID, user, target model.CharacterID) (Result, error) {
	res, events, err := m.cast(ctx, caller, id, user, target)
	if err != nil {
		m.metrics.Rejected("use_ability", reason(err))
		slog.Debug("use ability rejected",
			"ability", id,
			"user", user,
			"target", target,
			"error", err)
		return Result{}, err
	}

	m.metrics.AbilityUsed(res.Element.String(), res.Combo != nil)
	slog.Debug("ability used",
		"ability", id,
		"user", user,
		"target", target,
		"power", res.Power,
		"effectiveness", res.Effectiveness)

	notify.PublishAll(ctx, m.sink, events)
	return res, nil
}

func (m *Manager) cast(ctx context.Context, caller model.Caller, id model.AbilityID, user, target model.CharacterID) (Result, []notify.Event, error) {
	if err := m.checkActor(ctx, caller, user); err != nil {
		return Result{}, nil, err
	}

	ab, ok := m.Ability(id)
	if !ok {
		return Result{}, nil, fmt.Errorf("%w: %d", ErrAbilityNotFound, id)
	}
	if !ab.Active {
		return Result{}, nil, ErrAbilityNotActive
	}

	eff := Normal
	if scaledByElement(ab.Type) && m.elements != nil {
		targetElement, err := m.elements.ElementOf(ctx, target)
		if err != nil {
			return Result{}, nil, fmt.Errorf("loading element of character %d: %w", target, err)
		}
		eff = m.Effectiveness(ab.Element, targetElement)
	}

	for _, id := range []model.CharacterID{user, target} {
		if err := m.requireCharacter(ctx, id); err != nil {
			return Result{}, nil, err
		}
	}

	uu, tu, unlock := m.lockPair(user, target)
	defer unlock()

	now := m.clock.Now()

	if last, used := uu.cooldowns[id]; used && now.Sub(last) < ab.Cooldown {
		return Result{}, nil, ErrAbilityOnCooldown
	}

	power := percentOf(ab.BasePower, eff)

	uu.prune(now)
	mod := uu.modifier(now)
	if mod != 0 {
		power = percentOf(power, 100+mod)
	}

	m.defsMu.RLock()
	chain, combo := m.advance(uu.chain, ab.Element, now)
	m.defsMu.RUnlock()

	final := power
	if combo != nil {
		final = percentOf(power, combo.Multiplier)
	}

	// Commit.
	uu.cooldowns[id] = now
	uu.chain = chain

	applied := ab.Duration > 0
	if applied {
		tu.prune(now)
		if limit := m.cfg.MaxStatusEffects; limit > 0 && len(tu.statuses) >= limit {
			drop := len(tu.statuses) - limit + 1
			clear(tu.statuses[:drop])
			tu.statuses = tu.statuses[drop:]
		}
		tu.statuses = append(tu.statuses, model.StatusEffect{
			SourceAbility: ab.ID,
			Kind:          ab.Type,
			StartedAt:     now,
			Duration:      ab.Duration,
			Power:         power,
			Active:        true,
		})
	}

	res := Result{
		AbilityID:     ab.ID,
		User:          user,
		Target:        target,
		Element:       ab.Element,
		Effectiveness: eff,
		Modifier:      mod,
		Power:         final,
		StatusApplied: applied,
	}
	if combo != nil {
		cb := *combo
		res.Combo = &cb
	}

	events := []notify.Event{{
		Kind:        notify.KindAbilityUsed,
		CharacterID: user,
		TargetID:    model.TargetID(target),
		AbilityID:   ab.ID,
		Detail:      ab.Name,
		Amount:      int64(final),
		At:          now,
	}}
	if combo != nil {
		events = append(events, notify.Event{
			Kind:        notify.KindElementalCombo,
			CharacterID: user,
			TargetID:    model.TargetID(target),
			AbilityID:   ab.ID,
			Detail:      combo.Name,
			Amount:      int64(combo.Multiplier),
			At:          now,
		})
	}
	return res, events, nil
}

// percentOf returns v * pct / 100 clamped to [0, MaxInt32].
func percentOf(v, pct int32) int32 {
	r := int64(v) * int64(pct) / 100
	return int32(max(min(r, math.MaxInt32), 0))
}
