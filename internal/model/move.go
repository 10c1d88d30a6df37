package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ActionType is an external action kind that can trigger combat moves
// (e.g. "TRADE", "STAKE", "QUEST_COMPLETE").
type ActionType string

// SpecialEffect is the closed set of secondary effects a move may apply.
type SpecialEffect uint8

const (
	EffectNone SpecialEffect = iota
	EffectDamageOverTime
	EffectArmorBreak
	EffectStun
	EffectWeaken
)

var specialEffectNames = [...]string{"NONE", "DOT", "ARMOR_BREAK", "STUN", "WEAKEN"}

func (e SpecialEffect) String() string {
	if int(e) < len(specialEffectNames) {
		return specialEffectNames[e]
	}
	return fmt.Sprintf("EFFECT(%d)", e)
}

// Valid reports whether e is a declared effect kind.
func (e SpecialEffect) Valid() bool {
	return int(e) < len(specialEffectNames)
}

// SpecialEffects lists every applicable effect kind (EffectNone excluded).
func SpecialEffects() []SpecialEffect {
	return []SpecialEffect{EffectDamageOverTime, EffectArmorBreak, EffectStun, EffectWeaken}
}

// ParseSpecialEffect converts a name like "ARMOR_BREAK" into a SpecialEffect.
// Empty string maps to EffectNone.
func ParseSpecialEffect(s string) (SpecialEffect, error) {
	if s == "" {
		return EffectNone, nil
	}
	for i, name := range specialEffectNames {
		if strings.EqualFold(s, name) {
			return SpecialEffect(i), nil
		}
	}
	return EffectNone, fmt.Errorf("unknown special effect %q", s)
}

// CombatMove is an admin-defined move. Immutable once created.
type CombatMove struct {
	ID              MoveID
	Name            string
	BaseDamage      int32
	ScalingFactor   int32 // percent of the calculator figure added to BaseDamage
	Cooldown        time.Duration
	Triggers        []ActionType
	MinValue        int64
	Effect          SpecialEffect
	EffectMagnitude int32
	CritBonus       int32 // percent points added to the character crit chance
	Active          bool
}

// TriggeredBy reports whether the move reacts to action a with value v.
func (m *CombatMove) TriggeredBy(a ActionType, v int64) bool {
	return m.Active && v >= m.MinValue && slices.Contains(m.Triggers, a)
}

// ComboPath is a directed edge: To continues a combo begun by From.
type ComboPath struct {
	From MoveID
	To   MoveID
}
