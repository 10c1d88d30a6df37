package model

import (
	"fmt"
	"strings"
	"time"
)

// AbilityType is the closed set of ability behaviours.
type AbilityType uint8

const (
	AbilityDamage AbilityType = iota
	AbilityDamageOverTime
	AbilityBuff
	AbilityDebuff
	AbilityHeal
	AbilityShield
	AbilitySpecial
)

var abilityTypeNames = [...]string{"damage", "dot", "buff", "debuff", "heal", "shield", "special"}

func (t AbilityType) String() string {
	if int(t) < len(abilityTypeNames) {
		return abilityTypeNames[t]
	}
	return fmt.Sprintf("ability_type(%d)", t)
}

// Valid reports whether t is a declared ability type.
func (t AbilityType) Valid() bool {
	return int(t) < len(abilityTypeNames)
}

// ParseAbilityType converts a name like "debuff" into an AbilityType.
func ParseAbilityType(s string) (AbilityType, error) {
	for i, name := range abilityTypeNames {
		if strings.EqualFold(s, name) {
			return AbilityType(i), nil
		}
	}
	return AbilityDamage, fmt.Errorf("unknown ability type %q", s)
}

// Ability is an admin-defined elemental action. Immutable once created.
type Ability struct {
	ID                AbilityID
	Name              string
	Type              AbilityType
	Element           Element
	BasePower         int32
	Duration          time.Duration
	Cooldown          time.Duration
	AreaOfEffect      bool
	ChargeRequirement int32
	Requirements      []string
	Active            bool
}

// StatusEffect is one timed modifier instance applied to a target by an ability.
type StatusEffect struct {
	SourceAbility AbilityID
	Kind          AbilityType
	StartedAt     time.Time
	Duration      time.Duration
	Power         int32
	Active        bool
}

// ExpiresAt returns the instant after which the status no longer applies.
func (s StatusEffect) ExpiresAt() time.Time {
	return s.StartedAt.Add(s.Duration)
}

// ActiveAt reports whether the status applies at now.
// Expired entries are never active even if still stored.
func (s StatusEffect) ActiveAt(now time.Time) bool {
	return s.Active && !now.After(s.ExpiresAt())
}

// ComboBonus is an elemental combo: casting Elements in order, each within
// Window of the previous cast, multiplies the final cast's power.
type ComboBonus struct {
	ID         ComboBonusID
	Name       string
	Elements   []Element
	Window     time.Duration
	Multiplier int32 // percent, 150 = x1.5
}
