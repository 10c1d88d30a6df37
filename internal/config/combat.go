package config

import (
	"fmt"
	"time"

	"github.com/udisondev/combatcore/internal/model"
)

// Combat holds the tuning constants of the damage calculator and battle engine.
type Combat struct {
	BaseDamage              int32 `yaml:"base_damage"`
	AffinityBonusMultiplier int32 `yaml:"affinity_bonus_multiplier"` // scaled by ScalingDenominator
	ScalingDenominator      int32 `yaml:"scaling_denominator"`
	ComboBonusPercent       int32 `yaml:"combo_bonus_percent"`
	CriticalMultiplier      int32 `yaml:"critical_multiplier"` // percent, 200 = x2
	MaxCritChance           int32 `yaml:"max_crit_chance"`     // percent
	MaxLifeSteal            int32 `yaml:"max_life_steal"`      // percent

	EffectDurations EffectDurations `yaml:"effect_durations"`

	// RandomSeed makes critical-hit rolls replayable. Zero uses the global generator.
	RandomSeed uint64 `yaml:"random_seed" env:"COMBAT_RANDOM_SEED"`
}

// EffectDurations is how long each move special effect lasts once applied.
type EffectDurations struct {
	DamageOverTime time.Duration `yaml:"dot"`
	ArmorBreak     time.Duration `yaml:"armor_break"`
	Stun           time.Duration `yaml:"stun"`
	Weaken         time.Duration `yaml:"weaken"`
}

// For returns the duration configured for effect e.
func (d EffectDurations) For(e model.SpecialEffect) time.Duration {
	switch e {
	case model.EffectDamageOverTime:
		return d.DamageOverTime
	case model.EffectArmorBreak:
		return d.ArmorBreak
	case model.EffectStun:
		return d.Stun
	case model.EffectWeaken:
		return d.Weaken
	default:
		return 0
	}
}

// DefaultCombat returns the reference tuning: base 10, affinity x1.5,
// combo +10% per chain step, crit x2 capped at 50%, life steal capped at 20%.
func DefaultCombat() Combat {
	return Combat{
		BaseDamage:              10,
		AffinityBonusMultiplier: 150,
		ScalingDenominator:      100,
		ComboBonusPercent:       10,
		CriticalMultiplier:      200,
		MaxCritChance:           50,
		MaxLifeSteal:            20,
		EffectDurations: EffectDurations{
			DamageOverTime: 10 * time.Second,
			ArmorBreak:     15 * time.Second,
			Stun:           3 * time.Second,
			Weaken:         10 * time.Second,
		},
	}
}

// Validate checks the tuning is internally consistent.
func (c Combat) Validate() error {
	if c.BaseDamage < 0 {
		return fmt.Errorf("base_damage must be >= 0, got %d", c.BaseDamage)
	}
	if c.ScalingDenominator <= 0 {
		return fmt.Errorf("scaling_denominator must be > 0, got %d", c.ScalingDenominator)
	}
	if c.AffinityBonusMultiplier < c.ScalingDenominator {
		return fmt.Errorf("affinity_bonus_multiplier %d is below scaling_denominator %d", c.AffinityBonusMultiplier, c.ScalingDenominator)
	}
	if c.CriticalMultiplier < 100 {
		return fmt.Errorf("critical_multiplier must be >= 100, got %d", c.CriticalMultiplier)
	}
	if c.MaxCritChance < 0 || c.MaxCritChance > 100 {
		return fmt.Errorf("max_crit_chance must be in [0,100], got %d", c.MaxCritChance)
	}
	if c.MaxLifeSteal < 0 || c.MaxLifeSteal > 100 {
		return fmt.Errorf("max_life_steal must be in [0,100], got %d", c.MaxLifeSteal)
	}
	if c.ComboBonusPercent < 0 {
		return fmt.Errorf("combo_bonus_percent must be >= 0, got %d", c.ComboBonusPercent)
	}
	return nil
}

// Abilities holds the tuning of the ability and elemental engine.
type Abilities struct {
	MaxStatusEffects int    `yaml:"max_status_effects" env:"MAX_STATUS_EFFECTS"`
	SeedFile         string `yaml:"seed_file" env:"SEED_FILE"`
}

// DefaultAbilities returns the default ability engine tuning.
func DefaultAbilities() Abilities {
	return Abilities{
		MaxStatusEffects: 32,
		SeedFile:         "config/abilities.yaml",
	}
}

// Validate checks the ability tuning.
func (a Abilities) Validate() error {
	if a.MaxStatusEffects <= 0 {
		return fmt.Errorf("max_status_effects must be > 0, got %d", a.MaxStatusEffects)
	}
	return nil
}
