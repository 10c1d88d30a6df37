package combat

import (
	"fmt"
	"math"

	"github.com/udisondev/combatcore/internal/config"
	"github.com/udisondev/combatcore/internal/model"
)

// Calculator computes the base potential damage of an attacker.
// Pure: no state, no side effects.
type Calculator struct {
	BaseDamage              int32
	AffinityBonusMultiplier int32
	ScalingDenominator      int32
}

// NewCalculator builds a calculator from combat tuning.
func NewCalculator(cfg config.Combat) Calculator {
	return Calculator{
		BaseDamage:              cfg.BaseDamage,
		AffinityBonusMultiplier: cfg.AffinityBonusMultiplier,
		ScalingDenominator:      cfg.ScalingDenominator,
	}
}

// Calculate returns BaseDamage plus, with a weapon, the attacker stat matching
// the weapon affinity and the weapon's own bonus for that stat. When the
// attacker alignment equals the weapon affinity the running total is
// multiplied by AffinityBonusMultiplier / ScalingDenominator.
//
// weapon may be nil (unarmed).
func (c Calculator) Calculate(stats model.CharacterStats, alignment model.Alignment, weapon *model.WeaponStats) (int32, error) {
	if err := stats.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !alignment.Valid() {
		return 0, fmt.Errorf("%w: alignment %d", ErrInvalidInput, alignment)
	}

	total := int64(c.BaseDamage)
	if weapon == nil {
		return clampInt32(total), nil
	}
	if err := weapon.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	total += int64(stats.Stat(weapon.Affinity)) + int64(weapon.Bonuses.Stat(weapon.Affinity))

	if alignment == weapon.Affinity {
		total = total * int64(c.AffinityBonusMultiplier) / int64(c.ScalingDenominator)
	}

	return clampInt32(total), nil
}

// percentOf returns v * pct / 100 computed in 64 bits.
func percentOf(v, pct int32) int32 {
	return clampInt32(int64(v) * int64(pct) / 100)
}

func clampInt32(v int64) int32 {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < 0:
		return 0
	default:
		return int32(v)
	}
}
