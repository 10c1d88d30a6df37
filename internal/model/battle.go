package model

import (
	"time"

	"github.com/google/uuid"
)

// BattleState is the per-character battle record.
// At most one active battle exists per character.
type BattleState struct {
	BattleID        uuid.UUID
	Target          TargetID
	RemainingHealth int32
	StartedAt       time.Time
	ComboCount      int32
	Active          bool
}

// EffectState is an ongoing move-applied effect for one (character, effect kind).
type EffectState struct {
	Effect    SpecialEffect
	Magnitude int32
	ExpiresAt time.Time
}

// ActiveAt reports whether the effect is still running at now.
// An effect is inactive once now exceeds ExpiresAt, whether or not it was removed.
func (e EffectState) ActiveAt(now time.Time) bool {
	return e.Effect != EffectNone && !now.After(e.ExpiresAt)
}
