// Package notify delivers combat outcome notifications (critical hits,
// combos, defeats, ability uses) to log, message bus and journal sinks.
package notify

import (
	"time"

	"github.com/udisondev/combatcore/internal/model"
)

// Kind names a notification type. It doubles as the NATS subject suffix.
type Kind string

const (
	KindBattleStarted  Kind = "battle.started"
	KindBattleEnded    Kind = "battle.ended"
	KindTargetDefeated Kind = "battle.defeated"
	KindMoveTriggered  Kind = "move.triggered"
	KindCriticalHit    Kind = "move.critical"
	KindLifeSteal      Kind = "move.lifesteal"
	KindCombo          Kind = "move.combo"
	KindEffectApplied  Kind = "move.effect"
	KindAbilityUsed    Kind = "ability.used"
	KindElementalCombo Kind = "ability.combo"
)

// Event is one notification. Amount carries the kind-specific figure
// (damage, stolen health, combo length, effect power).
type Event struct {
	Kind        Kind              `json:"kind"`
	CharacterID model.CharacterID `json:"character_id"`
	TargetID    model.TargetID    `json:"target_id,omitempty"`
	BattleID    string            `json:"battle_id,omitempty"`
	MoveID      model.MoveID      `json:"move_id,omitempty"`
	AbilityID   model.AbilityID   `json:"ability_id,omitempty"`
	Detail      string            `json:"detail,omitempty"`
	Amount      int64             `json:"amount"`
	At          time.Time         `json:"at"`
}
