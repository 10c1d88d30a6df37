package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/combatcore/internal/model"
	"github.com/udisondev/combatcore/internal/notify"
)

// Journal appends combat notifications to combat_events. Implements notify.Sink.
type Journal struct {
	pool *pgxpool.Pool
}

// NewJournal creates a Journal.
func NewJournal(pool *pgxpool.Pool) *Journal {
	return &Journal{pool: pool}
}

// Publish appends ev.
func (j *Journal) Publish(ctx context.Context, ev notify.Event) error {
	var battle *uuid.UUID
	if ev.BattleID != "" {
		id, err := uuid.Parse(ev.BattleID)
		if err != nil {
			return fmt.Errorf("parsing battle id %q: %w", ev.BattleID, err)
		}
		battle = &id
	}

	_, err := j.pool.Exec(ctx,
		`INSERT INTO combat_events
		 (kind, character_id, target_id, battle_id, move_id, ability_id, detail, amount, occurred_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		string(ev.Kind), int64(ev.CharacterID), int64(ev.TargetID), battle,
		int32(ev.MoveID), int32(ev.AbilityID), ev.Detail, ev.Amount, ev.At,
	)
	if err != nil {
		return fmt.Errorf("journal %s for character %d: %w", ev.Kind, ev.CharacterID, err)
	}
	return nil
}

// Recent returns up to limit latest events of a character, newest first.
func (j *Journal) Recent(ctx context.Context, id model.CharacterID, limit int) ([]notify.Event, error) {
	rows, err := j.pool.Query(ctx,
		`SELECT kind, character_id, target_id, battle_id, move_id, ability_id, detail, amount, occurred_at
		 FROM combat_events
		 WHERE character_id = $1
		 ORDER BY event_id DESC
		 LIMIT $2`,
		int64(id), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying events of character %d: %w", id, err)
	}
	defer rows.Close()

	var out []notify.Event
	for rows.Next() {
		var (
			ev                notify.Event
			kind              string
			charID, targetID  int64
			battle            *uuid.UUID
			moveID, abilityID int32
			at                time.Time
		)
		if err := rows.Scan(&kind, &charID, &targetID, &battle, &moveID, &abilityID, &ev.Detail, &ev.Amount, &at); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		ev.Kind = notify.Kind(kind)
		ev.CharacterID = model.CharacterID(charID)
		ev.TargetID = model.TargetID(targetID)
		if battle != nil {
			ev.BattleID = battle.String()
		}
		ev.MoveID = model.MoveID(moveID)
		ev.AbilityID = model.AbilityID(abilityID)
		ev.At = at
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event rows: %w", err)
	}
	return out, nil
}
