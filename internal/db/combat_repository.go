package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/combatcore/internal/game/combat"
	"github.com/udisondev/combatcore/internal/model"
)

// CombatRepository persists move definitions, combo paths and per-character
// crit/life-steal modifiers. Implements combat.DefinitionStore.
type CombatRepository struct {
	pool *pgxpool.Pool
}

// NewCombatRepository creates a CombatRepository.
func NewCombatRepository(pool *pgxpool.Pool) *CombatRepository {
	return &CombatRepository{pool: pool}
}

// SaveMove inserts or replaces a move.
func (r *CombatRepository) SaveMove(ctx context.Context, mv model.CombatMove) error {
	triggers := make([]string, len(mv.Triggers))
	for i, t := range mv.Triggers {
		triggers[i] = string(t)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO combat_moves
		 (move_id, name, base_damage, scaling_factor, cooldown_ms, triggers, min_value,
		  effect, effect_magnitude, crit_bonus, active)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 ON CONFLICT (move_id) DO UPDATE SET
		  name=$2, base_damage=$3, scaling_factor=$4, cooldown_ms=$5, triggers=$6,
		  min_value=$7, effect=$8, effect_magnitude=$9, crit_bonus=$10, active=$11`,
		int32(mv.ID), mv.Name, mv.BaseDamage, mv.ScalingFactor, mv.Cooldown.Milliseconds(),
		triggers, mv.MinValue, int16(mv.Effect), mv.EffectMagnitude, mv.CritBonus, mv.Active,
	)
	if err != nil {
		return fmt.Errorf("save move %d: %w", mv.ID, err)
	}
	return nil
}

// LoadMoves returns every stored move ordered by id.
func (r *CombatRepository) LoadMoves(ctx context.Context) ([]model.CombatMove, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT move_id, name, base_damage, scaling_factor, cooldown_ms, triggers, min_value,
		        effect, effect_magnitude, crit_bonus, active
		 FROM combat_moves ORDER BY move_id`)
	if err != nil {
		return nil, fmt.Errorf("querying moves: %w", err)
	}
	defer rows.Close()

	var moves []model.CombatMove
	for rows.Next() {
		var (
			mv         model.CombatMove
			id         int32
			cooldownMS int64
			triggers   []string
			effect     int16
		)
		if err := rows.Scan(&id, &mv.Name, &mv.BaseDamage, &mv.ScalingFactor, &cooldownMS,
			&triggers, &mv.MinValue, &effect, &mv.EffectMagnitude, &mv.CritBonus, &mv.Active); err != nil {
			return nil, fmt.Errorf("scanning move row: %w", err)
		}
		mv.ID = model.MoveID(id)
		mv.Cooldown = time.Duration(cooldownMS) * time.Millisecond
		mv.Effect = model.SpecialEffect(effect)
		mv.Triggers = make([]model.ActionType, len(triggers))
		for i, t := range triggers {
			mv.Triggers[i] = model.ActionType(t)
		}
		moves = append(moves, mv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating move rows: %w", err)
	}
	return moves, nil
}

// SaveComboPath stores a combo edge. Saving an existing edge is a no-op.
func (r *CombatRepository) SaveComboPath(ctx context.Context, p model.ComboPath) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO combo_paths (from_move, to_move) VALUES ($1,$2)
		 ON CONFLICT (from_move, to_move) DO NOTHING`,
		int32(p.From), int32(p.To),
	)
	if err != nil {
		return fmt.Errorf("save combo path %d -> %d: %w", p.From, p.To, err)
	}
	return nil
}

// LoadComboPaths returns every stored combo edge.
func (r *CombatRepository) LoadComboPaths(ctx context.Context) ([]model.ComboPath, error) {
	rows, err := r.pool.Query(ctx, `SELECT from_move, to_move FROM combo_paths ORDER BY from_move, to_move`)
	if err != nil {
		return nil, fmt.Errorf("querying combo paths: %w", err)
	}
	defer rows.Close()

	var paths []model.ComboPath
	for rows.Next() {
		var from, to int32
		if err := rows.Scan(&from, &to); err != nil {
			return nil, fmt.Errorf("scanning combo path row: %w", err)
		}
		paths = append(paths, model.ComboPath{From: model.MoveID(from), To: model.MoveID(to)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating combo path rows: %w", err)
	}
	return paths, nil
}

// SaveCharacterModifiers upserts a character's crit chance and life steal.
func (r *CombatRepository) SaveCharacterModifiers(ctx context.Context, m combat.CharacterModifiers) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO character_modifiers (character_id, crit_chance, life_steal)
		 VALUES ($1,$2,$3)
		 ON CONFLICT (character_id) DO UPDATE SET crit_chance=$2, life_steal=$3`,
		int64(m.CharacterID), m.CritChance, m.LifeSteal,
	)
	if err != nil {
		return fmt.Errorf("save modifiers of character %d: %w", m.CharacterID, err)
	}
	return nil
}

// LoadCharacterModifiers returns every stored modifier row.
func (r *CombatRepository) LoadCharacterModifiers(ctx context.Context) ([]combat.CharacterModifiers, error) {
	rows, err := r.pool.Query(ctx, `SELECT character_id, crit_chance, life_steal FROM character_modifiers`)
	if err != nil {
		return nil, fmt.Errorf("querying character modifiers: %w", err)
	}
	defer rows.Close()

	var out []combat.CharacterModifiers
	for rows.Next() {
		var (
			m  combat.CharacterModifiers
			id int64
		)
		if err := rows.Scan(&id, &m.CritChance, &m.LifeSteal); err != nil {
			return nil, fmt.Errorf("scanning modifier row: %w", err)
		}
		m.CharacterID = model.CharacterID(id)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating modifier rows: %w", err)
	}
	return out, nil
}

// RestoreCombat loads every combat definition into m.
func (r *CombatRepository) RestoreCombat(ctx context.Context, m *combat.Manager) error {
	moves, err := r.LoadMoves(ctx)
	if err != nil {
		return err
	}
	paths, err := r.LoadComboPaths(ctx)
	if err != nil {
		return err
	}
	mods, err := r.LoadCharacterModifiers(ctx)
	if err != nil {
		return err
	}
	m.Restore(moves, paths, mods)
	return nil
}
