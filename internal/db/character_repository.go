package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/combatcore/internal/model"
	"github.com/udisondev/combatcore/internal/provider"
)

// CharacterRepository reads character stats, ownership, elements and
// equipped weapons. Implements provider.Characters, provider.Equipment and
// provider.Elements.
type CharacterRepository struct {
	pool *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository.
func NewCharacterRepository(pool *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{pool: pool}
}

// CharacterRow is a full characters table row.
type CharacterRow struct {
	ID      model.CharacterID
	Owner   model.Caller
	Stats   model.CharacterStats
	Element model.Element
}

// Save inserts or replaces a character.
func (r *CharacterRepository) Save(ctx context.Context, c CharacterRow) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO characters
		 (character_id, owner, strength, agility, magic, level, alignment, element)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (character_id) DO UPDATE SET
		  owner=$2, strength=$3, agility=$4, magic=$5, level=$6, alignment=$7, element=$8`,
		int64(c.ID), string(c.Owner), c.Stats.Strength, c.Stats.Agility, c.Stats.Magic,
		c.Stats.Level, int16(c.Stats.Alignment), int16(c.Element),
	)
	if err != nil {
		return fmt.Errorf("save character %d: %w", c.ID, err)
	}
	return nil
}

// SaveWeapon inserts or replaces a weapon.
func (r *CharacterRepository) SaveWeapon(ctx context.Context, id model.WeaponID, w model.WeaponStats) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO weapons (weapon_id, strength_bonus, agility_bonus, magic_bonus, affinity)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (weapon_id) DO UPDATE SET
		  strength_bonus=$2, agility_bonus=$3, magic_bonus=$4, affinity=$5`,
		int64(id), w.Bonuses.Strength, w.Bonuses.Agility, w.Bonuses.Magic, int16(w.Affinity),
	)
	if err != nil {
		return fmt.Errorf("save weapon %d: %w", id, err)
	}
	return nil
}

// Equip sets the character's equipped weapon.
func (r *CharacterRepository) Equip(ctx context.Context, id model.CharacterID, weapon model.WeaponID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO equipped_weapons (character_id, weapon_id) VALUES ($1,$2)
		 ON CONFLICT (character_id) DO UPDATE SET weapon_id=$2`,
		int64(id), int64(weapon),
	)
	if err != nil {
		return fmt.Errorf("equip weapon %d on character %d: %w", weapon, id, err)
	}
	return nil
}

// Unequip clears the character's weapon slot.
func (r *CharacterRepository) Unequip(ctx context.Context, id model.CharacterID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM equipped_weapons WHERE character_id = $1`, int64(id)); err != nil {
		return fmt.Errorf("unequip character %d: %w", id, err)
	}
	return nil
}

func (r *CharacterRepository) Stats(ctx context.Context, id model.CharacterID) (model.CharacterStats, error) {
	var (
		s         model.CharacterStats
		alignment int16
	)
	err := r.pool.QueryRow(ctx,
		`SELECT strength, agility, magic, level, alignment FROM characters WHERE character_id = $1`,
		int64(id),
	).Scan(&s.Strength, &s.Agility, &s.Magic, &s.Level, &alignment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.CharacterStats{}, fmt.Errorf("character %d: %w", id, provider.ErrCharacterNotFound)
		}
		return model.CharacterStats{}, fmt.Errorf("querying character %d: %w", id, err)
	}
	s.Alignment = model.Alignment(alignment)
	return s, nil
}

func (r *CharacterRepository) IsOwner(ctx context.Context, id model.CharacterID, caller model.Caller) (bool, error) {
	if caller == "" {
		return false, nil
	}
	var owned bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM characters WHERE character_id = $1 AND owner = $2)`,
		int64(id), string(caller),
	).Scan(&owned)
	if err != nil {
		return false, fmt.Errorf("checking owner of character %d: %w", id, err)
	}
	return owned, nil
}

func (r *CharacterRepository) EquippedWeapon(ctx context.Context, id model.CharacterID) (model.WeaponID, bool, error) {
	var weapon int64
	err := r.pool.QueryRow(ctx,
		`SELECT weapon_id FROM equipped_weapons WHERE character_id = $1`, int64(id),
	).Scan(&weapon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("querying weapon of character %d: %w", id, err)
	}
	return model.WeaponID(weapon), true, nil
}

func (r *CharacterRepository) WeaponStats(ctx context.Context, weapon model.WeaponID) (model.WeaponStats, error) {
	var (
		w        model.WeaponStats
		affinity int16
	)
	err := r.pool.QueryRow(ctx,
		`SELECT strength_bonus, agility_bonus, magic_bonus, affinity FROM weapons WHERE weapon_id = $1`,
		int64(weapon),
	).Scan(&w.Bonuses.Strength, &w.Bonuses.Agility, &w.Bonuses.Magic, &affinity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.WeaponStats{}, fmt.Errorf("weapon %d: %w", weapon, provider.ErrWeaponNotFound)
		}
		return model.WeaponStats{}, fmt.Errorf("querying weapon %d: %w", weapon, err)
	}
	w.Affinity = model.Alignment(affinity)
	return w, nil
}

// ElementOf returns the character's element, ElementNeutral when unknown.
func (r *CharacterRepository) ElementOf(ctx context.Context, id model.CharacterID) (model.Element, error) {
	var elem int16
	err := r.pool.QueryRow(ctx,
		`SELECT element FROM characters WHERE character_id = $1`, int64(id),
	).Scan(&elem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ElementNeutral, nil
		}
		return model.ElementNeutral, fmt.Errorf("querying element of character %d: %w", id, err)
	}
	return model.Element(elem), nil
}
