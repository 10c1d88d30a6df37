package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/combatcore/internal/game/ability"
	"github.com/udisondev/combatcore/internal/model"
)

// AbilityRepository persists abilities, elemental combos and effectiveness
// overrides. Implements ability.DefinitionStore.
type AbilityRepository struct {
	pool *pgxpool.Pool
}

// NewAbilityRepository creates an AbilityRepository.
func NewAbilityRepository(pool *pgxpool.Pool) *AbilityRepository {
	return &AbilityRepository{pool: pool}
}

// SaveAbility inserts or replaces an ability.
func (r *AbilityRepository) SaveAbility(ctx context.Context, a model.Ability) error {
	reqs := a.Requirements
	if reqs == nil {
		reqs = []string{}
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO abilities
		 (ability_id, name, ability_type, element, base_power, duration_ms, cooldown_ms,
		  area_of_effect, charge_requirement, requirements, active)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 ON CONFLICT (ability_id) DO UPDATE SET
		  name=$2, ability_type=$3, element=$4, base_power=$5, duration_ms=$6, cooldown_ms=$7,
		  area_of_effect=$8, charge_requirement=$9, requirements=$10, active=$11`,
		int32(a.ID), a.Name, int16(a.Type), int16(a.Element), a.BasePower,
		a.Duration.Milliseconds(), a.Cooldown.Milliseconds(),
		a.AreaOfEffect, a.ChargeRequirement, reqs, a.Active,
	)
	if err != nil {
		return fmt.Errorf("save ability %d: %w", a.ID, err)
	}
	return nil
}

// LoadAbilities returns every stored ability ordered by id.
func (r *AbilityRepository) LoadAbilities(ctx context.Context) ([]model.Ability, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ability_id, name, ability_type, element, base_power, duration_ms, cooldown_ms,
		        area_of_effect, charge_requirement, requirements, active
		 FROM abilities ORDER BY ability_id`)
	if err != nil {
		return nil, fmt.Errorf("querying abilities: %w", err)
	}
	defer rows.Close()

	var out []model.Ability
	for rows.Next() {
		var (
			a                      model.Ability
			id                     int32
			typ, elem              int16
			durationMS, cooldownMS int64
			reqs                   []string
		)
		if err := rows.Scan(&id, &a.Name, &typ, &elem, &a.BasePower, &durationMS, &cooldownMS,
			&a.AreaOfEffect, &a.ChargeRequirement, &reqs, &a.Active); err != nil {
			return nil, fmt.Errorf("scanning ability row: %w", err)
		}
		a.ID = model.AbilityID(id)
		a.Type = model.AbilityType(typ)
		a.Element = model.Element(elem)
		a.Duration = time.Duration(durationMS) * time.Millisecond
		a.Cooldown = time.Duration(cooldownMS) * time.Millisecond
		if len(reqs) > 0 {
			a.Requirements = reqs
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ability rows: %w", err)
	}
	return out, nil
}

// SaveComboBonus inserts or replaces an elemental combo.
func (r *AbilityRepository) SaveComboBonus(ctx context.Context, c model.ComboBonus) error {
	elems := make([]int16, len(c.Elements))
	for i, e := range c.Elements {
		elems[i] = int16(e)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO combo_bonuses (combo_id, name, elements, window_ms, multiplier)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (combo_id) DO UPDATE SET
		  name=$2, elements=$3, window_ms=$4, multiplier=$5`,
		int32(c.ID), c.Name, elems, c.Window.Milliseconds(), c.Multiplier,
	)
	if err != nil {
		return fmt.Errorf("save combo %d: %w", c.ID, err)
	}
	return nil
}

// LoadComboBonuses returns every stored combo ordered by id.
func (r *AbilityRepository) LoadComboBonuses(ctx context.Context) ([]model.ComboBonus, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT combo_id, name, elements, window_ms, multiplier FROM combo_bonuses ORDER BY combo_id`)
	if err != nil {
		return nil, fmt.Errorf("querying combos: %w", err)
	}
	defer rows.Close()

	var out []model.ComboBonus
	for rows.Next() {
		var (
			c        model.ComboBonus
			id       int32
			elems    []int16
			windowMS int64
		)
		if err := rows.Scan(&id, &c.Name, &elems, &windowMS, &c.Multiplier); err != nil {
			return nil, fmt.Errorf("scanning combo row: %w", err)
		}
		c.ID = model.ComboBonusID(id)
		c.Window = time.Duration(windowMS) * time.Millisecond
		c.Elements = make([]model.Element, len(elems))
		for i, e := range elems {
			c.Elements[i] = model.Element(e)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating combo rows: %w", err)
	}
	return out, nil
}

// SaveEffectiveness upserts an effectiveness override.
func (r *AbilityRepository) SaveEffectiveness(ctx context.Context, o ability.EffectivenessOverride) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO effectiveness_overrides (attacker, defender, percent) VALUES ($1,$2,$3)
		 ON CONFLICT (attacker, defender) DO UPDATE SET percent=$3`,
		int16(o.Attacker), int16(o.Defender), o.Percent,
	)
	if err != nil {
		return fmt.Errorf("save effectiveness %s vs %s: %w", o.Attacker, o.Defender, err)
	}
	return nil
}

// LoadEffectiveness returns every stored override.
func (r *AbilityRepository) LoadEffectiveness(ctx context.Context) ([]ability.EffectivenessOverride, error) {
	rows, err := r.pool.Query(ctx, `SELECT attacker, defender, percent FROM effectiveness_overrides`)
	if err != nil {
		return nil, fmt.Errorf("querying effectiveness overrides: %w", err)
	}
	defer rows.Close()

	var out []ability.EffectivenessOverride
	for rows.Next() {
		var (
			o        ability.EffectivenessOverride
			att, def int16
		)
		if err := rows.Scan(&att, &def, &o.Percent); err != nil {
			return nil, fmt.Errorf("scanning effectiveness row: %w", err)
		}
		o.Attacker, o.Defender = model.Element(att), model.Element(def)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating effectiveness rows: %w", err)
	}
	return out, nil
}

// RestoreAbilities loads every ability definition into m and reports how
// many abilities were found.
func (r *AbilityRepository) RestoreAbilities(ctx context.Context, m *ability.Manager) (int, error) {
	abilities, err := r.LoadAbilities(ctx)
	if err != nil {
		return 0, err
	}
	combos, err := r.LoadComboBonuses(ctx)
	if err != nil {
		return 0, err
	}
	overrides, err := r.LoadEffectiveness(ctx)
	if err != nil {
		return 0, err
	}
	m.Restore(abilities, combos, overrides)
	return len(abilities), nil
}
