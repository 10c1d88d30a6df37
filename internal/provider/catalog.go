package provider

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/combatcore/internal/model"
)

// Catalog is the YAML layout of a static character roster. It stands in for
// the character tables when the server runs without a database.
type Catalog struct {
	Weapons    []CatalogWeapon    `yaml:"weapons"`
	Characters []CatalogCharacter `yaml:"characters"`
}

// CatalogWeapon is one weapon entry of a catalog.
type CatalogWeapon struct {
	ID       model.WeaponID `yaml:"id"`
	Affinity string         `yaml:"affinity"`
	Strength int32          `yaml:"strength"`
	Agility  int32          `yaml:"agility"`
	Magic    int32          `yaml:"magic"`
}

// CatalogCharacter is one character entry of a catalog. Weapon 0 means
// nothing is equipped.
type CatalogCharacter struct {
	ID        model.CharacterID `yaml:"id"`
	Owner     string            `yaml:"owner"`
	Alignment string            `yaml:"alignment"`
	Element   string            `yaml:"element"`
	Strength  int32             `yaml:"strength"`
	Agility   int32             `yaml:"agility"`
	Magic     int32             `yaml:"magic"`
	Level     int32             `yaml:"level"`
	Weapon    model.WeaponID    `yaml:"weapon"`
}

// LoadCatalog reads a catalog file. A missing file yields an empty catalog.
func LoadCatalog(path string) (Catalog, error) {
	var c Catalog
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, fmt.Errorf("reading character catalog %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parsing character catalog %s: %w", path, err)
	}
	return c, nil
}

// Apply validates every entry of c and loads the catalog into m.
// Nothing is written when any entry is invalid.
func (m *Memory) Apply(c Catalog) error {
	weapons := make(map[model.WeaponID]model.WeaponStats, len(c.Weapons))
	for _, w := range c.Weapons {
		if w.ID == 0 {
			return errors.New("weapon id 0 is reserved")
		}
		if _, dup := weapons[w.ID]; dup {
			return fmt.Errorf("weapon %d: duplicate id", w.ID)
		}
		affinity, err := model.ParseAlignment(w.Affinity)
		if err != nil {
			return fmt.Errorf("weapon %d: %w", w.ID, err)
		}
		stats := model.WeaponStats{
			Bonuses:  model.StatBonuses{Strength: w.Strength, Agility: w.Agility, Magic: w.Magic},
			Affinity: affinity,
		}
		if err := stats.Validate(); err != nil {
			return fmt.Errorf("weapon %d: %w", w.ID, err)
		}
		weapons[w.ID] = stats
	}

	type entry struct {
		rec    characterRecord
		weapon model.WeaponID
	}
	chars := make(map[model.CharacterID]entry, len(c.Characters))
	for _, ch := range c.Characters {
		if _, dup := chars[ch.ID]; dup {
			return fmt.Errorf("character %d: duplicate id", ch.ID)
		}
		alignment := model.AlignmentNone
		if ch.Alignment != "" {
			a, err := model.ParseAlignment(ch.Alignment)
			if err != nil {
				return fmt.Errorf("character %d: %w", ch.ID, err)
			}
			alignment = a
		}
		element := model.ElementNeutral
		if ch.Element != "" {
			e, err := model.ParseElement(ch.Element)
			if err != nil {
				return fmt.Errorf("character %d: %w", ch.ID, err)
			}
			element = e
		}
		stats := model.CharacterStats{
			Strength:  ch.Strength,
			Agility:   ch.Agility,
			Magic:     ch.Magic,
			Level:     ch.Level,
			Alignment: alignment,
		}
		if err := stats.Validate(); err != nil {
			return fmt.Errorf("character %d: %w", ch.ID, err)
		}
		if ch.Weapon != 0 {
			if _, ok := weapons[ch.Weapon]; !ok {
				return fmt.Errorf("character %d: weapon %d: %w", ch.ID, ch.Weapon, ErrWeaponNotFound)
			}
		}
		chars[ch.ID] = entry{
			rec:    characterRecord{stats: stats, owner: model.Caller(ch.Owner), element: element},
			weapon: ch.Weapon,
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, w := range weapons {
		m.weapons[id] = w
	}
	for id, e := range chars {
		m.characters[id] = e.rec
		if e.weapon != 0 {
			m.equipped[id] = e.weapon
		} else {
			delete(m.equipped, id)
		}
	}
	return nil
}
