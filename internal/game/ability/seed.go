package ability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/combatcore/internal/model"
)

// SeedFile is the YAML layout of the initial ability catalog.
type SeedFile struct {
	Abilities []SeedAbility `yaml:"abilities"`
	Combos    []SeedCombo   `yaml:"combos"`
}

// SeedAbility is one ability entry of a seed file.
type SeedAbility struct {
	Name              string        `yaml:"name"`
	Type              string        `yaml:"type"`
	Element           string        `yaml:"element"`
	BasePower         int32         `yaml:"base_power"`
	Duration          time.Duration `yaml:"duration"`
	Cooldown          time.Duration `yaml:"cooldown"`
	AreaOfEffect      bool          `yaml:"area_of_effect"`
	ChargeRequirement int32         `yaml:"charge_requirement"`
	Requirements      []string      `yaml:"requirements"`
}

// SeedCombo is one elemental combo entry of a seed file.
type SeedCombo struct {
	Name       string        `yaml:"name"`
	Elements   []string      `yaml:"elements"`
	Window     time.Duration `yaml:"window"`
	Multiplier int32         `yaml:"multiplier"`
}

// LoadSeed reads a seed file. A missing file yields an empty catalog.
func LoadSeed(path string) (SeedFile, error) {
	var seed SeedFile
	if path == "" {
		return seed, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return seed, nil
		}
		return seed, fmt.Errorf("reading seed file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return seed, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	return seed, nil
}

// Seed creates every ability and combo of seed, bypassing admin checks.
// Definitions go through the store like admin-created ones.
func (m *Manager) Seed(ctx context.Context, seed SeedFile) error {
	for _, sa := range seed.Abilities {
		typ, err := model.ParseAbilityType(sa.Type)
		if err != nil {
			return fmt.Errorf("seed ability %q: %w: %v", sa.Name, ErrInvalidParameters, err)
		}
		elem, err := model.ParseElement(sa.Element)
		if err != nil {
			return fmt.Errorf("seed ability %q: %w: %v", sa.Name, ErrUnknownElement, err)
		}
		if _, err := m.createAbility(ctx, AbilitySpec{
			Name:              sa.Name,
			Type:              typ,
			Element:           elem,
			BasePower:         sa.BasePower,
			Duration:          sa.Duration,
			Cooldown:          sa.Cooldown,
			AreaOfEffect:      sa.AreaOfEffect,
			ChargeRequirement: sa.ChargeRequirement,
			Requirements:      sa.Requirements,
		}); err != nil {
			return fmt.Errorf("seed ability %q: %w", sa.Name, err)
		}
	}

	for _, sc := range seed.Combos {
		elems := make([]model.Element, 0, len(sc.Elements))
		for _, name := range sc.Elements {
			e, err := model.ParseElement(name)
			if err != nil {
				return fmt.Errorf("seed combo %q: %w: %v", sc.Name, ErrUnknownElement, err)
			}
			elems = append(elems, e)
		}
		if _, err := m.createComboBonus(ctx, ComboSpec{
			Name:       sc.Name,
			Elements:   elems,
			Window:     sc.Window,
			Multiplier: sc.Multiplier,
		}); err != nil {
			return fmt.Errorf("seed combo %q: %w", sc.Name, err)
		}
	}
	return nil
}
