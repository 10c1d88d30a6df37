package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/combatcore/internal/model"
)

func TestMemory_Characters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.PutCharacter(1, "alice", model.CharacterStats{Strength: 12, Level: 3, Alignment: model.AlignmentStrength})

	stats, err := m.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(12), stats.Strength)

	owner, err := m.IsOwner(ctx, 1, "alice")
	require.NoError(t, err)
	assert.True(t, owner)

	owner, err = m.IsOwner(ctx, 1, "bob")
	require.NoError(t, err)
	assert.False(t, owner)

	_, err = m.Stats(ctx, 2)
	assert.ErrorIs(t, err, ErrCharacterNotFound)
}

func TestMemory_Equipment(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.PutWeapon(7, model.WeaponStats{Bonuses: model.StatBonuses{Magic: 4}, Affinity: model.AlignmentMagic})

	_, ok, err := m.EquippedWeapon(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	m.Equip(1, 7)
	w, ok, err := m.EquippedWeapon(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)

	stats, err := m.WeaponStats(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, model.AlignmentMagic, stats.Affinity)

	m.Unequip(1)
	_, ok, _ = m.EquippedWeapon(ctx, 1)
	assert.False(t, ok)

	_, err = m.WeaponStats(ctx, 99)
	assert.ErrorIs(t, err, ErrWeaponNotFound)
}

func TestMemory_Elements(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	e, err := m.ElementOf(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, model.ElementNeutral, e)

	m.SetElement(5, model.ElementEarth)
	e, _ = m.ElementOf(ctx, 5)
	assert.Equal(t, model.ElementEarth, e)
}

func TestLoadCatalog(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "characters.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
weapons:
  - id: 9
    affinity: magic
    magic: 5
characters:
  - id: 1
    owner: alice
    alignment: magic
    element: fire
    magic: 10
    level: 4
    weapon: 9
  - id: 2
    owner: bob
`), 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	m := NewMemory()
	require.NoError(t, m.Apply(c))

	stats, err := m.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.CharacterStats{Magic: 10, Level: 4, Alignment: model.AlignmentMagic}, stats)

	owner, err := m.IsOwner(ctx, 1, "alice")
	require.NoError(t, err)
	assert.True(t, owner)

	e, _ := m.ElementOf(ctx, 1)
	assert.Equal(t, model.ElementFire, e)

	w, ok, err := m.EquippedWeapon(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	ws, err := m.WeaponStats(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, int32(5), ws.Bonuses.Magic)

	_, ok, _ = m.EquippedWeapon(ctx, 2)
	assert.False(t, ok)
	e, _ = m.ElementOf(ctx, 2)
	assert.Equal(t, model.ElementNeutral, e)

	empty, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, empty.Characters)
}

func TestMemory_ApplyRejectsInvalidCatalog(t *testing.T) {
	tests := []struct {
		name string
		c    Catalog
	}{
		{"unknown weapon", Catalog{Characters: []CatalogCharacter{{ID: 1, Weapon: 3}}}},
		{"duplicate character", Catalog{Characters: []CatalogCharacter{{ID: 1}, {ID: 1}}}},
		{"unknown element", Catalog{Characters: []CatalogCharacter{{ID: 1, Element: "plasma"}}}},
		{"unknown alignment", Catalog{Characters: []CatalogCharacter{{ID: 1, Alignment: "luck"}}}},
		{"negative stat", Catalog{Characters: []CatalogCharacter{{ID: 1, Level: -1}}}},
		{"weapon without affinity", Catalog{Weapons: []CatalogWeapon{{ID: 1, Affinity: "none"}}}},
		{"weapon id zero", Catalog{Weapons: []CatalogWeapon{{Affinity: "magic"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMemory()
			c := tt.c
			c.Characters = append([]CatalogCharacter{{ID: 50, Owner: "carol"}}, c.Characters...)
			require.Error(t, m.Apply(c))

			_, err := m.Stats(context.Background(), 50)
			assert.ErrorIs(t, err, ErrCharacterNotFound, "nothing is written on failure")
		})
	}
}

func TestLoadCatalog_SampleFile(t *testing.T) {
	c, err := LoadCatalog(filepath.Join("..", "..", "config", "characters.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, c.Characters)
	require.NoError(t, NewMemory().Apply(c))
}
