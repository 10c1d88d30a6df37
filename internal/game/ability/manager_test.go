package ability

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/combatcore/internal/authz"
	"github.com/udisondev/combatcore/internal/config"
	"github.com/udisondev/combatcore/internal/gametime"
	"github.com/udisondev/combatcore/internal/model"
	"github.com/udisondev/combatcore/internal/notify"
	"github.com/udisondev/combatcore/internal/provider"
)

const (
	admin  model.Caller = "admin"
	mage   model.Caller = "player-mage"
	oracle model.Caller = "oracle"

	caster  model.CharacterID = 1
	golem   model.CharacterID = 2 // earth
	serpent model.CharacterID = 3 // water
	dummy   model.CharacterID = 4 // neutral
)

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Publish(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *recorder) count(kind notify.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

type fixture struct {
	m      *Manager
	clock  *gametime.Manual
	events *recorder
}

func newFixture(t *testing.T, cfg config.Abilities) *fixture {
	t.Helper()
	return newFixtureWithClock(t, cfg, gametime.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func newFixtureWithClock(t *testing.T, cfg config.Abilities, clock gametime.Clock) *fixture {
	t.Helper()

	chars := provider.NewMemory()
	chars.PutCharacter(caster, mage, model.CharacterStats{Level: 10})
	chars.PutCharacter(golem, "", model.CharacterStats{})
	chars.SetElement(golem, model.ElementEarth)
	chars.PutCharacter(serpent, "", model.CharacterStats{})
	chars.SetElement(serpent, model.ElementWater)
	chars.PutCharacter(dummy, "", model.CharacterStats{})

	callers := authz.NewMemory(admin)
	require.NoError(t, callers.SetAuthorized(context.Background(), oracle, true))

	f := &fixture{m: NewManager(cfg, clock, chars, chars, callers), events: &recorder{}}
	if mc, ok := clock.(*gametime.Manual); ok {
		f.clock = mc
	}
	f.m.SetNotifier(f.events)
	return f
}

func (f *fixture) ability(t *testing.T, spec AbilitySpec) model.Ability {
	t.Helper()
	ab, err := f.m.CreateAbility(context.Background(), admin, spec)
	require.NoError(t, err)
	return ab
}

func fireball(power int32) AbilitySpec {
	return AbilitySpec{Name: "Fireball", Type: model.AbilityDamage, Element: model.ElementFire, BasePower: power, Cooldown: 3 * time.Second}
}

func TestUseAbility_Effectiveness(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		target model.CharacterID
		want   int32
	}{
		{"fire vs earth is strong", golem, 60},
		{"fire vs water is weak", serpent, 20},
		{"fire vs neutral", dummy, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, config.DefaultAbilities())
			ab := f.ability(t, fireball(40))

			res, err := f.m.UseAbility(ctx, mage, ab.ID, caster, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Power)
			assert.Equal(t, 1, f.events.count(notify.KindAbilityUsed))
		})
	}
}

func TestUseAbility_HealIgnoresElement(t *testing.T) {
	f := newFixture(t, config.DefaultAbilities())
	ab := f.ability(t, AbilitySpec{Name: "Mend", Type: model.AbilityHeal, Element: model.ElementAir, BasePower: 30})

	// Air is strong against water, but heals are not element-scaled.
	res, err := f.m.UseAbility(context.Background(), mage, ab.ID, caster, serpent)
	require.NoError(t, err)
	assert.Equal(t, int32(30), res.Power)
	assert.Equal(t, Normal, res.Effectiveness)
}

func TestUseAbility_Failures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.DefaultAbilities())
	ab := f.ability(t, fireball(40))

	_, err := f.m.UseAbility(ctx, "stranger", ab.ID, caster, dummy)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.m.UseAbility(ctx, mage, 999, caster, dummy)
	require.ErrorIs(t, err, ErrAbilityNotFound)

	_, err = f.m.UseAbility(ctx, mage, ab.ID, caster, dummy)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Second)
	_, err = f.m.UseAbility(ctx, mage, ab.ID, caster, dummy)
	require.ErrorIs(t, err, ErrAbilityOnCooldown)

	left, err := f.m.CooldownRemaining(caster, ab.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Second, left)

	f.clock.Advance(time.Second)
	_, err = f.m.UseAbility(ctx, oracle, ab.ID, caster, dummy)
	require.NoError(t, err, "allowlisted callers may act for any character")

	require.NoError(t, f.m.SetAbilityActive(ctx, admin, ab.ID, false))
	f.clock.Advance(time.Minute)
	_, err = f.m.UseAbility(ctx, mage, ab.ID, caster, dummy)
	require.ErrorIs(t, err, ErrAbilityNotActive)
}

func TestUseAbility_StatusEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.Abilities{MaxStatusEffects: 3})
	burn := f.ability(t, AbilitySpec{Name: "Burn", Type: model.AbilityDamageOverTime, Element: model.ElementFire, BasePower: 10, Duration: 10 * time.Second})

	res, err := f.m.UseAbility(ctx, mage, burn.ID, caster, golem)
	require.NoError(t, err)
	assert.True(t, res.StatusApplied)

	statuses := f.m.ActiveStatusEffects(golem)
	require.Len(t, statuses, 1)
	assert.Equal(t, burn.ID, statuses[0].SourceAbility)
	assert.Equal(t, int32(15), statuses[0].Power)
	assert.Equal(t, f.clock.Now(), statuses[0].StartedAt)

	f.clock.Advance(10 * time.Second)
	assert.Len(t, f.m.ActiveStatusEffects(golem), 1, "active through the expiry instant")

	f.clock.Advance(time.Nanosecond)
	assert.Empty(t, f.m.ActiveStatusEffects(golem))
	assert.Equal(t, 1, f.m.CompactExpired())

	// List is capped; the oldest entries go first.
	for range 5 {
		_, err := f.m.UseAbility(ctx, mage, burn.ID, caster, golem)
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}
	statuses = f.m.ActiveStatusEffects(golem)
	require.Len(t, statuses, 3)
	assert.True(t, statuses[0].StartedAt.Before(statuses[2].StartedAt))
}

func TestUseAbility_BuffsAndDebuffs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.DefaultAbilities())
	fb := f.ability(t, fireball(40))
	haste := f.ability(t, AbilitySpec{Name: "Tailwind", Type: model.AbilityBuff, Element: model.ElementAir, BasePower: 25, Duration: time.Minute})
	curse := f.ability(t, AbilitySpec{Name: "Curse", Type: model.AbilityDebuff, Element: model.ElementNeutral, BasePower: 50, Duration: time.Minute})

	_, err := f.m.UseAbility(ctx, mage, haste.ID, caster, caster)
	require.NoError(t, err)
	assert.Equal(t, int32(25), f.m.PowerModifier(caster))

	res, err := f.m.UseAbility(ctx, mage, fb.ID, caster, dummy)
	require.NoError(t, err)
	assert.Equal(t, int32(50), res.Power) // 40 * 125%
	assert.Equal(t, int32(25), res.Modifier)

	_, err = f.m.UseAbility(ctx, oracle, curse.ID, dummy, caster)
	require.NoError(t, err)
	assert.Equal(t, int32(-25), f.m.PowerModifier(caster))

	f.clock.Advance(3 * time.Second)
	res, err = f.m.UseAbility(ctx, mage, fb.ID, caster, dummy)
	require.NoError(t, err)
	assert.Equal(t, int32(30), res.Power) // 40 * 75%

	f.clock.Advance(time.Hour)
	assert.Zero(t, f.m.PowerModifier(caster))
}

func TestUseAbility_ElementalCombo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.DefaultAbilities())
	fb := f.ability(t, AbilitySpec{Name: "Spark", Type: model.AbilityDamage, Element: model.ElementFire, BasePower: 40})
	wave := f.ability(t, AbilitySpec{Name: "Wave", Type: model.AbilityDamage, Element: model.ElementWater, BasePower: 40})
	steam, err := f.m.CreateComboBonus(ctx, admin, ComboSpec{
		Name:       "Steam Burst",
		Elements:   []model.Element{model.ElementFire, model.ElementWater},
		Window:     5 * time.Second,
		Multiplier: 150,
	})
	require.NoError(t, err)

	cast := func(id model.AbilityID) Result {
		t.Helper()
		res, err := f.m.UseAbility(ctx, mage, id, caster, dummy)
		require.NoError(t, err)
		return res
	}

	assert.Nil(t, cast(fb.ID).Combo)
	f.clock.Advance(5 * time.Second)
	res := cast(wave.ID)
	require.NotNil(t, res.Combo)
	assert.Equal(t, steam.ID, res.Combo.ID)
	assert.Equal(t, int32(60), res.Power)
	assert.Equal(t, 1, f.events.count(notify.KindElementalCombo))

	// Completed combos clear tracking.
	assert.Nil(t, cast(wave.ID).Combo)

	// Window exceeded.
	cast(fb.ID)
	f.clock.Advance(5*time.Second + time.Millisecond)
	assert.Nil(t, cast(wave.ID).Combo)

	// A non-matching cast restarts tracking at itself.
	cast(wave.ID)
	cast(fb.ID)
	assert.NotNil(t, cast(wave.ID).Combo)
}

func TestUseAbility_ComboWindowRealClock(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		f := newFixtureWithClock(t, config.DefaultAbilities(), gametime.System{})
		light := f.ability(t, AbilitySpec{Name: "Ray", Type: model.AbilityDamage, Element: model.ElementLight, BasePower: 10})
		dark := f.ability(t, AbilitySpec{Name: "Void", Type: model.AbilityDamage, Element: model.ElementDark, BasePower: 10})
		_, err := f.m.CreateComboBonus(ctx, admin, ComboSpec{
			Name:       "Eclipse",
			Elements:   []model.Element{model.ElementLight, model.ElementDark, model.ElementLight},
			Window:     4 * time.Second,
			Multiplier: 200,
		})
		require.NoError(t, err)

		_, err = f.m.UseAbility(ctx, mage, light.ID, caster, dummy)
		require.NoError(t, err)
		time.Sleep(4 * time.Second)
		_, err = f.m.UseAbility(ctx, mage, dark.ID, caster, dummy)
		require.NoError(t, err)
		time.Sleep(time.Second)
		res, err := f.m.UseAbility(ctx, mage, light.ID, caster, dummy)
		require.NoError(t, err)
		require.NotNil(t, res.Combo)
		assert.Equal(t, int32(20), res.Power)
	})
}

func TestCreateComboBonus_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.DefaultAbilities())

	_, err := f.m.CreateComboBonus(ctx, admin, ComboSpec{Name: "Solo", Elements: []model.Element{model.ElementFire}, Window: time.Second, Multiplier: 150})
	require.ErrorIs(t, err, ErrComboTooShort)
	require.ErrorIs(t, err, ErrInvalidParameters)

	_, err = f.m.CreateComboBonus(ctx, admin, ComboSpec{Elements: []model.Element{model.ElementFire, model.ElementAir}, Window: time.Second, Multiplier: 150})
	require.ErrorIs(t, err, ErrNameRequired)

	_, err = f.m.CreateComboBonus(ctx, admin, ComboSpec{Name: "x", Elements: []model.Element{model.ElementFire, model.Element(42)}, Window: time.Second, Multiplier: 150})
	require.ErrorIs(t, err, ErrUnknownElement)

	_, err = f.m.CreateComboBonus(ctx, mage, ComboSpec{Name: "x", Elements: []model.Element{model.ElementFire, model.ElementAir}, Window: time.Second, Multiplier: 150})
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.m.CreateAbility(ctx, admin, AbilitySpec{Name: "bad", BasePower: -1})
	require.ErrorIs(t, err, ErrInvalidParameters)
}

func TestEffectivenessTable(t *testing.T) {
	table := DefaultEffectiveness()
	for _, a := range model.Elements() {
		for _, d := range model.Elements() {
			assert.Positive(t, table[a][d], "%s vs %s", a, d)
		}
	}

	assert.Equal(t, Strong, table[model.ElementFire][model.ElementEarth])
	assert.Equal(t, Strong, table[model.ElementEarth][model.ElementAir])
	assert.Equal(t, Strong, table[model.ElementAir][model.ElementWater])
	assert.Equal(t, Strong, table[model.ElementWater][model.ElementFire])
	assert.Equal(t, Weak, table[model.ElementFire][model.ElementWater])
	assert.Equal(t, Weak, table[model.ElementEarth][model.ElementFire])
	assert.Equal(t, Strong, table[model.ElementLight][model.ElementDark])
	assert.Equal(t, Strong, table[model.ElementDark][model.ElementLight])
	assert.Equal(t, Normal, table[model.ElementNeutral][model.ElementFire])
	assert.Equal(t, Normal, table[model.ElementFire][model.ElementFire])
}

func TestSetEffectiveness(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.DefaultAbilities())
	ab := f.ability(t, fireball(40))

	require.ErrorIs(t, f.m.SetEffectiveness(ctx, mage, model.ElementFire, model.ElementEarth, 200), ErrNotAuthorized)
	require.ErrorIs(t, f.m.SetEffectiveness(ctx, admin, model.ElementFire, model.ElementEarth, -5), ErrInvalidParameters)
	require.ErrorIs(t, f.m.SetEffectiveness(ctx, admin, model.Element(99), model.ElementEarth, 100), ErrUnknownElement)
	require.NoError(t, f.m.SetEffectiveness(ctx, admin, model.ElementFire, model.ElementEarth, 200))

	res, err := f.m.UseAbility(ctx, mage, ab.ID, caster, golem)
	require.NoError(t, err)
	assert.Equal(t, int32(80), res.Power)
}

type storeStub struct {
	abilities []model.Ability
	combos    []model.ComboBonus
	overrides []EffectivenessOverride
}

func (s *storeStub) SaveAbility(_ context.Context, a model.Ability) error {
	s.abilities = append(s.abilities, a)
	return nil
}

func (s *storeStub) SaveComboBonus(_ context.Context, c model.ComboBonus) error {
	s.combos = append(s.combos, c)
	return nil
}

func (s *storeStub) SaveEffectiveness(_ context.Context, o EffectivenessOverride) error {
	s.overrides = append(s.overrides, o)
	return nil
}

func TestSeedAndRestore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "abilities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
abilities:
  - name: Fireball
    type: damage
    element: fire
    base_power: 40
    cooldown: 3s
  - name: Curse
    type: debuff
    element: dark
    base_power: 15
    duration: 12s
combos:
  - name: Steam Burst
    elements: [fire, water]
    window: 5s
    multiplier: 150
`), 0o600))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Abilities, 2)
	assert.Equal(t, 3*time.Second, seed.Abilities[0].Cooldown)

	f := newFixture(t, config.DefaultAbilities())
	store := &storeStub{}
	f.m.SetStore(store)
	require.NoError(t, f.m.Seed(ctx, seed))
	require.NoError(t, f.m.SetEffectiveness(ctx, admin, model.ElementFire, model.ElementDark, 120))

	abilities := f.m.Abilities()
	require.Len(t, abilities, 2)
	assert.Equal(t, model.AbilityDebuff, abilities[1].Type)
	assert.Equal(t, model.ElementDark, abilities[1].Element)
	require.Len(t, f.m.ComboBonuses(), 1)

	restored := newFixture(t, config.DefaultAbilities())
	restored.m.Restore(store.abilities, store.combos, store.overrides)
	assert.Equal(t, abilities, restored.m.Abilities())
	assert.Equal(t, f.m.ComboBonuses(), restored.m.ComboBonuses())
	assert.Equal(t, int32(120), restored.m.Effectiveness(model.ElementFire, model.ElementDark))

	next := restored.ability(t, fireball(1))
	assert.Equal(t, model.AbilityID(3), next.ID)

	empty, err := LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, empty.Abilities)
}

func TestUseAbility_Concurrent(t *testing.T) {
	f := newFixture(t, config.Abilities{MaxStatusEffects: 1000})
	ab := f.ability(t, AbilitySpec{Name: "Burn", Type: model.AbilityDamageOverTime, Element: model.ElementFire, BasePower: 1, Duration: time.Hour})

	// Casters hit each other both ways to exercise lock ordering.
	var wg sync.WaitGroup
	for _, pair := range [][2]model.CharacterID{{golem, serpent}, {serpent, golem}} {
		wg.Go(func() {
			for range 100 {
				if _, err := f.m.UseAbility(context.Background(), oracle, ab.ID, pair[0], pair[1]); err != nil {
					t.Errorf("cast %v: %v", pair, err)
					return
				}
			}
		})
	}
	wg.Wait()

	assert.Len(t, f.m.ActiveStatusEffects(golem), 100)
	assert.Len(t, f.m.ActiveStatusEffects(serpent), 100)
}

func TestUseAbility_UnknownCharacter(t *testing.T) {
	f := newFixture(t, config.DefaultAbilities())
	ab := f.ability(t, AbilitySpec{Name: "Hex", Type: model.AbilityDebuff, Element: model.ElementDark, BasePower: 10, Duration: time.Minute})
	ctx := context.Background()

	for id := model.CharacterID(1000); id < 1100; id++ {
		_, err := f.m.UseAbility(ctx, oracle, ab.ID, caster, id)
		require.ErrorIs(t, err, provider.ErrCharacterNotFound)
		_, err = f.m.UseAbility(ctx, oracle, ab.ID, id, golem)
		require.ErrorIs(t, err, provider.ErrCharacterNotFound)
	}

	f.m.unitsMu.RLock()
	units := len(f.m.units)
	f.m.unitsMu.RUnlock()
	assert.Zero(t, units)
	assert.Zero(t, f.events.count(notify.KindAbilityUsed))

	_, err := f.m.UseAbility(ctx, mage, ab.ID, caster, golem)
	require.NoError(t, err)
	assert.Len(t, f.m.ActiveStatusEffects(golem), 1)
}
