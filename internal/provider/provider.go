// Package provider declares the external collaborators the combat engines
// read from: character stats and ownership, equipment, character elements.
package provider

import (
	"context"
	"errors"

	"github.com/udisondev/combatcore/internal/model"
)

var (
	ErrCharacterNotFound = errors.New("character not found")
	ErrWeaponNotFound    = errors.New("weapon not found")
)

// Characters is the character identity and stat store.
type Characters interface {
	Stats(ctx context.Context, id model.CharacterID) (model.CharacterStats, error)
	IsOwner(ctx context.Context, id model.CharacterID, caller model.Caller) (bool, error)
}

// Equipment resolves equipped weapons and their bonuses.
type Equipment interface {
	// EquippedWeapon returns ok=false when nothing is equipped.
	EquippedWeapon(ctx context.Context, id model.CharacterID) (weapon model.WeaponID, ok bool, err error)
	WeaponStats(ctx context.Context, weapon model.WeaponID) (model.WeaponStats, error)
}

// Elements resolves the element a character is associated with for
// elemental effectiveness lookups.
type Elements interface {
	ElementOf(ctx context.Context, id model.CharacterID) (model.Element, error)
}
