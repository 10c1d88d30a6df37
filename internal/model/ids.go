package model

import "strconv"

// CharacterID identifies a character token owned by the character provider.
type CharacterID uint64

// TargetID identifies a battle target (monster, boss or another character).
type TargetID uint64

// WeaponID identifies an equipment token.
type WeaponID uint64

// MoveID is the stable id assigned to a combat move on creation.
type MoveID uint32

// AbilityID is the stable id assigned to an ability on creation.
type AbilityID uint32

// ComboBonusID identifies an elemental combo definition.
type ComboBonusID uint32

// Caller is the identity of whoever invokes the engine (integration account,
// wallet address, admin key name).
type Caller string

func (id CharacterID) String() string { return strconv.FormatUint(uint64(id), 10) }
func (id TargetID) String() string    { return strconv.FormatUint(uint64(id), 10) }
