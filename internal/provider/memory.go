package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/udisondev/combatcore/internal/model"
)

type characterRecord struct {
	stats   model.CharacterStats
	owner   model.Caller
	element model.Element
}

// Memory is an in-process implementation of Characters, Equipment and
// Elements. Used by tests and when no database is configured.
//
// Thread-safe.
type Memory struct {
	mu         sync.RWMutex
	characters map[model.CharacterID]characterRecord
	weapons    map[model.WeaponID]model.WeaponStats
	equipped   map[model.CharacterID]model.WeaponID
}

// NewMemory creates an empty Memory provider.
func NewMemory() *Memory {
	return &Memory{
		characters: make(map[model.CharacterID]characterRecord),
		weapons:    make(map[model.WeaponID]model.WeaponStats),
		equipped:   make(map[model.CharacterID]model.WeaponID),
	}
}

// PutCharacter creates or replaces a character.
func (m *Memory) PutCharacter(id model.CharacterID, owner model.Caller, stats model.CharacterStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.characters[id]
	rec.stats = stats
	rec.owner = owner
	m.characters[id] = rec
}

// SetElement associates character id with element e.
func (m *Memory) SetElement(id model.CharacterID, e model.Element) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.characters[id]
	rec.element = e
	m.characters[id] = rec
}

// PutWeapon creates or replaces a weapon.
func (m *Memory) PutWeapon(id model.WeaponID, stats model.WeaponStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weapons[id] = stats
}

// Equip puts weapon into the character's weapon slot.
func (m *Memory) Equip(id model.CharacterID, weapon model.WeaponID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.equipped[id] = weapon
}

// Unequip empties the character's weapon slot.
func (m *Memory) Unequip(id model.CharacterID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.equipped, id)
}

func (m *Memory) Stats(_ context.Context, id model.CharacterID) (model.CharacterStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.characters[id]
	if !ok {
		return model.CharacterStats{}, fmt.Errorf("character %d: %w", id, ErrCharacterNotFound)
	}
	return rec.stats, nil
}

func (m *Memory) IsOwner(_ context.Context, id model.CharacterID, caller model.Caller) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.characters[id]
	if !ok {
		return false, nil
	}
	return caller != "" && rec.owner == caller, nil
}

func (m *Memory) EquippedWeapon(_ context.Context, id model.CharacterID) (model.WeaponID, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.equipped[id]
	return w, ok, nil
}

func (m *Memory) WeaponStats(_ context.Context, weapon model.WeaponID) (model.WeaponStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats, ok := m.weapons[weapon]
	if !ok {
		return model.WeaponStats{}, fmt.Errorf("weapon %d: %w", weapon, ErrWeaponNotFound)
	}
	return stats, nil
}

// ElementOf returns the character's element, ElementNeutral when unknown.
func (m *Memory) ElementOf(_ context.Context, id model.CharacterID) (model.Element, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.characters[id].element, nil
}
