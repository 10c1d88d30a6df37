package model

import (
	"fmt"
	"strings"
)

// Alignment is a character's primary stat affinity. Weapons declare the same
// affinity to pick which stat feeds the damage calculation.
type Alignment uint8

const (
	AlignmentNone Alignment = iota
	AlignmentStrength
	AlignmentAgility
	AlignmentMagic
)

var alignmentNames = [...]string{"none", "strength", "agility", "magic"}

func (a Alignment) String() string {
	if int(a) < len(alignmentNames) {
		return alignmentNames[a]
	}
	return fmt.Sprintf("alignment(%d)", a)
}

// Valid reports whether a is one of the declared alignments.
func (a Alignment) Valid() bool {
	return int(a) < len(alignmentNames)
}

// ParseAlignment converts a case-insensitive name into an Alignment.
func ParseAlignment(s string) (Alignment, error) {
	for i, name := range alignmentNames {
		if strings.EqualFold(s, name) {
			return Alignment(i), nil
		}
	}
	return AlignmentNone, fmt.Errorf("unknown alignment %q", s)
}

// CharacterStats are the aggregate stats reported by the character provider.
type CharacterStats struct {
	Strength  int32
	Agility   int32
	Magic     int32
	Level     int32
	Alignment Alignment
}

// Stat returns the value of the stat matching alignment a.
func (s CharacterStats) Stat(a Alignment) int32 {
	switch a {
	case AlignmentStrength:
		return s.Strength
	case AlignmentAgility:
		return s.Agility
	case AlignmentMagic:
		return s.Magic
	default:
		return 0
	}
}

// Validate rejects negative stats and unknown alignments.
func (s CharacterStats) Validate() error {
	if s.Strength < 0 || s.Agility < 0 || s.Magic < 0 || s.Level < 0 {
		return fmt.Errorf("negative stat: str=%d agi=%d mag=%d lvl=%d", s.Strength, s.Agility, s.Magic, s.Level)
	}
	if !s.Alignment.Valid() {
		return fmt.Errorf("invalid alignment %d", s.Alignment)
	}
	return nil
}

// StatBonuses are flat bonuses granted by a piece of equipment.
type StatBonuses struct {
	Strength int32
	Agility  int32
	Magic    int32
}

// Stat returns the bonus matching alignment a.
func (b StatBonuses) Stat(a Alignment) int32 {
	return CharacterStats{Strength: b.Strength, Agility: b.Agility, Magic: b.Magic}.Stat(a)
}

// WeaponStats describe an equipped weapon as seen by the damage calculator.
type WeaponStats struct {
	Bonuses  StatBonuses
	Affinity Alignment
}

// Validate rejects negative bonuses and weapons without an affinity.
func (w WeaponStats) Validate() error {
	if w.Bonuses.Strength < 0 || w.Bonuses.Agility < 0 || w.Bonuses.Magic < 0 {
		return fmt.Errorf("negative weapon bonus: %+v", w.Bonuses)
	}
	if w.Affinity == AlignmentNone || !w.Affinity.Valid() {
		return fmt.Errorf("invalid weapon affinity %d", w.Affinity)
	}
	return nil
}
