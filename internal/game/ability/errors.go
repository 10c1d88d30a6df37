package ability

import (
	"errors"
	"fmt"

	"github.com/udisondev/combatcore/internal/provider"
)

var (
	ErrNotAuthorized     = errors.New("caller not authorized")
	ErrAbilityNotFound   = errors.New("ability not found")
	ErrAbilityNotActive  = errors.New("ability not active")
	ErrAbilityOnCooldown = errors.New("ability on cooldown")
	ErrNameRequired      = errors.New("name required")
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrUnknownElement    = errors.New("unknown element")

	ErrComboTooShort = fmt.Errorf("%w: combo needs at least two elements", ErrInvalidParameters)
)

// reason maps an engine error to a short metric label.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, ErrAbilityNotFound):
		return "ability_not_found"
	case errors.Is(err, ErrAbilityNotActive):
		return "ability_not_active"
	case errors.Is(err, ErrAbilityOnCooldown):
		return "ability_on_cooldown"
	case errors.Is(err, ErrInvalidParameters), errors.Is(err, ErrUnknownElement):
		return "invalid_parameters"
	case errors.Is(err, provider.ErrCharacterNotFound):
		return "character_not_found"
	default:
		return "internal"
	}
}
