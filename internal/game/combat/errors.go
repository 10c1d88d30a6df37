package combat

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthorized     = errors.New("caller not authorized")
	ErrBattleInProgress  = errors.New("battle already in progress")
	ErrNoActiveBattle    = errors.New("no active battle")
	ErrNoEligibleMoves   = errors.New("no eligible moves")
	ErrMoveOnCooldown    = errors.New("move on cooldown")
	ErrMoveNotFound      = errors.New("move not found")
	ErrInvalidMoves      = errors.New("invalid combo path moves")
	ErrNameRequired      = errors.New("name required")
	ErrTriggersRequired  = errors.New("at least one trigger required")
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrInvalidInput      = errors.New("invalid calculator input")

	ErrChanceTooHigh = fmt.Errorf("%w: chance too high", ErrInvalidParameters)
	ErrAmountTooHigh = fmt.Errorf("%w: amount too high", ErrInvalidParameters)
)

// reason maps an engine error to a short metric label.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, ErrBattleInProgress):
		return "battle_in_progress"
	case errors.Is(err, ErrNoActiveBattle):
		return "no_active_battle"
	case errors.Is(err, ErrNoEligibleMoves):
		return "no_eligible_moves"
	case errors.Is(err, ErrMoveOnCooldown):
		return "move_on_cooldown"
	case errors.Is(err, ErrInvalidParameters), errors.Is(err, ErrInvalidInput):
		return "invalid_parameters"
	default:
		return "internal"
	}
}
