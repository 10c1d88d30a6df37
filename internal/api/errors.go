package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/udisondev/combatcore/internal/authz"
	"github.com/udisondev/combatcore/internal/game/ability"
	"github.com/udisondev/combatcore/internal/game/combat"
	"github.com/udisondev/combatcore/internal/provider"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type errorKind struct {
	target error
	status int
	code   string
}

// Order matters: wrapped sentinels (ErrChanceTooHigh wraps
// ErrInvalidParameters) come before the sentinels they wrap.
var errorKinds = []errorKind{
	{combat.ErrNotAuthorized, http.StatusForbidden, "not_authorized"},
	{ability.ErrNotAuthorized, http.StatusForbidden, "not_authorized"},
	{authz.ErrBadCredentials, http.StatusUnauthorized, "bad_credentials"},

	{combat.ErrBattleInProgress, http.StatusConflict, "battle_in_progress"},
	{combat.ErrNoActiveBattle, http.StatusConflict, "no_active_battle"},
	{combat.ErrMoveOnCooldown, http.StatusConflict, "move_on_cooldown"},
	{ability.ErrAbilityOnCooldown, http.StatusConflict, "ability_on_cooldown"},
	{ability.ErrAbilityNotActive, http.StatusConflict, "ability_not_active"},

	{combat.ErrNoEligibleMoves, http.StatusUnprocessableEntity, "no_eligible_moves"},

	{combat.ErrMoveNotFound, http.StatusNotFound, "move_not_found"},
	{ability.ErrAbilityNotFound, http.StatusNotFound, "ability_not_found"},
	{provider.ErrCharacterNotFound, http.StatusNotFound, "character_not_found"},
	{provider.ErrWeaponNotFound, http.StatusNotFound, "weapon_not_found"},

	{combat.ErrChanceTooHigh, http.StatusBadRequest, "chance_too_high"},
	{combat.ErrAmountTooHigh, http.StatusBadRequest, "amount_too_high"},
	{ability.ErrComboTooShort, http.StatusBadRequest, "combo_too_short"},
	{combat.ErrInvalidMoves, http.StatusBadRequest, "invalid_moves"},
	{combat.ErrNameRequired, http.StatusBadRequest, "name_required"},
	{ability.ErrNameRequired, http.StatusBadRequest, "name_required"},
	{combat.ErrTriggersRequired, http.StatusBadRequest, "triggers_required"},
	{ability.ErrUnknownElement, http.StatusBadRequest, "unknown_element"},
	{combat.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{combat.ErrInvalidParameters, http.StatusBadRequest, "invalid_parameters"},
	{ability.ErrInvalidParameters, http.StatusBadRequest, "invalid_parameters"},
}

// writeError maps engine errors to HTTP responses. Unknown errors become 500
// and are logged; their text is not sent to the client.
func writeError(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return err
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return c.JSON(k.status, errorResponse{Error: k.code, Message: err.Error()})
		}
	}

	slog.Error("request failed",
		"method", c.Request().Method,
		"path", c.Path(),
		"error", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal", Message: "internal error"})
}

// httpErrorHandler renders echo errors (binding, validation, routing) in the
// same shape as engine errors.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	}

	if err := c.JSON(status, errorResponse{Error: codeFor(status), Message: msg}); err != nil {
		slog.Warn("writing error response", "error", err)
	}
}

func codeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	default:
		return "internal"
	}
}
