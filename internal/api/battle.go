package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/udisondev/combatcore/internal/model"
	"github.com/udisondev/combatcore/internal/notify"
)

type startBattleRequest struct {
	CharacterID  uint64 `json:"character_id" validate:"required"`
	TargetID     uint64 `json:"target_id" validate:"required"`
	TargetHealth int32  `json:"target_health" validate:"required,gt=0"`
}

type battleResponse struct {
	CharacterID     model.CharacterID `json:"character_id"`
	BattleID        string            `json:"battle_id"`
	TargetID        model.TargetID    `json:"target_id"`
	RemainingHealth int32             `json:"remaining_health"`
	ComboCount      int32             `json:"combo_count"`
	StartedAt       time.Time         `json:"started_at"`
	Active          bool              `json:"active"`
}

func toBattleResponse(id model.CharacterID, s model.BattleState) battleResponse {
	return battleResponse{
		CharacterID:     id,
		BattleID:        s.BattleID.String(),
		TargetID:        s.Target,
		RemainingHealth: s.RemainingHealth,
		ComboCount:      s.ComboCount,
		StartedAt:       s.StartedAt,
		Active:          s.Active,
	}
}

func (h *Handler) startBattle(c echo.Context) error {
	var req startBattleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	id := model.CharacterID(req.CharacterID)
	state, err := h.combat.StartBattle(c.Request().Context(), callerOf(c), id, model.TargetID(req.TargetID), req.TargetHealth)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toBattleResponse(id, state))
}

func (h *Handler) battleState(c echo.Context) error {
	id, err := characterParam(c)
	if err != nil {
		return err
	}
	state, ok := h.combat.BattleState(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no battle recorded for character")
	}
	return c.JSON(http.StatusOK, toBattleResponse(id, state))
}

func (h *Handler) endBattle(c echo.Context) error {
	id, err := characterParam(c)
	if err != nil {
		return err
	}
	if err := h.combat.EndBattle(c.Request().Context(), callerOf(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type triggerMoveRequest struct {
	CharacterID uint64 `json:"character_id" validate:"required"`
	Action      string `json:"action" validate:"required"`
	Value       int64  `json:"value" validate:"gte=0"`
}

type outcomeResponse struct {
	MoveID          model.MoveID `json:"move_id"`
	MoveName        string       `json:"move_name"`
	Damage          int32        `json:"damage"`
	Critical        bool         `json:"critical"`
	LifeSteal       int32        `json:"life_steal"`
	ComboCount      int32        `json:"combo_count"`
	Effect          string       `json:"effect,omitempty"`
	RemainingHealth int32        `json:"remaining_health"`
	BattleEnded     bool         `json:"battle_ended"`
}

func (h *Handler) triggerMove(c echo.Context) error {
	var req triggerMoveRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := h.combat.TriggerMove(c.Request().Context(), callerOf(c), model.CharacterID(req.CharacterID), model.ActionType(req.Action), req.Value)
	if err != nil {
		return writeError(c, err)
	}

	resp := outcomeResponse{
		MoveID:          out.MoveID,
		MoveName:        out.MoveName,
		Damage:          out.Damage,
		Critical:        out.Critical,
		LifeSteal:       out.LifeSteal,
		ComboCount:      out.ComboCount,
		RemainingHealth: out.RemainingHealth,
		BattleEnded:     out.BattleEnded,
	}
	if out.EffectApplied {
		resp.Effect = out.Effect.String()
	}
	return c.JSON(http.StatusOK, resp)
}

type moveResponse struct {
	ID              model.MoveID `json:"id"`
	Name            string       `json:"name"`
	BaseDamage      int32        `json:"base_damage"`
	ScalingFactor   int32        `json:"scaling_factor"`
	CooldownMS      int64        `json:"cooldown_ms"`
	Triggers        []string     `json:"triggers"`
	MinValue        int64        `json:"min_value"`
	Effect          string       `json:"effect"`
	EffectMagnitude int32        `json:"effect_magnitude"`
	CritBonus       int32        `json:"crit_bonus"`
	Active          bool         `json:"active"`
}

func toMoveResponse(mv model.CombatMove) moveResponse {
	triggers := make([]string, len(mv.Triggers))
	for i, t := range mv.Triggers {
		triggers[i] = string(t)
	}
	return moveResponse{
		ID:              mv.ID,
		Name:            mv.Name,
		BaseDamage:      mv.BaseDamage,
		ScalingFactor:   mv.ScalingFactor,
		CooldownMS:      mv.Cooldown.Milliseconds(),
		Triggers:        triggers,
		MinValue:        mv.MinValue,
		Effect:          mv.Effect.String(),
		EffectMagnitude: mv.EffectMagnitude,
		CritBonus:       mv.CritBonus,
		Active:          mv.Active,
	}
}

func (h *Handler) listMoves(c echo.Context) error {
	moves := h.combat.Moves()
	out := make([]moveResponse, len(moves))
	for i, mv := range moves {
		out[i] = toMoveResponse(mv)
	}
	return c.JSON(http.StatusOK, out)
}

type cooldownResponse struct {
	RemainingMS int64 `json:"remaining_ms"`
	Ready       bool  `json:"ready"`
}

func (h *Handler) cooldownRemaining(c echo.Context) error {
	id, err := characterParam(c)
	if err != nil {
		return err
	}
	move, err := uint32Param(c, "move")
	if err != nil {
		return err
	}

	left, err := h.combat.CooldownRemaining(id, model.MoveID(move))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cooldownResponse{RemainingMS: left.Milliseconds(), Ready: left == 0})
}

type effectResponse struct {
	Effect    string    `json:"effect"`
	Magnitude int32     `json:"magnitude"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) activeEffects(c echo.Context) error {
	id, err := characterParam(c)
	if err != nil {
		return err
	}
	effects := h.combat.ActiveEffects(id)
	out := make([]effectResponse, len(effects))
	for i, e := range effects {
		out[i] = effectResponse{Effect: e.Effect.String(), Magnitude: e.Magnitude, ExpiresAt: e.ExpiresAt}
	}
	return c.JSON(http.StatusOK, out)
}

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

func (h *Handler) recentEvents(c echo.Context) error {
	id, err := characterParam(c)
	if err != nil {
		return err
	}
	if h.events == nil {
		return echo.NewHTTPError(http.StatusNotFound, "event journal disabled")
	}

	limit := defaultEventLimit
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, maxEventLimit)
	}

	events, err := h.events.Recent(c.Request().Context(), id, limit)
	if err != nil {
		return writeError(c, err)
	}
	if events == nil {
		events = []notify.Event{}
	}
	return c.JSON(http.StatusOK, events)
}
