package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/udisondev/combatcore/internal/game/ability"
	"github.com/udisondev/combatcore/internal/game/combat"
	"github.com/udisondev/combatcore/internal/model"
)

type createMoveRequest struct {
	Name            string   `json:"name" validate:"required,max=100"`
	BaseDamage      int32    `json:"base_damage" validate:"gte=0"`
	ScalingFactor   int32    `json:"scaling_factor" validate:"gte=0"`
	CooldownMS      int64    `json:"cooldown_ms" validate:"gte=0"`
	Triggers        []string `json:"triggers" validate:"required,min=1,dive,required"`
	MinValue        int64    `json:"min_value" validate:"gte=0"`
	Effect          string   `json:"effect"`
	EffectMagnitude int32    `json:"effect_magnitude" validate:"gte=0"`
	CritBonus       int32    `json:"crit_bonus" validate:"gte=0"`
}

func (h *Handler) createMove(c echo.Context) error {
	var req createMoveRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	effect, err := model.ParseSpecialEffect(req.Effect)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	triggers := make([]model.ActionType, len(req.Triggers))
	for i, t := range req.Triggers {
		triggers[i] = model.ActionType(t)
	}

	mv, err := h.combat.CreateMove(c.Request().Context(), callerOf(c), combat.MoveSpec{
		Name:            req.Name,
		BaseDamage:      req.BaseDamage,
		ScalingFactor:   req.ScalingFactor,
		Cooldown:        time.Duration(req.CooldownMS) * time.Millisecond,
		Triggers:        triggers,
		MinValue:        req.MinValue,
		Effect:          effect,
		EffectMagnitude: req.EffectMagnitude,
		CritBonus:       req.CritBonus,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toMoveResponse(mv))
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

func (h *Handler) setMoveActive(c echo.Context) error {
	id, err := uint32Param(c, "move")
	if err != nil {
		return err
	}
	var req setActiveRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.combat.SetMoveActive(c.Request().Context(), callerOf(c), model.MoveID(id), *req.Active); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type comboPathRequest struct {
	From uint32 `json:"from" validate:"required"`
	To   uint32 `json:"to" validate:"required"`
}

func (h *Handler) createComboPath(c echo.Context) error {
	var req comboPathRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.combat.CreateComboPath(c.Request().Context(), callerOf(c), model.MoveID(req.From), model.MoveID(req.To)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusCreated)
}

type percentRequest struct {
	Percent *int32 `json:"percent" validate:"required"`
}

func (h *Handler) setCriticalChance(c echo.Context) error {
	id, err := characterParam(c)
	if err != nil {
		return err
	}
	var req percentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.combat.SetCriticalChance(c.Request().Context(), callerOf(c), id, *req.Percent); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) setLifeSteal(c echo.Context) error {
	id, err := characterParam(c)
	if err != nil {
		return err
	}
	var req percentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.combat.SetLifeSteal(c.Request().Context(), callerOf(c), id, *req.Percent); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type setCallerRequest struct {
	Allowed *bool `json:"allowed" validate:"required"`
}

func (h *Handler) setAuthorizedCaller(c echo.Context) error {
	var req setCallerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	target := model.Caller(c.Param("caller"))
	if err := h.combat.SetAuthorizedCaller(c.Request().Context(), callerOf(c), target, *req.Allowed); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type createAbilityRequest struct {
	Name              string   `json:"name" validate:"required,max=100"`
	Type              string   `json:"type" validate:"required"`
	Element           string   `json:"element" validate:"required"`
	BasePower         int32    `json:"base_power" validate:"gte=0"`
	DurationMS        int64    `json:"duration_ms" validate:"gte=0"`
	CooldownMS        int64    `json:"cooldown_ms" validate:"gte=0"`
	AreaOfEffect      bool     `json:"area_of_effect"`
	ChargeRequirement int32    `json:"charge_requirement" validate:"gte=0"`
	Requirements      []string `json:"requirements"`
}

func (h *Handler) createAbility(c echo.Context) error {
	var req createAbilityRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	typ, err := model.ParseAbilityType(req.Type)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	elem, err := model.ParseElement(req.Element)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ab, err := h.abilities.CreateAbility(c.Request().Context(), callerOf(c), ability.AbilitySpec{
		Name:              req.Name,
		Type:              typ,
		Element:           elem,
		BasePower:         req.BasePower,
		Duration:          time.Duration(req.DurationMS) * time.Millisecond,
		Cooldown:          time.Duration(req.CooldownMS) * time.Millisecond,
		AreaOfEffect:      req.AreaOfEffect,
		ChargeRequirement: req.ChargeRequirement,
		Requirements:      req.Requirements,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toAbilityResponse(ab))
}

func (h *Handler) setAbilityActive(c echo.Context) error {
	id, err := uint32Param(c, "ability")
	if err != nil {
		return err
	}
	var req setActiveRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.abilities.SetAbilityActive(c.Request().Context(), callerOf(c), model.AbilityID(id), *req.Active); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type createComboRequest struct {
	Name       string   `json:"name" validate:"required,max=100"`
	Elements   []string `json:"elements" validate:"required"`
	WindowMS   int64    `json:"window_ms" validate:"gt=0"`
	Multiplier int32    `json:"multiplier" validate:"gt=0"`
}

func (h *Handler) createCombo(c echo.Context) error {
	var req createComboRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	elems := make([]model.Element, len(req.Elements))
	for i, name := range req.Elements {
		e, err := model.ParseElement(name)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		elems[i] = e
	}

	cb, err := h.abilities.CreateComboBonus(c.Request().Context(), callerOf(c), ability.ComboSpec{
		Name:       req.Name,
		Elements:   elems,
		Window:     time.Duration(req.WindowMS) * time.Millisecond,
		Multiplier: req.Multiplier,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toComboResponse(cb))
}

func (h *Handler) setEffectiveness(c echo.Context) error {
	attacker, err := elementParam(c, "attacker")
	if err != nil {
		return err
	}
	defender, err := elementParam(c, "defender")
	if err != nil {
		return err
	}
	var req percentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.abilities.SetEffectiveness(c.Request().Context(), callerOf(c), attacker, defender, *req.Percent); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
