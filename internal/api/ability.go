package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/udisondev/combatcore/internal/model"
)

type useAbilityRequest struct {
	UserID   uint64 `json:"user_id" validate:"required"`
	TargetID uint64 `json:"target_id" validate:"required"`
}

type useAbilityResponse struct {
	AbilityID     model.AbilityID `json:"ability_id"`
	Element       string          `json:"element"`
	Effectiveness int32           `json:"effectiveness"`
	Modifier      int32           `json:"modifier"`
	Power         int32           `json:"power"`
	StatusApplied bool            `json:"status_applied"`
	Combo         string          `json:"combo,omitempty"`
}

func (h *Handler) useAbility(c echo.Context) error {
	id, err := uint32Param(c, "ability")
	if err != nil {
		return err
	}
	var req useAbilityRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	res, err := h.abilities.UseAbility(c.Request().Context(), callerOf(c), model.AbilityID(id),
		model.CharacterID(req.UserID), model.CharacterID(req.TargetID))
	if err != nil {
		return writeError(c, err)
	}

	resp := useAbilityResponse{
		AbilityID:     res.AbilityID,
		Element:       res.Element.String(),
		Effectiveness: res.Effectiveness,
		Modifier:      res.Modifier,
		Power:         res.Power,
		StatusApplied: res.StatusApplied,
	}
	if res.Combo != nil {
		resp.Combo = res.Combo.Name
	}
	return c.JSON(http.StatusOK, resp)
}

type abilityResponse struct {
	ID                model.AbilityID `json:"id"`
	Name              string          `json:"name"`
	Type              string          `json:"type"`
	Element           string          `json:"element"`
	BasePower         int32           `json:"base_power"`
	DurationMS        int64           `json:"duration_ms"`
	CooldownMS        int64           `json:"cooldown_ms"`
	AreaOfEffect      bool            `json:"area_of_effect"`
	ChargeRequirement int32           `json:"charge_requirement"`
	Requirements      []string        `json:"requirements,omitempty"`
	Active            bool            `json:"active"`
}

func toAbilityResponse(a model.Ability) abilityResponse {
	return abilityResponse{
		ID:                a.ID,
		Name:              a.Name,
		Type:              a.Type.String(),
		Element:           a.Element.String(),
		BasePower:         a.BasePower,
		DurationMS:        a.Duration.Milliseconds(),
		CooldownMS:        a.Cooldown.Milliseconds(),
		AreaOfEffect:      a.AreaOfEffect,
		ChargeRequirement: a.ChargeRequirement,
		Requirements:      a.Requirements,
		Active:            a.Active,
	}
}

func (h *Handler) listAbilities(c echo.Context) error {
	abilities := h.abilities.Abilities()
	out := make([]abilityResponse, len(abilities))
	for i, a := range abilities {
		out[i] = toAbilityResponse(a)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) abilityCooldown(c echo.Context) error {
	id, err := uint32Param(c, "ability")
	if err != nil {
		return err
	}
	user, err := characterParam(c)
	if err != nil {
		return err
	}
	left, err := h.abilities.CooldownRemaining(user, model.AbilityID(id))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cooldownResponse{RemainingMS: left.Milliseconds(), Ready: left == 0})
}

type statusResponse struct {
	SourceAbility model.AbilityID `json:"source_ability"`
	Kind          string          `json:"kind"`
	Power         int32           `json:"power"`
	StartedAt     time.Time       `json:"started_at"`
	ExpiresAt     time.Time       `json:"expires_at"`
}

func (h *Handler) activeStatuses(c echo.Context) error {
	id, err := characterParam(c)
	if err != nil {
		return err
	}
	statuses := h.abilities.ActiveStatusEffects(id)
	out := make([]statusResponse, len(statuses))
	for i, s := range statuses {
		out[i] = statusResponse{
			SourceAbility: s.SourceAbility,
			Kind:          s.Kind.String(),
			Power:         s.Power,
			StartedAt:     s.StartedAt,
			ExpiresAt:     s.ExpiresAt(),
		}
	}
	return c.JSON(http.StatusOK, out)
}

// effectiveness renders the table as attacker -> defender -> percent.
func (h *Handler) effectiveness(c echo.Context) error {
	table := h.abilities.EffectivenessTable()
	out := make(map[string]map[string]int32, model.ElementCount)
	for _, a := range model.Elements() {
		row := make(map[string]int32, model.ElementCount)
		for _, d := range model.Elements() {
			row[d.String()] = table[a][d]
		}
		out[a.String()] = row
	}
	return c.JSON(http.StatusOK, out)
}

type comboResponse struct {
	ID         model.ComboBonusID `json:"id"`
	Name       string             `json:"name"`
	Elements   []string           `json:"elements"`
	WindowMS   int64              `json:"window_ms"`
	Multiplier int32              `json:"multiplier"`
}

func toComboResponse(cb model.ComboBonus) comboResponse {
	elems := make([]string, len(cb.Elements))
	for i, e := range cb.Elements {
		elems[i] = e.String()
	}
	return comboResponse{
		ID:         cb.ID,
		Name:       cb.Name,
		Elements:   elems,
		WindowMS:   cb.Window.Milliseconds(),
		Multiplier: cb.Multiplier,
	}
}

func (h *Handler) listCombos(c echo.Context) error {
	combos := h.abilities.ComboBonuses()
	out := make([]comboResponse, len(combos))
	for i, cb := range combos {
		out[i] = toComboResponse(cb)
	}
	return c.JSON(http.StatusOK, out)
}
