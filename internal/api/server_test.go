package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/combatcore/internal/authz"
	"github.com/udisondev/combatcore/internal/config"
	"github.com/udisondev/combatcore/internal/game/ability"
	"github.com/udisondev/combatcore/internal/game/combat"
	"github.com/udisondev/combatcore/internal/gametime"
	"github.com/udisondev/combatcore/internal/metrics"
	"github.com/udisondev/combatcore/internal/model"
	"github.com/udisondev/combatcore/internal/provider"
)

const (
	adminToken = "ops:s3cret"
	player     = "player-1"
	bridge     = "bridge"
)

type testServer struct {
	e     *echo.Echo
	clock *gametime.Manual
}

// alwaysLow never crits.
type alwaysLow struct{}

func (alwaysLow) IntN(n int) int { return n - 1 }

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	hash, err := authz.HashKey("s3cret")
	require.NoError(t, err)
	keys, err := authz.NewKeyRing([]config.AdminKey{{Name: "ops", Hash: hash}})
	require.NoError(t, err)

	chars := provider.NewMemory()
	chars.PutCharacter(1, player, model.CharacterStats{Level: 1})
	chars.PutCharacter(2, "player-2", model.CharacterStats{Level: 1})
	chars.SetElement(2, model.ElementEarth)

	callers := authz.NewMemory(keys.Names()...)
	clock := gametime.NewManual(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))

	reg := prometheus.NewRegistry()
	mc := metrics.New("combat", reg)

	cm := combat.NewManager(config.DefaultCombat(), clock, alwaysLow{}, chars, chars, callers)
	cm.SetMetrics(mc)
	am := ability.NewManager(config.DefaultAbilities(), clock, chars, chars, callers)
	am.SetMetrics(mc)

	e := NewRouter(NewHandler(cm, am, nil), Options{Keys: keys, Gatherer: reg})
	return &testServer{e: e, clock: clock}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) admin(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, method, path, body, map[string]string{echo.HeaderAuthorization: "Bearer " + adminToken})
}

func (s *testServer) as(t *testing.T, caller, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, method, path, body, map[string]string{CallerHeader: caller})
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestServer_Healthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_AdminAuth(t *testing.T) {
	s := newTestServer(t)
	body := `{"name":"Jab","base_damage":20,"cooldown_ms":5000,"triggers":["TRADE"]}`

	rec := s.do(t, http.MethodPost, "/v1/admin/moves", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/admin/moves", body,
		map[string]string{echo.HeaderAuthorization: "Bearer ops:wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "bad_credentials", decode[errorResponse](t, rec).Error)

	rec = s.admin(t, http.MethodPost, "/v1/admin/moves", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	mv := decode[moveResponse](t, rec)
	assert.Equal(t, model.MoveID(1), mv.ID)
	assert.Equal(t, int64(5000), mv.CooldownMS)
	assert.Equal(t, "NONE", mv.Effect)
	assert.True(t, mv.Active)
}

func TestServer_BattleFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.admin(t, http.MethodPost, "/v1/admin/moves",
		`{"name":"Jab","base_damage":20,"cooldown_ms":5000,"triggers":["TRADE"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.admin(t, http.MethodPut, "/v1/admin/callers/"+bridge, `{"allowed":true}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.as(t, player, http.MethodPost, "/v1/battles",
		`{"character_id":1,"target_id":77,"target_health":30}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	battle := decode[battleResponse](t, rec)
	assert.True(t, battle.Active)
	assert.Equal(t, int32(30), battle.RemainingHealth)
	assert.NotEmpty(t, battle.BattleID)

	// A second start while active conflicts.
	rec = s.as(t, player, http.MethodPost, "/v1/battles",
		`{"character_id":1,"target_id":78,"target_health":30}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "battle_in_progress", decode[errorResponse](t, rec).Error)

	// The owner is not on the allowlist.
	rec = s.as(t, player, http.MethodPost, "/v1/moves/trigger", `{"character_id":1,"action":"TRADE","value":1}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.as(t, bridge, http.MethodPost, "/v1/moves/trigger", `{"character_id":1,"action":"TRADE","value":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[outcomeResponse](t, rec)
	assert.Equal(t, int32(20), out.Damage)
	assert.Equal(t, int32(10), out.RemainingHealth)
	assert.False(t, out.BattleEnded)

	rec = s.as(t, bridge, http.MethodPost, "/v1/moves/trigger", `{"character_id":1,"action":"TRADE","value":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "move_on_cooldown", decode[errorResponse](t, rec).Error)

	rec = s.as(t, bridge, http.MethodGet, "/v1/characters/1/cooldowns/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cd := decode[cooldownResponse](t, rec)
	assert.Equal(t, int64(5000), cd.RemainingMS)
	assert.False(t, cd.Ready)

	s.clock.Advance(5 * time.Second)

	rec = s.as(t, bridge, http.MethodPost, "/v1/moves/trigger", `{"character_id":1,"action":"TRADE","value":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out = decode[outcomeResponse](t, rec)
	assert.True(t, out.BattleEnded)
	assert.Equal(t, int32(0), out.RemainingHealth)

	rec = s.as(t, bridge, http.MethodGet, "/v1/battles/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[battleResponse](t, rec).Active)

	rec = s.as(t, player, http.MethodDelete, "/v1/battles/1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no_active_battle", decode[errorResponse](t, rec).Error)
}

func TestServer_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		admin  bool
		status int
	}{
		{"missing health", http.MethodPost, "/v1/battles", `{"character_id":1,"target_id":2}`, false, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/v1/battles", `{"character_id":`, false, http.StatusBadRequest},
		{"bad character id", http.MethodGet, "/v1/battles/abc", "", false, http.StatusBadRequest},
		{"no battle recorded", http.MethodGet, "/v1/battles/9", "", false, http.StatusNotFound},
		{"unknown move", http.MethodGet, "/v1/characters/1/cooldowns/42", "", false, http.StatusNotFound},
		{"move without triggers", http.MethodPost, "/v1/admin/moves", `{"name":"Jab","triggers":[]}`, true, http.StatusBadRequest},
		{"unknown effect", http.MethodPost, "/v1/admin/moves", `{"name":"Jab","triggers":["TRADE"],"effect":"FREEZE"}`, true, http.StatusBadRequest},
		{"crit above cap", http.MethodPut, "/v1/admin/characters/1/crit-chance", `{"percent":51}`, true, http.StatusBadRequest},
		{"life steal above cap", http.MethodPut, "/v1/admin/characters/1/life-steal", `{"percent":21}`, true, http.StatusBadRequest},
		{"combo path unknown moves", http.MethodPost, "/v1/admin/combo-paths", `{"from":1,"to":2}`, true, http.StatusBadRequest},
		{"unknown element", http.MethodPut, "/v1/admin/effectiveness/plasma/fire", `{"percent":100}`, true, http.StatusBadRequest},
		{"combo too short", http.MethodPost, "/v1/admin/combos", `{"name":"Solo","elements":["fire"],"window_ms":1000,"multiplier":150}`, true, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec *httptest.ResponseRecorder
			if tt.admin {
				rec = s.admin(t, tt.method, tt.path, tt.body)
			} else {
				rec = s.as(t, player, tt.method, tt.path, tt.body)
			}
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[errorResponse](t, rec).Error)
		})
	}
}

func TestServer_AbilityFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.admin(t, http.MethodPost, "/v1/admin/abilities",
		`{"name":"Fireball","type":"damage","element":"fire","base_power":40,"cooldown_ms":2000}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	fb := decode[abilityResponse](t, rec)
	assert.Equal(t, "fire", fb.Element)

	rec = s.as(t, player, http.MethodPost, "/v1/abilities/1/use", `{"user_id":1,"target_id":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[useAbilityResponse](t, rec)
	assert.Equal(t, int32(150), res.Effectiveness)
	assert.Equal(t, int32(60), res.Power)

	rec = s.as(t, player, http.MethodPost, "/v1/abilities/1/use", `{"user_id":1,"target_id":2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ability_on_cooldown", decode[errorResponse](t, rec).Error)

	// Someone else's character.
	rec = s.as(t, "stranger", http.MethodPost, "/v1/abilities/1/use", `{"user_id":1,"target_id":2}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.admin(t, http.MethodPatch, "/v1/admin/abilities/1", `{"active":false}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	s.clock.Advance(2 * time.Second)
	rec = s.as(t, player, http.MethodPost, "/v1/abilities/1/use", `{"user_id":1,"target_id":2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ability_not_active", decode[errorResponse](t, rec).Error)

	rec = s.as(t, player, http.MethodGet, "/v1/abilities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]abilityResponse](t, rec)
	require.Len(t, list, 1)
	assert.False(t, list[0].Active)
}

func TestServer_Effectiveness(t *testing.T) {
	s := newTestServer(t)

	rec := s.admin(t, http.MethodPut, "/v1/admin/effectiveness/fire/water", `{"percent":80}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.as(t, player, http.MethodGet, "/v1/elements/effectiveness", "")
	require.Equal(t, http.StatusOK, rec.Code)
	table := decode[map[string]map[string]int32](t, rec)
	assert.Equal(t, int32(80), table["fire"]["water"])
	assert.Equal(t, int32(150), table["fire"]["earth"])
	assert.Equal(t, int32(100), table["neutral"]["dark"])
}

func TestServer_StatusesAndCombos(t *testing.T) {
	s := newTestServer(t)

	rec := s.admin(t, http.MethodPost, "/v1/admin/abilities",
		`{"name":"Hex","type":"debuff","element":"dark","base_power":20,"duration_ms":10000}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.admin(t, http.MethodPost, "/v1/admin/combos",
		`{"name":"Eclipse","elements":["light","dark"],"window_ms":5000,"multiplier":200}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"light", "dark"}, decode[comboResponse](t, rec).Elements)

	rec = s.as(t, player, http.MethodPost, "/v1/abilities/1/use", `{"user_id":1,"target_id":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[useAbilityResponse](t, rec).StatusApplied)

	rec = s.as(t, player, http.MethodGet, "/v1/characters/2/statuses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	statuses := decode[[]statusResponse](t, rec)
	require.Len(t, statuses, 1)
	assert.Equal(t, "debuff", statuses[0].Kind)
	assert.Equal(t, int32(20), statuses[0].Power)

	rec = s.as(t, player, http.MethodGet, "/v1/combos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]comboResponse](t, rec), 1)
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.as(t, player, http.MethodPost, "/v1/moves/trigger", `{"character_id":1,"action":"TRADE","value":1}`)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "combat_")
}

func TestServer_RecentEventsWithoutJournal(t *testing.T) {
	s := newTestServer(t)
	rec := s.as(t, player, http.MethodGet, "/v1/characters/1/events", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
