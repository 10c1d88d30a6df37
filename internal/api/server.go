// Package api exposes the combat engines over HTTP. Each engine operation
// maps to one request/response pair.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/udisondev/combatcore/internal/authz"
	"github.com/udisondev/combatcore/internal/game/ability"
	"github.com/udisondev/combatcore/internal/game/combat"
	"github.com/udisondev/combatcore/internal/model"
	"github.com/udisondev/combatcore/internal/notify"
)

const (
	// CallerHeader carries the caller identity of non-admin requests.
	// Upstream gateways authenticate it.
	CallerHeader = "X-Caller"

	callerKey = "caller"
)

// EventLog reads journaled combat events. Optional.
type EventLog interface {
	Recent(ctx context.Context, id model.CharacterID, limit int) ([]notify.Event, error)
}

// Handler serves the combat and ability engines.
type Handler struct {
	combat    *combat.Manager
	abilities *ability.Manager
	events    EventLog
}

// NewHandler creates a Handler. events may be nil.
func NewHandler(cm *combat.Manager, am *ability.Manager, events EventLog) *Handler {
	return &Handler{combat: cm, abilities: am, events: events}
}

// Options configures the router.
type Options struct {
	Keys        *authz.KeyRing
	Gatherer    prometheus.Gatherer // nil disables the metrics route
	MetricsPath string
}

// NewRouter builds the echo instance with every route registered.
func NewRouter(h *Handler, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{v: validator.New()}
	e.HTTPErrorHandler = httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(requestLogger())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Gatherer != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		e.GET(path, echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := e.Group("/v1", callerFromHeader)
	v1.POST("/battles", h.startBattle)
	v1.GET("/battles/:character", h.battleState)
	v1.DELETE("/battles/:character", h.endBattle)
	v1.POST("/moves/trigger", h.triggerMove)
	v1.GET("/moves", h.listMoves)
	v1.GET("/characters/:character/cooldowns/:move", h.cooldownRemaining)
	v1.GET("/characters/:character/effects", h.activeEffects)
	v1.GET("/characters/:character/statuses", h.activeStatuses)
	v1.GET("/characters/:character/events", h.recentEvents)
	v1.GET("/abilities", h.listAbilities)
	v1.POST("/abilities/:ability/use", h.useAbility)
	v1.GET("/abilities/:ability/cooldowns/:character", h.abilityCooldown)
	v1.GET("/elements/effectiveness", h.effectiveness)
	v1.GET("/combos", h.listCombos)

	admin := e.Group("/v1/admin", adminAuth(opts.Keys))
	admin.POST("/moves", h.createMove)
	admin.PATCH("/moves/:move", h.setMoveActive)
	admin.POST("/combo-paths", h.createComboPath)
	admin.PUT("/characters/:character/crit-chance", h.setCriticalChance)
	admin.PUT("/characters/:character/life-steal", h.setLifeSteal)
	admin.PUT("/callers/:caller", h.setAuthorizedCaller)
	admin.POST("/abilities", h.createAbility)
	admin.PATCH("/abilities/:ability", h.setAbilityActive)
	admin.POST("/combos", h.createCombo)
	admin.PUT("/effectiveness/:attacker/:defender", h.setEffectiveness)

	return e
}

type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i any) error {
	if err := rv.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// callerFromHeader stores the X-Caller identity in the context.
func callerFromHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(callerKey, model.Caller(strings.TrimSpace(c.Request().Header.Get(CallerHeader))))
		return next(c)
	}
}

// adminAuth authenticates "Authorization: Bearer <name>:<secret>" against the
// key ring and stores the admin name as the caller.
func adminAuth(keys *authz.KeyRing) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || keys == nil {
				return writeError(c, authz.ErrBadCredentials)
			}
			name, err := keys.Authenticate(token)
			if err != nil {
				slog.Warn("admin authentication failed", "remote", c.RealIP())
				return writeError(c, err)
			}
			c.Set(callerKey, name)
			return next(c)
		}
	}
}

func callerOf(c echo.Context) model.Caller {
	caller, _ := c.Get(callerKey).(model.Caller)
	return caller
}

// requestLogger logs every request at debug level, failures at warn.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			level := slog.LevelDebug
			if status >= http.StatusBadRequest {
				level = slog.LevelWarn
			}
			slog.Log(c.Request().Context(), level, "http request",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", status,
				"caller", callerOf(c),
				"duration", time.Since(start))
			return nil
		}
	}
}
