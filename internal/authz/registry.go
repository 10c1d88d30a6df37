// Package authz answers "may this caller do that": the triggerMove
// allowlist and the privileged admin role.
package authz

import (
	"context"
	"sync"

	"github.com/udisondev/combatcore/internal/model"
)

// Registry is the caller authorization registry consumed by the engines.
type Registry interface {
	IsAuthorized(ctx context.Context, caller model.Caller) (bool, error)
	SetAuthorized(ctx context.Context, caller model.Caller, allowed bool) error
	IsAdmin(ctx context.Context, caller model.Caller) (bool, error)
}

// Memory keeps the allowlist in process.
//
// Thread-safe: sync.RWMutex.
type Memory struct {
	mu         sync.RWMutex
	authorized map[model.Caller]struct{}
	admins     map[model.Caller]struct{}
}

// NewMemory creates a registry with the given admins.
func NewMemory(admins ...model.Caller) *Memory {
	m := &Memory{
		authorized: make(map[model.Caller]struct{}),
		admins:     make(map[model.Caller]struct{}, len(admins)),
	}
	for _, a := range admins {
		m.admins[a] = struct{}{}
	}
	return m
}

func (m *Memory) IsAuthorized(_ context.Context, caller model.Caller) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.authorized[caller]
	return ok, nil
}

func (m *Memory) SetAuthorized(_ context.Context, caller model.Caller, allowed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if allowed {
		m.authorized[caller] = struct{}{}
	} else {
		delete(m.authorized, caller)
	}
	return nil
}

func (m *Memory) IsAdmin(_ context.Context, caller model.Caller) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.admins[caller]
	return ok, nil
}
