package authz

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/udisondev/combatcore/internal/config"
	"github.com/udisondev/combatcore/internal/model"
)

var ErrBadCredentials = errors.New("bad credentials")

// KeyRing verifies admin API keys of the form "<name>:<secret>" against
// bcrypt hashes from configuration.
type KeyRing struct {
	hashes map[string][]byte
}

// NewKeyRing builds a key ring from configured admin keys.
func NewKeyRing(keys []config.AdminKey) (*KeyRing, error) {
	kr := &KeyRing{hashes: make(map[string][]byte, len(keys))}
	for _, k := range keys {
		if k.Name == "" {
			return nil, fmt.Errorf("admin key without name")
		}
		if _, err := bcrypt.Cost([]byte(k.Hash)); err != nil {
			return nil, fmt.Errorf("admin key %q: %w", k.Name, err)
		}
		kr.hashes[k.Name] = []byte(k.Hash)
	}
	return kr, nil
}

// Names returns the admin identities known to the ring.
func (kr *KeyRing) Names() []model.Caller {
	out := make([]model.Caller, 0, len(kr.hashes))
	for name := range kr.hashes {
		out = append(out, model.Caller(name))
	}
	return out
}

// Authenticate checks token and returns the admin identity it belongs to.
func (kr *KeyRing) Authenticate(token string) (model.Caller, error) {
	name, secret, ok := strings.Cut(token, ":")
	if !ok || name == "" || secret == "" {
		return "", ErrBadCredentials
	}
	hash, ok := kr.hashes[name]
	if !ok {
		return "", ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(secret)); err != nil {
		return "", ErrBadCredentials
	}
	return model.Caller(name), nil
}

// HashKey returns the bcrypt hash to put into the admin.keys config section.
func HashKey(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing admin key: %w", err)
	}
	return string(h), nil
}
