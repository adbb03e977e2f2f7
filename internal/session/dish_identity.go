// Package session assigns dish identities. The cache reproduces the legacy
// behavior of minting an ephemeral identity per dish name that lives only as
// long as the process; DeriveDishIdentity is the stable alternative for
// callers that can supply a catalog id.
package session

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"dinebook/go-client/internal/ledger"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/hkdf"
)

var ErrDishNameRequired = errors.New("dish name is required")

// DishIdentityCache maps dish names to identities minted from fresh entropy.
// Identities are not persisted: the same dish gets a different identity in
// every session, so its order counters never accumulate across reloads.
type DishIdentityCache struct {
	mu     sync.Mutex
	byName map[string]ledger.Address
}

func NewDishIdentityCache() *DishIdentityCache {
	return &DishIdentityCache{byName: make(map[string]ledger.Address)}
}

// Identity returns the session identity for a dish name, minting one on
// first use.
func (c *DishIdentityCache) Identity(name string) (ledger.Address, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ledger.Address{}, ErrDishNameRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if addr, ok := c.byName[name]; ok {
		return addr, nil
	}

	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return ledger.Address{}, err
	}
	priv := ed25519.NewKeyFromSeed(entropy)
	pub := priv.Public().(ed25519.PublicKey)
	addr, err := ledger.AddressFromBytes(pub)
	if err != nil {
		return ledger.Address{}, err
	}
	c.byName[name] = addr
	return addr, nil
}

const dishIdentityInfo = "dinebook/dish-identity/v1"

// DeriveDishIdentity computes a stable dish identity from (catalog id, name),
// the same way restaurant identities stay stable across sessions. Identical
// inputs always yield the identical identity.
func DeriveDishIdentity(catalogID int, name string) (ledger.Address, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ledger.Address{}, ErrDishNameRequired
	}
	if catalogID < 0 {
		return ledger.Address{}, fmt.Errorf("catalog id must be non-negative: %d", catalogID)
	}

	secret := []byte(fmt.Sprintf("dish-%d:%s", catalogID, name))
	reader := hkdf.New(sha256.New, secret, nil, []byte(dishIdentityInfo))
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(reader, seed); err != nil {
		return ledger.Address{}, err
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return ledger.AddressFromBytes(pub)
}
