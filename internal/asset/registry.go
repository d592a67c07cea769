package asset

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is a thread-safe registry of the tokens a network recognizes.
type Registry struct {
	native    *Asset
	byAddress map[common.Address]*Asset
	bySymbol  map[string]*Asset
	mu        sync.RWMutex
}

// NewRegistry creates a registry holding only the given native currency.
func NewRegistry(native *Asset) *Registry {
	if native == nil || !native.IsNative() {
		panic("asset: registry needs a native asset")
	}
	return &Registry{
		native:    native,
		byAddress: make(map[common.Address]*Asset),
		bySymbol:  make(map[string]*Asset),
	}
}

// Register adds a token to the registry.
// Panics if a token with the same address is already registered.
func (r *Registry) Register(a *Asset) {
	if a == nil || a.IsNative() {
		panic("asset: can only register tokens")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byAddress[a.Address()]; exists {
		panic(fmt.Sprintf("asset: %s already registered", a))
	}

	r.byAddress[a.Address()] = a
	if _, taken := r.bySymbol[a.Symbol()]; !taken {
		r.bySymbol[a.Symbol()] = a
	}
}

// Native returns the native currency.
func (r *Registry) Native() *Asset {
	return r.native
}

// Lookup retrieves a token by address.
func (r *Registry) Lookup(address common.Address) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byAddress[address]
	return a, ok
}

// MustLookup retrieves a token by address, panics if not found.
func (r *Registry) MustLookup(address common.Address) *Asset {
	a, ok := r.Lookup(address)
	if !ok {
		panic(fmt.Sprintf("asset: %s not found in registry", Canonical(address)))
	}
	return a
}

// BySymbol retrieves the first token registered under symbol.
func (r *Registry) BySymbol(symbol string) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.bySymbol[symbol]
	return a, ok
}

// Tokens returns all registered tokens ordered by address.
func (r *Registry) Tokens() []*Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Asset, 0, len(r.byAddress))
	for _, a := range r.byAddress {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		return CompareAddresses(result[i].Address(), result[j].Address()) < 0
	})
	return result
}

// Count returns the number of registered tokens.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAddress)
}
