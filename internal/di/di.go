// Package di is a small service container with typed tokens.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves registered services by key.
type ServiceRegistry interface {
	Get(key string) any
}

// Container registers services and factories.
type Container interface {
	ServiceRegistry
	Register(key string, service any)
	RegisterFactory(key string, factory func(ServiceRegistry) any)
}

type container struct {
	mu        sync.Mutex
	services  map[string]any
	factories map[string]func(ServiceRegistry) any
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{
		services:  make(map[string]any),
		factories: make(map[string]func(ServiceRegistry) any),
	}
}

func (c *container) Register(key string, service any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[key] = service
}

func (c *container) RegisterFactory(key string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[key] = factory
}

// Get returns the service for key, building it from its factory on first use.
// It panics when nothing is registered under key.
func (c *container) Get(key string) any {
	c.mu.Lock()
	if s, ok := c.services[key]; ok {
		c.mu.Unlock()
		return s
	}
	factory, ok := c.factories[key]
	c.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("di: no service registered for %q", key))
	}

	// Factories may resolve other services, so build outside the lock.
	s := factory(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.services[key]; ok {
		return existing
	}
	c.services[key] = s
	return s
}

// Token is a typed service key.
type Token[T any] struct {
	key string
}

// NewToken creates a token for key.
func NewToken[T any](key string) Token[T] {
	return Token[T]{key: key}
}

// Key returns the registry key.
func (t Token[T]) Key() string {
	return t.key
}

// RegisterToken registers a lazily built singleton for tok.
func RegisterToken[T any](c Container, tok Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(tok.key, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves tok with its static type. A factory that returned a nil
// interface resolves to the zero T.
func GetToken[T any](sr ServiceRegistry, tok Token[T]) T {
	s := sr.Get(tok.key)
	if s == nil {
		var zero T
		return zero
	}
	return s.(T)
}
