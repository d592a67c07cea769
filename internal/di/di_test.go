package di_test

import (
	"testing"

	"github.com/cowprotocol/solver-rewards/internal/di"
)

type counter struct{ n int }

func TestContainer_FactoryBuiltOnce(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken[*counter]("test:counter")

	builds := 0
	di.RegisterToken(c, tok, func(sr di.ServiceRegistry) *counter {
		builds++
		return &counter{n: sr.Get("start").(int)}
	})
	c.Register("start", 41)

	first := di.GetToken(c, tok)
	second := di.GetToken(c, tok)

	if first != second {
		t.Error("expected singleton instance")
	}
	if builds != 1 {
		t.Errorf("expected 1 build, got %d", builds)
	}
	if first.n != 41 {
		t.Errorf("expected 41, got %d", first.n)
	}
}

func TestContainer_MissingPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unregistered key")
		}
	}()
	di.NewContainer().Get("missing")
}

type greeter interface{ Greet() string }

func TestGetToken_NilInterface(t *testing.T) {
	c := di.NewContainer()
	tok := di.NewToken[greeter]("test:greeter")
	di.RegisterToken(c, tok, func(di.ServiceRegistry) greeter { return nil })

	if g := di.GetToken(c, tok); g != nil {
		t.Errorf("expected nil greeter, got %v", g)
	}
}
