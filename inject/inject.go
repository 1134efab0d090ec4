// Package inject is the runtime support imported by generated components.
//
// Generated code is plain Go: constructors are called directly and scoped
// values are cached in a LazyMap owned by the component instance that
// declares the scope. Nothing here uses reflection.
package inject

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Component is implemented by every generated component. Child components
// reach their ancestors' caches and parameters through it.
type Component interface {
	// InjectScope returns the cache for values scoped to this component.
	InjectScope() *LazyMap
	// InjectParam returns the constructor parameter with the given name.
	InjectParam(name string) any
}

// LazyMap memoizes values by key. Each initializer runs at most once even
// under concurrent first access. The zero value is ready to use.
type LazyMap struct {
	values sync.Map
	group  singleflight.Group
}

// Get returns the value stored under key, running init to create it on first
// use. init must not request the same key again.
func (m *LazyMap) Get(key string, init func() any) any {
	if v, ok := m.values.Load(key); ok {
		return v
	}
	v, _, _ := m.group.Do(key, func() (any, error) {
		if v, ok := m.values.Load(key); ok {
			return v, nil
		}
		v := init()
		m.values.Store(key, v)
		return v, nil
	})
	return v
}

// Len returns the number of cached values.
func (m *LazyMap) Len() int {
	n := 0
	m.values.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

// Get is the typed form of LazyMap.Get used by generated code.
func Get[T any](m *LazyMap, key string, init func() T) T {
	v := m.Get(key, func() any { return init() })
	t, _ := v.(T)
	return t
}

// Cached returns the value already stored under key. Generated code uses it
// for references back to a value from inside its own initializer, which only
// run once that initializer has finished.
func Cached[T any](m *LazyMap, key string) T {
	v, ok := m.values.Load(key)
	if !ok {
		panic(fmt.Sprintf("inject: %s used before its initializer returned", key))
	}
	t, _ := v.(T)
	return t
}

// Lazy defers a construction until first use. Get is safe for concurrent
// use and constructs the value once.
type Lazy[T any] struct {
	once  sync.Once
	init  func() T
	value T
}

// NewLazy returns a handle that builds its value with init.
func NewLazy[T any](init func() T) *Lazy[T] {
	return &Lazy[T]{init: init}
}

// Get returns the value, constructing it on the first call.
func (l *Lazy[T]) Get() T {
	l.once.Do(func() {
		l.value = l.init()
		l.init = nil
	})
	return l.value
}

// Follow walks hops through component parameters, starting at c.
func Follow(c any, hops ...string) any {
	for _, hop := range hops {
		c = mustComponent(c).InjectParam(hop)
	}
	return c
}

// ScopeOf returns the cache of a generated component.
func ScopeOf(c any) *LazyMap {
	return mustComponent(c).InjectScope()
}

func mustComponent(c any) Component {
	comp, ok := c.(Component)
	if !ok {
		panic(fmt.Sprintf("inject: %T is not a generated component", c))
	}
	return comp
}

// Must unwraps the result of a constructor or provider that can fail.
// Requirements cannot return errors, so a failure panics.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Errorf("inject: %w", err))
	}
	return v
}
