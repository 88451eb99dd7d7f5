package bridge

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry maps method names to functions other plugins may call. Methods are
// stored untyped; callers look them up with the function type they expect.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]any
	log     *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		methods: make(map[string]any),
		log:     log,
	}
}

// Save registers fn under name, replacing any previous method.
func (reg *Registry) Save(name string, fn any) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.methods[name]; ok {
		reg.log.Debug("bridge method replaced", zap.String("name", name))
	}
	reg.methods[name] = fn
}

// Names lists the registered methods in sorted order.
func (reg *Registry) Names() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	names := make([]string, 0, len(reg.methods))
	for n := range reg.methods {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the method registered under name as a T.
func Lookup[T any](reg *Registry, name string) (T, error) {
	var zero T
	reg.mu.RLock()
	raw, ok := reg.methods[name]
	reg.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("bridge method %q not registered", name)
	}
	fn, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("bridge method %q has type %T, want %T", name, raw, zero)
	}
	return fn, nil
}

// SafeCall runs call with panic recovery so a misbehaving caller cannot take
// down the tick loop.
func (reg *Registry) SafeCall(name string, call func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("bridge call panic recovered",
				zap.String("name", name),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("bridge call %q panicked: %v", name, rec)
		}
	}()
	call()
	return nil
}
