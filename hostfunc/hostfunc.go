package hostfunc

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// ModuleName is the import module guests use for bridge primitives.
const ModuleName = "smold"

// Func is a host function exported to guests.
type Func struct {
	Params  []api.ValueType
	Results []api.ValueType
	Fn      api.GoModuleFunc
}

type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Default returns a registry holding every bridge primitive.
func Default() *Registry {
	r := NewRegistry()
	registerBridge(r)
	registerMemory(r)
	registerIO(r)
	return r
}

func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	r.funcs[name] = fn
	r.mu.Unlock()
}

func (r *Registry) Get(name string) (Func, bool) {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()
	return fn, ok
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Instantiate exports every registered function from a host module called
// name on rt.
func (r *Registry) Instantiate(ctx context.Context, rt wazero.Runtime, name string) (api.Module, error) {
	builder := rt.NewHostModuleBuilder(name)
	for _, fname := range r.List() {
		fn, _ := r.Get(fname)
		builder.NewFunctionBuilder().
			WithGoModuleFunction(fn.Fn, fn.Params, fn.Results).
			Export(fname)
	}
	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, fmt.Errorf("instantiate host module %s: %w", name, err)
	}
	return mod, nil
}
