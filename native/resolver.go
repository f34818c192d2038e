package native

import "fmt"

// Resolver looks up symbols by calling the dynamic linker's dlsym through a
// Trampoline.
type Resolver struct {
	entry Addr
	tramp *Trampoline
}

// NewResolver returns a Resolver calling entry, which must be the address of
// a dlsym-compatible function.
func NewResolver(entry Addr, tramp *Trampoline) *Resolver {
	return &Resolver{entry: entry, tramp: tramp}
}

// Entry returns the address of the resolver's own entry point.
func (r *Resolver) Entry() Addr {
	return r.entry
}

// Resolve returns the address of name in the library identified by handle.
// The zero handle searches all loaded libraries.
func (r *Resolver) Resolve(handle Handle, name string) (Addr, error) {
	if name == "" {
		return 0, ErrInvalidSymbol
	}
	if handle == 0 {
		handle = GlobalHandle
	}
	sym, err := r.tramp.Call(r.entry, Word(uintptr(handle)), String(name))
	if err != nil {
		return 0, fmt.Errorf("resolve %s: %w", name, err)
	}
	if sym == 0 {
		return 0, fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
	}
	return Addr(sym), nil
}
