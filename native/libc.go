package native

import (
	"fmt"

	"go.uber.org/zap"
)

// Libc holds the C library entry points the bridge needs, resolved once
// through a Resolver.
type Libc struct {
	*Resolver
	tramp *Trampoline

	calloc Addr
	free   Addr
	fopen  Addr
	fwrite Addr
	fclose Addr
}

// Open bootstraps dlsym from the running process and resolves the libc entry
// points. It is meant to be called once per process.
func Open() (*Libc, error) {
	entry, err := Bootstrap()
	if err != nil {
		return nil, err
	}
	tramp := NewTrampoline(SystemInvoker())
	return NewLibc(NewResolver(entry, tramp), tramp)
}

// NewLibc resolves the libc entry points through r. Calls made by the
// returned Libc go through tramp.
func NewLibc(r *Resolver, tramp *Trampoline) (*Libc, error) {
	lc := &Libc{Resolver: r, tramp: tramp}
	syms := []struct {
		name string
		dst  *Addr
	}{
		{"calloc", &lc.calloc},
		{"free", &lc.free},
		{"fopen", &lc.fopen},
		{"fwrite", &lc.fwrite},
		{"fclose", &lc.fclose},
	}
	for _, s := range syms {
		addr, err := r.Resolve(0, s.name)
		if err != nil {
			return nil, fmt.Errorf("libc: %w", err)
		}
		*s.dst = addr
	}
	Logger().Debug("libc resolved",
		zap.Stringer("dlsym", r.Entry()),
		zap.Stringer("calloc", lc.calloc),
		zap.Stringer("fopen", lc.fopen))
	return lc, nil
}

// Call invokes target through the trampoline.
func (l *Libc) Call(target Addr, args ...Arg) (uintptr, error) {
	return l.tramp.Call(target, args...)
}

// Calloc allocates n zeroed elements of size bytes. It returns 0 when the
// allocator fails.
func (l *Libc) Calloc(n, size uintptr) Addr {
	p, err := l.tramp.Call(l.calloc, Word(n), Word(size))
	if err != nil {
		return 0
	}
	return Addr(p)
}

// Free releases memory obtained from Calloc.
func (l *Libc) Free(p Addr) {
	if p == 0 {
		return
	}
	if _, err := l.tramp.Call(l.free, Ptr(p)); err != nil {
		Logger().Debug("free failed", zap.Stringer("addr", p), zap.Error(err))
	}
}
