package hostfunc

import (
	"context"
	"errors"
	"io"

	"github.com/caffeineduck/smold/arena"
	"github.com/caffeineduck/smold/native"
)

// ErrNoHost is raised when a primitive runs without a Host in its context.
var ErrNoHost = errors.New("no host bound to context")

// Host is the primitive surface a running module sees.
type Host interface {
	// Entry returns the resolver entry point.
	Entry() native.Addr
	Resolve(h native.Handle, name string) (native.Addr, error)
	Call(target native.Addr, args ...native.Arg) (uintptr, error)

	// Memory is the view currently bound by the capability set.
	Memory() arena.View
	// ArenaAddr translates an arena offset to a native address.
	ArenaAddr(off uint32) (native.Addr, error)

	Emit(b ...byte)
	Input() []byte
	WriteFile(path string, data []byte) error

	// Load runs a nested module through the session's loader.
	Load(ctx context.Context, name string) error

	// Fault records err as the cause of a trap. Only the first fault of a
	// run is kept.
	Fault(err error)

	Diagnostics() io.Writer
}

type hostKey struct{}

// WithHost returns a context carrying h for primitives to find.
func WithHost(ctx context.Context, h Host) context.Context {
	return context.WithValue(ctx, hostKey{}, h)
}

// FromContext returns the Host bound to ctx.
func FromContext(ctx context.Context) (Host, bool) {
	h, ok := ctx.Value(hostKey{}).(Host)
	return h, ok
}

func mustHost(ctx context.Context) Host {
	h, ok := FromContext(ctx)
	if !ok {
		panic(ErrNoHost)
	}
	return h
}

// trap aborts the guest with err after recording it on h.
func trap(h Host, err error) {
	h.Fault(err)
	panic(err)
}
