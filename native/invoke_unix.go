//go:build linux || darwin

package native

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// GlobalHandle is the platform pseudo-handle that the zero Handle maps to.
const GlobalHandle Handle = purego.RTLD_DEFAULT

type sysInvoker struct{}

func (sysInvoker) Invoke(fn Addr, args ...uintptr) uintptr {
	r1, _, _ := purego.SyscallN(uintptr(fn), args...)
	return r1
}

// SystemInvoker returns the Invoker backed by the platform calling convention.
func SystemInvoker() Invoker {
	return sysInvoker{}
}

// Bootstrap returns the address of the dynamic linker's dlsym. It is the one
// symbol obtained without going through a Resolver.
func Bootstrap() (Addr, error) {
	sym, err := purego.Dlsym(purego.RTLD_DEFAULT, "dlsym")
	if err != nil {
		return 0, fmt.Errorf("bootstrap dlsym: %w", err)
	}
	if sym == 0 {
		return 0, fmt.Errorf("bootstrap dlsym: %w", ErrSymbolNotFound)
	}
	return Addr(sym), nil
}
