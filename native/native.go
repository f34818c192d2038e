package native

import (
	"errors"
	"fmt"
)

// Addr is a pointer-width native address.
type Addr uintptr

func (a Addr) String() string {
	return fmt.Sprintf("0x%x", uintptr(a))
}

// Handle identifies a loaded shared library. The zero Handle searches every
// library loaded into the process.
type Handle uintptr

var (
	ErrSymbolNotFound  = errors.New("symbol not found")
	ErrInvalidSymbol   = errors.New("invalid symbol name")
	ErrNativeCallFault = errors.New("native call fault")
	ErrArity           = errors.New("too many arguments")
	ErrInvalidPath     = errors.New("invalid path")
	ErrFileOpenFailed  = errors.New("file open failed")
	ErrShortWrite      = errors.New("short write")
	ErrFileClose       = errors.New("file close failed")
	ErrUnsupported     = errors.New("native calls not supported on this platform")
)

// Invoker performs a raw native call. Implementations pass every argument as
// a machine word and return the first result register.
type Invoker interface {
	Invoke(fn Addr, args ...uintptr) uintptr
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(fn Addr, args ...uintptr) uintptr

func (f InvokerFunc) Invoke(fn Addr, args ...uintptr) uintptr {
	return f(fn, args...)
}
