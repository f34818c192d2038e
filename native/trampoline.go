package native

import (
	"fmt"
	"runtime"
	"unsafe"

	"go.uber.org/zap"
)

// MaxArgs is the largest arity the trampoline dispatches.
const MaxArgs = 8

// Trampoline calls native functions with tagged arguments.
type Trampoline struct {
	inv Invoker
}

// NewTrampoline returns a Trampoline dispatching through inv.
func NewTrampoline(inv Invoker) *Trampoline {
	return &Trampoline{inv: inv}
}

// Call invokes target with args and returns the callee's word result.
//
// Byte arguments are copied into pinned scratch buffers with a trailing NUL
// and released when Call returns; the callee must not retain them.
func (t *Trampoline) Call(target Addr, args ...Arg) (uintptr, error) {
	if target == 0 {
		return 0, fmt.Errorf("%w: null target", ErrNativeCallFault)
	}
	if len(args) > MaxArgs {
		return 0, fmt.Errorf("%w: %d (max %d)", ErrArity, len(args), MaxArgs)
	}

	var pinner runtime.Pinner
	defer pinner.Unpin()

	words := make([]uintptr, len(args))
	scratch := make([][]byte, 0, len(args))
	for i, a := range args {
		switch a.Kind {
		case KindInt:
			words[i] = a.Word
		case KindBytes:
			buf := make([]byte, len(a.Data)+1)
			copy(buf, a.Data)
			pinner.Pin(&buf[0])
			scratch = append(scratch, buf)
			words[i] = uintptr(unsafe.Pointer(&buf[0]))
		default:
			return 0, fmt.Errorf("%w: argument %d has kind %v", ErrNativeCallFault, i, a.Kind)
		}
	}

	if ce := Logger().Check(zap.DebugLevel, "native call"); ce != nil {
		ce.Write(zap.Stringer("target", target), zap.Int("argc", len(args)))
	}

	r := t.inv.Invoke(target, words...)
	runtime.KeepAlive(scratch)
	return r, nil
}
