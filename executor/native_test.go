package executor

import (
	"bytes"
	"fmt"
	"unsafe"

	"github.com/caffeineduck/smold/native"
)

// fakeNative stands in for the C library: allocations are Go memory and
// calls dispatch to Go functions.
type fakeNative struct {
	syms   map[string]native.Addr
	funcs  map[native.Addr]func(args ...native.Arg) uintptr
	blocks [][]byte
	files  map[string][]byte
	calls  int
}

func newFakeNative() *fakeNative {
	return &fakeNative{
		syms: map[string]native.Addr{"calloc": 0x10, "strlen": 0x20, "toupper": 0x30},
		funcs: map[native.Addr]func(args ...native.Arg) uintptr{
			0x20: func(args ...native.Arg) uintptr {
				if i := bytes.IndexByte(args[0].Data, 0); i >= 0 {
					return uintptr(i)
				}
				return uintptr(len(args[0].Data))
			},
			0x30: func(args ...native.Arg) uintptr {
				return uintptr(bytes.ToUpper([]byte{byte(args[0].Word)})[0])
			},
		},
		files: map[string][]byte{},
	}
}

func (f *fakeNative) Entry() native.Addr { return 0x1 }

func (f *fakeNative) Resolve(_ native.Handle, name string) (native.Addr, error) {
	if name == "" {
		return 0, native.ErrInvalidSymbol
	}
	if a, ok := f.syms[name]; ok {
		return a, nil
	}
	return 0, fmt.Errorf("%w: %s", native.ErrSymbolNotFound, name)
}

func (f *fakeNative) Call(target native.Addr, args ...native.Arg) (uintptr, error) {
	f.calls++
	fn, ok := f.funcs[target]
	if !ok {
		return 0, fmt.Errorf("%w: %v", native.ErrNativeCallFault, target)
	}
	return fn(args...), nil
}

func (f *fakeNative) Calloc(n, size uintptr) native.Addr {
	b := make([]byte, n*size)
	f.blocks = append(f.blocks, b)
	return native.Addr(unsafe.Pointer(&b[0]))
}

func (f *fakeNative) WriteFile(path string, data []byte) error {
	if path == "" {
		return native.ErrInvalidPath
	}
	f.files[path] = bytes.Clone(data)
	return nil
}
