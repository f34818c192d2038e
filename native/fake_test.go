package native

import (
	"bytes"
	"unsafe"
)

// fakeProcess maps fake addresses to Go implementations of the few C
// functions the package calls.
type fakeProcess struct {
	symbols map[string]Addr
	funcs   map[Addr]func(args ...uintptr) uintptr
	calls   map[Addr]int
	blocks  map[Addr][]byte
	files   map[uintptr]*bytes.Buffer
	written map[string][]byte
	names   map[uintptr]string

	nextFile   uintptr
	failOpen   bool
	failClose  bool
	writeLimit int
}

func cString(p uintptr) string {
	var b []byte
	for i := uintptr(0); ; i++ {
		c := *(*byte)(unsafe.Pointer(p + i))
		if c == 0 {
			return string(b)
		}
		b = append(b, c)
	}
}

func newFakeProcess() *fakeProcess {
	f := &fakeProcess{
		symbols:  map[string]Addr{},
		funcs:    map[Addr]func(args ...uintptr) uintptr{},
		calls:    map[Addr]int{},
		blocks:   map[Addr][]byte{},
		files:    map[uintptr]*bytes.Buffer{},
		written:  map[string][]byte{},
		names:    map[uintptr]string{},
		nextFile: 0x5000,
	}
	f.define("dlsym", 0x1000, func(args ...uintptr) uintptr {
		return uintptr(f.symbols[cString(args[1])])
	})
	f.define("calloc", 0x1100, func(args ...uintptr) uintptr {
		n := int(args[0] * args[1])
		if n == 0 {
			n = 1
		}
		b := make([]byte, n)
		p := Addr(unsafe.Pointer(&b[0]))
		f.blocks[p] = b
		return uintptr(p)
	})
	f.define("free", 0x1200, func(args ...uintptr) uintptr {
		delete(f.blocks, Addr(args[0]))
		return 0
	})
	f.define("fopen", 0x1300, func(args ...uintptr) uintptr {
		if f.failOpen {
			return 0
		}
		f.nextFile++
		f.files[f.nextFile] = new(bytes.Buffer)
		f.names[f.nextFile] = cString(args[0])
		return f.nextFile
	})
	f.define("fwrite", 0x1400, func(args ...uintptr) uintptr {
		n := int(args[1] * args[2])
		if f.writeLimit > 0 && n > f.writeLimit {
			n = f.writeLimit
		}
		f.files[args[3]].Write(Slice(Addr(args[0]), n))
		return uintptr(n)
	})
	f.define("fclose", 0x1500, func(args ...uintptr) uintptr {
		f.written[f.names[args[0]]] = f.files[args[0]].Bytes()
		delete(f.files, args[0])
		if f.failClose {
			return ^uintptr(0)
		}
		return 0
	})
	return f
}

func (f *fakeProcess) define(name string, addr Addr, fn func(args ...uintptr) uintptr) {
	f.symbols[name] = addr
	f.funcs[addr] = fn
}

func (f *fakeProcess) Invoke(fn Addr, args ...uintptr) uintptr {
	f.calls[fn]++
	impl, ok := f.funcs[fn]
	if !ok {
		panic("fake: call to unknown address " + fn.String())
	}
	return impl(args...)
}

func (f *fakeProcess) libc(t interface{ Fatalf(string, ...any) }) *Libc {
	tramp := NewTrampoline(f)
	lc, err := NewLibc(NewResolver(f.symbols["dlsym"], tramp), tramp)
	if err != nil {
		t.Fatalf("libc: %v", err)
	}
	return lc
}

func (f *fakeProcess) totalCalls() int {
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}
