package wasmtest

import "github.com/caffeineduck/smold/hostfunc"

// HostModule is the import module the fixtures link against.
const HostModule = hostfunc.ModuleName

// inputBase is where fixtures stage input in guest memory.
const inputBase = 1024

// Identity copies the run input into the bound memory view with poke8,
// reads it back with peek8 and emits every byte. When preload is non-empty
// the module first loads it.
func Identity(preload string) []byte {
	b := New()
	load := b.Import(HostModule, "load", []byte{I32, I32}, nil)
	inputLen := b.Import(HostModule, "input_len", nil, []byte{I32})
	inputRead := b.Import(HostModule, "input_read", []byte{I32, I32, I32}, []byte{I32})
	poke8 := b.Import(HostModule, "poke8", []byte{I32, I32}, nil)
	peek8 := b.Import(HostModule, "peek8", []byte{I32}, []byte{I32})
	emit := b.Import(HostModule, "emit", []byte{I32}, nil)

	const n, i = 0, 1
	var prelude []byte
	if preload != "" {
		b.Data(0, []byte(preload))
		prelude = concat(I32Const(0), I32Const(int32(len(preload))), Call(load))
	}
	b.Memory(1)
	b.Func("_start", nil, nil, []byte{I32, I32},
		prelude,
		Call(inputLen), LocalSet(n),
		I32Const(inputBase), I32Const(0), LocalGet(n), Call(inputRead), Drop,

		Block, Loop,
		LocalGet(i), LocalGet(n), I32GeU, BrIf(1),
		LocalGet(i),
		LocalGet(i), I32Const(inputBase), I32Add, I32Load8U,
		Call(poke8),
		LocalGet(i), I32Const(1), I32Add, LocalSet(i),
		Br(0),
		End, End,

		I32Const(0), LocalSet(i),
		Block, Loop,
		LocalGet(i), LocalGet(n), I32GeU, BrIf(1),
		LocalGet(i), Call(peek8), Call(emit),
		LocalGet(i), I32Const(1), I32Add, LocalSet(i),
		Br(0),
		End, End,
	)
	return b.Bytes()
}

// Resolve looks up sym in the global namespace and emits the low byte of
// the address.
func Resolve(sym string) []byte {
	b := New()
	dlsym := b.Import(HostModule, "dlsym", []byte{I64, I32, I32}, []byte{I64})
	emit := b.Import(HostModule, "emit", []byte{I32}, nil)
	b.Memory(1).Data(0, []byte(sym))
	b.Func("_start", nil, nil, nil,
		I64Const(0), I32Const(0), I32Const(int32(len(sym))), Call(dlsym),
		I32WrapI64, Call(emit),
	)
	return b.Bytes()
}

// CallBytes resolves sym and calls it with s as its only argument, then
// emits the low byte of the result.
func CallBytes(sym, s string) []byte {
	b := New()
	dlsym := b.Import(HostModule, "dlsym", []byte{I64, I32, I32}, []byte{I64})
	ffiCall := b.Import(HostModule, "ffi_call", []byte{I64, I32, I32}, []byte{I64})
	emit := b.Import(HostModule, "emit", []byte{I32}, nil)

	const symOff, strOff, argvOff = 0, 256, 512
	rec := hostfunc.Encode(hostfunc.ArgRecord{
		Kind:  hostfunc.ArgKindBytes,
		Len:   uint32(len(s)),
		Value: strOff,
	})

	b.Memory(1).
		Data(symOff, []byte(sym)).
		Data(strOff, []byte(s)).
		Data(argvOff, rec)
	b.Func("_start", nil, nil, nil,
		I64Const(0), I32Const(symOff), I32Const(int32(len(sym))), Call(dlsym),
		I32Const(argvOff), I32Const(1), Call(ffiCall),
		I32WrapI64, Call(emit),
	)
	return b.Bytes()
}

// Peek reads the byte at off through the memory view and emits it.
func Peek(off int32) []byte {
	b := New()
	peek8 := b.Import(HostModule, "peek8", []byte{I32}, []byte{I32})
	emit := b.Import(HostModule, "emit", []byte{I32}, nil)
	b.Func("_start", nil, nil, nil,
		I32Const(off), Call(peek8), Call(emit),
	)
	return b.Bytes()
}

// Word stores v at off with poke32, reads it back with peek32 and emits the
// word as four little endian bytes.
func Word(off, v int32) []byte {
	b := New()
	poke32 := b.Import(HostModule, "poke32", []byte{I32, I32}, nil)
	peek32 := b.Import(HostModule, "peek32", []byte{I32}, []byte{I32})
	emitBytes := b.Import(HostModule, "emit_bytes", []byte{I32, I32}, nil)
	b.Memory(1)
	b.Func("_start", nil, nil, nil,
		I32Const(off), I32Const(v), Call(poke32),
		I32Const(0), I32Const(off), Call(peek32), I32Store,
		I32Const(0), I32Const(4), Call(emitBytes),
	)
	return b.Bytes()
}

// Addresses emits the resolver entry and the native address of arena
// offset off, each as eight little endian bytes.
func Addresses(off int32) []byte {
	b := New()
	getDlsym := b.Import(HostModule, "get_dlsym", nil, []byte{I64})
	arenaAddr := b.Import(HostModule, "arena_addr", []byte{I32}, []byte{I64})
	emitBytes := b.Import(HostModule, "emit_bytes", []byte{I32, I32}, nil)
	b.Memory(1)
	b.Func("_start", nil, nil, nil,
		I32Const(0), Call(getDlsym), I64Store,
		I32Const(8), I32Const(off), Call(arenaAddr), I64Store,
		I32Const(0), I32Const(16), Call(emitBytes),
	)
	return b.Bytes()
}

// WriteFile flushes n bytes of the memory view at off to path.
func WriteFile(path string, off, n int32) []byte {
	b := New()
	writeFile := b.Import(HostModule, "write_file", []byte{I32, I32, I32, I32}, nil)
	b.Memory(1).Data(0, []byte(path))
	b.Func("_start", nil, nil, nil,
		I32Const(0), I32Const(int32(len(path))), I32Const(off), I32Const(n), Call(writeFile),
	)
	return b.Bytes()
}

// Trap emits b and then executes unreachable.
func Trap(emitted byte) []byte {
	b := New()
	emit := b.Import(HostModule, "emit", []byte{I32}, nil)
	b.Func("_start", nil, nil, nil,
		I32Const(int32(emitted)), Call(emit),
		Unreachable,
	)
	return b.Bytes()
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
