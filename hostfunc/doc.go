// Package hostfunc provides the bridge primitives exported to WebAssembly
// modules.
//
// # Overview
//
// Every primitive is registered in a [Registry] and exported from one host
// module, [ModuleName]. Primitives find the running module's [Host] in the
// call context; the executor binds it with [WithHost] before instantiating a
// guest.
//
//	registry := hostfunc.Default()
//	registry.Instantiate(ctx, runtime, hostfunc.ModuleName)
//
// # Primitives
//
// Symbols: get_dlsym, dlsym, ffi_call (argument records of [ArgRecordSize]
// bytes, see [DecodeArgs]).
//
// Memory view: peek8, poke8, peek32, poke32, arena_addr.
//
// Input and output: input_len, input_read, emit, emit_bytes, write_file.
//
// Modules: load.
//
// # Errors
//
// A primitive that fails records the error on the Host with Fault and traps
// the guest. Guest pointers outside linear memory fail with [ErrGuestMemory].
package hostfunc
