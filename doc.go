// Package smold bridges a hosted module to native shared libraries and a
// dedicated heap arena.
//
// # Overview
//
// A module (WebAssembly, or Go via [builtin]) calls functions in libraries
// already loaded into the process through a resolver and a call trampoline,
// and reads or writes an arena by integer offset rather than by pointer.
// Memory access starts on a Go-backed stub and is upgraded to the arena
// once the trigger module has loaded.
//
// # Basic Usage
//
//	exec, _ := executor.New(nil)
//	defer exec.Close()
//
//	session, _ := exec.NewSession(executor.WithInput([]byte("hello")))
//	result := session.Run(ctx, "identity")
//	text, _ := session.Output().Text()
//
// # Writing WebAssembly modules
//
// Guests import the bridge primitives from the "smold" host module:
// get_dlsym, dlsym, ffi_call, peek8, poke8, peek32, poke32, arena_addr,
// emit, emit_bytes, input_len, input_read, write_file and load.
//
// See the [native], [arena], [hostfunc] and [executor] packages for details.
package smold
