// Package native resolves symbols in already-loaded shared libraries and
// calls them through a small fixed-arity trampoline.
//
// # Overview
//
// Nothing in this package links against libc at build time. The only symbol
// obtained from the host is dlsym itself (see [Bootstrap]); every other
// lookup is an ordinary native call through that entry point:
//
//	lc, err := native.Open()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	puts, err := lc.Resolve(0, "puts")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	lc.Call(puts, native.String("hello"))
//
// # Arguments
//
// Each argument is either a word passed by value ([Int], [Word]) or a byte
// sequence ([Bytes], [String]) that is copied into a NUL-terminated scratch
// buffer and passed as a pointer. The scratch buffer lives only for the
// duration of the call. At most [MaxArgs] arguments are accepted; the
// trampoline does not know the callee's real signature.
//
// # Files
//
// [Libc.WriteFile] writes a byte buffer through fopen/fwrite/fclose resolved
// at runtime. [ReadFile] reads a whole file with raw system calls.
//
// Nothing here protects against a misbehaving native library. A bad target
// address or a wrong argument count crashes the process.
package native
