// Package executor loads and runs modules against the native bridge.
//
// # Overview
//
// An [Executor] owns the wazero runtime, the compiled module cache and the
// host module exporting the bridge primitives. A [Session] is the context a
// module runs in: the C library binding, the heap arena, the capability set
// deciding which memory backs the script view, the run input and the
// [Output] buffer.
//
// # Basic Usage
//
//	exec, err := executor.New(nil, executor.WithModuleDir("./modules"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exec.Close()
//
//	session, err := exec.NewSession(executor.WithInput([]byte("hello")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result := session.Run(ctx, "identity")
//	text, _ := session.Output().Text()
//
// # Capability upgrade
//
// Modules start with a memory view backed by Go memory. Once the trigger
// module (by default "core") loads successfully the view is rebound to the
// arena, for the rest of the session.
package executor
