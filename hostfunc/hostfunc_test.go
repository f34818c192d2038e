package hostfunc_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/caffeineduck/smold/arena"
	"github.com/caffeineduck/smold/hostfunc"
	"github.com/caffeineduck/smold/internal/wasmtest"
	"github.com/caffeineduck/smold/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

type testHost struct {
	mem    arena.View
	input  []byte
	out    bytes.Buffer
	files  map[string][]byte
	loads  []string
	called []native.Arg
	fault  error
}

func newTestHost(input string) *testHost {
	return &testHost{mem: arena.NewShadow(4096), input: []byte(input), files: map[string][]byte{}}
}

func (h *testHost) Entry() native.Addr { return 0xd1 }

func (h *testHost) Resolve(_ native.Handle, name string) (native.Addr, error) {
	if name == "strlen" {
		return 0x5a, nil
	}
	return 0, fmt.Errorf("%w: %s", native.ErrSymbolNotFound, name)
}

func (h *testHost) Call(target native.Addr, args ...native.Arg) (uintptr, error) {
	h.called = args
	if target != 0x5a {
		return 0, native.ErrNativeCallFault
	}
	return uintptr(len(args[0].Data)), nil
}

func (h *testHost) Memory() arena.View                        { return h.mem }
func (h *testHost) ArenaAddr(off uint32) (native.Addr, error) { return native.Addr(0x1000 + off), nil }
func (h *testHost) Emit(b ...byte)                            { h.out.Write(b) }
func (h *testHost) Input() []byte                             { return h.input }
func (h *testHost) Diagnostics() io.Writer                    { return io.Discard }

func (h *testHost) WriteFile(path string, data []byte) error {
	if path == "" {
		return native.ErrInvalidPath
	}
	h.files[path] = data
	return nil
}

func (h *testHost) Load(_ context.Context, name string) error {
	h.loads = append(h.loads, name)
	return nil
}

func (h *testHost) Fault(err error) {
	if h.fault == nil {
		h.fault = err
	}
}

func newRuntime(t *testing.T) (context.Context, wazero.Runtime) {
	t.Helper()
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	t.Cleanup(func() { rt.Close(ctx) })
	_, err := hostfunc.Default().Instantiate(ctx, rt, hostfunc.ModuleName)
	require.NoError(t, err)
	return ctx, rt
}

func runGuest(t *testing.T, h hostfunc.Host, bin []byte) error {
	t.Helper()
	ctx, rt := newRuntime(t)
	compiled, err := rt.CompileModule(ctx, bin)
	require.NoError(t, err)
	mod, err := rt.InstantiateModule(hostfunc.WithHost(ctx, h), compiled, wazero.NewModuleConfig().WithName(""))
	if mod != nil {
		mod.Close(ctx)
	}
	return err
}

func TestDefaultRegistry(t *testing.T) {
	names := hostfunc.Default().List()
	for _, want := range []string{
		"get_dlsym", "dlsym", "ffi_call", "arena_addr", "load",
		"peek8", "poke8", "peek32", "poke32",
		"emit", "emit_bytes", "input_len", "input_read", "write_file",
	} {
		assert.Contains(t, names, want)
	}
	fn, ok := hostfunc.Default().Get("ffi_call")
	require.True(t, ok)
	assert.Equal(t, []api.ValueType{api.ValueTypeI64, api.ValueTypeI32, api.ValueTypeI32}, fn.Params)
}

func TestRegistryRegister(t *testing.T) {
	r := hostfunc.NewRegistry()
	r.Register("b", hostfunc.Func{})
	r.Register("a", hostfunc.Func{})
	assert.Equal(t, []string{"a", "b"}, r.List())
	_, ok := r.Get("c")
	assert.False(t, ok)
}

func TestGuestIdentity(t *testing.T) {
	h := newTestHost("through the view")
	require.NoError(t, runGuest(t, h, wasmtest.Identity("core")))
	assert.Equal(t, "through the view", h.out.String())
	assert.Equal(t, []string{"core"}, h.loads)

	b, err := h.mem.Peek8(0)
	require.NoError(t, err)
	assert.Equal(t, uint8('t'), b)
}

func TestGuestCallBytes(t *testing.T) {
	h := newTestHost("")
	require.NoError(t, runGuest(t, h, wasmtest.CallBytes("strlen", "four")))
	assert.Equal(t, []byte{4}, h.out.Bytes())
	require.Len(t, h.called, 1)
	assert.Equal(t, native.KindBytes, h.called[0].Kind)
	assert.Equal(t, []byte("four"), h.called[0].Data)
}

func TestGuestResolveMissingTraps(t *testing.T) {
	h := newTestHost("")
	err := runGuest(t, h, wasmtest.Resolve("nonexistent_symbol_xyz"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, native.ErrSymbolNotFound))
	assert.ErrorIs(t, h.fault, native.ErrSymbolNotFound)
	assert.Zero(t, h.out.Len())
}

func TestGuestPeekOutOfRange(t *testing.T) {
	h := newTestHost("")
	err := runGuest(t, h, wasmtest.Peek(4096))
	assert.ErrorIs(t, h.fault, arena.ErrMemoryFault)
	assert.Error(t, err)
}

func TestNoHostInContext(t *testing.T) {
	ctx, rt := newRuntime(t)
	compiled, err := rt.CompileModule(ctx, wasmtest.Peek(0))
	require.NoError(t, err)
	_, err = rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	assert.ErrorIs(t, err, hostfunc.ErrNoHost)
}

func TestDecodeArgs(t *testing.T) {
	ctx, rt := newRuntime(t)
	compiled, err := rt.CompileModule(ctx, wasmtest.CallBytes("strlen", "abc"))
	require.NoError(t, err)
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("").WithStartFunctions())
	require.NoError(t, err)
	defer mod.Close(ctx)

	recs := hostfunc.Encode(
		hostfunc.ArgRecord{Kind: hostfunc.ArgKindInt, Value: uint64(0xFFFFFFFFFFFFFFFF)},
		hostfunc.ArgRecord{Kind: hostfunc.ArgKindBytes, Len: 3, Value: 256},
	)
	require.NoError(t, hostfunc.WriteBytes(mod, 2048, recs))

	args, err := hostfunc.DecodeArgs(mod, 2048, 2)
	require.NoError(t, err)
	require.Len(t, args, 2)
	assert.Equal(t, native.Int(-1), args[0])
	assert.Equal(t, native.Bytes([]byte("abc")), args[1])

	_, err = hostfunc.DecodeArgs(mod, 2048, native.MaxArgs+1)
	assert.ErrorIs(t, err, native.ErrArity)

	require.NoError(t, hostfunc.WriteBytes(mod, 4096, hostfunc.Encode(hostfunc.ArgRecord{Kind: 7})))
	_, err = hostfunc.DecodeArgs(mod, 4096, 1)
	assert.ErrorIs(t, err, native.ErrNativeCallFault)

	_, err = hostfunc.DecodeArgs(mod, 65536-8, 1)
	assert.ErrorIs(t, err, hostfunc.ErrGuestMemory)
}

func TestViewBytes(t *testing.T) {
	h := newTestHost("")
	require.NoError(t, h.mem.Poke32(0, 0x64636261))

	b, err := hostfunc.ViewBytes(h, 0, 4)
	require.NoError(t, err)
	assert.ElementsMatch(t, []byte("abcd"), b)

	_, err = hostfunc.ViewBytes(h, 4090, 10)
	assert.ErrorIs(t, err, arena.ErrMemoryFault)
}

func TestGuestWord(t *testing.T) {
	h := newTestHost("")
	require.NoError(t, runGuest(t, h, wasmtest.Word(100, -1)))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, h.out.Bytes(), "negative words are stored as their low 32 bits")
	w, err := h.mem.Peek32(100)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xffffffff), w)

	h = newTestHost("")
	require.NoError(t, runGuest(t, h, wasmtest.Word(8, 0x11223344)))
	assert.Equal(t, []byte{0x44, 0x33, 0x22, 0x11}, h.out.Bytes())
	w, err = h.mem.Peek32(8)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x11223344), w)
}

func TestGuestWordOutOfRange(t *testing.T) {
	h := newTestHost("")
	err := runGuest(t, h, wasmtest.Word(4094, 1))
	require.Error(t, err)
	assert.ErrorIs(t, h.fault, arena.ErrMemoryFault)
	assert.Zero(t, h.out.Len())
}

func TestGuestAddresses(t *testing.T) {
	h := newTestHost("")
	require.NoError(t, runGuest(t, h, wasmtest.Addresses(3)))
	out := h.out.Bytes()
	require.Len(t, out, 16)
	assert.Equal(t, uint64(0xd1), binary.LittleEndian.Uint64(out))
	assert.Equal(t, uint64(0x1003), binary.LittleEndian.Uint64(out[8:]))
}

func TestGuestWriteFile(t *testing.T) {
	h := newTestHost("")
	for i, c := range []byte("abcd") {
		require.NoError(t, h.mem.Poke8(100+uint32(i), int64(c)))
	}
	require.NoError(t, runGuest(t, h, wasmtest.WriteFile("out.bin", 100, 4)))
	assert.Equal(t, []byte("abcd"), h.files["out.bin"])

	require.NoError(t, runGuest(t, h, wasmtest.WriteFile("empty.bin", 0, 0)))
	data, ok := h.files["empty.bin"]
	assert.True(t, ok)
	assert.Empty(t, data)
}

func TestGuestWriteFileFaults(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		off, n  int32
		wantErr error
	}{
		{"past end", "bad.bin", 4090, 10, arena.ErrMemoryFault},
		{"offset wraps", "bad.bin", -1, 2, arena.ErrMemoryFault},
		{"empty path", "", 0, 4, native.ErrInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHost("")
			err := runGuest(t, h, wasmtest.WriteFile(tt.path, tt.off, tt.n))
			require.Error(t, err)
			assert.ErrorIs(t, h.fault, tt.wantErr)
			assert.Empty(t, h.files)
		})
	}
}
