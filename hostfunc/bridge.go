package hostfunc

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/caffeineduck/smold/native"
	"github.com/tetratelabs/wazero/api"
)

// Argument record layout used by ffi_call: kind u32, len u32, value u64,
// little endian.
const (
	ArgRecordSize = 16

	ArgKindInt   = 0
	ArgKindBytes = 1
)

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

func registerBridge(r *Registry) {
	// get_dlsym() -> addr
	r.Register("get_dlsym", Func{
		Results: []api.ValueType{i64},
		Fn: func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = uint64(mustHost(ctx).Entry())
		},
	})

	// dlsym(handle, name_ptr, name_len) -> addr
	r.Register("dlsym", Func{
		Params:  []api.ValueType{i64, i32, i32},
		Results: []api.ValueType{i64},
		Fn: func(ctx context.Context, mod api.Module, stack []uint64) {
			h := mustHost(ctx)
			name, err := ReadString(mod, api.DecodeU32(stack[1]), api.DecodeU32(stack[2]))
			if err != nil {
				trap(h, err)
			}
			addr, err := h.Resolve(native.Handle(stack[0]), name)
			if err != nil {
				trap(h, err)
			}
			stack[0] = uint64(addr)
		},
	})

	// ffi_call(target, argv_ptr, argc) -> word
	r.Register("ffi_call", Func{
		Params:  []api.ValueType{i64, i32, i32},
		Results: []api.ValueType{i64},
		Fn: func(ctx context.Context, mod api.Module, stack []uint64) {
			h := mustHost(ctx)
			args, err := DecodeArgs(mod, api.DecodeU32(stack[1]), api.DecodeU32(stack[2]))
			if err != nil {
				trap(h, err)
			}
			ret, err := h.Call(native.Addr(stack[0]), args...)
			if err != nil {
				trap(h, err)
			}
			stack[0] = uint64(ret)
		},
	})

	// arena_addr(off) -> addr
	r.Register("arena_addr", Func{
		Params:  []api.ValueType{i32},
		Results: []api.ValueType{i64},
		Fn: func(ctx context.Context, mod api.Module, stack []uint64) {
			h := mustHost(ctx)
			addr, err := h.ArenaAddr(api.DecodeU32(stack[0]))
			if err != nil {
				trap(h, err)
			}
			stack[0] = uint64(addr)
		},
	})

	// load(name_ptr, name_len)
	r.Register("load", Func{
		Params: []api.ValueType{i32, i32},
		Fn: func(ctx context.Context, mod api.Module, stack []uint64) {
			h := mustHost(ctx)
			name, err := ReadString(mod, api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
			if err != nil {
				trap(h, err)
			}
			if err := h.Load(ctx, name); err != nil {
				trap(h, err)
			}
		},
	})
}

// DecodeArgs reads argc argument records at ptr in guest memory. Byte
// arguments are copied out of guest memory.
func DecodeArgs(mod api.Module, ptr, argc uint32) ([]native.Arg, error) {
	if argc > native.MaxArgs {
		return nil, fmt.Errorf("%w: %d (max %d)", native.ErrArity, argc, native.MaxArgs)
	}
	raw, err := ReadBytes(mod, ptr, argc*ArgRecordSize)
	if err != nil {
		return nil, err
	}
	args := make([]native.Arg, argc)
	for i := range args {
		rec := raw[i*ArgRecordSize:]
		kind := binary.LittleEndian.Uint32(rec)
		size := binary.LittleEndian.Uint32(rec[4:])
		value := binary.LittleEndian.Uint64(rec[8:])
		switch kind {
		case ArgKindInt:
			args[i] = native.Int(int64(value))
		case ArgKindBytes:
			data, err := ReadBytes(mod, uint32(value), size)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			args[i] = native.Bytes(data)
		default:
			return nil, fmt.Errorf("%w: argument %d has unknown kind %d", native.ErrNativeCallFault, i, kind)
		}
	}
	return args, nil
}

// ArgRecord is one ffi_call argument as laid out in guest memory. For byte
// arguments Value is the guest pointer and Len the length.
type ArgRecord struct {
	Kind  uint32
	Len   uint32
	Value uint64
}

// Encode returns the little endian wire form of recs.
func Encode(recs ...ArgRecord) []byte {
	out := make([]byte, len(recs)*ArgRecordSize)
	for i, r := range recs {
		b := out[i*ArgRecordSize:]
		binary.LittleEndian.PutUint32(b, r.Kind)
		binary.LittleEndian.PutUint32(b[4:], r.Len)
		binary.LittleEndian.PutUint64(b[8:], r.Value)
	}
	return out
}
