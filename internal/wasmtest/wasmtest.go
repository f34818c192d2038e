// Package wasmtest assembles small WebAssembly binaries for tests.
package wasmtest

import "bytes"

// Value types.
const (
	I32 byte = 0x7f
	I64 byte = 0x7e
)

type funcType struct {
	params, results []byte
}

type importFunc struct {
	module, name string
	typ          uint32
}

type function struct {
	typ    uint32
	export string
	locals []byte
	body   []byte
}

type segment struct {
	off  uint32
	data []byte
}

// Builder accumulates a module. Imports must be added before functions so
// function indexes stay stable.
type Builder struct {
	types   []funcType
	imports []importFunc
	funcs   []function
	pages   uint32
	data    []segment
}

func New() *Builder { return &Builder{} }

func (b *Builder) typeIndex(params, results []byte) uint32 {
	for i, t := range b.types {
		if bytes.Equal(t.params, params) && bytes.Equal(t.results, results) {
			return uint32(i)
		}
	}
	b.types = append(b.types, funcType{params: params, results: results})
	return uint32(len(b.types) - 1)
}

// Import declares an imported function and returns its function index.
func (b *Builder) Import(module, name string, params, results []byte) uint32 {
	if len(b.funcs) > 0 {
		panic("wasmtest: import after function")
	}
	b.imports = append(b.imports, importFunc{module: module, name: name, typ: b.typeIndex(params, results)})
	return uint32(len(b.imports) - 1)
}

// Func defines a function, exported when export is non-empty. Each entry of
// locals declares one local of that type. The trailing end is added.
func (b *Builder) Func(export string, params, results, locals []byte, body ...[]byte) uint32 {
	b.funcs = append(b.funcs, function{
		typ:    b.typeIndex(params, results),
		export: export,
		locals: locals,
		body:   append(bytes.Join(body, nil), 0x0b),
	})
	return uint32(len(b.imports) + len(b.funcs) - 1)
}

// Memory declares an exported linear memory of pages 64KiB pages.
func (b *Builder) Memory(pages uint32) *Builder {
	b.pages = pages
	return b
}

// Data places data at off in memory 0.
func (b *Builder) Data(off uint32, data []byte) *Builder {
	b.data = append(b.data, segment{off: off, data: data})
	return b
}

// Bytes encodes the module.
func (b *Builder) Bytes() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	var sec []byte
	sec = uleb(nil, uint64(len(b.types)))
	for _, t := range b.types {
		sec = append(sec, 0x60)
		sec = vec(sec, t.params)
		sec = vec(sec, t.results)
	}
	out = section(out, 1, sec)

	if len(b.imports) > 0 {
		sec = uleb(nil, uint64(len(b.imports)))
		for _, im := range b.imports {
			sec = name(sec, im.module)
			sec = name(sec, im.name)
			sec = append(sec, 0x00)
			sec = uleb(sec, uint64(im.typ))
		}
		out = section(out, 2, sec)
	}

	sec = uleb(nil, uint64(len(b.funcs)))
	for _, f := range b.funcs {
		sec = uleb(sec, uint64(f.typ))
	}
	out = section(out, 3, sec)

	if b.pages > 0 {
		sec = []byte{0x01, 0x00}
		sec = uleb(sec, uint64(b.pages))
		out = section(out, 5, sec)
	}

	var exports [][]byte
	for i, f := range b.funcs {
		if f.export == "" {
			continue
		}
		e := name(nil, f.export)
		e = append(e, 0x00)
		exports = append(exports, uleb(e, uint64(len(b.imports)+i)))
	}
	if b.pages > 0 {
		exports = append(exports, append(name(nil, "memory"), 0x02, 0x00))
	}
	sec = uleb(nil, uint64(len(exports)))
	for _, e := range exports {
		sec = append(sec, e...)
	}
	out = section(out, 7, sec)

	sec = uleb(nil, uint64(len(b.funcs)))
	for _, f := range b.funcs {
		var code []byte
		code = uleb(code, uint64(len(f.locals)))
		for _, l := range f.locals {
			code = append(code, 0x01, l)
		}
		code = append(code, f.body...)
		sec = uleb(sec, uint64(len(code)))
		sec = append(sec, code...)
	}
	out = section(out, 10, sec)

	if len(b.data) > 0 {
		sec = uleb(nil, uint64(len(b.data)))
		for _, d := range b.data {
			sec = append(sec, 0x00)
			sec = append(sec, I32Const(int32(d.off))...)
			sec = append(sec, 0x0b)
			sec = vec(sec, d.data)
		}
		out = section(out, 11, sec)
	}
	return out
}

func section(out []byte, id byte, content []byte) []byte {
	out = append(out, id)
	out = uleb(out, uint64(len(content)))
	return append(out, content...)
}

func vec(out, items []byte) []byte {
	out = uleb(out, uint64(len(items)))
	return append(out, items...)
}

func name(out []byte, s string) []byte {
	return vec(out, []byte(s))
}

func uleb(out []byte, v uint64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, c|0x80)
			continue
		}
		return append(out, c)
	}
}

func sleb(out []byte, v int64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0) {
			return append(out, c)
		}
		out = append(out, c|0x80)
	}
}
