package wasmtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
)

func TestLEB128(t *testing.T) {
	assert.Equal(t, []byte{0xe5, 0x8e, 0x26}, uleb(nil, 624485))
	assert.Equal(t, []byte{0x00}, uleb(nil, 0))
	assert.Equal(t, []byte{0x7f}, sleb(nil, -1))
	assert.Equal(t, []byte{0xc0, 0xbb, 0x78}, sleb(nil, -123456))
	assert.Equal(t, []byte{0x80, 0x08}, sleb(nil, 1024))
	assert.Equal(t, []byte{0x3f}, sleb(nil, 63))
	assert.Equal(t, []byte{0xc0, 0x00}, sleb(nil, 64))
}

func TestFixturesCompile(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	fixtures := map[string][]byte{
		"identity":         Identity(""),
		"identity-preload": Identity("core"),
		"resolve":          Resolve("strlen"),
		"call-bytes":       CallBytes("strlen", "hello"),
		"peek":             Peek(7),
		"trap":             Trap('x'),
		"word":             Word(100, -1),
		"addresses":        Addresses(3),
		"write-file":       WriteFile("out.bin", 0, 4),
	}
	for name, bin := range fixtures {
		t.Run(name, func(t *testing.T) {
			compiled, err := rt.CompileModule(ctx, bin)
			require.NoError(t, err)
			imports := compiled.ImportedFunctions()
			require.NotEmpty(t, imports)
			for _, f := range imports {
				mod, _, _ := f.Import()
				assert.Equal(t, HostModule, mod)
			}
			_, ok := compiled.ExportedFunctions()["_start"]
			assert.True(t, ok)
		})
	}
}
