package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", "abc"},
		{"abc\n", "abc"},
		{"abc\n\n", "abc\n"},
		{"\n", ""},
	}
	for _, tt := range tests {
		o := NewOutput()
		o.Append([]byte(tt.in)...)
		got, err := o.Text()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestOutputDrainOnce(t *testing.T) {
	o := NewOutput()
	o.Append('a', 'b')
	assert.Equal(t, []byte("ab"), o.Bytes())

	b, err := o.Drain()
	require.NoError(t, err)
	assert.Equal(t, []byte("ab"), b)

	_, err = o.Drain()
	assert.ErrorIs(t, err, ErrOutputDrained)
	_, err = o.Text()
	assert.ErrorIs(t, err, ErrOutputDrained)
}

func TestOutputFlush(t *testing.T) {
	lib := newFakeNative()
	o := NewOutput()
	o.Append([]byte("raw\n")...)

	require.NoError(t, o.Flush(lib, "out.bin"))
	assert.Equal(t, []byte("raw\n"), lib.files["out.bin"], "flush keeps trailing newline")
	assert.ErrorIs(t, o.Flush(lib, "again.bin"), ErrOutputDrained)
	_, written := lib.files["again.bin"]
	assert.False(t, written)
}

func TestOutputFlushEmpty(t *testing.T) {
	lib := newFakeNative()
	require.NoError(t, NewOutput().Flush(lib, "empty.bin"))
	data, ok := lib.files["empty.bin"]
	assert.True(t, ok)
	assert.Empty(t, data)
}
