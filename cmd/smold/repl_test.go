package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplScript(t *testing.T) {
	requireNative(t)
	_, flags := project(t, "")

	script := strings.Join([]string{
		"state",
		"poke8 3 65",
		"peek8 3",
		"poke32 8 0x01020304",
		"peek32 8",
		`call strlen "abcd"`,
		"sym nonexistent_symbol_xyz",
		"load core",
		"state",
		"peek8 3",
		"peek8 70000",
		"bogus",
		"exit",
		"peek8 0",
	}, "\n")

	res := executeCommand(t, script, append(flags, "repl")...)
	require.Equal(t, exitOK, res.code, res.stderr)

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 7, res.stdout)
	assert.True(t, strings.HasPrefix(lines[0], "stub arena=0x"))
	assert.Equal(t, "65 (0x41)", lines[1])
	assert.Equal(t, "16909060 (0x1020304)", lines[2])
	assert.Equal(t, "4 (0x4)", lines[3])
	assert.True(t, strings.HasPrefix(lines[4], "loaded core"))
	assert.True(t, strings.HasPrefix(lines[5], "upgraded arena=0x"))
	assert.Equal(t, "0 (0x0)", lines[6], "stub writes are not visible after the upgrade")

	assert.Contains(t, res.stderr, "symbol not found")
	assert.Contains(t, res.stderr, "memory fault")
	assert.Contains(t, res.stderr, `unknown command "bogus"`)
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  peek8   3 ", []string{"peek8", "3"}},
		{`call puts "hello world" 1`, []string{"call", "puts", `"hello world"`, "1"}},
		{`call f "a\"b"`, []string{"call", "f", `"a\"b"`}},
	}
	for _, tt := range tests {
		got, err := splitLine(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := splitLine(`call f "open`)
	assert.Error(t, err)
}

func TestParseCallArgs(t *testing.T) {
	args, err := parseCallArgs([]string{"42", "-1", "0x10", `"hi"`})
	require.NoError(t, err)
	require.Len(t, args, 4)
	assert.Equal(t, uintptr(42), args[0].Word)
	assert.Equal(t, ^uintptr(0), args[1].Word)
	assert.Equal(t, uintptr(16), args[2].Word)
	assert.Equal(t, []byte("hi"), args[3].Data)

	_, err = parseCallArgs([]string{"nope"})
	assert.Error(t, err)
}
