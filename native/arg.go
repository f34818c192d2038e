package native

import "fmt"

// ArgKind tags a trampoline argument.
type ArgKind uint8

const (
	// KindInt is a word passed by value.
	KindInt ArgKind = iota
	// KindBytes is a byte sequence passed as a pointer to a NUL-terminated copy.
	KindBytes
)

func (k ArgKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBytes:
		return "bytes"
	default:
		return fmt.Sprintf("ArgKind(%d)", uint8(k))
	}
}

// Arg is a single trampoline argument.
type Arg struct {
	Kind ArgKind
	Word uintptr
	Data []byte
}

// Int passes v by value, truncated to the platform word.
func Int(v int64) Arg {
	return Arg{Kind: KindInt, Word: uintptr(v)}
}

// Word passes w by value.
func Word(w uintptr) Arg {
	return Arg{Kind: KindInt, Word: w}
}

// Ptr passes a native address by value.
func Ptr(a Addr) Arg {
	return Arg{Kind: KindInt, Word: uintptr(a)}
}

// Bytes passes b as a pointer to a scratch copy.
func Bytes(b []byte) Arg {
	return Arg{Kind: KindBytes, Data: b}
}

// String passes s as a pointer to a NUL-terminated scratch copy.
func String(s string) Arg {
	return Arg{Kind: KindBytes, Data: []byte(s)}
}

func (a Arg) String() string {
	if a.Kind == KindBytes {
		return fmt.Sprintf("bytes[%d]", len(a.Data))
	}
	return fmt.Sprintf("0x%x", a.Word)
}
