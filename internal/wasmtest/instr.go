package wasmtest

func I32Const(v int32) []byte  { return sleb([]byte{0x41}, int64(v)) }
func I64Const(v int64) []byte  { return sleb([]byte{0x42}, v) }
func LocalGet(i uint32) []byte { return uleb([]byte{0x20}, uint64(i)) }
func LocalSet(i uint32) []byte { return uleb([]byte{0x21}, uint64(i)) }
func Call(f uint32) []byte     { return uleb([]byte{0x10}, uint64(f)) }
func Br(depth uint32) []byte   { return uleb([]byte{0x0c}, uint64(depth)) }
func BrIf(depth uint32) []byte { return uleb([]byte{0x0d}, uint64(depth)) }

var (
	Unreachable = []byte{0x00}
	Block       = []byte{0x02, 0x40}
	Loop        = []byte{0x03, 0x40}
	End         = []byte{0x0b}
	Drop        = []byte{0x1a}
	I32GeU      = []byte{0x4f}
	I32Add      = []byte{0x6a}
	I32WrapI64  = []byte{0xa7}
	I32Load8U   = []byte{0x2d, 0x00, 0x00}
	I32Store    = []byte{0x36, 0x02, 0x00}
	I64Store    = []byte{0x37, 0x03, 0x00}
)
