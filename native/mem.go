package native

import "unsafe"

// Slice aliases n bytes of native memory starting at addr. The caller
// guarantees the region is mapped for as long as the slice is used.
func Slice(addr Addr, n int) []byte {
	if addr == 0 || n <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), n)
}

// Copy writes src to native memory at dst.
func Copy(dst Addr, src []byte) {
	copy(Slice(dst, len(src)), src)
}
