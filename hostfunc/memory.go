package hostfunc

import (
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// ErrGuestMemory is returned for guest pointers outside linear memory.
var ErrGuestMemory = errors.New("guest memory access out of bounds")

// ReadBytes copies size bytes from guest memory at ptr.
func ReadBytes(mod api.Module, ptr, size uint32) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	buf, ok := mod.Memory().Read(ptr, size)
	if !ok {
		return nil, fmt.Errorf("%w: ptr=%d len=%d", ErrGuestMemory, ptr, size)
	}
	out := make([]byte, size)
	copy(out, buf)
	return out, nil
}

// ReadString reads a string from guest memory.
func ReadString(mod api.Module, ptr, size uint32) (string, error) {
	b, err := ReadBytes(mod, ptr, size)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteBytes copies data into guest memory at ptr.
func WriteBytes(mod api.Module, ptr uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if !mod.Memory().Write(ptr, data) {
		return fmt.Errorf("%w: ptr=%d len=%d", ErrGuestMemory, ptr, len(data))
	}
	return nil
}
