//go:build !(linux || darwin)

package native

import "os"

func ReadFile(path string) ([]byte, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	return os.ReadFile(path)
}
