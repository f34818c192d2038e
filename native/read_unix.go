//go:build linux || darwin

package native

import (
	"fmt"
	"io/fs"

	"golang.org/x/sys/unix"
)

// ReadFile reads the whole file at path with open/fstat/read. A file that
// shrinks while being read is reported as a short read.
func ReadFile(path string) ([]byte, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	defer unix.Close(fd)

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, &fs.PathError{Op: "stat", Path: path, Err: err}
	}

	buf := make([]byte, st.Size)
	off := 0
	for off < len(buf) {
		n, err := unix.Read(fd, buf[off:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, &fs.PathError{Op: "read", Path: path, Err: err}
		}
		if n == 0 {
			return nil, fmt.Errorf("read %s: short read (%d of %d bytes)", path, off, len(buf))
		}
		off += n
	}
	return buf, nil
}
