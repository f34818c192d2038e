package native

import (
	"fmt"

	"go.uber.org/zap"
)

// WriteFile writes data to path in binary mode using the C library's stdio.
//
// The path is checked before any native call is made. An empty data slice
// still creates (or truncates) the file.
func (l *Libc) WriteFile(path string, data []byte) error {
	if path == "" {
		return ErrInvalidPath
	}

	var buf Addr
	if len(data) > 0 {
		buf = l.Calloc(uintptr(len(data)), 1)
		if buf == 0 {
			return fmt.Errorf("write %s: scratch allocation of %d bytes failed", path, len(data))
		}
		defer l.Free(buf)
		Copy(buf, data)
	}

	fp, err := l.tramp.Call(l.fopen, String(path), String("wb"))
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if fp == 0 {
		return fmt.Errorf("%w: %s", ErrFileOpenFailed, path)
	}

	var werr error
	written := uintptr(0)
	for written < uintptr(len(data)) {
		n, err := l.tramp.Call(l.fwrite, Ptr(buf+Addr(written)), Word(1), Word(uintptr(len(data))-written), Word(fp))
		if err != nil {
			werr = fmt.Errorf("write %s: %w", path, err)
			break
		}
		if n == 0 {
			werr = fmt.Errorf("%w: %s: %d of %d bytes", ErrShortWrite, path, written, len(data))
			break
		}
		written += n
	}

	rc, err := l.tramp.Call(l.fclose, Word(fp))
	if werr != nil {
		return werr
	}
	if err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if int32(rc) != 0 {
		return fmt.Errorf("%w: %s", ErrFileClose, path)
	}

	Logger().Debug("file written", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}
