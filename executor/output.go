package executor

import (
	"bytes"
	"errors"
	"sync"
)

var ErrOutputDrained = errors.New("output already drained")

// FileWriter writes a whole file.
type FileWriter interface {
	WriteFile(path string, data []byte) error
}

// Output is the append-only byte buffer a run produces. It is drained once,
// either as diagnostic text or by flushing it to a file.
type Output struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	drained bool
}

func NewOutput() *Output {
	return &Output{}
}

func (o *Output) Append(b ...byte) {
	o.mu.Lock()
	o.buf.Write(b)
	o.mu.Unlock()
}

func (o *Output) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.Len()
}

// Bytes returns a copy of the buffer without draining it.
func (o *Output) Bytes() []byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	return bytes.Clone(o.buf.Bytes())
}

// Drain returns the buffered bytes and marks the buffer drained.
func (o *Output) Drain() ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.drained {
		return nil, ErrOutputDrained
	}
	o.drained = true
	return bytes.Clone(o.buf.Bytes()), nil
}

// Text drains the buffer as diagnostic text, dropping one trailing newline.
func (o *Output) Text() (string, error) {
	b, err := o.Drain()
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSuffix(b, []byte{'\n'})), nil
}

// Flush drains the buffer into the file at path. The bytes are written
// exactly as emitted.
func (o *Output) Flush(w FileWriter, path string) error {
	b, err := o.Drain()
	if err != nil {
		return err
	}
	return w.WriteFile(path, b)
}
