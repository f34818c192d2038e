package arena

import (
	"encoding/binary"
	"fmt"
)

const pageSize = 4096

// Shadow is View backed by sparsely allocated Go memory. It stands in for the
// arena until the capability set is upgraded.
type Shadow struct {
	size  uint32
	pages map[uint32]*[pageSize]byte
}

// NewShadow returns a Shadow addressing size bytes.
func NewShadow(size uint32) *Shadow {
	if size == 0 {
		size = DefaultSize
	}
	return &Shadow{size: size, pages: make(map[uint32]*[pageSize]byte)}
}

func (s *Shadow) Size() uint32 { return s.size }

func (s *Shadow) Peek8(off uint32) (uint8, error) {
	if err := s.check(off, 1); err != nil {
		return 0, err
	}
	return s.load(off), nil
}

func (s *Shadow) Poke8(off uint32, v int64) error {
	if err := s.check(off, 1); err != nil {
		return err
	}
	s.store(off, uint8(v))
	return nil
}

func (s *Shadow) Peek32(off uint32) (uint32, error) {
	if err := s.check(off, 4); err != nil {
		return 0, err
	}
	var w [4]byte
	for i := range w {
		w[i] = s.load(off + uint32(i))
	}
	return binary.NativeEndian.Uint32(w[:]), nil
}

func (s *Shadow) Poke32(off uint32, v int64) error {
	if err := s.check(off, 4); err != nil {
		return err
	}
	var w [4]byte
	binary.NativeEndian.PutUint32(w[:], uint32(v))
	for i, b := range w {
		s.store(off+uint32(i), b)
	}
	return nil
}

// Pages reports how many pages have been touched by a store.
func (s *Shadow) Pages() int { return len(s.pages) }

func (s *Shadow) load(off uint32) uint8 {
	p, ok := s.pages[off/pageSize]
	if !ok {
		return 0
	}
	return p[off%pageSize]
}

func (s *Shadow) store(off uint32, b uint8) {
	p, ok := s.pages[off/pageSize]
	if !ok {
		if b == 0 {
			return
		}
		p = new([pageSize]byte)
		s.pages[off/pageSize] = p
	}
	p[off%pageSize] = b
}

func (s *Shadow) check(off, n uint32) error {
	if uint64(off)+uint64(n) > uint64(s.size) {
		return fmt.Errorf("%w: offset %d+%d outside %d bytes", ErrMemoryFault, off, n, s.size)
	}
	return nil
}
