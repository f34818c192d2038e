package arena

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgradeOnce(t *testing.T) {
	stub := NewShadow(64)
	caps := NewCapabilities(stub)
	assert.Equal(t, Stub, caps.State())

	require.NoError(t, caps.Poke8(0, 9))

	first := newTestArena(t, 64)
	second := newTestArena(t, 64)
	assert.True(t, caps.Upgrade(first))
	assert.False(t, caps.Upgrade(second))
	assert.Equal(t, Upgraded, caps.State())
	assert.Same(t, first, caps.View())

	b, err := caps.Peek8(0)
	require.NoError(t, err)
	assert.Zero(t, b, "stub writes are not carried over")

	require.NoError(t, caps.Poke32(4, 0xCAFE))
	w, _ := first.Peek32(4)
	assert.Equal(t, uint32(0xCAFE), w)
}

func TestUpgradeConcurrent(t *testing.T) {
	caps := NewCapabilities(NewShadow(64))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			alloc := &goAlloc{}
			a, _ := New(alloc, 64)
			if caps.Upgrade(a) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
			_, err := caps.Peek32(0)
			assert.NoError(t, err)
			runtime.KeepAlive(alloc)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "stub", Stub.String())
	assert.Equal(t, "upgraded", Upgraded.String())
}
