package id

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnowflakeValidatesNode(t *testing.T) {
	_, err := NewSnowflake(-1)
	assert.ErrorIs(t, err, ErrInvalidNode)
	_, err = NewSnowflake(1024)
	assert.ErrorIs(t, err, ErrInvalidNode)
	_, err = NewSnowflake(1023)
	assert.NoError(t, err)
}

func TestGenerateUniqueUnderConcurrency(t *testing.T) {
	s, err := NewSnowflake(1)
	require.NoError(t, err)

	const n = 1000
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		ids = make(map[string]struct{}, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := s.Generate()
			mu.Lock()
			ids[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, ids, n)
}

func TestNewULID(t *testing.T) {
	a, b := NewULID(), NewULID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}
