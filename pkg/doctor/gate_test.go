package doctor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitGate_RunsPipelineOnce(t *testing.T) {
	var runs atomic.Int32
	gate := NewInitGate(Options{})
	gate.run = func(context.Context, Options) (*Result, error) {
		runs.Add(1)
		return &Result{}, nil
	}

	const callers = 16
	var wg sync.WaitGroup
	results := make([]*Result, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := gate.Init(context.Background())
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, StateInitialized, gate.State())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestInitGate_CachesError(t *testing.T) {
	var runs atomic.Int32
	sentinel := errors.New("pipeline exploded")
	gate := NewInitGate(Options{})
	gate.run = func(context.Context, Options) (*Result, error) {
		runs.Add(1)
		return nil, sentinel
	}

	_, err := gate.Init(context.Background())
	assert.ErrorIs(t, err, sentinel)

	// The failed outcome is cached; no implicit retry.
	_, err = gate.Init(context.Background())
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, int32(1), runs.Load())
}

func TestInitGate_ResetRerunsPipeline(t *testing.T) {
	var runs atomic.Int32
	gate := NewInitGate(Options{})
	gate.run = func(context.Context, Options) (*Result, error) {
		runs.Add(1)
		return &Result{}, nil
	}

	_, err := gate.Init(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateInitialized, gate.State())

	gate.Reset()
	assert.Equal(t, StateUninitialized, gate.State())

	_, err = gate.Init(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), runs.Load())
}
