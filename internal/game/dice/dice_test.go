package dice_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickeddy/uamud/internal/game/dice"
)

func TestSeededSourceDeterministic(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestIntnBounds(t *testing.T) {
	src := dice.NewSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, 6)
	}
}

func TestIntnPanicsOnNonPositive(t *testing.T) {
	src := dice.NewSeededSource(1)
	assert.Panics(t, func() { src.Intn(0) })
	assert.Panics(t, func() { src.Intn(-3) })
}

func TestConcurrentUse(t *testing.T) {
	src := dice.NewSeededSource(7)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				src.Intn(100)
				src.Float64()
			}
		}()
	}
	wg.Wait()
}
