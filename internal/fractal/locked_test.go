package fractal

import (
	"sync"
	"testing"

	"github.com/MeKo-Tech/fractalnoise/internal/primitive"
	"github.com/stretchr/testify/require"
)

func TestLocked_ConcurrentUse(t *testing.T) {
	prim, err := primitive.NewSimplex(2, 3)
	require.NoError(t, err)
	n, err := New(prim, WithOctaves(4))
	require.NoError(t, err)
	l := NewLocked(n)

	xs := []float64{0, 0.5, 1, 1.5}
	var wg sync.WaitGroup
	errs := make(chan error, 64)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := l.EvalGrid(xs, xs); err != nil {
					errs <- err
					return
				}
				if err := l.SetOctaves(1 + (i+j)%MaxOctaves); err != nil {
					errs <- err
					return
				}
				if err := l.SetPersistence(0.3 + 0.1*float64(i%5)); err != nil {
					errs <- err
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLocked_Do(t *testing.T) {
	n, err := New(newStub(1, constant(0)), WithOctaves(2))
	require.NoError(t, err)
	l := NewLocked(n)

	err = l.Do(func(n *Noise) error {
		if err := n.SetOctaves(6); err != nil {
			return err
		}
		return n.SetLacunarity(0.1)
	})
	require.ErrorIs(t, err, ErrInvalidParameter)

	// the first update inside Do is not rolled back
	require.NoError(t, l.Do(func(n *Noise) error {
		require.Equal(t, 6, n.Octaves())
		require.Equal(t, DefaultLacunarity, n.Lacunarity())
		return nil
	}))
	require.Len(t, l.Weights(), 6)
}
