package fractal

import "sync"

// Locked serialises all access to one Noise. The mutex is held for the
// whole of every setter and evaluation call.
type Locked struct {
	mu sync.Mutex
	n  *Noise
}

// NewLocked wraps n. The caller must not use n directly afterwards.
func NewLocked(n *Noise) *Locked {
	return &Locked{n: n}
}

// Do runs fn with exclusive access, for compound updates.
func (l *Locked) Do(fn func(n *Noise) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.n)
}

// SetOctaves calls Noise.SetOctaves under the lock.
func (l *Locked) SetOctaves(octaves int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n.SetOctaves(octaves)
}

// SetPersistence calls Noise.SetPersistence under the lock.
func (l *Locked) SetPersistence(p float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n.SetPersistence(p)
}

// SetLacunarity calls Noise.SetLacunarity under the lock.
func (l *Locked) SetLacunarity(lac float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n.SetLacunarity(lac)
}

// Weights returns the current octave weights.
func (l *Locked) Weights() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n.Weights()
}

// Eval evaluates a batch while holding the lock.
func (l *Locked) Eval(coords Tensor) (Tensor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n.Eval(coords)
}

// EvalPoints evaluates point tuples while holding the lock.
func (l *Locked) EvalPoints(points [][]float64) ([]float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n.EvalPoints(points)
}

// EvalGrid evaluates a grid while holding the lock.
func (l *Locked) EvalGrid(axes ...[]float64) (Tensor, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n.EvalGrid(axes...)
}

// String describes the wrapped Noise.
func (l *Locked) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.n.String()
}
