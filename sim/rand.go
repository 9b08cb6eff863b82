package sim

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Source is the randomness capability consumed by the simulator and the
// event generator. Float64 returns a uniform draw in [0, 1).
type Source interface {
	Float64() float64
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// NewSource returns a goroutine-safe Source with a fixed seed.
func NewSource(seed int64) Source {
	return &lockedSource{r: rand.New(rand.NewSource(seed))}
}

// NewEntropySource returns a Source seeded from crypto/rand.
func NewEntropySource() Source {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewSource(seed)
}

// Scripted replays a fixed sequence of draws, cycling when exhausted.
// It exists so tests can pin every random decision.
type Scripted struct {
	mu   sync.Mutex
	vals []float64
	i    int
}

// NewScripted builds a Scripted source. An empty script always yields 0.5.
func NewScripted(vals ...float64) *Scripted {
	return &Scripted{vals: vals}
}

func (s *Scripted) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.vals) == 0 {
		return 0.5
	}
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

// Draws reports how many values have been consumed.
func (s *Scripted) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.i
}

const maxZeroRerolls = 64

// nonZero draws until the value is not exactly 0.
func nonZero(src Source) float64 {
	for i := 0; i < maxZeroRerolls; i++ {
		if u := src.Float64(); u != 0 {
			return u
		}
	}
	return math.SmallestNonzeroFloat64
}

// Gaussian draws one standard normal variate with the Box-Muller transform.
func Gaussian(src Source) float64 {
	u := nonZero(src)
	v := nonZero(src)
	return math.Sqrt(-2.0*math.Log(u)) * math.Cos(2.0*math.Pi*v)
}
