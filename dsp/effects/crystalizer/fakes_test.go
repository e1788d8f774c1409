package crystalizer

import (
	"errors"
	"testing"
)

var errFake = errors.New("fake failure")

// gainBank is a FilterBank whose band n scales the input by gains[n].
type gainBank struct {
	gains []float32
	ready bool

	builds      int
	failBuild   bool
	failProcess bool
}

func newGainBank(gains ...float32) *gainBank {
	return &gainBank{gains: gains}
}

func (g *gainBank) NumBands() int { return len(g.gains) }

func (g *gainBank) Build(blockSize int, sampleRate float64) error {
	g.builds++
	if g.failBuild {
		return errFake
	}
	g.ready = true
	return nil
}

func (g *gainBank) Process(band int, buf []float32) error {
	if g.failProcess {
		return errFake
	}
	for i := range buf {
		buf[i] *= g.gains[band]
	}
	return nil
}

func (g *gainBank) Ready() bool { return g.ready }
func (g *gainBank) Finish()     { g.ready = false }

// frames builds an interleaved stereo buffer from (left, right) pairs.
func frames(pairs ...[2]float32) []float32 {
	out := make([]float32, 0, 2*len(pairs))
	for _, p := range pairs {
		out = append(out, p[0], p[1])
	}
	return out
}

// mono builds an interleaved stereo buffer with equal channels.
func mono(values ...float32) []float32 {
	out := make([]float32, 0, 2*len(values))
	for _, v := range values {
		out = append(out, v, v)
	}
	return out
}

// newPrimingSession returns a session that has rebuilt for the given frame
// count and is waiting for its priming buffer.
func newPrimingSession(t testing.TB, fb FilterBank, rate, frameCount int, opts ...Option) *Session {
	t.Helper()
	s, err := New(append([]Option{WithFilterBank(fb)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Setup(rate); err != nil {
		t.Fatal(err)
	}
	out, err := s.Process(make([]float32, 2*frameCount))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 || s.State() != StatePriming {
		t.Fatal("rebuild call did not suppress output")
	}
	return s
}
