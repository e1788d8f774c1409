package dither

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Quantizer converts interleaved float samples in [-1, 1) to signed
// integers of a fixed bit depth. Noise shaping state is kept per channel.
type Quantizer struct {
	bitDepth        int
	ditherType      DitherType
	ditherAmplitude float64
	limit           bool
	shapers         []NoiseShaper
	rng             *rand.Rand

	scale float64
	lo    int64
	hi    int64
}

// NewQuantizer returns a quantizer for the given channel count. The
// default is 16 bit with triangular dither of 1 LSB, clipping and no noise
// shaping.
func NewQuantizer(channels int, opts ...Option) (*Quantizer, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("dither: channel count must be positive: %d", channels)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	q := &Quantizer{
		bitDepth:        cfg.bitDepth,
		ditherType:      cfg.ditherType,
		ditherAmplitude: cfg.ditherAmplitude,
		limit:           cfg.limit,
		shapers:         make([]NoiseShaper, channels),
		rng:             cfg.rng,
		scale:           math.Exp2(float64(cfg.bitDepth - 1)),
	}
	for ch := range q.shapers {
		q.shapers[ch] = NewFIRShaper(cfg.shaping)
	}
	if q.rng == nil {
		q.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	q.lo = -int64(q.scale)
	q.hi = int64(q.scale) - 1

	return q, nil
}

// QuantizeSample quantizes one sample of channel ch.
func (q *Quantizer) QuantizeSample(ch int, x float64) int32 {
	shaper := q.shapers[ch]

	shaped := shaper.Shape(x * q.scale)
	v := int64(math.Floor(shaped + q.noise() + 0.5))

	if q.limit {
		v = max(q.lo, min(q.hi, v))
	} else {
		// Wrap into the bit-depth range like a fixed-point register.
		span := q.hi - q.lo + 1
		v = ((v-q.lo)%span+span)%span + q.lo
	}

	shaper.RecordError(float64(v) - shaped)
	return int32(v)
}

// Quantize quantizes interleaved samples from src into dst and returns the
// number of samples written.
func (q *Quantizer) Quantize(dst []int32, src []float32) int {
	n := min(len(dst), len(src))
	channels := len(q.shapers)
	for i := range n {
		dst[i] = q.QuantizeSample(i%channels, float64(src[i]))
	}
	return n
}

// Reset clears the noise shaping history.
func (q *Quantizer) Reset() {
	for _, s := range q.shapers {
		s.Reset()
	}
}

func (q *Quantizer) noise() float64 {
	switch q.ditherType {
	case DitherRectangular:
		return q.ditherAmplitude * (q.rng.Float64() - 0.5)
	case DitherTriangular:
		return q.ditherAmplitude * (q.rng.Float64() - q.rng.Float64())
	case DitherGaussian:
		return q.ditherAmplitude * 0.5 * q.rng.NormFloat64()
	default:
		return 0
	}
}

// BitDepth returns the target bit depth.
func (q *Quantizer) BitDepth() int { return q.bitDepth }

// DitherType returns the dither noise type.
func (q *Quantizer) DitherType() DitherType { return q.ditherType }

// DitherAmplitude returns the dither amplitude in LSB.
func (q *Quantizer) DitherAmplitude() float64 { return q.ditherAmplitude }

// Limit reports whether out-of-range samples are clipped.
func (q *Quantizer) Limit() bool { return q.limit }

// Channels returns the channel count.
func (q *Quantizer) Channels() int { return len(q.shapers) }
