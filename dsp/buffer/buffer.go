package buffer

// Stereo is an owned interleaved stereo float32 buffer: sample 2i is the
// left channel and 2i+1 the right channel of frame i.
type Stereo struct {
	samples []float32
}

// NewStereo returns a zero-filled buffer holding the given number of frames.
func NewStereo(frames int) *Stereo {
	if frames < 0 {
		frames = 0
	}
	return &Stereo{samples: make([]float32, 2*frames)}
}

// Samples returns the underlying interleaved slice.
func (b *Stereo) Samples() []float32 {
	return b.samples
}

// Frames returns the number of frames.
func (b *Stereo) Frames() int {
	return len(b.samples) / 2
}

// Resize sets the frame count, reusing existing capacity when possible.
// Existing frames are preserved and new frames are zeroed.
func (b *Stereo) Resize(frames int) {
	if frames < 0 {
		frames = 0
	}
	n := 2 * frames
	oldLen := len(b.samples)
	if n <= cap(b.samples) {
		b.samples = b.samples[:n]
	} else {
		s := make([]float32, n)
		copy(s, b.samples)
		b.samples = s
	}
	// The backing array may hold stale data from earlier use.
	if n > oldLen {
		clear(b.samples[oldLen:])
	}
}

// Reset sets the frame count and zeroes every sample.
func (b *Stereo) Reset(frames int) {
	b.Resize(frames)
	b.Zero()
}

// Zero sets all samples to 0.
func (b *Stereo) Zero() {
	clear(b.samples)
}

// CopyFrom copies src into the buffer and returns the number of samples
// copied, which is the minimum of both lengths.
func (b *Stereo) CopyFrom(src []float32) int {
	return copy(b.samples, src)
}

// Frame returns the left and right samples of frame i.
func (b *Stereo) Frame(i int) (left, right float32) {
	return b.samples[2*i], b.samples[2*i+1]
}

