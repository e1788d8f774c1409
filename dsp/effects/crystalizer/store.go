package crystalizer

import "github.com/cwbudde/algo-crystalizer/dsp/buffer"

// band holds the per-band history of a session.
type band struct {
	data *buffer.Stereo // filtered copy of the current input buffer
	last *buffer.Stereo // filtered previous buffer, expanded in place and mixed

	// Pre-expansion sample pair that precedes last.
	lastL, lastR float32
}

// store owns the band buffers. All buffers share one frame count and are
// replaced as a unit.
type store struct {
	pool   *buffer.Pool
	bands  []band
	frames int
}

func newStore(numBands int) *store {
	return &store{
		pool:  buffer.NewPool(),
		bands: make([]band, numBands),
	}
}

// reset releases the current buffers and allocates zeroed buffers of the
// given frame count for every band.
func (st *store) reset(frames int) {
	st.release()
	for i := range st.bands {
		st.bands[i] = band{
			data: st.pool.Get(frames),
			last: st.pool.Get(frames),
		}
	}
	st.frames = frames
}

func (st *store) release() {
	for i := range st.bands {
		st.pool.Put(st.bands[i].data)
		st.pool.Put(st.bands[i].last)
		st.bands[i] = band{}
	}
	st.frames = 0
}

func (st *store) allocated() bool {
	return st.frames > 0
}

// prime turns the first filtered buffer into history and seeds the
// preceding sample pair from its first frame.
func (st *store) prime() {
	for i := range st.bands {
		b := &st.bands[i]
		b.last.CopyFrom(b.data.Samples())
		b.lastL, b.lastR = b.data.Frame(0)
	}
}

// rotate moves every band's current buffer into its history slot.
func (st *store) rotate() {
	for i := range st.bands {
		st.bands[i].last.CopyFrom(st.bands[i].data.Samples())
	}
}
