package audio

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/cwbudde/algo-crystalizer/dsp/buffer"
	"github.com/cwbudde/algo-crystalizer/dsp/core"
	timestats "github.com/cwbudde/algo-crystalizer/stats/time"
)

// DefaultBlockSize is the buffer size in frames used when none is given.
const DefaultBlockSize = 512

// ErrStalled is returned when the processor stops producing output while
// the stream is draining.
var ErrStalled = errors.New("audio: processor produced no output while draining")

// Processor transforms interleaved stereo buffers in place. The returned
// slice aliases the input and may be empty while the processor primes.
// *crystalizer.Session satisfies it.
type Processor interface {
	Process(buf []float32) ([]float32, error)
}

// Options configure how a clip is cut into buffers.
type Options struct {
	// BlockSizes are the buffer sizes in frames, used in turn. Empty means
	// DefaultBlockSize. Changing size between buffers makes a session
	// rebuild its filters, which drops that buffer.
	BlockSizes []int
	// Delay is the processing delay in frames trimmed from the start of the
	// output so it lines up with the input.
	Delay int
	// Progress, if set, receives the number of clip frames fed so far.
	Progress func(done, total int)
}

// runner feeds a clip through a processor and yields output aligned to the
// clip. A silent buffer is fed first to absorb the filter rebuild; silent
// buffers of the last size are fed after the clip until the tail has left
// the processor.
type runner struct {
	proc     Processor
	clip     *Clip
	sizes    []int
	progress func(done, total int)

	started   bool
	turn      int
	pos       int // clip frames fed
	lastSize  int
	drained   int // silent frames fed after the clip
	drainMax  int
	skip      int // output frames still to drop
	remaining int // output frames still to emit
	block     []float32
}

func newRunner(proc Processor, clip *Clip, opts Options) *runner {
	sizes := make([]int, 0, len(opts.BlockSizes))
	for _, n := range opts.BlockSizes {
		if n > 0 {
			sizes = append(sizes, n)
		}
	}
	if len(sizes) == 0 {
		sizes = append(sizes, DefaultBlockSize)
	}

	return &runner{
		proc:      proc,
		clip:      clip,
		sizes:     sizes,
		progress:  opts.Progress,
		skip:      max(opts.Delay, 0),
		remaining: clip.Frames(),
	}
}

// next returns the next chunk of aligned output. The chunk is only valid
// until the following call.
func (r *runner) next() ([]float32, error) {
	for r.remaining > 0 {
		buf, err := r.feed()
		if err != nil {
			return nil, err
		}
		out, err := r.proc.Process(buf)
		if err != nil {
			return nil, err
		}
		if out = r.align(out); len(out) > 0 {
			return out, nil
		}
	}
	return nil, io.EOF
}

func (r *runner) feed() ([]float32, error) {
	total := r.clip.Frames()

	switch {
	case !r.started:
		r.started = true
		return r.silence(r.sizes[0]), nil
	case r.pos < total:
		n := r.sizes[r.turn%len(r.sizes)]
		r.turn++
		r.lastSize = n

		r.block = core.EnsureLen(r.block, 2*n)
		copied := copy(r.block, r.clip.Samples[2*r.pos:])
		core.Zero(r.block[copied:])
		r.pos = min(r.pos+n, total)

		if r.progress != nil {
			r.progress(r.pos, total)
		}
		return r.block, nil
	default:
		if r.drainMax == 0 {
			// Flushes the delay, one buffer of lag and a rebuild
			// triggered by the last clip buffer.
			r.drainMax = r.skip + r.remaining + 3*r.lastSize
		}
		if r.drained >= r.drainMax {
			return nil, ErrStalled
		}
		r.drained += r.lastSize
		return r.silence(r.lastSize), nil
	}
}

func (r *runner) silence(frames int) []float32 {
	r.block = core.EnsureLen(r.block, 2*frames)
	core.Zero(r.block)
	return r.block
}

func (r *runner) align(out []float32) []float32 {
	frames := len(out) / 2
	if r.skip > 0 {
		d := min(r.skip, frames)
		out = out[2*d:]
		frames -= d
		r.skip -= d
	}
	take := min(frames, r.remaining)
	r.remaining -= take
	return out[:2*take]
}

// Stream is an io.Reader of little-endian float32 stereo audio produced by
// running a clip through a processor.
type Stream struct {
	mu      sync.Mutex
	run     *runner
	raw     []byte
	pending []byte
	err     error
	levels  [2]*timestats.StreamingStats
}

// NewStream returns a stream over clip. proc should be freshly set up for
// the clip's sample rate.
func NewStream(proc Processor, clip *Clip, opts Options) *Stream {
	return &Stream{
		run:    newRunner(proc, clip, opts),
		levels: [2]*timestats.StreamingStats{timestats.NewStreamingStats(), timestats.NewStreamingStats()},
	}
}

func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.pending) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		out, err := s.run.next()
		if err != nil {
			s.err = err
			continue
		}
		if cap(s.raw) < 4*len(out) {
			s.raw = make([]byte, 4*len(out))
		}
		s.raw = s.raw[:4*len(out)]
		buffer.EncodeFloat32LE(s.raw, out)
		s.pending = s.raw
		for ch, l := range s.levels {
			l.UpdateChannel(out, ch, 2)
		}
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// Levels returns per-channel statistics of the output produced since the
// previous call and starts a new window.
func (s *Stream) Levels() [2]timestats.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out [2]timestats.Stats
	for ch, l := range s.levels {
		out[ch] = l.Result()
		l.Reset()
	}
	return out
}

func (s *Stream) Close() error { return nil }

// ProcessClip runs clip through proc and returns the processed clip, trimmed
// by opts.Delay and cut to the input length. It stops with the context's
// error when ctx is done.
func ProcessClip(ctx context.Context, proc Processor, clip *Clip, opts Options) (*Clip, error) {
	run := newRunner(proc, clip, opts)
	out := &Clip{SampleRate: clip.SampleRate, Samples: make([]float32, 0, len(clip.Samples))}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunk, err := run.next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out.Samples = append(out.Samples, chunk...)
	}
}
