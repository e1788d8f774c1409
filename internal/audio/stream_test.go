package audio

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/cwbudde/algo-crystalizer/dsp/buffer"
	"github.com/cwbudde/algo-crystalizer/dsp/effects/crystalizer"
	"github.com/cwbudde/algo-crystalizer/dsp/filter/bank"
	"github.com/cwbudde/algo-crystalizer/internal/testutil"
	timestats "github.com/cwbudde/algo-crystalizer/stats/time"
)

// lagProcessor mimics the session's buffering: a buffer of a new size is
// dropped, the next one is held back, and every later call returns the
// previous buffer. The signal is also delayed by a fixed number of frames,
// restarting from silence on every rebuild.
type lagProcessor struct {
	delay  int
	size   int
	primed bool
	line   []float32
	prev   []float32
	calls  int
}

func (p *lagProcessor) Process(buf []float32) ([]float32, error) {
	p.calls++
	frames := len(buf) / 2
	if frames != p.size {
		p.size = frames
		p.primed = false
		p.line = make([]float32, 2*p.delay)
		return buf[:0], nil
	}

	joined := append(append([]float32(nil), p.line...), buf...)
	cur := append([]float32(nil), joined[:len(buf)]...)
	p.line = append([]float32(nil), joined[len(buf):]...)

	if !p.primed {
		p.primed = true
		p.prev = cur
		return buf[:0], nil
	}
	copy(buf, p.prev)
	p.prev = cur
	return buf, nil
}

type silentProcessor struct{}

func (silentProcessor) Process(buf []float32) ([]float32, error) { return buf[:0], nil }

type failingProcessor struct{ err error }

func (p failingProcessor) Process(buf []float32) ([]float32, error) { return buf[:0], p.err }

func TestProcessClipAlignsOutput(t *testing.T) {
	tests := []struct {
		name   string
		frames int
		block  int
		delay  int
	}{
		{name: "exact blocks", frames: 1024, block: 128, delay: 37},
		{name: "padded tail", frames: 1000, block: 128, delay: 37},
		{name: "delay longer than block", frames: 700, block: 64, delay: 300},
		{name: "clip shorter than block", frames: 50, block: 128, delay: 10},
		{name: "no delay", frames: 333, block: 100, delay: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := &Clip{SampleRate: 48000, Samples: testutil.StereoNoise(3, 0.5, tc.frames)}
			proc := &lagProcessor{delay: tc.delay}

			out, err := ProcessClip(context.Background(), proc, in, Options{BlockSizes: []int{tc.block}, Delay: tc.delay})
			if err != nil {
				t.Fatalf("ProcessClip: %v", err)
			}
			if out.SampleRate != in.SampleRate {
				t.Fatalf("SampleRate = %d, want %d", out.SampleRate, in.SampleRate)
			}
			testutil.RequireFloat32Equal(t, out.Samples, in.Samples)
		})
	}
}

func TestProcessClipEmpty(t *testing.T) {
	proc := &lagProcessor{}
	out, err := ProcessClip(context.Background(), proc, &Clip{SampleRate: 48000}, Options{})
	if err != nil {
		t.Fatalf("ProcessClip: %v", err)
	}
	if len(out.Samples) != 0 || proc.calls != 0 {
		t.Fatalf("got %d samples after %d calls, want none", len(out.Samples), proc.calls)
	}
}

func TestProcessClipVaryingBlocksKeepsLength(t *testing.T) {
	in := &Clip{SampleRate: 48000, Samples: testutil.StereoNoise(5, 0.5, 3000)}
	proc := &lagProcessor{delay: 20}

	var last, total int
	out, err := ProcessClip(context.Background(), proc, in, Options{
		BlockSizes: []int{256, 256, 128, 0, -4},
		Delay:      20,
		Progress:   func(done, n int) { last, total = done, n },
	})
	if err != nil {
		t.Fatalf("ProcessClip: %v", err)
	}
	if out.Frames() != in.Frames() {
		t.Fatalf("Frames = %d, want %d", out.Frames(), in.Frames())
	}
	if last != 3000 || total != 3000 {
		t.Fatalf("progress = %d/%d, want 3000/3000", last, total)
	}
}

func TestProcessClipDefaultBlockSize(t *testing.T) {
	in := &Clip{SampleRate: 48000, Samples: testutil.StereoNoise(9, 0.5, 2*DefaultBlockSize)}
	proc := &lagProcessor{}

	if _, err := ProcessClip(context.Background(), proc, in, Options{}); err != nil {
		t.Fatalf("ProcessClip: %v", err)
	}
	if proc.size != DefaultBlockSize {
		t.Fatalf("block size = %d, want %d", proc.size, DefaultBlockSize)
	}
}

func TestProcessClipErrors(t *testing.T) {
	in := &Clip{SampleRate: 48000, Samples: testutil.StereoNoise(1, 0.5, 300)}

	if _, err := ProcessClip(context.Background(), silentProcessor{}, in, Options{BlockSizes: []int{64}}); !errors.Is(err, ErrStalled) {
		t.Fatalf("silent processor: err = %v, want ErrStalled", err)
	}

	boom := errors.New("boom")
	if _, err := ProcessClip(context.Background(), failingProcessor{err: boom}, in, Options{}); !errors.Is(err, boom) {
		t.Fatalf("failing processor: err = %v, want %v", err, boom)
	}
}

func TestProcessClipCanceled(t *testing.T) {
	in := &Clip{SampleRate: 48000, Samples: testutil.StereoNoise(5, 0.5, 4096)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	proc := &lagProcessor{}
	if _, err := ProcessClip(ctx, proc, in, Options{BlockSizes: []int{128}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if proc.calls != 0 {
		t.Fatalf("processor called %d times after cancellation", proc.calls)
	}

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	opts := Options{
		BlockSizes: []int{128},
		Progress: func(done, _ int) {
			if done >= 1024 {
				cancel()
			}
		},
	}
	if _, err := ProcessClip(ctx, &lagProcessor{}, in, opts); !errors.Is(err, context.Canceled) {
		t.Fatalf("mid-clip: err = %v, want context.Canceled", err)
	}
}

func TestStreamMatchesProcessClip(t *testing.T) {
	in := &Clip{SampleRate: 48000, Samples: testutil.StereoNoise(4, 0.5, 1500)}
	opts := Options{BlockSizes: []int{96}, Delay: 50}

	want, err := ProcessClip(context.Background(), &lagProcessor{delay: 50}, in, opts)
	if err != nil {
		t.Fatalf("ProcessClip: %v", err)
	}

	stream := NewStream(&lagProcessor{delay: 50}, in, opts)
	raw, err := io.ReadAll(io.LimitReader(stream, 1<<20))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got := make([]float32, len(raw)/4)
	buffer.DecodeFloat32LE(got, raw)
	testutil.RequireFloat32Equal(t, got, want.Samples)
}

func TestStreamSmallReads(t *testing.T) {
	in := &Clip{SampleRate: 48000, Samples: testutil.StereoNoise(8, 0.5, 200)}
	stream := NewStream(&lagProcessor{}, in, Options{BlockSizes: []int{64}})

	var raw []byte
	p := make([]byte, 7)
	for {
		n, err := stream.Read(p)
		raw = append(raw, p[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	}

	got := make([]float32, len(raw)/4)
	buffer.DecodeFloat32LE(got, raw)
	testutil.RequireFloat32Equal(t, got, in.Samples)
}

func TestStreamLevels(t *testing.T) {
	const frames = 900
	in := &Clip{SampleRate: 48000, Samples: testutil.StereoNoise(11, 0.5, frames)}
	stream := NewStream(&lagProcessor{delay: 20}, in, Options{BlockSizes: []int{128}, Delay: 20})

	if _, err := io.ReadAll(stream); err != nil {
		t.Fatalf("ReadAll: %v", err)
	}

	levels := stream.Levels()
	for ch, l := range levels {
		want := timestats.Calculate(testutil.Channel(in.Samples, ch))
		if l.Length != frames {
			t.Fatalf("channel %d: Length = %d, want %d", ch, l.Length, frames)
		}
		if l.Peak != want.Peak || l.MaxPos != want.MaxPos {
			t.Fatalf("channel %d: peak %v at %d, want %v at %d", ch, l.Peak, l.MaxPos, want.Peak, want.MaxPos)
		}
	}

	if again := stream.Levels(); again[0].Length != 0 || again[1].Length != 0 {
		t.Fatalf("second Levels() = %d/%d frames, want a fresh window", again[0].Length, again[1].Length)
	}
}

func TestProcessClipWithSessionReconstructs(t *testing.T) {
	const (
		rate   = 48000
		frames = 9600
		block  = 480
	)

	fb := bank.NewFIR()
	if err := fb.Build(block, rate); err != nil {
		t.Fatalf("Build: %v", err)
	}
	delay := fb.GroupDelay()

	controls := make([]crystalizer.BandControl, crystalizer.NumBands)
	session, err := crystalizer.New(crystalizer.WithFilterBank(fb), crystalizer.WithControls(controls))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := session.Setup(rate); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	in := &Clip{SampleRate: rate, Samples: testutil.StereoSine(1500, rate, 0.5, frames)}
	out, err := ProcessClip(context.Background(), session, in, Options{BlockSizes: []int{block}, Delay: delay})
	if err != nil {
		t.Fatalf("ProcessClip: %v", err)
	}
	if out.Frames() != frames {
		t.Fatalf("Frames = %d, want %d", out.Frames(), frames)
	}

	// The edges see the filters ramp in and out.
	for ch := range 2 {
		got := testutil.Channel(out.Samples, ch)[2000 : frames-2000]
		want := testutil.Channel(in.Samples, ch)[2000 : frames-2000]
		testutil.RequireSliceNearlyEqual(t, got, want, 0.01)
	}
}
