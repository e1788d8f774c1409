package conv

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cwbudde/algo-crystalizer/internal/testutil"
)

func runStreaming(t *testing.T, c *StreamingOverlapSave, signal []float64) []float64 {
	t.Helper()

	bs := c.BlockSize()
	out := make([]float64, len(signal))
	for start := 0; start+bs <= len(signal); start += bs {
		if err := c.ProcessBlockTo(out[start:start+bs], signal[start:start+bs]); err != nil {
			t.Fatalf("ProcessBlockTo at %d: %v", start, err)
		}
	}
	return out
}

func TestStreamingOverlapSaveMatchesDirect(t *testing.T) {
	tests := []struct {
		kernelLen int
		blockSize int
	}{
		{3, 8},
		{64, 16},  // kernel longer than block
		{33, 128}, // block longer than kernel
		{257, 64},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("k=%d/b=%d", tt.kernelLen, tt.blockSize), func(t *testing.T) {
			kernel := testutil.DeterministicNoise(7, 0.5, tt.kernelLen)
			signal := testutil.DeterministicNoise(8, 1, tt.blockSize*10)

			c, err := NewStreamingOverlapSave(kernel, tt.blockSize)
			if err != nil {
				t.Fatal(err)
			}

			got := runStreaming(t, c, signal)

			full, err := Direct(signal, kernel)
			if err != nil {
				t.Fatal(err)
			}

			testutil.RequireSliceNearlyEqual(t, got, full[:len(signal)], 1e-9)
		})
	}
}

func TestStreamingOverlapSaveInPlace(t *testing.T) {
	kernel := []float64{0.5, 0.25, 0.125}
	signal := testutil.DeterministicNoise(9, 1, 64)

	ref, _ := NewStreamingOverlapSave(kernel, 16)
	want := runStreaming(t, ref, signal)

	c, _ := NewStreamingOverlapSave(kernel, 16)
	buf := append([]float64(nil), signal...)
	for start := 0; start < len(buf); start += 16 {
		block := buf[start : start+16]
		if err := c.ProcessBlockTo(block, block); err != nil {
			t.Fatal(err)
		}
	}

	testutil.RequireSliceNearlyEqual(t, buf, want, 1e-12)
}

func TestStreamingOverlapSaveCloneIsIndependent(t *testing.T) {
	kernel := testutil.DeterministicNoise(10, 1, 20)
	a, err := NewStreamingOverlapSave(kernel, 32)
	if err != nil {
		t.Fatal(err)
	}

	noise := testutil.DeterministicNoise(11, 1, 32)
	out := make([]float64, 32)
	if err := a.ProcessBlockTo(out, noise); err != nil {
		t.Fatal(err)
	}

	b := a.Clone()
	impulse := testutil.Impulse(32, 0)
	if err := b.ProcessBlockTo(out, impulse); err != nil {
		t.Fatal(err)
	}

	// Fresh clone history: impulse response equals the kernel.
	testutil.RequireSliceNearlyEqual(t, out[:20], kernel, 1e-12)
}

func TestStreamingOverlapSaveReset(t *testing.T) {
	kernel := []float64{1, 1}
	c, _ := NewStreamingOverlapSave(kernel, 4)
	out := make([]float64, 4)

	_ = c.ProcessBlockTo(out, []float64{1, 1, 1, 5})
	c.Reset()
	_ = c.ProcessBlockTo(out, []float64{1, 0, 0, 0})

	testutil.RequireSliceNearlyEqual(t, out, []float64{1, 1, 0, 0}, 1e-12)
}

func TestStreamingOverlapSaveErrors(t *testing.T) {
	if _, err := NewStreamingOverlapSave(nil, 8); !errors.Is(err, ErrEmptyKernel) {
		t.Fatalf("err = %v, want ErrEmptyKernel", err)
	}
	if _, err := NewStreamingOverlapSave([]float64{1}, 0); !errors.Is(err, ErrInvalidBlockSize) {
		t.Fatalf("err = %v, want ErrInvalidBlockSize", err)
	}

	c, _ := NewStreamingOverlapSave([]float64{1}, 8)
	if err := c.ProcessBlockTo(make([]float64, 8), make([]float64, 7)); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}
	if err := c.ProcessBlockTo(make([]float64, 7), make([]float64, 8)); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}
}

func BenchmarkStreamingOverlapSave(b *testing.B) {
	for _, taps := range []int{961, 1921} {
		b.Run(fmt.Sprintf("taps=%d", taps), func(b *testing.B) {
			kernel := make([]float64, taps)
			for i := range kernel {
				kernel[i] = 1.0 / float64(taps)
			}

			c, err := NewStreamingOverlapSave(kernel, 512)
			if err != nil {
				b.Fatal(err)
			}

			buf := make([]float64, 512)
			for i := range buf {
				buf[i] = float64(i) * 0.001
			}

			b.SetBytes(512 * 8)
			for b.Loop() {
				_ = c.ProcessBlockTo(buf, buf)
			}
		})
	}
}
