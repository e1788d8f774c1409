package crystalizer

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestIntensityClamp(t *testing.T) {
	s, _ := New()
	tests := []struct {
		in, want float32
	}{
		{-3, 0},
		{0, 0},
		{2.5, 2.5},
		{40, 40},
		{1000, 40},
		{float32(math.Inf(1)), 40},
	}
	for _, tt := range tests {
		if err := s.SetIntensity(4, tt.in); err != nil {
			t.Fatal(err)
		}
		if got, _ := s.Intensity(4); got != tt.want {
			t.Errorf("SetIntensity(%v): got %v, want %v", tt.in, got, tt.want)
		}
	}

	if err := s.SetIntensity(4, float32(math.NaN())); !errors.Is(err, ErrInvalidIntensity) {
		t.Errorf("NaN: got %v", err)
	}
	if err := s.SetBand(4, BandControl{Intensity: 99, Mute: true}); err != nil {
		t.Fatal(err)
	}
	if c, _ := s.Band(4); c.Intensity != MaxIntensity || !c.Mute {
		t.Errorf("SetBand stored %+v", c)
	}
}

func TestBandIndexChecks(t *testing.T) {
	s, _ := New()
	for _, n := range []int{-1, NumBands} {
		if _, err := s.Band(n); !errors.Is(err, ErrBandIndex) {
			t.Errorf("Band(%d): %v", n, err)
		}
		if err := s.SetIntensity(n, 1); !errors.Is(err, ErrBandIndex) {
			t.Errorf("SetIntensity(%d): %v", n, err)
		}
		if err := s.SetMute(n, true); !errors.Is(err, ErrBandIndex) {
			t.Errorf("SetMute(%d): %v", n, err)
		}
		if err := s.SetBypass(n, true); !errors.Is(err, ErrBandIndex) {
			t.Errorf("SetBypass(%d): %v", n, err)
		}
		if _, err := s.Mute(n); !errors.Is(err, ErrBandIndex) {
			t.Errorf("Mute(%d): %v", n, err)
		}
		if _, err := s.Bypass(n); !errors.Is(err, ErrBandIndex) {
			t.Errorf("Bypass(%d): %v", n, err)
		}
	}
}

func TestControlsSnapshotAndReplace(t *testing.T) {
	s, _ := New(WithFilterBank(newGainBank(1, 1, 1)))

	snap := s.Controls()
	snap[0].Mute = true
	if m, _ := s.Mute(0); m {
		t.Fatal("Controls returned shared storage")
	}

	if err := s.SetControls(make([]BandControl, 2)); !errors.Is(err, ErrBandCount) {
		t.Errorf("short SetControls: %v", err)
	}

	next := []BandControl{{Intensity: -1}, {Intensity: 3, Bypass: true}, {Intensity: 50, Mute: true}}
	if err := s.SetControls(next); err != nil {
		t.Fatal(err)
	}
	want := []BandControl{{Intensity: 0}, {Intensity: 3, Bypass: true}, {Intensity: 40, Mute: true}}
	for i, c := range s.Controls() {
		if c != want[i] {
			t.Errorf("band %d = %+v, want %+v", i, c, want[i])
		}
	}
}

func TestControlsSurviveRebuild(t *testing.T) {
	s := newPrimingSession(t, newGainBank(1, 1), 48000, 4)
	if err := s.SetBand(1, BandControl{Intensity: 7, Bypass: true}); err != nil {
		t.Fatal(err)
	}
	if err := s.Setup(96000); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Process(make([]float32, 16)); err != nil {
		t.Fatal(err)
	}
	if c, _ := s.Band(1); c.Intensity != 7 || !c.Bypass {
		t.Errorf("controls after rebuild: %+v", c)
	}
}

func TestConcurrentControlAccess(t *testing.T) {
	s := newPrimingSession(t, newGainBank(1, 0.5, 0.25), 48000, 32)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		buf := make([]float32, 64)
		for i := range 500 {
			n := 32
			if i%100 == 99 {
				n = 16
			}
			for j := range buf[:2*n] {
				buf[j] = float32(j%7) * 0.1
			}
			if _, err := s.Process(buf[:2*n]); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := range 500 {
			n := i % 3
			_ = s.SetIntensity(n, float32(i%40))
			_ = s.SetMute(n, i%2 == 0)
			_ = s.SetBypass((n+1)%3, i%3 == 0)
		}
	}()

	go func() {
		defer wg.Done()
		for range 500 {
			_ = s.Controls()
			_, _ = s.Latency()
			_ = s.State()
			_ = s.BlockSize()
		}
	}()

	wg.Wait()
}
