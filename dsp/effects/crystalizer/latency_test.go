package crystalizer

import (
	"errors"
	"testing"
	"time"
)

func TestLatencyIsOneBuffer(t *testing.T) {
	tests := []struct {
		rate, frames int
		want         time.Duration
	}{
		{48000, 480, 10 * time.Millisecond},
		{44100, 441, 10 * time.Millisecond},
		{48000, 512, 10666667 * time.Nanosecond},
		{3, 1, 333333333 * time.Nanosecond},
		{3, 2, 666666667 * time.Nanosecond},
	}
	for _, tt := range tests {
		s := newPrimingSession(t, newGainBank(1), tt.rate, tt.frames)
		got, err := s.Latency()
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("%d frames at %d Hz: got %v, want %v", tt.frames, tt.rate, got, tt.want)
		}
	}
}

func TestLatencyBeforeFirstBuffer(t *testing.T) {
	s, _ := New(WithFilterBank(newGainBank(1)))
	if err := s.Setup(48000); err != nil {
		t.Fatal(err)
	}
	got, err := s.Latency()
	if err != nil || got != 0 {
		t.Errorf("got %v, %v; want 0, nil", got, err)
	}
}

func TestQueryLatency(t *testing.T) {
	s, _ := New(WithFilterBank(newGainBank(1)))
	upstream := LatencyQuery{Live: true, Min: time.Millisecond, Max: 5 * time.Millisecond}
	if _, err := s.QueryLatency(upstream); !errors.Is(err, ErrNoFormat) {
		t.Fatalf("before Setup: got %v, want ErrNoFormat", err)
	}

	s = newPrimingSession(t, newGainBank(1), 48000, 480)

	got, err := s.QueryLatency(upstream)
	if err != nil {
		t.Fatal(err)
	}
	want := LatencyQuery{Live: true, Min: 11 * time.Millisecond, Max: 15 * time.Millisecond}
	if got != want {
		t.Errorf("bounded: got %+v, want %+v", got, want)
	}

	upstream.Unbounded = true
	got, err = s.QueryLatency(upstream)
	if err != nil {
		t.Fatal(err)
	}
	if got.Min != 11*time.Millisecond || got.Max != 5*time.Millisecond || !got.Unbounded {
		t.Errorf("unbounded: got %+v", got)
	}
}

func TestLatencyHandlerOnRebuild(t *testing.T) {
	var (
		s     *Session
		calls []time.Duration
	)
	handler := func(d time.Duration) {
		// Re-entering the session must not deadlock.
		if got, err := s.Latency(); err != nil || got != d {
			t.Errorf("Latency inside handler = %v, %v; want %v", got, err, d)
		}
		calls = append(calls, d)
	}

	s, err := New(WithFilterBank(newGainBank(1)), WithLatencyHandler(handler))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Setup(48000); err != nil {
		t.Fatal(err)
	}

	for _, n := range []int{480, 480, 480, 240, 240, 480} {
		if _, err := s.Process(make([]float32, 2*n)); err != nil {
			t.Fatal(err)
		}
	}

	want := []time.Duration{10 * time.Millisecond, 5 * time.Millisecond, 10 * time.Millisecond}
	if len(calls) != len(want) {
		t.Fatalf("handler called %d times, want %d", len(calls), len(want))
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: %v, want %v", i, calls[i], want[i])
		}
	}
}
