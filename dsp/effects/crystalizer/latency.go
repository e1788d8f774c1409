package crystalizer

import "time"

// LatencyQuery is a pipeline latency report. Max is ignored when Unbounded
// is set.
type LatencyQuery struct {
	Live      bool
	Min       time.Duration
	Max       time.Duration
	Unbounded bool
}

// Latency returns the added latency, one buffer of BlockSize frames at the
// negotiated rate, rounded to the nearest nanosecond.
func (s *Session) Latency() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.latencyLocked()
}

// QueryLatency adds the session latency to an upstream latency report.
func (s *Session) QueryLatency(upstream LatencyQuery) (LatencyQuery, error) {
	latency, err := s.Latency()
	if err != nil {
		return upstream, err
	}

	upstream.Min += latency
	if !upstream.Unbounded {
		upstream.Max += latency
	}
	return upstream, nil
}

// latencyLocked must be called with s.mu held.
func (s *Session) latencyLocked() (time.Duration, error) {
	if s.rate <= 0 {
		return 0, ErrNoFormat
	}
	return scaleRound(s.nsamples, time.Second, s.rate), nil
}

// scaleRound returns round(n * unit / rate).
func scaleRound(n int, unit time.Duration, rate int) time.Duration {
	num := int64(n) * int64(unit)
	return time.Duration((num + int64(rate)/2) / int64(rate))
}
