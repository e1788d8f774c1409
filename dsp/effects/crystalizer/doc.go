// Package crystalizer implements a multi-band dynamic-range expander for
// interleaved stereo float32 audio.
//
// A [Session] splits every incoming buffer into frequency bands with a
// [FilterBank], exaggerates the sample-to-sample differences within each band
// in proportion to a per-band intensity and sums the bands back into the
// buffer. Each band can be muted (left out of the sum) or bypassed (summed
// without expansion).
//
// # Expansion
//
// For every sample x[m] of a band the session blends a backward and a forward
// difference:
//
//	v1 = x[m] + (x[m] - x[m-1]) * intensity
//	v2 = x[m] + (x[m] - x[m+1]) * intensity
//	y[m] = (v1 + v2) / 2
//
// The forward difference of the last sample needs the first sample of the
// next buffer, so the output always lags the input by exactly one buffer.
// [Session.Latency] reports that lag and [Session.QueryLatency] adds it to an
// upstream latency.
//
// # Lifecycle
//
// A session is created with [New] and receives its sample rate through
// [Session.Setup]. The first buffer after Setup, and every buffer whose frame
// count differs from the previous one, rebuilds the filters and band buffers
// and produces no output. The buffer after a rebuild primes the one-buffer
// history and also produces no output. From then on every call returns a
// full buffer:
//
//	s, err := crystalizer.New()
//	if err != nil {
//	    return err
//	}
//	if err := s.Setup(48000); err != nil {
//	    return err
//	}
//	for buf := range buffers {
//	    out, err := s.Process(buf)
//	    if err != nil {
//	        return err
//	    }
//	    emit(out) // empty while rebuilding or priming
//	}
//
// All methods are safe for concurrent use. Control changes take effect on
// the next processed buffer.
package crystalizer
