// Package fir provides windowed-sinc FIR design and the FIR runtimes used by
// the crystalizer band filters.
//
// Design: [LowpassKernel], [HighpassKernel] and [BandpassKernel] build
// linear-phase kernels from a cutoff, a transition bandwidth and a sample
// rate. The kernel order is M = ceil(4/(transition/sampleRate)), rounded up
// to an even number, so a kernel has M+1 taps and a group delay of M/2
// samples. A bandpass kernel cascades a lowpass and a highpass kernel and
// therefore has twice the delay of its parts; designing it with twice the
// transition bandwidth gives it the same delay as a lowpass or highpass
// kernel designed with the base bandwidth.
//
// Runtime: [Filter] is a direct-form filter for short kernels. [Stereo] is a
// named, stateful block filter for interleaved stereo float32 audio that is
// created for a fixed block length and sample rate, processes buffers in
// place and is released with Finish.
package fir
