// Package conv provides the convolution routines behind FIR band filtering.
//
// Two strategies are offered:
//
//   - Direct convolution: O(N*M) time-domain convolution, used for short
//     kernels and for cascading FIR kernels at design time.
//   - Streaming overlap-save: FFT-based block convolution with persistent
//     input history, used to run long FIR kernels on fixed-size audio blocks.
//
// # Usage
//
// One-shot convolution:
//
//	result, err := conv.Convolve(signal, kernel) // auto-selects direct or FFT
//	result, err := conv.Direct(signal, kernel)   // force direct convolution
//
// Block-by-block filtering with a fixed block size:
//
//	c, err := conv.NewStreamingOverlapSave(kernel, blockSize)
//	err = c.ProcessBlockTo(out, in)
//
// Several streams sharing one kernel (e.g. left and right channel) can share
// the kernel spectrum via [StreamingOverlapSave.Clone].
package conv
