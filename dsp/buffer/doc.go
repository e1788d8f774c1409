// Package buffer provides an owned interleaved stereo float32 buffer and a
// pool for reusing them across filter rebuilds.
package buffer
