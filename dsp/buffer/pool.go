package buffer

import "sync"

// Pool provides sync.Pool-based Stereo buffer reuse so repeated rebuilds
// at the same block size do not reallocate.
type Pool struct {
	pool sync.Pool
}

// NewPool returns a Pool ready for use.
func NewPool() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any {
				return &Stereo{}
			},
		},
	}
}

// Get returns a zeroed buffer with the requested frame count.
// Callers must return it via Put when done.
func (p *Pool) Get(frames int) *Stereo {
	b := p.pool.Get().(*Stereo)
	b.Reset(frames)
	return b
}

// Put returns a buffer to the pool for reuse.
// The caller must not use the buffer after calling Put.
func (p *Pool) Put(b *Stereo) {
	if b == nil {
		return
	}
	p.pool.Put(b)
}
