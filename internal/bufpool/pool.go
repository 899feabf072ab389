// Package bufpool provides fixed-size read buffers shared across sessions.
package bufpool

import "sync"

// DefaultSize is the read buffer size used per session.
const DefaultSize = 32 * 1024

// Pool provides byte buffers of a fixed size.
type Pool struct {
	pool    sync.Pool
	bufSize int
}

// New creates a pool that returns buffers of exactly bufSize bytes.
func New(bufSize int) *Pool {
	if bufSize <= 0 {
		panic("bufpool: bufSize must be positive")
	}
	p := &Pool{bufSize: bufSize}
	p.pool.New = func() interface{} {
		b := make([]byte, bufSize)
		return &b
	}
	return p
}

// Get returns a buffer from the pool, allocating one if the pool is empty.
func (p *Pool) Get() *[]byte {
	b := p.pool.Get().(*[]byte)
	if cap(*b) < p.bufSize {
		nb := make([]byte, p.bufSize)
		return &nb
	}
	*b = (*b)[:p.bufSize]
	return b
}

// Put returns a buffer to the pool. Buffers smaller than the pool size are dropped.
func (p *Pool) Put(b *[]byte) {
	if b == nil || cap(*b) < p.bufSize {
		return
	}
	*b = (*b)[:cap(*b)]
	p.pool.Put(b)
}

// BufSize returns the size of buffers in this pool.
func (p *Pool) BufSize() int {
	return p.bufSize
}
