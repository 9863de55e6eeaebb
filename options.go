package bao

import "sync"

// Option configures optional, non-semantic behavior of the streaming
// encoder and decoder (buffering, buffer reuse). It never changes what
// bytes are produced or what a verification accepts or rejects.
type Option func(*config)

type config struct {
	bufferSize int
	pool       *BufferPool
}

func defaultConfig() *config {
	return &config{bufferSize: int(ChunkBytes)}
}

func applyOptions(opts []Option) *config {
	c := defaultConfig()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithBufferSize sets the size of the buffered reader/writer EncodeRanges
// and the decode functions wrap their io.Reader/io.Writer in. The default
// is one chunk's worth of bytes; callers streaming many small leaf reads
// over a slow io.Reader may want it larger.
func WithBufferSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

// WithHashPool supplies a BufferPool the decode functions draw block
// scratch buffers from instead of allocating one per verified block. Only
// blocks whose length equals the pool's Size() (normally Tree.BlockSize)
// use the pool; a block of any other length, such as a short final block,
// gets a fresh allocation. Share one pool across concurrent decodes at the
// same chunk-group exponent to amortize allocation.
func WithHashPool(p *BufferPool) Option {
	return func(c *config) {
		c.pool = p
	}
}

// BufferPool pools reusable byte buffers of a fixed size, Get/Put like a
// sync.Pool-backed resource pool. Get returns a buffer of exactly Size()
// bytes; Put returns it for reuse and must not be called with a buffer
// obtained from anywhere else.
type BufferPool struct {
	size int
	pool sync.Pool
}

// NewBufferPool creates a BufferPool handing out buffers of size bytes.
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{size: size}
}

// Size returns the fixed buffer length this pool hands out.
func (p *BufferPool) Size() int { return p.size }

// Get acquires a buffer of Size() bytes from the pool.
func (p *BufferPool) Get() []byte {
	if v := p.pool.Get(); v != nil {
		buf := v.([]byte)
		if cap(buf) >= p.size {
			return buf[:p.size]
		}
	}
	return make([]byte, p.size)
}

// Put releases buf back to the pool.
func (p *BufferPool) Put(buf []byte) {
	p.pool.Put(buf)
}
