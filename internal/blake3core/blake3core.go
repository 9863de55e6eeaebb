// Package blake3core implements the subset of BLAKE3 this module needs:
// per-chunk chaining values and the parent-node combiner, both with
// explicit, caller-controlled domain separation ("is_root").
//
// No public Go BLAKE3 package exposes this control surface the way the
// reference Rust implementation's blake3::guts module does, so this
// package is vendored in-tree in the same spirit distribution/distribution
// vendors lukechampine.com/blake3: the node/compress/chaining-value
// vocabulary below follows that vendored copy, and the chunk-stepping
// shape of ChunkState follows blake3zcc's ChunkParser.
package blake3core

import "math/bits"

const (
	flagChunkStart = 1 << iota
	flagChunkEnd
	flagParent
	flagRoot
)

// ChunkLen is the number of bytes BLAKE3 hashes per chunk.
const ChunkLen = 1024

// BlockLen is the number of bytes in a single compression block.
const BlockLen = 64

var iv = [8]uint32{
	0x6A09E667, 0xBB67AE85, 0x3C6EF372, 0xA54FF53A,
	0x510E527F, 0x9B05688C, 0x1F83D9AB, 0x5BE0CD19,
}

var msgPermutation = [16]int{2, 6, 3, 10, 7, 0, 4, 13, 1, 11, 12, 5, 9, 14, 15, 8}

// ChunkState hashes a single, up-to-1024-byte BLAKE3 chunk incrementally.
type ChunkState struct {
	cv        [8]uint32
	buf       [BlockLen]byte
	bufLen    uint32
	counter   uint64
	compBlock int // number of 64-byte blocks already folded into cv
}

// NewChunkState starts hashing the chunk at the given chunk index.
func NewChunkState(chunkIndex uint64) *ChunkState {
	return &ChunkState{cv: iv, counter: chunkIndex}
}

// Update feeds more of the chunk's data into the state. The caller must
// never pass more than ChunkLen bytes in total across all calls.
func (c *ChunkState) Update(data []byte) {
	for len(data) > 0 {
		if c.bufLen == BlockLen {
			c.compress(false, false)
			c.bufLen = 0
		}
		n := copy(c.buf[c.bufLen:], data)
		c.bufLen += uint32(n)
		data = data[n:]
	}
}

// compress folds the current 64-byte buffer into the chaining value, using
// bufLen as the block length. Update calls it for full non-final blocks;
// Finalize calls it once more for the final, possibly partial block.
func (c *ChunkState) compress(isEnd, isRoot bool) {
	flags := uint32(0)
	if c.compBlock == 0 {
		flags |= flagChunkStart
	}
	if isEnd {
		flags |= flagChunkEnd
	}
	if isRoot {
		flags |= flagRoot
	}
	words := bytesToWords(c.buf[:])
	out := compress(c.cv, words, c.counter, c.bufLen, flags)
	copy(c.cv[:], out[:8])
	c.compBlock++
}

// Finalize pads and compresses the final (possibly partial or empty) block
// and returns the chunk's 32-byte chaining value. isRoot sets BLAKE3's
// root domain-separation flag; it must be set on exactly one node per tree.
func (c *ChunkState) Finalize(isRoot bool) [32]byte {
	for i := c.bufLen; i < BlockLen; i++ {
		c.buf[i] = 0
	}
	c.compress(true, isRoot)
	var out [32]byte
	wordsToBytes(c.cv[:8], out[:])
	return out
}

// ParentCV combines two children's 32-byte chaining values into their
// parent's chaining value. isRoot must be true only when this parent is
// the node from which the tree's final root is taken.
func ParentCV(left, right [32]byte, isRoot bool) [32]byte {
	var block [16]uint32
	lw := bytesToWords(left[:])
	rw := bytesToWords(right[:])
	copy(block[:8], lw[:8])
	copy(block[8:], rw[:8])
	flags := uint32(flagParent)
	if isRoot {
		flags |= flagRoot
	}
	out := compress(iv, block, 0, BlockLen, flags)
	var res [32]byte
	wordsToBytes(out[:8], res[:])
	return res
}

func g(state *[16]uint32, a, b, c, d int, mx, my uint32) {
	state[a] += state[b] + mx
	state[d] = bits.RotateLeft32(state[d]^state[a], -16)
	state[c] += state[d]
	state[b] = bits.RotateLeft32(state[b]^state[c], -12)
	state[a] += state[b] + my
	state[d] = bits.RotateLeft32(state[d]^state[a], -8)
	state[c] += state[d]
	state[b] = bits.RotateLeft32(state[b]^state[c], -7)
}

func round(state *[16]uint32, m [16]uint32) {
	g(state, 0, 4, 8, 12, m[0], m[1])
	g(state, 1, 5, 9, 13, m[2], m[3])
	g(state, 2, 6, 10, 14, m[4], m[5])
	g(state, 3, 7, 11, 15, m[6], m[7])
	g(state, 0, 5, 10, 15, m[8], m[9])
	g(state, 1, 6, 11, 12, m[10], m[11])
	g(state, 2, 7, 8, 13, m[12], m[13])
	g(state, 3, 4, 9, 14, m[14], m[15])
}

func permute(m [16]uint32) (out [16]uint32) {
	for i, src := range msgPermutation {
		out[i] = m[src]
	}
	return out
}

// compress runs the BLAKE3 compression function and returns the full
// 16-word output state (the chaining value is its first 8 words).
func compress(cv [8]uint32, block [16]uint32, counter uint64, blockLen uint32, flags uint32) [16]uint32 {
	state := [16]uint32{
		cv[0], cv[1], cv[2], cv[3], cv[4], cv[5], cv[6], cv[7],
		iv[0], iv[1], iv[2], iv[3],
		uint32(counter), uint32(counter >> 32), blockLen, flags,
	}
	m := block
	for i := 0; i < 7; i++ {
		round(&state, m)
		if i < 6 {
			m = permute(m)
		}
	}
	for i := 0; i < 8; i++ {
		state[i] ^= state[i+8]
		state[i+8] ^= cv[i]
	}
	return state
}

func bytesToWords(b []byte) [16]uint32 {
	var m [16]uint32
	// called with 64-byte blocks and 32-byte chaining values; words past
	// the end of a shorter slice stay zero
	for i := 0; i < 16 && i*4+4 <= len(b); i++ {
		m[i] = uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
	}
	return m
}

func wordsToBytes(words []uint32, out []byte) {
	for i, w := range words {
		out[i*4] = byte(w)
		out[i*4+1] = byte(w >> 8)
		out[i*4+2] = byte(w >> 16)
		out[i*4+3] = byte(w >> 24)
	}
}
