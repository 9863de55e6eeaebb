package bao

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Arqu/bao-tree/rangeset"
)

// EncodeRanges writes a self-describing proof stream for the requested
// chunk ranges of data into w: an 8-byte little-endian total size, then a
// pre-order interleaving of 64-byte interior hash pairs and leaf data,
// exactly the sequence a matching DecodeRanges call consumes and
// verifies. ob must have been built from the same data and g.
func EncodeRanges(w io.Writer, data []byte, ob Outboard, ranges *rangeset.Set, opts ...Option) error {
	cfg := applyOptions(opts)
	t := ob.Tree()
	if uint64(t.Size()) != uint64(len(data)) {
		return fmt.Errorf("%w: outboard size does not match data length", ErrInvalidSize)
	}

	bw := bufio.NewWriterSize(w, cfg.bufferSize)

	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], uint64(t.Size()))
	if _, err := bw.Write(sizeBuf[:]); err != nil {
		return err
	}

	for _, st := range selectiveSteps(t, ranges) {
		switch st.kind {
		case stepParent:
			pair, ok := ob.pairAt(st.node)
			if !ok {
				return fmt.Errorf("bao: outboard missing hash pair for requested node")
			}
			if _, err := bw.Write(pair[0][:]); err != nil {
				return err
			}
			if _, err := bw.Write(pair[1][:]); err != nil {
				return err
			}
		case stepData:
			if _, err := bw.Write(data[st.byteStart:st.byteEnd]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Chunk is one verified piece of plaintext produced by a decoder: Offset
// is its position in the original blob, Data its verified bytes.
type Chunk struct {
	Offset ByteNum
	Data   []byte
}

// DecodeRanges verifies and decodes an entire proof stream produced by
// EncodeRanges in one call, returning every requested chunk's bytes, one
// Chunk per leaf: the verified halves of one leaf are joined into a single
// Chunk. root is the tree's previously-trusted BLAKE3 hash. It stops and
// returns ErrHashMismatch at the first inconsistency, surfacing no chunk
// past that point.
func DecodeRanges(r io.Reader, root Hash, ranges *rangeset.Set, g uint8, opts ...Option) ([]Chunk, error) {
	var chunks []Chunk
	leafShift := uint(g) + chunkBits + 1
	err := decodeRanges(r, root, ranges, g, func(c Chunk) error {
		if n := len(chunks); n > 0 {
			prev := &chunks[n-1]
			contiguous := prev.Offset+ByteNum(len(prev.Data)) == c.Offset
			if contiguous && uint64(prev.Offset)>>leafShift == uint64(c.Offset)>>leafShift {
				prev.Data = append(prev.Data, c.Data...)
				return nil
			}
		}
		cp := Chunk{Offset: c.Offset, Data: append([]byte(nil), c.Data...)}
		chunks = append(chunks, cp)
		return nil
	}, opts...)
	return chunks, err
}

// DecodeRangesInto is DecodeRanges for callers that want to stream
// verified bytes directly to a seekable destination (e.g. a file at the
// right offset) instead of accumulating them in memory. emit is called
// once per verified block (one half of a leaf, or a leaf's lone block),
// in increasing-offset order within each contiguous run the proof stream
// covers; the two halves of a leaf arrive as separate calls. Its Data
// slice is only valid until emit returns.
func DecodeRangesInto(r io.Reader, root Hash, ranges *rangeset.Set, g uint8, emit func(Chunk) error, opts ...Option) error {
	return decodeRanges(r, root, ranges, g, emit, opts...)
}

func decodeRanges(r io.Reader, root Hash, ranges *rangeset.Set, g uint8, emit func(Chunk) error, opts ...Option) error {
	cfg := applyOptions(opts)
	br := bufio.NewReaderSize(r, cfg.bufferSize)

	var sizeBuf [8]byte
	if _, err := io.ReadFull(br, sizeBuf[:]); err != nil {
		return fmt.Errorf("%w: reading size header: %w", ErrUnexpectedEOF, err)
	}
	size := ByteNum(binary.LittleEndian.Uint64(sizeBuf[:]))
	t := NewTree(size, g)

	steps := selectiveSteps(t, ranges)
	if len(steps) == 0 {
		return nil
	}

	// trusted[tok] holds the chaining value that tok (a step's trust
	// token — see the step and trustTok type doc comments) must match,
	// once known. The root's trusted value is the caller-supplied hash;
	// every other token's trusted value is read off its producing
	// parent's hash pair as that parent is consumed. A persisted leaf's
	// pair produces two tokens (its left and right block halves) rather
	// than the two TreeNode children a branch's pair produces.
	trusted := map[trustTok]Hash{}
	trusted[trustTok{node: t.Root(), half: halfWhole}] = root

	for _, st := range steps {
		switch st.kind {
		case stepParent:
			var pairBuf [64]byte
			if _, err := io.ReadFull(br, pairBuf[:]); err != nil {
				return fmt.Errorf("%w: reading parent hashes: %w", ErrUnexpectedEOF, err)
			}
			var left, right Hash
			copy(left[:], pairBuf[:32])
			copy(right[:], pairBuf[32:])

			want, ok := trusted[st.trust]
			if !ok {
				return ErrHashMismatch
			}
			got := hashParent(left, right, st.isTreeRoot)
			if got != want {
				return ErrHashMismatch
			}

			if _, isLeaf := st.node.AsLeaf(); isLeaf {
				trusted[trustTok{node: st.node, half: halfLeft}] = left
				trusted[trustTok{node: st.node, half: halfRight}] = right
			} else {
				leftChild, _ := st.node.LeftChild()
				rightChild, _ := st.node.RightChild()
				trusted[trustTok{node: leftChild, half: halfWhole}] = left
				trusted[trustTok{node: rightChild, half: halfWhole}] = right
			}

		case stepData:
			length := int(st.byteEnd - st.byteStart)
			var buf []byte
			pooled := cfg.pool != nil && cfg.pool.Size() == length
			if pooled {
				buf = cfg.pool.Get()
			} else {
				buf = make([]byte, length)
			}
			if length > 0 {
				if _, err := io.ReadFull(br, buf); err != nil {
					if pooled {
						cfg.pool.Put(buf)
					}
					return fmt.Errorf("%w: reading leaf data: %w", ErrUnexpectedEOF, err)
				}
			}

			want, ok := trusted[st.trust]
			if !ok {
				if pooled {
					cfg.pool.Put(buf)
				}
				return ErrHashMismatch
			}
			got := hashBlock(t, st.blockIndex, buf, st.isTreeRoot)
			if got != want {
				if pooled {
					cfg.pool.Put(buf)
				}
				return ErrHashMismatch
			}

			err := emit(Chunk{Offset: st.byteStart, Data: buf})
			if pooled {
				cfg.pool.Put(buf)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
