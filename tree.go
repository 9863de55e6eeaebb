package bao

import "fmt"

// PostOrderKind classifies how a node's interior hash is positioned in an
// outboard. A Stable node's position never changes as more data of the
// same tree shape is appended; an Unstable node's position depends on the
// final size and is only known once the blob is fully described; a Skip
// node has no persisted hash pair at all (its chaining value is computed
// on the fly from its single child).
type PostOrderKind int

const (
	// Stable means the node's post-order slot is fixed.
	Stable PostOrderKind = iota
	// Unstable means the node sits on the right edge of a not-yet-sealed
	// tree: its slot will only be known once the final size is fixed.
	Unstable
	// Skip means the node has exactly one child (the tree is unbalanced
	// at this point) and is never itself persisted.
	Skip
)

// PostOrderOffset pairs a PostOrderKind with the numeric offset, when one
// applies (Skip carries no offset).
type PostOrderOffset struct {
	Kind   PostOrderKind
	Offset PostOrderNum
}

// Tree describes the shape of a Merkle tree over a blob: its total size
// and the chunk-group exponent g (each block covers 2^g chunks instead of
// 1, and each leaf two blocks, trading proof size for hashing
// granularity). Every tree starts at chunk 0; a Tree carries no
// start-chunk offset. Tree values are cheap, comparable, and immutable.
type Tree struct {
	size         ByteNum
	chunkGroupLog uint8
}

// NewTree builds a Tree descriptor for a blob of the given size and
// chunk-group exponent. g must be small enough that 1<<g does not
// overflow a reasonable block size; callers needing validation should use
// NewTreeChecked.
func NewTree(size ByteNum, g uint8) Tree {
	return Tree{size: size, chunkGroupLog: g}
}

// NewTreeChecked is NewTree with bounds validation on g.
func NewTreeChecked(size ByteNum, g uint8) (Tree, error) {
	if g > 30 {
		return Tree{}, fmt.Errorf("%w: chunk group log %d too large", ErrInvalidSize, g)
	}
	return NewTree(size, g), nil
}

// Size is the total byte length of the described blob.
func (t Tree) Size() ByteNum { return t.size }

// ChunkGroupLog is g: each leaf block covers 1<<g chunks.
func (t Tree) ChunkGroupLog() uint8 { return t.chunkGroupLog }

// Chunks is the number of 1024-byte chunks needed to cover the blob.
func (t Tree) Chunks() ChunkNum { return t.size.Chunks() }

// Blocks is the number of leaf blocks (each 2^g chunks) needed to cover
// the blob.
func (t Tree) Blocks() BlockNum { return t.size.Blocks(t.chunkGroupLog) }

// BlockSize is the number of bytes a full leaf block covers.
func (t Tree) BlockSize() ByteNum {
	return ByteNum(uint64(ChunkBytes) << t.chunkGroupLog)
}

// FilledSize is the TreeNode identifying the smallest perfect binary tree
// (2*leaves-1 nodes, all present, where leaves = ceil(blocks/2)) bounding
// the real, possibly-unbalanced tree.
func (t Tree) FilledSize() TreeNode {
	return filledSizeForBlocks(t.Blocks())
}

// Root is the TreeNode at the top of the tree. For an empty or
// single-block blob the root is the sole leaf, node 0.
func (t Tree) Root() TreeNode {
	blocks := t.Blocks()
	if blocks <= 1 {
		return 0
	}
	return rootForBlocks(blocks)
}

// IsSealed reports whether node's right edge has reached its final shape:
// true when the node's whole (unclamped) byte range lies inside the blob.
// Nodes on the right spine of a tree whose size is not a multiple of the
// node's span, and nodes lying past the end of the blob, are not sealed.
func (t Tree) IsSealed(n TreeNode) bool {
	_, end := n.ByteRange(t.chunkGroupLog)
	return end <= t.size
}

// IsPersisted reports whether node has its own stored (left_hash,
// right_hash) pair in the outboard. A leaf is persisted when its right
// block half holds any real data (mid_bytes(L) < size); a branch is
// persisted when it is not a Skip node.
func (t Tree) IsPersisted(n TreeNode) bool {
	if leaf, ok := n.AsLeaf(); ok {
		_, _, _, _, hasRight := t.leafHalves(leaf)
		return hasRight
	}
	kind := t.PostOrderOffsetOf(n)
	return kind.Kind != Skip
}

// PostOrderOffsetOf classifies and, where applicable, computes n's
// position in the tree's post-order outboard layout.
func (t Tree) PostOrderOffsetOf(n TreeNode) PostOrderOffset {
	if t.IsSealed(n) {
		return PostOrderOffset{Kind: Stable, Offset: n.PostOrderOffset()}
	}

	// n straddles the right edge: its subtree is not fully inside the
	// blob, so its slot depends on the final size.
	rightChild, ok := n.RightChild()
	if !ok {
		if !t.IsPersisted(n) {
			return PostOrderOffset{Kind: Skip}
		}
	} else if !t.nodeHasData(rightChild) {
		// the right child holds no real data: n has only a left child
		// and is never persisted.
		return PostOrderOffset{Kind: Skip}
	}

	// unstable offset counted back from the end of the outboard
	pairs := uint64(t.OutboardSize()-8) / 64
	back := uint64(n.RightCount()) + 1
	if pairs < back {
		return PostOrderOffset{Kind: Skip}
	}
	return PostOrderOffset{Kind: Unstable, Offset: PostOrderNum(pairs - back)}
}

// LeafByteRange returns the [start, end) byte range a leaf node covers,
// clamped to the tree's actual size.
func (t Tree) LeafByteRange(l LeafNode) (start, end ByteNum) {
	blockBytes := t.BlockSize()
	startBlock, endBlock := l.BlockRange()
	start = ByteNum(uint64(startBlock)) * blockBytes
	end = ByteNum(uint64(endBlock)) * blockBytes
	if end > t.size {
		end = t.size
	}
	if start > t.size {
		start = t.size
	}
	return start, end
}

// NodeByteRange returns the [start, end) byte range n's subtree covers,
// clamped to the tree's actual size.
func (t Tree) NodeByteRange(n TreeNode) (start, end ByteNum) {
	s, e := n.ByteRange(t.chunkGroupLog)
	if e > t.size {
		e = t.size
	}
	if s > t.size {
		s = t.size
	}
	return s, e
}

// leafHalves returns the byte ranges of leaf's left and right block
// halves, clamped to the tree's actual size. hasRight reports whether the
// right half holds any real data — mid_bytes(l) < size — the leaf-level
// counterpart of a branch's right child existing. When hasRight is false,
// rightStart and rightEnd both equal leftEnd.
func (t Tree) leafHalves(l LeafNode) (leftStart, leftEnd, rightStart, rightEnd ByteNum, hasRight bool) {
	blockBytes := t.BlockSize()
	leftBlock, _ := l.BlockRange()
	leftStart = ByteNum(uint64(leftBlock)) * blockBytes
	mid := leftStart + blockBytes

	leftEnd = mid
	if leftEnd > t.size {
		leftEnd = t.size
	}

	hasRight = mid < t.size
	if !hasRight {
		return leftStart, leftEnd, leftEnd, leftEnd, false
	}

	rightStart = mid
	rightEnd = mid + blockBytes
	if rightEnd > t.size {
		rightEnd = t.size
	}
	return leftStart, leftEnd, rightStart, rightEnd, true
}

// OutboardSize is the number of bytes the outboard occupies: one 64-byte
// (left_hash, right_hash) pair for every persisted node — leaf or branch —
// plus an 8-byte trailing little-endian size field. Every block past the
// first is folded in by exactly one combining step somewhere in the tree,
// so the pair count is always blocks-1 regardless of how those combines
// are distributed between leaves and branches.
func (t Tree) OutboardSize() ByteNum {
	blocks := uint64(t.Blocks())
	if blocks <= 1 {
		return ByteNum(8)
	}
	return ByteNum(64*(blocks-1) + 8)
}
