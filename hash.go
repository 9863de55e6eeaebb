package bao

import "github.com/Arqu/bao-tree/internal/blake3core"

// Hash is a 32-byte BLAKE3 chaining value: a chunk hash, a parent hash, or
// a tree root, depending on context.
type Hash [32]byte

// hashChunk hashes a single chunk's bytes (at most ChunkBytes long) using
// the chunk's index for domain separation, optionally setting the
// tree-root flag when the whole tree is a single chunk.
func hashChunk(chunkIndex ChunkNum, data []byte, isRoot bool) Hash {
	cs := blake3core.NewChunkState(uint64(chunkIndex))
	cs.Update(data)
	return Hash(cs.Finalize(isRoot))
}

// hashParent combines two child chaining values into their parent's,
// setting the root flag only when this is the single combining step that
// produces the tree's root.
func hashParent(left, right Hash, isRoot bool) Hash {
	return Hash(blake3core.ParentCV(left, right, isRoot))
}

// BlobHash computes the BLAKE3 root hash of data directly, without
// building or persisting an outboard. It is equivalent to (and used to
// cross-check) the root produced by BuildOutboard over the same bytes and
// chunk-group exponent.
func BlobHash(data []byte, g uint8) Hash {
	t := NewTree(ByteNum(len(data)), g)
	if len(data) == 0 {
		return hashChunk(0, nil, true)
	}
	if t.Blocks() <= 1 {
		return hashBlock(t, 0, data, true)
	}
	return hashSubtree(t, t.Root(), data, true)
}

// hashSubtree recursively computes the chaining value of node n's subtree
// over data, which must be the full blob (node byte ranges are computed
// relative to it). isRoot is threaded down through skip (single-child)
// nodes rather than tested against n directly, since such nodes compute
// no hash of their own — whichever real descendant ends up doing the
// combining on their behalf is the one that must carry the flag.
func hashSubtree(t Tree, n TreeNode, data []byte, isRoot bool) Hash {
	if leaf, ok := n.AsLeaf(); ok {
		start, end := t.LeafByteRange(leaf)
		return hashLeafBlock(t, leaf, data[start:end], isRoot)
	}
	left, _ := n.LeftChild()
	right, _ := n.RightChild()
	if !t.nodeHasData(right) {
		// right subtree is entirely absent: the unbalanced node's
		// chaining value is simply its lone child's, no parent pair is
		// formed (Tree.PostOrderOffsetOf reports Skip for such nodes).
		return hashSubtree(t, left, data, isRoot)
	}
	lh := hashSubtree(t, left, data, false)
	rh := hashSubtree(t, right, data, false)
	return hashParent(lh, rh, isRoot)
}

// hashLeafBlock hashes a leaf's up-to-two blocks (each 2^g chunks),
// combining them with one parent step unless the blob ends partway
// through the leaf's first block. leafData is exactly the leaf's own
// bytes (0-indexed, as returned by Tree.LeafByteRange), not the blob.
func hashLeafBlock(t Tree, l LeafNode, leafData []byte, isRoot bool) Hash {
	blockBytes := uint64(t.BlockSize())
	leftBlock := uint64(l)

	leftLen := blockBytes
	if leftLen > uint64(len(leafData)) {
		leftLen = uint64(len(leafData))
	}
	leftData := leafData[:leftLen]
	rightData := leafData[leftLen:]

	if len(rightData) == 0 {
		return hashBlock(t, leftBlock, leftData, isRoot)
	}

	lh := hashBlock(t, leftBlock, leftData, false)
	rh := hashBlock(t, leftBlock+1, rightData, false)
	return hashParent(lh, rh, isRoot)
}

// hashBlock hashes one block (2^g consecutive chunks, the last possibly
// short) starting at the given block index, as a left-balanced binary
// tree of individual chunk hashes — the same shape BLAKE3 itself uses for
// a run of whole chunks.
func hashBlock(t Tree, blockIndex uint64, data []byte, isRoot bool) Hash {
	firstChunk := ChunkNum(blockIndex << t.ChunkGroupLog())
	return hashChunksBalanced(firstChunk, data, isRoot)
}

// hashChunksBalanced hashes a run of whole chunks (the last possibly
// short) as a balanced binary tree.
func hashChunksBalanced(firstChunk ChunkNum, data []byte, isRoot bool) Hash {
	numChunks := (uint64(len(data)) + ChunkBytes - 1) / ChunkBytes
	if numChunks <= 1 {
		return hashChunk(firstChunk, data, isRoot)
	}

	half := uint64(1)
	for half*2 < numChunks {
		half *= 2
	}
	splitBytes := half * ChunkBytes
	if splitBytes > uint64(len(data)) {
		splitBytes = uint64(len(data))
	}

	left := hashChunksBalanced(firstChunk, data[:splitBytes], false)
	right := hashChunksBalanced(firstChunk+ChunkNum(half), data[splitBytes:], false)
	return hashParent(left, right, isRoot)
}
