package bao

import "encoding/binary"

// Outboard holds the persisted interior-node hash pairs for one tree,
// laid out in post-order (the order a streaming build naturally produces
// them), plus the tree's size. Bytes() reproduces the wire format a
// verifier reads: one 64-byte (left_hash, right_hash) pair per persisted
// node (leaf or branch), followed by the 8-byte little-endian size.
type Outboard struct {
	tree  Tree
	order []TreeNode       // persisted nodes (leaves and branches), in post-order
	index map[TreeNode]int // node -> position in order/pairs
	pairs [][2]Hash
	root  Hash
}

// persistedNodesInOrder lists every node — leaf or branch — the tree
// actually stores a hash pair for, in post-order: children before
// parents, left before right. A persisted leaf emits its own pair (its
// two block halves' hashes) independent of whatever its ancestors emit.
// A branch with only one real child (the tree's right edge, when the
// block count isn't a power of two) is a pass-through and is never
// persisted; its lone child's position is unaffected. The total count is
// always blocks-1 (see Tree.OutboardSize).
func persistedNodesInOrder(t Tree) []TreeNode {
	if t.Blocks() <= 1 {
		return nil
	}
	var order []TreeNode
	var walk func(n TreeNode)
	walk = func(n TreeNode) {
		if leaf, ok := n.AsLeaf(); ok {
			if t.IsPersisted(n) {
				order = append(order, n)
			}
			_ = leaf
			return
		}
		left, _ := n.LeftChild()
		right, _ := n.RightChild()
		if !t.nodeHasData(right) {
			walk(left)
			return
		}
		walk(left)
		walk(right)
		order = append(order, n)
	}
	walk(t.Root())
	return order
}

// BuildOutboard hashes data in full and produces its Outboard alongside
// the tree's root hash.
func BuildOutboard(data []byte, g uint8) (Outboard, Hash) {
	t := NewTree(ByteNum(len(data)), g)
	ob := Outboard{tree: t}

	if t.Blocks() <= 1 {
		root := hashBlock(t, 0, data, true)
		ob.root = root
		return ob, root
	}

	ob.order = persistedNodesInOrder(t)
	ob.index = make(map[TreeNode]int, len(ob.order))
	for i, n := range ob.order {
		ob.index[n] = i
	}
	ob.pairs = make([][2]Hash, len(ob.order))

	root := ob.hashAndRecord(t.Root(), data, true)
	ob.root = root
	return ob, root
}

// hashAndRecord is hashSubtree, additionally filling in each persisted
// node's child-hash pair as it is computed. See hashSubtree for why isRoot
// threads through skip nodes instead of being tested against n directly.
func (ob *Outboard) hashAndRecord(n TreeNode, data []byte, isRoot bool) Hash {
	if leaf, ok := n.AsLeaf(); ok {
		start, end := ob.tree.LeafByteRange(leaf)
		return ob.hashLeafAndRecord(leaf, data[start:end], isRoot)
	}

	left, _ := n.LeftChild()
	right, _ := n.RightChild()

	if !ob.tree.nodeHasData(right) {
		return ob.hashAndRecord(left, data, isRoot)
	}

	lh := ob.hashAndRecord(left, data, false)
	rh := ob.hashAndRecord(right, data, false)

	if idx, ok := ob.index[n]; ok {
		ob.pairs[idx] = [2]Hash{lh, rh}
	}
	return hashParent(lh, rh, isRoot)
}

// hashLeafAndRecord is hashLeafBlock, additionally filling in the leaf's
// own persisted pair (its left and right block hashes) when it has one.
func (ob *Outboard) hashLeafAndRecord(l LeafNode, leafData []byte, isRoot bool) Hash {
	t := ob.tree
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

	if idx, ok := ob.index[l.AsTreeNode()]; ok {
		ob.pairs[idx] = [2]Hash{lh, rh}
	}
	return hashParent(lh, rh, isRoot)
}

// Root returns the tree's root hash.
func (ob Outboard) Root() Hash { return ob.root }

// Tree returns the descriptor the outboard was built against.
func (ob Outboard) Tree() Tree { return ob.tree }

// Bytes serializes the outboard to its on-disk form: post-order
// (left_hash || right_hash) pairs followed by an 8-byte little-endian
// size.
func (ob Outboard) Bytes() []byte {
	out := make([]byte, len(ob.pairs)*64+8)
	for i, p := range ob.pairs {
		copy(out[i*64:i*64+32], p[0][:])
		copy(out[i*64+32:i*64+64], p[1][:])
	}
	binary.LittleEndian.PutUint64(out[len(out)-8:], uint64(ob.tree.Size()))
	return out
}

// ParseOutboard decodes an outboard byte slice produced by Bytes, using g
// to determine how many pairs are expected and which node each belongs
// to.
func ParseOutboard(data []byte, g uint8) (Outboard, error) {
	if len(data) < 8 {
		return Outboard{}, ErrTruncatedOutboard
	}
	size := ByteNum(binary.LittleEndian.Uint64(data[len(data)-8:]))
	t := NewTree(size, g)

	order := persistedNodesInOrder(t)
	body := data[:len(data)-8]
	if len(body) < len(order)*64 {
		return Outboard{}, ErrTruncatedOutboard
	}
	if len(body) > len(order)*64 {
		return Outboard{}, ErrInvalidSize
	}

	pairs := make([][2]Hash, len(order))
	index := make(map[TreeNode]int, len(order))
	for i, n := range order {
		copy(pairs[i][0][:], body[i*64:i*64+32])
		copy(pairs[i][1][:], body[i*64+32:i*64+64])
		index[n] = i
	}
	return Outboard{tree: t, order: order, index: index, pairs: pairs}, nil
}

// pairAt returns the stored hash pair for node n, if n is a persisted
// node (leaf or branch).
func (ob Outboard) pairAt(n TreeNode) ([2]Hash, bool) {
	idx, ok := ob.index[n]
	if !ok {
		return [2]Hash{}, false
	}
	return ob.pairs[idx], true
}
