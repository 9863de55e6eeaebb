package bao

import "github.com/Arqu/bao-tree/rangeset"

// NodeChunkRange returns the [start, end) chunk range n's subtree covers,
// clamped to the tree's actual chunk count.
func (t Tree) NodeChunkRange(n TreeNode) (start, end ChunkNum) {
	s, e := n.ByteRange(t.chunkGroupLog)
	chunks := t.Chunks()
	cs := s.Chunks()
	ce := e.Chunks()
	if ce > chunks {
		ce = chunks
	}
	if cs > chunks {
		cs = chunks
	}
	return cs, ce
}

// half distinguishes which chaining value a trustTok names when it points
// at a persisted leaf: halfWhole names a branch's own combined value, or
// an unbalanced/skip leaf's lone real block; halfLeft and halfRight name
// one of a persisted leaf's two independently-verifiable block halves.
const (
	halfWhole uint8 = iota
	halfLeft
	halfRight
)

// trustTok identifies a specific already-verified (or about-to-be-verified)
// chaining value in the tree. Most steps trust a whole node, but a
// persisted leaf's own hash pair names two distinct trusted values — one
// per block half — that a plain TreeNode can't represent on its own.
type trustTok struct {
	node TreeNode
	half uint8
}

// stepKind distinguishes the two kinds of event a selective walk emits.
type stepKind int

const (
	stepParent stepKind = iota
	stepData
)

// step is one emission of a pre-order selective walk: either a persisted
// node's (left_hash, right_hash) pair — a branch's own, or a persisted
// leaf's own block-half pair — or one block's worth of raw data.
//
// trust identifies which already-verified hash this step must be checked
// against. A chain of single-child ("skip") nodes, or a skip leaf's lone
// real half, computes no hash of its own, so a step reached only through
// such a chain inherits the trust token of the nearest real ancestor
// instead of naming itself.
type step struct {
	kind       stepKind
	node       TreeNode
	trust      trustTok
	blockIndex uint64
	byteStart  ByteNum
	byteEnd    ByteNum
	isTreeRoot bool
}

// leafSteps expands leaf l into the steps its persisted structure
// requires. A skip leaf (its right half holds no data) contributes a
// single stepData for its lone block, inheriting trust unchanged exactly
// like a skip branch. A persisted leaf (both halves hold data) first
// emits its own pair-verification step, then — independently, per half —
// a stepData for whichever half(s) actually intersect ranges; a query
// that only touches one half never causes the other half's bytes to be
// fetched.
func leafSteps(t Tree, l LeafNode, trust, rootTok trustTok, ranges *rangeset.Set) []step {
	node := l.AsTreeNode()
	leftBlock, _ := l.BlockRange()
	leftStart, leftEnd, rightStart, rightEnd, hasRight := t.leafHalves(l)

	if !hasRight {
		return []step{{
			kind:       stepData,
			node:       node,
			trust:      trust,
			blockIndex: uint64(leftBlock),
			byteStart:  leftStart,
			byteEnd:    leftEnd,
			isTreeRoot: trust == rootTok,
		}}
	}

	out := []step{{kind: stepParent, node: node, trust: trust, isTreeRoot: trust == rootTok}}

	leftTok := trustTok{node: node, half: halfLeft}
	rightTok := trustTok{node: node, half: halfRight}

	if rangeSetIntersects(ranges, uint64(leftStart.Chunks()), uint64(leftEnd.Chunks())) {
		out = append(out, step{
			kind:       stepData,
			node:       node,
			trust:      leftTok,
			blockIndex: uint64(leftBlock),
			byteStart:  leftStart,
			byteEnd:    leftEnd,
		})
	}
	if rangeSetIntersects(ranges, uint64(rightStart.Chunks()), uint64(rightEnd.Chunks())) {
		out = append(out, step{
			kind:       stepData,
			node:       node,
			trust:      rightTok,
			blockIndex: uint64(leftBlock) + 1,
			byteStart:  rightStart,
			byteEnd:    rightEnd,
		})
	}
	return out
}

// selectiveSteps performs a pre-order walk of the tree, descending only
// into subtrees whose chunk range intersects ranges, using an explicit
// stack so the walk's stack stays bounded by the tree's depth rather than
// its width; the returned slice holds every emitted step. ranges is first
// canonicalised against the tree's actual chunk
// count, so a query lying entirely past the end of the blob still yields
// its last chunk instead of nothing. The resulting sequence is exactly
// the order EncodeRanges must write its proof stream in, and DecodeRanges
// must consume it in.
func selectiveSteps(t Tree, ranges *rangeset.Set) []step {
	ranges = canonicalizeRanges(ranges, t.Chunks())

	var out []step
	if t.Blocks() == 0 {
		return out
	}
	root := t.Root()
	rootTok := trustTok{node: root, half: halfWhole}

	if t.Blocks() == 1 {
		start, end := t.NodeChunkRange(root)
		if rangeSetIntersects(ranges, uint64(start), uint64(end)) {
			leaf, _ := root.AsLeaf()
			out = append(out, leafSteps(t, leaf, rootTok, rootTok, ranges)...)
		}
		return out
	}

	type frame struct {
		node  TreeNode
		trust trustTok
	}
	stack := []frame{{root, rootTok}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, trust := f.node, f.trust

		// walk down a chain of single-child ("skip") nodes without
		// consuming a stack frame per link; trust stays fixed on the
		// nearest real ancestor throughout.
		for {
			cs, ce := t.NodeChunkRange(n)
			if !rangeSetIntersects(ranges, uint64(cs), uint64(ce)) {
				n = 0
				break
			}
			if leaf, ok := n.AsLeaf(); ok {
				out = append(out, leafSteps(t, leaf, trust, rootTok, ranges)...)
				n = 0
				break
			}
			left, _ := n.LeftChild()
			right, _ := n.RightChild()
			if t.nodeHasData(right) {
				out = append(out, step{kind: stepParent, node: n, trust: trust, isTreeRoot: trust == rootTok})
				stack = append(stack, frame{right, trustTok{node: right, half: halfWhole}})
				n, trust = left, trustTok{node: left, half: halfWhole}
				continue
			}
			// skip node: descend without renaming the trust token.
			n = left
		}
	}
	return out
}

// canonicalizeRanges rewrites a range set that doesn't intersect the
// tree's actual chunk span into the single open range [chunks-1, ∞),
// covering just the last chunk. A request that lies entirely past the end
// of a blob (e.g. a caller asking for chunk 1,000,000 of a short file)
// otherwise intersects nothing and would silently decode to zero chunks;
// canonicalisation guarantees at least the final chunk is always
// reachable by such a query.
func canonicalizeRanges(ranges *rangeset.Set, chunks ChunkNum) *rangeset.Set {
	if chunks == 0 {
		return ranges
	}
	if rangeSetIntersects(ranges, 0, uint64(chunks)) {
		return ranges
	}
	return rangeset.NewOpen(uint64(chunks) - 1)
}

// nodeHasData reports whether n's subtree covers any real data at all (as
// opposed to lying entirely past the end of a not-fully-balanced tree's
// last block).
func (t Tree) nodeHasData(n TreeNode) bool {
	s, _ := n.ByteRange(t.chunkGroupLog)
	return s < t.Size()
}

func rangeSetIntersects(s *rangeset.Set, start, end uint64) bool {
	if s.IsEmpty() || end <= start {
		return false
	}
	for _, r := range s.Ranges(end) {
		if r.Start < end && r.End > start {
			return true
		}
	}
	return false
}
