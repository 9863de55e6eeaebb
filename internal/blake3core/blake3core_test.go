package blake3core

import "testing"

func chunkHash(chunkIndex uint64, data []byte, isRoot bool) [32]byte {
	cs := NewChunkState(chunkIndex)
	cs.Update(data)
	return cs.Finalize(isRoot)
}

func TestChunkStateDeterministic(t *testing.T) {
	data := make([]byte, 1024)
	for i := range data {
		data[i] = byte(i)
	}
	h1 := chunkHash(0, data, false)
	h2 := chunkHash(0, data, false)
	if h1 != h2 {
		t.Fatalf("chunk hashing is not deterministic")
	}
}

func TestChunkStateIncrementalWriteMatchesWhole(t *testing.T) {
	data := make([]byte, 777)
	for i := range data {
		data[i] = byte(i * 7)
	}

	whole := chunkHash(3, data, true)

	cs := NewChunkState(3)
	for _, chunk := range [][]byte{data[:1], data[1:64], data[64:100], data[100:]} {
		cs.Update(chunk)
	}
	piecewise := cs.Finalize(true)

	if whole != piecewise {
		t.Fatalf("incremental writes produced a different hash than a single write")
	}
}

func TestIsRootChangesHash(t *testing.T) {
	data := []byte("hello, bao tree")
	notRoot := chunkHash(0, data, false)
	root := chunkHash(0, data, true)
	if notRoot == root {
		t.Fatalf("is_root flag must change the resulting hash")
	}
}

func TestChunkIndexChangesHash(t *testing.T) {
	data := []byte("same bytes, different chunk counter")
	h0 := chunkHash(0, data, false)
	h1 := chunkHash(1, data, false)
	if h0 == h1 {
		t.Fatalf("chunk index must be domain-separated")
	}
}

func TestParentCVDeterministicAndRootSensitive(t *testing.T) {
	l := chunkHash(0, []byte("left"), false)
	r := chunkHash(1, []byte("right"), false)

	p1 := ParentCV(l, r, false)
	p2 := ParentCV(l, r, false)
	if p1 != p2 {
		t.Fatalf("ParentCV is not deterministic")
	}

	pRoot := ParentCV(l, r, true)
	if pRoot == p1 {
		t.Fatalf("is_root flag must change ParentCV's result")
	}

	swapped := ParentCV(r, l, false)
	if swapped == p1 {
		t.Fatalf("ParentCV must not be commutative in its arguments")
	}
}

func TestEmptyChunk(t *testing.T) {
	h1 := chunkHash(0, nil, true)
	h2 := chunkHash(0, []byte{}, true)
	if h1 != h2 {
		t.Fatalf("hashing nil vs empty slice should be identical")
	}
}
