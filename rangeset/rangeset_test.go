package rangeset

import (
	"reflect"
	"testing"
)

func TestNewAndBoundaries(t *testing.T) {
	s := New(2, 5)
	if got := s.Boundaries(); !reflect.DeepEqual(got, []uint64{2, 5}) {
		t.Fatalf("got %v", got)
	}
	if s.IsEmpty() {
		t.Fatalf("non-empty range reported empty")
	}
}

func TestEmptyRangeIsEmpty(t *testing.T) {
	s := New(5, 5)
	if !s.IsEmpty() {
		t.Fatalf("degenerate range must be empty")
	}
	s = New(5, 2)
	if !s.IsEmpty() {
		t.Fatalf("inverted range must be empty")
	}
}

func TestOpenEnded(t *testing.T) {
	s := NewOpen(10)
	if s.isOpenEnded() != true {
		t.Fatalf("expected open-ended set")
	}
	if !s.Contains(10) || !s.Contains(1_000_000) {
		t.Fatalf("open-ended set should contain everything >= start")
	}
	if s.Contains(9) {
		t.Fatalf("open-ended set should not contain values below start")
	}
}

func TestSplitWithinRange(t *testing.T) {
	s := New(0, 10)
	left, right := s.Split(4)
	if !reflect.DeepEqual(left.Boundaries(), []uint64{0, 4}) {
		t.Fatalf("left = %v", left.Boundaries())
	}
	if !reflect.DeepEqual(right.Boundaries(), []uint64{4, 10}) {
		t.Fatalf("right = %v", right.Boundaries())
	}
}

func TestSplitOpenEnded(t *testing.T) {
	s := NewOpen(3)
	left, right := s.Split(5)
	if !reflect.DeepEqual(left.Boundaries(), []uint64{3, 5}) {
		t.Fatalf("left = %v", left.Boundaries())
	}
	if !reflect.DeepEqual(right.Boundaries(), []uint64{5}) {
		t.Fatalf("right = %v", right.Boundaries())
	}

	// split point before the open range entirely
	left2, right2 := s.Split(1)
	if !left2.IsEmpty() {
		t.Fatalf("left2 should be empty, got %v", left2.Boundaries())
	}
	if !reflect.DeepEqual(right2.Boundaries(), []uint64{3}) {
		t.Fatalf("right2 = %v", right2.Boundaries())
	}
}

func TestSplitMultipleRanges(t *testing.T) {
	s := Union(Range{0, 2}, Range{4, 6}, Range{8, 12})
	left, right := s.Split(5)
	if !reflect.DeepEqual(left.Boundaries(), []uint64{0, 2, 4, 5}) {
		t.Fatalf("left = %v", left.Boundaries())
	}
	if !reflect.DeepEqual(right.Boundaries(), []uint64{5, 6, 8, 12}) {
		t.Fatalf("right = %v", right.Boundaries())
	}
}

func TestUnionMergesOverlaps(t *testing.T) {
	s := Union(Range{0, 3}, Range{2, 5}, Range{10, 12})
	if !reflect.DeepEqual(s.Boundaries(), []uint64{0, 5, 10, 12}) {
		t.Fatalf("got %v", s.Boundaries())
	}
}

func TestRangesMaterializesOpenEnded(t *testing.T) {
	s := NewOpen(7)
	got := s.Ranges(20)
	want := []Range{{7, 20}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestSplitIdempotence(t *testing.T) {
	s := Union(Range{0, 4}, Range{6, 9})
	l1, r1 := s.Split(5)
	l2, _ := l1.Split(5)
	if !reflect.DeepEqual(l1.Boundaries(), l2.Boundaries()) {
		t.Fatalf("splitting an already-left-of-point set should be a no-op: %v vs %v", l1.Boundaries(), l2.Boundaries())
	}
	_ = r1
}
