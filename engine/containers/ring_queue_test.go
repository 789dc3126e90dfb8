package containers

import (
	"errors"
	"testing"
)

func TestRingQueue(t *testing.T) {
	q := NewRingQueue[string](2)
	if !q.IsEmpty() || q.IsFull() {
		t.Fatalf("new queue state")
	}
	if _, err := q.Dequeue(); !errors.Is(err, ErrQueueEmpty) {
		t.Fatalf("want ErrQueueEmpty, got %v", err)
	}
	if _, err := q.Peek(); !errors.Is(err, ErrQueueEmpty) {
		t.Fatalf("want ErrQueueEmpty from Peek, got %v", err)
	}

	_ = q.Enqueue("a")
	_ = q.Enqueue("b")
	if err := q.Enqueue("c"); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("want ErrQueueFull, got %v", err)
	}
	if v, _ := q.Peek(); v != "a" || q.Len() != 2 {
		t.Fatalf("peek %q len %d", v, q.Len())
	}

	// wrap around the end of the buffer
	if v, _ := q.Dequeue(); v != "a" {
		t.Fatalf("dequeue %q", v)
	}
	_ = q.Enqueue("c")
	if v, _ := q.Dequeue(); v != "b" {
		t.Fatalf("dequeue %q", v)
	}
	if err := q.Enqueue("d"); err != nil {
		t.Fatal(err)
	}
	var got []string
	for !q.IsEmpty() {
		v, _ := q.Dequeue()
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != "c" || got[1] != "d" {
		t.Fatalf("remaining %v", got)
	}
}

func TestRingQueueMinimumSize(t *testing.T) {
	q := NewRingQueue[int](0)
	if err := q.Enqueue(1); err != nil {
		t.Fatal(err)
	}
	if !q.IsFull() {
		t.Fatalf("size 0 should hold one element")
	}
}
