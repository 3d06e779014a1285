package mqtt

import (
	"testing"
)

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(10)
	if got := rb.drainAll(); got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestRingBufferPushAndDrain(t *testing.T) {
	rb := newRingBuffer(10)
	for i := 0; i < 5; i++ {
		rb.push(bufferedMsg{topic: TopicSystem, payload: []byte{byte(i)}})
	}

	got := rb.drainAll()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}

	if got := rb.drainAll(); got != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got))
	}
}

func TestRingBufferOverflowKeepsNewest(t *testing.T) {
	size := 5
	rb := newRingBuffer(size)

	// 0..7 pushed; 3..7 survive
	for i := 0; i < size+3; i++ {
		rb.push(bufferedMsg{topic: TopicSystem, payload: []byte{byte(i)}})
	}
	if rb.dropped != 3 {
		t.Errorf("expected 3 dropped, got %d", rb.dropped)
	}

	got := rb.drainAll()
	if len(got) != size {
		t.Fatalf("expected %d items, got %d", size, len(got))
	}
	for i := 0; i < size; i++ {
		want := byte(i + 3)
		if got[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, got[i].payload[0])
		}
	}
}

func TestRingBufferRetainedSupersedes(t *testing.T) {
	rb := newRingBuffer(4)
	rb.push(bufferedMsg{topic: TopicState, payload: []byte("a"), retained: true})
	rb.push(bufferedMsg{topic: TopicSystem, payload: []byte("s")})
	rb.push(bufferedMsg{topic: TopicState, payload: []byte("b"), retained: true})

	if rb.len() != 2 {
		t.Fatalf("expected 2 buffered, got %d", rb.len())
	}
	got := rb.drainAll()
	if string(got[0].payload) != "b" {
		t.Errorf("retained state should be replaced in place, got %q", got[0].payload)
	}
	if string(got[1].payload) != "s" {
		t.Errorf("system message should be kept, got %q", got[1].payload)
	}
}

func TestRingBufferNonRetainedNotMerged(t *testing.T) {
	rb := newRingBuffer(4)
	rb.push(bufferedMsg{topic: TopicSystem, payload: []byte("1")})
	rb.push(bufferedMsg{topic: TopicSystem, payload: []byte("2")})
	if rb.len() != 2 {
		t.Errorf("expected both messages buffered, got %d", rb.len())
	}
}

func TestRingBufferMultipleCycles(t *testing.T) {
	rb := newRingBuffer(5)

	for i := 0; i < 3; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	if got := rb.drainAll(); len(got) != 3 {
		t.Fatalf("cycle 1: expected 3 items, got %d", len(got))
	}

	for i := 10; i < 14; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	got := rb.drainAll()
	if len(got) != 4 {
		t.Fatalf("cycle 2: expected 4 items, got %d", len(got))
	}
	for i, msg := range got {
		if want := byte(10 + i); msg.payload[0] != want {
			t.Errorf("cycle 2 item %d: expected %d, got %d", i, want, msg.payload[0])
		}
	}
}

func TestRingBufferMinimumCapacity(t *testing.T) {
	rb := newRingBuffer(0)
	rb.push(bufferedMsg{topic: "t", payload: []byte("x")})
	rb.push(bufferedMsg{topic: "t", payload: []byte("y")})
	got := rb.drainAll()
	if len(got) != 1 || string(got[0].payload) != "y" {
		t.Errorf("expected only newest message, got %v", got)
	}
}
