package mqtt

import "github.com/rs/zerolog/log"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer holds messages published while disconnected. When full the
// oldest message is overwritten. Not safe for concurrent use.
type ringBuffer struct {
	buf      []bufferedMsg
	head     int // next write position
	count    int
	dropped  int // total overwritten since creation
	overflow bool
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{buf: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	capacity := len(r.buf)
	if msg.retained {
		// A newer retained message on the same topic supersedes the old one.
		for i := 0; i < r.count; i++ {
			j := (r.head - r.count + i + capacity) % capacity
			if r.buf[j].retained && r.buf[j].topic == msg.topic {
				r.buf[j] = msg
				return
			}
		}
	}
	if r.count == capacity {
		if !r.overflow {
			log.Warn().Int("capacity", capacity).Msg("MQTT offline buffer full, dropping oldest")
			r.overflow = true
		}
		r.dropped++
		r.buf[r.head] = msg
		r.head = (r.head + 1) % capacity
		return
	}
	r.buf[r.head] = msg
	r.head = (r.head + 1) % capacity
	r.count++
}

func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}

	capacity := len(r.buf)
	out := make([]bufferedMsg, r.count)
	start := (r.head - r.count + capacity) % capacity
	for i := range out {
		out[i] = r.buf[(start+i)%capacity]
	}

	r.count = 0
	r.head = 0
	r.overflow = false
	return out
}

func (r *ringBuffer) len() int {
	return r.count
}
