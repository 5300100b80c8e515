// Package audio produces beat notifications for the render loop.
//
// Producers run on their own goroutines and hand beats over through a bounded
// channel with Offer, which never blocks. The render loop calls Drain once per
// tick.
package audio

import "time"

// QueueSize is the default beat channel capacity.
const QueueSize = 64

// Beat is one detected (or generated) beat.
type Beat struct {
	At  time.Time
	BPM float64 // 0 when no tempo estimate is available
}

// NewQueue returns a beat channel with the given capacity, or QueueSize if size <= 0.
func NewQueue(size int) chan Beat {
	if size <= 0 {
		size = QueueSize
	}
	return make(chan Beat, size)
}

// Offer sends b without blocking. It reports false if the queue was full and
// the beat was dropped.
func Offer(ch chan<- Beat, b Beat) bool {
	select {
	case ch <- b:
		return true
	default:
		return false
	}
}

// Drain empties ch without blocking and returns how many beats were pending
// and the most recent one.
func Drain(ch <-chan Beat) (n int, last Beat) {
	for {
		select {
		case b, ok := <-ch:
			if !ok {
				return n, last
			}
			n++
			last = b
		default:
			return n, last
		}
	}
}
