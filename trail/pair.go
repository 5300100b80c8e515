// Package trail tracks the read/write roles of the double-buffered trail map.
package trail

// Pair holds two equally sized buffers used ping-pong style. Exactly one is
// the read source and the other the write target at any time.
type Pair[B comparable] struct {
	bufs  [2]B
	read  int
	swaps uint64
}

// NewPair creates a pair with a as the initial read buffer.
// The two buffers must be distinct instances.
func NewPair[B comparable](a, b B) *Pair[B] {
	if a == b {
		panic("trail: pair needs two distinct buffers")
	}
	return &Pair[B]{bufs: [2]B{a, b}}
}

// Read returns the buffer passes sample from.
func (p *Pair[B]) Read() B {
	return p.bufs[p.read]
}

// Write returns the buffer passes render into.
func (p *Pair[B]) Write() B {
	return p.bufs[1-p.read]
}

// Swap exchanges the roles. The buffer just written becomes the read source.
func (p *Pair[B]) Swap() {
	p.read = 1 - p.read
	p.swaps++
}

// Swaps returns how many times the roles have been exchanged.
func (p *Pair[B]) Swaps() uint64 {
	return p.swaps
}

// Both returns the two buffers in allocation order.
func (p *Pair[B]) Both() [2]B {
	return p.bufs
}
