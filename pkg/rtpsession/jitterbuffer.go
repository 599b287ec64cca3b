package rtpsession

import (
	"container/heap"
	"time"

	"github.com/pion/rtp"
)

// jitterEntry is one packet held in the jitter buffer, ordered by its
// extended (wrap-aware) sequence number.
type jitterEntry struct {
	extSeq  uint32
	pkt     rtp.Packet
	arrival time.Time
}

// seqHeap is a min-heap of jitterEntry ordered by extended sequence
// number, so popping always yields packets in RTP sequence order,
// matching the teacher's jitter_buffer.go min-heap-by-timestamp
// approach but keyed by sequence rather than RTP timestamp (the core
// must reorder network-arrival order back into stream order, which
// sequence number — not timestamp — defines for a single SSRC).
type seqHeap []jitterEntry

func (h seqHeap) Len() int            { return len(h) }
func (h seqHeap) Less(i, j int) bool  { return h[i].extSeq < h[j].extSeq }
func (h seqHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *seqHeap) Push(x interface{}) { *h = append(*h, x.(jitterEntry)) }
func (h *seqHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// jitterBuffer reorders inbound RTP packets per remote SSRC and
// releases them in sequence order once each has been held for at
// least maxHold. A nil/zero maxHold releases as soon as a packet is
// the lowest pending sequence number for its SSRC.
type jitterBuffer struct {
	heaps map[uint32]*seqHeap
	seen  map[uint32]map[uint32]struct{} // ssrc -> set of extended seq already inserted (dedup)
}

func newJitterBuffer() *jitterBuffer {
	return &jitterBuffer{
		heaps: make(map[uint32]*seqHeap),
		seen:  make(map[uint32]map[uint32]struct{}),
	}
}

// insert adds pkt to the buffer for ssrc at the given extended
// sequence number. Returns false if this extended sequence was
// already buffered (duplicate).
func (jb *jitterBuffer) insert(ssrc uint32, extSeq uint32, pkt rtp.Packet, now time.Time) bool {
	seen, ok := jb.seen[ssrc]
	if !ok {
		seen = make(map[uint32]struct{})
		jb.seen[ssrc] = seen
	}
	if _, dup := seen[extSeq]; dup {
		return false
	}
	seen[extSeq] = struct{}{}

	h, ok := jb.heaps[ssrc]
	if !ok {
		h = &seqHeap{}
		heap.Init(h)
		jb.heaps[ssrc] = h
	}
	heap.Push(h, jitterEntry{extSeq: extSeq, pkt: pkt, arrival: now})
	return true
}

// pop releases the oldest ready packet across all SSRCs, in
// ascending-SSRC order for determinism when multiple SSRCs have a
// packet ready simultaneously.
func (jb *jitterBuffer) pop(now time.Time, maxHold time.Duration) (rtp.Packet, bool) {
	ssrc, ok := jb.nextReadySSRC(now, maxHold)
	if !ok {
		return rtp.Packet{}, false
	}
	h := jb.heaps[ssrc]
	entry := heap.Pop(h).(jitterEntry)
	delete(jb.seen[ssrc], entry.extSeq)
	return entry.pkt, true
}

// popAfter returns the duration until pop would next return a
// packet, or false if the buffer is empty.
func (jb *jitterBuffer) popAfter(now time.Time, maxHold time.Duration) (time.Duration, bool) {
	var best time.Duration
	found := false
	for _, h := range jb.heaps {
		if h.Len() == 0 {
			continue
		}
		deadline := (*h)[0].arrival.Add(maxHold)
		d := deadline.Sub(now)
		if d < 0 {
			d = 0
		}
		if !found || d < best {
			best = d
			found = true
		}
	}
	return best, found
}

// depth returns the total number of packets currently buffered across
// all remote SSRCs.
func (jb *jitterBuffer) depth() int {
	total := 0
	for _, h := range jb.heaps {
		total += h.Len()
	}
	return total
}

func (jb *jitterBuffer) nextReadySSRC(now time.Time, maxHold time.Duration) (uint32, bool) {
	bestSSRC := uint32(0)
	found := false
	for ssrc, h := range jb.heaps {
		if h.Len() == 0 {
			continue
		}
		front := (*h)[0]
		if now.Sub(front.arrival) < maxHold {
			continue
		}
		if !found || ssrc < bestSSRC {
			bestSSRC = ssrc
			found = true
		}
	}
	return bestSSRC, found
}
