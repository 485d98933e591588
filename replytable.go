package mqtt5

import (
	"fmt"
	"sync"

	"github.com/golang-io/mqtt5/packet"
)

// replyTable tracks packet identifiers allocated for outstanding
// subscribe/unsubscribe calls and resolves them when the matching SubAck or
// UnsubAck arrives. Adapted from the teacher's infight.go InFight map: that
// type deletes on Get and is keyed by whatever identifier the caller
// already chose; this one also owns allocation, replacing the teacher's
// client.go Subscribe() use of a hardcoded PacketID: 1 with the
// smallest-free-slot allocator spec.md §4.5/§8 invariant 6 requires.
type replyTable struct {
	mu      sync.Mutex
	pending map[uint16]chan packet.Packet
}

func newReplyTable() *replyTable {
	return &replyTable{pending: make(map[uint16]chan packet.Packet)}
}

// allocate reserves the smallest free identifier in 1..65535 and returns a
// channel that resolve() will send the matching reply packet on.
func (t *replyTable) allocate() (uint16, chan packet.Packet, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.pending) >= 65535 {
		return 0, nil, fmt.Errorf("%w", ErrResourceExhausted)
	}

	id := uint16(1)
	for {
		if _, used := t.pending[id]; !used {
			break
		}
		id++
	}
	ch := make(chan packet.Packet, 1)
	t.pending[id] = ch
	return id, ch, nil
}

// resolve delivers pkt to the waiter registered under id, if any, and frees
// the slot. An unmatched identifier is reported to the caller (who logs a
// warning) rather than treated as an error — the broker is at fault but the
// session continues, per spec.md §7.
func (t *replyTable) resolve(id uint16, pkt packet.Packet) (matched bool) {
	t.mu.Lock()
	ch, ok := t.pending[id]
	if ok {
		delete(t.pending, id)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	ch <- pkt
	close(ch)
	return true
}

// rejectAll closes every outstanding waiter with no reply, used when the
// connection drops (spec.md §5: "Pending subscribe/unsubscribe awaits are
// rejected on every disconnection").
func (t *replyTable) rejectAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, ch := range t.pending {
		close(ch)
		delete(t.pending, id)
	}
}
