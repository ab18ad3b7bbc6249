package compaction

import (
	"crypto/sha256"
	"encoding/binary"
	"io"
	"sort"

	"github.com/youssefsiam38/compactpg/types"
)

// MessageHash is a stable 64-bit content fingerprint of a message. The
// zero value is reserved as the invalid sentinel and never produced by
// HashMessage.
type MessageHash uint64

// HashMessage computes a stable fingerprint from the message role,
// instructions, and the stringified form of every part. It never fails:
// a nil message hashes to the invalid sentinel, and malformed parts
// contribute their best-effort projection.
func HashMessage(msg *types.Message) MessageHash {
	if msg == nil {
		return 0
	}

	h := sha256.New()
	io.WriteString(h, string(msg.Role))
	h.Write([]byte{0})
	io.WriteString(h, msg.Instructions)
	h.Write([]byte{0})
	for _, p := range msg.Parts {
		io.WriteString(h, string(p.Type))
		h.Write([]byte{0})
		io.WriteString(h, StringifyPart(p))
		h.Write([]byte{0})
	}

	var sum [sha256.Size]byte
	h.Sum(sum[:0])
	v := MessageHash(binary.BigEndian.Uint64(sum[:8]))
	if v == 0 {
		// Keep zero free for the invalid sentinel.
		v = 1
	}
	return v
}

// Ledger tracks which message fingerprints have already been folded into a
// compaction summary. It only ever grows; membership suppresses
// re-insertion of already-summarized originals during accumulation.
//
// A Ledger is owned by exactly one session instance and is not safe for
// concurrent use.
type Ledger struct {
	compacted map[MessageHash]struct{}
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{compacted: make(map[MessageHash]struct{})}
}

// Add records a hash as compacted. Adding the invalid sentinel is a no-op.
func (l *Ledger) Add(h MessageHash) {
	if h == 0 {
		return
	}
	l.compacted[h] = struct{}{}
}

// AddMessages records the hash of every message in the slice.
func (l *Ledger) AddMessages(messages []*types.Message) {
	for _, msg := range messages {
		l.Add(HashMessage(msg))
	}
}

// Contains reports whether the hash has been compacted.
func (l *Ledger) Contains(h MessageHash) bool {
	_, ok := l.compacted[h]
	return ok
}

// Len returns the number of recorded hashes.
func (l *Ledger) Len() int {
	return len(l.compacted)
}

// Snapshot returns the recorded hashes as a sorted slice, suitable for
// persistence by an external session manager.
func (l *Ledger) Snapshot() []uint64 {
	out := make([]uint64, 0, len(l.compacted))
	for h := range l.compacted {
		out = append(out, uint64(h))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Restore merges previously persisted hashes back into the ledger.
func (l *Ledger) Restore(hashes []uint64) {
	for _, h := range hashes {
		l.Add(MessageHash(h))
	}
}
