package solver

import (
	"math"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/domino14/yonmoku/board"
	"github.com/domino14/yonmoku/zobrist"
)

// CollisionPolicy decides what happens when two positions land in the same
// slot.
type CollisionPolicy int

const (
	// ReplacePolicy keeps one entry per slot and overwrites it
	// unconditionally. Lossy, but memory use is fixed.
	ReplacePolicy CollisionPolicy = iota
	// ChainPolicy keeps every entry, newest first. Nothing is ever evicted.
	ChainPolicy
)

func (p CollisionPolicy) String() string {
	if p == ChainPolicy {
		return "chain"
	}
	return "replace"
}

// ParseCollisionPolicy is the inverse of CollisionPolicy.String.
func ParseCollisionPolicy(s string) (CollisionPolicy, bool) {
	switch s {
	case "replace":
		return ReplacePolicy, true
	case "chain":
		return ChainPolicy, true
	}
	return ReplacePolicy, false
}

const (
	entrySize    = 24
	minSizePower = 10
	maxSizePower = 34
)

// TableEntry stores a result along with the full occupancy of the
// position it belongs to. The fingerprint only picks the slot; the lock is
// what proves the entry is for this position.
type TableEntry struct {
	lock  [2]uint64
	score Score
	plies uint8
	used  bool
	next  *TableEntry
}

func (t TableEntry) valid() bool {
	return t.used
}

// TranspositionTable maps positions to previously computed scores.
type TranspositionTable struct {
	table        []TableEntry
	chains       []*TableEntry
	policy       CollisionPolicy
	sizePowerOf2 int
	sizeMask     uint64
	// hashCutoff: positions with more than this many pieces are not
	// hashed. -1 disables the cutoff, 0 disables the table.
	hashCutoff int

	created    atomic.Uint64
	used       atomic.Uint64
	lookups    atomic.Uint64
	hits       atomic.Uint64
	misses     atomic.Uint64
	collisions atomic.Uint64
}

// NewTranspositionTable allocates a table of 2^sizePowerOf2 slots.
func NewTranspositionTable(sizePowerOf2 int, policy CollisionPolicy) *TranspositionTable {
	t := &TranspositionTable{policy: policy, hashCutoff: -1}
	t.allocate(sizePowerOf2)
	return t
}

// NewTranspositionTableFromMemory sizes the table to the largest power of
// two that fits in fractionOfMemory of the system's RAM.
func NewTranspositionTableFromMemory(fractionOfMemory float64, policy CollisionPolicy) *TranspositionTable {
	t := &TranspositionTable{policy: policy, hashCutoff: -1}
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	power := minSizePower
	if desiredNElems > 1 {
		power = int(math.Log2(desiredNElems))
	}
	log.Debug().
		Float64("desired-num-elems", desiredNElems).
		Uint64("total-system-memory-bytes", totalMem).
		Msg("sizing-transposition-table")
	t.allocate(power)
	return t
}

func (t *TranspositionTable) allocate(sizePowerOf2 int) {
	if sizePowerOf2 < minSizePower {
		sizePowerOf2 = minSizePower
	}
	if sizePowerOf2 > maxSizePower {
		sizePowerOf2 = maxSizePower
	}
	t.sizePowerOf2 = sizePowerOf2
	numElems := 1 << sizePowerOf2
	t.sizeMask = uint64(numElems - 1)
	if t.policy == ChainPolicy {
		t.chains = make([]*TableEntry, numElems)
	} else {
		t.table = make([]TableEntry, numElems)
	}
	log.Info().Int("num-elems", numElems).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Str("policy", t.policy.String()).
		Msg("transposition-table-size")
}

// SetHashCutoff stops the table from being used for positions with more
// than cutoff pieces. -1 means no cutoff; 0 turns the table off.
func (t *TranspositionTable) SetHashCutoff(cutoff int) {
	t.hashCutoff = cutoff
}

func (t *TranspositionTable) Policy() CollisionPolicy { return t.policy }
func (t *TranspositionTable) SizePowerOf2() int        { return t.sizePowerOf2 }

func (t *TranspositionTable) enabledFor(turn int) bool {
	switch {
	case t.hashCutoff < 0:
		return true
	case t.hashCutoff == 0:
		return false
	}
	return turn <= t.hashCutoff
}

// Lookup returns the stored score for b, or Unknown.
func (t *TranspositionTable) Lookup(b *board.Board) Score {
	if !t.enabledFor(b.Turn()) {
		return Unknown
	}
	key, lock := b.Key()
	return t.lookup(key, lock)
}

func (t *TranspositionTable) lookup(key uint64, lock [2]uint64) Score {
	t.lookups.Add(1)
	idx := zobrist.Mix(key) & t.sizeMask
	if t.policy == ChainPolicy {
		for e := t.chains[idx]; e != nil; e = e.next {
			if e.lock == lock {
				t.hits.Add(1)
				return e.score
			}
		}
		t.misses.Add(1)
		return Unknown
	}
	e := &t.table[idx]
	if e.valid() && e.lock == lock {
		t.hits.Add(1)
		return e.score
	}
	t.misses.Add(1)
	return Unknown
}

// Store records score for b and returns it unchanged.
func (t *TranspositionTable) Store(b *board.Board, score Score) Score {
	if !t.enabledFor(b.Turn()) {
		return score
	}
	key, lock := b.Key()
	t.store(key, lock, score, b.Turn())
	return score
}

func (t *TranspositionTable) store(key uint64, lock [2]uint64, score Score, plies int) {
	idx := zobrist.Mix(key) & t.sizeMask
	t.created.Add(1)
	if t.policy == ChainPolicy {
		head := t.chains[idx]
		if head == nil {
			t.used.Add(1)
		} else {
			t.collisions.Add(1)
		}
		t.chains[idx] = &TableEntry{lock: lock, score: score, plies: uint8(plies),
			used: true, next: head}
		return
	}
	e := &t.table[idx]
	if !e.valid() {
		t.used.Add(1)
	} else if e.lock != lock {
		t.collisions.Add(1)
	}
	// just overwrite whatever is there.
	*e = TableEntry{lock: lock, score: score, plies: uint8(plies), used: true}
}

// Reset empties the table and zeroes the counters.
func (t *TranspositionTable) Reset() {
	if t.policy == ChainPolicy {
		clear(t.chains)
	} else {
		clear(t.table)
	}
	t.created.Store(0)
	t.used.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.misses.Store(0)
	t.collisions.Store(0)
}

// TableStats is a snapshot of the table's counters.
type TableStats struct {
	Created    uint64 `json:"created"`
	Used       uint64 `json:"used"`
	Lookups    uint64 `json:"lookups"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Collisions uint64 `json:"collisions"`
	Slots      uint64 `json:"slots"`
}

func (t *TranspositionTable) Stats() TableStats {
	return TableStats{
		Created:    t.created.Load(),
		Used:       t.used.Load(),
		Lookups:    t.lookups.Load(),
		Hits:       t.hits.Load(),
		Misses:     t.misses.Load(),
		Collisions: t.collisions.Load(),
		Slots:      t.sizeMask + 1,
	}
}
