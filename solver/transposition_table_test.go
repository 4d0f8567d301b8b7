package solver

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/yonmoku/board"
)

func TestTTableStoreLookup(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(12, ReplacePolicy)
	b, err := board.New(7, 6, nil)
	is.NoErr(err)
	is.NoErr(b.ReplayString("3344"))

	is.Equal(tt.Lookup(b), Unknown)
	is.Equal(tt.Store(b, MaybeWin), MaybeWin)
	is.Equal(tt.Lookup(b), MaybeWin)

	// overwrite
	tt.Store(b, Win)
	is.Equal(tt.Lookup(b), Win)

	st := tt.Stats()
	is.Equal(st.Created, uint64(2))
	is.Equal(st.Used, uint64(1))
	is.Equal(st.Lookups, uint64(3))
	is.Equal(st.Hits, uint64(2))
	is.Equal(st.Misses, uint64(1))
	is.Equal(st.Collisions, uint64(0))
	is.Equal(st.Slots, uint64(4096))

	tt.Reset()
	is.Equal(tt.Lookup(b), Unknown)
	is.Equal(tt.Stats().Used, uint64(0))
}

func TestTTableLockMismatch(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(10, ReplacePolicy)
	lockA := [2]uint64{1, 2}
	lockB := [2]uint64{4, 8}
	// same key, different positions.
	tt.store(12345, lockA, Draw, 2)
	is.Equal(tt.lookup(12345, lockB), Unknown)
	is.Equal(tt.lookup(12345, lockA), Draw)

	tt.store(12345, lockB, Lose, 2)
	is.Equal(tt.Stats().Collisions, uint64(1))
	// replaced
	is.Equal(tt.lookup(12345, lockA), Unknown)
	is.Equal(tt.lookup(12345, lockB), Lose)
}

func TestTTableChain(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(10, ChainPolicy)
	lockA := [2]uint64{1, 2}
	lockB := [2]uint64{4, 8}
	tt.store(12345, lockA, Draw, 2)
	tt.store(12345, lockB, Lose, 2)
	is.Equal(tt.lookup(12345, lockA), Draw)
	is.Equal(tt.lookup(12345, lockB), Lose)
	is.Equal(tt.Stats().Collisions, uint64(1))
	is.Equal(tt.Stats().Used, uint64(1))

	// newest entry for a position shadows older ones.
	tt.store(12345, lockA, MaybeWin, 2)
	is.Equal(tt.lookup(12345, lockA), MaybeWin)
}

func TestTTableHashCutoff(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(10, ReplacePolicy)
	tt.SetHashCutoff(3)
	b, err := board.New(7, 6, nil)
	is.NoErr(err)
	is.NoErr(b.ReplayString("333"))
	tt.Store(b, Win)
	is.Equal(tt.Lookup(b), Win)

	is.NoErr(b.Play(3))
	tt.Store(b, Lose)
	is.Equal(tt.Lookup(b), Unknown)
	is.Equal(tt.Stats().Created, uint64(1))

	tt.SetHashCutoff(0)
	is.NoErr(b.Undo(1))
	is.Equal(tt.Lookup(b), Unknown)
}

func TestTTableMinimumSize(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(2, ReplacePolicy)
	is.Equal(tt.SizePowerOf2(), minSizePower)
	tt = NewTranspositionTableFromMemory(0, ChainPolicy)
	is.Equal(tt.SizePowerOf2(), minSizePower)
	is.Equal(tt.Policy(), ChainPolicy)
}

func TestParseCollisionPolicy(t *testing.T) {
	is := is.New(t)
	p, ok := ParseCollisionPolicy("chain")
	is.True(ok)
	is.Equal(p, ChainPolicy)
	_, ok = ParseCollisionPolicy("lru")
	is.True(!ok)
}
