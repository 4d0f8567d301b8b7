package zobrist

import (
	"encoding/binary"

	"lukechampine.com/frand"
)

const bignum = 1<<63 - 2

// Mode selects how a board computes its fingerprint.
type Mode int

const (
	// ModeZobrist uses incrementally maintained XOR keys.
	ModeZobrist Mode = iota
	// ModeSimple recomputes sum(1<<height) | bitmap of the first player
	// from scratch on every probe.
	ModeSimple
)

func (m Mode) String() string {
	switch m {
	case ModeZobrist:
		return "zobrist"
	case ModeSimple:
		return "simple"
	}
	return "unknown"
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "zobrist":
		return ModeZobrist, true
	case "simple":
		return ModeSimple, true
	}
	return ModeZobrist, false
}

// Zobrist generates zobrist keys for a column-drop game position.
// https://en.wikipedia.org/wiki/Zobrist_hashing
//
// Keys are indexed by (player, column*(height+1)+row), the same bit index
// the board uses for its bitmaps.
type Zobrist struct {
	posTable [2][]uint64
	width    int
	height   int
}

// Initialize fills the tables with random keys from the system CSPRNG.
func (z *Zobrist) Initialize(width, height int) {
	z.fill(width, height, frand.Uint64n)
}

// InitializeWithSeed fills the tables deterministically. Two tables built
// with the same seed and geometry are identical.
func (z *Zobrist) InitializeWithSeed(width, height int, seed uint64) {
	var s [32]byte
	binary.LittleEndian.PutUint64(s[:], seed)
	rng := frand.NewCustom(s[:], 1024, 12)
	z.fill(width, height, rng.Uint64n)
}

func (z *Zobrist) fill(width, height int, gen func(uint64) uint64) {
	z.width = width
	z.height = height
	n := width * (height + 1)
	for p := 0; p < 2; p++ {
		z.posTable[p] = make([]uint64, n)
		for i := 0; i < n; i++ {
			z.posTable[p][i] = gen(bignum) + 1
		}
	}
}

func (z *Zobrist) Width() int  { return z.width }
func (z *Zobrist) Height() int { return z.height }

// Initialized returns true if the tables match the given geometry.
func (z *Zobrist) Initialized(width, height int) bool {
	return z.posTable[0] != nil && z.width == width && z.height == height
}

// Toggle XORs the key for a piece of player p at (col, row) into key.
// Applying it twice restores the original key.
func (z *Zobrist) Toggle(key uint64, p, col, row int) uint64 {
	return key ^ z.posTable[p][col*(z.height+1)+row]
}

// MirrorToggle is Toggle for the same cell reflected about the vertical
// center line.
func (z *Zobrist) MirrorToggle(key uint64, p, col, row int) uint64 {
	return key ^ z.posTable[p][(z.width-1-col)*(z.height+1)+row]
}

// Hash computes a key from scratch for the given bitmaps.
func (z *Zobrist) Hash(bitmap [2]uint64) uint64 {
	key := uint64(0)
	for p := 0; p < 2; p++ {
		b := bitmap[p]
		for i := range z.posTable[p] {
			if b&(1<<uint(i)) != 0 {
				key ^= z.posTable[p][i]
			}
		}
	}
	return key
}

// Simple is the cheap non-incremental fingerprint. It is unique for a given
// position: the height term locates the top of every column and the bitmap
// term tells the two players apart below it.
func Simple(heights []int, bitmap0 uint64, height int) uint64 {
	var key uint64
	for c, h := range heights {
		key += 1 << uint(c*(height+1)+h)
	}
	return key | bitmap0
}

// Mix spreads the bits of x. Use it before masking a fingerprint down to a
// table index.
// https://stackoverflow.com/a/12996028/1737333
func Mix(x uint64) uint64 {
	x = (x ^ (x >> 30)) * uint64(0xbf58476d1ce4e5b9)
	x = (x ^ (x >> 27)) * uint64(0x94d049bb133111eb)
	x = x ^ (x >> 31)
	return x
}
