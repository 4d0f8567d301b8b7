package board

import (
	"fmt"

	"github.com/domino14/yonmoku/zobrist"
)

// Players. The first player to move is always White.
const (
	White = 0
	Black = 1
)

// MinDimension is the smallest width or height a four-in-a-row game
// makes sense on.
const MinDimension = 4

// Board is a column-drop board packed into two 64-bit sets, one per player.
//
// Bits are laid out column-major with one extra sentinel bit on top of
// every column, so a 7x6 board uses 7*(6+1) = 49 bits:
//
//	 6 13 20 27 34 41 48   <- sentinels, always 0
//	 5 12 19 26 33 40 47
//	 4 11 18 25 32 39 46
//	 3 10 17 24 31 38 45
//	 2  9 16 23 30 37 44
//	 1  8 15 22 29 36 43
//	 0  7 14 21 28 35 42
//
// The sentinel row is what keeps the shift-and-AND win test from wrapping
// from the top of one column into the bottom of the next.
type Board struct {
	width    int
	height   int
	stride   int // height + 1
	maxTurns int

	bitmap  [2]uint64
	heights []int
	turn    int
	history []int

	hash       uint64
	mirrorHash uint64
	zobrist    *zobrist.Zobrist

	hashMode       zobrist.Mode
	symmetry       bool
	symmetryCutoff int
}

// ValidateSize checks that a width x height board can be played and fits
// in a 64-bit bitboard, with a sentinel row above each column.
func ValidateSize(width, height int) error {
	if width < MinDimension || height < MinDimension {
		return fmt.Errorf("%w: got %dx%d", ErrDimensionTooSmall, width, height)
	}
	// the first two tests keep the product from overflowing.
	if width > 64 || height > 64 || width*(height+1) > 64 {
		return fmt.Errorf("%w: %dx%d needs %d bits", ErrSizeTooLarge,
			width, height, width*(height+1))
	}
	return nil
}

// New creates an empty board. z may be nil, in which case a fresh random
// zobrist table is created for this geometry.
func New(width, height int, z *zobrist.Zobrist) (*Board, error) {
	if err := ValidateSize(width, height); err != nil {
		return nil, err
	}
	if z == nil {
		z = &zobrist.Zobrist{}
		z.Initialize(width, height)
	} else if !z.Initialized(width, height) {
		return nil, fmt.Errorf("zobrist table is for %dx%d, not %dx%d",
			z.Width(), z.Height(), width, height)
	}
	b := &Board{
		width:    width,
		height:   height,
		stride:   height + 1,
		maxTurns: width * height,
		heights:  make([]int, width),
		history:  make([]int, 0, width*height),
		zobrist:  z,
	}
	return b, nil
}

// SetHashMode selects the fingerprint used by Key.
func (b *Board) SetHashMode(m zobrist.Mode) {
	b.hashMode = m
}

// SetSymmetry turns on the mirror-collapsing fingerprint for positions with
// fewer than cutoff pieces on the board.
func (b *Board) SetSymmetry(on bool, cutoff int) {
	b.symmetry = on
	b.symmetryCutoff = cutoff
}

func (b *Board) Width() int    { return b.width }
func (b *Board) Height() int   { return b.height }
func (b *Board) Turn() int     { return b.turn }
func (b *Board) MaxTurns() int { return b.maxTurns }
func (b *Board) Full() bool    { return b.turn >= b.maxTurns }

// PlayerOnTurn returns the player whose move it is.
func (b *Board) PlayerOnTurn() int { return b.turn & 1 }

// Bitmap returns the piece set of player p.
func (b *Board) Bitmap(p int) uint64 { return b.bitmap[p] }

// Hash returns the incremental zobrist key. MirrorHash is the same key
// computed as if the board were reflected left to right.
func (b *Board) Hash() uint64       { return b.hash }
func (b *Board) MirrorHash() uint64 { return b.mirrorHash }

func (b *Board) Zobrist() *zobrist.Zobrist { return b.zobrist }

// ColumnHeight returns the number of pieces in column col.
func (b *Board) ColumnHeight(col int) int { return b.heights[col] }

// History returns a copy of the columns played so far.
func (b *Board) History() []int {
	h := make([]int, len(b.history))
	copy(h, b.history)
	return h
}

// HistoryString returns the history in the digit encoding accepted by
// ReplayString.
func (b *Board) HistoryString() string {
	bts := make([]byte, len(b.history))
	for i, c := range b.history {
		bts[i] = byte('0' + c)
	}
	return string(bts)
}

// IsColumnPlayable returns true if col is in range and not full.
func (b *Board) IsColumnPlayable(col int) bool {
	return col >= 0 && col < b.width && b.heights[col] < b.height
}

// LegalMoves returns the playable columns, left to right.
func (b *Board) LegalMoves() []int {
	moves := make([]int, 0, b.width)
	for c := 0; c < b.width; c++ {
		if b.heights[c] < b.height {
			moves = append(moves, c)
		}
	}
	return moves
}

func (b *Board) cell(col, row int) uint64 {
	return 1 << uint(col*b.stride+row)
}

// Occupant returns White, Black or -1 for the cell at (col, row).
func (b *Board) Occupant(col, row int) int {
	bit := b.cell(col, row)
	switch {
	case b.bitmap[White]&bit != 0:
		return White
	case b.bitmap[Black]&bit != 0:
		return Black
	}
	return -1
}

// Play drops a piece for the player on turn into col.
func (b *Board) Play(col int) error {
	if col < 0 || col >= b.width {
		return fmt.Errorf("%w: %d", ErrOutOfRange, col)
	}
	if b.heights[col] >= b.height {
		return fmt.Errorf("%w: %d", ErrColumnFull, col)
	}
	p := b.turn & 1
	row := b.heights[col]
	b.bitmap[p] |= b.cell(col, row)
	b.hash = b.zobrist.Toggle(b.hash, p, col, row)
	b.mirrorHash = b.zobrist.MirrorToggle(b.mirrorHash, p, col, row)
	b.heights[col]++
	b.history = append(b.history, col)
	b.turn++
	return nil
}

// Undo takes back the last n moves.
func (b *Board) Undo(n int) error {
	if n < 0 || n > b.turn {
		return fmt.Errorf("%w: %d (turn %d)", ErrInvalidUndoCount, n, b.turn)
	}
	for ; n > 0; n-- {
		b.turn--
		col := b.history[b.turn]
		b.history = b.history[:b.turn]
		b.heights[col]--
		row := b.heights[col]
		p := b.turn & 1
		b.bitmap[p] &^= b.cell(col, row)
		b.hash = b.zobrist.Toggle(b.hash, p, col, row)
		b.mirrorHash = b.zobrist.MirrorToggle(b.mirrorHash, p, col, row)
	}
	return nil
}

// FastPlay toggles player p's bit at the top of col without touching
// heights, history, turn or fingerprints. It is only meant for probing
// "what if p played here" and must be paired with FastUndo. The caller
// guarantees the column is playable.
func (b *Board) FastPlay(col, p int) {
	b.bitmap[p] ^= b.cell(col, b.heights[col])
}

// FastUndo reverses FastPlay.
func (b *Board) FastUndo(col, p int) {
	b.FastPlay(col, p)
}

// HasWon returns true if player p has four in a row.
func (b *Board) HasWon(p int) bool {
	return hasFour(b.bitmap[p], b.stride)
}

func hasFour(bm uint64, stride int) bool {
	// vertical, horizontal, and the two diagonals.
	for _, s := range [4]int{1, stride, stride - 1, stride + 1} {
		x := bm & (bm >> uint(s))
		if x&(x>>uint(2*s)) != 0 {
			return true
		}
	}
	return false
}

// Winner returns the player who has four in a row, or -1.
func (b *Board) Winner() int {
	if b.HasWon(White) {
		return White
	}
	if b.HasWon(Black) {
		return Black
	}
	return -1
}

// GameOver is true when someone has won or the board is full.
func (b *Board) GameOver() bool {
	return b.Full() || b.Winner() != -1
}

// Replay plays the given columns in order. If any of them is illegal,
// including a move made after the game was already won, the board is
// restored to its state before the call.
func (b *Board) Replay(cols []int) error {
	played := 0
	for _, c := range cols {
		if b.HasWon(1 - b.PlayerOnTurn()) {
			b.Undo(played)
			return fmt.Errorf("%w: move %d", ErrGameOver, b.turn+played+1)
		}
		if err := b.Play(c); err != nil {
			b.Undo(played)
			return err
		}
		played++
	}
	return nil
}

// ReplayString plays a sequence of digit-encoded columns, e.g. "34350556".
func (b *Board) ReplayString(moves string) error {
	cols, err := ParseMoves(moves)
	if err != nil {
		return err
	}
	return b.Replay(cols)
}

// ParseMoves converts a digit string into column indices.
func ParseMoves(moves string) ([]int, error) {
	cols := make([]int, 0, len(moves))
	for i, r := range moves {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("%w: %q at position %d", ErrInvalidMove, r, i)
		}
		cols = append(cols, int(r-'0'))
	}
	return cols, nil
}

// Key returns the fingerprint used to address a transposition table, and
// the lock that identifies the position exactly. With symmetry on, a
// position and its mirror image map to the same fingerprint and lock.
func (b *Board) Key() (uint64, [2]uint64) {
	var h, mh uint64
	switch b.hashMode {
	case zobrist.ModeSimple:
		h = zobrist.Simple(b.heights, b.bitmap[White], b.height)
		if b.symmetry && b.turn < b.symmetryCutoff {
			mb := b.mirrored()
			mheights := make([]int, b.width)
			for c := range mheights {
				mheights[c] = b.heights[b.width-1-c]
			}
			mh = zobrist.Simple(mheights, mb[White], b.height)
			if mh > h {
				return mh, mb
			}
		}
		return h, b.bitmap
	default:
		h, mh = b.hash, b.mirrorHash
		if b.symmetry && b.turn < b.symmetryCutoff && mh > h {
			return mh, b.mirrored()
		}
		return h, b.bitmap
	}
}

// mirrored returns the bitmaps reflected left to right.
func (b *Board) mirrored() [2]uint64 {
	var m [2]uint64
	colMask := uint64(1)<<uint(b.stride) - 1
	for c := 0; c < b.width; c++ {
		shift := uint(c * b.stride)
		mshift := uint((b.width - 1 - c) * b.stride)
		for p := 0; p < 2; p++ {
			m[p] |= ((b.bitmap[p] >> shift) & colMask) << mshift
		}
	}
	return m
}

// Copy returns an independent board sharing only the zobrist table.
func (b *Board) Copy() *Board {
	nb := *b
	nb.heights = make([]int, b.width)
	copy(nb.heights, b.heights)
	nb.history = make([]int, len(b.history), b.maxTurns)
	copy(nb.history, b.history)
	return &nb
}
