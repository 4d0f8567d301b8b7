package board

import (
	"errors"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/yonmoku/zobrist"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func newBoard(t *testing.T, w, h int) *Board {
	t.Helper()
	z := &zobrist.Zobrist{}
	z.InitializeWithSeed(w, h, 42)
	b, err := New(w, h, z)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestNewErrors(t *testing.T) {
	is := is.New(t)
	_, err := New(3, 6, nil)
	is.True(errors.Is(err, ErrDimensionTooSmall))
	_, err = New(7, 3, nil)
	is.True(errors.Is(err, ErrDimensionTooSmall))
	// 8 * 8 = 64 fits, 9 * 8 does not.
	_, err = New(8, 7, nil)
	is.NoErr(err)
	_, err = New(9, 7, nil)
	is.True(errors.Is(err, ErrSizeTooLarge))
	_, err = New(4, 16, nil)
	is.True(errors.Is(err, ErrSizeTooLarge))
	_, err = New(-5, 4, nil)
	is.True(errors.Is(err, ErrDimensionTooSmall))
	_, err = New(1<<40, 1<<40, nil)
	is.True(errors.Is(err, ErrSizeTooLarge))

	z := &zobrist.Zobrist{}
	z.Initialize(7, 6)
	_, err = New(6, 7, z)
	is.True(err != nil)
}

func TestPlayUndoRoundTrip(t *testing.T) {
	is := is.New(t)
	b := newBoard(t, 7, 6)
	is.NoErr(b.ReplayString("34350556"))
	is.Equal(b.Turn(), 8)
	is.Equal(b.PlayerOnTurn(), White)
	is.Equal(b.Bitmap(White), uint64(137445244929))
	is.Equal(b.Bitmap(Black), uint64(4501394161664))
	is.Equal(b.ColumnHeight(5), 3)
	is.True(b.Bitmap(White)&b.Bitmap(Black) == 0)
	is.True(b.Hash() != 0)

	is.NoErr(b.Undo(8))
	is.Equal(b.Turn(), 0)
	is.Equal(b.Bitmap(White), uint64(0))
	is.Equal(b.Bitmap(Black), uint64(0))
	is.Equal(b.Hash(), uint64(0))
	is.Equal(b.MirrorHash(), uint64(0))
	for c := 0; c < 7; c++ {
		is.Equal(b.ColumnHeight(c), 0)
	}
	is.Equal(len(b.History()), 0)
}

func TestHashMatchesFromScratch(t *testing.T) {
	is := is.New(t)
	b := newBoard(t, 7, 6)
	is.NoErr(b.ReplayString("3435055612"))
	is.Equal(b.Hash(), b.Zobrist().Hash([2]uint64{b.Bitmap(White), b.Bitmap(Black)}))
	is.NoErr(b.Undo(3))
	is.Equal(b.Hash(), b.Zobrist().Hash([2]uint64{b.Bitmap(White), b.Bitmap(Black)}))
}

func TestPlayErrors(t *testing.T) {
	is := is.New(t)
	b := newBoard(t, 4, 4)
	is.True(errors.Is(b.Play(-1), ErrOutOfRange))
	is.True(errors.Is(b.Play(4), ErrOutOfRange))
	is.NoErr(b.ReplayString("0000"))
	is.True(!b.IsColumnPlayable(0))
	is.True(errors.Is(b.Play(0), ErrColumnFull))
	is.Equal(b.Turn(), 4)
	is.Equal(b.LegalMoves(), []int{1, 2, 3})
}

func TestUndoErrors(t *testing.T) {
	is := is.New(t)
	b := newBoard(t, 7, 6)
	is.NoErr(b.ReplayString("333"))
	is.True(errors.Is(b.Undo(4), ErrInvalidUndoCount))
	is.True(errors.Is(b.Undo(-1), ErrInvalidUndoCount))
	is.Equal(b.Turn(), 3)
	is.NoErr(b.Undo(0))
	is.NoErr(b.Undo(2))
	is.Equal(b.History(), []int{3})
}

func TestWinOrientations(t *testing.T) {
	cases := []struct {
		name  string
		moves string
	}{
		{"vertical", "0101010"},
		{"horizontal", "0011223"},
		{"diagonal", "01123223433"},
		{"antidiagonal", "43321221011"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			b := newBoard(t, 7, 6)
			is.NoErr(b.ReplayString(tc.moves))
			is.True(b.HasWon(White))
			is.True(!b.HasWon(Black))
			is.Equal(b.Winner(), White)
			is.True(b.GameOver())
			// Removing the last piece removes the win.
			is.NoErr(b.Undo(1))
			is.True(!b.HasWon(White))
			is.Equal(b.Winner(), -1)
		})
	}
}

func TestNoWrapAcrossColumns(t *testing.T) {
	is := is.New(t)
	// rows 3, 4, 5 of column 0 and row 0 of column 1 are adjacent in the
	// packed layout except for the sentinel between them.
	bm := uint64(1<<3 | 1<<4 | 1<<5 | 1<<7)
	is.True(!hasFour(bm, 7))
	is.True(hasFour(bm|1<<6, 7))
}

func TestFastPlay(t *testing.T) {
	is := is.New(t)
	b := newBoard(t, 7, 6)
	is.NoErr(b.ReplayString("001122"))
	h := b.Hash()
	b.FastPlay(3, White)
	is.True(b.HasWon(White))
	is.Equal(b.Turn(), 6)
	is.Equal(b.ColumnHeight(3), 0)
	is.Equal(b.Hash(), h)
	b.FastUndo(3, White)
	is.True(!b.HasWon(White))

	b.FastPlay(3, Black)
	is.True(!b.HasWon(Black))
	b.FastUndo(3, Black)
	is.Equal(b.Bitmap(Black), uint64(1<<1|1<<8|1<<15))
}

func TestReplayRollsBack(t *testing.T) {
	is := is.New(t)
	b := newBoard(t, 4, 4)
	is.NoErr(b.ReplayString("01"))
	h := b.Hash()

	err := b.ReplayString("2200000")
	is.True(errors.Is(err, ErrColumnFull))
	is.Equal(b.Turn(), 2)
	is.Equal(b.Hash(), h)
	is.Equal(b.HistoryString(), "01")

	err = b.ReplayString("2x")
	is.True(errors.Is(err, ErrInvalidMove))
	is.Equal(b.Turn(), 2)

	err = b.ReplayString("9")
	is.True(errors.Is(err, ErrOutOfRange))
	is.Equal(b.Turn(), 2)
}

func TestReplayAfterWin(t *testing.T) {
	is := is.New(t)
	b := newBoard(t, 7, 6)
	err := b.ReplayString("01010102")
	is.True(errors.Is(err, ErrGameOver))
	is.Equal(b.Turn(), 0)

	is.NoErr(b.ReplayString("0101010"))
	is.True(errors.Is(b.ReplayString("1"), ErrGameOver))
	is.Equal(b.Turn(), 7)
}

func TestSymmetricKey(t *testing.T) {
	is := is.New(t)
	b1 := newBoard(t, 7, 6)
	b2 := newBoard(t, 7, 6)
	b1.SetSymmetry(true, 20)
	b2.SetSymmetry(true, 20)
	is.NoErr(b1.ReplayString("0122"))
	is.NoErr(b2.ReplayString("6544"))
	is.Equal(b1.MirrorHash(), b2.Hash())

	k1, l1 := b1.Key()
	k2, l2 := b2.Key()
	is.Equal(k1, k2)
	is.Equal(l1, l2)

	// past the cutoff the two positions are distinct again.
	b1.SetSymmetry(true, 2)
	b2.SetSymmetry(true, 2)
	k1, _ = b1.Key()
	k2, _ = b2.Key()
	is.True(k1 != k2)
}

func TestSimpleKey(t *testing.T) {
	is := is.New(t)
	b1 := newBoard(t, 7, 6)
	b2 := newBoard(t, 7, 6)
	b1.SetHashMode(zobrist.ModeSimple)
	b2.SetHashMode(zobrist.ModeSimple)
	// same piece sets, reached by different move orders.
	is.NoErr(b1.ReplayString("0123"))
	is.NoErr(b2.ReplayString("2103"))
	k1, l1 := b1.Key()
	k2, l2 := b2.Key()
	is.Equal(k1, k2)
	is.Equal(l1, l2)

	b1.SetSymmetry(true, 20)
	b2.SetSymmetry(true, 20)
	is.NoErr(b2.Undo(4))
	is.NoErr(b2.ReplayString("6543"))
	k1, l1 = b1.Key()
	k2, l2 = b2.Key()
	is.Equal(k1, k2)
	is.Equal(l1, l2)
}

func TestCopy(t *testing.T) {
	is := is.New(t)
	b := newBoard(t, 7, 6)
	is.NoErr(b.ReplayString("3344"))
	c := b.Copy()
	is.NoErr(c.Play(5))
	is.Equal(b.Turn(), 4)
	is.Equal(c.Turn(), 5)
	is.Equal(b.ColumnHeight(5), 0)
	is.Equal(b.HistoryString(), "3344")
}

func TestDisplayText(t *testing.T) {
	is := is.New(t)
	b := newBoard(t, 4, 4)
	is.NoErr(b.ReplayString("010"))
	expected := "....   turn: 3, player: B\n" +
		"....   history: 010\n" +
		"W...\n" +
		"WB..\n" +
		"0123"
	is.Equal(b.ToDisplayText(), expected)
	is.Equal(b.String(), "....\n....\nW...\nWB..")
}
