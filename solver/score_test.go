package solver

import (
	"testing"

	"github.com/matryer/is"
)

var allScores = []Score{Lose, MaybeLose, Draw, MaybeWin, Win}

func TestNegate(t *testing.T) {
	is := is.New(t)
	is.Equal(Win.Negate(), Lose)
	is.Equal(MaybeWin.Negate(), MaybeLose)
	is.Equal(Draw.Negate(), Draw)
	is.Equal(Unknown.Negate(), Unknown)
	for _, s := range append(allScores, Unknown) {
		is.Equal(s.Negate().Negate(), s)
	}
	// negation reverses the order
	for _, a := range allScores {
		for _, b := range allScores {
			is.Equal(a < b, b.Negate() < a.Negate())
		}
	}
}

func TestBounds(t *testing.T) {
	is := is.New(t)
	is.Equal(MaybeWin.LowerBound(), Draw)
	is.Equal(MaybeWin.UpperBound(), Win)
	is.Equal(MaybeLose.LowerBound(), Lose)
	is.Equal(MaybeLose.UpperBound(), Draw)
	is.Equal(Unknown.LowerBound(), Lose)
	is.Equal(Unknown.UpperBound(), Win)
	for _, s := range allScores {
		is.Equal(s.Negate().LowerBound(), s.UpperBound().Negate())
		is.Equal(s.Exact(), s.LowerBound() == s.UpperBound())
	}
}

func TestAtLeast(t *testing.T) {
	is := is.New(t)
	is.Equal(Draw.AtLeast(), MaybeWin)
	is.Equal(MaybeWin.AtLeast(), MaybeWin)
	is.Equal(Win.AtLeast(), Win)
	is.Equal(Lose.AtLeast(), Unknown)
}

func TestMaxIsIntervalMax(t *testing.T) {
	is := is.New(t)
	// the max of two claims is the claim about the better of two moves.
	for _, a := range allScores {
		for _, b := range allScores {
			m := max(a, b)
			is.Equal(m.LowerBound(), max(a.LowerBound(), b.LowerBound()))
			is.Equal(m.UpperBound(), max(a.UpperBound(), b.UpperBound()))
		}
	}
}

func TestIntersect(t *testing.T) {
	is := is.New(t)
	is.Equal(Intersect(MaybeWin, MaybeLose), Draw)
	is.Equal(Intersect(Unknown, MaybeWin), MaybeWin)
	is.Equal(Intersect(Win, MaybeWin), Win)
	is.Equal(Intersect(Unknown, Unknown), Unknown)
	for _, s := range allScores {
		is.Equal(Intersect(Unknown, s), s)
		is.Equal(Intersect(s, s), s)
	}
}

func TestIntersectPanicsOnContradiction(t *testing.T) {
	is := is.New(t)
	defer func() {
		is.True(recover() != nil)
	}()
	Intersect(Win, MaybeLose)
}

func TestParseScore(t *testing.T) {
	is := is.New(t)
	for _, s := range append(allScores, Unknown) {
		p, err := ParseScore(s.String())
		is.NoErr(err)
		is.Equal(p, s)
	}
	_, err := ParseScore("tie")
	is.True(err != nil)
}
