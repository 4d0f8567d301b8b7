package solver

import "fmt"

// Score is a game-theoretic result from the point of view of the player to
// move. The five known values are totally ordered:
//
//	Lose < MaybeLose < Draw < MaybeWin < Win
//
// Each one stands for the set of exact outcomes it allows. MaybeWin means
// "at least a draw" ([Draw, Win]) and MaybeLose "at most a draw"
// ([Lose, Draw]). Unknown allows anything and sits outside the order.
type Score int8

const (
	Unknown   Score = -3
	Lose      Score = -2
	MaybeLose Score = -1
	Draw      Score = 0
	MaybeWin  Score = 1
	Win       Score = 2
)

func (s Score) String() string {
	switch s {
	case Lose:
		return "lose"
	case MaybeLose:
		return "maybe-lose"
	case Draw:
		return "draw"
	case MaybeWin:
		return "maybe-win"
	case Win:
		return "win"
	case Unknown:
		return "unknown"
	}
	return fmt.Sprintf("score(%d)", int8(s))
}

// Negate returns the same result seen from the other player.
func (s Score) Negate() Score {
	if s == Unknown {
		return Unknown
	}
	return -s
}

// Exact is true for Win, Draw and Lose.
func (s Score) Exact() bool {
	return s == Win || s == Draw || s == Lose
}

// LowerBound is the worst exact outcome s allows.
func (s Score) LowerBound() Score {
	switch s {
	case MaybeLose, Unknown:
		return Lose
	case MaybeWin:
		return Draw
	}
	return s
}

// UpperBound is the best exact outcome s allows.
func (s Score) UpperBound() Score {
	switch s {
	case MaybeLose:
		return Draw
	case MaybeWin, Unknown:
		return Win
	}
	return s
}

func fromBounds(lo, hi Score) Score {
	switch {
	case lo == hi:
		return lo
	case lo == Lose && hi == Draw:
		return MaybeLose
	case lo == Draw && hi == Win:
		return MaybeWin
	}
	return Unknown
}

// AtLeast widens s to "s or better". Used when a search stops early: the
// moves it did not look at can only improve the result.
func (s Score) AtLeast() Score {
	return fromBounds(s.LowerBound(), Win)
}

// Intersect combines two sound claims about the same position. It panics
// if the claims contradict each other, which can only happen if a bound
// was stored or propagated incorrectly.
func Intersect(a, b Score) Score {
	lo := max(a.LowerBound(), b.LowerBound())
	hi := min(a.UpperBound(), b.UpperBound())
	if lo > hi {
		panic(fmt.Sprintf("inconsistent scores %v and %v", a, b))
	}
	return fromBounds(lo, hi)
}

// ParseScore is the inverse of String.
func ParseScore(s string) (Score, error) {
	for _, sc := range []Score{Lose, MaybeLose, Draw, MaybeWin, Win, Unknown} {
		if sc.String() == s {
			return sc, nil
		}
	}
	return Unknown, fmt.Errorf("unknown score %q", s)
}
