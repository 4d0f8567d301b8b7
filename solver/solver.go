package solver

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/yonmoku/board"
)

/*
alphaBeta is a negamax search over five-valued scores. Every score it
returns is a sound claim about the position (see Score), even when the
window made it stop early:

	if board full: return draw
	probe table: exact -> return it; maybe-lose -> β = draw; maybe-win -> α = draw
	if a move wins now: return win
	if the opponent threatens to win in two columns: return lose
	if the opponent threatens in one column: block it, that is the only move
	best := lose
	foreach move:
		best = max(best, -alphaBeta(child, -β, -α))
		α = max(α, lower bound of best)
		if α ≥ β: if moves remain, best = "at least" best; stop
	best = best ∩ table score
	store best
*/

var (
	ErrNoBoard            = errors.New("solver has no board")
	ErrNoLegalMove        = errors.New("no legal move")
	ErrInvariantViolation = errors.New("invariant violation")
)

// Solver determines the result of a position with perfect play.
type Solver struct {
	board   *board.Board
	ttable  *TranspositionTable
	orderer *MoveOrderer
	opts    Options

	transpositionTableOptim bool
	threatOptim             bool

	nodes   atomic.Uint64
	elapsed time.Duration
}

// Metrics describes the last search.
type Metrics struct {
	Nodes   uint64        `json:"nodes"`
	Table   TableStats    `json:"table"`
	Elapsed time.Duration `json:"elapsed"`
}

// Init initializes the solver for b. A transposition table is allocated
// unless one was set with SetTranspositionTable first.
func (s *Solver) Init(b *board.Board, opts Options) error {
	if b == nil {
		return ErrNoBoard
	}
	s.opts = opts
	s.threatOptim = true
	s.transpositionTableOptim = opts.HashCutoff != 0
	if s.ttable == nil && s.transpositionTableOptim {
		s.ttable = opts.NewTable()
	}
	if s.ttable != nil {
		s.ttable.SetHashCutoff(opts.HashCutoff)
	}
	s.SetBoard(b)
	return nil
}

// SetBoard points the solver at a different board. The move orderer is
// rebuilt if the geometry changed.
func (s *Solver) SetBoard(b *board.Board) {
	b.SetHashMode(s.opts.Hasher)
	b.SetSymmetry(s.opts.Symmetry, s.opts.SymmetryCutoff)
	if s.orderer == nil || s.board == nil ||
		s.board.Width() != b.Width() || s.board.Height() != b.Height() {
		s.orderer = NewMoveOrderer(b.Width(), b.Height())
	}
	s.orderer.SetAdaptive(s.opts.AdaptiveOrdering, s.opts.ReorderCutoff,
		s.opts.PenalizeSiblings)
	s.board = b
}

func (s *Solver) Board() *board.Board { return s.board }

func (s *Solver) Options() Options { return s.opts }

func (s *Solver) SetTranspositionTableOptim(tt bool) {
	s.transpositionTableOptim = tt && s.ttable != nil
}

func (s *Solver) SetTranspositionTable(tt *TranspositionTable) {
	s.ttable = tt
}

func (s *Solver) TranspositionTable() *TranspositionTable {
	return s.ttable
}

// SetThreatOptim turns the immediate win / forced block scan off or on.
// With it off every node is expanded in plain move order, which is only
// useful for testing.
func (s *Solver) SetThreatOptim(t bool) {
	s.threatOptim = t
}

func (s *Solver) play(col int) {
	if err := s.board.Play(col); err != nil {
		panic(fmt.Sprintf("illegal move %d in search: %v", col, err))
	}
}

func (s *Solver) undo() {
	if err := s.board.Undo(1); err != nil {
		panic(fmt.Sprintf("illegal undo in search: %v", err))
	}
}

func (s *Solver) store(score Score) Score {
	if s.transpositionTableOptim {
		return s.ttable.Store(s.board, score)
	}
	return score
}

// winningMove returns a column where p wins immediately, or -1.
func (s *Solver) winningMove(moves []int, p int) int {
	b := s.board
	for _, c := range moves {
		b.FastPlay(c, p)
		won := b.HasWon(p)
		b.FastUndo(c, p)
		if won {
			return c
		}
	}
	return -1
}

// threats returns the number of columns where p would win immediately, up
// to two, and the first of them.
func (s *Solver) threats(moves []int, p int) (int, int) {
	b := s.board
	n, first := 0, -1
	for _, c := range moves {
		b.FastPlay(c, p)
		won := b.HasWon(p)
		b.FastUndo(c, p)
		if won {
			if n == 0 {
				first = c
			}
			n++
			if n > 1 {
				break
			}
		}
	}
	return n, first
}

func (s *Solver) alphaBeta(α, β Score) Score {
	b := s.board
	s.nodes.Add(1)
	if b.Full() {
		return Draw
	}

	ttScore := Unknown
	if s.transpositionTableOptim {
		ttScore = s.ttable.Lookup(b)
		switch ttScore {
		case Win, Draw, Lose:
			return ttScore
		case MaybeLose:
			β = min(β, Draw)
		case MaybeWin:
			α = max(α, Draw)
		}
		if α >= β {
			return ttScore
		}
	}

	moves := s.orderer.Order(b)
	onTurn := b.PlayerOnTurn()

	if s.threatOptim {
		if s.winningMove(moves, onTurn) != -1 {
			return s.store(Win)
		}
		n, forced := s.threats(moves, 1-onTurn)
		if n > 1 {
			return s.store(Lose)
		}
		if n == 1 {
			s.play(forced)
			result := s.alphaBeta(β.Negate(), α.Negate()).Negate()
			s.undo()
			return s.store(Intersect(ttScore, result))
		}
	}

	best := Lose
	for i, c := range moves {
		s.play(c)
		var value Score
		if b.HasWon(onTurn) {
			// only reachable with the threat scan off.
			value = Win
		} else {
			value = s.alphaBeta(β.Negate(), α.Negate()).Negate()
		}
		s.undo()
		best = max(best, value)
		α = max(α, best.LowerBound())
		if α >= β {
			if i < len(moves)-1 {
				best = best.AtLeast()
			}
			s.orderer.RecordCutoff(b.Turn(), c, moves[:i+1])
			break
		}
	}
	return s.store(Intersect(ttScore, best))
}

func (s *Solver) resetForSearch() {
	s.nodes.Store(0)
	s.orderer.Reset()
	if s.ttable != nil {
		s.ttable.Reset()
	}
}

// Solve returns the result of the position for the player to move, with
// perfect play from both sides.
func (s *Solver) Solve() (Score, error) {
	if s.board == nil {
		return Unknown, ErrNoBoard
	}
	b := s.board
	switch b.Winner() {
	case b.PlayerOnTurn():
		return Win, nil
	case 1 - b.PlayerOnTurn():
		return Lose, nil
	}
	log.Debug().
		Int("width", b.Width()).
		Int("height", b.Height()).
		Str("moves", b.HistoryString()).
		Msg("alphabeta-solve-config")
	s.resetForSearch()
	tstart := time.Now()

	score := s.alphaBeta(Lose, Win)

	s.elapsed = time.Since(tstart)
	s.logSummary(score, -1)
	if !score.Exact() {
		return score, fmt.Errorf("%w: root score %v", ErrInvariantViolation, score)
	}
	return score, nil
}

// RecommendMove returns the best column for the player to move and its
// exact score. An immediate win is returned as soon as it is found. When
// every column loses, the first one in search order is returned.
func (s *Solver) RecommendMove() (int, Score, error) {
	if s.board == nil {
		return -1, Unknown, ErrNoBoard
	}
	b := s.board
	if b.Winner() != -1 {
		return -1, Unknown, board.ErrGameOver
	}
	if b.Full() {
		return -1, Unknown, ErrNoLegalMove
	}
	s.resetForSearch()
	tstart := time.Now()

	onTurn := b.PlayerOnTurn()
	moves := append([]int(nil), s.orderer.Order(b)...)
	α, β := Lose, Win
	bestCol, best := -1, Unknown

	for _, c := range moves {
		s.play(c)
		var value Score
		if b.HasWon(onTurn) {
			value = Win
		} else {
			value = s.alphaBeta(β.Negate(), α.Negate()).Negate()
		}
		if bestCol != -1 && value > best && !value.Exact() {
			// it beats the best so far but only as a bound; search it
			// again with the full window so the reported score is exact.
			value = s.alphaBeta(Lose, Win).Negate()
		}
		s.undo()
		log.Debug().Int("column", c).Str("score", value.String()).Msg("root-move")
		if bestCol == -1 || value > best {
			bestCol, best = c, value
		}
		α = max(α, value.LowerBound())
		if α >= β {
			break
		}
	}
	s.elapsed = time.Since(tstart)
	s.logSummary(best, bestCol)
	return bestCol, best, nil
}

func (s *Solver) logSummary(score Score, col int) {
	ev := log.Info().
		Str("score", score.String()).
		Uint64("nodes", s.nodes.Load()).
		Float64("time-elapsed-sec", s.elapsed.Seconds())
	if col >= 0 {
		ev = ev.Int("column", col)
	}
	if s.ttable != nil {
		st := s.ttable.Stats()
		ev = ev.Uint64("ttable-used", st.Used).
			Uint64("ttable-lookups", st.Lookups).
			Uint64("ttable-hits", st.Hits).
			Uint64("ttable-misses", st.Misses).
			Uint64("ttable-collisions", st.Collisions)
	}
	ev.Msg("solve-returning")
}

// Metrics returns counters from the last search.
func (s *Solver) Metrics() Metrics {
	m := Metrics{Nodes: s.nodes.Load(), Elapsed: s.elapsed}
	if s.ttable != nil {
		m.Table = s.ttable.Stats()
	}
	return m
}
