// Package automatic plays computer-vs-computer games from random openings,
// with both sides using perfect play from there on.
package automatic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/yonmoku/board"
	"github.com/domino14/yonmoku/cache"
	"github.com/domino14/yonmoku/config"
	"github.com/domino14/yonmoku/solver"
)

var errOpeningEnded = errors.New("game ended during the random opening")

// GameRecord is one finished game.
type GameRecord struct {
	GameID  string
	Width   int
	Height  int
	Opening string
	Moves   string
	// Winner is board.White, board.Black, or -1 for a draw.
	Winner int
	Turns  int
	// OpeningValue is the solved value of the position right after the
	// opening, from White's point of view.
	OpeningValue solver.Score
	Nodes        uint64
}

// CSVHeader matches GameRecord.CSV.
const CSVHeader = "gameID,width,height,opening,moves,winner,turns,openingValue,nodes\n"

func winnerString(w int) string {
	if w == -1 {
		return "draw"
	}
	return board.PlayerName(w)
}

func (g *GameRecord) CSV() string {
	return fmt.Sprintf("%s,%d,%d,%s,%s,%s,%d,%s,%d\n",
		g.GameID, g.Width, g.Height, g.Opening, g.Moves, winnerString(g.Winner),
		g.Turns, g.OpeningValue, g.Nodes)
}

// OpeningID fingerprints an opening for a given geometry.
func OpeningID(width, height int, opening string) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%dx%d:%s", width, height, opening))
}

// GameRunner is the master struct here for the automatic game logic.
type GameRunner struct {
	config       *config.Config
	board        *board.Board
	solver       *solver.Solver
	openingPlies int

	logchan  chan string
	gamechan chan<- string
}

// NewGameRunner creates a runner for the given geometry. Each runner owns
// its own board, solver and transposition table.
func NewGameRunner(logchan chan string, cfg *config.Config, width, height,
	openingPlies int, opts solver.Options) (*GameRunner, error) {

	z, err := cache.Zobrist(cfg, width, height)
	if err != nil {
		return nil, err
	}
	b, err := board.New(width, height, z)
	if err != nil {
		return nil, err
	}
	s := &solver.Solver{}
	if err := s.Init(b, opts); err != nil {
		return nil, err
	}
	return &GameRunner{
		config:       cfg,
		board:        b,
		solver:       s,
		openingPlies: openingPlies,
		logchan:      logchan,
	}, nil
}

// Board returns the runner's board.
func (r *GameRunner) Board() *board.Board {
	return r.board
}

// PlayRandomOpening resets the board and plays openingPlies random legal
// moves. It fails with errOpeningEnded if the random moves end the game.
func (r *GameRunner) PlayRandomOpening() (string, error) {
	if err := r.board.Undo(r.board.Turn()); err != nil {
		return "", err
	}
	for i := 0; i < r.openingPlies; i++ {
		moves := r.board.LegalMoves()
		if err := r.board.Play(moves[frand.Intn(len(moves))]); err != nil {
			return "", err
		}
		if r.board.GameOver() {
			return "", errOpeningEnded
		}
	}
	return r.board.HistoryString(), nil
}

// PlayBestTurn asks the solver for the best move and plays it.
func (r *GameRunner) PlayBestTurn() (solver.Score, error) {
	col, score, err := r.solver.RecommendMove()
	if err != nil {
		return solver.Unknown, err
	}
	log.Debug().Int("turn", r.board.Turn()).Int("column", col).
		Str("score", score.String()).Msg("autoplay-move")
	return score, r.board.Play(col)
}

// PlayGame plays out the current position to the end with perfect play
// and returns the record.
func (r *GameRunner) PlayGame(opening string) (*GameRecord, error) {
	rec := &GameRecord{
		GameID:  fmt.Sprintf("%016x", OpeningID(r.board.Width(), r.board.Height(), opening)),
		Width:   r.board.Width(),
		Height:  r.board.Height(),
		Opening: opening,
	}
	first := true
	for !r.board.GameOver() {
		onTurn := r.board.PlayerOnTurn()
		score, err := r.PlayBestTurn()
		if err != nil {
			return nil, err
		}
		if first {
			rec.OpeningValue = score
			if onTurn == board.Black {
				rec.OpeningValue = score.Negate()
			}
			first = false
		}
		rec.Nodes += r.solver.Metrics().Nodes
	}
	rec.Moves = strings.TrimPrefix(r.board.HistoryString(), opening)
	rec.Winner = r.board.Winner()
	rec.Turns = r.board.Turn()
	if r.logchan != nil {
		r.logchan <- rec.CSV()
	}
	if r.gamechan != nil {
		r.gamechan <- r.board.ToDisplayText()
	}
	return rec, nil
}
