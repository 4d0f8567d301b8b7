package automatic

// Data collection for automatic games.

import (
	"context"
	"errors"
	"expvar"
	"io"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/yonmoku/config"
	"github.com/domino14/yonmoku/solver"
)

var (
	CVCCounter *expvar.Int
	IsPlaying  *expvar.Int
)

func init() {
	CVCCounter = expvar.NewInt("cvcCounter")
	IsPlaying = expvar.NewInt("isPlaying")
}

// maxOpeningAttempts bounds the retries for a fresh opening. Small boards
// with long openings run out of distinct openings quickly.
const maxOpeningAttempts = 1000

var ErrOpeningsExhausted = errors.New("could not find an unplayed opening")

// Options configure a batch of automatic games.
type Options struct {
	NumGames     int
	Threads      int
	Width        int
	Height       int
	OpeningPlies int
	Solver       solver.Options
	// Boards, if set, receives the final board of every game. It must be
	// drained until StartCompVComp returns.
	Boards chan<- string
}

// openingSet remembers which openings have been played.
type openingSet struct {
	sync.Mutex
	seen map[uint64]struct{}
}

func (s *openingSet) claim(id uint64) bool {
	s.Lock()
	defer s.Unlock()
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	return true
}

type job struct{}

// StartCompVComp plays opts.NumGames games across opts.Threads workers and
// writes one CSV line per game to out. It blocks until all games are done
// or ctx is cancelled; games in progress when ctx is cancelled are still
// finished, but no new ones are started.
func StartCompVComp(ctx context.Context, cfg *config.Config, opts Options, out io.Writer) error {
	if IsPlaying.Value() > 0 {
		return errors.New("games are already being played, please wait till complete")
	}
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if opts.Solver.TTSizePower == 0 {
		// split the memory budget between workers.
		opts.Solver.TTFractionOfMemory /= float64(opts.Threads)
	}
	log.Info().Int("games", opts.NumGames).Int("threads", opts.Threads).
		Int("width", opts.Width).Int("height", opts.Height).
		Int("opening-plies", opts.OpeningPlies).Msg("starting-autoplay")

	CVCCounter.Set(0)
	jobs := make(chan job, 100)
	logChan := make(chan string, 100)
	seen := &openingSet{seen: map[uint64]struct{}{}}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i := 1; i <= opts.NumGames; i++ {
			if gctx.Err() != nil {
				return nil
			}
			select {
			case <-gctx.Done():
				log.Info().Msg("got stop signal, exiting soon...")
				return nil
			case jobs <- job{}:
			}
			if i%1000 == 0 {
				log.Info().Int("queued", i).Msg("queued-jobs")
			}
		}
		log.Debug().Msg("finished queueing all jobs")
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < opts.Threads; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			r, err := NewGameRunner(logChan, cfg, opts.Width, opts.Height,
				opts.OpeningPlies, opts.Solver)
			if err != nil {
				return err
			}
			r.gamechan = opts.Boards
			IsPlaying.Add(1)
			defer IsPlaying.Add(-1)
			for range jobs {
				if gctx.Err() != nil {
					return nil
				}
				opening, err := freshOpening(r, seen)
				if err != nil {
					return err
				}
				if _, err := r.PlayGame(opening); err != nil {
					return err
				}
				CVCCounter.Add(1)
			}
			return nil
		})
	}

	go func() {
		wg.Wait()
		close(logChan)
	}()

	g.Go(func() error {
		_, werr := io.WriteString(out, CSVHeader)
		// keep draining after a write error so workers never block.
		for msg := range logChan {
			if werr == nil {
				_, werr = io.WriteString(out, msg)
			}
		}
		log.Debug().Msg("exiting game logger")
		return werr
	})

	err := g.Wait()
	log.Info().Int64("games-played", CVCCounter.Value()).Msg("autoplay-finished")
	return err
}

func freshOpening(r *GameRunner, seen *openingSet) (string, error) {
	for i := 0; i < maxOpeningAttempts; i++ {
		opening, err := r.PlayRandomOpening()
		if errors.Is(err, errOpeningEnded) {
			continue
		}
		if err != nil {
			return "", err
		}
		if seen.claim(OpeningID(r.board.Width(), r.board.Height(), opening)) {
			return opening, nil
		}
	}
	return "", ErrOpeningsExhausted
}
