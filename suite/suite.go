// Package suite runs the solver over a file of positions with known
// results.
package suite

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/domino14/yonmoku/board"
	"github.com/domino14/yonmoku/cache"
	"github.com/domino14/yonmoku/config"
	"github.com/domino14/yonmoku/solver"
)

// Position is one entry of a suite file.
type Position struct {
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Moves  string `yaml:"moves"`
	// Expect is the result for the player to move: win, draw or lose.
	Expect string `yaml:"expect"`
	// Recommend, if set, is the column RecommendMove must return.
	Recommend *int `yaml:"recommend,omitempty"`
}

type suiteFile struct {
	Positions []Position `yaml:"positions"`
}

// Result is the outcome of one position.
type Result struct {
	Position Position
	Score    solver.Score
	Column   int
	Nodes    uint64
	Elapsed  time.Duration
	Pass     bool
	Err      error
}

// Load reads a suite. Missing dimensions default to 7x6.
func Load(r io.Reader) ([]Position, error) {
	var f suiteFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	for i := range f.Positions {
		p := &f.Positions[i]
		if p.Width == 0 {
			p.Width = 7
		}
		if p.Height == 0 {
			p.Height = 6
		}
		if p.Name == "" {
			p.Name = fmt.Sprintf("%dx%d:%s", p.Width, p.Height, p.Moves)
		}
		sc, err := solver.ParseScore(p.Expect)
		if err != nil || !sc.Exact() {
			return nil, fmt.Errorf("position %q: bad expected result %q", p.Name, p.Expect)
		}
	}
	return f.Positions, nil
}

func LoadFile(path string) ([]Position, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Run solves every position, up to threads at a time. Each position gets
// its own board and solver. Results are in the order of positions; a
// position that could not be set up has Err set and does not pass. Run
// only returns an error if ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, positions []Position,
	opts solver.Options, threads int) ([]Result, error) {

	if threads < 1 {
		threads = 1
	}
	if opts.TTSizePower == 0 {
		opts.TTFractionOfMemory /= float64(threads)
	}
	results := make([]Result, len(positions))
	// one table per worker slot, reused between positions.
	tables := sync.Pool{New: func() any { return opts.NewTable() }}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i, p := range positions {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tt := tables.Get().(*solver.TranspositionTable)
			defer tables.Put(tt)
			results[i] = runOne(cfg, p, opts, tt)
			log.Info().Str("name", p.Name).Str("score", results[i].Score.String()).
				Bool("pass", results[i].Pass).Msg("suite-position")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func runOne(cfg *config.Config, p Position, opts solver.Options,
	tt *solver.TranspositionTable) Result {

	res := Result{Position: p, Column: -1}
	z, err := cache.Zobrist(cfg, p.Width, p.Height)
	if err != nil {
		res.Err = err
		return res
	}
	b, err := board.New(p.Width, p.Height, z)
	if err != nil {
		res.Err = err
		return res
	}
	if err := b.ReplayString(p.Moves); err != nil {
		res.Err = err
		return res
	}
	s := &solver.Solver{}
	s.SetTranspositionTable(tt)
	if err := s.Init(b, opts); err != nil {
		res.Err = err
		return res
	}
	expect, _ := solver.ParseScore(p.Expect)

	if p.Recommend != nil {
		res.Column, res.Score, err = s.RecommendMove()
	} else {
		res.Score, err = s.Solve()
	}
	res.Nodes = s.Metrics().Nodes
	res.Elapsed = s.Metrics().Elapsed
	if err != nil {
		res.Err = err
		return res
	}
	res.Pass = res.Score == expect && (p.Recommend == nil || res.Column == *p.Recommend)
	return res
}

// Failed returns the number of results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Pass {
			n++
		}
	}
	return n
}

// Summary formats results as a table.
func Summary(results []Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-24s %-6s %-6s %-6s %12s %10s  %s\n",
		"name", "size", "expect", "got", "nodes", "seconds", "")
	for _, r := range results {
		status := "ok"
		switch {
		case r.Err != nil:
			status = "ERROR: " + r.Err.Error()
		case !r.Pass && r.Position.Recommend != nil && r.Column != *r.Position.Recommend:
			status = fmt.Sprintf("FAIL (column %d, want %d)", r.Column, *r.Position.Recommend)
		case !r.Pass:
			status = "FAIL"
		}
		fmt.Fprintf(&sb, "%-24s %-6s %-6s %-6s %12d %10.3f  %s\n",
			r.Position.Name, fmt.Sprintf("%dx%d", r.Position.Width, r.Position.Height),
			r.Position.Expect, r.Score, r.Nodes, r.Elapsed.Seconds(), status)
	}
	fmt.Fprintf(&sb, "%d of %d passed\n", len(results)-Failed(results), len(results))
	return sb.String()
}
