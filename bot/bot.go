// Package bot serves solver requests over NATS.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/yonmoku/board"
	"github.com/domino14/yonmoku/cache"
	"github.com/domino14/yonmoku/config"
	"github.com/domino14/yonmoku/solver"
)

const (
	ModeSolve     = "solve"
	ModeRecommend = "recommend"
)

// Request asks for the value of a position, or for the best move in it.
type Request struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Moves  string `json:"moves"`
	Mode   string `json:"mode"`
}

// Response answers a Request. Column is -1 for solve requests. Score is
// from the point of view of the player to move.
type Response struct {
	Score  string `json:"score,omitempty"`
	Column int    `json:"column"`
	Nodes  uint64 `json:"nodes"`
	Error  string `json:"error,omitempty"`
}

func errorResponse(message string, err error) *Response {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return &Response{Column: -1, Error: msg}
}

type Bot struct {
	config  *config.Config
	options solver.Options
	workers int
}

func NewBot(cfg *config.Config, opts solver.Options) *Bot {
	workers := max(cfg.GetInt(config.ConfigBotWorkers), 1)
	if opts.TTSizePower == 0 {
		opts.TTFractionOfMemory /= float64(workers)
	}
	return &Bot{config: cfg, options: opts, workers: workers}
}

// worker owns a solver, so that its transposition table is allocated once.
type worker struct {
	bot    *Bot
	solver *solver.Solver
}

func (bot *Bot) newWorker() *worker {
	return &worker{bot: bot, solver: &solver.Solver{}}
}

func (w *worker) handle(data []byte) *Response {
	req := Request{}
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse("could not parse request", err)
	}
	if req.Width == 0 {
		req.Width = w.bot.config.GetInt(config.ConfigDefaultWidth)
	}
	if req.Height == 0 {
		req.Height = w.bot.config.GetInt(config.ConfigDefaultHeight)
	}
	if req.Mode == "" {
		req.Mode = ModeSolve
	}
	if req.Mode != ModeSolve && req.Mode != ModeRecommend {
		return errorResponse("unknown mode "+req.Mode, nil)
	}
	z, err := cache.Zobrist(w.bot.config, req.Width, req.Height)
	if err != nil {
		return errorResponse("could not create board", err)
	}
	b, err := board.New(req.Width, req.Height, z)
	if err != nil {
		return errorResponse("could not create board", err)
	}
	if err := b.ReplayString(req.Moves); err != nil {
		return errorResponse("could not play moves", err)
	}
	if err := w.solver.Init(b, w.bot.options); err != nil {
		return errorResponse("could not initialize solver", err)
	}

	resp := &Response{Column: -1}
	var score solver.Score
	if req.Mode == ModeRecommend {
		resp.Column, score, err = w.solver.RecommendMove()
	} else {
		score, err = w.solver.Solve()
	}
	if err != nil {
		return errorResponse(req.Mode+" failed", err)
	}
	resp.Score = score.String()
	resp.Nodes = w.solver.Metrics().Nodes
	return resp
}

func (w *worker) respond(m *nats.Msg) {
	log.Info().Int("bytes", len(m.Data)).Msg("bot-request")
	data, err := json.Marshal(w.handle(m.Data))
	if err != nil {
		// Should never happen, ideally, but we need to do something sensible here.
		data = []byte(`{"column":-1,"error":"could not encode response"}`)
	}
	if err := m.Respond(data); err != nil {
		log.Err(err).Msg("bot-respond-failed")
	}
}

// Serve listens on the configured subject, as part of the configured queue
// group, until ctx is done. Requests are handled by a fixed number of
// workers.
func (bot *Bot) Serve(ctx context.Context) error {
	url := bot.config.GetString(config.ConfigNatsURL)
	subject := bot.config.GetString(config.ConfigBotSubject)
	queue := bot.config.GetString(config.ConfigBotQueue)

	nc, err := nats.Connect(url, nats.Name("yonmoku-bot"))
	if err != nil {
		return err
	}
	defer nc.Close()

	msgs := make(chan *nats.Msg, 64)
	sub, err := nc.ChanQueueSubscribe(subject, queue, msgs)
	if err != nil {
		return err
	}
	if err := nc.Flush(); err != nil {
		return err
	}
	log.Info().Str("subject", subject).Str("queue", queue).
		Int("workers", bot.workers).Msg("bot-listening")

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < bot.workers; i++ {
		w := bot.newWorker()
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case m := <-msgs:
					w.respond(m)
				}
			}
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return sub.Unsubscribe()
	})
	err = g.Wait()
	log.Info().Msg("bot-stopped")
	if errors.Is(err, nats.ErrConnectionClosed) {
		return nil
	}
	return err
}
