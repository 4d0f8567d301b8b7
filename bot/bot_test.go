package bot

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/yonmoku/config"
	"github.com/domino14/yonmoku/solver"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func testBot() *Bot {
	opts := solver.DefaultOptions()
	opts.TTSizePower = 14
	return NewBot(config.DefaultConfig(), opts)
}

func ask(w *worker, req Request) *Response {
	data, _ := json.Marshal(req)
	return w.handle(data)
}

func TestHandleSolve(t *testing.T) {
	is := is.New(t)
	w := testBot().newWorker()
	resp := ask(w, Request{Width: 4, Height: 4, Mode: ModeSolve})
	is.Equal(resp.Error, "")
	is.Equal(resp.Score, "draw")
	is.Equal(resp.Column, -1)
	is.True(resp.Nodes > 0)

	// the same worker serves a different geometry next.
	resp = ask(w, Request{Moves: "34350556"})
	is.Equal(resp.Error, "")
	is.Equal(resp.Score, "win")
}

func TestHandleRecommend(t *testing.T) {
	is := is.New(t)
	w := testBot().newWorker()
	resp := ask(w, Request{Width: 7, Height: 6, Moves: "001122", Mode: ModeRecommend})
	is.Equal(resp.Error, "")
	is.Equal(resp.Column, 3)
	is.Equal(resp.Score, "win")
}

func TestHandleErrors(t *testing.T) {
	is := is.New(t)
	w := testBot().newWorker()

	resp := w.handle([]byte("not json"))
	is.True(resp.Error != "")
	is.Equal(resp.Column, -1)

	resp = ask(w, Request{Mode: "ponder"})
	is.Equal(resp.Error, "unknown mode ponder")

	resp = ask(w, Request{Width: 3, Height: 3})
	is.True(resp.Error != "")
	resp = ask(w, Request{Width: -5, Height: 4})
	is.True(strings.Contains(resp.Error, "at least 4x4"))
	is.Equal(resp.Column, -1)
	resp = ask(w, Request{Width: 100000, Height: 100000})
	is.True(strings.Contains(resp.Error, "64 bits"))

	resp = ask(w, Request{Width: 4, Height: 4, Moves: "0000000"})
	is.True(resp.Error != "")

	// the game is already over
	resp = ask(w, Request{Moves: "0101010", Mode: ModeRecommend})
	is.True(resp.Error != "")
}

func TestDecodeResponse(t *testing.T) {
	is := is.New(t)
	resp, err := decodeResponse([]byte(`{"score":"lose","column":2,"nodes":12}`))
	is.NoErr(err)
	is.Equal(*resp, Response{Score: "lose", Column: 2, Nodes: 12})

	_, err = decodeResponse([]byte(`{"column":-1,"error":"boom"}`))
	is.Equal(err.Error(), "bot returned: boom")

	_, err = decodeResponse([]byte(`{`))
	is.True(err != nil)
}

func TestClientNotConnected(t *testing.T) {
	is := is.New(t)
	c := NewClient(config.DefaultConfig())
	_, err := c.Request(context.Background(), Request{})
	is.True(err != nil)
}

func TestClientConnectRetries(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	// nothing listens on port 1.
	cfg.Set(config.ConfigNatsURL, "nats://127.0.0.1:1")
	c := NewClient(cfg)
	c.Attempts = 2
	c.Delay = time.Millisecond
	err := c.Connect(context.Background())
	is.True(err != nil)
	c.Close()
}

func TestNewBotWorkers(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigBotWorkers, 0)
	opts := solver.DefaultOptions()
	opts.TTSizePower = 0
	opts.TTFractionOfMemory = 0.2
	b := NewBot(cfg, opts)
	is.Equal(b.workers, 1)

	cfg.Set(config.ConfigBotWorkers, 4)
	b = NewBot(cfg, opts)
	is.Equal(b.workers, 4)
	is.Equal(b.options.TTFractionOfMemory, 0.05)
}
