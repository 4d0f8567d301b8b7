package cache

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/yonmoku/board"
	"github.com/domino14/yonmoku/config"
)

func TestZobristIsShared(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	z1, err := Zobrist(cfg, 7, 6)
	is.NoErr(err)
	z2, err := Zobrist(cfg, 7, 6)
	is.NoErr(err)
	is.True(z1 == z2)

	z3, err := Zobrist(cfg, 6, 7)
	is.NoErr(err)
	is.True(z3 != z1)
	is.True(z3.Initialized(6, 7))
}

func TestZobristBadSize(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	_, err := Zobrist(cfg, -5, 4)
	is.True(errors.Is(err, board.ErrDimensionTooSmall))
	_, err = Zobrist(cfg, 7, -1)
	is.True(errors.Is(err, board.ErrDimensionTooSmall))
	_, err = Zobrist(cfg, 100000, 100000)
	is.True(errors.Is(err, board.ErrSizeTooLarge))
}

func TestZobristSeed(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigZobristSeed, "99")
	z1, err := Zobrist(cfg, 5, 4)
	is.NoErr(err)
	is.True(z1.Initialized(5, 4))

	cfg.Set(config.ConfigZobristSeed, "ninety-nine")
	_, err = Zobrist(cfg, 5, 4)
	is.True(err != nil)
}
