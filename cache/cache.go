package cache

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/domino14/yonmoku/board"
	"github.com/domino14/yonmoku/config"
	"github.com/domino14/yonmoku/zobrist"
)

// The cache holds objects that are expensive to build or that must be
// shared between solvers, such as zobrist tables. Positions hashed with
// different tables cannot share a transposition table, so every solver
// working on the same geometry gets the same table from here.

type cache struct {
	sync.Mutex
	objects map[string]any
}

type loadFunc func(cfg *config.Config, key string) (any, error)

// GlobalObjectCache is our global object cache.
var GlobalObjectCache *cache

var createOnce sync.Once

func (c *cache) get(cfg *config.Config, key string, loadFunc loadFunc) (any, error) {
	c.Lock()
	defer c.Unlock()
	if obj, ok := c.objects[key]; ok {
		log.Debug().Str("key", key).Msg("getting obj from cache")
		return obj, nil
	}
	log.Debug().Str("key", key).Msg("loading into cache")
	obj, err := loadFunc(cfg, key)
	if err != nil {
		return nil, err
	}
	c.objects[key] = obj
	return obj, nil
}

func CreateGlobalObjectCache() {
	GlobalObjectCache = &cache{objects: make(map[string]any)}
}

// Load returns the object stored under name, calling loadFunc to create it
// the first time.
func Load(cfg *config.Config, name string, loadFunc loadFunc) (any, error) {
	createOnce.Do(func() {
		if GlobalObjectCache == nil {
			CreateGlobalObjectCache()
		}
	})
	return GlobalObjectCache.get(cfg, name, loadFunc)
}

// Zobrist returns the shared zobrist table for a board geometry. If the
// config has a zobrist-seed, the table is built deterministically from it.
func Zobrist(cfg *config.Config, width, height int) (*zobrist.Zobrist, error) {
	if err := board.ValidateSize(width, height); err != nil {
		return nil, err
	}
	seed := ""
	if cfg != nil {
		seed = cfg.GetString(config.ConfigZobristSeed)
	}
	key := fmt.Sprintf("zobrist:%dx%d:%s", width, height, seed)
	obj, err := Load(cfg, key, func(cfg *config.Config, key string) (any, error) {
		z := &zobrist.Zobrist{}
		if seed == "" {
			z.Initialize(width, height)
			return z, nil
		}
		s, err := strconv.ParseUint(seed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad %s %q: %w", config.ConfigZobristSeed, seed, err)
		}
		z.InitializeWithSeed(width, height, s)
		return z, nil
	})
	if err != nil {
		return nil, err
	}
	return obj.(*zobrist.Zobrist), nil
}
