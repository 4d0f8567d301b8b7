package solver

import (
	"fmt"

	"github.com/domino14/yonmoku/config"
	"github.com/domino14/yonmoku/zobrist"
)

// Options are the solver's tuning knobs.
type Options struct {
	// TTSizePower sizes the table at 2^TTSizePower slots. If zero,
	// TTFractionOfMemory is used instead.
	TTSizePower        int
	TTFractionOfMemory float64
	TTPolicy           CollisionPolicy
	// HashCutoff: don't hash positions with more pieces than this. -1
	// disables the cutoff, 0 disables the table.
	HashCutoff int

	Hasher         zobrist.Mode
	Symmetry       bool
	SymmetryCutoff int

	AdaptiveOrdering bool
	ReorderCutoff    int
	PenalizeSiblings bool
}

func DefaultOptions() Options {
	return Options{
		TTSizePower:    20,
		TTPolicy:       ReplacePolicy,
		HashCutoff:     -1,
		Hasher:         zobrist.ModeZobrist,
		SymmetryCutoff: 20,
		ReorderCutoff:  20,
	}
}

// OptionsFromConfig reads solver options from cfg.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	opts := DefaultOptions()
	opts.TTSizePower = cfg.GetInt(config.ConfigTTSizePower)
	opts.TTFractionOfMemory = cfg.GetFloat64(config.ConfigTTFractionOfMemory)
	policy, ok := ParseCollisionPolicy(cfg.GetString(config.ConfigTTPolicy))
	if !ok {
		return opts, fmt.Errorf("unknown %s %q", config.ConfigTTPolicy,
			cfg.GetString(config.ConfigTTPolicy))
	}
	opts.TTPolicy = policy
	opts.HashCutoff = cfg.GetInt(config.ConfigHashCutoff)
	hasher, ok := zobrist.ParseMode(cfg.GetString(config.ConfigHasher))
	if !ok {
		return opts, fmt.Errorf("unknown %s %q", config.ConfigHasher,
			cfg.GetString(config.ConfigHasher))
	}
	opts.Hasher = hasher
	opts.Symmetry = cfg.GetBool(config.ConfigSymmetry)
	opts.SymmetryCutoff = cfg.GetInt(config.ConfigSymmetryCutoff)
	opts.AdaptiveOrdering = cfg.GetBool(config.ConfigAdaptiveOrdering)
	opts.ReorderCutoff = cfg.GetInt(config.ConfigReorderCutoff)
	opts.PenalizeSiblings = cfg.GetBool(config.ConfigPenalizeSiblings)
	return opts, nil
}

// NewTable allocates the transposition table described by the options.
func (o Options) NewTable() *TranspositionTable {
	var tt *TranspositionTable
	if o.TTSizePower > 0 {
		tt = NewTranspositionTable(o.TTSizePower, o.TTPolicy)
	} else {
		tt = NewTranspositionTableFromMemory(o.TTFractionOfMemory, o.TTPolicy)
	}
	tt.SetHashCutoff(o.HashCutoff)
	return tt
}
