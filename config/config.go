package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug               = "debug"
	ConfigCPUProfile          = "cpu-profile"
	ConfigMemProfile          = "mem-profile"
	ConfigConfigFile          = "config-file"
	ConfigHistoryFile         = "history-file"
	ConfigDefaultWidth        = "default-width"
	ConfigDefaultHeight       = "default-height"
	ConfigTTSizePower         = "tt-size-power"
	ConfigTTFractionOfMemory  = "tt-fraction-of-memory"
	ConfigTTPolicy            = "tt-policy"
	ConfigHashCutoff          = "hash-cutoff"
	ConfigHasher              = "hasher"
	ConfigSymmetry            = "symmetry"
	ConfigSymmetryCutoff      = "symmetry-cutoff"
	ConfigAdaptiveOrdering    = "adaptive-ordering"
	ConfigReorderCutoff       = "reorder-cutoff"
	ConfigPenalizeSiblings    = "penalize-siblings"
	ConfigZobristSeed         = "zobrist-seed"
	ConfigNatsURL             = "nats-url"
	ConfigBotSubject          = "bot-subject"
	ConfigBotQueue            = "bot-queue"
	ConfigBotWorkers          = "bot-workers"
	ConfigAutoplayThreads     = "autoplay-threads"
	ConfigAutoplayOpeningPlys = "autoplay-opening-plies"
)

const envPrefix = "YONMOKU"

// Config wraps a viper instance. Values come, in increasing priority, from
// defaults, an optional YAML file, YONMOKU_* environment variables and
// command line flags.
type Config struct {
	*viper.Viper
}

func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.setDefaults()
	return c
}

// setting is a configuration key with its default and a short description.
type setting struct {
	key   string
	def   any
	usage string
}

var settings = []setting{
	{ConfigDebug, false, "debug logging and the expvar/pprof endpoint"},
	{ConfigCPUProfile, "", "write a cpu profile to this file"},
	{ConfigMemProfile, "", "write a memory profile to this file"},
	{ConfigConfigFile, "", "a YAML file to read settings from"},
	{ConfigHistoryFile, filepath.Join(os.TempDir(), "yonmoku_history"), "shell history file"},
	{ConfigDefaultWidth, 7, "board width for new games"},
	{ConfigDefaultHeight, 6, "board height for new games"},
	// 0 means size the table from tt-fraction-of-memory instead.
	{ConfigTTSizePower, 0, "transposition table size as a power of two"},
	{ConfigTTFractionOfMemory, 0.1, "fraction of system memory for the transposition table"},
	{ConfigTTPolicy, "replace", "collision policy: replace or chain"},
	{ConfigHashCutoff, -1, "only store positions at or below this turn; -1 for all, 0 for none"},
	{ConfigHasher, "zobrist", "position hasher: zobrist or simple"},
	{ConfigSymmetry, false, "share table entries between mirrored positions"},
	{ConfigSymmetryCutoff, 20, "use the symmetric key only before this turn"},
	{ConfigAdaptiveOrdering, false, "reorder moves from cutoff history"},
	{ConfigReorderCutoff, 20, "reorder moves only before this turn"},
	{ConfigPenalizeSiblings, false, "penalize siblings tried before a cutoff move"},
	{ConfigZobristSeed, "", "seed for reproducible zobrist tables"},
	{ConfigNatsURL, "nats://localhost:4222", "NATS server for the bot"},
	{ConfigBotSubject, "yonmoku.solve", "subject the bot listens on"},
	{ConfigBotQueue, "yonmoku-workers", "queue group for bot workers"},
	{ConfigBotWorkers, 2, "concurrent solves per bot"},
	{ConfigAutoplayThreads, 4, "autoplay worker threads"},
	{ConfigAutoplayOpeningPlys, 8, "random plies before autoplay games are solved"},
}

func (c *Config) setDefaults() {
	for _, s := range settings {
		c.SetDefault(s.key, s.def)
	}
}

func flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("yonmoku", pflag.ContinueOnError)
	// stop at the command; shell options such as -games belong to it.
	fs.SetInterspersed(false)
	fs.ParseErrorsWhitelist = pflag.ParseErrorsWhitelist{UnknownFlags: false}
	for _, s := range settings {
		switch v := s.def.(type) {
		case bool:
			fs.Bool(s.key, v, s.usage)
		case int:
			fs.Int(s.key, v, s.usage)
		case float64:
			fs.Float64(s.key, v, s.usage)
		case string:
			fs.String(s.key, v, s.usage)
		default:
			panic(fmt.Sprintf("setting %s has unsupported type %T", s.key, v))
		}
	}
	return fs
}

// Load loads the configuration. args look like os.Args[1:]: --key value or
// --key=value flags, then an optional command. The command and its
// arguments are returned.
func (c *Config) Load(args []string) ([]string, error) {
	if c.Viper == nil {
		c.Viper = viper.New()
	}
	c.setDefaults()
	c.SetEnvPrefix(envPrefix)
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	fs := flagSet()
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.BindPFlags(fs); err != nil {
		return nil, err
	}

	cfgFile := c.GetString(ConfigConfigFile)
	if cfgFile != "" {
		c.SetConfigFile(cfgFile)
		c.SetConfigType("yaml")
		if err := c.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
			}
			log.Warn().Str("file", cfgFile).Msg("config-file-not-found")
		}
	}
	return fs.Args(), nil
}

// SanitizedSettings returns all settings for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}

// Write saves the current settings to the config file, if one is set.
func (c *Config) Write() error {
	f := c.GetString(ConfigConfigFile)
	if f == "" {
		return errors.New("no config file set")
	}
	return c.WriteConfigAs(f)
}
