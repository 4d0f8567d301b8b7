package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	c := DefaultConfig()
	is.Equal(c.GetInt(ConfigDefaultWidth), 7)
	is.Equal(c.GetInt(ConfigDefaultHeight), 6)
	is.Equal(c.GetInt(ConfigHashCutoff), -1)
	is.Equal(c.GetString(ConfigTTPolicy), "replace")
	is.True(!c.GetBool(ConfigSymmetry))
}

func TestLoadArgs(t *testing.T) {
	is := is.New(t)
	c := &Config{}
	rest, err := c.Load([]string{"--symmetry", "--tt-size-power=18", "--hasher", "simple",
		"autoplay", "-games", "10", "--symmetry-cutoff=4"})
	is.NoErr(err)
	// parsing stops at the command; the rest belongs to it.
	is.Equal(rest, []string{"autoplay", "-games", "10", "--symmetry-cutoff=4"})
	is.True(c.GetBool(ConfigSymmetry))
	is.Equal(c.GetInt(ConfigTTSizePower), 18)
	is.Equal(c.GetString(ConfigHasher), "simple")
	is.Equal(c.GetInt(ConfigSymmetryCutoff), 20)
}

func TestLoadSpaceSeparated(t *testing.T) {
	is := is.New(t)
	c := &Config{}
	rest, err := c.Load([]string{"--tt-size-power", "12", "--tt-fraction-of-memory", "0.25", "solve"})
	is.NoErr(err)
	is.Equal(rest, []string{"solve"})
	is.Equal(c.GetInt(ConfigTTSizePower), 12)
	is.Equal(c.GetFloat64(ConfigTTFractionOfMemory), 0.25)
}

func TestLoadBadFlags(t *testing.T) {
	is := is.New(t)
	_, err := (&Config{}).Load([]string{"--tt-sise-power=3", "solve"})
	is.True(err != nil)

	_, err = (&Config{}).Load([]string{"--tt-size-power=big"})
	is.True(err != nil)

	_, err = (&Config{}).Load([]string{"--bot-workers"})
	is.True(err != nil)
}

func TestFlagsMatchDefaults(t *testing.T) {
	is := is.New(t)
	fs := flagSet()
	c := DefaultConfig()
	for _, s := range settings {
		f := fs.Lookup(s.key)
		is.True(f != nil)
		is.Equal(f.DefValue, c.GetString(s.key))
	}
}

func TestLoadEnv(t *testing.T) {
	is := is.New(t)
	t.Setenv("YONMOKU_BOT_WORKERS", "7")
	c := &Config{}
	_, err := c.Load(nil)
	is.NoErr(err)
	is.Equal(c.GetInt(ConfigBotWorkers), 7)
}

func TestLoadFile(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "yonmoku.yaml")
	err := os.WriteFile(path, []byte("default-width: 6\ntt-policy: chain\nreorder-cutoff: 12\n"), 0o644)
	is.NoErr(err)

	c := &Config{}
	_, err = c.Load([]string{"--config-file=" + path, "--reorder-cutoff=9"})
	is.NoErr(err)
	is.Equal(c.GetInt(ConfigDefaultWidth), 6)
	is.Equal(c.GetString(ConfigTTPolicy), "chain")
	// arguments win over the file
	is.Equal(c.GetInt(ConfigReorderCutoff), 9)
}

func TestLoadMissingFile(t *testing.T) {
	is := is.New(t)
	c := &Config{}
	_, err := c.Load([]string{"--config-file=" + filepath.Join(t.TempDir(), "nope.yaml")})
	is.NoErr(err)
	is.Equal(c.GetInt(ConfigDefaultWidth), 7)
}

func TestWrite(t *testing.T) {
	is := is.New(t)
	c := DefaultConfig()
	is.True(c.Write() != nil)

	path := filepath.Join(t.TempDir(), "out.yaml")
	c.Set(ConfigConfigFile, path)
	c.Set(ConfigDefaultHeight, 5)
	is.NoErr(c.Write())

	d := &Config{}
	_, err := d.Load([]string{"--config-file=" + path})
	is.NoErr(err)
	is.Equal(d.GetInt(ConfigDefaultHeight), 5)
}
