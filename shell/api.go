package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/yonmoku/automatic"
	"github.com/domino14/yonmoku/board"
	"github.com/domino14/yonmoku/bot"
	"github.com/domino14/yonmoku/cache"
	"github.com/domino14/yonmoku/config"
	"github.com/domino14/yonmoku/solver"
	"github.com/domino14/yonmoku/suite"
)

const defaultAutoplayLog = "/tmp/autoplay.txt"

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

func msg(message string) *Response {
	return &Response{message: message}
}

// settableKeys are the config keys `set` may change.
var settableKeys = []string{
	config.ConfigTTSizePower,
	config.ConfigTTFractionOfMemory,
	config.ConfigTTPolicy,
	config.ConfigHashCutoff,
	config.ConfigHasher,
	config.ConfigSymmetry,
	config.ConfigSymmetryCutoff,
	config.ConfigAdaptiveOrdering,
	config.ConfigReorderCutoff,
	config.ConfigPenalizeSiblings,
	config.ConfigDefaultWidth,
	config.ConfigDefaultHeight,
}

// parseSize parses WxH.
func parseSize(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("board size should look like 7x6, not %q", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return 0, 0, err
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, err
	}
	return width, height, nil
}

func (sc *ShellController) setupGame(width, height int, moves string) error {
	z, err := cache.Zobrist(sc.config, width, height)
	if err != nil {
		return err
	}
	b, err := board.New(width, height, z)
	if err != nil {
		return err
	}
	if err := b.ReplayString(moves); err != nil {
		return err
	}
	if sc.solver == nil {
		sc.solver = &solver.Solver{}
	}
	if err := sc.solver.Init(b, sc.options); err != nil {
		return err
	}
	sc.board = b
	return nil
}

// gameArgs sets up a new game if args hold a size and/or moves.
func (sc *ShellController) gameArgs(args []string) error {
	if len(args) == 0 {
		if sc.board == nil {
			return errNoGame
		}
		return nil
	}
	width := sc.config.GetInt(config.ConfigDefaultWidth)
	height := sc.config.GetInt(config.ConfigDefaultHeight)
	moves := ""
	if strings.ContainsAny(args[0], "xX") {
		var err error
		width, height, err = parseSize(args[0])
		if err != nil {
			return err
		}
		args = args[1:]
	}
	if len(args) > 1 {
		return errors.New("too many arguments; expected [WxH] [moves]")
	}
	if len(args) == 1 {
		moves = args[0]
	}
	return sc.setupGame(width, height, moves)
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	args := cmd.args
	if len(args) == 0 {
		args = []string{fmt.Sprintf("%dx%d", sc.config.GetInt(config.ConfigDefaultWidth),
			sc.config.GetInt(config.ConfigDefaultHeight))}
	}
	if err := sc.gameArgs(args); err != nil {
		return nil, err
	}
	return msg(sc.board.ToDisplayText()), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if sc.board == nil {
		return nil, errNoGame
	}
	if len(cmd.args) == 0 {
		return nil, errors.New("play <cols>")
	}
	if err := sc.board.ReplayString(strings.Join(cmd.args, "")); err != nil {
		return nil, err
	}
	return msg(sc.board.ToDisplayText()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if sc.board == nil {
		return nil, errNoGame
	}
	n := 1
	if len(cmd.args) > 0 {
		var err error
		n, err = strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, err
		}
	}
	if err := sc.board.Undo(n); err != nil {
		return nil, err
	}
	return msg(sc.board.ToDisplayText()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if sc.board == nil {
		return nil, errNoGame
	}
	return msg(sc.board.ToDisplayText()), nil
}

func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	if err := sc.gameArgs(cmd.args); err != nil {
		return nil, err
	}
	score, err := sc.solver.Solve()
	if err != nil {
		return nil, err
	}
	m := sc.solver.Metrics()
	return msg(fmt.Sprintf("%s to move: %s\nnodes: %d  time: %.3fs",
		board.PlayerName(sc.board.PlayerOnTurn()), score, m.Nodes, m.Elapsed.Seconds())), nil
}

func (sc *ShellController) recommend(cmd *shellcmd) (*Response, error) {
	if err := sc.gameArgs(cmd.args); err != nil {
		return nil, err
	}
	col, score, err := sc.solver.RecommendMove()
	if err != nil {
		return nil, err
	}
	m := sc.solver.Metrics()
	return msg(fmt.Sprintf("best column for %s: %d (%s)\nnodes: %d  time: %.3fs",
		board.PlayerName(sc.board.PlayerOnTurn()), col, score, m.Nodes, m.Elapsed.Seconds())), nil
}

func (sc *ShellController) metrics(cmd *shellcmd) (*Response, error) {
	if sc.solver == nil {
		return nil, errors.New("nothing has been solved yet")
	}
	m := sc.solver.Metrics()
	var sb strings.Builder
	fmt.Fprintf(&sb, "nodes:      %d\n", m.Nodes)
	fmt.Fprintf(&sb, "time:       %.3fs\n", m.Elapsed.Seconds())
	if m.Elapsed > 0 {
		fmt.Fprintf(&sb, "nodes/sec:  %.0f\n", float64(m.Nodes)/m.Elapsed.Seconds())
	}
	if t := m.Table; t.Slots > 0 {
		fmt.Fprintf(&sb, "table:      %d slots, %d used, %d created\n", t.Slots, t.Used, t.Created)
		fmt.Fprintf(&sb, "lookups:    %d (%d hits, %d misses)\n", t.Lookups, t.Hits, t.Misses)
		fmt.Fprintf(&sb, "collisions: %d", t.Collisions)
	} else {
		sb.WriteString("table:      off")
	}
	return msg(sb.String()), nil
}

func (sc *ShellController) settingsText() string {
	var sb strings.Builder
	sb.WriteString("Settings:\n")
	for _, k := range settableKeys {
		fmt.Fprintf(&sb, "  %s: %v\n", k, sc.config.Get(k))
	}
	return sb.String()
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return msg(sc.settingsText()), nil
	}
	key := cmd.args[0]
	if !lo.Contains(settableKeys, key) {
		return nil, fmt.Errorf("no such setting: %s", key)
	}
	if len(cmd.args) == 1 {
		return msg(fmt.Sprintf("%s: %v", key, sc.config.Get(key))), nil
	}
	old := sc.config.Get(key)
	sc.config.Set(key, cmd.args[1])
	opts, err := solver.OptionsFromConfig(sc.config)
	if err != nil {
		sc.config.Set(key, old)
		return nil, err
	}
	sc.options = opts
	// table geometry or policy may have changed; start over with a new
	// solver.
	sc.solver = nil
	if sc.board != nil {
		sc.solver = &solver.Solver{}
		if err := sc.solver.Init(sc.board, sc.options); err != nil {
			return nil, err
		}
	}
	log.Info().Str("key", key).Str("value", cmd.args[1]).Msg("setting-changed")
	return msg(fmt.Sprintf("set %s to %v", key, sc.config.Get(key))), nil
}

func (sc *ShellController) suite(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("suite <file>")
	}
	threads, err := cmd.options.IntDefault("threads", 1)
	if err != nil {
		return nil, err
	}
	positions, err := suite.LoadFile(cmd.args[0])
	if err != nil {
		return nil, err
	}
	results, err := suite.Run(context.Background(), sc.config, positions, sc.options, threads)
	if err != nil {
		return nil, err
	}
	if n := suite.Failed(results); n > 0 {
		log.Warn().Int("failed", n).Msg("suite-failures")
	}
	return msg(suite.Summary(results)), nil
}

func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) > 0 && cmd.args[0] == "stop" {
		if sc.autoplayCancel == nil {
			return nil, errors.New("no autoplay is running")
		}
		sc.stopAutoplay()
		return msg("autoplay stopped"), nil
	}
	if sc.autoplayCancel != nil {
		select {
		case <-sc.autoplayDone:
			sc.autoplayCancel = nil
		default:
			return nil, errors.New("autoplay is already running, please do an `autoplay stop` first")
		}
	}
	opts := automatic.Options{Solver: sc.options}
	var err error
	intOpts := []struct {
		key string
		dst *int
		def int
	}{
		{"games", &opts.NumGames, 100},
		{"threads", &opts.Threads, sc.config.GetInt(config.ConfigAutoplayThreads)},
		{"opening", &opts.OpeningPlies, sc.config.GetInt(config.ConfigAutoplayOpeningPlys)},
		{"width", &opts.Width, sc.config.GetInt(config.ConfigDefaultWidth)},
		{"height", &opts.Height, sc.config.GetInt(config.ConfigDefaultHeight)},
	}
	for _, o := range intOpts {
		if *o.dst, err = cmd.options.IntDefault(o.key, o.def); err != nil {
			return nil, err
		}
	}
	logfile := cmd.options.String("file")
	if logfile == "" {
		logfile = defaultAutoplayLog
	}
	f, err := os.Create(logfile)
	if err != nil {
		return nil, err
	}
	var boards chan string
	printed := make(chan struct{})
	if cmd.options.Bool("show") {
		boards = make(chan string)
		opts.Boards = boards
		go func() {
			defer close(printed)
			for b := range boards {
				sc.showMessage(b)
			}
		}()
	} else {
		close(printed)
	}
	ctx, cancel := context.WithCancel(context.Background())
	sc.autoplayCancel = cancel
	sc.autoplayDone = make(chan struct{})
	go func() {
		defer close(sc.autoplayDone)
		defer f.Close()
		err := automatic.StartCompVComp(ctx, sc.config, opts, f)
		if boards != nil {
			close(boards)
		}
		<-printed
		if err != nil {
			log.Err(err).Msg("autoplay-failed")
		}
	}()
	return msg(fmt.Sprintf("autoplay started: %d games on %dx%d, logging to %s",
		opts.NumGames, opts.Width, opts.Height, logfile)), nil
}

// stopAutoplay cancels a running autoplay and waits for the games in
// progress to finish.
func (sc *ShellController) stopAutoplay() {
	sc.autoplayCancel()
	<-sc.autoplayDone
	sc.autoplayCancel = nil
}

func (sc *ShellController) analyze(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("analyze <file>")
	}
	out, err := automatic.AnalyzeLogFile(cmd.args[0])
	if err != nil {
		return nil, err
	}
	return msg(out), nil
}

func (sc *ShellController) remote(cmd *shellcmd) (*Response, error) {
	if sc.board == nil {
		return nil, errNoGame
	}
	mode := bot.ModeSolve
	if len(cmd.args) > 0 {
		mode = cmd.args[0]
	}
	c := bot.NewClient(sc.config)
	ctx := context.Background()
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	defer c.Close()
	resp, err := c.Request(ctx, bot.Request{
		Width:  sc.board.Width(),
		Height: sc.board.Height(),
		Moves:  sc.board.HistoryString(),
		Mode:   mode,
	})
	if err != nil {
		return nil, err
	}
	if resp.Column >= 0 {
		return msg(fmt.Sprintf("bot says column %d (%s), %d nodes", resp.Column, resp.Score, resp.Nodes)), nil
	}
	return msg(fmt.Sprintf("bot says %s, %d nodes", resp.Score, resp.Nodes)), nil
}

// commandList is every command, sorted, for help and autocomplete.
func commandList() []string {
	cmds := lo.Keys(commandMetadata)
	cmds = append(cmds, "undo", "show", "metrics", "analyze", "help", "exit")
	cmds = lo.Uniq(cmds)
	sort.Strings(cmds)
	return cmds
}
