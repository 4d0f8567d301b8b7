package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string // Available options for this command (e.g., "-games")
	Args    []string // Possible argument values (for non-option arguments)
}

var commandMetadata = map[string]CommandMetadata{
	"new":       {Args: []string{"7x6", "6x5", "5x4", "4x4", "8x7"}},
	"solve":     {Args: []string{"7x6", "6x5", "5x4", "4x4", "8x7"}},
	"recommend": {Args: []string{"7x6", "6x5", "5x4", "4x4", "8x7"}},
	"play":      {},
	"set":       {Args: settableKeys},
	"suite":     {Options: []string{"-threads"}},
	"autoplay": {
		Options: []string{"-games", "-threads", "-opening", "-width", "-height", "-file", "-show"},
		Args:    []string{"stop"},
	},
	"remote": {Args: []string{"solve", "recommend"}},
	"script": {},
	"help": {
		Args: []string{"new", "solve", "recommend", "set", "autoplay", "suite",
			"remote", "script"},
	},
}

var boolValues = []string{"true", "false"}

// settingValues are the choices for settings that take a fixed set of
// values.
var settingValues = map[string][]string{
	"tt-policy":         {"replace", "chain"},
	"hasher":            {"zobrist", "simple"},
	"symmetry":          boolValues,
	"adaptive-ordering": boolValues,
	"penalize-siblings": boolValues,
}

// Do implements the readline.AutoComplete interface
// It provides context-aware autocomplete based on what's been typed
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		// If we can't parse, fall back to simple space splitting
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandList()
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		// the field before the one being typed
		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		switch {
		case cmdName == "set" && lastCompleteField != "set":
			completions = settingValues[lastCompleteField]
		case strings.HasPrefix(lastCompleteField, "-"):
			// option values are free-form
		default:
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	matches := lo.FilterMap(completions, func(completion string, _ int) ([]rune, bool) {
		if !strings.HasPrefix(completion, prefix) {
			return nil, false
		}
		// Return only the part that needs to be added
		return []rune(completion[len(prefix):]), true
	})
	return matches, len(prefix)
}
