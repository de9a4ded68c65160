// Package console is the interactive cheat console: a line-edited prompt over the
// dispatcher, with history, completion of commands and field names, and a watch mode.
package console

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"h3mem/dispatch"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/derekparker/trie"
	"github.com/go-delve/liner"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const (
	prompt = "(HMM3 Cheat Console) > "
	intro  = "Welcome to the cheats console for Heroes of Might and Magic III.\nType help or ? to list commands."

	historyFile = ".h3cheat_history"
)

// Options configures a Term. Zero values mean stdout, no colour, 100ms refresh and no
// saved history.
type Options struct {
	Out         io.Writer
	Color       bool
	TTY         bool
	Interval    time.Duration
	HistoryFile string
}

type Term struct {
	d        *dispatch.Dispatcher
	out      io.Writer
	color    bool
	tty      bool
	interval time.Duration
	history  string
	log      *logger.Logger

	cmds  *Commands
	line  *liner.State
	names *trie.Trie
}

func New(d *dispatch.Dispatcher, opts Options) *Term {
	t := &Term{
		d:        d,
		out:      opts.Out,
		color:    opts.Color,
		tty:      opts.TTY,
		interval: opts.Interval,
		history:  opts.HistoryFile,
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "console")),
	}
	if t.out == nil {
		t.out = os.Stdout
	}
	if t.interval <= 0 {
		t.interval = 100 * time.Millisecond
	}
	t.cmds = NewCommands()
	t.names = fieldTrie(d)
	return t
}

// Output picks stdout for the given colour mode ("auto", "always", "never"). Colour
// sequences are translated on Windows consoles and stripped when colour is off.
func Output(mode string) (out io.Writer, color bool, tty bool) {
	fd := os.Stdout.Fd()
	tty = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	color = mode == "always" || (mode == "auto" && tty)
	if color {
		return colorable.NewColorableStdout(), true, tty
	}
	return colorable.NewNonColorable(os.Stdout), false, tty
}

// DefaultHistoryFile is ~/.h3cheat_history, or "" when there is no home directory.
func DefaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFile)
}

// Run reads commands until exit or end of input.
func (t *Term) Run() error {
	t.line = liner.NewLiner()
	defer t.line.Close()

	t.line.SetCtrlCAborts(true)
	t.line.SetCompleter(t.complete)
	t.loadHistory()
	defer t.saveHistory()

	fmt.Fprintln(t.out, intro)

	for {
		l, err := t.line.Prompt(prompt)
		if err != nil {
			if err == io.EOF {
				fmt.Fprintln(t.out, "exit")
				return nil
			}
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			return fmt.Errorf("prompt for input failed: %w", err)
		}

		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		t.line.AppendHistory(l)

		err = t.Exec(l)
		var exit ExitRequestError
		switch {
		case errors.As(err, &exit):
			return nil
		case err == nil, errors.Is(err, ErrRequestFailed):
			// the dispatcher has already reported it
		default:
			fmt.Fprintln(t.out, err)
		}
	}
}

// Exec runs one command line.
func (t *Term) Exec(line string) error {
	return t.cmds.Call(t, line)
}

// ExecArgs runs a command given as separate words, e.g. from the process command line.
func (t *Term) ExecArgs(args ...string) error {
	return t.cmds.Run(t, args)
}

func (t *Term) loadHistory() {
	if t.history == "" {
		return
	}
	f, err := os.Open(t.history)
	if err != nil {
		if !os.IsNotExist(err) {
			t.log.Warn("unable to open history file: ", err)
		}
		return
	}
	defer f.Close()

	if _, err := t.line.ReadHistory(f); err != nil {
		t.log.Warn("unable to read history file: ", err)
	}
}

func (t *Term) saveHistory() {
	if t.history == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(t.history), 0755); err != nil {
		t.log.Warn("unable to create history directory: ", err)
		return
	}
	f, err := os.OpenFile(t.history, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		t.log.Warn("unable to save history: ", err)
		return
	}
	defer f.Close()

	if _, err := t.line.WriteHistory(f); err != nil {
		t.log.Warn("unable to save history: ", err)
	}
}

// fieldTrie indexes every name set and get accept.
func fieldTrie(d *dispatch.Dispatcher) *trie.Trie {
	names := trie.New()
	for _, name := range FieldNames(d) {
		names.Add(name, nil)
	}
	return names
}

// complete finishes the command word, or the field name after set and get.
func (t *Term) complete(line string) []string {
	cmd, rest, found := strings.Cut(line, " ")
	if !found {
		out := t.cmds.names.PrefixSearch(line)
		sort.Strings(out)
		return out
	}

	switch strings.ToLower(cmd) {
	case "set", "get":
	default:
		return nil
	}
	if strings.Contains(rest, " ") {
		return nil
	}

	var out []string
	for _, name := range t.names.PrefixSearch(strings.ToLower(rest)) {
		out = append(out, cmd+" "+name)
	}
	sort.Strings(out)
	return out
}
