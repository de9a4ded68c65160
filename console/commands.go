package console

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"h3mem/dispatch"
	"h3mem/hexdump"
	"h3mem/layout"
	"h3mem/process/memory_map"
	"h3mem/table"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/derekparker/trie"
	"github.com/google/shlex"
)

var (
	// ErrRequestFailed is returned when the dispatcher refused a request. The reason has
	// already gone to its diagnostic sink.
	ErrRequestFailed = errors.New("request failed")

	errNoCmd = errors.New("unknown command\ntype \"help\" or ? to list commands")
)

const clearScreen = "\033[H\033[2J"

type cmdFn func(t *Term, args []string) error

type command struct {
	aliases []string
	fn      cmdFn
	help    string
}

func (c command) match(name string) bool {
	for _, v := range c.aliases {
		if v == name {
			return true
		}
	}
	return false
}

type Commands struct {
	cmds  []command
	names *trie.Trie
}

func NewCommands() *Commands {
	c := &Commands{}
	c.cmds = []command{
		{
			aliases: []string{"help", "?", "h"},
			fn:      c.helpCmd,
			help: `Prints the help message.

	help [command]`,
		},
		{
			aliases: []string{"player", "p"},
			fn:      playerCmd,
			help:    "Display player informations.",
		},
		{
			aliases: []string{"player_loop", "watch", "w"},
			fn:      watchCmd,
			help: `Display player informations on every refresh until interrupted.

	player_loop [interval]

The interval defaults to the configured refresh interval, e.g. 100ms or 1s.`,
		},
		{
			aliases: []string{"set", "s"},
			fn:      setCmd,
			help: `Set the value of a variable.

	set <variable> <value>

Variables are the player resources (wood, mercury, ore, sulfur, crystal, gem, gold), the
hero aliases (xp, level, movelimit) and any writable hero.<field>. Run "fields" for the list.`,
		},
		{
			aliases: []string{"get", "g"},
			fn:      getCmd,
			help: `Read one variable after a refresh.

	get <variable>`,
		},
		{
			aliases: []string{"fields", "ls"},
			fn:      fieldsCmd,
			help:    "List the fields of the active layout.",
		},
		{
			aliases: []string{"raw", "x"},
			fn:      rawCmd,
			help: `Hex dump the record of the player or the current hero.

	raw player|hero`,
		},
		{
			aliases: []string{"layout"},
			fn:      layoutCmd,
			help:    "Print the active layout table as YAML.",
		},
		{
			aliases: []string{"clear", "cls"},
			fn:      clearCmd,
			help:    "Clear the console.",
		},
		{
			aliases: []string{"exit", "quit", "q"},
			fn:      exitCmd,
			help:    "Exit the program.",
		},
	}

	c.names = trie.New()
	for _, cmd := range c.cmds {
		for _, alias := range cmd.aliases {
			c.names.Add(alias, nil)
		}
	}
	return c
}

// Find looks up a command by any of its aliases, ignoring case.
func (c *Commands) Find(name string) (command, bool) {
	name = strings.ToLower(name)
	for _, v := range c.cmds {
		if v.match(name) {
			return v, true
		}
	}
	return command{}, false
}

// Call splits line with shell quoting rules and runs the command it names.
func (c *Commands) Call(t *Term, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("invalid command line: %w", err)
	}
	return c.Run(t, args)
}

// Run executes an already split command line.
func (c *Commands) Run(t *Term, args []string) error {
	if len(args) == 0 {
		return nil
	}

	cmd, ok := c.Find(args[0])
	if !ok {
		return errNoCmd
	}
	return cmd.fn(t, args[1:])
}

func (c *Commands) helpCmd(t *Term, args []string) error {
	if len(args) > 0 {
		cmd, ok := c.Find(args[0])
		if !ok {
			return errNoCmd
		}
		_, err := fmt.Fprintln(t.out, cmd.help)
		return err
	}

	fmt.Fprintln(t.out, "The following commands are available:")
	w := new(tabwriter.Writer)
	w.Init(t.out, 0, 8, 0, '-', 0)
	for _, cmd := range c.cmds {
		h := cmd.help
		if idx := strings.Index(h, "\n"); idx >= 0 {
			h = h[:idx]
		}
		if len(cmd.aliases) > 1 {
			fmt.Fprintf(w, "    %s (alias: %s) \t %s\n", cmd.aliases[0], strings.Join(cmd.aliases[1:], " | "), h)
		} else {
			fmt.Fprintf(w, "    %s \t %s\n", cmd.aliases[0], h)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(t.out)
	return nil
}

func playerCmd(t *Term, args []string) error {
	text, ok := t.d.DescribePlayer()
	if !ok {
		return ErrRequestFailed
	}
	_, err := fmt.Fprint(t.out, text)
	return err
}

func watchCmd(t *Term, args []string) error {
	interval := t.interval
	if len(args) > 1 {
		return fmt.Errorf("too many arguments for player_loop")
	}
	if len(args) == 1 {
		d, err := time.ParseDuration(args[0])
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid interval %q", args[0])
		}
		interval = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return t.watch(ctx, interval)
}

// watch redraws the player every interval until ctx ends or the player disappears.
func (t *Term) watch(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		text, ok := t.d.DescribePlayer()
		if !ok {
			return ErrRequestFailed
		}
		if t.tty {
			fmt.Fprint(t.out, clearScreen)
		}
		fmt.Fprint(t.out, text)

		select {
		case <-ctx.Done():
			if t.tty {
				fmt.Fprint(t.out, clearScreen)
			}
			return nil
		case <-ticker.C:
		}
	}
}

func setCmd(t *Term, args []string) error {
	switch {
	case len(args) < 2:
		return errors.New("missing arguments")
	case len(args) > 2:
		return errors.New("too many arguments for set")
	}

	value, err := strconv.ParseInt(args[1], 0, 64)
	if err != nil {
		return errors.New("invalid value")
	}
	if !t.d.SetValue(strings.ToLower(args[0]), value) {
		return ErrRequestFailed
	}
	return nil
}

func getCmd(t *Term, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("get requires exactly 1 argument, got %d", len(args))
	}
	v, ok := t.d.GetValue(args[0])
	if !ok {
		return ErrRequestFailed
	}
	_, err := fmt.Fprintf(t.out, "%s = %s\n", args[0], v)
	return err
}

func fieldsCmd(t *Term, args []string) error {
	l := t.d.Layout()
	writable := table.Colorize(t.color, coloransi.Green)

	tbl := table.NewTable(
		table.ColumnSpec{Header: "Name"},
		table.ColumnSpec{Header: "Offset", AlignRight: true},
		table.ColumnSpec{Header: "Encoding"},
		table.ColumnSpec{Header: "Access", FormatFunc: writable},
		table.ColumnSpec{Header: "Alias of"},
	)
	for _, f := range l.FieldsOf(layout.EntityPlayer) {
		tbl.AddRow(f.Name, fmt.Sprintf("0x%x", f.Offset), encodingText(f), access(f))
	}
	for _, f := range l.FieldsOf(layout.EntityHero) {
		tbl.AddRow("hero."+f.Name, fmt.Sprintf("0x%x", f.Offset), encodingText(f), access(f))
	}

	aliases := make([]string, 0, len(l.Aliases))
	for alias := range l.Aliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		f, err := l.FieldSpec(layout.EntityHero, l.Aliases[alias])
		if err != nil {
			continue
		}
		tbl.AddRow(alias, fmt.Sprintf("0x%x", f.Offset), encodingText(f), access(f), "hero."+f.Name)
	}

	fmt.Fprintf(t.out, "layout %s (%s), hero stride %d\n", l.Version, l.ProcessName, l.HeroRecordSize)
	return tbl.Render(t.out)
}

func encodingText(f layout.FieldSpec) string {
	if f.Encoding == layout.CString {
		return fmt.Sprintf("%s[%d]", f.Encoding, f.MaxLen)
	}
	return f.Encoding.String()
}

func access(f layout.FieldSpec) string {
	if f.Writable {
		return "rw"
	}
	return "ro"
}

func rawCmd(t *Term, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: raw player|hero")
	}

	var entity layout.Entity
	switch strings.ToLower(args[0]) {
	case "player":
		entity = layout.EntityPlayer
	case "hero":
		entity = layout.EntityHero
	default:
		return fmt.Errorf("unknown record %q, want player or hero", args[0])
	}

	p, ok := t.d.Current()
	if !ok {
		return ErrRequestFailed
	}
	base := p.Base()
	if entity == layout.EntityHero {
		base = p.Hero().Base()
	}

	l := t.d.Layout()
	data, err := t.d.Target().ReadMemory(base, l.RecordSize(entity))
	if err != nil {
		return fmt.Errorf("read %s record at %s: %w", entity, base.ToString(), err)
	}

	opts := hexdump.DefaultOptions()
	opts.Start = uint64(base)
	opts.Color = t.color
	opts.PointerSize = int(l.PointerSize)
	if mapper, ok := t.d.Target().(interface {
		GetMemoryMap() ([]memory_map.MemoryMapItem, error)
	}); ok {
		if mm, err := mapper.GetMemoryMap(); err == nil {
			opts.MemoryMap = mm
		}
	}

	fmt.Fprintf(t.out, "%s record at %s (%d bytes)\n", entity, base.ToString(), len(data))
	hexdump.DumpToWriter(t.out, data, opts)
	return nil
}

func layoutCmd(t *Term, args []string) error {
	return t.d.Layout().WriteYAML(t.out)
}

func clearCmd(t *Term, args []string) error {
	_, err := fmt.Fprint(t.out, clearScreen)
	return err
}

type ExitRequestError struct{}

func (ExitRequestError) Error() string {
	return "exit requested"
}

func exitCmd(t *Term, args []string) error {
	return ExitRequestError{}
}

// FieldNames lists, in lower case, every name set and get accept for the dispatcher's
// layout: player fields, aliases and hero.<field>.
func FieldNames(d *dispatch.Dispatcher) []string {
	l := d.Layout()
	var names []string
	for _, f := range l.FieldsOf(layout.EntityPlayer) {
		names = append(names, strings.ToLower(f.Name))
	}
	for alias := range l.Aliases {
		names = append(names, strings.ToLower(alias))
	}
	for _, f := range l.FieldsOf(layout.EntityHero) {
		names = append(names, "hero."+strings.ToLower(f.Name))
	}
	sort.Strings(names)
	return names
}
