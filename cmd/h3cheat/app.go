package main

import (
	"errors"
	"fmt"
	"os"

	"h3mem/config"
	"h3mem/console"
	"h3mem/dispatch"
	"h3mem/layout"
	"h3mem/process"
	"h3mem/process_blob"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/urfave/cli"
)

const usage = `reads and edits the state of a running Heroes of Might and Magic III
   through its memory: resources of the player and experience, level and movement of
   the current hero`

// app carries what every command needs once the global flags are parsed.
type app struct {
	cfg    config.Config
	layout *layout.Layout
	log    *logger.Logger
}

func newApp() *cli.App {
	a := &app{
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "h3cheat")),
	}

	cliApp := cli.NewApp()
	cliApp.Name = "h3cheat"
	cliApp.Usage = usage
	cliApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "process, n",
			Usage: "name of the game process (default: the layout's)",
		},
		cli.IntFlag{
			Name:  "pid",
			Usage: "attach to this process ID instead of searching by name",
		},
		cli.StringFlag{
			Name:  "layout, l",
			Usage: "YAML layout table to use instead of a built-in one",
		},
		cli.StringFlag{
			Name:  "layout-version",
			Usage: "built-in layout table",
			Value: "heroes3-sod",
		},
		cli.StringFlag{
			Name:  "dump, d",
			Usage: "work offline on a capture directory instead of the live process",
		},
		cli.BoolFlag{
			Name:  "demo",
			Usage: "work on a built-in fake game",
		},
		cli.DurationFlag{
			Name:  "interval, i",
			Usage: "refresh interval of player_loop",
		},
		cli.StringFlag{
			Name:  "history",
			Usage: "console history file (default: ~/.h3cheat_history)",
		},
		cli.StringFlag{
			Name:  "color",
			Usage: "auto, always or never",
			Value: config.ColorAuto,
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "trace pointer chain resolution",
		},
	}
	cliApp.Before = a.setup
	cliApp.Action = a.consoleAction
	cliApp.Commands = []cli.Command{
		{
			Name:   "console",
			Usage:  "interactive cheat console (default)",
			Action: a.consoleAction,
		},
		{
			Name:   "player",
			Usage:  "print the player and the current hero",
			Action: a.oneShot("player"),
		},
		{
			Name:      "set",
			Usage:     "set a resource or a hero value",
			ArgsUsage: "<variable> <value>",
			Action:    a.oneShot("set"),
		},
		{
			Name:      "get",
			Usage:     "print one value",
			ArgsUsage: "<variable>",
			Action:    a.oneShot("get"),
		},
		{
			Name:   "fields",
			Usage:  "list the fields of the layout",
			Action: a.oneShot("fields"),
		},
		{
			Name:      "raw",
			Usage:     "hex dump the player or hero record",
			ArgsUsage: "player|hero",
			Action:    a.oneShot("raw"),
		},
		{
			Name:   "layout",
			Usage:  "print the layout table as YAML, a starting point for --layout",
			Action: a.oneShot("layout"),
		},
		{
			Name:  "layouts",
			Usage: "list the built-in layout versions",
			Action: func(c *cli.Context) error {
				for _, v := range layout.Versions() {
					fmt.Println(v)
				}
				return nil
			},
		},
		{
			Name:      "capture",
			Usage:     "save the readable memory of the game to a directory, for --dump",
			ArgsUsage: "<dir>",
			Flags: []cli.Flag{
				cli.UintFlag{
					Name:  "max-region",
					Usage: "skip regions larger than this many bytes",
					Value: uint(process_blob.DefaultMaxRegion),
				},
			},
			Action: a.capture,
		},
	}
	return cliApp
}

// setup reads the environment, lets flags override it and picks the layout.
func (a *app) setup(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if c.IsSet("process") {
		cfg.Process = c.String("process")
	}
	if c.IsSet("pid") {
		cfg.PID = c.Int("pid")
	}
	if c.IsSet("layout") {
		cfg.LayoutFile = c.String("layout")
	}
	if c.IsSet("layout-version") {
		cfg.LayoutVersion = c.String("layout-version")
	}
	if c.IsSet("dump") {
		cfg.DumpDir = c.String("dump")
	}
	if c.IsSet("demo") {
		cfg.Demo = c.Bool("demo")
	}
	if c.IsSet("interval") {
		cfg.RefreshInterval = c.Duration("interval")
	}
	if c.IsSet("history") {
		cfg.HistoryFile = c.String("history")
	}
	if c.IsSet("color") {
		cfg.Color = c.String("color")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	l, err := cfg.Layout()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.layout = l
	return nil
}

// term opens the target and wraps it in a dispatcher and console.
func (a *app) term() (*console.Term, func(), error) {
	target, err := openTarget(a.cfg, a.layout)
	if err != nil {
		return nil, nil, err
	}

	var opts []dispatch.Option
	if a.cfg.Debug {
		opts = append(opts, dispatch.WithChainTrace())
	}
	d := dispatch.New(target, a.layout, opts...)

	out, color, tty := console.Output(a.cfg.Color)
	t := console.New(d, console.Options{
		Out:         out,
		Color:       color,
		TTY:         tty,
		Interval:    a.cfg.RefreshInterval,
		HistoryFile: a.historyFile(),
	})

	closeTarget := func() {
		if err := target.Close(); err != nil {
			a.log.Warn("close target: ", err)
		}
	}
	return t, closeTarget, nil
}

func (a *app) historyFile() string {
	if a.cfg.HistoryFile != "" {
		return a.cfg.HistoryFile
	}
	return console.DefaultHistoryFile()
}

func (a *app) consoleAction(c *cli.Context) error {
	if c.NArg() > 0 {
		return fmt.Errorf("unknown command %q", c.Args().First())
	}
	t, closeTarget, err := a.term()
	if err != nil {
		return err
	}
	defer closeTarget()
	return t.Run()
}

// oneShot runs a single console command with the command line arguments.
func (a *app) oneShot(name string) cli.ActionFunc {
	return func(c *cli.Context) error {
		t, closeTarget, err := a.term()
		if err != nil {
			return err
		}
		defer closeTarget()

		err = t.ExecArgs(append([]string{name}, c.Args()...)...)
		if errors.Is(err, console.ErrRequestFailed) {
			return cli.NewExitError("", 1)
		}
		return err
	}
}

func (a *app) capture(c *cli.Context) error {
	if c.NArg() != 1 {
		_ = cli.ShowCommandHelp(c, c.Command.Name)
		return fmt.Errorf("capture requires exactly 1 argument")
	}
	if a.cfg.DumpDir != "" || a.cfg.Demo {
		return fmt.Errorf("capture needs the live process")
	}
	dir := c.Args().First()

	proc, err := openLive(a.cfg, a.layout)
	if err != nil {
		return err
	}
	defer proc.Close()

	snapshot, stats, err := process_blob.Capture(proc, a.cfg.ProcessName(a.layout), process.ProcessMemorySize(c.Uint("max-region")))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := snapshot.Save(dir); err != nil {
		return err
	}

	a.log.Infoln("captured", stats.Saved, "regions to", dir, "skipped", stats.SkippedPerm+stats.SkippedSize, "read errors", stats.ReadErrors)
	return nil
}
