package console

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"h3mem/dispatch"
	"h3mem/fakegame"
	"h3mem/layout"
	"h3mem/process"
)

type fixture struct {
	game  *fakegame.Game
	term  *Term
	out   *bytes.Buffer
	diags []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	g, err := fakegame.NewDemo(layout.Heroes3)
	if err != nil {
		t.Fatalf("NewDemo: %v", err)
	}
	f := &fixture{game: g, out: &bytes.Buffer{}}
	d := dispatch.New(g, layout.Heroes3, dispatch.WithDiagnostics(func(msg string) {
		f.diags = append(f.diags, msg)
	}))
	f.term = New(d, Options{Out: f.out, Interval: time.Millisecond})
	return f
}

func TestSetCommand(t *testing.T) {
	f := newFixture(t)

	if err := f.term.Exec("set WOOD 2500"); err != nil {
		t.Fatalf("set: %v (%v)", err, f.diags)
	}
	wood, _ := process.ReadINT32(f.game, f.game.PlayerBase().Add(0x9c))
	if wood != 2500 {
		t.Fatalf("wood = %d", wood)
	}

	if err := f.term.Exec("set movelimit 0x7d0"); err != nil {
		t.Fatalf("set movelimit: %v", err)
	}
	move, _ := process.ReadINT32(f.game, f.game.HeroBase(3).Add(0x4d))
	if move != 2000 {
		t.Fatalf("movementLimit = %d", move)
	}

	tests := []struct {
		line string
		want string
	}{
		{"set wood", "missing arguments"},
		{"set wood 1 2", "too many arguments for set"},
		{"set wood lots", "invalid value"},
	}
	for _, tt := range tests {
		if err := f.term.Exec(tt.line); err == nil || err.Error() != tt.want {
			t.Fatalf("%q: got %v, want %q", tt.line, err, tt.want)
		}
	}

	writes := f.game.Writes()
	if err := f.term.Exec("set hero.name 1"); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("read-only set: %v", err)
	}
	if f.game.Writes() != writes || len(f.diags) != 1 {
		t.Fatalf("read-only set wrote or stayed silent: %v", f.diags)
	}
}

func TestPlayerAndGetCommands(t *testing.T) {
	f := newFixture(t)

	if err := f.term.Exec("player"); err != nil {
		t.Fatalf("player: %v", err)
	}
	if !strings.Contains(f.out.String(), "Name: Orrin") || !strings.Contains(f.out.String(), "Gold: 30000") {
		t.Fatalf("player output:\n%s", f.out.String())
	}

	f.out.Reset()
	if err := f.term.Exec(`get "hero.name"`); err != nil {
		t.Fatalf("get: %v", err)
	}
	if f.out.String() != "hero.name = Orrin\n" {
		t.Fatalf("get output %q", f.out.String())
	}

	f.game.SetHeroIndex(-1)
	if err := f.term.Exec("p"); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("player without hero: %v", err)
	}
}

func TestUnknownAndExit(t *testing.T) {
	f := newFixture(t)

	if err := f.term.Exec("teleport 1 2"); !errors.Is(err, errNoCmd) {
		t.Fatalf("unknown command: %v", err)
	}
	if err := f.term.Exec(`set "wood`); err == nil {
		t.Fatalf("unbalanced quote accepted")
	}
	if err := f.term.Exec("   "); err != nil {
		t.Fatalf("blank line: %v", err)
	}

	var exit ExitRequestError
	if err := f.term.Exec("QUIT"); !errors.As(err, &exit) {
		t.Fatalf("quit: %v", err)
	}
}

func TestHelp(t *testing.T) {
	f := newFixture(t)
	if err := f.term.Exec("help"); err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, name := range []string{"player_loop", "set", "fields", "raw", "exit"} {
		if !strings.Contains(f.out.String(), name) {
			t.Fatalf("help misses %s:\n%s", name, f.out.String())
		}
	}

	f.out.Reset()
	if err := f.term.Exec("help set"); err != nil || !strings.Contains(f.out.String(), "set <variable> <value>") {
		t.Fatalf("help set = %q, %v", f.out.String(), err)
	}
}

func TestFieldsCommand(t *testing.T) {
	f := newFixture(t)
	if err := f.term.Exec("fields"); err != nil {
		t.Fatalf("fields: %v", err)
	}
	out := f.out.String()
	for _, want := range []string{"hero.name", "int32", "cstring[13]", "movelimit", "hero.movementLimit"} {
		if !strings.Contains(out, want) {
			t.Fatalf("fields output misses %q:\n%s", want, out)
		}
	}
}

func TestRawCommand(t *testing.T) {
	f := newFixture(t)
	if err := f.term.Exec("raw hero"); err != nil {
		t.Fatalf("raw hero: %v", err)
	}
	if !strings.Contains(f.out.String(), "(1170 bytes)") || !strings.Contains(f.out.String(), "Orrin") {
		t.Fatalf("raw hero output:\n%s", f.out.String())
	}
	if err := f.term.Exec("raw castle"); err == nil {
		t.Fatalf("raw castle accepted")
	}
}

func TestWatch(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := f.term.watch(ctx, time.Millisecond); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if strings.Count(f.out.String(), "@ Player:") < 2 {
		t.Fatalf("watch drew fewer than two frames")
	}

	f.game.SetHeroIndex(-1)
	if err := f.term.watch(context.Background(), time.Millisecond); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("watch without hero: %v", err)
	}
}

func TestComplete(t *testing.T) {
	f := newFixture(t)

	if got := f.term.complete("pl"); !reflect.DeepEqual(got, []string{"player", "player_loop"}) {
		t.Fatalf("complete(pl) = %v", got)
	}
	if got := f.term.complete("set mo"); !reflect.DeepEqual(got, []string{"set movelimit", "set movementlimit"}) {
		t.Fatalf("complete(set mo) = %v", got)
	}
	if got := f.term.complete("get hero.n"); !reflect.DeepEqual(got, []string{"get hero.name", "get hero.nextx", "get hero.nexty"}) {
		t.Fatalf("complete(get hero.n) = %v", got)
	}
	if got := f.term.complete("raw he"); got != nil {
		t.Fatalf("raw takes no field names, got %v", got)
	}
}
