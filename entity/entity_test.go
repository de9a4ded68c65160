package entity

import (
	"errors"
	"reflect"
	"testing"

	"h3mem/chain"
	"h3mem/fakegame"
	"h3mem/layout"
	"h3mem/process"
)

func newGame(t *testing.T) *fakegame.Game {
	t.Helper()
	g, err := fakegame.New(layout.Heroes3)
	if err != nil {
		t.Fatalf("fakegame.New: %v", err)
	}
	return g
}

func newPlayer(t *testing.T, g *fakegame.Game) *Player {
	t.Helper()
	p, err := NewPlayer(g, layout.Heroes3, fakegame.ImageBase)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	return p
}

func TestHeroAddress(t *testing.T) {
	base := process.ProcessMemoryAddress(0x2021620)
	if got := HeroAddress(base, 0, 1170); got != base {
		t.Fatalf("index 0 = %s", got)
	}
	if got := HeroAddress(base, 2, 1170); got != base+2340 {
		t.Fatalf("index 2 = %s", got)
	}

	h := NewHero(nil, layout.Heroes3, 2, base)
	if h.Base() != base+2340 || h.Index() != 2 {
		t.Fatalf("NewHero base %s index %d", h.Base(), h.Index())
	}
}

func TestHeroRefreshAndSet(t *testing.T) {
	g := newGame(t)
	if err := g.SetHeroName(2, "Gelu"); err != nil {
		t.Fatal(err)
	}
	if err := g.SetHeroField(2, "x", -5); err != nil {
		t.Fatal(err)
	}

	h := NewHero(g, layout.Heroes3, 2, g.HeroArray())
	if _, err := h.Get("xp"); !errors.Is(err, ErrEntityUninitialized) {
		t.Fatalf("Get before Refresh: %v", err)
	}

	snap, err := h.Refresh()
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if name, _ := snap.Lookup("name"); name.String() != "Gelu" {
		t.Fatalf("name = %q", name)
	}
	if x, _ := h.Get("X"); x.Int != -5 {
		t.Fatalf("x = %d", x.Int)
	}

	if err := h.SetXP(123456); err != nil {
		t.Fatalf("SetXP: %v", err)
	}
	if err := h.SetLevel(12); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	if err := h.SetMovementLimit(3000); err != nil {
		t.Fatalf("SetMovementLimit: %v", err)
	}

	xp, _ := process.ReadINT32(g, g.HeroBase(2).Add(0x51))
	level, _ := process.ReadINT16(g, g.HeroBase(2).Add(0x55))
	move, _ := process.ReadINT32(g, g.HeroBase(2).Add(0x4d))
	if xp != 123456 || level != 12 || move != 3000 {
		t.Fatalf("memory holds xp=%d level=%d move=%d", xp, level, move)
	}
	if v, _ := h.Get("level"); v.Int != 12 {
		t.Fatalf("cache not updated: level %d", v.Int)
	}
}

func TestPlayerRefresh(t *testing.T) {
	g := newGame(t)
	g.SetPlayerField("wood", 1000)
	g.SetPlayerField("gold", 7500)
	g.SetHeroIndex(2)
	g.SetHeroField(2, "xp", 900)

	p := newPlayer(t, g)
	if p.Base() != g.PlayerBase() || p.HeroIndex() != 2 || p.Hero().Base() != g.HeroBase(2) {
		t.Fatalf("player resolved to %s hero %d at %s", p.Base(), p.HeroIndex(), p.Hero().Base())
	}

	if v, err := p.Get("wood"); err != nil || v.Int != 1000 {
		t.Fatalf("wood = %v, %v", v, err)
	}
	if v, err := p.Get("xp"); err != nil || v.Int != 900 {
		t.Fatalf("xp alias = %v, %v", v, err)
	}
	if v, err := p.Get("hero.xp"); err != nil || v.Int != 900 {
		t.Fatalf("hero.xp = %v, %v", v, err)
	}

	first := p.Snapshot()
	second, err := p.Refresh()
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("refresh not idempotent:\n%v\n%v", first, second)
	}
	if !reflect.DeepEqual(p.Hero().Snapshot(), p.Hero().Snapshot()) {
		t.Fatalf("hero snapshots differ")
	}

	// The current hero follows the index
	g.SetHeroIndex(5)
	g.SetHeroField(5, "xp", 42)
	if _, err := p.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if v, _ := p.Get("xp"); p.HeroIndex() != 5 || v.Int != 42 {
		t.Fatalf("hero %d xp %d after switch", p.HeroIndex(), v.Int)
	}
}

func TestPlayerSetRoundTrip(t *testing.T) {
	g := newGame(t)
	p := newPlayer(t, g)

	tests := []struct {
		name  string
		value int64
		addr  process.ProcessMemoryAddress
		width int
	}{
		{"wood", 2500, g.PlayerBase().Add(0x9c), 4},
		{"mercury", -1, g.PlayerBase().Add(0xa0), 4},
		{"gold", 2147483647, g.PlayerBase().Add(0xb4), 4},
		{"xp", 99999, g.HeroBase(0).Add(0x51), 4},
		{"level", -32768, g.HeroBase(0).Add(0x55), 2},
		{"movelimit", 2000, g.HeroBase(0).Add(0x4d), 4},
		{"movementLimit", 2100, g.HeroBase(0).Add(0x4d), 4},
	}

	for _, tt := range tests {
		if err := p.Set(tt.name, tt.value); err != nil {
			t.Fatalf("Set(%s): %v", tt.name, err)
		}
		var got int64
		if tt.width == 2 {
			v, _ := process.ReadINT16(g, tt.addr)
			got = int64(v)
		} else {
			v, _ := process.ReadINT32(g, tt.addr)
			got = int64(v)
		}
		if got != tt.value {
			t.Fatalf("%s: memory holds %d, want %d", tt.name, got, tt.value)
		}
		if v, _ := p.Get(tt.name); v.Int != tt.value {
			t.Fatalf("%s: cache holds %d", tt.name, v.Int)
		}
	}
}

func TestSetRefusedNeverWrites(t *testing.T) {
	g := newGame(t)
	p := newPlayer(t, g)

	tests := []struct {
		name  string
		value int64
		want  error
	}{
		{"hero.x", 1, ErrReadOnlyField},
		{"hero.name", 1, ErrReadOnlyField},
		{"hero.nextY", 1, ErrReadOnlyField},
		{"mana", 1, layout.ErrUnknownField},
		{"hero.mana", 1, layout.ErrUnknownField},
		{"level", 40000, ErrValueOutOfRange},
		{"gold", 1 << 31, ErrValueOutOfRange},
	}

	for _, tt := range tests {
		if err := p.Set(tt.name, tt.value); !errors.Is(err, tt.want) {
			t.Fatalf("Set(%s): got %v, want %v", tt.name, err, tt.want)
		}
	}
	if g.Writes() != 0 {
		t.Fatalf("refused sets wrote %d times", g.Writes())
	}

	var ro *ReadOnlyFieldError
	if err := p.Set("hero.y", 1); !errors.As(err, &ro) || ro.Entity != layout.EntityHero || ro.Name != "y" {
		t.Fatalf("expected *ReadOnlyFieldError for hero.y, got %v", err)
	}
	if _, err := p.Get("mana"); !errors.Is(err, layout.ErrUnknownField) {
		t.Fatalf("Get(mana): %v", err)
	}
}

func TestNoActiveHero(t *testing.T) {
	g := newGame(t)
	g.SetHeroIndex(-1)
	if _, err := NewPlayer(g, layout.Heroes3, fakegame.ImageBase); !errors.Is(err, ErrEntityUninitialized) {
		t.Fatalf("expected ErrEntityUninitialized, got %v", err)
	}

	g.SetHeroIndex(156)
	if _, err := NewPlayer(g, layout.Heroes3, fakegame.ImageBase); !errors.Is(err, ErrEntityUninitialized) {
		t.Fatalf("index past the array: %v", err)
	}
}

func TestRefreshFailureKeepsState(t *testing.T) {
	g := newGame(t)
	g.SetPlayerField("ore", 17)
	p := newPlayer(t, g)
	before := p.Snapshot()

	g.BreakPlayerChain()
	_, err := p.Refresh()
	if !errors.Is(err, chain.ErrChainResolution) || !errors.Is(err, process.ErrInvalidPointer) {
		t.Fatalf("expected a chain failure, got %v", err)
	}
	if !reflect.DeepEqual(before, p.Snapshot()) || p.Base() != g.PlayerBase() {
		t.Fatalf("failed refresh changed the cached state")
	}

	if _, err := NewPlayer(g, layout.Heroes3, fakegame.ImageBase); !errors.Is(err, chain.ErrChainResolution) {
		t.Fatalf("NewPlayer on a broken chain: %v", err)
	}
}

func TestValueString(t *testing.T) {
	if s := (Value{Encoding: layout.Int16, Int: -3}).String(); s != "-3" {
		t.Fatalf("int = %q", s)
	}
	if s := (Value{Encoding: layout.CString, Str: "Orrin"}).String(); s != "Orrin" {
		t.Fatalf("string = %q", s)
	}
}
