package entity

import (
	"fmt"
	"strings"

	"h3mem/chain"
	"h3mem/layout"
	"h3mem/process"

	"github.com/Moonlight-Companies/gologger/logger"
)

// Player is the human player of the running game.
type Player struct {
	mem         process.Memory
	layout      *layout.Layout
	resolver    chain.Resolver
	processBase process.ProcessMemoryAddress

	state playerState
}

// playerState is everything one refresh produces. It is swapped as a whole.
type playerState struct {
	base      process.ProcessMemoryAddress
	heroIndex int
	heroArray process.ProcessMemoryAddress
	hero      *Hero
	values    Snapshot
}

type Option func(*Player)

// WithLogger traces pointer chain hops at debug level.
func WithLogger(log *logger.Logger) Option {
	return func(p *Player) {
		p.resolver.Log = log
	}
}

// NewPlayer locates the player from the game's module base and reads it once. It fails
// when the game is not in a state with an active player and hero.
func NewPlayer(mem process.Memory, l *layout.Layout, processBase process.ProcessMemoryAddress, opts ...Option) (*Player, error) {
	p := &Player{
		mem:         mem,
		layout:      l,
		resolver:    chain.Resolver{Memory: mem, PointerSize: l.PointerSize},
		processBase: processBase,
	}
	for _, opt := range opts {
		opt(p)
	}

	if _, err := p.Refresh(); err != nil {
		return nil, err
	}
	return p, nil
}

// Refresh re-resolves the player and its current hero and re-reads every field. On error
// the previous state is kept unchanged.
func (p *Player) Refresh() (Snapshot, error) {
	l := p.layout

	base, err := p.resolver.Resolve(p.processBase, l.PlayerChain)
	if err != nil {
		return nil, fmt.Errorf("player: %w", err)
	}

	index, err := process.ReadINT32(p.mem, base.Add(l.HeroIndexOffset))
	if err != nil {
		return nil, fmt.Errorf("player hero index: %w", err)
	}
	if index < 0 || int(index) >= l.HeroCount {
		return nil, fmt.Errorf("%w: no current hero (index %d)", ErrEntityUninitialized, index)
	}

	heroArray, err := p.resolver.Resolve(p.processBase, l.HeroArrayChain)
	if err != nil {
		return nil, fmt.Errorf("hero array: %w", err)
	}

	hero := NewHero(p.mem, l, int(index), heroArray)
	if _, err := hero.Refresh(); err != nil {
		return nil, err
	}

	values, err := readAll(p.mem, base, l.Player)
	if err != nil {
		return nil, fmt.Errorf("player: %w", err)
	}

	p.state = playerState{
		base:      base,
		heroIndex: int(index),
		heroArray: heroArray,
		hero:      hero,
		values:    values,
	}
	return values.clone(), nil
}

func (p *Player) Base() process.ProcessMemoryAddress { return p.state.base }
func (p *Player) HeroIndex() int                     { return p.state.heroIndex }
func (p *Player) Hero() *Hero                        { return p.state.hero }
func (p *Player) Layout() *layout.Layout             { return p.layout }
func (p *Player) Snapshot() Snapshot                 { return p.state.values.clone() }

// heroField maps a hero alias or a "hero.<field>" name to the hero field it names.
func (p *Player) heroField(name string) (string, bool) {
	if len(name) > len("hero.") && strings.EqualFold(name[:len("hero.")], "hero.") {
		return name[len("hero."):], true
	}
	return p.layout.Alias(name)
}

// Get returns a cached player field, or a field of the current hero for aliases such as
// "xp" and for "hero.<field>".
func (p *Player) Get(name string) (Value, error) {
	if p.state.hero == nil {
		return Value{}, ErrEntityUninitialized
	}
	if f, err := p.layout.FieldSpec(layout.EntityPlayer, name); err == nil {
		v, _ := p.state.values.Lookup(f.Name)
		return v, nil
	}
	if field, ok := p.heroField(name); ok {
		return p.state.hero.Get(field)
	}
	return Value{}, &layout.UnknownFieldError{Entity: layout.EntityPlayer, Name: name}
}

// Set writes a player field, or a hero field through an alias. The cache is updated
// optimistically; call Refresh to see what the game actually holds.
func (p *Player) Set(name string, value int64) error {
	if p.state.hero == nil {
		return ErrEntityUninitialized
	}
	if f, err := p.layout.FieldSpec(layout.EntityPlayer, name); err == nil {
		if err := checkWrite(layout.EntityPlayer, f, value); err != nil {
			return err
		}
		if err := writeField(p.mem, p.state.base, f, value); err != nil {
			return fmt.Errorf("player: %w", err)
		}
		p.state.values.store(f.Name, Value{Encoding: f.Encoding, Int: value})
		return nil
	}
	if field, ok := p.heroField(name); ok {
		return p.state.hero.Set(field, value)
	}
	return &layout.UnknownFieldError{Entity: layout.EntityPlayer, Name: name}
}
