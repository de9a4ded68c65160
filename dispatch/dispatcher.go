// Package dispatch is the request boundary: named get/set/describe requests against the
// player, with the player built lazily and every failure turned into a diagnostic.
package dispatch

import (
	"errors"
	"fmt"

	"h3mem/entity"
	"h3mem/layout"
	"h3mem/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Target is what the dispatcher needs from the game process.
type Target interface {
	process.Memory
	ModuleBase(name string) (process.ProcessMemoryAddress, error)
}

// Dispatcher is not safe for concurrent use; requests run one at a time.
type Dispatcher struct {
	target Target
	layout *layout.Layout
	log    *logger.Logger
	diag   func(string)
	trace  bool

	player *entity.Player // nil until a request builds it
}

type Option func(*Dispatcher)

// WithDiagnostics sends failure messages to fn instead of the logger.
func WithDiagnostics(fn func(string)) Option {
	return func(d *Dispatcher) {
		d.diag = fn
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// WithChainTrace logs every pointer chain hop at debug level.
func WithChainTrace() Option {
	return func(d *Dispatcher) {
		d.trace = true
	}
}

func New(target Target, l *layout.Layout, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		target: target,
		layout: l,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "dispatch"))
	}
	return d
}

func (d *Dispatcher) Layout() *layout.Layout { return d.layout }
func (d *Dispatcher) Target() Target          { return d.target }

func (d *Dispatcher) report(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if d.diag != nil {
		d.diag(msg)
		return
	}
	d.log.Warn("dispatch: ", msg)
}

// recoverPanic must be deferred directly. A panic below the boundary drops the player.
func (d *Dispatcher) recoverPanic(ok *bool) {
	if r := recover(); r != nil {
		d.player = nil
		d.report("internal error: %v", r)
		*ok = false
	}
}

// ensurePlayer builds the player on first use and after a reset.
func (d *Dispatcher) ensurePlayer() (*entity.Player, error) {
	if d.player != nil {
		return d.player, nil
	}

	base, err := d.target.ModuleBase(d.layout.ProcessName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", process.ErrProcessUnavailable, err)
	}

	var opts []entity.Option
	if d.trace {
		opts = append(opts, entity.WithLogger(d.log))
	}
	p, err := entity.NewPlayer(d.target, d.layout, base, opts...)
	if err != nil {
		return nil, err
	}
	d.log.Debugln("player at", p.Base().ToString(), "hero", p.HeroIndex(), "at", p.Hero().Base().ToString())
	d.player = p
	return p, nil
}

// Current returns a freshly refreshed player. On failure the player is reset so the next
// request rebuilds it.
func (d *Dispatcher) Current() (p *entity.Player, ok bool) {
	defer d.recoverPanic(&ok)

	p, err := d.ensurePlayer()
	if err != nil {
		d.reportUnavailable(err)
		return nil, false
	}
	if _, err := p.Refresh(); err != nil {
		d.player = nil
		d.reportUnavailable(err)
		return nil, false
	}
	return p, true
}

func (d *Dispatcher) reportUnavailable(err error) {
	if errors.Is(err, entity.ErrEntityUninitialized) {
		d.report("player not initialized, a scenario or campaign must be running: %v", err)
		return
	}
	d.report("player unavailable: %v", err)
}

// DescribePlayer refreshes the player and renders it. It never returns stale data.
func (d *Dispatcher) DescribePlayer() (string, bool) {
	p, ok := d.Current()
	if !ok {
		return "", false
	}
	return FormatPlayer(p), true
}

// GetValue refreshes the player and returns one field.
func (d *Dispatcher) GetValue(name string) (v entity.Value, ok bool) {
	p, ok := d.Current()
	if !ok {
		return entity.Value{}, false
	}

	defer d.recoverPanic(&ok)
	v, err := p.Get(name)
	if err != nil {
		d.report("get %s: %v", name, err)
		return entity.Value{}, false
	}
	return v, true
}

// SetValue writes one field through the cached player, without refreshing it first. A
// failed write drops the player so the next request re-resolves it.
func (d *Dispatcher) SetValue(name string, value int64) (ok bool) {
	defer d.recoverPanic(&ok)

	p, err := d.ensurePlayer()
	if err != nil {
		d.reportUnavailable(err)
		return false
	}

	if err := p.Set(name, value); err != nil {
		var unknown *layout.UnknownFieldError
		var readOnly *entity.ReadOnlyFieldError
		if !errors.As(err, &unknown) && !errors.As(err, &readOnly) && !errors.Is(err, entity.ErrValueOutOfRange) {
			d.player = nil
		}
		d.report("set %s = %d: %v", name, value, err)
		return false
	}
	d.log.Debugln("set", name, "=", value)
	return true
}
