// Package chain resolves pointer chains: a start address followed by fixed offsets and
// pointer dereferences, the way a value is located in a process with no stable API.
package chain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"h3mem/process"

	"github.com/Moonlight-Companies/gologger/logger"
)

var (
	// ErrChainResolution matches every failure returned by Resolver.Resolve.
	ErrChainResolution = errors.New("pointer chain resolution failed")

	// ErrPointerWidth is returned for pointer sizes other than 4 or 8 bytes, or when
	// an address leaves the space a pointer of that width can hold.
	ErrPointerWidth = errors.New("pointer width mismatch")
)

// Kind selects what a Step does.
type Kind uint8

const (
	KindAdd   Kind = iota // add a signed byte offset to the current address
	KindDeref             // replace the current address with the pointer stored at it
)

// Step is one hop of a chain.
type Step struct {
	Kind   Kind
	Offset int64 // KindAdd only
}

func Add(offset int64) Step {
	return Step{Kind: KindAdd, Offset: offset}
}

func Deref() Step {
	return Step{Kind: KindDeref}
}

// String renders the step as "+0x9c", "-0x10" or "*".
func (s Step) String() string {
	if s.Kind == KindDeref {
		return "*"
	}
	if s.Offset < 0 {
		return fmt.Sprintf("-0x%x", uint64(-s.Offset))
	}
	return fmt.Sprintf("+0x%x", uint64(s.Offset))
}

// ParseStep parses the String form; decimal offsets are accepted too.
func ParseStep(text string) (Step, error) {
	text = strings.TrimSpace(text)
	if text == "*" {
		return Deref(), nil
	}
	offset, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		return Step{}, fmt.Errorf("invalid chain step %q: want +offset, -offset or *", text)
	}
	return Add(offset), nil
}

// Spec is an ordered list of steps. It is never modified after construction.
type Spec []Step

func (s Spec) String() string {
	parts := make([]string, len(s))
	for i, step := range s {
		parts[i] = step.String()
	}
	return strings.Join(parts, " ")
}

// ParseSpec parses whitespace separated steps, e.g. "+0x2994e8 * +0x21620".
func ParseSpec(text string) (Spec, error) {
	var spec Spec
	for _, field := range strings.Fields(text) {
		step, err := ParseStep(field)
		if err != nil {
			return nil, err
		}
		spec = append(spec, step)
	}
	return spec, nil
}

// ResolutionError reports the step at which a chain could not be followed.
// Step is -1 when the chain was rejected before the first hop.
type ResolutionError struct {
	Step int
	At   process.ProcessMemoryAddress
	Err  error
}

func (e *ResolutionError) Error() string {
	if e.Step < 0 {
		return fmt.Sprintf("%v: %v", ErrChainResolution, e.Err)
	}
	return fmt.Sprintf("%v at step %d (address %s): %v", ErrChainResolution, e.Step, e.At.ToString(), e.Err)
}

func (e *ResolutionError) Unwrap() []error {
	return []error{ErrChainResolution, e.Err}
}

// Resolver follows chains through a process's memory.
type Resolver struct {
	Memory      process.Memory
	PointerSize process.ProcessMemorySize
	Log         *logger.Logger // optional hop trace
}

// Resolve applies spec to start. It returns the final address, or 0 and a *ResolutionError;
// there are no partial results.
func (r Resolver) Resolve(start process.ProcessMemoryAddress, spec Spec) (process.ProcessMemoryAddress, error) {
	if r.PointerSize != 4 && r.PointerSize != 8 {
		return 0, &ResolutionError{Step: -1, At: start, Err: fmt.Errorf("%w: %d bytes", ErrPointerWidth, r.PointerSize)}
	}

	limit := uint64(1<<32 - 1)
	if r.PointerSize == 8 {
		limit = ^uint64(0)
	}
	if uint64(start) > limit {
		return 0, &ResolutionError{Step: -1, At: start, Err: fmt.Errorf("%w: start address does not fit %d bytes", ErrPointerWidth, r.PointerSize)}
	}

	current := start
	for i, step := range spec {
		switch step.Kind {
		case KindAdd:
			next, ok := addOffset(current, step.Offset, limit)
			if !ok {
				return 0, &ResolutionError{Step: i, At: current, Err: fmt.Errorf("%w: %s%s leaves the address space", ErrPointerWidth, current.ToString(), step)}
			}
			current = next

		case KindDeref:
			ptr, err := process.ReadPOINTER(r.Memory, current, r.PointerSize)
			if err != nil {
				return 0, &ResolutionError{Step: i, At: current, Err: err}
			}
			if r.Log != nil {
				r.Log.Debugln("chain step", i, ":", "*"+current.ToString(), "=>", ptr.ToString())
			}
			if ptr == 0 {
				return 0, &ResolutionError{Step: i, At: current, Err: fmt.Errorf("null pointer: %w", process.ErrInvalidPointer)}
			}
			current = ptr

		default:
			return 0, &ResolutionError{Step: i, At: current, Err: fmt.Errorf("unknown step kind %d", step.Kind)}
		}
	}

	return current, nil
}

func addOffset(addr process.ProcessMemoryAddress, offset int64, limit uint64) (process.ProcessMemoryAddress, bool) {
	a := uint64(addr)
	if offset < 0 {
		d := uint64(-offset)
		if d > a {
			return 0, false
		}
		return process.ProcessMemoryAddress(a - d), true
	}
	d := uint64(offset)
	if d > limit || a > limit-d {
		return 0, false
	}
	return process.ProcessMemoryAddress(a + d), true
}
