package sysaction

import (
	"errors"
	"fmt"

	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core/types"
	"github.com/tos-network/valreg/core/vm"
	"github.com/tos-network/valreg/params"
)

// ErrUnknownAction is returned when no handler claims an action kind.
var ErrUnknownAction = errors.New("unknown system action")

// Context carries information available to a system-action handler.
type Context struct {
	From    common.Address
	Time    uint64
	Config  *params.RegistryConfig
	StateDB vm.StateDB

	events []types.ChangeEvent
}

// Emit records a change event. Events are only published if the action as a
// whole succeeds.
func (ctx *Context) Emit(ev types.ChangeEvent) {
	if ev.Caller == (common.Address{}) {
		ev.Caller = ctx.From
	}
	if ev.Time == 0 {
		ev.Time = ctx.Time
	}
	ctx.events = append(ctx.events, ev)
}

// Events returns the events emitted so far.
func (ctx *Context) Events() []types.ChangeEvent {
	return ctx.events
}

// Handler is implemented by the keys and lifecycle sub-systems.
type Handler interface {
	CanHandle(kind ActionKind) bool
	Handle(ctx *Context, sa *SysAction) error
}

// Registry holds registered handlers.
type Registry struct{ handlers []Handler }

// DefaultRegistry is the process-wide handler registry.
var DefaultRegistry = &Registry{}

// Register adds a handler to the registry.
func (r *Registry) Register(h Handler) { r.handlers = append(r.handlers, h) }

// Kinds lists the action kinds claimed by at least one registered handler,
// out of the given candidates.
func (r *Registry) Kinds(candidates ...ActionKind) []ActionKind {
	var out []ActionKind
	for _, k := range candidates {
		if r.lookup(k) != nil {
			out = append(out, k)
		}
	}
	return out
}

func (r *Registry) lookup(kind ActionKind) Handler {
	for _, h := range r.handlers {
		if h.CanHandle(kind) {
			return h
		}
	}
	return nil
}

// Execute decodes data and dispatches it to the matching handler. Any error
// reverts every state write the handler made, and no events are returned.
func (r *Registry) Execute(ctx *Context, data []byte) ([]types.ChangeEvent, error) {
	sa, err := Decode(data)
	if err != nil {
		return nil, err
	}
	h := r.lookup(sa.Action)
	if h == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, sa.Action)
	}
	snap := ctx.StateDB.Snapshot()
	ctx.events = nil
	if err := h.Handle(ctx, sa); err != nil {
		ctx.StateDB.RevertToSnapshot(snap)
		ctx.events = nil
		return nil, err
	}
	return ctx.events, nil
}

// Execute dispatches using DefaultRegistry.
func Execute(ctx *Context, data []byte) ([]types.ChangeEvent, error) {
	return DefaultRegistry.Execute(ctx, data)
}
