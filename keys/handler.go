package keys

import (
	"fmt"

	"github.com/tos-network/valreg/core/types"
	"github.com/tos-network/valreg/log"
	"github.com/tos-network/valreg/sysaction"
)

func init() {
	sysaction.DefaultRegistry.Register(&keysHandler{})
}

// keysHandler implements sysaction.Handler for key binding actions.
type keysHandler struct{}

func (h *keysHandler) CanHandle(kind sysaction.ActionKind) bool {
	switch kind {
	case sysaction.ActionKeysAddInitial, sysaction.ActionKeysCreate:
		return true
	}
	return false
}

func (h *keysHandler) Handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	switch sa.Action {
	case sysaction.ActionKeysAddInitial:
		return h.handleAddInitial(ctx, sa)
	case sysaction.ActionKeysCreate:
		return h.handleCreate(ctx, sa)
	}
	return fmt.Errorf("keys handler: unsupported action %q", sa.Action)
}

func (h *keysHandler) handleAddInitial(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.KeysAddInitialPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return fmt.Errorf("keys add initial: %w", err)
	}
	if err := AddInitialKey(ctx.StateDB, ctx.Config, ctx.From, p.Owner); err != nil {
		return err
	}
	log.Debug("Authorized key owner", "owner", p.Owner)
	ctx.Emit(types.ChangeEvent{Kind: types.KeysInitialized, Owner: p.Owner})
	return nil
}

func (h *keysHandler) handleCreate(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.KeysCreatePayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return fmt.Errorf("keys create: %w", err)
	}
	if err := CreateKeys(ctx.StateDB, ctx.From, p.Mining, p.Payout, p.Voting); err != nil {
		return err
	}
	log.Debug("Bound key triple", "owner", ctx.From, "mining", p.Mining)
	ctx.Emit(types.ChangeEvent{
		Kind:      types.KeysCreated,
		Owner:     ctx.From,
		MiningKey: p.Mining,
		Payout:    p.Payout,
		Voting:    p.Voting,
	})
	return nil
}
