package lifecycle

import (
	"fmt"

	"github.com/tos-network/valreg/core/types"
	"github.com/tos-network/valreg/log"
	"github.com/tos-network/valreg/sysaction"
	"github.com/tos-network/valreg/validator"
)

func init() {
	sysaction.DefaultRegistry.Register(&lifecycleHandler{})
}

// lifecycleHandler implements sysaction.Handler for validator lifecycle actions.
type lifecycleHandler struct{}

func (h *lifecycleHandler) CanHandle(kind sysaction.ActionKind) bool {
	switch kind {
	case sysaction.ActionValidatorCeremonyInsert,
		sysaction.ActionValidatorGovernanceUpsert,
		sysaction.ActionValidatorSetDisablingDate:
		return true
	}
	return false
}

func (h *lifecycleHandler) Handle(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	switch sa.Action {
	case sysaction.ActionValidatorCeremonyInsert:
		return h.handleCeremonyInsert(ctx, sa)
	case sysaction.ActionValidatorGovernanceUpsert:
		return h.handleGovernanceUpsert(ctx, sa)
	case sysaction.ActionValidatorSetDisablingDate:
		return h.handleSetDisablingDate(ctx, sa)
	}
	return fmt.Errorf("lifecycle handler: unsupported action %q", sa.Action)
}

func metadataFromPayload(p *sysaction.ValidatorMetadataPayload) validator.Metadata {
	return validator.Metadata{
		Zip:              p.Zip,
		LicenseExpiredAt: p.LicenseExpiredAt,
		LicenseID:        p.LicenseID,
		FullName:         p.FullName,
		StreetName:       p.StreetName,
		State:            p.State,
	}
}

func (h *lifecycleHandler) handleCeremonyInsert(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.ValidatorMetadataPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return fmt.Errorf("ceremony insert: %w", err)
	}
	if err := InsertFromCeremony(ctx.StateDB, ctx.From, p.Mining, metadataFromPayload(&p)); err != nil {
		return err
	}
	rec, err := validator.Validator(ctx.StateDB, p.Mining)
	if err != nil {
		return err
	}
	log.Info("Validator added", "mining", p.Mining, "owner", ctx.From)
	ctx.Emit(types.ChangeEvent{
		Kind:      types.ValidatorAdded,
		Owner:     ctx.From,
		MiningKey: p.Mining,
		Validator: rec.Snapshot(),
	})
	return nil
}

func (h *lifecycleHandler) handleGovernanceUpsert(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.ValidatorMetadataPayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return fmt.Errorf("governance upsert: %w", err)
	}
	changed, err := UpsertFromGovernance(ctx.StateDB, ctx.Config, ctx.From, p.Mining, metadataFromPayload(&p))
	if err != nil {
		return err
	}
	rec, err := validator.Validator(ctx.StateDB, p.Mining)
	if err != nil {
		return err
	}
	log.Info("Validator updated", "mining", p.Mining, "fields", changed)
	ctx.Emit(types.ChangeEvent{
		Kind:      types.ValidatorUpdated,
		Owner:     OwnerOf(ctx.StateDB, p.Mining),
		MiningKey: p.Mining,
		Fields:    changed,
		Validator: rec.Snapshot(),
	})
	return nil
}

func (h *lifecycleHandler) handleSetDisablingDate(ctx *sysaction.Context, sa *sysaction.SysAction) error {
	var p sysaction.ValidatorDisablePayload
	if err := sysaction.DecodePayload(sa, &p); err != nil {
		return fmt.Errorf("set disabling date: %w", err)
	}
	if _, err := SetDisablingDate(ctx.StateDB, ctx.Config, ctx.From, p.Mining, p.DisablingDate); err != nil {
		return err
	}
	rec, err := validator.Validator(ctx.StateDB, p.Mining)
	if err != nil {
		return err
	}
	kind := types.ValidatorDisabled
	if p.DisablingDate == 0 {
		kind = types.ValidatorEnabled
	}
	log.Info("Validator status changed", "mining", p.Mining, "status", rec.Status())
	ctx.Emit(types.ChangeEvent{
		Kind:      kind,
		Owner:     OwnerOf(ctx.StateDB, p.Mining),
		MiningKey: p.Mining,
		Fields:    []string{"disablingDate"},
		Validator: rec.Snapshot(),
	})
	return nil
}
