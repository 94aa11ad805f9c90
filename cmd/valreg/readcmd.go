package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/tos-network/valreg/cmd/utils"
	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/core"
	"github.com/tos-network/valreg/keys"
	"github.com/tos-network/valreg/params"
	"github.com/tos-network/valreg/validator"
	"github.com/tos-network/valreg/validatoridx"
	"github.com/urfave/cli/v2"
)

var (
	allFlag = &cli.BoolFlag{
		Name:  "all",
		Usage: "include disabled validators",
	}
	stateFlag = &cli.StringFlag{
		Name:  "state",
		Usage: "only validators registered in this state",
	}
	expiringFlag = &cli.Uint64Flag{
		Name:  "expiring-before",
		Usage: "only validators whose license expires before this Unix time",
	}
	filterFlag = &cli.StringFlag{
		Name:  "filter",
		Usage: `boolean expression over index fields, e.g. 'zip == 644081 and fullName matches "^Ivan"'`,
	}
	limitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "maximum number of results",
		Value: 100,
	}
)

var (
	validatorsCommand = &cli.Command{
		Action: listValidators,
		Name:   "validators",
		Usage:  "List the validator set",
		Flags:  []cli.Flag{allFlag},
		Description: `
Lists the active validator set in insertion order. With --all, disabled
validators are listed as well.`,
	}
	validatorCommand = &cli.Command{
		Action:    showValidator,
		Name:      "validator",
		Usage:     "Print the full record of a validator",
		ArgsUsage: "<miningKey>",
	}
	bindingCommand = &cli.Command{
		Action:    showBinding,
		Name:      "binding",
		Usage:     "Print the key binding of an owner",
		ArgsUsage: "<owner>",
	}
	resolveCommand = &cli.Command{
		Action:    resolveKey,
		Name:      "resolve",
		Usage:     "Resolve a mining, payout or voting key to its owner",
		ArgsUsage: "<key>",
	}
	nonceCommand = &cli.Command{
		Action:    showNonce,
		Name:      "nonce",
		Usage:     "Print the next nonce expected from an address",
		ArgsUsage: "<address>",
	}
	receiptCommand = &cli.Command{
		Action:    showReceipt,
		Name:      "receipt",
		Usage:     "Print a logged receipt",
		ArgsUsage: "<seq>",
	}
	historyCommand = &cli.Command{
		Action:    showHistory,
		Name:      "history",
		Usage:     "Print the change history of a validator",
		ArgsUsage: "<miningKey>",
	}
	queryCommand = &cli.Command{
		Action: queryValidators,
		Name:   "query",
		Usage:  "Search the validator index",
		Flags:  []cli.Flag{stateFlag, expiringFlag, allFlag, filterFlag, limitFlag},
		Description: `
Searches the validator index. Filter expressions may use miningKey, owner,
zip, licenseExpiredAt, licenseID, fullName, streetName, state, disablingDate,
disabled, genesis, addedSeq and updatedSeq.`,
	}
)

// withLedger runs fn against the initialized ledger of the data directory.
func withLedger(ctx *cli.Context, fn func(*core.Ledger) error) error {
	ledger, db, err := openLedger(configFrom(ctx), nil)
	if err != nil {
		return err
	}
	defer db.Close()
	defer ledger.Close()
	return fn(ledger)
}

func addressArg(ctx *cli.Context) (common.Address, error) {
	if ctx.NArg() != 1 {
		return common.Address{}, fmt.Errorf("expected exactly one address argument, have %d", ctx.NArg())
	}
	return utils.ParseAddress(ctx.Args().First())
}

func statusString(status validator.Status) string {
	if status.Active() {
		return color.GreenString("active")
	}
	return color.RedString("disabled since %s", formatTime(status.At))
}

func formatTime(ts uint64) string {
	if ts == 0 {
		return "-"
	}
	return params.UnixSecondsToTime(ts).Format("2006-01-02")
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	return table
}

func listValidators(ctx *cli.Context) error {
	return withLedger(ctx, func(ledger *core.Ledger) error {
		list := ledger.GetValidators()
		if ctx.Bool(allFlag.Name) {
			list = ledger.AllValidators()
		}
		table := newTable(ctx.App.Writer, "#", "Mining key", "Owner", "Full name", "State", "License expires", "Status")
		for i, mining := range list {
			rec, err := ledger.Validator(mining)
			if err != nil {
				return err
			}
			owner := "-"
			if o, role, err := ledger.ResolveOwner(mining); err == nil && role == keys.RoleMining {
				owner = o.Hex()
			} else if mining == ledger.Config().SystemOwner {
				owner = "genesis"
			}
			table.Append([]string{
				strconv.Itoa(i),
				mining.Hex(),
				owner,
				rec.Metadata.FullName,
				rec.Metadata.State,
				formatTime(rec.Metadata.LicenseExpiredAt),
				statusString(rec.Status()),
			})
		}
		table.Render()
		return nil
	})
}

type validatorOutput struct {
	validator.Record
	Status string `json:"status"`
}

func showValidator(ctx *cli.Context) error {
	mining, err := addressArg(ctx)
	if err != nil {
		return err
	}
	return withLedger(ctx, func(ledger *core.Ledger) error {
		rec, err := ledger.Validator(mining)
		if err != nil {
			return err
		}
		return printJSON(ctx.App.Writer, validatorOutput{Record: rec, Status: rec.Status().String()})
	})
}

func showBinding(ctx *cli.Context) error {
	owner, err := addressArg(ctx)
	if err != nil {
		return err
	}
	return withLedger(ctx, func(ledger *core.Ledger) error {
		binding, err := ledger.Binding(owner)
		if err != nil {
			return err
		}
		return printJSON(ctx.App.Writer, binding)
	})
}

func resolveKey(ctx *cli.Context) error {
	key, err := addressArg(ctx)
	if err != nil {
		return err
	}
	return withLedger(ctx, func(ledger *core.Ledger) error {
		owner, role, err := ledger.ResolveOwner(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "Owner: %s\nRole:  %s\n", owner.Hex(), role)
		return nil
	})
}

func showNonce(ctx *cli.Context) error {
	addr, err := addressArg(ctx)
	if err != nil {
		return err
	}
	return withLedger(ctx, func(ledger *core.Ledger) error {
		fmt.Fprintln(ctx.App.Writer, ledger.Nonce(addr))
		return nil
	})
}

func showReceipt(ctx *cli.Context) error {
	seq, err := strconv.ParseUint(ctx.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid sequence number %q", ctx.Args().First())
	}
	return withLedger(ctx, func(ledger *core.Ledger) error {
		receipt := ledger.Receipt(seq)
		if receipt == nil {
			return fmt.Errorf("no receipt at sequence %d", seq)
		}
		return printJSON(ctx.App.Writer, receipt)
	})
}

func showHistory(ctx *cli.Context) error {
	mining, err := addressArg(ctx)
	if err != nil {
		return err
	}
	cfg := configFrom(ctx)
	if cfg.Index.Disabled {
		return errors.New("validator history needs the index (remove --index.off)")
	}
	return withLedger(ctx, func(ledger *core.Ledger) error {
		_, store, err := syncIndex(cfg, ledger)
		if err != nil {
			return err
		}
		defer store.Close()

		rows, err := store.History(mining)
		if err != nil {
			return err
		}
		table := newTable(ctx.App.Writer, "Seq", "Time", "Change", "Caller", "Fields")
		for _, row := range rows {
			table.Append([]string{
				strconv.FormatUint(row.Seq, 10),
				params.UnixSecondsToTime(row.Time).Format(time.RFC3339),
				row.Kind,
				row.Caller,
				strings.ReplaceAll(row.Fields, ",", ", "),
			})
		}
		table.Render()
		return nil
	})
}

func queryValidators(ctx *cli.Context) error {
	cfg := configFrom(ctx)
	q := validatoridx.Query{
		State:                 ctx.String(stateFlag.Name),
		LicenseExpiringBefore: ctx.Uint64(expiringFlag.Name),
		IncludeDisabled:       ctx.Bool(allFlag.Name),
		Limit:                 ctx.Int(limitFlag.Name),
	}
	if expr := ctx.String(filterFlag.Name); expr != "" {
		f, err := validatoridx.NewFilter(expr)
		if err != nil {
			return err
		}
		q.Filter = f
	}
	return withLedger(ctx, func(ledger *core.Ledger) error {
		registry, store, err := syncIndex(cfg, ledger)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}
		return printJSON(ctx.App.Writer, registry.Query(q))
	})
}
