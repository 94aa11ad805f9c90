package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tos-network/valreg/core/types"
	"github.com/tos-network/valreg/sysaction"
	"github.com/urfave/cli/v2"

	// Register the registry action handlers.
	_ "github.com/tos-network/valreg/keys"
	_ "github.com/tos-network/valreg/lifecycle"
)

var (
	keyfileFlag = &cli.StringFlag{
		Name:     "key",
		Usage:    "keyfile of the signing account",
		Required: true,
	}
	nonceFlag = &cli.Uint64Flag{
		Name:  "nonce",
		Usage: "account nonce of the transaction (see 'valreg nonce')",
	}
	outFlag = &cli.StringFlag{
		Name:  "out",
		Usage: "append the signed transaction to this file instead of printing it",
	}
)

// payloadTypes maps every action kind onto its payload type.
var payloadTypes = map[sysaction.ActionKind]func() interface{}{
	sysaction.ActionKeysAddInitial:            func() interface{} { return new(sysaction.KeysAddInitialPayload) },
	sysaction.ActionKeysCreate:                func() interface{} { return new(sysaction.KeysCreatePayload) },
	sysaction.ActionValidatorCeremonyInsert:   func() interface{} { return new(sysaction.ValidatorMetadataPayload) },
	sysaction.ActionValidatorGovernanceUpsert: func() interface{} { return new(sysaction.ValidatorMetadataPayload) },
	sysaction.ActionValidatorSetDisablingDate: func() interface{} { return new(sysaction.ValidatorDisablePayload) },
}

var commandSign = &cli.Command{
	Name:      "sign",
	Usage:     "sign a registry transaction",
	ArgsUsage: "<action> <payload>",
	Description: `
Sign a registry transaction. The payload is a JSON object, "@file" to read it
from a file, or "-" for standard input. The signed transaction is printed as
one line of JSON which 'valreg apply' accepts.

Actions: KEYS_ADD_INITIAL, KEYS_CREATE, VALIDATOR_CEREMONY_INSERT,
VALIDATOR_GOVERNANCE_UPSERT, VALIDATOR_SET_DISABLING_DATE.`,
	Flags: []cli.Flag{
		keyfileFlag,
		nonceFlag,
		outFlag,
	},
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 2 {
			return fmt.Errorf("expected <action> <payload>, have %d arguments", ctx.NArg())
		}
		kind := sysaction.ActionKind(strings.ToUpper(ctx.Args().Get(0)))
		newPayload, ok := payloadTypes[kind]
		if !ok || len(sysaction.DefaultRegistry.Kinds(kind)) == 0 {
			return fmt.Errorf("%w: %s", sysaction.ErrUnknownAction, kind)
		}
		raw, err := readPayload(ctx, ctx.Args().Get(1))
		if err != nil {
			return err
		}
		payload := newPayload()
		if err := sysaction.DecodePayload(&sysaction.SysAction{Action: kind, Payload: raw}, payload); err != nil {
			return err
		}
		data, err := sysaction.MakeSysAction(kind, payload)
		if err != nil {
			return err
		}

		_, key, err := readKeyFile(ctx.String(keyfileFlag.Name))
		if err != nil {
			return err
		}
		tx, err := types.SignTx(types.NewTransaction(ctx.Uint64(nonceFlag.Name), data), key)
		if err != nil {
			return err
		}
		enc, err := json.Marshal(tx)
		if err != nil {
			return err
		}
		enc = append(enc, '\n')

		if path := ctx.String(outFlag.Name); path != "" {
			f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = f.Write(enc)
			return err
		}
		_, err = ctx.App.Writer.Write(enc)
		return err
	},
}

func readPayload(ctx *cli.Context, arg string) (json.RawMessage, error) {
	var (
		blob []byte
		err  error
	)
	switch {
	case arg == "-":
		blob, err = io.ReadAll(ctx.App.Reader)
	case strings.HasPrefix(arg, "@"):
		blob, err = os.ReadFile(arg[1:])
	default:
		blob = []byte(arg)
	}
	if err != nil {
		return nil, err
	}
	blob = bytes.TrimSpace(blob)
	if !json.Valid(blob) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}
	return blob, nil
}
