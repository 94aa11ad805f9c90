package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tos-network/valreg/core/types"
	"github.com/tos-network/valreg/sysaction"
	"github.com/urfave/cli/v2"
)

type outputInspect struct {
	ID         string `json:"id"`
	Address    string `json:"address"`
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey,omitempty"`
}

var (
	privateFlag = &cli.BoolFlag{
		Name:  "private",
		Usage: "include the private key in the output",
	}
)

var commandInspect = &cli.Command{
	Name:      "inspect",
	Usage:     "inspect a keyfile",
	ArgsUsage: "<keyfile>",
	Description: `
Print various information about the keyfile.

Private key information can be printed by using the --private flag;
make sure to use this feature with great caution!`,
	Flags: []cli.Flag{
		jsonFlag,
		privateFlag,
	},
	Action: func(ctx *cli.Context) error {
		kf, key, err := readKeyFile(ctx.Args().First())
		if err != nil {
			return err
		}
		out := outputInspect{
			ID:        kf.ID,
			Address:   kf.Address.Hex(),
			PublicKey: hex.EncodeToString(key.PubKey().SerializeCompressed()),
		}
		if ctx.Bool(privateFlag.Name) {
			out.PrivateKey = kf.PrivateKey
		}
		if ctx.Bool(jsonFlag.Name) {
			return printJSON(ctx.App.Writer, out)
		}
		w := ctx.App.Writer
		fmt.Fprintln(w, "Address:       ", out.Address)
		fmt.Fprintln(w, "Public key:    ", out.PublicKey)
		if out.PrivateKey != "" {
			fmt.Fprintln(w, "Private key:   ", out.PrivateKey)
		}
		return nil
	},
}

type outputSender struct {
	Hash   string `json:"hash"`
	Sender string `json:"sender"`
	Nonce  uint64 `json:"nonce"`
	Action string `json:"action"`
}

var commandSender = &cli.Command{
	Name:      "sender",
	Usage:     "recover the signer of a signed transaction",
	ArgsUsage: "<txfile>",
	Action: func(ctx *cli.Context) error {
		blob, err := os.ReadFile(ctx.Args().First())
		if err != nil {
			return err
		}
		tx := new(types.Transaction)
		if err := json.Unmarshal(blob, tx); err != nil {
			return fmt.Errorf("invalid transaction: %w", err)
		}
		from, err := types.Sender(tx)
		if err != nil {
			return err
		}
		out := outputSender{Hash: tx.Hash().Hex(), Sender: from.Hex(), Nonce: tx.Nonce}
		if sa, err := sysaction.Decode(tx.Data); err == nil {
			out.Action = string(sa.Action)
		}
		return printJSON(ctx.App.Writer, out)
	},
}
