package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/tos-network/valreg/crypto"
	"github.com/tos-network/valreg/sysaction"
	"github.com/urfave/cli/v2"
)

type outputGenerate struct {
	Address        string `json:"address"`
	Keyfile        string `json:"keyfile"`
	DerivationPath string `json:"derivationPath,omitempty"`
	Mnemonic       string `json:"mnemonic,omitempty"`
}

var (
	privateKeyFlag = &cli.StringFlag{
		Name:  "privatekey",
		Usage: "file containing a raw hex private key to import",
	}
	mnemonicGenerateFlag = &cli.BoolFlag{
		Name:  "mnemonic-generate",
		Usage: "Generate a BIP39 mnemonic and derive key using --hd-path",
	}
	mnemonicFlag = &cli.StringFlag{
		Name:  "mnemonic",
		Usage: "Use existing BIP39 mnemonic to derive the key",
	}
	mnemonicPassphraseFlag = &cli.StringFlag{
		Name:  "mnemonic-passphrase",
		Usage: "Optional BIP39 passphrase for mnemonic-to-seed",
	}
	mnemonicBitsFlag = &cli.IntFlag{
		Name:  "mnemonic-bits",
		Usage: "Entropy bits for generated mnemonic (128,160,192,224,256)",
		Value: defaultMnemonicBits,
	}
	hdPathFlag = &cli.StringFlag{
		Name:  "hd-path",
		Usage: "Derivation path used with mnemonic flow",
		Value: defaultHDPath,
	}
)

var commandGenerate = &cli.Command{
	Name:      "generate",
	Usage:     "generate new keyfile",
	ArgsUsage: "[ <keyfile> ]",
	Description: `
Generate a new keyfile.

If you want to import an existing private key, it can be specified by setting
--privatekey with the location of the file containing the private key.
With --mnemonic or --mnemonic-generate the key is derived from a BIP39
mnemonic along --hd-path.
`,
	Flags: []cli.Flag{
		jsonFlag,
		privateKeyFlag,
		mnemonicGenerateFlag,
		mnemonicFlag,
		mnemonicPassphraseFlag,
		mnemonicBitsFlag,
		hdPathFlag,
	},
	Action: func(ctx *cli.Context) error {
		keyfilepath := ctx.Args().First()
		if keyfilepath == "" {
			keyfilepath = defaultKeyfileName
		}

		var (
			key            *btcec.PrivateKey
			err            error
			derivationPath string
			mnemonicOutput string
			mnemonicInput  = strings.TrimSpace(ctx.String(mnemonicFlag.Name))
			mnemonicMode   = mnemonicInput != "" || ctx.Bool(mnemonicGenerateFlag.Name)
		)
		switch {
		case ctx.String(privateKeyFlag.Name) != "":
			if mnemonicMode {
				return fmt.Errorf("can't use --privatekey with mnemonic flags")
			}
			key, err = crypto.LoadPrivateKey(ctx.String(privateKeyFlag.Name))
			if err != nil {
				return fmt.Errorf("can't load private key: %w", err)
			}
		case mnemonicMode:
			if mnemonicInput == "" {
				mnemonicInput, err = generateMnemonic(ctx.Int(mnemonicBitsFlag.Name))
				if err != nil {
					return fmt.Errorf("failed to generate mnemonic: %w", err)
				}
				mnemonicOutput = mnemonicInput
			}
			derivationPath = ctx.String(hdPathFlag.Name)
			key, err = deriveKeyFromMnemonic(mnemonicInput, ctx.String(mnemonicPassphraseFlag.Name), derivationPath)
			if err != nil {
				return fmt.Errorf("failed to derive private key from mnemonic: %w", err)
			}
		default:
			key, err = crypto.GenerateKey()
			if err != nil {
				return fmt.Errorf("failed to generate random private key: %w", err)
			}
		}

		kf, err := newKeyFile(key, derivationPath)
		if err != nil {
			return err
		}
		if err := writeKeyFile(keyfilepath, kf); err != nil {
			return err
		}

		out := outputGenerate{
			Address:        kf.Address.Hex(),
			Keyfile:        keyfilepath,
			DerivationPath: derivationPath,
			Mnemonic:       mnemonicOutput,
		}
		if ctx.Bool(jsonFlag.Name) {
			return printJSON(ctx.App.Writer, out)
		}
		w := ctx.App.Writer
		fmt.Fprintln(w, "Address:", out.Address)
		if out.DerivationPath != "" {
			fmt.Fprintln(w, "Derivation path:", out.DerivationPath)
		}
		if out.Mnemonic != "" {
			fmt.Fprintln(w, "Mnemonic:", out.Mnemonic)
		}
		return nil
	},
}

var commandGenerateTriple = &cli.Command{
	Name:      "generate-triple",
	Usage:     "generate the mining, payout and voting keys of a validator",
	ArgsUsage: "<directory>",
	Description: `
Generate three fresh keyfiles (mining.json, payout.json, voting.json) in the
given directory and print the KEYS_CREATE payload that binds them.`,
	Action: func(ctx *cli.Context) error {
		dir := ctx.Args().First()
		if dir == "" {
			return fmt.Errorf("no output directory given")
		}
		var addrs [3]*keyFile
		for i, role := range []string{"mining", "payout", "voting"} {
			key, err := crypto.GenerateKey()
			if err != nil {
				return fmt.Errorf("failed to generate random private key: %w", err)
			}
			kf, err := newKeyFile(key, "")
			if err != nil {
				return err
			}
			if err := writeKeyFile(filepath.Join(dir, role+".json"), kf); err != nil {
				return err
			}
			addrs[i] = kf
		}
		return printJSON(ctx.App.Writer, sysaction.KeysCreatePayload{
			Mining: addrs[0].Address,
			Payout: addrs[1].Address,
			Voting: addrs[2].Address,
		})
	},
}
