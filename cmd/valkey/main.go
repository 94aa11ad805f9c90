// valkey manages the secp256k1 keys of registry participants and signs
// registry transactions offline.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tos-network/valreg/internal/flags"
	"github.com/urfave/cli/v2"
)

const (
	defaultKeyfileName = "keyfile.json"
)

// Git SHA1 commit hash of the release (set via linker flags)
var gitCommit = ""
var gitDate = ""

var app = newApp()

func newApp() *cli.App {
	app := flags.NewApp(gitCommit, gitDate, "a validator registry key manager")
	app.Name = "valkey"
	app.Commands = []*cli.Command{
		commandGenerate,
		commandGenerateTriple,
		commandInspect,
		commandSign,
		commandSender,
	}
	return app
}

// Commonly used command line flags.
var (
	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "output JSON instead of human-readable format",
	}
)

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
