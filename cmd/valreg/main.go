// valreg is the command line interface of the validator registry ledger.
package main

import (
	"fmt"
	"os"

	"github.com/tos-network/valreg/cmd/utils"
	"github.com/tos-network/valreg/internal/flags"
	"github.com/urfave/cli/v2"

	// Register the registry action handlers.
	_ "github.com/tos-network/valreg/keys"
	_ "github.com/tos-network/valreg/lifecycle"
)

const clientIdentifier = "valreg"

// Git SHA1 commit hash of the release (set via linker flags)
var gitCommit = ""
var gitDate = ""

var app = newApp()

func newApp() *cli.App {
	app := flags.NewApp(gitCommit, gitDate, "the validator registry command line interface")
	app.Name = clientIdentifier
	app.Flags = append(append(append([]cli.Flag{}, utils.LedgerFlags...), utils.LoggingFlags...),
		utils.SystemOwnerFlag, utils.GovernancePolicyFlag)
	app.Commands = []*cli.Command{
		initCommand,
		applyCommand,
		validatorsCommand,
		validatorCommand,
		bindingCommand,
		resolveCommand,
		nonceCommand,
		receiptCommand,
		historyCommand,
		queryCommand,
		dumpConfigCommand,
		versionCommand,
	}
	app.Before = func(ctx *cli.Context) error {
		cfg, err := makeConfig(ctx)
		if err != nil {
			return err
		}
		if err := utils.SetupLogging(ctx, &cfg.Log); err != nil {
			return err
		}
		ctx.App.Metadata = map[string]interface{}{configKey: cfg}
		return nil
	}
	return app
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
