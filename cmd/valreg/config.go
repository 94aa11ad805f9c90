package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"github.com/tos-network/valreg/cmd/utils"
	"github.com/tos-network/valreg/internal/flags"
	"github.com/tos-network/valreg/log"
	"github.com/tos-network/valreg/params"
	"github.com/urfave/cli/v2"
)

const configKey = "valreg.config"

var dumpConfigCommand = &cli.Command{
	Action:      dumpConfig,
	Name:        "dumpconfig",
	Usage:       "Show configuration values",
	ArgsUsage:   "[<file>]",
	Description: `The dumpconfig command shows configuration values.`,
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type indexConfig struct {
	SQLitePath string `toml:",omitempty"`
	Disabled   bool   `toml:",omitempty"`
}

type valregConfig struct {
	DataDir  string
	Cache    int
	Log      log.Config
	Registry params.RegistryConfig
	Index    indexConfig
}

func defaultConfig() *valregConfig {
	return &valregConfig{
		DataDir: utils.DefaultDataDir(),
		Cache:   utils.CacheFlag.Value,
		Log:     log.DefaultConfig,
		Registry: params.RegistryConfig{
			GovernancePolicy: params.GovernanceOverwrite,
		},
	}
}

func loadConfig(file string, cfg *valregConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the configuration file, if any, and applies the command
// line flags on top of it.
func makeConfig(ctx *cli.Context) (*valregConfig, error) {
	cfg := defaultConfig()
	if file := ctx.String(utils.ConfigFileFlag.Name); file != "" {
		if err := loadConfig(file, cfg); err != nil {
			return nil, err
		}
	}
	if ctx.IsSet(utils.DataDirFlag.Name) || cfg.DataDir == "" {
		cfg.DataDir = utils.MakeDataDir(ctx)
	}
	cfg.DataDir = flags.ExpandPath(cfg.DataDir)
	if ctx.IsSet(utils.CacheFlag.Name) {
		cfg.Cache = ctx.Int(utils.CacheFlag.Name)
	}
	if ctx.IsSet(utils.IndexPathFlag.Name) {
		cfg.Index.SQLitePath = ctx.String(utils.IndexPathFlag.Name)
	}
	if ctx.IsSet(utils.NoIndexFlag.Name) {
		cfg.Index.Disabled = ctx.Bool(utils.NoIndexFlag.Name)
	}
	if err := utils.SetRegistryConfig(ctx, &cfg.Registry); err != nil {
		return nil, err
	}
	return cfg, nil
}

// indexPath is the location of the audit database.
func (c *valregConfig) indexPath() string {
	if c.Index.SQLitePath != "" {
		return flags.ExpandPath(c.Index.SQLitePath)
	}
	return filepath.Join(c.DataDir, "index", "audit.sqlite")
}

func configFrom(ctx *cli.Context) *valregConfig {
	if cfg, ok := ctx.App.Metadata[configKey].(*valregConfig); ok {
		return cfg
	}
	utils.Fatalf("Configuration not loaded")
	return nil
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg := configFrom(ctx)
	out, err := tomlSettings.Marshal(cfg)
	if err != nil {
		return err
	}

	dump := ctx.App.Writer
	if ctx.NArg() > 0 {
		f, err := os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		dump = f
	}
	_, err = dump.Write(out)
	return err
}
