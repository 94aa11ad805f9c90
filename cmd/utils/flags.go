// Copyright 2015 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

// Package utils contains internal helper functions for valreg commands.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/internal/flags"
	"github.com/tos-network/valreg/log"
	"github.com/tos-network/valreg/params"
	"github.com/tos-network/valreg/tosdb"
	"github.com/tos-network/valreg/tosdb/leveldb"
	"github.com/urfave/cli/v2"
)

// These are all the command line flags we support.
// If you add to this list, please remember to include the
// flag in the appropriate command definition.
//
// The flags are defined here so their names and help texts
// are the same for all commands.

var (
	// General settings
	DataDirFlag = &cli.StringFlag{
		Name:     "datadir",
		Usage:    "Data directory for the ledger database and validator index",
		Value:    DefaultDataDir(),
		Category: flags.LedgerCategory,
	}
	ConfigFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.LedgerCategory,
	}
	CacheFlag = &cli.IntFlag{
		Name:     "cache",
		Usage:    "Number of storage words kept in the state cache",
		Value:    4096,
		Category: flags.LedgerCategory,
	}

	// Genesis settings
	SystemOwnerFlag = &cli.StringFlag{
		Name:     "genesis.owner",
		Usage:    "Address of the system owner seeded as first validator",
		Category: flags.RegistryCategory,
	}
	GovernancePolicyFlag = &cli.StringFlag{
		Name:     "genesis.policy",
		Usage:    "Governance update policy (overwrite, ceremony-fixed)",
		Category: flags.RegistryCategory,
	}

	// Index settings
	IndexPathFlag = &cli.StringFlag{
		Name:     "index.sqlite",
		Usage:    "Path of the validator audit database (default: <datadir>/index/audit.sqlite)",
		Category: flags.IndexCategory,
	}
	NoIndexFlag = &cli.BoolFlag{
		Name:     "index.off",
		Usage:    "Do not maintain the validator audit database",
		Category: flags.IndexCategory,
	}

	// Logging
	LogLevelFlag = &cli.StringFlag{
		Name:     "log.level",
		Usage:    "Logging verbosity: trace, debug, info, warn, error",
		Value:    log.DefaultConfig.Level,
		Category: flags.LoggingCategory,
	}
	LogJSONFlag = &cli.BoolFlag{
		Name:     "log.json",
		Usage:    "Format logs with JSON",
		Category: flags.LoggingCategory,
	}
)

// LedgerFlags are shared by every command that opens the ledger.
var LedgerFlags = []cli.Flag{
	DataDirFlag,
	ConfigFileFlag,
	CacheFlag,
	IndexPathFlag,
	NoIndexFlag,
}

// LoggingFlags configure the root logger.
var LoggingFlags = []cli.Flag{
	LogLevelFlag,
	LogJSONFlag,
}

// DefaultDataDir is the default data directory to use for the databases.
func DefaultDataDir() string {
	home := flags.HomeDir()
	if home == "" {
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Valreg")
	case "windows":
		if appdata := os.Getenv("LOCALAPPDATA"); appdata != "" {
			return filepath.Join(appdata, "Valreg")
		}
		return filepath.Join(home, "AppData", "Local", "Valreg")
	default:
		return filepath.Join(home, ".valreg")
	}
}

// MakeDataDir retrieves the currently requested data directory, terminating
// if none (or the empty string) is specified.
func MakeDataDir(ctx *cli.Context) string {
	if path := ctx.String(DataDirFlag.Name); path != "" {
		return flags.ExpandPath(path)
	}
	Fatalf("Cannot determine default data directory, please set manually (--datadir)")
	return ""
}

// OpenLedgerDatabase opens the leveldb store of the ledger in datadir.
func OpenLedgerDatabase(datadir string, readonly bool) (tosdb.KeyValueStore, error) {
	path := filepath.Join(datadir, "chaindata")
	db, err := leveldb.New(path, 16, 16, readonly)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database %s: %w", path, err)
	}
	return db, nil
}

// SetupLogging applies the logging flags on top of cfg and installs the root
// logger.
func SetupLogging(ctx *cli.Context, cfg *log.Config) error {
	if ctx.IsSet(LogLevelFlag.Name) || cfg.Level == "" {
		cfg.Level = ctx.String(LogLevelFlag.Name)
	}
	if ctx.IsSet(LogJSONFlag.Name) {
		cfg.JSON = ctx.Bool(LogJSONFlag.Name)
	}
	return log.Setup(os.Stderr, *cfg)
}

// SetRegistryConfig applies the genesis flags on top of cfg.
func SetRegistryConfig(ctx *cli.Context, cfg *params.RegistryConfig) error {
	if ctx.IsSet(SystemOwnerFlag.Name) {
		owner := ctx.String(SystemOwnerFlag.Name)
		if !common.IsHexAddress(owner) {
			return fmt.Errorf("invalid system owner address %q", owner)
		}
		cfg.SystemOwner = common.HexToAddress(owner)
	}
	if ctx.IsSet(GovernancePolicyFlag.Name) {
		cfg.GovernancePolicy = params.GovernancePolicy(strings.TrimSpace(ctx.String(GovernancePolicyFlag.Name)))
	}
	return nil
}

// ParseAddress parses a hex address argument.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}
