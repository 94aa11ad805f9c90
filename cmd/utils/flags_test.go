// Copyright 2019 The go-ethereum Authors
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

package utils

import (
	"flag"
	"path/filepath"
	"testing"

	"github.com/tos-network/valreg/common"
	"github.com/tos-network/valreg/params"
	"github.com/urfave/cli/v2"
)

func newContext(t *testing.T, fl []cli.Flag, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range fl {
		if err := f.Apply(set); err != nil {
			t.Fatalf("apply flag: %v", err)
		}
	}
	if err := set.Parse(args); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestSetRegistryConfig(t *testing.T) {
	fl := []cli.Flag{SystemOwnerFlag, GovernancePolicyFlag}
	tests := []struct {
		args    []string
		want    params.RegistryConfig
		wantErr bool
	}{
		{
			args: nil,
			want: params.RegistryConfig{SystemOwner: common.Address{1}},
		},
		{
			args: []string{"--genesis.owner", "0x00000000000000000000000000000000000000ee", "--genesis.policy", "ceremony-fixed"},
			want: params.RegistryConfig{SystemOwner: common.HexToAddress("0xee"), GovernancePolicy: params.GovernanceCeremonyFixed},
		},
		{
			args:    []string{"--genesis.owner", "0xnothex"},
			wantErr: true,
		},
	}
	for i, tt := range tests {
		cfg := params.RegistryConfig{SystemOwner: common.Address{1}}
		err := SetRegistryConfig(newContext(t, fl, tt.args...), &cfg)
		if tt.wantErr {
			if err == nil {
				t.Errorf("test %d: expected error", i)
			}
			continue
		}
		if err != nil {
			t.Errorf("test %d: unexpected error: %v", i, err)
			continue
		}
		if cfg != tt.want {
			t.Errorf("test %d: have %v, want %v", i, cfg, tt.want)
		}
	}
}

func TestMakeDataDirExpands(t *testing.T) {
	t.Setenv("HOME", "/home/someuser")
	ctx := newContext(t, []cli.Flag{DataDirFlag}, "--datadir", "~/registry/")
	if have, want := MakeDataDir(ctx), filepath.Join("/home/someuser", "registry"); have != want {
		t.Errorf("datadir: have %s, want %s", have, want)
	}
}

func TestOpenLedgerDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenLedgerDatabase(dir, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	db.Close()

	db, err = OpenLedgerDatabase(dir, true)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	if v, err := db.Get([]byte("k")); err != nil || string(v) != "v" {
		t.Errorf("value lost across reopen: %q %v", v, err)
	}
}
