package params

import (
	"testing"

	"github.com/tos-network/valreg/common"
)

func TestRegistryConfigValidate(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tests := []struct {
		cfg     RegistryConfig
		wantErr bool
	}{
		{cfg: RegistryConfig{}, wantErr: true},
		{cfg: RegistryConfig{SystemOwner: owner}},
		{cfg: RegistryConfig{SystemOwner: owner, GovernancePolicy: GovernanceCeremonyFixed}},
		{cfg: RegistryConfig{SystemOwner: owner, GovernancePolicy: "freeze-all"}, wantErr: true},
	}
	for i, tc := range tests {
		err := tc.cfg.Validate()
		if (err != nil) != tc.wantErr {
			t.Fatalf("case %d: have err %v, wantErr %v", i, err, tc.wantErr)
		}
	}
}

func TestRegistryConfigDefaultPolicy(t *testing.T) {
	var nilCfg *RegistryConfig
	if p := nilCfg.Policy(); p != GovernanceOverwrite {
		t.Fatalf("nil config policy: have %q", p)
	}
	if p := (&RegistryConfig{}).Policy(); p != GovernanceOverwrite {
		t.Fatalf("empty config policy: have %q", p)
	}
}

func TestUnixSecondsToTime(t *testing.T) {
	if !UnixSecondsToTime(0).IsZero() {
		t.Fatalf("zero timestamp should map to zero time")
	}
	if got := UnixSecondsToTime(1893456000).Year(); got != 2030 {
		t.Fatalf("have year %d want 2030", got)
	}
}

func TestVersionWithCommit(t *testing.T) {
	if v := VersionWithCommit("0123456789abcdef", ""); v != VersionWithMeta+"-01234567" {
		t.Fatalf("unexpected version %q", v)
	}
}
