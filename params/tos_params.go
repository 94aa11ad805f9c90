// Copyright 2024 The gtos Authors
// This file is part of the gtos library.
//
// The gtos library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The gtos library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the gtos library. If not, see <http://www.gnu.org/licenses/>.

package params

import (
	"github.com/tos-network/valreg/common"
)

// Registry system addresses. Their storage holds
// the registry tables.
var (
	// LedgerAddress stores per-sender transaction nonces.
	LedgerAddress = common.HexToAddress("0x0000000000000000000000000000000056414C30") // "VAL0"

	// KeyRegistryAddress stores key bindings and the role-key index.
	KeyRegistryAddress = common.HexToAddress("0x0000000000000000000000000000000056414C31") // "VAL1"

	// ValidatorRegistryAddress stores validator records and the ordered validator list.
	ValidatorRegistryAddress = common.HexToAddress("0x0000000000000000000000000000000056414C32") // "VAL2"

	// LifecycleManagerAddress is the only caller the validator registry accepts
	// writes from. Transactions are never signed by it; the lifecycle handlers
	// act under this identity after authorizing the real sender. Its own
	// storage records which disabling dates the system owner set.
	LifecycleManagerAddress = common.HexToAddress("0x0000000000000000000000000000000056414C33") // "VAL3"
)

// MaxMetadataStringLength bounds every string field of a validator record.
// Longer values are rejected before any write.
const MaxMetadataStringLength = 256
