package types

import (
	"github.com/tos-network/valreg/common"
)

const (
	// ReceiptStatusFailed is the status code of a transaction that was logged
	// but rejected by the registry; state is unchanged apart from the nonce.
	ReceiptStatusFailed = uint64(0)

	// ReceiptStatusSuccessful is the status code of an applied transaction.
	ReceiptStatusSuccessful = uint64(1)
)

// Receipt is the ledger's record of one logged transaction.
type Receipt struct {
	Seq    uint64         `json:"seq"`
	TxHash common.Hash    `json:"txHash"`
	From   common.Address `json:"from"`
	Nonce  uint64         `json:"nonce"`
	Action string         `json:"action"`
	Time   uint64         `json:"time"`
	Status uint64         `json:"status"`
	Err    string         `json:"error,omitempty"`
	Events []ChangeEvent  `json:"events,omitempty"`
}

// Succeeded reports whether the transaction was applied.
func (r *Receipt) Succeeded() bool {
	return r.Status == ReceiptStatusSuccessful
}
