package rawdb

import (
	"encoding/binary"
	"encoding/json"

	"github.com/tos-network/valreg/core/types"
	"github.com/tos-network/valreg/log"
	"github.com/tos-network/valreg/tosdb"
)

func decodeSeq(data []byte) uint64 {
	return binary.BigEndian.Uint64(data)
}

// ReadHeadSeq retrieves the sequence number of the latest logged transaction.
// The second return value is false when nothing has been logged yet.
func ReadHeadSeq(db tosdb.KeyValueReader) (uint64, bool) {
	data, _ := db.Get(headSeqKey)
	if len(data) != 8 {
		return 0, false
	}
	return decodeSeq(data), true
}

// WriteHeadSeq stores the sequence number of the latest logged transaction.
func WriteHeadSeq(db tosdb.KeyValueWriter, seq uint64) {
	if err := db.Put(headSeqKey, encodeSeq(seq)); err != nil {
		log.Crit("Failed to store head sequence", "err", err)
	}
}

// ReadReceipt retrieves the receipt logged at seq, or nil if absent.
func ReadReceipt(db tosdb.KeyValueReader, seq uint64) *types.Receipt {
	data, _ := db.Get(receiptKey(seq))
	if len(data) == 0 {
		return nil
	}
	receipt := new(types.Receipt)
	if err := json.Unmarshal(data, receipt); err != nil {
		log.Error("Invalid receipt JSON", "seq", seq, "err", err)
		return nil
	}
	return receipt
}

// WriteReceipt stores a receipt under its sequence number.
func WriteReceipt(db tosdb.KeyValueWriter, receipt *types.Receipt) {
	data, err := json.Marshal(receipt)
	if err != nil {
		log.Crit("Failed to encode receipt", "err", err)
	}
	if err := db.Put(receiptKey(receipt.Seq), data); err != nil {
		log.Crit("Failed to store receipt", "err", err)
	}
}

// IterateReceipts calls fn for every receipt with a sequence number of at
// least from, in sequence order. Iteration stops early when fn returns false.
func IterateReceipts(db tosdb.Iteratee, from uint64, fn func(*types.Receipt) bool) error {
	it := NewKeyLengthIterator(db.NewIterator(receiptPrefix, encodeSeq(from)), ReceiptKeyLength)
	defer it.Release()

	for it.Next() {
		receipt := new(types.Receipt)
		if err := json.Unmarshal(it.Value(), receipt); err != nil {
			return err
		}
		if !fn(receipt) {
			break
		}
	}
	return it.Error()
}

// ReadGenesis retrieves the stored genesis JSON.
func ReadGenesis(db tosdb.KeyValueReader) []byte {
	data, _ := db.Get(genesisKey)
	return data
}

// WriteGenesis stores the genesis JSON.
func WriteGenesis(db tosdb.KeyValueWriter, data []byte) {
	if err := db.Put(genesisKey, data); err != nil {
		log.Crit("Failed to store genesis", "err", err)
	}
}
