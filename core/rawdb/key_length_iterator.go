package rawdb

import "github.com/tos-network/valreg/tosdb"

// KeyLengthIterator skips every entry whose key is not exactly keyLen bytes
// long. Prefixes in the schema are single bytes, so a prefix scan can also hit
// singleton keys such as "LastSeq"; filtering on length keeps those out.
type KeyLengthIterator struct {
	keyLen int
	tosdb.Iterator
}

// NewKeyLengthIterator wraps it so only keys of length keyLen are returned.
func NewKeyLengthIterator(it tosdb.Iterator, keyLen int) tosdb.Iterator {
	return &KeyLengthIterator{keyLen: keyLen, Iterator: it}
}

func (it *KeyLengthIterator) Next() bool {
	for it.Iterator.Next() {
		if len(it.Iterator.Key()) == it.keyLen {
			return true
		}
	}
	return false
}
