// Package block holds the core data model shared by every layer of the
// ledger: transactions, Merkle roots, block headers and blocks.
package block

import "fmt"

// Block is a header plus its ordered transaction list. By convention the
// first transaction is the coinbase.
type Block struct {
	Header       BlockHeader
	Transactions []Transaction
}

// Coinbase returns the block's first transaction. Callers must only
// invoke this on a non-empty block.
func (b Block) Coinbase() Transaction {
	return b.Transactions[0]
}

// String gives a short human-readable identifier for logging.
func (b Block) String() string {
	return fmt.Sprintf("block{%s txs=%d}", b.Header.Hash(), len(b.Transactions))
}
