package block

import "github.com/ledgerforge/chain/pkg/hash"

// MerkleRoot wraps the Hash at the root of a transaction Merkle tree.
type MerkleRoot struct {
	Hash hash.Hash
}

// ComputeMerkleRoot hashes each transaction to a leaf, then repeatedly
// pairs adjacent leaves (duplicating the last one when a layer has odd
// length) until a single root remains. A single-transaction list yields
// a root equal to that transaction's own hash.
func ComputeMerkleRoot(txs []Transaction) MerkleRoot {
	if len(txs) == 0 {
		return MerkleRoot{Hash: hash.Sum(nil)}
	}

	layer := make([]hash.Hash, len(txs))
	for i, tx := range txs {
		layer[i] = tx.Hash()
	}

	for len(layer) > 1 {
		next := make([]hash.Hash, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			left := layer[i]
			right := left
			if i+1 < len(layer) {
				right = layer[i+1]
			}
			enc := hash.NewEncoder(2 * hash.Size)
			enc.PutRaw(left[:])
			enc.PutRaw(right[:])
			next = append(next, enc.Hash())
		}
		layer = next
	}
	return MerkleRoot{Hash: layer[0]}
}
