package block

import (
	"math/big"
	"time"

	"github.com/ledgerforge/chain/pkg/hash"
)

// Consensus constants, grounded on the teacher's block.go constant block
// (MaxTransactionsPerBlock, halving interval, etc.) but retuned to this
// repo's own reward schedule and retarget cadence.
const (
	// InitialReward is the coinbase reward, in whole coins, at height 0.
	InitialReward uint64 = 50
	// CoinUnits is the number of base units per coin (10^8).
	CoinUnits uint64 = 100_000_000
	// HalvingInterval is the number of blocks between reward halvings.
	HalvingInterval uint64 = 210_000
	// IdealBlockTime is the target spacing between blocks.
	IdealBlockTime = 600 * time.Second
	// DifficultyUpdateInterval is the number of blocks between retargets.
	DifficultyUpdateInterval uint64 = 2016
	// MaxMempoolTxAge is how long an admitted transaction may sit
	// unconfirmed before cleanup evicts it.
	MaxMempoolTxAge = 600 * time.Second
	// BlockTransactionCap is the maximum number of non-coinbase
	// transactions FetchTemplate will include in a block.
	BlockTransactionCap = 20
)

// MinTarget is the easiest permitted difficulty target: the top 16 bits
// are zero, every remaining bit is one.
func MinTarget() hash.Target {
	v := new(big.Int).Lsh(big.NewInt(1), 256-16)
	v.Sub(v, big.NewInt(1))
	return hash.NewTarget(v)
}

// BlockReward returns the coinbase subsidy, in base units, at height h.
func BlockReward(h uint64) uint64 {
	shift := h / HalvingInterval
	if shift >= 64 {
		return 0
	}
	return (InitialReward * CoinUnits) >> shift
}
