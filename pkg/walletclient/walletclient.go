// Package walletclient implements the wallet role: a stateless network
// client that tracks no chain state of its own. It queries a node for
// the UTXOs belonging to a set of owned keys, composes signed
// transactions under a configurable fee policy, and submits them,
// grounded in shape on the teacher's pkg/wallet account/signing
// idiom but stripped of the teacher's on-disk encryption and
// Base58Check address machinery, neither of which this spec's
// wire-native (raw public key, no address strings) design needs.
package walletclient

import (
	"errors"
	"fmt"
	"net"
	"sort"

	"github.com/ledgerforge/chain/pkg/block"
	"github.com/ledgerforge/chain/pkg/wire"
	"github.com/ledgerforge/chain/pkg/xsig"
)

// ErrInsufficientFunds is returned when no combination of owned,
// unreserved UTXOs covers the requested amount plus fee.
var ErrInsufficientFunds = errors.New("walletclient: insufficient funds")

// ErrRecipientNotFound is returned when a transaction is addressed to
// a contact name the wallet has no public key on file for.
var ErrRecipientNotFound = errors.New("walletclient: recipient not found")

// FeePolicyKind selects how Wallet.CreateTransaction computes its fee.
type FeePolicyKind int

const (
	// FeeFixed charges exactly FeePolicy.Value regardless of the amount sent.
	FeeFixed FeePolicyKind = iota
	// FeePercent charges floor(amount * FeePolicy.Value / 100).
	FeePercent
)

// FeePolicy configures the wallet's fee computation.
type FeePolicy struct {
	Kind  FeePolicyKind
	Value uint64
}

func (p FeePolicy) fee(amount uint64) uint64 {
	switch p.Kind {
	case FeePercent:
		return (amount * p.Value) / 100
	default:
		return p.Value
	}
}

// ownedUTXO pairs a UTXO view with the key that owns it, preserving
// node-reported storage order across all owned keys.
type ownedUTXO struct {
	key      xsig.PrivateKey
	output   block.TransactionOutput
	reserved bool
}

// Wallet is a stateless client over a single node connection: a set of
// owned keys, the fee policy applied to sends, and the most recently
// fetched UTXO snapshot.
type Wallet struct {
	nodeAddr string
	policy   FeePolicy
	keys     []xsig.PrivateKey
	utxos    []ownedUTXO
}

// New returns a Wallet that will dial nodeAddr for every request.
func New(nodeAddr string, policy FeePolicy, keys []xsig.PrivateKey) *Wallet {
	return &Wallet{nodeAddr: nodeAddr, policy: policy, keys: keys}
}

// AddKey adds an owned key to the wallet's key set.
func (w *Wallet) AddKey(k xsig.PrivateKey) { w.keys = append(w.keys, k) }

// Keys returns the wallet's owned private keys, in load order.
func (w *Wallet) Keys() []xsig.PrivateKey { return w.keys }

// FetchUTXOs queries the node for every owned key's current UTXOs and
// replaces the wallet's local snapshot. Keys are queried in load order
// and their UTXOs concatenated in that same order, matching the
// "storage order across owned keys" iteration the spec requires of
// CreateTransaction.
func (w *Wallet) FetchUTXOs() error {
	conn, err := net.Dial("tcp", w.nodeAddr)
	if err != nil {
		return fmt.Errorf("walletclient: dial: %w", err)
	}
	defer conn.Close()

	var fresh []ownedUTXO
	for _, key := range w.keys {
		if err := wire.WriteMessage(conn, wire.FetchUTXOs{PubKey: key.Public()}); err != nil {
			return fmt.Errorf("walletclient: fetch_utxos: %w", err)
		}
		reply, err := wire.ReadMessage(conn)
		if err != nil {
			return fmt.Errorf("walletclient: fetch_utxos reply: %w", err)
		}
		list, ok := reply.(wire.UTXOs)
		if !ok {
			return fmt.Errorf("walletclient: unexpected reply to fetch_utxos")
		}
		for _, entry := range list.Items {
			fresh = append(fresh, ownedUTXO{key: key, output: entry.Output, reserved: entry.Reserved})
		}
	}
	w.utxos = fresh
	return nil
}

// Balance sums the value of every unreserved UTXO across all owned
// keys in the wallet's current snapshot.
func (w *Wallet) Balance() uint64 {
	var total uint64
	for _, u := range w.utxos {
		if !u.reserved {
			total += u.output.Value
		}
	}
	return total
}

// CreateTransaction builds and signs a transaction paying amount to
// recipient under the wallet's fee policy, selecting unreserved owned
// UTXOs in snapshot order until the accumulated input value covers
// amount plus the computed fee. Any excess over amount+fee is returned
// to the first owned key as a change output.
func (w *Wallet) CreateTransaction(recipient xsig.PublicKey, amount uint64) (block.Transaction, error) {
	if len(w.keys) == 0 {
		return block.Transaction{}, fmt.Errorf("walletclient: no owned keys loaded")
	}
	fee := w.policy.fee(amount)
	need := amount + fee

	var inputs []block.TransactionInput
	var inputSum uint64
	for _, u := range w.utxos {
		if u.reserved {
			continue
		}
		outHash := u.output.Hash()
		sig := u.key.Sign(outHash)
		inputs = append(inputs, block.TransactionInput{
			PrevTransactionOutputHash: outHash,
			Signature:                 sig,
		})
		inputSum += u.output.Value
		if inputSum >= need {
			break
		}
	}
	if inputSum < need {
		return block.Transaction{}, ErrInsufficientFunds
	}

	outputs := []block.TransactionOutput{block.NewTransactionOutput(amount, recipient)}
	if change := inputSum - need; change > 0 {
		outputs = append(outputs, block.NewTransactionOutput(change, w.keys[0].Public()))
	}

	return block.Transaction{Inputs: inputs, Outputs: outputs}, nil
}

// SubmitTransaction sends tx to the node as a fire-and-forget
// submission; the node validates, admits and rebroadcasts it.
func (w *Wallet) SubmitTransaction(tx block.Transaction) error {
	conn, err := net.Dial("tcp", w.nodeAddr)
	if err != nil {
		return fmt.Errorf("walletclient: dial: %w", err)
	}
	defer conn.Close()
	return wire.WriteMessage(conn, wire.SubmitTransaction{Tx: tx})
}

// Contacts is a simple name -> public key address book, resolved
// against by name when sending.
type Contacts map[string]xsig.PublicKey

// Resolve looks up a contact by name.
func (c Contacts) Resolve(name string) (xsig.PublicKey, error) {
	pub, ok := c[name]
	if !ok {
		return xsig.PublicKey{}, ErrRecipientNotFound
	}
	return pub, nil
}

// Names returns the contacts' names, sorted, for CLI listing.
func (c Contacts) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
