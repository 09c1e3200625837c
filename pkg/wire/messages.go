// Package wire implements the peer message protocol: a fixed tagged
// union of message variants framed behind an 8-byte big-endian length
// prefix. One canonical encoding is hand-agreed by every peer, in the
// same manual binary.BigEndian style used throughout this repo's hash
// preimages, rather than a generic serialization library — grounded in
// the constraint that every peer on the wire must agree on exactly one
// byte layout.
package wire

import (
	"github.com/ledgerforge/chain/pkg/block"
	"github.com/ledgerforge/chain/pkg/xsig"
)

// Tag identifies a message variant on the wire.
type Tag byte

const (
	TagFetchUTXOs Tag = iota + 1
	TagUTXOs
	TagSubmitTransaction
	TagNewTransaction
	TagFetchTemplate
	TagTemplate
	TagValidateTemplate
	TagTemplateValidity
	TagSubmitTemplate
	TagNewBlock
	TagDiscoverNodes
	TagNodeList
	TagAskDifference
	TagDifference
	TagFetchBlock
)

// Message is any value that can travel over the wire framing.
type Message interface {
	tag() Tag
}

// FetchUTXOs asks for every UTXO belonging to PubKey.
type FetchUTXOs struct{ PubKey xsig.PublicKey }

// UTXOEntry pairs an output with its current soft-reservation flag.
type UTXOEntry struct {
	Output   block.TransactionOutput
	Reserved bool
}

// UTXOs answers FetchUTXOs.
type UTXOs struct{ Items []UTXOEntry }

// SubmitTransaction is a fire-and-forget submission from a wallet.
type SubmitTransaction struct{ Tx block.Transaction }

// NewTransaction is peer-to-peer gossip of an admitted transaction.
type NewTransaction struct{ Tx block.Transaction }

// FetchTemplate asks a node for a mining template paying PubKey.
type FetchTemplate struct{ PubKey xsig.PublicKey }

// Template answers FetchTemplate.
type Template struct{ Block block.Block }

// ValidateTemplate asks whether Block still links to the current tip.
type ValidateTemplate struct{ Block block.Block }

// TemplateValidity answers ValidateTemplate.
type TemplateValidity struct{ Valid bool }

// SubmitTemplate submits a solved block for acceptance.
type SubmitTemplate struct{ Block block.Block }

// NewBlock is peer-to-peer gossip of an accepted block.
type NewBlock struct{ Block block.Block }

// DiscoverNodes asks for known peer addresses.
type DiscoverNodes struct{}

// NodeList answers DiscoverNodes.
type NodeList struct{ Addresses []string }

// AskDifference reports the sender's height and asks for the delta.
type AskDifference struct{ MyHeight uint32 }

// Difference answers AskDifference with TheirHeight - MyHeight.
type Difference struct{ Delta int32 }

// FetchBlock asks for the block at Index.
type FetchBlock struct{ Index uint64 }

func (FetchUTXOs) tag() Tag       { return TagFetchUTXOs }
func (UTXOs) tag() Tag            { return TagUTXOs }
func (SubmitTransaction) tag() Tag { return TagSubmitTransaction }
func (NewTransaction) tag() Tag   { return TagNewTransaction }
func (FetchTemplate) tag() Tag    { return TagFetchTemplate }
func (Template) tag() Tag         { return TagTemplate }
func (ValidateTemplate) tag() Tag { return TagValidateTemplate }
func (TemplateValidity) tag() Tag { return TagTemplateValidity }
func (SubmitTemplate) tag() Tag   { return TagSubmitTemplate }
func (NewBlock) tag() Tag         { return TagNewBlock }
func (DiscoverNodes) tag() Tag    { return TagDiscoverNodes }
func (NodeList) tag() Tag         { return TagNodeList }
func (AskDifference) tag() Tag    { return TagAskDifference }
func (Difference) tag() Tag       { return TagDifference }
func (FetchBlock) tag() Tag       { return TagFetchBlock }
