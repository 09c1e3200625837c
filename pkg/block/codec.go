package block

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerforge/chain/pkg/hash"
	"github.com/ledgerforge/chain/pkg/xsig"
)

// This file holds the canonical binary codec shared by wire messages and
// the on-disk blockchain snapshot: one fixed encoding, agreed by every
// peer, in the manual binary.BigEndian style used throughout this
// repo's hash preimages.

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func writeUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func writeBytes(w io.Writer, b []byte) error {
	if err := writeUint32(w, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

const maxFieldLen = 10 << 20

func readBytes(r io.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n > maxFieldLen {
		return nil, fmt.Errorf("block: field length %d exceeds cap", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func writeHash(w io.Writer, h hash.Hash) error {
	_, err := w.Write(h[:])
	return err
}

func readHash(r io.Reader) (hash.Hash, error) {
	var h hash.Hash
	_, err := io.ReadFull(r, h[:])
	return h, err
}

// EncodeOutput writes o's canonical form to w.
func EncodeOutput(w io.Writer, o TransactionOutput) error {
	if err := writeUint64(w, o.Value); err != nil {
		return err
	}
	idBytes, err := o.UniqueID.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.Write(idBytes); err != nil {
		return err
	}
	return writeBytes(w, o.PubKey.Bytes())
}

// DecodeOutput reads a TransactionOutput written by EncodeOutput.
func DecodeOutput(r io.Reader) (TransactionOutput, error) {
	var o TransactionOutput
	v, err := readUint64(r)
	if err != nil {
		return o, err
	}
	var idBytes [16]byte
	if _, err := io.ReadFull(r, idBytes[:]); err != nil {
		return o, err
	}
	id, err := uuid.FromBytes(idBytes[:])
	if err != nil {
		return o, err
	}
	pubBytes, err := readBytes(r)
	if err != nil {
		return o, err
	}
	pub, err := xsig.PublicKeyFromBytes(pubBytes)
	if err != nil {
		return o, fmt.Errorf("block: decode output pubkey: %w", err)
	}
	o.Value = v
	o.UniqueID = id
	o.PubKey = pub
	return o, nil
}

// EncodeInput writes in's canonical form to w.
func EncodeInput(w io.Writer, in TransactionInput) error {
	if err := writeHash(w, in.PrevTransactionOutputHash); err != nil {
		return err
	}
	return writeBytes(w, in.Signature.Bytes())
}

// DecodeInput reads a TransactionInput written by EncodeInput.
func DecodeInput(r io.Reader) (TransactionInput, error) {
	var in TransactionInput
	h, err := readHash(r)
	if err != nil {
		return in, err
	}
	sigBytes, err := readBytes(r)
	if err != nil {
		return in, err
	}
	in.PrevTransactionOutputHash = h
	in.Signature = xsig.SignatureFromBytes(sigBytes)
	return in, nil
}

// EncodeTransaction writes tx's canonical form to w.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	if err := writeUint32(w, uint32(len(tx.Inputs))); err != nil {
		return err
	}
	for _, in := range tx.Inputs {
		if err := EncodeInput(w, in); err != nil {
			return err
		}
	}
	if err := writeUint32(w, uint32(len(tx.Outputs))); err != nil {
		return err
	}
	for _, o := range tx.Outputs {
		if err := EncodeOutput(w, o); err != nil {
			return err
		}
	}
	return nil
}

// DecodeTransaction reads a Transaction written by EncodeTransaction.
func DecodeTransaction(r io.Reader) (Transaction, error) {
	var tx Transaction
	nIn, err := readUint32(r)
	if err != nil {
		return tx, err
	}
	for i := uint32(0); i < nIn; i++ {
		in, err := DecodeInput(r)
		if err != nil {
			return tx, err
		}
		tx.Inputs = append(tx.Inputs, in)
	}
	nOut, err := readUint32(r)
	if err != nil {
		return tx, err
	}
	for i := uint32(0); i < nOut; i++ {
		o, err := DecodeOutput(r)
		if err != nil {
			return tx, err
		}
		tx.Outputs = append(tx.Outputs, o)
	}
	return tx, nil
}

// EncodeHeader writes h's canonical form to w.
func EncodeHeader(w io.Writer, h BlockHeader) error {
	if err := writeUint64(w, uint64(h.Timestamp.UTC().UnixNano())); err != nil {
		return err
	}
	if err := writeUint64(w, h.Nonce); err != nil {
		return err
	}
	if err := writeHash(w, h.PrevBlockHash); err != nil {
		return err
	}
	if err := writeHash(w, h.MerkleRoot.Hash); err != nil {
		return err
	}
	tb := h.Target.Bytes32()
	_, err := w.Write(tb[:])
	return err
}

// DecodeHeader reads a BlockHeader written by EncodeHeader.
func DecodeHeader(r io.Reader) (BlockHeader, error) {
	var h BlockHeader
	ns, err := readUint64(r)
	if err != nil {
		return h, err
	}
	h.Timestamp = time.Unix(0, int64(ns)).UTC()
	nonce, err := readUint64(r)
	if err != nil {
		return h, err
	}
	h.Nonce = nonce
	prev, err := readHash(r)
	if err != nil {
		return h, err
	}
	h.PrevBlockHash = prev
	root, err := readHash(r)
	if err != nil {
		return h, err
	}
	h.MerkleRoot = MerkleRoot{Hash: root}
	var tb [hash.Size]byte
	if _, err := io.ReadFull(r, tb[:]); err != nil {
		return h, err
	}
	h.Target = hash.TargetFromBytes32(tb)
	return h, nil
}

// EncodeBlock writes b's canonical form to w.
func EncodeBlock(w io.Writer, b Block) error {
	if err := EncodeHeader(w, b.Header); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(len(b.Transactions))); err != nil {
		return err
	}
	for _, tx := range b.Transactions {
		if err := EncodeTransaction(w, tx); err != nil {
			return err
		}
	}
	return nil
}

// DecodeBlock reads a Block written by EncodeBlock.
func DecodeBlock(r io.Reader) (Block, error) {
	var b Block
	h, err := DecodeHeader(r)
	if err != nil {
		return b, err
	}
	b.Header = h
	n, err := readUint32(r)
	if err != nil {
		return b, err
	}
	for i := uint32(0); i < n; i++ {
		tx, err := DecodeTransaction(r)
		if err != nil {
			return b, err
		}
		b.Transactions = append(b.Transactions, tx)
	}
	return b, nil
}
