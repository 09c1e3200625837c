package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ledgerforge/chain/pkg/block"
	"github.com/ledgerforge/chain/pkg/xsig"
)

// ErrUnexpectedMessage is returned by Decode when a tag byte does not
// match any known variant.
var ErrUnexpectedMessage = fmt.Errorf("wire: unexpected message variant")

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

func writeBytes(w io.Writer, b []byte) error {
	if err := writeUint32(w, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBytes(r io.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n > MaxFrameSize {
		return nil, fmt.Errorf("wire: field length %d exceeds cap", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func writePubKey(w io.Writer, pub xsig.PublicKey) error { return writeBytes(w, pub.Bytes()) }

func readPubKey(r io.Reader) (xsig.PublicKey, error) {
	b, err := readBytes(r)
	if err != nil {
		return xsig.PublicKey{}, err
	}
	return xsig.PublicKeyFromBytes(b)
}

// Encode writes m's tag byte followed by its canonical payload to w.
func Encode(w io.Writer, m Message) error {
	if _, err := w.Write([]byte{byte(m.tag())}); err != nil {
		return err
	}
	switch v := m.(type) {
	case FetchUTXOs:
		return writePubKey(w, v.PubKey)
	case UTXOs:
		if err := writeUint32(w, uint32(len(v.Items))); err != nil {
			return err
		}
		for _, item := range v.Items {
			if err := block.EncodeOutput(w, item.Output); err != nil {
				return err
			}
			flag := byte(0)
			if item.Reserved {
				flag = 1
			}
			if _, err := w.Write([]byte{flag}); err != nil {
				return err
			}
		}
		return nil
	case SubmitTransaction:
		return block.EncodeTransaction(w, v.Tx)
	case NewTransaction:
		return block.EncodeTransaction(w, v.Tx)
	case FetchTemplate:
		return writePubKey(w, v.PubKey)
	case Template:
		return block.EncodeBlock(w, v.Block)
	case ValidateTemplate:
		return block.EncodeBlock(w, v.Block)
	case TemplateValidity:
		flag := byte(0)
		if v.Valid {
			flag = 1
		}
		_, err := w.Write([]byte{flag})
		return err
	case SubmitTemplate:
		return block.EncodeBlock(w, v.Block)
	case NewBlock:
		return block.EncodeBlock(w, v.Block)
	case DiscoverNodes:
		return nil
	case NodeList:
		if err := writeUint32(w, uint32(len(v.Addresses))); err != nil {
			return err
		}
		for _, a := range v.Addresses {
			if err := writeBytes(w, []byte(a)); err != nil {
				return err
			}
		}
		return nil
	case AskDifference:
		return writeUint32(w, v.MyHeight)
	case Difference:
		return writeUint32(w, uint32(int32ToUint32(v.Delta)))
	case FetchBlock:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v.Index)
		_, err := w.Write(b[:])
		return err
	default:
		return fmt.Errorf("wire: encode: %w", ErrUnexpectedMessage)
	}
}

func int32ToUint32(v int32) uint32 { return uint32(v) }
func uint32ToInt32(v uint32) int32 { return int32(v) }

// Decode reads a tag byte and its payload from r, returning the
// concrete Message variant.
func Decode(r io.Reader) (Message, error) {
	var tagByte [1]byte
	if _, err := io.ReadFull(r, tagByte[:]); err != nil {
		return nil, err
	}
	switch Tag(tagByte[0]) {
	case TagFetchUTXOs:
		pub, err := readPubKey(r)
		if err != nil {
			return nil, err
		}
		return FetchUTXOs{PubKey: pub}, nil
	case TagUTXOs:
		n, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		items := make([]UTXOEntry, 0, n)
		for i := uint32(0); i < n; i++ {
			out, err := block.DecodeOutput(r)
			if err != nil {
				return nil, err
			}
			var flag [1]byte
			if _, err := io.ReadFull(r, flag[:]); err != nil {
				return nil, err
			}
			items = append(items, UTXOEntry{Output: out, Reserved: flag[0] != 0})
		}
		return UTXOs{Items: items}, nil
	case TagSubmitTransaction:
		tx, err := block.DecodeTransaction(r)
		if err != nil {
			return nil, err
		}
		return SubmitTransaction{Tx: tx}, nil
	case TagNewTransaction:
		tx, err := block.DecodeTransaction(r)
		if err != nil {
			return nil, err
		}
		return NewTransaction{Tx: tx}, nil
	case TagFetchTemplate:
		pub, err := readPubKey(r)
		if err != nil {
			return nil, err
		}
		return FetchTemplate{PubKey: pub}, nil
	case TagTemplate:
		b, err := block.DecodeBlock(r)
		if err != nil {
			return nil, err
		}
		return Template{Block: b}, nil
	case TagValidateTemplate:
		b, err := block.DecodeBlock(r)
		if err != nil {
			return nil, err
		}
		return ValidateTemplate{Block: b}, nil
	case TagTemplateValidity:
		var flag [1]byte
		if _, err := io.ReadFull(r, flag[:]); err != nil {
			return nil, err
		}
		return TemplateValidity{Valid: flag[0] != 0}, nil
	case TagSubmitTemplate:
		b, err := block.DecodeBlock(r)
		if err != nil {
			return nil, err
		}
		return SubmitTemplate{Block: b}, nil
	case TagNewBlock:
		b, err := block.DecodeBlock(r)
		if err != nil {
			return nil, err
		}
		return NewBlock{Block: b}, nil
	case TagDiscoverNodes:
		return DiscoverNodes{}, nil
	case TagNodeList:
		n, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		addrs := make([]string, 0, n)
		for i := uint32(0); i < n; i++ {
			b, err := readBytes(r)
			if err != nil {
				return nil, err
			}
			addrs = append(addrs, string(b))
		}
		return NodeList{Addresses: addrs}, nil
	case TagAskDifference:
		h, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		return AskDifference{MyHeight: h}, nil
	case TagDifference:
		v, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		return Difference{Delta: uint32ToInt32(v)}, nil
	case TagFetchBlock:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		return FetchBlock{Index: binary.BigEndian.Uint64(b[:])}, nil
	default:
		return nil, ErrUnexpectedMessage
	}
}
