package node

import (
	"errors"
	"io"
	"net"

	"github.com/ledgerforge/chain/pkg/wire"
)

// handleConn serves a single peer connection, inbound or outbound: it
// reads one framed message, dispatches it, optionally writes a reply,
// and loops until the connection errors or dispatch says to close. The
// protocol is symmetric, so the same loop handles both roles.
func (n *Node) handleConn(addr string, conn net.Conn) {
	defer func() {
		conn.Close()
		n.unregisterPeer(addr)
	}()

	for {
		msg, err := wire.ReadMessage(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				n.log.Debugw("peer read failed", "addr", addr, "error", err)
			}
			return
		}

		reply, closeAfter := n.dispatch(msg, addr)
		if reply != nil {
			if err := wire.WriteMessage(conn, reply); err != nil {
				n.log.Debugw("peer write failed", "addr", addr, "error", err)
				return
			}
		}
		if closeAfter {
			return
		}
	}
}

// dispatch implements the per-message-type reply/close/broadcast
// semantics of the protocol. It returns the message to write back (nil
// for none) and whether the connection must be closed after handling
// this message.
func (n *Node) dispatch(msg wire.Message, from string) (wire.Message, bool) {
	switch m := msg.(type) {

	case wire.FetchUTXOs:
		views := n.bc.UTXOsFor(m.PubKey)
		items := make([]wire.UTXOEntry, len(views))
		for i, v := range views {
			items[i] = wire.UTXOEntry{Output: v.Output, Reserved: v.Reserved}
		}
		return wire.UTXOs{Items: items}, false

	case wire.SubmitTransaction:
		// Fire-and-forget: rejection is silent, never closes, never
		// rebroadcasts.
		if err := n.bc.AddTransactionToMempool(m.Tx); err != nil {
			n.log.Debugw("submit_transaction rejected", "error", err)
			return nil, false
		}
		n.metrics.MempoolSize.Set(float64(n.bc.MempoolLen()))
		n.broadcastExcept(from, wire.NewTransaction{Tx: m.Tx})
		return nil, false

	case wire.NewTransaction:
		if err := n.bc.AddTransactionToMempool(m.Tx); err != nil {
			n.log.Debugw("new_transaction rejected, closing", "addr", from, "error", err)
			return nil, true
		}
		n.metrics.MempoolSize.Set(float64(n.bc.MempoolLen()))
		n.broadcastExcept(from, m)
		return nil, false

	case wire.FetchTemplate:
		tmpl := n.bc.FetchTemplate(m.PubKey)
		n.metrics.TemplatesServed.Inc()
		return wire.Template{Block: tmpl}, false

	case wire.ValidateTemplate:
		ok := n.bc.ValidateTemplate(m.Block)
		return wire.TemplateValidity{Valid: ok}, false

	case wire.SubmitTemplate:
		if err := n.bc.AddBlock(m.Block); err != nil {
			n.log.Debugw("submit_template rejected", "error", err)
			n.metrics.BlocksRejected.Inc()
			return nil, false
		}
		n.bc.RebuildUTXOs()
		n.metrics.BlocksAccepted.Inc()
		n.metrics.MempoolSize.Set(float64(n.bc.MempoolLen()))
		n.broadcastExcept(from, wire.NewBlock{Block: m.Block})
		return nil, false

	case wire.NewBlock:
		if err := n.bc.AddBlock(m.Block); err != nil {
			// Drops silently: unlike NewTransaction, a rejected block
			// does not close the connection, since peers legitimately
			// race to propagate competing tips.
			n.log.Debugw("new_block rejected, dropping", "addr", from, "error", err)
			n.metrics.BlocksRejected.Inc()
			return nil, false
		}
		n.bc.RebuildUTXOs()
		n.metrics.BlocksAccepted.Inc()
		n.metrics.MempoolSize.Set(float64(n.bc.MempoolLen()))
		n.broadcastExcept(from, m)
		return nil, false

	case wire.DiscoverNodes:
		return wire.NodeList{Addresses: n.peerAddrs()}, false

	case wire.AskDifference:
		height := int32(n.bc.Height())
		return wire.Difference{Delta: height - int32(m.MyHeight)}, false

	case wire.FetchBlock:
		b, ok := n.bc.BlockAt(int(m.Index))
		if !ok {
			n.log.Debugw("fetch_block out of range, closing", "addr", from, "index", m.Index)
			return nil, true
		}
		return wire.NewBlock{Block: b}, false

	default:
		// Undecodable/unexpected tags never reach here (Decode already
		// rejected them before a Message value exists); any other
		// unrecognized concrete type closes the connection defensively.
		return nil, true
	}
}

// broadcastExcept fans a message out to every known peer other than
// skipAddr. Write errors are logged; the dead peer is reaped on its
// next read failure in handleConn.
func (n *Node) broadcastExcept(skipAddr string, msg wire.Message) {
	for _, addr := range n.peerAddrs() {
		if addr == skipAddr {
			continue
		}
		n.peersMu.Lock()
		conn, ok := n.peers[addr]
		n.peersMu.Unlock()
		if !ok {
			continue
		}
		if err := wire.WriteMessage(conn, msg); err != nil {
			n.log.Debugw("broadcast failed", "addr", addr, "error", err)
		}
	}
}
