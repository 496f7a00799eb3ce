package worker

import "github.com/ancillary-agi/snakearena/internal/protocol"

// dispatch routes one decoded frame to its handler by opcode. Opcodes with
// no handler here (including any client-sent server-to-client opcode, and
// anything unrecognized) are silent no-ops: the activity-timestamp refresh
// already happened in handleReadable.
func (w *Worker) dispatch(c *connection, op protocol.Opcode, raw []byte) {
	switch op {
	case protocol.OpLoginReq:
		w.handleLogin(c)
	case protocol.OpMove:
		w.handleMove(c, raw)
	case protocol.OpLogout:
		w.handleLogout(c)
	case protocol.OpHeartbeat:
		_ = w.sendFrame(c.fd, protocol.OpHeartbeatAck, nil)
	}
}

func (w *Worker) handleLogin(c *connection) {
	if c.hasSlot {
		return // already logged in on this connection, ignore
	}
	slot, ok := w.st.TryAdmit()
	if !ok {
		_ = w.sendFrame(c.fd, protocol.OpError, protocol.EncodeError("Server Full"))
		w.closeConn(c.fd)
		return
	}
	c.hasSlot = true
	c.slotID = slot
	c.lastVersion = 0
	w.log.Info().Str("trace_id", c.traceID).Int("slot", slot).Msg("player admitted")
	_ = w.sendFrame(c.fd, protocol.OpLoginResp, protocol.EncodeLoginResp(slot))
}

func (w *Worker) handleMove(c *connection, raw []byte) {
	if !c.hasSlot {
		return
	}
	dir, err := protocol.DecodeMove(raw)
	if err != nil {
		return
	}
	w.st.ApplyMove(c.slotID, dir)
}

func (w *Worker) handleLogout(c *connection) {
	if c.hasSlot {
		w.log.Info().Str("trace_id", c.traceID).Int("slot", c.slotID).Msg("player logged out")
		w.st.Release(c.slotID)
	}
	w.closeConn(c.fd)
}
