package telnet

import "bytes"

// handleTSpeed processes an inbound TSPEED subnegotiation (RFC 1079): either
// a peer's IS reply carrying "<tx>,<rx>" as ASCII (e.g. "38400,38400"), or a
// peer's SEND asking us to report ours.
func handleTSpeed(s *Session, payload []byte) {
	if len(payload) == 0 {
		s.reportProtocolViolation(OptTSPEED, "empty TSPEED subnegotiation")
		return
	}
	switch payload[0] {
	case OpIS:
		rest := payload[1:]
		tx, rx := string(rest), string(rest)
		if i := bytes.IndexByte(rest, ','); i >= 0 {
			tx, rx = string(rest[:i]), string(rest[i+1:])
		}

		s.mu.Lock()
		s.tspeedTx, s.tspeedRx = tx, rx
		s.mu.Unlock()

		if hook := s.opts.Hooks.OnTSpeed; hook != nil {
			hook(s, tx, rx)
		}
	case OpSEND:
		sendTSpeedIS(s)
	default:
		s.reportProtocolViolation(OptTSPEED, "unknown TSPEED opcode")
	}
}

// sendTSpeedIS answers a peer's TSPEED SEND with our configured speed
// string (spec: SessionOptions.TerminalSpeed, already "<tx>,<rx>").
func sendTSpeedIS(s *Session) {
	payload := append([]byte{OpIS}, s.opts.TerminalSpeed...)
	_ = s.writer.SendSubnegotiation(OptTSPEED, payload)
}
