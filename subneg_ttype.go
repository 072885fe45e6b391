package telnet

// handleTTYPE processes an inbound TTYPE subnegotiation (RFC 1091): either a
// peer's IS reply reporting its terminal type, or a peer's SEND asking us to
// report ours.
//
// A peer that cycles through multiple terminal type names (a common
// convention: successive SEND/IS rounds walk a ring buffer of names,
// signaled by the peer repeating its first answer) is tracked so callers can
// walk s.ttypeSeen, but this engine does not itself re-request beyond the
// first IS — that policy belongs in BeginAdvancedNegotiation.
func handleTTYPE(s *Session, payload []byte) {
	if len(payload) == 0 {
		s.reportProtocolViolation(OptTTYPE, "empty TTYPE subnegotiation")
		return
	}
	switch payload[0] {
	case OpIS:
		name := string(payload[1:])

		s.mu.Lock()
		if len(s.ttypeSeen) == 0 {
			s.ttypeFirst = name
		}
		s.ttypeSeen = append(s.ttypeSeen, name)
		s.mu.Unlock()

		if hook := s.opts.Hooks.OnTTYPE; hook != nil {
			hook(s, name)
		}
	case OpSEND:
		sendTTYPEIS(s)
	default:
		s.reportProtocolViolation(OptTTYPE, "unknown TTYPE opcode")
	}
}

// sendTTYPEIS answers a peer's TTYPE SEND with our configured terminal type
// (spec: SessionOptions.Term), mirroring sendEnvironIS's responder shape.
func sendTTYPEIS(s *Session) {
	payload := append([]byte{OpIS}, s.opts.Term...)
	_ = s.writer.SendSubnegotiation(OptTTYPE, payload)
}
