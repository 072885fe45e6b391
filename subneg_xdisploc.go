package telnet

// handleXDisploc processes an inbound XDISPLOC subnegotiation (RFC 1096):
// either a peer's IS reply carrying its X11 display name (e.g. "unix:0.0"),
// or a peer's SEND asking us to report ours.
func handleXDisploc(s *Session, payload []byte) {
	if len(payload) == 0 {
		s.reportProtocolViolation(OptXDISPLOC, "empty XDISPLOC subnegotiation")
		return
	}
	switch payload[0] {
	case OpIS:
		loc := string(payload[1:])

		s.mu.Lock()
		s.xdisploc = loc
		s.mu.Unlock()

		if hook := s.opts.Hooks.OnXDisploc; hook != nil {
			hook(s, loc)
		}
	case OpSEND:
		sendXDisplocIS(s)
	default:
		s.reportProtocolViolation(OptXDISPLOC, "unknown XDISPLOC opcode")
	}
}

// sendXDisplocIS answers a peer's XDISPLOC SEND with our configured display
// location (spec: SessionOptions.XDisplayLocation).
func sendXDisplocIS(s *Session) {
	payload := append([]byte{OpIS}, s.opts.XDisplayLocation...)
	_ = s.writer.SendSubnegotiation(OptXDISPLOC, payload)
}
