package telnet

import "fmt"

// handleNAWS processes an inbound NAWS subnegotiation (RFC 1073): four bytes,
// big-endian width then height. The peer resends this on every resize for as
// long as the option stays enabled.
func handleNAWS(s *Session, payload []byte) {
	if len(payload) != 4 {
		s.reportProtocolViolation(OptNAWS, fmt.Sprintf("malformed NAWS payload (%d bytes, want 4)", len(payload)))
		return
	}
	cols := int(payload[0])<<8 | int(payload[1])
	rows := int(payload[2])<<8 | int(payload[3])

	s.mu.Lock()
	s.naws = WindowSize{Cols: cols, Rows: rows}
	s.mu.Unlock()

	if hook := s.opts.Hooks.OnNAWS; hook != nil {
		hook(s, cols, rows)
	}
}
