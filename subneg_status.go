package telnet

import "github.com/stlalpha/gotelnet/internal/logging"

// handleStatus answers a STATUS SEND (RFC 859) with an IS dump of the
// options currently enabled: WILL <opt> for each option we perform and
// DO <opt> for each option the peer performs. Options in any other Q-state
// are not listed.
func handleStatus(s *Session, payload []byte) {
	if len(payload) == 0 || payload[0] != OpSEND {
		logging.Debug("telnet: session %s ignoring non-SEND STATUS subnegotiation", s.id)
		return
	}
	out := []byte{OpIS}
	for _, st := range s.options.Snapshot() {
		if st.Local == QYes {
			out = append(out, byte(CmdWILL), byte(st.Option))
		}
		if st.Remote == QYes {
			out = append(out, byte(CmdDO), byte(st.Option))
		}
	}
	_ = s.writer.SendSubnegotiation(OptStatus, out)
}
