package telnet

import (
	"fmt"

	"github.com/stlalpha/gotelnet/internal/logging"
)

// LINEMODE subnegotiation opcodes (RFC 1184).
const (
	lmMODE        byte = 1
	lmFORWARDMASK byte = 2
	lmSLC         byte = 3
)

// LINEMODE MODE bitmask fields.
const (
	lmEDIT    byte = 1
	lmTRAPSIG byte = 2
	lmMODEACK byte = 4
)

// SLCEntry is one Set-Local-Characters slot: a function's edit-level flags
// and the keycode bound to it (RFC 1184 §"The SLC Command").
type SLCEntry struct {
	Flags byte
	Value byte
}

// linemodeState is the per-session substate stashed on the OptionTable for
// OptLINEMODE (spec §3: "handler substate may be stored per option").
type linemodeState struct {
	mask byte
	slc  map[byte]SLCEntry
}

// handleLinemode processes an inbound LINEMODE subnegotiation. This engine
// plays the server side of LINEMODE passively: it records the client's mode
// and SLC table but does not itself perform client-side line editing.
func handleLinemode(s *Session, payload []byte) {
	if len(payload) == 0 {
		return
	}
	st, _ := s.options.SubState(OptLINEMODE).(*linemodeState)
	if st == nil {
		st = &linemodeState{slc: make(map[byte]SLCEntry)}
		s.options.SetSubState(OptLINEMODE, st)
	}

	switch payload[0] {
	case lmMODE:
		if len(payload) < 2 {
			s.reportProtocolViolation(OptLINEMODE, "empty LINEMODE MODE payload")
			return
		}
		st.mask = payload[1]
		if st.mask&lmMODEACK == 0 {
			_ = s.writer.SendSubnegotiation(OptLINEMODE, []byte{lmMODE, st.mask | lmMODEACK})
		}
	case lmSLC:
		body := payload[1:]
		for i := 0; i+3 <= len(body); i += 3 {
			fn, flags, val := body[i], body[i+1], body[i+2]
			st.slc[fn] = SLCEntry{Flags: flags, Value: val}
		}
		// Acknowledge by echoing the table back verbatim (RFC 1184's
		// simplest legal reply when we accept every proposed slot).
		ack := append([]byte{lmSLC}, body...)
		_ = s.writer.SendSubnegotiation(OptLINEMODE, ack)
	case lmFORWARDMASK:
		logging.Debug("telnet: session %s LINEMODE FORWARDMASK not implemented, ignoring %d bytes", s.id, len(payload)-1)
	default:
		s.reportProtocolViolation(OptLINEMODE, fmt.Sprintf("unknown LINEMODE opcode %d", payload[0]))
	}
}
