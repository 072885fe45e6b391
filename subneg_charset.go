package telnet

import (
	"bytes"
	"fmt"

	"github.com/stlalpha/gotelnet/internal/logging"
)

// CHARSET subnegotiation opcodes (RFC 2066).
const (
	charsetREQUEST         byte = 1
	charsetACCEPTED        byte = 2
	charsetREJECTED        byte = 3
	charsetTTABLEIS        byte = 4
	charsetTTABLEREJECTED  byte = 5
	charsetTTABLEACK       byte = 6
	charsetTTABLENAK       byte = 7
)

const charsetSep = ';'

// handleCharset processes an inbound CHARSET subnegotiation: either a
// REQUEST proposing a list of charsets (we must ACCEPT or REJECT), or our own
// earlier REQUEST being answered with ACCEPTED/REJECTED.
func handleCharset(s *Session, payload []byte) {
	if len(payload) == 0 {
		return
	}
	switch payload[0] {
	case charsetREQUEST:
		handleCharsetRequest(s, payload[1:])
	case charsetACCEPTED:
		name := string(payload[1:])
		applyCharset(s, name)
	case charsetREJECTED:
		logging.Info("telnet: session %s peer rejected our CHARSET request", s.id)
	case charsetTTABLEIS, charsetTTABLEREJECTED, charsetTTABLEACK, charsetTTABLENAK:
		logging.Debug("telnet: session %s CHARSET translation-table opcode %d not supported", s.id, payload[0])
	default:
		s.reportProtocolViolation(OptCHARSET, fmt.Sprintf("unknown CHARSET opcode %d", payload[0]))
	}
}

// handleCharsetRequest answers a peer-proposed charset list. REQUEST payload
// (after the opcode byte) is [sep][name][sep][name]...; sep is whatever
// printable byte the peer chose as separator.
func handleCharsetRequest(s *Session, rest []byte) {
	if len(rest) == 0 {
		_ = s.writer.SendSubnegotiation(OptCHARSET, []byte{charsetREJECTED})
		return
	}
	sep := rest[0]
	proposed := splitNonEmpty(rest[1:], sep)

	var chosen string
	var ok bool
	if hook := s.opts.Hooks.OnCharsetRequest; hook != nil {
		chosen, ok = hook(s, proposed)
	} else {
		chosen, ok = firstKnown(proposed)
	}

	if !ok {
		_ = s.writer.SendSubnegotiation(OptCHARSET, []byte{charsetREJECTED})
		return
	}
	applyCharset(s, chosen)
	payload := append([]byte{charsetACCEPTED}, chosen...)
	_ = s.writer.SendSubnegotiation(OptCHARSET, payload)
}

// sendCharsetRequest offers our known charsets, most preferred first, as a
// CHARSET REQUEST (sent by the client side only).
func sendCharsetRequest(s *Session) {
	names := knownCharsets()
	payload := []byte{charsetREQUEST, charsetSep}
	for i, n := range names {
		if i > 0 {
			payload = append(payload, charsetSep)
		}
		payload = append(payload, n...)
	}
	_ = s.writer.SendSubnegotiation(OptCHARSET, payload)
}

func applyCharset(s *Session, name string) {
	named := lookupEncoding(name)
	s.mu.Lock()
	s.charsetName = named.Name
	s.encoding = named
	needWrap := s.ureader == nil
	s.mu.Unlock()

	if needWrap {
		fn := func() NamedEncoding { return s.currentEncoding() }
		s.ureader = NewUnicodeReader(s.reader, fn)
		s.uwriter = NewUnicodeWriter(s.writer, fn)
	}
	if hook := s.opts.Hooks.OnCharset; hook != nil {
		hook(s, named.Name)
	}
}

func firstKnown(proposed []string) (string, bool) {
	for _, p := range proposed {
		if _, ok := lookupKnown(p); ok {
			return p, true
		}
	}
	return "", false
}

func lookupKnown(name string) (NamedEncoding, bool) {
	for _, n := range knownCharsets() {
		if bytes.EqualFold([]byte(n), []byte(name)) {
			return lookupEncoding(name), true
		}
	}
	return NamedEncoding{}, false
}

func splitNonEmpty(data []byte, sep byte) []string {
	var out []string
	for _, part := range bytes.Split(data, []byte{sep}) {
		if len(part) > 0 {
			out = append(out, string(part))
		}
	}
	return out
}
