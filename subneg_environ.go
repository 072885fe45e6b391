package telnet

import "fmt"

// NEW-ENVIRON type bytes (RFC 1572), in addition to the shared OpIS/OpSEND.
const (
	envVAR     byte = 0
	envVALUE   byte = 1
	envESC     byte = 2
	envUSERVAR byte = 3
)

// handleEnviron processes an inbound NEW-ENVIRON subnegotiation: either the
// peer reporting its variables (IS) or asking us to report ours (SEND).
func handleEnviron(s *Session, payload []byte) {
	if len(payload) == 0 {
		s.reportProtocolViolation(OptNEWENVIRON, "empty NEW-ENVIRON subnegotiation")
		return
	}
	switch payload[0] {
	case OpIS:
		vars := parseEnvironPairs(payload[1:])
		s.mu.Lock()
		for k, v := range vars {
			s.environ[k] = v
		}
		s.mu.Unlock()
		if hook := s.opts.Hooks.OnEnviron; hook != nil {
			hook(s, vars)
		}
	case OpSEND:
		sendEnvironIS(s)
	default:
		s.reportProtocolViolation(OptNEWENVIRON, fmt.Sprintf("unknown NEW-ENVIRON opcode %d", payload[0]))
	}
}

// parseEnvironPairs decodes the VAR/USERVAR name=value run that follows the
// IS/SEND byte, unescaping ESC-prefixed bytes (RFC 1572 §"escape sequences").
func parseEnvironPairs(data []byte) map[string]string {
	out := make(map[string]string)
	var name []byte
	var val []byte
	haveName, inValue, userVar := false, false, false

	flush := func() {
		if haveName {
			key := string(name)
			if userVar {
				key = "USER:" + key
			}
			out[key] = string(val)
		}
		name, val = nil, nil
		haveName, inValue = false, false
	}

	i := 0
	for i < len(data) {
		b := data[i]
		switch b {
		case envESC:
			i++
			if i < len(data) {
				if inValue {
					val = append(val, data[i])
				} else {
					name = append(name, data[i])
				}
			}
		case envVAR, envUSERVAR:
			flush()
			haveName = true
			userVar = b == envUSERVAR
		case envVALUE:
			inValue = true
		default:
			if inValue {
				val = append(val, b)
			} else {
				name = append(name, b)
			}
		}
		i++
	}
	flush()
	return out
}

// sendEnvironIS answers a peer's NEW-ENVIRON SEND with our reported
// variables, sourced from Hooks.OnEnvironRequest (default: none reported).
func sendEnvironIS(s *Session) {
	var vars map[string]string
	if hook := s.opts.Hooks.OnEnvironRequest; hook != nil {
		vars = hook(s)
	}
	payload := []byte{OpIS}
	for k, v := range vars {
		typeByte, key := envVAR, k
		if len(k) > 5 && k[:5] == "USER:" {
			typeByte, key = envUSERVAR, k[5:]
		}
		payload = append(payload, typeByte)
		payload = append(payload, escapeEnviron(key)...)
		payload = append(payload, envVALUE)
		payload = append(payload, escapeEnviron(v)...)
	}
	_ = s.writer.SendSubnegotiation(OptNEWENVIRON, payload)
}

func escapeEnviron(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case envVAR, envVALUE, envESC, envUSERVAR:
			out = append(out, envESC, s[i])
		default:
			out = append(out, s[i])
		}
	}
	return out
}
