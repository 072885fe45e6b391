package telnet

import "fmt"

// IncompleteRead is returned by ReadExactly/ReadUntil when the stream hits
// EOF before the requested amount of data arrived (spec §7).
type IncompleteRead struct {
	Partial  []byte
	Expected int
}

func (e *IncompleteRead) Error() string {
	return fmt.Sprintf("telnet: incomplete read: got %d of %d bytes", len(e.Partial), e.Expected)
}

// LimitOverrun is returned by ReadUntil/ReadLine when the requested
// separator was not found within the reader's soft limit (spec §7).
type LimitOverrun struct {
	Limit int
}

func (e *LimitOverrun) Error() string {
	return fmt.Sprintf("telnet: limit of %d bytes exceeded without finding separator", e.Limit)
}

// ProtocolViolation records a non-fatal wire-protocol anomaly: a malformed
// IAC sequence, an unparseable subnegotiation payload. The session logs and
// continues; this type exists so callers that want to observe violations
// (e.g. for metrics) can receive them via OnProtocolViolation.
type ProtocolViolation struct {
	Option  Option
	Message string
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("telnet: protocol violation on %s: %s", e.Option, e.Message)
}

// OptionConflict records a peer that repeatedly violates the Q-method
// (answering a state it was never asked for). The Q-method still converges;
// this is purely diagnostic, surfaced via Hooks.OnOptionConflict.
type OptionConflict struct {
	Option Option
	Detail string
}

func (e *OptionConflict) Error() string {
	return fmt.Sprintf("telnet: option conflict on %s: %s", e.Option, e.Detail)
}
