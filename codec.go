package telnet

// EventKind distinguishes the events a Codec emits while scanning an inbound
// byte stream (spec §4.1).
type EventKind int

const (
	EventData EventKind = iota
	EventCommand
	EventOptionCommand
	EventSubnegStart
	EventSubnegByte
	EventSubnegEnd
	EventProtocolViolation
)

// Event is one parsed unit of the inbound Telnet byte stream.
type Event struct {
	Kind    EventKind
	Byte    byte    // valid for EventData, EventSubnegByte
	Command Command // valid for EventCommand, EventOptionCommand
	Option  Option  // valid for EventOptionCommand, EventSubnegStart, EventProtocolViolation
	Message string  // valid for EventProtocolViolation
}

type codecState int

const (
	stNormal codecState = iota
	stSawIAC
	stSawIACOpt
	stSubneg
	stSubnegIAC
)

// Codec is the byte-level Telnet DFA described in spec §4.1: it recognizes
// IAC command sequences, frames subnegotiations, and escapes/unescapes the
// data byte 0xFF. A Codec is not safe for concurrent use; each Session owns
// exactly one.
type Codec struct {
	state            codecState
	pendingCmd       Command
	sbOption         Option
	sbAwaitingOption bool
	sbBuf            []byte
	sbLimit          int
}

// NewCodec returns a Codec whose subnegotiation buffer is bounded to sbLimit
// bytes (spec: default 16 KiB).
func NewCodec(sbLimit int) *Codec {
	if sbLimit <= 0 {
		sbLimit = 16 * 1024
	}
	return &Codec{sbLimit: sbLimit}
}

// Feed advances the DFA by one inbound byte, invoking emit for each event
// produced. A malformed subnegotiation (stray IAC byte that isn't IAC IAC or
// SE) discards the buffered payload and resumes in stNormal without error —
// spec §4.1 calls this non-fatal.
func (c *Codec) Feed(b byte, emit func(Event)) {
	switch c.state {
	case stNormal:
		if Command(b) == CmdIAC {
			c.state = stSawIAC
			return
		}
		emit(Event{Kind: EventData, Byte: b})

	case stSawIAC:
		switch Command(b) {
		case CmdIAC:
			emit(Event{Kind: EventData, Byte: 0xFF})
			c.state = stNormal
		case CmdWILL, CmdWONT, CmdDO, CmdDONT:
			c.pendingCmd = Command(b)
			c.state = stSawIACOpt
		case CmdSB:
			c.state = stSubneg
			c.sbAwaitingOption = true
		default:
			emit(Event{Kind: EventCommand, Command: Command(b)})
			c.state = stNormal
		}

	case stSawIACOpt:
		emit(Event{Kind: EventOptionCommand, Command: c.pendingCmd, Option: Option(b)})
		c.state = stNormal

	case stSubneg:
		if c.sbAwaitingOption {
			c.sbOption = Option(b)
			c.sbAwaitingOption = false
			c.sbBuf = c.sbBuf[:0]
			emit(Event{Kind: EventSubnegStart, Option: c.sbOption})
			return
		}
		if Command(b) == CmdIAC {
			c.state = stSubnegIAC
			return
		}
		c.appendSubneg(b, emit)

	case stSubnegIAC:
		switch Command(b) {
		case CmdIAC:
			c.appendSubneg(0xFF, emit)
			c.state = stSubneg
		case CmdSE:
			emit(Event{Kind: EventSubnegEnd, Option: c.sbOption})
			c.sbBuf = c.sbBuf[:0]
			c.state = stNormal
		default:
			emit(Event{Kind: EventProtocolViolation, Option: c.sbOption, Message: "malformed subnegotiation framing, discarding buffer"})
			c.sbBuf = c.sbBuf[:0]
			c.state = stNormal
		}
	}
}

func (c *Codec) appendSubneg(b byte, emit func(Event)) {
	if len(c.sbBuf) >= c.sbLimit {
		emit(Event{Kind: EventProtocolViolation, Option: c.sbOption, Message: "subnegotiation exceeded size limit, discarding"})
		c.sbBuf = c.sbBuf[:0]
		c.state = stNormal
		return
	}
	c.sbBuf = append(c.sbBuf, b)
	emit(Event{Kind: EventSubnegByte, Byte: b})
}

// Reset discards any in-flight subnegotiation or escape state. Called at EOF
// to silently drop a truncated trailing subnegotiation (spec §4.1).
func (c *Codec) Reset() {
	c.state = stNormal
	c.sbBuf = c.sbBuf[:0]
}

// EscapeData returns data with every 0xFF byte doubled, ready to place on
// the wire as Telnet data (spec §4.1 outbound escaping).
func EscapeData(data []byte) []byte {
	n := 0
	for _, b := range data {
		if b == 0xFF {
			n++
		}
	}
	if n == 0 {
		return data
	}
	out := make([]byte, 0, len(data)+n)
	for _, b := range data {
		out = append(out, b)
		if b == 0xFF {
			out = append(out, 0xFF)
		}
	}
	return out
}

// EncodeCommand returns the wire bytes for a bare command (IAC cmd), e.g. GA
// or NOP.
func EncodeCommand(cmd Command) []byte {
	return []byte{byte(CmdIAC), byte(cmd)}
}

// EncodeOptionCommand returns the wire bytes for IAC cmd opt (WILL/WONT/DO/DONT).
func EncodeOptionCommand(cmd Command, opt Option) []byte {
	return []byte{byte(CmdIAC), byte(cmd), byte(opt)}
}

// EncodeSubnegotiation returns the wire bytes for IAC SB opt payload... IAC SE,
// with any 0xFF bytes inside payload escaped.
func EncodeSubnegotiation(opt Option, payload []byte) []byte {
	out := make([]byte, 0, len(payload)+6)
	out = append(out, byte(CmdIAC), byte(CmdSB), byte(opt))
	out = append(out, EscapeData(payload)...)
	out = append(out, byte(CmdIAC), byte(CmdSE))
	return out
}
