package telnet

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stlalpha/gotelnet/internal/logging"
)

// WindowSize is the NAWS-reported terminal geometry (spec §4.3 NAWS).
type WindowSize struct {
	Cols, Rows int
}

// ExtraInfoKey names a piece of session metadata retrievable with
// Session.ExtraInfo (spec §6).
type ExtraInfoKey string

const (
	ExtraPeerName ExtraInfoKey = "peername"
	ExtraTimeout  ExtraInfoKey = "timeout"
	ExtraTerm     ExtraInfoKey = "term"
	ExtraCols     ExtraInfoKey = "cols"
	ExtraRows     ExtraInfoKey = "rows"
	ExtraXDisploc ExtraInfoKey = "xdisploc"
	ExtraLang     ExtraInfoKey = "lang"
	ExtraTspeed   ExtraInfoKey = "tspeed"
	ExtraCharset  ExtraInfoKey = "charset"
	ExtraEncoding ExtraInfoKey = "encoding"
)

// NegotiationHooks are the application-overridable callbacks of spec §4.6
// item 4. A nil hook means "do nothing beyond recording the value."
type NegotiationHooks struct {
	BeginAdvancedNegotiation func(s *Session)
	OnNAWS                   func(s *Session, cols, rows int)
	OnTTYPE                  func(s *Session, name string)
	OnXDisploc               func(s *Session, location string)
	OnTSpeed                 func(s *Session, tx, rx string)
	OnEnviron                func(s *Session, vars map[string]string)
	OnCharset                func(s *Session, name string)
	OnTimeout                func(s *Session)

	// OnCharsetRequest is consulted when the peer proposes a CHARSET list;
	// it should return the chosen name and true, or ("", false) to reject.
	// The default policy accepts the first proposed name this engine knows.
	OnCharsetRequest func(s *Session, proposed []string) (string, bool)

	// OnEnvironRequest supplies the VAR/USERVAR values to report when the
	// peer sends NEW-ENVIRON SEND.
	OnEnvironRequest func(s *Session) map[string]string

	// OnProtocolViolation observes a non-fatal malformed-framing anomaly
	// (spec §7): the session has already logged and recovered by the time
	// this fires.
	OnProtocolViolation func(s *Session, v *ProtocolViolation)

	// OnOptionConflict observes a peer that answered a Q-method state it was
	// never asked for. The Q-method still converges; this is diagnostic.
	OnOptionConflict func(s *Session, v *OptionConflict)
}

// SessionOptions configures a Session's negotiation defaults and timers
// (spec §6 configuration options).
type SessionOptions struct {
	// Encoding names the initial CHARSET (e.g. "UTF-8", "CP437"); empty
	// means bytes mode — no TelnetReaderUnicode/TelnetWriterUnicode wrapper
	// is constructed.
	Encoding string
	Limit    int
	Timeout  time.Duration

	ConnectMinWait time.Duration
	ConnectMaxWait time.Duration

	Term             string
	Cols, Rows       int
	XDisplayLocation string
	TerminalSpeed    string
	Lang             string

	// ServerWillEcho controls whether a server volunteers WILL ECHO during
	// opening negotiation (spec §4.2 server defaults: "ECHO if configured").
	ServerWillEcho bool

	Hooks NegotiationHooks
}

// UnicodeEncoding reports whether this session runs in text mode.
func (o *SessionOptions) UnicodeEncoding() bool { return o != nil && o.Encoding != "" }

func (o *SessionOptions) withDefaults() *SessionOptions {
	cp := *o
	if cp.Limit <= 0 {
		cp.Limit = 65536
	}
	if cp.ConnectMaxWait <= 0 {
		cp.ConnectMaxWait = 2 * time.Second
	}
	return &cp
}

// SessionState is the coarse session lifecycle of spec §4.6.
type SessionState int

const (
	StateConnected SessionState = iota
	StateNegotiating
	StateReady
	StateShellRunning
	StateClosing
	StateTimedOut
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "CONNECTED"
	case StateNegotiating:
		return "NEGOTIATING"
	case StateReady:
		return "READY"
	case StateShellRunning:
		return "SHELL_RUNNING"
	case StateClosing:
		return "CLOSING"
	case StateTimedOut:
		return "TIMED_OUT"
	case StateClosed:
		return "CLOSED"
	default:
		return "?"
	}
}

// ShellFunc is the application-supplied shell dispatch contract of spec §1/§4.6:
// it consumes the negotiated reader/writer pair exposed on s and returns when
// the session should close. Returning a non-nil error logs it as a
// ShellError (spec §7) and closes the session the same as a nil return.
type ShellFunc func(ctx context.Context, s *Session) error

// Session ties the codec, option table, subnegotiation handlers, reader and
// writer into one full-duplex Telnet connection (spec §4.6). Its fields
// besides the reader/writer buffers are touched only from the session's own
// read-pump goroutine, so no locking guards them (spec §5) — the mutex below
// exists solely because ExtraInfo/WindowSize/etc. are also read from the
// shell goroutine.
type Session struct {
	id   string
	conn net.Conn
	role Role
	opts *SessionOptions

	codec   *Codec
	options *OptionTable

	reader  *TelnetReader
	writer  *TelnetWriter
	ureader *TelnetReaderUnicode
	uwriter *TelnetWriterUnicode

	mu          sync.Mutex
	naws        WindowSize
	ttypeSeen   []string
	ttypeFirst  string
	xdisploc    string
	tspeedTx    string
	tspeedRx    string
	environ     map[string]string
	charsetName string
	encoding    NamedEncoding
	state       SessionState

	pending         map[Option]bool
	pendingMu       sync.Mutex
	negotiationDone chan struct{}
	negOnce         sync.Once

	idleTimer *time.Timer
	idleDur   time.Duration

	closeOnce sync.Once
	closeErr  error
}

// newSession allocates a Session bound to conn. The caller starts it with run.
func newSession(conn net.Conn, role Role, opts *SessionOptions) *Session {
	opts = opts.withDefaults()

	s := &Session{
		id:              uuid.NewString(),
		conn:            conn,
		role:            role,
		opts:            opts,
		codec:           NewCodec(0),
		options:         NewOptionTable(),
		reader:          NewReader(opts.Limit),
		writer:          NewWriter(conn),
		environ:         make(map[string]string),
		naws:            WindowSize{Cols: opts.Cols, Rows: opts.Rows},
		xdisploc:        opts.XDisplayLocation,
		charsetName:     opts.Encoding,
		pending:         make(map[Option]bool),
		negotiationDone: make(chan struct{}),
		idleDur:         opts.Timeout,
		state:           StateConnected,
	}
	if opts.UnicodeEncoding() {
		s.encoding = lookupEncoding(opts.Encoding)
		fn := func() NamedEncoding { return s.currentEncoding() }
		s.ureader = NewUnicodeReader(s.reader, fn)
		s.uwriter = NewUnicodeWriter(s.writer, fn)
	}
	switch role {
	case RoleServer:
		applyServerDefaults(s.options, opts)
	case RoleClient:
		applyClientDefaults(s.options, opts)
	}
	return s
}

func (s *Session) currentEncoding() NamedEncoding {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encoding
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Reader returns the byte-oriented reader. Always non-nil.
func (s *Session) Reader() *TelnetReader { return s.reader }

// Writer returns the byte-oriented writer. Always non-nil.
func (s *Session) Writer() *TelnetWriter { return s.writer }

// UnicodeReader returns the text-oriented reader, or nil in bytes mode.
func (s *Session) UnicodeReader() *TelnetReaderUnicode { return s.ureader }

// UnicodeWriter returns the text-oriented writer, or nil in bytes mode.
func (s *Session) UnicodeWriter() *TelnetWriterUnicode { return s.uwriter }

// State returns the session's current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st SessionState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// ExtraInfo exposes session metadata by key (spec §6).
func (s *Session) ExtraInfo(key ExtraInfoKey) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch key {
	case ExtraPeerName:
		return s.conn.RemoteAddr()
	case ExtraTimeout:
		return s.idleDur.Seconds()
	case ExtraTerm:
		if len(s.ttypeSeen) > 0 {
			return s.ttypeSeen[len(s.ttypeSeen)-1]
		}
		return s.opts.Term
	case ExtraCols:
		return s.naws.Cols
	case ExtraRows:
		return s.naws.Rows
	case ExtraXDisploc:
		return s.xdisploc
	case ExtraLang:
		return s.opts.Lang
	case ExtraTspeed:
		if s.tspeedTx == "" && s.tspeedRx == "" {
			return s.opts.TerminalSpeed
		}
		return fmt.Sprintf("%s,%s", s.tspeedTx, s.tspeedRx)
	case ExtraCharset:
		return s.charsetName
	case ExtraEncoding:
		return s.encoding.Name
	default:
		return nil
	}
}

// SetTimeout rebinds the idle timeout to d and resets the countdown. d == 0
// disables the idle timer. Calling with no change to d still resets the
// countdown (spec §4.6 item 3 / S1-S2).
func (s *Session) SetTimeout(d time.Duration) {
	s.mu.Lock()
	s.idleDur = d
	s.mu.Unlock()
	s.resetIdleTimer()
}

// ResetTimeout resets the idle countdown without changing the bound — the
// "set_timeout() with no args" behavior of S1/S2.
func (s *Session) ResetTimeout() { s.resetIdleTimer() }

func (s *Session) resetIdleTimer() {
	s.mu.Lock()
	d := s.idleDur
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	if d > 0 {
		s.idleTimer = time.AfterFunc(d, s.onTimeout)
	}
	s.mu.Unlock()
}

func (s *Session) onTimeout() {
	logging.Info("telnet: session %s idle timeout after %s", s.id, s.idleDur)
	s.setState(StateTimedOut)
	if hook := s.opts.Hooks.OnTimeout; hook != nil {
		hook(s)
	} else {
		_, _ = s.writer.Write([]byte("\r\nTimeout.\r\n"))
	}
	s.Close()
}

// Close shuts the session down: cancels any in-flight negotiation wait,
// marks the reader EOF, and closes the underlying connection. It is safe to
// call multiple times and from any goroutine.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.setState(StateClosing)
		s.mu.Lock()
		if s.idleTimer != nil {
			s.idleTimer.Stop()
		}
		s.mu.Unlock()
		s.reader.FeedEOF()
		s.negOnce.Do(func() { close(s.negotiationDone) })
		s.closeErr = s.conn.Close()
		s.setState(StateClosed)
	})
	return s.closeErr
}

func (s *Session) requestLocalEnable(opt Option) {
	if send, cmd := s.options.RequestLocalEnable(opt); send {
		s.sendNegotiation(cmd, opt)
	}
}

func (s *Session) requestLocalDisable(opt Option) {
	if send, cmd := s.options.RequestLocalDisable(opt); send {
		s.sendNegotiation(cmd, opt)
	}
}

func (s *Session) requestRemoteEnable(opt Option) {
	if send, cmd := s.options.RequestRemoteEnable(opt); send {
		s.sendNegotiation(cmd, opt)
	}
}

func (s *Session) requestRemoteDisable(opt Option) {
	if send, cmd := s.options.RequestRemoteDisable(opt); send {
		s.sendNegotiation(cmd, opt)
	}
}

// SendKeepalive emits a bare go-ahead, giving a reaper sweep something inert
// to provoke a write error from if the peer's TCP connection has gone dead
// without a FIN ever arriving.
func (s *Session) SendKeepalive() error { return s.writer.SendGA() }

func (s *Session) sendNegotiation(cmd Command, opt Option) {
	if err := s.writer.IAC(cmd, opt); err != nil {
		logging.Warn("telnet: session %s failed to send %s %s: %v", s.id, cmd, opt, err)
	}
}

func (s *Session) resolvePending(opt Option) {
	s.pendingMu.Lock()
	delete(s.pending, opt)
	remaining := len(s.pending)
	s.pendingMu.Unlock()
	if remaining == 0 {
		s.negOnce.Do(func() { close(s.negotiationDone) })
	}
}

// reportProtocolViolation logs a non-fatal malformed-framing anomaly and, if
// set, notifies Hooks.OnProtocolViolation (spec §7).
func (s *Session) reportProtocolViolation(opt Option, msg string) {
	v := &ProtocolViolation{Option: opt, Message: msg}
	logging.Warn("telnet: session %s %s", s.id, v.Error())
	if hook := s.opts.Hooks.OnProtocolViolation; hook != nil {
		hook(s, v)
	}
}

// reportOptionConflict logs a Q-method violation and, if set, notifies
// Hooks.OnOptionConflict.
func (s *Session) reportOptionConflict(opt Option, detail string) {
	v := &OptionConflict{Option: opt, Detail: detail}
	logging.Warn("telnet: session %s %s (peer violated Q-method)", s.id, v.Error())
	if hook := s.opts.Hooks.OnOptionConflict; hook != nil {
		hook(s, v)
	}
}
