package telnet

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/text/transform"
)

// TelnetWriter is the buffered outbound half of spec §4.5: write() enqueues
// data with IAC-escaping applied on the way to the socket, iac()/send_ga()/
// send_eor() emit raw control sequences, and drain() realizes backpressure
// against the transport's high-water mark.
//
// Unlike the reader, which needs a real queue to support backpressure from a
// slow shell, the writer's "queue" is simply net.Conn itself: Go's net.Conn
// already blocks Write() when the kernel send buffer is full, which is
// exactly the drain() contract spec §4.5 describes. TelnetWriter therefore
// wraps conn directly rather than re-implementing a software queue.
type TelnetWriter struct {
	mu     sync.Mutex
	conn   io.Writer
	closed bool
}

// NewWriter wraps conn with Telnet IAC-escaping.
func NewWriter(conn io.Writer) *TelnetWriter {
	return &TelnetWriter{conn: conn}
}

// Write enqueues data, escaping any 0xFF byte as IAC IAC.
func (w *TelnetWriter) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, fmt.Errorf("telnet: write to closed writer")
	}
	if _, err := w.conn.Write(EscapeData(data)); err != nil {
		return 0, err
	}
	return len(data), nil
}

// WriteLines writes each element of lines in turn.
func (w *TelnetWriter) WriteLines(lines [][]byte) error {
	for _, line := range lines {
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return nil
}

// IAC emits a raw three-byte negotiation command: IAC cmd opt. cmd must be
// one of WILL/WONT/DO/DONT.
func (w *TelnetWriter) IAC(cmd Command, opt Option) error {
	switch cmd {
	case CmdWILL, CmdWONT, CmdDO, CmdDONT:
	default:
		return fmt.Errorf("telnet: IAC requires WILL/WONT/DO/DONT, got %s", cmd)
	}
	return w.sendRaw(EncodeOptionCommand(cmd, opt))
}

// SendCommand emits a raw two-byte command: IAC cmd.
func (w *TelnetWriter) SendCommand(cmd Command) error {
	return w.sendRaw(EncodeCommand(cmd))
}

// SendGA emits IAC GA (go-ahead).
func (w *TelnetWriter) SendGA() error { return w.SendCommand(CmdGA) }

// SendEOR emits IAC EOR (end-of-record, RFC 885).
func (w *TelnetWriter) SendEOR() error { return w.SendCommand(CmdEOR) }

// SendSubnegotiation emits IAC SB opt payload... IAC SE.
func (w *TelnetWriter) SendSubnegotiation(opt Option, payload []byte) error {
	return w.sendRaw(EncodeSubnegotiation(opt, payload))
}

func (w *TelnetWriter) sendRaw(bs []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("telnet: write to closed writer")
	}
	_, err := w.conn.Write(bs)
	return err
}

// Drain is a no-op beyond what Write's blocking net.Conn.Write already
// provides; it exists so callers written against a write-then-drain
// contract have a symmetrical call, and so a Session's half-close
// sequencing reads naturally.
func (w *TelnetWriter) Drain() error { return nil }

// Close half-closes the write side; further writes fail. If the underlying
// writer also implements io.Closer, it is closed too.
func (w *TelnetWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if c, ok := w.conn.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// TelnetWriterUnicode encodes outgoing text through a per-call-sampled
// encoding before handing bytes to the underlying TelnetWriter.
type TelnetWriterUnicode struct {
	raw        *TelnetWriter
	fnEncoding EncodingFunc
}

// NewUnicodeWriter wraps raw with a text encoder driven by fn.
func NewUnicodeWriter(raw *TelnetWriter, fn EncodingFunc) *TelnetWriterUnicode {
	return &TelnetWriterUnicode{raw: raw, fnEncoding: fn}
}

// Write encodes s through the current encoding, then escapes and writes it.
func (u *TelnetWriterUnicode) Write(s string) (int, error) {
	named := u.fnEncoding()
	encoded, _, err := transform.Bytes(named.Enc.NewEncoder(), []byte(s))
	if err != nil {
		return 0, fmt.Errorf("telnet: encoding %s: %w", named.Name, err)
	}
	return u.raw.Write(encoded)
}

// WriteLines writes each string in turn.
func (u *TelnetWriterUnicode) WriteLines(lines []string) error {
	for _, line := range lines {
		if _, err := u.Write(line); err != nil {
			return err
		}
	}
	return nil
}

func (u *TelnetWriterUnicode) IAC(cmd Command, opt Option) error       { return u.raw.IAC(cmd, opt) }
func (u *TelnetWriterUnicode) SendCommand(cmd Command) error           { return u.raw.SendCommand(cmd) }
func (u *TelnetWriterUnicode) SendGA() error                           { return u.raw.SendGA() }
func (u *TelnetWriterUnicode) SendEOR() error                          { return u.raw.SendEOR() }
func (u *TelnetWriterUnicode) SendSubnegotiation(opt Option, p []byte) error {
	return u.raw.SendSubnegotiation(opt, p)
}
func (u *TelnetWriterUnicode) Drain() error { return u.raw.Drain() }
func (u *TelnetWriterUnicode) Close() error { return u.raw.Close() }
