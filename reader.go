package telnet

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// TelnetReader is the byte-oriented buffered reader of spec §4.4: a Session
// feeds it un-escaped data bytes from the inbound stream (control bytes
// already stripped by the Codec) and a shell goroutine drains it with
// Read/ReadExactly/ReadLine/ReadUntil. It is safe for one producer
// (the session's read pump) and one consumer (the shell) to use
// concurrently.
type TelnetReader struct {
	mu    sync.Mutex
	cond  *sync.Cond
	buf   []byte
	eof   bool
	limit int
}

// NewReader returns a TelnetReader with the given soft buffer limit (spec
// default 65536 when limit <= 0).
func NewReader(limit int) *TelnetReader {
	if limit <= 0 {
		limit = 65536
	}
	r := &TelnetReader{limit: limit}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Feed appends newly-arrived data bytes to the buffer. It returns true when
// the buffer now exceeds the configured limit. The session's read pump only
// logs a warning when that happens: it does not pause socket reads, so the
// buffer keeps growing past the limit while the consumer lags.
func (r *TelnetReader) Feed(data []byte) (overLimit bool) {
	if len(data) == 0 {
		return false
	}
	r.mu.Lock()
	r.buf = append(r.buf, data...)
	over := len(r.buf) > r.limit
	r.cond.Broadcast()
	r.mu.Unlock()
	return over
}

// FeedEOF marks the stream as ended. Subsequent reads drain remaining bytes
// then return empty.
func (r *TelnetReader) FeedEOF() {
	r.mu.Lock()
	r.eof = true
	r.cond.Broadcast()
	r.mu.Unlock()
}

// Buffered reports the number of bytes currently queued.
func (r *TelnetReader) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}

// Limit reports the reader's configured soft limit.
func (r *TelnetReader) Limit() int {
	return r.limit
}

// WaitUnderLimit blocks until the buffer has drained back under the limit,
// EOF has been fed, or ctx is done. The session read pump does not call it.
func (r *TelnetReader) WaitUnderLimit(ctx context.Context) error {
	stop := r.watchContext(ctx)
	defer stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.buf) > r.limit && !r.eof {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.cond.Wait()
	}
	return ctx.Err()
}

// watchContext returns a cancel func; while active, a goroutine broadcasts
// on r.cond when ctx is done so a blocked cond.Wait() can re-check ctx.Err().
func (r *TelnetReader) watchContext(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.cond.Broadcast()
			r.mu.Unlock()
		case <-done:
		}
	}()
	return func() { close(done) }
}

// Read returns up to n bytes. n < 0 reads until EOF and returns everything
// buffered so far, bypassing the limit (spec invariant 6). n == 0 returns
// immediately without blocking (invariant 5). Otherwise it suspends until at
// least one byte is available or EOF.
func (r *TelnetReader) Read(n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if n < 0 {
		for !r.eof {
			r.cond.Wait()
		}
		out := r.buf
		r.buf = nil
		return out, nil
	}

	for len(r.buf) == 0 && !r.eof {
		r.cond.Wait()
	}
	if len(r.buf) == 0 {
		return []byte{}, nil
	}
	take := n
	if take > len(r.buf) {
		take = len(r.buf)
	}
	out := append([]byte(nil), r.buf[:take]...)
	r.buf = r.buf[take:]
	return out, nil
}

// ReadExactly returns exactly n bytes or fails with *IncompleteRead at EOF.
func (r *TelnetReader) ReadExactly(n int) ([]byte, error) {
	if n <= 0 {
		return []byte{}, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for len(r.buf) < n && !r.eof {
		r.cond.Wait()
	}
	if len(r.buf) < n {
		partial := append([]byte(nil), r.buf...)
		r.buf = nil
		return nil, &IncompleteRead{Partial: partial, Expected: n}
	}
	out := append([]byte(nil), r.buf[:n]...)
	r.buf = r.buf[n:]
	return out, nil
}

// scanLine looks for the RFC 854 line terminator in buf (see spec §8
// newline table): CRLF, bare LF, or CR followed by NUL (delivered as a bare
// CR) all terminate a line; a CR at end-of-stream with no following byte
// also terminates. Returns ok=false when more data is needed to disambiguate
// a trailing CR.
func scanLine(buf []byte, eof bool) (line []byte, consumed int, ok bool) {
	for i := 0; i < len(buf); i++ {
		switch buf[i] {
		case '\n':
			return append([]byte(nil), buf[:i+1]...), i + 1, true
		case '\r':
			if i+1 < len(buf) {
				switch buf[i+1] {
				case '\n':
					return append([]byte(nil), buf[:i+2]...), i + 2, true
				case 0x00:
					return append([]byte(nil), buf[:i+1]...), i + 2, true
				default:
					return append([]byte(nil), buf[:i+1]...), i + 1, true
				}
			}
			if eof {
				return append([]byte(nil), buf[:i+1]...), i + 1, true
			}
			return nil, 0, false
		}
	}
	return nil, 0, false
}

// ReadLine returns bytes through the first recognized line terminator,
// inclusive (spec §4.4, §8).
func (r *TelnetReader) ReadLine() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		if line, consumed, ok := scanLine(r.buf, r.eof); ok {
			r.buf = r.buf[consumed:]
			return line, nil
		}
		if r.eof {
			line := append([]byte(nil), r.buf...)
			r.buf = nil
			return line, nil
		}
		if len(r.buf) > r.limit {
			return nil, &LimitOverrun{Limit: r.limit}
		}
		r.cond.Wait()
	}
}

// ReadUntil returns bytes through and including the first occurrence of sep.
func (r *TelnetReader) ReadUntil(sep []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		if idx := bytes.Index(r.buf, sep); idx >= 0 {
			end := idx + len(sep)
			out := append([]byte(nil), r.buf[:end]...)
			r.buf = r.buf[end:]
			return out, nil
		}
		if r.eof {
			partial := append([]byte(nil), r.buf...)
			r.buf = nil
			return nil, &IncompleteRead{Partial: partial, Expected: -1}
		}
		if len(r.buf) > r.limit {
			return nil, &LimitOverrun{Limit: r.limit}
		}
		r.cond.Wait()
	}
}

func (r *TelnetReader) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.eof {
		return fmt.Sprintf("<TelnetReader eof limit=%d encoding=False>", r.limit)
	}
	return fmt.Sprintf("<TelnetReader limit=%d encoding=False>", r.limit)
}

// NamedEncoding pairs a CHARSET name with the x/text Encoding that
// implements it, so readers/writers can report the negotiated name without a
// separate reverse lookup.
type NamedEncoding struct {
	Name string
	Enc  encoding.Encoding
}

// EncodingFunc returns the encoding a TelnetReaderUnicode/TelnetWriterUnicode
// should use right now. It is sampled per read/write call rather than
// captured once, so that CHARSET renegotiation takes effect immediately
// without replacing the reader/writer object (spec §9).
type EncodingFunc func() NamedEncoding

// TelnetReaderUnicode decodes the underlying byte stream through a
// per-call-sampled encoding, counting in runes rather than bytes.
type TelnetReaderUnicode struct {
	raw        *TelnetReader
	fnEncoding EncodingFunc
}

// NewUnicodeReader wraps raw with a character decoder driven by fn.
func NewUnicodeReader(raw *TelnetReader, fn EncodingFunc) *TelnetReaderUnicode {
	return &TelnetReaderUnicode{raw: raw, fnEncoding: fn}
}

// Feed/FeedEOF/Buffered/Limit/WaitUnderLimit delegate to the raw reader.
func (u *TelnetReaderUnicode) Feed(data []byte) bool       { return u.raw.Feed(data) }
func (u *TelnetReaderUnicode) FeedEOF()                    { u.raw.FeedEOF() }
func (u *TelnetReaderUnicode) Buffered() int                { return u.raw.Buffered() }
func (u *TelnetReaderUnicode) Limit() int                   { return u.raw.Limit() }
func (u *TelnetReaderUnicode) AtEOF() bool                  { return u.raw.AtEOF() }
func (u *TelnetReaderUnicode) WaitUnderLimit(ctx context.Context) error {
	return u.raw.WaitUnderLimit(ctx)
}

// pullRunes decodes exactly n runes from the underlying byte stream, or — if
// exact is false — as many as are available before EOF (possibly fewer than
// n). Decode errors are handled with the default "replace" policy: an
// undecodable byte becomes U+FFFD and one byte of progress is made.
func (u *TelnetReaderUnicode) pullRunes(n int, exact bool) (string, error) {
	dec := u.fnEncoding().Enc.NewDecoder()
	var out []rune
	var leftover []byte
	dst := make([]byte, 64)

	for n < 0 || len(out) < n {
		chunk, err := u.raw.ReadExactly(1)
		atEOF := err != nil
		if !atEOF {
			leftover = append(leftover, chunk...)
		}

		for {
			nDst, nSrc, terr := dec.Transform(dst, leftover, atEOF)
			if nDst > 0 {
				out = append(out, []rune(string(dst[:nDst]))...)
			}
			leftover = leftover[nSrc:]
			if terr == transform.ErrShortDst {
				continue // dst too small for this round, drain it again
			}
			if terr != nil && terr != transform.ErrShortSrc {
				// Malformed byte under the current encoding: replace and
				// skip one byte to guarantee forward progress.
				out = append(out, utf8.RuneError)
				if len(leftover) > 0 {
					leftover = leftover[1:]
					continue
				}
			}
			break
		}

		if atEOF {
			if len(leftover) > 0 {
				out = append(out, utf8.RuneError)
			}
			if exact && n >= 0 && len(out) < n {
				return string(out), &IncompleteRead{Partial: []byte(string(out)), Expected: n}
			}
			return string(out), nil
		}
	}
	return string(out), nil
}

// Read returns up to n characters; n < 0 reads until EOF, n == 0 returns
// immediately.
func (u *TelnetReaderUnicode) Read(n int) (string, error) {
	if n == 0 {
		return "", nil
	}
	s, err := u.pullRunes(n, false)
	return s, err
}

// ReadExactly returns exactly n characters or fails with *IncompleteRead.
func (u *TelnetReaderUnicode) ReadExactly(n int) (string, error) {
	return u.pullRunes(n, true)
}

// ReadLine decodes through the first recognized line terminator. Because
// CR/LF/NUL are single-byte and never appear as continuation bytes of a
// multi-byte sequence in any encoding this engine supports, terminator
// detection happens on the raw byte stream before decoding.
func (u *TelnetReaderUnicode) ReadLine() (string, error) {
	raw, err := u.raw.ReadLine()
	if err != nil {
		return "", err
	}
	decoded, _, _ := transform.Bytes(u.fnEncoding().Enc.NewDecoder(), raw)
	return string(decoded), nil
}

// ReadUntil decodes through and including the first occurrence of sep
// (matched against the encoded byte form of sep).
func (u *TelnetReaderUnicode) ReadUntil(sep string) (string, error) {
	named := u.fnEncoding()
	encSep, _, err := transform.Bytes(named.Enc.NewEncoder(), []byte(sep))
	if err != nil {
		encSep = []byte(sep)
	}
	raw, err := u.raw.ReadUntil(encSep)
	if err != nil {
		if ir, ok := err.(*IncompleteRead); ok {
			decoded, _, _ := transform.Bytes(named.Enc.NewDecoder(), ir.Partial)
			return "", &IncompleteRead{Partial: decoded, Expected: ir.Expected}
		}
		return "", err
	}
	decoded, _, _ := transform.Bytes(named.Enc.NewDecoder(), raw)
	return string(decoded), nil
}

func (u *TelnetReaderUnicode) String() string {
	name := u.fnEncoding().Name
	eof := u.raw.eofSnapshot()
	return fmt.Sprintf("<TelnetReaderUnicode encoding='%s' limit=%d buflen=%d eof=%s>", name, u.raw.Limit(), u.raw.Buffered(), pyBool(eof))
}

// pyBool renders a bool the way the reprs elsewhere in this file spell
// True/False, rather than Go's lowercase true/false.
func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func (r *TelnetReader) eofSnapshot() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.eof
}

// AtEOF reports whether the peer's stream has ended (FeedEOF was called) and
// every buffered byte has been consumed.
func (r *TelnetReader) AtEOF() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.eof && len(r.buf) == 0
}
