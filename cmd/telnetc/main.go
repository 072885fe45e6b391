// Command telnetc is a small reference Telnet client built on the gotelnet
// engine: it puts the local terminal into raw mode, seeds NAWS from the
// detected window size, and pipes stdio through the negotiated session.
package main

import (
	"context"
	"flag"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/stlalpha/gotelnet"
	"github.com/stlalpha/gotelnet/internal/config"
	"github.com/stlalpha/gotelnet/internal/logging"
)

func main() {
	configPath := flag.String("config", "telnetc.json", "path to client config")
	addrFlag := flag.String("addr", "", "override the configured host:port")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logging.DebugEnabled = *debug

	cfg, err := config.LoadClientConfig(*configPath)
	if err != nil {
		logging.Error("telnetc: %v", err)
		os.Exit(1)
	}
	addr := cfg.Addr
	if *addrFlag != "" {
		addr = *addrFlag
	}

	cols, rows := 80, 24
	if w, h, err := term.GetSize(int(os.Stdin.Fd())); err == nil {
		cols, rows = w, h
	}

	opts := &telnet.SessionOptions{
		Encoding:         cfg.Encoding,
		Term:             cfg.Term,
		Cols:             cols,
		Rows:             rows,
		XDisplayLocation: cfg.XDisplayLocation,
		TerminalSpeed:    cfg.TerminalSpeed,
		Lang:             cfg.Lang,
	}

	var restore func()
	if term.IsTerminal(int(os.Stdin.Fd())) {
		old, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			logging.Warn("telnetc: could not set raw mode: %v", err)
		} else {
			restore = func() { _ = term.Restore(int(os.Stdin.Fd()), old) }
		}
	}
	if restore != nil {
		defer restore()
	}

	if err := telnet.Dial(context.Background(), addr, opts, stdioShell); err != nil {
		logging.Error("telnetc: %v", err)
		os.Exit(1)
	}
}

// stdioShell pipes the local terminal's stdin/stdout through the negotiated
// session, the way a real Telnet client does once negotiation settles.
func stdioShell(ctx context.Context, s *telnet.Session) error {
	done := make(chan error, 2)
	go func() {
		_, err := io.Copy(writerFromSession(s), os.Stdin)
		done <- err
	}()
	go func() {
		_, err := io.Copy(os.Stdout, readerFromSession(s))
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func writerFromSession(s *telnet.Session) io.Writer {
	if uw := s.UnicodeWriter(); uw != nil {
		return unicodeWriterAdapter{uw}
	}
	return s.Writer()
}

func readerFromSession(s *telnet.Session) io.Reader {
	if ur := s.UnicodeReader(); ur != nil {
		return unicodeReaderAdapter{ur}
	}
	return byteReaderAdapter{s.Reader()}
}

type byteReaderAdapter struct{ r *telnet.TelnetReader }

func (a byteReaderAdapter) Read(p []byte) (int, error) {
	data, err := a.r.Read(len(p))
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

type unicodeReaderAdapter struct{ r *telnet.TelnetReaderUnicode }

func (a unicodeReaderAdapter) Read(p []byte) (int, error) {
	s, err := a.r.Read(len(p))
	if err != nil {
		return 0, err
	}
	if len(s) == 0 {
		return 0, io.EOF
	}
	return copy(p, s), nil
}

type unicodeWriterAdapter struct{ w *telnet.TelnetWriterUnicode }

func (a unicodeWriterAdapter) Write(p []byte) (int, error) { return a.w.Write(string(p)) }
