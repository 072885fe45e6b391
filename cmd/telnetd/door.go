package main

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/creack/pty"

	"github.com/stlalpha/gotelnet"
	"github.com/stlalpha/gotelnet/internal/logging"
)

// doorShell returns a ShellFunc that hands the caller off to path over a
// PTY, the BBS-era "door game" pattern.
func doorShell(path string) telnet.ShellFunc {
	return func(ctx context.Context, s *telnet.Session) error {
		cmd := exec.CommandContext(ctx, path)
		return runDoor(s, cmd)
	}
}

// runDoor spawns cmd attached to a PTY and pipes the session's byte stream
// through it, the way a BBS "door" hands a caller off to an external
// program. Unlike a local terminal handoff, nothing here needs raw mode: the
// session's reader/writer already speak a negotiated byte stream, so only
// the PTY side needs sizing.
func runDoor(s *telnet.Session, cmd *exec.Cmd) error {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("door: start %s: %w", cmd.Path, err)
	}
	defer ptmx.Close()

	cols, _ := s.ExtraInfo(telnet.ExtraCols).(int)
	rows, _ := s.ExtraInfo(telnet.ExtraRows).(int)
	if cols > 0 && rows > 0 {
		_ = pty.Setsize(ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := io.Copy(ptmx, sessionReader{s.Reader()}); err != nil {
			logging.Debug("door: session->pty copy ended: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := io.Copy(s.Writer(), ptmx); err != nil {
			logging.Debug("door: pty->session copy ended: %v", err)
		}
	}()
	wg.Wait()
	return cmd.Wait()
}

// sessionReader adapts a *telnet.TelnetReader (chunked Read(n)) to io.Reader
// (fixed-capacity Read(p)) for io.Copy.
type sessionReader struct{ r *telnet.TelnetReader }

func (sr sessionReader) Read(p []byte) (int, error) {
	data, err := sr.r.Read(len(p))
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, io.EOF
	}
	return copy(p, data), nil
}
