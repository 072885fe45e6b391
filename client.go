package telnet

import (
	"context"
	"fmt"
	"net"

	"github.com/stlalpha/gotelnet/internal/logging"
)

// Dial connects to addr, runs the Q-method's client-side defaults, and
// drives the session with shell until it closes (spec §6 client entry
// point). The returned error is shell's return value, or the connection
// error if the dial itself failed.
func Dial(ctx context.Context, addr string, opts *SessionOptions, shell ShellFunc) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("telnet: dial %s: %w", addr, err)
	}
	s := newSession(conn, RoleClient, opts)
	logging.Info("telnet: session %s connected to %s", s.id, addr)
	return s.run(ctx, shell)
}
