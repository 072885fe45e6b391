package telnet

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/stlalpha/gotelnet/internal/logging"
	"github.com/stlalpha/gotelnet/internal/reaper"
)

// Server accepts Telnet connections and runs shell over each negotiated
// Session, recovering from shell panics the way a long-lived listener must
// (spec §4.6/§7: a single session's crash must not take the listener down).
type Server struct {
	Addr    string
	Options *SessionOptions
	Shell   ShellFunc

	// NewOptions, if set, is called per accepted connection to derive that
	// session's SessionOptions from Options (e.g. to copy it and stamp in a
	// per-connection Term default). If nil, Options is used for every
	// session (and must not be mutated by Shell).
	NewOptions func(base *SessionOptions, conn net.Conn) *SessionOptions

	mu       sync.Mutex
	sessions map[string]*Session
	ln       net.Listener
}

// NewServer returns a Server ready to Serve or ListenAndServe.
func NewServer(addr string, opts *SessionOptions, shell ShellFunc) *Server {
	return &Server{
		Addr:     addr,
		Options:  opts,
		Shell:    shell,
		sessions: make(map[string]*Session),
	}
}

// ListenAndServe listens on srv.Addr and calls Serve.
func (srv *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("telnet: listen %s: %w", srv.Addr, err)
	}
	return srv.Serve(ln)
}

// Serve accepts connections on ln until it returns an error (typically
// because Shutdown closed it).
func (srv *Server) Serve(ln net.Listener) error {
	srv.mu.Lock()
	srv.ln = ln
	srv.mu.Unlock()

	logging.Info("telnet: server listening on %s", ln.Addr())
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go srv.handleConnection(conn)
	}
}

func (srv *Server) handleConnection(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("telnet: connection handler for %s panicked: %v", conn.RemoteAddr(), r)
			conn.Close()
		}
	}()

	opts := srv.Options
	if srv.NewOptions != nil {
		opts = srv.NewOptions(srv.Options, conn)
	}
	s := newSession(conn, RoleServer, opts)

	srv.mu.Lock()
	srv.sessions[s.id] = s
	srv.mu.Unlock()
	defer func() {
		srv.mu.Lock()
		delete(srv.sessions, s.id)
		srv.mu.Unlock()
	}()

	logging.Info("telnet: session %s accepted from %s", s.id, conn.RemoteAddr())
	if err := s.run(context.Background(), srv.Shell); err != nil {
		logging.Info("telnet: session %s ended: %v", s.id, err)
	} else {
		logging.Info("telnet: session %s ended", s.id)
	}
}

// Sessions returns a snapshot of the currently active sessions, for use by
// an idle reaper or an admin status command.
func (srv *Server) Sessions() []*Session {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	out := make([]*Session, 0, len(srv.sessions))
	for _, s := range srv.sessions {
		out = append(out, s)
	}
	return out
}

// ReaperSessions adapts Sessions to the interface internal/reaper sweeps,
// keeping that package independent of the root module.
func (srv *Server) ReaperSessions() []reaper.Session {
	sessions := srv.Sessions()
	out := make([]reaper.Session, len(sessions))
	for i, s := range sessions {
		out[i] = s
	}
	return out
}

// Lister adapts srv to reaper.SessionLister for wiring into reaper.New.
func (srv *Server) Lister() reaper.SessionLister { return serverLister{srv} }

type serverLister struct{ srv *Server }

func (l serverLister) Sessions() []reaper.Session { return l.srv.ReaperSessions() }

// Shutdown closes the listener and every active session.
func (srv *Server) Shutdown() error {
	srv.mu.Lock()
	ln := srv.ln
	sessions := make([]*Session, 0, len(srv.sessions))
	for _, s := range srv.sessions {
		sessions = append(sessions, s)
	}
	srv.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	for _, s := range sessions {
		s.Close()
	}
	return err
}
