package telnet

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/stlalpha/gotelnet/internal/logging"
)

// subnegHandler processes a complete inbound subnegotiation payload for one
// option.
type subnegHandler func(s *Session, payload []byte)

var subnegHandlers = map[Option]subnegHandler{
	OptTTYPE:      handleTTYPE,
	OptNAWS:       handleNAWS,
	OptTSPEED:     handleTSpeed,
	OptXDISPLOC:   handleXDisploc,
	OptNEWENVIRON: handleEnviron,
	OptCHARSET:    handleCharset,
	OptLINEMODE:   handleLinemode,
	OptStatus:     handleStatus,
}

// run drives the session to completion: it starts the read pump, performs
// opening negotiation, runs shell once negotiation settles (or ConnectMaxWait
// elapses), and closes the connection when either side finishes (spec §4.6).
func (s *Session) run(ctx context.Context, shell ShellFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readDone := make(chan error, 1)
	go s.readPump(readDone)

	s.setState(StateNegotiating)
	s.volunteerAndSolicit()
	s.resetIdleTimer()
	s.awaitNegotiationSettled(ctx)

	s.setState(StateReady)
	s.setState(StateShellRunning)

	shellDone := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Error("telnet: session %s shell panicked: %v", s.id, r)
				shellDone <- errShellPanic
				return
			}
		}()
		shellDone <- shell(ctx, s)
	}()

	var err error
	select {
	case err = <-shellDone:
		cancel()
		s.Close()
		<-readDone
	case rerr := <-readDone:
		err = rerr
		cancel()
		s.Close()
		<-shellDone
	}
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return err
}

var errShellPanic = errors.New("telnet: shell panicked")

// awaitNegotiationSettled blocks until every option requested by
// volunteerAndSolicit has resolved, ConnectMaxWait elapses, or ctx is
// cancelled — whichever comes first. ConnectMinWait, if set, is honored
// afterward as a minimum floor so a very fast peer doesn't skip straight
// past options the application expects time to layer on top of in
// BeginAdvancedNegotiation.
func (s *Session) awaitNegotiationSettled(ctx context.Context) {
	start := time.Now()
	timeout := s.opts.ConnectMaxWait
	var timer *time.Timer
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		defer timer.Stop()
	}

	s.pendingMu.Lock()
	empty := len(s.pending) == 0
	s.pendingMu.Unlock()
	if empty {
		s.negOnce.Do(func() { close(s.negotiationDone) })
	}

	select {
	case <-s.negotiationDone:
	case <-timerC(timer):
	case <-ctx.Done():
	}

	if min := s.opts.ConnectMinWait; min > 0 {
		if elapsed := time.Since(start); elapsed < min {
			select {
			case <-time.After(min - elapsed):
			case <-ctx.Done():
			}
		}
	}
}

func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

// readPump owns the Codec and is the sole writer of inbound session state
// (NAWS geometry, TTYPE history, etc.) per spec §5's single-writer rule.
func (s *Session) readPump(done chan<- error) {
	var sbPayload []byte
	buf := make([]byte, 4096)

	emit := func(ev Event) {
		switch ev.Kind {
		case EventData:
			if s.reader.Feed([]byte{ev.Byte}) {
				logging.Warn("telnet: session %s read buffer over limit, peer outrunning consumer", s.id)
			}
			s.ResetTimeout()
		case EventCommand:
			s.handleCommand(ev.Command)
		case EventOptionCommand:
			s.handleOptionCommand(ev.Command, ev.Option)
		case EventSubnegStart:
			sbPayload = sbPayload[:0]
		case EventSubnegByte:
			sbPayload = append(sbPayload, ev.Byte)
		case EventSubnegEnd:
			if h, ok := subnegHandlers[ev.Option]; ok {
				payload := make([]byte, len(sbPayload))
				copy(payload, sbPayload)
				h(s, payload)
			} else {
				logging.Debug("telnet: session %s no handler for SB %s, ignoring %d bytes", s.id, ev.Option, len(sbPayload))
			}
		case EventProtocolViolation:
			s.reportProtocolViolation(ev.Option, ev.Message)
		}
	}

	for {
		n, err := s.conn.Read(buf)
		for i := 0; i < n; i++ {
			s.codec.Feed(buf[i], emit)
		}
		if err != nil {
			s.codec.Reset()
			s.reader.FeedEOF()
			if errors.Is(err, io.EOF) {
				done <- io.EOF
			} else {
				logging.Info("telnet: session %s read error: %v", s.id, err)
				done <- err
			}
			return
		}
	}
}

// handleCommand reacts to bare IAC commands that aren't negotiation or
// subnegotiation (GA, NOP, AYT, IP, ...). NOP, GA and EOR are ignored, AYT
// is answered with "[Yes]", and any other command is logged at debug level
// and otherwise ignored.
func (s *Session) handleCommand(cmd Command) {
	switch cmd {
	case CmdNOP, CmdGA, CmdEOR:
		// go-ahead / end-of-record: no half-duplex turnaround to honor over a
		// full-duplex TCP stream; nothing to do beyond noting it happened.
	case CmdAYT:
		_, _ = s.writer.Write([]byte("\r\n[Yes]\r\n"))
	default:
		logging.Debug("telnet: session %s received command %s", s.id, cmd)
	}
}

// handleOptionCommand drives the Q-method for an inbound WILL/WONT/DO/DONT
// and performs whatever Action it returns.
func (s *Session) handleOptionCommand(cmd Command, opt Option) {
	action := s.options.HandleIncoming(cmd, opt)
	if action.Send {
		s.sendNegotiation(action.Cmd, opt)
	}
	if action.Enable || action.Disable {
		s.onOptionSettled(opt, action.Enable)
	}
	if action.Conflict != "" {
		s.reportOptionConflict(opt, action.Conflict)
	}
	s.resolvePending(opt)
}

// onOptionSettled fires once an option's local or remote state reaches
// YES or falls back to NO after having been requested, letting per-option
// setup run. TTYPE/TSPEED/XDISPLOC/NEW-ENVIRON are asymmetric: only the side
// that solicited the option (the server, per spec §4.2) queries it with
// SEND; the side that volunteered it (the client) answers queries with IS
// as they arrive, handled in the subneg_*.go handlers themselves.
func (s *Session) onOptionSettled(opt Option, enabled bool) {
	if !enabled {
		return
	}
	switch opt {
	case OptTTYPE:
		if s.role == RoleServer {
			_ = s.writer.SendSubnegotiation(OptTTYPE, []byte{OpSEND})
		}
	case OptTSPEED:
		if s.role == RoleServer {
			_ = s.writer.SendSubnegotiation(OptTSPEED, []byte{OpSEND})
		}
	case OptXDISPLOC:
		if s.role == RoleServer {
			_ = s.writer.SendSubnegotiation(OptXDISPLOC, []byte{OpSEND})
		}
	case OptNEWENVIRON:
		if s.role == RoleServer {
			_ = s.writer.SendSubnegotiation(OptNEWENVIRON, []byte{OpSEND})
		}
	case OptNAWS:
		// The peer drives NAWS: it reports geometry on its own schedule
		// (and again on every resize), so there's nothing to solicit here.
	case OptCHARSET:
		if s.role == RoleClient && s.opts.UnicodeEncoding() {
			sendCharsetRequest(s)
		}
	}
}
