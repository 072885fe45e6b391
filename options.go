package telnet

// Role distinguishes which side of a connection a Session plays, since the
// Q-method's policy defaults (spec §4.2) differ for server vs client.
type Role int

const (
	RoleServer Role = iota
	RoleClient
)

// applyServerDefaults configures t the way a freshly accepted server
// volunteers and solicits options per spec §4.2: WILL {ECHO if configured,
// SGA, BINARY in both directions when unicode encoding is active}, DO
// {TTYPE, NAWS, TSPEED, XDISPLOC, NEW-ENVIRON, CHARSET, LINEMODE}.
func applyServerDefaults(t *OptionTable, cfg *SessionOptions) {
	t.AllowPeerDo(OptSGA)
	t.AllowRemoteWill(OptSGA)
	t.AllowPeerDo(OptEcho)
	if cfg.UnicodeEncoding() {
		t.AllowPeerDo(OptBinary)
		t.AllowRemoteWill(OptBinary)
	}
	for _, opt := range []Option{OptTTYPE, OptNAWS, OptTSPEED, OptXDISPLOC, OptNEWENVIRON, OptCHARSET, OptLINEMODE} {
		t.AllowRemoteWill(opt)
	}
	t.AllowPeerDo(OptStatus)
	t.AllowRemoteWill(OptStatus)
}

// applyClientDefaults configures t the way a freshly connected client
// volunteers and solicits options per spec §4.2: WILL {NAWS, TTYPE if term
// configured, NEW-ENVIRON, XDISPLOC if configured, TSPEED if configured,
// CHARSET}, DO {ECHO, SGA, BINARY}.
func applyClientDefaults(t *OptionTable, cfg *SessionOptions) {
	t.AllowPeerDo(OptNAWS)
	if cfg.Term != "" {
		t.AllowPeerDo(OptTTYPE)
	}
	t.AllowPeerDo(OptNEWENVIRON)
	if cfg.XDisplayLocation != "" {
		t.AllowPeerDo(OptXDISPLOC)
	}
	if cfg.TerminalSpeed != "" {
		t.AllowPeerDo(OptTSPEED)
	}
	t.AllowPeerDo(OptCHARSET)
	t.AllowRemoteWill(OptEcho)
	t.AllowRemoteWill(OptSGA)
	t.AllowPeerDo(OptSGA)
	t.AllowRemoteWill(OptBinary)
	t.AllowPeerDo(OptBinary)
}

// volunteerAndSolicit emits the opening negotiation burst described in spec
// §4.6 step 1 ("begin negotiation"): for a server this volunteers
// ECHO/SGA/BINARY and solicits TTYPE/NAWS/TSPEED/XDISPLOC/NEW-ENVIRON/CHARSET/LINEMODE;
// for a client this volunteers NAWS/TTYPE/NEW-ENVIRON/XDISPLOC/TSPEED/CHARSET
// and solicits ECHO/SGA/BINARY.
func (s *Session) volunteerAndSolicit() {
	switch s.role {
	case RoleServer:
		if s.opts.ServerWillEcho {
			s.requestLocalEnable(OptEcho)
		}
		s.requestLocalEnable(OptSGA)
		s.requestRemoteEnable(OptSGA)
		if s.opts.UnicodeEncoding() {
			s.requestLocalEnable(OptBinary)
			s.requestRemoteEnable(OptBinary)
		}
		for _, opt := range []Option{OptTTYPE, OptNAWS, OptTSPEED, OptXDISPLOC, OptNEWENVIRON, OptCHARSET, OptLINEMODE} {
			s.requestRemoteEnable(opt)
			s.pending[opt] = true
		}
	case RoleClient:
		s.requestLocalEnable(OptNAWS)
		s.pending[OptNAWS] = true
		if s.opts.Term != "" {
			s.requestLocalEnable(OptTTYPE)
			s.pending[OptTTYPE] = true
		}
		s.requestLocalEnable(OptNEWENVIRON)
		s.pending[OptNEWENVIRON] = true
		if s.opts.XDisplayLocation != "" {
			s.requestLocalEnable(OptXDISPLOC)
			s.pending[OptXDISPLOC] = true
		}
		if s.opts.TerminalSpeed != "" {
			s.requestLocalEnable(OptTSPEED)
			s.pending[OptTSPEED] = true
		}
		s.requestLocalEnable(OptCHARSET)
		s.pending[OptCHARSET] = true
		s.requestRemoteEnable(OptEcho)
		s.requestRemoteEnable(OptSGA)
		s.requestLocalEnable(OptSGA)
		s.requestRemoteEnable(OptBinary)
	}
	if s.opts.Hooks.BeginAdvancedNegotiation != nil {
		s.opts.Hooks.BeginAdvancedNegotiation(s)
	}
}
