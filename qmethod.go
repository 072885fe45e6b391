package telnet

import "github.com/stlalpha/gotelnet/internal/logging"

// QState is one of the six RFC 1143 negotiation states, tracked separately
// per option and per direction (local = what we do, remote = what the peer
// does).
type QState int

const (
	QNo QState = iota
	QYes
	QWantNo
	QWantNoOpposite
	QWantYes
	QWantYesOpposite
)

func (s QState) String() string {
	switch s {
	case QNo:
		return "NO"
	case QYes:
		return "YES"
	case QWantNo:
		return "WANTNO"
	case QWantNoOpposite:
		return "WANTNO_OPPOSITE"
	case QWantYes:
		return "WANTYES"
	case QWantYesOpposite:
		return "WANTYES_OPPOSITE"
	default:
		return "?"
	}
}

// side holds the Q-state for one direction of one option.
type side struct {
	state QState
}

// optionEntry is the per-option state kept in an OptionTable: independent
// Q-states for the local and remote directions, plus whatever per-option
// substate a subnegotiation handler wants to stash there (spec §3).
type optionEntry struct {
	local, remote side
	sub           any
}

// Action tells a Session's negotiation dispatcher what to do in response to
// an inbound DO/DONT/WILL/WONT. Conflict is non-empty when the peer answered
// a state it was never asked for (RFC 1143 violation); the Q-method still
// converges, but the caller may want to surface it via OnOptionConflict.
type Action struct {
	Send     bool
	Cmd      Command
	Enable   bool
	Disable  bool
	Conflict string
}

// OptionTable is the Q-method state machine of spec §4.2: for every option,
// for every inbound WILL/WONT/DO/DONT and every local initiative, it decides
// whether to accept, refuse, or stay silent, and keeps the two sides
// (local/remote) consistent under simultaneous negotiation per RFC 1143.
//
// An OptionTable is owned by exactly one Session and is never accessed
// concurrently, so no locking is needed (spec §5).
type OptionTable struct {
	entries map[Option]*optionEntry

	// policy functions decide, for an option we've never seen asked of us,
	// whether we are willing to perform it (WILL/DO) when the peer solicits
	// it (DO/WILL respectively). Options absent from both maps are refused.
	acceptWill map[Option]bool // we answer DO WILL requests from peer
	acceptDo   map[Option]bool // we answer peer's WILL with DO
}

// NewOptionTable returns an OptionTable with no options yet touched; every
// option starts at QNo/QNo per spec §3.
func NewOptionTable() *OptionTable {
	return &OptionTable{
		entries:    make(map[Option]*optionEntry),
		acceptWill: make(map[Option]bool),
		acceptDo:   make(map[Option]bool),
	}
}

// AllowRemoteWill marks that we will answer DO to a peer-initiated WILL for
// opt (i.e. we permit the peer to enable this option on their side).
func (t *OptionTable) AllowRemoteWill(opt Option) { t.acceptDo[opt] = true }

// AllowPeerDo marks that we will answer WILL to a peer-initiated DO for opt
// (i.e. we are willing to enable this option on our side when asked).
func (t *OptionTable) AllowPeerDo(opt Option) { t.acceptWill[opt] = true }

func (t *OptionTable) entry(opt Option) *optionEntry {
	e, ok := t.entries[opt]
	if !ok {
		e = &optionEntry{}
		t.entries[opt] = e
	}
	return e
}

// LocalState returns the current local (what-we-do) Q-state for opt.
func (t *OptionTable) LocalState(opt Option) QState { return t.entry(opt).local.state }

// RemoteState returns the current remote (what-peer-does) Q-state for opt.
func (t *OptionTable) RemoteState(opt Option) QState { return t.entry(opt).remote.state }

// SubState returns the per-option substate previously stored with SetSubState.
func (t *OptionTable) SubState(opt Option) any { return t.entry(opt).sub }

// SetSubState stores handler-private per-option state (e.g. the TTYPE ring
// buffer, the negotiated CHARSET name).
func (t *OptionTable) SetSubState(opt Option, v any) { t.entry(opt).sub = v }

// OptionStates is a snapshot of one option's negotiated Q-states, as
// reported by STATUS (spec: SB STATUS SEND dump).
type OptionStates struct {
	Option Option
	Local  QState
	Remote QState
}

// Snapshot returns the Q-states of every option this table has ever touched,
// for STATUS subnegotiation reporting.
func (t *OptionTable) Snapshot() []OptionStates {
	out := make([]OptionStates, 0, len(t.entries))
	for opt, e := range t.entries {
		out = append(out, OptionStates{Option: opt, Local: e.local.state, Remote: e.remote.state})
	}
	return out
}

// RequestLocalEnable asks to enable opt on our side (sends WILL per RFC 1143
// unless a request is already outstanding or it's already enabled).
func (t *OptionTable) RequestLocalEnable(opt Option) (send bool, cmd Command) {
	e := t.entry(opt)
	switch e.local.state {
	case QNo:
		e.local.state = QWantYes
		return true, CmdWILL
	case QWantNo:
		e.local.state = QWantNoOpposite
	case QWantYesOpposite:
		e.local.state = QWantYes
	}
	return false, 0
}

// RequestLocalDisable asks to disable opt on our side (sends WONT per RFC 1143).
func (t *OptionTable) RequestLocalDisable(opt Option) (send bool, cmd Command) {
	e := t.entry(opt)
	switch e.local.state {
	case QYes:
		e.local.state = QWantNo
		return true, CmdWONT
	case QWantNoOpposite:
		e.local.state = QWantNo
	case QWantYes:
		e.local.state = QWantYesOpposite
	}
	return false, 0
}

// RequestRemoteEnable asks the peer to enable opt (sends DO).
func (t *OptionTable) RequestRemoteEnable(opt Option) (send bool, cmd Command) {
	e := t.entry(opt)
	switch e.remote.state {
	case QNo:
		e.remote.state = QWantYes
		return true, CmdDO
	case QWantNo:
		e.remote.state = QWantNoOpposite
	case QWantYesOpposite:
		e.remote.state = QWantYes
	}
	return false, 0
}

// RequestRemoteDisable asks the peer to disable opt (sends DONT).
func (t *OptionTable) RequestRemoteDisable(opt Option) (send bool, cmd Command) {
	e := t.entry(opt)
	switch e.remote.state {
	case QYes:
		e.remote.state = QWantNo
		return true, CmdDONT
	case QWantNoOpposite:
		e.remote.state = QWantNo
	case QWantYes:
		e.remote.state = QWantYesOpposite
	}
	return false, 0
}

// HandleIncoming drives the Q-method for an inbound DO/DONT/WILL/WONT and
// returns the Action the caller (Session) must perform: optionally send a
// reply command, optionally enable or disable the option locally.
//
// cmd is the inbound command; the state mutated depends on whether it names
// our side (DO/DONT request that WE perform opt) or the peer's (WILL/WONT
// announce that the PEER will perform opt).
func (t *OptionTable) HandleIncoming(cmd Command, opt Option) Action {
	switch cmd {
	case CmdDO:
		return t.handleDo(opt)
	case CmdDONT:
		return t.handleDont(opt)
	case CmdWILL:
		return t.handleWill(opt)
	case CmdWONT:
		return t.handleWont(opt)
	default:
		logging.Warn("telnet: HandleIncoming called with non-negotiation command %s", cmd)
		return Action{}
	}
}

// handleDo processes a peer request that WE enable opt (affects local state).
func (t *OptionTable) handleDo(opt Option) Action {
	e := t.entry(opt)
	switch e.local.state {
	case QNo:
		if t.acceptWill[opt] {
			e.local.state = QYes
			return Action{Send: true, Cmd: CmdWILL, Enable: true}
		}
		return Action{Send: true, Cmd: CmdWONT}
	case QYes:
		return Action{}
	case QWantNo:
		e.local.state = QNo
		return Action{Conflict: "DO answered WANTNO"}
	case QWantNoOpposite:
		e.local.state = QYes
		return Action{Conflict: "DO answered WANTNO_OPPOSITE"}
	case QWantYes:
		e.local.state = QYes
		return Action{Enable: true}
	case QWantYesOpposite:
		e.local.state = QWantNo
		return Action{Send: true, Cmd: CmdWONT}
	}
	return Action{}
}

// handleDont processes a peer request that we disable opt.
func (t *OptionTable) handleDont(opt Option) Action {
	e := t.entry(opt)
	switch e.local.state {
	case QNo:
		return Action{}
	case QYes:
		e.local.state = QNo
		return Action{Send: true, Cmd: CmdWONT, Disable: true}
	case QWantNo:
		e.local.state = QNo
		return Action{Disable: true}
	case QWantNoOpposite:
		e.local.state = QWantYes
		return Action{Send: true, Cmd: CmdWILL}
	case QWantYes:
		e.local.state = QNo
		return Action{}
	case QWantYesOpposite:
		e.local.state = QNo
		return Action{}
	}
	return Action{}
}

// handleWill processes a peer announcement that they will enable opt
// (affects remote state).
func (t *OptionTable) handleWill(opt Option) Action {
	e := t.entry(opt)
	switch e.remote.state {
	case QNo:
		if t.acceptDo[opt] {
			e.remote.state = QYes
			return Action{Send: true, Cmd: CmdDO, Enable: true}
		}
		return Action{Send: true, Cmd: CmdDONT}
	case QYes:
		return Action{}
	case QWantNo:
		e.remote.state = QNo
		return Action{Conflict: "WILL answered WANTNO"}
	case QWantNoOpposite:
		e.remote.state = QYes
		return Action{Conflict: "WILL answered WANTNO_OPPOSITE"}
	case QWantYes:
		e.remote.state = QYes
		return Action{Enable: true}
	case QWantYesOpposite:
		e.remote.state = QWantNo
		return Action{Send: true, Cmd: CmdDONT}
	}
	return Action{}
}

// handleWont processes a peer announcement that they will not (or no
// longer) perform opt.
func (t *OptionTable) handleWont(opt Option) Action {
	e := t.entry(opt)
	switch e.remote.state {
	case QNo:
		return Action{}
	case QYes:
		e.remote.state = QNo
		return Action{Send: true, Cmd: CmdDONT, Disable: true}
	case QWantNo:
		e.remote.state = QNo
		return Action{Disable: true}
	case QWantNoOpposite:
		e.remote.state = QWantYes
		return Action{Send: true, Cmd: CmdDO}
	case QWantYes:
		e.remote.state = QNo
		return Action{}
	case QWantYesOpposite:
		e.remote.state = QNo
		return Action{}
	}
	return Action{}
}
