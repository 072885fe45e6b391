package telnet

import "testing"

func TestRequestLocalEnableSendsWill(t *testing.T) {
	tbl := NewOptionTable()
	send, cmd := tbl.RequestLocalEnable(OptSGA)
	if !send || cmd != CmdWILL {
		t.Fatalf("expected WILL, got send=%v cmd=%v", send, cmd)
	}
	if tbl.LocalState(OptSGA) != QWantYes {
		t.Fatalf("expected QWantYes, got %v", tbl.LocalState(OptSGA))
	}
}

func TestHandleIncomingDoAccepted(t *testing.T) {
	tbl := NewOptionTable()
	tbl.AllowPeerDo(OptEcho)
	action := tbl.HandleIncoming(CmdDO, OptEcho)
	if !action.Send || action.Cmd != CmdWILL || !action.Enable {
		t.Fatalf("expected WILL+enable, got %+v", action)
	}
	if tbl.LocalState(OptEcho) != QYes {
		t.Fatalf("expected QYes, got %v", tbl.LocalState(OptEcho))
	}
}

func TestHandleIncomingDoRefused(t *testing.T) {
	tbl := NewOptionTable()
	action := tbl.HandleIncoming(CmdDO, OptEcho)
	if !action.Send || action.Cmd != CmdWONT || action.Enable {
		t.Fatalf("expected WONT refusal, got %+v", action)
	}
	if tbl.LocalState(OptEcho) != QNo {
		t.Fatalf("refused option must stay QNo, got %v", tbl.LocalState(OptEcho))
	}
}

func TestHandleIncomingDoAnswersOutstandingRequest(t *testing.T) {
	tbl := NewOptionTable()
	tbl.RequestLocalEnable(OptSGA) // -> QWantYes
	action := tbl.HandleIncoming(CmdDO, OptSGA)
	if action.Send {
		t.Fatalf("answering our own WILL request should not resend anything: %+v", action)
	}
	if !action.Enable || tbl.LocalState(OptSGA) != QYes {
		t.Fatalf("expected enable + QYes, got %+v state=%v", action, tbl.LocalState(OptSGA))
	}
}

// TestRFC1143SimultaneousEnable exercises the classic "both sides WILL at
// once" race from RFC 1143 §"Example": each side requests the same option
// locally before hearing from the peer, and the eventual DO must not
// provoke a second WILL.
func TestRFC1143SimultaneousEnable(t *testing.T) {
	tbl := NewOptionTable()
	tbl.AllowPeerDo(OptSGA)

	send, _ := tbl.RequestLocalEnable(OptSGA)
	if !send {
		t.Fatalf("expected to send WILL")
	}
	// Peer's DO (answering our WILL, or volunteered independently) arrives.
	action := tbl.HandleIncoming(CmdDO, OptSGA)
	if action.Send {
		t.Fatalf("DO while WANTYES must not trigger another send: %+v", action)
	}
	if tbl.LocalState(OptSGA) != QYes {
		t.Fatalf("expected settle at QYes, got %v", tbl.LocalState(OptSGA))
	}
}

func TestRFC1143DisableThenOppositeRequestQueues(t *testing.T) {
	tbl := NewOptionTable()
	tbl.AllowPeerDo(OptSGA)
	tbl.HandleIncoming(CmdDO, OptSGA) // settle at QYes via peer-initiated accept path

	send, cmd := tbl.RequestLocalDisable(OptSGA)
	if !send || cmd != CmdWONT {
		t.Fatalf("expected WONT, got send=%v cmd=%v", send, cmd)
	}
	if tbl.LocalState(OptSGA) != QWantNo {
		t.Fatalf("expected QWantNo, got %v", tbl.LocalState(OptSGA))
	}

	// While WANTNO is outstanding, asking to re-enable must queue the
	// opposite rather than sending immediately (RFC 1143 avoids the loop).
	send, _ = tbl.RequestLocalEnable(OptSGA)
	if send {
		t.Fatalf("re-enable while WANTNO outstanding must not send immediately")
	}
	if tbl.LocalState(OptSGA) != QWantNoOpposite {
		t.Fatalf("expected QWantNoOpposite, got %v", tbl.LocalState(OptSGA))
	}

	// Peer finally answers DONT; since the opposite was queued, this must
	// re-request WILL rather than settling at NO.
	doAction := tbl.HandleIncoming(CmdDONT, OptSGA)
	if !doAction.Send || doAction.Cmd != CmdWILL {
		t.Fatalf("expected DONT-while-WANTNO_OPPOSITE to re-request WILL, got %+v", doAction)
	}
	if tbl.LocalState(OptSGA) != QWantYes {
		t.Fatalf("expected QWantYes after opposite resend, got %v", tbl.LocalState(OptSGA))
	}
}

func TestHandleIncomingWillRemoteAccepted(t *testing.T) {
	tbl := NewOptionTable()
	tbl.AllowRemoteWill(OptNAWS)
	action := tbl.HandleIncoming(CmdWILL, OptNAWS)
	if !action.Send || action.Cmd != CmdDO || !action.Enable {
		t.Fatalf("expected DO+enable, got %+v", action)
	}
	if tbl.RemoteState(OptNAWS) != QYes {
		t.Fatalf("expected QYes, got %v", tbl.RemoteState(OptNAWS))
	}
}

func TestQStateString(t *testing.T) {
	cases := map[QState]string{
		QNo: "NO", QYes: "YES", QWantNo: "WANTNO",
		QWantNoOpposite: "WANTNO_OPPOSITE", QWantYes: "WANTYES",
		QWantYesOpposite: "WANTYES_OPPOSITE",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("QState(%d).String() = %q, want %q", state, got, want)
		}
	}
}
