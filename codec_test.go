package telnet

import (
	"bytes"
	"testing"
)

func feedAll(c *Codec, data []byte) []Event {
	var events []Event
	for _, b := range data {
		c.Feed(b, func(ev Event) { events = append(events, ev) })
	}
	return events
}

func TestCodecPlainData(t *testing.T) {
	c := NewCodec(0)
	events := feedAll(c, []byte("hi"))
	if len(events) != 2 || events[0].Kind != EventData || events[0].Byte != 'h' {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestCodecEscapedFF(t *testing.T) {
	c := NewCodec(0)
	events := feedAll(c, []byte{0xFF, 0xFF})
	if len(events) != 1 || events[0].Kind != EventData || events[0].Byte != 0xFF {
		t.Fatalf("expected single escaped 0xFF data event, got %+v", events)
	}
}

func TestCodecOptionCommand(t *testing.T) {
	c := NewCodec(0)
	events := feedAll(c, []byte{byte(CmdIAC), byte(CmdWILL), byte(OptEcho)})
	if len(events) != 1 || events[0].Kind != EventOptionCommand {
		t.Fatalf("expected one option command event, got %+v", events)
	}
	if events[0].Command != CmdWILL || events[0].Option != OptEcho {
		t.Fatalf("wrong command/option: %+v", events[0])
	}
}

func TestCodecBareCommand(t *testing.T) {
	c := NewCodec(0)
	events := feedAll(c, []byte{byte(CmdIAC), byte(CmdGA)})
	if len(events) != 1 || events[0].Kind != EventCommand || events[0].Command != CmdGA {
		t.Fatalf("expected bare GA command event, got %+v", events)
	}
}

func TestCodecSubnegotiation(t *testing.T) {
	c := NewCodec(0)
	wire := []byte{byte(CmdIAC), byte(CmdSB), byte(OptTTYPE), OpIS, 'v', 't', '1', '0', '0', byte(CmdIAC), byte(CmdSE)}
	events := feedAll(c, wire)

	if events[0].Kind != EventSubnegStart || events[0].Option != OptTTYPE {
		t.Fatalf("expected subneg start, got %+v", events[0])
	}
	var payload []byte
	for _, ev := range events[1 : len(events)-1] {
		if ev.Kind != EventSubnegByte {
			t.Fatalf("expected subneg byte, got %+v", ev)
		}
		payload = append(payload, ev.Byte)
	}
	if !bytes.Equal(payload, []byte{OpIS, 'v', 't', '1', '0', '0'}) {
		t.Fatalf("unexpected subneg payload: %q", payload)
	}
	last := events[len(events)-1]
	if last.Kind != EventSubnegEnd || last.Option != OptTTYPE {
		t.Fatalf("expected subneg end, got %+v", last)
	}
}

func TestCodecSubnegotiationEscapedFF(t *testing.T) {
	c := NewCodec(0)
	wire := []byte{byte(CmdIAC), byte(CmdSB), byte(OptNAWS), 0xFF, 0xFF, 0x00, 0x50, byte(CmdIAC), byte(CmdSE)}
	events := feedAll(c, wire)
	var payload []byte
	for _, ev := range events {
		if ev.Kind == EventSubnegByte {
			payload = append(payload, ev.Byte)
		}
	}
	if !bytes.Equal(payload, []byte{0xFF, 0x00, 0x50}) {
		t.Fatalf("expected escaped 0xFF to unescape inside subneg, got %v", payload)
	}
}

func TestCodecMalformedSubnegotiationDiscarded(t *testing.T) {
	c := NewCodec(0)
	// IAC SB opt <byte> IAC <garbage> -- not IAC or SE: discard and resume.
	wire := []byte{byte(CmdIAC), byte(CmdSB), byte(OptTTYPE), 'x', byte(CmdIAC), byte(CmdNOP)}
	events := feedAll(c, wire)
	for _, ev := range events {
		if ev.Kind == EventSubnegEnd {
			t.Fatalf("malformed subnegotiation should never emit SubnegEnd, got %+v", ev)
		}
	}
	// The codec should have resumed stNormal and be ready for plain data.
	more := feedAll(c, []byte("ok"))
	if len(more) != 2 {
		t.Fatalf("codec did not resume normal state after malformed subneg: %+v", more)
	}
}

func TestCodecSubnegotiationLimitEnforced(t *testing.T) {
	c := NewCodec(4)
	var wire []byte
	wire = append(wire, byte(CmdIAC), byte(CmdSB), byte(OptTTYPE))
	wire = append(wire, bytes.Repeat([]byte{'a'}, 10)...)
	wire = append(wire, byte(CmdIAC), byte(CmdSE))
	events := feedAll(c, wire)
	for _, ev := range events {
		if ev.Kind == EventSubnegEnd {
			t.Fatalf("over-limit subnegotiation should be discarded, not completed: %+v", ev)
		}
	}
}

func TestEscapeData(t *testing.T) {
	in := []byte{1, 0xFF, 2, 0xFF}
	out := EscapeData(in)
	want := []byte{1, 0xFF, 0xFF, 2, 0xFF, 0xFF}
	if !bytes.Equal(out, want) {
		t.Fatalf("EscapeData(%v) = %v, want %v", in, out, want)
	}
}

func TestEscapeDataNoAllocWhenClean(t *testing.T) {
	in := []byte{1, 2, 3}
	out := EscapeData(in)
	if &in[0] != &out[0] {
		t.Fatalf("expected EscapeData to return the same backing array when nothing needs escaping")
	}
}

func TestEncodeSubnegotiationRoundTrip(t *testing.T) {
	wire := EncodeSubnegotiation(OptNAWS, []byte{0x00, 0x50, 0x00, 0x18})
	c := NewCodec(0)
	var events []Event
	for _, b := range wire {
		c.Feed(b, func(ev Event) { events = append(events, ev) })
	}
	if events[0].Kind != EventSubnegStart || events[0].Option != OptNAWS {
		t.Fatalf("round trip failed: %+v", events)
	}
}
