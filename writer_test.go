package telnet

import (
	"bytes"
	"testing"
)

func TestWriterEscapesFF(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if _, err := w.Write([]byte{1, 0xFF, 2}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := []byte{1, 0xFF, 0xFF, 2}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got %v, want %v", buf.Bytes(), want)
	}
}

func TestWriterIACRejectsNonNegotiationCommand(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.IAC(CmdGA, OptEcho); err == nil {
		t.Fatalf("expected error for non-negotiation command")
	}
}

func TestWriterIACEncodesWill(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.IAC(CmdWILL, OptEcho); err != nil {
		t.Fatalf("IAC: %v", err)
	}
	want := []byte{byte(CmdIAC), byte(CmdWILL), byte(OptEcho)}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got %v, want %v", buf.Bytes(), want)
	}
}

func TestWriterSendSubnegotiation(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.SendSubnegotiation(OptNAWS, []byte{0, 80, 0, 24}); err != nil {
		t.Fatalf("SendSubnegotiation: %v", err)
	}
	want := []byte{byte(CmdIAC), byte(CmdSB), byte(OptNAWS), 0, 80, 0, 24, byte(CmdIAC), byte(CmdSE)}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got %v, want %v", buf.Bytes(), want)
	}
}

func TestWriterCloseRejectsFurtherWrites(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := w.Write([]byte("x")); err == nil {
		t.Fatalf("expected write-after-close error")
	}
}

func TestUnicodeWriterEncodes(t *testing.T) {
	var buf bytes.Buffer
	raw := NewWriter(&buf)
	u := NewUnicodeWriter(raw, utf8Encoding)
	if _, err := u.Write("héllo"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != "héllo" {
		t.Fatalf("got %q, want %q", buf.String(), "héllo")
	}
}
