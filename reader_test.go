package telnet

import (
	"bytes"
	"testing"
	"time"

	"golang.org/x/text/encoding/unicode"
)

func TestReaderReadZeroReturnsImmediately(t *testing.T) {
	r := NewReader(0)
	out, err := r.Read(0)
	if err != nil || len(out) != 0 {
		t.Fatalf("Read(0) = %v, %v, want empty, nil", out, err)
	}
}

func TestReaderReadBlocksForData(t *testing.T) {
	r := NewReader(0)
	done := make(chan struct{})
	var out []byte
	go func() {
		out, _ = r.Read(5)
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	r.Feed([]byte("hello world"))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Read never returned after Feed")
	}
	if string(out) != "hello" {
		t.Fatalf("Read(5) = %q, want %q", out, "hello")
	}
}

func TestReaderReadNegativeBypassesLimit(t *testing.T) {
	r := NewReader(4)
	r.Feed(bytes.Repeat([]byte{'x'}, 100))
	r.FeedEOF()
	out, err := r.Read(-1)
	if err != nil || len(out) != 100 {
		t.Fatalf("Read(-1) = len %d err %v, want 100 bytes nil err", len(out), err)
	}
}

func TestReaderReadExactlyIncomplete(t *testing.T) {
	r := NewReader(0)
	r.Feed([]byte("ab"))
	r.FeedEOF()
	_, err := r.ReadExactly(5)
	ir, ok := err.(*IncompleteRead)
	if !ok {
		t.Fatalf("expected *IncompleteRead, got %v (%T)", err, err)
	}
	if string(ir.Partial) != "ab" || ir.Expected != 5 {
		t.Fatalf("unexpected IncompleteRead: %+v", ir)
	}
}

func TestReaderLineTerminators(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		eof   bool
		want  string
		ok    bool
	}{
		{"crlf", "alpha\r\n", false, "alpha\r\n", true},
		{"bare lf", "bravo\n", false, "bravo\n", true},
		{"cr nul", "charlie\r\x00", false, "charlie\r", true},
		{"cr then other", "delta\rX", false, "delta\r", true},
		{"cr at true eof", "echo\r", true, "echo\r", true},
		{"cr pending more data", "foxtrot\r", false, "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			line, consumed, ok := scanLine([]byte(c.in), c.eof)
			if ok != c.ok {
				t.Fatalf("scanLine ok = %v, want %v", ok, c.ok)
			}
			if !ok {
				return
			}
			if string(line) != c.want {
				t.Fatalf("scanLine line = %q, want %q", line, c.want)
			}
			if consumed == 0 {
				t.Fatalf("expected consumed > 0")
			}
		})
	}
}

func TestReaderStringRepr(t *testing.T) {
	r := NewReader(1999)
	if got, want := r.String(), "<TelnetReader limit=1999 encoding=False>"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	r.FeedEOF()
	if got, want := r.String(), "<TelnetReader eof limit=1999 encoding=False>"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func utf8Encoding() NamedEncoding {
	return NamedEncoding{Name: "def-ENC", Enc: unicode.UTF8}
}

func TestUnicodeReaderStringRepr(t *testing.T) {
	r := NewReader(1999)
	u := NewUnicodeReader(r, utf8Encoding)
	want := "<TelnetReaderUnicode encoding='def-ENC' limit=1999 buflen=0 eof=False>"
	if got := u.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestUnicodeReaderReadExactlySplitRune(t *testing.T) {
	r := NewReader(0)
	u := NewUnicodeReader(r, utf8Encoding)

	text := "☭---------\U0001f489-"
	done := make(chan struct{})
	go func() {
		r.Feed([]byte(text))
		r.FeedEOF()
		close(done)
	}()

	first, err := u.ReadExactly(10)
	if err != nil {
		t.Fatalf("first ReadExactly: %v", err)
	}
	if first != "☭---------" {
		t.Fatalf("first = %q", first)
	}

	_, err = u.ReadExactly(3)
	ir, ok := err.(*IncompleteRead)
	if !ok {
		t.Fatalf("expected *IncompleteRead on second read, got %v", err)
	}
	if ir.Expected != 3 {
		t.Fatalf("Expected = %d, want 3", ir.Expected)
	}
	<-done
}

func TestUnicodeReaderReadLine(t *testing.T) {
	r := NewReader(0)
	u := NewUnicodeReader(r, utf8Encoding)
	r.Feed([]byte("héllo\r\n"))
	line, err := u.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "héllo\r\n" {
		t.Fatalf("ReadLine = %q, want %q", line, "héllo\r\n")
	}
}
