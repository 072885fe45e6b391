// Package textcodec resolves Telnet CHARSET names (RFC 2066) to
// golang.org/x/text encodings, the way the CHARSET subnegotiation handler
// and a session's initial SessionOptions.Encoding need.
package textcodec

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// registry maps the upper-cased charset name to its encoding. Names follow
// the IANA Character Sets registry as RFC 2066 requires.
var registry = map[string]encoding.Encoding{
	"UTF-8":      unicode.UTF8,
	"UTF8":       unicode.UTF8,
	"US-ASCII":   charmap.ISO8859_1, // ASCII is a strict subset; reuse the Latin-1 table.
	"ASCII":      charmap.ISO8859_1,
	"ISO-8859-1": charmap.ISO8859_1,
	"LATIN1":     charmap.ISO8859_1,
	"CP437":      charmap.CodePage437,
	"IBM437":     charmap.CodePage437,
	"CP850":      charmap.CodePage850,
	"WINDOWS-1252": charmap.Windows1252,
	"CP1252":       charmap.Windows1252,
}

// Preference is the order this engine offers charsets in when it is the
// CHARSET REQUEST sender.
var Preference = []string{"UTF-8", "CP437", "ISO-8859-1", "US-ASCII"}

// Lookup resolves name (case-insensitive) to its encoding.Encoding. ok is
// false for a name this engine does not carry a table for.
func Lookup(name string) (enc encoding.Encoding, ok bool) {
	enc, ok = registry[strings.ToUpper(strings.TrimSpace(name))]
	return enc, ok
}

// Names returns every charset name this engine recognizes, in Preference
// order followed by any remaining registry aliases.
func Names() []string {
	seen := make(map[string]bool, len(registry))
	out := make([]string, 0, len(registry))
	for _, n := range Preference {
		if _, ok := registry[n]; ok && !seen[n] {
			out = append(out, n)
			seen[n] = true
		}
	}
	for n := range registry {
		if !seen[n] {
			out = append(out, n)
			seen[n] = true
		}
	}
	return out
}
