package telnet

import (
	"github.com/stlalpha/gotelnet/internal/logging"
	"github.com/stlalpha/gotelnet/internal/textcodec"
)

// lookupEncoding resolves name to a NamedEncoding, falling back to UTF-8
// (and logging a warning) when name is not recognized.
func lookupEncoding(name string) NamedEncoding {
	enc, ok := textcodec.Lookup(name)
	if !ok {
		logging.Warn("telnet: unknown charset %q, defaulting to UTF-8", name)
		enc, _ = textcodec.Lookup("UTF-8")
		return NamedEncoding{Name: "UTF-8", Enc: enc}
	}
	return NamedEncoding{Name: name, Enc: enc}
}

// knownCharsets lists the charset names this engine offers in CHARSET
// subnegotiation, in preference order.
func knownCharsets() []string { return textcodec.Names() }
