package dispatch

// keySequences maps named keys to the byte sequences a pty understands.
// Arrow and navigation keys use the CSI sequences every modern terminal
// emits; Enter is a bare newline because the pty line discipline
// translates it for the foreground process.
var keySequences = map[string]string{
	"Enter":     "\n",
	"Tab":       "\t",
	"Backspace": "\b",
	"Escape":    "\x1b",
	"Space":     " ",
	"Up":        "\x1b[A",
	"Down":      "\x1b[B",
	"Right":     "\x1b[C",
	"Left":      "\x1b[D",
	"Home":      "\x1b[H",
	"End":       "\x1b[F",
	"PageUp":    "\x1b[5~",
	"PageDown":  "\x1b[6~",
	"Delete":    "\x1b[3~",
	"Clear":     "\x0c",
}

// KeySequence returns the wire bytes for a named key.
func KeySequence(name string) (string, bool) {
	seq, ok := keySequences[name]
	return seq, ok
}

// ControlChar converts a letter into its control character byte
// (ctrl-a = 0x01 .. ctrl-z = 0x1a). Only ASCII letters are valid.
func ControlChar(letter string) (byte, bool) {
	if len(letter) != 1 {
		return 0, false
	}
	ch := letter[0]
	if ch >= 'A' && ch <= 'Z' {
		ch += 'a' - 'A'
	}
	if ch < 'a' || ch > 'z' {
		return 0, false
	}
	return ch - 'a' + 1, true
}
