package registry

import "runtime"

// terminalSpec describes a known terminal emulator before detection.
// LaunchCommand is the argv prefix used to run a command inside a fresh
// window of that emulator; the target command is appended.
type terminalSpec struct {
	ID            string
	DisplayName   string
	Executable    string
	LaunchCommand []string
}

var linuxTerminals = []terminalSpec{
	{"gnome-terminal", "GNOME Terminal", "gnome-terminal", []string{"gnome-terminal", "--", "bash", "-c"}},
	{"konsole", "Konsole", "konsole", []string{"konsole", "-e", "bash", "-c"}},
	{"xterm", "XTerm", "xterm", []string{"xterm", "-e", "bash", "-c"}},
	{"terminator", "Terminator", "terminator", []string{"terminator", "-e", "bash", "-c"}},
	{"alacritty", "Alacritty", "alacritty", []string{"alacritty", "-e", "bash", "-c"}},
	{"kitty", "Kitty", "kitty", []string{"kitty", "bash", "-c"}},
	{"xfce4-terminal", "Xfce Terminal", "xfce4-terminal", []string{"xfce4-terminal", "-e", "bash", "-c"}},
	{"mate-terminal", "MATE Terminal", "mate-terminal", []string{"mate-terminal", "-e", "bash", "-c"}},
	{"lxterminal", "LXTerminal", "lxterminal", []string{"lxterminal", "-e", "bash", "-c"}},
	{"tilix", "Tilix", "tilix", []string{"tilix", "-e", "bash", "-c"}},
}

var darwinTerminals = []terminalSpec{
	{"terminal", "Terminal.app", "open", []string{"open", "-a", "Terminal", "--args"}},
	{"iterm", "iTerm2", "open", []string{"open", "-a", "iTerm", "--args"}},
	{"alacritty", "Alacritty", "alacritty", []string{"open", "-a", "Alacritty", "--args"}},
	{"kitty", "Kitty", "kitty", []string{"open", "-a", "Kitty", "--args"}},
}

// knownTerminals returns the terminal catalog for the current platform.
func knownTerminals() []terminalSpec {
	switch runtime.GOOS {
	case "darwin":
		return darwinTerminals
	default:
		return linuxTerminals
	}
}
