package logging

import (
	"io"
	"os"

	"golang.org/x/term"

	"github.com/thoreinstein/docvalidate/internal/errors"
)

// ColorMode selects when terminal output is colored.
type ColorMode string

const (
	// ColorAuto colors output written to a terminal.
	ColorAuto ColorMode = "auto"
	// ColorAlways colors output regardless of the writer.
	ColorAlways ColorMode = "always"
	// ColorNever disables color.
	ColorNever ColorMode = "never"
)

// ParseColorMode returns the ColorMode named by s. An empty string is auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch ColorMode(s) {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return ColorMode(s), nil
	default:
		return "", errors.Newf("unknown color mode %q (want auto, always or never)", s)
	}
}

// IsTTY reports whether w is a terminal. Anything exposing Fd() is checked.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// SupportsColor reports whether ANSI color should be written to w in auto mode.
//
// NO_COLOR and TERM=dumb disable color; FORCE_COLOR enables it for non-terminals.
func SupportsColor(w io.Writer) bool {
	return supportsColor(IsTTY(w))
}

// ColorEnabled applies mode on top of SupportsColor.
func ColorEnabled(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return SupportsColor(w)
	}
}

func supportsColor(isTTY bool) bool {
	// https://no-color.org
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	if v, ok := os.LookupEnv("FORCE_COLOR"); ok && v != "0" {
		return true
	}
	return isTTY
}
