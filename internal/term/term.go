// Package term decides whether diagnostics may use terminal colors.
package term

import (
	"fmt"
	"os"
)

// ColorMode is the diagnostics.color setting.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates s; the empty string means auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(s); m {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	}
	return "", fmt.Errorf("unknown color mode %q (want auto, always or never)", s)
}

// UseColor resolves mode for f. In auto mode color is used only when f is a
// terminal and NO_COLOR is unset.
func UseColor(mode ColorMode, f *os.File) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}

	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return f != nil && IsTerminal(f.Fd())
}
