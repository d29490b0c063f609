//go:build !windows

package config

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// OutputFileName makes sure artifact name is a plain file name: separators
// are dropped together with leading dots. Empty result is replaced by fallback.
func OutputFileName(in, fallback string) string {
	out := strings.TrimLeft(strings.Map(func(sym rune) rune {
		if sym == 0 || sym == os.PathSeparator || sym == os.PathListSeparator {
			return -1
		}
		return sym
	}, in), ".")
	if len(out) == 0 {
		return fallback
	}
	return out
}

// EnableColorOutput checks if colorized output is possible.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
