//go:build windows

package config

import (
	"os"
	"strings"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
	"golang.org/x/term"
)

// OutputFileName makes sure artifact name is a plain file name: reserved
// characters are dropped together with leading dots. Empty result is replaced
// by fallback.
func OutputFileName(in, fallback string) string {
	out := strings.TrimLeft(strings.Map(func(sym rune) rune {
		if sym < 32 || strings.ContainsRune(`<>":/\|?*`, sym) {
			return -1
		}
		return sym
	}, in), ".")
	if len(out) == 0 {
		return fallback
	}
	return out
}

// EnableColorOutput checks if colorized output is possible and enables VT100
// sequence processing in Windows 10+ console.
func EnableColorOutput(stream *os.File) bool {
	if !term.IsTerminal(int(stream.Fd())) || windowsMajorVersion() < 10 {
		return false
	}

	const enableVirtualTerminalProcessing uint32 = 0x4

	var mode uint32
	h := windows.Handle(stream.Fd())
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return false
	}
	return windows.SetConsoleMode(h, mode|enableVirtualTerminalProcessing) == nil
}

func windowsMajorVersion() uint64 {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, `SOFTWARE\Microsoft\Windows NT\CurrentVersion`, registry.QUERY_VALUE)
	if err != nil {
		return 0
	}
	defer k.Close()

	v, _, err := k.GetIntegerValue("CurrentMajorVersionNumber")
	if err != nil {
		return 0
	}
	return v
}
