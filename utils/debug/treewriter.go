// Package debug produces human readable dumps stored in debug report.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// TreeWriter accumulates indented lines.
type TreeWriter struct {
	b strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{}
}

func (tw *TreeWriter) String() string {
	return tw.b.String()
}

func (tw *TreeWriter) indent(depth int) {
	for range depth {
		tw.b.WriteString("  ")
	}
}

// Line writes formatted line at requested depth.
func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(&tw.b, format, args...)
	tw.b.WriteByte('\n')
}

// Field writes "label: value" line, non empty strings are quoted.
func (tw *TreeWriter) Field(depth int, label string, value any) {
	tw.indent(depth)
	tw.b.WriteString(label)
	tw.b.WriteString(": ")
	switch v := value.(type) {
	case string:
		if len(v) != 0 {
			v = strconv.Quote(v)
		}
		tw.b.WriteString(v)
	default:
		fmt.Fprint(&tw.b, v)
	}
	tw.b.WriteByte('\n')
}
