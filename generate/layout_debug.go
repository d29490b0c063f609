package generate

import (
	"spritegen/css"
	"spritegen/utils/debug"
)

// layoutDump returns readable description of produced sheet for debug report.
func layoutDump(src string, res *Result, rules []css.Rule) string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Source: %s", src)
	tw.Line(0, "Sheet %dx%d, %d images", res.Width, res.Height, res.Images)
	for _, r := range rules {
		tw.Line(1, "Image[%d]", r.Index)
		tw.Field(2, "name", r.Name)
		tw.Field(2, "selector", r.Selector)
		tw.Line(2, "left: %d size: %dx%d position: %dpx %dpx", r.Left, r.Width, r.Height, r.X, r.Y)
	}
	return tw.String()
}
