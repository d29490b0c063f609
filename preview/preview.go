// Package preview builds HTML page showing every sprite through classes from
// generated stylesheet.
package preview

import (
	"bytes"
	"fmt"
	"path"

	"github.com/beevik/etree"

	"spritegen/css"
)

const pageStyle = `figure { display: inline-block; margin: 8px; text-align: center; vertical-align: top; }
figcaption { font: 12px monospace; }`

// Build returns page referencing stylesheet by name, one figure per rule in
// rule order.
func Build(title, stylesheet string, rules []css.Rule) ([]byte, error) {
	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalEndTags = true
	doc.CreateDirective("DOCTYPE html")

	html := doc.CreateElement("html")
	html.CreateAttr("lang", "en")

	head := html.CreateElement("head")
	head.CreateElement("meta").CreateAttr("charset", "utf-8")
	head.CreateElement("title").SetText(title)

	link := head.CreateElement("link")
	link.CreateAttr("rel", "stylesheet")
	link.CreateAttr("type", "text/css")
	link.CreateAttr("href", stylesheet)

	head.CreateElement("style").SetText(pageStyle)

	body := html.CreateElement("body")
	body.CreateElement("h1").SetText(title)

	for _, r := range rules {
		fig := body.CreateElement("figure")
		fig.CreateAttr("id", fmt.Sprintf("sprite-%d", r.Index))

		sample := fig.CreateElement("div")
		sample.CreateAttr("class", r.Selector)
		sample.CreateAttr("title", r.Name)

		fig.CreateElement("figcaption").SetText(fmt.Sprintf(".%s %s %dx%d", r.Selector, path.Base(r.Name), r.Width, r.Height))
	}

	doc.Indent(2)

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("unable to produce preview page: %w", err)
	}
	return buf.Bytes(), nil
}
